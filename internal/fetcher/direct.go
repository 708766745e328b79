package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/temoto/robotstxt"
	"golang.org/x/time/rate"
)

// DefaultUserAgent 直连时使用的UA
const DefaultUserAgent = "venue-analyze/1.0 (+https://scholar.google.com)"

// ErrBlockedByRobots robots.txt 不允许抓取
var ErrBlockedByRobots = errors.New("blocked by robots.txt")

const maxRetries = 3

// DirectFetcher 直接请求Scholar：每个host限速，遵守robots.txt，429/503退避重试
type DirectFetcher struct {
	client      *http.Client
	baseURL     string
	ua          string
	rps         float64
	limiters    map[string]*rate.Limiter
	robotsCache map[string]*robotstxt.RobotsData
	mu          sync.Mutex
	logger      *slog.Logger
}

// DirectOption 配置项
type DirectOption func(*DirectFetcher)

// WithBaseURL 替换Scholar地址（测试用）
func WithBaseURL(base string) DirectOption {
	return func(d *DirectFetcher) { d.baseURL = strings.TrimRight(base, "/") }
}

// WithHTTPClient 替换http客户端
func WithHTTPClient(c *http.Client) DirectOption {
	return func(d *DirectFetcher) { d.client = c }
}

// WithDirectLogger 设置日志
func WithDirectLogger(l *slog.Logger) DirectOption {
	return func(d *DirectFetcher) { d.logger = l }
}

// NewDirectFetcher rps<=0 时不限速
func NewDirectFetcher(userAgent string, rps float64, opts ...DirectOption) *DirectFetcher {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	d := &DirectFetcher{
		client:      &http.Client{Timeout: 30 * time.Second},
		baseURL:     ScholarBaseURL,
		ua:          userAgent,
		rps:         rps,
		limiters:    map[string]*rate.Limiter{},
		robotsCache: map[string]*robotstxt.RobotsData{},
		logger:      slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// FetchScholarPage 获取一页论文列表
func (d *DirectFetcher) FetchScholarPage(ctx context.Context, scholarID string, cstart, pageSize int) (string, error) {
	pageURL := ScholarPageURL(d.baseURL, scholarID, cstart, pageSize)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept-Language", "en")

	resp, err := d.do(ctx, req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("scholar returned status %d", resp.StatusCode)
	}
	return string(body), nil
}

func (d *DirectFetcher) limiterFor(host string) *rate.Limiter {
	d.mu.Lock()
	defer d.mu.Unlock()
	if l, ok := d.limiters[host]; ok {
		return l
	}
	limit := rate.Inf
	if d.rps > 0 {
		limit = rate.Limit(d.rps)
	}
	l := rate.NewLimiter(limit, 1)
	d.limiters[host] = l
	return l
}

func (d *DirectFetcher) do(ctx context.Context, req *http.Request) (*http.Response, error) {
	req.Header.Set("User-Agent", d.ua)

	if !d.allowed(ctx, req.URL) {
		return nil, fmt.Errorf("%w: %s", ErrBlockedByRobots, req.URL)
	}

	limiter := d.limiterFor(req.URL.Hostname())

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if err := limiter.Wait(ctx); err != nil {
			return nil, err
		}

		resp, err := d.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusServiceUnavailable {
			lastErr = fmt.Errorf("retryable status %d", resp.StatusCode)
			resp.Body.Close()
			backoff := time.Duration(500*(1<<attempt)) * time.Millisecond
			d.logger.Debug("[Direct Fetcher] Backing off", "status", resp.StatusCode, "attempt", attempt+1, "backoff", backoff)
			select {
			case <-time.After(backoff):
				continue
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		return resp, nil
	}

	return nil, fmt.Errorf("failed after %d attempts: %w", maxRetries, lastErr)
}

func (d *DirectFetcher) robotsFor(ctx context.Context, u *url.URL) (*robotstxt.RobotsData, error) {
	host := u.Host
	d.mu.Lock()
	if data, ok := d.robotsCache[host]; ok {
		d.mu.Unlock()
		return data, nil
	}
	d.mu.Unlock()

	robotsURL := fmt.Sprintf("%s://%s/robots.txt", u.Scheme, u.Host)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", d.ua)

	if err := d.limiterFor(u.Hostname()).Wait(ctx); err != nil {
		return nil, err
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := robotstxt.FromResponse(resp)
	if err != nil {
		return nil, err
	}

	d.mu.Lock()
	d.robotsCache[host] = data
	d.mu.Unlock()
	return data, nil
}

// allowed robots.txt 拉取失败时放行
func (d *DirectFetcher) allowed(ctx context.Context, u *url.URL) bool {
	data, err := d.robotsFor(ctx, u)
	if err != nil {
		d.logger.Debug("[Direct Fetcher] robots.txt unavailable, proceeding", "host", u.Host, "error", err)
		return true
	}
	group := data.FindGroup(d.ua)
	if group == nil {
		return true
	}
	return group.Test(u.RequestURI())
}
