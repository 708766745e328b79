package fetcher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// DefaultFirecrawlURL Firecrawl scrape接口
const DefaultFirecrawlURL = "https://api.firecrawl.dev/v2/scrape"

// FirecrawlFetcher Firecrawl HTML获取器
type FirecrawlFetcher struct {
	apiKey     string
	endpoint   string
	scholarURL string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewFirecrawlFetcher 创建Firecrawl获取器，endpoint为空时用默认地址
func NewFirecrawlFetcher(apiKey, endpoint string, logger *slog.Logger) *FirecrawlFetcher {
	if endpoint == "" {
		endpoint = DefaultFirecrawlURL
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &FirecrawlFetcher{
		apiKey:     apiKey,
		endpoint:   endpoint,
		scholarURL: ScholarBaseURL,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		logger: logger,
	}
}

type firecrawlRequest struct {
	URL     string   `json:"url"`
	Formats []string `json:"formats"`
	WaitFor int      `json:"waitFor,omitempty"` // 等待毫秒数，让JS渲染完成
}

type firecrawlResponse struct {
	Success bool `json:"success"`
	Data    struct {
		HTML string `json:"html"`
	} `json:"data"`
	Error string `json:"error,omitempty"`
}

// FetchScholarPage 获取一页论文列表
func (f *FirecrawlFetcher) FetchScholarPage(ctx context.Context, scholarID string, cstart, pageSize int) (string, error) {
	pageURL := ScholarPageURL(f.scholarURL, scholarID, cstart, pageSize)
	f.logger.Debug("[Firecrawl] Fetching page", "url", pageURL)

	reqBody := firecrawlRequest{
		URL:     pageURL,
		Formats: []string{"html"},
		WaitFor: 3000, // 等待3秒让页面JS渲染完成
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.endpoint, bytes.NewBuffer(jsonBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+f.apiKey)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch page: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("firecrawl returned status %d: %s", resp.StatusCode, string(body))
	}

	var fcResp firecrawlResponse
	if err := json.Unmarshal(body, &fcResp); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	if !fcResp.Success {
		return "", fmt.Errorf("firecrawl error: %s", fcResp.Error)
	}

	if fcResp.Data.HTML == "" {
		return "", fmt.Errorf("empty HTML response")
	}

	return fcResp.Data.HTML, nil
}
