package fetcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"venue-analyze-go/internal/collector"
	"venue-analyze-go/internal/model"
)

// ScholarListing 静态分页列表：每次"加载更多"拉取下一页并追加到已加载的行后面
type ScholarListing struct {
	fetcher   HTMLFetcher
	parser    *ScholarParser
	scholarID string
	pageSize  int
	logger    *slog.Logger

	mu        sync.Mutex
	loaded    bool
	profile   string
	entries   []model.RawVenueEntry
	nextStart int
	trigger   *TriggerInfo
	exhausted bool
}

// NewScholarListing 创建列表，pageSize<=0 时用默认值
func NewScholarListing(f HTMLFetcher, scholarID string, pageSize int, logger *slog.Logger) *ScholarListing {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &ScholarListing{
		fetcher:   f,
		parser:    NewScholarParser(),
		scholarID: scholarID,
		pageSize:  pageSize,
		logger:    logger,
	}
}

// ItemCount 第一次调用时拉取首页
func (l *ScholarListing) ItemCount(ctx context.Context) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.ensureLoaded(ctx); err != nil {
		return 0, err
	}
	return len(l.entries), nil
}

// FindTrigger 最近一页上有可用的"加载更多"并且还有下一页时返回控件
func (l *ScholarListing) FindTrigger(ctx context.Context) (collector.Trigger, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	if l.trigger == nil || l.exhausted {
		return nil, nil
	}
	if pc, ok := l.fetcher.(pageCounter); ok && !pc.HasPage(l.nextStart, l.pageSize) {
		return nil, nil
	}
	return &pageTrigger{listing: l, info: *l.trigger, cstart: l.nextStart}, nil
}

// VenueEntries 已加载的全部行
func (l *ScholarListing) VenueEntries(ctx context.Context) ([]model.RawVenueEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	out := make([]model.RawVenueEntry, len(l.entries))
	copy(out, l.entries)
	return out, nil
}

// ProfileName 学者姓名
func (l *ScholarListing) ProfileName() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.profile
}

func (l *ScholarListing) ensureLoaded(ctx context.Context) error {
	if l.loaded {
		return nil
	}
	if err := l.fetchPage(ctx, 0); err != nil {
		if errors.Is(err, ErrNoMorePages) {
			l.loaded = true
			l.exhausted = true
			return nil
		}
		return err
	}
	l.loaded = true
	return nil
}

// fetchPage 调用方持有锁
func (l *ScholarListing) fetchPage(ctx context.Context, cstart int) error {
	html, err := l.fetcher.FetchScholarPage(ctx, l.scholarID, cstart, l.pageSize)
	if err != nil {
		return err
	}
	page, err := l.parser.Parse(html)
	if err != nil {
		return err
	}
	if l.profile == "" {
		l.profile = page.Profile
	}
	l.entries = append(l.entries, page.Entries...)
	l.trigger = page.Trigger
	l.nextStart = cstart + l.pageSize
	if len(page.Entries) == 0 {
		l.exhausted = true
	}
	l.logger.Debug("[Scholar Listing] Page loaded",
		"cstart", cstart, "rows", len(page.Entries), "total", len(l.entries), "has_more", page.Trigger != nil)
	return nil
}

type pageTrigger struct {
	listing *ScholarListing
	info    TriggerInfo
	cstart  int
}

// Activate 拉取下一页；分页已经到底时不算错误，只是不会增长
func (t *pageTrigger) Activate(ctx context.Context) error {
	l := t.listing
	l.mu.Lock()
	defer l.mu.Unlock()
	if t.cstart != l.nextStart {
		return nil
	}
	if err := l.fetchPage(ctx, t.cstart); err != nil {
		if errors.Is(err, ErrNoMorePages) {
			l.exhausted = true
			return nil
		}
		return fmt.Errorf("fetch cstart=%d: %w", t.cstart, err)
	}
	return nil
}

func (t *pageTrigger) Describe() string {
	return fmt.Sprintf("%s (cstart=%d)", t.info.Describe(), t.cstart)
}
