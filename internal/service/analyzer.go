package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/google/uuid"

	"venue-analyze-go/internal/collector"
	"venue-analyze-go/internal/model"
)

var (
	// ErrNoPublications 列表里一篇论文都没有
	ErrNoPublications = errors.New("no publications found on this profile")
	// ErrNoVenues 所有论文都没提取到venue
	ErrNoVenues = errors.New("no venues could be extracted from the publications")
	// ErrAnalysisInProgress 已有分析在进行
	ErrAnalysisInProgress = errors.New("analysis already in progress")
)

// Listing 论文列表：可翻页，翻页完成后能读出每行的venue文本
type Listing interface {
	collector.Page
	VenueEntries(ctx context.Context) ([]model.RawVenueEntry, error)
	// ProfileName 学者姓名，VenueEntries之后可用，未知时为空
	ProfileName() string
}

// Progress 进度输出
type Progress interface {
	Start(passID, query string) error
	SetAction(progress int, action string) error
	Done(result *model.AnalysisResult) error
	Fail(err error) error
}

// VenueAnalyzer 一个分析会话：同一时间只允许一次分析
type VenueAnalyzer struct {
	matcher     *VenueMatcher
	collectOpts collector.Options
	logger      *slog.Logger
	running     atomic.Bool
}

// NewVenueAnalyzer 创建分析器
func NewVenueAnalyzer(matcher *VenueMatcher, opts collector.Options, logger *slog.Logger) *VenueAnalyzer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if matcher == nil {
		matcher = builtinVenueMatcher()
	}
	return &VenueAnalyzer{
		matcher:     matcher,
		collectOpts: opts,
		logger:      logger,
	}
}

// Matcher 当前使用的标准化器
func (a *VenueAnalyzer) Matcher() *VenueMatcher {
	return a.matcher
}

// Running 是否有分析在进行
func (a *VenueAnalyzer) Running() bool {
	return a.running.Load()
}

// Analyze 翻页加载全部论文，提取venue并统计
// 失败时也返回错误信封（Success=false）
func (a *VenueAnalyzer) Analyze(ctx context.Context, query string, listing Listing, p Progress) (*model.AnalysisResult, error) {
	if !a.running.CompareAndSwap(false, true) {
		a.logger.Warn("[Venue Analyzer] Rejected request, analysis already running", "query", query)
		return model.NewErrorResult(ErrAnalysisInProgress), ErrAnalysisInProgress
	}
	defer a.running.Store(false)

	if p == nil {
		p = nopProgress{}
	}

	passID := uuid.NewString()
	log := a.logger.With("pass_id", passID)
	log.Info("[Venue Analyzer] Analyze started", "query", query)
	a.report(p.Start(passID, query))
	a.report(p.SetAction(5, "Checking publication list..."))

	fail := func(result *model.AnalysisResult, err error) (*model.AnalysisResult, error) {
		log.Warn("[Venue Analyzer] Analysis failed", "error", err)
		result.PassID = passID
		result.MappingSource = a.matcher.Source()
		a.report(p.Fail(err))
		return result, err
	}

	initial, err := listing.ItemCount(ctx)
	if err != nil {
		return fail(model.NewErrorResult(err), fmt.Errorf("read publication list: %w", err))
	}
	if initial == 0 {
		return fail(model.NewErrorResult(ErrNoPublications), ErrNoPublications)
	}

	a.report(p.SetAction(10, fmt.Sprintf("Found %d publications, loading the rest...", initial)))

	opts := a.collectOpts
	opts.OnAttempt = func(attempt, count int) {
		a.report(p.SetAction(collectProgress(attempt, opts.MaxAttempts),
			fmt.Sprintf("Loaded %d publications (attempt %d)", count, attempt)))
	}
	stats := collector.New(opts, a.logger).Collect(ctx, listing)
	if stats.Reason == model.StopCancelled {
		return fail(model.NewErrorResult(ctx.Err()), ctx.Err())
	}
	if stats.Reason.Partial() {
		log.Warn("[Venue Analyzer] Publication list partially loaded", "reason", stats.Reason, "count", stats.FinalCount)
	}

	a.report(p.SetAction(70, fmt.Sprintf("Extracting venues from %d publications...", stats.FinalCount)))
	entries, err := listing.VenueEntries(ctx)
	if err != nil {
		return fail(model.NewErrorResult(err), fmt.Errorf("extract venues: %w", err))
	}
	if len(entries) == 0 {
		return fail(model.NewErrorResult(ErrNoPublications), ErrNoPublications)
	}

	a.report(p.SetAction(85, fmt.Sprintf("Classifying %d venues...", len(entries))))
	result, err := a.Classify(entries)
	result.PassID = passID
	result.Profile = listing.ProfileName()
	result.Collection = &stats
	if err != nil {
		return fail(result, err)
	}

	log.Info("[Venue Analyzer] Analysis complete",
		"found", result.TotalFound,
		"processed", result.TotalProcessed,
		"skipped", result.TotalSkipped,
		"venues", result.UniqueVenues())
	a.report(p.Done(result))
	return result, nil
}

// Classify 只做标准化和统计
// 全部被跳过时返回 ErrNoVenues，结果信封里仍保留计数
func (a *VenueAnalyzer) Classify(entries []model.RawVenueEntry) (*model.AnalysisResult, error) {
	tally := NewVenueTally()
	result := &model.AnalysisResult{
		TotalFound:    len(entries),
		SkipReasons:   make(map[model.SkipReason]int),
		MappingSource: a.matcher.Source(),
	}

	for _, e := range entries {
		if !e.Found {
			result.TotalSkipped++
			result.SkipReasons[model.SkipMissing]++
			continue
		}
		label, skip := a.matcher.Normalize(e.Text)
		if skip != model.SkipNone {
			result.TotalSkipped++
			result.SkipReasons[skip]++
			continue
		}
		tally.Add(label)
		result.TotalProcessed++
	}

	result.Venues = tally.Ranked()
	if result.TotalProcessed == 0 {
		result.Success = false
		result.Error = ErrNoVenues.Error()
		return result, ErrNoVenues
	}
	result.Success = true
	return result, nil
}

func (a *VenueAnalyzer) report(err error) {
	if err != nil {
		a.logger.Debug("[Venue Analyzer] Failed to write progress", "error", err)
	}
}

// collectProgress 翻页阶段的进度映射到 10-60
func collectProgress(attempt, maxAttempts int) int {
	if maxAttempts <= 0 {
		return 10
	}
	if attempt > maxAttempts {
		attempt = maxAttempts
	}
	return 10 + attempt*50/maxAttempts
}

type nopProgress struct{}

func (nopProgress) Start(string, string) error { return nil }
func (nopProgress) SetAction(int, string) error { return nil }
func (nopProgress) Done(*model.AnalysisResult) error { return nil }
func (nopProgress) Fail(error) error { return nil }
