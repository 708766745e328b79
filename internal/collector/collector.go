// Package collector 在分页列表上反复点击"加载更多"，直到条目数稳定
package collector

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"venue-analyze-go/config"
	"venue-analyze-go/internal/model"
)

// Page 可翻页的列表
type Page interface {
	// ItemCount 当前可见条目数
	ItemCount(ctx context.Context) (int, error)
	// FindTrigger 查找有效的"加载更多"控件，没有时返回 nil, nil
	FindTrigger(ctx context.Context) (Trigger, error)
}

// Trigger "加载更多"控件
type Trigger interface {
	Activate(ctx context.Context) error
	Describe() string
}

// Options 翻页参数
type Options struct {
	MaxAttempts      int
	AttemptTimeout   time.Duration
	SettleDelay      time.Duration
	InitialPollDelay time.Duration
	FastPollInterval time.Duration
	FastPollChecks   int
	SlowPollInterval time.Duration
	Cooldown         time.Duration
	// StallLimit 连续多少次没有增长后停止，0 表示只受 MaxAttempts 限制
	StallLimit int

	// OnAttempt 每次点击等待结束后回调
	OnAttempt func(attempt, count int)
}

// DefaultOptions 默认参数
func DefaultOptions() Options {
	return Options{
		MaxAttempts:      50,
		AttemptTimeout:   15 * time.Second,
		SettleDelay:      800 * time.Millisecond,
		InitialPollDelay: 300 * time.Millisecond,
		FastPollInterval: 100 * time.Millisecond,
		FastPollChecks:   10,
		SlowPollInterval: 500 * time.Millisecond,
		Cooldown:         1500 * time.Millisecond,
		StallLimit:       1,
	}
}

// OptionsFromConfig 从配置生成参数
func OptionsFromConfig(c config.CollectorConfig) Options {
	return Options{
		MaxAttempts:      c.MaxAttempts,
		AttemptTimeout:   c.AttemptTimeout,
		SettleDelay:      c.SettleDelay,
		InitialPollDelay: c.InitialPollDelay,
		FastPollInterval: c.FastPollInterval,
		FastPollChecks:   c.FastPollChecks,
		SlowPollInterval: c.SlowPollInterval,
		Cooldown:         c.Cooldown,
		StallLimit:       c.StallLimit,
	}
}

// Collector 翻页收集器
type Collector struct {
	opts   Options
	logger *slog.Logger
}

// New 创建收集器
func New(opts Options, logger *slog.Logger) *Collector {
	def := DefaultOptions()
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = def.MaxAttempts
	}
	if opts.AttemptTimeout <= 0 {
		opts.AttemptTimeout = def.AttemptTimeout
	}
	if opts.SlowPollInterval <= 0 {
		opts.SlowPollInterval = def.SlowPollInterval
	}
	if opts.FastPollInterval <= 0 {
		opts.FastPollInterval = opts.SlowPollInterval
	}
	if opts.StallLimit < 0 {
		opts.StallLimit = 0
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Collector{opts: opts, logger: logger}
}

// Options 返回生效的参数
func (c *Collector) Options() Options {
	return c.opts
}

// Collect 翻页直到没有控件、没有增长或次数用完
// 不返回错误：中途出错时返回已知的最后条目数，原因记录在结果里
func (c *Collector) Collect(ctx context.Context, page Page) model.CollectionStats {
	stats := model.CollectionStats{}

	count, err := page.ItemCount(ctx)
	if err != nil {
		return c.stop(ctx, stats, fmt.Errorf("read initial count: %w", err))
	}
	stats.InitialCount = count
	stats.FinalCount = count
	c.logger.Info("[Collector] Collection started", "count", count, "max_attempts", c.opts.MaxAttempts)

	stalls := 0
	for stats.Attempts < c.opts.MaxAttempts {
		if err := sleep(ctx, c.opts.SettleDelay); err != nil {
			return c.stop(ctx, stats, err)
		}

		trigger, err := page.FindTrigger(ctx)
		if err != nil {
			return c.stop(ctx, stats, fmt.Errorf("locate trigger: %w", err))
		}
		if trigger == nil {
			stats.Reason = model.StopNoTrigger
			c.logger.Info("[Collector] No load-more control, collection complete",
				"count", stats.FinalCount, "attempts", stats.Attempts)
			return stats
		}

		stats.Attempts++
		c.logger.Debug("[Collector] Activating trigger", "attempt", stats.Attempts, "trigger", trigger.Describe())
		if err := trigger.Activate(ctx); err != nil {
			return c.stop(ctx, stats, fmt.Errorf("activate %s: %w", trigger.Describe(), err))
		}

		next, grew, err := c.waitForGrowth(ctx, page, stats.FinalCount)
		if err != nil {
			return c.stop(ctx, stats, err)
		}
		if c.opts.OnAttempt != nil {
			c.opts.OnAttempt(stats.Attempts, next)
		}

		if grew {
			c.logger.Debug("[Collector] Item count grew", "attempt", stats.Attempts, "from", stats.FinalCount, "to", next)
			stats.FinalCount = next
			stalls = 0
		} else {
			stalls++
			c.logger.Debug("[Collector] No growth after activation", "attempt", stats.Attempts, "stalls", stalls)
			if c.opts.StallLimit > 0 && stalls >= c.opts.StallLimit {
				stats.Reason = model.StopNoGrowth
				c.logger.Info("[Collector] Item count stopped growing, collection complete",
					"count", stats.FinalCount, "attempts", stats.Attempts)
				return stats
			}
		}

		if stats.Attempts < c.opts.MaxAttempts {
			if err := sleep(ctx, c.opts.Cooldown); err != nil {
				return c.stop(ctx, stats, err)
			}
		}
	}

	stats.Reason = model.StopMaxAttempts
	c.logger.Warn("[Collector] Attempt budget exhausted, using partial list",
		"count", stats.FinalCount, "attempts", stats.Attempts)
	return stats
}

// waitForGrowth 点击后轮询条目数：先等 InitialPollDelay，前 FastPollChecks 次用短间隔，之后用长间隔
// 超时视为没有增长
func (c *Collector) waitForGrowth(ctx context.Context, page Page, before int) (int, bool, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.opts.AttemptTimeout)
	defer cancel()

	delay := c.opts.InitialPollDelay
	for checks := 0; ; checks++ {
		if err := sleep(attemptCtx, delay); err != nil {
			if ctx.Err() != nil {
				return before, false, ctx.Err()
			}
			return before, false, nil
		}

		n, err := page.ItemCount(attemptCtx)
		if err != nil {
			if ctx.Err() != nil {
				return before, false, ctx.Err()
			}
			if attemptCtx.Err() != nil {
				return before, false, nil
			}
			return before, false, fmt.Errorf("read item count: %w", err)
		}
		if n > before {
			return n, true, nil
		}

		if checks < c.opts.FastPollChecks {
			delay = c.opts.FastPollInterval
		} else {
			delay = c.opts.SlowPollInterval
		}
	}
}

func (c *Collector) stop(ctx context.Context, stats model.CollectionStats, err error) model.CollectionStats {
	if ctx.Err() != nil {
		stats.Reason = model.StopCancelled
		stats.Error = ctx.Err().Error()
		c.logger.Warn("[Collector] Collection cancelled", "count", stats.FinalCount, "attempts", stats.Attempts)
		return stats
	}
	stats.Reason = model.StopError
	stats.Error = err.Error()
	c.logger.Warn("[Collector] Collection aborted, using partial list",
		"count", stats.FinalCount, "attempts", stats.Attempts, "error", err)
	return stats
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
