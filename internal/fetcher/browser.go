package fetcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/chromedp/chromedp"

	"venue-analyze-go/internal/collector"
	"venue-analyze-go/internal/model"
)

// BrowserOptions 无头浏览器参数
type BrowserOptions struct {
	Headless   bool
	ChromePath string
	UserAgent  string
}

// BrowserListing 在真实页面上点击"加载更多"
type BrowserListing struct {
	ctx          context.Context
	cancelAlloc  context.CancelFunc
	cancelBrowse context.CancelFunc
	parser       *ScholarParser
	logger       *slog.Logger

	mu      sync.Mutex
	profile string
}

const triggerAttr = "data-venues-trigger"

// NewBrowserListing 启动浏览器并打开列表页，用完需要 Close
func NewBrowserListing(ctx context.Context, pageURL string, opts BrowserOptions, logger *slog.Logger) (*BrowserListing, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
	)
	if opts.UserAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(opts.UserAgent))
	}
	if opts.ChromePath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ChromePath))
	}

	b := &BrowserListing{parser: NewScholarParser(), logger: logger}
	var allocCtx context.Context
	allocCtx, b.cancelAlloc = chromedp.NewExecAllocator(ctx, allocOpts...)
	b.ctx, b.cancelBrowse = chromedp.NewContext(allocCtx)

	logger.Info("[Browser] Opening profile", "url", pageURL)
	if err := chromedp.Run(b.ctx,
		chromedp.Navigate(pageURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
	); err != nil {
		b.Close()
		return nil, fmt.Errorf("open %s: %w", pageURL, err)
	}
	return b, nil
}

// Close 关闭浏览器
func (b *BrowserListing) Close() {
	if b.cancelBrowse != nil {
		b.cancelBrowse()
	}
	if b.cancelAlloc != nil {
		b.cancelAlloc()
	}
}

// run 浏览器上下文和调用方上下文任一结束都会中断
func (b *BrowserListing) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(b.ctx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	err := chromedp.Run(runCtx, actions...)
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

// ItemCount 当前DOM里的论文行数
func (b *BrowserListing) ItemCount(ctx context.Context) (int, error) {
	var n int
	script := fmt.Sprintf(`document.querySelectorAll(%q).length`, RowSelector)
	if err := b.run(ctx, chromedp.Evaluate(script, &n)); err != nil {
		return 0, err
	}
	return n, nil
}

// FindTrigger 注入脚本查找控件，找到后打上标记属性
func (b *BrowserListing) FindTrigger(ctx context.Context) (collector.Trigger, error) {
	var desc string
	if err := b.run(ctx, chromedp.Evaluate(findTriggerScript(), &desc)); err != nil {
		return nil, err
	}
	if desc == "" {
		return nil, nil
	}
	return &browserTrigger{listing: b, desc: desc}, nil
}

// VenueEntries 读取整页HTML后用goquery解析
func (b *BrowserListing) VenueEntries(ctx context.Context) ([]model.RawVenueEntry, error) {
	var html string
	if err := b.run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return nil, fmt.Errorf("read page html: %w", err)
	}
	page, err := b.parser.Parse(html)
	if err != nil {
		return nil, err
	}
	b.mu.Lock()
	b.profile = page.Profile
	b.mu.Unlock()
	return page.Entries, nil
}

// ProfileName 学者姓名
func (b *BrowserListing) ProfileName() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.profile
}

var errTriggerDetached = errors.New("load-more control is no longer in the page")

type browserTrigger struct {
	listing *BrowserListing
	desc    string
}

func (t *browserTrigger) Activate(ctx context.Context) error {
	var clicked bool
	script := fmt.Sprintf(`(() => {
  const el = document.querySelector('[%s]');
  if (!el) return false;
  el.removeAttribute('%s');
  el.click();
  return true;
})()`, triggerAttr, triggerAttr)
	if err := t.listing.run(ctx, chromedp.Evaluate(script, &clicked)); err != nil {
		return err
	}
	if !clicked {
		return errTriggerDetached
	}
	return nil
}

func (t *browserTrigger) Describe() string {
	return t.desc
}

// findTriggerScript 与 findTrigger 相同的规则，在页面里执行
func findTriggerScript() string {
	selectors, _ := json.Marshal(TriggerSelectors)
	return fmt.Sprintf(`(() => {
  const rowSel = %q;
  const attr = %q;
  document.querySelectorAll('[' + attr + ']').forEach(el => el.removeAttribute(attr));
  const usable = el => {
    if (el.disabled || el.getAttribute('aria-disabled') === 'true') return false;
    if (el.offsetParent === null) return false;
    if (el.closest(rowSel)) return false;
    if (el.tagName === 'A' && (el.getAttribute('href') || '').includes('view_op=view_citation')) return false;
    return true;
  };
  const mark = (el, how) => {
    el.setAttribute(attr, '1');
    return how + ' "' + el.textContent.trim() + '"';
  };
  for (const sel of %s) {
    const el = document.querySelector(sel);
    if (el && el.textContent.trim().length > 0 && usable(el)) return mark(el, sel);
  }
  for (const el of document.querySelectorAll(%q)) {
    const t = el.textContent.toLowerCase().trim();
    if ((t.includes('show more') || t === 'more' || t === 'show') && usable(el)) {
      return mark(el, el.tagName.toLowerCase());
    }
  }
  return '';
})()`, RowSelector, triggerAttr, string(selectors), TriggerTextSelector)
}
