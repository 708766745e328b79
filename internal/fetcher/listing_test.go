package fetcher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"venue-analyze-go/internal/collector"
	"venue-analyze-go/internal/model"
	"venue-analyze-go/internal/testutil"
)

// memoryFetcher 按 cstart 返回预置页面
type memoryFetcher struct {
	mu     sync.Mutex
	pages  map[int]string
	errAt  map[int]error
	starts []int
}

func (m *memoryFetcher) FetchScholarPage(ctx context.Context, scholarID string, cstart, pageSize int) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.starts = append(m.starts, cstart)
	if err := m.errAt[cstart]; err != nil {
		return "", err
	}
	html, ok := m.pages[cstart]
	if !ok {
		return "", ErrNoMorePages
	}
	return html, nil
}

func venueRows(prefix string, n int) []string {
	rows := make([]string, n)
	for i := range rows {
		rows[i] = row(fmt.Sprintf("%s %d", prefix, i), fmt.Sprintf("%s venue %d", prefix, i))
	}
	return rows
}

func fastCollector(t *testing.T) *collector.Collector {
	return collector.New(collector.Options{
		MaxAttempts:      10,
		AttemptTimeout:   50 * time.Millisecond,
		FastPollInterval: time.Millisecond,
		SlowPollInterval: time.Millisecond,
		StallLimit:       1,
	}, testutil.NewTestLogger(t))
}

func TestScholarListing_CollectsAllPages(t *testing.T) {
	f := &memoryFetcher{pages: map[int]string{
		0: scholarPage("Ada Lovelace", venueRows("a", 3), moreButton),
		3: scholarPage("Ada Lovelace", venueRows("b", 3), moreButton),
		6: scholarPage("Ada Lovelace", venueRows("c", 1), disabledButton),
	}}
	l := NewScholarListing(f, "abcdefghijkl", 3, testutil.NewTestLogger(t))

	stats := fastCollector(t).Collect(context.Background(), l)
	assert.Equal(t, model.StopNoTrigger, stats.Reason)
	assert.Equal(t, 3, stats.InitialCount)
	assert.Equal(t, 7, stats.FinalCount)
	assert.Equal(t, 2, stats.Attempts)
	assert.Equal(t, []int{0, 3, 6}, f.starts)

	entries, err := l.VenueEntries(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 7)
	assert.Equal(t, "a venue 0", entries[0].Text)
	assert.Equal(t, "c venue 0", entries[6].Text)
	assert.Equal(t, "Ada Lovelace", l.ProfileName())
}

func TestScholarListing_EmptyProfile(t *testing.T) {
	f := &memoryFetcher{pages: map[int]string{0: scholarPage("Nobody", nil, disabledButton)}}
	l := NewScholarListing(f, "abcdefghijkl", 0, nil)

	n, err := l.ItemCount(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	trig, err := l.FindTrigger(context.Background())
	require.NoError(t, err)
	assert.Nil(t, trig)
}

func TestScholarListing_NextPageMissing(t *testing.T) {
	// 按钮还可用，但下一页拿不到：没有增长，按 no_growth 结束
	f := &memoryFetcher{pages: map[int]string{
		0: scholarPage("X", venueRows("a", 2), moreButton),
	}}
	l := NewScholarListing(f, "abcdefghijkl", 2, nil)

	stats := fastCollector(t).Collect(context.Background(), l)
	assert.Equal(t, model.StopNoGrowth, stats.Reason)
	assert.Equal(t, 2, stats.FinalCount)

	trig, err := l.FindTrigger(context.Background())
	require.NoError(t, err)
	assert.Nil(t, trig, "exhausted listing offers no trigger")
}

func TestScholarListing_FetchErrorKeepsPartialList(t *testing.T) {
	f := &memoryFetcher{
		pages: map[int]string{0: scholarPage("X", venueRows("a", 2), moreButton)},
		errAt: map[int]error{2: errors.New("status 500")},
	}
	l := NewScholarListing(f, "abcdefghijkl", 2, nil)

	stats := fastCollector(t).Collect(context.Background(), l)
	assert.Equal(t, model.StopError, stats.Reason)
	assert.Contains(t, stats.Error, "status 500")
	assert.Equal(t, 2, stats.FinalCount)

	entries, err := l.VenueEntries(context.Background())
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestScholarListing_FirstPageError(t *testing.T) {
	f := &memoryFetcher{errAt: map[int]error{0: errors.New("boom")}}
	l := NewScholarListing(f, "abcdefghijkl", 0, nil)

	_, err := l.ItemCount(context.Background())
	require.Error(t, err)
}

func TestScholarListing_FileFetcher(t *testing.T) {
	dir := t.TempDir()
	var paths []string
	for i, html := range []string{
		scholarPage("Ada", venueRows("a", 2), moreButton),
		scholarPage("Ada", venueRows("b", 2), moreButton),
	} {
		p := filepath.Join(dir, fmt.Sprintf("page%d.html", i))
		require.NoError(t, os.WriteFile(p, []byte(html), 0o644))
		paths = append(paths, p)
	}

	l := NewScholarListing(NewFileFetcher(paths...), "", 2, nil)
	stats := fastCollector(t).Collect(context.Background(), l)

	// 最后一个文件的按钮仍可用，但没有更多文件
	assert.Equal(t, model.StopNoTrigger, stats.Reason)
	assert.Equal(t, 4, stats.FinalCount)
	assert.Equal(t, 1, stats.Attempts)
}

func TestFileFetcher(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "p.html")
	require.NoError(t, os.WriteFile(p, []byte("<html></html>"), 0o644))

	f := NewFileFetcher(p, filepath.Join(dir, "missing.html"))
	html, err := f.FetchScholarPage(context.Background(), "", 0, 100)
	require.NoError(t, err)
	assert.Equal(t, "<html></html>", html)

	_, err = f.FetchScholarPage(context.Background(), "", 100, 100)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoMorePages)

	_, err = f.FetchScholarPage(context.Background(), "", 200, 100)
	require.ErrorIs(t, err, ErrNoMorePages)

	assert.True(t, f.HasPage(100, 100))
	assert.False(t, f.HasPage(200, 100))
	assert.False(t, f.HasPage(-1, 100))
}
