package crawler

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JakeFAU/hasaki-crawler/internal/clock/system"
)

var _ Clock = (*system.Clock)(nil)

func listingPage(names ...string) []byte {
	parts := make([]string, 0, len(names)*3)
	for range names {
		parts = append(parts, priceBlock("100", "-10%", "110"))
	}
	for _, n := range names {
		parts = append(parts, nameBlock(n))
	}
	for _, n := range names {
		parts = append(parts, descBlock(n+" 50ml, extra"))
	}
	return page(parts...)
}

func TestEngineSkipsFailedPage(t *testing.T) {
	t.Parallel()

	urls := PageURLs("https://shop.test/list", "p", 5)
	fetcher := &pageFetcher{
		bodies: map[string][]byte{
			urls[0]: listingPage("p1-a", "p1-b"),
			urls[1]: listingPage("p2-a"),
			urls[3]: listingPage("p4-a"),
			urls[4]: listingPage("p5-a", "p5-b"),
		},
		errs: map[string]error{
			urls[2]: &HTTPStatusError{URL: urls[2], StatusCode: http.StatusBadGateway},
		},
	}
	docs := newMemorySink("mongodb")
	cache := newMemorySink("redis")
	pg := newMemorySink("postgres")

	engine := NewEngine(
		EngineConfig{RunID: "run-1", Pages: urls},
		fetcher,
		NewExtractor(Selectors{}),
		NewWriter([]Sink{docs, cache, pg}, zap.NewNop()),
		zap.NewNop(),
	)

	summary, err := engine.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, urls, fetcher.visited)
	assert.Equal(t, 5, summary.Pages)
	assert.Equal(t, 1, summary.PagesFailed)
	assert.Equal(t, 6, summary.Records)

	for _, sink := range []*memorySink{docs, cache, pg} {
		got := sink.Records()
		require.Len(t, got, 6, sink.Name())
		pages := map[string]bool{}
		for _, rec := range got {
			pages[rec.LinkPage] = true
		}
		assert.False(t, pages[urls[2]])
		assert.True(t, pages[urls[0]] && pages[urls[1]] && pages[urls[3]] && pages[urls[4]])
	}
}

func TestEngineSkipsUnparseablePage(t *testing.T) {
	t.Parallel()

	urls := PageURLs("https://shop.test/list", "p", 2)
	fetcher := &pageFetcher{bodies: map[string][]byte{
		urls[0]: []byte("<html><body>maintenance</body></html>"),
		urls[1]: listingPage("ok"),
	}}
	sink := newMemorySink("mongodb")
	engine := NewEngine(EngineConfig{Pages: urls}, fetcher, NewExtractor(Selectors{}),
		NewWriter([]Sink{sink}, nil), nil)

	summary, err := engine.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.PagesFailed)
	assert.Equal(t, 1, summary.Records)
	require.Len(t, sink.Records(), 1)
	assert.Equal(t, "ok", sink.Records()[0].ItemName)
}

func TestEngineCountsSinkFailures(t *testing.T) {
	t.Parallel()

	urls := PageURLs("https://shop.test/list", "p", 1)
	fetcher := &pageFetcher{bodies: map[string][]byte{urls[0]: listingPage("a", "b", "c")}}
	broken := newMemorySink("redis")
	broken.err = errors.New("i/o timeout")
	healthy := newMemorySink("postgres")

	engine := NewEngine(EngineConfig{Pages: urls}, fetcher, NewExtractor(Selectors{}),
		NewWriter([]Sink{broken, healthy}, nil), nil)

	summary, err := engine.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, summary.SinkFailures["redis"])
	assert.Zero(t, summary.SinkFailures["postgres"])
	assert.Len(t, healthy.Records(), 3)
}

func TestEngineRecoversFromPanic(t *testing.T) {
	t.Parallel()

	urls := PageURLs("https://shop.test/list", "p", 2)
	fetcher := &pageFetcher{bodies: map[string][]byte{
		urls[0]: listingPage("a"),
		urls[1]: listingPage("b"),
	}}
	engine := NewEngine(EngineConfig{Pages: urls}, fetcher, panicExtractor{}, NewWriter(nil, nil), nil)

	summary, err := engine.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, summary.PagesFailed)
	assert.Len(t, fetcher.visited, 2)
}

func TestEngineStopsOnCanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	urls := PageURLs("https://shop.test/list", "p", 3)
	fetcher := &pageFetcher{}
	engine := NewEngine(EngineConfig{Pages: urls}, fetcher, NewExtractor(Selectors{}), NewWriter(nil, nil), nil)

	_, err := engine.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, fetcher.visited)
}

func TestEngineStampsSummary(t *testing.T) {
	t.Parallel()

	urls := PageURLs("https://shop.test/list", "p", 2)
	start := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	engine := NewEngine(
		EngineConfig{RunID: "run-7", Pages: urls, Clock: &stepClock{now: start, step: time.Minute}},
		&pageFetcher{bodies: map[string][]byte{urls[0]: listingPage("a"), urls[1]: listingPage("b")}},
		NewExtractor(Selectors{}),
		NewWriter(nil, zap.NewNop()),
		zap.NewNop(),
	)

	summary, err := engine.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "run-7", summary.RunID)
	assert.Equal(t, start, summary.StartedAt)
	assert.Equal(t, start.Add(time.Minute), summary.FinishedAt)
}

func TestEngineDefaultsToUTCClock(t *testing.T) {
	t.Parallel()

	urls := PageURLs("https://shop.test/list", "p", 1)
	engine := NewEngine(
		EngineConfig{Pages: urls},
		&pageFetcher{bodies: map[string][]byte{urls[0]: listingPage("a")}},
		NewExtractor(Selectors{}),
		NewWriter(nil, zap.NewNop()),
		zap.NewNop(),
	)

	summary, err := engine.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, time.UTC, summary.StartedAt.Location())
	assert.False(t, summary.FinishedAt.Before(summary.StartedAt))
}
