package crawler

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/JakeFAU/hasaki-crawler/internal/clock/system"
	"github.com/JakeFAU/hasaki-crawler/internal/metrics"
)

// EngineConfig controls which pages the Engine visits and how it asks for them.
type EngineConfig struct {
	RunID   string
	Pages   []string
	Headers http.Header
	// Clock stamps the summary; nil uses the UTC system clock.
	Clock Clock
}

// Engine sequences fetch, extract and write over every page, one at a time.
type Engine struct {
	cfg       EngineConfig
	fetcher   Fetcher
	extractor RecordExtractor
	writer    *Writer
	logger    *zap.Logger
}

// NewEngine wires the pipeline stages together.
func NewEngine(cfg EngineConfig, fetcher Fetcher, extractor RecordExtractor, writer *Writer, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Clock == nil {
		cfg.Clock = system.New()
	}
	return &Engine{
		cfg:       cfg,
		fetcher:   fetcher,
		extractor: extractor,
		writer:    writer,
		logger:    logger,
	}
}

// Run visits every configured page. A page that fails to fetch or parse is
// logged and skipped. The only error returned is context cancellation.
func (e *Engine) Run(ctx context.Context) (Summary, error) {
	summary := Summary{
		RunID:        e.cfg.RunID,
		StartedAt:    e.cfg.Clock.Now(),
		SinkFailures: map[string]int{},
	}
	e.logger.Info("crawl started", zap.Int("pages", len(e.cfg.Pages)))

	for idx, pageURL := range e.cfg.Pages {
		if err := ctx.Err(); err != nil {
			e.logger.Warn("crawl interrupted", zap.Int("page", idx), zap.Error(err))
			summary.FinishedAt = e.cfg.Clock.Now()
			return summary, fmt.Errorf("crawl interrupted at page %d: %w", idx, err)
		}
		summary.Pages++
		n, err := e.processPage(ctx, idx, pageURL, &summary)
		if err != nil {
			summary.PagesFailed++
			e.logPageError(idx, pageURL, err)
			continue
		}
		summary.Records += n
	}
	summary.FinishedAt = e.cfg.Clock.Now()

	e.logger.Info("crawl finished",
		zap.Int("pages", summary.Pages),
		zap.Int("pages_failed", summary.PagesFailed),
		zap.Int("records", summary.Records),
		zap.Duration("elapsed", summary.FinishedAt.Sub(summary.StartedAt)),
	)
	return summary, nil
}

func (e *Engine) processPage(ctx context.Context, idx int, pageURL string, summary *Summary) (n int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while processing %s: %v", pageURL, r)
		}
	}()
	e.logger.Info("fetching page", zap.Int("counter", idx), zap.String("url", pageURL))

	resp, err := e.fetcher.Fetch(ctx, FetchRequest{URL: pageURL, Headers: e.cfg.Headers.Clone()})
	if err != nil {
		metrics.ObservePage(pageURL, metrics.StatusFetchError, 0)
		return 0, err
	}

	records, err := e.extractor.Extract(pageURL, resp.Body)
	if err != nil {
		metrics.ObservePage(pageURL, metrics.StatusParseError, len(resp.Body))
		return 0, err
	}
	metrics.ObservePage(pageURL, metrics.StatusSuccess, len(resp.Body))
	metrics.ObserveRecords(len(records))
	e.logger.Info("page parsed", zap.String("url", pageURL), zap.Int("records", len(records)))

	for _, record := range records {
		result := e.writer.Write(ctx, record)
		for _, serr := range result.Failed {
			summary.SinkFailures[serr.Sink]++
		}
	}
	return len(records), nil
}

func (e *Engine) logPageError(idx int, pageURL string, err error) {
	fields := []zap.Field{zap.Int("counter", idx), zap.String("url", pageURL), zap.Error(err)}

	var (
		statusErr *HTTPStatusError
		fetchErr  *FetchError
		parseErr  *ParseError
	)
	switch {
	case errors.As(err, &statusErr):
		e.logger.Warn("page returned error status", append(fields, zap.Int("status", statusErr.StatusCode))...)
	case errors.As(err, &fetchErr):
		e.logger.Warn("page request failed", fields...)
	case errors.As(err, &parseErr):
		e.logger.Warn("page structure not recognized, markup may have changed", fields...)
	default:
		e.logger.Error("unexpected page error", fields...)
	}
}
