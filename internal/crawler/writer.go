package crawler

import (
	"context"

	"go.uber.org/zap"

	"github.com/JakeFAU/hasaki-crawler/internal/metrics"
)

// WriteResult lists the sinks that rejected a record.
type WriteResult struct {
	Attempted int
	Failed    []*SinkError
}

// OK reports whether every sink accepted the record.
func (r WriteResult) OK() bool { return len(r.Failed) == 0 }

// Writer fans one record out to every sink in order. Sinks are independent:
// a failure is logged and the remaining sinks are still attempted. Nothing
// spans sinks, so partial delivery is a normal outcome.
type Writer struct {
	sinks  []Sink
	logger *zap.Logger
}

// NewWriter builds a Writer over sinks, attempted in the given order.
func NewWriter(sinks []Sink, logger *zap.Logger) *Writer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Writer{
		sinks:  append([]Sink(nil), sinks...),
		logger: logger,
	}
}

// Write delivers record to every sink and never returns an error.
func (w *Writer) Write(ctx context.Context, record Record) WriteResult {
	var result WriteResult
	for _, sink := range w.sinks {
		result.Attempted++
		err := sink.Write(ctx, record)
		metrics.ObserveSinkWrite(sink.Name(), err)
		if err != nil {
			serr := &SinkError{Sink: sink.Name(), Err: err}
			result.Failed = append(result.Failed, serr)
			w.logger.Error("sink write failed",
				zap.String("sink", sink.Name()),
				zap.String("item_name", record.ItemName),
				zap.String("url", record.LinkPage),
				zap.Error(err),
			)
			continue
		}
		w.logger.Debug("sink write ok",
			zap.String("sink", sink.Name()),
			zap.String("item_name", record.ItemName),
		)
	}
	return result
}
