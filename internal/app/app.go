// Package app opens and holds the crawl's long-lived sink handles, acting as
// the dependency container passed to the pipeline.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/hasaki-crawler/internal/config"
	"github.com/JakeFAU/hasaki-crawler/internal/crawler"
	"github.com/JakeFAU/hasaki-crawler/internal/storage/csvfile"
)

// CloseFunc releases one sink.
type CloseFunc func(ctx context.Context) error

// Connector opens one network sink.
type Connector struct {
	Name    string
	Connect func(ctx context.Context) (crawler.Sink, CloseFunc, error)
}

// BootstrapError is returned when a sink stays unreachable after every
// attempt. It aborts the run.
type BootstrapError struct {
	Sink     string
	Attempts int
	Err      error
}

func (e *BootstrapError) Error() string {
	return fmt.Sprintf("connect %s: gave up after %d attempts: %v", e.Sink, e.Attempts, e.Err)
}

func (e *BootstrapError) Unwrap() error { return e.Err }

// Options controls bootstrap timing and the flat-file location.
type Options struct {
	OutputPath   string
	Attempts     int
	Delay        time.Duration
	StartupDelay time.Duration
}

// OptionsFromConfig extracts bootstrap options from cfg.
func OptionsFromConfig(cfg config.Config) Options {
	return Options{
		OutputPath:   cfg.Output.Path,
		Attempts:     cfg.Bootstrap.Attempts,
		Delay:        cfg.Bootstrap.Delay,
		StartupDelay: cfg.Bootstrap.StartupDelay,
	}
}

type openSink struct {
	name  string
	close CloseFunc
}

// App holds one handle per sink for the lifetime of a crawl.
type App struct {
	logger *zap.Logger
	sinks  []crawler.Sink
	opened []openSink
	output *csvfile.Writer
}

// New connects every sink described by cfg.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	return Open(ctx, OptionsFromConfig(cfg), DefaultConnectors(cfg), logger)
}

// Open creates the flat file, waits the startup delay, then connects each
// connector in order with retries. On failure everything already opened is
// released before the error is returned.
func Open(ctx context.Context, opts Options, connectors []Connector, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Attempts <= 0 {
		opts.Attempts = 1
	}

	output, err := csvfile.Create(opts.OutputPath)
	if err != nil {
		return nil, fmt.Errorf("open output file: %w", err)
	}
	a := &App{logger: logger, output: output}

	if opts.StartupDelay > 0 {
		logger.Info("waiting for sinks to be ready", zap.Duration("delay", opts.StartupDelay))
		if err := sleep(ctx, opts.StartupDelay); err != nil {
			_ = a.Close(context.WithoutCancel(ctx))
			return nil, fmt.Errorf("startup delay: %w", err)
		}
	}

	for _, c := range connectors {
		sink, closeFn, err := connectWithRetry(ctx, c, opts.Attempts, opts.Delay, logger)
		if err != nil {
			_ = a.Close(context.WithoutCancel(ctx))
			return nil, err
		}
		logger.Info("connected", zap.String("sink", c.Name))
		a.sinks = append(a.sinks, sink)
		a.opened = append(a.opened, openSink{name: c.Name, close: closeFn})
	}
	a.sinks = append(a.sinks, output)
	return a, nil
}

func connectWithRetry(
	ctx context.Context,
	c Connector,
	attempts int,
	delay time.Duration,
	logger *zap.Logger,
) (crawler.Sink, CloseFunc, error) {
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		sink, closeFn, err := c.Connect(ctx)
		if err == nil {
			return sink, closeFn, nil
		}
		lastErr = err
		if attempt == attempts {
			break
		}
		logger.Warn("sink connection failed, retrying",
			zap.String("sink", c.Name),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", attempts),
			zap.Duration("retry_in", delay),
			zap.Error(err),
		)
		if err := sleep(ctx, delay); err != nil {
			lastErr = errors.Join(lastErr, err)
			attempts = attempt
			break
		}
	}
	logger.Error("sink connection failed",
		zap.String("sink", c.Name),
		zap.Int("attempts", attempts),
		zap.Error(lastErr),
	)
	return nil, nil, &BootstrapError{Sink: c.Name, Attempts: attempts, Err: lastErr}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Sinks returns the sinks in write order; the flat file is always last.
func (a *App) Sinks() []crawler.Sink {
	return append([]crawler.Sink(nil), a.sinks...)
}

// OutputPath is the flat file being written.
func (a *App) OutputPath() string {
	return a.output.Path()
}

// Close releases every sink in reverse order of opening and then the flat
// file. Failures are logged and joined.
func (a *App) Close(ctx context.Context) error {
	if a == nil {
		return nil
	}
	var errs []error
	for i := len(a.opened) - 1; i >= 0; i-- {
		s := a.opened[i]
		if s.close == nil {
			continue
		}
		if err := s.close(ctx); err != nil {
			a.logger.Warn("error closing sink", zap.String("sink", s.name), zap.Error(err))
			errs = append(errs, fmt.Errorf("close %s: %w", s.name, err))
		}
	}
	a.opened = nil
	if a.output != nil {
		if err := a.output.Close(); err != nil {
			a.logger.Warn("error closing output file", zap.Error(err))
			errs = append(errs, err)
		}
		a.output = nil
	}
	return errors.Join(errs...)
}
