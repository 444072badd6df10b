package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/hasaki-crawler/internal/clock/system"
	"github.com/JakeFAU/hasaki-crawler/internal/config"
	"github.com/JakeFAU/hasaki-crawler/internal/crawler"
	collyfetcher "github.com/JakeFAU/hasaki-crawler/internal/fetcher/colly"
	"github.com/JakeFAU/hasaki-crawler/internal/id/uuid"
	"github.com/JakeFAU/hasaki-crawler/internal/logging"
	"github.com/JakeFAU/hasaki-crawler/internal/metrics"
)

type crawlOptions struct {
	pages  int
	output string
}

// newCrawlCmd creates and configures the 'crawl' subcommand.
func newCrawlCmd(root *rootOptions) *cobra.Command {
	opts := &crawlOptions{}
	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Crawls every listing page once",
		Long: `Connects to every sink, then fetches listing pages 1..N in order and
writes each extracted record to all sinks. Failed pages are logged and
skipped; an unreachable sink at startup aborts the run.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadCrawlConfig(cmd, root.configFile, opts)
			if err != nil {
				return err
			}
			return runCrawl(cmd, cfg)
		},
	}
	cmd.Flags().IntVar(&opts.pages, "pages", 0, "number of listing pages to crawl (overrides config)")
	cmd.Flags().StringVar(&opts.output, "output", "", "flat file path (overrides config)")
	return cmd
}

func loadCrawlConfig(cmd *cobra.Command, path string, opts *crawlOptions) (config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	if cmd.Flags().Changed("pages") {
		cfg.Crawler.Pages = opts.pages
	}
	if cmd.Flags().Changed("output") {
		cfg.Output.Path = opts.output
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("invalid flags: %w", err)
	}
	return cfg, nil
}

func runCrawl(cmd *cobra.Command, cfg config.Config) error {
	ctx := cmd.Context()
	logger, err := logging.New(logging.Options{
		Development: cfg.Logging.Development,
		Level:       cfg.Logging.Level,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	metrics.Init()
	if cfg.Metrics.Addr != "" {
		stopServer := startMetricsServer(cfg.Metrics.Addr, logger)
		defer stopServer()
	}

	runID, err := uuid.New().NewID()
	if err != nil {
		return err
	}
	logger = logger.With(zap.String("run_id", runID))

	sinks, err := newApp(ctx, cfg, logger.Named("bootstrap"))
	if err != nil {
		return fmt.Errorf("bootstrap sinks: %w", err)
	}
	defer func() {
		if cerr := sinks.Close(context.WithoutCancel(ctx)); cerr != nil {
			logger.Warn("failed to close sinks", zap.Error(cerr))
		}
	}()

	fetcher := collyfetcher.New(collyfetcher.Config{
		UserAgent: cfg.Crawler.UserAgent,
		Timeout:   cfg.Crawler.Timeout,
	})
	engine := crawler.NewEngine(
		crawler.EngineConfig{
			RunID:   runID,
			Pages:   crawler.PageURLs(cfg.Crawler.BaseURL, cfg.Crawler.PageParam, cfg.Crawler.Pages),
			Headers: collyfetcher.DefaultHeaders(cfg.Crawler.UserAgent),
			Clock:   system.New(),
		},
		fetcher,
		crawler.NewExtractor(cfg.Selectors),
		crawler.NewWriter(sinks.Sinks(), logger.Named("writer")),
		logger.Named("engine"),
	)

	summary, err := engine.Run(ctx)
	if err != nil {
		return fmt.Errorf("run crawler: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "crawl completed: %d records from %d pages (%d failed) in %s\n",
		summary.Records, summary.Pages, summary.PagesFailed,
		summary.FinishedAt.Sub(summary.StartedAt).Round(time.Millisecond))
	fmt.Fprintf(out, "data saved to %s\n", sinks.OutputPath())
	return nil
}

// startMetricsServer serves /metrics and /healthz until the returned func is
// called.
func startMetricsServer(addr string, logger *zap.Logger) func() {
	srv := &http.Server{
		Addr:              addr,
		Handler:           metrics.NewRouter(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("metrics server started", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server error", zap.Error(err))
		}
	}()
	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("metrics server shutdown error", zap.Error(err))
		}
	}
}
