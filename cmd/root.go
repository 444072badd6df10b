// Package cmd defines and implements the CLI commands for the hasaki-crawler executable.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/hasaki-crawler/internal/app"
	"github.com/JakeFAU/hasaki-crawler/internal/config"
)

// newApp is the sink factory. It's a variable so tests can swap in an app
// without network sinks.
var newApp = func(ctx context.Context, cfg config.Config, logger *zap.Logger) (*app.App, error) {
	return app.New(ctx, cfg, logger)
}

type rootOptions struct {
	configFile string
}

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "hasaki-crawler",
		Short: "Crawls the Hasaki product listing into several stores.",
		Long: `hasaki-crawler walks the paginated Hasaki product listing, extracts one
record per product card and writes each record to MongoDB, Redis,
PostgreSQL, MySQL and a flat CSV file.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.configFile, "config", "", "config file (yaml, json or toml)")
	cmd.AddCommand(newCrawlCmd(opts))

	return cmd
}

// Execute is the main entry point.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1) //nolint:gocritic // stop already called
	}
}
