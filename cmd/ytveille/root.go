package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"YTVeille/internal/app"
	"YTVeille/internal/config"
	"YTVeille/internal/logging"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "ytveille",
		Short: "Curated French Kubernetes videos from YouTube",
		Long: `YTVeille periodically searches YouTube for French-language Kubernetes
videos, scores them for technical relevance and serves the ranked list.

Examples:
  ytveille serve
  ytveille worker
  ytveille refresh --query "Kubernetes scaling français"`,
		SilenceUsage: true,
	}

	root.AddCommand(newServeCmd(), newWorkerCmd(), newRefreshCmd())
	return root
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the read API and the scheduled refresh",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.Application) error {
				return a.Serve(ctx)
			})
		},
	}
}

func newWorkerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Run the scheduled refresh only",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.Application) error {
				return a.Worker(ctx)
			})
		},
	}
}

func newRefreshCmd() *cobra.Command {
	var queries []string

	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Run the pipeline once and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.Application) error {
				result, err := a.Refresh(ctx, queries)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "run %s: fetched=%d scored=%d stored=%d\n",
					result.RunID, result.Fetched, result.Scored, result.Stored)
				return nil
			})
		},
	}

	cmd.Flags().StringArrayVarP(&queries, "query", "q", nil, "search query, repeatable; replaces the saved query list")
	return cmd
}

func withApp(parent context.Context, fn func(context.Context, *app.Application) error) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()
	logger := logging.New(cfg.Logging.Level, cfg.Logging.Format)

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("application init failed", "error", err)
		return err
	}
	defer func() {
		if err := application.Close(); err != nil {
			logger.Warn("close application", "error", err)
		}
	}()

	if err := fn(ctx, application); err != nil {
		logger.Error("application stopped", "error", err)
		return err
	}
	return nil
}
