package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/njchilds90/gofixpoint/internal/observability"
	"github.com/njchilds90/gofixpoint/internal/server"
)

func newServeCmd(a *app) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the search over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("addr") {
				a.cfg.Server.Addr = addr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			shutdown, err := observability.InitTracing(ctx, observability.TracingConfig{
				Exporter:       a.cfg.Tracing.Exporter,
				ServiceName:    "fixpoint",
				ServiceVersion: version,
			})
			if err != nil {
				return fmt.Errorf("init tracing: %w", err)
			}
			defer func() {
				if err := shutdown(context.Background()); err != nil {
					a.logger.Warn("tracing shutdown", zap.Error(err))
				}
			}()

			metrics := observability.NewMetrics(prometheus.DefaultRegisterer)
			srv := server.New(a.searcher(metrics), server.Options{
				Config:         a.cfg.Server,
				RequestTimeout: a.cfg.GetRequestTimeout(),
				Logger:         a.logger,
				Metrics:        metrics,
				Gatherer:       prometheus.DefaultGatherer,
				Tracing:        a.cfg.Tracing.Exporter != "none",
				ServiceName:    "fixpoint",
			})
			return srv.Run(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config)")
	return cmd
}
