package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/crash-data-etl/internal/adapter/httpadapter"
	"github.com/couchcryptid/crash-data-etl/internal/observability"
)

func newServeCommand(flags *inputFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Convert a crash export and serve the collection over HTTP",
		Long: `Serve runs one conversion in the background and exposes /healthz, /readyz,
/metrics, ` + httpadapter.CollectionPath + ` and ` + httpadapter.SummaryPath + `. Readiness
turns green once the conversion completes. The server runs until SIGINT or
SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, flags)
			if err != nil {
				return err
			}
			logger := observability.NewLogger(cfg)
			metrics := observability.NewMetrics()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, cfg, logger, metrics)
			if err != nil {
				return err
			}
			defer a.Close()

			srv := httpadapter.NewServer(cfg.HTTPAddr, a.pipeline, logger,
				httpadapter.CollectionRoute(a.geojson.Handler()),
				httpadapter.SummaryRoute(a.pipeline),
			)

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("http server: %w", err)
				}
				return nil
			})
			g.Go(func() error {
				sum, err := a.pipeline.Run(gctx)
				if err != nil {
					if errors.Is(err, context.Canceled) {
						return nil
					}
					return fmt.Errorf("convert %s: %w", cfg.CrashDataFile, err)
				}
				logger.Info("collection ready", "features", a.geojson.Len(), "unlocated", sum.Unlocated)
				return nil
			})
			g.Go(func() error {
				<-gctx.Done()
				logger.Info("shutting down")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
				defer cancel()
				if err := srv.Shutdown(shutdownCtx); err != nil {
					return fmt.Errorf("http server shutdown: %w", err)
				}
				return nil
			})

			err = g.Wait()
			logger.Info("shutdown complete")
			return err
		},
	}
}
