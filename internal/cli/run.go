package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/unmolkumar/school-ai-bav/internal/metrics"
	"github.com/unmolkumar/school-ai-bav/internal/pipeline"
	"github.com/unmolkumar/school-ai-bav/internal/store"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the pipeline over one or more academic years",
		RunE: func(cmd *cobra.Command, args []string) error {
			verbose, err := cmd.Root().PersistentFlags().GetBool("verbose")
			if err != nil {
				return fmt.Errorf("failed to get verbose flag: %w", err)
			}
			from, _ := cmd.Flags().GetString("from")
			to, _ := cmd.Flags().GetString("to")
			years, err := cmd.Flags().GetStringSlice("year")
			if err != nil {
				return fmt.Errorf("failed to get year flag: %w", err)
			}
			if len(years) == 0 {
				return fmt.Errorf("at least one --year is required")
			}

			cfg, err := loadConfig(cmd)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			log := newLogger(verbose)

			ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			pool, err := store.NewPool(ctx, cfg.DatabaseURL)
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			defer pool.Close()

			modelVersion := runTimestampModelVersion()
			metrics.BuildInfo.WithLabelValues(modelVersion).Set(1)

			if addr, _ := cmd.Flags().GetString("metrics-addr"); addr != "" {
				mux := http.NewServeMux()
				mux.Handle("/metrics", promhttp.Handler())
				srv := &http.Server{Addr: addr, Handler: mux}
				go func() {
					if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
						log.Warn("metrics server stopped", "error", err)
					}
				}()
				defer srv.Close()
				log.Info("serving metrics", "addr", addr)
			}

			registry := buildRegistry(log, cfg, modelVersion)
			driver := pipeline.NewDriver(registry, pool, log)

			opts := pipeline.RunOptions{
				From:         from,
				To:           to,
				Years:        years,
				BatchTimeout: cfg.BatchTimeout,
			}

			if err := driver.Run(ctx, opts); err != nil {
				log.Error("pipeline run failed", "error", err)
				os.Exit(1)
			}

			log.Info("pipeline run completed", "years", years)
			return nil
		},
	}

	cmd.Flags().String("from", "", "first stage to run (inclusive, by name)")
	cmd.Flags().String("to", "", "last stage to run (inclusive, by name)")
	cmd.Flags().StringSlice("year", nil, "academic year(s) to process, e.g. 2023-24 (repeatable)")
	cmd.Flags().String("metrics-addr", "", "serve Prometheus /metrics on this address while the run executes (e.g. :9100)")

	return cmd
}
