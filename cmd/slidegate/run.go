package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/vnykmshr/slidegate/internal/driver"
	"github.com/vnykmshr/slidegate/pkg/config"
	"github.com/vnykmshr/slidegate/pkg/document"
	"github.com/vnykmshr/slidegate/pkg/logging"
	"github.com/vnykmshr/slidegate/pkg/metrics"
	"github.com/vnykmshr/slidegate/pkg/ratelimit/window"
)

const limiterName = "documents"

var (
	runWorkers  int
	runWindow   time.Duration
	runCapacity int
	runURL      string
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Create documents concurrently through the rate limiter",
	Long: `Start one goroutine per document, all at once, and let the sliding window
limiter space the API calls out. Occupancy is logged on the report schedule
and, when enabled, Prometheus metrics are served on /metrics.

The command fails if any document could not be created.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		applyRunFlags(cmd, cfg)
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		return runDemo(cmd.Context(), cfg, cmd.ErrOrStderr())
	},
}

func init() {
	runCmd.Flags().IntVarP(&runWorkers, "workers", "w", 0, "number of concurrent documents")
	runCmd.Flags().DurationVar(&runWindow, "window", 0, "length of the sliding window")
	runCmd.Flags().IntVar(&runCapacity, "capacity", 0, "calls admitted per window")
	runCmd.Flags().StringVar(&runURL, "url", "", "document API endpoint")

	rootCmd.AddCommand(runCmd)
}

func applyRunFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("workers") {
		cfg.Demo.Workers = runWorkers
	}
	if flags.Changed("window") {
		cfg.Limiter.Window = runWindow
	}
	if flags.Changed("capacity") {
		cfg.Limiter.Capacity = runCapacity
	}
	if flags.Changed("url") {
		cfg.Client.URL = runURL
	}
}

// runDemo wires the limiter, client, reporter and metrics endpoint from cfg
// and runs the workload. Logs go to out.
func runDemo(ctx context.Context, cfg *config.Config, out io.Writer) error {
	logger, err := logging.New(cfg.Logging, out)
	if err != nil {
		return err
	}

	limiterConfig := window.Config{
		Window:   cfg.Limiter.Window,
		Capacity: cfg.Limiter.Capacity,
	}

	var (
		limiter  window.Limiter
		registry *metrics.Registry
	)
	if cfg.Metrics.Enabled {
		promRegistry := prometheus.NewRegistry()
		promRegistry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		metricsConfig := metrics.Config{Enabled: true, Registry: promRegistry}

		limiter, err = window.NewWithConfigAndMetrics(limiterConfig, limiterName, metricsConfig)
		if err != nil {
			return err
		}
		registry = metrics.RegistryFor(metricsConfig)

		shutdown := serveMetrics(cfg.Metrics.Address, promRegistry, logger)
		defer shutdown()
	} else {
		limiter, err = window.NewWithConfigSafe(limiterConfig)
		if err != nil {
			return err
		}
	}

	client, err := document.NewClient(document.Config{
		URL:     cfg.Client.URL,
		Token:   cfg.Client.Token,
		Timeout: cfg.Client.Timeout,
		Limiter: limiter,
		Logger:  &logger,
		Metrics: registry,
	})
	if err != nil {
		return err
	}

	reporter, err := driver.NewReporter(cfg.Demo.ReportSchedule, limiter, logger)
	if err != nil {
		return err
	}
	reporter.Start(ctx)
	defer reporter.Stop()

	logger.Info().
		Dur("window", cfg.Limiter.Window).
		Int("capacity", cfg.Limiter.Capacity).
		Int("workers", cfg.Demo.Workers).
		Str("url", cfg.Client.URL).
		Msg("starting workload")

	summary := driver.Run(ctx, cfg.Demo.Workers, func(ctx context.Context, n int) error {
		res, err := client.Create(ctx, document.Sample(n), document.SampleSignature(n))
		if err != nil {
			logger.Error().Err(err).Int("worker", n).Msg("document not created")
			return err
		}
		logger.Info().Int("worker", n).Str("doc_id", res.DocID).Dur("waited", res.Waited).
			Msg("document created")
		return nil
	}, logger)

	if failed := summary.Failed(); len(failed) > 0 {
		return fmt.Errorf("%d of %d documents failed: %w", len(failed), len(summary.Results), failed[0].Err)
	}
	return nil
}

// serveMetrics exposes reg on addr under /metrics and returns a shutdown func.
func serveMetrics(addr string, reg *prometheus.Registry, logger zerolog.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
		ErrorHandling:     promhttp.ContinueOnError,
	}))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info().Str("address", addr).Msg("serving metrics")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics server stopped")
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Warn().Err(err).Msg("metrics server shutdown")
		}
	}
}
