package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/disaykin/ratelimit"
	"github.com/disaykin/ratelimit/internal/config"
)

const metricsNamespace = "ratebench"

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run concurrent workers against a rate limiter and print the report",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(viper.GetViper())
		if err != nil {
			return err
		}
		return runBenchmark(cmd.Context(), cfg, cliLogger, cmd.OutOrStdout())
	},
}

func init() {
	flags := runCmd.Flags()
	flags.Int("max-rps", 5000, "maximum admitted calls in any one second window")
	flags.Int("resolution", 1000, "time slices per second tracked by the limiter")
	flags.Int("workers", 500, "number of concurrent workers")
	flags.Int("calls", 1000, "calls issued by every worker")
	flags.Duration("max-pause", 50*time.Millisecond, "upper bound of the random pause after each call")
	flags.Duration("bucket", 100*time.Millisecond, "width of a report row")
	flags.String("format", config.FormatText, "report format: text or table")
	flags.String("metrics-addr", "", "serve prometheus metrics on this address while running")

	for key, name := range map[string]string{
		"max_rps":      "max-rps",
		"resolution":   "resolution",
		"workers":      "workers",
		"calls":        "calls",
		"max_pause":    "max-pause",
		"bucket":       "bucket",
		"format":       "format",
		"metrics_addr": "metrics-addr",
	} {
		_ = viper.BindPFlag(key, flags.Lookup(name))
	}

	rootCmd.AddCommand(runCmd)
}

func runBenchmark(ctx context.Context, cfg *config.Config, logger *zap.Logger, out io.Writer) error {
	libLogger := ratelimit.NewZapLogger(logger)

	limiter, err := ratelimit.New(&ratelimit.Config{
		MaxPerWindow: cfg.MaxRPS,
		Resolution:   cfg.Resolution,
		Logger:       libLogger,
	})
	if err != nil {
		return fmt.Errorf("failed to build rate limiter: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := ratelimit.NewMetrics(registry, metricsNamespace)

	if cfg.MetricsAddr != "" {
		_, stop, err := serveMetrics(cfg.MetricsAddr, registry, logger)
		if err != nil {
			return err
		}
		defer stop()
	}

	harness, err := ratelimit.NewHarness(limiter, &ratelimit.HarnessConfig{
		BucketWidth: cfg.Bucket,
		Metrics:     metrics,
		Logger:      libLogger,
	})
	if err != nil {
		return fmt.Errorf("failed to build load harness: %w", err)
	}

	logger.Info("Starting benchmark",
		zap.Int("max_rps", cfg.MaxRPS),
		zap.Int("workers", cfg.Workers),
		zap.Int("calls", cfg.Calls),
		zap.Duration("max_pause", cfg.MaxPause))

	result, runErr := ratelimit.RunWorkload(ctx, harness, &ratelimit.WorkloadConfig{
		Workers:        cfg.Workers,
		CallsPerWorker: cfg.Calls,
		MaxPause:       cfg.MaxPause,
		Logger:         libLogger,
	})
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}

	// a cancelled run still reports what happened so far
	if err := writeReport(out, cfg.Format, harness); err != nil {
		return err
	}

	stats := limiter.Stats()
	logger.Debug("Limiter window at the end of the run",
		zap.Uint64("window_total", stats.WindowTotal),
		zap.Int64("last_slice", stats.LastSlice))

	logger.Info("Benchmark completed",
		zap.Uint64("calls", result.Calls),
		zap.Uint64("admitted", result.Admitted),
		zap.Uint64("rejected", result.Rejected),
		zap.Duration("elapsed", result.Elapsed))

	return runErr
}

func writeReport(out io.Writer, format string, harness *ratelimit.LoadHarness) error {
	switch format {
	case config.FormatTable:
		if _, err := fmt.Fprintln(out, ratelimit.RenderTable(harness.Buckets())); err != nil {
			return fmt.Errorf("error writing report: %w", err)
		}
		return nil
	default:
		return harness.Report(out)
	}
}

// serveMetrics exposes registry on addr and returns the bound address
// together with a function shutting the server down.
func serveMetrics(addr string, registry *prometheus.Registry, logger *zap.Logger) (string, func(), error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return "", nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
		ErrorHandling:     promhttp.ContinueOnError,
	}))
	server := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Metrics server failed", zap.Error(err))
		}
	}()
	bound := listener.Addr().String()
	logger.Info("Serving metrics", zap.String("addr", bound))

	return bound, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(ctx)
	}, nil
}
