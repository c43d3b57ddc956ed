package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/defistate/routematrix-go/cmd/routematrix/config"
	"github.com/defistate/routematrix-go/differ"
	"github.com/defistate/routematrix-go/matrix"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsShutdownTimeout = 5 * time.Second

func main() {
	// create the log handler
	rootLogHandler := slog.NewJSONHandler(os.Stdout, nil)
	closeApp := func() {
		os.Exit(1)
	}

	rootLogger := slog.New(rootLogHandler)
	prometheusRegistry := prometheus.NewRegistry()
	cfg, err := loadConfig()
	if err != nil {
		rootLogger.Error("Failed to load configuration", "error", err)
		closeApp()
	}

	// Create a context that cancels when the OS sends an interrupt (Ctrl+C) or termination signal.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.MetricsAddr != "" {
		srv := serveMetrics(cfg.MetricsAddr, prometheusRegistry, rootLogger.With("component", "metrics"))
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), metricsShutdownTimeout)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	builder, err := matrix.NewBuilder(&matrix.BuilderConfig{
		Logger:      rootLogger.With("component", "matrix-builder"),
		Registry:    prometheusRegistry,
		Compression: matrix.Compression(cfg.Compression),
	})
	if err != nil {
		rootLogger.Error("Failed to initialize matrix builder", "error", err)
		closeApp()
	}

	snapshotDiffer, err := differ.NewSnapshotDiffer(&differ.SnapshotDifferConfig{
		Logger:   rootLogger.With("component", "differ"),
		Registry: prometheusRegistry,
	})
	if err != nil {
		rootLogger.Error("Failed to initialize differ", "error", err)
		closeApp()
	}

	r := &runner{
		cfg:     cfg,
		builder: builder,
		differ:  snapshotDiffer,
		logger:  rootLogger,
	}

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	for _, chain := range cfg.Chains {
		wg.Add(1)
		go func(chain config.ChainConfig) {
			defer wg.Done()
			if err := r.runChain(chain); err != nil {
				rootLogger.Error("Failed to build chain", "chain", chain.Name, "error", err)
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
		}(chain)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		// files already published stay valid; in-flight temp files are abandoned
		rootLogger.Warn("Interrupted before all chains were built")
		closeApp()
	}

	if err := errors.Join(errs...); err != nil {
		rootLogger.Error("Route matrix build finished with errors", "failed_chains", len(errs))
		closeApp()
	}
	rootLogger.Info("Route matrix build finished", "chains", len(cfg.Chains))
}

func serveMetrics(addr string, gatherer prometheus.Gatherer, logger *slog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Metrics server stopped", "error", err)
		}
	}()
	logger.Info("Serving metrics", "addr", addr)
	return srv
}

func loadConfig() (*config.BuilderConfig, error) {
	configPath := flag.String("config", "config.yaml", "Path to the configuration file.")
	flag.Parse()
	log.Printf("Loading configuration from: %s", *configPath)
	return config.LoadConfig(*configPath)
}
