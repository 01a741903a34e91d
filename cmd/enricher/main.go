package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/storm-data-geomatch/internal/adapter/csvfile"
	httpadapter "github.com/couchcryptid/storm-data-geomatch/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/storm-data-geomatch/internal/adapter/kafka"
	"github.com/couchcryptid/storm-data-geomatch/internal/config"
	"github.com/couchcryptid/storm-data-geomatch/internal/domain"
	"github.com/couchcryptid/storm-data-geomatch/internal/observability"
	"github.com/couchcryptid/storm-data-geomatch/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	matcher, err := buildMatcher(cfg, metrics, logger)
	if err != nil {
		logger.Error("failed to build matcher", "error", err)
		os.Exit(1)
	}

	reader := kafkaadapter.NewReader(cfg, logger)
	writer := kafkaadapter.NewWriter(cfg, logger)
	transformer := pipeline.NewTransformer(matcher, metrics, logger)

	p := pipeline.New(reader, transformer, writer, logger, metrics, cfg.BatchSize)

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		return p.Run(gctx)
	})

	<-gctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if err := reader.Close(); err != nil {
		logger.Error("kafka reader close error", "error", err)
	}
	if err := writer.Close(); err != nil {
		logger.Error("kafka writer close error", "error", err)
	}

	if err := g.Wait(); err != nil {
		logger.Error("service error", "error", err)
		os.Exit(1)
	}

	logger.Info("shutdown complete")
}

// buildMatcher loads the candidate city set and constructs the nearest-city
// matcher with its cache wired into the Prometheus counters.
func buildMatcher(cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger) (*domain.Matcher, error) {
	cities, err := csvfile.LoadCities(cfg.CitiesPath)
	if err != nil {
		return nil, err
	}

	candidates := domain.TopCities(cities, cfg.CityLimit)
	metrics.CandidateCities.Set(float64(len(candidates)))
	logger.Info("candidate cities loaded",
		"path", cfg.CitiesPath,
		"total", len(cities),
		"candidates", len(candidates),
		"index", cfg.MatchIndex,
	)

	return domain.NewMatcher(candidates, domain.MatcherOptions{
		Engine:    cfg.MatchIndex,
		CacheSize: cfg.MatchCacheSize,
		OnCacheLookup: func(hit bool) {
			result := "miss"
			if hit {
				result = "hit"
			}
			metrics.MatchCache.WithLabelValues(result).Inc()
		},
	})
}
