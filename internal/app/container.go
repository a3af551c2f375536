package app

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/kapu/rutube-stats-go/internal/config"
	"github.com/kapu/rutube-stats-go/internal/service/cache"
	"github.com/kapu/rutube-stats-go/internal/service/collector"
	"github.com/kapu/rutube-stats-go/internal/service/database"
	"github.com/kapu/rutube-stats-go/internal/service/export"
	"github.com/kapu/rutube-stats-go/internal/service/persist"
	"github.com/kapu/rutube-stats-go/internal/service/rutube"
	"github.com/kapu/rutube-stats-go/internal/service/stats"
	"github.com/kapu/rutube-stats-go/internal/util"
	"github.com/kapu/rutube-stats-go/pkg/errors"
)

// Container bundles the assembled services of one collector run.
type Container struct {
	Config *config.Config
	Logger *zap.Logger

	pipeline *Pipeline
	closers  []func()
}

// Pipeline returns the wired collection pipeline.
func (c *Container) Pipeline() *Pipeline {
	return c.pipeline
}

// Close releases the database and Redis connections in reverse order.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.closers = nil
}

// Build assembles every service. The database and the Redis mirror are
// optional: when they are not configured or cannot be reached the run goes
// on with the export files only.
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Container, error) {
	if cfg == nil {
		return nil, errors.NewCollectorError("config must not be nil", errors.CodeCollectorError, 0, nil)
	}
	if logger == nil {
		return nil, errors.NewCollectorError("logger must not be nil", errors.CodeCollectorError, 0, nil)
	}
	if ctx == nil {
		ctx = context.Background()
	}

	c := &Container{Config: cfg, Logger: logger}

	// Rutube transport
	client := rutube.NewAPIClient(&http.Client{}, cfg.Rutube.BaseURL, cfg.Rutube.UserAgent, logger)
	lister := rutube.NewLister(client, logger)
	aggregator := collector.NewAggregator(
		rutube.NewScraper(client, logger),
		rutube.NewVideoFetcher(client, logger),
		logger,
	)
	batchCollector := collector.NewCollector(aggregator, util.NewIntervalGate(cfg.Collector.Delay), logger)

	// Sinks
	var statsWriter persist.StatsWriter
	if repo := c.buildStatsRepository(ctx, cfg.Database, logger); repo != nil {
		statsWriter = repo
	}

	var mirror persist.SnapshotMirror
	if cfg.Redis.Enabled() {
		cacheSvc, err := cache.NewCacheService(cfg.Redis, logger)
		if err != nil {
			logger.Warn("Redis unavailable, snapshot mirror disabled", zap.Error(err))
		} else {
			c.closers = append(c.closers, func() { _ = cacheSvc.Close() })
			mirror = cacheSvc
		}
	}

	exporter := export.NewFileExporter(cfg.Collector.OutputDir, logger)
	sink := persist.NewSink(statsWriter, mirror, exporter, logger)

	c.pipeline = NewPipeline(cfg.Collector, lister, batchCollector, sink, logger)
	return c, nil
}

func (c *Container) buildStatsRepository(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) *stats.VideoStatsRepository {
	if !cfg.Enabled() {
		logger.Warn("No database DSN configured, rows will only be exported to files")
		return nil
	}

	dbSvc, err := database.NewDatabaseService(cfg, logger)
	if err != nil {
		logger.Error("Database unavailable, rows will only be exported to files", zap.Error(err))
		return nil
	}
	c.closers = append(c.closers, func() { _ = dbSvc.Close() })

	repo := stats.NewVideoStatsRepository(dbSvc.GetDB(), dbSvc.Dialect(), logger)
	if cfg.AutoMigrate {
		if err := repo.EnsureSchema(ctx); err != nil {
			logger.Error("Failed to apply stats schema", zap.Error(err))
		}
	}
	return repo
}
