package app

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kapu/rutube-stats-go/internal/config"
	"github.com/kapu/rutube-stats-go/internal/constants"
	"github.com/kapu/rutube-stats-go/internal/domain"
	"github.com/kapu/rutube-stats-go/internal/service/persist"
)

type VideoLister interface {
	ListChannelVideos(ctx context.Context, channelID int64, pageSize int) ([]domain.VideoReference, error)
}

type BatchCollector interface {
	Collect(ctx context.Context, refs []domain.VideoReference) []*domain.VideoStatSnapshot
}

type Persister interface {
	Persist(ctx context.Context, channelID int64, batch []*domain.VideoStatSnapshot) (*persist.Result, error)
}

// RunSummary describes one completed run.
type RunSummary struct {
	RunID     string
	Listed    int
	Collected int
	Inserted  int
	CSVPath   string
	JSONPath  string
	Elapsed   time.Duration
}

// Pipeline lists a channel, collects every video and persists the batch.
type Pipeline struct {
	cfg       config.CollectorConfig
	lister    VideoLister
	collector BatchCollector
	sink      Persister
	logger    *zap.Logger
}

func NewPipeline(cfg config.CollectorConfig, lister VideoLister, collector BatchCollector, sink Persister, logger *zap.Logger) *Pipeline {
	return &Pipeline{
		cfg:       cfg,
		lister:    lister,
		collector: collector,
		sink:      sink,
		logger:    logger,
	}
}

// Run returns an error when the listing or the export fails. A run that
// collects nothing is not an error.
func (p *Pipeline) Run(ctx context.Context) (*RunSummary, error) {
	start := time.Now()
	summary := &RunSummary{RunID: uuid.NewString()}
	logger := p.logger.With(
		zap.String("run_id", summary.RunID),
		zap.Int64("channel_id", p.cfg.ChannelID))

	logger.Info("Listing channel videos", zap.Int("page_size", p.cfg.PageSize))
	refs, err := p.lister.ListChannelVideos(ctx, p.cfg.ChannelID, p.cfg.PageSize)
	if err != nil {
		return summary, fmt.Errorf("failed to list channel %d: %w", p.cfg.ChannelID, err)
	}
	summary.Listed = len(refs)
	logger.Info("Videos found", zap.Int("count", len(refs)))

	batch := p.collector.Collect(ctx, refs)
	summary.Collected = len(batch)
	if len(batch) == 0 {
		logger.Warn("No data collected")
		summary.Elapsed = time.Since(start)
		return summary, nil
	}

	// an interrupted run still persists what it collected
	persistCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), constants.CollectorDefaults.PersistTimeout)
	defer cancel()

	result, err := p.sink.Persist(persistCtx, p.cfg.ChannelID, batch)
	if result != nil {
		summary.Inserted = result.Inserted
		if result.Paths != nil {
			summary.CSVPath = result.Paths.CSV
			summary.JSONPath = result.Paths.JSON
		}
	}
	summary.Elapsed = time.Since(start)
	if err != nil {
		return summary, fmt.Errorf("failed to persist batch: %w", err)
	}

	logger.Info("Run complete",
		zap.Int("listed", summary.Listed),
		zap.Int("collected", summary.Collected),
		zap.Int("inserted", summary.Inserted),
		zap.Duration("elapsed", summary.Elapsed))

	return summary, nil
}
