package persist

import (
	"context"

	"go.uber.org/zap"

	"github.com/kapu/rutube-stats-go/internal/domain"
	"github.com/kapu/rutube-stats-go/internal/service/export"
)

type StatsWriter interface {
	InsertBatch(ctx context.Context, snapshots []*domain.VideoStatSnapshot) (int, error)
}

type Exporter interface {
	Export(channelID int64, batch []*domain.VideoStatSnapshot) (*export.Paths, error)
}

type SnapshotMirror interface {
	MirrorSnapshots(ctx context.Context, channelID int64, batch []*domain.VideoStatSnapshot) error
}

// Result reports what one Persist call wrote.
type Result struct {
	Inserted int
	Mirrored bool
	Paths    *export.Paths
}

// Sink writes a collected batch to the stats table, the optional Redis
// mirror and the export files. Only export failures are returned.
type Sink struct {
	stats    StatsWriter
	mirror   SnapshotMirror
	exporter Exporter
	logger   *zap.Logger
}

// NewSink builds a sink; stats and mirror may be nil when not configured.
func NewSink(stats StatsWriter, mirror SnapshotMirror, exporter Exporter, logger *zap.Logger) *Sink {
	return &Sink{
		stats:    stats,
		mirror:   mirror,
		exporter: exporter,
		logger:   logger,
	}
}

func (s *Sink) Persist(ctx context.Context, channelID int64, batch []*domain.VideoStatSnapshot) (*Result, error) {
	result := &Result{}
	if len(batch) == 0 {
		s.logger.Warn("Nothing to persist", zap.Int64("channel_id", channelID))
		return result, nil
	}

	if s.stats == nil {
		s.logger.Warn("Database not configured, skipping stats insert")
	} else if inserted, err := s.stats.InsertBatch(ctx, batch); err != nil {
		s.logger.Error("Failed to insert stats rows, continuing with exports",
			zap.Int("rows", len(batch)),
			zap.Error(err))
	} else {
		result.Inserted = inserted
		s.logger.Info("Rows inserted", zap.Int("rows", inserted))
	}

	if s.mirror != nil {
		if err := s.mirror.MirrorSnapshots(ctx, channelID, batch); err != nil {
			s.logger.Warn("Snapshot mirror skipped", zap.Error(err))
		} else {
			result.Mirrored = true
		}
	}

	paths, err := s.exporter.Export(channelID, batch)
	if err != nil {
		return result, err
	}
	result.Paths = paths

	s.logger.Info("Rows saved",
		zap.Int("rows", len(batch)),
		zap.String("csv", paths.CSV),
		zap.String("json", paths.JSON))

	return result, nil
}
