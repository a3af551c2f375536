package collector

import (
	"context"
	"errors"
	"fmt"

	"github.com/sourcegraph/conc/panics"
	"go.uber.org/zap"

	"github.com/kapu/rutube-stats-go/internal/domain"
	"github.com/kapu/rutube-stats-go/internal/util"
)

// SnapshotBuilder produces the snapshot of a single video.
type SnapshotBuilder interface {
	Build(ctx context.Context, ref domain.VideoReference) (*domain.VideoStatSnapshot, error)
}

// Collector runs the builder over a listing one video at a time.
type Collector struct {
	builder SnapshotBuilder
	gate    util.Gate
	logger  *zap.Logger
}

func NewCollector(builder SnapshotBuilder, gate util.Gate, logger *zap.Logger) *Collector {
	return &Collector{
		builder: builder,
		gate:    gate,
		logger:  logger,
	}
}

// Collect returns the snapshots that could be built, in listing order. A
// failing or panicking video is logged and skipped. Cancellation stops the
// run and returns what was collected so far.
func (c *Collector) Collect(ctx context.Context, refs []domain.VideoReference) []*domain.VideoStatSnapshot {
	total := len(refs)
	results := make([]*domain.VideoStatSnapshot, 0, total)

	for i, ref := range refs {
		if c.gate != nil {
			if err := c.gate.Wait(ctx); err != nil {
				c.logger.Warn("Collection interrupted",
					zap.Int("processed", i),
					zap.Int("total", total),
					zap.Error(err))
				break
			}
		}

		c.logger.Info(fmt.Sprintf("[%d/%d] Processing video", i+1, total),
			zap.String("video", ref.ID),
			zap.String("url", ref.URL))

		snapshot, err := c.buildOne(ctx, ref)
		if err != nil {
			c.logger.Error("Failed to collect video, skipping",
				zap.String("video", ref.ID),
				zap.Error(err))
			continue
		}
		results = append(results, snapshot)
	}

	c.logger.Info("Collection finished",
		zap.Int("collected", len(results)),
		zap.Int("total", total))

	return results
}

func (c *Collector) buildOne(ctx context.Context, ref domain.VideoReference) (snapshot *domain.VideoStatSnapshot, err error) {
	recovered := panics.Try(func() {
		snapshot, err = c.builder.Build(ctx, ref)
	})
	if recovered != nil {
		return nil, fmt.Errorf("video %s: %w", ref.ID, recovered.AsError())
	}
	if err == nil && snapshot == nil {
		return nil, errors.New("builder returned no snapshot")
	}
	return snapshot, err
}
