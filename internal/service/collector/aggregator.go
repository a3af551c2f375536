package collector

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kapu/rutube-stats-go/internal/domain"
)

// ViewSource reads the public view counter of a video page.
type ViewSource interface {
	FetchViews(ctx context.Context, pageURL string) (views int64, found bool, err error)
}

// DetailSource reads per-video details from the Rutube API.
type DetailSource interface {
	FetchCore(ctx context.Context, hash string) (*domain.VideoCore, error)
	FetchVotes(ctx context.Context, hash string) (*domain.VideoVotes, error)
	FetchCommentCount(ctx context.Context, hash string) domain.CommentCount
}

// Aggregator assembles one VideoStatSnapshot from the page scrape and the
// three API lookups.
type Aggregator struct {
	views   ViewSource
	details DetailSource
	now     func() time.Time
	logger  *zap.Logger
}

func NewAggregator(views ViewSource, details DetailSource, logger *zap.Logger) *Aggregator {
	return &Aggregator{
		views:   views,
		details: details,
		now:     time.Now,
		logger:  logger,
	}
}

// WithClock replaces the snapshot clock.
func (a *Aggregator) WithClock(now func() time.Time) *Aggregator {
	a.now = now
	return a
}

func (a *Aggregator) Build(ctx context.Context, ref domain.VideoReference) (*domain.VideoStatSnapshot, error) {
	taken := a.now()

	views, found, err := a.views.FetchViews(ctx, ref.URL)
	if err != nil {
		return nil, fmt.Errorf("video %s: %w", ref.ID, err)
	}
	if !found {
		a.logger.Debug("No view counter on page, using 0", zap.String("video", ref.ID))
	}

	core, err := a.details.FetchCore(ctx, ref.ID)
	if err != nil {
		return nil, fmt.Errorf("video %s: %w", ref.ID, err)
	}

	votes, err := a.details.FetchVotes(ctx, ref.ID)
	if err != nil {
		return nil, fmt.Errorf("video %s: %w", ref.ID, err)
	}

	comments := a.details.FetchCommentCount(ctx, ref.ID)

	return domain.NewVideoStatSnapshot(domain.SnapshotInput{
		URL:      ref.URL,
		Hash:     ref.ID,
		Taken:    taken,
		Views:    views,
		Core:     *core,
		Votes:    *votes,
		Comments: comments,
	}), nil
}
