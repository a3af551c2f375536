package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kapu/rutube-stats-go/internal/config"
	"github.com/kapu/rutube-stats-go/internal/domain"
	"github.com/kapu/rutube-stats-go/internal/service/database"
	"github.com/kapu/rutube-stats-go/internal/service/export"
	"github.com/kapu/rutube-stats-go/internal/service/persist"
	"github.com/kapu/rutube-stats-go/internal/service/stats"
)

type fakeLister struct {
	refs []domain.VideoReference
	err  error
}

func (f *fakeLister) ListChannelVideos(context.Context, int64, int) ([]domain.VideoReference, error) {
	return f.refs, f.err
}

type fakeCollector struct {
	calls int
}

func (f *fakeCollector) Collect(_ context.Context, refs []domain.VideoReference) []*domain.VideoStatSnapshot {
	f.calls++
	out := make([]*domain.VideoStatSnapshot, 0, len(refs))
	for _, ref := range refs {
		out = append(out, domain.NewVideoStatSnapshot(domain.SnapshotInput{Hash: ref.ID, Taken: time.Now()}))
	}
	return out
}

type fakePersister struct {
	calls int
	err   error
}

func (f *fakePersister) Persist(_ context.Context, _ int64, batch []*domain.VideoStatSnapshot) (*persist.Result, error) {
	f.calls++
	if f.err != nil {
		return &persist.Result{Inserted: len(batch)}, f.err
	}
	return &persist.Result{
		Inserted: len(batch),
		Paths:    &export.Paths{CSV: "a.csv", JSON: "a.json"},
	}, nil
}

func testCollectorConfig() config.CollectorConfig {
	return config.CollectorConfig{ChannelID: 42, PageSize: 10, OutputDir: "data"}
}

func TestPipelineRun(t *testing.T) {
	lister := &fakeLister{refs: []domain.VideoReference{{ID: "a"}, {ID: "b"}}}
	sink := &fakePersister{}
	p := NewPipeline(testCollectorConfig(), lister, &fakeCollector{}, sink, zap.NewNop())

	summary, err := p.Run(context.Background())
	require.NoError(t, err)

	_, parseErr := uuid.Parse(summary.RunID)
	assert.NoError(t, parseErr)
	assert.Equal(t, 2, summary.Listed)
	assert.Equal(t, 2, summary.Collected)
	assert.Equal(t, 2, summary.Inserted)
	assert.Equal(t, "a.csv", summary.CSVPath)
	assert.Equal(t, "a.json", summary.JSONPath)
	assert.Equal(t, 1, sink.calls)
}

func TestPipelineListingFailureIsFatal(t *testing.T) {
	collector, sink := &fakeCollector{}, &fakePersister{}
	p := NewPipeline(testCollectorConfig(), &fakeLister{err: errors.New("503")}, collector, sink, zap.NewNop())

	_, err := p.Run(context.Background())
	require.Error(t, err)
	assert.Zero(t, collector.calls)
	assert.Zero(t, sink.calls)
}

func TestPipelineNothingCollected(t *testing.T) {
	sink := &fakePersister{}
	p := NewPipeline(testCollectorConfig(), &fakeLister{}, &fakeCollector{}, sink, zap.NewNop())

	summary, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, summary.Collected)
	assert.Zero(t, sink.calls)
}

func TestPipelineExportFailure(t *testing.T) {
	lister := &fakeLister{refs: []domain.VideoReference{{ID: "a"}}}
	p := NewPipeline(testCollectorConfig(), lister, &fakeCollector{}, &fakePersister{err: errors.New("read-only fs")}, zap.NewNop())

	summary, err := p.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, 1, summary.Inserted)
	assert.Empty(t, summary.CSVPath)
}

// interruptingCollector cancels the run while collecting, like SIGINT would.
type interruptingCollector struct {
	cancel context.CancelFunc
}

func (c *interruptingCollector) Collect(ctx context.Context, refs []domain.VideoReference) []*domain.VideoStatSnapshot {
	c.cancel()
	<-ctx.Done()
	return (&fakeCollector{}).Collect(ctx, refs)
}

func TestPipelinePersistsAfterInterrupt(t *testing.T) {
	dbSvc, err := database.NewDatabaseService(config.DatabaseConfig{Driver: database.DriverSQLite, DSN: ":memory:"}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = dbSvc.Close() })

	repo := stats.NewVideoStatsRepository(dbSvc.GetDB(), dbSvc.Dialect(), zap.NewNop())
	require.NoError(t, repo.EnsureSchema(context.Background()))
	sink := persist.NewSink(repo, nil, export.NewFileExporter(t.TempDir(), zap.NewNop()), zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	lister := &fakeLister{refs: []domain.VideoReference{{ID: "a"}, {ID: "b"}}}
	p := NewPipeline(testCollectorConfig(), lister, &interruptingCollector{cancel: cancel}, sink, zap.NewNop())

	summary, err := p.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Inserted)
	assert.FileExists(t, summary.CSVPath)

	var n int
	require.NoError(t, dbSvc.GetDB().QueryRow("SELECT COUNT(*) FROM rutube_video_stats").Scan(&n))
	assert.Equal(t, 2, n)
}
