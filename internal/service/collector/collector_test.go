package collector

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/kapu/rutube-stats-go/internal/domain"
)

type builderFunc func(ctx context.Context, ref domain.VideoReference) (*domain.VideoStatSnapshot, error)

func (f builderFunc) Build(ctx context.Context, ref domain.VideoReference) (*domain.VideoStatSnapshot, error) {
	return f(ctx, ref)
}

type countingGate struct {
	calls int32
	err   error
}

func (g *countingGate) Wait(context.Context) error {
	atomic.AddInt32(&g.calls, 1)
	return g.err
}

func refs(ids ...string) []domain.VideoReference {
	out := make([]domain.VideoReference, len(ids))
	for i, id := range ids {
		out[i] = domain.VideoReference{ID: id, URL: "https://rutube.ru/video/" + id + "/"}
	}
	return out
}

func hashes(snapshots []*domain.VideoStatSnapshot) []string {
	out := make([]string, len(snapshots))
	for i, s := range snapshots {
		out[i] = s.Hash
	}
	return out
}

func echoBuilder(fail map[string]error) builderFunc {
	return func(_ context.Context, ref domain.VideoReference) (*domain.VideoStatSnapshot, error) {
		if err := fail[ref.ID]; err != nil {
			return nil, err
		}
		return domain.NewVideoStatSnapshot(domain.SnapshotInput{URL: ref.URL, Hash: ref.ID, Taken: time.Unix(0, 0)}), nil
	}
}

func TestCollectSkipsFailingVideo(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	gate := &countingGate{}
	c := NewCollector(echoBuilder(map[string]error{"v3": errors.New("upstream 500")}), gate, zap.New(core))

	got := c.Collect(context.Background(), refs("v1", "v2", "v3", "v4", "v5"))

	assert.Equal(t, []string{"v1", "v2", "v4", "v5"}, hashes(got))
	assert.Equal(t, int32(5), gate.calls)

	errorLogs := logs.FilterLevelExact(zapcore.ErrorLevel).All()
	require.Len(t, errorLogs, 1)
	assert.Equal(t, "v3", errorLogs[0].ContextMap()["video"])
	assert.Contains(t, errorLogs[0].ContextMap()["error"], "upstream 500")

	assert.Equal(t, 1, logs.FilterMessage("[3/5] Processing video").Len())
}

func TestCollectIsolatesPanics(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	builder := builderFunc(func(ctx context.Context, ref domain.VideoReference) (*domain.VideoStatSnapshot, error) {
		if ref.ID == "boom" {
			var m map[string]int
			m["x"] = 1
		}
		return echoBuilder(nil)(ctx, ref)
	})
	c := NewCollector(builder, nil, zap.New(core))

	got := c.Collect(context.Background(), refs("a", "boom", "b"))

	assert.Equal(t, []string{"a", "b"}, hashes(got))
	require.Equal(t, 1, logs.FilterLevelExact(zapcore.ErrorLevel).Len())
}

func TestCollectAllFailing(t *testing.T) {
	c := NewCollector(echoBuilder(map[string]error{"a": errors.New("x"), "b": errors.New("y")}), nil, zap.NewNop())

	got := c.Collect(context.Background(), refs("a", "b"))
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestCollectEmptyListing(t *testing.T) {
	gate := &countingGate{}
	c := NewCollector(echoBuilder(nil), gate, zap.NewNop())

	got := c.Collect(context.Background(), nil)
	assert.Empty(t, got)
	assert.Equal(t, int32(0), gate.calls)
}

func TestCollectStopsWhenGateFails(t *testing.T) {
	var built int32
	builder := builderFunc(func(ctx context.Context, ref domain.VideoReference) (*domain.VideoStatSnapshot, error) {
		atomic.AddInt32(&built, 1)
		return echoBuilder(nil)(ctx, ref)
	})
	c := NewCollector(builder, &countingGate{err: context.Canceled}, zap.NewNop())

	got := c.Collect(context.Background(), refs("a", "b"))
	assert.Empty(t, got)
	assert.Equal(t, int32(0), built)
}

func TestCollectNilSnapshotIsSkipped(t *testing.T) {
	builder := builderFunc(func(context.Context, domain.VideoReference) (*domain.VideoStatSnapshot, error) {
		return nil, nil
	})
	c := NewCollector(builder, nil, zap.NewNop())

	assert.Empty(t, c.Collect(context.Background(), refs("a")))
}

func ExampleCollector_Collect() {
	c := NewCollector(echoBuilder(map[string]error{"b": errors.New("down")}), nil, zap.NewNop())
	for _, s := range c.Collect(context.Background(), refs("a", "b", "c")) {
		fmt.Println(s.Hash, s.DurationBucket)
	}
	// Output:
	// a unknown
	// c unknown
}
