package cache

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kapu/rutube-stats-go/internal/config"
	"github.com/kapu/rutube-stats-go/internal/domain"
	"github.com/kapu/rutube-stats-go/pkg/errors"
)

func newTestCache(t *testing.T, ttl time.Duration) (*CacheService, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	svc, err := NewCacheService(config.RedisConfig{Addr: mr.Addr(), SnapshotTTL: ttl}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })
	return svc, mr
}

func testBatch() []*domain.VideoStatSnapshot {
	taken := time.Date(2026, 3, 5, 9, 0, 0, 0, time.UTC)
	return []*domain.VideoStatSnapshot{
		domain.NewVideoStatSnapshot(domain.SnapshotInput{Hash: "a", URL: "https://rutube.ru/video/a/", Taken: taken, Views: 1000, Comments: domain.CommentsPresent(10)}),
		domain.NewVideoStatSnapshot(domain.SnapshotInput{Hash: "b", URL: "https://rutube.ru/video/b/", Taken: taken}),
	}
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "rutube:snapshot:abc123", SnapshotKey("abc123"))
	assert.Equal(t, "rutube:channel:8420540", ChannelKey(8420540))
}

func TestMirrorSnapshots(t *testing.T) {
	svc, mr := newTestCache(t, time.Hour)
	ctx := context.Background()

	require.NoError(t, svc.MirrorSnapshots(ctx, 8420540, testBatch()))

	for _, hash := range []string{"a", "b"} {
		assert.True(t, mr.Exists(SnapshotKey(hash)))
		assert.Equal(t, time.Hour, mr.TTL(SnapshotKey(hash)))
	}
	members, err := mr.SMembers(ChannelKey(8420540))
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "b"}, members)

	doc, found, err := svc.GetSnapshot(ctx, "a")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "a", doc["hash"])
	assert.Equal(t, "2026-03-05T09:00:00+00:00", doc["snapshot_ts"])
	assert.Equal(t, float64(10), doc["comments_count"])

	videos, err := svc.ChannelVideos(ctx, 8420540)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "b"}, videos)
}

func TestMirrorSnapshotsKeepsLatestAndAccumulatesChannel(t *testing.T) {
	svc, mr := newTestCache(t, time.Hour)
	ctx := context.Background()

	batch := testBatch()
	require.NoError(t, svc.MirrorSnapshots(ctx, 1, batch[:1]))

	later := domain.NewVideoStatSnapshot(domain.SnapshotInput{Hash: "a", Taken: time.Date(2026, 3, 6, 9, 0, 0, 0, time.UTC), Views: 2000})
	require.NoError(t, svc.MirrorSnapshots(ctx, 1, []*domain.VideoStatSnapshot{later, batch[1]}))

	doc, found, err := svc.GetSnapshot(ctx, "a")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, float64(2000), doc["views"])

	members, err := mr.SMembers(ChannelKey(1))
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "b"}, members)
}

func TestGetSnapshotExpired(t *testing.T) {
	svc, mr := newTestCache(t, time.Hour)
	ctx := context.Background()

	require.NoError(t, svc.MirrorSnapshots(ctx, 1, testBatch()))
	mr.FastForward(2 * time.Hour)

	doc, found, err := svc.GetSnapshot(ctx, "a")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, doc)

	_, found, err = svc.GetSnapshot(ctx, "never-written")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestMirrorSnapshotsEmptyBatch(t *testing.T) {
	svc, mr := newTestCache(t, time.Hour)

	require.NoError(t, svc.MirrorSnapshots(context.Background(), 1, nil))
	assert.Empty(t, mr.Keys())
}

func TestMirrorSnapshotsServerGone(t *testing.T) {
	svc, mr := newTestCache(t, time.Hour)
	mr.Close()

	err := svc.MirrorSnapshots(context.Background(), 1, testBatch())
	require.Error(t, err)

	var storageErr *errors.StorageError
	require.ErrorAs(t, err, &storageErr)
	assert.Equal(t, "pipeline", storageErr.Operation)
}

func TestNewCacheServiceUnreachable(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := listener.Addr().String()
	require.NoError(t, listener.Close())

	_, err = NewCacheService(config.RedisConfig{Addr: addr, SnapshotTTL: time.Hour}, zap.NewNop())
	require.Error(t, err)

	var storageErr *errors.StorageError
	require.ErrorAs(t, err, &storageErr)
	assert.Equal(t, "redis", storageErr.Backend)
	assert.Equal(t, "ping", storageErr.Operation)
}
