package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/kapu/rutube-stats-go/internal/config"
	"github.com/kapu/rutube-stats-go/internal/constants"
	"github.com/kapu/rutube-stats-go/internal/domain"
	"github.com/kapu/rutube-stats-go/pkg/errors"
)

// CacheService mirrors the latest snapshot of every collected video into
// Redis so other tools can read it without querying the stats table.
type CacheService struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewCacheService(cfg config.RedisConfig, logger *zap.Logger) (*CacheService, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		MaxRetries:   1,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     2,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.NewStorageError("failed to connect to Redis", "redis", "ping", err)
	}

	logger.Info("Redis connected",
		zap.String("addr", cfg.Addr),
		zap.Int("db", cfg.DB),
	)

	return &CacheService{
		client: client,
		ttl:    cfg.SnapshotTTL,
		logger: logger,
	}, nil
}

func SnapshotKey(hash string) string {
	return constants.CacheKeys.SnapshotPrefix + hash
}

func ChannelKey(channelID int64) string {
	return constants.CacheKeys.ChannelPrefix + strconv.FormatInt(channelID, 10)
}

// MirrorSnapshots stores each snapshot under its video key and records the
// hashes in the channel's set, in one pipeline.
func (c *CacheService) MirrorSnapshots(ctx context.Context, channelID int64, batch []*domain.VideoStatSnapshot) error {
	if len(batch) == 0 {
		return nil
	}

	hashes := make([]any, 0, len(batch))
	payloads := make([][]byte, len(batch))
	for i, s := range batch {
		data, err := json.Marshal(s)
		if err != nil {
			return errors.NewStorageError(fmt.Sprintf("failed to marshal snapshot %s", s.Hash), "redis", "set", err)
		}
		payloads[i] = data
		hashes = append(hashes, s.Hash)
	}

	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, s := range batch {
			pipe.Set(ctx, SnapshotKey(s.Hash), payloads[i], c.ttl)
		}
		pipe.SAdd(ctx, ChannelKey(channelID), hashes...)
		return nil
	})
	if err != nil {
		c.logger.Error("Snapshot mirror failed", zap.Int64("channel_id", channelID), zap.Error(err))
		return errors.NewStorageError("snapshot mirror failed", "redis", "pipeline", err)
	}

	return nil
}

// GetSnapshot loads a mirrored snapshot as raw JSON fields; found is false
// when the key expired or was never written.
func (c *CacheService) GetSnapshot(ctx context.Context, hash string) (map[string]any, bool, error) {
	value, err := c.client.Get(ctx, SnapshotKey(hash)).Result()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.NewStorageError("get failed", "redis", "get", err)
	}

	var doc map[string]any
	if err := json.Unmarshal([]byte(value), &doc); err != nil {
		return nil, false, errors.NewStorageError("unmarshal failed", "redis", "get", err)
	}
	return doc, true, nil
}

func (c *CacheService) ChannelVideos(ctx context.Context, channelID int64) ([]string, error) {
	members, err := c.client.SMembers(ctx, ChannelKey(channelID)).Result()
	if err != nil {
		return nil, errors.NewStorageError("smembers failed", "redis", "smembers", err)
	}
	return members, nil
}

func (c *CacheService) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}
