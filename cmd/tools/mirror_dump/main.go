package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/kapu/rutube-stats-go/internal/config"
	"github.com/kapu/rutube-stats-go/internal/service/cache"
)

var outputFile = flag.String("out", "data/mirror_dump.json", "Where to write the mirrored snapshots")

type mirrorReader interface {
	ChannelVideos(ctx context.Context, channelID int64) ([]string, error)
	GetSnapshot(ctx context.Context, hash string) (map[string]any, bool, error)
}

// Dumps the latest mirrored snapshot of every video of the configured channel.
func main() {
	flag.Parse()

	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}
	if !cfg.Redis.Enabled() {
		logger.Fatal("REDIS_ADDR is not set")
	}

	cacheSvc, err := cache.NewCacheService(cfg.Redis, logger)
	if err != nil {
		logger.Fatal("failed to connect to Redis", zap.Error(err))
	}
	defer cacheSvc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	docs, missing, err := collectMirror(ctx, cacheSvc, cfg.Collector.ChannelID)
	if err != nil {
		logger.Fatal("failed to read mirror", zap.Error(err))
	}
	if missing > 0 {
		logger.Warn("some mirrored snapshots have expired", zap.Int("missing", missing))
	}

	if err := writeDump(*outputFile, docs); err != nil {
		logger.Fatal("failed to write dump", zap.Error(err))
	}

	logger.Info("Mirror dump completed", zap.Int("count", len(docs)), zap.String("output", *outputFile))
}

// collectMirror returns the snapshots sorted by hash and the number of
// channel members whose snapshot key has expired.
func collectMirror(ctx context.Context, reader mirrorReader, channelID int64) ([]map[string]any, int, error) {
	hashes, err := reader.ChannelVideos(ctx, channelID)
	if err != nil {
		return nil, 0, err
	}
	sort.Strings(hashes)

	docs := make([]map[string]any, 0, len(hashes))
	missing := 0
	for _, hash := range hashes {
		doc, found, err := reader.GetSnapshot(ctx, hash)
		if err != nil {
			return nil, 0, fmt.Errorf("snapshot %s: %w", hash, err)
		}
		if !found {
			missing++
			continue
		}
		docs = append(docs, doc)
	}
	return docs, missing, nil
}

func writeDump(path string, docs []map[string]any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(docs, "", "  ")
	if err != nil {
		return err
	}

	tmpFile := path + ".tmp"
	if err := os.WriteFile(tmpFile, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmpFile, path)
}
