package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/kapu/rutube-stats-go/internal/config"
	"github.com/kapu/rutube-stats-go/internal/domain"
	"github.com/kapu/rutube-stats-go/internal/service/database"
	"github.com/kapu/rutube-stats-go/internal/service/stats"
	"github.com/kapu/rutube-stats-go/internal/util"
)

// CLI flags
var (
	inputFile = flag.String("file", "", "JSON export written by the collector (rutubedata_*.json)")
	dryRun    = flag.Bool("dry-run", false, "Validate the file without writing to the database")
	migrate   = flag.Bool("migrate", false, "Create the stats table before importing")
)

// Loads a JSON export into the stats table, for runs whose database insert
// failed or was not configured.
func main() {
	flag.Parse()
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}

	logger, err := util.NewLogger(cfg.Logging.Level, cfg.Logging.File)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		return 1
	}
	defer logger.Sync()

	if *inputFile == "" {
		logger.Error("-file is required")
		return 1
	}

	snapshots, err := loadExport(*inputFile)
	if err != nil {
		logger.Error("Failed to load export", zap.String("file", *inputFile), zap.Error(err))
		return 1
	}
	logger.Info("Export loaded", zap.String("file", *inputFile), zap.Int("rows", len(snapshots)))

	if *dryRun {
		logger.Info("Dry run, nothing written")
		return 0
	}

	if !cfg.Database.Enabled() {
		logger.Error("No database DSN configured (NEON_DSN or DATABASE_URL)")
		return 1
	}

	dbSvc, err := database.NewDatabaseService(cfg.Database, logger)
	if err != nil {
		logger.Error("Failed to connect to database", zap.Error(err))
		return 1
	}
	defer dbSvc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	repo := stats.NewVideoStatsRepository(dbSvc.GetDB(), dbSvc.Dialect(), logger)
	inserted, err := importSnapshots(ctx, repo, snapshots, *migrate || cfg.Database.AutoMigrate)
	if err != nil {
		logger.Error("Import failed", zap.Error(err))
		return 1
	}

	logger.Info("Import completed", zap.Int("rows", inserted))
	return 0
}

func loadExport(path string) ([]*domain.VideoStatSnapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var snapshots []*domain.VideoStatSnapshot
	if err := json.Unmarshal(data, &snapshots); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}

	for i, s := range snapshots {
		if s == nil || s.Hash == "" {
			return nil, fmt.Errorf("row %d has no hash", i+1)
		}
	}
	return snapshots, nil
}

func importSnapshots(ctx context.Context, repo *stats.VideoStatsRepository, snapshots []*domain.VideoStatSnapshot, ensureSchema bool) (int, error) {
	if ensureSchema {
		if err := repo.EnsureSchema(ctx); err != nil {
			return 0, err
		}
	}
	return repo.InsertBatch(ctx, snapshots)
}
