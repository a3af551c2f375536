package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kapu/rutube-stats-go/internal/app"
	"github.com/kapu/rutube-stats-go/internal/config"
	"github.com/kapu/rutube-stats-go/internal/util"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}

	// Initialize logger
	logger, err := util.NewLogger(cfg.Logging.Level, cfg.Logging.File)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		return 1
	}
	defer logger.Sync()

	logger.Info("Rutube stats collector starting...",
		zap.Int64("channel_id", cfg.Collector.ChannelID),
		zap.Int("page_size", cfg.Collector.PageSize),
		zap.Duration("delay", cfg.Collector.Delay),
		zap.String("output_dir", cfg.Collector.OutputDir),
		zap.String("log_level", cfg.Logging.Level),
	)

	// Cancel the run on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	buildCtx, buildCancel := context.WithTimeout(ctx, 30*time.Second)
	container, err := app.Build(buildCtx, cfg, logger)
	buildCancel()
	if err != nil {
		logger.Error("Failed to assemble application services", zap.Error(err))
		return 1
	}
	defer container.Close()

	summary, err := container.Pipeline().Run(ctx)
	if err != nil {
		logger.Error("Run failed", zap.Error(err))
		return 1
	}

	if summary.Collected == 0 {
		logger.Info("Finished without data", zap.String("run_id", summary.RunID))
		return 0
	}

	logger.Info("Finished",
		zap.String("run_id", summary.RunID),
		zap.Int("rows", summary.Collected),
		zap.String("csv", summary.CSVPath),
		zap.String("json", summary.JSONPath),
	)
	return 0
}
