// Command stocksync refreshes the price columns of a Notion stock database
// from Yahoo Finance daily history. It runs once and exits.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"stocksync/internal/config"
	"stocksync/internal/httpx"
	"stocksync/internal/logging"
	"stocksync/internal/provider/yahoo"
	"stocksync/internal/provider/yahooadapter"
	"stocksync/internal/record/notion"
	"stocksync/internal/record/notionstore"
	"stocksync/internal/syncer"
)

func main() {
	var configPath string
	var dryRun bool
	var skipNoData bool
	var logLevel string

	flag.StringVar(&configPath, "config", getenv("CONFIG_FILE", ""), "path to config.json or config.yaml (optional)")
	flag.BoolVar(&dryRun, "dry-run", false, "compute values without writing to Notion")
	flag.BoolVar(&skipNoData, "skip-no-data", false, "leave records untouched when no price data is found")
	flag.StringVar(&logLevel, "log-level", "", "debug, info, warn or error")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if dryRun {
		cfg.Run.DryRun = true
	}
	if skipNoData {
		cfg.Run.SkipNoData = true
	}
	if logLevel != "" {
		cfg.Run.LogLevel = logLevel
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := logging.New(logging.Config{
		Level:  cfg.Run.LogLevel,
		Format: cfg.Run.LogFormat,
		File:   cfg.Run.LogFile,
	})
	if err != nil {
		log.Fatalf("logging: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	httpClient := httpx.New(time.Duration(cfg.Run.RequestTimeoutSec)*time.Second, cfg.Yahoo.UserAgent)

	chartClient, err := yahoo.NewChartAPIClient(
		yahoo.WithBaseURL(cfg.Yahoo.BaseURL),
		yahoo.WithHTTPClient(httpClient),
	)
	if err != nil {
		log.Fatalf("yahoo client: %v", err)
	}
	fetcher := yahooadapter.New(yahooadapter.Config{
		Range:          cfg.Yahoo.Range,
		Interval:       cfg.Yahoo.Interval,
		MaxConcurrency: cfg.Yahoo.MaxConcurrency,
	}, chartClient, logger)

	notionClient, err := notion.NewNotionAPIClient(cfg.Notion.Token,
		notion.WithBaseURL(cfg.Notion.BaseURL),
		notion.WithVersion(cfg.Notion.Version),
		notion.WithHTTPClient(httpClient),
	)
	if err != nil {
		log.Fatalf("notion client: %v", err)
	}
	store := notionstore.New(notionstore.Config{
		DatabaseID:       cfg.Notion.DatabaseID,
		PageSize:         cfg.Notion.PageSize,
		TickerProperties: cfg.Notion.TickerProperties,
		Properties:       notionstore.Properties(cfg.Notion.Properties),
	}, notionClient, logger)

	s := syncer.New(store, fetcher, syncer.Options{
		DryRun:     cfg.Run.DryRun,
		SkipNoData: cfg.Run.SkipNoData,
	}, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, s, logger); err != nil {
		logger.Error("sync failed", zap.Error(err))
		_ = logger.Sync()
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, s *syncer.Syncer, logger *zap.Logger) error {
	rep, err := s.Run(ctx)
	if err != nil {
		return err
	}
	for _, o := range rep.FailedRecords() {
		logger.Warn("record not updated",
			zap.String("record", o.RecordID),
			zap.String("ticker", o.Ticker),
			zap.Error(o.Err),
		)
	}
	return nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
