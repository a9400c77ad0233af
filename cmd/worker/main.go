package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/Shrikant133/ElevAIte/internal/config"
	"github.com/Shrikant133/ElevAIte/internal/notify"
	"github.com/Shrikant133/ElevAIte/internal/recommend"
	"github.com/Shrikant133/ElevAIte/internal/rules"
	"github.com/Shrikant133/ElevAIte/internal/scheduler"
	"github.com/Shrikant133/ElevAIte/internal/scoring"
	"github.com/Shrikant133/ElevAIte/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	log := newLogger(cfg.LogLevel)

	if dir := filepath.Dir(cfg.DatabasePath); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			log.Error("create data directory", "path", dir, "error", err)
			os.Exit(1)
		}
	}

	store, err := storage.NewSQLite(cfg.DatabasePath)
	if err != nil {
		log.Error("open database", "path", cfg.DatabasePath, "error", err)
		os.Exit(1)
	}
	defer func() { _ = store.Close() }()

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer func() { _ = rdb.Close() }()
	queue := notify.NewRedisQueue(rdb)

	engine := rules.NewEngine(store, queue, log)
	recommender := recommend.New(store, scoring.NewScorer(), log)

	sched := scheduler.New(store, engine, recommender, queue, log,
		cfg.RulesIntervalHours, cfg.RecommendationLimit, cfg.ScoreStalenessDays)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log.Info("starting worker")

	if err := sched.Start(ctx); err != nil {
		log.Error("start scheduler", "error", err)
		os.Exit(1)
	}

	<-ctx.Done()
	sched.Stop()

	log.Info("worker stopped")
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
