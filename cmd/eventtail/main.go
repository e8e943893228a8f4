package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/xela07ax/quantumpay/internal/domain"
	"github.com/xela07ax/quantumpay/internal/eventlog"
	"github.com/xela07ax/quantumpay/internal/infra"
)

// eventtail печатает события подключения из live-канала Redis по мере их появления.
func main() {
	configDir := flag.String("config", "", "directory with config.yaml (default: . and ./configs)")
	bankID := flag.String("bank", "", "follow a single bank channel instead of the whole feed")
	flag.Parse()

	var paths []string
	if *configDir != "" {
		paths = append(paths, *configDir)
	}
	cfg, err := infra.LoadConfig(paths...)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if cfg.Redis.Addr == "" {
		log.Fatal("redis.addr is required (REDIS_ADDR)")
	}
	logger, err := infra.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync()

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	channel := infra.RedisChanLiveEvents
	if *bankID != "" {
		channel = infra.BankChannel(*bankID)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tail := logger.Named("tail")
	eventlog.ListenLive(ctx, rdb, logger, channel, func(e domain.ConnectionEvent) {
		fields := []zap.Field{
			zap.String("session_id", e.SessionID),
			zap.String("bank_id", e.BankID),
			zap.String("outcome", string(e.Outcome)),
			zap.Time("at", e.Timestamp),
		}
		if d := e.Detail; d != nil {
			fields = append(fields,
				zap.String("error", string(d.Error)),
				zap.String("message", d.Message),
				zap.String("account_id", d.AccountID),
				zap.Int64("duration_ms", d.DurationMs),
			)
		}
		tail.Info("event", fields...)
	})
}
