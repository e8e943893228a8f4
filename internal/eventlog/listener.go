package eventlog

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/xela07ax/quantumpay/internal/domain"
)

// ListenLive: «живучая» подписка на live-канал событий.
// Переподключается после обрыва, пока не отменен ctx.
func ListenLive(
	ctx context.Context,
	rdb *redis.Client,
	logger *zap.Logger,
	channel string,
	onEvent func(domain.ConnectionEvent),
) {
	for {
		pubsub := rdb.Subscribe(ctx, channel)

		// Проверка успешности подписки
		if _, err := pubsub.Receive(ctx); err != nil {
			pubsub.Close()
			if ctx.Err() != nil {
				return
			}
			logger.Error("failed to subscribe", zap.String("chan", channel), zap.Error(err))
			if !sleepCtx(ctx, 5*time.Second) {
				return
			}
			continue
		}
		logger.Info("subscribed to live events", zap.String("chan", channel))

		ch := pubsub.Channel()

	loop:
		for {
			select {
			case <-ctx.Done():
				pubsub.Close()
				return
			case msg, ok := <-ch:
				if !ok {
					break loop // Канал закрыт, идем на переподключение
				}
				e, err := DecodeLive(msg.Payload)
				if err != nil {
					logger.Error("invalid live event", zap.String("payload", msg.Payload), zap.Error(err))
					continue
				}
				onEvent(e)
			}
		}

		pubsub.Close()
		if !sleepCtx(ctx, time.Second) {
			return
		}
	}
}

// DecodeLive разбирает сообщение live-канала.
func DecodeLive(payload string) (domain.ConnectionEvent, error) {
	var e domain.ConnectionEvent
	if err := json.Unmarshal([]byte(payload), &e); err != nil {
		return e, fmt.Errorf("eventlog: decode live event: %w", err)
	}
	if e.Outcome == "" {
		return e, fmt.Errorf("eventlog: live event without outcome")
	}
	return e, nil
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
