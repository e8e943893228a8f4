package eventlog

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"

	"github.com/xela07ax/quantumpay/internal/domain"
	"github.com/xela07ax/quantumpay/internal/infra"
)

// Publisher: часть redis.Client, нужная синку.
type Publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// BankLookup: реестр банков. Персональный канал заводится только для известного банка.
type BankLookup interface {
	Find(id string) (domain.Bank, bool)
}

// RedisSink публикует события в live-канал. Если Redis лежит, предохранитель
// размыкается и запросы перестают ждать сетевых таймаутов.
type RedisSink struct {
	rdb     Publisher
	banks   BankLookup
	cb      *gobreaker.CircuitBreaker
	timeout time.Duration
}

func NewRedisSink(rdb Publisher, banks BankLookup) *RedisSink {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "redis-live-sink",
		MaxRequests: 1,
		Interval:    30 * time.Second,
		Timeout:     10 * time.Second, // Через сколько пробуем снова
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	})

	return &RedisSink{
		rdb:     rdb,
		banks:   banks,
		cb:      cb,
		timeout: 250 * time.Millisecond,
	}
}

func (s *RedisSink) Name() string { return "redis" }

func (s *RedisSink) Emit(ctx context.Context, e domain.ConnectionEvent) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("redis sink: marshal: %w", err)
	}

	_, err = s.cb.Execute(func() (interface{}, error) {
		pCtx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()

		if err := s.rdb.Publish(pCtx, infra.RedisChanLiveEvents, payload).Err(); err != nil {
			return nil, err
		}
		if s.knownBank(e.BankID) {
			return nil, s.rdb.Publish(pCtx, infra.BankChannel(e.BankID), payload).Err()
		}
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("redis sink: publish: %w", err)
	}
	return nil
}

func (s *RedisSink) knownBank(id string) bool {
	if id == "" || s.banks == nil {
		return false
	}
	_, ok := s.banks.Find(id)
	return ok
}

// State: текущее состояние предохранителя (для тестов и /health).
func (s *RedisSink) State() gobreaker.State {
	return s.cb.State()
}
