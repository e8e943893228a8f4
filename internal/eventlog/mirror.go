package eventlog

/*
Mirror: асинхронное зеркало журнала в PostgreSQL.

- Неблокирующий Emit: событие кладется в канал, запрос не ждет БД.
- Батчинг: запись пачками по таймеру или при достижении batchSize.
- Drain на Stop: канал закрывается, воркер вычитывает остатки и делает финальный flush.
- Flush ретраится с экспоненциальной задержкой; после исчерпания попыток пачка
  пишется в лог и отбрасывается: основной журнал от этого не страдает.
*/

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/avast/retry-go/v5"
	"go.uber.org/zap"

	"github.com/xela07ax/quantumpay/internal/domain"
)

// BatchWriter определяет, куда физически пишется зеркало.
type BatchWriter interface {
	WriteBatch(ctx context.Context, events []domain.ConnectionEvent) error
}

const batchSize = 100

type Mirror struct {
	ch            chan domain.ConnectionEvent
	repo          BatchWriter
	logger        *zap.Logger
	metrics       *Metrics
	flushInterval time.Duration
	attempts      uint
	wg            sync.WaitGroup

	// Emit отправляет под RLock, Stop закрывает канал под Lock
	mu     sync.RWMutex
	closed bool
}

func NewMirror(repo BatchWriter, logger *zap.Logger, bufferSize int, flushInterval time.Duration, metrics *Metrics) *Mirror {
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	if bufferSize <= 0 {
		bufferSize = 1000
	}
	if flushInterval <= 0 {
		flushInterval = 500 * time.Millisecond
	}
	return &Mirror{
		ch:            make(chan domain.ConnectionEvent, bufferSize),
		repo:          repo,
		logger:        logger.With(zap.String("mod", "mirror")),
		metrics:       metrics,
		flushInterval: flushInterval,
		attempts:      3,
	}
}

func (m *Mirror) Name() string { return "postgres" }

func (m *Mirror) Start() {
	m.wg.Add(1)
	go m.worker()
}

// Stop «запирает» вход в канал и ждет, пока воркер всё допишет.
func (m *Mirror) Stop() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	m.logger.Info("stopping mirror: closing channel and flushing buffer...")
	close(m.ch)
	m.mu.Unlock()

	m.wg.Wait()
	m.logger.Info("mirror stopped gracefully")
}

// Emit никогда не блокирует: при переполнении событие сбрасывается (load shedding).
func (m *Mirror) Emit(_ context.Context, e domain.ConnectionEvent) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return fmt.Errorf("mirror: stopped, event dropped")
	}

	select {
	case m.ch <- e:
		m.metrics.MirrorBufferFill.Set(float64(len(m.ch)))
		return nil
	default:
		return fmt.Errorf("mirror: buffer overflow, event %s/%s dropped", e.SessionID, e.Outcome)
	}
}

func (m *Mirror) worker() {
	defer m.wg.Done()

	batch := make([]domain.ConnectionEvent, 0, batchSize)
	ticker := time.NewTicker(m.flushInterval)
	defer ticker.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}
		// Background: контекст запроса к этому моменту давно закрыт
		if err := m.writeWithRetry(context.Background(), batch); err != nil {
			m.metrics.WriteErrors.WithLabelValues(m.Name()).Add(float64(len(batch)))
			m.logger.Error("mirror flush failed", zap.Int("events", len(batch)), zap.Error(err))
		}
		batch = batch[:0]
		m.metrics.MirrorBufferFill.Set(float64(len(m.ch)))
	}

	for {
		select {
		case e, ok := <-m.ch:
			if !ok {
				// Канал закрыт в Stop(): остатки уже вычитаны, делаем финальный сброс
				flush()
				m.logger.Info("mirror worker finished")
				return
			}
			batch = append(batch, e)
			if len(batch) >= batchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		}
	}
}

func (m *Mirror) writeWithRetry(ctx context.Context, batch []domain.ConnectionEvent) error {
	// Копия: batch переиспользуется воркером после flush
	events := make([]domain.ConnectionEvent, len(batch))
	copy(events, batch)

	r := retry.New(
		retry.Context(ctx),
		retry.Attempts(m.attempts),
		retry.DelayType(retry.BackOffDelay),
	)
	return r.Do(func() error {
		wCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return m.repo.WriteBatch(wCtx, events)
	})
}
