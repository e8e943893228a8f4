package eventlog

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/xela07ax/quantumpay/internal/domain"
)

// Sink: дополнительный получатель событий (консоль, Redis, зеркало в БД).
type Sink interface {
	Name() string
	Emit(ctx context.Context, event domain.ConnectionEvent) error
}

// Log пишет журнал событий в одно основное хранилище плюс best-effort синки.
// Ошибки записи логируются и никогда не возвращаются вызывающему.
type Log struct {
	store   Store
	sinks   []Sink
	logger  *zap.Logger
	metrics *Metrics
	now     func() time.Time
}

type Option func(*Log)

func WithSinks(sinks ...Sink) Option {
	return func(l *Log) {
		l.sinks = append(l.sinks, sinks...)
	}
}

func WithMetrics(m *Metrics) Option {
	return func(l *Log) {
		l.metrics = m
	}
}

func NewLog(store Store, logger *zap.Logger, opts ...Option) *Log {
	l := &Log{
		store:  store,
		logger: logger.With(zap.String("mod", "eventlog")),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.metrics == nil {
		l.metrics = NewMetrics(nil)
	}
	return l
}

// Record пишет событие. Таймстемп проставляется, если не задан, и приводится к UTC.
func (l *Log) Record(ctx context.Context, event domain.ConnectionEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = l.now()
	}
	event.Timestamp = event.Timestamp.UTC()

	// Запрос мог уже завершиться, но событие все равно должно дойти до журнала
	ctx = context.WithoutCancel(ctx)

	if err := l.store.Append(ctx, event); err != nil {
		l.metrics.WriteErrors.WithLabelValues("store").Inc()
		l.logger.Error("event store append failed",
			zap.String("session_id", event.SessionID),
			zap.String("outcome", string(event.Outcome)),
			zap.Error(err),
		)
	}
	l.metrics.RecordedTotal.WithLabelValues(string(event.Outcome)).Inc()

	for _, s := range l.sinks {
		if err := s.Emit(ctx, event); err != nil {
			l.metrics.WriteErrors.WithLabelValues(s.Name()).Inc()
			l.logger.Warn("event sink failed",
				zap.String("sink", s.Name()),
				zap.String("session_id", event.SessionID),
				zap.Error(err),
			)
		}
	}
}

// Recent: самые свежие события первыми, не больше limit.
func (l *Log) Recent(ctx context.Context, limit int) ([]domain.ConnectionEvent, error) {
	events, err := l.store.Recent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("eventlog: recent: %w", err)
	}
	return events, nil
}
