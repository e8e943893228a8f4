package eventlog

import (
	"context"

	"go.uber.org/zap"

	"github.com/xela07ax/quantumpay/internal/domain"
)

// ConsoleSink дублирует события в операционный лог (видно в kubectl logs / docker logs).
type ConsoleSink struct {
	logger *zap.Logger
}

func NewConsoleSink(logger *zap.Logger) *ConsoleSink {
	return &ConsoleSink{logger: logger.Named("events")}
}

func (s *ConsoleSink) Name() string { return "console" }

func (s *ConsoleSink) Emit(_ context.Context, e domain.ConnectionEvent) error {
	fields := []zap.Field{
		zap.String("session_id", e.SessionID),
		zap.String("bank_id", e.BankID),
		zap.String("outcome", string(e.Outcome)),
		zap.Time("event_ts", e.Timestamp),
	}
	if d := e.Detail; d != nil {
		fields = append(fields, zap.Int64("duration_ms", d.DurationMs))
		if d.Error != "" {
			fields = append(fields, zap.String("error_kind", string(d.Error)), zap.String("message", d.Message))
		}
		if d.AccountID != "" {
			fields = append(fields, zap.String("account_id", d.AccountID))
		}
	}

	if e.Outcome == domain.OutcomeError {
		s.logger.Warn("connection event", fields...)
	} else {
		s.logger.Info("connection event", fields...)
	}
	return nil
}
