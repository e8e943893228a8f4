package engine

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/xela07ax/quantumpay/internal/domain"
)

// BankFinder: то, что симулятору нужно от реестра.
type BankFinder interface {
	Find(id string) (domain.Bank, bool)
}

// Recorder: то, что симулятору нужно от журнала событий. Запись best-effort, ошибок не возвращает.
type Recorder interface {
	Record(ctx context.Context, event domain.ConnectionEvent)
}

// Result: успешное подключение.
type Result struct {
	SessionID string
	Account   domain.Account
	Duration  time.Duration
}

const unknownBankLabel = "unknown"

// Simulator: таблица диспетчеризации по FailMode банка. Ретраев нет: каждый отказ финальный.
type Simulator struct {
	banks        BankFinder
	recorder     Recorder
	gen          Generator
	metrics      *Metrics
	logger       *zap.Logger
	timeoutDelay time.Duration
	now          func() time.Time
}

func NewSimulator(banks BankFinder, recorder Recorder, gen Generator, timeoutDelay time.Duration, metrics *Metrics, logger *zap.Logger) *Simulator {
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	return &Simulator{
		banks:        banks,
		recorder:     recorder,
		gen:          gen,
		metrics:      metrics,
		logger:       logger.Named("simulator"),
		timeoutDelay: timeoutDelay,
		now:          time.Now,
	}
}

// AttemptConnection пишет событие attempt и ровно одно терминальное событие с тем же sessionId.
// Неуспех возвращается как *domain.ConnectError.
func (s *Simulator) AttemptConnection(ctx context.Context, bankID string) (*Result, error) {
	start := s.now()
	sessionID := s.gen.SessionID()
	outcome := string(domain.OutcomeSuccess)
	// Метка метрик: id из запроса попадает в нее только если банк есть в реестре
	label := unknownBankLabel

	log := s.logger.With(
		zap.String("session_id", sessionID),
		zap.String("bank_id", bankID),
		zap.String("trace_id", ExtractTraceID(ctx)),
	)

	defer func() {
		s.metrics.AttemptsTotal.WithLabelValues(label, outcome).Inc()
		s.metrics.AttemptDuration.WithLabelValues(label, outcome).Observe(s.now().Sub(start).Seconds())
	}()

	s.recorder.Record(ctx, domain.ConnectionEvent{
		SessionID: sessionID,
		BankID:    bankID,
		Timestamp: start,
		Outcome:   domain.OutcomeAttempt,
	})

	fail := func(kind domain.ErrorKind, msg string, cause error) error {
		outcome = string(kind)
		elapsed := s.now().Sub(start)
		s.recorder.Record(ctx, domain.ConnectionEvent{
			SessionID: sessionID,
			BankID:    bankID,
			Timestamp: s.now(),
			Outcome:   domain.OutcomeError,
			Detail: &domain.EventDetail{
				Error:      kind,
				Message:    msg,
				DurationMs: elapsed.Milliseconds(),
			},
		})
		log.Warn("connection attempt failed", zap.String("kind", string(kind)), zap.Duration("elapsed", elapsed))
		return &domain.ConnectError{Kind: kind, Message: msg, SessionID: sessionID, Cause: cause}
	}

	bank, ok := s.banks.Find(bankID)
	if !ok {
		return nil, fail(domain.KindBankNotFound, fmt.Sprintf("Unknown bank %q.", bankID), domain.ErrBankNotFound)
	}
	label = bank.ID

	switch bank.FailMode {
	case domain.FailTimeout:
		if err := s.wait(ctx); err != nil {
			// Клиент ушел раньше: терминальное событие все равно обязано быть
			return nil, fail(domain.KindTimeout, fmt.Sprintf("%s did not respond; client disconnected while waiting.", bank.Name), err)
		}
		return nil, fail(domain.KindTimeout, fmt.Sprintf("%s did not respond in time.", bank.Name), nil)

	case domain.FailServerError:
		return nil, fail(domain.KindUpstream500, fmt.Sprintf("%s connection failed. Please contact your administrator.", bank.Name), nil)

	case domain.FailNone:
		account := domain.Account{
			AccountID:   s.gen.AccountID(),
			Institution: bank.Name,
			Mask:        s.gen.Mask(),
			Balances:    s.gen.Balances(),
		}
		elapsed := s.now().Sub(start)
		s.recorder.Record(ctx, domain.ConnectionEvent{
			SessionID: sessionID,
			BankID:    bankID,
			Timestamp: s.now(),
			Outcome:   domain.OutcomeSuccess,
			Detail: &domain.EventDetail{
				AccountID:   account.AccountID,
				Institution: account.Institution,
				DurationMs:  elapsed.Milliseconds(),
			},
		})
		log.Info("connection attempt succeeded", zap.String("account_id", account.AccountID))
		return &Result{SessionID: sessionID, Account: account, Duration: elapsed}, nil

	default:
		return nil, fail(domain.KindServerError, fmt.Sprintf("unsupported failure mode %q", bank.FailMode), nil)
	}
}

// wait: отменяемая задержка таймаут-ветки, привязанная к жизни запроса.
func (s *Simulator) wait(ctx context.Context) error {
	s.metrics.PendingTimeouts.Inc()
	defer s.metrics.PendingTimeouts.Dec()

	t := time.NewTimer(s.timeoutDelay)
	defer t.Stop()

	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
