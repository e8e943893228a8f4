package eventlog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/xela07ax/quantumpay/internal/domain"
)

type failingStore struct{ calls int }

func (s *failingStore) Append(context.Context, domain.ConnectionEvent) error {
	s.calls++
	return errors.New("disk full")
}

func (s *failingStore) Recent(context.Context, int) ([]domain.ConnectionEvent, error) {
	return nil, errors.New("disk gone")
}

type recordingSink struct {
	name   string
	err    error
	events []domain.ConnectionEvent
}

func (s *recordingSink) Name() string { return s.name }

func (s *recordingSink) Emit(_ context.Context, e domain.ConnectionEvent) error {
	s.events = append(s.events, e)
	return s.err
}

func TestLogRecordIsBestEffort(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	store := &failingStore{}
	broken := &recordingSink{name: "broken", err: errors.New("redis down")}
	healthy := &recordingSink{name: "healthy"}
	m := NewMetrics(nil)

	l := NewLog(store, zap.New(core), WithSinks(broken, healthy), WithMetrics(m))
	l.Record(context.Background(), domain.ConnectionEvent{SessionID: "s1", Outcome: domain.OutcomeAttempt})

	if store.calls != 1 {
		t.Fatalf("store calls=%d want 1", store.calls)
	}
	// Упавший синк не мешает следующему
	if len(healthy.events) != 1 {
		t.Fatalf("healthy sink got %d events", len(healthy.events))
	}
	if logs.FilterMessage("event store append failed").Len() != 1 {
		t.Fatal("store failure must be logged")
	}
	if logs.FilterMessage("event sink failed").Len() != 1 {
		t.Fatal("sink failure must be logged")
	}
	if got := testutil.ToFloat64(m.WriteErrors.WithLabelValues("store")); got != 1 {
		t.Fatalf("store write errors=%v want 1", got)
	}
	if got := testutil.ToFloat64(m.WriteErrors.WithLabelValues("broken")); got != 1 {
		t.Fatalf("sink write errors=%v want 1", got)
	}
}

func TestLogRecordStampsUTCAndRoundTrips(t *testing.T) {
	r, _ := NewRingStore(10)
	l := NewLog(r, zap.NewNop())
	local := time.Date(2026, 10, 19, 15, 0, 0, 0, time.FixedZone("MSK", 3*3600))
	l.now = func() time.Time { return local }

	e := domain.ConnectionEvent{SessionID: "s1", BankID: "chase", Outcome: domain.OutcomeAttempt}
	l.Record(context.Background(), e)

	got, err := l.Recent(context.Background(), 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("len=%d", len(got))
	}
	if got[0].Timestamp.Location() != time.UTC || !got[0].Timestamp.Equal(local) {
		t.Fatalf("timestamp=%v", got[0].Timestamp)
	}
	if got[0].SessionID != "s1" || got[0].BankID != "chase" || got[0].Outcome != domain.OutcomeAttempt {
		t.Fatalf("fields changed: %+v", got[0])
	}
}

func TestLogRecordSurvivesCanceledContext(t *testing.T) {
	sink := &recordingSink{name: "ctx"}
	r, _ := NewRingStore(10)
	l := NewLog(r, zap.NewNop(), WithSinks(sink))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	l.Record(ctx, domain.ConnectionEvent{SessionID: "gone", Outcome: domain.OutcomeError})

	if r.Len() != 1 || len(sink.events) != 1 {
		t.Fatal("event must be recorded even after the request context ended")
	}
}

func TestLogRecentWrapsError(t *testing.T) {
	l := NewLog(&failingStore{}, zap.NewNop())
	if _, err := l.Recent(context.Background(), 5); err == nil {
		t.Fatal("expected error")
	}
}
