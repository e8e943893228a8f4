package eventlog

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/xela07ax/quantumpay/internal/domain"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func sampleEvent(session string, outcome domain.Outcome, ts time.Time) domain.ConnectionEvent {
	e := domain.ConnectionEvent{
		SessionID: session,
		BankID:    "chase",
		Timestamp: ts.UTC(),
		Outcome:   outcome,
	}
	if outcome != domain.OutcomeAttempt {
		e.Detail = &domain.EventDetail{AccountID: "acc-" + session, Institution: "Chase", DurationMs: 12}
	}
	return e
}

func sameEvent(a, b domain.ConnectionEvent) bool {
	if a.SessionID != b.SessionID || a.BankID != b.BankID || a.Outcome != b.Outcome || a.Raw != b.Raw {
		return false
	}
	if !a.Timestamp.Equal(b.Timestamp) {
		return false
	}
	if (a.Detail == nil) != (b.Detail == nil) {
		return false
	}
	return a.Detail == nil || *a.Detail == *b.Detail
}

func TestFileStoreRoundTripMostRecentFirst(t *testing.T) {
	day := time.Date(2026, 10, 19, 12, 0, 0, 123456789, time.UTC)
	s, err := NewFileStore(t.TempDir(), WithClock(fixedClock(day)))
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	written := []domain.ConnectionEvent{
		sampleEvent("s1", domain.OutcomeAttempt, day),
		sampleEvent("s1", domain.OutcomeSuccess, day.Add(time.Millisecond)),
		sampleEvent("s2", domain.OutcomeAttempt, day.Add(2*time.Millisecond)),
	}
	for _, e := range written {
		if err := s.Append(ctx, e); err != nil {
			t.Fatalf("Append err=%v", err)
		}
	}

	got, err := s.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent err=%v", err)
	}
	if len(got) != len(written) {
		t.Fatalf("len=%d want %d", len(got), len(written))
	}
	for i := range got {
		want := written[len(written)-1-i]
		if !sameEvent(got[i], want) {
			t.Fatalf("event %d: got %+v want %+v", i, got[i], want)
		}
	}
}

func TestFileStoreLimit(t *testing.T) {
	day := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	s, _ := NewFileStore(t.TempDir(), WithClock(fixedClock(day)))
	ctx := context.Background()

	for i := 0; i < 25; i++ {
		_ = s.Append(ctx, sampleEvent("s", domain.OutcomeAttempt, day.Add(time.Duration(i)*time.Second)))
	}

	testCases := []struct {
		limit, want int
	}{
		{limit: 5, want: 5},
		{limit: 25, want: 25},
		{limit: 200, want: 25},
		{limit: 0, want: 0},
		{limit: -1, want: 0},
	}
	for _, tc := range testCases {
		got, err := s.Recent(ctx, tc.limit)
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != tc.want {
			t.Fatalf("limit=%d len=%d want %d", tc.limit, len(got), tc.want)
		}
		if tc.want > 0 && !got[0].Timestamp.Equal(day.Add(24*time.Second)) {
			t.Fatalf("limit=%d newest first violated: %v", tc.limit, got[0].Timestamp)
		}
	}
}

func TestFileStoreMalformedLinesBecomeRaw(t *testing.T) {
	day := time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC)
	s, _ := NewFileStore(t.TempDir(), WithClock(fixedClock(day)))
	ctx := context.Background()

	_ = s.Append(ctx, sampleEvent("s1", domain.OutcomeAttempt, day))

	f, err := os.OpenFile(s.PathFor(day), os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatal(err)
	}
	// Битая строка и строка старого формата без outcome
	_, _ = f.WriteString("not json at all\n")
	_, _ = f.WriteString(`{"bank":"partnerbank","error":"500_INTERNAL_SERVER_ERROR"}` + "\n")
	f.Close()

	got, err := s.Recent(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Fatalf("len=%d want 3 (malformed lines must not be dropped)", len(got))
	}
	if got[0].Outcome != domain.OutcomeRaw || got[0].Raw != `{"bank":"partnerbank","error":"500_INTERNAL_SERVER_ERROR"}` {
		t.Fatalf("legacy line: %+v", got[0])
	}
	if got[1].Outcome != domain.OutcomeRaw || got[1].Raw != "not json at all" {
		t.Fatalf("garbage line: %+v", got[1])
	}
	if got[2].SessionID != "s1" {
		t.Fatalf("valid line: %+v", got[2])
	}
}

func TestFileStoreSkipsUnterminatedTail(t *testing.T) {
	day := time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)
	s, _ := NewFileStore(t.TempDir(), WithClock(fixedClock(day)))
	ctx := context.Background()

	_ = s.Append(ctx, sampleEvent("s1", domain.OutcomeAttempt, day))

	f, err := os.OpenFile(s.PathFor(day), os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatal(err)
	}
	// Другой писатель успел вывести только половину строки
	_, _ = f.WriteString(`{"sessionId":"s2","bankId":"ch`)
	f.Close()

	got, err := s.Recent(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].SessionID != "s1" {
		t.Fatalf("got %+v want only s1", got)
	}
}

func TestFileStoreRecentDuringAppend(t *testing.T) {
	day := time.Date(2026, 6, 2, 0, 0, 0, 0, time.UTC)
	s, _ := NewFileStore(t.TempDir(), WithClock(fixedClock(day)))
	ctx := context.Background()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			_ = s.Append(ctx, sampleEvent("w", domain.OutcomeSuccess, day))
		}
	}()

	for i := 0; i < 50; i++ {
		got, err := s.Recent(ctx, 1000)
		if err != nil {
			t.Fatal(err)
		}
		for _, e := range got {
			if e.Outcome == domain.OutcomeRaw {
				t.Fatalf("partial line surfaced: %q", e.Raw)
			}
		}
	}
	wg.Wait()
}

func TestFileStoreDayRotation(t *testing.T) {
	now := time.Date(2026, 5, 1, 23, 59, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	s, _ := NewFileStore(t.TempDir(), WithClock(clock))
	ctx := context.Background()

	_ = s.Append(ctx, sampleEvent("yesterday", domain.OutcomeAttempt, now))
	now = now.Add(2 * time.Minute)
	_ = s.Append(ctx, sampleEvent("today", domain.OutcomeAttempt, now))

	got, _ := s.Recent(ctx, 10)
	if len(got) != 1 || got[0].SessionID != "today" {
		t.Fatalf("after rotation got %+v", got)
	}
	if _, err := os.Stat(s.PathFor(now.Add(-24 * time.Hour))); err != nil {
		t.Fatalf("previous day file missing: %v", err)
	}
}

func TestFileStoreMissingFileIsEmpty(t *testing.T) {
	s, _ := NewFileStore(t.TempDir())
	got, err := s.Recent(context.Background(), 10)
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("want empty non-nil slice, got %#v", got)
	}
}

func TestFileStoreConcurrentAppend(t *testing.T) {
	day := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	s, _ := NewFileStore(t.TempDir(), WithClock(fixedClock(day)))
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Append(ctx, sampleEvent("c", domain.OutcomeSuccess, day))
		}()
	}
	wg.Wait()

	got, _ := s.Recent(ctx, 1000)
	if len(got) != 50 {
		t.Fatalf("len=%d want 50", len(got))
	}
	for _, e := range got {
		if e.Outcome == domain.OutcomeRaw {
			t.Fatalf("interleaved line detected: %q", e.Raw)
		}
	}
}
