package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/xela07ax/quantumpay/internal/api/handler"
	"github.com/xela07ax/quantumpay/internal/domain"
	"github.com/xela07ax/quantumpay/internal/engine"
	"github.com/xela07ax/quantumpay/internal/eventlog"
	"github.com/xela07ax/quantumpay/internal/infra"
	"github.com/xela07ax/quantumpay/internal/registry"
)

const testTimeoutDelay = 50 * time.Millisecond

type fixture struct {
	srv    *httptest.Server
	store  *eventlog.FileStore
	static string
}

func newFixture(t *testing.T, limiter *rate.Limiter) *fixture {
	t.Helper()
	logger := zap.NewNop()

	store, err := eventlog.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	events := eventlog.NewLog(store, logger)

	staticDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(staticDir, "index.html"), []byte("<html>quantum pay</html>"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(staticDir, "app.js"), []byte("console.log(1)"), 0o644); err != nil {
		t.Fatal(err)
	}

	reg := registry.MustDefault()
	metrics := engine.NewMetrics(nil)
	sim := engine.NewSimulator(reg, events, engine.NewSeededGenerator(11), testTimeoutDelay, metrics, logger)

	s := New(
		infra.ServerConfig{AllowedOrigin: "*"},
		logger,
		metrics,
		limiter,
		handler.NewBankHandler(reg),
		handler.NewConnectHandler(sim, logger),
		handler.NewEventHandler(events, 200, logger),
		handler.NewStatic(staticDir),
	)
	ts := httptest.NewServer(s)
	t.Cleanup(ts.Close)

	return &fixture{srv: ts, store: store, static: staticDir}
}

func (f *fixture) connect(t *testing.T, body string) (*http.Response, engine.ConnectResponse) {
	t.Helper()
	resp, err := http.Post(f.srv.URL+"/api/connect", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var out engine.ConnectResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return resp, out
}

func (f *fixture) recent(t *testing.T, query string) []domain.ConnectionEvent {
	t.Helper()
	resp, err := http.Get(f.srv.URL + "/api/events/recent" + query)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("recent status=%d", resp.StatusCode)
	}
	var out engine.EventsResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	return out.Events
}

func TestBanksThenConnect(t *testing.T) {
	f := newFixture(t, nil)

	resp, err := http.Get(f.srv.URL + "/api/banks")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK || resp.Header.Get(engine.TraceHeader) == "" {
		t.Fatalf("status=%d trace=%q", resp.StatusCode, resp.Header.Get(engine.TraceHeader))
	}
	raw, _ := io.ReadAll(resp.Body)
	if strings.Contains(string(raw), "failMode") || strings.Contains(string(raw), "timeout") {
		t.Fatalf("failure modes leaked: %s", raw)
	}
	var banks engine.BanksResponse
	if err := json.Unmarshal(raw, &banks); err != nil {
		t.Fatal(err)
	}
	if len(banks.Banks) != len(registry.DefaultBanks) {
		t.Fatalf("banks=%d", len(banks.Banks))
	}

	cResp, out := f.connect(t, `{"bankId":"chase"}`)
	if cResp.StatusCode != http.StatusOK || !out.Success {
		t.Fatalf("status=%d body=%+v", cResp.StatusCode, out)
	}
	if out.Account == nil || out.Account.Institution != "Chase" || out.Account.Mask == "" {
		t.Fatalf("account=%+v", out.Account)
	}

	events := f.recent(t, "")
	if len(events) != 2 {
		t.Fatalf("events=%d want 2", len(events))
	}
	if events[0].Outcome != domain.OutcomeSuccess || events[1].Outcome != domain.OutcomeAttempt {
		t.Fatalf("order: %s, %s", events[0].Outcome, events[1].Outcome)
	}
	if events[0].SessionID != out.SessionID || events[1].SessionID != out.SessionID {
		t.Fatal("events do not share the response session id")
	}
}

func TestConnectErrors(t *testing.T) {
	f := newFixture(t, nil)

	testCases := []struct {
		name   string
		body   string
		status int
		kind   domain.ErrorKind
		events int
	}{
		{name: "unknown bank", body: `{"bankId":"monzo"}`, status: 400, kind: domain.KindBankNotFound, events: 2},
		{name: "partner bank failure", body: `{"bankId":"partnerbank"}`, status: 500, kind: domain.KindUpstream500, events: 2},
		{name: "timeout", body: `{"bankId":"slowbank"}`, status: 504, kind: domain.KindTimeout, events: 2},
		{name: "malformed json", body: `{"bankId":`, status: 400, kind: domain.KindInvalidRequest, events: 0},
		{name: "missing bank id", body: `{}`, status: 400, kind: domain.KindInvalidRequest, events: 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			before := len(f.recent(t, ""))

			resp, out := f.connect(t, tc.body)
			if resp.StatusCode != tc.status {
				t.Fatalf("status=%d want %d", resp.StatusCode, tc.status)
			}
			if out.Success || out.Error != string(tc.kind) || out.Message == "" {
				t.Fatalf("body=%+v", out)
			}
			if got := len(f.recent(t, "")) - before; got != tc.events {
				t.Fatalf("new events=%d want %d", got, tc.events)
			}
		})
	}
}

func TestConnectTimeoutRespectsDelay(t *testing.T) {
	f := newFixture(t, nil)

	start := time.Now()
	resp, _ := f.connect(t, `{"bankId":"slowbank"}`)
	if resp.StatusCode != http.StatusGatewayTimeout {
		t.Fatalf("status=%d", resp.StatusCode)
	}
	if time.Since(start) < testTimeoutDelay {
		t.Fatal("timeout branch answered before the configured delay")
	}
}

func TestConnectAcceptsLegacyBankCode(t *testing.T) {
	f := newFixture(t, nil)

	resp, out := f.connect(t, `{"bankCode":"citi"}`)
	if resp.StatusCode != http.StatusOK || out.Account == nil || out.Account.Institution != "Citi" {
		t.Fatalf("status=%d body=%+v", resp.StatusCode, out)
	}
}

func TestConnectRateLimited(t *testing.T) {
	f := newFixture(t, rate.NewLimiter(rate.Limit(0.0001), 1))

	if resp, _ := f.connect(t, `{"bankId":"ally"}`); resp.StatusCode != http.StatusOK {
		t.Fatalf("first status=%d", resp.StatusCode)
	}
	resp, out := f.connect(t, `{"bankId":"ally"}`)
	if resp.StatusCode != http.StatusTooManyRequests || out.Error != string(domain.KindRateLimited) {
		t.Fatalf("status=%d body=%+v", resp.StatusCode, out)
	}
}

func TestRecentEventsLimit(t *testing.T) {
	f := newFixture(t, nil)
	for i := 0; i < 3; i++ {
		f.connect(t, `{"bankId":"truist"}`)
	}

	testCases := []struct {
		query string
		want  int
	}{
		{query: "", want: 6},
		{query: "?limit=4", want: 4},
		{query: "?limit=0", want: 1},
		{query: "?limit=-3", want: 1},
		{query: "?limit=100000", want: 6},
	}
	for _, tc := range testCases {
		if got := len(f.recent(t, tc.query)); got != tc.want {
			t.Errorf("query %q: events=%d want %d", tc.query, got, tc.want)
		}
	}

	resp, err := http.Get(f.srv.URL + "/api/events/recent?limit=ten")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("non-numeric limit status=%d", resp.StatusCode)
	}
}

func TestRecentEventsEmptyDay(t *testing.T) {
	f := newFixture(t, nil)

	resp, err := http.Get(f.srv.URL + "/api/events/recent")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	if strings.TrimSpace(string(raw)) != `{"events":[]}` {
		t.Fatalf("body=%s", raw)
	}
}

func TestStaticAndFallback(t *testing.T) {
	f := newFixture(t, nil)

	testCases := []struct {
		name     string
		path     string
		status   int
		contains string
	}{
		{name: "root", path: "/", status: 200, contains: "quantum pay"},
		{name: "asset", path: "/app.js", status: 200, contains: "console.log"},
		{name: "client route", path: "/share-data", status: 200, contains: "quantum pay"},
		{name: "unknown api", path: "/api/nope", status: 404, contains: "not_found"},
		{name: "health", path: "/health", status: 200, contains: "ok"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			resp, err := http.Get(f.srv.URL + tc.path)
			if err != nil {
				t.Fatal(err)
			}
			defer resp.Body.Close()
			raw, _ := io.ReadAll(resp.Body)
			if resp.StatusCode != tc.status || !strings.Contains(string(raw), tc.contains) {
				t.Fatalf("status=%d body=%s", resp.StatusCode, raw)
			}
		})
	}
}

func TestCORSPreflight(t *testing.T) {
	f := newFixture(t, nil)

	req, _ := http.NewRequest(http.MethodOptions, f.srv.URL+"/api/connect", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.Header.Get("Access-Control-Allow-Origin") == "" {
		t.Fatalf("no CORS headers, status=%d", resp.StatusCode)
	}
}
