package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"golang.org/x/text/language"

	"bilardo/internal/core"
	applog "bilardo/internal/log"
	"bilardo/internal/session"
	"bilardo/internal/stock"
	"bilardo/internal/store"
	"bilardo/internal/store/memory"
	"bilardo/internal/worker"
)

func quietLogger() *applog.Logger {
	return applog.Wrap(slog.New(slog.NewTextHandler(io.Discard, nil)), applog.ComponentHTTP)
}

func ticket(table, date, amount string) core.Record {
	a, _ := core.ParseAmount(amount)
	return core.Record{Source: core.SourceTicket, Table: table, RawDate: date, Amount: a}
}

func sale(product, category, date string, qty int, amount string) core.Record {
	a, _ := core.ParseAmount(amount)
	return core.Record{Type: core.KindIncome, Product: product, Category: category, RawDate: date, Quantity: qty, Amount: a}
}

func expense(desc, date, amount string) core.Record {
	a, _ := core.ParseAmount(amount)
	return core.Record{Type: core.KindExpense, Description: desc, RawDate: date, Amount: a}
}

type fixture struct {
	srv    *Server
	source *store.Source
	stock  *stock.Service
}

func newFixture(t *testing.T, collections map[string][]core.Record, deps Deps) fixture {
	t.Helper()
	kv, err := memory.NewWithRecords(collections)
	if err != nil {
		t.Fatalf("seed store: %v", err)
	}
	src := store.NewSource(kv, store.DefaultKeys)
	svc := stock.NewService(src, nil, 5, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if deps.Records == nil {
		deps.Records = src
	}
	if deps.Stock == nil {
		deps.Stock = svc
	}
	deps.Locale = language.Turkish
	deps.Logger = quietLogger()
	srv := NewServer(":0", deps)
	t.Cleanup(func() { srv.rateLimiter.stop() })
	return fixture{srv: srv, source: src, stock: svc}
}

func (f fixture) do(t *testing.T, method, target string, form url.Values, htmx bool) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, target, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if htmx {
		req.Header.Set("HX-Request", "true")
	}
	rr := httptest.NewRecorder()
	f.srv.Handler.ServeHTTP(rr, req)
	return rr
}

func TestHealthAndReady(t *testing.T) {
	f := newFixture(t, nil, Deps{})
	for _, path := range []string{"/healthz", "/readyz"} {
		rr := f.do(t, http.MethodGet, path, nil, false)
		if rr.Code != http.StatusOK {
			t.Fatalf("%s status=%d body=%s", path, rr.Code, rr.Body.String())
		}
		if !strings.HasPrefix(rr.Header().Get("Content-Type"), "application/json") {
			t.Fatalf("%s content type %q", path, rr.Header().Get("Content-Type"))
		}
	}
}

type failingRecords struct{}

func (failingRecords) Tickets(context.Context) ([]core.Record, error) {
	return nil, errors.New("db down")
}
func (failingRecords) CashMovements(context.Context) ([]core.Record, error) {
	return nil, errors.New("db down")
}
func (failingRecords) Ping(context.Context) error { return errors.New("db down") }

func TestReadyReportsStoreFailure(t *testing.T) {
	f := newFixture(t, nil, Deps{Records: failingRecords{}})
	rr := f.do(t, http.MethodGet, "/readyz", nil, false)
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "db down") {
		t.Fatalf("readiness body missing store error: %s", rr.Body.String())
	}
}

func TestOverviewShowsToday(t *testing.T) {
	day := today(time.Now()).String()
	f := newFixture(t, map[string][]core.Record{
		"tickets": {
			ticket("3", day, "50"),
			ticket("5", day, "120,50"),
			ticket("5", "2001-01-01", "999"),
		},
		"cash_movements": {expense("Buz", day, "40")},
	}, Deps{})

	rr := f.do(t, http.MethodGet, "/", nil, false)
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	body := rr.Body.String()
	for _, want := range []string{"170,50 ₺", "2 adisyon", "40,00 ₺", "130,50 ₺"} {
		if !strings.Contains(body, want) {
			t.Errorf("overview missing %q", want)
		}
	}
}

func TestStoreFailureDegradesToEmptyReport(t *testing.T) {
	f := newFixture(t, nil, Deps{Records: failingRecords{}})
	for _, path := range []string{"/", "/reports/tables", "/reports/products", "/reports/expenses"} {
		rr := f.do(t, http.MethodGet, path, nil, false)
		if rr.Code != http.StatusOK {
			t.Fatalf("%s status=%d", path, rr.Code)
		}
		if !strings.Contains(rr.Body.String(), `class="warning"`) {
			t.Errorf("%s: expected a warning banner", path)
		}
	}
}

func TestSecurityHeadersAndRequestID(t *testing.T) {
	f := newFixture(t, nil, Deps{})
	rr := f.do(t, http.MethodGet, "/reports/tables", nil, false)
	if rr.Header().Get("X-Content-Type-Options") != "nosniff" || rr.Header().Get("X-Frame-Options") != "DENY" {
		t.Fatalf("security headers missing: %v", rr.Header())
	}
	if rr.Header().Get("X-Request-ID") == "" {
		t.Fatalf("request id not set")
	}
}

func TestMethodNotAllowed(t *testing.T) {
	f := newFixture(t, nil, Deps{})
	rr := f.do(t, http.MethodGet, "/billiard/refresh", nil, false)
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rr.Code)
	}
}

func TestPostRateLimit(t *testing.T) {
	f := newFixture(t, nil, Deps{PostLimit: 2})
	form := url.Values{"name": {"İçecek"}}
	for i := 0; i < 2; i++ {
		if rr := f.do(t, http.MethodPost, "/stock/categories", url.Values{"name": {"K" + string(rune('a'+i))}}, false); rr.Code == http.StatusTooManyRequests {
			t.Fatalf("request %d limited too early", i)
		}
	}
	rr := f.do(t, http.MethodPost, "/stock/categories", form, false)
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rr.Code)
	}
	if rr.Header().Get("Retry-After") == "" {
		t.Fatalf("Retry-After not set")
	}
	// GETs are not limited
	if rr := f.do(t, http.MethodGet, "/stock", nil, false); rr.Code != http.StatusOK {
		t.Fatalf("GET limited: %d", rr.Code)
	}
}

func TestRateLimiterWindow(t *testing.T) {
	rl := newRateLimiter(1, time.Minute)
	defer rl.stop()
	now := time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	if !rl.allow("1.1.1.1") || rl.allow("1.1.1.1") {
		t.Fatalf("limit of one not enforced")
	}
	if !rl.allow("2.2.2.2") {
		t.Fatalf("clients must be counted separately")
	}
	now = now.Add(time.Minute)
	if !rl.allow("1.1.1.1") {
		t.Fatalf("new window should allow again")
	}
	now = now.Add(time.Hour)
	if removed := rl.cleanupStaleEntries(); removed != 2 || rl.ActiveClients() != 0 {
		t.Fatalf("stale entries not removed: %d", removed)
	}
}

func TestExtractClientIP(t *testing.T) {
	cases := []struct {
		remote, xff, want string
	}{
		{"203.0.113.9:1234", "", "203.0.113.9"},
		{"203.0.113.9:1234", "198.51.100.1", "203.0.113.9"},
		{"10.0.0.2:1234", "198.51.100.1, 10.0.0.2", "198.51.100.1"},
		{"127.0.0.1:80", "garbage", "127.0.0.1"},
	}
	for _, tc := range cases {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.RemoteAddr = tc.remote
		if tc.xff != "" {
			r.Header.Set("X-Forwarded-For", tc.xff)
		}
		if got := extractClientIP(r); got != tc.want {
			t.Errorf("remote=%s xff=%q: got %s, want %s", tc.remote, tc.xff, got, tc.want)
		}
	}
}

func TestDetectSuspiciousRequest(t *testing.T) {
	m := &securityMetrics{}
	ok := httptest.NewRequest(http.MethodGet, "/reports/tables?from=2024-01-01", nil)
	bad := httptest.NewRequest(http.MethodGet, "/../../etc/passwd", nil)
	if detectSuspiciousRequest(ok, m) {
		t.Errorf("normal request flagged")
	}
	if !detectSuspiciousRequest(bad, m) {
		t.Errorf("path traversal not flagged")
	}
	if m.snapshot()["suspicious_requests"] != 1 {
		t.Errorf("metrics not counted")
	}
}

// fakeSessionService is a minimal session API.
type fakeSessionService struct {
	mu       sync.Mutex
	occupied map[string]string
	fail     string
}

func newFakeSessionService(t *testing.T) (*fakeSessionService, *session.Client) {
	t.Helper()
	f := &fakeSessionService{occupied: map[string]string{}}
	srv := httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(srv.Close)
	return f, session.NewClient(srv.URL, time.Second)
}

func (f *fakeSessionService) serve(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != "" && r.Method == http.MethodPost {
		_, _ = w.Write([]byte(`{"success":false,"message":"` + f.fail + `"}`))
		return
	}
	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/tables":
		tables := []session.Table{}
		for _, id := range []string{"1", "2"} {
			tb := session.Table{ID: id, Name: "Masa " + id, Status: session.StatusAvailable}
			if sid, ok := f.occupied[id]; ok {
				tb.Status = session.StatusOccupied
				tb.ElapsedMinutes = 12
				tb.Charge = core.Money{Cents: 4500}
				tb.Session = &session.Session{ID: sid, Mode: "60"}
			}
			tables = append(tables, tb)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "tables": tables})
	case r.URL.Path == "/sessions/start":
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.occupied[body["tableId"]] = "s-" + body["tableId"]
		_, _ = w.Write([]byte(`{"success":true,"sessionId":"s-` + body["tableId"] + `"}`))
	default:
		_, _ = w.Write([]byte(`{"success":true,"message":"Tamam"}`))
	}
}

func TestBilliardDashboard(t *testing.T) {
	api, client := newFakeSessionService(t)
	poller := worker.NewSessionPoller(client, "", time.Second, slog.New(slog.NewTextHandler(io.Discard, nil)))
	f := newFixture(t, nil, Deps{Sessions: client, Tables: poller})

	rr := f.do(t, http.MethodPost, "/billiard/refresh", url.Values{}, true)
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "Masa 2") {
		t.Fatalf("refresh: status=%d body=%s", rr.Code, rr.Body.String())
	}

	rr = f.do(t, http.MethodPost, "/billiard/tables/1/start", url.Values{"mode": {"60"}}, true)
	if rr.Code != http.StatusOK {
		t.Fatalf("start: status=%d body=%s", rr.Code, rr.Body.String())
	}
	if trig := rr.Header().Get("HX-Trigger"); !strings.Contains(trig, `"type":"success"`) || !strings.Contains(trig, "tables:changed") {
		t.Fatalf("start trigger = %s", trig)
	}
	if !strings.Contains(rr.Body.String(), "45,00 ₺") {
		t.Fatalf("started table should show its charge: %s", rr.Body.String())
	}

	// Failures carry the service message and leave the snapshot alone.
	before := poller.Snapshot()
	api.mu.Lock()
	api.fail = "Hedef masa dolu"
	api.mu.Unlock()
	rr = f.do(t, http.MethodPost, "/billiard/sessions/s-1/transfer", url.Values{"target": {"2"}}, true)
	if rr.Code != http.StatusBadGateway {
		t.Fatalf("transfer failure status=%d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "Hedef masa dolu") {
		t.Fatalf("upstream message not shown verbatim: %s", rr.Body.String())
	}
	if !strings.Contains(rr.Header().Get("HX-Trigger"), `"type":"error"`) {
		t.Fatalf("missing error notification")
	}
	after := poller.Snapshot()
	if !after.RefreshedAt.Equal(before.RefreshedAt) || len(after.Tables) != len(before.Tables) {
		t.Fatalf("snapshot changed after a failed call")
	}

	rr = f.do(t, http.MethodPost, "/billiard/sessions/s-1/extend", url.Values{}, true)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("missing unit should be rejected locally, got %d", rr.Code)
	}

	rr = f.do(t, http.MethodGet, "/billiard", nil, false)
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "Masa 1") {
		t.Fatalf("dashboard status=%d", rr.Code)
	}
}

func TestBilliardNotConfigured(t *testing.T) {
	f := newFixture(t, nil, Deps{})
	rr := f.do(t, http.MethodGet, "/billiard", nil, false)
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "SESSION_API_URL") {
		t.Fatalf("unconfigured dashboard: status=%d", rr.Code)
	}
	rr = f.do(t, http.MethodPost, "/billiard/tables/1/start", url.Values{"mode": {"60"}}, true)
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}
}
