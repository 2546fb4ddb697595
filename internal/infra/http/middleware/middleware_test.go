package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"depthview/internal/infra/netutil"
	"depthview/internal/infra/network"
)

func ok(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) }

func TestRequestIDGeneratedAndEchoed(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if len(seen) != 36 || rec.Header().Get("X-Request-Id") != seen {
		t.Fatalf("expected generated uuid, got %q / %q", seen, rec.Header().Get("X-Request-Id"))
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-Id", "abc")
	h.ServeHTTP(httptest.NewRecorder(), req)
	if seen != "abc" {
		t.Fatalf("expected caller id to be kept, got %q", seen)
	}
}

func TestRateLimit(t *testing.T) {
	lim := network.NewKeyedLimiter(0.001, 1, time.Minute)
	limited := 0
	h := RateLimit(lim, func(*http.Request) { limited++ })(http.HandlerFunc(ok))

	for i, want := range []int{http.StatusNoContent, http.StatusTooManyRequests} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
		if rec.Code != want {
			t.Fatalf("request %d: status %d, want %d", i, rec.Code, want)
		}
	}
	if limited != 1 {
		t.Fatalf("onLimited called %d times", limited)
	}
}

func TestAdminGate(t *testing.T) {
	h := AdminGate(netutil.MustParseCIDRs([]string{"192.0.2.0/24"}), http.HandlerFunc(ok))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil)) // 192.0.2.1:1234
	if rec.Code != http.StatusNoContent {
		t.Fatalf("allowed ip got %d", rec.Code)
	}
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	req.RemoteAddr = "10.1.1.1:5555"
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("denied ip got %d", rec.Code)
	}
}

func TestLoggerRecordsStatus(t *testing.T) {
	h := Logger(zerolog.Nop())(http.HandlerFunc(ok))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status %d", rec.Code)
	}
}
