package tests

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"depthview/internal/api/rest"
	"depthview/internal/config"
	"depthview/internal/infra/health"
	"depthview/internal/infra/http/middleware"
	ilog "depthview/internal/infra/log"
	"depthview/internal/infra/metrics"
	"depthview/internal/infra/netutil"
	"depthview/internal/infra/version"
)

// buildMux mirrors the HTTP setup in cmd/depthview/main.go
func buildMux(t *testing.T) http.Handler {
	t.Helper()
	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	logger := ilog.NewLogger(cfg)
	reg := metrics.Init(logger)
	charts := rest.NewRegistry(cfg.Chart.Params, cfg.Market, rest.Limits{ListedOnly: cfg.Chart.ListedOnly, MaxCharts: cfg.Limits.MaxCharts}, logger)
	api := rest.New(charts, rest.Options{EventsPerSecond: cfg.Limits.EventsPerSecond, Burst: cfg.Limits.Burst, PingPeriod: time.Second}, logger)
	health.SetChartCounter(charts.Len)

	mux := http.NewServeMux()
	mux.Handle("/metrics", middleware.AdminGate(netutil.MustParseCIDRs(cfg.Server.AdminAllowCIDRs), metrics.Handler(reg)))
	mux.HandleFunc("/healthz", health.Healthz)
	// mark ready and add /readyz
	health.SetReady(true)
	mux.HandleFunc("/readyz", health.Readyz)
	mux.HandleFunc("/version", version.Handler)
	mux.Handle("/v1/", api.Handler())
	return middleware.RequestID(middleware.Logger(logger)(mux))
}

func TestReadyzAndVersion(t *testing.T) {
	srv := httptest.NewServer(buildMux(t))
	t.Cleanup(srv.Close)

	// readyz should return 200 once ready is set to true in buildMux
	resp, err := http.Get(srv.URL + "/readyz")
	if err != nil {
		t.Fatalf("GET /readyz error: %v", err)
	}
	b, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK || string(b) != "ready charts=0" {
		t.Fatalf("/readyz expected 200 with chart count, got %d %q", resp.StatusCode, b)
	}

	// version should return json
	resp, err = http.Get(srv.URL + "/version")
	if err != nil {
		t.Fatalf("GET /version error: %v", err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, "application/json") {
		t.Fatalf("/version expected application/json, got %s", ct)
	}
}

func TestHealthzEndpoint(t *testing.T) {
	srv := httptest.NewServer(buildMux(t))
	t.Cleanup(srv.Close)

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if resp.Header.Get("X-Request-Id") == "" {
		t.Fatalf("expected a request id header")
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv := httptest.NewServer(buildMux(t))
	t.Cleanup(srv.Close)

	req, _ := http.NewRequest(http.MethodPut, srv.URL+"/v1/charts/ETH-DAI/book",
		strings.NewReader(`{"bids":[{"price":"100","volume":"1"}],"asks":[{"price":"99","volume":"1"},{"price":"101","volume":"1"}]}`))
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("PUT book error: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("PUT book expected 200, got %d", resp.StatusCode)
	}

	resp, err = http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	// the crossed ask at 99 must show up under the ask label
	b, _ := io.ReadAll(resp.Body)
	body := string(b)
	if !strings.Contains(body, "depth_view_derivations_total") || !strings.Contains(body, `depth_crossed_offers_removed_total{side="ask"}`) {
		t.Fatalf("metrics output did not contain expected metrics, got: %q", body)
	}
}
