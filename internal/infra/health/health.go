package health

import (
	"fmt"
	"net/http"
	"sync/atomic"
)

var (
	ready  atomic.Bool
	charts atomic.Pointer[func() int]
)

// SetReady marks readiness state
func SetReady(v bool) { ready.Store(v) }

// SetChartCounter reports the number of live charts on /readyz.
func SetChartCounter(fn func() int) { charts.Store(&fn) }

// Ready returns current readiness
func Ready() bool { return ready.Load() }

// Healthz is a simple liveness probe
func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Readyz reflects application readiness state
func Readyz(w http.ResponseWriter, r *http.Request) {
	if !Ready() {
		http.Error(w, "not ready", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	if fn := charts.Load(); fn != nil && *fn != nil {
		_, _ = fmt.Fprintf(w, "ready charts=%d", (*fn)())
		return
	}
	_, _ = w.Write([]byte("ready"))
}
