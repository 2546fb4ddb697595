package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

var (
	ViewDerivationsTotal      = prometheus.NewCounter(prometheus.CounterOpts{Name: "depth_view_derivations_total", Help: "View models derived"})
	CrossedOffersRemovedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "depth_crossed_offers_removed_total", Help: "Crossed offers dropped by side"}, []string{"side"})
	ZoomEventsTotal           = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "depth_zoom_events_total", Help: "Wheel events by outcome (applied, ignored, limited)"}, []string{"outcome"})
	DeriveLatencyMs           = prometheus.NewHistogram(prometheus.HistogramOpts{Name: "depth_derive_latency_ms", Help: "Book update to view model latency", Buckets: prometheus.ExponentialBuckets(0.01, 2, 16)})
	ChartsActive              = prometheus.NewGauge(prometheus.GaugeOpts{Name: "depth_charts_active", Help: "Charts held in the registry"})
	WSClients                 = prometheus.NewGauge(prometheus.GaugeOpts{Name: "depth_ws_clients", Help: "Connected view stream clients"})
	PointerEventsTotal        = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "depth_pointer_events_total", Help: "Pointer events by kind"}, []string{"event"})
	APIErrorsTotal            = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "api_errors_total", Help: "API errors by endpoint"}, []string{"endpoint"})
)

func Init(logger zerolog.Logger) *prometheus.Registry {
	reg := prometheus.NewRegistry()
	toRegister := []prometheus.Collector{
		ViewDerivationsTotal, CrossedOffersRemovedTotal, ZoomEventsTotal, DeriveLatencyMs,
		ChartsActive, WSClients, PointerEventsTotal, APIErrorsTotal,
		collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	}
	for _, c := range toRegister {
		_ = reg.Register(c)
	}
	logger.Info().Msg("Prometheus metrics initialized")
	return reg
}

func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
