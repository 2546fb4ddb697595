package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"depthview/internal/api/rest"
	"depthview/internal/config"
	"depthview/internal/infra/health"
	"depthview/internal/infra/http/middleware"
	"depthview/internal/infra/log"
	"depthview/internal/infra/metrics"
	"depthview/internal/infra/netutil"
	"depthview/internal/infra/runner"
	"depthview/internal/infra/version"
	"depthview/internal/replay"
)

func main() {
	replayPath := flag.String("replay", "", "replay a JSON-lines session file to stdout and exit")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
	}
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger := log.NewLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *replayPath != "" {
		r := replay.New(cfg.Chart.Params, cfg.Market, logger)
		if _, err := r.RunFile(ctx, *replayPath, os.Stdout); err != nil {
			logger.Error().Err(err).Str("file", *replayPath).Msg("replay failed")
			os.Exit(1)
		}
		return
	}

	registry := metrics.Init(logger)
	charts := rest.NewRegistry(cfg.Chart.Params, cfg.Market, rest.Limits{ListedOnly: cfg.Chart.ListedOnly, MaxCharts: cfg.Limits.MaxCharts}, logger)
	api := rest.New(charts, rest.Options{
		EventsPerSecond: cfg.Limits.EventsPerSecond,
		Burst:           cfg.Limits.Burst,
		PingPeriod:      time.Duration(cfg.Server.WSPingSeconds) * time.Second,
	}, logger)
	health.SetChartCounter(charts.Len)

	mux := http.NewServeMux()
	// admin endpoints (metrics, pprof) behind IP allowlist gate
	adminCIDRs := netutil.MustParseCIDRs(cfg.Server.AdminAllowCIDRs)
	mux.Handle("/metrics", middleware.AdminGate(adminCIDRs, metrics.Handler(registry)))
	mux.HandleFunc("/healthz", health.Healthz)
	mux.HandleFunc("/readyz", health.Readyz)
	mux.HandleFunc("/version", version.Handler)
	mux.Handle("/v1/", api.Handler())
	if cfg.Server.Pprof {
		mux.Handle("/debug/pprof/", middleware.AdminGate(adminCIDRs, http.HandlerFunc(pprof.Index)))
		mux.Handle("/debug/pprof/cmdline", middleware.AdminGate(adminCIDRs, http.HandlerFunc(pprof.Cmdline)))
		mux.Handle("/debug/pprof/profile", middleware.AdminGate(adminCIDRs, http.HandlerFunc(pprof.Profile)))
		mux.Handle("/debug/pprof/symbol", middleware.AdminGate(adminCIDRs, http.HandlerFunc(pprof.Symbol)))
		mux.Handle("/debug/pprof/trace", middleware.AdminGate(adminCIDRs, http.HandlerFunc(pprof.Trace)))
	}

	// wrap mux with middlewares (request id and logging)
	handler := middleware.RequestID(middleware.Logger(logger)(mux))

	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 2 * time.Second,
		ReadTimeout:       time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
		WriteTimeout:      time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second,
		IdleTimeout:       time.Duration(cfg.Server.IdleTimeoutSeconds) * time.Second,
	}

	g := runner.New(ctx)
	g.Go("http", func(ctx context.Context) error {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go("shutdown", func(ctx context.Context) error {
		<-ctx.Done()
		// mark not ready before shutdown
		health.SetReady(false)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	logger.Info().Str("addr", cfg.Server.Addr).Int("markets", len(cfg.Chart.Markets)).Msg("depthview started")
	health.SetReady(true)

	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("server stopped with error")
		os.Exit(1)
	}
	logger.Info().Msg("shutdown complete")
}
