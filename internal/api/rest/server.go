// Package rest exposes depth charts over HTTP: book snapshots are pushed in,
// wheel and pointer events are forwarded and view models are served or
// streamed over a websocket.
package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"depthview/internal/depthchart"
	"depthview/internal/infra/http/middleware"
	"depthview/internal/infra/metrics"
	"depthview/internal/infra/network"
	"depthview/internal/market"
	"depthview/internal/orderbook"
)

const maxBodyBytes = 4 << 20

var (
	errUnknownChart = errors.New("unknown chart")
	errUnknownTaker = errors.New("taker must be buy or sell")
	errEmptySide    = errors.New("no offers on that side")
)

type Options struct {
	EventsPerSecond float64
	Burst           int
	PingPeriod      time.Duration
}

type Server struct {
	mux     *http.ServeMux
	reg     *Registry
	logger  zerolog.Logger
	limiter *network.KeyedLimiter
	ping    time.Duration
}

func New(reg *Registry, opts Options, logger zerolog.Logger) *Server {
	if opts.PingPeriod <= 0 {
		opts.PingPeriod = 30 * time.Second
	}
	s := &Server{
		mux:     http.NewServeMux(),
		reg:     reg,
		logger:  logger,
		limiter: network.NewKeyedLimiter(opts.EventsPerSecond, opts.Burst, 10*time.Minute),
		ping:    opts.PingPeriod,
	}
	limited := middleware.RateLimit(s.limiter, func(r *http.Request) {
		metrics.ZoomEventsTotal.WithLabelValues("limited").Inc()
	})
	s.mux.HandleFunc("GET /v1/charts", s.handleList)
	s.mux.HandleFunc("GET /v1/charts/{market}", s.handleView)
	s.mux.HandleFunc("PUT /v1/charts/{market}/book", s.handleBook)
	s.mux.HandleFunc("GET /v1/charts/{market}/quote/{taker}", s.handleQuote)
	s.mux.Handle("POST /v1/charts/{market}/zoom", limited(http.HandlerFunc(s.handleZoom)))
	s.mux.Handle("POST /v1/charts/{market}/pointer", limited(http.HandlerFunc(s.handlePointer)))
	s.mux.HandleFunc("GET /v1/charts/{market}/stream", s.handleStream)
	return s
}

func (s *Server) Handler() http.Handler { return s.mux }

type bookRequest struct {
	Bids []orderbook.Offer `json:"bids"`
	Asks []orderbook.Offer `json:"asks"`
}

type zoomRequest struct {
	DeltaY *float64 `json:"delta_y"`
}

type zoomResponse struct {
	Applied bool                 `json:"applied"`
	View    depthchart.ViewModel `json:"view"`
}

type pointerRequest struct {
	Event string `json:"event"`
}

type pointerResponse struct {
	ScrollLocked bool                 `json:"scroll_locked"`
	View         depthchart.ViewModel `json:"view"`
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"markets": s.reg.Keys()})
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	vm, ok := s.reg.View(r.PathValue("market"))
	if !ok {
		s.fail(w, r, "view", http.StatusNotFound, errUnknownChart)
		return
	}
	writeJSON(w, http.StatusOK, vm)
}

func (s *Server) handleBook(w http.ResponseWriter, r *http.Request) {
	var req bookRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, "book", http.StatusBadRequest, err)
		return
	}
	book := orderbook.Book{Bids: req.Bids, Asks: req.Asks}
	if err := book.Validate(); err != nil {
		s.fail(w, r, "book", http.StatusBadRequest, err)
		return
	}
	vm, err := s.reg.Update(r.PathValue("market"), book)
	switch {
	case errors.Is(err, errUnlistedMarket):
		s.fail(w, r, "book", http.StatusNotFound, err)
	case errors.Is(err, errRegistryFull):
		s.fail(w, r, "book", http.StatusServiceUnavailable, err)
	case err != nil:
		s.fail(w, r, "book", http.StatusInternalServerError, err)
	default:
		writeJSON(w, http.StatusOK, vm)
	}
}

// handleQuote answers with the offer a taker trading in the given
// direction would fill first: asks for buy, bids for sell.
func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	taker := market.BS(r.PathValue("taker"))
	if taker != market.Buy && taker != market.Sell {
		s.fail(w, r, "quote", http.StatusBadRequest, errUnknownTaker)
		return
	}
	q, found, ok := s.reg.Quote(r.PathValue("market"), market.BSToBA(taker))
	switch {
	case !found:
		s.fail(w, r, "quote", http.StatusNotFound, errUnknownChart)
	case !ok:
		s.fail(w, r, "quote", http.StatusNotFound, errEmptySide)
	default:
		writeJSON(w, http.StatusOK, q)
	}
}

func (s *Server) handleZoom(w http.ResponseWriter, r *http.Request) {
	var req zoomRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, "zoom", http.StatusBadRequest, err)
		return
	}
	if req.DeltaY == nil || math.IsNaN(*req.DeltaY) || math.IsInf(*req.DeltaY, 0) {
		s.fail(w, r, "zoom", http.StatusBadRequest, errors.New("delta_y must be a finite number"))
		return
	}
	vm, applied, ok := s.reg.Zoom(r.PathValue("market"), *req.DeltaY)
	if !ok {
		s.fail(w, r, "zoom", http.StatusNotFound, errUnknownChart)
		return
	}
	writeJSON(w, http.StatusOK, zoomResponse{Applied: applied, View: vm})
}

func (s *Server) handlePointer(w http.ResponseWriter, r *http.Request) {
	var req pointerRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, "pointer", http.StatusBadRequest, err)
		return
	}
	ev, err := depthchart.ParsePointerEvent(req.Event)
	if err != nil {
		s.fail(w, r, "pointer", http.StatusBadRequest, err)
		return
	}
	vm, locked, ok, err := s.reg.Pointer(r.PathValue("market"), ev)
	switch {
	case !ok:
		s.fail(w, r, "pointer", http.StatusNotFound, errUnknownChart)
	case err != nil:
		s.fail(w, r, "pointer", http.StatusBadRequest, err)
	default:
		writeJSON(w, http.StatusOK, pointerResponse{ScrollLocked: locked, View: vm})
	}
}

func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode body: %w", err)
	}
	return nil
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, endpoint string, status int, err error) {
	metrics.APIErrorsTotal.WithLabelValues(endpoint).Inc()
	s.logger.Warn().
		Str("rid", middleware.GetRequestID(r.Context())).
		Str("endpoint", endpoint).
		Int("status", status).
		Err(err).
		Msg("request rejected")
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
