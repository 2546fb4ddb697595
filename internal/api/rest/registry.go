package rest

import (
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"depthview/internal/depthchart"
	"depthview/internal/infra/metrics"
	"depthview/internal/market"
	"depthview/internal/orderbook"
)

// scrollLock records the page scroll lock a remote renderer should apply.
type scrollLock struct{ locked atomic.Bool }

func (s *scrollLock) LockScroll()   { s.locked.Store(true) }
func (s *scrollLock) UnlockScroll() { s.locked.Store(false) }

// entry owns one chart. Every call into the chart holds mu.
type entry struct {
	mu     sync.Mutex
	chart  *depthchart.Chart
	lock   *scrollLock
	subs   map[chan []byte]struct{}
	logger zerolog.Logger
}

var (
	errUnlistedMarket = errors.New("market is not listed")
	errRegistryFull   = errors.New("too many charts for unlisted markets")
)

// Limits bounds chart creation. Listed markets are always accepted; the
// others need ListedOnly off and stay below MaxCharts (zero means no cap).
type Limits struct {
	ListedOnly bool
	MaxCharts  int
}

// Registry holds one independent chart per market key.
type Registry struct {
	mu       sync.RWMutex
	charts   map[string]*entry
	unlisted int
	params   depthchart.Params
	markets  func(key string) (market.Market, bool)
	limits   Limits
	logger   zerolog.Logger
}

func NewRegistry(params depthchart.Params, markets func(string) (market.Market, bool), limits Limits, logger zerolog.Logger) *Registry {
	if markets == nil {
		markets = func(string) (market.Market, bool) { return market.Market{}, false }
	}
	return &Registry{charts: make(map[string]*entry), params: params, markets: markets, limits: limits, logger: logger}
}

func (r *Registry) get(key string) (*entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.charts[key]
	return e, ok
}

func (r *Registry) getOrCreate(key string) (*entry, error) {
	if e, ok := r.get(key); ok {
		return e, nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.charts[key]; ok {
		return e, nil
	}
	m, listed := r.markets(key)
	if !listed {
		switch {
		case r.limits.ListedOnly:
			return nil, errUnlistedMarket
		case r.limits.MaxCharts > 0 && r.unlisted >= r.limits.MaxCharts:
			return nil, errRegistryFull
		}
		m = market.FromKey(key)
		r.unlisted++
	}
	lg := r.logger.With().Str("market", key).Logger()
	lock := &scrollLock{}
	e := &entry{
		chart: depthchart.New(
			depthchart.WithParams(r.params),
			depthchart.WithMarket(m),
			depthchart.WithScrollLocker(lock),
			depthchart.WithLogger(lg),
		),
		lock:   lock,
		subs:   make(map[chan []byte]struct{}),
		logger: lg,
	}
	r.charts[key] = e
	metrics.ChartsActive.Set(float64(len(r.charts)))
	lg.Info().Bool("listed", listed).Msg("chart created")
	return e, nil
}

// Len reports the number of charts.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.charts)
}

// Keys lists the markets with a chart, in no particular order.
func (r *Registry) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.charts))
	for k := range r.charts {
		out = append(out, k)
	}
	return out
}

// Update pushes a validated book into the chart for key, creating it on
// first use when the limits allow.
func (r *Registry) Update(key string, book orderbook.Book) (depthchart.ViewModel, error) {
	e, err := r.getOrCreate(key)
	if err != nil {
		return depthchart.ViewModel{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	start := time.Now()
	vm := e.chart.Update(book)
	metrics.DeriveLatencyMs.Observe(float64(time.Since(start).Microseconds()) / 1000)
	metrics.ViewDerivationsTotal.Inc()
	if st := e.chart.LastResolve(); st.Total() > 0 {
		metrics.CrossedOffersRemovedTotal.WithLabelValues(orderbook.Bid.String()).Add(float64(st.BidsRemoved))
		metrics.CrossedOffersRemovedTotal.WithLabelValues(orderbook.Ask.String()).Add(float64(st.AsksRemoved))
	}
	e.publish(vm)
	return vm, nil
}

// View returns the current view model, or false when no chart exists for key.
func (r *Registry) View(key string) (depthchart.ViewModel, bool) {
	e, ok := r.get(key)
	if !ok {
		return depthchart.ViewModel{}, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	metrics.ViewDerivationsTotal.Inc()
	return e.chart.View(), true
}

// Quote returns the best offer on side ba. found is false when no chart
// exists for key, ok is false when that side of the book is empty.
func (r *Registry) Quote(key string, ba market.BA) (q depthchart.Quote, found, ok bool) {
	e, exists := r.get(key)
	if !exists {
		return depthchart.Quote{}, false, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	q, ok = e.chart.Quote(ba)
	return q, true, ok
}

// Zoom applies a wheel delta. applied is false when the chart ignored it.
func (r *Registry) Zoom(key string, deltaY float64) (vm depthchart.ViewModel, applied, found bool) {
	e, ok := r.get(key)
	if !ok {
		return depthchart.ViewModel{}, false, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	applied = e.chart.Zoom(deltaY)
	vm = e.chart.View()
	if applied {
		metrics.ZoomEventsTotal.WithLabelValues("applied").Inc()
		e.publish(vm)
	} else {
		metrics.ZoomEventsTotal.WithLabelValues("ignored").Inc()
	}
	return vm, applied, true
}

// Pointer forwards a pointer event and reports the resulting scroll lock.
func (r *Registry) Pointer(key string, ev depthchart.PointerEvent) (vm depthchart.ViewModel, locked, found bool, err error) {
	e, ok := r.get(key)
	if !ok {
		return depthchart.ViewModel{}, false, false, nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.chart.Pointer(ev); err != nil {
		return depthchart.ViewModel{}, false, true, err
	}
	metrics.PointerEventsTotal.WithLabelValues(string(ev)).Inc()
	vm = e.chart.View()
	e.publish(vm)
	return vm, e.lock.locked.Load(), true, nil
}

// Subscribe registers a stream for key and returns the current view encoded
// as JSON. cancel must be called once the subscriber goes away.
func (r *Registry) Subscribe(key string, buf int) (ch <-chan []byte, initial []byte, cancel func(), err error) {
	e, ok := r.get(key)
	if !ok {
		return nil, nil, nil, errUnknownChart
	}
	c := make(chan []byte, buf)
	e.mu.Lock()
	e.subs[c] = struct{}{}
	initial, err = json.Marshal(e.chart.View())
	e.mu.Unlock()
	if err != nil {
		e.unsubscribe(c)
		return nil, nil, nil, err
	}
	return c, initial, func() { e.unsubscribe(c) }, nil
}

func (e *entry) unsubscribe(c chan []byte) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.subs[c]; ok {
		delete(e.subs, c)
		close(c)
	}
}

// publish fans the view out to subscribers. Callers hold e.mu.
func (e *entry) publish(vm depthchart.ViewModel) {
	if len(e.subs) == 0 {
		return
	}
	b, err := json.Marshal(vm)
	if err != nil {
		e.logger.Error().Err(err).Msg("encode view")
		return
	}
	for c := range e.subs {
		select {
		case c <- b:
		default:
			e.logger.Warn().Msg("dropping view for slow stream client")
		}
	}
}
