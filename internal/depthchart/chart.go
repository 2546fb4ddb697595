// Package depthchart turns order book snapshots into the view model of a
// depth chart and keeps the zoom state of one chart instance.
//
// A Chart is not safe for concurrent use; hosts serialise calls per chart.
package depthchart

import (
	"math"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"depthview/internal/market"
	"depthview/internal/orderbook"
	"depthview/internal/price"
)

// ScrollLocker is the page scroll capability supplied by the host.
type ScrollLocker interface {
	LockScroll()
	UnlockScroll()
}

type nopLocker struct{}

func (nopLocker) LockScroll()   {}
func (nopLocker) UnlockScroll() {}

type Option func(*Chart)

func WithParams(p Params) Option             { return func(c *Chart) { c.params = p } }
func WithScrollLocker(l ScrollLocker) Option { return func(c *Chart) { c.locker = l } }
func WithLogger(l zerolog.Logger) Option     { return func(c *Chart) { c.logger = l } }
func WithMarket(m market.Market) Option      { return func(c *Chart) { c.market = m } }

type Chart struct {
	params Params
	locker ScrollLocker
	logger zerolog.Logger
	market market.Market

	loaded   bool
	snap     Snapshot
	resolved orderbook.ResolveStats
	shape    *shapeKey

	zoomDomain  *float64
	isScrolling bool
}

func New(opts ...Option) *Chart {
	c := &Chart{params: DefaultParams(), locker: nopLocker{}, logger: zerolog.Nop()}
	for _, o := range opts {
		o(c)
	}
	return c
}

// shapeKey holds the book features whose change resets the zoom.
type shapeKey struct {
	bids       int
	asks       int
	highestAsk decimal.Decimal
	highestBid decimal.Decimal
	lowestBid  decimal.Decimal
	mid        decimal.Decimal
}

func (k shapeKey) equal(o shapeKey) bool {
	return k.bids == o.bids && k.asks == o.asks &&
		k.highestAsk.Equal(o.highestAsk) && k.highestBid.Equal(o.highestBid) &&
		k.lowestBid.Equal(o.lowestBid) && k.mid.Equal(o.mid)
}

// Update replaces the book, resets the zoom if the book changed shape and
// returns the new view model.
func (c *Chart) Update(book orderbook.Book) ViewModel {
	bids, asks, stats := orderbook.ResolveCrossedStats(book.Bids, book.Asks)
	s := Snapshot{
		Book:           orderbook.Book{Bids: bids, Asks: asks},
		CumulativeBids: orderbook.Cumulative(bids, false),
		CumulativeAsks: orderbook.Cumulative(asks, true),
		Mid:            decimal.Zero,
	}
	if s.TwoSided() {
		s.Mid = price.Mid(s.lowestAsk(), s.highestBid())
	}
	c.snap, c.resolved, c.loaded = s, stats, true

	key := shapeKey{
		bids: len(bids), asks: len(asks),
		highestAsk: s.highestAsk(), highestBid: s.highestBid(), lowestBid: s.lowestBid(),
		mid: s.Mid,
	}
	if c.shape == nil || !c.shape.equal(key) {
		z := InitialZoomDomain(s, c.params)
		c.zoomDomain = &z
		c.shape = &key
		c.logger.Debug().
			Int("bids", key.bids).Int("asks", key.asks).
			Str("mid", s.Mid.String()).Float64("zoom_domain", z).
			Msg("zoom domain recomputed")
	}
	if stats.Total() > 0 {
		c.logger.Debug().Int("bids_removed", stats.BidsRemoved).Int("asks_removed", stats.AsksRemoved).Msg("crossed offers removed")
	}
	return c.View()
}

// Zoom applies a wheel delta. It reports false and leaves the state alone
// when the book is not yet two-sided or no zoom has been set.
func (c *Chart) Zoom(deltaY float64) bool {
	if math.IsNaN(deltaY) || math.IsInf(deltaY, 0) {
		return false
	}
	if c.zoomDomain == nil || *c.zoomDomain == 0 || c.snap.Mid.IsZero() || !c.snap.TwoSided() {
		return false
	}
	mid := price.Float(c.snap.Mid)
	z := ScaleZoom(*c.zoomDomain, deltaY, MinZoomDomain(c.snap, c.params), mid, c.params)
	c.logger.Debug().Float64("delta_y", deltaY).Float64("from", *c.zoomDomain).Float64("to", z).Msg("zoom")
	c.zoomDomain = &z
	return true
}

// ZoomDomain returns the current half-width, or false while unset.
func (c *Chart) ZoomDomain() (float64, bool) {
	if c.zoomDomain == nil {
		return 0, false
	}
	return *c.zoomDomain, true
}

func (c *Chart) MinZoomDomain() float64 { return MinZoomDomain(c.snap, c.params) }

func (c *Chart) IsScrolling() bool { return c.isScrolling }

// LastResolve reports what the most recent Update dropped as crossed.
func (c *Chart) LastResolve() orderbook.ResolveStats { return c.resolved }
