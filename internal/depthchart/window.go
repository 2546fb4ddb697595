package depthchart

import (
	"math"

	"github.com/shopspring/decimal"

	"depthview/internal/orderbook"
	"depthview/internal/price"
)

// Snapshot is a cleaned book with its derived curves; the input of Derive.
type Snapshot struct {
	orderbook.Book
	CumulativeBids []orderbook.CumulativeOffer
	CumulativeAsks []orderbook.CumulativeOffer
	Mid            decimal.Decimal
}

func (s Snapshot) highestBid() decimal.Decimal { return priceOf(s.Best(orderbook.Bid)) }
func (s Snapshot) lowestBid() decimal.Decimal  { return priceOf(s.Worst(orderbook.Bid)) }
func (s Snapshot) lowestAsk() decimal.Decimal  { return priceOf(s.Best(orderbook.Ask)) }
func (s Snapshot) highestAsk() decimal.Decimal { return priceOf(s.Worst(orderbook.Ask)) }

// priceOf is zero for a missing side.
func priceOf(o orderbook.Offer, ok bool) decimal.Decimal {
	if !ok {
		return decimal.Zero
	}
	return o.Price
}

// Window is the visible chart area.
type Window struct {
	Domain [2]float64 `json:"domain"`
	Range  [2]float64 `json:"range"`
}

// Derive computes the visible window for a snapshot and zoom half-width.
// It is a pure function of its arguments.
func Derive(s Snapshot, zoomDomain *float64, p Params) Window {
	var domain [2]float64
	if !s.TwoSided() {
		if len(s.Asks) == 0 {
			domain = [2]float64{0, price.Float(s.highestBid())}
		} else {
			domain = [2]float64{price.Float(s.lowestAsk()), scaled(s.highestAsk(), p.AskMarginFactor)}
		}
	} else {
		mid := price.Float(s.Mid)
		z := 0.0
		if zoomDomain != nil {
			z = *zoomDomain
		}
		domain = [2]float64{
			price.Clamp(mid-z, scaled(s.lowestBid(), p.BidMarginFactor), price.Float(s.highestBid())),
			price.Clamp(mid+z, price.Float(s.lowestAsk()), scaled(s.highestAsk(), p.AskMarginFactor)),
		}
	}
	return Window{Domain: domain, Range: [2]float64{0, maxVisibleVolume(s, domain)}}
}

func scaled(d decimal.Decimal, factor float64) float64 {
	return price.Float(d.Mul(decimal.NewFromFloat(factor)))
}

func maxVisibleVolume(s Snapshot, domain [2]float64) float64 {
	lo, hi := price.FromFloat(domain[0]), price.FromFloat(domain[1])
	best := decimal.Zero
	for _, curve := range [][]orderbook.CumulativeOffer{s.CumulativeBids, s.CumulativeAsks} {
		for _, o := range curve {
			if price.Within(o.Price, lo, hi) && o.Volume.GreaterThan(best) {
				best = o.Volume
			}
		}
	}
	return price.Float(best)
}

// MinZoomDomain is the tightest half-width a wheel event may reach.
func MinZoomDomain(s Snapshot, p Params) float64 {
	return (price.Float(s.Mid) - price.Float(s.highestBid())) * p.MinZoomFactor
}

// InitialZoomDomain picks the half-width shown after the book changes shape.
func InitialZoomDomain(s Snapshot, p Params) float64 {
	if !s.TwoSided() {
		if len(s.Asks) == 0 {
			return price.Float(s.highestBid())
		}
		return price.Float(s.lowestAsk())
	}
	mid := price.Float(s.Mid)
	candidate := math.Max(
		(mid-price.Float(s.highestBid()))*p.InitialZoomMultiplier,
		math.Max(
			(mid-price.Float(s.lowestBid()))/p.WorstSideDivisor,
			(price.Float(s.highestAsk())-mid)/p.WorstSideDivisor,
		),
	)
	if candidate > mid {
		return mid
	}
	return candidate
}

// ScaleZoom applies one wheel delta to a half-width: exponential scaling,
// then the numeric floor and ceiling, then minZoom, then [0, mid].
func ScaleZoom(zoomDomain, deltaY, minZoom, mid float64, p Params) float64 {
	v := math.Max(p.ZoomFloor, math.Min(p.ZoomCeiling, zoomDomain*math.Exp(deltaY/p.WheelSensitivity)))
	v = math.Max(v, minZoom)
	return price.Clamp(v, 0, mid)
}
