package orderbook

import "depthview/internal/price"

// ResolveStats counts the offers dropped by ResolveCrossed.
type ResolveStats struct {
	BidsRemoved int
	AsksRemoved int
}

func (s ResolveStats) Total() int { return s.BidsRemoved + s.AsksRemoved }

// ResolveCrossed removes crossed offers from the best end of both sides.
// A bid and an ask at the same price cancel each other; an ask priced below
// the current best bid is dropped on its own. The walk stops at the first
// uncrossed pair. Inputs are never modified.
func ResolveCrossed(bids, asks []Offer) ([]Offer, []Offer) {
	b, a, _ := ResolveCrossedStats(bids, asks)
	return b, a
}

func ResolveCrossedStats(bids, asks []Offer) ([]Offer, []Offer, ResolveStats) {
	i, j := 0, 0
	for i < len(bids) && j < len(asks) {
		c := price.Cmp(bids[i].Price, asks[j].Price)
		if c < 0 {
			break
		}
		if c == 0 {
			i++
		}
		j++
	}
	return clone(bids[i:]), clone(asks[j:]), ResolveStats{BidsRemoved: i, AsksRemoved: j}
}

func clone(in []Offer) []Offer {
	out := make([]Offer, len(in))
	copy(out, in)
	return out
}
