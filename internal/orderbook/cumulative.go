package orderbook

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// CumulativeOffer is one point of a depth curve.
type CumulativeOffer struct {
	Price  decimal.Decimal `json:"price"`
	Volume decimal.Decimal `json:"volume"`
}

func (c CumulativeOffer) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Price  json.Number `json:"price"`
		Volume json.Number `json:"volume"`
	}{number(c.Price), number(c.Volume)})
}

// Cumulative turns a best-first side into running volume totals, so each
// point holds the volume resting at its price or better. Both sides are
// stored best-first; reversed names the ask side and scans the same way.
func Cumulative(offers []Offer, reversed bool) []CumulativeOffer {
	out := make([]CumulativeOffer, len(offers))
	acc := decimal.Zero
	for i, o := range offers {
		acc = acc.Add(o.Volume)
		out[i] = CumulativeOffer{Price: o.Price, Volume: acc}
	}
	return out
}
