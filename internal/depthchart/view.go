package depthchart

import (
	"depthview/internal/market"
	"depthview/internal/orderbook"
	"depthview/internal/price"
)

// ViewModel is everything a renderer needs for one frame.
type ViewModel struct {
	Market         string                      `json:"market,omitempty"`
	IsLoading      bool                        `json:"is_loading"`
	Domain         [2]float64                  `json:"domain"`
	Range          [2]float64                  `json:"range"`
	MidPrice       float64                     `json:"mid_price"`
	ZoomDomain     *float64                    `json:"zoom_domain"`
	MinZoomDomain  float64                     `json:"min_zoom_domain"`
	IsScrolling    bool                        `json:"is_scrolling"`
	CumulativeBids []orderbook.CumulativeOffer `json:"cumulative_bids"`
	CumulativeAsks []orderbook.CumulativeOffer `json:"cumulative_asks"`
	Bids           []orderbook.Offer           `json:"bids"`
	Asks           []orderbook.Offer           `json:"asks"`
	LowestAsk      *orderbook.Offer            `json:"lowest_ask,omitempty"`
	HighestBid     *orderbook.Offer            `json:"highest_bid,omitempty"`
	BaseDecimals   int32                       `json:"base_decimals"`
	PriceDecimals  int32                       `json:"price_decimals"`
	MidPriceText   string                      `json:"mid_price_text,omitempty"`
	Quotes         []Quote                     `json:"quotes"`
}

// Quote is the best offer of one side formatted with the market's display
// precision. Taker is the trade direction that would fill it.
type Quote struct {
	Side   market.BA `json:"side"`
	Taker  market.BS `json:"taker"`
	Price  string    `json:"price"`
	Volume string    `json:"volume"`
}

// Quote returns the best offer resting on ba, or false when that side is empty.
func (c *Chart) Quote(ba market.BA) (Quote, bool) {
	side, err := orderbook.ParseSide(string(ba))
	if err != nil {
		return Quote{}, false
	}
	o, ok := c.snap.Best(side)
	if !ok {
		return Quote{}, false
	}
	return Quote{
		Side:   ba,
		Taker:  market.BAToBS(ba),
		Price:  c.market.FormatPrice(o.Price),
		Volume: c.market.FormatVolume(o.Volume),
	}, true
}

// View derives the view model from the current state without changing it.
func (c *Chart) View() ViewModel {
	w := Derive(c.snap, c.zoomDomain, c.params)
	vm := ViewModel{
		IsLoading:      !c.loaded,
		Domain:         w.Domain,
		Range:          w.Range,
		MidPrice:       price.Float(c.snap.Mid),
		MinZoomDomain:  MinZoomDomain(c.snap, c.params),
		IsScrolling:    c.isScrolling,
		CumulativeBids: nonNil(c.snap.CumulativeBids),
		CumulativeAsks: nonNil(c.snap.CumulativeAsks),
		Bids:           nonNil(c.snap.Bids),
		Asks:           nonNil(c.snap.Asks),
		BaseDecimals:   c.market.BaseDecimals(),
		PriceDecimals:  c.market.PriceDecimals(),
	}
	if c.market != (market.Market{}) {
		vm.Market = c.market.Key()
	}
	if c.zoomDomain != nil {
		z := *c.zoomDomain
		vm.ZoomDomain = &z
	}
	if o, ok := c.snap.Best(orderbook.Ask); ok {
		vm.LowestAsk = &o
	}
	if o, ok := c.snap.Best(orderbook.Bid); ok {
		vm.HighestBid = &o
	}
	if c.snap.TwoSided() {
		vm.MidPriceText = c.market.FormatPrice(c.snap.Mid)
	}
	vm.Quotes = []Quote{}
	for _, ba := range []market.BA{market.Bids, market.Asks} {
		if q, ok := c.Quote(ba); ok {
			vm.Quotes = append(vm.Quotes, q)
		}
	}
	return vm
}

func nonNil[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}
