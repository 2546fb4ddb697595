package orderbook

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrUnsorted       = errors.New("offers not sorted")
	ErrNegativeVolume = errors.New("negative volume")
	ErrUnknownSide    = errors.New("unknown side")
)

type Side int

const (
	Bid Side = iota
	Ask
)

func (s Side) String() string {
	if s == Ask {
		return "ask"
	}
	return "bid"
}

func ParseSide(s string) (Side, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "bid", "bids":
		return Bid, nil
	case "ask", "asks":
		return Ask, nil
	}
	return Bid, fmt.Errorf("%w: %q", ErrUnknownSide, s)
}

// Offer is a resting order. ID and Maker are opaque to the chart.
type Offer struct {
	ID     string          `json:"id,omitempty"`
	Maker  string          `json:"maker,omitempty"`
	Price  decimal.Decimal `json:"price"`
	Volume decimal.Decimal `json:"volume"`
}

// MarshalJSON writes price and volume as JSON numbers so they line up with
// the float fields of the view model. Decoding accepts numbers and strings.
func (o Offer) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID     string      `json:"id,omitempty"`
		Maker  string      `json:"maker,omitempty"`
		Price  json.Number `json:"price"`
		Volume json.Number `json:"volume"`
	}{o.ID, o.Maker, number(o.Price), number(o.Volume)})
}

func number(d decimal.Decimal) json.Number { return json.Number(d.String()) }

type Book struct {
	Bids []Offer `json:"bids"` // sorted desc by price
	Asks []Offer `json:"asks"` // sorted asc by price
}

func (b Book) TwoSided() bool { return len(b.Bids) > 0 && len(b.Asks) > 0 }

func (b Book) side(s Side) []Offer {
	if s == Ask {
		return b.Asks
	}
	return b.Bids
}

// Best returns the first offer of a side: highest bid or lowest ask.
func (b Book) Best(s Side) (Offer, bool) {
	offers := b.side(s)
	if len(offers) == 0 {
		return Offer{}, false
	}
	return offers[0], true
}

// Worst returns the last offer of a side: lowest bid or highest ask.
func (b Book) Worst(s Side) (Offer, bool) {
	offers := b.side(s)
	if len(offers) == 0 {
		return Offer{}, false
	}
	return offers[len(offers)-1], true
}

// Validate checks the ordering and volume preconditions the chart relies on.
// Equal neighbouring prices are allowed.
func (b Book) Validate() error {
	for i, o := range b.Bids {
		if o.Volume.IsNegative() {
			return fmt.Errorf("bid %d: %w", i, ErrNegativeVolume)
		}
		if i > 0 && o.Price.GreaterThan(b.Bids[i-1].Price) {
			return fmt.Errorf("bid %d priced above bid %d: %w", i, i-1, ErrUnsorted)
		}
	}
	for i, o := range b.Asks {
		if o.Volume.IsNegative() {
			return fmt.Errorf("ask %d: %w", i, ErrNegativeVolume)
		}
		if i > 0 && o.Price.LessThan(b.Asks[i-1].Price) {
			return fmt.Errorf("ask %d priced below ask %d: %w", i, i-1, ErrUnsorted)
		}
	}
	return nil
}
