package market

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// BA names a book side the way offer lists are keyed.
type BA string

// BS names a trade direction from the taker's point of view.
type BS string

const (
	Asks BA = "asks"
	Bids BA = "bids"

	Buy  BS = "buy"
	Sell BS = "sell"
)

// BAToBS maps the side an offer rests on to the trade that would take it.
func BAToBS(ba BA) BS {
	if ba == Asks {
		return Buy
	}
	return Sell
}

func BSToBA(bs BS) BA {
	if bs == Buy {
		return Asks
	}
	return Bids
}

type Token struct {
	Symbol               string `json:"symbol" yaml:"symbol"`
	DisplayDecimals      int32  `json:"display_decimals" yaml:"display_decimals"`
	PriceDisplayDecimals int32  `json:"price_display_decimals" yaml:"price_display_decimals"`
}

type Market struct {
	Base        Token `json:"base" yaml:"base"`
	Quote       Token `json:"quote" yaml:"quote"`
	TickSpacing int64 `json:"tick_spacing" yaml:"tick_spacing"`
}

// Key is the identifier charts are registered under, e.g. "WETH-USDC".
func (m Market) Key() string { return fmt.Sprintf("%s-%s", m.Base.Symbol, m.Quote.Symbol) }

// FromKey builds bare metadata from a "BASE-QUOTE" key.
func FromKey(key string) Market {
	base, quote, _ := strings.Cut(key, "-")
	return Market{Base: Token{Symbol: base}, Quote: Token{Symbol: quote}}
}

// BaseDecimals is the precision volumes are displayed with.
func (m Market) BaseDecimals() int32 { return m.Base.DisplayDecimals }

// PriceDecimals is the precision prices are displayed with.
func (m Market) PriceDecimals() int32 { return m.Quote.PriceDisplayDecimals }

func (m Market) FormatPrice(d decimal.Decimal) string  { return d.StringFixed(m.PriceDecimals()) }
func (m Market) FormatVolume(d decimal.Decimal) string { return d.StringFixed(m.BaseDecimals()) }
