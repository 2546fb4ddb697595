package market

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestSideConversions(t *testing.T) {
	if BAToBS(Asks) != Buy || BAToBS(Bids) != Sell {
		t.Fatalf("BAToBS mapping wrong")
	}
	if BSToBA(Buy) != Asks || BSToBA(Sell) != Bids {
		t.Fatalf("BSToBA mapping wrong")
	}
	for _, ba := range []BA{Asks, Bids} {
		if BSToBA(BAToBS(ba)) != ba {
			t.Fatalf("round trip failed for %s", ba)
		}
	}
}

func TestFormat(t *testing.T) {
	m := Market{
		Base:  Token{Symbol: "WETH", DisplayDecimals: 4},
		Quote: Token{Symbol: "USDC", PriceDisplayDecimals: 2},
	}
	if got := m.FormatPrice(decimal.RequireFromString("1999.555")); got != "1999.56" {
		t.Fatalf("FormatPrice = %s", got)
	}
	if got := m.FormatVolume(decimal.RequireFromString("1.5")); got != "1.5000" {
		t.Fatalf("FormatVolume = %s", got)
	}
	if m.Key() != "WETH-USDC" {
		t.Fatalf("Key = %s", m.Key())
	}
}

func TestFromKey(t *testing.T) {
	m := FromKey("WBTC-DAI")
	if m.Base.Symbol != "WBTC" || m.Quote.Symbol != "DAI" || m.Key() != "WBTC-DAI" {
		t.Fatalf("FromKey = %+v", m)
	}
}
