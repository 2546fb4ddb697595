package orderbook

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func offer(p, v string) Offer {
	return Offer{Price: decimal.RequireFromString(p), Volume: decimal.RequireFromString(v)}
}

func prices(offers []Offer) []string {
	out := make([]string, len(offers))
	for i, o := range offers {
		out[i] = o.Price.String()
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestResolveCrossed(t *testing.T) {
	cases := []struct {
		name           string
		bids, asks     []Offer
		wantB, wantA   []string
		removedB, remA int
	}{
		// The best bid 100 is above ask 99, so only the ask goes; the walk
		// then stops at 100 < 101 and bid 99 survives.
		{
			name:  "ask under best bid",
			bids:  []Offer{offer("100", "1"), offer("99", "1")},
			asks:  []Offer{offer("99", "1"), offer("101", "1")},
			wantB: []string{"100", "99"},
			wantA: []string{"101"},
			remA:  1,
		},
		{
			name:  "bid above every ask",
			bids:  []Offer{offer("105", "2")},
			asks:  []Offer{offer("100", "1"), offer("102", "1")},
			wantB: []string{"105"},
			wantA: []string{},
			remA:  2,
		},
		{
			name:     "mutual cancel at best",
			bids:     []Offer{offer("100", "1"), offer("98", "1")},
			asks:     []Offer{offer("100", "1"), offer("101", "1")},
			wantB:    []string{"98"},
			wantA:    []string{"101"},
			removedB: 1,
			remA:     1,
		},
		{
			name:  "not crossed",
			bids:  []Offer{offer("99", "1")},
			asks:  []Offer{offer("100", "1")},
			wantB: []string{"99"},
			wantA: []string{"100"},
		},
		{
			name:  "empty bids",
			asks:  []Offer{offer("100", "1")},
			wantB: []string{},
			wantA: []string{"100"},
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			b, a, st := ResolveCrossedStats(c.bids, c.asks)
			if !equalStrings(prices(b), c.wantB) || !equalStrings(prices(a), c.wantA) {
				t.Fatalf("got bids=%v asks=%v, want bids=%v asks=%v", prices(b), prices(a), c.wantB, c.wantA)
			}
			if st.BidsRemoved != c.removedB || st.AsksRemoved != c.remA {
				t.Fatalf("unexpected stats %+v", st)
			}
			if len(b) > 0 && len(a) > 0 && !b[0].Price.LessThan(a[0].Price) {
				t.Fatalf("book still crossed: %s >= %s", b[0].Price, a[0].Price)
			}
		})
	}
}

func TestResolveCrossedDoesNotMutateInput(t *testing.T) {
	bids := []Offer{offer("100", "1"), offer("99", "1")}
	asks := []Offer{offer("99", "1"), offer("101", "1")}
	_, _ = ResolveCrossed(bids, asks)
	if len(bids) != 2 || len(asks) != 2 || !asks[0].Price.Equal(decimal.NewFromInt(99)) {
		t.Fatalf("input slices were modified: bids=%v asks=%v", prices(bids), prices(asks))
	}
	b, _ := ResolveCrossed(bids, asks)
	b[0].Price = decimal.NewFromInt(1)
	if !bids[0].Price.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("result aliases caller storage")
	}
}

func TestCumulative(t *testing.T) {
	in := []Offer{offer("100", "1.5"), offer("99", "0.25"), offer("98", "0"), offer("97", "3")}
	out := Cumulative(in, false)
	want := []string{"1.5", "1.75", "1.75", "4.75"}
	if len(out) != len(in) {
		t.Fatalf("length mismatch: %d != %d", len(out), len(in))
	}
	total := decimal.Zero
	for i, o := range out {
		if o.Volume.String() != want[i] {
			t.Errorf("index %d: volume %s, want %s", i, o.Volume, want[i])
		}
		if !o.Price.Equal(in[i].Price) {
			t.Errorf("index %d: price changed", i)
		}
		if i > 0 && o.Volume.LessThan(out[i-1].Volume) {
			t.Errorf("index %d: volume decreased", i)
		}
		total = total.Add(in[i].Volume)
	}
	if !out[len(out)-1].Volume.Equal(total) {
		t.Fatalf("final volume %s, want %s", out[len(out)-1].Volume, total)
	}
	if len(Cumulative(nil, true)) != 0 {
		t.Fatalf("empty input should give empty output")
	}
}

func TestCumulativeReversedSameScan(t *testing.T) {
	in := []Offer{offer("100", "1"), offer("101", "2")}
	a, b := Cumulative(in, true), Cumulative(in, false)
	for i := range a {
		if !a[i].Volume.Equal(b[i].Volume) {
			t.Fatalf("reversed flag changed output at %d", i)
		}
	}
}

func TestBookValidate(t *testing.T) {
	ok := Book{Bids: []Offer{offer("100", "1"), offer("100", "1"), offer("99", "1")}, Asks: []Offer{offer("101", "1"), offer("102", "1")}}
	if err := ok.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	bad := Book{Asks: []Offer{offer("102", "1"), offer("101", "1")}}
	if err := bad.Validate(); !errors.Is(err, ErrUnsorted) {
		t.Fatalf("expected ErrUnsorted, got %v", err)
	}
	neg := Book{Bids: []Offer{offer("100", "-1")}}
	if err := neg.Validate(); !errors.Is(err, ErrNegativeVolume) {
		t.Fatalf("expected ErrNegativeVolume, got %v", err)
	}
}

func TestBestWorst(t *testing.T) {
	b := Book{Bids: []Offer{offer("100", "1"), offer("90", "1")}}
	if o, ok := b.Best(Bid); !ok || o.Price.String() != "100" {
		t.Fatalf("best bid = %v", o.Price)
	}
	if o, ok := b.Worst(Bid); !ok || o.Price.String() != "90" {
		t.Fatalf("worst bid = %v", o.Price)
	}
	if _, ok := b.Best(Ask); ok {
		t.Fatalf("expected no asks")
	}
	if s, err := ParseSide("asks"); err != nil || s != Ask {
		t.Fatalf("ParseSide(asks) = %v, %v", s, err)
	}
}

func TestOfferJSONNumbers(t *testing.T) {
	b, err := json.Marshal(Offer{ID: "a1", Price: decimal.RequireFromString("101.25"), Volume: decimal.RequireFromString("0.5")})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `{"id":"a1","price":101.25,"volume":0.5}` {
		t.Fatalf("offer json = %s", b)
	}
	b, _ = json.Marshal(CumulativeOffer{Price: decimal.RequireFromString("100"), Volume: decimal.RequireFromString("1.75")})
	if string(b) != `{"price":100,"volume":1.75}` {
		t.Fatalf("cumulative json = %s", b)
	}

	// quoted and bare numbers both decode
	var in []Offer
	if err := json.Unmarshal([]byte(`[{"price":"100","volume":1},{"price":99.5,"volume":"2"}]`), &in); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if in[0].Price.String() != "100" || in[1].Price.String() != "99.5" || in[1].Volume.String() != "2" {
		t.Fatalf("decoded %+v", in)
	}
}
