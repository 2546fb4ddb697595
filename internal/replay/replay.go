// Package replay feeds a recorded session of book snapshots and input events
// through depth charts and writes every resulting view model.
//
// Input is JSON lines, one event per line:
//
//	{"type":"book","market":"WETH-USDC","bids":[{"price":"100","volume":"1"}],"asks":[...]}
//	{"type":"wheel","market":"WETH-USDC","delta_y":-120}
//	{"type":"pointer","market":"WETH-USDC","event":"enter"}
//
// Blank lines and lines starting with '#' are skipped.
package replay

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"depthview/internal/depthchart"
	"depthview/internal/infra/metrics"
	"depthview/internal/market"
	"depthview/internal/orderbook"
)

type Event struct {
	Type   string            `json:"type"`
	Market string            `json:"market"`
	Bids   []orderbook.Offer `json:"bids,omitempty"`
	Asks   []orderbook.Offer `json:"asks,omitempty"`
	DeltaY float64           `json:"delta_y,omitempty"`
	Event  string            `json:"event,omitempty"`
}

// Frame is one output line.
type Frame struct {
	Line    int                  `json:"line"`
	Type    string               `json:"type"`
	Market  string               `json:"market"`
	Applied *bool                `json:"applied,omitempty"`
	View    depthchart.ViewModel `json:"view"`
}

type Stats struct {
	Lines    int
	Books    int
	Wheels   int
	Applied  int
	Pointers int
}

type Runner struct {
	params  depthchart.Params
	markets func(string) (market.Market, bool)
	logger  zerolog.Logger
	charts  map[string]*depthchart.Chart
}

func New(params depthchart.Params, markets func(string) (market.Market, bool), logger zerolog.Logger) *Runner {
	if markets == nil {
		markets = func(string) (market.Market, bool) { return market.Market{}, false }
	}
	return &Runner{params: params, markets: markets, logger: logger, charts: make(map[string]*depthchart.Chart)}
}

// RunFile replays path and writes frames to out.
func (r *Runner) RunFile(ctx context.Context, path string, out io.Writer) (Stats, error) {
	f, err := os.Open(path)
	if err != nil {
		return Stats{}, err
	}
	defer f.Close()
	return r.Run(ctx, f, out)
}

func (r *Runner) Run(ctx context.Context, in io.Reader, out io.Writer) (Stats, error) {
	var st Stats
	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 64*1024), 16<<20)
	enc := json.NewEncoder(out)
	line := 0
	for sc.Scan() {
		line++
		if err := ctx.Err(); err != nil {
			return st, err
		}
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		st.Lines++
		var ev Event
		if err := json.Unmarshal([]byte(text), &ev); err != nil {
			return st, fmt.Errorf("line %d: %w", line, err)
		}
		fr, err := r.apply(ev, &st)
		if err != nil {
			return st, fmt.Errorf("line %d: %w", line, err)
		}
		fr.Line = line
		if err := enc.Encode(fr); err != nil {
			return st, fmt.Errorf("write frame: %w", err)
		}
	}
	if err := sc.Err(); err != nil {
		return st, err
	}
	r.logger.Info().
		Int("lines", st.Lines).Int("books", st.Books).
		Int("wheels", st.Wheels).Int("applied", st.Applied).
		Int("pointers", st.Pointers).Int("charts", len(r.charts)).
		Msg("replay finished")
	return st, nil
}

func (r *Runner) apply(ev Event, st *Stats) (Frame, error) {
	if ev.Market == "" {
		return Frame{}, fmt.Errorf("%s event without market", ev.Type)
	}
	fr := Frame{Type: ev.Type, Market: ev.Market}
	switch ev.Type {
	case "book":
		book := orderbook.Book{Bids: ev.Bids, Asks: ev.Asks}
		if err := book.Validate(); err != nil {
			return fr, err
		}
		c := r.chart(ev.Market)
		fr.View = c.Update(book)
		metrics.ViewDerivationsTotal.Inc()
		st.Books++
	case "wheel":
		c, ok := r.charts[ev.Market]
		if !ok {
			return fr, fmt.Errorf("wheel before first book for %s", ev.Market)
		}
		applied := c.Zoom(ev.DeltaY)
		fr.Applied = &applied
		fr.View = c.View()
		st.Wheels++
		if applied {
			st.Applied++
			metrics.ZoomEventsTotal.WithLabelValues("applied").Inc()
		} else {
			metrics.ZoomEventsTotal.WithLabelValues("ignored").Inc()
		}
	case "pointer":
		c, ok := r.charts[ev.Market]
		if !ok {
			return fr, fmt.Errorf("pointer before first book for %s", ev.Market)
		}
		pe, err := depthchart.ParsePointerEvent(ev.Event)
		if err != nil {
			return fr, err
		}
		if err := c.Pointer(pe); err != nil {
			return fr, err
		}
		fr.View = c.View()
		st.Pointers++
	default:
		return fr, fmt.Errorf("unknown event type %q", ev.Type)
	}
	return fr, nil
}

func (r *Runner) chart(key string) *depthchart.Chart {
	if c, ok := r.charts[key]; ok {
		return c
	}
	m, ok := r.markets(key)
	if !ok {
		m = market.FromKey(key)
	}
	c := depthchart.New(
		depthchart.WithParams(r.params),
		depthchart.WithMarket(m),
		depthchart.WithLogger(r.logger.With().Str("market", key).Logger()),
	)
	r.charts[key] = c
	return c
}
