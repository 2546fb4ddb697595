package replay

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"depthview/internal/depthchart"
)

const session = `
# two-sided book, zoom out to the mid, then lose the asks
{"type":"book","market":"ETH-DAI","bids":[{"price":"100","volume":"1"},{"price":"95","volume":"2"},{"price":"90","volume":"3"}],"asks":[{"price":"102","volume":"1"},{"price":"105","volume":"2"},{"price":"110","volume":"4"}]}
{"type":"wheel","market":"ETH-DAI","delta_y":5000}
{"type":"pointer","market":"ETH-DAI","event":"enter"}
{"type":"book","market":"ETH-DAI","bids":[{"price":"100","volume":"1"},{"price":"90","volume":"2"}],"asks":[]}
{"type":"wheel","market":"ETH-DAI","delta_y":-100}
`

func TestReplaySession(t *testing.T) {
	var out bytes.Buffer
	r := New(depthchart.DefaultParams(), nil, zerolog.Nop())
	st, err := r.Run(context.Background(), strings.NewReader(session), &out)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if st.Lines != 5 || st.Books != 2 || st.Wheels != 2 || st.Applied != 1 || st.Pointers != 1 {
		t.Fatalf("stats = %+v", st)
	}

	var frames []Frame
	sc := bufio.NewScanner(&out)
	for sc.Scan() {
		var f Frame
		if err := json.Unmarshal(sc.Bytes(), &f); err != nil {
			t.Fatalf("frame: %v", err)
		}
		frames = append(frames, f)
	}
	if len(frames) != 5 {
		t.Fatalf("frames = %d", len(frames))
	}
	if frames[0].Line != 3 || frames[0].View.Domain != [2]float64{88, 114} {
		t.Fatalf("first frame %+v", frames[0])
	}
	if frames[1].Applied == nil || !*frames[1].Applied || frames[1].View.Domain != [2]float64{81, 121} {
		t.Fatalf("wheel frame %+v", frames[1])
	}
	if !frames[2].View.IsScrolling {
		t.Fatalf("pointer frame should be scrolling")
	}
	if frames[4].Applied == nil || *frames[4].Applied || frames[4].View.Domain != [2]float64{0, 100} {
		t.Fatalf("one-sided wheel frame %+v", frames[4])
	}
}

func TestReplayErrorsCarryLine(t *testing.T) {
	cases := map[string]string{
		"wheel before book": `{"type":"wheel","market":"X-Y","delta_y":1}`,
		"unknown type":      `{"type":"trade","market":"X-Y"}`,
		"bad json":          `{"type":`,
		"unsorted asks":     `{"type":"book","market":"X-Y","asks":[{"price":"2","volume":"1"},{"price":"1","volume":"1"}]}`,
	}
	for name, line := range cases {
		t.Run(name, func(t *testing.T) {
			r := New(depthchart.DefaultParams(), nil, zerolog.Nop())
			_, err := r.Run(context.Background(), strings.NewReader("\n"+line+"\n"), &bytes.Buffer{})
			if err == nil || !strings.HasPrefix(err.Error(), "line 2:") {
				t.Fatalf("expected line 2 error, got %v", err)
			}
		})
	}
}
