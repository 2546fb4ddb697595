package depthchart

import "fmt"

// maxSafeInteger is the largest float64 n such that n and n+1 are both exact.
const maxSafeInteger = 1<<53 - 1

// Params are the tuning constants of the zoom window.
type Params struct {
	// InitialZoomMultiplier scales the bid/mid spread when picking the
	// initial half-width.
	InitialZoomMultiplier float64 `yaml:"initial_zoom_multiplier"`
	// MinZoomFactor scales the bid/mid spread into the tightest zoom allowed.
	MinZoomFactor float64 `yaml:"min_zoom_factor"`
	// WorstSideDivisor compresses the distance from mid to each side's worst price.
	WorstSideDivisor float64 `yaml:"worst_side_divisor"`
	BidMarginFactor  float64 `yaml:"bid_margin_factor"`
	AskMarginFactor  float64 `yaml:"ask_margin_factor"`
	WheelSensitivity float64 `yaml:"wheel_sensitivity"`
	ZoomFloor        float64 `yaml:"zoom_floor"`
	ZoomCeiling      float64 `yaml:"zoom_ceiling"`
}

func DefaultParams() Params {
	return Params{
		InitialZoomMultiplier: 13,
		MinZoomFactor:         1.15,
		WorstSideDivisor:      2,
		BidMarginFactor:       0.9,
		AskMarginFactor:       1.1,
		WheelSensitivity:      1000,
		ZoomFloor:             1e-18,
		ZoomCeiling:           maxSafeInteger,
	}
}

func (p Params) Validate() error {
	switch {
	case p.InitialZoomMultiplier <= 0:
		return fmt.Errorf("initial_zoom_multiplier must be > 0")
	case p.MinZoomFactor <= 0:
		return fmt.Errorf("min_zoom_factor must be > 0")
	case p.WorstSideDivisor <= 0:
		return fmt.Errorf("worst_side_divisor must be > 0")
	case p.BidMarginFactor <= 0 || p.BidMarginFactor > 1:
		return fmt.Errorf("bid_margin_factor must be in (0, 1]")
	case p.AskMarginFactor < 1:
		return fmt.Errorf("ask_margin_factor must be >= 1")
	case p.WheelSensitivity <= 0:
		return fmt.Errorf("wheel_sensitivity must be > 0")
	case p.ZoomFloor <= 0 || p.ZoomCeiling <= p.ZoomFloor:
		return fmt.Errorf("zoom_floor must be > 0 and below zoom_ceiling")
	}
	return nil
}
