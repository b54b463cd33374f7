package render

import (
	"math"
)

// Band is the price range of a retracement. Low and High are the two extremes
// of the measured move; IsUp records the draw direction.
type Band struct {
	Low  float64
	High float64
	IsUp bool
}

// RetracementBand derives the band from the anchor and drag prices. Swapping the
// two points yields the same Low and High, only IsUp flips.
func RetracementBand(anchorPrice, dragPrice float64) Band {
	return Band{
		Low:  math.Min(anchorPrice, dragPrice),
		High: math.Max(anchorPrice, dragPrice),
		IsUp: dragPrice > anchorPrice,
	}
}

// Price returns the price of a retracement ratio. Level 0 is the top of the
// move and level 1 its bottom, whichever way the study was drawn.
func (b Band) Price(ratio float64) float64 {
	return b.High - ratio*(b.High-b.Low)
}

// Prices returns the price of every level, in the order of levels.
func (b Band) Prices(levels []float64) []float64 {
	out := make([]float64, len(levels))
	for i, r := range levels {
		out[i] = b.Price(r)
	}
	return out
}

// Projection returns anchor + ratio * (drag - anchor), used by the studies
// whose levels extend past the measured move.
func Projection(anchor, drag, ratio float64) float64 {
	return anchor + ratio*(drag-anchor)
}
