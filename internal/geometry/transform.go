package geometry

// Viewport describes the chart panel the overlay is drawn on: the canvas size in
// pixels and the visible price range of the owning chart.
type Viewport struct {
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	MinPrice float64 `json:"minPrice"`
	MaxPrice float64 `json:"maxPrice"`
}

// NewViewport creates a Viewport.
func NewViewport(width, height, minPrice, maxPrice float64) Viewport {
	return Viewport{Width: width, Height: height, MinPrice: minPrice, MaxPrice: maxPrice}
}

// PriceToY maps a price to a pixel row. The top of the panel is maxPrice and the
// bottom is minPrice. A degenerate range maps every price to the vertical center.
func PriceToY(price, chartHeight, minPrice, maxPrice float64) float64 {
	span := maxPrice - minPrice
	if span == 0 {
		return chartHeight / 2
	}
	return (maxPrice - price) / span * chartHeight
}

// YToPrice is the inverse of PriceToY.
func YToPrice(y, chartHeight, minPrice, maxPrice float64) float64 {
	if chartHeight == 0 {
		return minPrice
	}
	return maxPrice - y/chartHeight*(maxPrice-minPrice)
}

func (v Viewport) PriceToY(price float64) float64 {
	return PriceToY(price, v.Height, v.MinPrice, v.MaxPrice)
}

func (v Viewport) YToPrice(y float64) float64 {
	return YToPrice(y, v.Height, v.MinPrice, v.MaxPrice)
}

// Bounds returns the canvas rectangle.
func (v Viewport) Bounds() Rect {
	return Rect{Width: v.Width, Height: v.Height}
}

// Valid reports whether the viewport can be drawn on.
func (v Viewport) Valid() bool {
	return v.Width > 0 && v.Height > 0
}
