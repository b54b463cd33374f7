// Package render composites the annotation layer on top of the chart, one frame
// at a time, in a fixed layer order.
package render

import (
	log "github.com/sirupsen/logrus"

	"LiveChartBoard/internal/geometry"
)

var logger = log.WithField("component", "render")

// Stroke describes how an outline is painted.
type Stroke struct {
	Color   string
	Width   float64
	Opacity float64
	// Dash is an on/off pattern in pixels, nil for a solid stroke.
	Dash []float64
}

// Fill describes how a closed area is painted.
type Fill struct {
	Color   string
	Opacity float64
}

// Canvas is the pixel drawing surface of one frame.
type Canvas interface {
	Size() (width, height float64)
	Clear()

	Polyline(points []geometry.Point, stroke Stroke)
	Polygon(points []geometry.Point, fill Fill)
	Circle(center geometry.Point, radius float64, stroke Stroke, fill *Fill)
	Text(at geometry.Point, text string, color string)
	Sticker(box geometry.Rect, emoji string)
}

var dashed = []float64{6, 4}

func solid(color string, width float64) Stroke {
	return Stroke{Color: color, Width: width, Opacity: 1}
}
