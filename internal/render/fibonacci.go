package render

import (
	"fmt"
	"math"

	"LiveChartBoard/internal/geometry"
	"LiveChartBoard/internal/state"
)

// bandColors cycles over the retracement bands, top to bottom.
var bandColors = []string{
	"#787b86", "#f23645", "#ff9800", "#4caf50", "#089981", "#00bcd4", "#2196f3", "#9c27b0",
}

const (
	bandOpacity  = 0.12
	handleRadius = 5.0

	// channelMinSpacing keeps the channel readable for nearly flat base lines.
	channelMinSpacing = 24.0
	spiralTurns       = 12
	arcSegments       = 48
)

func formatPrice(price float64) string {
	return fmt.Sprintf("%.2f", price)
}

func levelLabel(ratio, price float64) string {
	return fmt.Sprintf("%g (%s)", ratio, formatPrice(price))
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

// drawFibonacci renders one study. opacity scales every stroke and fill, which
// is how the live preview is told apart from committed studies.
func drawFibonacci(cv Canvas, vp geometry.Viewport, d state.FibonacciDrawing, opacity float64) {
	if !d.Visible || len(d.Points) < 2 {
		return
	}

	switch d.Type {
	case state.FibRetracement:
		drawRetracement(cv, vp, d, opacity)
	case state.FibTrendExtension:
		drawTrendExtension(cv, vp, d, opacity)
	case state.FibChannel:
		drawChannel(cv, vp, d, opacity)
	case state.FibTimeZone:
		drawTimeZone(cv, vp, d, opacity, d.Anchor())
	case state.FibTrendTime:
		drawTrendTime(cv, vp, d, opacity)
	case state.FibSpeedFan:
		drawSpeedFan(cv, vp, d, opacity)
	case state.FibCircles:
		drawCircles(cv, d, opacity)
	case state.FibSpiral:
		drawSpiral(cv, d, opacity)
	case state.FibArcs:
		drawArcs(cv, d, opacity)
	case state.FibWedge:
		drawWedge(cv, vp, d, opacity)
	default:
		logger.Debugf("unknown fibonacci kind %q", d.Type)
		return
	}

	for _, p := range d.Points {
		drawHandle(cv, p, d.Color, opacity)
	}
}

func drawHandle(cv Canvas, p geometry.Point, color string, opacity float64) {
	fill := Fill{Color: "#ffffff", Opacity: opacity}
	cv.Circle(p, handleRadius, Stroke{Color: color, Width: 1.5, Opacity: opacity}, &fill)
}

func trendLine(cv Canvas, a, b geometry.Point, color string, opacity float64) {
	cv.Polyline([]geometry.Point{a, b}, Stroke{Color: color, Width: 1, Opacity: opacity, Dash: dashed})
}

// horizontalSpan returns the x extent of level lines: the studied range, or the
// rest of the canvas when both points share a column.
func horizontalSpan(vp geometry.Viewport, a, b geometry.Point) (float64, float64) {
	left, right := math.Min(a.X, b.X), math.Max(a.X, b.X)
	if right-left < 1 {
		right = vp.Width
	}
	return left, right
}

func drawRetracement(cv Canvas, vp geometry.Viewport, d state.FibonacciDrawing, opacity float64) {
	anchor, drag := d.Anchor(), d.Drag()
	band := RetracementBand(vp.YToPrice(anchor.Y), vp.YToPrice(drag.Y))
	left, right := horizontalSpan(vp, anchor, drag)

	prices := band.Prices(d.Levels)
	ys := make([]float64, len(prices))
	for i, price := range prices {
		ys[i] = vp.PriceToY(price)
	}

	for i := 0; i+1 < len(ys); i++ {
		cv.Polygon([]geometry.Point{
			{X: left, Y: ys[i]},
			{X: right, Y: ys[i]},
			{X: right, Y: ys[i+1]},
			{X: left, Y: ys[i+1]},
		}, Fill{Color: bandColors[i%len(bandColors)], Opacity: bandOpacity * opacity})
	}

	for i, y := range ys {
		color := bandColors[i%len(bandColors)]
		cv.Polyline([]geometry.Point{{X: left, Y: y}, {X: right, Y: y}}, Stroke{Color: color, Width: 1, Opacity: opacity})
		cv.Text(geometry.Pt(left+4, y-3), levelLabel(d.Levels[i], prices[i]), color)
	}

	trendLine(cv, anchor, drag, d.Color, opacity)
}

func drawTrendExtension(cv Canvas, vp geometry.Viewport, d state.FibonacciDrawing, opacity float64) {
	anchor, drag := d.Anchor(), d.Drag()
	anchorPrice, dragPrice := vp.YToPrice(anchor.Y), vp.YToPrice(drag.Y)
	left := math.Min(anchor.X, drag.X)

	for i, r := range d.Levels {
		price := Projection(anchorPrice, dragPrice, r)
		y := vp.PriceToY(price)
		color := bandColors[i%len(bandColors)]
		cv.Polyline([]geometry.Point{{X: left, Y: y}, {X: vp.Width, Y: y}}, Stroke{Color: color, Width: 1, Opacity: opacity})
		cv.Text(geometry.Pt(left+4, y-3), levelLabel(r, price), color)
	}
	trendLine(cv, anchor, drag, d.Color, opacity)
}

func drawChannel(cv Canvas, vp geometry.Viewport, d state.FibonacciDrawing, opacity float64) {
	anchor, drag := d.Anchor(), d.Drag()
	spacing := math.Max(math.Abs(drag.Y-anchor.Y), channelMinSpacing)

	for i, r := range d.Levels {
		offset := geometry.Pt(0, r*spacing)
		a, b := geometry.ExtendLine(anchor.Add(offset), drag.Add(offset), vp.Width, vp.Height)
		color := bandColors[i%len(bandColors)]
		cv.Polyline([]geometry.Point{a, b}, Stroke{Color: color, Width: 1, Opacity: opacity})
		cv.Text(geometry.Pt(math.Max(a.X, b.X)-40, anchor.Y+offset.Y-3), fmt.Sprintf("%g", r), color)
	}
}

// drawTimeZone draws vertical lines at Fibonacci multiples of the anchor to drag
// column distance, starting at origin.
func drawTimeZone(cv Canvas, vp geometry.Viewport, d state.FibonacciDrawing, opacity float64, origin geometry.Point) {
	unit := d.Drag().X - d.Anchor().X
	for i, r := range d.Levels {
		if i > 0 && math.Abs(unit) < 1 {
			break
		}
		x := origin.X + r*unit
		if x < 0 || x > vp.Width {
			continue
		}
		color := bandColors[i%len(bandColors)]
		cv.Polyline([]geometry.Point{{X: x, Y: 0}, {X: x, Y: vp.Height}}, Stroke{Color: color, Width: 1, Opacity: opacity})
		cv.Text(geometry.Pt(x+3, 12), fmt.Sprintf("%g", r), color)
	}
}

// drawTrendTime projects the time zones from the drag point.
func drawTrendTime(cv Canvas, vp geometry.Viewport, d state.FibonacciDrawing, opacity float64) {
	drawTimeZone(cv, vp, d, opacity, d.Drag())
	trendLine(cv, d.Anchor(), d.Drag(), d.Color, opacity)
}

func drawSpeedFan(cv Canvas, vp geometry.Viewport, d state.FibonacciDrawing, opacity float64) {
	anchor, drag := d.Anchor(), d.Drag()
	delta := drag.Sub(anchor)

	for i, r := range d.Levels {
		color := bandColors[i%len(bandColors)]
		stroke := Stroke{Color: color, Width: 1, Opacity: opacity}

		price := geometry.Pt(drag.X, anchor.Y+r*delta.Y)
		if price != anchor {
			cv.Polyline([]geometry.Point{anchor, geometry.ExtendRay(anchor, price, vp.Width, vp.Height)}, stroke)
		}
		span := geometry.Pt(anchor.X+r*delta.X, drag.Y)
		if span != anchor && r != 1 {
			cv.Polyline([]geometry.Point{anchor, geometry.ExtendRay(anchor, span, vp.Width, vp.Height)}, stroke)
		}
	}

	cv.Polyline(geometry.Bounds(d.Points).Outline(), Stroke{Color: d.Color, Width: 1, Opacity: opacity * 0.5})
}

func drawCircles(cv Canvas, d state.FibonacciDrawing, opacity float64) {
	anchor := d.Anchor()
	radius := anchor.Distance(d.Drag())
	for i, r := range d.Levels {
		cv.Circle(anchor, r*radius, Stroke{Color: bandColors[i%len(bandColors)], Width: 1, Opacity: opacity}, nil)
	}
	trendLine(cv, anchor, d.Drag(), d.Color, opacity)
}

func drawSpiral(cv Canvas, d state.FibonacciDrawing, opacity float64) {
	anchor, drag := d.Anchor(), d.Drag()
	radius := anchor.Distance(drag)
	if radius < 1 {
		return
	}
	scale := 1.0
	if len(d.Levels) > 0 && d.Levels[0] > 0 {
		scale = d.Levels[0]
	}
	phase := toRadians(geometry.Angle(anchor, drag))
	points := geometry.SpiralPoints(anchor, radius*scale, phase, spiralTurns, 16)
	cv.Polyline(points, Stroke{Color: d.Color, Width: 1.5, Opacity: opacity})
	trendLine(cv, anchor, drag, d.Color, opacity)
}

// drawArcs draws half circles centred on the drag point, opening towards the
// anchor.
func drawArcs(cv Canvas, d state.FibonacciDrawing, opacity float64) {
	anchor, drag := d.Anchor(), d.Drag()
	radius := anchor.Distance(drag)
	facing := toRadians(geometry.Angle(drag, anchor))

	for i, r := range d.Levels {
		points := geometry.ArcPoints(drag, r*radius, facing-math.Pi/2, facing+math.Pi/2, arcSegments)
		color := bandColors[i%len(bandColors)]
		cv.Polyline(points, Stroke{Color: color, Width: 1, Opacity: opacity})
		cv.Text(geometry.CirclePoint(drag, r*radius, facing).Add(geometry.Pt(3, -3)), fmt.Sprintf("%g", r), color)
	}
	trendLine(cv, anchor, drag, d.Color, opacity)
}

// drawWedge draws the two rays from the apex and arcs between them. A wedge
// preview with only two points shows the first ray.
func drawWedge(cv Canvas, vp geometry.Viewport, d state.FibonacciDrawing, opacity float64) {
	apex := d.Points[0]
	stroke := Stroke{Color: d.Color, Width: 1, Opacity: opacity}

	first := d.Points[1]
	cv.Polyline([]geometry.Point{apex, geometry.ExtendRay(apex, first, vp.Width, vp.Height)}, stroke)
	if len(d.Points) < 3 {
		return
	}
	second := d.Points[2]
	cv.Polyline([]geometry.Point{apex, geometry.ExtendRay(apex, second, vp.Width, vp.Height)}, stroke)

	start := toRadians(geometry.Angle(apex, first))
	end := toRadians(geometry.Angle(apex, second))
	// sweep the smaller angle between the rays
	if diff := end - start; diff > math.Pi {
		end -= 2 * math.Pi
	} else if diff < -math.Pi {
		end += 2 * math.Pi
	}

	radius := math.Min(apex.Distance(first), apex.Distance(second))
	for i, r := range d.Levels {
		color := bandColors[i%len(bandColors)]
		cv.Polyline(geometry.ArcPoints(apex, r*radius, start, end, arcSegments), Stroke{Color: color, Width: 1, Opacity: opacity})
	}
}
