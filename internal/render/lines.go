package render

import (
	"fmt"
	"math"

	"LiveChartBoard/internal/geometry"
	"LiveChartBoard/internal/state"
)

const lineWidth = 2.0

func drawPath(cv Canvas, p state.FreehandPath) {
	cv.Polyline(p.Points, Stroke{Color: p.Color, Width: p.Width, Opacity: p.Opacity})
}

func drawLine(cv Canvas, vp geometry.Viewport, l state.LineDrawing, stroke Stroke) {
	for _, seg := range l.Segments(vp.Width, vp.Height) {
		cv.Polyline([]geometry.Point{seg.A, seg.B}, stroke)
	}
	if len(l.Points) < 2 {
		return
	}

	a, b := l.Points[0], l.Points[1]
	switch l.Type {
	case state.LineInfo:
		cv.Text(b.Add(geometry.Pt(6, -6)), infoLabel(vp, a, b), stroke.Color)

	case state.LineAngle:
		radius := math.Min(a.Distance(b), 40)
		if radius < 1 {
			return
		}
		deg := geometry.Angle(a, b)
		ref := Stroke{Color: stroke.Color, Width: 1, Opacity: stroke.Opacity, Dash: dashed}
		cv.Polyline([]geometry.Point{a, a.Add(geometry.Pt(radius*1.5, 0))}, ref)
		cv.Polyline(geometry.ArcPoints(a, radius, 0, toRadians(deg), arcSegments), Stroke{Color: stroke.Color, Width: 1, Opacity: stroke.Opacity})
		cv.Text(a.Add(geometry.Pt(radius+6, -4)), fmt.Sprintf("%.1f°", deg), stroke.Color)
	}
}

// infoLabel describes the move between two points: price change, percentage
// and pixel distance.
func infoLabel(vp geometry.Viewport, a, b geometry.Point) string {
	from, to := vp.YToPrice(a.Y), vp.YToPrice(b.Y)
	change := to - from
	pct := 0.0
	if from != 0 {
		pct = change / math.Abs(from) * 100
	}
	return fmt.Sprintf("%+.2f (%+.2f%%) %.0fpx", change, pct, a.Distance(b))
}

// lineHandles returns the editable control points of a line. Single anchor
// kinds expose one handle on their axis, centered on the current canvas.
func lineHandles(l state.LineDrawing, vp geometry.Viewport) []geometry.Point {
	if len(l.Points) == 0 {
		return nil
	}
	p := l.Points[0]
	switch l.Type {
	case state.LineHorizontal:
		return []geometry.Point{{X: vp.Width / 2, Y: p.Y}}
	case state.LineVertical:
		return []geometry.Point{{X: p.X, Y: vp.Height / 2}}
	case state.LineHorizontalRay, state.LineCross:
		return l.Points[:1]
	}
	return l.Points
}
