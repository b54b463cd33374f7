package state

import "LiveChartBoard/internal/geometry"

// LineKind is one of the nine geometric line studies.
type LineKind string

const (
	LineTrend         LineKind = "trend"
	LineRay           LineKind = "ray"
	LineInfo          LineKind = "info"
	LineExtended      LineKind = "extended"
	LineAngle         LineKind = "angle"
	LineHorizontal    LineKind = "horizontal"
	LineHorizontalRay LineKind = "horizontalRay"
	LineVertical      LineKind = "vertical"
	LineCross         LineKind = "cross"
)

// LineKinds lists every line study in toolbar order.
var LineKinds = []LineKind{
	LineTrend, LineRay, LineInfo, LineExtended, LineAngle,
	LineHorizontal, LineHorizontalRay, LineVertical, LineCross,
}

// TwoPoint reports whether both stored points are free handles. Single anchor
// kinds derive their rendered geometry from the canvas bounds.
func (k LineKind) TwoPoint() bool {
	switch k {
	case LineTrend, LineRay, LineInfo, LineExtended, LineAngle:
		return true
	}
	return false
}

func (k LineKind) Valid() bool {
	for _, kind := range LineKinds {
		if kind == k {
			return true
		}
	}
	return false
}

// AnchorPoints returns the stored points of a single anchor line placed at p on a
// w by h canvas. Two point kinds return the anchor twice, waiting for the drag.
func (k LineKind) AnchorPoints(p Point, w, h float64) []Point {
	switch k {
	case LineHorizontal:
		return []Point{{X: 0, Y: p.Y}, {X: w, Y: p.Y}}
	case LineHorizontalRay:
		return []Point{p, {X: w, Y: p.Y}}
	case LineVertical:
		return []Point{{X: p.X, Y: 0}, {X: p.X, Y: h}}
	case LineCross:
		return []Point{p}
	}
	return []Point{p, p}
}

// Segment is a rendered straight piece of a line study.
type Segment struct {
	A, B Point
}

// Segments returns the rendered geometry of the line on a w by h canvas. Single
// anchor kinds only read their first point and span the canvas they are drawn on.
func (l LineDrawing) Segments(w, h float64) []Segment {
	if len(l.Points) == 0 {
		return nil
	}

	p := l.Points[0]
	switch l.Type {
	case LineHorizontal:
		return []Segment{{A: Point{X: 0, Y: p.Y}, B: Point{X: w, Y: p.Y}}}
	case LineHorizontalRay:
		return []Segment{{A: p, B: Point{X: w, Y: p.Y}}}
	case LineVertical:
		return []Segment{{A: Point{X: p.X, Y: 0}, B: Point{X: p.X, Y: h}}}
	case LineCross:
		return []Segment{
			{A: Point{X: 0, Y: p.Y}, B: Point{X: w, Y: p.Y}},
			{A: Point{X: p.X, Y: 0}, B: Point{X: p.X, Y: h}},
		}
	}

	if len(l.Points) < 2 {
		return nil
	}

	q := l.Points[1]
	switch l.Type {
	case LineRay:
		return []Segment{{A: p, B: geometry.ExtendRay(p, q, w, h)}}
	case LineExtended:
		a, b := geometry.ExtendLine(p, q, w, h)
		return []Segment{{A: a, B: b}}
	}
	return []Segment{{A: p, B: q}}
}
