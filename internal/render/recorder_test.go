package render

import (
	"LiveChartBoard/internal/geometry"
)

type op struct {
	kind    string
	color   string
	opacity float64
	dashed  bool
	text    string
	points  []geometry.Point
}

// recorder is a Canvas that keeps the draw calls in order.
type recorder struct {
	width, height float64
	ops           []op
}

func newRecorder(w, h float64) *recorder {
	return &recorder{width: w, height: h}
}

func (r *recorder) Size() (float64, float64) { return r.width, r.height }

func (r *recorder) Clear() {
	r.ops = append(r.ops, op{kind: "clear"})
}

func (r *recorder) Polyline(points []geometry.Point, s Stroke) {
	r.ops = append(r.ops, op{kind: "polyline", color: s.Color, opacity: s.Opacity, dashed: len(s.Dash) > 0, points: points})
}

func (r *recorder) Polygon(points []geometry.Point, f Fill) {
	r.ops = append(r.ops, op{kind: "polygon", color: f.Color, opacity: f.Opacity, points: points})
}

func (r *recorder) Circle(center geometry.Point, radius float64, s Stroke, f *Fill) {
	r.ops = append(r.ops, op{kind: "circle", color: s.Color, opacity: s.Opacity, points: []geometry.Point{center}})
}

func (r *recorder) Text(at geometry.Point, text string, color string) {
	r.ops = append(r.ops, op{kind: "text", color: color, text: text, points: []geometry.Point{at}})
}

func (r *recorder) Sticker(box geometry.Rect, emoji string) {
	r.ops = append(r.ops, op{kind: "sticker", text: emoji, points: []geometry.Point{{X: box.X, Y: box.Y}}})
}

func (r *recorder) first(match func(op) bool) int {
	for i, o := range r.ops {
		if match(o) {
			return i
		}
	}
	return -1
}

func (r *recorder) last(match func(op) bool) int {
	for i := len(r.ops) - 1; i >= 0; i-- {
		if match(r.ops[i]) {
			return i
		}
	}
	return -1
}

func (r *recorder) count(match func(op) bool) int {
	n := 0
	for _, o := range r.ops {
		if match(o) {
			n++
		}
	}
	return n
}

func withColor(kind, color string) func(op) bool {
	return func(o op) bool { return o.kind == kind && o.color == color }
}
