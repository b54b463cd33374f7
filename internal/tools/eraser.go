package tools

import (
	"LiveChartBoard/internal/geometry"
	"LiveChartBoard/internal/state"
)

// EraserRadius is the pointer tolerance of the eraser in pixels.
const EraserRadius = 8.0

// Erase removes every committed path or line touched by the eraser at (x, y)
// together with its undo marker. It reports whether anything was removed.
func (t *LineTools) Erase(x, y float64) bool {
	if !t.allowed() || !t.sel.Eraser() {
		return false
	}

	p := state.Point{X: x, Y: y}
	removed := false

	keptPaths := t.paths[:0]
	for _, path := range t.paths {
		if geometry.NearPolyline(p, path.Points, EraserRadius+path.Width/2) {
			t.hist.Forget(NamespaceDraw, path.ID)
			removed = true
			continue
		}
		keptPaths = append(keptPaths, path)
	}
	t.paths = keptPaths

	keptLines := t.lines[:0]
	for _, line := range t.lines {
		if lineTouched(p, line, t.width, t.height) {
			t.hist.Forget(NamespaceDraw, line.ID)
			removed = true
			continue
		}
		keptLines = append(keptLines, line)
	}
	t.lines = keptLines

	if removed {
		t.EmitChange()
	}
	return removed
}

func lineTouched(p state.Point, line state.LineDrawing, w, h float64) bool {
	for _, seg := range line.Segments(w, h) {
		if geometry.SegmentDistance(p, seg.A, seg.B) <= EraserRadius {
			return true
		}
	}
	return false
}
