package tools

import (
	"LiveChartBoard/internal/geometry"
	"LiveChartBoard/internal/metrics"
	"LiveChartBoard/internal/state"
)

// DragTarget is the part of a committed study grabbed by the pointer.
type DragTarget string

const (
	DragNone   DragTarget = ""
	DragAnchor DragTarget = "anchor"
	DragPoint  DragTarget = "drag"
	DragThird  DragTarget = "third"
	DragArea   DragTarget = "area"
)

type fibDrag struct {
	target DragTarget
	// grab offset from the anchor, used by area drags
	offset geometry.Point
}

// FibonacciTools is the Fibonacci study state machine. Studies are defined by
// clicks, not drags: the first click opens a live preview that follows the
// pointer and the last click commits and disarms the tool.
type FibonacciTools struct {
	sel  *Selection
	hist *History
	auth Authorizer

	color    string
	drawings []state.FibonacciDrawing

	pending []state.Point
	preview *state.FibPreview
	drag    *fibDrag

	changeCallbacks []func()
}

func NewFibonacciTools(sel *Selection, hist *History, auth Authorizer) *FibonacciTools {
	f := &FibonacciTools{
		sel:   sel,
		hist:  hist,
		auth:  auth,
		color: DefaultColor,
	}
	sel.OnChange(func(family Family) {
		if family != FamilyFibonacci {
			f.Cancel()
		}
	})
	return f
}

func (f *FibonacciTools) allowed() bool {
	if f.auth != nil && !f.auth.CanMutate() {
		logger.Debug("ignoring fibonacci mutation from a viewer")
		return false
	}
	return true
}

func (f *FibonacciTools) Tool() state.FibKind { return f.sel.Fibonacci() }

// SetTool arms a Fibonacci study, or disarms when kind is empty. Any pending
// click sequence is discarded.
func (f *FibonacciTools) SetTool(kind state.FibKind) {
	if !f.allowed() {
		return
	}
	if kind != "" && !kind.Valid() {
		return
	}
	f.pending = nil
	f.preview = nil
	f.sel.SelectFibonacci(kind)
	f.EmitChange()
}

func (f *FibonacciTools) Color() string { return f.color }

func (f *FibonacciTools) SetColor(color string) {
	if !f.allowed() {
		return
	}
	f.color = color
}

// Drawings returns a copy of the committed studies.
func (f *FibonacciTools) Drawings() []state.FibonacciDrawing {
	out := make([]state.FibonacciDrawing, len(f.drawings))
	for i, d := range f.drawings {
		out[i] = d.Clone()
	}
	return out
}

// Preview returns the live candidate shape, if a click sequence is pending.
func (f *FibonacciTools) Preview() *state.FibPreview {
	return f.preview.Clone()
}

// Pending reports whether a click sequence has started.
func (f *FibonacciTools) Pending() bool {
	return len(f.pending) > 0
}

// Dragging reports the target of the running handle drag.
func (f *FibonacciTools) Dragging() DragTarget {
	if f.drag == nil {
		return DragNone
	}
	return f.drag.target
}

// Start handles a click. It is re-entrant: the first call opens the preview,
// the call that completes the kind's point count commits the study using the
// click position and disarms the tool.
func (f *FibonacciTools) Start(x, y float64) {
	if !f.allowed() {
		return
	}
	kind := f.sel.Fibonacci()
	if kind == "" {
		return
	}

	p := state.Point{X: x, Y: y}
	f.pending = append(f.pending, p)

	if len(f.pending) < kind.PointCount() {
		f.preview = &state.FibPreview{
			Type:   kind,
			Anchor: f.pending[0],
			Drag:   p,
			Fixed:  append([]state.Point(nil), f.pending...),
			Color:  f.color,
		}
		f.EmitChange()
		return
	}

	drawing := state.FibonacciDrawing{
		ID:      state.NewID("fib"),
		Type:    kind,
		Points:  f.pending,
		Color:   f.color,
		Levels:  kind.DefaultLevels(),
		Visible: true,
	}
	f.drawings = append(f.drawings, drawing)
	f.hist.Push(NamespaceFib, Marker{Kind: MarkerFib, ID: drawing.ID})
	metrics.CommittedDrawings.WithLabelValues(string(FamilyFibonacci)).Inc()
	f.pending = nil
	f.preview = nil
	f.sel.SelectFibonacci("")
	f.EmitChange()
}

// Move updates the live preview while a click sequence is pending, or moves
// the grabbed handle of the last study.
func (f *FibonacciTools) Move(x, y float64) {
	if !f.allowed() {
		return
	}

	p := state.Point{X: x, Y: y}
	if f.preview != nil {
		f.preview.Drag = p
		f.EmitChange()
		return
	}

	if f.drag != nil {
		f.dragTo(p)
	}
}

// Cancel discards a pending click sequence.
func (f *FibonacciTools) Cancel() {
	if f.preview == nil && f.pending == nil {
		return
	}
	f.pending = nil
	f.preview = nil
	if f.allowed() {
		f.EmitChange()
	}
}

// HitTest checks the last committed study in handle priority order: anchor,
// drag point, third point, then the padded bounding box when allowArea is set.
func (f *FibonacciTools) HitTest(x, y float64, allowArea bool) DragTarget {
	if len(f.drawings) == 0 {
		return DragNone
	}

	p := state.Point{X: x, Y: y}
	d := f.drawings[len(f.drawings)-1]
	if !d.Visible {
		return DragNone
	}

	switch {
	case geometry.HitHandle(p, d.Points[0], geometry.HandleRadius):
		return DragAnchor
	case geometry.HitHandle(p, d.Points[1], geometry.HandleRadius):
		return DragPoint
	case len(d.Points) > 2 && geometry.HitHandle(p, d.Points[2], geometry.HandleRadius):
		return DragThird
	case allowArea && geometry.HitArea(p, d.Points, geometry.AreaPadding):
		return DragArea
	}
	return DragNone
}

// BeginDrag grabs the last committed study at (x, y). Only the most recent
// study is editable.
func (f *FibonacciTools) BeginDrag(x, y float64, allowArea bool) bool {
	if !f.allowed() || f.preview != nil {
		return false
	}

	target := f.HitTest(x, y, allowArea)
	if target == DragNone {
		return false
	}

	anchor := f.drawings[len(f.drawings)-1].Points[0]
	f.drag = &fibDrag{
		target: target,
		offset: state.Point{X: x, Y: y}.Sub(anchor),
	}
	return true
}

func (f *FibonacciTools) dragTo(p state.Point) {
	d := &f.drawings[len(f.drawings)-1]
	switch f.drag.target {
	case DragAnchor:
		d.Points[0] = p
	case DragPoint:
		d.Points[1] = p
	case DragThird:
		d.Points[2] = p
	case DragArea:
		delta := p.Sub(f.drag.offset).Sub(d.Points[0])
		for i := range d.Points {
			d.Points[i] = d.Points[i].Add(delta)
		}
	}
	f.EmitChange()
}

// EndDrag releases the grabbed handle.
func (f *FibonacciTools) EndDrag() {
	if f.drag == nil {
		return
	}
	f.drag = nil
	if f.allowed() {
		f.EmitChange()
	}
}

// Undo pops the last committed study. This stack is independent from the line
// tool stack.
func (f *FibonacciTools) Undo() {
	if !f.allowed() || len(f.drawings) == 0 {
		return
	}
	f.hist.Pop(NamespaceFib)
	f.drawings = f.drawings[:len(f.drawings)-1]
	f.drag = nil
	f.EmitChange()
}

// ClearAll removes every study and any pending preview.
func (f *FibonacciTools) ClearAll() {
	if !f.allowed() {
		return
	}
	changed := len(f.drawings) > 0 || f.preview != nil
	f.drawings = nil
	f.pending = nil
	f.preview = nil
	f.drag = nil
	f.hist.Clear(NamespaceFib)
	if changed {
		f.EmitChange()
	}
}

// SetLevels replaces the ratio set of the last committed study.
func (f *FibonacciTools) SetLevels(levels []float64) {
	if !f.allowed() || len(f.drawings) == 0 || len(levels) == 0 {
		return
	}
	f.drawings[len(f.drawings)-1].Levels = append([]float64(nil), levels...)
	f.EmitChange()
}

// ToggleVisible hides or shows the last committed study.
func (f *FibonacciTools) ToggleVisible() {
	if !f.allowed() || len(f.drawings) == 0 {
		return
	}
	d := &f.drawings[len(f.drawings)-1]
	d.Visible = !d.Visible
	f.EmitChange()
}
