package tools

import (
	"LiveChartBoard/internal/metrics"
	"LiveChartBoard/internal/state"
)

const (
	DefaultColor            = "#2962ff"
	DefaultHighlighterColor = "#ffeb3b"
)

// LineTools is the freehand and line study state machine. Freehand paths and
// lines share one chronological undo stack.
type LineTools struct {
	sel  *Selection
	hist *History
	auth Authorizer

	cursor           state.CursorMode
	color            string
	highlighterColor string

	paths []state.FreehandPath
	lines []state.LineDrawing

	// in-flight gesture state, never replicated
	currentPath *state.FreehandPath
	preview     *state.LineDrawing

	width, height float64

	changeCallbacks []func()
}

func NewLineTools(sel *Selection, hist *History, auth Authorizer) *LineTools {
	t := &LineTools{
		sel:              sel,
		hist:             hist,
		auth:             auth,
		cursor:           state.CursorDefault,
		color:            DefaultColor,
		highlighterColor: DefaultHighlighterColor,
	}
	sel.OnChange(func(family Family) {
		if family != FamilyLine {
			t.preview = nil
		}
		if family != FamilyFreehand {
			t.currentPath = nil
		}
	})
	return t
}

func (t *LineTools) allowed() bool {
	if t.auth != nil && !t.auth.CanMutate() {
		logger.Debug("ignoring line tool mutation from a viewer")
		return false
	}
	return true
}

// SetCanvasSize records the overlay size used to snap single anchor lines.
func (t *LineTools) SetCanvasSize(w, h float64) {
	t.width, t.height = w, h
}

func (t *LineTools) Cursor() state.CursorMode { return t.cursor }

func (t *LineTools) SetCursor(c state.CursorMode) {
	if !t.allowed() || c == t.cursor {
		return
	}
	t.cursor = c
	t.EmitChange()
}

func (t *LineTools) Color() string { return t.color }

func (t *LineTools) SetColor(color string) {
	if !t.allowed() || color == t.color {
		return
	}
	t.color = color
	t.EmitChange()
}

func (t *LineTools) HighlighterColor() string { return t.highlighterColor }

func (t *LineTools) SetHighlighterColor(color string) {
	if !t.allowed() || color == t.highlighterColor {
		return
	}
	t.highlighterColor = color
	t.EmitChange()
}

func (t *LineTools) FreehandTool() state.FreehandTool { return t.sel.Freehand() }

// SetFreehandTool activates a freehand tool, or deactivates freehand drawing
// when tool is empty.
func (t *LineTools) SetFreehandTool(tool state.FreehandTool) {
	if !t.allowed() {
		return
	}
	if tool != "" && !tool.Valid() {
		return
	}
	t.sel.SelectFreehand(tool)
}

func (t *LineTools) LineTool() state.LineKind { return t.sel.Line() }

func (t *LineTools) SetLineTool(kind state.LineKind) {
	if !t.allowed() {
		return
	}
	if kind != "" && !kind.Valid() {
		return
	}
	t.preview = nil
	t.sel.SelectLine(kind)
}

func (t *LineTools) Eraser() bool { return t.sel.Eraser() }

func (t *LineTools) SetEraser(on bool) {
	if !t.allowed() {
		return
	}
	t.sel.SelectEraser(on)
}

// Paths returns a copy of the committed freehand paths.
func (t *LineTools) Paths() []state.FreehandPath {
	out := make([]state.FreehandPath, len(t.paths))
	for i, p := range t.paths {
		out[i] = p.Clone()
	}
	return out
}

// Lines returns a copy of the committed line drawings.
func (t *LineTools) Lines() []state.LineDrawing {
	out := make([]state.LineDrawing, len(t.lines))
	for i, l := range t.lines {
		out[i] = l.Clone()
	}
	return out
}

// CurrentPath returns the in-progress freehand path, if any.
func (t *LineTools) CurrentPath() *state.FreehandPath {
	if t.currentPath == nil {
		return nil
	}
	p := t.currentPath.Clone()
	return &p
}

// Preview returns the live line preview, if any.
func (t *LineTools) Preview() *state.LineDrawing {
	if t.preview == nil {
		return nil
	}
	l := t.preview.Clone()
	return &l
}

// StartPath opens a new path styled by the active freehand tool.
func (t *LineTools) StartPath(x, y float64) {
	if !t.allowed() {
		return
	}
	tool := t.sel.Freehand()
	if tool == "" {
		return
	}

	width, opacity := tool.Style()
	color := t.color
	if tool == state.ToolHighlighter {
		color = t.highlighterColor
	}

	t.currentPath = &state.FreehandPath{
		ID:      state.NewID("path"),
		Tool:    tool,
		Color:   color,
		Width:   width,
		Opacity: opacity,
		Points:  []state.Point{{X: x, Y: y}},
	}
}

// MovePath appends a raw pointer sample to the in-progress path.
func (t *LineTools) MovePath(x, y float64) {
	if t.currentPath == nil || !t.allowed() {
		return
	}
	t.currentPath.Points = append(t.currentPath.Points, state.Point{X: x, Y: y})
}

// EndPath commits the in-progress path.
func (t *LineTools) EndPath() {
	if t.currentPath == nil {
		return
	}
	path := *t.currentPath
	t.currentPath = nil
	if !t.allowed() {
		return
	}

	t.paths = append(t.paths, path)
	t.hist.Push(NamespaceDraw, Marker{Kind: MarkerPath, ID: path.ID})
	metrics.CommittedDrawings.WithLabelValues(string(FamilyFreehand)).Inc()
	t.EmitChange()
}

// StartLine seeds the preview of the active line tool.
func (t *LineTools) StartLine(x, y float64) {
	if !t.allowed() {
		return
	}
	kind := t.sel.Line()
	if kind == "" {
		return
	}

	t.preview = &state.LineDrawing{
		ID:     state.NewID("line"),
		Type:   kind,
		Color:  t.color,
		Points: kind.AnchorPoints(state.Point{X: x, Y: y}, t.width, t.height),
	}
}

// MoveLine updates the live preview. Two point kinds move their second handle,
// single anchor kinds follow the pointer on their owning axis.
func (t *LineTools) MoveLine(x, y float64) {
	if t.preview == nil || !t.allowed() {
		return
	}

	p := state.Point{X: x, Y: y}
	if t.preview.Type.TwoPoint() {
		t.preview.Points[1] = p
		return
	}
	t.preview.Points = t.preview.Type.AnchorPoints(p, t.width, t.height)
}

// EndLine commits the preview as a line drawing.
func (t *LineTools) EndLine() {
	if t.preview == nil {
		return
	}
	line := *t.preview
	t.preview = nil
	if !t.allowed() {
		return
	}

	t.lines = append(t.lines, line)
	t.hist.Push(NamespaceDraw, Marker{Kind: MarkerLine, ID: line.ID})
	metrics.CommittedDrawings.WithLabelValues(string(FamilyLine)).Inc()
	t.EmitChange()
}

// CanUndo reports whether the shared draw stack has entries.
func (t *LineTools) CanUndo() bool {
	return t.hist.Depth(NamespaceDraw) > 0
}

// Undo removes the most recent commit across freehand paths and lines.
func (t *LineTools) Undo() {
	if !t.allowed() {
		return
	}

	marker, ok := t.hist.Pop(NamespaceDraw)
	if !ok {
		return
	}

	switch marker.Kind {
	case MarkerPath:
		t.paths = removePath(t.paths, marker.ID)
	case MarkerLine:
		t.lines = removeLine(t.lines, marker.ID)
	}
	t.EmitChange()
}

// ClearAll empties both committed lists, the undo stack and any in-flight
// gesture, and resets the tool selection.
func (t *LineTools) ClearAll() {
	if !t.allowed() {
		return
	}

	changed := len(t.paths) > 0 || len(t.lines) > 0 || t.hist.Depth(NamespaceDraw) > 0
	t.paths = nil
	t.lines = nil
	t.currentPath = nil
	t.preview = nil
	t.hist.Clear(NamespaceDraw)
	t.sel.Clear()
	if changed {
		t.EmitChange()
	}
}

func removePath(paths []state.FreehandPath, id string) []state.FreehandPath {
	for i := len(paths) - 1; i >= 0; i-- {
		if paths[i].ID == id {
			return append(paths[:i], paths[i+1:]...)
		}
	}
	return paths
}

func removeLine(lines []state.LineDrawing, id string) []state.LineDrawing {
	for i := len(lines) - 1; i >= 0; i-- {
		if lines[i].ID == id {
			return append(lines[:i], lines[i+1:]...)
		}
	}
	return lines
}
