package state

import (
	"LiveChartBoard/internal/geometry"
)

// Point is a canvas pixel position.
type Point = geometry.Point

// CursorMode is the chart cursor style. It is independent from the drawing tools.
type CursorMode string

const (
	CursorDefault   CursorMode = "default"
	CursorCrosshair CursorMode = "crosshair"
	CursorDot       CursorMode = "dot"
	CursorArrow     CursorMode = "arrow"
)

// FreehandTool is the ink style of a freehand path.
type FreehandTool string

const (
	ToolPencil      FreehandTool = "pencil"
	ToolHighlighter FreehandTool = "highlighter"
)

// Style returns the stroke width and opacity used for paths drawn with the tool.
func (t FreehandTool) Style() (width, opacity float64) {
	switch t {
	case ToolHighlighter:
		return 12, 0.35
	default:
		return 2, 1
	}
}

func (t FreehandTool) Valid() bool {
	return t == ToolPencil || t == ToolHighlighter
}

// FreehandPath is a committed or in-progress ink stroke.
type FreehandPath struct {
	ID      string       `json:"id"`
	Tool    FreehandTool `json:"tool"`
	Color   string       `json:"color"`
	Width   float64      `json:"width"`
	Points  []Point      `json:"points"`
	Opacity float64      `json:"opacity"`
}

func (p FreehandPath) Clone() FreehandPath {
	p.Points = clonePoints(p.Points)
	return p
}

// LineDrawing is a committed geometric line study.
type LineDrawing struct {
	ID     string   `json:"id"`
	Type   LineKind `json:"type"`
	Points []Point  `json:"points"`
	Color  string   `json:"color"`
}

func (l LineDrawing) Clone() LineDrawing {
	l.Points = clonePoints(l.Points)
	return l
}

// EmojiDrawing is a sticker placed on the chart.
type EmojiDrawing struct {
	ID    string  `json:"id"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Emoji string  `json:"emoji"`
	Size  float64 `json:"size"`
}

// Center returns the centre of the sticker box.
func (e EmojiDrawing) Center() Point {
	return Point{X: e.X + e.Size/2, Y: e.Y + e.Size/2}
}

// Box returns the sticker bounds.
func (e EmojiDrawing) Box() geometry.Rect {
	return geometry.NewRect(e.X, e.Y, e.Size, e.Size)
}

// ResizeHandle returns the bottom-right corner used for resizing.
func (e EmojiDrawing) ResizeHandle() Point {
	return Point{X: e.X + e.Size, Y: e.Y + e.Size}
}

func clonePoints(points []Point) []Point {
	if points == nil {
		return nil
	}
	out := make([]Point, len(points))
	copy(out, points)
	return out
}
