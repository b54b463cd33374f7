package render

import (
	"LiveChartBoard/internal/geometry"
	"LiveChartBoard/internal/state"
)

// Frame is everything the compositor needs for one redraw. Replicated state
// comes from the snapshot; the in-flight gesture fields exist on the host only.
type Frame struct {
	Viewport geometry.Viewport
	State    state.Snapshot

	CurrentPath *state.FreehandPath
	LinePreview *state.LineDrawing

	// ShowLineHandles draws the control points of committed lines.
	ShowLineHandles bool
	// ShowSelection draws the border and resize handle of the selected sticker.
	ShowSelection bool

	// Revision changes whenever anything drawn by this frame changed.
	Revision uint64
}

// Compositor draws frames in the fixed layer order:
// paths, lines, line preview, in-progress path, line handles, Fibonacci studies,
// Fibonacci preview, emoji stickers. Stickers entirely off the canvas are skipped.
type Compositor struct {
	PreviewOpacity float64
	SelectionColor string
}

func NewCompositor() *Compositor {
	return &Compositor{
		PreviewOpacity: 0.5,
		SelectionColor: "#2962ff",
	}
}

// Draw clears the canvas and paints the frame.
func (c *Compositor) Draw(cv Canvas, f Frame) {
	cv.Clear()

	vp := f.Viewport
	if w, h := cv.Size(); w > 0 && h > 0 {
		vp.Width, vp.Height = w, h
	}

	s := &f.State
	for _, p := range s.Paths {
		drawPath(cv, p)
	}

	for _, l := range s.Lines {
		drawLine(cv, vp, l, solid(l.Color, lineWidth))
	}

	if f.LinePreview != nil {
		l := *f.LinePreview
		drawLine(cv, vp, l, Stroke{Color: l.Color, Width: lineWidth, Opacity: c.PreviewOpacity, Dash: dashed})
	}

	if f.CurrentPath != nil {
		drawPath(cv, *f.CurrentPath)
	}

	if f.ShowLineHandles {
		for _, l := range s.Lines {
			for _, h := range lineHandles(l, vp) {
				drawHandle(cv, h, l.Color, 1)
			}
		}
	}
	if f.LinePreview != nil {
		for _, h := range lineHandles(*f.LinePreview, vp) {
			drawHandle(cv, h, f.LinePreview.Color, 1)
		}
	}

	for _, d := range s.FibDrawings {
		drawFibonacci(cv, vp, d, 1)
	}

	if s.FibPreview != nil {
		drawFibonacci(cv, vp, s.FibPreview.Drawing(), c.PreviewOpacity)
	}

	canvas := vp.Bounds()
	for _, e := range s.EmojiDrawings {
		if !geometry.Overlaps(e.Box(), canvas) {
			continue
		}
		cv.Sticker(e.Box(), e.Emoji)
		if f.ShowSelection && e.ID == s.SelectedEmojiID {
			c.drawSelection(cv, e)
		}
	}
}

func (c *Compositor) drawSelection(cv Canvas, e state.EmojiDrawing) {
	cv.Polyline(e.Box().Inflate(2).Outline(), Stroke{Color: c.SelectionColor, Width: 1, Opacity: 1, Dash: []float64{4, 3}})

	const side = 10.0
	corner := e.ResizeHandle()
	handle := geometry.NewRect(corner.X-side/2, corner.Y-side/2, side, side)
	cv.Polygon(handle.Outline()[:4], Fill{Color: c.SelectionColor, Opacity: 1})
}
