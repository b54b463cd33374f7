package ui

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"LiveChartBoard/internal/geometry"
	"LiveChartBoard/internal/render"
	"LiveChartBoard/internal/session"
	"LiveChartBoard/internal/state"
)

const (
	gridLines = 8
	zoomStep  = 1.2
	minZoom   = 1e-6
)

var (
	backgroundColor = color.NRGBA{R: 245, G: 246, B: 248, A: 255}
	gridColor       = color.NRGBA{R: 220, G: 220, B: 220, A: 160}
	labelColor      = color.NRGBA{R: 120, G: 123, B: 134, A: 255}
)

// ChartWidget is the price panel with the annotation overlay on top. Pointer
// input goes to the session; frames come back from the render loop through
// Present.
type ChartWidget struct {
	widget.BaseWidget

	session *session.Session

	mu       sync.Mutex
	overlay  *image.RGBA
	stickers []render.StickerMark
}

var _ fyne.Widget = (*ChartWidget)(nil)
var _ fyne.Draggable = (*ChartWidget)(nil)
var _ fyne.Scrollable = (*ChartWidget)(nil)
var _ desktop.Mouseable = (*ChartWidget)(nil)
var _ desktop.Hoverable = (*ChartWidget)(nil)
var _ desktop.Cursorable = (*ChartWidget)(nil)

func NewChartWidget(s *session.Session) *ChartWidget {
	c := &ChartWidget{session: s}
	c.ExtendBaseWidget(c)
	return c
}

// Present receives a finished frame from the render loop goroutine. The image
// buffer is reused by the next frame, so it is copied.
func (c *ChartWidget) Present(img *image.RGBA, stickers []render.StickerMark) {
	c.mu.Lock()
	if c.overlay == nil || c.overlay.Bounds() != img.Bounds() {
		c.overlay = image.NewRGBA(img.Bounds())
	}
	copy(c.overlay.Pix, img.Pix)
	c.stickers = append(c.stickers[:0], stickers...)
	c.mu.Unlock()

	fyne.Do(c.Refresh)
}

func (c *ChartWidget) frame() (*image.RGBA, []render.StickerMark) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.overlay, append([]render.StickerMark(nil), c.stickers...)
}

func (c *ChartWidget) MouseDown(e *desktop.MouseEvent) {
	switch e.Button {
	case desktop.MouseButtonPrimary:
		c.session.PointerDown(float64(e.Position.X), float64(e.Position.Y))
	case desktop.MouseButtonSecondary:
		c.session.Escape()
	}
}

func (c *ChartWidget) MouseUp(e *desktop.MouseEvent) {
	if e.Button == desktop.MouseButtonPrimary {
		c.session.PointerUp()
	}
}

func (c *ChartWidget) Dragged(e *fyne.DragEvent) {
	c.session.PointerMove(float64(e.Position.X), float64(e.Position.Y))
}

func (c *ChartWidget) DragEnd() {}

func (c *ChartWidget) MouseIn(*desktop.MouseEvent) {}

func (c *ChartWidget) MouseMoved(e *desktop.MouseEvent) {
	c.session.PointerMove(float64(e.Position.X), float64(e.Position.Y))
}

func (c *ChartWidget) MouseOut() {
	c.session.PointerLeave()
}

// Scrolled zooms the price axis around the middle of the panel.
func (c *ChartWidget) Scrolled(e *fyne.ScrollEvent) {
	factor := zoomStep
	if e.Scrolled.DY > 0 {
		factor = 1 / zoomStep
	}
	c.session.SetViewport(zoom(c.session.Viewport(), factor))
}

func zoom(vp geometry.Viewport, factor float64) geometry.Viewport {
	mid := (vp.MinPrice + vp.MaxPrice) / 2
	half := math.Max((vp.MaxPrice-vp.MinPrice)/2*factor, minZoom)
	vp.MinPrice, vp.MaxPrice = mid-half, mid+half
	return vp
}

func (c *ChartWidget) Cursor() desktop.Cursor {
	switch c.session.Snapshot().Cursor {
	case state.CursorCrosshair, state.CursorDot:
		return desktop.CrosshairCursor
	}
	return desktop.DefaultCursor
}

func (c *ChartWidget) CreateRenderer() fyne.WidgetRenderer {
	r := &chartRenderer{
		chart:      c,
		background: canvas.NewRectangle(backgroundColor),
		overlay:    canvas.NewImageFromImage(image.NewRGBA(image.Rect(0, 0, 1, 1))),
	}
	r.overlay.FillMode = canvas.ImageFillStretch
	r.overlay.ScaleMode = canvas.ImageScaleFastest
	for i := 0; i <= gridLines; i++ {
		r.grid = append(r.grid, canvas.NewLine(gridColor))
		label := canvas.NewText("", labelColor)
		label.TextSize = 10
		r.labels = append(r.labels, label)
	}
	return r
}

type chartRenderer struct {
	chart *ChartWidget

	background *canvas.Rectangle
	grid       []*canvas.Line
	labels     []*canvas.Text
	overlay    *canvas.Image
	stickers   []*canvas.Text

	size fyne.Size
}

func (r *chartRenderer) Layout(size fyne.Size) {
	r.background.Resize(size)
	r.overlay.Resize(size)

	if size != r.size {
		r.size = size
		vp := r.chart.session.Viewport()
		vp.Width, vp.Height = float64(size.Width), float64(size.Height)
		r.chart.session.SetViewport(vp)
	}
	r.layoutGrid()
}

// layoutGrid places evenly spaced price levels of the current viewport.
func (r *chartRenderer) layoutGrid() {
	vp := r.chart.session.Viewport()
	for i := range r.grid {
		price := vp.MinPrice + (vp.MaxPrice-vp.MinPrice)*float64(i)/gridLines
		y := float32(vp.PriceToY(price))

		r.grid[i].Position1 = fyne.NewPos(0, y)
		r.grid[i].Position2 = fyne.NewPos(r.size.Width, y)
		r.grid[i].StrokeWidth = 0.5

		r.labels[i].Text = fmt.Sprintf("%.2f", price)
		r.labels[i].Move(fyne.NewPos(r.size.Width-r.labels[i].MinSize().Width-4, y-r.labels[i].MinSize().Height))
	}
}

func (r *chartRenderer) MinSize() fyne.Size {
	return fyne.NewSize(320, 240)
}

func (r *chartRenderer) Refresh() {
	img, marks := r.chart.frame()
	if img != nil {
		r.overlay.Image = img
		r.overlay.Refresh()
	}

	for len(r.stickers) < len(marks) {
		r.stickers = append(r.stickers, canvas.NewText("", color.Black))
	}
	for i, t := range r.stickers {
		if i >= len(marks) {
			t.Hide()
			continue
		}
		box := marks[i].Box
		t.Text = marks[i].Emoji
		t.TextSize = float32(box.Height) * 0.8
		t.Move(fyne.NewPos(float32(box.X), float32(box.Y)))
		t.Show()
		t.Refresh()
	}

	r.layoutGrid()
	for _, l := range r.grid {
		l.Refresh()
	}
	for _, l := range r.labels {
		l.Refresh()
	}
}

func (r *chartRenderer) Objects() []fyne.CanvasObject {
	objects := []fyne.CanvasObject{r.background}
	for _, l := range r.grid {
		objects = append(objects, l)
	}
	for _, l := range r.labels {
		objects = append(objects, l)
	}
	objects = append(objects, r.overlay)
	for _, t := range r.stickers {
		objects = append(objects, t)
	}
	return objects
}

func (r *chartRenderer) Destroy() {}
