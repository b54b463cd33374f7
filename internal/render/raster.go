package render

import (
	"image"
	"math"

	"github.com/pkg/errors"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"LiveChartBoard/internal/geometry"
)

const labelFontSize = 9.0

// StickerMark is an emoji sticker placed on the raster. Emoji glyphs are not
// rasterized here; the hosting window draws them on top at Box.
type StickerMark struct {
	Box   geometry.Rect
	Emoji string
}

// RasterCanvas draws onto an RGBA image through the go-chart raster graphic
// context. Labels use the go-chart default font and fall back to the basic
// bitmap face when it cannot be loaded.
type RasterCanvas struct {
	img      *image.RGBA
	gc       *drawing.RasterGraphicContext
	hasFont  bool
	stickers []StickerMark
}

// NewRasterCanvas allocates a transparent canvas of the given size.
func NewRasterCanvas(width, height int) (*RasterCanvas, error) {
	c := &RasterCanvas{}
	if err := c.Resize(width, height); err != nil {
		return nil, err
	}
	return c, nil
}

// Resize reallocates the backing image when the container size changed.
func (c *RasterCanvas) Resize(width, height int) error {
	if width <= 0 || height <= 0 {
		return errors.Errorf("invalid canvas size %dx%d", width, height)
	}
	if c.img != nil && c.img.Bounds().Dx() == width && c.img.Bounds().Dy() == height {
		return nil
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	gc, err := drawing.NewRasterGraphicContext(img)
	if err != nil {
		return errors.Wrap(err, "unable to create raster context")
	}

	c.hasFont = false
	if f, err := chart.GetDefaultFont(); err == nil {
		gc.SetFont(f)
		gc.SetFontSize(labelFontSize)
		c.hasFont = true
	} else {
		logger.WithError(err).Warn("default font unavailable, using the bitmap face")
	}

	c.img = img
	c.gc = gc
	return nil
}

// Image returns the backing image. It is reused across frames.
func (c *RasterCanvas) Image() *image.RGBA {
	return c.img
}

// Stickers returns the stickers placed during the current frame.
func (c *RasterCanvas) Stickers() []StickerMark {
	return c.stickers
}

func (c *RasterCanvas) Size() (float64, float64) {
	b := c.img.Bounds()
	return float64(b.Dx()), float64(b.Dy())
}

func (c *RasterCanvas) Clear() {
	draw.Draw(c.img, c.img.Bounds(), image.Transparent, image.Point{}, draw.Src)
	c.stickers = c.stickers[:0]
}

func (c *RasterCanvas) applyStroke(s Stroke) {
	c.gc.SetStrokeColor(ParseColor(s.Color, s.Opacity))
	c.gc.SetLineWidth(math.Max(s.Width, 0.5))
	c.gc.SetLineDash(s.Dash, 0)
}

func (c *RasterCanvas) Polyline(points []geometry.Point, s Stroke) {
	if len(points) == 0 {
		return
	}
	if len(points) == 1 {
		fill := Fill{Color: s.Color, Opacity: s.Opacity}
		c.Circle(points[0], math.Max(s.Width/2, 1), Stroke{}, &fill)
		return
	}

	c.applyStroke(s)
	c.gc.BeginPath()
	c.gc.MoveTo(points[0].X, points[0].Y)
	for _, p := range points[1:] {
		c.gc.LineTo(p.X, p.Y)
	}
	c.gc.Stroke()
}

func (c *RasterCanvas) Polygon(points []geometry.Point, f Fill) {
	if len(points) < 3 {
		return
	}
	c.gc.SetFillColor(ParseColor(f.Color, f.Opacity))
	c.gc.BeginPath()
	c.gc.MoveTo(points[0].X, points[0].Y)
	for _, p := range points[1:] {
		c.gc.LineTo(p.X, p.Y)
	}
	c.gc.Close()
	c.gc.Fill()
}

func (c *RasterCanvas) Circle(center geometry.Point, radius float64, s Stroke, f *Fill) {
	if radius <= 0 {
		return
	}
	if f != nil {
		c.gc.SetFillColor(ParseColor(f.Color, f.Opacity))
		c.gc.BeginPath()
		c.gc.ArcTo(center.X, center.Y, radius, radius, 0, 2*math.Pi)
		c.gc.Close()
		c.gc.Fill()
	}
	if s.Width > 0 {
		c.applyStroke(s)
		c.gc.BeginPath()
		c.gc.ArcTo(center.X, center.Y, radius, radius, 0, 2*math.Pi)
		c.gc.Close()
		c.gc.Stroke()
	}
}

func (c *RasterCanvas) Text(at geometry.Point, text string, color string) {
	col := ParseColor(color, 1)
	if c.hasFont {
		c.gc.SetFillColor(col)
		if _, err := c.gc.FillStringAt(text, at.X, at.Y); err == nil {
			return
		}
	}

	d := font.Drawer{
		Dst:  c.img,
		Src:  image.NewUniform(col),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(int(at.X), int(at.Y)),
	}
	d.DrawString(text)
}

func (c *RasterCanvas) Sticker(box geometry.Rect, emoji string) {
	c.stickers = append(c.stickers, StickerMark{Box: box, Emoji: emoji})
}
