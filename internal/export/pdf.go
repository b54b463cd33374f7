package export

import (
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf"
	"github.com/pkg/errors"

	"LiveChartBoard/internal/geometry"
	"LiveChartBoard/internal/render"
)

const pdfFontSize = 9

// PDFCanvas draws frames as vector graphics on a single PDF page whose size in
// points equals the viewport in pixels.
type PDFCanvas struct {
	pdf       *gofpdf.Fpdf
	width     float64
	height    float64
	translate func(string) string
}

func NewPDFCanvas(width, height float64) *PDFCanvas {
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           gofpdf.SizeType{Wd: width, Ht: height},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCreator("LiveChartBoard", true)
	pdf.AddPage()
	pdf.SetFont("Helvetica", "", pdfFontSize)

	return &PDFCanvas{
		pdf:       pdf,
		width:     width,
		height:    height,
		translate: pdf.UnicodeTranslatorFromDescriptor(""),
	}
}

func (c *PDFCanvas) SetTitle(title string) {
	c.pdf.SetTitle(title, true)
}

func (c *PDFCanvas) Size() (float64, float64) {
	return c.width, c.height
}

// Clear is a no-op: every canvas starts on a blank page.
func (c *PDFCanvas) Clear() {}

func (c *PDFCanvas) setDrawColor(color string, opacity float64) {
	col := render.ParseColor(color, opacity)
	c.pdf.SetDrawColor(int(col.R), int(col.G), int(col.B))
	c.pdf.SetAlpha(float64(col.A)/255, "Normal")
}

func (c *PDFCanvas) setFillColor(color string, opacity float64) {
	col := render.ParseColor(color, opacity)
	c.pdf.SetFillColor(int(col.R), int(col.G), int(col.B))
	c.pdf.SetAlpha(float64(col.A)/255, "Normal")
}

func (c *PDFCanvas) Polyline(points []geometry.Point, s render.Stroke) {
	if len(points) == 0 {
		return
	}
	if len(points) == 1 {
		c.setFillColor(s.Color, s.Opacity)
		c.pdf.Circle(points[0].X, points[0].Y, s.Width/2, "F")
		return
	}

	c.setDrawColor(s.Color, s.Opacity)
	c.pdf.SetLineWidth(s.Width)
	c.pdf.SetLineCapStyle("round")
	c.pdf.SetLineJoinStyle("round")
	c.pdf.SetDashPattern(s.Dash, 0)

	c.pdf.MoveTo(points[0].X, points[0].Y)
	for _, p := range points[1:] {
		c.pdf.LineTo(p.X, p.Y)
	}
	c.pdf.DrawPath("D")
	c.pdf.SetDashPattern(nil, 0)
}

func (c *PDFCanvas) Polygon(points []geometry.Point, f render.Fill) {
	if len(points) < 3 {
		return
	}
	c.setFillColor(f.Color, f.Opacity)

	pts := make([]gofpdf.PointType, len(points))
	for i, p := range points {
		pts[i] = gofpdf.PointType{X: p.X, Y: p.Y}
	}
	c.pdf.Polygon(pts, "F")
}

func (c *PDFCanvas) Circle(center geometry.Point, radius float64, s render.Stroke, f *render.Fill) {
	if f != nil {
		c.setFillColor(f.Color, f.Opacity)
		c.pdf.Circle(center.X, center.Y, radius, "F")
	}
	c.setDrawColor(s.Color, s.Opacity)
	c.pdf.SetLineWidth(s.Width)
	c.pdf.SetDashPattern(s.Dash, 0)
	c.pdf.Circle(center.X, center.Y, radius, "D")
	c.pdf.SetDashPattern(nil, 0)
}

func (c *PDFCanvas) Text(at geometry.Point, text string, color string) {
	col := render.ParseColor(color, 1)
	c.pdf.SetTextColor(int(col.R), int(col.G), int(col.B))
	c.pdf.SetAlpha(1, "Normal")
	c.pdf.Text(at.X, at.Y, c.translate(text))
}

// Sticker draws the sticker box with its code points; the core PDF fonts have
// no emoji glyphs.
func (c *PDFCanvas) Sticker(box geometry.Rect, emoji string) {
	c.setDrawColor("#9e9e9e", 1)
	c.pdf.SetLineWidth(1)
	c.pdf.SetDashPattern([]float64{2, 2}, 0)
	c.pdf.Rect(box.X, box.Y, box.Width, box.Height, "D")
	c.pdf.SetDashPattern(nil, 0)

	label := ""
	for _, r := range emoji {
		label += fmt.Sprintf("%U ", r)
	}
	c.Text(geometry.Pt(box.X, box.Y+box.Height+pdfFontSize), label, "#616161")
}

// Output writes the document. Drawing errors are sticky in gofpdf and surface
// here.
func (c *PDFCanvas) Output(w io.Writer) error {
	if err := c.pdf.Output(w); err != nil {
		return errors.Wrap(err, "unable to write pdf")
	}
	return nil
}

// PDF composites frame onto a page and writes it to w.
func PDF(w io.Writer, frame render.Frame) error {
	vp := frame.Viewport
	if !vp.Valid() {
		return errors.Errorf("invalid viewport %gx%g", vp.Width, vp.Height)
	}

	cv := NewPDFCanvas(vp.Width, vp.Height)
	cv.SetTitle(title(frame))
	render.NewCompositor().Draw(cv, frame)
	return cv.Output(w)
}
