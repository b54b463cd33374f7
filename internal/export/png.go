package export

import (
	"image/png"
	"io"
	"math"

	"github.com/pkg/errors"

	"LiveChartBoard/internal/render"
)

// PNG composites frame onto a transparent raster and encodes it. Stickers are
// drawn as their box outline since the bundled font has no emoji glyphs.
func PNG(w io.Writer, frame render.Frame) error {
	vp := frame.Viewport
	if !vp.Valid() {
		return errors.Errorf("invalid viewport %gx%g", vp.Width, vp.Height)
	}

	cv, err := render.NewRasterCanvas(int(math.Ceil(vp.Width)), int(math.Ceil(vp.Height)))
	if err != nil {
		return err
	}

	render.NewCompositor().Draw(cv, frame)
	for _, mark := range cv.Stickers() {
		cv.Polyline(mark.Box.Outline(), render.Stroke{Color: "#9e9e9e", Width: 1, Opacity: 1, Dash: []float64{2, 2}})
	}

	if err := png.Encode(w, cv.Image()); err != nil {
		return errors.Wrap(err, "unable to encode png")
	}
	return nil
}
