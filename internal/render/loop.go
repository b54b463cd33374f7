package render

import (
	"context"
	"image"
	"time"

	"LiveChartBoard/internal/geometry"
	"LiveChartBoard/internal/metrics"
)

const DefaultFPS = 60

// FrameSource supplies the state to draw. It is called once per tick.
type FrameSource interface {
	Frame() Frame
}

// FrameSourceFunc adapts a function to FrameSource.
type FrameSourceFunc func() Frame

func (f FrameSourceFunc) Frame() Frame { return f() }

// Surface owns the drawing target. Prepare sizes it to the viewport and returns
// the canvas for the frame; Present hands the finished frame to the window.
type Surface interface {
	Prepare(vp geometry.Viewport) (Canvas, error)
	Present(cv Canvas)
}

// RasterSurface renders into a RasterCanvas and forwards the image.
type RasterSurface struct {
	canvas  *RasterCanvas
	present func(img *image.RGBA, stickers []StickerMark)
}

func NewRasterSurface(present func(img *image.RGBA, stickers []StickerMark)) *RasterSurface {
	return &RasterSurface{present: present}
}

func (s *RasterSurface) Prepare(vp geometry.Viewport) (Canvas, error) {
	w, h := int(vp.Width), int(vp.Height)
	if s.canvas == nil {
		c, err := NewRasterCanvas(w, h)
		if err != nil {
			return nil, err
		}
		s.canvas = c
		return c, nil
	}
	return s.canvas, s.canvas.Resize(w, h)
}

func (s *RasterSurface) Present(cv Canvas) {
	if s.present == nil {
		return
	}
	if rc, ok := cv.(*RasterCanvas); ok {
		s.present(rc.Image(), rc.Stickers())
	}
}

type frameKey struct {
	revision uint64
	viewport geometry.Viewport
}

// Loop redraws the overlay on every tick for the lifetime of the session. With
// skipUnchanged set, a tick whose revision and viewport match the previous
// frame is skipped.
type Loop struct {
	compositor *Compositor
	source     FrameSource
	surface    Surface

	interval      time.Duration
	skipUnchanged bool

	last    frameKey
	hasLast bool
}

type LoopOption func(l *Loop)

// WithFPS sets the tick rate. Non-positive values keep the default.
func WithFPS(fps int) LoopOption {
	return func(l *Loop) {
		if fps > 0 {
			l.interval = time.Second / time.Duration(fps)
		}
	}
}

func WithSkipUnchanged(skip bool) LoopOption {
	return func(l *Loop) {
		l.skipUnchanged = skip
	}
}

func NewLoop(compositor *Compositor, source FrameSource, surface Surface, options ...LoopOption) *Loop {
	l := &Loop{
		compositor: compositor,
		source:     source,
		surface:    surface,
		interval:   time.Second / DefaultFPS,
	}
	for _, o := range options {
		o(l)
	}
	return l
}

// Tick draws one frame and reports whether anything was drawn.
func (l *Loop) Tick() bool {
	f := l.source.Frame()
	if !f.Viewport.Valid() {
		metrics.RenderedFrames.WithLabelValues("skipped").Inc()
		return false
	}

	key := frameKey{revision: f.Revision, viewport: f.Viewport}
	if l.skipUnchanged && l.hasLast && key == l.last {
		metrics.RenderedFrames.WithLabelValues("skipped").Inc()
		return false
	}

	cv, err := l.surface.Prepare(f.Viewport)
	if err != nil {
		logger.WithError(err).Error("unable to prepare the overlay surface")
		metrics.RenderedFrames.WithLabelValues("error").Inc()
		return false
	}

	l.compositor.Draw(cv, f)
	l.surface.Present(cv)
	l.last, l.hasLast = key, true
	metrics.RenderedFrames.WithLabelValues("drawn").Inc()
	return true
}

// Run ticks until the context is cancelled.
func (l *Loop) Run(ctx context.Context) {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Tick()
		}
	}
}
