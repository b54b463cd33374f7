// Package geometry provides the pixel-space primitives, price transforms and
// hit tests used by the drawing tools and the compositor.
package geometry

import (
	"math"
)

// Phi is the golden ratio.
const Phi = 1.618033988749895

// Point represents a 2D point in canvas pixel coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Pt creates a new Point.
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

// Distance returns the Euclidean distance to another point.
func (p Point) Distance(other Point) float64 {
	return math.Hypot(p.X-other.X, p.Y-other.Y)
}

// Add returns the sum of two points.
func (p Point) Add(other Point) Point {
	return Point{X: p.X + other.X, Y: p.Y + other.Y}
}

// Sub returns the difference of two points.
func (p Point) Sub(other Point) Point {
	return Point{X: p.X - other.X, Y: p.Y - other.Y}
}

// Scale returns the point scaled by a factor.
func (p Point) Scale(factor float64) Point {
	return Point{X: p.X * factor, Y: p.Y * factor}
}

// Rect represents an axis-aligned rectangle.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// NewRect creates a new Rect.
func NewRect(x, y, width, height float64) Rect {
	return Rect{X: x, Y: y, Width: width, Height: height}
}

// Contains returns true if the point is inside the rectangle, edges included.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X <= r.X+r.Width &&
		p.Y >= r.Y && p.Y <= r.Y+r.Height
}

// Center returns the center point of the rectangle.
func (r Rect) Center() Point {
	return Point{X: r.X + r.Width/2, Y: r.Y + r.Height/2}
}

// Max returns the bottom-right corner.
func (r Rect) Max() Point {
	return Point{X: r.X + r.Width, Y: r.Y + r.Height}
}

// Outline returns the corners clockwise from the top left, closed by repeating
// the first one.
func (r Rect) Outline() []Point {
	return []Point{
		{X: r.X, Y: r.Y},
		{X: r.X + r.Width, Y: r.Y},
		{X: r.X + r.Width, Y: r.Y + r.Height},
		{X: r.X, Y: r.Y + r.Height},
		{X: r.X, Y: r.Y},
	}
}

// Inflate grows the rectangle by padding on every side.
func (r Rect) Inflate(padding float64) Rect {
	return Rect{
		X:      r.X - padding,
		Y:      r.Y - padding,
		Width:  r.Width + 2*padding,
		Height: r.Height + 2*padding,
	}
}

// Angle returns the angle of the a->b direction in degrees, counter-clockwise
// from the positive x axis as seen on screen (pixel y grows downwards).
func Angle(a, b Point) float64 {
	return math.Atan2(a.Y-b.Y, b.X-a.X) * 180 / math.Pi
}

// ExtendRay returns the point where the ray starting at from and passing through
// through leaves the [0,w]x[0,h] canvas. The result is never closer to from than
// through, so short rays drawn outside the canvas still reach their second point.
func ExtendRay(from, through Point, w, h float64) Point {
	d := through.Sub(from)
	if d.X == 0 && d.Y == 0 {
		return through
	}

	t := math.Inf(1)
	if d.X > 0 {
		t = math.Min(t, (w-from.X)/d.X)
	} else if d.X < 0 {
		t = math.Min(t, -from.X/d.X)
	}
	if d.Y > 0 {
		t = math.Min(t, (h-from.Y)/d.Y)
	} else if d.Y < 0 {
		t = math.Min(t, -from.Y/d.Y)
	}

	if t < 1 || math.IsInf(t, 1) {
		t = 1
	}
	return from.Add(d.Scale(t))
}

// ExtendLine extends the a-b segment in both directions to the canvas edges.
func ExtendLine(a, b Point, w, h float64) (Point, Point) {
	return ExtendRay(b, a, w, h), ExtendRay(a, b, w, h)
}

// CirclePoint returns the point on a circle at angle radians, measured
// counter-clockwise on screen.
func CirclePoint(center Point, radius, angle float64) Point {
	return Point{
		X: center.X + radius*math.Cos(angle),
		Y: center.Y - radius*math.Sin(angle),
	}
}

// ArcPoints samples an arc from start to end (radians) with the given number of
// segments.
func ArcPoints(center Point, radius, start, end float64, segments int) []Point {
	if segments < 1 {
		segments = 1
	}
	points := make([]Point, 0, segments+1)
	step := (end - start) / float64(segments)
	for i := 0; i <= segments; i++ {
		points = append(points, CirclePoint(center, radius, start+step*float64(i)))
	}
	return points
}

// SpiralPoints samples a golden spiral centred at center whose radius at angle
// phase0 equals radius. The radius grows by Phi every quarter turn and
// quarterTurns quarter turns are sampled inwards from phase0.
func SpiralPoints(center Point, radius, phase0 float64, quarterTurns, segmentsPerQuarter int) []Point {
	if radius <= 0 || quarterTurns <= 0 {
		return nil
	}
	if segmentsPerQuarter < 1 {
		segmentsPerQuarter = 8
	}

	total := quarterTurns * segmentsPerQuarter
	points := make([]Point, 0, total+1)
	for i := -total; i <= 0; i++ {
		theta := float64(i) / float64(segmentsPerQuarter) * math.Pi / 2
		r := radius * math.Pow(Phi, theta/(math.Pi/2))
		points = append(points, CirclePoint(center, r, phase0+theta))
	}
	return points
}
