package geometry

import "math"

const (
	// HandleRadius is the grab radius of a circular shape handle.
	HandleRadius = 10.0

	// AreaPadding is added around a shape's bounding box for area hits.
	AreaPadding = 5.0
)

// HitHandle reports whether p is within radius of the handle centre.
func HitHandle(p, handle Point, radius float64) bool {
	return p.Distance(handle) <= radius
}

// HitArea reports whether p lies inside the padded bounding box of points.
func HitArea(p Point, points []Point, padding float64) bool {
	if len(points) == 0 {
		return false
	}
	return Bounds(points).Inflate(padding).Contains(p)
}

// SegmentDistance returns the distance from p to the closest point of segment a-b.
func SegmentDistance(p, a, b Point) float64 {
	d := b.Sub(a)
	lengthSq := d.X*d.X + d.Y*d.Y
	if lengthSq == 0 {
		return p.Distance(a)
	}

	t := ((p.X-a.X)*d.X + (p.Y-a.Y)*d.Y) / lengthSq
	t = math.Max(0, math.Min(1, t))
	return p.Distance(a.Add(d.Scale(t)))
}

// NearPolyline reports whether p is within tolerance of any segment of the
// polyline. A single point polyline is treated as a dot.
func NearPolyline(p Point, points []Point, tolerance float64) bool {
	switch len(points) {
	case 0:
		return false
	case 1:
		return p.Distance(points[0]) <= tolerance
	}

	for i := 1; i < len(points); i++ {
		if SegmentDistance(p, points[i-1], points[i]) <= tolerance {
			return true
		}
	}
	return false
}

// HitSquare reports whether p is inside the square of the given side centred at c.
func HitSquare(p, c Point, side float64) bool {
	half := side / 2
	return p.X >= c.X-half && p.X <= c.X+half && p.Y >= c.Y-half && p.Y <= c.Y+half
}
