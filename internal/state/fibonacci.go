package state

// FibKind is one of the ten Fibonacci studies.
type FibKind string

const (
	FibRetracement    FibKind = "retracement"
	FibTrendExtension FibKind = "trendExtension"
	FibChannel        FibKind = "channel"
	FibTimeZone       FibKind = "timeZone"
	FibSpeedFan       FibKind = "speedFan"
	FibTrendTime      FibKind = "trendTime"
	FibCircles        FibKind = "circles"
	FibSpiral         FibKind = "spiral"
	FibArcs           FibKind = "arcs"
	FibWedge          FibKind = "wedge"
)

// FibKinds lists every Fibonacci study in toolbar order.
var FibKinds = []FibKind{
	FibRetracement, FibTrendExtension, FibChannel, FibTimeZone, FibSpeedFan,
	FibTrendTime, FibCircles, FibSpiral, FibArcs, FibWedge,
}

var defaultLevels = map[FibKind][]float64{
	FibRetracement:    {0, 0.236, 0.382, 0.5, 0.618, 0.786, 1},
	FibTrendExtension: {0, 0.382, 0.618, 1, 1.272, 1.618, 2.618},
	FibChannel:        {0, 0.382, 0.618, 1, 1.618},
	FibTimeZone:       {0, 1, 2, 3, 5, 8, 13, 21, 34, 55, 89},
	FibSpeedFan:       {0, 0.25, 0.382, 0.5, 0.618, 0.75, 1},
	FibTrendTime:      {0, 0.382, 0.5, 0.618, 1, 1.382, 1.618, 2},
	FibCircles:        {0.382, 0.5, 0.618, 1, 1.618},
	FibSpiral:         {1},
	FibArcs:           {0.382, 0.5, 0.618, 1},
	FibWedge:          {0.236, 0.382, 0.5, 0.618, 0.786, 1},
}

// DefaultLevels returns a copy of the ratio set a new study of this kind starts with.
func (k FibKind) DefaultLevels() []float64 {
	levels := defaultLevels[k]
	out := make([]float64, len(levels))
	copy(out, levels)
	return out
}

// PointCount is the number of clicks needed to define the study.
func (k FibKind) PointCount() int {
	if k == FibWedge {
		return 3
	}
	return 2
}

func (k FibKind) Valid() bool {
	_, ok := defaultLevels[k]
	return ok
}

// FibonacciDrawing is a committed Fibonacci study. Points holds the anchor, the
// drag point and, for wedges, the third point.
type FibonacciDrawing struct {
	ID      string    `json:"id"`
	Type    FibKind   `json:"type"`
	Points  []Point   `json:"points"`
	Color   string    `json:"color"`
	Levels  []float64 `json:"levels"`
	Visible bool      `json:"visible"`
}

func (d FibonacciDrawing) Anchor() Point { return d.Points[0] }

func (d FibonacciDrawing) Drag() Point { return d.Points[1] }

func (d FibonacciDrawing) Clone() FibonacciDrawing {
	d.Points = clonePoints(d.Points)
	if d.Levels != nil {
		d.Levels = append([]float64(nil), d.Levels...)
	}
	return d
}

// FibPreview is the live candidate shape shown between the clicks. Fixed holds
// the points already clicked; Drag follows the pointer.
type FibPreview struct {
	Type   FibKind `json:"type"`
	Anchor Point   `json:"anchor"`
	Drag   Point   `json:"drag"`
	Fixed  []Point `json:"fixed,omitempty"`
	Color  string  `json:"color"`
}

// Drawing converts the preview into the drawing it would commit to.
func (p FibPreview) Drawing() FibonacciDrawing {
	points := clonePoints(p.Fixed)
	if len(points) == 0 {
		points = []Point{p.Anchor}
	}
	points = append(points, p.Drag)
	return FibonacciDrawing{
		Type:    p.Type,
		Points:  points,
		Color:   p.Color,
		Levels:  p.Type.DefaultLevels(),
		Visible: true,
	}
}

func (p *FibPreview) Clone() *FibPreview {
	if p == nil {
		return nil
	}
	c := *p
	c.Fixed = clonePoints(p.Fixed)
	return &c
}
