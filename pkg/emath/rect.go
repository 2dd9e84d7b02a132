package emath

import(
	"fmt"
	"image"
	"math"
)

// Point is a continuous 2D coordinate; unlike image.Point it can sit
// anywhere inside a pixel.
type Point struct {
	X, Y float64
}

func (p Point) Add(q Point) Point { return Point{p.X + q.X, p.Y + q.Y} }
func (p Point) Sub(q Point) Point { return Point{p.X - q.X, p.Y - q.Y} }
func (p Point) Dist(q Point) float64 { return math.Hypot(p.X-q.X, p.Y-q.Y) }
func (p Point) String() string { return fmt.Sprintf("(%.3f,%.3f)", p.X, p.Y) }

// A Rect is a float version of image.Rectangle. The zero value is the
// degenerate rect at the origin; use EmptyRect to start accumulating points.
type Rect struct {
	Min, Max Point
}

func EmptyRect() Rect {
	return Rect{
		Min: Point{math.Inf(1), math.Inf(1)},
		Max: Point{math.Inf(-1), math.Inf(-1)},
	}
}

func (r Rect) Empty() bool { return r.Min.X > r.Max.X || r.Min.Y > r.Max.Y }
func (r Rect) Dx() float64 { return r.Max.X - r.Min.X }
func (r Rect) Dy() float64 { return r.Max.Y - r.Min.Y }
func (r Rect) Center() Point { return Point{(r.Min.X + r.Max.X) / 2, (r.Min.Y + r.Max.Y) / 2} }

func (r Rect) String() string {
	if r.Empty() {
		return "rect[empty]"
	}
	return fmt.Sprintf("rect[%s-%s]", r.Min, r.Max)
}

// Grow returns the smallest rect containing both r and p.
func (r Rect) Grow(p Point) Rect {
	if p.X < r.Min.X {
		r.Min.X = p.X
	}
	if p.X > r.Max.X {
		r.Max.X = p.X
	}

	if p.Y < r.Min.Y {
		r.Min.Y = p.Y
	}
	if p.Y > r.Max.Y {
		r.Max.Y = p.Y
	}

	return r
}

func (r Rect) Union(s Rect) Rect {
	if s.Empty() {
		return r
	} else if r.Empty() {
		return s
	}
	return r.Grow(s.Min).Grow(s.Max)
}

func (r Rect) Intersect(s Rect) Rect {
	r.Min.X = math.Max(r.Min.X, s.Min.X)
	r.Min.Y = math.Max(r.Min.Y, s.Min.Y)
	r.Max.X = math.Min(r.Max.X, s.Max.X)
	r.Max.Y = math.Min(r.Max.Y, s.Max.Y)
	return r
}

func (r Rect) Contains(p Point) bool {
	return p.X >= r.Min.X && p.X <= r.Max.X && p.Y >= r.Min.Y && p.Y <= r.Max.Y
}

// ImageRect returns the smallest image.Rectangle that covers r.
func (r Rect) ImageRect() image.Rectangle {
	if r.Empty() {
		return image.Rectangle{}
	}
	return image.Rect(int(math.Floor(r.Min.X)), int(math.Floor(r.Min.Y)),
		int(math.Ceil(r.Max.X)), int(math.Ceil(r.Max.Y)))
}
