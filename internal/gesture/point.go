package gesture

import (
	"math"
	"strconv"
)

// Point is a 2D sample of a stroke.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

// Distance returns the Euclidean distance between p and q.
func (p Point) Distance(q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// Sub returns the vector p - q.
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// String formats the point as "x;y;", the unit of the gesture text format.
func (p Point) String() string {
	return string(p.appendText(nil))
}

func (p Point) appendText(b []byte) []byte {
	b = strconv.AppendFloat(b, p.X, 'g', -1, 64)
	b = append(b, separator)
	b = strconv.AppendFloat(b, p.Y, 'g', -1, 64)
	return append(b, separator)
}

// Rect is an axis-aligned bounding box. (X, Y) is the minimum corner and
// W, H are the non-negative extents.
type Rect struct {
	X, Y, W, H float64
}

// Contains reports whether p lies inside r, widened by tol on every side.
func (r Rect) Contains(p Point, tol float64) bool {
	return p.X >= r.X-tol && p.X <= r.X+r.W+tol &&
		p.Y >= r.Y-tol && p.Y <= r.Y+r.H+tol
}
