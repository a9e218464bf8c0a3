package gesture

import (
	"fmt"
	"math"
)

// Path operations of the $1 unistroke recognizer (Wobbrock, Wilson and Li,
// UIST 2007). Every function returns a new slice and leaves its input
// untouched.

// degenerateExtent is the ratio below which a bounding box side is treated
// as flat when scaling to a square.
const degenerateExtent = 1e-9

// PathLength returns the sum of the segment lengths of path.
// Paths with fewer than two points have length 0.
func PathLength(path []Point) float64 {
	var d float64
	for i := 1; i < len(path); i++ {
		d += path[i-1].Distance(path[i])
	}
	return d
}

// Resample returns exactly n points spaced at equal arc length along path.
// The first point of path is kept as is and the last resampled point is
// always the last point of path.
func Resample(path []Point, n int) ([]Point, error) {
	if len(path) < 2 {
		return nil, fmt.Errorf("resample %d points: %w", len(path), ErrInsufficientPoints)
	}
	if n < 2 {
		return nil, fmt.Errorf("resample to %d points: %w", n, ErrInsufficientPoints)
	}

	last := path[len(path)-1]
	interval := PathLength(path) / float64(n-1)

	out := make([]Point, 0, n)
	out = append(out, path[0])

	if interval > 0 {
		var acc float64
		prev := path[0]
		for i := 1; i < len(path) && len(out) < n-1; i++ {
			cur := path[i]
			d := prev.Distance(cur)
			for d > 0 && acc+d >= interval && len(out) < n-1 {
				t := (interval - acc) / d
				q := Point{
					X: prev.X + t*(cur.X-prev.X),
					Y: prev.Y + t*(cur.Y-prev.Y),
				}
				out = append(out, q)
				// Continue from q so the rest of the segment counts
				// toward the next interval.
				d -= interval - acc
				prev = q
				acc = 0
			}
			acc += d
			prev = cur
		}
	}

	// Rounding can leave the walk one short of the final interval.
	for len(out) < n-1 {
		out = append(out, last)
	}
	return append(out, last), nil
}

// Centroid returns the mean position of the points in path.
func Centroid(path []Point) (Point, error) {
	if len(path) == 0 {
		return Point{}, ErrEmptyPath
	}
	var c Point
	for _, p := range path {
		c.X += p.X
		c.Y += p.Y
	}
	n := float64(len(path))
	return Point{X: c.X / n, Y: c.Y / n}, nil
}

// BoundingBox returns the smallest axis-aligned rectangle holding path.
func BoundingBox(path []Point) (Rect, error) {
	if len(path) == 0 {
		return Rect{}, ErrEmptyPath
	}

	minX, minY := path[0].X, path[0].Y
	maxX, maxY := path[0].X, path[0].Y
	for _, p := range path[1:] {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}

	return Rect{X: minX, Y: minY, W: maxX - minX, H: maxY - minY}, nil
}

// RotateBy rotates every point of path about center by degrees
// (counter-clockwise in a y-up frame).
func RotateBy(path []Point, center Point, degrees float64) []Point {
	sin, cos := math.Sincos(degrees * math.Pi / 180)
	out := make([]Point, len(path))
	for i, p := range path {
		dx, dy := p.X-center.X, p.Y-center.Y
		out[i] = Point{
			X: dx*cos - dy*sin + center.X,
			Y: dx*sin + dy*cos + center.Y,
		}
	}
	return out
}

// IndicativeAngle returns the angle in degrees of the vector from the first
// point of path to its centroid.
func IndicativeAngle(path []Point) (float64, error) {
	c, err := Centroid(path)
	if err != nil {
		return 0, err
	}
	return indicativeAngle(path[0], c), nil
}

func indicativeAngle(first, centroid Point) float64 {
	return math.Atan2(centroid.Y-first.Y, centroid.X-first.X) * 180 / math.Pi
}

// RotateToZero rotates path about its centroid so that its indicative
// angle becomes zero.
func RotateToZero(path []Point) ([]Point, error) {
	c, err := Centroid(path)
	if err != nil {
		return nil, err
	}
	return RotateBy(path, c, -indicativeAngle(path[0], c)), nil
}

// TranslateToOrigin moves path so that its centroid is at (0, 0).
func TranslateToOrigin(path []Point) ([]Point, error) {
	c, err := Centroid(path)
	if err != nil {
		return nil, err
	}
	out := make([]Point, len(path))
	for i, p := range path {
		out[i] = p.Sub(c)
	}
	return out, nil
}

// ScaleToSquare scales path independently on each axis so that its
// bounding box becomes a size x size square. A flat axis (zero extent, or
// negligible next to the other one) takes the other axis' factor, so a
// straight stroke keeps its shape instead of blowing up.
func ScaleToSquare(path []Point, size float64) ([]Point, error) {
	b, err := BoundingBox(path)
	if err != nil {
		return nil, err
	}

	longest := math.Max(b.W, b.H)
	if longest == 0 {
		return append([]Point(nil), path...), nil
	}

	sx, sy := size/b.W, size/b.H
	if b.W <= longest*degenerateExtent {
		sx = sy
	}
	if b.H <= longest*degenerateExtent {
		sy = sx
	}

	return scale(path, sx, sy), nil
}

// ScaleUniform scales path by a single factor so that the larger side of
// its bounding box becomes size, preserving the aspect ratio.
func ScaleUniform(path []Point, size float64) ([]Point, error) {
	b, err := BoundingBox(path)
	if err != nil {
		return nil, err
	}

	longest := math.Max(b.W, b.H)
	if longest == 0 {
		return append([]Point(nil), path...), nil
	}
	return scale(path, size/longest, size/longest), nil
}

func scale(path []Point, sx, sy float64) []Point {
	out := make([]Point, len(path))
	for i, p := range path {
		out[i] = Point{X: p.X * sx, Y: p.Y * sy}
	}
	return out
}

// PathDistance returns the mean distance between corresponding points of a
// and b, which must have the same non-zero length.
func PathDistance(a, b []Point) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%d vs %d points: %w", len(a), len(b), ErrLengthMismatch)
	}
	if len(a) == 0 {
		return 0, ErrEmptyPath
	}
	return pathDistance(a, b), nil
}

func pathDistance(a, b []Point) float64 {
	var d float64
	for i := range a {
		d += a[i].Distance(b[i])
	}
	return d / float64(len(a))
}
