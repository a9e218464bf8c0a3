package gesture

import (
	"math"
	"testing"
)

const tolerance = 1e-9

func floatEqual(a, b float64) bool {
	return math.Abs(a-b) < tolerance
}

func pointNear(a, b Point, tol float64) bool {
	return math.Abs(a.X-b.X) <= tol && math.Abs(a.Y-b.Y) <= tol
}

// circleStroke traces a full circle of radius r around (cx, cy) starting
// at startDeg. wobble adds a 7-lobe radial ripple of that amplitude.
func circleStroke(m int, cx, cy, r, startDeg, wobble float64) []Point {
	points := make([]Point, m)
	start := startDeg * math.Pi / 180
	for i := range points {
		t := 2 * math.Pi * float64(i) / float64(m-1)
		radius := r + wobble*math.Sin(7*t)
		points[i] = Point{
			X: cx + radius*math.Cos(start+t),
			Y: cy + radius*math.Sin(start+t),
		}
	}
	return points
}

// lineStroke returns m evenly spaced points from a to b.
func lineStroke(m int, a, b Point) []Point {
	points := make([]Point, m)
	for i := range points {
		t := float64(i) / float64(m-1)
		points[i] = Point{X: a.X + t*(b.X-a.X), Y: a.Y + t*(b.Y-a.Y)}
	}
	return points
}

// triangleStroke walks a closed triangle through the three corners.
func triangleStroke(perSide int, a, b, c Point) []Point {
	var points []Point
	points = append(points, lineStroke(perSide, a, b)...)
	points = append(points, lineStroke(perSide, b, c)[1:]...)
	points = append(points, lineStroke(perSide, c, a)[1:]...)
	return points
}

func normalised(t *testing.T, name string, points []Point) *Gesture {
	t.Helper()
	g := FromPoints(name, points)
	if err := g.Normalise(64, 250); err != nil {
		t.Fatalf("Normalise(%s) error = %v", name, err)
	}
	return g
}
