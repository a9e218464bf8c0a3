// Package gesture implements the $1 unistroke recognizer: path
// normalisation, rotation-invariant distance and template matching.
package gesture

import (
	"fmt"
	"strings"
	"unicode"
)

// DefaultName is the name of a gesture that has not been named yet.
const DefaultName = "dummy"

// NormaliseOptions controls the normalisation pipeline.
type NormaliseOptions struct {
	NumResampled int     // Points kept after resampling
	SquareSize   float64 // Side of the reference square
	Uniform      bool    // Scale by the larger side instead of per axis
}

// Gesture is a named single stroke. It owns its point slice; points handed
// in or out are copied.
type Gesture struct {
	name   string
	points []Point
}

// New returns an empty gesture. An empty name becomes DefaultName.
func New(name string) *Gesture {
	if name == "" {
		name = DefaultName
	}
	return &Gesture{name: name}
}

// FromPoints returns a gesture holding a copy of points.
func FromPoints(name string, points []Point) *Gesture {
	g := New(name)
	g.points = append([]Point(nil), points...)
	return g
}

// Name returns the gesture name.
func (g *Gesture) Name() string {
	return g.name
}

// SetName renames the gesture.
func (g *Gesture) SetName(name string) {
	g.name = name
}

// Points returns a copy of the gesture's points.
func (g *Gesture) Points() []Point {
	return append([]Point(nil), g.points...)
}

// Len returns the number of points in the gesture.
func (g *Gesture) Len() int {
	return len(g.points)
}

// AddPoint appends p to the stroke.
func (g *Gesture) AddPoint(p Point) {
	g.points = append(g.points, p)
}

// Clone returns a deep copy of g.
func (g *Gesture) Clone() *Gesture {
	return &Gesture{name: g.name, points: g.Points()}
}

// Clear drops all points and resets the name to DefaultName.
func (g *Gesture) Clear() {
	g.points = nil
	g.name = DefaultName
}

// Normalise resamples the stroke to numResampled points, rotates it to its
// indicative angle, moves its centroid to the origin and scales it to a
// squareSize square. On error the gesture is left unchanged.
func (g *Gesture) Normalise(numResampled int, squareSize float64) error {
	return g.NormaliseWith(NormaliseOptions{
		NumResampled: numResampled,
		SquareSize:   squareSize,
	})
}

// NormaliseWith is Normalise with explicit options.
func (g *Gesture) NormaliseWith(opts NormaliseOptions) error {
	points, err := Normalise(g.points, opts)
	if err != nil {
		return fmt.Errorf("normalise %q: %w", g.name, err)
	}
	g.points = points
	return nil
}

// Normalise runs the normalisation pipeline on a copy of path.
func Normalise(path []Point, opts NormaliseOptions) ([]Point, error) {
	points, err := Resample(path, opts.NumResampled)
	if err != nil {
		return nil, err
	}
	if points, err = RotateToZero(points); err != nil {
		return nil, err
	}
	if points, err = TranslateToOrigin(points); err != nil {
		return nil, err
	}
	if opts.Uniform {
		return ScaleUniform(points, opts.SquareSize)
	}
	return ScaleToSquare(points, opts.SquareSize)
}

// DistanceAtBestAngle returns the distance between g and template at the
// best rotation found with DefaultSearch. Both must be normalised with the
// same resample count.
func (g *Gesture) DistanceAtBestAngle(template *Gesture) (float64, error) {
	return DefaultSearch().DistanceAtBestAngle(g.points, template.points)
}

// String returns the text form of the gesture. Unlike MarshalText it does
// not validate the name.
func (g *Gesture) String() string {
	return string(g.appendText(nil))
}

func validName(name string) bool {
	return name != "" && strings.IndexFunc(name, unicode.IsSpace) < 0
}
