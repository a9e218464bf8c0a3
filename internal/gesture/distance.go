package gesture

import (
	"fmt"
	"math"
)

// Golden-section search parameters.
const (
	// GoldenRatio is φ = (√5 − 1) / 2.
	GoldenRatio = 0.6180339887498949

	// DefaultAngleRange bounds the search to [-45°, +45°].
	DefaultAngleRange = 45.0

	// DefaultAnglePrecision is the bracket width, in degrees, at which the
	// search stops.
	DefaultAnglePrecision = 1.0
)

// Search finds the rotation that minimises the path distance between two
// normalised strokes. A Precision of zero or less searches with
// DefaultAnglePrecision.
type Search struct {
	AngleRange float64 // Half-width of the searched angle range, degrees
	Precision  float64 // Stop once the bracket is narrower than this, degrees; <= 0 selects the default
}

// DefaultSearch returns the search used by the published algorithm.
func DefaultSearch() Search {
	return Search{
		AngleRange: DefaultAngleRange,
		Precision:  DefaultAnglePrecision,
	}
}

// DistanceAtAngle rotates a copy of query about its centroid by degrees and
// returns its path distance to template.
func (s Search) DistanceAtAngle(query, template []Point, degrees float64) (float64, error) {
	if len(query) != len(template) {
		return 0, fmt.Errorf("%d vs %d points: %w", len(query), len(template), ErrLengthMismatch)
	}
	c, err := Centroid(query)
	if err != nil {
		return 0, err
	}
	return pathDistance(RotateBy(query, c, degrees), template), nil
}

// DistanceAtBestAngle searches [-AngleRange, +AngleRange] for the rotation
// of query closest to template and returns the distance at the midpoint of
// the final bracket.
func (s Search) DistanceAtBestAngle(query, template []Point) (float64, error) {
	if len(query) != len(template) {
		return 0, fmt.Errorf("%d vs %d points: %w", len(query), len(template), ErrLengthMismatch)
	}
	c, err := Centroid(query)
	if err != nil {
		return 0, err
	}

	at := func(degrees float64) float64 {
		return pathDistance(RotateBy(query, c, degrees), template)
	}

	angle, _ := s.minimise(at)
	return at(angle), nil
}

// bracket is the state of a golden-section search. x1 < x2 are the interior
// probes of [a, b] and f1, f2 their objective values.
type bracket struct {
	a, b   float64
	x1, x2 float64
	f1, f2 float64
}

// minimise runs a golden-section search for the minimum of f and returns
// the midpoint of the final bracket together with the number of objective
// evaluations it took.
func (s Search) minimise(f func(float64) float64) (angle float64, evals int) {
	a, b := -math.Abs(s.AngleRange), math.Abs(s.AngleRange)
	br := bracket{a: a, b: b}
	br.x1 = GoldenRatio*br.a + (1-GoldenRatio)*br.b
	br.x2 = (1-GoldenRatio)*br.a + GoldenRatio*br.b
	br.f1, br.f2 = f(br.x1), f(br.x2)
	evals = 2

	// A non-positive precision would never terminate; use the default.
	precision := s.Precision
	if precision <= 0 {
		precision = DefaultAnglePrecision
	}

	for br.b-br.a >= precision {
		if br.f1 < br.f2 {
			br.b = br.x2
			br.x2, br.f2 = br.x1, br.f1
			br.x1 = GoldenRatio*br.a + (1-GoldenRatio)*br.b
			br.f1 = f(br.x1)
		} else {
			br.a = br.x1
			br.x1, br.f1 = br.x2, br.f2
			br.x2 = (1-GoldenRatio)*br.a + GoldenRatio*br.b
			br.f2 = f(br.x2)
		}
		evals++
	}

	return (br.a + br.b) / 2, evals
}

// DistanceAtBestAngle returns the rotation-invariant distance from query to
// template using DefaultSearch.
func DistanceAtBestAngle(query, template *Gesture) (float64, error) {
	return query.DistanceAtBestAngle(template)
}
