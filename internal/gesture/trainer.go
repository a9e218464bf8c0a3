package gesture

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Trainer turns several recordings of the same stroke into one template.
type Trainer struct {
	opts NormaliseOptions
}

// NewTrainer creates a Trainer that normalises samples with opts.
func NewTrainer(opts Options) *Trainer {
	return &Trainer{opts: opts.normalise()}
}

// Sample is the JSON form of a recorded stroke.
type Sample struct {
	Points []Point `json:"points"`
}

// ParseSamples decodes JSON samples of the form {"points":[{"x":0,"y":0}]}
// or a bare point array [{"x":0,"y":0}].
func ParseSamples(raw []json.RawMessage) ([][]Point, error) {
	samples := make([][]Point, 0, len(raw))
	for i, data := range raw {
		var s Sample
		var err error
		if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '[' {
			err = json.Unmarshal(trimmed, &s.Points)
		} else {
			err = json.Unmarshal(data, &s)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse sample %d: %w", i, err)
		}
		samples = append(samples, s.Points)
	}
	return samples, nil
}

// Train normalises every sample, averages them point by point and
// normalises the average. With a single sample the result is that sample,
// normalised.
func (t *Trainer) Train(name string, samples [][]Point) (*Gesture, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("no samples provided: %w", ErrInsufficientPoints)
	}

	normalised := make([][]Point, len(samples))
	for i, s := range samples {
		points, err := Normalise(s, t.opts)
		if err != nil {
			return nil, fmt.Errorf("sample %d: %w", i, err)
		}
		normalised[i] = points
	}
	if len(normalised) == 1 {
		return FromPoints(name, normalised[0]), nil
	}

	averaged := make([]Point, t.opts.NumResampled)
	n := float64(len(normalised))
	for i := range averaged {
		var sumX, sumY float64
		for _, points := range normalised {
			sumX += points[i].X
			sumY += points[i].Y
		}
		averaged[i] = Point{X: sumX / n, Y: sumY / n}
	}

	// Averaging shrinks and shifts the stroke when samples disagree.
	points, err := Normalise(averaged, t.opts)
	if err != nil {
		return nil, fmt.Errorf("averaged template: %w", err)
	}
	return FromPoints(name, points), nil
}
