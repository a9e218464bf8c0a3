package gesture

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
)

func TestTrainer_SingleSample(t *testing.T) {
	trainer := NewTrainer(DefaultOptions())
	stroke := triangleStroke(10, Pt(0, 0), Pt(60, 5), Pt(25, 50))

	template, err := trainer.Train("triangle", [][]Point{stroke})
	if err != nil {
		t.Fatalf("Train() error = %v", err)
	}

	expected := normalised(t, "triangle", stroke)
	if template.Name() != "triangle" {
		t.Errorf("expected name triangle, got %q", template.Name())
	}
	got, want := template.Points(), expected.Points()
	if len(got) != len(want) {
		t.Fatalf("expected %d points, got %d", len(want), len(got))
	}
	for i := range want {
		if !pointNear(got[i], want[i], 1e-9) {
			t.Errorf("point %d = %v, expected %v", i, got[i], want[i])
		}
	}
}

func TestTrainer_AveragesSamples(t *testing.T) {
	trainer := NewTrainer(DefaultOptions())
	samples := [][]Point{
		circleStroke(50, 0, 0, 40, 0, 0),
		circleStroke(70, 100, 100, 90, 0, 1),
		circleStroke(60, -30, 20, 15, 0, 0.2),
	}

	template, err := trainer.Train("circle", samples)
	if err != nil {
		t.Fatalf("Train() error = %v", err)
	}
	if template.Len() != 64 {
		t.Fatalf("expected 64 points, got %d", template.Len())
	}

	// Each sample should be close to the averaged template.
	for i, s := range samples {
		sample := normalised(t, "sample", s)
		d, err := sample.DistanceAtBestAngle(template)
		if err != nil {
			t.Fatalf("sample %d: DistanceAtBestAngle() error = %v", i, err)
		}
		if d > 5 {
			t.Errorf("sample %d: distance to trained template %f", i, d)
		}
	}
	assertSquare(t, template, 250)
}

func TestTrainer_RenormalisesAverage(t *testing.T) {
	trainer := NewTrainer(DefaultOptions())

	// The same triangle drawn from two different corners averages to a
	// smaller, off-centre stroke.
	template, err := trainer.Train("triangle", [][]Point{
		{Pt(0, 0), Pt(100, 0), Pt(50, 80), Pt(0, 0)},
		{Pt(100, 0), Pt(50, 80), Pt(0, 0), Pt(100, 0)},
	})
	if err != nil {
		t.Fatalf("Train() error = %v", err)
	}
	assertSquare(t, template, 250)

	c, err := Centroid(template.Points())
	if err != nil {
		t.Fatalf("Centroid() error = %v", err)
	}
	if math.Abs(c.X) > 1e-9 || math.Abs(c.Y) > 1e-9 {
		t.Errorf("expected centroid at origin, got %v", c)
	}
}

// assertSquare checks that g's bounding box has its larger side equal to
// size.
func assertSquare(t *testing.T, g *Gesture, size float64) {
	t.Helper()

	b, err := BoundingBox(g.Points())
	if err != nil {
		t.Fatalf("BoundingBox() error = %v", err)
	}
	if got := math.Max(b.W, b.H); math.Abs(got-size) > 1e-6 {
		t.Errorf("expected larger bounding box side %v, got %+v", size, b)
	}
}

func TestTrainer_Errors(t *testing.T) {
	trainer := NewTrainer(DefaultOptions())

	if _, err := trainer.Train("none", nil); err == nil {
		t.Error("expected error for no samples")
	}

	_, err := trainer.Train("short", [][]Point{
		lineStroke(5, Pt(0, 0), Pt(10, 0)),
		{Pt(1, 1)},
	})
	if !errors.Is(err, ErrInsufficientPoints) {
		t.Errorf("expected ErrInsufficientPoints, got %v", err)
	}
}

func TestParseSamples(t *testing.T) {
	raw := []json.RawMessage{
		json.RawMessage(`{"points": [{"x": 0, "y": 0}, {"x": 1.5, "y": -2}]}`),
		json.RawMessage(`{"points": []}`),
		json.RawMessage(` [{"x": 3, "y": 4}]`),
	}

	samples, err := ParseSamples(raw)
	if err != nil {
		t.Fatalf("ParseSamples() error = %v", err)
	}
	if len(samples) != 3 {
		t.Fatalf("expected 3 samples, got %d", len(samples))
	}
	if len(samples[0]) != 2 || samples[0][1] != Pt(1.5, -2) {
		t.Errorf("unexpected first sample %v", samples[0])
	}
	if len(samples[2]) != 1 || samples[2][0] != Pt(3, 4) {
		t.Errorf("unexpected bare array sample %v", samples[2])
	}

	if _, err := ParseSamples([]json.RawMessage{json.RawMessage(`{invalid json}`)}); err == nil {
		t.Error("expected error for invalid JSON")
	}
}
