package gesture

import (
	"context"
	"fmt"
	"math"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Options configures a Recognizer.
type Options struct {
	NumResampled   int     // Resample count, must match the templates
	SquareSize     float64 // Reference square side
	AngleRange     float64 // Rotation search half-width, degrees
	AnglePrecision float64 // Rotation search precision, degrees
	Uniform        bool    // Uniform scaling instead of per-axis
	Workers        int     // Concurrent template comparisons; <= 1 is sequential
}

// DefaultOptions returns the parameters of the published recognizer.
func DefaultOptions() Options {
	return Options{
		NumResampled:   64,
		SquareSize:     250,
		AngleRange:     DefaultAngleRange,
		AnglePrecision: DefaultAnglePrecision,
		Workers:        1,
	}
}

func (o Options) normalise() NormaliseOptions {
	return NormaliseOptions{
		NumResampled: o.NumResampled,
		SquareSize:   o.SquareSize,
		Uniform:      o.Uniform,
	}
}

func (o Options) search() Search {
	return Search{AngleRange: o.AngleRange, Precision: o.AnglePrecision}
}

// Match is the result of a recognition.
type Match struct {
	Name     string  `json:"name"`
	Distance float64 `json:"distance"`
	Score    float64 `json:"score"` // 1 for a perfect match, 0 at half the square diagonal
}

// Score converts a distance into the [0, 1] score of the $1 paper for a
// given square size.
func Score(distance, squareSize float64) float64 {
	halfDiagonal := 0.5 * math.Sqrt(2*squareSize*squareSize)
	return 1 - distance/halfDiagonal
}

// Recognize normalises points and returns the closest template. templates
// must already be normalised with numResampled points.
func Recognize(points []Point, numResampled int, squareSize float64, templates []*Gesture) (Match, error) {
	opts := DefaultOptions()
	opts.NumResampled = numResampled
	opts.SquareSize = squareSize

	query, err := Normalise(points, opts.normalise())
	if err != nil {
		return Match{}, err
	}
	return best(context.Background(), query, templates, opts)
}

// best compares a normalised query against every template. Ties go to the
// template that comes first in templates.
func best(ctx context.Context, query []Point, templates []*Gesture, opts Options) (Match, error) {
	if len(templates) == 0 {
		return Match{}, ErrNoTemplates
	}

	search := opts.search()
	distances := make([]float64, len(templates))

	compare := func(i int) error {
		d, err := search.DistanceAtBestAngle(query, templates[i].points)
		if err != nil {
			return fmt.Errorf("template %q: %w", templates[i].name, err)
		}
		distances[i] = d
		return nil
	}

	if opts.Workers > 1 {
		g, ctx := errgroup.WithContext(ctx)
		g.SetLimit(opts.Workers)
		for i := range templates {
			i := i
			g.Go(func() error {
				if err := ctx.Err(); err != nil {
					return err
				}
				return compare(i)
			})
		}
		if err := g.Wait(); err != nil {
			return Match{}, err
		}
	} else {
		for i := range templates {
			if err := ctx.Err(); err != nil {
				return Match{}, err
			}
			if err := compare(i); err != nil {
				return Match{}, err
			}
		}
	}

	bestIdx := 0
	for i, d := range distances {
		if d < distances[bestIdx] {
			bestIdx = i
		}
	}

	return Match{
		Name:     templates[bestIdx].name,
		Distance: distances[bestIdx],
		Score:    Score(distances[bestIdx], opts.SquareSize),
	}, nil
}

// Recognizer holds a library of normalised templates in insertion order.
// It is safe for concurrent use.
type Recognizer struct {
	opts      Options
	mu        sync.RWMutex
	templates []*Gesture
	index     map[string]int
}

// NewRecognizer creates an empty Recognizer.
func NewRecognizer(opts Options) *Recognizer {
	return &Recognizer{
		opts:  opts,
		index: make(map[string]int),
	}
}

// Options returns the recognizer configuration.
func (r *Recognizer) Options() Options {
	return r.opts
}

// AddTemplate adds an already normalised template. A template with the
// same name is replaced in place and keeps its position.
func (r *Recognizer) AddTemplate(g *Gesture) error {
	if g == nil {
		return fmt.Errorf("nil template: %w", ErrEmptyPath)
	}
	if g.Len() != r.opts.NumResampled {
		return fmt.Errorf("template %q has %d points, want %d: %w",
			g.name, g.Len(), r.opts.NumResampled, ErrLengthMismatch)
	}

	t := g.Clone()

	r.mu.Lock()
	defer r.mu.Unlock()

	if i, ok := r.index[t.name]; ok {
		r.templates[i] = t
		return nil
	}
	r.index[t.name] = len(r.templates)
	r.templates = append(r.templates, t)
	return nil
}

// AddStroke normalises a raw stroke and stores it as template name.
func (r *Recognizer) AddStroke(name string, points []Point) (*Gesture, error) {
	g := FromPoints(name, points)
	if err := g.NormaliseWith(r.opts.normalise()); err != nil {
		return nil, err
	}
	if err := r.AddTemplate(g); err != nil {
		return nil, err
	}
	return g, nil
}

// RemoveTemplate deletes the template called name and reports whether it
// existed.
func (r *Recognizer) RemoveTemplate(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	i, ok := r.index[name]
	if !ok {
		return false
	}
	r.templates = append(r.templates[:i], r.templates[i+1:]...)
	delete(r.index, name)
	for j := i; j < len(r.templates); j++ {
		r.index[r.templates[j].name] = j
	}
	return true
}

// Reset removes every template.
func (r *Recognizer) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.templates = nil
	r.index = make(map[string]int)
}

// Templates returns copies of the templates in insertion order.
func (r *Recognizer) Templates() []*Gesture {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Gesture, len(r.templates))
	for i, t := range r.templates {
		out[i] = t.Clone()
	}
	return out
}

// Len returns the number of templates.
func (r *Recognizer) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.templates)
}

// Recognize normalises points and returns the closest template.
func (r *Recognizer) Recognize(ctx context.Context, points []Point) (Match, error) {
	query, err := Normalise(points, r.opts.normalise())
	if err != nil {
		return Match{}, err
	}

	r.mu.RLock()
	templates := append([]*Gesture(nil), r.templates...)
	r.mu.RUnlock()

	return best(ctx, query, templates, r.opts)
}
