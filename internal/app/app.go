// Package app ties the recognizer to template storage and plugin actions.
package app

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ayusman/unistroke/internal/gesture"
	"github.com/ayusman/unistroke/internal/plugin"
	"github.com/ayusman/unistroke/internal/store"
)

// ErrNoMatch is returned when the closest template is farther than the
// configured maximum distance.
var ErrNoMatch = errors.New("no template within maximum distance")

// Config holds configuration options for the application.
type Config struct {
	Store         *store.Store
	PluginDir     string
	PluginTimeout time.Duration
	Recognizer    gesture.Options
	// MaxDistance rejects matches farther than this; zero accepts any match.
	MaxDistance float64
	Logger      *slog.Logger
}

// App owns the template library and runs the action bound to a recognised
// template.
type App struct {
	config     Config
	trainer    *gesture.Trainer
	pluginMgr  *plugin.Manager
	pluginExec *plugin.Executor
	logger     *slog.Logger

	mu         sync.RWMutex
	recognizer *gesture.Recognizer
	ids        map[string]string // template name -> store ID
}

// New creates a new App instance with the given configuration. Templates
// are not loaded until LoadTemplates is called.
func New(config Config) *App {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &App{
		config:     config,
		trainer:    gesture.NewTrainer(config.Recognizer),
		pluginMgr:  plugin.NewManager(config.PluginDir),
		pluginExec: plugin.NewExecutor(config.PluginTimeout),
		logger:     logger.With("component", "app"),
		recognizer: gesture.NewRecognizer(config.Recognizer),
		ids:        make(map[string]string),
	}
}

// LoadTemplates rebuilds the recognizer from the store. Templates are added
// in insertion order so ties resolve the same way across restarts. A
// template that cannot be decoded or was normalised with other settings is
// logged and skipped.
func (a *App) LoadTemplates() error {
	templates, err := a.config.Store.Templates().List()
	if err != nil {
		return fmt.Errorf("list templates: %w", err)
	}

	opts := a.config.Recognizer
	recognizer := gesture.NewRecognizer(opts)
	ids := make(map[string]string, len(templates))

	for _, t := range templates {
		if t.NumResampled != opts.NumResampled || t.SquareSize != opts.SquareSize {
			a.logger.Warn("skipping template normalised with other settings",
				"template", t.Name,
				"num_resampled", t.NumResampled,
				"square_size", t.SquareSize,
			)
			continue
		}

		g, err := t.Decode()
		if err != nil {
			a.logger.Warn("skipping malformed template", "template", t.Name, "error", err)
			continue
		}

		if err := recognizer.AddTemplate(g); err != nil {
			a.logger.Warn("skipping template", "template", t.Name, "error", err)
			continue
		}
		ids[t.Name] = t.ID
	}

	a.mu.Lock()
	a.recognizer = recognizer
	a.ids = ids
	a.mu.Unlock()

	a.logger.Info("templates loaded", "count", recognizer.Len(), "skipped", len(templates)-recognizer.Len())
	return nil
}

// DiscoverPlugins scans the plugin directory and loads available plugins.
func (a *App) DiscoverPlugins() error {
	return a.pluginMgr.Discover()
}

// Recognizer returns the current recognizer.
func (a *App) Recognizer() *gesture.Recognizer {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.recognizer
}

// templateID returns the store ID of a loaded template.
func (a *App) templateID(name string) string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.ids[name]
}

// CreateTemplate trains a new template from one or more raw strokes and
// stores it together with its samples.
func (a *App) CreateTemplate(name string, samples [][]gesture.Point) (*store.Template, error) {
	g, err := a.trainer.Train(name, samples)
	if err != nil {
		return nil, err
	}

	t, err := store.NewTemplate(uuid.NewString(), g, a.config.Recognizer.SquareSize)
	if err != nil {
		return nil, err
	}
	if err := a.config.Store.Templates().Create(t); err != nil {
		return nil, fmt.Errorf("create template %s: %w", name, err)
	}
	if err := a.config.Store.Samples().Replace(t.ID, rawSamples(name, samples)); err != nil {
		a.config.Store.Templates().Delete(t.ID)
		return nil, fmt.Errorf("store samples for %s: %w", name, err)
	}
	t.Samples = len(samples)

	a.logger.Info("template created", "template", name, "id", t.ID, "samples", len(samples))
	return t, a.LoadTemplates()
}

// Train replaces the samples of an existing template and retrains it.
func (a *App) Train(templateID string, samples [][]gesture.Point) (*store.Template, error) {
	t, err := a.config.Store.Templates().GetByID(templateID)
	if err != nil {
		return nil, err
	}

	g, err := a.trainer.Train(t.Name, samples)
	if err != nil {
		return nil, err
	}

	if err := a.config.Store.Samples().Replace(t.ID, rawSamples(t.Name, samples)); err != nil {
		return nil, fmt.Errorf("store samples for %s: %w", t.Name, err)
	}
	if err := t.SetGesture(g); err != nil {
		return nil, err
	}
	t.SquareSize = a.config.Recognizer.SquareSize
	t.Samples = len(samples)
	if err := a.config.Store.Templates().Update(t); err != nil {
		return nil, fmt.Errorf("update template %s: %w", t.Name, err)
	}

	a.logger.Info("template trained", "template", t.Name, "id", t.ID, "samples", len(samples))
	return t, a.LoadTemplates()
}

// Retrain renormalises every template that has stored samples with the
// current settings. It returns the number of templates retrained.
func (a *App) Retrain() (int, error) {
	templates, err := a.config.Store.Templates().List()
	if err != nil {
		return 0, fmt.Errorf("list templates: %w", err)
	}

	retrained := 0
	for _, t := range templates {
		stored, err := a.config.Store.Samples().GetByTemplateID(t.ID)
		if err != nil {
			return retrained, err
		}
		if len(stored) == 0 {
			continue
		}

		samples := make([][]gesture.Point, 0, len(stored))
		for _, s := range stored {
			g, err := s.Decode()
			if err != nil {
				return retrained, fmt.Errorf("template %s: %w", t.Name, err)
			}
			samples = append(samples, g.Points())
		}

		g, err := a.trainer.Train(t.Name, samples)
		if err != nil {
			return retrained, fmt.Errorf("template %s: %w", t.Name, err)
		}
		if err := t.SetGesture(g); err != nil {
			return retrained, err
		}
		t.SquareSize = a.config.Recognizer.SquareSize
		if err := a.config.Store.Templates().Update(t); err != nil {
			return retrained, err
		}
		retrained++
	}

	return retrained, a.LoadTemplates()
}

// ImportTemplate normalises a raw stroke and stores it under the stroke's
// name, replacing the stroke of an existing template with that name. It
// reports whether a new template was created. The recognizer is not
// reloaded; call LoadTemplates after a batch of imports.
func (a *App) ImportTemplate(g *gesture.Gesture) (*store.Template, bool, error) {
	normalised := g.Clone()
	if err := normalised.NormaliseWith(normaliseOptions(a.config.Recognizer)); err != nil {
		return nil, false, fmt.Errorf("template %s: %w", g.Name(), err)
	}

	repo := a.config.Store.Templates()
	existing, err := repo.GetByName(g.Name())
	switch {
	case errors.Is(err, store.ErrNotFound):
		t, err := store.NewTemplate(uuid.NewString(), normalised, a.config.Recognizer.SquareSize)
		if err != nil {
			return nil, false, err
		}
		if err := repo.Create(t); err != nil {
			return nil, false, err
		}
		if err := a.config.Store.Samples().Replace(t.ID, []*gesture.Gesture{g}); err != nil {
			return nil, false, err
		}
		t.Samples = 1
		return t, true, nil
	case err != nil:
		return nil, false, err
	}

	if err := existing.SetGesture(normalised); err != nil {
		return nil, false, err
	}
	existing.SquareSize = a.config.Recognizer.SquareSize
	if err := a.config.Store.Samples().Replace(existing.ID, []*gesture.Gesture{g}); err != nil {
		return nil, false, err
	}
	existing.Samples = 1
	if err := repo.Update(existing); err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

// RenameTemplate changes a template's name.
func (a *App) RenameTemplate(templateID, name string) (*store.Template, error) {
	repo := a.config.Store.Templates()
	t, err := repo.GetByID(templateID)
	if err != nil {
		return nil, err
	}

	g, err := t.Decode()
	if err != nil {
		return nil, err
	}
	g.SetName(name)
	if err := t.SetGesture(g); err != nil {
		return nil, err
	}
	if err := repo.Update(t); err != nil {
		return nil, err
	}

	return t, a.LoadTemplates()
}

// RemoveTemplate deletes a template, its samples and its action.
func (a *App) RemoveTemplate(templateID string) error {
	if err := a.config.Store.Templates().Delete(templateID); err != nil {
		return err
	}
	return a.LoadTemplates()
}

// PluginManager returns the plugin manager.
func (a *App) PluginManager() *plugin.Manager {
	return a.pluginMgr
}

// Store returns the template store.
func (a *App) Store() *store.Store {
	return a.config.Store
}

// Options returns the recognizer options templates are normalised with.
func (a *App) Options() gesture.Options {
	return a.config.Recognizer
}

func normaliseOptions(opts gesture.Options) gesture.NormaliseOptions {
	return gesture.NormaliseOptions{
		NumResampled: opts.NumResampled,
		SquareSize:   opts.SquareSize,
		Uniform:      opts.Uniform,
	}
}

func rawSamples(name string, samples [][]gesture.Point) []*gesture.Gesture {
	out := make([]*gesture.Gesture, len(samples))
	for i, s := range samples {
		out[i] = gesture.FromPoints(name, s)
	}
	return out
}
