package app

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ayusman/unistroke/internal/gesture"
	"github.com/ayusman/unistroke/internal/plugin"
)

// ActionResult reports the plugin run triggered by a recognition.
type ActionResult struct {
	Plugin  string          `json:"plugin"`
	Action  string          `json:"action"`
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Result is a recognised stroke and the outcome of its bound action, if
// any.
type Result struct {
	gesture.Match
	TemplateID string        `json:"template_id,omitempty"`
	Action     *ActionResult `json:"action,omitempty"`
}

// Recognize matches a raw stroke against the loaded templates and runs the
// enabled action bound to the best one. When the best match is farther than
// MaxDistance the result is still returned, together with ErrNoMatch, and
// no action runs. Plugin failures are reported in the result, not as an
// error.
func (a *App) Recognize(ctx context.Context, points []gesture.Point) (*Result, error) {
	start := time.Now()

	match, err := a.Recognizer().Recognize(ctx, points)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Match:      match,
		TemplateID: a.templateID(match.Name),
	}

	a.logger.Debug("stroke recognised",
		"template", match.Name,
		"distance", match.Distance,
		"score", match.Score,
		"points", len(points),
		"elapsed", time.Since(start),
	)

	if limit := a.config.MaxDistance; limit > 0 && match.Distance > limit {
		return result, fmt.Errorf("%w: closest %q at %.2f", ErrNoMatch, match.Name, match.Distance)
	}

	if result.TemplateID != "" {
		result.Action = a.dispatch(ctx, result)
	}
	return result, nil
}

// dispatch runs the action bound to the matched template. It returns nil
// when no enabled action is bound.
func (a *App) dispatch(ctx context.Context, result *Result) *ActionResult {
	binding, err := a.config.Store.Actions().GetByTemplateID(result.TemplateID)
	if err != nil {
		a.logger.Error("failed to load action", "template", result.Name, "error", err)
		return nil
	}
	if binding == nil || !binding.Enabled {
		return nil
	}

	out := &ActionResult{
		Plugin: binding.PluginName,
		Action: binding.ActionName,
	}

	p, err := a.pluginMgr.Get(binding.PluginName)
	if err != nil {
		a.logger.Warn("action plugin unavailable", "template", result.Name, "plugin", binding.PluginName, "error", err)
		out.Error = err.Error()
		return out
	}

	resp, err := a.pluginExec.Execute(ctx, p, &plugin.Request{
		Action:   binding.ActionName,
		Gesture:  result.Name,
		Distance: result.Distance,
		Score:    result.Score,
		Config:   binding.Config,
	})
	if err != nil {
		a.logger.Warn("action failed", "template", result.Name, "plugin", p.Manifest.Name, "action", binding.ActionName, "error", err)
		out.Error = err.Error()
		return out
	}

	out.Success = resp.Success
	out.Error = resp.Error
	out.Data = resp.Data
	a.logger.Info("action executed", "template", result.Name, "plugin", p.Manifest.Name, "action", binding.ActionName, "success", resp.Success)
	return out
}
