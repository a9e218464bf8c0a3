// Package plugin discovers and runs the external programs that act on a
// recognised stroke.
package plugin

import (
	"encoding/json"
	"slices"
)

// Manifest describes a plugin's metadata and capabilities.
type Manifest struct {
	Name         string          `json:"name"`
	Version      string          `json:"version"`
	Description  string          `json:"description"`
	Executable   string          `json:"executable"`
	Actions      []string        `json:"actions"`
	ConfigSchema json.RawMessage `json:"configSchema,omitempty"`
}

// Request is written as JSON to a plugin's stdin. Gesture, Distance and
// Score describe the match that triggered the action.
type Request struct {
	Action   string          `json:"action"`
	Gesture  string          `json:"gesture"`
	Distance float64         `json:"distance"`
	Score    float64         `json:"score"`
	Config   json.RawMessage `json:"config,omitempty"`
}

// Response is read as JSON from a plugin's stdout.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Plugin represents a discovered plugin with its manifest and location.
type Plugin struct {
	Manifest   Manifest
	Path       string
	Executable string
}

// Supports reports whether the plugin declares the named action. A manifest
// without an action list accepts any action.
func (p *Plugin) Supports(action string) bool {
	if len(p.Manifest.Actions) == 0 {
		return true
	}
	return slices.Contains(p.Manifest.Actions, action)
}
