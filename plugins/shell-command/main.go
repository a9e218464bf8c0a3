// Package main provides a plugin that runs a configured command when a
// stroke is recognised.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

// Request represents the input from the plugin executor.
type Request struct {
	Action   string          `json:"action"`
	Gesture  string          `json:"gesture"`
	Distance float64         `json:"distance"`
	Score    float64         `json:"score"`
	Config   json.RawMessage `json:"config"`
}

// Response represents the output to the plugin executor.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// commandConfig is the action config bound to a template.
type commandConfig struct {
	Command []string `json:"command"`
	Dir     string   `json:"dir,omitempty"`
}

type actionHandler func(req *Request) (any, error)

var actionHandlers = map[string]actionHandler{
	"run":  run,
	"echo": echo,
}

func main() {
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeErrorResponse(fmt.Sprintf("failed to decode request: %v", err))
		return
	}

	handler, ok := actionHandlers[req.Action]
	if !ok {
		writeErrorResponse(fmt.Sprintf("unknown action: %s", req.Action))
		return
	}

	data, err := handler(&req)
	if err != nil {
		writeErrorResponse(fmt.Sprintf("action %s failed: %v", req.Action, err))
		return
	}

	writeSuccessResponse(data)
}

// run executes the configured command. The match is exposed to the command
// through UNISTROKE_GESTURE, UNISTROKE_DISTANCE and UNISTROKE_SCORE.
func run(req *Request) (any, error) {
	var cfg commandConfig
	if len(req.Config) > 0 {
		if err := json.Unmarshal(req.Config, &cfg); err != nil {
			return nil, fmt.Errorf("invalid config: %w", err)
		}
	}
	if len(cfg.Command) == 0 || cfg.Command[0] == "" {
		return nil, fmt.Errorf("no command configured")
	}

	cmd := exec.Command(cfg.Command[0], cfg.Command[1:]...)
	cmd.Dir = cfg.Dir
	cmd.Env = append(os.Environ(),
		"UNISTROKE_GESTURE="+req.Gesture,
		"UNISTROKE_DISTANCE="+strconv.FormatFloat(req.Distance, 'g', -1, 64),
		"UNISTROKE_SCORE="+strconv.FormatFloat(req.Score, 'g', -1, 64),
	)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("%w: %s", err, strings.TrimSpace(string(output)))
	}

	return map[string]string{"output": string(output)}, nil
}

// echo returns the request, for checking an action binding without side
// effects.
func echo(req *Request) (any, error) {
	return req, nil
}

func writeErrorResponse(errMsg string) {
	json.NewEncoder(os.Stdout).Encode(Response{
		Success: false,
		Error:   errMsg,
	})
}

func writeSuccessResponse(data any) {
	resp := Response{Success: true}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			writeErrorResponse(fmt.Sprintf("failed to encode result: %v", err))
			return
		}
		resp.Data = raw
	}
	json.NewEncoder(os.Stdout).Encode(resp)
}
