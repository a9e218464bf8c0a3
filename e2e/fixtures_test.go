package e2e

import (
	"bytes"
	"embed"
	"fmt"

	"github.com/ayusman/unistroke/internal/gesture"
)

//go:embed testdata/*.txt
var strokesFS embed.FS

// loadStrokes decodes a gesture file from testdata.
func loadStrokes(name string) ([]*gesture.Gesture, error) {
	data, err := strokesFS.ReadFile("testdata/" + name)
	if err != nil {
		return nil, fmt.Errorf("load strokes %s: %w", name, err)
	}

	strokes, err := gesture.ReadGestures(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode strokes %s: %w", name, err)
	}
	return strokes, nil
}
