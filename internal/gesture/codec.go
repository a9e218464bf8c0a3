package gesture

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Text format: the name, one space, then every point as "x;y;" with no
// other separators, e.g. "circle 0;1.5;2;-3;".
const separator = ';'

// MarshalText implements encoding.TextMarshaler.
func (g *Gesture) MarshalText() ([]byte, error) {
	if !validName(g.name) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidName, g.name)
	}
	return g.appendText(nil), nil
}

func (g *Gesture) appendText(b []byte) []byte {
	b = append(b, g.name...)
	b = append(b, ' ')
	for _, p := range g.points {
		b = p.appendText(b)
	}
	return b
}

// UnmarshalText implements encoding.TextUnmarshaler. The gesture is only
// modified when the whole input parses.
func (g *Gesture) UnmarshalText(text []byte) error {
	fields := bytes.Fields(text)
	if len(fields) == 0 {
		return fmt.Errorf("%w: missing name", ErrMalformedSerialization)
	}
	if len(fields) > 2 {
		return fmt.Errorf("%w: unexpected whitespace in point data", ErrMalformedSerialization)
	}

	var points []Point
	if len(fields) == 2 {
		var err error
		if points, err = parsePoints(string(fields[1])); err != nil {
			return err
		}
	}

	g.name = string(fields[0])
	g.points = points
	return nil
}

func parsePoints(s string) ([]Point, error) {
	if s[len(s)-1] != separator {
		return nil, fmt.Errorf("%w: missing trailing separator", ErrMalformedSerialization)
	}

	tokens := strings.Split(s[:len(s)-1], string(separator))
	if len(tokens)%2 != 0 {
		return nil, fmt.Errorf("%w: odd number of coordinates", ErrMalformedSerialization)
	}

	points := make([]Point, 0, len(tokens)/2)
	for i := 0; i < len(tokens); i += 2 {
		x, err := strconv.ParseFloat(tokens[i], 64)
		if err != nil {
			return nil, fmt.Errorf("%w: point %d: %v", ErrMalformedSerialization, i/2, err)
		}
		y, err := strconv.ParseFloat(tokens[i+1], 64)
		if err != nil {
			return nil, fmt.Errorf("%w: point %d: %v", ErrMalformedSerialization, i/2, err)
		}
		points = append(points, Point{X: x, Y: y})
	}
	return points, nil
}

// Parse decodes a single gesture from its text form.
func Parse(text string) (*Gesture, error) {
	g := &Gesture{}
	if err := g.UnmarshalText([]byte(text)); err != nil {
		return nil, err
	}
	return g, nil
}

// ReadGestures decodes one gesture per line from r. Blank lines and lines
// starting with '#' are skipped.
func ReadGestures(r io.Reader) ([]*Gesture, error) {
	var gestures []*Gesture

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		g, err := Parse(text)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		gestures = append(gestures, g)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return gestures, nil
}

// WriteGestures writes gestures to w, one per line.
func WriteGestures(w io.Writer, gestures []*Gesture) error {
	bw := bufio.NewWriter(w)
	for _, g := range gestures {
		text, err := g.MarshalText()
		if err != nil {
			return err
		}
		bw.Write(text)
		bw.WriteByte('\n')
	}
	return bw.Flush()
}
