package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/unistroke/internal/app"
	"github.com/ayusman/unistroke/internal/gesture"
	"github.com/ayusman/unistroke/internal/server/api"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
	maxMsgSize = 64 * 1024

	// MaxStrokePoints caps the points buffered for one stroke.
	MaxStrokePoints = 8192
)

// Stroke message types.
const (
	TypePoint  = "point"
	TypeEnd    = "end"
	TypeClear  = "clear"
	TypeResult = "result"
	TypeError  = "error"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// StrokeMessage is sent by clients: a point of the stroke being drawn, or
// "end" to recognise it, or "clear" to drop it.
type StrokeMessage struct {
	Type string  `json:"type"`
	X    float64 `json:"x,omitempty"`
	Y    float64 `json:"y,omitempty"`
}

// StrokeReply is sent back after an "end" or a rejected message.
type StrokeReply struct {
	Type   string                 `json:"type"`
	Result *api.RecognizeResponse `json:"result,omitempty"`
	Error  string                 `json:"error,omitempty"`
}

// StrokeHandler recognises strokes streamed point by point over a
// WebSocket. Each connection buffers its own stroke.
type StrokeHandler struct {
	app    *app.App
	logger *slog.Logger
}

// NewStrokeHandler creates a new StrokeHandler.
func NewStrokeHandler(a *app.App, logger *slog.Logger) *StrokeHandler {
	return &StrokeHandler{app: a, logger: logger}
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *StrokeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("websocket upgrade error", "error", err)
		return
	}
	defer conn.Close()

	var writeMu sync.Mutex
	write := func(reply StrokeReply) error {
		writeMu.Lock()
		defer writeMu.Unlock()
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		return conn.WriteJSON(reply)
	}

	conn.SetReadLimit(maxMsgSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				writeMu.Lock()
				err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
				writeMu.Unlock()
				if err != nil {
					return
				}
			case <-done:
				return
			}
		}
	}()

	stroke := gesture.New(gesture.DefaultName)
	for {
		var msg StrokeMessage
		if err := conn.ReadJSON(&msg); err != nil {
			var syntaxErr *json.SyntaxError
			var typeErr *json.UnmarshalTypeError
			if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
				if write(StrokeReply{Type: TypeError, Error: "invalid message"}) != nil {
					return
				}
				continue
			}
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Debug("websocket read error", "error", err)
			}
			return
		}

		reply, ok := h.handle(r, stroke, msg)
		if !ok {
			continue
		}
		if err := write(reply); err != nil {
			h.logger.Debug("websocket write error", "error", err)
			return
		}
	}
}

// handle applies msg to the buffered stroke. It reports whether a reply
// should be sent.
func (h *StrokeHandler) handle(r *http.Request, stroke *gesture.Gesture, msg StrokeMessage) (StrokeReply, bool) {
	switch msg.Type {
	case TypePoint:
		if stroke.Len() >= MaxStrokePoints {
			stroke.Clear()
			return StrokeReply{Type: TypeError, Error: fmt.Sprintf("stroke exceeds %d points", MaxStrokePoints)}, true
		}
		stroke.AddPoint(gesture.Pt(msg.X, msg.Y))
		return StrokeReply{}, false

	case TypeClear:
		stroke.Clear()
		return StrokeReply{}, false

	case TypeEnd:
		points := stroke.Points()
		stroke.Clear()

		result, err := h.app.Recognize(r.Context(), points)
		switch {
		case errors.Is(err, app.ErrNoMatch):
			return StrokeReply{Type: TypeResult, Result: &api.RecognizeResponse{Result: result}}, true
		case err != nil:
			return StrokeReply{Type: TypeError, Error: err.Error()}, true
		}
		return StrokeReply{Type: TypeResult, Result: &api.RecognizeResponse{Result: result, Matched: true}}, true
	}

	return StrokeReply{Type: TypeError, Error: fmt.Sprintf("unknown message type %q", msg.Type)}, true
}
