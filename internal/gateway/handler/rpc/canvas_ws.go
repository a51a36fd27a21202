package rpc

import (
	"context"
	"net/http"
	"strings"
	"time"

	"connectrpc.com/connect"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"stylefit/internal/canvas"
)

const (
	canvasWSWriteWait = 10 * time.Second
	canvasWSPongWait  = 60 * time.Second
	canvasWSPingEvery = (canvasWSPongWait * 9) / 10
)

var canvasWSUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		return true
	},
}

// canvasWSInbound is one pointer event from the composition surface.
// Coordinates are screen coordinates; the session maps them through the
// canvas origin.
type canvasWSInbound struct {
	Type       string  `json:"type"`
	InstanceID uint64  `json:"instanceId,omitempty"`
	X          float64 `json:"x,omitempty"`
	Y          float64 `json:"y,omitempty"`
	DeltaY     float64 `json:"deltaY,omitempty"`
}

type canvasWSOutbound struct {
	Type       string  `json:"type"`
	InstanceID uint64  `json:"instanceId,omitempty"`
	Scale      float64 `json:"scale,omitempty"`
	Code       string  `json:"code,omitempty"`
	Message    string  `json:"message,omitempty"`
}

// HandleCanvasWS streams drag and wheel gestures for one session. Moves are
// not acknowledged; the next Render shows where items ended up.
func (h *SessionHandler) HandleCanvasWS(w http.ResponseWriter, r *http.Request) {
	sessionID := strings.TrimSpace(r.URL.Query().Get("session_id"))
	if sessionID == "" {
		http.Error(w, "session_id is required", http.StatusBadRequest)
		return
	}
	s, err := h.store.Get(sessionID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	conn, err := canvasWSUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	if err := conn.SetReadDeadline(time.Now().Add(canvasWSPongWait)); err != nil {
		h.logger.Warn("canvas ws set read deadline failed", zap.Error(err))
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(canvasWSPongWait))
	})

	writeCh := make(chan canvasWSOutbound, 32)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		ticker := time.NewTicker(canvasWSPingEvery)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case out := <-writeCh:
				if err := conn.SetWriteDeadline(time.Now().Add(canvasWSWriteWait)); err != nil {
					return
				}
				if err := conn.WriteJSON(out); err != nil {
					return
				}
			case <-ticker.C:
				if err := conn.SetWriteDeadline(time.Now().Add(canvasWSWriteWait)); err != nil {
					return
				}
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}()

	pushCanvasWS(writeCh, canvasWSOutbound{Type: "ready"})

	// held is the item this connection is dragging, if holding.
	var held uint64
	holding := false
	for {
		var in canvasWSInbound
		if err := conn.ReadJSON(&in); err != nil {
			// A dropped connection must not leave its item stuck to the pointer.
			if holding {
				s.ReleaseDrag(held)
			}
			cancel()
			<-writerDone
			return
		}
		pointer := canvas.Point{X: in.X, Y: in.Y}

		switch msgType := strings.ToLower(strings.TrimSpace(in.Type)); msgType {
		case "ping":
			pushCanvasWS(writeCh, canvasWSOutbound{Type: "pong"})
		case "origin":
			if err := s.SetCanvasOrigin(pointer); err != nil {
				pushCanvasWS(writeCh, canvasWSError(err))
			}
		case "begin":
			if err := s.BeginDrag(in.InstanceID, pointer); err != nil {
				pushCanvasWS(writeCh, canvasWSError(err))
				continue
			}
			held, holding = in.InstanceID, true
			pushCanvasWS(writeCh, canvasWSOutbound{Type: "drag_started", InstanceID: in.InstanceID})
		case "move":
			s.ContinueDrag(pointer)
		case "end", "leave":
			if holding {
				s.ReleaseDrag(held)
			}
			holding = false
			pushCanvasWS(writeCh, canvasWSOutbound{Type: "drag_ended"})
		case "wheel":
			scale, err := s.Wheel(in.InstanceID, in.DeltaY)
			if err != nil {
				pushCanvasWS(writeCh, canvasWSError(err))
				continue
			}
			pushCanvasWS(writeCh, canvasWSOutbound{Type: "scaled", InstanceID: in.InstanceID, Scale: scale})
		case "":
			pushCanvasWS(writeCh, canvasWSOutbound{
				Type:    "error",
				Code:    "invalid_argument",
				Message: "type is required",
			})
		default:
			pushCanvasWS(writeCh, canvasWSOutbound{
				Type:    "error",
				Code:    "invalid_argument",
				Message: "unsupported type: " + msgType,
			})
		}
	}
}

func canvasWSError(err error) canvasWSOutbound {
	return canvasWSOutbound{
		Type:    "error",
		Code:    connect.CodeOf(toSessionError(err)).String(),
		Message: err.Error(),
	}
}

// pushCanvasWS drops the oldest queued message when the writer falls behind.
func pushCanvasWS(writeCh chan canvasWSOutbound, out canvasWSOutbound) {
	select {
	case writeCh <- out:
		return
	default:
	}
	select {
	case <-writeCh:
	default:
	}
	select {
	case writeCh <- out:
	default:
	}
}

