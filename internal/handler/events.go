package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/matthewbaird/leadpilot/internal/event"
	"github.com/matthewbaird/leadpilot/internal/eventbus"
	"github.com/matthewbaird/leadpilot/internal/workspace"
)

// ── Wire protocol ───────────────────────────────────────────────────────────

// ClientMessage is the envelope for client-to-server WebSocket messages.
type ClientMessage struct {
	Type string `json:"type"` // "ping"
	ID   string `json:"id"`   // Client-assigned request ID
}

// ServerMessage is the envelope for server-to-client WebSocket messages.
type ServerMessage struct {
	Type      string `json:"type"`                 // "hello", "event", "pong", "error"
	RequestID string `json:"request_id,omitempty"` // Echoes client ID
	Data      any    `json:"data,omitempty"`
}

// HelloData is sent once after the upgrade.
type HelloData struct {
	StreamID string           `json:"stream_id"`
	Ticket   workspace.Ticket `json:"ticket"`
}

// ErrorData carries an error message.
type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ── Handler ─────────────────────────────────────────────────────────────────

var errSlowConsumer = errors.New("event stream buffer full, event dropped")

// DefaultStreamBuffer is the per-connection event queue length.
const DefaultStreamBuffer = 64

// EventStream forwards every bus event to connected WebSocket clients.
type EventStream struct {
	bus    *eventbus.Bus
	model  *workspace.Model
	logger *zap.Logger
	buffer int
}

func NewEventStream(bus *eventbus.Bus, model *workspace.Model, logger *zap.Logger) *EventStream {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventStream{bus: bus, model: model, logger: logger.Named("events_ws"), buffer: DefaultStreamBuffer}
}

// ServeHTTP upgrades to WebSocket, subscribes to the bus and streams events
// until the client goes away.
// GET /v1/events
func (h *EventStream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		h.logger.Warn("websocket accept", zap.Error(err))
		return
	}
	defer conn.CloseNow()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	streamID := uuid.New().String()
	events := make(chan event.DomainEvent, h.buffer)
	unsubscribe := h.bus.Subscribe("ws:"+streamID, eventbus.HandlerFunc(
		func(_ context.Context, evt event.DomainEvent) error {
			select {
			case events <- evt:
				return nil
			default:
				return errSlowConsumer
			}
		}))
	defer unsubscribe()

	if err := h.send(ctx, conn, ServerMessage{
		Type: "hello",
		Data: HelloData{StreamID: streamID, Ticket: h.model.Ticket()},
	}); err != nil {
		return
	}

	go h.readLoop(ctx, cancel, conn)

	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "")
			return
		case evt := <-events:
			if err := h.send(ctx, conn, ServerMessage{Type: "event", Data: evt}); err != nil {
				return
			}
		}
	}
}

// readLoop answers pings and cancels the stream when the client disconnects.
func (h *EventStream) readLoop(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn) {
	defer cancel()
	for {
		var msg ClientMessage
		if err := wsjson.Read(ctx, conn, &msg); err != nil {
			if websocket.CloseStatus(err) != -1 {
				h.logger.Debug("connection closed", zap.Int("status", int(websocket.CloseStatus(err))))
			}
			return
		}
		switch msg.Type {
		case "ping":
			h.send(ctx, conn, ServerMessage{Type: "pong", RequestID: msg.ID})
		default:
			h.send(ctx, conn, ServerMessage{
				Type:      "error",
				RequestID: msg.ID,
				Data:      ErrorData{Code: "unknown_type", Message: fmt.Sprintf("unknown message type: %s", msg.Type)},
			})
		}
	}
}

func (h *EventStream) send(ctx context.Context, conn *websocket.Conn, msg ServerMessage) error {
	if err := wsjson.Write(ctx, conn, msg); err != nil {
		h.logger.Debug("websocket write", zap.String("type", msg.Type), zap.Error(err))
		return err
	}
	return nil
}
