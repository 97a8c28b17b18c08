package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"nhooyr.io/websocket"

	"github.com/aristath/quantpick/internal/events"
)

const (
	eventBufferSize   = 100
	eventWriteTimeout = 5 * time.Second
	heartbeatInterval = 30 * time.Second
)

// EventsSocketHandler streams bus events to websocket clients as JSON text frames.
type EventsSocketHandler struct {
	eventBus  *events.Bus
	accept    websocket.AcceptOptions
	log       zerolog.Logger
	heartbeat time.Duration
}

// NewEventsSocketHandler creates a websocket event stream handler. Same-origin
// requests are always accepted; originPatterns (host globs) admit other origins.
// devMode disables the origin check.
func NewEventsSocketHandler(eventBus *events.Bus, originPatterns []string, devMode bool, log zerolog.Logger) *EventsSocketHandler {
	return &EventsSocketHandler{
		eventBus: eventBus,
		accept: websocket.AcceptOptions{
			OriginPatterns:     originPatterns,
			InsecureSkipVerify: devMode,
		},
		log:       log.With().Str("component", "events_ws").Logger(),
		heartbeat: heartbeatInterval,
	}
}

// eventMessage is the wire form of an event
type eventMessage struct {
	Type      string      `json:"type"`
	Timestamp string      `json:"timestamp"`
	Data      interface{} `json:"data,omitempty"`
	Message   string      `json:"message,omitempty"`
}

// parseTypes reads the comma separated ?types= filter. Unknown names are ignored;
// an empty filter selects every type.
func parseTypes(raw string) []events.EventType {
	if strings.TrimSpace(raw) == "" {
		return events.AllTypes
	}
	known := make(map[events.EventType]bool, len(events.AllTypes))
	for _, t := range events.AllTypes {
		known[t] = true
	}
	var out []events.EventType
	seen := make(map[events.EventType]bool)
	for _, part := range strings.Split(raw, ",") {
		t := events.EventType(strings.ToUpper(strings.TrimSpace(part)))
		if known[t] && !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}

// ServeHTTP handles GET /api/events/ws
func (h *EventsSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	types := parseTypes(r.URL.Query().Get("types"))
	if len(types) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "no known event types requested"})
		return
	}

	conn, err := websocket.Accept(w, r, &h.accept)
	if err != nil {
		h.log.Warn().Err(err).Msg("Websocket upgrade failed")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "")

	// Clients only listen; CloseRead handles control frames and cancels ctx on disconnect.
	ctx := conn.CloseRead(r.Context())

	eventChan := make(chan *events.Event, eventBufferSize)
	handler := func(event *events.Event) {
		select {
		case eventChan <- event:
		default:
			h.log.Warn().
				Str("event_type", string(event.Type)).
				Msg("Event channel full, dropping event")
		}
	}

	ids := make([]int, 0, len(types))
	for _, t := range types {
		ids = append(ids, h.eventBus.Subscribe(t, handler))
	}
	defer func() {
		for _, id := range ids {
			h.eventBus.Unsubscribe(id)
		}
	}()

	h.log.Info().Int("types", len(types)).Msg("Client connected to event stream")

	if err := h.write(ctx, conn, eventMessage{
		Type:      "connected",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Message:   "Connected to event stream",
	}); err != nil {
		return
	}

	heartbeat := time.NewTicker(h.heartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			h.log.Info().Msg("Client disconnected from event stream")
			conn.Close(websocket.StatusNormalClosure, "")
			return

		case event := <-eventChan:
			if err := h.write(ctx, conn, eventMessage{
				Type:      string(event.Type),
				Timestamp: event.Timestamp.UTC().Format(time.RFC3339Nano),
				Data:      event.Data,
			}); err != nil {
				h.log.Debug().Err(err).Msg("Failed to write event")
				return
			}

		case <-heartbeat.C:
			pingCtx, cancel := context.WithTimeout(ctx, eventWriteTimeout)
			err := conn.Ping(pingCtx)
			cancel()
			if err != nil {
				h.log.Debug().Err(err).Msg("Heartbeat failed")
				return
			}
		}
	}
}

func (h *EventsSocketHandler) write(ctx context.Context, conn *websocket.Conn, msg eventMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	writeCtx, cancel := context.WithTimeout(ctx, eventWriteTimeout)
	defer cancel()
	return conn.Write(writeCtx, websocket.MessageText, data)
}
