package homeassistant

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"homekit-bridge/internal/ports"
)

const reconnectDelay = 5 * time.Second

// Events subscribes to Home Assistant's websocket API for state_changed
// events and pushes parsed snapshots to a handler.
type Events struct {
	url   string
	token string
	log   *slog.Logger
}

func NewEvents(baseURL, token string, log *slog.Logger) *Events {
	return &Events{
		url:   strings.TrimSuffix(baseURL, "/"),
		token: token,
		log:   log,
	}
}

type wsMessage struct {
	ID      int    `json:"id,omitempty"`
	Type    string `json:"type"`
	Success *bool  `json:"success,omitempty"`
	Event   struct {
		Data struct {
			EntityID string    `json:"entity_id"`
			NewState *rawState `json:"new_state"`
		} `json:"data"`
	} `json:"event"`
}

// Subscribe runs the event loop, reconnecting until ctx is cancelled.
func (e *Events) Subscribe(ctx context.Context, handler ports.EventHandler) error {
	for {
		err := e.run(ctx, handler)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		e.log.Warn("event stream interrupted, reconnecting", "error", err, "delay", reconnectDelay)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(reconnectDelay):
		}
	}
}

func (e *Events) run(ctx context.Context, handler ports.EventHandler) error {
	wsURL := websocketURL(e.url) + "/api/websocket"
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", wsURL, err)
	}
	defer conn.Close()

	// Unblock ReadJSON when the context ends.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	var msg wsMessage
	if err := conn.ReadJSON(&msg); err != nil {
		return err
	}
	if msg.Type != "auth_required" {
		return fmt.Errorf("unexpected handshake message %q", msg.Type)
	}

	if err := conn.WriteJSON(map[string]interface{}{
		"type":         "auth",
		"access_token": e.token,
	}); err != nil {
		return err
	}
	if err := conn.ReadJSON(&msg); err != nil {
		return err
	}
	if msg.Type != "auth_ok" {
		return fmt.Errorf("authentication failed: %s", msg.Type)
	}

	if err := conn.WriteJSON(map[string]interface{}{
		"id":         1,
		"type":       "subscribe_events",
		"event_type": "state_changed",
	}); err != nil {
		return err
	}

	e.log.Info("subscribed to state_changed events")

	for {
		var msg wsMessage
		if err := conn.ReadJSON(&msg); err != nil {
			return err
		}

		switch msg.Type {
		case "result":
			if msg.Success != nil && !*msg.Success {
				return fmt.Errorf("subscription rejected")
			}
		case "event":
			data := msg.Event.Data
			if data.NewState == nil {
				handler(data.EntityID, nil)
				continue
			}
			handler(data.EntityID, parseEntityState(data.EntityID, data.NewState.State, data.NewState.Attributes))
		}
	}
}

func websocketURL(base string) string {
	switch {
	case strings.HasPrefix(base, "https://"):
		return "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		return "ws://" + strings.TrimPrefix(base, "http://")
	}
	return base
}
