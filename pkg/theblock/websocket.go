package theblock

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// EventStream reads the node's push channel. The node emits typed events
// ("new_block", "market_update") that let the dashboard refresh between
// polls instead of waiting out a full tick.
type EventStream struct {
	url       string
	conn      *websocket.Conn
	mu        sync.Mutex
	connected bool
	handlers  map[string]EventHandler
	logger    *logrus.Logger
}

type EventHandler func(payload json.RawMessage) error

// Event is the envelope the node wraps every push message in.
type Event struct {
	Type    string          `json:"type"`
	Seq     int64           `json:"seq"`
	Time    time.Time       `json:"time"`
	Payload json.RawMessage `json:"payload"`
}

type subscribeMessage struct {
	Type   string   `json:"type"`
	Topics []string `json:"topics"`
}

func NewEventStream(url string, logger *logrus.Logger) *EventStream {
	return &EventStream{
		url:      url,
		handlers: make(map[string]EventHandler),
		logger:   logger,
	}
}

func (es *EventStream) Connect(ctx context.Context) error {
	es.mu.Lock()
	defer es.mu.Unlock()

	if es.connected {
		return nil
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	conn, _, err := dialer.DialContext(ctx, es.url, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to event stream: %w", err)
	}

	es.conn = conn
	es.connected = true

	go es.readLoop(ctx)
	go es.keepAlive(ctx)

	return nil
}

func (es *EventStream) Subscribe(topics []string) error {
	es.mu.Lock()
	defer es.mu.Unlock()

	if !es.connected {
		return fmt.Errorf("event stream not connected")
	}

	return es.conn.WriteJSON(subscribeMessage{Type: "subscribe", Topics: topics})
}

func (es *EventStream) RegisterHandler(eventType string, handler EventHandler) {
	es.mu.Lock()
	defer es.mu.Unlock()
	es.handlers[eventType] = handler
}

func (es *EventStream) Close() {
	es.handleDisconnect()
}

func (es *EventStream) readLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			es.handleDisconnect()
			return
		default:
			var event Event
			err := es.conn.ReadJSON(&event)
			if err != nil {
				es.logger.WithError(err).Error("Failed to read event stream message")
				es.handleDisconnect()
				return
			}

			es.mu.Lock()
			handler, ok := es.handlers[event.Type]
			es.mu.Unlock()

			if ok {
				if err := handler(event.Payload); err != nil {
					es.logger.WithError(err).WithField("event", event.Type).Error("Event handler error")
				}
			}
		}
	}
}

func (es *EventStream) keepAlive(ctx context.Context) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			es.mu.Lock()
			if es.connected {
				if err := es.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					es.logger.WithError(err).Error("Failed to send ping")
					es.mu.Unlock()
					es.handleDisconnect()
					continue
				}
			}
			es.mu.Unlock()
		}
	}
}

func (es *EventStream) handleDisconnect() {
	es.mu.Lock()
	defer es.mu.Unlock()

	es.connected = false
	if es.conn != nil {
		es.conn.Close()
	}
}
