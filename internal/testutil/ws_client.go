package testutil

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	gorillaWS "github.com/gorilla/websocket"

	"github.com/dom/squad-roster/internal/domain"
	"github.com/dom/squad-roster/internal/websocket"
)

// WSClient is a test WebSocket client
type WSClient struct {
	t        *testing.T
	conn     *gorillaWS.Conn
	messages chan *websocket.Message
	errors   chan error
	done     chan struct{}
	mu       sync.Mutex
}

// NewWSClient creates a new WebSocket test client
func NewWSClient(t *testing.T, url string) *WSClient {
	t.Helper()

	dialer := *gorillaWS.DefaultDialer
	dialer.HandshakeTimeout = 5 * time.Second

	conn, _, err := dialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("failed to connect to websocket: %v", err)
	}

	client := &WSClient{
		t:        t,
		conn:     conn,
		messages: make(chan *websocket.Message, 100),
		errors:   make(chan error, 10),
		done:     make(chan struct{}),
	}

	go client.readPump()

	t.Cleanup(func() {
		client.Close()
	})

	return client
}

// readPump reads messages from the WebSocket connection
func (c *WSClient) readPump() {
	defer close(c.messages)
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			select {
			case <-c.done:
			case c.errors <- err:
			default:
			}
			return
		}

		var msg websocket.Message
		if err := json.Unmarshal(data, &msg); err != nil {
			select {
			case c.errors <- err:
			default:
			}
			continue
		}

		select {
		case c.messages <- &msg:
		case <-c.done:
			return
		}
	}
}

// Close closes the WebSocket connection gracefully
func (c *WSClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	select {
	case <-c.done:
		return
	default:
		close(c.done)
		c.conn.WriteMessage(gorillaWS.CloseMessage, gorillaWS.FormatCloseMessage(gorillaWS.CloseNormalClosure, ""))
		c.conn.Close()
	}
}

// send writes a typed message to the server
func (c *WSClient) send(msgType websocket.MessageType, payload interface{}) {
	c.t.Helper()

	msg, err := websocket.NewMessage(msgType, payload)
	if err != nil {
		c.t.Fatalf("failed to build %s message: %v", msgType, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.conn.WriteJSON(msg); err != nil {
		c.t.Fatalf("failed to send %s: %v", msgType, err)
	}
}

// DragStart picks up the item at source ("" = active set)
func (c *WSClient) DragStart(setID string, source domain.SlotRef) {
	c.send(websocket.MessageTypeDragStart, websocket.DragStartPayload{TeamSetID: setID, Source: source})
}

// DragOver reports the pointer over dest; nil means outside every slot
func (c *WSClient) DragOver(dest *domain.SlotRef, overlap float64) {
	c.send(websocket.MessageTypeDragOver, websocket.DragOverPayload{Dest: dest, Overlap: overlap})
}

// DragEnd releases the item at dest; nil drops it outside every slot
func (c *WSClient) DragEnd(dest *domain.SlotRef, overlap float64) {
	c.send(websocket.MessageTypeDragEnd, websocket.DragEndPayload{Dest: dest, Overlap: overlap})
}

// DragCancel abandons the drag
func (c *WSClient) DragCancel() {
	c.send(websocket.MessageTypeDragCancel, nil)
}

// SyncState requests a full state sync
func (c *WSClient) SyncState() {
	c.send(websocket.MessageTypeSyncState, nil)
}

// ExpectMessage waits for a message of the specified type
func (c *WSClient) ExpectMessage(msgType websocket.MessageType, timeout time.Duration) *websocket.Message {
	c.t.Helper()

	deadline := time.After(timeout)
	for {
		select {
		case msg := <-c.messages:
			if msg == nil {
				c.t.Fatalf("connection closed while waiting for %s", msgType)
			}
			if msg.Type == msgType {
				return msg
			}
		case err := <-c.errors:
			c.t.Fatalf("error while waiting for %s: %v", msgType, err)
		case <-deadline:
			c.t.Fatalf("timeout waiting for message type %s", msgType)
		}
	}
}

func (c *WSClient) expectPayload(msgType websocket.MessageType, timeout time.Duration, v interface{}) {
	c.t.Helper()

	msg := c.ExpectMessage(msgType, timeout)
	if err := json.Unmarshal(msg.Payload, v); err != nil {
		c.t.Fatalf("failed to decode %s payload: %v", msgType, err)
	}
}

// ExpectStateSync waits for and decodes a STATE_SYNC message
func (c *WSClient) ExpectStateSync(timeout time.Duration) *websocket.StateSyncPayload {
	c.t.Helper()
	var payload websocket.StateSyncPayload
	c.expectPayload(websocket.MessageTypeStateSync, timeout, &payload)
	return &payload
}

// ExpectStateSyncWhere skips STATE_SYNC messages until one satisfies match.
// Broadcasts queued before the client connected may arrive first.
func (c *WSClient) ExpectStateSyncWhere(match func(*domain.AppState) bool, timeout time.Duration) *websocket.StateSyncPayload {
	c.t.Helper()

	deadline := time.Now().Add(timeout)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			c.t.Fatalf("timeout waiting for matching state sync")
		}
		payload := c.ExpectStateSync(remaining)
		if match(payload.State) {
			return payload
		}
	}
}

// ExpectDragPreview waits for and decodes a DRAG_PREVIEW message
func (c *WSClient) ExpectDragPreview(timeout time.Duration) *websocket.DragPreviewPayload {
	c.t.Helper()
	var payload websocket.DragPreviewPayload
	c.expectPayload(websocket.MessageTypeDragPreview, timeout, &payload)
	return &payload
}

// ExpectDragResult waits for and decodes a DRAG_RESULT message
func (c *WSClient) ExpectDragResult(timeout time.Duration) *websocket.DragResultPayload {
	c.t.Helper()
	var payload websocket.DragResultPayload
	c.expectPayload(websocket.MessageTypeDragResult, timeout, &payload)
	return &payload
}

// ExpectWarning waits for and decodes a WARNING message
func (c *WSClient) ExpectWarning(timeout time.Duration) *websocket.WarningPayload {
	c.t.Helper()
	var payload websocket.WarningPayload
	c.expectPayload(websocket.MessageTypeWarning, timeout, &payload)
	return &payload
}

// ExpectError waits for and decodes an ERROR message
func (c *WSClient) ExpectError(timeout time.Duration) *websocket.ErrorPayload {
	c.t.Helper()
	var payload websocket.ErrorPayload
	c.expectPayload(websocket.MessageTypeError, timeout, &payload)
	return &payload
}

// ExpectErrorWithCode waits for an error with a specific code
func (c *WSClient) ExpectErrorWithCode(code string, timeout time.Duration) *websocket.ErrorPayload {
	c.t.Helper()

	payload := c.ExpectError(timeout)
	if payload.Code != code {
		c.t.Fatalf("expected error code %s, got %s: %s", code, payload.Code, payload.Message)
	}

	return payload
}

// ExpectNoMessage verifies no messages are received within timeout
func (c *WSClient) ExpectNoMessage(timeout time.Duration) {
	c.t.Helper()

	select {
	case msg := <-c.messages:
		if msg != nil {
			c.t.Fatalf("unexpected message received: %s", msg.Type)
		}
	case <-time.After(timeout):
		// Expected - no message received
	}
}

// DrainMessages drains all pending messages from the channel with a timeout.
func (c *WSClient) DrainMessages() {
	c.DrainMessagesWithTimeout(100 * time.Millisecond)
}

// DrainMessagesWithTimeout drains messages, waiting up to timeout for the channel to settle.
func (c *WSClient) DrainMessagesWithTimeout(timeout time.Duration) {
	deadline := time.After(timeout)
	for {
		select {
		case msg := <-c.messages:
			if msg == nil {
				return
			}
			// Reset deadline when we receive a message - more might be coming
			deadline = time.After(50 * time.Millisecond)
		case <-deadline:
			return
		case <-c.done:
			return
		}
	}
}
