package websocket

import (
	"encoding/json"

	"github.com/dom/squad-roster/internal/domain"
)

// EventEmitter builds server messages and delivers them without blocking.
// A slow client drops messages rather than stalling the hub.
type EventEmitter struct {
	hub *Hub
}

// NewEventEmitter creates a new event emitter for the hub.
func NewEventEmitter(hub *Hub) *EventEmitter {
	return &EventEmitter{hub: hub}
}

// Broadcast sends a message to every registered client.
func (e *EventEmitter) Broadcast(msg *Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		e.hub.log.WithError(err).Error("failed to marshal broadcast")
		return
	}
	e.hub.mu.RLock()
	defer e.hub.mu.RUnlock()
	for client := range e.hub.clients {
		e.trySend(client, data)
	}
}

// SendTo sends a message to a specific client.
func (e *EventEmitter) SendTo(client *Client, msg *Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		e.hub.log.WithError(err).Error("failed to marshal message")
		return
	}
	e.trySend(client, data)
}

// trySend attempts to send to a client, safely handling closed channels.
func (e *EventEmitter) trySend(client *Client, data []byte) {
	defer func() {
		if recover() != nil {
			// Channel closed, client is disconnecting - skip silently
		}
	}()

	select {
	case client.send <- data:
	default:
		// Buffer full, skip
	}
}

func (e *EventEmitter) stateSyncMessage(state *domain.AppState) *Message {
	msg, _ := NewMessage(MessageTypeStateSync, StateSyncPayload{
		State:         state,
		SwapThreshold: e.hub.roster.SwapThreshold(),
	})
	return msg
}

// StateSync sends the full state to one client.
func (e *EventEmitter) StateSync(client *Client, state *domain.AppState) {
	e.SendTo(client, e.stateSyncMessage(state))
}

// StateChanged broadcasts the full state to every client.
func (e *EventEmitter) StateChanged(state *domain.AppState) {
	e.Broadcast(e.stateSyncMessage(state))
}

func (e *EventEmitter) DragPreview(client *Client, preview DragPreviewPayload) {
	msg, _ := NewMessage(MessageTypeDragPreview, preview)
	e.SendTo(client, msg)
}

func (e *EventEmitter) DragResult(client *Client, result DragResultPayload) {
	msg, _ := NewMessage(MessageTypeDragResult, result)
	e.SendTo(client, msg)
}

func (e *EventEmitter) Warning(client *Client, message string) {
	msg, _ := NewMessage(MessageTypeWarning, WarningPayload{Message: message})
	e.SendTo(client, msg)
}

func (e *EventEmitter) Error(client *Client, code, message string) {
	msg, _ := NewMessage(MessageTypeError, ErrorPayload{Code: code, Message: message})
	e.SendTo(client, msg)
}
