package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/dom/squad-roster/internal/domain"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
	commitTimeout  = 5 * time.Second
)

type Client struct {
	id        uuid.UUID
	hub       *Hub
	conn      *websocket.Conn
	send      chan []byte
	gesture   *Gesture
	log       logrus.FieldLogger
	closeOnce sync.Once
}

func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	id := uuid.New()
	return &Client{
		id:      id,
		hub:     hub,
		conn:    conn,
		send:    make(chan []byte, 256),
		gesture: NewGesture(hub.roster),
		log:     hub.log.WithField("client", id.String()),
	}
}

func (c *Client) ID() uuid.UUID {
	return c.id
}

func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.WithError(err).Warn("websocket read failed")
			}
			break
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			c.log.WithError(err).Debug("failed to unmarshal message")
			c.sendError("INVALID_MESSAGE", "Message is not valid JSON")
			continue
		}

		c.handleMessage(&msg)
	}
}

func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) handleMessage(msg *Message) {
	emit := c.hub.emitter

	switch msg.Type {
	case MessageTypeSyncState:
		emit.StateSync(c, c.hub.roster.State())

	case MessageTypeDragStart:
		var payload DragStartPayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			c.sendError("INVALID_PAYLOAD", "Invalid drag start payload")
			return
		}
		if err := c.gesture.Start(payload); err != nil {
			c.sendFailure(err)
		}

	case MessageTypeDragOver:
		var payload DragOverPayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			c.sendError("INVALID_PAYLOAD", "Invalid drag over payload")
			return
		}
		if preview, ok := c.gesture.Over(payload); ok {
			emit.DragPreview(c, preview)
		}

	case MessageTypeDragEnd:
		var payload DragEndPayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			c.gesture.Cancel()
			c.sendError("INVALID_PAYLOAD", "Invalid drag end payload")
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), commitTimeout)
		res, result, committed, err := c.gesture.End(ctx, payload)
		cancel()
		if err != nil {
			c.sendFailure(err)
			return
		}
		if !committed {
			return
		}
		emit.DragResult(c, result)
		if res.Warning != "" {
			emit.Warning(c, res.Warning)
		}

	case MessageTypeDragCancel:
		c.gesture.Cancel()

	default:
		c.sendError("UNKNOWN_TYPE", "Unknown message type: "+string(msg.Type))
	}
}

func (c *Client) sendFailure(err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidSlotReference):
		c.sendError("INVALID_SLOT", err.Error())
	case errors.Is(err, domain.ErrTeamSetNotFound):
		c.sendError("TEAM_SET_NOT_FOUND", err.Error())
	case errors.Is(err, errEmptySource):
		c.sendError("EMPTY_SOURCE", err.Error())
	default:
		c.log.WithError(err).Error("gesture failed")
		c.sendError("INTERNAL", "Could not apply change")
	}
}

func (c *Client) sendError(code, message string) {
	c.hub.emitter.Error(c, code, message)
}

func (c *Client) Send(msg *Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		c.log.WithError(err).Error("failed to marshal message")
		return
	}
	c.hub.emitter.trySend(c, data)
}

// Close closes the send channel, which ends WritePump. Safe to call twice.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.send)
	})
}
