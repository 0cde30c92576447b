package websocket

import (
	"encoding/json"
	"time"

	"github.com/dom/squad-roster/internal/domain"
	"github.com/dom/squad-roster/internal/lineup"
)

type MessageType string

const (
	// Client to Server
	MessageTypeDragStart  MessageType = "DRAG_START"
	MessageTypeDragOver   MessageType = "DRAG_OVER"
	MessageTypeDragEnd    MessageType = "DRAG_END"
	MessageTypeDragCancel MessageType = "DRAG_CANCEL"
	MessageTypeSyncState  MessageType = "SYNC_STATE"

	// Server to Client
	MessageTypeStateSync   MessageType = "STATE_SYNC"
	MessageTypeDragPreview MessageType = "DRAG_PREVIEW"
	MessageTypeDragResult  MessageType = "DRAG_RESULT"
	MessageTypeWarning     MessageType = "WARNING"
	MessageTypeError       MessageType = "ERROR"
)

type Message struct {
	Type      MessageType     `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp int64           `json:"timestamp"`
}

func NewMessage(msgType MessageType, payload interface{}) (*Message, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Message{
		Type:      msgType,
		Payload:   payloadBytes,
		Timestamp: time.Now().UnixMilli(),
	}, nil
}

// Client to Server payloads

type DragStartPayload struct {
	TeamSetID string         `json:"teamSetId"` // "" = active set
	Source    domain.SlotRef `json:"source"`
}

// DragOverPayload reports the slot under the pointer. Dest is nil when the
// pointer is outside every slot.
type DragOverPayload struct {
	Dest    *domain.SlotRef `json:"dest"`
	Overlap float64         `json:"overlap"`
}

// DragEndPayload reports where the item was released. A nil Dest means it was
// dropped outside every slot.
type DragEndPayload struct {
	Dest    *domain.SlotRef `json:"dest"`
	Overlap float64         `json:"overlap"`
}

// Server to Client payloads

type StateSyncPayload struct {
	State         *domain.AppState `json:"state"`
	SwapThreshold float64          `json:"swapThreshold"`
}

// Preview actions
const (
	PreviewNone   = "none"
	PreviewMove   = "move"
	PreviewSwap   = "swap"
	PreviewInsert = "insert"
)

type DragPreviewPayload struct {
	TeamSetID string          `json:"teamSetId"`
	Source    domain.SlotRef  `json:"source"`
	Dest      *domain.SlotRef `json:"dest"`
	Action    string          `json:"action"`
}

type DragResultPayload struct {
	TeamSetID string         `json:"teamSetId"`
	Source    domain.SlotRef `json:"source"`
	Dest      domain.SlotRef `json:"dest"`
	Outcome   lineup.Outcome `json:"outcome"`
}

type WarningPayload struct {
	Message string `json:"message"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
