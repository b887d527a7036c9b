package websocket

import (
	"encoding/json"
	"time"

	"github.com/dom/studyhub/internal/domain"
)

type MessageType string

const (
	// Server to Client
	MessageTypeSnapshot     MessageType = "SNAPSHOT"
	MessageTypeMemberJoined MessageType = "MEMBER_JOINED"
	MessageTypeMemberLeft   MessageType = "MEMBER_LEFT"
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

// SnapshotPayload is the first message on every feed connection.
type SnapshotPayload struct {
	ChannelName string                 `json:"channelName"`
	Members     []domain.ChannelMember `json:"members"`
}

// NewEventMessage wraps a membership change; the payload is the event itself.
func NewEventMessage(event domain.ChannelEvent) (*Message, error) {
	msgType := MessageTypeMemberJoined
	if event.Type == domain.ChannelEventLeft {
		msgType = MessageTypeMemberLeft
	}
	return NewMessage(msgType, event)
}
