package realtime

import (
	"encoding/json"
	"fmt"

	"github.com/ametov/bookline/models"
)

// Event names understood on the wire. The server emits both
// EventNewMessage and EventMessageReceived for a delivered message
// depending on its version; subscribers must treat them as one stream.
const (
	EventConnect         = "connect"
	EventDisconnect      = "disconnect"
	EventNewMessage      = "new_message"
	EventMessageReceived = "message_received"
	EventUserTyping      = "user_typing"
	EventUserStopTyping  = "user_stop_typing"

	EventJoinConversation  = "join_conversation"
	EventLeaveConversation = "leave_conversation"
	EventTypingStart       = "typing_start"
	EventTypingStop        = "typing_stop"
)

// Envelope is the wire format for every realtime frame, in both
// directions.
type Envelope struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Validate reports whether the envelope can be dispatched at all.
func (e Envelope) Validate() error {
	if e.Event == "" {
		return fmt.Errorf("envelope missing event name")
	}
	return nil
}

// MessagePayload is carried by new_message and message_received frames.
// Conversation is the server's updated snapshot of the conversation the
// message belongs to, when the server includes one.
type MessagePayload struct {
	Message      models.Message       `json:"message"`
	Conversation *models.Conversation `json:"conversation,omitempty"`
}

// TypingPayload is carried by user_typing and user_stop_typing frames.
type TypingPayload struct {
	ConversationID string `json:"conversation_id"`
	UserID         string `json:"user_id"`
}

// ConversationRef is the outbound payload of join, leave, and typing
// commands.
type ConversationRef struct {
	ConversationID string `json:"conversation_id"`
}
