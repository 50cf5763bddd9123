package models

import "time"

// DeliveryState tracks whether a message has been acknowledged by the
// server yet.
type DeliveryState string

const (
	// DeliveryOptimistic marks a locally appended message that has not
	// been confirmed by the server. Its ID is the client-generated
	// correlation id.
	DeliveryOptimistic DeliveryState = "optimistic"

	// DeliveryConfirmed marks a message the server has accepted. Its ID is
	// the canonical server id.
	DeliveryConfirmed DeliveryState = "confirmed"
)

// Attachment describes an optional file payload carried by a message.
type Attachment struct {
	// Name is the original file name shown to the receiver.
	Name string `json:"name"`

	// ContentType is the MIME type of the payload.
	ContentType string `json:"content_type"`

	// URL points at the uploaded blob once the server has stored it.
	URL string `json:"url,omitempty"`

	// Size is the payload size in bytes.
	Size int64 `json:"size,omitempty"`
}

// Message is a single chat message. Messages are ordered within a
// conversation by (CreatedAt, ID) and are unique by ID.
type Message struct {
	// ID is the canonical server id, or the client correlation id while
	// the message is still optimistic.
	ID string `json:"id"`

	// ConversationID is the canonical conversation id, or a temp id for a
	// conversation that does not exist on the server yet.
	ConversationID string `json:"conversation_id"`

	// SenderID and ReceiverID are user ids.
	SenderID   string `json:"sender_id"`
	ReceiverID string `json:"receiver_id"`

	// Body is the plain message text.
	Body string `json:"body"`

	// Attachment is an optional file payload.
	Attachment *Attachment `json:"attachment,omitempty"`

	// CorrelationID is the client-generated id of the originating send.
	// The server echoes it back so an optimistic entry and its echo can be
	// collapsed into one.
	CorrelationID string `json:"correlation_id,omitempty"`

	// CreatedAt is the message timestamp (server clock once confirmed).
	CreatedAt time.Time `json:"created_at"`

	// Read reports whether the receiver has opened the conversation since
	// this message arrived.
	Read bool `json:"read"`

	// DeliveryState is client-side only and never serialized to the
	// server.
	DeliveryState DeliveryState `json:"-"`
}

// Before reports whether m sorts ahead of other inside one conversation.
// Ties on the timestamp are broken by id so the order is total.
func (m Message) Before(other Message) bool {
	if !m.CreatedAt.Equal(other.CreatedAt) {
		return m.CreatedAt.Before(other.CreatedAt)
	}
	return m.ID < other.ID
}
