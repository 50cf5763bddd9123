package models

import (
	"strings"
	"time"
)

// tempIDPrefix marks a locally synthesized conversation id for a
// counterpart that has no server-side conversation yet.
const tempIDPrefix = "temp:"

// Conversation is one entry of the merged conversation view. Entries are
// unique by ID, and at most one entry exists per counterpart at any time:
// a temp entry and the real one never coexist.
type Conversation struct {
	// ID is either the server-assigned identifier or a synthesized
	// "temp:<counterpartID>" identifier.
	ID string `json:"id"`

	// CounterpartID is the user id of the other participant. The UI keys
	// its open-conversation selection by this value, so promotion from a
	// temp id to the real one is transparent.
	CounterpartID string `json:"counterpart_id"`

	// CounterpartName is the display name of the other participant.
	CounterpartName string `json:"counterpart_name"`

	// LastMessage is a snapshot of the most recent message, used by the
	// list view. Nil for a freshly synthesized temp conversation.
	LastMessage *Message `json:"last_message,omitempty"`

	// UnreadCount is the number of messages received since the
	// conversation was last open.
	UnreadCount int `json:"unread_count"`

	// UpdatedAt drives the recency sort of the list view.
	UpdatedAt time.Time `json:"updated_at"`

	// IsTemp marks a locally synthesized placeholder. Client-side only.
	IsTemp bool `json:"-"`
}

// TempConversationID synthesizes the placeholder id for a counterpart.
func TempConversationID(counterpartID string) string {
	return tempIDPrefix + counterpartID
}

// IsTempConversationID reports whether id is a synthesized placeholder id.
func IsTempConversationID(id string) bool {
	return strings.HasPrefix(id, tempIDPrefix)
}

// CounterpartFromTempID returns the counterpart id encoded in a temp
// conversation id, or an empty string if id is not a temp id.
func CounterpartFromTempID(id string) string {
	if !IsTempConversationID(id) {
		return ""
	}
	return strings.TrimPrefix(id, tempIDPrefix)
}
