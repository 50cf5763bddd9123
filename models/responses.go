package models

import "encoding/json"

// Envelope is the single response shape the API wraps every payload in.
// The gateway validates and unwraps it once at the transport boundary so
// call sites never inspect raw response bodies.
type Envelope struct {
	// Data is the payload, present on success.
	Data json.RawMessage `json:"data,omitempty"`

	// Error is a human-readable message, present on failure.
	Error string `json:"error,omitempty"`
}

// AuthResponse is returned by login, register, and refresh.
type AuthResponse struct {
	TokenPair
	User User `json:"user"`
}

// ConversationsPage is one page of the conversation list.
type ConversationsPage struct {
	Conversations []Conversation `json:"conversations"`

	// Total is the overall number of conversations on the server,
	// independent of paging.
	Total int `json:"total"`
}

// MessagesPage is one page of a conversation's message history, ordered
// oldest first within the page.
type MessagesPage struct {
	Messages []Message `json:"messages"`
	HasMore  bool      `json:"has_more"`
}

// SendMessageResponse is returned by POST /api/messages/send. For a send
// from a temp conversation the server returns the canonical conversation
// it created alongside the stored message.
type SendMessageResponse struct {
	Conversation Conversation `json:"conversation"`
	Message      Message      `json:"message"`
}

// UnreadCountResponse is returned by GET /api/messages/unread-count.
type UnreadCountResponse struct {
	Total int `json:"total"`
}
