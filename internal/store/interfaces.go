// SPDX-License-Identifier: Apache-2.0

// Package store implements the client's local persistence layer on top of
// an SQLite database: the credential repository holding the session bundle
// across restarts, and the offline cache of the conversation list and
// message pages used to render the UI before the network answers.
package store

import (
	"context"

	"github.com/ametov/bookline/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/store_mock.go -package=mock

// CredentialRepository persists the session bundle: access token, refresh
// token, and cached user profile. The session service is its only writer.
type CredentialRepository interface {
	// SaveCredentials upserts all three entries in one transaction.
	SaveCredentials(ctx context.Context, creds models.Credentials) error

	// LoadCredentials returns the persisted bundle, or
	// [ErrCredentialsNotFound] if no access token entry exists.
	LoadCredentials(ctx context.Context) (models.Credentials, error)

	// ClearCredentials removes all three entries atomically. Clearing an
	// already-empty store is not an error.
	ClearCredentials(ctx context.Context) error
}

// CacheRepository is the offline conversation cache. It is best-effort:
// the synchronizer refreshes it after every successful REST seed and reads
// it only while the network is unavailable.
type CacheRepository interface {
	// ReplaceConversations replaces the cached conversation list in one
	// transaction. Temp conversations are never cached.
	ReplaceConversations(ctx context.Context, conversations []models.Conversation) error

	// LoadConversations returns the cached list sorted by updated_at
	// descending. An empty cache yields an empty slice, not an error.
	LoadConversations(ctx context.Context) ([]models.Conversation, error)

	// ReplaceMessages replaces the cached message page of one
	// conversation in one transaction.
	ReplaceMessages(ctx context.Context, conversationID string, messages []models.Message) error

	// LoadMessages returns the cached page for conversationID ordered by
	// (created_at, id), or [ErrCacheMiss] if nothing is cached for it.
	LoadMessages(ctx context.Context, conversationID string) ([]models.Message, error)

	// DeleteConversation removes a conversation and its cached messages.
	DeleteConversation(ctx context.Context, conversationID string) error
}
