// SPDX-License-Identifier: Apache-2.0

// Package realtime implements the client's websocket channel: one
// connection per live session, carrying message pushes and typing
// indicators.
//
// The channel is deliberately forgiving. Emitting while disconnected is a
// silent no-op, a failed dial degrades the app to REST-only mode, and an
// unexpected close triggers background reconnection with exponential
// backoff. The session service decides WHEN the channel is up (connected
// exactly while the session is authenticated); this package only decides
// HOW.
package realtime

import "context"

//go:generate mockgen -source=interfaces.go -destination=../mock/channel_mock.go -package=mock

// Handler consumes one inbound frame. Handlers run on the read loop
// goroutine; anything slow should hand off.
type Handler func(event string, payload []byte)

// Subscription identifies one registered handler so it can be removed.
type Subscription int

// Channel is the realtime transport the services talk to.
type Channel interface {
	// Connect dials the server with the given access token. Calling
	// Connect on an already connected channel is a no-op. A dial failure
	// leaves the channel disconnected and is returned to the caller, who
	// is expected to carry on without realtime.
	Connect(ctx context.Context, token string) error

	// Disconnect closes the connection and suppresses reconnection until
	// the next Connect. Idempotent.
	Disconnect() error

	// Connected reports whether a live connection is up right now.
	Connected() bool

	// Emit sends one outbound frame. When the channel is not connected
	// the frame is dropped silently; realtime commands are advisory and
	// never worth failing an interaction over.
	Emit(ctx context.Context, event string, payload any)

	// Subscribe registers a handler for an event name and returns its
	// subscription handle.
	Subscribe(event string, h Handler) Subscription

	// Unsubscribe removes a previously registered handler. Unknown
	// handles are ignored.
	Unsubscribe(event string, sub Subscription)
}
