package service

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/ametov/bookline/internal/logger"
	"github.com/ametov/bookline/internal/realtime"
	"github.com/ametov/bookline/internal/utils"
	"github.com/ametov/bookline/models"
)

// localTyping is the outbound side of one conversation's indicator.
type localTyping struct {
	lastEmit time.Time
	// stopTimer fires typing_stop after the inactivity window.
	stopTimer utils.Timer
	emitting  bool
}

// remoteTyping is the inbound side: a decaying indicator refreshed by
// every user_typing frame.
type remoteTyping struct {
	state       models.TypingState
	expiryTimer utils.Timer
}

type typingTracker struct {
	channel  realtime.Channel
	clock    utils.Clock
	debounce time.Duration
	expiry   time.Duration

	mu       sync.Mutex
	local    map[string]*localTyping
	remote   map[string]*remoteTyping
	onChange func()

	logger *logger.Logger
}

// NewTypingTracker builds the presence tracker and subscribes it to the
// channel's typing events. debounce bounds local emissions (one
// typing_start per window), expiry is the remote indicator lifetime.
func NewTypingTracker(channel realtime.Channel, clock utils.Clock, debounce, expiry time.Duration, log *logger.Logger) TypingService {
	t := &typingTracker{
		channel:  channel,
		clock:    clock,
		debounce: debounce,
		expiry:   expiry,
		local:    make(map[string]*localTyping),
		remote:   make(map[string]*remoteTyping),
		logger:   log,
	}

	channel.Subscribe(realtime.EventUserTyping, t.handleRemoteTyping)
	channel.Subscribe(realtime.EventUserStopTyping, t.handleRemoteStop)

	return t
}

// Keystroke implements [TypingService].
func (t *typingTracker) Keystroke(conversationID string) {
	now := t.clock.Now()

	t.mu.Lock()
	state, ok := t.local[conversationID]
	if !ok {
		state = &localTyping{}
		t.local[conversationID] = state
	}

	emit := !state.emitting || now.Sub(state.lastEmit) >= t.debounce
	if emit {
		state.lastEmit = now
		state.emitting = true
	}

	// every keystroke pushes the inactivity stop out
	if state.stopTimer != nil {
		state.stopTimer.Reset(t.debounce)
	} else {
		state.stopTimer = t.clock.AfterFunc(t.debounce, func() {
			t.StopTyping(conversationID)
		})
	}
	t.mu.Unlock()

	if emit {
		t.channel.Emit(context.Background(), realtime.EventTypingStart,
			realtime.ConversationRef{ConversationID: conversationID})
	}
}

// StopTyping implements [TypingService].
func (t *typingTracker) StopTyping(conversationID string) {
	t.mu.Lock()
	state, ok := t.local[conversationID]
	var emit bool
	if ok {
		emit = state.emitting
		state.emitting = false
		if state.stopTimer != nil {
			state.stopTimer.Stop()
			state.stopTimer = nil
		}
	}
	t.mu.Unlock()

	if emit {
		t.channel.Emit(context.Background(), realtime.EventTypingStop,
			realtime.ConversationRef{ConversationID: conversationID})
	}
}

// RemoteTyping implements [TypingService]. The decision is made against
// the clock, not the timer: a stale indicator reads false the moment its
// deadline passes, even if the expiry callback has not run yet.
func (t *typingTracker) RemoteTyping(conversationID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	state, ok := t.remote[conversationID]
	if !ok {
		return false
	}
	return state.state.ActiveAt(t.clock.Now())
}

// Forget implements [TypingService].
func (t *typingTracker) Forget(conversationID string) {
	t.mu.Lock()
	if state, ok := t.local[conversationID]; ok && state.stopTimer != nil {
		state.stopTimer.Stop()
	}
	delete(t.local, conversationID)

	if state, ok := t.remote[conversationID]; ok && state.expiryTimer != nil {
		state.expiryTimer.Stop()
	}
	delete(t.remote, conversationID)
	t.mu.Unlock()
}

// OnChange implements [TypingService].
func (t *typingTracker) OnChange(fn func()) {
	t.mu.Lock()
	t.onChange = fn
	t.mu.Unlock()
}

func (t *typingTracker) handleRemoteTyping(event string, payload []byte) {
	var p realtime.TypingPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		t.logger.Err(err).
			Str("func", "typingTracker.handleRemoteTyping").
			Msg("discarding malformed typing payload")
		return
	}

	deadline := t.clock.Now().Add(t.expiry)

	t.mu.Lock()
	state, ok := t.remote[p.ConversationID]
	if !ok {
		state = &remoteTyping{}
		t.remote[p.ConversationID] = state
	}
	state.state = models.TypingState{RemoteTyping: true, ExpiresAt: deadline}

	// each frame reprograms the decay timer
	if state.expiryTimer != nil {
		state.expiryTimer.Reset(t.expiry)
	} else {
		convID := p.ConversationID
		state.expiryTimer = t.clock.AfterFunc(t.expiry, func() {
			t.expireRemote(convID)
		})
	}
	t.mu.Unlock()

	t.notify()
}

func (t *typingTracker) handleRemoteStop(event string, payload []byte) {
	var p realtime.TypingPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return
	}

	t.clearRemote(p.ConversationID)
}

// expireRemote runs from the decay timer. The deadline is re-checked
// against the clock because a Reset racing the callback can leave an
// already-refreshed indicator.
func (t *typingTracker) expireRemote(conversationID string) {
	t.mu.Lock()
	state, ok := t.remote[conversationID]
	if ok && state.state.ActiveAt(t.clock.Now()) {
		t.mu.Unlock()
		return
	}
	if ok {
		state.state = models.TypingState{}
	}
	t.mu.Unlock()

	if ok {
		t.notify()
	}
}

func (t *typingTracker) clearRemote(conversationID string) {
	t.mu.Lock()
	state, ok := t.remote[conversationID]
	if ok {
		state.state = models.TypingState{}
		if state.expiryTimer != nil {
			state.expiryTimer.Stop()
		}
	}
	t.mu.Unlock()

	if ok {
		t.notify()
	}
}

func (t *typingTracker) notify() {
	t.mu.Lock()
	fn := t.onChange
	t.mu.Unlock()

	if fn != nil {
		fn()
	}
}
