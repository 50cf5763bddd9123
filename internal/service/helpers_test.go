package service

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/ametov/bookline/internal/realtime"
	"github.com/ametov/bookline/internal/utils"
)

// fakeChannel is a hand-rolled realtime.Channel that records emissions
// and lets tests inject inbound frames synchronously.
type fakeChannel struct {
	mu          sync.Mutex
	connected   bool
	connectErr  error
	connects    int
	disconnects int
	emitted     []emittedFrame
	handlers    map[string]map[realtime.Subscription]realtime.Handler
	nextSub     realtime.Subscription
}

type emittedFrame struct {
	event   string
	payload any
}

func newFakeChannel() *fakeChannel {
	return &fakeChannel{handlers: make(map[string]map[realtime.Subscription]realtime.Handler)}
}

func (f *fakeChannel) Connect(ctx context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connects++
	if f.connectErr != nil {
		return f.connectErr
	}
	f.connected = true
	return nil
}

func (f *fakeChannel) Disconnect() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.disconnects++
	f.connected = false
	return nil
}

func (f *fakeChannel) Connected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

func (f *fakeChannel) Emit(ctx context.Context, event string, payload any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.connected {
		return
	}
	f.emitted = append(f.emitted, emittedFrame{event: event, payload: payload})
}

func (f *fakeChannel) Subscribe(event string, h realtime.Handler) realtime.Subscription {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextSub++
	if f.handlers[event] == nil {
		f.handlers[event] = make(map[realtime.Subscription]realtime.Handler)
	}
	f.handlers[event][f.nextSub] = h
	return f.nextSub
}

func (f *fakeChannel) Unsubscribe(event string, sub realtime.Subscription) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.handlers[event], sub)
}

// push delivers an inbound frame to every subscriber of event.
func (f *fakeChannel) push(t *testing.T, event string, payload any) {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)

	f.mu.Lock()
	handlers := make([]realtime.Handler, 0, len(f.handlers[event]))
	for _, h := range f.handlers[event] {
		handlers = append(handlers, h)
	}
	f.mu.Unlock()

	for _, h := range handlers {
		h(event, raw)
	}
}

func (f *fakeChannel) emissions(event string) []emittedFrame {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []emittedFrame
	for _, e := range f.emitted {
		if e.event == event {
			out = append(out, e)
		}
	}
	return out
}

// fakeClock implements utils.Clock over virtual time.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

type fakeTimer struct {
	clock    *fakeClock
	deadline time.Time
	f        func()
	stopped  bool
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) utils.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := &fakeTimer{clock: c, deadline: c.now.Add(d), f: f}
	c.timers = append(c.timers, t)
	return t
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	was := !t.stopped
	t.stopped = true
	return was
}

func (t *fakeTimer) Reset(d time.Duration) bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	was := !t.stopped
	t.deadline = t.clock.now.Add(d)
	t.stopped = false
	return was
}

// Advance moves virtual time forward and fires every timer whose deadline
// has passed, in deadline order.
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	now := c.now

	var due []*fakeTimer
	for _, t := range c.timers {
		if !t.stopped && !t.deadline.After(now) {
			t.stopped = true
			due = append(due, t)
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].deadline.Before(due[j].deadline) })
	c.mu.Unlock()

	for _, t := range due {
		t.f()
	}
}

// Tick moves virtual time forward WITHOUT running timer callbacks, for
// asserting that state decays on the clock alone.
func (c *fakeClock) Tick(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// signedToken builds a minimal HS256 token with the given expiry so the
// unverified claim inspection has something to chew on.
func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "u-1",
		"exp": exp.Unix(),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}
