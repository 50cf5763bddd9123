// SPDX-License-Identifier: Apache-2.0

package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ametov/bookline/internal/logger"
	"github.com/ametov/bookline/internal/realtime"
)

const (
	testDebounce = 2 * time.Second
	testExpiry   = 3 * time.Second
)

func newTypingFixture(t *testing.T) (*fakeChannel, *fakeClock, TypingService) {
	t.Helper()
	channel := newFakeChannel()
	channel.connected = true
	clock := newFakeClock()
	tracker := NewTypingTracker(channel, clock, testDebounce, testExpiry, logger.Nop())
	return channel, clock, tracker
}

// ── Local emission ───────────────────────────────────────────────────────

func TestKeystroke_OneStartPerDebounceWindow(t *testing.T) {
	channel, clock, tracker := newTypingFixture(t)

	tracker.Keystroke("c-1")
	clock.Tick(500 * time.Millisecond)
	tracker.Keystroke("c-1")
	clock.Tick(500 * time.Millisecond)
	tracker.Keystroke("c-1")

	assert.Len(t, channel.emissions(realtime.EventTypingStart), 1)

	// once the window has elapsed since the last emission, a keystroke
	// emits again
	clock.Tick(testDebounce)
	tracker.Keystroke("c-1")

	assert.Len(t, channel.emissions(realtime.EventTypingStart), 2)
}

func TestKeystroke_InactivityEmitsStop(t *testing.T) {
	channel, clock, tracker := newTypingFixture(t)

	tracker.Keystroke("c-1")
	clock.Advance(testDebounce)

	stops := channel.emissions(realtime.EventTypingStop)
	require.Len(t, stops, 1)
	assert.Equal(t, realtime.ConversationRef{ConversationID: "c-1"}, stops[0].payload)
}

func TestKeystroke_ActivityPushesStopOut(t *testing.T) {
	channel, clock, tracker := newTypingFixture(t)

	tracker.Keystroke("c-1")
	clock.Advance(testDebounce - time.Millisecond)
	tracker.Keystroke("c-1") // resets the inactivity timer
	clock.Advance(testDebounce - time.Millisecond)

	assert.Empty(t, channel.emissions(realtime.EventTypingStop))

	clock.Advance(time.Millisecond)
	assert.Len(t, channel.emissions(realtime.EventTypingStop), 1)
}

func TestStopTyping_EmitsImmediatelyAndCancelsTimer(t *testing.T) {
	channel, clock, tracker := newTypingFixture(t)

	tracker.Keystroke("c-1")
	tracker.StopTyping("c-1") // the send path stops explicitly

	require.Len(t, channel.emissions(realtime.EventTypingStop), 1)

	// the cancelled inactivity timer must not fire a second stop
	clock.Advance(2 * testDebounce)
	assert.Len(t, channel.emissions(realtime.EventTypingStop), 1)
}

func TestStopTyping_NoOpWhenNotTyping(t *testing.T) {
	channel, _, tracker := newTypingFixture(t)

	tracker.StopTyping("c-1")

	assert.Empty(t, channel.emissions(realtime.EventTypingStop))
}

func TestKeystroke_ConversationsAreIndependent(t *testing.T) {
	channel, _, tracker := newTypingFixture(t)

	tracker.Keystroke("c-1")
	tracker.Keystroke("c-2")

	starts := channel.emissions(realtime.EventTypingStart)
	require.Len(t, starts, 2)
	assert.Equal(t, realtime.ConversationRef{ConversationID: "c-1"}, starts[0].payload)
	assert.Equal(t, realtime.ConversationRef{ConversationID: "c-2"}, starts[1].payload)
}

// ── Remote indicator ─────────────────────────────────────────────────────

func TestRemoteTyping_SetAndDecays(t *testing.T) {
	channel, clock, tracker := newTypingFixture(t)

	channel.push(t, realtime.EventUserTyping, realtime.TypingPayload{ConversationID: "c-1", UserID: "u-1"})
	assert.True(t, tracker.RemoteTyping("c-1"))

	clock.Advance(testExpiry)
	assert.False(t, tracker.RemoteTyping("c-1"))
}

func TestRemoteTyping_DecaysOnClockAloneWithoutTimer(t *testing.T) {
	channel, clock, tracker := newTypingFixture(t)

	channel.push(t, realtime.EventUserTyping, realtime.TypingPayload{ConversationID: "c-1", UserID: "u-1"})

	// move time past the deadline without running any timer callback
	clock.Tick(testExpiry + time.Millisecond)
	assert.False(t, tracker.RemoteTyping("c-1"))
}

func TestRemoteTyping_RefreshedByEachFrame(t *testing.T) {
	channel, clock, tracker := newTypingFixture(t)

	channel.push(t, realtime.EventUserTyping, realtime.TypingPayload{ConversationID: "c-1", UserID: "u-1"})
	clock.Advance(testExpiry - time.Millisecond)
	channel.push(t, realtime.EventUserTyping, realtime.TypingPayload{ConversationID: "c-1", UserID: "u-1"})
	clock.Advance(testExpiry - time.Millisecond)

	assert.True(t, tracker.RemoteTyping("c-1"))

	clock.Advance(time.Millisecond)
	assert.False(t, tracker.RemoteTyping("c-1"))
}

func TestRemoteTyping_StopFrameClearsImmediately(t *testing.T) {
	channel, _, tracker := newTypingFixture(t)

	channel.push(t, realtime.EventUserTyping, realtime.TypingPayload{ConversationID: "c-1", UserID: "u-1"})
	require.True(t, tracker.RemoteTyping("c-1"))

	channel.push(t, realtime.EventUserStopTyping, realtime.TypingPayload{ConversationID: "c-1", UserID: "u-1"})
	assert.False(t, tracker.RemoteTyping("c-1"))
}

func TestRemoteTyping_ChangeCallbackFires(t *testing.T) {
	channel, clock, tracker := newTypingFixture(t)

	var changes int
	tracker.OnChange(func() { changes++ })

	channel.push(t, realtime.EventUserTyping, realtime.TypingPayload{ConversationID: "c-1", UserID: "u-1"})
	require.Equal(t, 1, changes)

	clock.Advance(testExpiry)
	assert.Equal(t, 2, changes)
}

func TestForget_DropsAllState(t *testing.T) {
	channel, clock, tracker := newTypingFixture(t)

	tracker.Keystroke("c-1")
	channel.push(t, realtime.EventUserTyping, realtime.TypingPayload{ConversationID: "c-1", UserID: "u-1"})

	tracker.Forget("c-1")

	assert.False(t, tracker.RemoteTyping("c-1"))

	// forgotten timers stay quiet
	clock.Advance(2 * testExpiry)
	assert.Empty(t, channel.emissions(realtime.EventTypingStop))
}
