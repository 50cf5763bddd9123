// SPDX-License-Identifier: Apache-2.0

package service

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ametov/bookline/internal/adapter"
	"github.com/ametov/bookline/internal/logger"
	"github.com/ametov/bookline/internal/mock"
	"github.com/ametov/bookline/internal/realtime"
	"github.com/ametov/bookline/internal/store"
	"github.com/ametov/bookline/models"
)

// sessionStub satisfies SessionService with a fixed identity; the
// conversation service only reads Session().
type sessionStub struct {
	session models.Session
}

func (s *sessionStub) Restore(context.Context) (models.Session, error) { return s.session, nil }
func (s *sessionStub) Login(context.Context, models.LoginRequest) (models.Session, error) {
	return s.session, nil
}
func (s *sessionStub) Register(context.Context, models.RegisterRequest) (models.Session, error) {
	return s.session, nil
}
func (s *sessionStub) Logout(context.Context) error                       { return nil }
func (s *sessionStub) Refresh(context.Context) error                      { return nil }
func (s *sessionStub) Session() models.Session                            { return s.session }
func (s *sessionStub) OnForcedLogout(func())                              {}
func (s *sessionStub) ForgotPassword(context.Context, string) error       { return nil }
func (s *sessionStub) ResetPassword(context.Context, string, string) error { return nil }

type convFixture struct {
	adapter *mock.MockServerAdapter
	cache   *mock.MockCacheRepository
	channel *fakeChannel
	clock   *fakeClock
	svc     ConversationService
}

const selfID = "u-self"

func newConvFixture(t *testing.T) *convFixture {
	t.Helper()
	ctrl := gomock.NewController(t)

	f := &convFixture{
		adapter: mock.NewMockServerAdapter(ctrl),
		cache:   mock.NewMockCacheRepository(ctrl),
		channel: newFakeChannel(),
		clock:   newFakeClock(),
	}
	f.channel.connected = true

	session := &sessionStub{session: models.Session{
		AccessToken: "access-1",
		User:        models.User{ID: selfID, Name: "Self"},
		Status:      models.SessionAuthenticated,
	}}
	f.svc = NewConversationService(session, f.adapter, f.channel, f.cache, f.clock, logger.Nop())
	return f
}

func (f *convFixture) seed(t *testing.T, convs ...models.Conversation) {
	t.Helper()
	f.adapter.EXPECT().Conversations(gomock.Any()).
		Return(models.ConversationsPage{Conversations: convs, Total: len(convs)}, nil)
	f.cache.EXPECT().ReplaceConversations(gomock.Any(), gomock.Any()).Return(nil)
	require.NoError(t, f.svc.Seed(context.Background()))
}

// open selects a seeded conversation, stubbing an empty history load.
func (f *convFixture) open(t *testing.T, conv models.Conversation) {
	t.Helper()
	f.adapter.EXPECT().Messages(gomock.Any(), conv.ID).Return(models.MessagesPage{}, nil)
	f.cache.EXPECT().ReplaceMessages(gomock.Any(), conv.ID, gomock.Any()).Return(nil)
	f.adapter.EXPECT().MarkRead(gomock.Any(), conv.ID).Return(nil)

	_, err := f.svc.Open(context.Background(), conv.CounterpartID, conv.CounterpartName)
	require.NoError(t, err)
}

func conv(id, counterpart string, updatedAt time.Time) models.Conversation {
	return models.Conversation{
		ID:              id,
		CounterpartID:   counterpart,
		CounterpartName: "Counterpart " + counterpart,
		UpdatedAt:       updatedAt,
	}
}

// ── Seed ─────────────────────────────────────────────────────────────────

func TestSeed_SortsByRecency(t *testing.T) {
	f := newConvFixture(t)
	base := f.clock.Now()
	f.seed(t,
		conv("c-old", "u-1", base.Add(-time.Hour)),
		conv("c-new", "u-2", base),
	)

	list := f.svc.Conversations()
	require.Len(t, list, 2)
	assert.Equal(t, "c-new", list[0].ID)
	assert.Equal(t, "c-old", list[1].ID)
}

func TestSeed_NetworkFailureServesCache(t *testing.T) {
	f := newConvFixture(t)
	f.adapter.EXPECT().Conversations(gomock.Any()).
		Return(models.ConversationsPage{}, adapter.ErrBadGateway)
	f.cache.EXPECT().LoadConversations(gomock.Any()).
		Return([]models.Conversation{conv("c-1", "u-1", f.clock.Now())}, nil)

	require.NoError(t, f.svc.Seed(context.Background()))

	list := f.svc.Conversations()
	require.Len(t, list, 1)
	assert.Equal(t, "c-1", list[0].ID)
}

func TestSeed_FailureWithEmptyCacheSurfacesError(t *testing.T) {
	f := newConvFixture(t)
	f.adapter.EXPECT().Conversations(gomock.Any()).
		Return(models.ConversationsPage{}, adapter.ErrBadGateway)
	f.cache.EXPECT().LoadConversations(gomock.Any()).Return(nil, store.ErrCacheMiss)

	err := f.svc.Seed(context.Background())

	require.ErrorIs(t, err, adapter.ErrBadGateway)
	assert.Empty(t, f.svc.Conversations())
}

func TestSeed_ServerEntryReplacesTempForSameCounterpart(t *testing.T) {
	f := newConvFixture(t)

	opened, err := f.svc.Open(context.Background(), "u-9", "Nine")
	require.NoError(t, err)
	require.True(t, opened.IsTemp)

	f.seed(t, conv("c-9", "u-9", f.clock.Now()))

	list := f.svc.Conversations()
	require.Len(t, list, 1)
	assert.Equal(t, "c-9", list[0].ID)
	assert.False(t, list[0].IsTemp)
}

// ── Open ─────────────────────────────────────────────────────────────────

func TestOpen_UnknownCounterpartSynthesizesTemp(t *testing.T) {
	f := newConvFixture(t)

	opened, err := f.svc.Open(context.Background(), "u-9", "Nine")

	require.NoError(t, err)
	assert.True(t, opened.IsTemp)
	assert.Equal(t, models.TempConversationID("u-9"), opened.ID)
	assert.Equal(t, opened.ID, f.svc.OpenID())
	assert.Empty(t, f.channel.emissions(realtime.EventJoinConversation))
}

func TestOpen_LoadsHistoryMarksReadAndJoins(t *testing.T) {
	f := newConvFixture(t)
	c := conv("c-1", "u-1", f.clock.Now())
	c.UnreadCount = 3
	f.seed(t, c)

	history := []models.Message{
		{ID: "m-1", ConversationID: "c-1", SenderID: "u-1", Body: "hi", CreatedAt: f.clock.Now().Add(-time.Minute)},
		{ID: "m-2", ConversationID: "c-1", SenderID: selfID, Body: "hello", CreatedAt: f.clock.Now()},
	}
	f.adapter.EXPECT().Messages(gomock.Any(), "c-1").Return(models.MessagesPage{Messages: history}, nil)
	f.cache.EXPECT().ReplaceMessages(gomock.Any(), "c-1", gomock.Any()).Return(nil)
	f.adapter.EXPECT().MarkRead(gomock.Any(), "c-1").Return(nil)

	_, err := f.svc.Open(context.Background(), "u-1", "One")
	require.NoError(t, err)

	msgs := f.svc.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "m-1", msgs[0].ID)
	assert.Equal(t, models.DeliveryConfirmed, msgs[0].DeliveryState)

	list := f.svc.Conversations()
	assert.Zero(t, list[0].UnreadCount)

	joins := f.channel.emissions(realtime.EventJoinConversation)
	require.Len(t, joins, 1)
	assert.Equal(t, realtime.ConversationRef{ConversationID: "c-1"}, joins[0].payload)
}

func TestOpen_HistoryFallsBackToCache(t *testing.T) {
	f := newConvFixture(t)
	f.seed(t, conv("c-1", "u-1", f.clock.Now()))

	cached := []models.Message{{ID: "m-1", ConversationID: "c-1", Body: "cached", DeliveryState: models.DeliveryConfirmed}}
	f.adapter.EXPECT().Messages(gomock.Any(), "c-1").Return(models.MessagesPage{}, adapter.ErrBadGateway)
	f.cache.EXPECT().LoadMessages(gomock.Any(), "c-1").Return(cached, nil)
	f.adapter.EXPECT().MarkRead(gomock.Any(), "c-1").Return(nil)

	_, err := f.svc.Open(context.Background(), "u-1", "One")
	require.NoError(t, err)

	msgs := f.svc.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "cached", msgs[0].Body)
}

// ── Send ─────────────────────────────────────────────────────────────────

func TestSend_EmptyMessage(t *testing.T) {
	f := newConvFixture(t)
	require.ErrorIs(t, f.svc.Send(context.Background(), "", nil), ErrEmptyMessage)
}

func TestSend_NoOpenConversation(t *testing.T) {
	f := newConvFixture(t)
	require.ErrorIs(t, f.svc.Send(context.Background(), "hi", nil), ErrNoOpenConversation)
}

func TestSend_OptimisticEntryCollapsesIntoEcho(t *testing.T) {
	f := newConvFixture(t)
	c := conv("c-1", "u-1", f.clock.Now())
	f.seed(t, c)
	f.open(t, c)

	var sent models.SendMessageRequest
	f.adapter.EXPECT().
		SendMessage(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, req models.SendMessageRequest) (models.SendMessageResponse, error) {
			sent = req
			return models.SendMessageResponse{
				Conversation: c,
				Message: models.Message{
					ID:             "m-9",
					ConversationID: "c-1",
					SenderID:       selfID,
					Body:           req.Body,
					CorrelationID:  req.CorrelationID,
					CreatedAt:      f.clock.Now(),
				},
			}, nil
		})

	require.NoError(t, f.svc.Send(context.Background(), "hello", nil))

	assert.Equal(t, "c-1", sent.ConversationID)
	assert.NotEmpty(t, sent.CorrelationID)

	msgs := f.svc.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "m-9", msgs[0].ID)
	assert.Equal(t, models.DeliveryConfirmed, msgs[0].DeliveryState)
}

func TestSend_FromTempPromotesConversation(t *testing.T) {
	f := newConvFixture(t)
	_, err := f.svc.Open(context.Background(), "u-9", "Nine")
	require.NoError(t, err)

	canonical := conv("c-9", "u-9", f.clock.Now())
	var sent models.SendMessageRequest
	f.adapter.EXPECT().
		SendMessage(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, req models.SendMessageRequest) (models.SendMessageResponse, error) {
			sent = req
			return models.SendMessageResponse{
				Conversation: canonical,
				Message: models.Message{
					ID:             "m-1",
					ConversationID: "c-9",
					SenderID:       selfID,
					Body:           req.Body,
					CorrelationID:  req.CorrelationID,
					CreatedAt:      f.clock.Now(),
				},
			}, nil
		})

	require.NoError(t, f.svc.Send(context.Background(), "first contact", nil))

	// a send from a temp conversation omits the id and names the receiver
	assert.Empty(t, sent.ConversationID)
	assert.Equal(t, "u-9", sent.ReceiverID)

	list := f.svc.Conversations()
	require.Len(t, list, 1)
	assert.Equal(t, "c-9", list[0].ID)
	assert.False(t, list[0].IsTemp)
	assert.Equal(t, "c-9", f.svc.OpenID())

	msgs := f.svc.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "c-9", msgs[0].ConversationID)
	assert.Equal(t, models.DeliveryConfirmed, msgs[0].DeliveryState)
}

func TestSend_PushEchoBeforeResponseAppliesOnce(t *testing.T) {
	f := newConvFixture(t)
	c := conv("c-1", "u-1", f.clock.Now())
	f.seed(t, c)
	f.open(t, c)

	f.adapter.EXPECT().
		SendMessage(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, req models.SendMessageRequest) (models.SendMessageResponse, error) {
			echo := models.Message{
				ID:             "m-9",
				ConversationID: "c-1",
				SenderID:       selfID,
				Body:           req.Body,
				CorrelationID:  req.CorrelationID,
				CreatedAt:      f.clock.Now(),
			}
			// the realtime echo can outrun the HTTP response
			f.channel.push(t, realtime.EventNewMessage, realtime.MessagePayload{Message: echo})
			return models.SendMessageResponse{Conversation: c, Message: echo}, nil
		})

	require.NoError(t, f.svc.Send(context.Background(), "hello", nil))

	msgs := f.svc.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "m-9", msgs[0].ID)
	assert.Equal(t, models.DeliveryConfirmed, msgs[0].DeliveryState)
}

func TestSend_FailureDropsOptimisticEntry(t *testing.T) {
	f := newConvFixture(t)
	c := conv("c-1", "u-1", f.clock.Now())
	f.seed(t, c)
	f.open(t, c)

	f.adapter.EXPECT().SendMessage(gomock.Any(), gomock.Any()).
		Return(models.SendMessageResponse{}, adapter.ErrBadGateway)

	err := f.svc.Send(context.Background(), "hello", nil)

	require.ErrorIs(t, err, adapter.ErrBadGateway)
	assert.Empty(t, f.svc.Messages())
}

func TestSend_PromotionConflictDropsTemp(t *testing.T) {
	f := newConvFixture(t)
	_, err := f.svc.Open(context.Background(), "u-9", "Nine")
	require.NoError(t, err)

	f.adapter.EXPECT().SendMessage(gomock.Any(), gomock.Any()).
		Return(models.SendMessageResponse{}, adapter.ErrConflict)

	err = f.svc.Send(context.Background(), "first contact", nil)

	require.ErrorIs(t, err, ErrPromotionConflict)
	assert.Empty(t, f.svc.Conversations())
	assert.Empty(t, f.svc.OpenID())
}

// ── Pushes ───────────────────────────────────────────────────────────────

func TestPush_DualEventNamesApplyOnce(t *testing.T) {
	f := newConvFixture(t)
	f.seed(t, conv("c-1", "u-1", f.clock.Now().Add(-time.Hour)))

	msg := models.Message{
		ID:             "m-1",
		ConversationID: "c-1",
		SenderID:       "u-1",
		Body:           "are you free tomorrow?",
		CreatedAt:      f.clock.Now(),
	}
	f.channel.push(t, realtime.EventNewMessage, realtime.MessagePayload{Message: msg})
	f.channel.push(t, realtime.EventMessageReceived, realtime.MessagePayload{Message: msg})

	list := f.svc.Conversations()
	require.Len(t, list, 1)
	assert.Equal(t, 1, list[0].UnreadCount)
	require.NotNil(t, list[0].LastMessage)
	assert.Equal(t, "m-1", list[0].LastMessage.ID)
	assert.Equal(t, msg.CreatedAt, list[0].UpdatedAt)
}

func TestPush_OwnEchoDoesNotIncrementUnread(t *testing.T) {
	f := newConvFixture(t)
	f.seed(t, conv("c-1", "u-1", f.clock.Now().Add(-time.Hour)))

	msg := models.Message{ID: "m-1", ConversationID: "c-1", SenderID: selfID, Body: "noted", CreatedAt: f.clock.Now()}
	f.channel.push(t, realtime.EventNewMessage, realtime.MessagePayload{Message: msg})

	list := f.svc.Conversations()
	require.Len(t, list, 1)
	assert.Zero(t, list[0].UnreadCount)
}

func TestPush_OpenConversationAppendsWithoutUnread(t *testing.T) {
	f := newConvFixture(t)
	c := conv("c-1", "u-1", f.clock.Now().Add(-time.Hour))
	f.seed(t, c)
	f.open(t, c)

	msg := models.Message{ID: "m-1", ConversationID: "c-1", SenderID: "u-1", Body: "hi", CreatedAt: f.clock.Now()}
	f.channel.push(t, realtime.EventNewMessage, realtime.MessagePayload{Message: msg})

	msgs := f.svc.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "m-1", msgs[0].ID)

	list := f.svc.Conversations()
	assert.Zero(t, list[0].UnreadCount)
}

func TestPush_UnknownConversationCreatesEntry(t *testing.T) {
	f := newConvFixture(t)

	msg := models.Message{ID: "m-1", ConversationID: "c-7", SenderID: "u-7", Body: "hello", CreatedAt: f.clock.Now()}
	f.channel.push(t, realtime.EventNewMessage, realtime.MessagePayload{Message: msg})

	list := f.svc.Conversations()
	require.Len(t, list, 1)
	assert.Equal(t, "c-7", list[0].ID)
	assert.Equal(t, "u-7", list[0].CounterpartID)
	assert.Equal(t, 1, list[0].UnreadCount)
}

func TestPush_ConversationSnapshotSupersedesTemp(t *testing.T) {
	f := newConvFixture(t)
	_, err := f.svc.Open(context.Background(), "u-9", "Nine")
	require.NoError(t, err)

	canonical := conv("c-9", "u-9", f.clock.Now())
	msg := models.Message{ID: "m-1", ConversationID: "c-9", SenderID: "u-9", Body: "hi", CreatedAt: f.clock.Now()}
	f.channel.push(t, realtime.EventNewMessage, realtime.MessagePayload{Message: msg, Conversation: &canonical})

	list := f.svc.Conversations()
	require.Len(t, list, 1)
	assert.Equal(t, "c-9", list[0].ID)
	assert.False(t, list[0].IsTemp)
}

func TestPush_ChangeCallbackFires(t *testing.T) {
	f := newConvFixture(t)

	var changes atomic.Int32
	f.svc.OnChange(func() { changes.Add(1) })

	msg := models.Message{ID: "m-1", ConversationID: "c-7", SenderID: "u-7", CreatedAt: f.clock.Now()}
	f.channel.push(t, realtime.EventNewMessage, realtime.MessagePayload{Message: msg})

	assert.Equal(t, int32(1), changes.Load())
}

// ── Delete, totals, search ───────────────────────────────────────────────

func TestDelete_RemovesEverywhere(t *testing.T) {
	f := newConvFixture(t)
	c := conv("c-1", "u-1", f.clock.Now())
	f.seed(t, c)
	f.open(t, c)

	f.adapter.EXPECT().DeleteConversation(gomock.Any(), "c-1").Return(nil)
	f.cache.EXPECT().DeleteConversation(gomock.Any(), "c-1").Return(nil)

	require.NoError(t, f.svc.Delete(context.Background(), "c-1"))

	assert.Empty(t, f.svc.Conversations())
	assert.Empty(t, f.svc.OpenID())
	assert.Empty(t, f.svc.Messages())
}

func TestDelete_TempIsLocalOnly(t *testing.T) {
	f := newConvFixture(t)
	opened, err := f.svc.Open(context.Background(), "u-9", "Nine")
	require.NoError(t, err)

	// no adapter or cache expectations: a temp entry never reached either
	require.NoError(t, f.svc.Delete(context.Background(), opened.ID))
	assert.Empty(t, f.svc.Conversations())
}

func TestUnreadTotal_Passthrough(t *testing.T) {
	f := newConvFixture(t)
	f.adapter.EXPECT().UnreadCount(gomock.Any()).Return(4, nil)

	total, err := f.svc.UnreadTotal(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 4, total)
}

func TestSearch_ResultsAreNotMergedIntoView(t *testing.T) {
	f := newConvFixture(t)
	f.adapter.EXPECT().SearchConversations(gomock.Any(), "flu").
		Return(models.ConversationsPage{Conversations: []models.Conversation{conv("c-3", "u-3", f.clock.Now())}}, nil)

	results, err := f.svc.Search(context.Background(), "flu")

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "c-3", results[0].ID)
	assert.Empty(t, f.svc.Conversations())
}

// ── Close ────────────────────────────────────────────────────────────────

func TestClose_LeavesRoom(t *testing.T) {
	f := newConvFixture(t)
	c := conv("c-1", "u-1", f.clock.Now())
	f.seed(t, c)
	f.open(t, c)

	f.svc.Close(context.Background())

	assert.Empty(t, f.svc.OpenID())
	leaves := f.channel.emissions(realtime.EventLeaveConversation)
	require.Len(t, leaves, 1)
	assert.Equal(t, realtime.ConversationRef{ConversationID: "c-1"}, leaves[0].payload)
}

func TestClose_TempEmitsNothing(t *testing.T) {
	f := newConvFixture(t)
	_, err := f.svc.Open(context.Background(), "u-9", "Nine")
	require.NoError(t, err)

	f.svc.Close(context.Background())

	assert.Empty(t, f.channel.emissions(realtime.EventLeaveConversation))
}
