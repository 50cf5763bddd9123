package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/ametov/bookline/internal/adapter"
	"github.com/ametov/bookline/internal/logger"
	"github.com/ametov/bookline/internal/realtime"
	"github.com/ametov/bookline/internal/store"
	"github.com/ametov/bookline/internal/utils"
	"github.com/ametov/bookline/models"
)

type conversationService struct {
	session SessionService
	adapter adapter.ServerAdapter
	channel realtime.Channel
	cache   store.CacheRepository
	ids     *utils.UUIDGenerator
	clock   utils.Clock

	mu sync.Mutex
	// conversations is the merged view, keyed by conversation id.
	conversations map[string]models.Conversation
	// messages holds the ordered message list of the open conversation.
	messages []models.Message
	openID   string
	// correlations maps a client-generated correlation id to the index
	// realm of pending optimistic sends so the server echo collapses into
	// the local entry.
	correlations map[string]struct{}
	onChange     func()

	subs []subscription

	logger *logger.Logger
}

type subscription struct {
	event string
	sub   realtime.Subscription
}

// NewConversationService builds the synchronizer and subscribes it to the
// channel's message events. Both wire names of the delivery event are
// routed into the same apply path; id-based dedup makes double delivery
// harmless.
func NewConversationService(session SessionService, serverAdapter adapter.ServerAdapter, channel realtime.Channel, cache store.CacheRepository, clock utils.Clock, log *logger.Logger) ConversationService {
	c := &conversationService{
		session:       session,
		adapter:       serverAdapter,
		channel:       channel,
		cache:         cache,
		ids:           utils.NewUUIDGenerator(),
		clock:         clock,
		conversations: make(map[string]models.Conversation),
		correlations:  make(map[string]struct{}),
		logger:        log,
	}

	for _, event := range []string{realtime.EventNewMessage, realtime.EventMessageReceived} {
		sub := channel.Subscribe(event, c.handlePush)
		c.subs = append(c.subs, subscription{event: event, sub: sub})
	}

	return c
}

// Seed implements [ConversationService]. On a network failure the offline
// cache backs the view so the list renders in degraded mode.
func (c *conversationService) Seed(ctx context.Context) error {
	page, err := c.adapter.Conversations(ctx)
	if err != nil {
		cached, cacheErr := c.cache.LoadConversations(ctx)
		if cacheErr != nil || len(cached) == 0 {
			return fmt.Errorf("seed conversations: %w", err)
		}

		c.logger.Err(err).
			Str("func", "conversationService.Seed").
			Msg("seed failed, serving cached conversations")
		c.merge(cached)
		return nil
	}

	c.merge(page.Conversations)

	if err = c.cache.ReplaceConversations(ctx, page.Conversations); err != nil {
		c.logger.Err(err).
			Str("func", "conversationService.Seed").
			Msg("failed to refresh conversation cache")
	}

	return nil
}

// merge folds a batch of server conversations into the view. A server
// entry supersedes a temp entry for the same counterpart: the temp id is
// removed, never left to coexist.
func (c *conversationService) merge(batch []models.Conversation) {
	c.mu.Lock()
	for _, conv := range batch {
		delete(c.conversations, models.TempConversationID(conv.CounterpartID))
		c.conversations[conv.ID] = conv
	}
	c.mu.Unlock()

	c.notify()
}

// Conversations implements [ConversationService].
func (c *conversationService) Conversations() []models.Conversation {
	c.mu.Lock()
	list := make([]models.Conversation, 0, len(c.conversations))
	for _, conv := range c.conversations {
		list = append(list, conv)
	}
	c.mu.Unlock()

	sort.Slice(list, func(i, j int) bool {
		if !list[i].UpdatedAt.Equal(list[j].UpdatedAt) {
			return list[i].UpdatedAt.After(list[j].UpdatedAt)
		}
		return list[i].ID < list[j].ID
	})

	return list
}

// Open implements [ConversationService]. Selection is keyed by the
// counterpart, so the caller does not care whether the entry is temp or
// canonical.
func (c *conversationService) Open(ctx context.Context, counterpartID, counterpartName string) (models.Conversation, error) {
	conv, ok := c.byCounterpart(counterpartID)
	if !ok {
		conv = models.Conversation{
			ID:              models.TempConversationID(counterpartID),
			CounterpartID:   counterpartID,
			CounterpartName: counterpartName,
			UpdatedAt:       c.clock.Now(),
			IsTemp:          true,
		}
		c.mu.Lock()
		c.conversations[conv.ID] = conv
		c.mu.Unlock()
	}

	c.mu.Lock()
	c.openID = conv.ID
	c.messages = nil
	c.mu.Unlock()

	if !conv.IsTemp {
		if err := c.loadHistory(ctx, conv.ID); err != nil {
			return conv, err
		}
		c.markRead(ctx, conv.ID)
		c.channel.Emit(ctx, realtime.EventJoinConversation, realtime.ConversationRef{ConversationID: conv.ID})
	}

	c.notify()
	return conv, nil
}

func (c *conversationService) loadHistory(ctx context.Context, conversationID string) error {
	page, err := c.adapter.Messages(ctx, conversationID)
	if err != nil {
		cached, cacheErr := c.cache.LoadMessages(ctx, conversationID)
		if cacheErr != nil {
			if !errors.Is(cacheErr, store.ErrCacheMiss) {
				c.logger.Err(cacheErr).
					Str("func", "conversationService.loadHistory").
					Msg("cache read failed")
			}
			return fmt.Errorf("load history: %w", err)
		}

		c.setMessages(conversationID, cached)
		return nil
	}

	for i := range page.Messages {
		page.Messages[i].DeliveryState = models.DeliveryConfirmed
	}
	c.setMessages(conversationID, page.Messages)

	if err = c.cache.ReplaceMessages(ctx, conversationID, page.Messages); err != nil {
		c.logger.Err(err).
			Str("func", "conversationService.loadHistory").
			Msg("failed to refresh message cache")
	}

	return nil
}

// setMessages installs a REST-seeded batch, preserving its order, as long
// as the conversation is still the open one.
func (c *conversationService) setMessages(conversationID string, messages []models.Message) {
	c.mu.Lock()
	if c.openID == conversationID {
		c.messages = messages
	}
	c.mu.Unlock()
}

// Close implements [ConversationService].
func (c *conversationService) Close(ctx context.Context) {
	c.mu.Lock()
	openID := c.openID
	c.openID = ""
	c.messages = nil
	c.mu.Unlock()

	if openID != "" && !models.IsTempConversationID(openID) {
		c.channel.Emit(ctx, realtime.EventLeaveConversation, realtime.ConversationRef{ConversationID: openID})
	}
}

// OpenID implements [ConversationService].
func (c *conversationService) OpenID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.openID
}

// Messages implements [ConversationService].
func (c *conversationService) Messages() []models.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.Message(nil), c.messages...)
}

// Send implements [ConversationService]. The message is appended
// optimistically under a client-generated correlation id; the server
// echo, whether it arrives in the REST response or as a push, collapses
// into the same entry. A first send from a temp conversation promotes it:
// the canonical entry replaces the temp one, never joining it.
func (c *conversationService) Send(ctx context.Context, body string, attachment *models.Attachment) error {
	if body == "" && attachment == nil {
		return ErrEmptyMessage
	}

	c.mu.Lock()
	openID := c.openID
	conv, ok := c.conversations[openID]
	c.mu.Unlock()
	if openID == "" || !ok {
		return ErrNoOpenConversation
	}

	correlationID := c.ids.Generate()
	self := c.session.Session().User

	optimistic := models.Message{
		ID:             correlationID,
		ConversationID: conv.ID,
		SenderID:       self.ID,
		ReceiverID:     conv.CounterpartID,
		Body:           body,
		Attachment:     attachment,
		CorrelationID:  correlationID,
		CreatedAt:      c.clock.Now(),
		DeliveryState:  models.DeliveryOptimistic,
	}

	c.mu.Lock()
	c.messages = append(c.messages, optimistic)
	c.correlations[correlationID] = struct{}{}
	c.mu.Unlock()
	c.notify()

	req := models.SendMessageRequest{
		ReceiverID:    conv.CounterpartID,
		Body:          body,
		Attachment:    attachment,
		CorrelationID: correlationID,
	}
	if !conv.IsTemp {
		req.ConversationID = conv.ID
	}

	resp, err := c.adapter.SendMessage(ctx, req)
	if err != nil {
		c.dropOptimistic(correlationID)

		if conv.IsTemp && errors.Is(err, adapter.ErrConflict) {
			// the canonical conversation appeared concurrently; drop the
			// temp entry and let the caller fall back to the list
			c.mu.Lock()
			delete(c.conversations, conv.ID)
			c.openID = ""
			c.mu.Unlock()
			c.notify()
			return fmt.Errorf("%w: %v", ErrPromotionConflict, err)
		}

		return fmt.Errorf("send message: %w", err)
	}

	c.applyEcho(resp, conv)
	return nil
}

// applyEcho folds the REST send response into the view: promotion of a
// temp conversation and reconciliation of the optimistic entry.
func (c *conversationService) applyEcho(resp models.SendMessageResponse, sent models.Conversation) {
	canonical := resp.Conversation
	if canonical.ID == "" {
		canonical = sent
		canonical.IsTemp = false
	}

	msg := resp.Message
	msg.DeliveryState = models.DeliveryConfirmed

	c.mu.Lock()

	if sent.IsTemp {
		delete(c.conversations, sent.ID)
		if c.openID == sent.ID {
			c.openID = canonical.ID
			// re-home the optimistic tail under the canonical id
			for i := range c.messages {
				c.messages[i].ConversationID = canonical.ID
			}
		}
	}

	if canonical.LastMessage == nil {
		canonical.LastMessage = &msg
	}
	if canonical.UpdatedAt.Before(msg.CreatedAt) {
		canonical.UpdatedAt = msg.CreatedAt
	}
	c.conversations[canonical.ID] = canonical

	c.reconcileLocked(msg)
	c.mu.Unlock()

	c.notify()
}

// handlePush is the single apply path for both delivery event names.
func (c *conversationService) handlePush(event string, payload []byte) {
	var p realtime.MessagePayload
	if err := json.Unmarshal(payload, &p); err != nil {
		c.logger.Err(err).
			Str("func", "conversationService.handlePush").
			Str("event", event).
			Msg("discarding malformed message payload")
		return
	}

	msg := p.Message
	msg.DeliveryState = models.DeliveryConfirmed
	selfID := c.session.Session().User.ID

	c.mu.Lock()

	prev, exists := c.conversations[msg.ConversationID]
	open := c.openID == msg.ConversationID

	// Dedup first. For the open conversation the message list is the
	// source of truth; for the others the last-message snapshot is. A
	// second delivery under the other event name fails both checks.
	var applied bool
	if open {
		applied = c.reconcileLocked(msg)
	} else {
		applied = !exists || prev.LastMessage == nil || prev.LastMessage.ID != msg.ID
	}

	conv := prev
	if p.Conversation != nil {
		snapshot := *p.Conversation
		if exists {
			snapshot.UnreadCount = prev.UnreadCount
		}
		conv = snapshot
		// a pushed conversation supersedes any temp entry for the same
		// counterpart, exactly like a seeded one
		delete(c.conversations, models.TempConversationID(conv.CounterpartID))
	} else if !exists {
		conv = models.Conversation{
			ID:            msg.ConversationID,
			CounterpartID: msg.SenderID,
		}
	}

	if applied {
		if !open && msg.SenderID != selfID {
			conv.UnreadCount++
		}
		snapshot := msg
		conv.LastMessage = &snapshot
		if conv.UpdatedAt.Before(msg.CreatedAt) {
			conv.UpdatedAt = msg.CreatedAt
		}
	}
	c.conversations[conv.ID] = conv

	c.mu.Unlock()

	if applied {
		c.notify()
	}
}

// reconcileLocked inserts msg into the open conversation's list, keyed
// first by correlation id (collapsing the optimistic entry), then by
// message id (dropping duplicates). Reports whether the view changed.
// Callers hold c.mu.
func (c *conversationService) reconcileLocked(msg models.Message) bool {
	if c.openID != msg.ConversationID {
		// not the open conversation; the list snapshot still changes
		return true
	}

	if msg.CorrelationID != "" {
		if _, pending := c.correlations[msg.CorrelationID]; pending {
			for i := range c.messages {
				if c.messages[i].CorrelationID == msg.CorrelationID {
					c.messages[i] = msg
					delete(c.correlations, msg.CorrelationID)
					return true
				}
			}
			delete(c.correlations, msg.CorrelationID)
		}
	}

	for i := range c.messages {
		if c.messages[i].ID == msg.ID {
			return false // duplicate delivery
		}
	}

	c.messages = append(c.messages, msg)
	return true
}

func (c *conversationService) dropOptimistic(correlationID string) {
	c.mu.Lock()
	delete(c.correlations, correlationID)
	kept := c.messages[:0]
	for _, m := range c.messages {
		if m.CorrelationID != correlationID {
			kept = append(kept, m)
		}
	}
	c.messages = kept
	c.mu.Unlock()

	c.notify()
}

// Delete implements [ConversationService].
func (c *conversationService) Delete(ctx context.Context, conversationID string) error {
	if !models.IsTempConversationID(conversationID) {
		if err := c.adapter.DeleteConversation(ctx, conversationID); err != nil {
			return fmt.Errorf("delete conversation: %w", err)
		}
		if err := c.cache.DeleteConversation(ctx, conversationID); err != nil {
			c.logger.Err(err).
				Str("func", "conversationService.Delete").
				Msg("failed to purge conversation cache")
		}
	}

	c.mu.Lock()
	delete(c.conversations, conversationID)
	if c.openID == conversationID {
		c.openID = ""
		c.messages = nil
	}
	c.mu.Unlock()

	c.notify()
	return nil
}

// UnreadTotal implements [ConversationService].
func (c *conversationService) UnreadTotal(ctx context.Context) (int, error) {
	total, err := c.adapter.UnreadCount(ctx)
	if err != nil {
		return 0, fmt.Errorf("unread total: %w", err)
	}
	return total, nil
}

// Search implements [ConversationService]. Results are served directly,
// not merged into the view: a search page is a filter, not a snapshot.
func (c *conversationService) Search(ctx context.Context, query string) ([]models.Conversation, error) {
	page, err := c.adapter.SearchConversations(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("search conversations: %w", err)
	}
	return page.Conversations, nil
}

// OnChange implements [ConversationService].
func (c *conversationService) OnChange(fn func()) {
	c.mu.Lock()
	c.onChange = fn
	c.mu.Unlock()
}

func (c *conversationService) byCounterpart(counterpartID string) (models.Conversation, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, conv := range c.conversations {
		if conv.CounterpartID == counterpartID {
			return conv, true
		}
	}
	return models.Conversation{}, false
}

// markRead resets local unread bookkeeping and tells the server.
func (c *conversationService) markRead(ctx context.Context, conversationID string) {
	c.mu.Lock()
	if conv, ok := c.conversations[conversationID]; ok && conv.UnreadCount != 0 {
		conv.UnreadCount = 0
		c.conversations[conversationID] = conv
	}
	c.mu.Unlock()

	if err := c.adapter.MarkRead(ctx, conversationID); err != nil {
		c.logger.Err(err).
			Str("func", "conversationService.markRead").
			Msg("failed to mark conversation read on server")
	}
}

func (c *conversationService) notify() {
	c.mu.Lock()
	fn := c.onChange
	c.mu.Unlock()

	if fn != nil {
		fn()
	}
}
