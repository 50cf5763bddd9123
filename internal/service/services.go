package service

import (
	"github.com/ametov/bookline/internal/adapter"
	"github.com/ametov/bookline/internal/config"
	"github.com/ametov/bookline/internal/logger"
	"github.com/ametov/bookline/internal/realtime"
	"github.com/ametov/bookline/internal/store"
	"github.com/ametov/bookline/internal/utils"
)

type Services struct {
	Session       SessionService
	Conversations ConversationService
	Typing        TypingService
	RefreshJob    RefreshJob
}

// NewServices wires the full service layer on top of the transport, the
// storages, and the realtime channel.
func NewServices(serverAdapter adapter.ServerAdapter, channel realtime.Channel, storages *store.ClientStorages, cfg config.ClientConfig, log *logger.Logger) *Services {
	clock := utils.NewClock()

	session := NewSessionService(serverAdapter, storages.Credentials, channel, log)
	conversations := NewConversationService(session, serverAdapter, channel, storages.Cache, clock, log)
	typing := NewTypingTracker(channel, clock, cfg.Presence.TypingDebounce, cfg.Presence.TypingExpiry, log)
	refreshJob := NewRefreshJob(session, cfg.Workers.RefreshLeeway, log)

	return &Services{
		Session:       session,
		Conversations: conversations,
		Typing:        typing,
		RefreshJob:    refreshJob,
	}
}
