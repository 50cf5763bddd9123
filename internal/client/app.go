package client

import (
	"context"
	"errors"
	"fmt"

	"github.com/ametov/bookline/internal/logger"
	"github.com/ametov/bookline/internal/service"
	"github.com/ametov/bookline/internal/tui"
)

type App struct {
	services *service.Services
	tui      *tui.TUI
	logger   *logger.Logger
}

func NewApp(services *service.Services, ui *tui.TUI, log *logger.Logger) (*App, error) {
	if services == nil || ui == nil {
		return nil, fmt.Errorf("client app requires services and a ui")
	}
	return &App{services: services, tui: ui, logger: log}, nil
}

// Run drives the process lifecycle: restore the persisted session, fall
// back to the interactive auth flow, then hand over to the messaging
// loop. A sign-out, forced or voluntary, starts the cycle over.
func (a *App) Run() error {
	ctx := context.Background()

	session, err := a.services.Session.Restore(ctx)
	if err != nil {
		a.logger.Err(err).
			Str("func", "App.Run").
			Msg("session restore failed, starting anonymous")
	}

	if !session.Authenticated() {
		if err = a.tui.AuthFlow(ctx); err != nil {
			if errors.Is(err, tui.ErrUserQuit) {
				return nil
			}
			return fmt.Errorf("auth flow: %w", err)
		}
	}

	a.services.RefreshJob.Start(ctx)
	defer a.services.RefreshJob.Stop()

	logout, err := a.tui.MainLoop(ctx)
	if err != nil {
		return fmt.Errorf("main loop: %w", err)
	}
	if logout {
		return a.Run()
	}

	return nil
}
