// SPDX-License-Identifier: Apache-2.0

// Package tui renders the terminal client: the auth flow (menu, sign-in,
// registration) and the main messaging loop with the conversation list
// and the chat pane. Realtime updates reach the running program through
// injected messages, so the view follows pushes without polling.
package tui

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ametov/bookline/internal/logger"
	"github.com/ametov/bookline/internal/service"
)

var ErrUserQuit = errors.New("user quit")

type TUI struct {
	services *service.Services
	logger   *logger.Logger
}

func New(services *service.Services, log *logger.Logger) (*TUI, error) {
	return &TUI{services: services, logger: log}, nil
}

// AuthFlow runs the menu/login/register pages until a session is
// established or the user quits.
func (t *TUI) AuthFlow(ctx context.Context) error {
	pages := map[string]tea.Model{
		"menu":     NewMenuModel(),
		"login":    NewLoginModel(ctx, t.services.Session),
		"register": NewRegisterModel(ctx, t.services.Session),
	}

	root := NewRootModel(pages, "menu")
	finalModel, runErr := tea.NewProgram(root, tea.WithAltScreen()).Run()
	if runErr != nil {
		return runErr
	}

	result, ok := finalModel.(RootModel)
	if !ok {
		return tea.ErrProgramKilled
	}
	if result.quitByUser {
		return ErrUserQuit
	}
	if !result.authenticated {
		return ErrUserQuit
	}

	return nil
}

// MainLoop runs the messaging screen until the user quits or signs out.
// It reports logout=true when the caller should return to the auth flow,
// which covers both an explicit sign-out and a forced one.
func (t *TUI) MainLoop(ctx context.Context) (logout bool, err error) {
	model := newMainLoopModel(ctx, t.services)
	program := tea.NewProgram(model, tea.WithAltScreen())

	// service callbacks feed the running program; Send is safe from any
	// goroutine
	t.services.Conversations.OnChange(func() {
		program.Send(conversationsChangedMsg{})
	})
	t.services.Typing.OnChange(func() {
		program.Send(typingChangedMsg{})
	})
	t.services.Session.OnForcedLogout(func() {
		program.Send(forcedLogoutMsg{})
	})

	finalModel, runErr := program.Run()
	if runErr != nil {
		return false, runErr
	}

	result, ok := finalModel.(mainLoopModel)
	if !ok {
		return false, tea.ErrProgramKilled
	}
	if result.forcedOut {
		t.logger.Info().
			Str("func", "TUI.MainLoop").
			Msg("session expired, returning to sign-in")
		return true, nil
	}
	return result.logout, nil
}
