package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ametov/bookline/models"
)

// NavigateTo switches the auth flow router to another page. Payload, when
// set, is delivered to the target page right after the switch.
type NavigateTo struct {
	Page    string
	Payload tea.Msg
}

// AuthResult finishes the auth flow. RootModel quits the program on a nil
// error; the page that produced it renders the error otherwise.
type AuthResult struct {
	Err error
}

// RegisterSuccessNotice is shown on the menu after a registration that
// ended in a pending account.
type RegisterSuccessNotice struct {
	Name string
}

type seedDoneMsg struct {
	err error
}

type conversationOpenedMsg struct {
	conversation models.Conversation
	err          error
}

type sendDoneMsg struct {
	err error
}

type deleteDoneMsg struct {
	err error
}

type searchDoneMsg struct {
	results []models.Conversation
	err     error
}

type unreadLoadedMsg struct {
	total int
	err   error
}

// conversationsChangedMsg is injected from outside the program whenever
// the conversation view mutates, including on realtime pushes.
type conversationsChangedMsg struct{}

// typingChangedMsg is injected when a remote typing indicator flips.
type typingChangedMsg struct{}

// forcedLogoutMsg is injected when the session dies underneath the user.
type forcedLogoutMsg struct{}

type copiedMsg struct{}

type clearStatusMsg struct{}
