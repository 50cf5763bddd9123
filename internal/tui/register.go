// SPDX-License-Identifier: Apache-2.0

package tui

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ametov/bookline/internal/service"
	"github.com/ametov/bookline/internal/validators"
	"github.com/ametov/bookline/models"
)

// registerResult is internal to the register screen: a pending account is
// a success that does NOT finish the auth flow.
type registerResult struct {
	name    string
	pending bool
	err     error
}

// RegisterModel is the Bubble Tea model for the account creation screen:
// name, email, and password inputs plus a patient/provider role toggle.
type RegisterModel struct {
	ctx       context.Context
	session   service.SessionService
	validator validators.Validator

	inputs     []textinput.Model
	focus      int
	roleIdx    int
	submitting bool
	errMsg     string
}

var registerRoles = []string{"patient", "provider"}

func NewRegisterModel(ctx context.Context, session service.SessionService) *RegisterModel {
	nameInput := textinput.New()
	nameInput.Placeholder = "full name"
	nameInput.CharLimit = 100
	nameInput.Width = 40
	nameInput.Focus()

	emailInput := textinput.New()
	emailInput.Placeholder = "email"
	emailInput.CharLimit = 254
	emailInput.Width = 40

	passwordInput := textinput.New()
	passwordInput.Placeholder = "password (min 8 characters)"
	passwordInput.CharLimit = 256
	passwordInput.Width = 40
	passwordInput.EchoMode = textinput.EchoPassword
	passwordInput.EchoCharacter = '*'

	return &RegisterModel{
		ctx:       ctx,
		session:   session,
		validator: validators.NewRequestValidator(),
		inputs:    []textinput.Model{nameInput, emailInput, passwordInput},
	}
}

func (m *RegisterModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m *RegisterModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if result, ok := msg.(registerResult); ok {
		m.submitting = false
		if result.err != nil {
			m.errMsg = humanizeError(result.err)
			return m, nil
		}
		if result.pending {
			// provider accounts wait for approval; back to the menu
			return m, func() tea.Msg {
				return NavigateTo{Page: "menu", Payload: RegisterSuccessNotice{Name: result.name}}
			}
		}
		return m, func() tea.Msg { return AuthResult{} }
	}

	keyMsg, ok := msg.(tea.KeyMsg)
	if ok {
		switch keyMsg.String() {
		case "esc":
			m.submitting = false
			m.errMsg = ""
			return m, func() tea.Msg { return NavigateTo{Page: "menu"} }
		case "tab":
			m.focusNext()
			return m, nil
		case "shift+tab":
			m.focusPrev()
			return m, nil
		case "left", "right":
			// the role toggle reacts only when it holds focus
			if m.focus == len(m.inputs) {
				m.roleIdx = (m.roleIdx + 1) % len(registerRoles)
				return m, nil
			}
		case "enter":
			if m.submitting {
				return m, nil
			}

			req := models.RegisterRequest{
				Name:     strings.TrimSpace(m.inputs[0].Value()),
				Email:    strings.TrimSpace(m.inputs[1].Value()),
				Password: m.inputs[2].Value(),
				Role:     registerRoles[m.roleIdx],
			}
			if err := m.validator.Validate(m.ctx, req); err != nil {
				m.errMsg = err.Error()
				return m, nil
			}

			m.errMsg = ""
			m.submitting = true
			return m, m.cmdRegister(req)
		}
	}

	if m.focus < len(m.inputs) {
		var cmd tea.Cmd
		m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *RegisterModel) View() string {
	var b strings.Builder
	b.WriteString("Field     │ Value\n")
	b.WriteString("──────────┼────────────────────────────────────────────\n")
	b.WriteString("Name      │ [")
	b.WriteString(m.inputs[0].View())
	b.WriteString("]\n")
	b.WriteString("Email     │ [")
	b.WriteString(m.inputs[1].View())
	b.WriteString("]\n")
	b.WriteString("Password  │ [")
	b.WriteString(m.inputs[2].View())
	b.WriteString("]\n")
	b.WriteString("Role      │ ")
	b.WriteString(m.roleView())
	b.WriteString("\n")

	if m.submitting {
		b.WriteString("\n[Creating account...]\n")
	} else {
		b.WriteString("\n[Create account]\n")
	}

	if m.errMsg != "" {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render("Error: " + m.errMsg))
		b.WriteString("\n")
	}

	return renderPage("CREATE ACCOUNT", strings.TrimRight(b.String(), "\n"),
		"esc: back │ tab: next field │ ←/→: role │ enter: submit")
}

func (m *RegisterModel) roleView() string {
	var parts []string
	for i, role := range registerRoles {
		if i == m.roleIdx {
			parts = append(parts, "("+role+")")
		} else {
			parts = append(parts, " "+role+" ")
		}
	}
	marker := " "
	if m.focus == len(m.inputs) {
		marker = ">"
	}
	return marker + " " + strings.Join(parts, " ")
}

func (m *RegisterModel) cmdRegister(req models.RegisterRequest) tea.Cmd {
	ctx := m.ctx
	session := m.session

	return func() tea.Msg {
		_, err := session.Register(ctx, req)
		if errors.Is(err, service.ErrAccountPending) {
			return registerResult{name: req.Name, pending: true}
		}
		if err != nil {
			return registerResult{err: err}
		}
		return registerResult{name: req.Name}
	}
}

func (m *RegisterModel) focusNext() {
	if m.focus < len(m.inputs) {
		m.inputs[m.focus].Blur()
	}
	m.focus = (m.focus + 1) % (len(m.inputs) + 1)
	if m.focus < len(m.inputs) {
		m.inputs[m.focus].Focus()
	}
}

func (m *RegisterModel) focusPrev() {
	if m.focus < len(m.inputs) {
		m.inputs[m.focus].Blur()
	}
	m.focus = (m.focus - 1 + len(m.inputs) + 1) % (len(m.inputs) + 1)
	if m.focus < len(m.inputs) {
		m.inputs[m.focus].Focus()
	}
}
