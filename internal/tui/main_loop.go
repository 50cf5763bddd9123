package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ametov/bookline/internal/service"
	"github.com/ametov/bookline/models"
)

// chatHistoryTail bounds how many messages the chat pane renders.
const chatHistoryTail = 30

type mainLoopModel struct {
	ctx      context.Context
	services *service.Services

	conversations []models.Conversation
	idx           int
	loading       bool
	spinner       spinner.Model

	chatting bool
	opening  bool
	sending  bool
	open     models.Conversation
	input    textinput.Model
	// lastInput detects content-changing keystrokes for the typing feed
	lastInput string

	searching      bool
	searchInput    textinput.Model
	searchResults  []models.Conversation
	searchIdx      int
	submittedQuery string

	confirmDelete bool

	unreadTotal int
	status      string
	errMsg      string

	logout    bool
	forcedOut bool
}

func newMainLoopModel(ctx context.Context, services *service.Services) mainLoopModel {
	s := spinner.New()
	s.Spinner = spinner.MiniDot

	input := textinput.New()
	input.Placeholder = "type a message"
	input.CharLimit = 4000
	input.Width = 60

	searchInput := textinput.New()
	searchInput.Placeholder = "name or message text"
	searchInput.CharLimit = 100
	searchInput.Width = 40

	return mainLoopModel{
		ctx:         ctx,
		services:    services,
		spinner:     s,
		input:       input,
		searchInput: searchInput,
		loading:     true,
	}
}

func (m mainLoopModel) Init() tea.Cmd {
	return tea.Batch(m.cmdSeed(), m.cmdUnreadTotal(), m.spinner.Tick)
}

func (m mainLoopModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if !m.loading && !m.opening && !m.sending {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case seedDoneMsg:
		m.loading = false
		if msg.err != nil {
			m.errMsg = humanizeError(msg.err)
			return m, nil
		}
		m.errMsg = ""
		m.refreshList()
		return m, nil

	case conversationsChangedMsg:
		// a push or a local mutation moved the view; re-snapshot
		m.refreshList()
		return m, nil

	case typingChangedMsg:
		// rendering picks the indicator up from the tracker
		return m, nil

	case forcedLogoutMsg:
		m.forcedOut = true
		return m, tea.Quit

	case conversationOpenedMsg:
		m.opening = false
		if msg.err != nil {
			m.errMsg = humanizeError(msg.err)
			return m, nil
		}
		m.errMsg = ""
		m.chatting = true
		m.open = msg.conversation
		m.input.SetValue("")
		m.lastInput = ""
		m.input.Focus()
		return m, textinput.Blink

	case sendDoneMsg:
		m.sending = false
		if msg.err != nil {
			m.errMsg = humanizeError(msg.err)
			if m.chatting && m.services.Conversations.OpenID() == "" {
				// promotion conflict closed the conversation underneath us
				m.chatting = false
				m.refreshList()
			}
			return m, nil
		}
		m.errMsg = ""
		m.open.ID = m.services.Conversations.OpenID()
		return m, nil

	case deleteDoneMsg:
		if msg.err != nil {
			m.errMsg = humanizeError(msg.err)
			return m, nil
		}
		m.status = "Conversation deleted"
		m.errMsg = ""
		m.refreshList()
		return m, tea.Batch(m.cmdUnreadTotal(), m.cmdClearStatusLater())

	case searchDoneMsg:
		if msg.err != nil {
			m.errMsg = humanizeError(msg.err)
			return m, nil
		}
		m.errMsg = ""
		m.searchResults = msg.results
		m.searchIdx = 0
		return m, nil

	case unreadLoadedMsg:
		if msg.err == nil {
			m.unreadTotal = msg.total
		}
		return m, nil

	case copiedMsg:
		m.status = "Copied"
		return m, m.cmdClearStatusLater()

	case clearStatusMsg:
		m.status = ""
		return m, nil
	}

	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m.updateFocusedInput(msg)
	}

	if keyMsg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	if m.confirmDelete {
		return m.updateConfirmDelete(keyMsg)
	}
	if m.searching {
		return m.updateSearching(keyMsg)
	}
	if m.chatting {
		return m.updateChatting(keyMsg)
	}
	return m.updateList(keyMsg)
}

// ── List pane ────────────────────────────────────────────────────────────

func (m mainLoopModel) updateList(keyMsg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch keyMsg.String() {
	case "q":
		return m, tea.Quit
	case "up", "k":
		if m.idx > 0 {
			m.idx--
		}
	case "down", "j":
		if m.idx < len(m.conversations)-1 {
			m.idx++
		}
	case "enter":
		conv, ok := m.current()
		if !ok || m.opening {
			return m, nil
		}
		m.opening = true
		m.errMsg = ""
		return m, tea.Batch(m.cmdOpen(conv.CounterpartID, conv.CounterpartName), m.spinner.Tick)
	case "d":
		if _, ok := m.current(); ok {
			m.confirmDelete = true
		}
	case "/":
		m.searching = true
		m.searchResults = nil
		m.submittedQuery = ""
		m.searchInput.SetValue("")
		m.searchInput.Focus()
		return m, textinput.Blink
	case "r":
		if m.loading {
			return m, nil
		}
		m.loading = true
		return m, tea.Batch(m.cmdSeed(), m.cmdUnreadTotal(), m.spinner.Tick)
	case "ctrl+l":
		m.logout = true
		return m, m.cmdLogout()
	}
	return m, nil
}

// ── Chat pane ────────────────────────────────────────────────────────────

func (m mainLoopModel) updateChatting(keyMsg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch keyMsg.String() {
	case "esc":
		m.closeChat()
		return m, nil
	case "ctrl+b":
		return m, m.cmdCopyLastMessage()
	case "enter":
		if m.sending {
			return m, nil
		}
		body := strings.TrimSpace(m.input.Value())
		if body == "" {
			return m, nil
		}

		m.services.Typing.StopTyping(m.open.ID)
		m.input.SetValue("")
		m.lastInput = ""
		m.sending = true
		return m, tea.Batch(m.cmdSend(body), m.spinner.Tick)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(keyMsg)

	// only content changes count as typing; cursor moves do not
	if value := m.input.Value(); value != m.lastInput {
		m.lastInput = value
		if value != "" {
			m.services.Typing.Keystroke(m.open.ID)
		}
	}
	return m, cmd
}

func (m *mainLoopModel) closeChat() {
	m.services.Typing.StopTyping(m.open.ID)
	m.services.Typing.Forget(m.open.ID)
	m.services.Conversations.Close(m.ctx)
	m.chatting = false
	m.input.Blur()
	m.errMsg = ""
	m.refreshList()
}

// ── Search pane ──────────────────────────────────────────────────────────

func (m mainLoopModel) updateSearching(keyMsg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch keyMsg.String() {
	case "esc":
		m.searching = false
		m.searchInput.Blur()
		m.errMsg = ""
		return m, nil
	case "up":
		if m.searchIdx > 0 {
			m.searchIdx--
		}
		return m, nil
	case "down":
		if m.searchIdx < len(m.searchResults)-1 {
			m.searchIdx++
		}
		return m, nil
	case "enter":
		query := strings.TrimSpace(m.searchInput.Value())
		if query == "" {
			return m, nil
		}
		// an unchanged query opens the selected result, a new one searches
		if query == m.submittedQuery && len(m.searchResults) > 0 {
			conv := m.searchResults[m.searchIdx]
			m.searching = false
			m.searchInput.Blur()
			m.opening = true
			return m, tea.Batch(m.cmdOpen(conv.CounterpartID, conv.CounterpartName), m.spinner.Tick)
		}
		m.submittedQuery = query
		return m, m.cmdSearch(query)
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(keyMsg)
	return m, cmd
}

func (m mainLoopModel) updateConfirmDelete(keyMsg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch keyMsg.String() {
	case "y":
		m.confirmDelete = false
		if conv, ok := m.current(); ok {
			return m, m.cmdDelete(conv.ID)
		}
	case "n", "esc":
		m.confirmDelete = false
	}
	return m, nil
}

func (m mainLoopModel) updateFocusedInput(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	if m.searching {
		m.searchInput, cmd = m.searchInput.Update(msg)
		return m, cmd
	}
	if m.chatting {
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

// refreshList re-snapshots the conversation view and clamps the cursor.
func (m *mainLoopModel) refreshList() {
	m.conversations = m.services.Conversations.Conversations()
	if m.idx >= len(m.conversations) {
		m.idx = len(m.conversations) - 1
	}
	if m.idx < 0 {
		m.idx = 0
	}
}

func (m mainLoopModel) current() (models.Conversation, bool) {
	if len(m.conversations) == 0 || m.idx < 0 || m.idx >= len(m.conversations) {
		return models.Conversation{}, false
	}
	return m.conversations[m.idx], true
}

// ── Commands ─────────────────────────────────────────────────────────────

func (m mainLoopModel) cmdSeed() tea.Cmd {
	ctx := m.ctx
	conversations := m.services.Conversations
	return func() tea.Msg {
		return seedDoneMsg{err: conversations.Seed(ctx)}
	}
}

func (m mainLoopModel) cmdOpen(counterpartID, counterpartName string) tea.Cmd {
	ctx := m.ctx
	conversations := m.services.Conversations
	return func() tea.Msg {
		conv, err := conversations.Open(ctx, counterpartID, counterpartName)
		return conversationOpenedMsg{conversation: conv, err: err}
	}
}

func (m mainLoopModel) cmdSend(body string) tea.Cmd {
	ctx := m.ctx
	conversations := m.services.Conversations
	return func() tea.Msg {
		return sendDoneMsg{err: conversations.Send(ctx, body, nil)}
	}
}

func (m mainLoopModel) cmdDelete(conversationID string) tea.Cmd {
	ctx := m.ctx
	conversations := m.services.Conversations
	return func() tea.Msg {
		return deleteDoneMsg{err: conversations.Delete(ctx, conversationID)}
	}
}

func (m mainLoopModel) cmdSearch(query string) tea.Cmd {
	ctx := m.ctx
	conversations := m.services.Conversations
	return func() tea.Msg {
		results, err := conversations.Search(ctx, query)
		return searchDoneMsg{results: results, err: err}
	}
}

func (m mainLoopModel) cmdUnreadTotal() tea.Cmd {
	ctx := m.ctx
	conversations := m.services.Conversations
	return func() tea.Msg {
		total, err := conversations.UnreadTotal(ctx)
		return unreadLoadedMsg{total: total, err: err}
	}
}

func (m mainLoopModel) cmdLogout() tea.Cmd {
	ctx := m.ctx
	session := m.services.Session
	return func() tea.Msg {
		_ = session.Logout(ctx)
		return tea.Quit()
	}
}

func (m mainLoopModel) cmdCopyLastMessage() tea.Cmd {
	messages := m.services.Conversations.Messages()
	return func() tea.Msg {
		for i := len(messages) - 1; i >= 0; i-- {
			if messages[i].Body == "" {
				continue
			}
			if err := clipboard.WriteAll(messages[i].Body); err != nil {
				return sendDoneMsg{err: fmt.Errorf("copy message: %w", err)}
			}
			return copiedMsg{}
		}
		return clearStatusMsg{}
	}
}

func (m mainLoopModel) cmdClearStatusLater() tea.Cmd {
	return tea.Tick(3*time.Second, func(time.Time) tea.Msg {
		return clearStatusMsg{}
	})
}

// ── Views ────────────────────────────────────────────────────────────────

func (m mainLoopModel) View() string {
	if m.confirmDelete {
		if conv, ok := m.current(); ok {
			return overlayBoxStyle.Render("Delete the conversation with \"" + conv.CounterpartName + "\"?\n\ny yes    n no")
		}
	}
	if m.searching {
		return m.viewSearch()
	}
	if m.chatting {
		return m.viewChat()
	}
	return m.viewList()
}

func (m mainLoopModel) viewList() string {
	var b strings.Builder

	if m.loading {
		b.WriteString(m.spinner.View())
		b.WriteString(" Loading conversations...\n")
	} else if len(m.conversations) == 0 {
		b.WriteString("No conversations yet\n")
	} else {
		for i, conv := range m.conversations {
			cursor := "  "
			if i == m.idx {
				cursor = "> "
			}

			line := cursor + fitText(conv.CounterpartName, 24)
			if conv.UnreadCount > 0 {
				line += " " + unreadStyle.Render(fmt.Sprintf("(%d)", conv.UnreadCount))
			}
			if conv.LastMessage != nil {
				line += "  " + helpStyle.Render(fitText(conv.LastMessage.Body, 40))
			}
			b.WriteString(line)
			b.WriteString("\n")
		}
	}

	if m.unreadTotal > 0 {
		b.WriteString("\n")
		b.WriteString(unreadStyle.Render(fmt.Sprintf("%d unread in total", m.unreadTotal)))
		b.WriteString("\n")
	}
	m.writeFooter(&b)

	return renderPage("MESSAGES", strings.TrimRight(b.String(), "\n"),
		"enter: open │ /: search │ d: delete │ r: refresh │ ctrl+l: sign out │ q: quit")
}

func (m mainLoopModel) viewChat() string {
	var b strings.Builder

	messages := m.services.Conversations.Messages()
	if len(messages) > chatHistoryTail {
		messages = messages[len(messages)-chatHistoryTail:]
	}

	if len(messages) == 0 {
		b.WriteString(helpStyle.Render("No messages yet, say hello"))
		b.WriteString("\n")
	}
	for _, msg := range messages {
		sender := m.open.CounterpartName
		if msg.SenderID != m.open.CounterpartID {
			sender = "You"
		}

		line := fmt.Sprintf("[%s] %s: %s", messageClock(msg.CreatedAt), sender, msg.Body)
		if msg.Attachment != nil {
			line += " [file: " + msg.Attachment.Name + "]"
		}
		if msg.DeliveryState == models.DeliveryOptimistic {
			line = pendingStyle.Render(line + " (sending...)")
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	if m.services.Typing.RemoteTyping(m.open.ID) {
		b.WriteString(typingStyle.Render(m.open.CounterpartName + " is typing..."))
		b.WriteString("\n")
	}

	b.WriteString("\n> ")
	b.WriteString(m.input.View())
	if m.sending {
		b.WriteString("  ")
		b.WriteString(m.spinner.View())
	}
	b.WriteString("\n")
	m.writeFooter(&b)

	return renderPage(strings.ToUpper(fitText(m.open.CounterpartName, 40)), strings.TrimRight(b.String(), "\n"),
		"enter: send │ ctrl+b: copy last │ esc: back")
}

func (m mainLoopModel) viewSearch() string {
	var b strings.Builder

	b.WriteString("Search │ [")
	b.WriteString(m.searchInput.View())
	b.WriteString("]\n\n")

	if m.submittedQuery == "" {
		b.WriteString(helpStyle.Render("Type a query and press enter"))
		b.WriteString("\n")
	} else if len(m.searchResults) == 0 {
		b.WriteString("Nothing found for \"" + m.submittedQuery + "\"\n")
	} else {
		for i, conv := range m.searchResults {
			cursor := "  "
			if i == m.searchIdx {
				cursor = "> "
			}
			line := cursor + fitText(conv.CounterpartName, 24)
			if conv.LastMessage != nil {
				line += "  " + helpStyle.Render(fitText(conv.LastMessage.Body, 40))
			}
			b.WriteString(line)
			b.WriteString("\n")
		}
	}
	m.writeFooter(&b)

	return renderPage("SEARCH", strings.TrimRight(b.String(), "\n"),
		"enter: search / open │ ↑/↓: navigate │ esc: back")
}

func (m mainLoopModel) writeFooter(b *strings.Builder) {
	if m.status != "" {
		b.WriteString("\n")
		b.WriteString(m.status)
		b.WriteString("\n")
	}
	if m.errMsg != "" {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render("Error: " + m.errMsg))
		b.WriteString("\n")
	}
}
