package bubbletea

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/counsel-cli/counsel"
	"github.com/counsel-cli/counsel/markdown"
)

var _ tea.Model = Model{}

const defaultTitle = "Legal Assistant"

// Model is the Bubble Tea model for the counsel TUI.
type Model struct {
	// Input is the text input component. Exported for test access.
	Input textinput.Model
	// Viewport is the scrollable output area. Exported for test access.
	Viewport viewport.Model

	ctrl   *counsel.Controller
	notes  <-chan counsel.Notification
	theme  counsel.Theme
	styles Styles

	// pending attachments consumed by the next submit.
	pending []counsel.Attachment

	ticking      bool
	editingTitle bool
	suggestIdx   int
	status       string
	errMsg       string
	ready        bool
}

// New creates a TUI Model around a Controller and its notification
// channel (from NewNotifier). Attachments, if any, ride along with the
// next submission.
func New(ctrl *counsel.Controller, notes <-chan counsel.Notification, theme counsel.Theme, attachments ...counsel.Attachment) Model {
	ti := textinput.New()
	ti.Placeholder = "Ask a legal question..."
	ti.Prompt = ""
	ti.Focus()
	ti.CharLimit = 0

	return Model{
		Input:      ti,
		ctrl:       ctrl,
		notes:      notes,
		theme:      theme,
		styles:     NewStyles(theme),
		pending:    attachments,
		suggestIdx: -1,
	}
}

// Streaming returns whether an exchange is currently in flight.
func (m Model) Streaming() bool {
	switch m.ctrl.State() {
	case counsel.StateConnecting, counsel.StateOpen, counsel.StateStreaming, counsel.StateCompleting:
		return true
	}
	return false
}

// Err returns the last surfaced error message, empty if none.
func (m Model) Err() string { return m.errMsg }

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, listenForNote(m.notes))
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleWindowSize(msg), nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case NoteMsg:
		m, cmd := m.handleNote(msg.Note)
		return m, tea.Batch(cmd, listenForNote(m.notes))

	case playbackTickMsg:
		active := m.ctrl.Tick()
		m.refresh()
		if active {
			return m, playbackTick()
		}
		m.ticking = false
		return m, nil

	case submitDoneMsg:
		if msg.err != nil {
			m.errMsg = userFacing(msg.err)
		}
		m.refresh()
		return m, nil

	case titleSavedMsg:
		if msg.err != nil {
			m.errMsg = userFacing(msg.err)
		}
		return m, nil

	case deleteDoneMsg:
		if msg.err != nil {
			m.errMsg = userFacing(msg.err)
		}
		m.refresh()
		return m, nil
	}

	// Pass remaining messages to sub-components. The viewport always
	// receives messages for scrolling.
	var cmd tea.Cmd
	m.Viewport, cmd = m.Viewport.Update(msg)
	cmds = append(cmds, cmd)

	m.Input, cmd = m.Input.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	var b strings.Builder
	b.WriteString(m.Viewport.View())
	b.WriteString("\n")
	b.WriteString(m.statusLine())
	b.WriteString("\n")
	b.WriteString(m.Input.View())
	return b.String()
}

func (m Model) handleWindowSize(msg tea.WindowSizeMsg) Model {
	inputH := 1
	statusH := 1
	separators := 2
	vpHeight := msg.Height - inputH - statusH - separators
	if vpHeight < 1 {
		vpHeight = 1
	}

	if !m.ready {
		m.Viewport = viewport.New(msg.Width, vpHeight)
		m.ready = true
	} else {
		m.Viewport.Width = msg.Width
		m.Viewport.Height = vpHeight
	}
	m.Input.Width = msg.Width
	m.refresh()
	return m
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		if m.Streaming() {
			m.ctrl.Cancel()
			m.refresh()
			return m, nil
		}
		return m, tea.Quit

	case tea.KeyEnter:
		if m.editingTitle {
			return m.saveTitle()
		}
		return m.submit()

	case tea.KeyTab:
		return m.cycleSuggestion(), nil

	case tea.KeyCtrlT:
		return m.beginTitleEdit(), nil

	case tea.KeyCtrlD:
		return m.deleteLastMessage()

	case tea.KeyEsc:
		if m.editingTitle {
			m.editingTitle = false
			m.Input.SetValue("")
			m.Input.Placeholder = "Ask a legal question..."
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.Input, cmd = m.Input.Update(msg)
	return m, cmd
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	if m.Streaming() {
		return m, nil
	}
	text := strings.TrimSpace(m.Input.Value())
	if text == "" && len(m.pending) == 0 {
		return m, nil
	}

	attachments := m.pending
	m.pending = nil
	m.Input.SetValue("")
	m.errMsg = ""
	m.suggestIdx = -1

	ctrl := m.ctrl
	return m, func() tea.Msg {
		return submitDoneMsg{err: ctrl.Submit(context.Background(), text, attachments...)}
	}
}

func (m Model) saveTitle() (tea.Model, tea.Cmd) {
	title := strings.TrimSpace(m.Input.Value())
	m.editingTitle = false
	m.Input.SetValue("")
	m.Input.Placeholder = "Ask a legal question..."
	if title == "" {
		return m, nil
	}
	ctrl := m.ctrl
	return m, func() tea.Msg {
		return titleSavedMsg{err: ctrl.SetTitle(context.Background(), title)}
	}
}

// deleteLastMessage removes the newest persisted message. Messages from
// an exchange that has not reconciled yet carry no id and cannot be
// deleted.
func (m Model) deleteLastMessage() (tea.Model, tea.Cmd) {
	if m.Streaming() || m.editingTitle {
		return m, nil
	}
	messages := m.ctrl.Messages()
	if len(messages) == 0 {
		return m, nil
	}
	last := messages[len(messages)-1]
	if last.ID == "" {
		return m, nil
	}
	ctrl := m.ctrl
	return m, func() tea.Msg {
		return deleteDoneMsg{err: ctrl.DeleteMessage(context.Background(), last.ID)}
	}
}

func (m Model) beginTitleEdit() Model {
	if m.ctrl.SessionID() == "" || m.Streaming() {
		return m
	}
	m.editingTitle = true
	m.Input.Placeholder = "Conversation title..."
	m.Input.SetValue(m.ctrl.Title())
	return m
}

// cycleSuggestion fills the input with the next quick-reply suggestion
// from the last assistant message.
func (m Model) cycleSuggestion() Model {
	if m.Streaming() || m.editingTitle {
		return m
	}
	suggestions := m.lastSuggestions()
	if len(suggestions) == 0 {
		return m
	}
	m.suggestIdx = (m.suggestIdx + 1) % len(suggestions)
	m.Input.SetValue(suggestions[m.suggestIdx])
	m.Input.CursorEnd()
	return m
}

func (m *Model) handleNote(n counsel.Notification) (Model, tea.Cmd) {
	var cmd tea.Cmd
	switch n := n.(type) {
	case counsel.NoteState:
		if n.To == counsel.StateStreaming && !m.ticking {
			m.ticking = true
			cmd = playbackTick()
		}
	case counsel.NoteStatus:
		m.status = n.Label
	case counsel.NoteError:
		m.errMsg = n.Message
	case counsel.NoteMessages, counsel.NoteHistorySynced, counsel.NoteSessionAdopted:
		// Render below re-reads controller state.
	}
	m.refresh()
	return *m, cmd
}

// refresh re-renders the conversation into the viewport and pins the
// bottom.
func (m *Model) refresh() {
	if !m.ready {
		return
	}
	m.Viewport.SetContent(m.renderContent())
	m.Viewport.GotoBottom()
}

func (m *Model) renderContent() string {
	width := m.Viewport.Width
	messages := m.ctrl.Messages()
	state := m.ctrl.State()

	var b strings.Builder
	for i, msg := range messages {
		if i > 0 {
			b.WriteString("\n\n")
		}
		last := i == len(messages)-1
		switch msg.Role {
		case counsel.RoleUser:
			b.WriteString(m.styles.UserMsg.Render("you ▸ "))
			b.WriteString(msg.Content)
		case counsel.RoleAssistant:
			clean, _ := counsel.ExtractSuggestions(msg.Content)
			b.WriteString(markdown.Render(clean, width, m.theme))
			if last && state == counsel.StateStreaming {
				b.WriteString(m.styles.Accent.Render("▌"))
			}
		}
	}

	if suggestions := m.lastSuggestions(); len(suggestions) > 0 && !m.Streaming() {
		b.WriteString("\n\n")
		for i, s := range suggestions {
			if i > 0 {
				b.WriteString("  ")
			}
			b.WriteString(m.styles.Suggestion.Render("[" + s + "]"))
		}
	}

	if m.errMsg != "" {
		b.WriteString("\n\n")
		b.WriteString(m.styles.Error.Render("error: " + m.errMsg))
	}
	return b.String()
}

// lastSuggestions derives quick replies from the last assistant message.
// Re-derived on each render so partially streamed markers never stick.
func (m *Model) lastSuggestions() []string {
	messages := m.ctrl.Messages()
	if len(messages) == 0 {
		return nil
	}
	lastMsg := messages[len(messages)-1]
	if lastMsg.Role != counsel.RoleAssistant {
		return nil
	}
	_, suggestions := counsel.ExtractSuggestions(lastMsg.Content)
	return suggestions
}

func (m Model) statusLine() string {
	title := m.ctrl.Title()
	if title == "" {
		title = defaultTitle
	}

	var state string
	switch s := m.ctrl.State(); s {
	case counsel.StateIdle, counsel.StateClosed:
		state = m.styles.Muted.Render("ready")
	case counsel.StateErrored:
		state = m.styles.Error.Render("error")
	default:
		label := m.status
		if label == "" {
			label = s.String()
		}
		state = m.styles.Success.Render(label)
	}

	hint := m.styles.Muted.Render("enter send · tab suggestion · ctrl+t title · ctrl+c quit")
	return m.styles.Accent.Render(title) + "  " + state + "  " + hint
}

// userFacing reduces a submit error to a short display string.
func userFacing(err error) string {
	switch {
	case errors.Is(err, counsel.ErrNoCredential):
		return "not signed in; set COUNSEL_TOKEN and restart"
	case errors.Is(err, counsel.ErrEmptySubmit):
		return "nothing to send"
	case errors.Is(err, counsel.ErrNoSession):
		return "start the conversation before attaching documents"
	default:
		return err.Error()
	}
}
