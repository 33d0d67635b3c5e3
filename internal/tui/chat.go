// Package tui is the interactive chat screen: a conversation sidebar, the
// transcript of the current conversation, and a composer. It renders from
// store snapshots; every mutation goes through store methods running in
// tea.Cmd goroutines.
package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/dustin/go-humanize"

	"github.com/ragline/ragline/internal/conversation"
	"github.com/ragline/ragline/internal/models"
	"github.com/ragline/ragline/internal/session"
	"github.com/ragline/ragline/internal/storage"
)

// Notifier bridges gateway error surfacing into the TUI status bar.
type Notifier struct {
	ch chan string
}

func NewNotifier() *Notifier {
	return &Notifier{ch: make(chan string, 8)}
}

func (n *Notifier) Notify(message string) {
	select {
	case n.ch <- message:
	default:
	}
}

// Chat owns the program lifecycle.
type Chat struct {
	session       *session.Store
	conversations *conversation.Store
	notifier      *Notifier
	watcher       *storage.StateWatcher
}

// NewChat builds the chat screen. watcher may be nil; when set, external
// writes to the state database (another ragline process signing in)
// trigger a session reload in place.
func NewChat(sess *session.Store, convs *conversation.Store, notifier *Notifier, watcher *storage.StateWatcher) *Chat {
	return &Chat{session: sess, conversations: convs, notifier: notifier, watcher: watcher}
}

func (c *Chat) Run() error {
	m := initialModel(c.session, c.conversations, c.notifier)
	p := tea.NewProgram(m, tea.WithAltScreen())
	if c.watcher != nil {
		c.watcher.AddHandler(func() {
			p.Send(stateChangedMsg{})
		})
		if err := c.watcher.Start(); err != nil {
			return err
		}
		defer c.watcher.Stop()
	}
	if _, err := p.Run(); err != nil {
		return err
	}
	return nil
}

type focusArea int

const (
	focusComposer focusArea = iota
	focusSidebar
)

// Messages produced by store operations running off the UI goroutine.
type (
	listLoadedMsg struct{}
	convLoadedMsg struct{}
	sendResultMsg struct {
		text string
		err  error
	}
	deleteResultMsg struct{ err error }
	notifyMsg       string
	stateChangedMsg struct{}
)

type listItem struct {
	conversation models.Conversation
	now          time.Time
}

func (i listItem) FilterValue() string {
	return i.conversation.Title
}

func (i listItem) Title() string {
	return i.conversation.Title
}

func (i listItem) Description() string {
	b := conversation.BucketFor(i.conversation.UpdatedAt.Time, i.now)
	return fmt.Sprintf("%s | %s | %d msgs", b, humanize.Time(i.conversation.UpdatedAt.Time), i.conversation.MessageCount)
}

type model struct {
	session       *session.Store
	conversations *conversation.Store
	notifier      *Notifier

	sidebar  list.Model
	viewport viewport.Model
	composer textinput.Model
	spinner  spinner.Model

	focus         focusArea
	width         int
	height        int
	ready         bool
	statusMessage string
}

func initialModel(sess *session.Store, convs *conversation.Store, notifier *Notifier) model {
	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = true

	l := list.New([]list.Item{}, delegate, 0, 0)
	l.Title = "Conversations"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)
	l.Styles.Title = titleStyle

	vp := viewport.New(0, 0)

	input := textinput.New()
	input.Placeholder = "Ask anything..."
	input.CharLimit = 4000
	input.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = typingStyle

	return model{
		session:       sess,
		conversations: convs,
		notifier:      notifier,
		sidebar:       l,
		viewport:      vp,
		composer:      input,
		spinner:       sp,
		focus:         focusComposer,
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(
		m.loadConversationsCmd(),
		m.waitForNotice(),
		m.spinner.Tick,
	)
}

func (m model) loadConversationsCmd() tea.Cmd {
	store := m.conversations
	return func() tea.Msg {
		store.LoadFromCache(0)
		store.LoadConversations(context.Background())
		return listLoadedMsg{}
	}
}

func (m model) loadConversationCmd(id int64) tea.Cmd {
	store := m.conversations
	return func() tea.Msg {
		store.LoadConversation(context.Background(), id)
		return convLoadedMsg{}
	}
}

func (m model) sendMessageCmd(text string) tea.Cmd {
	store := m.conversations
	return func() tea.Msg {
		err := store.SendMessage(context.Background(), text, 0)
		return sendResultMsg{text: text, err: err}
	}
}

func (m model) deleteConversationCmd(id int64) tea.Cmd {
	store := m.conversations
	return func() tea.Msg {
		return deleteResultMsg{err: store.DeleteConversation(context.Background(), id)}
	}
}

func (m model) waitForNotice() tea.Cmd {
	ch := m.notifier.ch
	return func() tea.Msg {
		return notifyMsg(<-ch)
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		cmd  tea.Cmd
		cmds []tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if !m.ready {
			m.ready = true
		}
		sidebarWidth := m.width / 3
		m.sidebar.SetSize(sidebarWidth, m.height-3)
		m.viewport.Width = m.width - sidebarWidth - 4
		m.viewport.Height = m.height - 6
		m.composer.Width = m.viewport.Width - 4
		m.refreshTranscript()

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			if m.focus == focusComposer && msg.String() == "q" {
				break // plain q is typed text in the composer
			}
			return m, tea.Quit
		case "tab":
			if m.focus == focusComposer {
				m.focus = focusSidebar
				m.composer.Blur()
			} else {
				m.focus = focusComposer
				m.composer.Focus()
			}
			return m, nil
		case "ctrl+n":
			m.conversations.ClearCurrentConversation()
			m.statusMessage = "Started new conversation"
			m.refreshTranscript()
			return m, nil
		case "ctrl+d":
			if item, ok := m.sidebar.SelectedItem().(listItem); ok {
				return m, m.deleteConversationCmd(item.conversation.ID)
			}
			return m, nil
		case "enter":
			if m.focus == focusSidebar {
				if item, ok := m.sidebar.SelectedItem().(listItem); ok {
					return m, m.loadConversationCmd(item.conversation.ID)
				}
				return m, nil
			}
			text := m.composer.Value()
			if text == "" || m.conversations.Snapshot().IsTyping {
				return m, nil
			}
			m.composer.SetValue("")
			m.statusMessage = ""
			m.refreshTranscript()
			return m, m.sendMessageCmd(text)
		}

	case listLoadedMsg:
		m.refreshSidebar()

	case convLoadedMsg:
		m.refreshSidebar()
		m.refreshTranscript()
		m.viewport.GotoBottom()

	case sendResultMsg:
		if msg.err != nil {
			// The store keeps the optimistic message; restoring the
			// composer text is this caller's rollback duty.
			m.composer.SetValue(msg.text)
			m.statusMessage = "Failed to send message"
		}
		m.refreshSidebar()
		m.refreshTranscript()
		m.viewport.GotoBottom()

	case deleteResultMsg:
		if msg.err != nil {
			m.statusMessage = "Failed to delete conversation"
		}
		m.refreshSidebar()
		m.refreshTranscript()

	case notifyMsg:
		m.statusMessage = string(msg)
		cmds = append(cmds, m.waitForNotice())

	case stateChangedMsg:
		m.session.Reload()
		m.refreshSidebar()

	case spinner.TickMsg:
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	}

	if m.focus == focusSidebar {
		m.sidebar, cmd = m.sidebar.Update(msg)
		cmds = append(cmds, cmd)
	} else {
		m.composer, cmd = m.composer.Update(msg)
		cmds = append(cmds, cmd)
	}
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m *model) refreshSidebar() {
	snap := m.conversations.Snapshot()
	now := time.Now()
	items := make([]list.Item, 0, len(snap.Conversations))
	for _, group := range conversation.GroupByDate(snap.Conversations, now) {
		for _, conv := range group.Conversations {
			items = append(items, listItem{conversation: conv, now: now})
		}
	}
	m.sidebar.SetItems(items)
}
