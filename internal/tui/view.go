package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ragline/ragline/internal/models"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7D56F4"))

	paneStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#7D56F4"))

	userStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#04B575"))

	assistantStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7D56F4"))

	routeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262")).
			Italic(true)

	typingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#7D56F4"))

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF5F87"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262"))
)

func (m model) View() string {
	if !m.ready {
		return "Loading..."
	}

	sidebar := m.sidebar.View()

	transcript := paneStyle.Width(m.viewport.Width + 2).Render(m.viewport.View())

	sessionLine := m.sessionLine()
	composer := m.composer.View()
	statusLine := m.statusLine()

	right := lipgloss.JoinVertical(lipgloss.Left,
		sessionLine,
		transcript,
		composer,
		statusLine,
	)

	screen := lipgloss.JoinHorizontal(lipgloss.Top, sidebar, " ", right)
	help := helpStyle.Render("enter: send | tab: focus | ctrl+n: new chat | ctrl+d: delete | q: quit")
	return screen + "\n" + help
}

func (m model) sessionLine() string {
	snap := m.session.Snapshot()
	if snap.IsLoading {
		return helpStyle.Render("Checking session...")
	}
	if !snap.IsAuthenticated {
		return statusStyle.Render("Not signed in - run `ragline login` in another terminal")
	}
	header := titleStyle.Render("New Chat")
	if cur := m.conversations.Snapshot().Current; cur != nil {
		header = titleStyle.Render(cur.Title)
	}
	email := ""
	if snap.User != nil {
		email = snap.User.Email
	}
	return fmt.Sprintf("%s  %s", header, helpStyle.Render(email))
}

func (m model) statusLine() string {
	if m.conversations.Snapshot().IsTyping {
		return m.spinner.View() + typingStyle.Render(" assistant is responding...")
	}
	if m.statusMessage != "" {
		return statusStyle.Render(m.statusMessage)
	}
	return ""
}

// refreshTranscript rerenders the viewport from the current store
// snapshot.
func (m *model) refreshTranscript() {
	snap := m.conversations.Snapshot()
	if len(snap.Messages) == 0 {
		m.viewport.SetContent(helpStyle.Render("Ask anything. Answers are annotated with the knowledge source that produced them."))
		return
	}

	var b strings.Builder
	for _, msg := range snap.Messages {
		switch msg.Role {
		case models.RoleAssistant:
			b.WriteString(assistantStyle.Render("assistant"))
			if msg.RouteTaken != "" {
				b.WriteString(" " + routeStyle.Render("("+strings.ReplaceAll(msg.RouteTaken, "_", " ")+")"))
			}
		default:
			b.WriteString(userStyle.Render("you"))
		}
		b.WriteString("\n")
		b.WriteString(wrap(msg.Content, m.viewport.Width))
		b.WriteString("\n\n")
	}
	m.viewport.SetContent(b.String())
}

// wrap applies a soft word wrap at width columns.
func wrap(s string, width int) string {
	if width <= 0 {
		return s
	}
	var b strings.Builder
	for _, line := range strings.Split(s, "\n") {
		col := 0
		for _, word := range strings.Fields(line) {
			if col > 0 && col+len(word)+1 > width {
				b.WriteString("\n")
				col = 0
			} else if col > 0 {
				b.WriteString(" ")
				col++
			}
			b.WriteString(word)
			col += len(word)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
