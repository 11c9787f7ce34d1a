package cli

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/gemgutter/internal/host"
	"github.com/matzehuels/gemgutter/pkg/errors"
	"github.com/matzehuels/gemgutter/pkg/session"
)

var (
	badgeStyle  = lipgloss.NewStyle().Padding(0, 1).Bold(true)
	helpStyle   = lipgloss.NewStyle().Foreground(colorDim)
	statusStyle = lipgloss.NewStyle().Foreground(colorGray)
)

// =============================================================================
// WatchModel - live annotated view of one Gemfile
// =============================================================================

type (
	gutterChangedMsg struct{}
	bufferChangedMsg struct{}
	toggledMsg       struct {
		visible bool
		err     error
	}
)

// WatchModel is the bubbletea model behind the watch command.
type WatchModel struct {
	ctx      context.Context
	name     string
	session  *session.Session
	buffer   session.Buffer
	gutter   *host.Gutter
	width    int
	plain    bool
	autoShow bool

	Height int
	Offset int
	busy   bool
	err    error
}

// NewWatchModel creates a model over an existing session.
func NewWatchModel(ctx context.Context, name string, s *session.Session, buf session.Buffer, g *host.Gutter, width int, autoShow bool) WatchModel {
	return WatchModel{
		ctx:      ctx,
		name:     name,
		session:  s,
		buffer:   buf,
		gutter:   g,
		width:    width,
		autoShow: autoShow,
		Height:   20,
	}
}

func (m WatchModel) Init() tea.Cmd {
	cmds := []tea.Cmd{waitForGutter(m.ctx, m.gutter)}
	if m.autoShow {
		cmds = append(cmds, m.showCmd())
	}
	return tea.Batch(cmds...)
}

func (m WatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "t":
			if m.busy {
				return m, nil
			}
			m.busy = true
			return m, m.toggleCmd()
		case "up", "k":
			if m.Offset > 0 {
				m.Offset--
			}
		case "down", "j":
			if m.Offset < m.maxOffset() {
				m.Offset++
			}
		case "g", "home":
			m.Offset = 0
		case "G", "end":
			m.Offset = m.maxOffset()
		}
	case toggledMsg:
		m.busy = false
		m.err = msg.err
	case gutterChangedMsg:
		return m, waitForGutter(m.ctx, m.gutter)
	case bufferChangedMsg:
		if m.Offset > m.maxOffset() {
			m.Offset = m.maxOffset()
		}
	case tea.WindowSizeMsg:
		m.Height = msg.Height - 4
		if m.Height < 3 {
			m.Height = 3
		}
	}
	return m, nil
}

func (m WatchModel) View() string {
	var b strings.Builder

	state, stateErr := m.session.Status()
	b.WriteString(StyleTitle.Render(m.name))
	b.WriteString(" ")
	b.WriteString(stateBadge(state))
	b.WriteString("\n")

	annotations := m.gutter.Snapshot()
	if !m.gutter.Visible() {
		annotations = nil
	}
	lines := strings.Split(renderGutter(m.buffer.Text(), annotations, m.width, m.plain), "\n")
	lines = lines[:len(lines)-1]
	end := min(m.Offset+m.Height, len(lines))
	for _, line := range lines[min(m.Offset, end):end] {
		b.WriteString(line)
		b.WriteString("\n")
	}

	switch err := firstErr(m.err, stateErr); {
	case err != nil && !errors.Is(err, errors.ErrCodeSuperseded):
		b.WriteString(styleIconError.Render(iconError) + " " + errors.UserMessage(err))
	case state == session.Shown:
		sum := summarize(annotations)
		b.WriteString(statusStyle.Render(fmt.Sprintf("%s · %s", m.session.LockPath(), sum)))
	default:
		b.WriteString(statusStyle.Render(fmt.Sprintf("lines %d-%d of %d", min(m.Offset+1, end), end, len(lines))))
	}
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("t toggle versions  ↑/↓ scroll  q quit"))

	return b.String()
}

func (m WatchModel) maxOffset() int {
	n := strings.Count(strings.TrimSuffix(m.buffer.Text(), "\n"), "\n") + 1
	return max(n-m.Height, 0)
}

func (m WatchModel) showCmd() tea.Cmd {
	return func() tea.Msg {
		err := m.session.Show(m.ctx)
		return toggledMsg{visible: err == nil, err: err}
	}
}

func (m WatchModel) toggleCmd() tea.Cmd {
	return func() tea.Msg {
		visible, err := m.session.Toggle(m.ctx)
		return toggledMsg{visible: visible, err: err}
	}
}

// waitForGutter delivers the next gutter change, or nothing once ctx is done.
func waitForGutter(ctx context.Context, g *host.Gutter) tea.Cmd {
	return func() tea.Msg {
		select {
		case <-g.Changes():
			return gutterChangedMsg{}
		case <-ctx.Done():
			return nil
		}
	}
}

func stateBadge(s session.State) string {
	style := badgeStyle
	switch s {
	case session.Shown:
		style = style.Foreground(colorGreen)
	case session.Loading:
		style = style.Foreground(colorCyan)
	case session.Failed:
		style = style.Foreground(colorRed)
	default:
		style = style.Foreground(colorDim)
	}
	return style.Render(s.String())
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
