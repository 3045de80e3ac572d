// internal/ui/app.go
package ui

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog/log"

	"synapse/internal/commands"
	"synapse/internal/council"
	"synapse/internal/export"
	"synapse/internal/layout"
	"synapse/internal/session"
)

type overlayKind int

const (
	overlayNone overlayKind = iota
	overlayHelp
	overlayHistory
	overlayGraph
	overlayMatrix
)

// Messages produced by background commands
type (
	// snapshotMsg signals that the running exchange published a snapshot
	snapshotMsg struct{}

	// exchangeDoneMsg ends a streamed exchange
	exchangeDoneMsg struct{ err error }

	conversationsMsg struct {
		list []council.ConversationSummary
		err  error
	}

	openedMsg struct {
		conv   *council.Conversation
		action string
		err    error
	}

	deletedMsg struct{ err error }
)

// Options configures the TUI
type Options struct {
	// ExportDir receives /export output (default ".")
	ExportDir string
	// MarkdownStyle is a glamour style name (default "dark")
	MarkdownStyle string
	// Layout must match the session's layout options
	Layout layout.Options
}

// Model is the bubbletea model of the council TUI
type Model struct {
	ctx  context.Context
	sess *session.Session
	opts Options

	transcript *TranscriptView
	history    *HistoryState
	md         *Markdown
	input      textinput.Model
	spinner    spinner.Model

	// events carries snapshots from the running exchange
	events chan tea.Msg

	overlay   overlayKind
	stage     int
	status    string
	statusErr bool

	width, height int
	ready         bool
}

// New creates the TUI over sess. ctx bounds every background request.
func New(ctx context.Context, sess *session.Session, opts Options) Model {
	if opts.ExportDir == "" {
		opts.ExportDir = "."
	}
	if opts.Layout == (layout.Options{}) {
		opts.Layout = layout.DefaultOptions()
	}

	input := textinput.New()
	input.Prompt = "❯ "
	input.CharLimit = 8000
	input.Placeholder = "Ask the council, or type /help"
	input.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(Orange)

	return Model{
		ctx:        ctx,
		sess:       sess,
		opts:       opts,
		transcript: NewTranscriptView(0, 0),
		history:    NewHistoryState(),
		md:         NewMarkdown(opts.MarkdownStyle),
		input:      input,
		spinner:    sp,
		events:     make(chan tea.Msg, 64),
		stage:      3,
		status:     "ready",
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		m.spinner.Tick,
		waitMsg(m.events),
		m.listCmd(),
	)
}

func waitMsg(ch <-chan tea.Msg) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		msg, ok := <-ch
		if !ok {
			return nil
		}
		return msg
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.resize()
		m.refresh(true)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		if m.sess.Busy() {
			m.refresh(true)
		}
		cmds = append(cmds, cmd)

	case snapshotMsg:
		m.refresh(true)
		cmds = append(cmds, waitMsg(m.events))

	case exchangeDoneMsg:
		switch {
		case msg.err == nil:
			m.setStatus("council complete", nil)
		case errors.Is(msg.err, context.Canceled):
			m.setStatus("exchange cancelled", nil)
		default:
			m.setStatus("", msg.err)
		}
		m.refresh(true)
		cmds = append(cmds, waitMsg(m.events))

	case conversationsMsg:
		if msg.err != nil {
			m.setStatus("", msg.err)
			break
		}
		m.history.SetConversations(msg.list)
		if m.sess.Offline() {
			m.setStatus(fmt.Sprintf("%d conversations (offline)", len(msg.list)), nil)
		} else {
			m.setStatus(fmt.Sprintf("%d conversations", len(msg.list)), nil)
		}

	case openedMsg:
		if msg.err != nil {
			m.setStatus("", msg.err)
			break
		}
		m.overlay = overlayNone
		m.setStatus(fmt.Sprintf("%s %q", msg.action, conversationTitle(msg.conv)), nil)
		m.refresh(true)

	case deletedMsg:
		if msg.err != nil {
			m.setStatus("", msg.err)
			break
		}
		m.setStatus("conversation deleted", nil)
		m.refresh(true)
		cmds = append(cmds, m.listCmd())

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.transcript.Viewport, cmd = m.transcript.Viewport.Update(msg)
		cmds = append(cmds, cmd)

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, tea.Batch(cmds...)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.sess.Cancel()
		return m, tea.Quit
	case "f1":
		m.toggleOverlay(overlayHelp)
		return m, nil
	case "ctrl+g":
		m.toggleOverlay(overlayGraph)
		return m, nil
	case "ctrl+l":
		m.overlay = overlayHistory
		return m, m.listCmd()
	case "alt+1", "alt+2", "alt+3":
		m.stage = int(msg.String()[4] - '0')
		m.refresh(false)
		return m, nil
	case "esc":
		if m.overlay != overlayNone {
			m.overlay = overlayNone
		} else if m.sess.Cancel() {
			m.setStatus("cancelling...", nil)
		}
		return m, nil
	}

	if m.overlay == overlayHistory {
		switch msg.String() {
		case "up", "k":
			m.history.Up()
		case "down", "j":
			m.history.Down()
		case "enter":
			if sel := m.history.Selected(); sel != nil {
				return m, m.openCmd(sel.ID)
			}
		}
		return m, nil
	}

	switch msg.String() {
	case "pgup", "pgdown":
		var cmd tea.Cmd
		m.transcript.Viewport, cmd = m.transcript.Viewport.Update(msg)
		return m, cmd
	case "enter":
		value := m.input.Value()
		m.input.Reset()
		if cmd := commands.Parse(value); cmd != nil {
			return m.handleCommand(cmd)
		}
		return m.submit(value)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleCommand(cmd commands.Command) (tea.Model, tea.Cmd) {
	switch c := cmd.(type) {
	case commands.Help:
		m.toggleOverlay(overlayHelp)
	case commands.NewConversation:
		return m, m.createCmd(c.Title)
	case commands.Rename:
		return m, m.renameCmd(c.Title)
	case commands.Delete:
		return m, m.deleteCmd()
	case commands.List:
		m.overlay = overlayHistory
		return m, m.listCmd()
	case commands.Open:
		summary, ok := m.history.At(c.Index)
		if !ok {
			m.setStatus("", fmt.Errorf("no conversation %d in the last listing (%d listed)", c.Index, m.history.Len()))
			return m, nil
		}
		return m, m.openCmd(summary.ID)
	case commands.ToggleGraph:
		m.toggleOverlay(overlayGraph)
	case commands.ShowMatrix:
		m.toggleOverlay(overlayMatrix)
	case commands.ShowStage:
		m.stage = c.Stage
		m.refresh(false)
	case commands.Export:
		m.export()
	case commands.Cancel:
		if m.sess.Cancel() {
			m.setStatus("cancelling...", nil)
		} else {
			m.setStatus("nothing to cancel", nil)
		}
	case commands.ParseError:
		m.setStatus("", errors.New(c.Message))
	}
	return m, nil
}

func (m Model) submit(content string) (tea.Model, tea.Cmd) {
	if content == "" {
		return m, nil
	}
	if m.sess.Busy() {
		m.setStatus("", session.ErrBusy)
		return m, nil
	}

	m.stage = 3
	m.setStatus("asking the council...", nil)
	ctx, sess, events := m.ctx, m.sess, m.events

	go func() {
		var err error
		if sess.Conversation() == nil {
			_, err = sess.Create(ctx, "")
		}
		if err == nil {
			err = sess.Submit(ctx, content, func(*council.Conversation) {
				// intermediate snapshots may be dropped; the done message
				// always triggers a final redraw
				select {
				case events <- snapshotMsg{}:
				default:
				}
			})
		}
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Warn().Err(err).Msg("exchange ended with error")
		}
		select {
		case events <- exchangeDoneMsg{err: err}:
		case <-ctx.Done():
		}
	}()
	return m, nil
}

func (m *Model) export() {
	conv := m.sess.Conversation()
	if conv == nil {
		m.setStatus("", session.ErrNoConversation)
		return
	}
	path, err := export.WriteConversation(conv, m.opts.ExportDir)
	if err != nil {
		m.setStatus("", err)
		return
	}
	m.setStatus("exported to "+path, nil)
}

func (m Model) listCmd() tea.Cmd {
	ctx, sess := m.ctx, m.sess
	return func() tea.Msg {
		list, err := sess.List(ctx)
		return conversationsMsg{list: list, err: err}
	}
}

func (m Model) openCmd(id string) tea.Cmd {
	ctx, sess := m.ctx, m.sess
	return func() tea.Msg {
		conv, err := sess.Open(ctx, id)
		return openedMsg{conv: conv, action: "opened", err: err}
	}
}

func (m Model) createCmd(title string) tea.Cmd {
	ctx, sess := m.ctx, m.sess
	return func() tea.Msg {
		conv, err := sess.Create(ctx, title)
		return openedMsg{conv: conv, action: "created", err: err}
	}
}

func (m Model) renameCmd(title string) tea.Cmd {
	ctx, sess := m.ctx, m.sess
	return func() tea.Msg {
		conv, err := sess.Rename(ctx, title)
		return openedMsg{conv: conv, action: "renamed to", err: err}
	}
}

func (m Model) deleteCmd() tea.Cmd {
	ctx, sess := m.ctx, m.sess
	return func() tea.Msg {
		return deletedMsg{err: sess.Delete(ctx)}
	}
}

func (m *Model) toggleOverlay(kind overlayKind) {
	if m.overlay == kind {
		m.overlay = overlayNone
		return
	}
	m.overlay = kind
}

func (m *Model) setStatus(text string, err error) {
	if err != nil {
		m.status, m.statusErr = err.Error(), true
		return
	}
	m.status, m.statusErr = text, false
}

const (
	headerHeight = 1
	footerHeight = 4 // status line plus the bordered input
)

func (m *Model) resize() {
	m.transcript.Viewport.Width = m.width
	m.transcript.Viewport.Height = max(m.height-headerHeight-footerHeight-1, 1)
	m.input.Width = max(m.width-6, 10)
	m.history.SetMaxHeight(m.height)
}

// refresh re-renders the transcript. follow pins the view to the end when it
// was already there.
func (m *Model) refresh(follow bool) {
	if !m.ready {
		return
	}
	atEnd := m.transcript.Viewport.AtBottom()
	content := RenderConversation(m.sess.Conversation(), m.stage, m.md, m.spinner.View(), m.width)
	m.transcript.SetContent(content, follow && atEnd)
}

func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	switch m.overlay {
	case overlayHelp:
		return HelpContent(m.width, m.height)
	case overlayHistory:
		return m.history.Render(m.width, m.height, m.sess.Offline())
	case overlayGraph:
		body := TitleStyle.Render("REASONING GRAPH") + "\n\n" +
			RenderGraph(m.sess.Layout(), m.opts.Layout.Pitch, m.width-16)
		return overlay(body, m.width, m.height, 2)
	case overlayMatrix:
		return overlay(RenderMatrices(m.sess.Conversation().LatestGraph()), m.width, m.height, 2)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.header(),
		m.transcript.Viewport.View(),
		m.statusLine(),
		ActiveBox.Width(max(m.width-2, 10)).Render(m.input.View()),
	)
}

func (m Model) header() string {
	title := TitleStyle.Render("SYNAPSE")
	conv := m.sess.Conversation()
	if conv != nil {
		title += DimStyle.Render("  ·  ") + conversationTitle(conv)
	}
	if m.sess.Offline() {
		title += "  " + StatusWarn.Render("offline")
	}
	tabs := make([]string, 0, 3)
	for n := 1; n <= 3; n++ {
		style := InactiveTabStyle
		if n == m.stage {
			style = ActiveTabStyle
		}
		tabs = append(tabs, style.Render(fmt.Sprintf("[%d %s]", n, stageNames[n])))
	}
	right := lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
	gap := max(m.width-lipgloss.Width(title)-lipgloss.Width(right), 1)
	return title + lipgloss.NewStyle().Width(gap).Render("") + right
}

func (m Model) statusLine() string {
	if m.statusErr {
		return ErrorStyle.Render("✗ " + m.status)
	}
	if m.sess.Busy() {
		return StatusWarn.Render(m.spinner.View()+" ") + SystemStyle.Render(m.status)
	}
	return DimStyle.Render(m.status)
}

func conversationTitle(conv *council.Conversation) string {
	if conv == nil || conv.Title == "" {
		return "New Conversation"
	}
	return conv.Title
}
