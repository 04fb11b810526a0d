package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/ShaktiCodes/plugin-powered-chat-hub/pkg/bus"
	chatcore "github.com/ShaktiCodes/plugin-powered-chat-hub/pkg/chat"
	"github.com/ShaktiCodes/plugin-powered-chat-hub/pkg/plugin"
	"github.com/ShaktiCodes/plugin-powered-chat-hub/pkg/render"
)

type mode int

const (
	modeInteractive mode = iota
	modeOneShot
)

const toastLifetime = 4 * time.Second

type sendResultMsg struct {
	appended []chatcore.Message
	err      error
}

type notificationMsg struct {
	notification chatcore.Notification
}

type eventsClosedMsg struct{}

type toastExpiredMsg struct {
	seq int
}

type bootTickMsg struct{}

type toast struct {
	notification chatcore.Notification
	seq          int
}

type model struct {
	ctx          context.Context
	backend      Backend
	plugins      Plugins
	events       <-chan bus.Event
	mode         mode
	oneShotInput string

	theme      theme
	spinner    spinner.Model
	input      textinput.Model
	viewport   viewport.Model
	markdown   *glamour.TermRenderer
	mdWidth    int
	messages   []chatcore.Message
	pending    string
	width      int
	height     int
	isReady    bool
	isLoading  bool
	lastErr    string
	toast      *toast
	toastSeq   int
	booting    bool
	bootStep   int
	followLog  bool
	runtime    RuntimeInfo
	startCount int
}

func newModel(ctx context.Context, deps Deps, runMode mode, prompt string) *model {
	spin := spinner.New()
	spin.Spinner = spinner.Points
	spin.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))

	in := textinput.New()
	in.Prompt = ""
	in.Placeholder = "Type a message or /command..."
	in.Focus()
	in.CharLimit = 0

	vp := viewport.New(80, 12)

	m := &model{
		ctx:          ctx,
		backend:      deps.Backend,
		plugins:      deps.Plugins,
		events:       deps.Events,
		mode:         runMode,
		oneShotInput: strings.TrimSpace(prompt),
		theme:        defaultTheme(),
		spinner:      spin,
		input:        in,
		viewport:     vp,
		width:        100,
		height:       28,
		booting:      runMode == modeInteractive,
		followLog:    true,
		runtime:      deps.Info,
	}
	if deps.Backend != nil && runMode == modeInteractive {
		m.messages = deps.Backend.Messages()
		m.startCount = len(m.messages)
	}

	return m
}

func (m *model) Init() tea.Cmd {
	if m.mode == modeOneShot && m.oneShotInput != "" {
		return m.startSend(m.oneShotInput)
	}

	return tea.Batch(bootTickCmd(), waitForEvent(m.events))
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch typed := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = typed.Width
		m.height = typed.Height
		m.resizeComponents()
		m.refreshViewport(false)
		m.isReady = true
		return m, nil
	case bootTickMsg:
		if !m.booting {
			return m, nil
		}

		m.bootStep++
		if m.bootStep < len(bootScriptLines())+1 {
			return m, bootTickCmd()
		}

		m.booting = false
		m.refreshViewport(true)
		return m, textinput.Blink
	case tea.MouseMsg:
		if m.mode == modeInteractive && !m.booting {
			m.handleViewportMouse(typed)
		}
		return m, nil
	case tea.KeyMsg:
		switch typed.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		}

		if m.booting || m.mode == modeOneShot {
			return m, nil
		}

		if handled := m.handleViewportKey(typed); handled {
			return m, nil
		}

		if typed.String() == "enter" {
			// A send is already in flight; the input is kept for later.
			if m.isLoading {
				return m, nil
			}

			content := strings.TrimSpace(m.input.Value())
			if content == "" {
				return m, nil
			}
			if isExitCommand(content) {
				return m, tea.Quit
			}

			m.input.SetValue("")
			return m, m.startSend(content)
		}
	case notificationMsg:
		m.toastSeq++
		m.toast = &toast{notification: typed.notification, seq: m.toastSeq}
		return m, tea.Batch(waitForEvent(m.events), expireToastCmd(m.toastSeq))
	case toastExpiredMsg:
		if m.toast != nil && m.toast.seq == typed.seq {
			m.toast = nil
		}
		return m, nil
	case eventsClosedMsg:
		m.events = nil
		return m, nil
	}

	if m.mode == modeInteractive {
		m.input, cmd = m.input.Update(msg)
	}

	switch typed := msg.(type) {
	case spinner.TickMsg:
		if !m.isLoading {
			return m, nil
		}
		m.spinner, cmd = m.spinner.Update(typed)
		return m, cmd
	case sendResultMsg:
		m.isLoading = false
		m.pending = ""
		switch {
		case errors.Is(typed.err, chatcore.ErrBusy):
			m.lastErr = "another message is still being processed"
		case typed.err != nil:
			m.lastErr = typed.err.Error()
		default:
			m.lastErr = ""
			m.messages = append(m.messages, typed.appended...)
		}
		m.refreshViewport(false)
		if m.mode == modeOneShot {
			return m, tea.Quit
		}
	}

	return m, cmd
}

// startSend shows content as pending and dispatches it off the update loop.
func (m *model) startSend(content string) tea.Cmd {
	m.lastErr = ""
	m.pending = content
	m.isLoading = true
	m.followLog = true
	m.refreshViewport(true)
	return tea.Batch(m.spinner.Tick, sendCmd(m.ctx, m.backend, content))
}

func (m *model) View() string {
	if !m.isReady {
		m.resizeComponents()
		m.refreshViewport(false)
	}
	if m.mode == modeOneShot {
		return m.oneShotView()
	}
	if m.booting {
		return m.bootView()
	}

	header := m.theme.header.Width(m.width - 2).Render("💬 Chat Hub")
	meta := m.theme.headerMeta.Render(fmt.Sprintf(
		"storage:%s · plugins:%d · messages:%d · sent this session:%d",
		displayOrNA(m.runtime.StorageBackend),
		m.pluginCount(),
		len(m.messages),
		conversationTurns(m.messages[min(m.startCount, len(m.messages)):]),
	))
	line := m.theme.divider.Width(m.width - 2).Render(strings.Repeat("═", max(8, m.width-2)))

	status := m.theme.status.Render("💡 Enter send  ·  PgUp/PgDn scroll  ·  End jump latest  ·  🛑 Ctrl+C/Esc quit")
	if m.isLoading {
		status = m.theme.statusBusy.Render(fmt.Sprintf("%s ⚡ thinking...", m.spinner.View()))
	}
	if m.lastErr != "" {
		status = m.theme.statusErr.Render("🚨 " + m.lastErr)
	}
	if m.toast != nil {
		status = m.renderToast(m.toast.notification)
	}

	parts := []string{header, meta, line, m.theme.viewport.Width(m.width - 2).Render(m.viewport.View()), status}
	parts = append(parts,
		m.theme.inputLabel.Render("👤 You")+" "+m.theme.hint.Render("(type /exit, quit, or :q)"),
		m.theme.input.Width(m.width-2).Render(m.input.View()),
	)

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m *model) pluginCount() int {
	if m.plugins == nil {
		return 0
	}
	return len(m.plugins.List())
}

func (m *model) renderToast(n chatcore.Notification) string {
	return m.theme.toast(n.Severity).Render(fmt.Sprintf("🔔 %s: %s", n.Title, n.Description))
}

func (m *model) resizeComponents() {
	w := m.width - 6
	if w < 50 {
		w = 50
	}
	h := m.height - 10
	if m.mode == modeOneShot {
		h = m.height - 6
	}
	if h < 8 {
		h = 8
	}

	m.viewport.Width = w
	m.viewport.Height = h
	m.input.Width = w - 2
}

func (m *model) refreshViewport(forceBottom bool) {
	previousOffset := m.viewport.YOffset

	sections := make([]string, 0, len(m.messages)+1)
	for _, item := range m.messages {
		sections = append(sections, m.renderMessage(item, m.viewport.Width))
	}
	if m.pending != "" {
		sections = append(sections, m.renderUser(m.pending, m.viewport.Width))
	}

	m.viewport.SetContent(strings.Join(sections, "\n\n"))
	if m.followLog || forceBottom {
		m.viewport.GotoBottom()
		m.followLog = true
		return
	}

	maxOffset := m.viewport.TotalLineCount() - m.viewport.Height
	if maxOffset < 0 {
		maxOffset = 0
	}
	if previousOffset > maxOffset {
		previousOffset = maxOffset
	}
	m.viewport.SetYOffset(previousOffset)
}

func (m *model) renderMessage(item chatcore.Message, width int) string {
	if item.Sender == chatcore.SenderUser {
		return m.renderUser(item.Content, width)
	}

	body := m.renderMarkdown(item.Content, width)
	if m.plugins == nil {
		return m.renderCard(
			m.theme.assistant.title.Render("▛▚ [ 🤖 ] ▞▜"),
			m.theme.assistant.box.Width(width).Render(body),
		)
	}
	if card, ok := render.Card(item, m.plugins); ok {
		body = lipgloss.JoinVertical(lipgloss.Left, body, m.renderPluginCard(card, width-4))
	}

	return m.renderCard(
		m.theme.assistant.title.Render("▛▚ [ 🤖 ] ▞▜"),
		m.theme.assistant.box.Width(width).Render(body),
	)
}

func (m *model) renderUser(content string, width int) string {
	return m.renderCard(
		m.theme.user.title.Render("▛▚ [ 👤 ] ▞▜"),
		m.theme.user.box.Width(width).Render(strings.TrimSpace(content)),
	)
}

func (m *model) renderPluginCard(card plugin.Card, width int) string {
	lines := make([]string, 0, 2+len(card.Rows))
	if card.Title != "" {
		lines = append(lines, m.theme.card.title.Render(card.Title))
	}
	if card.Subtitle != "" {
		lines = append(lines, m.theme.cardSubtitle.Render(card.Subtitle))
	}
	for _, row := range card.Rows {
		lines = append(lines, m.theme.cardLabel.Render(row.Label+":")+" "+row.Value)
	}
	if card.Body != "" {
		lines = append(lines, "", strings.TrimSpace(m.renderMarkdown(card.Body, width-4)))
	}

	return m.theme.card.box.Width(max(20, width)).Render(strings.Join(lines, "\n"))
}

// renderMarkdown falls back to the raw text when glamour cannot render.
func (m *model) renderMarkdown(content string, width int) string {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return ""
	}

	if m.markdown == nil || m.mdWidth != width {
		renderer, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle("dark"),
			glamour.WithWordWrap(max(20, width-4)),
		)
		if err != nil {
			return trimmed
		}
		m.markdown = renderer
		m.mdWidth = width
	}

	rendered, err := m.markdown.Render(trimmed)
	if err != nil {
		return trimmed
	}
	return strings.Trim(rendered, "\n")
}

func (m *model) renderCard(title string, body string) string {
	return lipgloss.JoinVertical(lipgloss.Left, title, body)
}

func (m *model) oneShotView() string {
	contentWidth := max(40, m.width-6)
	parts := []string{m.renderCard(
		m.theme.user.title.Render("▛▚ [SENT] ▞▜"),
		m.theme.user.box.Width(contentWidth).Render(strings.TrimSpace(m.oneShotInput)),
	)}

	if m.isLoading {
		parts = append(parts, m.theme.statusBusy.Render(fmt.Sprintf("%s ⚡ waiting for the reply...", m.spinner.View())))
		return lipgloss.JoinVertical(lipgloss.Left, parts...) + "\n"
	}

	if m.lastErr != "" {
		parts = append(parts,
			m.renderCard(
				m.theme.failure.title.Render("▛▚ [ERROR] ▞▜"),
				m.theme.failure.box.Width(contentWidth).Render(strings.TrimSpace(m.lastErr)),
			),
		)
		return lipgloss.JoinVertical(lipgloss.Left, parts...) + "\n\n"
	}

	if reply, ok := lastAssistant(m.messages); ok {
		parts = append(parts, m.renderMessage(reply, contentWidth))
	}

	return lipgloss.JoinVertical(lipgloss.Left, parts...) + "\n\n"
}

func (m *model) bootView() string {
	header := m.theme.header.Width(m.width - 2).Render("💬 Chat Hub")
	meta := m.theme.headerMeta.Render("boot sequence")
	line := m.theme.divider.Width(m.width - 2).Render(strings.Repeat("═", max(8, m.width-2)))

	script := bootScriptLines()
	count := min(m.bootStep, len(script))
	visible := make([]string, 0, count+1)
	for i := 0; i < count; i++ {
		visible = append(visible, m.theme.boot.Render(script[i]))
	}
	if m.bootStep > len(script) {
		visible = append(visible, m.theme.bootDone.Render("✅ chat hub online"))
	}

	body := m.theme.viewport.Width(m.width - 2).Render(strings.Join(visible, "\n"))
	return lipgloss.JoinVertical(lipgloss.Left, header, meta, line, body)
}

func bootTickCmd() tea.Cmd {
	return tea.Tick(80*time.Millisecond, func(_ time.Time) tea.Msg {
		return bootTickMsg{}
	})
}

func expireToastCmd(seq int) tea.Cmd {
	return tea.Tick(toastLifetime, func(_ time.Time) tea.Msg {
		return toastExpiredMsg{seq: seq}
	})
}

// waitForEvent blocks for the next notification on events. Other event
// types are skipped.
func waitForEvent(events <-chan bus.Event) tea.Cmd {
	if events == nil {
		return nil
	}

	return func() tea.Msg {
		for event := range events {
			if n, ok := chatcore.NotificationFromEvent(event); ok {
				return notificationMsg{notification: n}
			}
		}
		return eventsClosedMsg{}
	}
}

func (m *model) handleViewportKey(msg tea.KeyMsg) bool {
	switch msg.String() {
	case "pgup", "ctrl+b", "alt+up", "ctrl+up":
		m.viewport.PageUp()
		m.followLog = false
		return true
	case "pgdown", "ctrl+f", "alt+down", "ctrl+down":
		m.viewport.PageDown()
		if m.viewport.AtBottom() {
			m.followLog = true
		}
		return true
	case "home":
		m.viewport.GotoTop()
		m.followLog = false
		return true
	case "end":
		m.viewport.GotoBottom()
		m.followLog = true
		return true
	default:
		return false
	}
}

func (m *model) handleViewportMouse(msg tea.MouseMsg) bool {
	if msg.Action != tea.MouseActionPress {
		return false
	}

	switch msg.Button {
	case tea.MouseButtonWheelUp:
		m.viewport.ScrollUp(3)
		m.followLog = false
		return true
	case tea.MouseButtonWheelDown:
		m.viewport.ScrollDown(3)
		if m.viewport.AtBottom() {
			m.followLog = true
		}
		return true
	default:
		return false
	}
}

func bootScriptLines() []string {
	return []string{
		"[BOOT] restoring conversation",
		"[BOOT] registering plugins",
		"[BOOT] warming up command parser",
		"[BOOT] connecting notification bus",
	}
}

func sendCmd(ctx context.Context, backend Backend, content string) tea.Cmd {
	return func() tea.Msg {
		appended, err := backend.Send(ctx, content)
		return sendResultMsg{appended: appended, err: err}
	}
}

func lastAssistant(messages []chatcore.Message) (chatcore.Message, bool) {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Sender == chatcore.SenderAssistant {
			return messages[i], true
		}
	}
	return chatcore.Message{}, false
}

func displayOrNA(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "n/a"
	}

	return trimmed
}

func conversationTurns(messages []chatcore.Message) int {
	count := 0
	for _, message := range messages {
		if message.Sender == chatcore.SenderUser {
			count++
		}
	}

	return count
}

func isExitCommand(input string) bool {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "exit", "/exit", "quit", ":q":
		return true
	default:
		return false
	}
}
