package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/diogo/cleansight/internal/config"
	"github.com/diogo/cleansight/internal/conversation"
	"github.com/diogo/cleansight/internal/history"
	"github.com/diogo/cleansight/internal/models"
	"github.com/diogo/cleansight/internal/render"
)

// animationTickMsg is sent to update the loading animation
type animationTickMsg time.Time

// replyMsg carries the assistant turn produced by a submission. failed
// marks a turn that holds the fallback text; the cause stays in the log.
type replyMsg struct {
	turn   models.Turn
	failed bool
	err    error
}

// Conversation is the part of *conversation.Manager the chat drives
type Conversation interface {
	Submit(ctx context.Context, text string, image models.ImageRef) (models.Turn, error)
	History() []models.Turn
	Len() int
	Clear()
	LastReply() (string, bool)
	LastError() error
	SetPreamble(preamble string)
}

// ChatOptions configures the chat screen
type ChatOptions struct {
	// RelayURL is shown in the header
	RelayURL    string
	PersonaName string
	Personas    []config.Persona
	Render      render.Options
	Export      history.ExportOptions
	// ImageDir is listed by /image without an argument
	ImageDir string
}

type pickerKind int

const (
	pickNone pickerKind = iota
	pickImage
	pickPersona
)

const (
	cancellingNotice = "Cancelling request..."
	noAnswerNotice   = "⚠ No answer this time. Check that 'cleansight serve' is running; details are in the log."
)

// clipboardWriteAll is replaced in tests
var clipboardWriteAll = clipboard.WriteAll

// Model represents the chat TUI state
type Model struct {
	conv Conversation
	opts ChatOptions

	textarea textarea.Model
	viewport viewport.Model
	spinner  spinner.Model

	width  int
	height int
	ready  bool

	loading        bool
	animationFrame int
	cancel         context.CancelFunc

	pendingImage models.ImageRef
	personaName  string
	notice       string
	err          error

	picker     PickerModel
	pickerKind pickerKind
}

// NewChatModel creates a new chat TUI model
func NewChatModel(conv Conversation, opts ChatOptions) Model {
	ta := textarea.New()
	ta.Placeholder = "Ask about recycling, reuse or disposal..."
	ta.CharLimit = 4000
	ta.ShowLineNumbers = false
	ta.SetHeight(2)
	ta.Focus()

	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.FocusedStyle.Base = lipgloss.NewStyle().Foreground(colorText)
	ta.FocusedStyle.Placeholder = lipgloss.NewStyle().Foreground(colorTextDim)
	ta.BlurredStyle = ta.FocusedStyle

	s := spinner.New()
	s.Spinner = spinner.Points
	s.Style = loadingStyle

	if opts.ImageDir == "" {
		opts.ImageDir = "."
	}
	if len(opts.Personas) == 0 {
		opts.Personas = config.DefaultPersonas()
	}
	if opts.Render.Style == "" {
		opts.Render = render.DefaultOptions()
	}
	if opts.Export.Title == "" {
		opts.Export = history.DefaultExportOptions()
	}

	return Model{
		conv:        conv,
		opts:        opts,
		textarea:    ta,
		spinner:     s,
		personaName: opts.PersonaName,
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textarea.Blink,
		m.spinner.Tick,
	)
}

func animationTick() tea.Cmd {
	return tea.Tick(time.Millisecond*80, func(t time.Time) tea.Msg {
		return animationTickMsg(t)
	})
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	if m.pickerKind != pickNone {
		return m.updatePicker(msg)
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.abort()
			return m, tea.Quit

		case "esc":
			if m.loading {
				m.abort()
				m.notice = cancellingNotice
				return m, nil
			}
			return m, tea.Quit

		case "ctrl+l":
			// Allowed while loading: the reply in flight is then dropped
			m.conv.Clear()
			m.pendingImage = nil
			m.err = nil
			m.notice = "🧹 Conversation cleared"
			m.updateViewport()
			return m, nil

		case "enter":
			if m.loading {
				return m, nil
			}
			input := strings.TrimSpace(m.textarea.Value())
			if input == "" && m.pendingImage == nil {
				return m, nil
			}
			m.textarea.Reset()
			if strings.HasPrefix(input, "/") || input == "exit" || input == "quit" {
				return m.runCommand(input)
			}
			return m.startSubmit(input)
		}

	case replyMsg:
		m.loading = false
		if m.cancel != nil {
			m.cancel()
			m.cancel = nil
		}
		m.err = msg.err
		switch {
		case m.notice == cancellingNotice:
			m.notice = ""
		case msg.failed:
			m.notice = noAnswerNotice
		}
		m.updateViewport()
		m.viewport.GotoBottom()

	case spinner.TickMsg:
		if m.loading {
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}

	case animationTickMsg:
		if m.loading {
			m.animationFrame++
			// The user turn is appended as soon as Submit starts
			if m.animationFrame == 1 {
				m.updateViewport()
				m.viewport.GotoBottom()
			}
			cmds = append(cmds, animationTick())
		}
	}

	// Only pass KeyMsg to textarea to prevent escape sequence leaks
	if !m.loading {
		if _, ok := msg.(tea.KeyMsg); ok {
			m.textarea, cmd = m.textarea.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height

	headerHeight := 4
	inputHeight := 6
	statusHeight := 2
	padding := 2

	vpHeight := m.height - headerHeight - inputHeight - statusHeight - padding
	if vpHeight < 5 {
		vpHeight = 5
	}
	contentWidth := m.width - 4

	if !m.ready {
		m.viewport = viewport.New(contentWidth, vpHeight)
		m.ready = true
	} else {
		m.viewport.Width = contentWidth
		m.viewport.Height = vpHeight
	}
	m.textarea.SetWidth(contentWidth - 4)
	m.picker.SetSize(contentWidth, m.height)
	m.updateViewport()
}

// startSubmit hands the input and any attached image to the conversation
func (m Model) startSubmit(text string) (tea.Model, tea.Cmd) {
	image := m.pendingImage
	m.pendingImage = nil
	m.loading = true
	m.err = nil
	m.notice = ""
	m.animationFrame = 0

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel

	return m, tea.Batch(
		m.submitCmd(ctx, text, image),
		m.spinner.Tick,
		animationTick(),
	)
}

// submitCmd runs one submission. Relay failures are already absorbed into
// the returned turn and logged by the conversation, so only the fact that it
// failed is passed on.
func (m Model) submitCmd(ctx context.Context, text string, image models.ImageRef) tea.Cmd {
	conv := m.conv
	return func() tea.Msg {
		turn, err := conv.Submit(ctx, text, image)
		if err != nil {
			return replyMsg{err: err}
		}
		return replyMsg{turn: turn, failed: conv.LastError() != nil}
	}
}

func (m *Model) abort() {
	if m.cancel != nil {
		m.cancel()
	}
}

const helpText = `Commands:
  /image <path>    attach an image to the next message
  /image           pick an image from the working directory
  /detach          drop the attached image
  /persona [name]  switch the assistant persona
  /copy            copy the last reply to the clipboard
  /export <file>   save the conversation (.md or .json)
  /clear           start over (also ctrl+l)
  /quit            leave`

// runCommand executes a slash command typed into the input
func (m Model) runCommand(input string) (tea.Model, tea.Cmd) {
	name, arg, _ := strings.Cut(input, " ")
	arg = strings.TrimSpace(arg)
	m.err = nil
	m.notice = ""

	switch name {
	case "/quit", "/exit", "quit", "exit":
		return m, tea.Quit

	case "/help":
		m.notice = helpText

	case "/clear":
		m.conv.Clear()
		m.pendingImage = nil
		m.notice = "🧹 Conversation cleared"
		m.updateViewport()

	case "/copy":
		reply, ok := m.conv.LastReply()
		if !ok {
			m.notice = "Nothing to copy yet"
			break
		}
		if err := clipboardWriteAll(reply); err != nil {
			m.err = fmt.Errorf("failed to copy to clipboard: %w", err)
			break
		}
		m.notice = "📋 Last reply copied"

	case "/export":
		if arg == "" {
			m.notice = "Usage: /export <file.md|file.json>"
			break
		}
		if err := history.WriteFile(arg, m.conv.History(), m.opts.Export); err != nil {
			m.err = err
			break
		}
		m.notice = "💾 Saved to " + arg

	case "/image", "/img":
		if arg == "" {
			items, err := ImageItems(m.opts.ImageDir)
			if err != nil {
				m.err = err
				break
			}
			m.openPicker(pickImage, NewPickerModel("Attach an image from "+m.opts.ImageDir, items))
			break
		}
		m.attach(arg)

	case "/detach":
		m.pendingImage = nil
		m.notice = "Attachment removed"

	case "/persona":
		if arg == "" {
			picker := NewPickerModel("Choose a persona", PersonaItems(m.opts.Personas)).WithCurrent(m.personaName)
			m.openPicker(pickPersona, picker)
			break
		}
		m.usePersona(arg)

	default:
		m.notice = fmt.Sprintf("Unknown command %s. Type /help", name)
	}

	return m, nil
}

func (m *Model) attach(path string) {
	img, err := conversation.NewFileImage(path)
	if err != nil {
		m.err = err
		return
	}
	m.pendingImage = img
	m.notice = "📎 " + img.Name() + " attached. Press enter to send"
}

func (m *Model) usePersona(name string) {
	for _, p := range m.opts.Personas {
		if p.Name == name {
			m.conv.SetPreamble(p.Preamble)
			m.personaName = p.Name
			m.notice = "Persona: " + p.Name
			return
		}
	}
	m.err = fmt.Errorf("persona '%s' not found", name)
}

func (m *Model) openPicker(kind pickerKind, picker PickerModel) {
	picker.SetSize(m.width-4, m.height)
	m.picker = picker
	m.pickerKind = kind
}

// updatePicker routes input to the open picker and applies its choice
func (m Model) updatePicker(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil
	case replyMsg, animationTickMsg, spinner.TickMsg:
		// Keep the submission lifecycle running behind the overlay
		kind, picker := m.pickerKind, m.picker
		m.pickerKind = pickNone
		next, cmd := m.Update(msg)
		nm := next.(Model)
		nm.pickerKind, nm.picker = kind, picker
		return nm, cmd
	}

	var cmd tea.Cmd
	m.picker, cmd = m.picker.Update(msg)
	if !m.picker.Done() {
		return m, cmd
	}

	kind := m.pickerKind
	m.pickerKind = pickNone
	item, ok := m.picker.Selected()
	if !ok {
		return m, cmd
	}

	switch kind {
	case pickImage:
		m.attach(item.Value)
	case pickPersona:
		m.usePersona(item.Value)
	}
	return m, cmd
}

// View renders the TUI
func (m Model) View() string {
	if !m.ready {
		return loadingStyle.Render("  Initializing...")
	}

	contentWidth := m.width - 4
	if m.pickerKind != pickNone {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, m.picker.View())
	}

	var sections []string

	headerParts := []string{titleStyle.Render("🌱 CleanSight")}
	if m.opts.RelayURL != "" {
		headerParts = append(headerParts,
			hintStyle.Render("  •  "),
			subtitleStyle.Render(m.opts.RelayURL),
		)
	}
	if m.personaName != "" {
		headerParts = append(headerParts,
			hintStyle.Render("  •  "),
			subtitleStyle.Render(m.personaName),
		)
	}
	header := headerStyle.Width(contentWidth).Render(lipgloss.JoinHorizontal(lipgloss.Center, headerParts...))
	sections = append(sections, header)

	var messagesContent string
	if m.conv.Len() == 0 {
		messagesContent = m.renderWelcome()
	} else {
		messagesContent = m.viewport.View()
	}
	sections = append(sections, messagesAreaStyle.
		Width(contentWidth).
		Height(m.viewport.Height).
		Render(messagesContent))

	var inputContent string
	if m.loading {
		inputContent = m.renderLoadingAnimation()
	} else {
		label := inputLabelStyle.Render("You")
		if m.pendingImage != nil {
			label += attachmentStyle.Render("📎 " + m.pendingImage.Name())
		}
		inputContent = lipgloss.JoinVertical(lipgloss.Left, label, m.textarea.View())
	}
	sections = append(sections, inputPanelStyle.Width(contentWidth).Render(inputContent))

	sections = append(sections, m.renderStatusBar(contentWidth))

	if m.notice != "" {
		sections = append(sections, noticeStyle.Render(m.notice))
	}
	if m.err != nil {
		sections = append(sections, FormatError(m.err))
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderWelcome renders the greeting shown before the first turn
func (m Model) renderWelcome() string {
	width := m.viewport.Width - 4
	height := m.viewport.Height

	icon := welcomeIconStyle.Width(width).Render("♻️")
	title := welcomeTitleStyle.Width(width).Render("CleanSight Assistant")
	greeting := welcomeStyle.Width(width).Render(models.Greeting)
	hint := hintStyle.Width(width).Align(lipgloss.Center).Render("Type a question, or /image <path> to attach a photo. /help lists commands.")

	content := lipgloss.JoinVertical(
		lipgloss.Center,
		"",
		icon,
		title,
		greeting,
		hint,
	)

	topPadding := (height - lipgloss.Height(content)) / 2
	if topPadding < 0 {
		topPadding = 0
	}
	return strings.Repeat("\n", topPadding) + content
}

// renderLoadingAnimation renders a colorful animated loading indicator
func (m Model) renderLoadingAnimation() string {
	chars := []string{"⣾", "⣽", "⣻", "⢿", "⡿", "⣟", "⣯", "⣷"}
	barChars := []string{"█", "█", "█", "█", "▓", "▒", "░"}

	frame := m.animationFrame

	spinColor := gradientColors[frame%len(gradientColors)]
	spin := lipgloss.NewStyle().Foreground(spinColor).Bold(true).Render(chars[frame%len(chars)])

	barWidth := 20
	var bar strings.Builder
	for i := 0; i < barWidth; i++ {
		colorIdx := (i + frame) % len(gradientColors)
		charIdx := (i + frame/2) % len(barChars)
		bar.WriteString(lipgloss.NewStyle().Foreground(gradientColors[colorIdx]).Render(barChars[charIdx]))
	}

	dots := ""
	numDots := (frame / 3) % 4
	for i := 0; i < numDots; i++ {
		dots += lipgloss.NewStyle().Foreground(gradientColors[(frame+i)%len(gradientColors)]).Render("●")
	}
	for i := numDots; i < 3; i++ {
		dots += lipgloss.NewStyle().Foreground(colorTextMute).Render("○")
	}

	text := lipgloss.NewStyle().Foreground(colorText).Render(" CleanSight is thinking ")
	return fmt.Sprintf("%s %s %s %s", spin, bar.String(), text, dots)
}

// renderStatusBar renders the bottom status bar with shortcuts
func (m Model) renderStatusBar(width int) string {
	shortcuts := []struct {
		key  string
		desc string
	}{
		{"Enter", "Send"},
		{"Esc", "Quit"},
		{"Ctrl+L", "Clear"},
		{"/help", "Commands"},
	}
	if m.loading {
		shortcuts[1].desc = "Cancel"
	}

	var items []string
	for _, s := range shortcuts {
		items = append(items, lipgloss.JoinHorizontal(
			lipgloss.Center,
			statusKeyStyle.Render(s.key),
			statusDescStyle.Render(" "+s.desc),
		))
	}

	bar := strings.Join(items, "  │  ")
	return statusBarStyle.Width(width).Align(lipgloss.Center).Render(bar)
}

// updateViewport re-renders the conversation history
func (m *Model) updateViewport() {
	if !m.ready {
		return
	}

	var content strings.Builder
	bubbleWidth := m.viewport.Width - 6
	opts := m.opts.Render.WithWidth(bubbleWidth - 4)

	for i, turn := range m.conv.History() {
		if i > 0 {
			content.WriteString("\n")
		}

		if turn.Role == models.TurnUser {
			body := turn.Text
			if turn.HasAttachment() && turn.Text != models.ImageUploadedMarker {
				body += "\n" + attachmentStyle.Render("📎 "+turn.Attachment.Name())
			}
			content.WriteString(userLabelStyle.Render("⬤ You") + "\n")
			content.WriteString(userBubbleStyle.Width(bubbleWidth).Render(body))
		} else {
			rendered, err := render.Markdown(turn.Text, opts)
			if err != nil {
				rendered = turn.Text
			}
			rendered = strings.TrimRight(rendered, "\n")

			content.WriteString(assistantLabelStyle.Render("🌱 CleanSight") + "\n")
			content.WriteString(assistantBubbleStyle.Width(bubbleWidth).Render(rendered))
		}
		content.WriteString("\n")
	}

	m.viewport.SetContent(content.String())
}

// RunChat starts the interactive chat
func RunChat(conv Conversation, opts ChatOptions) error {
	p := tea.NewProgram(
		NewChatModel(conv, opts),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)
	_, err := p.Run()
	return err
}
