package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/diogo/cleansight/internal/config"
	"github.com/diogo/cleansight/internal/conversation"
)

// PickerItem is one selectable row
type PickerItem struct {
	Title  string
	Detail string
	Value  string
}

// PickerModel is a single-choice list shown over the chat
type PickerModel struct {
	title string
	items []PickerItem
	// current marks the item that is already active, -1 for none
	current int

	cursor    int
	confirmed bool
	cancelled bool

	width  int
	height int
}

// NewPickerModel creates a picker with the cursor on the first item
func NewPickerModel(title string, items []PickerItem) PickerModel {
	return PickerModel{
		title:   title,
		items:   items,
		current: -1,
	}
}

// WithCurrent marks the item whose Value matches as active and moves the
// cursor to it.
func (m PickerModel) WithCurrent(value string) PickerModel {
	for i, item := range m.items {
		if item.Value == value {
			m.current = i
			m.cursor = i
			break
		}
	}
	return m
}

// SetSize updates the available area
func (m *PickerModel) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// Init initializes the model
func (m PickerModel) Init() tea.Cmd {
	return nil
}

// Update handles navigation keys
func (m PickerModel) Update(msg tea.Msg) (PickerModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc", "q":
			m.cancelled = true
			m.confirmed = true

		case "up", "k":
			if len(m.items) == 0 {
				break
			}
			m.cursor--
			if m.cursor < 0 {
				m.cursor = len(m.items) - 1
			}

		case "down", "j":
			if len(m.items) == 0 {
				break
			}
			m.cursor++
			if m.cursor >= len(m.items) {
				m.cursor = 0
			}

		case "home", "g":
			m.cursor = 0

		case "end", "G":
			if len(m.items) > 0 {
				m.cursor = len(m.items) - 1
			}

		case "enter":
			if len(m.items) == 0 {
				m.cancelled = true
			}
			m.confirmed = true
		}
	}
	return m, nil
}

// Done reports whether the picker was confirmed or cancelled
func (m PickerModel) Done() bool {
	return m.confirmed
}

// Cancelled reports whether the picker was dismissed without a choice
func (m PickerModel) Cancelled() bool {
	return m.cancelled
}

// Selected returns the chosen item once the picker is confirmed
func (m PickerModel) Selected() (PickerItem, bool) {
	if !m.confirmed || m.cancelled || m.cursor >= len(m.items) {
		return PickerItem{}, false
	}
	return m.items[m.cursor], true
}

// View renders the list
func (m PickerModel) View() string {
	var b strings.Builder

	b.WriteString(pickerTitleStyle.Render(m.title))
	b.WriteString("\n")

	if len(m.items) == 0 {
		b.WriteString(hintStyle.Render("Nothing to choose from."))
		b.WriteString("\n\n")
		b.WriteString(statusDescStyle.Render("esc close"))
		return pickerPanelStyle.Render(b.String())
	}

	// Each item takes two lines; reserve room for the title and footer
	maxVisible := (m.height - 8) / 2
	if maxVisible < 3 {
		maxVisible = 3
	}

	startIdx := 0
	if m.cursor >= maxVisible {
		startIdx = m.cursor - maxVisible + 1
	}
	endIdx := startIdx + maxVisible
	if endIdx > len(m.items) {
		endIdx = len(m.items)
	}

	maxLen := m.width - 12
	if maxLen < 20 {
		maxLen = 20
	}

	for i := startIdx; i < endIdx; i++ {
		item := m.items[i]

		cursor := "  "
		title := truncate(item.Title, maxLen)
		switch {
		case i == m.cursor:
			cursor = pickerCursorStyle.Render("> ")
			title = pickerCursorStyle.Render(title)
		case i == m.current:
			title = pickerSelectedStyle.Render(title)
		default:
			title = pickerItemStyle.Render(title)
		}
		if i == m.current {
			title += pickerSelectedStyle.Render(" ✓")
		}

		b.WriteString(cursor + title + "\n")
		if item.Detail != "" {
			b.WriteString("    " + pickerDetailStyle.Render(truncate(item.Detail, maxLen)) + "\n")
		}
	}

	if len(m.items) > maxVisible {
		b.WriteString(hintStyle.Render(fmt.Sprintf("  %d/%d", m.cursor+1, len(m.items))))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(statusKeyStyle.Render("↑/↓") + " " + statusDescStyle.Render("move") + "  ")
	b.WriteString(statusKeyStyle.Render("enter") + " " + statusDescStyle.Render("select") + "  ")
	b.WriteString(statusKeyStyle.Render("esc") + " " + statusDescStyle.Render("cancel"))

	return pickerPanelStyle.Render(b.String())
}

// ImageItems lists the supported images directly inside dir, sorted by name
func ImageItems(dir string) ([]PickerItem, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", dir, err)
	}

	var items []PickerItem
	for _, entry := range entries {
		if entry.IsDir() || !conversation.IsImagePath(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		items = append(items, PickerItem{
			Title:  entry.Name(),
			Detail: formatSize(info.Size()),
			Value:  filepath.Join(dir, entry.Name()),
		})
	}

	sort.Slice(items, func(i, j int) bool {
		return items[i].Title < items[j].Title
	})
	return items, nil
}

// PersonaItems maps personas to picker rows keyed by name
func PersonaItems(personas []config.Persona) []PickerItem {
	items := make([]PickerItem, len(personas))
	for i, p := range personas {
		items[i] = PickerItem{
			Title:  p.Name,
			Detail: p.Description,
			Value:  p.Name,
		}
	}
	return items
}

func formatSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGT"[exp])
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= 3 {
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}
