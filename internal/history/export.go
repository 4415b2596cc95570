// Package history exports the in-memory conversation as a transcript.
// Nothing is written unless the user asks for it.
package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/diogo/cleansight/internal/models"
)

// ExportFormat represents the format for exporting conversations
type ExportFormat string

const (
	ExportFormatMarkdown ExportFormat = "markdown"
	ExportFormatJSON     ExportFormat = "json"
)

// ExportOptions configures how conversations are exported
type ExportOptions struct {
	Format            ExportFormat
	Title             string
	Model             string
	IncludeTimestamps bool
	Now               func() time.Time
}

// DefaultExportOptions returns sensible defaults for export
func DefaultExportOptions() ExportOptions {
	return ExportOptions{
		Format:            ExportFormatMarkdown,
		Title:             "CleanSight conversation",
		IncludeTimestamps: true,
		Now:               time.Now,
	}
}

func (o ExportOptions) now() time.Time {
	if o.Now == nil {
		return time.Now()
	}
	return o.Now()
}

// FormatFromPath picks the export format from a file extension
func FormatFromPath(path string) ExportFormat {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return ExportFormatJSON
	}
	return ExportFormatMarkdown
}

func roleLabel(role models.TurnRole) string {
	if role == models.TurnAssistant {
		return "Assistant"
	}
	return "User"
}

// ExportMarkdown renders turns as a Markdown transcript. Assistant turns
// already carry their own heading, so each turn is introduced by a bold
// label rather than a heading.
func ExportMarkdown(turns []models.Turn, opts ExportOptions) string {
	var sb strings.Builder

	title := opts.Title
	if title == "" {
		title = DefaultExportOptions().Title
	}
	sb.WriteString("# ")
	sb.WriteString(title)
	sb.WriteString("\n\n")

	if opts.Model != "" {
		sb.WriteString("**Model:** ")
		sb.WriteString(opts.Model)
		sb.WriteString("\n")
	}
	sb.WriteString("**Exported:** ")
	sb.WriteString(opts.now().Format("2006-01-02 15:04:05"))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("**Turns:** %d", len(turns)))
	sb.WriteString("\n\n---\n\n")

	for i, turn := range turns {
		sb.WriteString("**")
		sb.WriteString(roleLabel(turn.Role))
		sb.WriteString("**")
		if opts.IncludeTimestamps && !turn.CreatedAt.IsZero() {
			sb.WriteString(" (")
			sb.WriteString(turn.CreatedAt.Format("15:04:05"))
			sb.WriteString(")")
		}
		sb.WriteString("\n\n")

		if turn.HasAttachment() {
			sb.WriteString("📎 ")
			sb.WriteString(turn.Attachment.Name())
			sb.WriteString("\n\n")
		}

		sb.WriteString(turn.Text)
		sb.WriteString("\n")

		if i < len(turns)-1 {
			sb.WriteString("\n---\n\n")
		}
	}

	return sb.String()
}

// ExportMessage is one turn in a JSON transcript
type ExportMessage struct {
	Role       string     `json:"role"`
	Content    string     `json:"content"`
	Attachment string     `json:"attachment,omitempty"`
	Timestamp  *time.Time `json:"timestamp,omitempty"`
}

// ExportConversation is the JSON transcript document
type ExportConversation struct {
	Title      string          `json:"title"`
	Model      string          `json:"model,omitempty"`
	ExportedAt time.Time       `json:"exported_at"`
	Messages   []ExportMessage `json:"messages"`
}

// ExportJSON renders turns as an indented JSON document
func ExportJSON(turns []models.Turn, opts ExportOptions) ([]byte, error) {
	title := opts.Title
	if title == "" {
		title = DefaultExportOptions().Title
	}

	export := ExportConversation{
		Title:      title,
		Model:      opts.Model,
		ExportedAt: opts.now(),
		Messages:   make([]ExportMessage, len(turns)),
	}

	for i, turn := range turns {
		msg := ExportMessage{
			Role:    string(turn.Role),
			Content: turn.Text,
		}
		if turn.HasAttachment() {
			msg.Attachment = turn.Attachment.Name()
		}
		if opts.IncludeTimestamps && !turn.CreatedAt.IsZero() {
			ts := turn.CreatedAt
			msg.Timestamp = &ts
		}
		export.Messages[i] = msg
	}

	return json.MarshalIndent(export, "", "  ")
}

// WriteFile exports turns to path, choosing the format from its extension
// unless opts.Format is set to JSON.
func WriteFile(path string, turns []models.Turn, opts ExportOptions) error {
	if len(turns) == 0 {
		return fmt.Errorf("nothing to export")
	}

	format := opts.Format
	if format == "" || format == ExportFormatMarkdown {
		format = FormatFromPath(path)
	}

	var data []byte
	switch format {
	case ExportFormatJSON:
		var err error
		data, err = ExportJSON(turns, opts)
		if err != nil {
			return fmt.Errorf("failed to encode transcript: %w", err)
		}
	default:
		data = []byte(ExportMarkdown(turns, opts))
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write transcript: %w", err)
	}
	return nil
}
