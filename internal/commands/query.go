package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/diogo/cleansight/internal/config"
	"github.com/diogo/cleansight/internal/conversation"
	"github.com/diogo/cleansight/internal/logging"
	"github.com/diogo/cleansight/internal/models"
	"github.com/diogo/cleansight/internal/render"
	"github.com/diogo/cleansight/internal/tui"
)

// Gradient colors for animation
var gradientColors = []lipgloss.Color{
	lipgloss.Color("#1dd1a1"),
	lipgloss.Color("#10ac84"),
	lipgloss.Color("#00d2d3"),
	lipgloss.Color("#48dbfb"),
	lipgloss.Color("#54a0ff"),
	lipgloss.Color("#feca57"),
}

var (
	colorText     = lipgloss.Color("#d8e8d0")
	colorTextDim  = lipgloss.Color("#6b8f71")
	colorTextMute = lipgloss.Color("#3d5443")
	colorSuccess  = lipgloss.Color("#9ece6a")
	colorWarning  = lipgloss.Color("#f7768e")
	colorPrimary  = lipgloss.Color("#5fd787")
)

// Styles matching the chat TUI
var (
	assistantLabelStyle = lipgloss.NewStyle().
				Foreground(colorPrimary).
				Bold(true)

	assistantBubbleStyle = lipgloss.NewStyle().
				BorderStyle(lipgloss.RoundedBorder()).
				BorderForeground(colorPrimary).
				Foreground(colorText).
				Padding(0, 1).
				MarginTop(1).
				MarginBottom(1)

	verboseStyle = lipgloss.NewStyle().
			Foreground(colorTextDim)
)

// spinner handles the animated loading indicator
type spinner struct {
	message string
	out     io.Writer
	stop    chan struct{}
	done    chan struct{}
	mu      sync.Mutex
	frame   int
	stopped bool
}

func newSpinner(message string) *spinner {
	return &spinner{
		message: message,
		out:     os.Stderr,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// start begins the animation
func (s *spinner) start() {
	go func() {
		defer close(s.done)

		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()

		// Hide cursor
		fmt.Fprint(s.out, "\033[?25l")

		for {
			select {
			case <-s.stop:
				// Clear line and show cursor
				fmt.Fprint(s.out, "\r\033[K\033[?25h")
				return
			case <-ticker.C:
				s.mu.Lock()
				s.render()
				s.frame++
				s.mu.Unlock()
			}
		}
	}()
}

// render draws the current animation frame
func (s *spinner) render() {
	chars := []string{"⣾", "⣽", "⣻", "⢿", "⡿", "⣟", "⣯", "⣷"}
	barChars := []string{"█", "█", "█", "█", "▓", "▒", "░"}

	spinColor := gradientColors[s.frame%len(gradientColors)]
	spinnerChar := lipgloss.NewStyle().Foreground(spinColor).Bold(true).Render(chars[s.frame%len(chars)])

	barWidth := 16
	var bar strings.Builder
	for i := 0; i < barWidth; i++ {
		colorIdx := (i + s.frame) % len(gradientColors)
		charIdx := (i + s.frame/2) % len(barChars)
		bar.WriteString(lipgloss.NewStyle().Foreground(gradientColors[colorIdx]).Render(barChars[charIdx]))
	}

	var dots strings.Builder
	numDots := (s.frame / 3) % 4
	for i := 0; i < 3; i++ {
		if i < numDots {
			dotColor := gradientColors[(s.frame+i)%len(gradientColors)]
			dots.WriteString(lipgloss.NewStyle().Foreground(dotColor).Render("●"))
		} else {
			dots.WriteString(lipgloss.NewStyle().Foreground(colorTextMute).Render("○"))
		}
	}

	msg := lipgloss.NewStyle().Foreground(colorText).Render(s.message)
	fmt.Fprintf(s.out, "\r\033[K%s %s %s %s", spinnerChar, bar.String(), msg, dots.String())
}

// stopOnce safely closes the stop channel only once
func (s *spinner) stopOnce() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.stopped {
		close(s.stop)
		s.stopped = true
	}
}

// stopWithSuccess stops the spinner and shows success message
func (s *spinner) stopWithSuccess(message string) {
	s.stopOnce()
	<-s.done

	checkmark := lipgloss.NewStyle().Foreground(colorSuccess).Bold(true).Render("✓")
	msg := lipgloss.NewStyle().Foreground(colorSuccess).Render(message)
	fmt.Fprintf(s.out, "%s %s\n", checkmark, msg)
}

// stopWithError stops the spinner
func (s *spinner) stopWithError() {
	s.stopOnce()
	<-s.done
}

// runQuery asks a single question through the relay and prints the answer.
// Answers are decorated on a terminal and printed as plain markdown otherwise.
func runQuery(ctx context.Context, out io.Writer, prompt string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	prompt = strings.TrimSpace(prompt)
	if prompt == "" && imageFlag == "" {
		return fmt.Errorf("prompt cannot be empty")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	rawOutput := rawFlag || !isStdoutTTY()

	var logSink io.Writer
	if cfg.Verbose {
		logSink = os.Stderr
	}
	logger, closer, err := logging.New(cfg.Log, logSink)
	if err != nil {
		return err
	}
	defer closer.Close()

	manager, personaName, err := newManager(cfg, logger)
	if err != nil {
		return err
	}

	image, err := imageFromFlag(imageFlag)
	if err != nil {
		return fmt.Errorf("invalid image: %w", err)
	}

	if cfg.Verbose && !rawOutput {
		fmt.Fprintln(os.Stderr, verboseStyle.Render(fmt.Sprintf("[verbose] Relay: %s", cfg.Client.RelayURL)))
		fmt.Fprintln(os.Stderr, verboseStyle.Render(fmt.Sprintf("[verbose] Persona: %s", personaName)))
	}

	var spin *spinner
	if !rawOutput {
		spin = newSpinner("Asking CleanSight")
		spin.start()
	}

	startTime := time.Now()
	turn, err := manager.Submit(ctx, prompt, image)
	requestDuration := time.Since(startTime)
	if err != nil {
		if spin != nil {
			spin.stopWithError()
		}
		return err
	}

	// Submit absorbs failures into a fallback turn, which is printed as the
	// answer. The manager has already logged the cause.
	cause := manager.LastError()
	if spin != nil {
		if cause != nil {
			spin.stopWithError()
		} else {
			spin.stopWithSuccess("Done")
		}
	}

	if cfg.Verbose && !rawOutput {
		if cause != nil {
			fmt.Fprintln(os.Stderr, formatErrorMessage(cause, "[verbose] Request failed"))
		}
		fmt.Fprintln(os.Stderr, verboseStyle.Render(fmt.Sprintf("[verbose] Request took %s", requestDuration.Round(time.Millisecond))))
	}

	if err := writeAnswer(out, cfg, turn.Text, rawOutput); err != nil {
		return err
	}
	if cause != nil {
		return errNoAnswer
	}
	return nil
}

// errNoAnswer marks a run that printed the fallback instead of an answer
var errNoAnswer = errors.New("no answer from CleanSight; enable verbose mode for details")

// stdinImage as the image flag reads the image from standard input
const stdinImage = "-"

// imageFromFlag resolves the image flag; an empty value means no image
func imageFromFlag(value string) (models.ImageRef, error) {
	switch value {
	case "":
		return nil, nil
	case stdinImage:
		data, err := io.ReadAll(io.LimitReader(deps.Stdin, conversation.MaxImageSize+1))
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		img, err := conversation.NewBytesImage("stdin", "", data)
		if err != nil {
			return nil, err
		}
		return img, nil
	default:
		img, err := conversation.NewFileImage(value)
		if err != nil {
			return nil, err
		}
		return img, nil
	}
}

// writeAnswer prints text as markdown, or decorated on a terminal, honoring
// the output and clipboard settings
func writeAnswer(out io.Writer, cfg config.Config, text string, rawOutput bool) error {
	if rawOutput {
		if outputFlag != "" {
			if err := os.WriteFile(outputFlag, []byte(text), 0o644); err != nil {
				return fmt.Errorf("failed to write output file: %w", err)
			}
			return nil
		}
		fmt.Fprintln(out, text)
		return nil
	}

	fmt.Fprintln(os.Stderr)

	if cfg.CopyToClipboard {
		if err := deps.CopyToClipboard(text); err != nil {
			fmt.Fprintln(os.Stderr, lipgloss.NewStyle().Foreground(colorWarning).Render(
				fmt.Sprintf("⚠ Failed to copy to clipboard: %v", err),
			))
		} else {
			fmt.Fprintln(os.Stderr, lipgloss.NewStyle().Foreground(colorSuccess).Render("✓ Copied to clipboard"))
		}
	}

	if outputFlag != "" {
		if err := os.WriteFile(outputFlag, []byte(text), 0o644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		fmt.Fprintln(os.Stderr, lipgloss.NewStyle().Foreground(colorSuccess).Render(
			fmt.Sprintf("✓ Answer saved to %s", outputFlag),
		))
		return nil
	}

	bubbleWidth := getTerminalWidth() - 4
	if bubbleWidth < 40 {
		bubbleWidth = 40
	}
	if bubbleWidth > 120 {
		bubbleWidth = 120
	}
	contentWidth := bubbleWidth - 4

	fmt.Fprintln(out, assistantLabelStyle.Render("🌱 CleanSight"))

	rendered, err := render.Markdown(text, render.OptionsFromConfigWithWidth(cfg.Markdown, contentWidth))
	if err != nil {
		rendered = text
	}
	rendered = strings.TrimRight(rendered, "\n")

	fmt.Fprintln(out, assistantBubbleStyle.Width(bubbleWidth).Render(rendered))
	return nil
}

// getTerminalWidth returns the terminal width or a default value
func getTerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 80
	}
	return width
}

// isStdoutTTY returns true if stdout is connected to a terminal
func isStdoutTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// formatErrorMessage prefixes err with what was being attempted and styles
// it like the chat does
func formatErrorMessage(err error, context string) string {
	if err == nil {
		return ""
	}
	return tui.FormatError(fmt.Errorf("%s: %w", context, err))
}
