// Package conversation owns the chat history and turns each submission into
// a provider request sent through the relay.
package conversation

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	apierrors "github.com/diogo/cleansight/internal/errors"
	"github.com/diogo/cleansight/internal/models"
)

// Defaults used when no option overrides them
const (
	DefaultWindowSize = 10
	DefaultTimeout    = 90 * time.Second
)

// Generator sends a request and returns the reply text.
// *api.RelayClient implements it.
type Generator interface {
	Generate(ctx context.Context, req *models.GenerateRequest) (string, error)
}

// Manager holds the turns of one conversation. Submissions are serialized;
// History and Window may be called while a submission is in flight.
type Manager struct {
	gen        Generator
	preamble   string
	genConfig  *models.GenerationConfig
	windowSize int
	timeout    time.Duration
	logger     zerolog.Logger
	now        func() time.Time

	submitMu sync.Mutex

	mu      sync.RWMutex
	turns   []models.Turn
	epoch   uint64
	lastErr error
}

// Option configures a Manager
type Option func(*Manager)

// WithWindowSize sets how many prior turns are sent as context
func WithWindowSize(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.windowSize = n
		}
	}
}

// WithPreamble sets the instruction text sent with every submission
func WithPreamble(preamble string) Option {
	return func(m *Manager) {
		m.preamble = preamble
	}
}

// WithGenerationConfig sets the sampling parameters sent with every request
func WithGenerationConfig(gc *models.GenerationConfig) Option {
	return func(m *Manager) {
		m.genConfig = gc
	}
}

// WithTimeout bounds each relay call
func WithTimeout(timeout time.Duration) Option {
	return func(m *Manager) {
		if timeout > 0 {
			m.timeout = timeout
		}
	}
}

// WithLogger sets the logger used for absorbed failures
func WithLogger(logger zerolog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithClock overrides the turn timestamp source
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// NewManager creates an empty conversation
func NewManager(gen Generator, opts ...Option) *Manager {
	m := &Manager{
		gen:        gen,
		preamble:   models.DefaultPreamble,
		windowSize: DefaultWindowSize,
		timeout:    DefaultTimeout,
		logger:     zerolog.Nop(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Submit records a user turn, asks the relay for a reply and records the
// assistant turn, which is returned. Relay and image failures are absorbed
// into a fallback reply; the only error is ErrEmptySubmission.
func (m *Manager) Submit(ctx context.Context, text string, image models.ImageRef) (models.Turn, error) {
	text = strings.TrimSpace(text)
	if text == "" && image == nil {
		return models.Turn{}, apierrors.ErrEmptySubmission
	}

	m.submitMu.Lock()
	defer m.submitMu.Unlock()

	display := text
	if display == "" {
		display = models.ImageUploadedMarker
	}

	m.mu.Lock()
	window := ContextWindow(m.turns, m.windowSize)
	m.turns = append(m.turns, models.Turn{
		Role:       models.TurnUser,
		Text:       display,
		Attachment: image,
		CreatedAt:  m.now(),
	})
	epoch := m.epoch
	m.mu.Unlock()

	reply, err := m.generate(ctx, window, text, image)

	m.mu.Lock()
	defer m.mu.Unlock()

	turn := models.Turn{
		Role:      models.TurnAssistant,
		Text:      reply,
		CreatedAt: m.now(),
	}
	// Clear ran while the relay call was in flight
	if m.epoch != epoch {
		return turn, nil
	}
	m.lastErr = err
	m.turns = append(m.turns, turn)
	return turn, nil
}

// generate builds and sends the request, returning the assistant text
func (m *Manager) generate(ctx context.Context, window []models.Turn, text string, image models.ImageRef) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	start := time.Now()
	var inline *models.InlineDataPart
	if image != nil {
		var err error
		inline, err = EncodeImage(ctx, image)
		if err != nil {
			m.logger.Error().Err(err).Str("image", image.Name()).Msg("image encoding failed")
			return models.FallbackClientError, err
		}
	}

	req := BuildRequest(window, m.Preamble(), text, inline)
	req.GenerationConfig = m.genConfig
	reply, err := m.gen.Generate(ctx, req)
	if err != nil {
		event := m.logger.Error().Err(err).
			Int("window", len(window)).
			Dur("elapsed", time.Since(start))
		if status := apierrors.GetHTTPStatus(err); status != 0 {
			event = event.Int("status", status)
		}
		if errors.Is(err, context.DeadlineExceeded) || apierrors.IsTimeoutError(err) {
			event = event.Bool("timeout", true)
		}
		event.Msg("relay call failed")
		return models.FallbackClientError, err
	}

	m.logger.Debug().
		Int("window", len(window)).
		Int("entries", len(req.Contents)).
		Bool("image", inline != nil).
		Dur("elapsed", time.Since(start)).
		Msg("reply received")

	return FormatReply(reply), nil
}

// History returns a copy of all turns in order
func (m *Manager) History() []models.Turn {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.Turn, len(m.turns))
	copy(out, m.turns)
	return out
}

// Window returns the turns the next submission would send as context
func (m *Manager) Window() []models.Turn {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return ContextWindow(m.turns, m.windowSize)
}

// Preamble returns the instruction text sent with the next submission
func (m *Manager) Preamble() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.preamble
}

// SetPreamble replaces the instruction text. History is kept.
func (m *Manager) SetPreamble(preamble string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.preamble = preamble
}

// WindowSize returns the configured context window length
func (m *Manager) WindowSize() int {
	return m.windowSize
}

// Len returns the number of turns
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.turns)
}

// LastReply returns the text of the most recent assistant turn
func (m *Manager) LastReply() (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for i := len(m.turns) - 1; i >= 0; i-- {
		if m.turns[i].Role == models.TurnAssistant {
			return m.turns[i].Text, true
		}
	}
	return "", false
}

// LastError returns the failure absorbed by the most recent submission
func (m *Manager) LastError() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastErr
}

// Clear drops all turns. A submission in flight completes without
// appending its reply.
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.turns = nil
	m.lastErr = nil
	m.epoch++
}
