package commands

import (
	"io"
	"os"

	"github.com/atotto/clipboard"

	"github.com/diogo/cleansight/internal/api"
	"github.com/diogo/cleansight/internal/config"
	"github.com/diogo/cleansight/internal/conversation"
	"github.com/diogo/cleansight/internal/relay"
	"github.com/diogo/cleansight/internal/tui"
)

// Dependencies holds the external dependencies for the commands.
// This allows for dependency injection and easier testing.
type Dependencies struct {
	// NewGenerator builds the client side transport to the relay.
	NewGenerator func(cfg config.ClientConfig) (conversation.Generator, error)

	// NewUpstream builds the provider client the relay calls.
	NewUpstream func(cfg config.RelayConfig) (relay.Generator, error)

	// RunChat runs the terminal user interface.
	RunChat func(conv tui.Conversation, opts tui.ChatOptions) error

	// CopyToClipboard writes text to the system clipboard.
	CopyToClipboard func(text string) error

	// Stdin supplies piped prompts and "-i -" images.
	Stdin io.Reader
}

// NewDependencies creates a new Dependencies struct with default implementations.
func NewDependencies() *Dependencies {
	return &Dependencies{
		NewGenerator:    newRelayGenerator,
		NewUpstream:     newGeminiUpstream,
		RunChat:         tui.RunChat,
		CopyToClipboard: clipboard.WriteAll,
		Stdin:           os.Stdin,
	}
}

// deps is replaced in tests
var deps = NewDependencies()

func newRelayGenerator(cfg config.ClientConfig) (conversation.Generator, error) {
	client, err := api.NewRelayClient(cfg.RelayURL, api.WithRelayTimeout(cfg.Timeout()))
	if err != nil {
		return nil, err
	}
	return client, nil
}

func newGeminiUpstream(cfg config.RelayConfig) (relay.Generator, error) {
	client, err := api.NewClient(cfg.APIKey,
		api.WithModel(cfg.Model),
		api.WithBaseURL(cfg.BaseURL),
		api.WithTimeout(cfg.Timeout()),
	)
	if err != nil {
		return nil, err
	}
	return client, nil
}
