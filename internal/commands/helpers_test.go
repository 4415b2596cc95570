package commands

import (
	"bytes"
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/diogo/cleansight/internal/config"
	"github.com/diogo/cleansight/internal/conversation"
	"github.com/diogo/cleansight/internal/models"
	"github.com/diogo/cleansight/internal/relay"
	"github.com/diogo/cleansight/internal/tui"
)

// stubGenerator answers every relay call with a canned reply
type stubGenerator struct {
	mu       sync.Mutex
	reply    string
	err      error
	requests []*models.GenerateRequest
}

func (s *stubGenerator) Generate(_ context.Context, req *models.GenerateRequest) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, req)
	return s.reply, s.err
}

func (s *stubGenerator) last() *models.GenerateRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.requests) == 0 {
		return nil
	}
	return s.requests[len(s.requests)-1]
}

// stubUpstream stands in for the provider client behind the relay
type stubUpstream struct {
	closed bool
}

func (s *stubUpstream) GenerateContent(context.Context, *models.GenerateRequest) (*models.ModelOutput, error) {
	return &models.ModelOutput{Candidates: []models.Candidate{{Text: "ok"}}}, nil
}

func (s *stubUpstream) Close() { s.closed = true }

// setupCommand isolates global flags, config and dependencies for one test.
// It returns the config file path the commands will use.
func setupCommand(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv(config.APIKeyEnv, "")
	t.Setenv("GLAMOUR_STYLE", "")

	path := filepath.Join(dir, "config.json")

	configFlag = path
	logLevelFlag, logFileFlag, relayURLFlag, personaFlag = "", "", "", ""
	outputFlag, fileFlag, imageFlag = "", "", ""
	rawFlag = false
	addrFlag = ""
	configForceFlag = false
	chatImageDirFlag = "."

	oldDeps := deps
	deps = NewDependencies()

	t.Cleanup(func() {
		deps = oldDeps
		configFlag = ""
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		_ = rootCmd.Flags().Set("version", "false")
	})
	return path
}

// useGenerator routes client requests to gen and records the config used
func useGenerator(gen conversation.Generator) *config.ClientConfig {
	var seen config.ClientConfig
	deps.NewGenerator = func(cfg config.ClientConfig) (conversation.Generator, error) {
		seen = cfg
		return gen, nil
	}
	return &seen
}

// useUpstream replaces the provider client
func useUpstream(up *stubUpstream) *config.RelayConfig {
	var seen config.RelayConfig
	deps.NewUpstream = func(cfg config.RelayConfig) (relay.Generator, error) {
		seen = cfg
		return up, nil
	}
	return &seen
}

// captureChat records the options the chat would start with
func captureChat() (*tui.ChatOptions, *tui.Conversation) {
	var opts tui.ChatOptions
	var conv tui.Conversation
	deps.RunChat = func(c tui.Conversation, o tui.ChatOptions) error {
		conv, opts = c, o
		return nil
	}
	return &opts, &conv
}

// execute runs the root command with args and returns its stdout
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}
