// Package config handles configuration for the CleanSight relay and client.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	apierrors "github.com/diogo/cleansight/internal/errors"
	"github.com/diogo/cleansight/internal/models"
)

// EnvPrefix is the prefix of every configuration environment variable
const EnvPrefix = "CLEANSIGHT"

// APIKeyEnv is the conventional variable holding the provider key
const APIKeyEnv = "GEMINI_API_KEY"

// MarkdownConfig configures markdown rendering options
type MarkdownConfig struct {
	Style             string `json:"style" mapstructure:"style"`                           // glamour style name or path to JSON theme
	EnableEmoji       bool   `json:"enable_emoji" mapstructure:"enable_emoji"`             // Convert :emoji: to unicode
	PreserveNewLines  bool   `json:"preserve_newlines" mapstructure:"preserve_newlines"`   // Preserve original line breaks
	TableWrap         bool   `json:"table_wrap" mapstructure:"table_wrap"`                 // Enable word wrap in table cells
	InlineTableLinks  bool   `json:"inline_table_links" mapstructure:"inline_table_links"` // Render links inline in tables
	HighlightKeywords bool   `json:"highlight_keywords" mapstructure:"highlight_keywords"` // Bold recycling keywords with emoji
}

// RelayConfig configures the server side that holds the provider credential
type RelayConfig struct {
	Addr    string `json:"addr" mapstructure:"addr"`
	BaseURL string `json:"base_url" mapstructure:"base_url"`
	Model   string `json:"model" mapstructure:"model"`
	// APIKey is normally supplied through GEMINI_API_KEY rather than the file.
	APIKey         string `json:"api_key,omitempty" mapstructure:"api_key"`
	TimeoutSeconds int    `json:"timeout_seconds" mapstructure:"timeout_seconds"`
	MaxBodyBytes   int64  `json:"max_body_bytes" mapstructure:"max_body_bytes"`
	AllowedOrigin  string `json:"allowed_origin" mapstructure:"allowed_origin"`
}

// ClientConfig configures the conversation side
type ClientConfig struct {
	RelayURL string `json:"relay_url" mapstructure:"relay_url"`
	// WindowSize is the number of prior turns sent as context.
	WindowSize     int    `json:"window_size" mapstructure:"window_size"`
	TimeoutSeconds int    `json:"timeout_seconds" mapstructure:"timeout_seconds"`
	Preamble       string `json:"preamble,omitempty" mapstructure:"preamble"`
	PreambleName   string `json:"preamble_name" mapstructure:"preamble_name"`
	// Temperature and MaxOutputTokens are sent as generationConfig when set.
	Temperature     *float64 `json:"temperature,omitempty" mapstructure:"temperature"`
	MaxOutputTokens int      `json:"max_output_tokens,omitempty" mapstructure:"max_output_tokens"`
}

// LogConfig configures zerolog output
type LogConfig struct {
	Level  string `json:"level" mapstructure:"level"`
	Format string `json:"format" mapstructure:"format"` // "console" or "json"
	File   string `json:"file,omitempty" mapstructure:"file"`
}

// Config represents the user configuration
type Config struct {
	Relay    RelayConfig    `json:"relay" mapstructure:"relay"`
	Client   ClientConfig   `json:"client" mapstructure:"client"`
	Log      LogConfig      `json:"log" mapstructure:"log"`
	Markdown MarkdownConfig `json:"markdown" mapstructure:"markdown"`
	// Verbose enables request timing output in the one-shot command.
	Verbose         bool   `json:"verbose" mapstructure:"verbose"`
	CopyToClipboard bool   `json:"copy_to_clipboard" mapstructure:"copy_to_clipboard"`
	TUITheme        string `json:"tui_theme,omitempty" mapstructure:"tui_theme"`
}

// DefaultMarkdownConfig returns the default markdown configuration
func DefaultMarkdownConfig() MarkdownConfig {
	return MarkdownConfig{
		Style:             "dark",
		EnableEmoji:       true,
		PreserveNewLines:  true,
		TableWrap:         true,
		InlineTableLinks:  false,
		HighlightKeywords: true,
	}
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		Relay: RelayConfig{
			Addr:           "localhost:3000",
			BaseURL:        models.DefaultBaseURL,
			Model:          models.DefaultModel,
			TimeoutSeconds: 60,
			MaxBodyBytes:   25 << 20,
			AllowedOrigin:  "*",
		},
		Client: ClientConfig{
			RelayURL:       "http://localhost:3000" + models.RelayPath,
			WindowSize:     10,
			TimeoutSeconds: 90,
			PreambleName:   DefaultPreambleName,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Markdown: DefaultMarkdownConfig(),
		TUITheme: "cleansight",
	}
}

// Timeout returns the upstream call timeout
func (r RelayConfig) Timeout() time.Duration {
	return time.Duration(r.TimeoutSeconds) * time.Second
}

// Validate checks the relay settings needed to serve requests. It is meant to
// run once at startup so a missing key fails fast.
func (r RelayConfig) Validate() error {
	if strings.TrimSpace(r.APIKey) == "" {
		return apierrors.NewConfigError("relay.api_key", apierrors.ErrMissingAPIKey)
	}
	if r.TimeoutSeconds <= 0 {
		return apierrors.NewConfigError("relay.timeout_seconds", fmt.Errorf("must be positive, got %d", r.TimeoutSeconds))
	}
	if r.MaxBodyBytes <= 0 {
		return apierrors.NewConfigError("relay.max_body_bytes", fmt.Errorf("must be positive, got %d", r.MaxBodyBytes))
	}
	return nil
}

// Timeout returns the relay call timeout
func (c ClientConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Validate checks the client settings
func (c ClientConfig) Validate() error {
	if c.WindowSize < 1 {
		return apierrors.NewConfigError("client.window_size", fmt.Errorf("must be at least 1, got %d", c.WindowSize))
	}
	if c.TimeoutSeconds <= 0 {
		return apierrors.NewConfigError("client.timeout_seconds", fmt.Errorf("must be positive, got %d", c.TimeoutSeconds))
	}
	if c.RelayURL == "" {
		return apierrors.NewConfigError("client.relay_url", fmt.Errorf("is required"))
	}
	if c.Temperature != nil && (*c.Temperature < 0 || *c.Temperature > 2) {
		return apierrors.NewConfigError("client.temperature", fmt.Errorf("must be between 0 and 2, got %g", *c.Temperature))
	}
	if c.MaxOutputTokens < 0 {
		return apierrors.NewConfigError("client.max_output_tokens", fmt.Errorf("must not be negative, got %d", c.MaxOutputTokens))
	}
	return nil
}

// GenerationConfig returns the sampling settings to forward, or nil when
// the provider defaults apply
func (c ClientConfig) GenerationConfig() *models.GenerationConfig {
	if c.Temperature == nil && c.MaxOutputTokens == 0 {
		return nil
	}
	gc := &models.GenerationConfig{MaxOutputTokens: c.MaxOutputTokens}
	if c.Temperature != nil {
		t := *c.Temperature
		gc.Temperature = &t
	}
	return gc
}

// GetConfigDir returns the configuration directory path
func GetConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	return filepath.Join(home, ".cleansight"), nil
}

// GetConfigPath returns the path to the config file
func GetConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.json"), nil
}

// LoadConfigFrom loads the configuration from path, layering environment
// variables (CLEANSIGHT_RELAY_MODEL, CLEANSIGHT_CLIENT_WINDOW_SIZE, ...) and
// GEMINI_API_KEY on top. A missing file yields the defaults.
func LoadConfigFrom(path string) (Config, error) {
	v := newViper()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			v.SetConfigType("json")
			if err := v.ReadInConfig(); err != nil {
				return DefaultConfig(), fmt.Errorf("failed to read config file: %w", err)
			}
		} else if !os.IsNotExist(err) {
			return DefaultConfig(), fmt.Errorf("failed to stat config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// newViper registers every key with its default so AutomaticEnv can
// override keys that are absent from the file.
func newViper() *viper.Viper {
	v := viper.New()
	def := DefaultConfig()

	defaults := map[string]any{
		"relay.addr":                  def.Relay.Addr,
		"relay.base_url":              def.Relay.BaseURL,
		"relay.model":                 def.Relay.Model,
		"relay.api_key":               def.Relay.APIKey,
		"relay.timeout_seconds":       def.Relay.TimeoutSeconds,
		"relay.max_body_bytes":        def.Relay.MaxBodyBytes,
		"relay.allowed_origin":        def.Relay.AllowedOrigin,
		"client.relay_url":            def.Client.RelayURL,
		"client.window_size":          def.Client.WindowSize,
		"client.timeout_seconds":      def.Client.TimeoutSeconds,
		"client.preamble":             def.Client.Preamble,
		"client.preamble_name":        def.Client.PreambleName,
		"client.max_output_tokens":    def.Client.MaxOutputTokens,
		"log.level":                   def.Log.Level,
		"log.format":                  def.Log.Format,
		"log.file":                    def.Log.File,
		"markdown.style":              def.Markdown.Style,
		"markdown.enable_emoji":       def.Markdown.EnableEmoji,
		"markdown.preserve_newlines":  def.Markdown.PreserveNewLines,
		"markdown.table_wrap":         def.Markdown.TableWrap,
		"markdown.inline_table_links": def.Markdown.InlineTableLinks,
		"markdown.highlight_keywords": def.Markdown.HighlightKeywords,
		"verbose":                     def.Verbose,
		"copy_to_clipboard":           def.CopyToClipboard,
		"tui_theme":                   def.TUITheme,
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("relay.api_key", EnvPrefix+"_RELAY_API_KEY", APIKeyEnv)
	// No default, so absent stays nil
	_ = v.BindEnv("client.temperature", EnvPrefix+"_CLIENT_TEMPERATURE")

	return v
}

// SaveConfigTo writes cfg as indented JSON to path
func SaveConfigTo(path string, cfg Config) error {
	cfg.Relay.APIKey = ""

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Redacted returns a copy safe to print
func (c Config) Redacted() Config {
	if c.Relay.APIKey != "" {
		c.Relay.APIKey = "********"
	}
	return c
}
