package api

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	tls_client "github.com/bogdanfinn/tls-client"
	"github.com/bogdanfinn/tls-client/profiles"

	apierrors "github.com/diogo/cleansight/internal/errors"
	"github.com/diogo/cleansight/internal/models"
)

// DefaultTimeout bounds a single provider call
const DefaultTimeout = 60 * time.Second

// GeminiClient calls the provider's generateContent endpoint with a
// server-held API key.
type GeminiClient struct {
	httpClient tls_client.HttpClient
	apiKey     string
	baseURL    string
	model      string
	timeout    time.Duration
	mu         sync.RWMutex
	closed     bool
}

// ClientOption is a function that configures the client
type ClientOption func(*GeminiClient)

// WithModel sets the model identifier
func WithModel(model string) ClientOption {
	return func(c *GeminiClient) {
		if model != "" {
			c.model = model
		}
	}
}

// WithBaseURL overrides the provider base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *GeminiClient) {
		if baseURL != "" {
			c.baseURL = baseURL
		}
	}
}

// WithTimeout sets the per-call timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *GeminiClient) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithHTTPClient injects the HTTP client, mainly for tests
func WithHTTPClient(httpClient tls_client.HttpClient) ClientOption {
	return func(c *GeminiClient) {
		c.httpClient = httpClient
	}
}

// NewClient creates a new GeminiClient. An empty key is rejected so a
// misconfigured relay fails at startup instead of sending blank credentials.
func NewClient(apiKey string, opts ...ClientOption) (*GeminiClient, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, apierrors.NewConfigError("api key", apierrors.ErrMissingAPIKey)
	}

	client := &GeminiClient{
		apiKey:  apiKey,
		baseURL: models.DefaultBaseURL,
		model:   models.DefaultModel,
		timeout: DefaultTimeout,
	}

	for _, opt := range opts {
		opt(client)
	}

	if client.httpClient == nil {
		httpClient, err := newHTTPClient(client.timeout)
		if err != nil {
			return nil, err
		}
		client.httpClient = httpClient
	}

	return client, nil
}

// newHTTPClient creates the TLS client shared by both API clients
func newHTTPClient(timeout time.Duration) (tls_client.HttpClient, error) {
	seconds := int(timeout / time.Second)
	if seconds <= 0 {
		seconds = int(DefaultTimeout / time.Second)
	}

	options := []tls_client.HttpClientOption{
		tls_client.WithTimeoutSeconds(seconds),
		tls_client.WithClientProfile(profiles.Chrome_120),
		tls_client.WithNotFollowRedirects(),
	}

	httpClient, err := tls_client.NewHttpClient(tls_client.NewNoopLogger(), options...)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}
	return httpClient, nil
}

// Close marks the client closed and releases idle connections
func (c *GeminiClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	c.httpClient.CloseIdleConnections()
}

// IsClosed returns whether the client is closed
func (c *GeminiClient) IsClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

// GetModel returns the configured model
func (c *GeminiClient) GetModel() string {
	return c.model
}

// Endpoint returns the generateContent URL without the credential. It is the
// only form of the URL that may appear in logs or errors.
func (c *GeminiClient) Endpoint() string {
	return models.GenerateURL(c.baseURL, c.model)
}

// redact removes the API key from an error message. Transport errors quote
// the full request URL, query string included.
func (c *GeminiClient) redact(err error) error {
	if err == nil || c.apiKey == "" {
		return err
	}
	msg := err.Error()
	if !strings.Contains(msg, c.apiKey) {
		return err
	}
	return errors.New(strings.ReplaceAll(msg, c.apiKey, "[redacted]"))
}
