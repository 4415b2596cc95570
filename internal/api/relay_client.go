package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	http "github.com/bogdanfinn/fhttp"
	tls_client "github.com/bogdanfinn/tls-client"
	"github.com/tidwall/gjson"

	apierrors "github.com/diogo/cleansight/internal/errors"
	"github.com/diogo/cleansight/internal/models"
)

// DefaultRelayTimeout is longer than the relay's own upstream timeout so the
// relay's error body reaches the client before this side gives up.
const DefaultRelayTimeout = 90 * time.Second

// RelayClient posts conversation requests to a CleanSight relay. It holds no
// provider credential.
type RelayClient struct {
	httpClient tls_client.HttpClient
	url        string
	timeout    time.Duration
}

// RelayOption configures a RelayClient
type RelayOption func(*RelayClient)

// WithRelayTimeout sets the per-call timeout
func WithRelayTimeout(timeout time.Duration) RelayOption {
	return func(c *RelayClient) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithRelayHTTPClient injects the HTTP client, mainly for tests
func WithRelayHTTPClient(httpClient tls_client.HttpClient) RelayOption {
	return func(c *RelayClient) {
		c.httpClient = httpClient
	}
}

// NewRelayClient creates a client for the relay at relayURL
func NewRelayClient(relayURL string, opts ...RelayOption) (*RelayClient, error) {
	if strings.TrimSpace(relayURL) == "" {
		return nil, apierrors.NewConfigError("client.relay_url", fmt.Errorf("is required"))
	}

	client := &RelayClient{
		url:     relayURL,
		timeout: DefaultRelayTimeout,
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

// URL returns the relay endpoint
func (c *RelayClient) URL() string {
	return c.url
}

// Generate sends req to the relay and returns the reply text. The relay
// substitutes its own fallback when the provider returns no candidate, so an
// empty reply here is passed through unchanged.
func (c *RelayClient) Generate(ctx context.Context, req *models.GenerateRequest) (string, error) {
	if req == nil || len(req.Contents) == 0 {
		return "", apierrors.ErrNoContents
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	for key, value := range models.DefaultHeaders() {
		httpReq.Header.Set(key, value)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if isTimeout(ctx, err) {
			return "", apierrors.NewTimeoutError(fmt.Sprintf("relay call after %s", c.timeout))
		}
		return "", apierrors.NewNetworkError("relay generate", c.url, err)
	}
	defer func() {
		if resp != nil && resp.Body != nil {
			_ = resp.Body.Close()
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		errorBody, _ := io.ReadAll(io.LimitReader(resp.Body, MaxErrorBodySize))
		message := gjson.GetBytes(errorBody, PathRelayError).String()
		if message == "" {
			message = "relay call failed"
		}
		return "", apierrors.NewAPIErrorWithBody(resp.StatusCode, c.url, message, string(errorBody))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseBodySize))
	if err != nil {
		return "", apierrors.NewNetworkError("read relay response", c.url, err)
	}

	reply := gjson.GetBytes(body, PathReply)
	if !gjson.ValidBytes(body) || !reply.Exists() || reply.Type != gjson.String {
		return "", apierrors.NewParseError("relay response has no reply string", PathReply)
	}

	return reply.String(), nil
}
