package api

import (
	"bytes"
	"io"

	fhttp "github.com/bogdanfinn/fhttp"
	tls_client "github.com/bogdanfinn/tls-client"
)

// MockHttpClient answers every Do with a canned response and records what it
// was sent. Methods the clients never call fall through to the nil embedded
// interface and panic.
type MockHttpClient struct {
	tls_client.HttpClient

	Response *fhttp.Response
	Err      error

	Calls       int
	LastRequest *fhttp.Request
	LastBody    []byte
	closedIdle  bool
}

func (m *MockHttpClient) Do(req *fhttp.Request) (*fhttp.Response, error) {
	m.Calls++
	m.LastRequest = req
	if req != nil && req.Body != nil {
		m.LastBody, _ = io.ReadAll(req.Body)
	}
	return m.Response, m.Err
}

func (m *MockHttpClient) CloseIdleConnections() {
	m.closedIdle = true
}

// NewMockHttpClient returns a client whose response has the given status and body
func NewMockHttpClient(body []byte, statusCode int) *MockHttpClient {
	return &MockHttpClient{
		Response: &fhttp.Response{
			StatusCode: statusCode,
			Body:       io.NopCloser(bytes.NewReader(body)),
			Header:     make(fhttp.Header),
		},
	}
}

// NewMockHttpClientWithError returns a client whose Do fails with err
func NewMockHttpClientWithError(err error) *MockHttpClient {
	return &MockHttpClient{Err: err}
}
