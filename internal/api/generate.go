package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"

	http "github.com/bogdanfinn/fhttp"
	"github.com/tidwall/gjson"

	apierrors "github.com/diogo/cleansight/internal/errors"
	"github.com/diogo/cleansight/internal/models"
)

// GenerateContent forwards a generateContent request to the provider and
// returns the parsed candidates. A well-formed response without candidates
// is not an error: callers substitute their own fallback text.
func (c *GeminiClient) GenerateContent(ctx context.Context, req *models.GenerateRequest) (*models.ModelOutput, error) {
	if req == nil || len(req.Contents) == 0 {
		return nil, apierrors.ErrNoContents
	}

	if c.IsClosed() {
		return nil, apierrors.ErrClientClosed
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	endpoint := c.Endpoint()
	target := endpoint + "?" + url.Values{models.APIKeyParam: {c.apiKey}}.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", c.redact(err))
	}

	for key, value := range models.DefaultHeaders() {
		httpReq.Header.Set(key, value)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if isTimeout(ctx, err) {
			return nil, apierrors.NewTimeoutError(fmt.Sprintf("generate content after %s", c.timeout))
		}
		return nil, apierrors.NewNetworkError("generate content", endpoint, c.redact(err))
	}
	defer func() {
		if resp != nil && resp.Body != nil {
			_ = resp.Body.Close()
		}
	}()

	if resp.StatusCode != http.StatusOK {
		errorBody, _ := io.ReadAll(io.LimitReader(resp.Body, MaxErrorBodySize))
		message := gjson.GetBytes(errorBody, PathProviderErrorMsg).String()
		if message == "" {
			message = "generate content failed"
		}
		return nil, apierrors.NewAPIErrorWithBody(resp.StatusCode, endpoint, message, string(errorBody))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseBodySize))
	if err != nil {
		if isTimeout(ctx, err) {
			return nil, apierrors.NewTimeoutError("reading generate content response")
		}
		return nil, apierrors.NewNetworkError("read response", endpoint, c.redact(err))
	}

	return parseResponse(body)
}

// parseResponse extracts candidates from a generateContent response body
func parseResponse(body []byte) (*models.ModelOutput, error) {
	if !gjson.ValidBytes(body) {
		return nil, apierrors.NewParseError("response is not valid JSON", "")
	}

	root := gjson.ParseBytes(body)
	if !root.IsObject() {
		return nil, apierrors.NewParseError("response is not a JSON object", "")
	}

	output := &models.ModelOutput{
		ModelVersion: root.Get(PathModelVersion).String(),
		BlockReason:  root.Get(PathBlockReason).String(),
	}

	candidates := root.Get(PathCandidates)
	if !candidates.Exists() {
		return output, nil
	}
	if !candidates.IsArray() {
		return nil, apierrors.NewParseError("candidates is not an array", PathCandidates)
	}

	candidates.ForEach(func(_, cand gjson.Result) bool {
		output.Candidates = append(output.Candidates, models.Candidate{
			Text:         cand.Get(PathCandText).String(),
			FinishReason: cand.Get(PathCandFinishReason).String(),
		})
		return true
	})

	return output, nil
}

// isTimeout reports whether err came from the call's deadline
func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var te interface{ Timeout() bool }
	return errors.As(err, &te) && te.Timeout()
}
