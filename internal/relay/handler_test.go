package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/ut"
	"github.com/cloudwego/hertz/pkg/protocol"
	"github.com/cloudwego/hertz/pkg/route"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "github.com/diogo/cleansight/internal/errors"
	"github.com/diogo/cleansight/internal/models"
)

const secretKey = "AIza-secret-test-key"

// fakeGenerator counts upstream calls and returns a canned result
type fakeGenerator struct {
	calls atomic.Int32
	out   *models.ModelOutput
	err   error
	panic bool
	last  *models.GenerateRequest
}

func (f *fakeGenerator) GenerateContent(_ context.Context, req *models.GenerateRequest) (*models.ModelOutput, error) {
	f.calls.Add(1)
	f.last = req
	if f.panic {
		panic("boom")
	}
	return f.out, f.err
}

func textOutput(text string) *models.ModelOutput {
	return &models.ModelOutput{Candidates: []models.Candidate{{Text: text, FinishReason: "STOP"}}}
}

const validBody = `{"contents":[{"role":"user","parts":[{"text":"How do I recycle a jar?"}]}]}`

// handlerEngine routes the relay path to h alone, without middleware
func handlerEngine(h *Handler) *route.Engine {
	srv := server.New()
	srv.Any(models.RelayPath, h.Handle)
	return srv.Engine
}

func do(t *testing.T, engine *route.Engine, method, body string, headers ...ut.Header) *protocol.Response {
	t.Helper()
	headers = append(headers, ut.Header{Key: "Content-Type", Value: "application/json"})
	w := ut.PerformRequest(engine, method, models.RelayPath,
		&ut.Body{Body: strings.NewReader(body), Len: len(body)}, headers...)
	return w.Result()
}

func decodeBody(t *testing.T, resp *protocol.Response) map[string]string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(resp.Body(), &body), "body: %s", resp.Body())
	return body
}

func TestHandlerMethodNotAllowed(t *testing.T) {
	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete, http.MethodPatch} {
		t.Run(method, func(t *testing.T) {
			gen := &fakeGenerator{out: textOutput("unused")}
			rec := do(t, handlerEngine(NewHandler(gen, 0)), method, validBody)

			assert.Equal(t, http.StatusMethodNotAllowed, rec.StatusCode())
			assert.Equal(t, models.MsgMethodNotAllowed, decodeBody(t, rec)["error"])
			assert.Equal(t, http.MethodPost, rec.Header.Get("Allow"))
			assert.Zero(t, gen.calls.Load())
		})
	}
}

func TestHandlerNoContents(t *testing.T) {
	bodies := map[string]string{
		"missing field": `{"messages":[]}`,
		"null":          `{"contents":null}`,
		"empty list":    `{"contents":[]}`,
		"false":         `{"contents":false}`,
		"empty string":  `{"contents":""}`,
		"empty object":  `{}`,
		"json null":     `null`,
		"empty body":    ``,
		"whitespace":    " \n\t",
	}
	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			gen := &fakeGenerator{out: textOutput("unused")}
			rec := do(t, handlerEngine(NewHandler(gen, 0)), http.MethodPost, body)

			assert.Equal(t, http.StatusBadRequest, rec.StatusCode())
			assert.Equal(t, models.MsgNoContents, decodeBody(t, rec)["error"])
			assert.Zero(t, gen.calls.Load())
		})
	}
}

func TestHandlerInvalidJSON(t *testing.T) {
	for name, body := range map[string]string{
		"truncated": `{"contents":[`,
		"not json":  `hello`,
		"bad part":  `{"contents":[{"role":"user","parts":[{}]}]}`,
	} {
		t.Run(name, func(t *testing.T) {
			gen := &fakeGenerator{out: textOutput("unused")}
			rec := do(t, handlerEngine(NewHandler(gen, 0)), http.MethodPost, body)

			assert.Equal(t, http.StatusBadRequest, rec.StatusCode())
			assert.Equal(t, models.MsgInvalidJSON, decodeBody(t, rec)["error"])
			assert.Zero(t, gen.calls.Load())
		})
	}
}

func TestHandlerBodyTooLarge(t *testing.T) {
	gen := &fakeGenerator{out: textOutput("unused")}
	body := `{"contents":[{"role":"user","parts":[{"text":"` + strings.Repeat("a", 512) + `"}]}]}`
	rec := do(t, handlerEngine(NewHandler(gen, 128)), http.MethodPost, body)

	assert.Equal(t, http.StatusBadRequest, rec.StatusCode())
	assert.Equal(t, models.MsgBodyTooLarge, decodeBody(t, rec)["error"])
	assert.Zero(t, gen.calls.Load())
}

func TestHandlerReplyPassthrough(t *testing.T) {
	gen := &fakeGenerator{out: textOutput("Reuse the jar ♻️")}
	rec := do(t, handlerEngine(NewHandler(gen, 0)), http.MethodPost, validBody)

	assert.Equal(t, http.StatusOK, rec.StatusCode())
	assert.Contains(t, rec.Header.Get("Content-Type"), "application/json")
	assert.Equal(t, map[string]string{"reply": "Reuse the jar ♻️"}, decodeBody(t, rec))
	assert.EqualValues(t, 1, gen.calls.Load())

	require.NotNil(t, gen.last)
	require.Len(t, gen.last.Contents, 1)
	assert.Equal(t, "How do I recycle a jar?", gen.last.Contents[0].Text())
}

func TestHandlerForwardsImageParts(t *testing.T) {
	gen := &fakeGenerator{out: textOutput("## Glass\n\nRecycle.")}
	body := `{"contents":[{"role":"user","parts":[{"text":"what is this"},{"inline_data":{"mime_type":"image/png","data":"AAAA"}}]}]}`
	rec := do(t, handlerEngine(NewHandler(gen, 0)), http.MethodPost, body)

	require.Equal(t, http.StatusOK, rec.StatusCode())
	require.Len(t, gen.last.Contents[0].Parts, 2)
	assert.Equal(t, models.InlineDataPart{MIMEType: "image/png", Data: "AAAA"}, gen.last.Contents[0].Parts[1])
}

func TestHandlerEmptyGenerationFallback(t *testing.T) {
	outputs := map[string]*models.ModelOutput{
		"no candidates": {},
		"blocked":       {BlockReason: "SAFETY"},
		"empty text":    textOutput(""),
		"blank text":    textOutput("  \n"),
	}
	for name, out := range outputs {
		t.Run(name, func(t *testing.T) {
			gen := &fakeGenerator{out: out}
			rec := do(t, handlerEngine(NewHandler(gen, 0)), http.MethodPost, validBody)

			assert.Equal(t, http.StatusOK, rec.StatusCode())
			assert.Equal(t, models.FallbackNoResponse, decodeBody(t, rec)["reply"])
		})
	}
}

func TestHandlerUpstreamFailure(t *testing.T) {
	failures := map[string]error{
		"network": apierrors.NewNetworkError("generate content", "https://provider.test",
			errors.New(`Post "https://provider.test?key=`+secretKey+`": dial tcp: connection refused`)),
		"timeout":   apierrors.NewTimeoutError("generate content after 60s"),
		"non-2xx":   apierrors.NewAPIErrorWithBody(403, "https://provider.test", "API key not valid", `{"error":{"message":"API key not valid"}}`),
		"malformed": apierrors.NewParseError("response is not valid JSON", ""),
	}
	for name, upstreamErr := range failures {
		t.Run(name, func(t *testing.T) {
			gen := &fakeGenerator{err: upstreamErr}
			rec := do(t, handlerEngine(NewHandler(gen, 0)), http.MethodPost, validBody)

			assert.Equal(t, http.StatusInternalServerError, rec.StatusCode())
			assert.Equal(t, map[string]string{"error": models.MsgUpstreamFailed}, decodeBody(t, rec))
			assert.NotContains(t, string(rec.Body()), secretKey)
			assert.NotContains(t, string(rec.Body()), "goroutine")
			assert.NotContains(t, string(rec.Body()), "API key not valid")
		})
	}
}

func TestHandlerLogsModelVersion(t *testing.T) {
	var logs bytes.Buffer
	out := textOutput("Rinse it first.")
	out.ModelVersion = "gemini-2.0-flash-001"

	srv := server.New()
	srv.Use(RequestLogger(zerolog.New(&logs)))
	srv.Any(models.RelayPath, NewHandler(&fakeGenerator{out: out}, 0).Handle)

	rec := do(t, srv.Engine, http.MethodPost, validBody)
	require.Equal(t, http.StatusOK, rec.StatusCode())
	assert.Contains(t, logs.String(), `"model_version":"gemini-2.0-flash-001"`)
	assert.NotContains(t, string(rec.Body()), "gemini-2.0-flash-001")
}
