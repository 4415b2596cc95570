// Package relay serves the HTTP endpoint that holds the provider credential
// and forwards conversation payloads to the Gemini API.
package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/tidwall/gjson"

	apierrors "github.com/diogo/cleansight/internal/errors"
	"github.com/diogo/cleansight/internal/logging"
	"github.com/diogo/cleansight/internal/models"
)

// DefaultMaxBodyBytes bounds request bodies; inline images make them large
const DefaultMaxBodyBytes = 25 << 20

// Generator calls the provider. *api.GeminiClient implements it.
type Generator interface {
	GenerateContent(ctx context.Context, req *models.GenerateRequest) (*models.ModelOutput, error)
}

// Handler implements the generation endpoint. It keeps no state between
// requests.
type Handler struct {
	gen          Generator
	maxBodyBytes int
}

// NewHandler creates a Handler. maxBodyBytes <= 0 selects the default.
func NewHandler(gen Generator, maxBodyBytes int64) *Handler {
	if maxBodyBytes <= 0 {
		maxBodyBytes = DefaultMaxBodyBytes
	}
	return &Handler{gen: gen, maxBodyBytes: int(maxBodyBytes)}
}

// Handle answers POST with {"reply": ...} or a generic {"error": ...}
func (h *Handler) Handle(ctx context.Context, c *app.RequestContext) {
	logger := logging.FromContext(ctx)

	if string(c.Method()) != consts.MethodPost {
		c.Response.Header.Set("Allow", consts.MethodPost)
		c.JSON(consts.StatusMethodNotAllowed, models.ErrorBody{Error: models.MsgMethodNotAllowed})
		return
	}

	req, err := h.decode(c.Request.Body())
	if err != nil {
		logger.Warn().Err(err).Msg("rejected request")
		c.JSON(apierrors.StatusCode(err), models.ErrorBody{Error: clientMessage(err)})
		return
	}

	out, err := h.gen.GenerateContent(ctx, req)
	if err != nil {
		event := logger.Error().Err(err).
			Int("entries", len(req.Contents)).
			Bool("upstream", apierrors.IsUpstreamError(err))
		if status := apierrors.GetHTTPStatus(err); status != 0 {
			event = event.Int("upstream_status", status)
		}
		if body := apierrors.GetResponseBody(err); body != "" {
			event = event.Str("upstream_body", body)
		}
		event.Msg("gemini call failed")
		c.JSON(consts.StatusInternalServerError, models.ErrorBody{Error: models.MsgUpstreamFailed})
		return
	}

	reply := out.Text()
	if strings.TrimSpace(reply) == "" {
		event := logger.Warn().Int("candidates", len(out.Candidates))
		if out.BlockReason != "" {
			event = event.Str("block_reason", out.BlockReason)
		}
		if fc := out.FirstCandidate(); fc != nil && fc.FinishReason != "" {
			event = event.Str("finish_reason", fc.FinishReason)
		}
		event.Msg("empty generation")
		reply = models.FallbackNoResponse
	} else if out.ModelVersion != "" {
		logger.Debug().Str("model_version", out.ModelVersion).Int("entries", len(req.Contents)).Msg("generation served")
	}

	c.JSON(consts.StatusOK, models.ReplyBody{Reply: reply})
}

// decode validates the request body
func (h *Handler) decode(body []byte) (*models.GenerateRequest, error) {
	if len(body) > h.maxBodyBytes {
		return nil, errBodyTooLarge
	}

	// A body with nothing in it carries no contents either
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, apierrors.ErrNoContents
	}

	if !gjson.ValidBytes(body) {
		return nil, apierrors.NewInvalidRequestError(models.MsgInvalidJSON, nil)
	}

	// Anything other than a non-empty list counts as missing
	contents := gjson.GetBytes(body, "contents")
	if !contents.IsArray() || len(contents.Array()) == 0 {
		return nil, apierrors.ErrNoContents
	}

	var req models.GenerateRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, apierrors.NewInvalidRequestError(models.MsgInvalidJSON, err)
	}
	if len(req.Contents) == 0 {
		return nil, apierrors.ErrNoContents
	}
	return &req, nil
}

var errBodyTooLarge = apierrors.NewInvalidRequestError(models.MsgBodyTooLarge, nil)

// clientMessage maps a rejection to its fixed response text
func clientMessage(err error) string {
	switch {
	case errors.Is(err, apierrors.ErrNoContents):
		return models.MsgNoContents
	case errors.Is(err, errBodyTooLarge):
		return models.MsgBodyTooLarge
	case apierrors.IsInvalidRequest(err):
		return models.MsgInvalidJSON
	default:
		return models.MsgInternalError
	}
}
