package conversation

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/diogo/cleansight/internal/models"
)

// ContextWindow returns a copy of the last n turns. The history slice is
// never modified.
func ContextWindow(history []models.Turn, n int) []models.Turn {
	if n <= 0 || len(history) == 0 {
		return nil
	}
	start := 0
	if len(history) > n {
		start = len(history) - n
	}
	window := make([]models.Turn, len(history)-start)
	copy(window, history[start:])
	return window
}

// EncodeImage loads img and returns it as an inline data part
func EncodeImage(ctx context.Context, img models.ImageRef) (*models.InlineDataPart, error) {
	data, mimeType, err := img.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load image %s: %w", img.Name(), err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("image %s is empty", img.Name())
	}
	return &models.InlineDataPart{
		MIMEType: mimeType,
		Data:     base64.StdEncoding.EncodeToString(data),
	}, nil
}

// BuildRequest assembles the provider payload: one entry per window turn,
// followed by a user entry holding the preamble, the new text and the image.
func BuildRequest(window []models.Turn, preamble, text string, image *models.InlineDataPart) *models.GenerateRequest {
	contents := make([]models.Content, 0, len(window)+1)
	for _, turn := range window {
		contents = append(contents, turn.ToContent())
	}

	var parts []models.Part
	if strings.TrimSpace(preamble) != "" {
		parts = append(parts, models.TextPart{Text: preamble})
	}
	if text != "" {
		parts = append(parts, models.TextPart{Text: text})
	}
	if image != nil {
		parts = append(parts, *image)
	}

	contents = append(contents, models.Content{Role: models.RoleUser, Parts: parts})
	return &models.GenerateRequest{Contents: contents}
}
