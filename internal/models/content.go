package models

import (
	"encoding/json"
	"fmt"
)

// Role is the provider-side author of a content entry
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Part is one element of a content entry: either TextPart or InlineDataPart.
type Part interface {
	isPart()
}

// TextPart carries plain text
type TextPart struct {
	Text string
}

// InlineDataPart carries base64 encoded bytes with their MIME type
type InlineDataPart struct {
	MIMEType string
	Data     string
}

func (TextPart) isPart()       {}
func (InlineDataPart) isPart() {}

// Content is a single {role, parts} entry of a generation request
type Content struct {
	Role  Role
	Parts []Part
}

// GenerationConfig holds optional sampling parameters forwarded to the provider
type GenerationConfig struct {
	Temperature     *float64 `json:"temperature,omitempty"`
	MaxOutputTokens int      `json:"maxOutputTokens,omitempty"`
}

// GenerateRequest is the provider-shaped payload built by the client and
// forwarded by the relay.
type GenerateRequest struct {
	Contents         []Content         `json:"contents"`
	GenerationConfig *GenerationConfig `json:"generationConfig,omitempty"`
}

// NewTextContent is a convenience for a single-text entry
func NewTextContent(role Role, text string) Content {
	return Content{Role: role, Parts: []Part{TextPart{Text: text}}}
}

// Text concatenates the text parts of the entry
func (c Content) Text() string {
	var out string
	for _, p := range c.Parts {
		if tp, ok := p.(TextPart); ok {
			out += tp.Text
		}
	}
	return out
}

type wireInlineData struct {
	MIMEType string `json:"mimeType"`
	Data     string `json:"data"`
}

// wirePart accepts both the camelCase and snake_case spellings on decode.
type wirePart struct {
	Text            *string         `json:"text,omitempty"`
	InlineData      *wireInlineData `json:"inlineData,omitempty"`
	InlineDataSnake *struct {
		MIMEType string `json:"mime_type"`
		Data     string `json:"data"`
	} `json:"inline_data,omitempty"`
}

type wireContent struct {
	Role  Role       `json:"role,omitempty"`
	Parts []wirePart `json:"parts"`
}

// MarshalJSON encodes parts as {text} or {inlineData:{mimeType,data}}
func (c Content) MarshalJSON() ([]byte, error) {
	wc := wireContent{Role: c.Role, Parts: make([]wirePart, 0, len(c.Parts))}
	for _, p := range c.Parts {
		switch v := p.(type) {
		case TextPart:
			text := v.Text
			wc.Parts = append(wc.Parts, wirePart{Text: &text})
		case InlineDataPart:
			wc.Parts = append(wc.Parts, wirePart{InlineData: &wireInlineData{MIMEType: v.MIMEType, Data: v.Data}})
		default:
			return nil, fmt.Errorf("unsupported part type %T", p)
		}
	}
	return json.Marshal(wc)
}

// UnmarshalJSON decodes parts, rejecting parts that carry neither text nor data
func (c *Content) UnmarshalJSON(data []byte) error {
	var wc wireContent
	if err := json.Unmarshal(data, &wc); err != nil {
		return err
	}

	c.Role = wc.Role
	c.Parts = make([]Part, 0, len(wc.Parts))
	for i, wp := range wc.Parts {
		switch {
		case wp.Text != nil:
			c.Parts = append(c.Parts, TextPart{Text: *wp.Text})
		case wp.InlineData != nil:
			c.Parts = append(c.Parts, InlineDataPart{MIMEType: wp.InlineData.MIMEType, Data: wp.InlineData.Data})
		case wp.InlineDataSnake != nil:
			c.Parts = append(c.Parts, InlineDataPart{MIMEType: wp.InlineDataSnake.MIMEType, Data: wp.InlineDataSnake.Data})
		default:
			return fmt.Errorf("part %d has neither text nor inline data", i)
		}
	}
	return nil
}
