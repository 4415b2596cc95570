// Package models contains the wire types and constants shared by the
// CleanSight relay and its clients.
package models

import (
	"net/url"
	"strings"
)

// Provider endpoint defaults
const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	DefaultModel   = "gemini-1.5-flash-latest"

	// RelayPath is the route the relay serves generation requests on
	RelayPath  = "/api/gemini"
	HealthPath = "/healthz"

	// APIKeyParam is the query parameter carrying the provider credential
	APIKeyParam = "key"
)

// Fixed user-facing strings
const (
	// FallbackNoResponse replaces a reply that carried no usable text
	FallbackNoResponse = "⚠️ No response from CleanSight AI."
	// FallbackClientError is shown when the relay could not be reached or failed
	FallbackClientError = "⚠️ Error getting response from CleanSight AI."
	// ImageUploadedMarker is the user turn text when only an image was sent
	ImageUploadedMarker = "📷 Image uploaded"
	// ResponseHeading is prepended to replies that do not open with a heading
	ResponseHeading = "## Response\n\n"
	// Greeting is shown before the first turn
	Greeting = "Hi 👋! I’m CleanSight Assistant 🌱. Ask me anything about recycling, reuse, disposal, or related questions."
)

// Relay error bodies
const (
	MsgMethodNotAllowed = "Method not allowed"
	MsgNoContents       = "No contents provided"
	MsgInvalidJSON      = "Invalid JSON body"
	MsgBodyTooLarge     = "Request body too large"
	MsgUpstreamFailed   = "Gemini API call failed"
	MsgInternalError    = "Internal server error"
)

// DefaultPreamble frames every request as the most recent user turn
const DefaultPreamble = `You are CleanSight 🌱, a friendly AI assistant for recycling, reuse, disposal, and related follow-up questions.
- Track the conversation dynamically.
- Refer to previous messages in context.
- Only warn about hazards once per item; for follow-ups, expand, clarify, or give practical advice.
- Provide safe, practical reuse, DIY, or disposal tips for ordinary items.
- Use Markdown, bullet points, bold, and emojis (♻️, ✅, ⚠️, 🧽, 🏭).

User's latest query or image:`

// GenerateURL builds the generateContent endpoint for a model without the credential
func GenerateURL(baseURL, model string) string {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if model == "" {
		model = DefaultModel
	}
	return strings.TrimRight(baseURL, "/") + "/models/" + url.PathEscape(model) + ":generateContent"
}

// DefaultHeaders returns the headers sent with every JSON request
func DefaultHeaders() map[string]string {
	return map[string]string{
		"Content-Type": "application/json",
		"Accept":       "application/json",
		"User-Agent":   "cleansight/0.1",
	}
}
