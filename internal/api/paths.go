// Package api provides the HTTP clients for the Gemini generateContent API
// and for the CleanSight relay.
package api

// GJSON paths for extracting values from provider and relay responses.
const (
	// Provider response paths
	PathCandidates       = "candidates"
	PathModelVersion     = "modelVersion"
	PathBlockReason      = "promptFeedback.blockReason"
	PathProviderErrorMsg = "error.message"

	// Candidate paths (relative to a candidate object)
	PathCandText         = "content.parts.0.text"
	PathCandFinishReason = "finishReason"

	// Relay response paths
	PathReply      = "reply"
	PathRelayError = "error"
)

// Body read limits
const (
	MaxErrorBodySize    = 4 << 10
	MaxResponseBodySize = 16 << 20
)
