package models

// Candidate represents a single response candidate from the provider
type Candidate struct {
	Text         string
	FinishReason string
}

// ModelOutput represents the parsed generateContent response
type ModelOutput struct {
	Candidates   []Candidate
	ModelVersion string
	BlockReason  string // Set when the prompt itself was rejected
}

// Text returns the first candidate's text, or "" when there is none
func (m *ModelOutput) Text() string {
	if m == nil || len(m.Candidates) == 0 {
		return ""
	}
	return m.Candidates[0].Text
}

// FirstCandidate returns a pointer to the first candidate
func (m *ModelOutput) FirstCandidate() *Candidate {
	if m == nil || len(m.Candidates) == 0 {
		return nil
	}
	return &m.Candidates[0]
}

// ReplyBody is the relay's success body
type ReplyBody struct {
	Reply string `json:"reply"`
}

// ErrorBody is the relay's failure body
type ErrorBody struct {
	Error string `json:"error"`
}
