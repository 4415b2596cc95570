package models

import (
	"context"
	"time"
)

// TurnRole is the author of a chat turn
type TurnRole string

const (
	TurnUser      TurnRole = "user"
	TurnAssistant TurnRole = "assistant"
)

// ProviderRole maps a turn author to the provider's role name
func (r TurnRole) ProviderRole() Role {
	if r == TurnAssistant {
		return RoleModel
	}
	return RoleUser
}

// ImageRef is a user-selected image that can be materialized on demand.
type ImageRef interface {
	// Name is a display name, usually the file's base name
	Name() string
	// Load returns the raw bytes and their MIME type
	Load(ctx context.Context) (data []byte, mimeType string, err error)
}

// Turn is one message of the conversation. Turns are never modified after
// they are appended to a history.
type Turn struct {
	Role       TurnRole
	Text       string
	Attachment ImageRef
	CreatedAt  time.Time
}

// HasAttachment reports whether the turn introduced an image
func (t Turn) HasAttachment() bool {
	return t.Attachment != nil
}

// ToContent maps the turn to a single text-only content entry
func (t Turn) ToContent() Content {
	return NewTextContent(t.Role.ProviderRole(), t.Text)
}
