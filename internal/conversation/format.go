package conversation

import (
	"strings"

	"github.com/diogo/cleansight/internal/models"
)

// NormalizeHeading prepends the response heading to text that does not
// already open with a markdown heading. Applying it twice is a no-op.
func NormalizeHeading(text string) string {
	if strings.HasPrefix(text, "#") {
		return text
	}
	return models.ResponseHeading + text
}

// FormatReply turns a relay reply into assistant turn text
func FormatReply(reply string) string {
	if strings.TrimSpace(reply) == "" {
		reply = models.FallbackNoResponse
	}
	return NormalizeHeading(reply)
}
