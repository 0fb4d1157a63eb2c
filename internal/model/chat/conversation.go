package chat

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultTitle is used when the first user message reduces to nothing.
const DefaultTitle = "New Chat"

const maxTitleLength = 50

// Conversation is a persisted snapshot of a chat session. Timestamps
// are Unix milliseconds to match the stored record format.
type Conversation struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Messages  []Message `json:"messages"`
	CreatedAt int64     `json:"createdAt"`
	UpdatedAt int64     `json:"updatedAt"`
}

// NewConversationID mints an opaque identity combining a time component
// with a random component, e.g. "conv_1714089600123_3b9f2c1a".
func NewConversationID() string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("conv_%d_%s", time.Now().UnixMilli(), suffix)
}

// TitleFromMessage derives a conversation title from the first user
// message: markdown markers stripped, trimmed, capped at 50 characters.
func TitleFromMessage(text string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case '#', '*', '_', '`':
			return -1
		}
		return r
	}, text)
	cleaned = strings.TrimSpace(cleaned)

	runes := []rune(cleaned)
	if len(runes) > maxTitleLength {
		cleaned = string(runes[:maxTitleLength])
	}
	if cleaned == "" {
		return DefaultTitle
	}
	return cleaned
}

// Valid reports whether a stored record is structurally sound. Records
// failing this check are dropped during loads rather than failing the
// whole read.
func (c Conversation) Valid() bool {
	return c.ID != "" && c.Messages != nil && c.CreatedAt != 0 && c.UpdatedAt != 0
}
