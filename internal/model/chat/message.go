package chat

// Message roles understood by the completion endpoint.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Greeting is the assistant-authored seed shown before any user turn.
const Greeting = "Hey! How can I help you today?"

// NotConfiguredNotice is shown instead of calling the API when no
// credential is configured.
const NotConfiguredNotice = "The assistant is not configured yet. Please set OPENAI_API_KEY in your .env file and restart."

// Message is a single conversation turn.
//
// Image holds an optional attachment (raw base64 or a data/http URL) on
// the outbound path only; it is never persisted. Local marks seed and
// setup-notice turns that exist purely for the UI: they are excluded
// from both persistence and upstream payloads.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
	Image   string `json:"image,omitempty"`
	Local   bool   `json:"local,omitempty"`
}

// NewUserMessage builds a user turn with an optional image attachment.
func NewUserMessage(content, image string) Message {
	return Message{Role: RoleUser, Content: content, Image: image}
}

// NewAssistantMessage builds an assistant turn.
func NewAssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// SeedMessage returns the greeting that opens every fresh conversation.
func SeedMessage() Message {
	return Message{Role: RoleAssistant, Content: Greeting, Local: true}
}

// NoticeMessage returns a local assistant-authored notice turn.
func NoticeMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content, Local: true}
}

// HasContent reports whether the turn carries anything worth sending.
func (m Message) HasContent() bool {
	return m.Content != "" || m.Image != ""
}
