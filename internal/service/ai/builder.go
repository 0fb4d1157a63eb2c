package ai

import (
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/danteocualesjr/ai-chatbot/internal/config"
	"github.com/danteocualesjr/ai-chatbot/internal/model/chat"
)

// ErrEmptyRequest means the history reduced to nothing after local
// turns were filtered out. This is a caller error, not a transport one.
var ErrEmptyRequest = errors.New("ai: no messages to send after filtering")

// systemPrompt sets the assistant's support-agent persona. It is
// prepended to every request and never stored in conversation history.
const systemPrompt = "You are a friendly and helpful customer support agent with vision capabilities. " +
	"You can see and analyze images. Be patient, understanding, and always try to help the customer " +
	"solve their problem. Use a warm, conversational tone. When analyzing images, describe what you " +
	"see clearly and answer questions about them."

// imageFallbackText replaces an empty caption on an image-only turn.
const imageFallbackText = "What's in this image?"

// BuildRequest assembles a chat-completion request from the session
// history plus an optional image attachment. Local (seed/notice) turns
// are dropped, a fixed system instruction is prepended, and when an
// image is present the last user message is rewritten into text+image
// parts. The model variant follows the payload: any image part selects
// the vision-capable model.
func BuildRequest(cfg config.AIConfig, history []chat.Message, image string) (openai.ChatCompletionRequest, error) {
	outgoing := make([]chat.Message, 0, len(history))
	lastUser := -1
	for _, msg := range history {
		if msg.Local {
			continue
		}
		if msg.Role == chat.RoleUser {
			lastUser = len(outgoing)
		}
		outgoing = append(outgoing, msg)
	}
	if len(outgoing) == 0 {
		return openai.ChatCompletionRequest{}, ErrEmptyRequest
	}

	if image == "" && lastUser >= 0 {
		image = outgoing[lastUser].Image
	}

	messages := make([]openai.ChatCompletionMessage, 0, len(outgoing)+1)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: systemPrompt,
	})

	hasImagePart := false
	for i, msg := range outgoing {
		if i == lastUser && image != "" {
			text := msg.Content
			if text == "" {
				text = imageFallbackText
			}
			messages = append(messages, openai.ChatCompletionMessage{
				Role: msg.Role,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: text},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL:    normalizeImageURL(image),
							Detail: openai.ImageURLDetailAuto,
						},
					},
				},
			})
			hasImagePart = true
			continue
		}
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    msg.Role,
			Content: msg.Content,
		})
	}

	model := cfg.Model
	if hasImagePart {
		model = cfg.VisionModel
	}

	return openai.ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
	}, nil
}

// normalizeImageURL passes data URIs and http(s) URLs through untouched
// and wraps raw base64 with a sniffed media-type prefix.
func normalizeImageURL(image string) string {
	if strings.HasPrefix(image, "data:") ||
		strings.HasPrefix(image, "http://") ||
		strings.HasPrefix(image, "https://") {
		return image
	}
	return fmt.Sprintf("data:%s;base64,%s", sniffMediaType(image), image)
}

// sniffMediaType infers the image format from well-known base64
// prefixes, defaulting to JPEG.
func sniffMediaType(b64 string) string {
	switch {
	case strings.HasPrefix(b64, "iVBOR"):
		return "image/png"
	case strings.HasPrefix(b64, "R0lGOD"):
		return "image/gif"
	case strings.HasPrefix(b64, "UklGR"):
		return "image/webp"
	default:
		return "image/jpeg"
	}
}
