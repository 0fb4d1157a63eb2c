package chat_test

import (
	"strings"
	"testing"

	"github.com/danteocualesjr/ai-chatbot/internal/model/chat"
)

func TestTitleFromMessageStripsMarkdown(t *testing.T) {
	got := chat.TitleFromMessage("# Hello **world** `code`")
	if got != "Hello world code" {
		t.Fatalf("unexpected title: %q", got)
	}
}

func TestTitleFromMessageTruncates(t *testing.T) {
	long := strings.Repeat("a", 80)
	got := chat.TitleFromMessage(long)
	if len([]rune(got)) != 50 {
		t.Fatalf("expected 50 runes, got %d", len([]rune(got)))
	}
}

func TestTitleFromMessageEmptyFallsBack(t *testing.T) {
	if got := chat.TitleFromMessage("  #*_` "); got != chat.DefaultTitle {
		t.Fatalf("expected default title, got %q", got)
	}
}

func TestNewConversationIDUnique(t *testing.T) {
	a := chat.NewConversationID()
	b := chat.NewConversationID()

	if !strings.HasPrefix(a, "conv_") {
		t.Fatalf("unexpected id format: %q", a)
	}
	if a == b {
		t.Fatalf("expected distinct ids, got %q twice", a)
	}
}

func TestConversationValid(t *testing.T) {
	conv := chat.Conversation{
		ID:        "conv_1",
		Messages:  []chat.Message{chat.NewUserMessage("hi", "")},
		CreatedAt: 1,
		UpdatedAt: 2,
	}
	if !conv.Valid() {
		t.Fatal("expected conversation to be valid")
	}

	if (chat.Conversation{Messages: conv.Messages, CreatedAt: 1, UpdatedAt: 2}).Valid() {
		t.Fatal("expected missing id to be invalid")
	}
	if (chat.Conversation{ID: "x", CreatedAt: 1, UpdatedAt: 2}).Valid() {
		t.Fatal("expected missing messages to be invalid")
	}
	if (chat.Conversation{ID: "x", Messages: conv.Messages}).Valid() {
		t.Fatal("expected missing timestamps to be invalid")
	}
}

func TestMessageHasContent(t *testing.T) {
	if (chat.Message{Role: chat.RoleUser}).HasContent() {
		t.Fatal("empty message should not have content")
	}
	if !chat.NewUserMessage("", "base64data").HasContent() {
		t.Fatal("image-only message should have content")
	}
}
