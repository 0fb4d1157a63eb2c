// Package ai builds completion requests from conversation history and
// submits them to the remote endpoint.
package ai

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"

	"github.com/danteocualesjr/ai-chatbot/internal/config"
	"github.com/danteocualesjr/ai-chatbot/internal/model/chat"
)

// ErrNotConfigured means Send was called without a usable credential.
var ErrNotConfigured = errors.New("ai: no credential configured")

// emptyChoiceFallback stands in for a completion with no usable choice.
const emptyChoiceFallback = "Sorry, I encountered an error. Please try again."

// Service wraps the completion endpoint client. A nil client means no
// credential is configured and sends must be answered locally.
type Service struct {
	client *openai.Client
	cfg    config.AIConfig
}

// NewService builds the completion client from configuration. With a
// missing or placeholder credential the service stays disabled and
// performs no network I/O.
func NewService(cfg config.AIConfig) *Service {
	s := &Service{cfg: cfg}
	if !cfg.Enabled() {
		return s
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	s.client = openai.NewClientWithConfig(clientCfg)
	return s
}

// Enabled reports whether the service can reach the endpoint.
func (s *Service) Enabled() bool {
	return s.client != nil
}

// Send assembles the payload for the given history and attachment and
// returns the assistant completion text. It performs no retries;
// failures surface to the caller, which renders them as assistant
// turns.
func (s *Service) Send(ctx context.Context, history []chat.Message, image string) (string, error) {
	if s.client == nil {
		return "", ErrNotConfigured
	}

	req, err := BuildRequest(s.cfg, history, image)
	if err != nil {
		return "", err
	}

	resp, err := s.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("completion request: %w", err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		log.Warn().Str("model", req.Model).Msg("completion returned no usable choice")
		return emptyChoiceFallback, nil
	}

	log.Debug().Str("model", req.Model).Int("messages", len(req.Messages)).Msg("completion succeeded")
	return resp.Choices[0].Message.Content, nil
}
