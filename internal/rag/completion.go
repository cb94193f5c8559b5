package rag

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/sitebrain/sitebrain/internal/config"
)

const (
	completionTimeout  = 30 * time.Second
	deepSeekBaseURL    = "https://api.deepseek.com/v1"
	defaultChatModel   = "deepseek-chat"
	defaultTemperature = 0.2
)

// ChatConfig carries the settings for the chat completion backend.
type ChatConfig struct {
	APIKey       string
	BaseURL      string // optional, for OpenAI-compatible endpoints and tests
	Model        string
	SystemPrompt string
	Temperature  float32
}

// ChatCompleter generates answers through an OpenAI-compatible chat API.
type ChatCompleter struct {
	client       *openai.Client
	model        string
	systemPrompt string
	temperature  float32
	logger       *slog.Logger
}

// NewChatCompleter constructs the completion backend. The API key is
// required; everything else has defaults.
func NewChatCompleter(cfg ChatConfig, logger *slog.Logger) (*ChatCompleter, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("missing completion API key")
	}
	if cfg.Model == "" {
		cfg.Model = defaultChatModel
	}
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = config.DefaultSystemPrompt
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = defaultTemperature
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &ChatCompleter{
		client:       openai.NewClientWithConfig(clientCfg),
		model:        cfg.Model,
		systemPrompt: cfg.SystemPrompt,
		temperature:  cfg.Temperature,
		logger:       logger,
	}, nil
}

// NewCompleter builds the chat completer from application config. A
// DeepSeek key routes to the DeepSeek endpoint; otherwise the OpenAI key
// and endpoint are used.
func NewCompleter(cfg *config.Config, logger *slog.Logger) (*ChatCompleter, error) {
	cc := ChatConfig{
		APIKey:       cfg.CompletionCredential(),
		Model:        cfg.ChatModel,
		SystemPrompt: cfg.SystemPrompt,
		Temperature:  cfg.Temperature,
	}
	switch {
	case cfg.DeepSeekAPIKey != "":
		cc.BaseURL = deepSeekBaseURL
	case cfg.OpenAIBaseURL != "":
		cc.BaseURL = cfg.OpenAIBaseURL
	}
	return NewChatCompleter(cc, logger)
}

// Complete sends one prompt through the chat API and returns the model's
// answer text.
func (c *ChatCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, completionTimeout)
	defer cancel()

	started := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: c.temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: c.systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", classifyCompletionError(err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices returned", ErrMalformedCompletion)
	}
	answer := strings.TrimSpace(resp.Choices[0].Message.Content)
	if answer == "" {
		return "", fmt.Errorf("%w: empty answer text", ErrMalformedCompletion)
	}

	c.logger.Debug("completion finished",
		"model", c.model,
		"duration", time.Since(started))
	return answer, nil
}

func classifyCompletionError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("%w: %s", ErrRateLimited, apiErr.Message)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrCompletionTimeout, err)
	}
	return fmt.Errorf("completion request failed: %w", err)
}
