// Package openai provides the go-openai backed llm.Client.
package openai

import (
	"context"
	"errors"
	"fmt"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/sanahealth/sana/pkg/llm"
)

// Config holds the settings for the OpenAI chat client.
type Config struct {
	// APIKey authenticates against the OpenAI API.
	APIKey string

	// Model is the chat completion model (defaults to gpt-4o-mini).
	Model string

	// BaseURL overrides the API endpoint for OpenAI-compatible servers.
	BaseURL string
}

// Client implements llm.Client using the OpenAI chat completions API.
type Client struct {
	client *goopenai.Client
	model  string
}

// NewClient creates an OpenAI-backed chat client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai api key is required")
	}

	model := cfg.Model
	if model == "" {
		model = "gpt-4o-mini"
	}

	clientConfig := goopenai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	return &Client{
		client: goopenai.NewClientWithConfig(clientConfig),
		model:  model,
	}, nil
}

// Complete sends the prompt sequence to the chat completions API and returns
// the first choice's text.
func (c *Client) Complete(ctx context.Context, messages []llm.Message) (string, error) {
	converted := make([]goopenai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		role := m.Role
		switch role {
		case llm.RoleSystem, llm.RoleUser, llm.RoleAssistant:
		default:
			// coerce anything unknown to user
			role = llm.RoleUser
		}
		converted = append(converted, goopenai.ChatCompletionMessage{Role: role, Content: m.Content})
	}

	resp, err := c.client.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model:    c.model,
		Messages: converted,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", errors.New("chat completion returned no choices")
	}

	return resp.Choices[0].Message.Content, nil
}
