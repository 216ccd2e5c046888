package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"gradebatch/internal/llm"
)

// DefaultModel is used when no model identifier is configured.
const DefaultModel = "gpt-4o-mini"

// Config defines configuration options for the OpenAI-backed grading client.
// BaseURL overrides the provider endpoint for proxies and tests.
type Config struct {
	APIKey  string
	Model   string
	Timeout time.Duration
	BaseURL string
}

// Client implements llm.Client using OpenAI chat completions with the
// grading result schema enforced through the structured-output response
// format.
type Client struct {
	api   *openai.Client
	model string
}

// NewClient builds a new client from the provided configuration.
func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("api key is required")
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultModel
	}

	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}
	if cfg.Timeout > 0 {
		config.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &Client{
		api:   openai.NewClientWithConfig(config),
		model: model,
	}, nil
}

// GradeSubmission issues one grading request and returns the raw response
// payload. Provider errors pass through unwrapped enough for the caller to
// classify rate-limit and availability statuses.
func (c *Client) GradeSubmission(ctx context.Context, in llm.GradeInput) (json.RawMessage, error) {
	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: llm.SystemInstruction},
			{Role: openai.ChatMessageRoleUser, Content: llm.BuildPrompt(in)},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   "grading_result",
				Schema: json.RawMessage(llm.ResultSchema),
				Strict: true,
			},
		},
	}

	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("openai grade %s: %w", in.FileName, err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai grade %s: no choices returned", in.FileName)
	}
	return json.RawMessage(strings.TrimSpace(resp.Choices[0].Message.Content)), nil
}
