// Package llm maps prompts onto a single OpenAI-compatible chat completion call.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/iksnae/code-assistant/internal"
)

// SystemPrompt is sent ahead of every user prompt
const SystemPrompt = "You are a large language model bot that helps developers write code."

const endpoint = "chat/completions"

// Client issues non-streaming chat completions with a fixed sampling configuration.
// It never retries; a failed request is reported to the caller as is.
type Client struct {
	client      openai.Client
	model       string
	temperature float64
}

// NewClient creates a Client from configuration
func NewClient(cfg internal.LLMConfig, opts ...option.RequestOption) *Client {
	base := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		base = append(base, option.WithBaseURL(strings.TrimRight(cfg.BaseURL, "/")+"/"))
	}

	model := cfg.Model
	if model == "" {
		model = internal.DefaultLLMModel
	}

	return &Client{
		client:      openai.NewClient(append(base, opts...)...),
		model:       model,
		temperature: cfg.Temperature,
	}
}

// Model returns the model used for completions
func (c *Client) Model() string {
	return c.model
}

// Complete sends prompt as the user message and returns the text of the first choice
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(SystemPrompt),
			openai.UserMessage(prompt),
		},
		Temperature:      openai.Float(c.temperature),
		TopP:             openai.Float(1),
		PresencePenalty:  openai.Float(0),
		FrequencyPenalty: openai.Float(0),
	}

	start := time.Now()
	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		reqErr := &internal.RequestError{Op: "chat completion", Endpoint: endpoint, Err: err}
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			reqErr.Status = apiErr.StatusCode
		}
		return "", reqErr
	}

	if len(resp.Choices) == 0 {
		return "", &internal.DecodeError{Source: "chat completion", Key: c.model, Err: fmt.Errorf("no choices in response")}
	}

	internal.LogDebug("Completion from %s in %dms (%d prompt tokens, %d completion tokens)",
		c.model, time.Since(start).Milliseconds(), resp.Usage.PromptTokens, resp.Usage.CompletionTokens)

	return resp.Choices[0].Message.Content, nil
}
