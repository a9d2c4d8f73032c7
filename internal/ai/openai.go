package ai

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sashabaranov/go-openai"
)

const defaultOpenAIModel = "gpt-4o-mini"

// OpenAI is a Completer backed by the OpenAI chat completions API.
type OpenAI struct {
	client    *openai.Client
	model     string
	maxTokens int
}

// NewOpenAI creates an OpenAI client.
func NewOpenAI(apiKey, modelName string, maxTokens int) *OpenAI {
	return newOpenAI(openai.DefaultConfig(apiKey), modelName, maxTokens)
}

// NewOpenAIWithBaseURL creates an OpenAI client against a compatible
// endpoint other than api.openai.com.
func NewOpenAIWithBaseURL(apiKey, baseURL, modelName string, maxTokens int) *OpenAI {
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = baseURL
	return newOpenAI(cfg, modelName, maxTokens)
}

func newOpenAI(cfg openai.ClientConfig, modelName string, maxTokens int) *OpenAI {
	if modelName == "" || modelName == defaultAnthropicModel {
		modelName = defaultOpenAIModel
	}
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	return &OpenAI{
		client:    openai.NewClientWithConfig(cfg),
		model:     modelName,
		maxTokens: maxTokens,
	}
}

// Complete implements Completer.
func (o *OpenAI) Complete(ctx context.Context, r Request) (string, error) {
	slog.Debug("generating via OpenAI", "model", o.model)

	maxTokens := r.MaxTokens
	if maxTokens <= 0 {
		maxTokens = o.maxTokens
	}

	var messages []openai.ChatCompletionMessage
	if r.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: r.System,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: r.Prompt,
	})

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:               o.model,
		Messages:            messages,
		MaxCompletionTokens: maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("OpenAI API call failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("OpenAI returned no choices")
	}

	return resp.Choices[0].Message.Content, nil
}
