package classifier

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	openai "github.com/sashabaranov/go-openai"
)

// Request is a single-turn chat completion.
type Request struct {
	Model       string
	Prompt      string
	MaxTokens   int
	Temperature float32
}

// ChatModel produces a completion for a prompt.
//
//go:generate mockgen -destination=../../pkg/mock/chat_model.go -package=mock . ChatModel
type ChatModel interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// OpenAI talks to any OpenAI compatible chat-completions endpoint.
type OpenAI struct {
	client *openai.Client
}

func NewOpenAI(apiKey string, provider Provider) *OpenAI {
	cfg := openai.DefaultConfig(apiKey)
	if provider.BaseURL != "" {
		cfg.BaseURL = provider.BaseURL
	}
	return &OpenAI{client: openai.NewClientWithConfig(cfg)}
}

func (o *OpenAI) Complete(ctx context.Context, req Request) (string, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: req.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: req.Prompt},
		},
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	})
	if err != nil {
		return "", errors.Wrap(err, "chat completion")
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("chat completion returned no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
