package openai

import (
	"context"

	"github.com/pkg/errors"
	openaiapi "github.com/sashabaranov/go-openai"

	"ethiopian-history-bot/internal/domain"
	"ethiopian-history-bot/internal/usecase/fact"
)

var ErrNoChoices = errors.New("llm returned no choices")

// Client talks to any OpenAI-compatible chat completion endpoint. The bot
// points it at Groq.
type Client struct {
	api *openaiapi.Client
}

func NewClient(token, baseURL string) *Client {
	cfg := openaiapi.DefaultConfig(token)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &Client{
		api: openaiapi.NewClientWithConfig(cfg),
	}
}

func (c *Client) Complete(ctx context.Context, req fact.CompletionRequest) (string, error) {
	apiReq := openaiapi.ChatCompletionRequest{
		Model:       req.Model,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxCompletionTokens,
		Stream:      false,
		Messages:    toAPIMessages(req.Messages),
	}

	resp, err := c.api.CreateChatCompletion(ctx, apiReq)
	if err != nil {
		return "", errors.Wrapf(err, "chat completion with %s", req.Model)
	}

	if len(resp.Choices) == 0 {
		return "", ErrNoChoices
	}

	return resp.Choices[0].Message.Content, nil
}

func toAPIMessages(msgs []domain.Message) []openaiapi.ChatCompletionMessage {
	res := make([]openaiapi.ChatCompletionMessage, 0, len(msgs))
	for _, m := range msgs {
		res = append(res, openaiapi.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}
	return res
}
