package backend

import (
	"clutha/app/config"
	"clutha/app/service/dialogue"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"
)

// ChatGPT talks to an OpenAI-compatible chat completions endpoint.
type ChatGPT struct {
	client *openai.Client
	model  string
}

func NewChatGPT(cfg config.OpenAI, timeout time.Duration) *ChatGPT {
	clientConfig := openai.DefaultConfig(cfg.Token)

	clientConfig.BaseURL = cfg.BaseURL
	clientConfig.HTTPClient = &http.Client{
		Timeout: timeout,
	}

	return &ChatGPT{
		client: openai.NewClientWithConfig(clientConfig),
		model:  cfg.Model,
	}
}

func (c *ChatGPT) buildRequest(prompt []dialogue.Group) openai.ChatCompletionRequest {
	messages := make([]openai.ChatCompletionMessage, 0, len(prompt))

	for _, group := range prompt {
		role := openai.ChatMessageRoleUser
		if group.Role == dialogue.RoleModel {
			role = openai.ChatMessageRoleAssistant
		}

		messages = append(messages, openai.ChatCompletionMessage{
			Role:    role,
			Content: group.Text,
		})
	}

	return openai.ChatCompletionRequest{
		Model:    c.model,
		Messages: messages,
	}
}

func (c *ChatGPT) Generate(ctx context.Context, prompt []dialogue.Group) (string, error) {
	if err := checkPrompt(prompt); err != nil {
		return "", err
	}

	aiResponse, err := c.client.CreateChatCompletion(ctx, c.buildRequest(prompt))
	if err != nil {
		return "", classifyOpenAIError(err)
	}

	if len(aiResponse.Choices) == 0 {
		return "", &Error{Kind: ErrMalformedResponse, Err: fmt.Errorf("no chat completion found")}
	}

	return aiResponse.Choices[0].Message.Content, nil
}

func classifyOpenAIError(err error) error {
	var (
		apiErr    *openai.APIError
		reqErr    *openai.RequestError
		syntaxErr *json.SyntaxError
		typeErr   *json.UnmarshalTypeError
	)

	switch {
	case errors.As(err, &apiErr) && apiErr.HTTPStatusCode > 0:
		return &Error{Kind: ErrStatus, Status: apiErr.HTTPStatusCode, Err: err}
	case errors.As(err, &reqErr) && reqErr.HTTPStatusCode > 0:
		return &Error{Kind: ErrStatus, Status: reqErr.HTTPStatusCode, Err: err}
	case errors.As(err, &syntaxErr), errors.As(err, &typeErr):
		return &Error{Kind: ErrMalformedResponse, Err: err}
	default:
		return &Error{Kind: ErrTransport, Err: err}
	}
}
