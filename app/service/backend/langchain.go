package backend

import (
	"clutha/app/config"
	"clutha/app/service/dialogue"
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	lcopenai "github.com/tmc/langchaingo/llms/openai"
)

// LangChain generates through any langchaingo model. Status codes are not
// exposed by langchaingo, so every call failure is a transport failure.
type LangChain struct {
	model llms.Model
}

func NewLangChain(cfg config.OpenAI) (*LangChain, error) {
	llm, err := lcopenai.New(
		lcopenai.WithToken(cfg.Token),
		lcopenai.WithBaseURL(cfg.BaseURL),
		lcopenai.WithModel(cfg.Model),
		lcopenai.WithCallback(LogCallbackHandler{}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create langchain model: %w", err)
	}

	return NewLangChainWithModel(llm), nil
}

func NewLangChainWithModel(model llms.Model) *LangChain {
	return &LangChain{model: model}
}

func buildMessages(prompt []dialogue.Group) []llms.MessageContent {
	messages := make([]llms.MessageContent, 0, len(prompt))

	for _, group := range prompt {
		role := llms.ChatMessageTypeHuman
		if group.Role == dialogue.RoleModel {
			role = llms.ChatMessageTypeAI
		}

		messages = append(messages, llms.TextParts(role, group.Text))
	}

	return messages
}

func (l *LangChain) Generate(ctx context.Context, prompt []dialogue.Group) (string, error) {
	if err := checkPrompt(prompt); err != nil {
		return "", err
	}

	response, err := l.model.GenerateContent(ctx, buildMessages(prompt))
	if err != nil {
		return "", &Error{Kind: ErrTransport, Err: err}
	}

	if len(response.Choices) == 0 {
		return "", &Error{Kind: ErrMalformedResponse, Err: fmt.Errorf("no content choices")}
	}

	return response.Choices[0].Content, nil
}
