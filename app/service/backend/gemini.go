package backend

import (
	"clutha/app/config"
	"clutha/app/service/dialogue"
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"
)

type Gemini struct {
	client *genai.Client
	model  string
}

func NewGemini(ctx context.Context, cfg config.Gemini) (*Gemini, error) {
	return newGemini(ctx, cfg, genai.HTTPOptions{})
}

func newGemini(ctx context.Context, cfg config.Gemini, httpOptions genai.HTTPOptions) (*Gemini, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      cfg.APIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: httpOptions,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &Gemini{
		client: client,
		model:  cfg.Model,
	}, nil
}

func buildContents(prompt []dialogue.Group) []*genai.Content {
	contents := make([]*genai.Content, 0, len(prompt))

	for _, group := range prompt {
		role := genai.Role(genai.RoleUser)
		if group.Role == dialogue.RoleModel {
			role = genai.RoleModel
		}

		contents = append(contents, genai.NewContentFromText(group.Text, role))
	}

	return contents
}

func (g *Gemini) Generate(ctx context.Context, prompt []dialogue.Group) (string, error) {
	if err := checkPrompt(prompt); err != nil {
		return "", err
	}

	result, err := g.client.Models.GenerateContent(ctx, g.model, buildContents(prompt), nil)
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) && apiErr.Code > 0 {
			return "", &Error{Kind: ErrStatus, Status: apiErr.Code, Err: err}
		}
		return "", &Error{Kind: ErrTransport, Err: err}
	}

	text := result.Text()
	if text == "" {
		return "", &Error{Kind: ErrMalformedResponse, Err: fmt.Errorf("no candidates in response")}
	}

	return text, nil
}
