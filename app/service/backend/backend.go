package backend

import (
	"clutha/app/config"
	"clutha/app/service/dialogue"
	"context"
	"fmt"

	"github.com/samber/do"
	"github.com/samber/oops"
)

// Backend generates the next model turn for an assembled prompt.
// Implementations must not retain or mutate the prompt.
type Backend interface {
	Generate(ctx context.Context, prompt []dialogue.Group) (string, error)
}

func New(di *do.Injector) (Backend, error) {
	ctx := do.MustInvoke[context.Context](di)
	cfg := do.MustInvoke[*config.Config](di)

	var (
		next Backend
		err  error
	)

	switch cfg.Backend.Kind {
	case config.BackendGemini:
		next, err = NewGemini(ctx, cfg.Backend.Gemini)
	case config.BackendChatGPT:
		next = NewChatGPT(cfg.Backend.OpenAI, cfg.Backend.Timeout)
	case config.BackendLangChain:
		next, err = NewLangChain(cfg.Backend.OpenAI)
	default:
		err = fmt.Errorf("unknown backend kind %q", cfg.Backend.Kind)
	}
	if err != nil {
		return nil, oops.
			In("backend").
			With("kind", cfg.Backend.Kind).
			Wrapf(err, "failed to create backend")
	}

	return NewRetrying(next, cfg.Backend.Timeout), nil
}

func checkPrompt(prompt []dialogue.Group) error {
	if len(prompt) == 0 {
		return &Error{Kind: ErrMalformedRequest, Err: fmt.Errorf("empty prompt")}
	}

	return nil
}
