package backend

import (
	"clutha/app/service/dialogue"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

type fakeModel struct {
	response *llms.ContentResponse
	err      error
	received []llms.MessageContent
}

func (f *fakeModel) GenerateContent(_ context.Context, messages []llms.MessageContent, _ ...llms.CallOption) (*llms.ContentResponse, error) {
	f.received = messages
	return f.response, f.err
}

func (f *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, f, prompt, options...)
}

func TestLangChain_Generate(t *testing.T) {
	model := &fakeModel{response: &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: "Hello"}},
	}}

	text, err := NewLangChainWithModel(model).Generate(context.Background(), []dialogue.Group{
		{Role: dialogue.RoleUser, Text: "hi"},
		{Role: dialogue.RoleModel, Text: "hey"},
	})

	require.NoError(t, err)
	assert.Equal(t, "Hello", text)
	assert.Equal(t, []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeHuman, "hi"),
		llms.TextParts(llms.ChatMessageTypeAI, "hey"),
	}, model.received)
}

func TestLangChain_Failures(t *testing.T) {
	_, err := NewLangChainWithModel(&fakeModel{err: errors.New("dial tcp: refused")}).
		Generate(context.Background(), testPrompt)

	var backendErr *Error
	require.ErrorAs(t, err, &backendErr)
	assert.Equal(t, ErrTransport, backendErr.Kind)

	_, err = NewLangChainWithModel(&fakeModel{response: &llms.ContentResponse{}}).
		Generate(context.Background(), testPrompt)

	require.ErrorAs(t, err, &backendErr)
	assert.Equal(t, ErrMalformedResponse, backendErr.Kind)
}
