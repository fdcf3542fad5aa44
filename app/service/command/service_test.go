package command

import (
	"clutha/app/service/channel"
	"clutha/app/service/prompt"
	"clutha/app/service/queue"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingTransport struct {
	mu   sync.Mutex
	sent []string
}

func (r *recordingTransport) Send(_ context.Context, _ string, segments []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sent = append(r.sent, segments...)

	return nil
}

func (r *recordingTransport) StartThread(context.Context, string, string, string) (string, error) {
	return "", nil
}

func (r *recordingTransport) Typing(context.Context, string) error {
	return nil
}

func (r *recordingTransport) last() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.sent) == 0 {
		return ""
	}

	return r.sent[len(r.sent)-1]
}

type fixture struct {
	svc       *Service
	registry  *channel.Registry
	transport *recordingTransport
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pirate.txt"),
		[]byte("Talk like a pirate\n---\n> ahoy\n\nArr, matey\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "plain.txt"),
		[]byte("Be brief\n"), 0o644))

	f := &fixture{
		registry:  channel.NewRegistry(1000, nil),
		transport: &recordingTransport{},
	}
	f.svc = NewService("~", f.registry, prompt.NewService(dir, ""), f.transport)

	return f
}

func (f *fixture) run(t *testing.T, text string) error {
	t.Helper()

	return f.svc.Handle(context.Background(), queue.Message{
		ConversationID: "chan-1",
		Kind:           channel.KindChannel,
		AuthorName:     "alice_b",
		Text:           text,
	})
}

func (f *fixture) state(t *testing.T) channel.Summary {
	t.Helper()

	summaries := f.registry.Snapshot()
	require.Len(t, summaries, 1)

	return summaries[0]
}

func TestIsCommand(t *testing.T) {
	svc := NewService("~", nil, nil, nil)

	assert.True(t, svc.IsCommand("~mode"))
	assert.True(t, svc.IsCommand("  ~ping"))
	assert.False(t, svc.IsCommand("hello ~mode"))
	assert.False(t, svc.IsCommand(""))
}

func TestMode(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.run(t, "~mode"))
	assert.Equal(t, "Mode is **active**", f.transport.last())

	require.NoError(t, f.run(t, "~mode LURK"))
	assert.Equal(t, "Mode set to **lurking**", f.transport.last())
	assert.Equal(t, "lurking", f.state(t).Mode)

	require.NoError(t, f.run(t, "~mode sleepy"))
	assert.Contains(t, f.transport.last(), "Unknown mode `sleepy`")
	assert.Equal(t, "lurking", f.state(t).Mode)
}

func TestPrompt(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.run(t, "~prompt"))
	assert.Equal(t, "Available prompts: pirate, plain", f.transport.last())

	require.NoError(t, f.run(t, "~prompt pirate"))
	assert.Equal(t, "Prompt set to **pirate**", f.transport.last())

	summary := f.state(t)
	assert.Equal(t, "pirate", summary.Prompt)
	assert.Equal(t, 2, summary.Turns)
	assert.Equal(t, 1000-4, summary.DialogueMax)

	require.NoError(t, f.run(t, "~prompt"))
	assert.Equal(t, "Current prompt: **pirate**\nAvailable prompts: pirate, plain", f.transport.last())
}

func TestPrompt_LoadFailureKeepsState(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.run(t, "~prompt pirate"))

	err := f.run(t, "~prompt missing")
	require.Error(t, err)
	assert.Equal(t, "Could not load prompt `missing`", f.transport.last())

	summary := f.state(t)
	assert.Equal(t, "pirate", summary.Prompt)
	assert.Equal(t, 2, summary.Turns)

	require.Error(t, f.run(t, "~prompt ../pirate"))
	assert.Equal(t, "pirate", f.state(t).Prompt)
}

func TestReset(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.run(t, "~prompt pirate"))
	require.NoError(t, f.registry.Get("chan-1", channel.KindChannel).Do(func(state *channel.State) error {
		state.ProcessUserText("hello")
		state.ProcessModelText("hi")
		return nil
	}))
	assert.Equal(t, 4, f.state(t).Turns)

	require.NoError(t, f.run(t, "~reset"))
	assert.Equal(t, "Dialogue reset", f.transport.last())
	assert.Equal(t, 2, f.state(t).Turns)
}

func TestVersionPingHelp(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.run(t, "~version"))
	assert.Equal(t, "Clutha version "+Version, f.transport.last())

	require.NoError(t, f.run(t, "~ping"))
	assert.Equal(t, "User **alice\\_b** used the 'ping' command in the <#chan-1> channel", f.transport.last())

	require.NoError(t, f.run(t, "~help"))
	help := f.transport.last()
	for _, name := range []string{"mode", "prompt", "reset", "version", "ping", "help"} {
		assert.Contains(t, help, "`~"+name)
	}
}

func TestUnknownCommand(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.run(t, "~dance now"))
	assert.Equal(t, "Unknown command `dance`. Try `~help`.", f.transport.last())
	assert.Equal(t, 0, f.registry.Len())
}

type brokenEntry struct{}

func (brokenEntry) Do(func(state *channel.State) error) error {
	return errors.New("state unavailable")
}

func TestStateFailuresPropagate(t *testing.T) {
	for _, text := range []string{"~mode", "~mode off", "~prompt", "~prompt pirate", "~reset"} {
		t.Run(text, func(t *testing.T) {
			f := newFixture(t)
			f.svc.entry = func(queue.Message) stateEntry { return brokenEntry{} }

			err := f.run(t, text)

			require.Error(t, err)
			assert.Contains(t, err.Error(), "state unavailable")
			assert.Empty(t, f.transport.last())
		})
	}
}
