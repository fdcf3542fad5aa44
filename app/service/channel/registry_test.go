package channel

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_GetCreatesOnce(t *testing.T) {
	r := NewRegistry(100, nil)

	first := r.Get("chan-1", KindThread)
	second := r.Get("chan-1", KindChannel)

	assert.Same(t, first, second)
	assert.Equal(t, 1, r.Len())

	require.NoError(t, first.Do(func(state *State) error {
		assert.Equal(t, ModeLurking, state.Mode)
		return nil
	}))
}

func TestRegistry_DoPropagatesError(t *testing.T) {
	r := NewRegistry(100, nil)

	err := r.Get("chan-1", KindChannel).Do(func(*State) error {
		return fmt.Errorf("boom")
	})

	assert.EqualError(t, err, "boom")
}

func TestRegistry_DefaultPromptIsCopiedPerConversation(t *testing.T) {
	r := NewRegistry(100, testPrompt(t))

	_ = r.Get("a", KindChannel).Do(func(state *State) error {
		state.Prompt.Initial.Push("user", "mutated")
		return nil
	})

	require.NoError(t, r.Get("b", KindChannel).Do(func(state *State) error {
		assert.Equal(t, 2, state.Prompt.Initial.Len())
		return nil
	}))
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	r := NewRegistry(1_000_000, nil)

	const (
		conversations = 8
		perWorker     = 200
	)

	var wg sync.WaitGroup
	for i := 0; i < conversations*4; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()

			id := fmt.Sprintf("chan-%d", i%conversations)
			for j := 0; j < perWorker; j++ {
				_ = r.Get(id, KindChannel).Do(func(state *State) error {
					state.ProcessUserText("hello")
					return nil
				})
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, conversations, r.Len())
	for _, summary := range r.Snapshot() {
		assert.Equal(t, 4*perWorker, summary.Turns, summary.ID)
	}
}

func TestRegistry_Snapshot(t *testing.T) {
	r := NewRegistry(100, testPrompt(t))
	r.Get("b", KindThread)
	busy := r.Get("a", KindDirect)

	busy.mu.Lock()
	snapshot := r.Snapshot()
	busy.mu.Unlock()

	require.Len(t, snapshot, 2)
	assert.Equal(t, Summary{ID: "a", Busy: true}, snapshot[0])
	assert.Equal(t, Summary{
		ID:          "b",
		Kind:        "thread",
		Mode:        "lurking",
		Prompt:      "test",
		Turns:       2,
		DialogueLen: 3,
		DialogueMax: 95,
	}, snapshot[1])
}
