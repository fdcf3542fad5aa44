package channel

import (
	"clutha/app/config"
	"clutha/app/service/prompt"
	"fmt"
	"sync"

	"github.com/elliotchance/pie/v2"
	"github.com/samber/do"
)

// Entry guards the state of one conversation. The state is only reachable
// inside Do, which holds the entry lock for the whole call.
type Entry struct {
	id    string
	mu    sync.Mutex
	state *State
}

func (e *Entry) ID() string {
	return e.id
}

func (e *Entry) Do(fn func(state *State) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	return fn(e.state)
}

// Registry maps conversation IDs to their entries. Entries are created on
// first reference and live for the lifetime of the process.
type Registry struct {
	mu      sync.Mutex
	entries map[string]*Entry

	globalMax     int
	defaultPrompt *prompt.Prompt
}

func New(di *do.Injector) (*Registry, error) {
	cfg := do.MustInvoke[*config.Config](di)
	promptSvc := do.MustInvoke[*prompt.Service](di)

	defaultPrompt, err := promptSvc.Default()
	if err != nil {
		return nil, fmt.Errorf("failed to load default prompt: %w", err)
	}

	return NewRegistry(cfg.Dialogue.MaxLen, defaultPrompt), nil
}

func NewRegistry(globalMax int, defaultPrompt *prompt.Prompt) *Registry {
	if defaultPrompt == nil {
		defaultPrompt = prompt.Empty()
	}

	return &Registry{
		entries:       make(map[string]*Entry),
		globalMax:     globalMax,
		defaultPrompt: defaultPrompt,
	}
}

// Get returns the entry of a conversation, creating it with the mode
// derived from kind when the conversation is seen for the first time.
func (r *Registry) Get(id string, kind Kind) *Entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.entries[id]
	if !ok {
		entry = &Entry{
			id:    id,
			state: NewState(kind, r.globalMax, r.defaultPrompt.Clone()),
		}
		r.entries[id] = entry
	}

	return entry
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.entries)
}

type Summary struct {
	ID          string `json:"id"`
	Busy        bool   `json:"busy"`
	Kind        string `json:"kind,omitempty"`
	Mode        string `json:"mode,omitempty"`
	Prompt      string `json:"prompt,omitempty"`
	Turns       int    `json:"turns"`
	DialogueLen int    `json:"dialogue_len"`
	DialogueMax int    `json:"dialogue_max"`
}

// Snapshot summarizes every conversation sorted by ID. Conversations that
// are in the middle of an operation are reported as busy.
func (r *Registry) Snapshot() []Summary {
	r.mu.Lock()
	entries := make([]*Entry, 0, len(r.entries))
	for _, entry := range r.entries {
		entries = append(entries, entry)
	}
	r.mu.Unlock()

	summaries := pie.Map(entries, func(e *Entry) Summary {
		if !e.mu.TryLock() {
			return Summary{ID: e.id, Busy: true}
		}
		defer e.mu.Unlock()

		return Summary{
			ID:          e.id,
			Kind:        e.state.Kind.String(),
			Mode:        e.state.Mode.String(),
			Prompt:      e.state.Prompt.Name,
			Turns:       e.state.Dialogue.Len(),
			DialogueLen: e.state.Dialogue.TotalLen(),
			DialogueMax: e.state.Dialogue.MaxLen(),
		}
	})

	return pie.SortUsing(summaries, func(a, b Summary) bool {
		return a.ID < b.ID
	})
}
