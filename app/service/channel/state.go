package channel

import (
	"clutha/app/service/dialogue"
	"clutha/app/service/prompt"
)

// State is everything the bot remembers about one conversation.
type State struct {
	Kind     Kind
	Mode     Mode
	Prompt   *prompt.Prompt
	Dialogue *dialogue.Dialogue

	globalMax int
	// live counts turns recorded since the dialogue was last seeded.
	live int
}

func NewState(kind Kind, globalMax int, p *prompt.Prompt) *State {
	s := &State{
		Kind:      kind,
		Mode:      InitialMode(kind),
		Dialogue:  dialogue.New(globalMax),
		globalMax: globalMax,
	}
	s.ApplyPrompt(p)

	return s
}

// ShouldProcess reports whether an inbound message is recorded.
func (s *State) ShouldProcess(fromSelf, mentioned bool) bool {
	if fromSelf {
		return false
	}

	switch s.Mode {
	case ModePassive:
		return mentioned
	case ModeLurking, ModeActive:
		return true
	default:
		return false
	}
}

// ShouldRespond reports whether a processed message gets a reply.
func (s *State) ShouldRespond(mentioned bool) bool {
	switch s.Mode {
	case ModePassive, ModeLurking:
		return mentioned
	case ModeActive:
		return true
	default:
		return false
	}
}

// ApplyPrompt replaces the prompt, reserves room for its preamble in the
// word budget and restarts the dialogue from the prompt's initial exchange.
func (s *State) ApplyPrompt(p *prompt.Prompt) {
	if p == nil {
		p = prompt.Empty()
	}

	s.Prompt = p
	s.Dialogue.SetMaxLen(max(s.globalMax-p.Preamble.TotalLen(), 0))
	s.ResetDialogue()
}

func (s *State) ResetDialogue() {
	s.Dialogue.Reset()
	s.Dialogue.Append(s.Prompt.Initial)
	s.live = 0
}

func (s *State) ProcessUserText(text string) {
	s.Dialogue.Push(dialogue.RoleUser, text)
	s.live++
}

func (s *State) ProcessModelText(text string) {
	s.Dialogue.Push(dialogue.RoleModel, text)
	s.live++
}

// AssemblePrompt is the submission for the backend: preamble then dialogue.
func (s *State) AssemblePrompt() []dialogue.Group {
	return dialogue.Assemble(s.Prompt.Preamble.Turns(), s.Dialogue.Turns())
}

// Fork derives the state of a thread split off this conversation. It keeps
// the prompt and transcript and always starts active.
func (s *State) Fork() *State {
	return &State{
		Kind:      KindThread,
		Mode:      ModeActive,
		Prompt:    s.Prompt.Clone(),
		Dialogue:  s.Dialogue.Clone(),
		globalMax: s.globalMax,
		live:      s.live,
	}
}

// Adopt turns s into forked. Turns s recorded on its own are kept and
// replayed after the forked transcript.
func (s *State) Adopt(forked *State) {
	turns := s.Dialogue.Turns()
	recent := turns[len(turns)-min(s.live, len(turns)):]

	*s = *forked
	s.Prompt = forked.Prompt.Clone()
	s.Dialogue = forked.Dialogue.Clone()

	for _, turn := range recent {
		s.Dialogue.Push(turn.Role, turn.Text)
		s.live++
	}
}
