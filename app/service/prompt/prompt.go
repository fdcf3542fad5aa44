package prompt

import (
	"clutha/app/service/dialogue"
	"clutha/app/service/segment"
	"math"
	"os"
	"strings"

	"github.com/samber/oops"
)

const (
	stanzaSeparator = "---"
	userMarker      = ">"
)

// Prompt is the fixed background of a conversation: a preamble sent before
// every submission and an initial exchange seeded into a fresh dialogue.
type Prompt struct {
	Name     string
	Preamble *dialogue.Dialogue
	Initial  *dialogue.Dialogue
}

func Empty() *Prompt {
	return &Prompt{
		Preamble: dialogue.New(math.MaxInt),
		Initial:  dialogue.New(math.MaxInt),
	}
}

func (p *Prompt) Clone() *Prompt {
	return &Prompt{
		Name:     p.Name,
		Preamble: p.Preamble.Clone(),
		Initial:  p.Initial.Clone(),
	}
}

func LoadFile(name, path string) (*Prompt, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, oops.
			In("prompt").
			With("path", path).
			Wrapf(err, "failed to read prompt file")
	}

	p, err := Parse(name, string(data))
	if err != nil {
		return nil, oops.
			In("prompt").
			With("path", path).
			Wrap(err)
	}

	return p, nil
}

// Parse reads the preamble stanza and, after a line starting with "---",
// the initial exchange. Groups starting with ">" are user turns.
func Parse(name, text string) (*Prompt, error) {
	preambleText, initialText := splitStanzas(text)

	p := Empty()
	p.Name = name

	readStanza(p.Preamble, preambleText)
	readStanza(p.Initial, initialText)

	if p.Preamble.Len() == 0 {
		return nil, oops.
			In("prompt").
			With("name", name).
			Errorf("prompt has an empty preamble")
	}

	return p, nil
}

func splitStanzas(text string) (string, string) {
	var (
		offset int
		rest   = text
	)

	for rest != "" {
		line, tail, found := strings.Cut(rest, "\n")
		if strings.HasPrefix(line, stanzaSeparator) {
			return text[:offset], tail
		}
		if !found {
			break
		}

		offset += len(line) + 1
		rest = tail
	}

	return text, ""
}

func readStanza(d *dialogue.Dialogue, text string) {
	for _, group := range segment.Split(text) {
		group = strings.TrimSpace(group)
		if group == "" {
			continue
		}

		if strings.HasPrefix(group, userMarker) {
			d.Push(dialogue.RoleUser, strings.TrimSpace(strings.TrimPrefix(group, userMarker)))
		} else {
			d.Push(dialogue.RoleModel, group)
		}
	}
}
