package dialogue

import "strings"

type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

type Turn struct {
	Role Role
	Text string
}

// Dialogue is an ordered transcript bounded by a word budget.
// Oldest turns are evicted first once TotalLen exceeds MaxLen.
type Dialogue struct {
	turns    []Turn
	totalLen int
	maxLen   int
}

func New(maxLen int) *Dialogue {
	return &Dialogue{maxLen: maxLen}
}

// WordCount approximates length by splitting on single spaces.
// Blank text still counts as one word.
func WordCount(text string) int {
	return len(strings.Split(strings.TrimSpace(text), " "))
}

func (d *Dialogue) Push(role Role, text string) {
	d.turns = append(d.turns, Turn{Role: role, Text: text})
	d.totalLen += WordCount(text)
	d.truncate()
}

// Append pushes every turn of other one at a time, so eviction may drop
// turns from the front of the combined transcript while merging.
func (d *Dialogue) Append(other *Dialogue) {
	if other == nil {
		return
	}

	for _, turn := range other.Turns() {
		d.Push(turn.Role, turn.Text)
	}
}

func (d *Dialogue) Reset() {
	d.turns = nil
	d.totalLen = 0
}

func (d *Dialogue) SetMaxLen(maxLen int) {
	d.maxLen = maxLen
	d.truncate()
}

func (d *Dialogue) truncate() {
	for d.totalLen > d.maxLen && len(d.turns) > 0 {
		d.totalLen -= WordCount(d.turns[0].Text)
		d.turns[0] = Turn{}
		d.turns = d.turns[1:]
	}
}

func (d *Dialogue) Turns() []Turn {
	result := make([]Turn, len(d.turns))
	copy(result, d.turns)
	return result
}

func (d *Dialogue) Len() int {
	return len(d.turns)
}

func (d *Dialogue) TotalLen() int {
	return d.totalLen
}

func (d *Dialogue) MaxLen() int {
	return d.maxLen
}

func (d *Dialogue) Clone() *Dialogue {
	return &Dialogue{
		turns:    d.Turns(),
		totalLen: d.totalLen,
		maxLen:   d.maxLen,
	}
}
