package dialogue

import "strings"

const groupSeparator = "\n\n"

// Group is one entry of a backend submission: consecutive turns of the
// same role folded together.
type Group struct {
	Role Role
	Text string
}

// Assemble concatenates the given transcripts and folds adjacent turns
// sharing a role. Grouping is adjacency-only, so user/model/user stays
// three groups.
func Assemble(transcripts ...[]Turn) []Group {
	var (
		groups []Group
		texts  []string
	)

	flush := func() {
		if len(texts) == 0 {
			return
		}
		groups[len(groups)-1].Text = strings.Join(texts, groupSeparator)
		texts = texts[:0]
	}

	for _, turns := range transcripts {
		for _, turn := range turns {
			if len(groups) == 0 || groups[len(groups)-1].Role != turn.Role {
				flush()
				groups = append(groups, Group{Role: turn.Role})
			}
			texts = append(texts, turn.Text)
		}
	}
	flush()

	return groups
}
