package segment

import "strings"

const (
	codeFence      = "```"
	emphasisMarker = "*"
)

// Split breaks text into content-aware groups. Blank lines end a group
// unless they directly follow a single-line emphasized heading, and a
// fenced code block always forms exactly one group.
func Split(text string) []string {
	var (
		groups       []string
		current      strings.Builder
		afterHeading bool
		inCodeBlock  bool
	)

	flush := func() {
		if current.Len() == 0 {
			return
		}
		groups = append(groups, current.String())
		current.Reset()
	}

	for _, line := range lines(text) {
		switch {
		case line == "" && !inCodeBlock && !afterHeading:
			current.WriteString("\n")
			flush()

		case strings.HasPrefix(line, codeFence):
			inCodeBlock = !inCodeBlock
			afterHeading = false

			if inCodeBlock {
				flush()
				current.WriteString(line)
				current.WriteString("\n")
			} else {
				current.WriteString(line)
				current.WriteString("\n")
				flush()
			}

		default:
			current.WriteString(line)
			current.WriteString("\n")
			afterHeading = isHeading(line)
		}
	}
	flush()

	return groups
}

func isHeading(line string) bool {
	return strings.HasPrefix(line, emphasisMarker) && strings.HasSuffix(line, emphasisMarker)
}

// lines splits on '\n', strips a trailing '\r' and drops the empty
// element produced by a final newline.
func lines(text string) []string {
	if text == "" {
		return nil
	}

	result := strings.Split(text, "\n")
	if result[len(result)-1] == "" {
		result = result[:len(result)-1]
	}

	for i, line := range result {
		result[i] = strings.TrimSuffix(line, "\r")
	}

	return result
}
