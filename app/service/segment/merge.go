package segment

import "strings"

// Placeholder replaces a group that cannot fit in a single segment.
const Placeholder = "*[section too long to send]*\n"

// MergeGroups greedily packs groups into segments of at most maxSize
// bytes. A group that alone exceeds maxSize is replaced by Placeholder.
func MergeGroups(groups []string, maxSize int) []string {
	var (
		segments []string
		running  strings.Builder
	)

	flush := func() {
		if running.Len() == 0 {
			return
		}
		segments = append(segments, running.String())
		running.Reset()
	}

	for _, group := range groups {
		if running.Len()+len(group) > maxSize {
			flush()
		}

		if len(group) > maxSize {
			running.WriteString(Placeholder)
			continue
		}

		running.WriteString(group)
	}
	flush()

	return segments
}

// PrepareResponse returns text untouched when it already fits under
// limit, otherwise splits and re-merges it into transport-sized segments.
func PrepareResponse(text string, limit int) []string {
	if len(text) < limit {
		return []string{text}
	}

	return MergeGroups(Split(text), limit)
}

// RenderedLen is the total length of the segments as delivered.
func RenderedLen(segments []string) int {
	total := 0
	for _, s := range segments {
		total += len(s)
	}
	return total
}
