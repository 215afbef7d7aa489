package domain

import (
	"strings"

	"github.com/samber/lo"
)

// Quiz is the ordered list of non-blank question/answer lines produced by the oracle.
// A session treats it as read-only context for every follow-up prompt.
type Quiz []string

// String serializes the quiz back into newline-joined text.
func (q Quiz) String() string {
	return strings.Join(q, "\n")
}

// IsEmpty reports whether the quiz has no lines.
func (q Quiz) IsEmpty() bool {
	return len(q) == 0
}

// Clone returns a copy that can be handed out without exposing the session's slice.
func (q Quiz) Clone() Quiz {
	if q == nil {
		return Quiz{}
	}
	out := make(Quiz, len(q))
	copy(out, q)
	return out
}

// SegmentQuiz splits raw model output into quiz lines. Blank lines are dropped and
// order is kept. It never fails: output with no content yields an empty quiz.
func SegmentQuiz(raw string) Quiz {
	lines := lo.FilterMap(strings.Split(raw, "\n"), func(line string, _ int) (string, bool) {
		line = strings.TrimSuffix(line, "\r")
		return line, strings.TrimSpace(line) != ""
	})
	return Quiz(lines)
}

// NormalizeQuiz accepts quiz lines from a client and re-segments them, so a quiz sent
// back as one newline-joined string and one sent as a list end up identical.
func NormalizeQuiz(lines []string) Quiz {
	return SegmentQuiz(strings.Join(lines, "\n"))
}
