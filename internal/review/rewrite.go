package review

import (
	"strings"

	"github.com/starford/mneme/internal/cards"
)

// replaceSpan swaps the question text old, expected on lines first..last of
// text, for repl. When those lines no longer hold old, a single verbatim
// occurrence elsewhere is replaced instead. It returns the updated text and the
// line repl now starts on, or false when old cannot be located unambiguously.
func replaceSpan(text string, first, last int, old, repl string) (string, int, bool) {
	lines := strings.Split(text, "\n")
	if first >= 0 && first <= last && last < len(lines) && strings.Join(lines[first:last+1], "\n") == old {
		out := make([]string, 0, len(lines))
		out = append(out, lines[:first]...)
		out = append(out, strings.Split(repl, "\n")...)
		out = append(out, lines[last+1:]...)
		return strings.Join(out, "\n"), first, true
	}

	if old == "" || strings.Count(text, old) != 1 {
		return text, 0, false
	}
	idx := strings.Index(text, old)
	return text[:idx] + repl + text[idx+len(old):], strings.Count(text[:idx], "\n"), true
}

// rewrite is a located replacement of one question's text. Nothing about the
// question changes until commit is called.
type rewrite struct {
	q     *cards.Question
	first int
	repl  string
}

// planRewrite returns text with repl in place of q's text, or false when q's
// text cannot be located.
func planRewrite(text string, q *cards.Question, repl string) (string, rewrite, bool) {
	updated, first, ok := replaceSpan(text, q.FirstLine, q.LastLine, q.RawText, repl)
	if !ok {
		return text, rewrite{}, false
	}
	return updated, rewrite{q: q, first: first, repl: repl}, true
}

// commit records the new text and span on the question and moves the later
// questions of the same note by the change in line count.
func (r rewrite) commit(noteQuestions []*cards.Question) {
	q := r.q
	oldLast := q.LastLine
	delta := strings.Count(r.repl, "\n") - strings.Count(q.RawText, "\n")

	q.Line += r.first - q.FirstLine
	q.FirstLine = r.first
	q.LastLine = r.first + strings.Count(r.repl, "\n")
	q.RawText = r.repl
	q.Dirty = false

	if delta == 0 {
		return
	}
	for _, other := range noteQuestions {
		if other != q && other.FirstLine > oldLast {
			other.Line += delta
			other.FirstLine += delta
			other.LastLine += delta
		}
	}
}

func normalizeNewlines(text string) (string, bool) {
	if !strings.Contains(text, "\r\n") {
		return text, false
	}
	return strings.ReplaceAll(text, "\r\n", "\n"), true
}

func restoreNewlines(text string, crlf bool) string {
	if !crlf {
		return text
	}
	return strings.ReplaceAll(text, "\n", "\r\n")
}
