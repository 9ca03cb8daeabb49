package schedule

import (
	"regexp"
	"strconv"
	"strings"
)

// CommentPrefix opens every card schedule comment.
const CommentPrefix = "<!--SR:"

var (
	commentRe      = regexp.MustCompile(`<!--SR:.*?-->`)
	commentStripRe = regexp.MustCompile(`(?:[ \t]+|\n)?<!--SR:.*?-->`)
	multiTupleRe   = regexp.MustCompile(`!([\d-]+),([\d.]+),(\d+)`)
	legacyRe       = regexp.MustCompile(`^<!--SR:([\d-]+),([\d.]+),(\d+)-->$`)
)

// DecodeCardSchedules extracts the schedule tuples embedded in a question's text,
// in sibling order. The multi-tuple form is tried first, then the legacy
// single-tuple form. A nil entry means the sibling is new: either its tuple is the
// placeholder written for unreviewed siblings, or its date could not be read.
// Text without a readable comment yields no tuples.
func DecodeCardSchedules(text string) []*Info {
	comment := commentRe.FindString(text)
	if comment == "" {
		return nil
	}

	matches := multiTupleRe.FindAllStringSubmatch(comment, -1)
	if len(matches) == 0 {
		if m := legacyRe.FindStringSubmatch(comment); m != nil {
			matches = [][]string{m}
		}
	}

	out := make([]*Info, 0, len(matches))
	for _, m := range matches {
		out = append(out, decodeTuple(m[1], m[2], m[3]))
	}
	return out
}

func decodeTuple(date, interval, ease string) *Info {
	if date == dummyDue {
		return nil
	}
	due, err := ParseDate(date)
	if err != nil {
		return nil
	}
	ivl, err := strconv.ParseFloat(interval, 64)
	if err != nil {
		return nil
	}
	e, err := strconv.Atoi(ease)
	if err != nil {
		return nil
	}
	return &Info{Due: due, Interval: ivl, Ease: e}
}

// EncodeCardSchedules renders one tuple per sibling. Siblings without a schedule
// get the placeholder tuple so that tuple positions keep matching sibling indexes.
func EncodeCardSchedules(infos []*Info, baseEase int) string {
	var b strings.Builder
	b.WriteString(CommentPrefix)
	for _, info := range infos {
		if info == nil {
			info = Dummy(baseEase)
		}
		b.WriteByte('!')
		b.WriteString(info.String())
	}
	b.WriteString("-->")
	return b.String()
}

// HasComment reports whether text carries a card schedule comment.
func HasComment(text string) bool {
	return commentRe.MatchString(text)
}

// StripComment removes the schedule comment and the whitespace or line break before it.
func StripComment(text string) string {
	return commentStripRe.ReplaceAllString(text, "")
}

// ReplaceCardSchedule returns text with its schedule comment replaced by comment.
// The comment goes on the same line when sameLine is set, unless the text ends
// with a code fence, where it must start a new line.
func ReplaceCardSchedule(text, comment string, sameLine bool) string {
	base := StripComment(text)
	sep := "\n"
	if sameLine && !strings.HasSuffix(base, "```") {
		sep = " "
	}
	return base + sep + comment
}
