package cards

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/starford/mneme/internal/checksum"
	"github.com/starford/mneme/internal/schedule"
	"github.com/starford/mneme/internal/topic"
)

// ClozePlaceholder replaces the hidden deletion on the front of a cloze card.
const ClozePlaceholder = "[...]"

var inlineTagRe = regexp.MustCompile(`(?:^|\s)#([^\s#]+)`)

// Card is one front/back pair of a question.
type Card struct {
	ID       string
	Question *Question
	Index    int
	Front    string
	Back     string
	Schedule *schedule.Info
}

// IsNew reports whether the card has never been reviewed.
func (c *Card) IsNew() bool {
	return c.Schedule == nil
}

// IsDue reports whether the card is scheduled and due at now.
func (c *Card) IsDue(now time.Time) bool {
	return c.Schedule != nil && c.Schedule.IsDue(now)
}

// Question is one parsed block and the sibling cards it yields.
type Question struct {
	NotePath  string
	Type      Type
	RawText   string
	Line      int
	FirstLine int
	LastLine  int
	Topics    []topic.Path
	Hash      string
	Cards     []*Card
	// Dirty is set when RawText no longer matches what the schedules encode,
	// e.g. after excess tuples were dropped.
	Dirty bool
}

// QuestionContext carries the note-level information a question needs.
type QuestionContext struct {
	NotePath      string
	NoteTopics    []topic.Path
	FlashcardTags []string
	Parser        ParserOptions
}

// NewQuestion builds a question from a parsed block. Topic tags written inside
// the question override the note topics. Embedded schedules are matched to
// siblings by index; tuples beyond the sibling count are dropped and the
// question is marked dirty. It returns nil when the block yields no card.
func NewQuestion(b Block, qc QuestionContext) *Question {
	body := schedule.StripComment(b.Text)
	topics, body := extractTopics(body, qc.FlashcardTags)
	if len(topics) == 0 {
		topics = qc.NoteTopics
	}

	pairs := splitSiblings(b.Type, body, qc.Parser)
	if len(pairs) == 0 {
		return nil
	}

	q := &Question{
		NotePath:  qc.NotePath,
		Type:      b.Type,
		RawText:   b.Text,
		Line:      b.Line,
		FirstLine: b.FirstLine,
		LastLine:  b.LastLine,
		Topics:    topics,
		Hash:      checksum.Sum([]byte(schedule.StripComment(b.Text))),
	}

	schedules := schedule.DecodeCardSchedules(b.Text)
	if len(schedules) > len(pairs) {
		q.Dirty = true
	}

	for i, p := range pairs {
		c := &Card{
			ID:       cardID(q, i),
			Question: q,
			Index:    i,
			Front:    p[0],
			Back:     p[1],
		}
		if i < len(schedules) {
			c.Schedule = schedules[i]
		}
		q.Cards = append(q.Cards, c)
	}
	return q
}

// Siblings returns the question's cards other than c.
func (q *Question) Siblings(c *Card) []*Card {
	out := make([]*Card, 0, len(q.Cards)-1)
	for _, s := range q.Cards {
		if s != c {
			out = append(out, s)
		}
	}
	return out
}

// HasSchedules reports whether any sibling carries a schedule.
func (q *Question) HasSchedules() bool {
	for _, c := range q.Cards {
		if c.Schedule != nil {
			return true
		}
	}
	return false
}

// EncodeText returns RawText with a schedule comment holding one tuple per sibling.
func (q *Question) EncodeText(baseEase int, sameLine bool) string {
	infos := make([]*schedule.Info, len(q.Cards))
	for i, c := range q.Cards {
		infos[i] = c.Schedule
	}
	return schedule.ReplaceCardSchedule(q.RawText, schedule.EncodeCardSchedules(infos, baseEase), sameLine)
}

func cardID(q *Question, index int) string {
	key := fmt.Sprintf("%s\x00%d\x00%s\x00%d", q.NotePath, q.FirstLine, q.Hash, index)
	return checksum.Sum([]byte(key))[:16]
}

// extractTopics collects inline tags that fall under one of the flashcard tags and
// removes them from text.
func extractTopics(text string, flashcardTags []string) ([]topic.Path, string) {
	var topics []topic.Path
	cleaned := inlineTagRe.ReplaceAllStringFunc(text, func(m string) string {
		tag := strings.TrimSpace(m)
		if !MatchesTag(tag, flashcardTags) {
			return m
		}
		topics = append(topics, topic.FromTag(tag))
		return strings.TrimSuffix(m, tag)
	})
	if len(topics) == 0 {
		return nil, text
	}
	return topics, strings.TrimSpace(cleaned)
}

// MatchesTag reports whether tag equals one of prefixes or is nested below it.
// A leading '#' is ignored on both sides.
func MatchesTag(tag string, prefixes []string) bool {
	tag = strings.TrimPrefix(tag, "#")
	for _, p := range prefixes {
		p = strings.TrimPrefix(p, "#")
		if p != "" && (tag == p || strings.HasPrefix(tag, p+"/")) {
			return true
		}
	}
	return false
}

// splitSiblings returns the front/back pairs of a question body.
func splitSiblings(t Type, body string, opts ParserOptions) [][2]string {
	switch t {
	case SingleLineBasic:
		if f, b, ok := splitAt(body, opts.SingleLine); ok {
			return [][2]string{{f, b}}
		}
	case SingleLineReversed:
		if f, b, ok := splitAt(body, opts.SingleLineReversed); ok {
			return [][2]string{{f, b}, {b, f}}
		}
	case MultiLineBasic:
		if f, b, ok := splitAtLine(body, opts.MultiLine); ok {
			return [][2]string{{f, b}}
		}
	case MultiLineReversed:
		if f, b, ok := splitAtLine(body, opts.MultiLineReversed); ok {
			return [][2]string{{f, b}, {b, f}}
		}
	case Cloze:
		return clozeSiblings(body, opts)
	}
	return nil
}

func splitAt(body, sep string) (string, string, bool) {
	idx := strings.Index(body, sep)
	if sep == "" || idx < 0 {
		return "", "", false
	}
	return strings.TrimSpace(body[:idx]), strings.TrimSpace(body[idx+len(sep):]), true
}

func splitAtLine(body, sep string) (string, string, bool) {
	lines := strings.Split(body, "\n")
	for i, l := range lines {
		if strings.TrimSpace(l) == sep {
			front := strings.TrimSpace(strings.Join(lines[:i], "\n"))
			back := strings.TrimSpace(strings.Join(lines[i+1:], "\n"))
			return front, back, true
		}
	}
	return "", "", false
}

type deletion struct {
	start, end int
	answer     string
}

// clozeSiblings yields one card per deletion: the front hides that deletion and
// shows the others as plain text, the back reveals it in brackets.
func clozeSiblings(body string, opts ParserOptions) [][2]string {
	var dels []deletion
	for _, re := range opts.clozeMarkers() {
		for _, m := range re.FindAllStringSubmatchIndex(body, -1) {
			dels = append(dels, deletion{start: m[0], end: m[1], answer: body[m[2]:m[3]]})
		}
	}
	sort.Slice(dels, func(i, j int) bool { return dels[i].start < dels[j].start })

	// Drop deletions overlapping an earlier one.
	kept := dels[:0]
	end := -1
	for _, d := range dels {
		if d.start >= end {
			kept = append(kept, d)
			end = d.end
		}
	}

	out := make([][2]string, 0, len(kept))
	for i := range kept {
		var front, back strings.Builder
		prev := 0
		for j, d := range kept {
			front.WriteString(body[prev:d.start])
			back.WriteString(body[prev:d.start])
			if i == j {
				front.WriteString(ClozePlaceholder)
				back.WriteString("[" + d.answer + "]")
			} else {
				front.WriteString(d.answer)
				back.WriteString(d.answer)
			}
			prev = d.end
		}
		front.WriteString(body[prev:])
		back.WriteString(body[prev:])
		out = append(out, [2]string{strings.TrimSpace(front.String()), strings.TrimSpace(back.String())})
	}
	return out
}
