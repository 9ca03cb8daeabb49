package schedule

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Frontmatter keys holding a whole-note schedule.
const (
	KeyDue      = "sr-due"
	KeyInterval = "sr-interval"
	KeyEase     = "sr-ease"
)

var frontmatterRe = regexp.MustCompile(`(?s)\A---\n(.*?\n)?---(?:\n|\z)`)

type noteFields struct {
	Due      *string  `yaml:"sr-due"`
	Interval *float64 `yaml:"sr-interval"`
	Ease     *float64 `yaml:"sr-ease"`
}

// ParseNoteSchedule reads the sr-* frontmatter fields of a note.
// It reports false when any of the three fields is missing or unreadable.
func ParseNoteSchedule(text string) (*Info, bool) {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	m := frontmatterRe.FindStringSubmatch(text)
	if m == nil || m[1] == "" {
		return nil, false
	}

	var f noteFields
	if err := yaml.Unmarshal([]byte(m[1]), &f); err != nil {
		return nil, false
	}
	if f.Due == nil || f.Interval == nil || f.Ease == nil {
		return nil, false
	}

	due, err := ParseDate(strings.TrimSpace(*f.Due))
	if err != nil {
		return nil, false
	}
	return &Info{Due: due, Interval: *f.Interval, Ease: int(math.Round(*f.Ease))}, true
}

// SetNoteSchedule writes info into the note's frontmatter. Existing sr-* keys are
// updated in place, missing ones are appended to the block, and a note without
// frontmatter gets a new block in front of its content.
func SetNoteSchedule(text string, info *Info) string {
	values := map[string]string{
		KeyDue:      info.Due.Format(DateLayout),
		KeyInterval: FormatInterval(info.Interval),
		KeyEase:     fmt.Sprintf("%d", info.Ease),
	}
	order := []string{KeyDue, KeyInterval, KeyEase}

	loc := frontmatterRe.FindStringSubmatchIndex(text)
	if loc == nil {
		var b strings.Builder
		b.WriteString("---\n")
		for _, k := range order {
			b.WriteString(k + ": " + values[k] + "\n")
		}
		b.WriteString("---\n\n")
		b.WriteString(text)
		return b.String()
	}

	// Group 1 is absent for an empty block; insert right after the opening fence.
	blockStart, blockEnd := 4, 4
	if loc[2] >= 0 {
		blockStart, blockEnd = loc[2], loc[3]
	}

	var lines []string
	if blockEnd > blockStart {
		lines = strings.Split(strings.TrimSuffix(text[blockStart:blockEnd], "\n"), "\n")
	}
	written := make(map[string]bool, len(order))
	for i, line := range lines {
		for _, k := range order {
			if strings.HasPrefix(line, k+":") {
				lines[i] = k + ": " + values[k]
				written[k] = true
			}
		}
	}
	for _, k := range order {
		if !written[k] {
			lines = append(lines, k+": "+values[k])
		}
	}

	return text[:blockStart] + strings.Join(lines, "\n") + "\n" + text[blockEnd:]
}
