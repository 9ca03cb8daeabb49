// Package cards extracts flashcard questions from Markdown note text.
package cards

import (
	"regexp"
	"strings"

	"github.com/starford/mneme/internal/schedule"
)

// Type identifies the syntax a question was written in.
type Type int

const (
	SingleLineBasic Type = iota
	SingleLineReversed
	MultiLineBasic
	MultiLineReversed
	Cloze
)

var typeNames = [...]string{
	SingleLineBasic:    "single_line_basic",
	SingleLineReversed: "single_line_reversed",
	MultiLineBasic:     "multi_line_basic",
	MultiLineReversed:  "multi_line_reversed",
	Cloze:              "cloze",
}

// String returns the snake_case name of the type.
func (t Type) String() string {
	if t >= 0 && int(t) < len(typeNames) {
		return typeNames[t]
	}
	return "unknown"
}

// MarshalText implements encoding.TextMarshaler.
func (t Type) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

var (
	highlightRe = regexp.MustCompile(`==(.*?)==`)
	boldRe      = regexp.MustCompile(`\*\*(.*?)\*\*`)
	curlyRe     = regexp.MustCompile(`\{\{(.*?)\}\}`)
)

// ParserOptions configures the separators and cloze markers recognized by Parse.
type ParserOptions struct {
	SingleLine         string `yaml:"single_line_separator"`
	SingleLineReversed string `yaml:"single_line_reversed_separator"`
	MultiLine          string `yaml:"multi_line_separator"`
	MultiLineReversed  string `yaml:"multi_line_reversed_separator"`
	ConvertHighlights  bool   `yaml:"convert_highlights_to_clozes"`
	ConvertBold        bool   `yaml:"convert_bold_to_clozes"`
	ConvertCurly       bool   `yaml:"convert_curly_brackets_to_clozes"`
}

// DefaultParserOptions returns the stock separators and cloze markers.
func DefaultParserOptions() ParserOptions {
	return ParserOptions{
		SingleLine:         "::",
		SingleLineReversed: ":::",
		MultiLine:          "?",
		MultiLineReversed:  "??",
		ConvertHighlights:  true,
	}
}

func (o ParserOptions) clozeMarkers() []*regexp.Regexp {
	var out []*regexp.Regexp
	if o.ConvertHighlights {
		out = append(out, highlightRe)
	}
	if o.ConvertBold {
		out = append(out, boldRe)
	}
	if o.ConvertCurly {
		out = append(out, curlyRe)
	}
	return out
}

func (o ParserOptions) hasCloze(line string) bool {
	for _, re := range o.clozeMarkers() {
		if re.MatchString(line) {
			return true
		}
	}
	return false
}

// Block is the raw text of one question as found in a note.
type Block struct {
	Type Type
	Text string
	// Line is the line that determined the type: the separator line of a
	// multi-line block, the first cloze line, or the single line itself.
	Line int
	// FirstLine and LastLine bound the lines the text was taken from.
	FirstLine int
	LastLine  int
}

// Parse scans note text in a single forward pass and returns its question blocks
// in document order. Separators are matched as plain substrings.
func Parse(text string, opts ParserOptions) []Block {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")

	var (
		blocks      []Block
		buf         []string
		open        bool
		typ         Type
		line        int
		first, last int
	)

	flush := func() {
		if open && len(buf) > 0 {
			blocks = append(blocks, Block{
				Type:      typ,
				Text:      strings.Join(buf, "\n"),
				Line:      line,
				FirstLine: first,
				LastLine:  last,
			})
		}
		open = false
		buf = buf[:0]
	}

	for i := 0; i < len(lines); i++ {
		cur := lines[i]

		if strings.TrimSpace(cur) == "" {
			flush()
			continue
		}

		if strings.HasPrefix(cur, "<!--") && !strings.HasPrefix(cur, schedule.CommentPrefix) {
			for i+1 < len(lines) && !strings.Contains(lines[i], "-->") {
				i++
			}
			continue
		}

		if len(buf) == 0 {
			first = i
		}
		buf = append(buf, cur)
		last = i

		trimmed := strings.TrimSpace(cur)
		switch {
		case contains(cur, opts.SingleLineReversed) || contains(cur, opts.SingleLine):
			b := Block{Type: SingleLineBasic, Text: cur, Line: i, FirstLine: i, LastLine: i}
			if contains(cur, opts.SingleLineReversed) {
				b.Type = SingleLineReversed
			}
			if i+1 < len(lines) && strings.HasPrefix(lines[i+1], schedule.CommentPrefix) {
				i++
				b.Text += "\n" + lines[i]
				b.LastLine = i
			}
			blocks = append(blocks, b)
			open = false
			buf = buf[:0]

		case !open && opts.hasCloze(cur):
			open, typ, line = true, Cloze, i

		case opts.MultiLine != "" && trimmed == opts.MultiLine:
			open, typ, line = true, MultiLineBasic, i

		case opts.MultiLineReversed != "" && trimmed == opts.MultiLineReversed:
			open, typ, line = true, MultiLineReversed, i

		case strings.HasPrefix(cur, "```"):
			for i+1 < len(lines) && !strings.HasPrefix(lines[i+1], "```") {
				i++
				buf = append(buf, lines[i])
			}
			if i+1 < len(lines) {
				i++
				buf = append(buf, lines[i])
			}
			last = i
		}
	}
	flush()

	return blocks
}

func contains(line, sep string) bool {
	return sep != "" && strings.Contains(line, sep)
}
