package cards

// Render writes a question in the syntax of t so that Parse reads it back as a
// single block. For Cloze, front is the full text with its deletion markers and
// back is ignored.
func Render(t Type, front, back string, opts ParserOptions) string {
	switch t {
	case SingleLineBasic:
		return front + opts.SingleLine + back
	case SingleLineReversed:
		return front + opts.SingleLineReversed + back
	case MultiLineBasic:
		return front + "\n" + opts.MultiLine + "\n" + back
	case MultiLineReversed:
		return front + "\n" + opts.MultiLineReversed + "\n" + back
	default:
		return front
	}
}

// ParseType parses a type name as returned by Type.String.
func ParseType(s string) (Type, bool) {
	for i, name := range typeNames {
		if name == s {
			return Type(i), true
		}
	}
	return 0, false
}
