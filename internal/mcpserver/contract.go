package mcpserver

// CardFormatContract describes how flashcards are written inside notes so that
// LLM consumers can add cards the scanner will pick up.
const CardFormatContract = `# mneme Card Format

Cards live inside ordinary Markdown notes. A note's cards are filed under the
decks named by its flashcard tags (e.g. ` + "`#flashcards/geo`" + ` files into deck
` + "`flashcards/geo`" + `). A tag written on the question itself overrides the note tags.

## Syntax

| Type | Example |
|---|---|
| single_line_basic | ` + "`Capital of France::Paris`" + ` |
| single_line_reversed | ` + "`Capital of France:::Paris`" + ` (two cards, one per direction) |
| multi_line_basic | front lines, a line with only ` + "`?`" + `, back lines |
| multi_line_reversed | front lines, a line with only ` + "`??`" + `, back lines |
| cloze | ` + "`The capital of ==France== is ==Paris==`" + ` (one card per deletion) |

Rules:

1. Separate multi-line questions and clozes from surrounding text with a blank line.
2. Bold (` + "`**x**`" + `) also marks a cloze deletion; curly brackets ` + "`{{x}}`" + ` only when enabled.
3. Text inside code fences is kept verbatim and never split.
4. HTML comments are ignored, except the schedule comment below.

## Schedule comment

After a review, the question gets one comment holding a tuple per card:

` + "```" + `
Capital of France:::Paris
<!--SR:!2026-03-13,3,250!2026-03-11,1,230-->
` + "```" + `

Each tuple is ` + "`due date,interval in days,ease`" + `. Do not edit or copy it by hand.

## Whole-note review

Notes tagged ` + "`#review`" + ` are reviewed as a whole. Their schedule is kept in the
frontmatter keys ` + "`sr-due`" + `, ` + "`sr-interval`" + ` and ` + "`sr-ease`" + `.
`
