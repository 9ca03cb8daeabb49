package parser

import (
	"testing"
)

func TestParse_FrontmatterAndBody(t *testing.T) {
	input := []byte("---\ntitle: Hello\ntags:\n  - review\n  - flashcards/geo\nsr-ease: 250\n---\n# Hello\nBody text.\n")
	r, err := Parse(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Title != "Hello" {
		t.Errorf("title = %q, want %q", r.Title, "Hello")
	}
	if len(r.Tags) != 2 || r.Tags[0] != "review" || r.Tags[1] != "flashcards/geo" {
		t.Errorf("tags = %v", r.Tags)
	}
	if r.Body != "# Hello\nBody text.\n" {
		t.Errorf("body = %q", r.Body)
	}
	if r.Frontmatter["sr-ease"] != 250 {
		t.Errorf("sr-ease = %v", r.Frontmatter["sr-ease"])
	}
}

func TestParse_NoFrontmatter(t *testing.T) {
	r, err := Parse([]byte("# Just a heading\nSome text.\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Frontmatter != nil {
		t.Errorf("expected nil frontmatter, got %v", r.Frontmatter)
	}
	if r.Title != "Just a heading" {
		t.Errorf("title = %q", r.Title)
	}
}

func TestParse_InvalidYAMLFallback(t *testing.T) {
	r, err := Parse([]byte("---\n: invalid: yaml: {{{\n---\nBody\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Frontmatter != nil {
		t.Errorf("expected nil frontmatter on invalid YAML")
	}
}

func TestExtractLinks_Counts(t *testing.T) {
	body := "See [[Note A]] and [[Note B|alias]].\nAlso [[Note A#Section]] and [c](sub/c.md)."
	links := extractLinks(body)
	if len(links) != 3 {
		t.Fatalf("links = %+v", links)
	}
	if links[0] != (Link{Target: "Note A", Count: 2}) {
		t.Errorf("links[0] = %+v", links[0])
	}
	if links[1] != (Link{Target: "Note B", Count: 1}) {
		t.Errorf("links[1] = %+v", links[1])
	}
	if links[2].Target != "sub/c.md" {
		t.Errorf("links[2] = %+v", links[2])
	}
}

func TestExtractLinks_EmptyTarget(t *testing.T) {
	if links := extractLinks("see [[ ]] and [[|alias]]"); len(links) != 0 {
		t.Errorf("expected no links, got %v", links)
	}
}

func TestExtractTags_InlineAndFrontmatter(t *testing.T) {
	fm := map[string]any{"tags": []any{"alpha"}}
	tags := extractTags("Some text #beta and #alpha again.", fm)
	if len(tags) != 2 || tags[0] != "alpha" || tags[1] != "beta" {
		t.Errorf("tags = %v, want [alpha beta]", tags)
	}
}

func TestExtractTags_StringFrontmatterAndCode(t *testing.T) {
	fm := map[string]any{"tags": "review, #flashcards"}
	tags := extractTags("```sh\n# not a tag\n#nottag\n```\n#real", fm)
	want := []string{"review", "flashcards", "real"}
	if len(tags) != len(want) {
		t.Fatalf("tags = %v, want %v", tags, want)
	}
	for i := range want {
		if tags[i] != want[i] {
			t.Errorf("tags = %v, want %v", tags, want)
		}
	}
}

func TestHasTag(t *testing.T) {
	r := &Result{Tags: []string{"review/daily", "flashcards"}}
	if !r.HasTag("#review") || !r.HasTag("flashcards") {
		t.Error("expected tags to match")
	}
	if r.HasTag("rev") {
		t.Error("partial segment must not match")
	}
}

func TestDeriveTitle(t *testing.T) {
	if got := deriveTitle(map[string]any{"title": "FM Title"}, "# H1 Title\ntext"); got != "FM Title" {
		t.Errorf("title = %q, want FM Title", got)
	}
	if got := deriveTitle(nil, "some text\n# My Heading\nmore"); got != "My Heading" {
		t.Errorf("title = %q, want My Heading", got)
	}
}
