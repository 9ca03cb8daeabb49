package topic

import "testing"

func TestFromTag(t *testing.T) {
	p := FromTag("#flashcards/science/physics")
	if p.Key() != "flashcards/science/physics" {
		t.Errorf("key = %q", p.Key())
	}
	if p.Len() != 3 || p.First() != "flashcards" {
		t.Errorf("segments = %v", p.Segments())
	}
}

func TestNew_SkipsEmptySegments(t *testing.T) {
	p := New("", "a", " ", "b")
	if !p.Equal(New("a", "b")) {
		t.Errorf("got %v", p.Segments())
	}
}

func TestFromFolder(t *testing.T) {
	if !FromFolder("note.md").IsEmpty() {
		t.Error("top-level note should map to root")
	}
	p := FromFolder("lang/go/concurrency.md")
	if p.Key() != "lang/go" {
		t.Errorf("key = %q", p.Key())
	}
}

func TestSegmentsIsCopy(t *testing.T) {
	p := New("a", "b")
	s := p.Segments()
	s[0] = "mutated"
	if p.First() != "a" {
		t.Error("path should be immutable through Segments")
	}
}

func TestRestAndChild(t *testing.T) {
	p := Parse("a/b/c")
	if p.Rest().Key() != "b/c" {
		t.Errorf("rest = %q", p.Rest().Key())
	}
	if p.Child("d").Key() != "a/b/c/d" {
		t.Errorf("child = %q", p.Child("d").Key())
	}
	if p.Key() != "a/b/c" {
		t.Error("Child must not modify the receiver")
	}
}

func TestHasPrefix(t *testing.T) {
	p := Parse("a/b/c")
	if !p.HasPrefix(Parse("a/b")) {
		t.Error("a/b should prefix a/b/c")
	}
	if p.HasPrefix(Parse("a/c")) {
		t.Error("a/c should not prefix a/b/c")
	}
	if !p.HasPrefix(Path{}) {
		t.Error("root prefixes everything")
	}
}
