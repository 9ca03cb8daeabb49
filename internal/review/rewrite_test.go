package review

import (
	"testing"

	"github.com/starford/mneme/internal/cards"
)

func TestReplaceSpan(t *testing.T) {
	text := "intro\nQ::A\n<!--SR:!2026-01-01,1,250-->\noutro"

	t.Run("at recorded lines", func(t *testing.T) {
		got, first, ok := replaceSpan(text, 1, 2, "Q::A\n<!--SR:!2026-01-01,1,250-->", "Q::A\n<!--SR:!2026-01-05,4,250-->")
		if !ok || first != 1 {
			t.Fatalf("ok = %v, first = %d", ok, first)
		}
		if want := "intro\nQ::A\n<!--SR:!2026-01-05,4,250-->\noutro"; got != want {
			t.Errorf("got %q", got)
		}
	})

	t.Run("moved text falls back to unique occurrence", func(t *testing.T) {
		moved := "new line\n" + text
		got, first, ok := replaceSpan(moved, 1, 1, "Q::A", "Q::B")
		if !ok || first != 2 {
			t.Fatalf("ok = %v, first = %d", ok, first)
		}
		if want := "new line\nintro\nQ::B\n<!--SR:!2026-01-01,1,250-->\noutro"; got != want {
			t.Errorf("got %q", got)
		}
	})

	t.Run("ambiguous text is not replaced", func(t *testing.T) {
		dup := "Q::A\n\nQ::A"
		got, _, ok := replaceSpan(dup, 5, 5, "Q::A", "Q::B")
		if ok || got != dup {
			t.Errorf("ok = %v, got %q", ok, got)
		}
	})

	t.Run("missing text is not replaced", func(t *testing.T) {
		if _, _, ok := replaceSpan(text, 1, 1, "X::Y", "X::Z"); ok {
			t.Error("ok = true for missing text")
		}
	})
}

func TestRewrite_ShiftsLaterQuestions(t *testing.T) {
	text := "A::1\n\nB::2"
	qa := &cards.Question{RawText: "A::1", Line: 0, FirstLine: 0, LastLine: 0}
	qb := &cards.Question{RawText: "B::2", Line: 2, FirstLine: 2, LastLine: 2}
	all := []*cards.Question{qa, qb}

	got, rw, ok := planRewrite(text, qa, "A::1\n<!--SR:!2026-01-01,1,250-->")
	if !ok {
		t.Fatal("rewrite failed")
	}
	if qa.LastLine != 0 || qa.RawText != "A::1" || qb.FirstLine != 2 {
		t.Errorf("planning moved questions: qa = %+v, qb = %+v", qa, qb)
	}
	rw.commit(all)
	if qa.LastLine != 1 || qb.FirstLine != 3 || qb.Line != 3 || qb.LastLine != 3 {
		t.Errorf("qa = %+v, qb = %+v", qa, qb)
	}
	if got, rw, ok = planRewrite(got, qb, "B::2\n<!--SR:!2026-01-02,2,250-->"); !ok {
		t.Fatal("second rewrite failed")
	}
	rw.commit(all)
	want := "A::1\n<!--SR:!2026-01-01,1,250-->\n\nB::2\n<!--SR:!2026-01-02,2,250-->"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestNewlines(t *testing.T) {
	text, crlf := normalizeNewlines("a\r\nb\r\n")
	if !crlf || text != "a\nb\n" {
		t.Fatalf("normalize = %q, %v", text, crlf)
	}
	if got := restoreNewlines(text, crlf); got != "a\r\nb\r\n" {
		t.Errorf("restore = %q", got)
	}
	if _, crlf := normalizeNewlines("a\nb"); crlf {
		t.Error("crlf detected in LF text")
	}
}
