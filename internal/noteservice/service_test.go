package noteservice

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/starford/mneme/internal/apperr"
	"github.com/starford/mneme/internal/cards"
	"github.com/starford/mneme/internal/storage"
	"github.com/starford/mneme/internal/testutil"
)

func testService(t *testing.T, cardTag string) (*Service, storage.Provider) {
	t.Helper()
	_, store := testutil.TestVault(t)
	db := testutil.TestDB(t)
	return NewService(store, db, cards.DefaultParserOptions(), cardTag), store
}

func TestAddCard_CreatesNote(t *testing.T) {
	svc, store := testService(t, "flashcards")
	ctx := context.Background()

	note, err := svc.AddCard(ctx, AddCardInput{Path: "geo/capitals", Type: cards.SingleLineBasic, Front: "France", Back: "Paris"})
	if err != nil {
		t.Fatal(err)
	}
	if note.Path != "geo/capitals.md" {
		t.Errorf("path = %q", note.Path)
	}
	data, err := store.Read("geo/capitals.md")
	if err != nil {
		t.Fatal(err)
	}
	if want := "#flashcards\n\nFrance::Paris\n"; string(data) != want {
		t.Errorf("content = %q, want %q", data, want)
	}
	if !slices.Contains(note.Tags, "flashcards") {
		t.Errorf("tags = %v", note.Tags)
	}
}

func TestAddCard_AppendsWithBlankLine(t *testing.T) {
	svc, store := testService(t, "flashcards")
	ctx := context.Background()
	if err := store.Write("n.md", []byte("#flashcards\n\nA::B")); err != nil {
		t.Fatal(err)
	}

	if _, err := svc.AddCard(ctx, AddCardInput{Path: "n.md", Type: cards.Cloze, Front: "The ==sun== is a star"}); err != nil {
		t.Fatal(err)
	}
	data, _ := store.Read("n.md")
	if want := "#flashcards\n\nA::B\n\nThe ==sun== is a star\n"; string(data) != want {
		t.Errorf("content = %q, want %q", data, want)
	}
}

func TestAddCard_Untagged(t *testing.T) {
	svc, store := testService(t, "")
	if _, err := svc.AddCard(context.Background(), AddCardInput{Path: "x.md", Type: cards.SingleLineReversed, Front: "a", Back: "b"}); err != nil {
		t.Fatal(err)
	}
	data, _ := store.Read("x.md")
	if string(data) != "a:::b\n" {
		t.Errorf("content = %q", data)
	}
}

func TestAddCard_InvalidInput(t *testing.T) {
	svc, _ := testService(t, "flashcards")
	ctx := context.Background()

	cases := []AddCardInput{
		{Front: "q", Back: "a"},
		{Path: "a.md", Back: "a"},
		{Path: "a.md", Type: cards.MultiLineBasic, Front: "q"},
	}
	for _, in := range cases {
		if _, err := svc.AddCard(ctx, in); !errors.Is(err, apperr.ErrInvalidInput) {
			t.Errorf("AddCard(%+v) err = %v, want ErrInvalidInput", in, err)
		}
	}
}

func TestGetNote_LinksAndBacklinks(t *testing.T) {
	svc, store := testService(t, "")
	files := map[string]string{
		"a.md": "# Alpha\nSee [[b]].\n",
		"b.md": "# Beta\nBack to [[a]] and [[c]].\n",
		"c.md": "# Gamma\n",
	}
	for name, content := range files {
		if err := store.Write(name, []byte(content)); err != nil {
			t.Fatal(err)
		}
		if err := svc.IndexFile(name, []byte(content)); err != nil {
			t.Fatal(err)
		}
	}

	note, err := svc.GetNote(context.Background(), "b.md")
	if err != nil {
		t.Fatal(err)
	}
	if note.Title != "Beta" {
		t.Errorf("title = %q", note.Title)
	}
	if !slices.Equal(note.Links, []string{"a.md", "c.md"}) {
		t.Errorf("links = %v", note.Links)
	}
	if !slices.Equal(note.Backlinks, []string{"a.md"}) {
		t.Errorf("backlinks = %v", note.Backlinks)
	}
}

func TestGetNote_NotFound(t *testing.T) {
	svc, _ := testService(t, "")
	if _, err := svc.GetNote(context.Background(), "missing.md"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}
