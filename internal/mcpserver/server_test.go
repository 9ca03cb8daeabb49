package mcpserver

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/mneme/internal/deck"
	"github.com/starford/mneme/internal/index"
	"github.com/starford/mneme/internal/noteservice"
	"github.com/starford/mneme/internal/review"
	"github.com/starford/mneme/internal/storage"
	"github.com/starford/mneme/internal/testutil"
)

func testServer(t *testing.T, files map[string]string) (*Server, storage.Provider) {
	t.Helper()

	_, store := testutil.TestVault(t)
	for name, content := range files {
		if err := store.Write(name, []byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	db := testutil.TestDB(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if _, err := index.Sync(db, store, logger); err != nil {
		t.Fatal(err)
	}

	cfg := review.DefaultConfig()
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.Local)
	reviews := review.NewService(cfg, store, db, review.WithLogger(logger),
		review.WithClock(func() time.Time { return now }))
	if _, err := reviews.Scan(context.Background()); err != nil {
		t.Fatal(err)
	}
	notes := noteservice.NewService(store, db, cfg.Parser, cfg.FlashcardTags[0])
	return New(reviews, notes), store
}

func callTool(t *testing.T, srv *Server, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go has no in-process "call tool" helper, so handlers are called directly.
	handlers := map[string]func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error){
		"list_decks":      srv.listDecks,
		"next_card":       srv.nextCard,
		"review_card":     srv.reviewCard,
		"note_queue":      srv.noteQueue,
		"review_note":     srv.reviewNote,
		"add_card":        srv.addCard,
		"scan":            srv.scan,
		"search_notes":    srv.searchNotes,
		"read_note":       srv.readNote,
		"get_card_format": srv.getCardFormat,
	}
	h, ok := handlers[name]
	if !ok {
		t.Fatalf("unknown tool: %s", name)
	}
	result, err := h(ctx, req)
	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestReviewCardTools(t *testing.T) {
	srv, store := testServer(t, map[string]string{
		"geo.md": "#flashcards/geo\n\nCapital of France::Paris\n",
	})

	r := callTool(t, srv, "list_decks", nil)
	var root deck.Summary
	if err := json.Unmarshal([]byte(resultText(r)), &root); err != nil {
		t.Fatalf("list_decks: %v", err)
	}
	if root.New != 1 {
		t.Errorf("root = %+v", root)
	}

	r = callTool(t, srv, "next_card", map[string]any{"deck": "flashcards/geo"})
	if r.IsError {
		t.Fatalf("next_card: %s", resultText(r))
	}
	var card review.CardView
	if err := json.Unmarshal([]byte(resultText(r)), &card); err != nil {
		t.Fatal(err)
	}

	r = callTool(t, srv, "review_card", map[string]any{"id": card.ID, "response": "good"})
	if r.IsError {
		t.Fatalf("review_card: %s", resultText(r))
	}
	data, _ := store.Read("geo.md")
	if !strings.Contains(string(data), "<!--SR:!2026-03-13,3,250-->") {
		t.Errorf("note = %q", data)
	}

	r = callTool(t, srv, "next_card", nil)
	if !r.IsError {
		t.Error("expected error when no card is left")
	}
}

func TestReviewCardTool_InvalidResponse(t *testing.T) {
	srv, _ := testServer(t, nil)
	r := callTool(t, srv, "review_card", map[string]any{"id": "x", "response": "meh"})
	if !r.IsError {
		t.Error("expected error for invalid response")
	}
}

func TestNoteTools(t *testing.T) {
	srv, store := testServer(t, map[string]string{
		"topic.md": "#review\n\nSome text.\n",
	})

	r := callTool(t, srv, "note_queue", nil)
	var q review.NoteQueue
	if err := json.Unmarshal([]byte(resultText(r)), &q); err != nil {
		t.Fatal(err)
	}
	if len(q.New) != 1 {
		t.Fatalf("queue = %+v", q)
	}

	r = callTool(t, srv, "review_note", map[string]any{"path": "topic.md", "response": "hard"})
	if r.IsError {
		t.Fatalf("review_note: %s", resultText(r))
	}
	data, _ := store.Read("topic.md")
	if !strings.HasPrefix(string(data), "---\nsr-due: 2026-03-11\nsr-interval: 1\nsr-ease: 230\n---\n") {
		t.Errorf("note = %q", data)
	}
}

func TestAddCardAndScan(t *testing.T) {
	srv, store := testServer(t, nil)

	r := callTool(t, srv, "add_card", map[string]any{
		"path":  "bio.md",
		"type":  "multi_line_basic",
		"front": "What is ATP?",
		"back":  "The energy currency of the cell",
	})
	if r.IsError {
		t.Fatalf("add_card: %s", resultText(r))
	}
	data, _ := store.Read("bio.md")
	if want := "#flashcards\n\nWhat is ATP?\n?\nThe energy currency of the cell\n"; string(data) != want {
		t.Errorf("note = %q, want %q", data, want)
	}

	r = callTool(t, srv, "scan", nil)
	var st review.ScanStats
	if err := json.Unmarshal([]byte(resultText(r)), &st); err != nil {
		t.Fatal(err)
	}
	if st.Cards != 1 {
		t.Errorf("scan = %+v", st)
	}

	r = callTool(t, srv, "add_card", map[string]any{"path": "bio.md", "type": "nope", "front": "x"})
	if !r.IsError {
		t.Error("expected error for unknown type")
	}
}

func TestReadAndSearchNotes(t *testing.T) {
	srv, _ := testServer(t, map[string]string{"a.md": "# Alpha\nphotosynthesis notes\n"})

	r := callTool(t, srv, "read_note", map[string]any{"path": "a.md"})
	if resultText(r) != "# Alpha\nphotosynthesis notes\n" {
		t.Errorf("read = %q", resultText(r))
	}
	r = callTool(t, srv, "read_note", map[string]any{"path": "nope.md"})
	if !r.IsError {
		t.Error("expected error for missing note")
	}

	r = callTool(t, srv, "search_notes", map[string]any{"query": "photosynthesis"})
	if !strings.Contains(resultText(r), "a.md") {
		t.Errorf("search = %q", resultText(r))
	}
}

func TestCardFormat(t *testing.T) {
	srv, _ := testServer(t, nil)
	r := callTool(t, srv, "get_card_format", nil)
	if !strings.Contains(resultText(r), "<!--SR:") {
		t.Error("card format does not describe the schedule comment")
	}
}
