// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes mneme review tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/mneme/internal/cards"
	"github.com/starford/mneme/internal/noteservice"
	"github.com/starford/mneme/internal/review"
	"github.com/starford/mneme/internal/scheduler"
)

const cardFormatURI = "mneme://card-format"

// Server wraps the MCP server with mneme tools.
type Server struct {
	mcp     *server.MCPServer
	reviews *review.Service
	notes   *noteservice.Service
}

// New creates a new MCP server with all mneme tools registered.
func New(reviews *review.Service, notes *noteservice.Service) *Server {
	s := &Server{reviews: reviews, notes: notes}

	s.mcp = server.NewMCPServer(
		"mneme",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	responses := mcp.Enum("easy", "good", "hard", "reset")

	s.mcp.AddTool(mcp.NewTool("list_decks",
		mcp.WithDescription("Deck tree with new, due and total card counts. Buried cards are excluded."),
	), s.listDecks)

	s.mcp.AddTool(mcp.NewTool("next_card",
		mcp.WithDescription("Next card to review, due cards first. Returns the card id, front and back."),
		mcp.WithString("deck", mcp.Description("Optional deck path (e.g. flashcards/geo); empty for all decks")),
	), s.nextCard)

	s.mcp.AddTool(mcp.NewTool("review_card",
		mcp.WithDescription("Record how well a card was recalled and write its new schedule into the note."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Card id from next_card")),
		mcp.WithString("response", mcp.Required(), responses, mcp.Description("Recall quality")),
	), s.reviewCard)

	s.mcp.AddTool(mcp.NewTool("note_queue",
		mcp.WithDescription("Notes queued for whole-note review: new notes by importance, then due and later notes."),
	), s.noteQueue)

	s.mcp.AddTool(mcp.NewTool("review_note",
		mcp.WithDescription("Record a whole-note review and write its schedule into the frontmatter."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the note (e.g. folder/note.md)")),
		mcp.WithString("response", mcp.Required(), responses, mcp.Description("Recall quality")),
	), s.reviewNote)

	s.mcp.AddTool(mcp.NewTool("add_card",
		mcp.WithDescription("Append a flashcard to a note, creating the note if needed. "+
			"Read the card format via get_card_format or the "+cardFormatURI+" resource first."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path of the note")),
		mcp.WithString("type", mcp.Enum("single_line_basic", "single_line_reversed", "multi_line_basic", "multi_line_reversed", "cloze"),
			mcp.Description("Card type, single_line_basic when omitted")),
		mcp.WithString("front", mcp.Required(), mcp.Description("Question, or the full text for cloze cards")),
		mcp.WithString("back", mcp.Description("Answer; ignored for cloze cards")),
	), s.addCard)

	s.mcp.AddTool(mcp.NewTool("scan",
		mcp.WithDescription("Rebuild decks and the note queue from the vault."),
	), s.scan)

	s.mcp.AddTool(mcp.NewTool("search_notes",
		mcp.WithDescription("Full-text search through notes content and titles."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchNotes)

	s.mcp.AddTool(mcp.NewTool("read_note",
		mcp.WithDescription("Read the full content of a Markdown note."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the note (e.g. folder/note.md)")),
	), s.readNote)

	s.mcp.AddTool(mcp.NewTool("get_card_format",
		mcp.WithDescription("Returns how flashcards and schedules are written inside notes."),
	), s.getCardFormat)

	s.mcp.AddResource(
		mcp.NewResource(cardFormatURI, "Card Format",
			mcp.WithResourceDescription("Markdown syntax of flashcards and review schedules."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readCardFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) listDecks(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	root, err := s.reviews.ReviewableDecks(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(root)
}

func (s *Server) nextCard(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	card, err := s.reviews.NextCard(ctx, req.GetString("deck", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(card)
}

func (s *Server) reviewCard(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	resp, err := requireResponse(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := s.reviews.ReviewCard(ctx, id, resp)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(res)
}

func (s *Server) noteQueue(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.reviews.NoteQueue())
}

func (s *Server) reviewNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	resp, err := requireResponse(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	item, err := s.reviews.ReviewNote(ctx, path, resp)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(item)
}

func (s *Server) addCard(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	front, err := req.RequireString("front")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	typ := cards.SingleLineBasic
	if name := req.GetString("type", ""); name != "" {
		var ok bool
		if typ, ok = cards.ParseType(name); !ok {
			return mcp.NewToolResultError(fmt.Sprintf("unknown card type %q", name)), nil
		}
	}

	note, err := s.notes.AddCard(ctx, noteservice.AddCardInput{
		Path:  path,
		Type:  typ,
		Front: front,
		Back:  req.GetString("back", ""),
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if _, err := s.reviews.Scan(ctx); err != nil && !errors.Is(err, review.ErrScanInProgress) {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("added to: %s", note.Path)), nil
}

func (s *Server) scan(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	st, err := s.reviews.Scan(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(st)
}

func (s *Server) searchNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.notes.Search(ctx, query, 20)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(results)
}

func (s *Server) readNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	note, err := s.notes.GetNote(ctx, path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", path)), nil
	}
	return mcp.NewToolResultText(note.Content), nil
}

func (s *Server) getCardFormat(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(CardFormatContract), nil
}

func (s *Server) readCardFormatResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      cardFormatURI,
			MIMEType: "text/markdown",
			Text:     CardFormatContract,
		},
	}, nil
}

func requireResponse(req mcp.CallToolRequest) (scheduler.Response, error) {
	name, err := req.RequireString("response")
	if err != nil {
		return 0, err
	}
	return scheduler.ParseResponse(name)
}
