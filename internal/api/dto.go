package api

import (
	"github.com/starford/mneme/internal/deck"
	"github.com/starford/mneme/internal/index"
	"github.com/starford/mneme/internal/noteservice"
	"github.com/starford/mneme/internal/review"
)

// ReviewRequest is the request body for reviewing a card.
type ReviewRequest struct {
	Response string `json:"response" example:"good" validate:"required"`
}

// NoteReviewRequest is the request body for reviewing a whole note.
type NoteReviewRequest struct {
	Path     string `json:"path" example:"topics/go.md" validate:"required"`
	Response string `json:"response" example:"good" validate:"required"`
}

// AddCardRequest is the request body for appending a card to a note.
type AddCardRequest struct {
	Path  string `json:"path" example:"flashcards/geo.md" validate:"required"`
	Type  string `json:"type" example:"single_line_basic"`
	Front string `json:"front" example:"Capital of France" validate:"required"`
	Back  string `json:"back" example:"Paris"`
}

// DeckResponse wraps the deck tree.
type DeckResponse struct {
	Root deck.Summary `json:"root" validate:"required"`
}

// Card is a single card in the API response (aliased from the domain layer).
type Card = review.CardView

// CardReviewResponse is returned after a card review.
type CardReviewResponse = review.CardResult

// NoteQueueResponse is the whole-note review queue.
type NoteQueueResponse = review.NoteQueue

// NoteReviewResponse is returned after a note review.
type NoteReviewResponse = review.NoteItem

// NoteDetail is the full note response type (aliased from the domain layer).
type NoteDetail = noteservice.NoteDetail

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []index.SearchResult `json:"results" validate:"required"`
}

// ScanResponse reports what a scan found.
type ScanResponse = review.ScanStats

// StatsResponse is the review state overview.
type StatsResponse = review.Stats
