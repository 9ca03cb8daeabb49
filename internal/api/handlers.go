package api

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/mneme/internal/cards"
	"github.com/starford/mneme/internal/noteservice"
	"github.com/starford/mneme/internal/review"
	"github.com/starford/mneme/internal/scheduler"
)

// Handler holds API route handlers.
type Handler struct {
	reviews *review.Service
	notes   *noteservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(reviews *review.Service, notes *noteservice.Service) *Handler {
	return &Handler{reviews: reviews, notes: notes}
}

// notePath extracts the note path from the URL (everything after /api/notes/).
// Supports encoded slashes from OpenAPI clients (e.g. topics%2Fnote.md).
func notePath(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// ListDecks handles GET /api/decks.
//
//	@Summary		Deck tree with new and due counts
//	@Tags			decks
//	@Produce		json
//	@Param			all	query		bool	false	"Include buried questions"
//	@Success		200	{object}	DeckResponse
//	@Security		BearerAuth
//	@Router			/decks [get]
func (h *Handler) ListDecks(w http.ResponseWriter, r *http.Request) {
	if all, _ := strconv.ParseBool(r.URL.Query().Get("all")); all {
		writeJSON(w, http.StatusOK, DeckResponse{Root: h.reviews.Decks()})
		return
	}
	root, err := h.reviews.ReviewableDecks(r.Context())
	if err != nil {
		writeError(w, "list decks", err)
		return
	}
	writeJSON(w, http.StatusOK, DeckResponse{Root: root})
}

// NextCard handles GET /api/decks/next.
//
//	@Summary		Next card to review
//	@Tags			decks
//	@Produce		json
//	@Param			deck	query		string	false	"Deck path, e.g. flashcards/geo"
//	@Success		200		{object}	Card
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/decks/next [get]
func (h *Handler) NextCard(w http.ResponseWriter, r *http.Request) {
	card, err := h.reviews.NextCard(r.Context(), r.URL.Query().Get("deck"))
	if err != nil {
		writeError(w, "next card", err)
		return
	}
	writeJSON(w, http.StatusOK, card)
}

// GetCard handles GET /api/cards/{id}.
//
//	@Summary		Get a card by id
//	@Tags			cards
//	@Produce		json
//	@Param			id	path		string	true	"Card id"
//	@Success		200	{object}	Card
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/cards/{id} [get]
func (h *Handler) GetCard(w http.ResponseWriter, r *http.Request) {
	card, err := h.reviews.Card(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "get card", err)
		return
	}
	writeJSON(w, http.StatusOK, card)
}

// ReviewCard handles POST /api/cards/{id}/review.
//
//	@Summary		Review a card
//	@Tags			cards
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string			true	"Card id"
//	@Param			body	body		ReviewRequest	true	"easy, good, hard or reset"
//	@Success		200		{object}	CardReviewResponse
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/cards/{id}/review [post]
func (h *Handler) ReviewCard(w http.ResponseWriter, r *http.Request) {
	var req ReviewRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := scheduler.ParseResponse(req.Response)
	if err != nil {
		writeError(w, "review card", err)
		return
	}
	res, err := h.reviews.ReviewCard(r.Context(), chi.URLParam(r, "id"), resp)
	if err != nil {
		writeError(w, "review card", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// AddCard handles POST /api/cards.
//
//	@Summary		Append a card to a note
//	@Tags			cards
//	@Accept			json
//	@Produce		json
//	@Param			body	body		AddCardRequest	true	"Card to add"
//	@Success		201		{object}	NoteDetail
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/cards [post]
func (h *Handler) AddCard(w http.ResponseWriter, r *http.Request) {
	var req AddCardRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	typ := cards.SingleLineBasic
	if req.Type != "" {
		var ok bool
		if typ, ok = cards.ParseType(req.Type); !ok {
			writeJSON(w, http.StatusBadRequest, errorBody("unknown card type "+strconv.Quote(req.Type)))
			return
		}
	}
	note, err := h.notes.AddCard(r.Context(), noteservice.AddCardInput{
		Path:  req.Path,
		Type:  typ,
		Front: req.Front,
		Back:  req.Back,
	})
	if err != nil {
		writeError(w, "add card", err)
		return
	}
	if _, err := h.reviews.Scan(r.Context()); err != nil && !errors.Is(err, review.ErrScanInProgress) {
		slog.Warn("rescan after add card failed", slog.String("error", err.Error()))
	}
	writeJSON(w, http.StatusCreated, note)
}

// NoteQueue handles GET /api/notes/queue.
//
//	@Summary		Whole-note review queue
//	@Tags			notes
//	@Produce		json
//	@Success		200	{object}	NoteQueueResponse
//	@Security		BearerAuth
//	@Router			/notes/queue [get]
func (h *Handler) NoteQueue(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.reviews.NoteQueue())
}

// ReviewNote handles POST /api/notes/review.
//
//	@Summary		Review a whole note
//	@Tags			notes
//	@Accept			json
//	@Produce		json
//	@Param			body	body		NoteReviewRequest	true	"Note and response"
//	@Success		200		{object}	NoteReviewResponse
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/review [post]
func (h *Handler) ReviewNote(w http.ResponseWriter, r *http.Request) {
	var req NoteReviewRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	resp, err := scheduler.ParseResponse(req.Response)
	if err != nil {
		writeError(w, "review note", err)
		return
	}
	item, err := h.reviews.ReviewNote(r.Context(), req.Path, resp)
	if err != nil {
		writeError(w, "review note", err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// GetNote handles GET /api/notes/*.
//
//	@Summary		Get a single note by path
//	@Tags			notes
//	@Produce		json
//	@Param			path	path		string	true	"Note path"
//	@Success		200		{object}	NoteDetail
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{path} [get]
func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	path := notePath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	note, err := h.notes.GetNote(r.Context(), path)
	if err != nil {
		writeError(w, "get note", err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// Search handles GET /api/notes/search.
//
//	@Summary		Full-text search across notes
//	@Tags			notes
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.notes.Search(r.Context(), q, limit)
	if err != nil {
		writeError(w, "search", err)
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}

// Scan handles POST /api/scan.
//
//	@Summary		Rebuild decks and the note queue from the vault
//	@Tags			review
//	@Produce		json
//	@Success		200	{object}	ScanResponse
//	@Failure		409	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/scan [post]
func (h *Handler) Scan(w http.ResponseWriter, r *http.Request) {
	st, err := h.reviews.Scan(r.Context())
	if err != nil {
		writeError(w, "scan", err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// Stats handles GET /api/stats.
//
//	@Summary		Review statistics
//	@Tags			review
//	@Produce		json
//	@Success		200	{object}	StatsResponse
//	@Security		BearerAuth
//	@Router			/stats [get]
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	st, err := h.reviews.Stats(r.Context())
	if err != nil {
		writeError(w, "stats", err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}
