package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// An empty origins list allows any origin.
func NewRouter(h *Handler, authEnabled bool, token string, origins []string) chi.Router {
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))
	r.Use(AuthMiddleware(authEnabled, token))

	// Decks and cards.
	r.Get("/decks", h.ListDecks)
	r.Get("/decks/next", h.NextCard)
	r.Post("/cards", h.AddCard)
	r.Get("/cards/{id}", h.GetCard)
	r.Post("/cards/{id}/review", h.ReviewCard)

	// Whole-note review.
	r.Get("/notes/queue", h.NoteQueue)
	r.Post("/notes/review", h.ReviewNote)
	r.Get("/notes/search", h.Search)
	r.Get("/notes/*", h.GetNote)

	r.Post("/scan", h.Scan)
	r.Get("/stats", h.Stats)

	return r
}
