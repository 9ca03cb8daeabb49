// Package noteservice reads notes with their link context and appends new
// cards to the vault, keeping the index in step.
package noteservice

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/mneme/internal/apperr"
	"github.com/starford/mneme/internal/cards"
	"github.com/starford/mneme/internal/checksum"
	"github.com/starford/mneme/internal/index"
	"github.com/starford/mneme/internal/parser"
	"github.com/starford/mneme/internal/storage"
)

// NoteDetail is the full representation of a note.
type NoteDetail struct {
	Path        string         `json:"path"`
	Title       string         `json:"title"`
	Content     string         `json:"content"`
	Checksum    string         `json:"checksum"`
	Tags        []string       `json:"tags"`
	Frontmatter map[string]any `json:"frontmatter,omitempty"`
	Links       []string       `json:"links"`
	Backlinks   []string       `json:"backlinks"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// AddCardInput describes a card to append to a note.
// For cloze cards Front holds the full text and Back is ignored.
type AddCardInput struct {
	Path  string
	Type  cards.Type
	Front string
	Back  string
}

// Validate validates the input.
func (in AddCardInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Path, validation.Required),
		validation.Field(&in.Front, validation.Required),
		validation.Field(&in.Back, validation.When(in.Type != cards.Cloze, validation.Required)),
	)
}

// Service coordinates storage and index operations.
type Service struct {
	store   storage.Provider
	db      index.NoteIndex
	parser  cards.ParserOptions
	cardTag string
}

// NewService creates a new note service. New notes created by AddCard start
// with cardTag on their first line; an empty tag leaves them untagged.
func NewService(store storage.Provider, db index.NoteIndex, opts cards.ParserOptions, cardTag string) *Service {
	if cardTag != "" && !strings.HasPrefix(cardTag, "#") {
		cardTag = "#" + cardTag
	}
	return &Service{store: store, db: db, parser: opts, cardTag: cardTag}
}

// GetNote reads a note from storage, parses it, and enriches it with resolved links.
func (s *Service) GetNote(ctx context.Context, path string) (*NoteDetail, error) {
	data, err := s.store.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("noteservice: note %s: %w", path, apperr.ErrNotFound)
		}
		return nil, err
	}
	return s.buildNoteDetail(ctx, path, data)
}

// AddCard appends a card to the note at in.Path, creating the note when it
// does not exist. The card is separated from preceding text by a blank line.
func (s *Service) AddCard(ctx context.Context, in AddCardInput) (*NoteDetail, error) {
	if err := in.Validate(); err != nil {
		return nil, fmt.Errorf("noteservice: add card: %w: %s", apperr.ErrInvalidInput, err.Error())
	}
	path := in.Path
	if !strings.HasSuffix(strings.ToLower(path), ".md") {
		path += ".md"
	}
	block := cards.Render(in.Type, in.Front, in.Back, s.parser)

	var b strings.Builder
	existing, err := s.store.Read(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		if s.cardTag != "" {
			b.WriteString(s.cardTag + "\n\n")
		}
	case err != nil:
		return nil, err
	default:
		b.Write(existing)
		if len(existing) > 0 {
			if !strings.HasSuffix(string(existing), "\n") {
				b.WriteString("\n")
			}
			b.WriteString("\n")
		}
	}
	b.WriteString(block + "\n")

	content := []byte(b.String())
	if err := s.store.Write(path, content); err != nil {
		return nil, err
	}
	if err := s.IndexFile(path, content); err != nil {
		return nil, err
	}
	return s.buildNoteDetail(ctx, path, content)
}

// Search delegates full-text search to the index.
func (s *Service) Search(_ context.Context, query string, limit int) ([]index.SearchResult, error) {
	res, err := s.db.Search(query, limit)
	return nonNilSlice(res), err
}

// IndexFile parses data and upserts it into the index.
func (s *Service) IndexFile(path string, data []byte) error {
	res, err := parser.Parse(data)
	if err != nil {
		return err
	}
	return s.db.UpsertNote(index.NoteRow{
		Path:      path,
		Title:     res.Title,
		Checksum:  checksum.Sum(data),
		Tags:      nonNilSlice(res.Tags),
		UpdatedAt: time.Now(),
	}, res.Body, res.Links)
}

// buildNoteDetail constructs a NoteDetail from raw data without re-reading the file.
func (s *Service) buildNoteDetail(ctx context.Context, path string, data []byte) (*NoteDetail, error) {
	res, err := parser.Parse(data)
	if err != nil {
		return nil, err
	}
	links, err := s.db.ResolvedLinks(ctx)
	if err != nil {
		return nil, err
	}

	var outgoing, backlinks []string
	for target := range links[path] {
		outgoing = append(outgoing, target)
	}
	for source, targets := range links {
		if _, ok := targets[path]; ok {
			backlinks = append(backlinks, source)
		}
	}
	slices.Sort(outgoing)
	slices.Sort(backlinks)

	updated := time.Now()
	if row, err := s.db.GetNote(path); err == nil {
		updated = row.UpdatedAt
	}
	return &NoteDetail{
		Path:        path,
		Title:       res.Title,
		Content:     string(data),
		Checksum:    checksum.Sum(data),
		Tags:        nonNilSlice(res.Tags),
		Frontmatter: res.Frontmatter,
		Links:       nonNilSlice(outgoing),
		Backlinks:   nonNilSlice(backlinks),
		UpdatedAt:   updated,
	}, nil
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
