package index

import (
	"context"
	"time"

	"github.com/starford/mneme/internal/models"
	"github.com/starford/mneme/internal/parser"
)

// NoteIndex is the metadata provider consumed by the review service and transports.
type NoteIndex interface {
	UpsertNote(n NoteRow, body string, links []parser.Link) error
	DeleteNote(path string) error
	GetNote(path string) (*NoteRow, error)
	GetChecksum(path string) (string, error)
	AllChecksums() (map[string]string, error)
	ResolvedLinks(ctx context.Context) (map[string]map[string]int, error)
	Search(query string, limit int) ([]SearchResult, error)

	AppendReview(ctx context.Context, e models.ReviewEntry) (models.ReviewEntry, error)
	RecentReviews(ctx context.Context, limit int) ([]models.ReviewEntry, error)
	CountReviewsSince(ctx context.Context, kind models.ReviewKind, since time.Time) (int, error)
	LoadBuried(ctx context.Context, day string) ([]string, error)
	SaveBuried(ctx context.Context, day string, hashes []string) error

	Close() error
}

var _ NoteIndex = (*DB)(nil)
