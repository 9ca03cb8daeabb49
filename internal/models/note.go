// Package models defines the vault and review log types shared across packages.
package models

import "time"

// NoteMetadata is what the file abstraction reports for each note.
type NoteMetadata struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Link is a directed edge between two notes, weighted by how often the source
// mentions the target.
type Link struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Count  int    `json:"count"`
}

// ReviewKind tells card reviews from whole-note reviews.
type ReviewKind string

const (
	ReviewCard ReviewKind = "card"
	ReviewNote ReviewKind = "note"
)

// ReviewEntry is one row of the review log.
type ReviewEntry struct {
	ID         string     `json:"id"`
	Kind       ReviewKind `json:"kind"`
	NotePath   string     `json:"note_path"`
	CardID     string     `json:"card_id,omitempty"`
	Response   string     `json:"response"`
	Interval   float64    `json:"interval"`
	Ease       int        `json:"ease"`
	Due        time.Time  `json:"due"`
	ReviewedAt time.Time  `json:"reviewed_at"`
}
