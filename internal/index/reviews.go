package index

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/starford/mneme/internal/models"
)

// AppendReview stores one review. An empty ID is filled with a new UUID.
func (db *DB) AppendReview(ctx context.Context, e models.ReviewEntry) (models.ReviewEntry, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO reviews (id, kind, note_path, card_id, response, interval, ease, due, reviewed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, e.ID, string(e.Kind), e.NotePath, e.CardID, e.Response, e.Interval, e.Ease, e.Due, e.ReviewedAt)
	if err != nil {
		return e, fmt.Errorf("index: append review: %w", err)
	}
	return e, nil
}

// RecentReviews returns up to limit reviews, newest first.
func (db *DB) RecentReviews(ctx context.Context, limit int) ([]models.ReviewEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, kind, note_path, card_id, response, interval, ease, due, reviewed_at
		FROM reviews
		ORDER BY reviewed_at DESC, id
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("index: recent reviews: %w", err)
	}
	defer rows.Close()

	var out []models.ReviewEntry
	for rows.Next() {
		var (
			e    models.ReviewEntry
			kind string
		)
		if err := rows.Scan(&e.ID, &kind, &e.NotePath, &e.CardID, &e.Response, &e.Interval, &e.Ease, &e.Due, &e.ReviewedAt); err != nil {
			return nil, err
		}
		e.Kind = models.ReviewKind(kind)
		out = append(out, e)
	}
	return out, rows.Err()
}

// CountReviewsSince returns the number of reviews of kind made at or after since.
func (db *DB) CountReviewsSince(ctx context.Context, kind models.ReviewKind, since time.Time) (int, error) {
	var n int
	err := db.conn.QueryRowContext(ctx,
		`SELECT count(*) FROM reviews WHERE kind = ? AND reviewed_at >= ?`, string(kind), since).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("index: count reviews: %w", err)
	}
	return n, nil
}

// LoadBuried returns the hashes of questions buried on day.
func (db *DB) LoadBuried(ctx context.Context, day string) ([]string, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT hash FROM buried WHERE day = ? ORDER BY hash`, day)
	if err != nil {
		return nil, fmt.Errorf("index: load buried: %w", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var h string
		if err := rows.Scan(&h); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// SaveBuried replaces the stored buried hashes with those of day. Earlier days are dropped.
func (db *DB) SaveBuried(ctx context.Context, day string, hashes []string) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM buried`); err != nil {
		return fmt.Errorf("index: clear buried: %w", err)
	}
	for _, h := range hashes {
		if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO buried (day, hash) VALUES (?, ?)`, day, h); err != nil {
			return fmt.Errorf("index: insert buried: %w", err)
		}
	}
	return tx.Commit()
}
