package index

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/starford/mneme/internal/apperr"
	"github.com/starford/mneme/internal/parser"
)

// NoteRow is a row of the notes table.
type NoteRow struct {
	Path      string    `json:"path"`
	Title     string    `json:"title"`
	Checksum  string    `json:"checksum"`
	Tags      []string  `json:"tags"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SearchResult is one search hit.
type SearchResult struct {
	Path    string `json:"path"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

// UpsertNote inserts or replaces a note, its FTS entry, and its outgoing links
// in one transaction. Link targets are stored as written; they are resolved to
// note paths by ResolvedLinks.
func (db *DB) UpsertNote(n NoteRow, body string, links []parser.Link) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	tagsJSON, _ := json.Marshal(n.Tags)
	_, err = tx.Exec(`
		INSERT INTO notes (path, title, checksum, tags, body, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			title      = excluded.title,
			checksum   = excluded.checksum,
			tags       = excluded.tags,
			body       = excluded.body,
			updated_at = excluded.updated_at
	`, n.Path, n.Title, n.Checksum, string(tagsJSON), body, n.UpdatedAt)
	if err != nil {
		return fmt.Errorf("index: upsert note: %w", err)
	}

	if err := ftsUpsert(tx, n.Path, n.Title, body, n.Tags); err != nil {
		return err
	}

	if _, err := tx.Exec(`DELETE FROM links WHERE source = ?`, n.Path); err != nil {
		return fmt.Errorf("index: clear links: %w", err)
	}
	if len(links) > 0 {
		stmt, err := tx.Prepare(`
			INSERT INTO links (source, target, count) VALUES (?, ?, ?)
			ON CONFLICT(source, target) DO UPDATE SET count = count + excluded.count
		`)
		if err != nil {
			return fmt.Errorf("index: prepare link insert: %w", err)
		}
		defer stmt.Close()
		for _, l := range links {
			if _, err := stmt.Exec(n.Path, l.Target, l.Count); err != nil {
				return fmt.Errorf("index: insert link: %w", err)
			}
		}
	}

	return tx.Commit()
}

// DeleteNote removes a note, its FTS entry, and its outgoing links.
func (db *DB) DeleteNote(path string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ftsDelete(tx, path)
	if _, err := tx.Exec(`DELETE FROM links WHERE source = ?`, path); err != nil {
		return fmt.Errorf("index: delete links: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM notes WHERE path = ?`, path); err != nil {
		return fmt.Errorf("index: delete note: %w", err)
	}
	return tx.Commit()
}

// GetNote returns the indexed note at path, or apperr.ErrNotFound.
func (db *DB) GetNote(path string) (*NoteRow, error) {
	var (
		n    NoteRow
		tags string
	)
	err := db.conn.QueryRow(`SELECT path, title, checksum, tags, updated_at FROM notes WHERE path = ?`, path).
		Scan(&n.Path, &n.Title, &n.Checksum, &tags, &n.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("index: note %s: %w", path, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("index: get note: %w", err)
	}
	_ = json.Unmarshal([]byte(tags), &n.Tags)
	return &n, nil
}

// GetChecksum returns the stored checksum for a note, or "" if it is not indexed.
func (db *DB) GetChecksum(path string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM notes WHERE path = ?`, path).Scan(&cs)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("index: get checksum: %w", err)
	}
	return cs, nil
}

// AllChecksums returns the checksum of every indexed note keyed by path.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT path, checksum FROM notes`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, err
		}
		out[p] = cs
	}
	return out, rows.Err()
}

// ResolvedLinks returns link counts between indexed notes: source path to
// target path to count. Targets are matched against note paths with or without
// the .md extension, relative to the source's folder, or by file name alone
// (the shortest matching path wins). Unresolved targets and self links are dropped.
func (db *DB) ResolvedLinks(ctx context.Context) (map[string]map[string]int, error) {
	checksums, err := db.AllChecksums()
	if err != nil {
		return nil, err
	}
	r := newResolver(checksums)

	rows, err := db.conn.QueryContext(ctx, `SELECT source, target, count FROM links ORDER BY source, target`)
	if err != nil {
		return nil, fmt.Errorf("index: resolved links: %w", err)
	}
	defer rows.Close()

	out := make(map[string]map[string]int)
	for rows.Next() {
		var (
			source, target string
			count          int
		)
		if err := rows.Scan(&source, &target, &count); err != nil {
			return nil, err
		}
		dest, ok := r.resolve(source, target)
		if !ok || dest == source {
			continue
		}
		if out[source] == nil {
			out[source] = make(map[string]int)
		}
		out[source][dest] += count
	}
	return out, rows.Err()
}

type resolver struct {
	paths  map[string]string
	byName map[string]string
}

func newResolver(notes map[string]string) *resolver {
	sorted := make([]string, 0, len(notes))
	for p := range notes {
		sorted = append(sorted, p)
	}
	sort.Slice(sorted, func(i, j int) bool {
		if len(sorted[i]) != len(sorted[j]) {
			return len(sorted[i]) < len(sorted[j])
		}
		return sorted[i] < sorted[j]
	})

	r := &resolver{paths: make(map[string]string), byName: make(map[string]string)}
	for _, p := range sorted {
		stem := strings.TrimSuffix(p, ".md")
		r.paths[strings.ToLower(stem)] = p
		name := strings.ToLower(path.Base(stem))
		if _, ok := r.byName[name]; !ok {
			r.byName[name] = p
		}
	}
	return r
}

func (r *resolver) resolve(source, target string) (string, bool) {
	key := strings.ToLower(strings.TrimSuffix(target, ".md"))
	if p, ok := r.paths[key]; ok {
		return p, true
	}
	if dir := path.Dir(source); dir != "." {
		if p, ok := r.paths[strings.ToLower(path.Join(dir, key))]; ok {
			return p, true
		}
	}
	p, ok := r.byName[key]
	return p, ok
}
