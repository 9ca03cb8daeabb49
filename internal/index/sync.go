package index

import (
	"log/slog"

	"github.com/starford/mneme/internal/checksum"
	"github.com/starford/mneme/internal/parser"
	"github.com/starford/mneme/internal/storage"
)

// SyncResult counts what a Sync pass changed.
type SyncResult struct {
	Indexed int
	Removed int
}

// Changed reports whether the pass touched the index.
func (r SyncResult) Changed() bool {
	return r.Indexed > 0 || r.Removed > 0
}

// Sync brings the index in line with the vault: changed notes are parsed and
// upserted, notes gone from disk are removed. Per-note failures are logged and skipped.
func Sync(db *DB, store storage.Provider, logger *slog.Logger) (SyncResult, error) {
	var res SyncResult

	metas, err := store.List("")
	if err != nil {
		return res, err
	}
	indexed, err := db.AllChecksums()
	if err != nil {
		return res, err
	}

	onDisk := make(map[string]struct{}, len(metas))
	for _, m := range metas {
		onDisk[m.Path] = struct{}{}
		if indexed[m.Path] == m.Checksum {
			continue
		}
		data, err := store.Read(m.Path)
		if err != nil {
			logger.Warn("sync: read failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		if err := indexNote(db, m.Path, data); err != nil {
			logger.Warn("sync: index failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		res.Indexed++
	}

	for p := range indexed {
		if _, ok := onDisk[p]; ok {
			continue
		}
		if err := db.DeleteNote(p); err != nil {
			logger.Warn("sync: delete failed", slog.String("path", p), slog.String("error", err.Error()))
			continue
		}
		res.Removed++
	}

	logger.Debug("sync: done", slog.Int("indexed", res.Indexed), slog.Int("removed", res.Removed))
	return res, nil
}

func indexNote(db *DB, path string, data []byte) error {
	res, err := parser.Parse(data)
	if err != nil {
		return err
	}
	return db.UpsertNote(NoteRow{
		Path:     path,
		Title:    res.Title,
		Checksum: checksum.Sum(data),
		Tags:     res.Tags,
	}, res.Body, res.Links)
}
