// Package postpone keeps the set of questions whose siblings are buried until the next day.
package postpone

import (
	"context"
	"fmt"
	"sort"
)

// Store persists the buried question hashes of one calendar day between runs.
type Store interface {
	LoadBuried(ctx context.Context, day string) ([]string, error)
	SaveBuried(ctx context.Context, day string, hashes []string) error
}

// List is a set of question content hashes. It is not safe for concurrent use.
type List struct {
	store   Store
	enabled bool
	hashes  map[string]struct{}
}

// New returns an empty list. AddIfRequired only records hashes when enabled is set.
// store may be nil, in which case Load and Save do nothing.
func New(store Store, enabled bool) *List {
	return &List{store: store, enabled: enabled, hashes: make(map[string]struct{})}
}

// Add records hash.
func (l *List) Add(hash string) {
	l.hashes[hash] = struct{}{}
}

// AddIfRequired records hash when burying siblings is enabled and reports whether it did.
func (l *List) AddIfRequired(hash string) bool {
	if !l.enabled {
		return false
	}
	l.Add(hash)
	return true
}

// Includes reports whether hash is postponed.
func (l *List) Includes(hash string) bool {
	_, ok := l.hashes[hash]
	return ok
}

// Clear empties the list.
func (l *List) Clear() {
	clear(l.hashes)
}

// Len returns the number of postponed questions.
func (l *List) Len() int {
	return len(l.hashes)
}

// Hashes returns the postponed hashes in sorted order.
func (l *List) Hashes() []string {
	out := make([]string, 0, len(l.hashes))
	for h := range l.hashes {
		out = append(out, h)
	}
	sort.Strings(out)
	return out
}

// Load replaces the list contents with what the store holds for day.
func (l *List) Load(ctx context.Context, day string) error {
	if l.store == nil {
		return nil
	}
	hashes, err := l.store.LoadBuried(ctx, day)
	if err != nil {
		return fmt.Errorf("postpone: load: %w", err)
	}
	l.Clear()
	for _, h := range hashes {
		l.Add(h)
	}
	return nil
}

// Save writes the list contents to the store under day.
func (l *List) Save(ctx context.Context, day string) error {
	if l.store == nil {
		return nil
	}
	if err := l.store.SaveBuried(ctx, day, l.Hashes()); err != nil {
		return fmt.Errorf("postpone: save: %w", err)
	}
	return nil
}
