// Package topic defines the hierarchical path used to file cards into decks.
package topic

import (
	"path/filepath"
	"strings"
)

// Path is an immutable sequence of topic segments. The zero value is the root.
type Path struct {
	segments []string
}

// New returns a Path over a copy of segments, skipping empty ones.
func New(segments ...string) Path {
	out := make([]string, 0, len(segments))
	for _, s := range segments {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return Path{segments: out}
}

// FromTag converts a tag such as "#flashcards/science/physics" into a Path.
func FromTag(tag string) Path {
	return New(strings.Split(strings.TrimPrefix(tag, "#"), "/")...)
}

// FromFolder converts the directory part of a vault-relative note path into a Path.
func FromFolder(notePath string) Path {
	dir := filepath.ToSlash(filepath.Dir(notePath))
	if dir == "." || dir == "/" {
		return Path{}
	}
	return New(strings.Split(dir, "/")...)
}

// Parse splits a slash-separated path such as "flashcards/science".
func Parse(s string) Path {
	return New(strings.Split(s, "/")...)
}

// IsEmpty reports whether p is the root path.
func (p Path) IsEmpty() bool {
	return len(p.segments) == 0
}

// Len returns the number of segments.
func (p Path) Len() int {
	return len(p.segments)
}

// Segments returns a copy of the segments.
func (p Path) Segments() []string {
	out := make([]string, len(p.segments))
	copy(out, p.segments)
	return out
}

// First returns the first segment, or "" for the root.
func (p Path) First() string {
	if p.IsEmpty() {
		return ""
	}
	return p.segments[0]
}

// Rest returns p without its first segment.
func (p Path) Rest() Path {
	if p.IsEmpty() {
		return Path{}
	}
	return Path{segments: p.segments[1:]}
}

// Child returns p extended by name.
func (p Path) Child(name string) Path {
	return New(append(p.Segments(), name)...)
}

// Equal reports segment-wise equality.
func (p Path) Equal(other Path) bool {
	if len(p.segments) != len(other.segments) {
		return false
	}
	for i := range p.segments {
		if p.segments[i] != other.segments[i] {
			return false
		}
	}
	return true
}

// HasPrefix reports whether prefix is an ancestor of (or equal to) p.
func (p Path) HasPrefix(prefix Path) bool {
	if len(prefix.segments) > len(p.segments) {
		return false
	}
	for i := range prefix.segments {
		if p.segments[i] != prefix.segments[i] {
			return false
		}
	}
	return true
}

// Key returns a string usable as a map key.
func (p Path) Key() string {
	return strings.Join(p.segments, "/")
}

// String implements fmt.Stringer.
func (p Path) String() string {
	return p.Key()
}
