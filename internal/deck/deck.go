// Package deck files cards into a tree of decks keyed by topic path.
package deck

import (
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/starford/mneme/internal/cards"
	"github.com/starford/mneme/internal/topic"
)

// ErrCardNotFiled is returned when deleting a card that no deck holds.
var ErrCardNotFiled = errors.New("deck: card not filed")

// ListType selects which card list an operation looks at.
type ListType int

const (
	ListNew ListType = iota
	ListDue
	ListAll
)

// Deck is one node of the tree. Cards are shared pointers: the same card may be
// filed under several decks and is always compared by identity.
type Deck struct {
	Name     string
	Parent   *Deck
	Subdecks []*Deck
	New      []*cards.Card
	Due      []*cards.Card
}

// New returns an empty deck. A nil parent makes it a root.
func New(name string, parent *Deck) *Deck {
	return &Deck{Name: name, Parent: parent}
}

// TopicPath returns the path from the root to d. The root's own name is not part of it.
func (d *Deck) TopicPath() topic.Path {
	var segs []string
	for cur := d; cur.Parent != nil; cur = cur.Parent {
		segs = append(segs, cur.Name)
	}
	slices.Reverse(segs)
	return topic.New(segs...)
}

func (d *Deck) subdeck(name string) *Deck {
	for _, s := range d.Subdecks {
		if s.Name == name {
			return s
		}
	}
	return nil
}

// GetOrCreateDeck returns the deck at path below d, creating missing intermediate decks.
func (d *Deck) GetOrCreateDeck(path topic.Path) *Deck {
	cur := d
	for _, name := range path.Segments() {
		next := cur.subdeck(name)
		if next == nil {
			next = New(name, cur)
			cur.Subdecks = append(cur.Subdecks, next)
		}
		cur = next
	}
	return cur
}

// DeckByPath returns the deck at path below d, or nil.
func (d *Deck) DeckByPath(path topic.Path) *Deck {
	cur := d
	for _, name := range path.Segments() {
		if cur = cur.subdeck(name); cur == nil {
			return nil
		}
	}
	return cur
}

// AppendCard files card under every path. New cards go to the new list, the
// rest to the due list.
func (d *Deck) AppendCard(paths []topic.Path, card *cards.Card) {
	for _, p := range paths {
		target := d.GetOrCreateDeck(p)
		if card.IsNew() {
			target.New = append(target.New, card)
		} else {
			target.Due = append(target.Due, card)
		}
	}
}

// DeleteCardFromThisDeck removes card from d's own lists.
func (d *Deck) DeleteCardFromThisDeck(card *cards.Card) error {
	if i := slices.Index(d.New, card); i >= 0 {
		d.New = slices.Delete(d.New, i, i+1)
		return nil
	}
	if i := slices.Index(d.Due, card); i >= 0 {
		d.Due = slices.Delete(d.Due, i, i+1)
		return nil
	}
	return ErrCardNotFiled
}

// DeleteCardFromAllDecks removes card from d and every deck below it.
func (d *Deck) DeleteCardFromAllDecks(card *cards.Card) error {
	found := false
	for _, deck := range d.Flatten() {
		if deck.DeleteCardFromThisDeck(card) == nil {
			found = true
		}
	}
	if !found {
		return ErrCardNotFiled
	}
	return nil
}

func (d *Deck) list(lt ListType) []*cards.Card {
	switch lt {
	case ListNew:
		return d.New
	case ListDue:
		return d.Due
	default:
		return append(slices.Clip(d.New), d.Due...)
	}
}

// CardCount returns the number of filed cards, counting a card once per deck it is filed in.
func (d *Deck) CardCount(lt ListType, recursive bool) int {
	n := len(d.list(lt))
	if recursive {
		for _, s := range d.Subdecks {
			n += s.CardCount(lt, true)
		}
	}
	return n
}

// DistinctCardCount returns the number of distinct cards by identity.
func (d *Deck) DistinctCardCount(lt ListType, recursive bool) int {
	seen := make(map[*cards.Card]struct{})
	decks := []*Deck{d}
	if recursive {
		decks = d.Flatten()
	}
	for _, deck := range decks {
		for _, c := range deck.list(lt) {
			seen[c] = struct{}{}
		}
	}
	return len(seen)
}

// SortSubdecks orders subdecks by name, recursively.
func (d *Deck) SortSubdecks() {
	slices.SortStableFunc(d.Subdecks, func(a, b *Deck) int {
		return strings.Compare(a.Name, b.Name)
	})
	for _, s := range d.Subdecks {
		s.SortSubdecks()
	}
}

// CopyWithCardFilter returns a copy of the tree keeping only cards for which keep
// returns true. The source tree is not modified; card pointers are shared.
func (d *Deck) CopyWithCardFilter(keep func(*cards.Card) bool) *Deck {
	return d.copyInto(nil, keep)
}

func (d *Deck) copyInto(parent *Deck, keep func(*cards.Card) bool) *Deck {
	out := New(d.Name, parent)
	out.New = filter(d.New, keep)
	out.Due = filter(d.Due, keep)
	for _, s := range d.Subdecks {
		out.Subdecks = append(out.Subdecks, s.copyInto(out, keep))
	}
	return out
}

func filter(in []*cards.Card, keep func(*cards.Card) bool) []*cards.Card {
	var out []*cards.Card
	for _, c := range in {
		if keep(c) {
			out = append(out, c)
		}
	}
	return out
}

// Flatten returns d and all decks below it in depth-first pre-order.
func (d *Deck) Flatten() []*Deck {
	out := []*Deck{d}
	for _, s := range d.Subdecks {
		out = append(out, s.Flatten()...)
	}
	return out
}

// NextCard returns the first card to review below d: due cards before new ones,
// decks visited depth first. It returns nil when nothing is left.
func (d *Deck) NextCard(now time.Time) *cards.Card {
	decks := d.Flatten()
	for _, deck := range decks {
		for _, c := range deck.Due {
			if c.IsDue(now) {
				return c
			}
		}
	}
	for _, deck := range decks {
		if len(deck.New) > 0 {
			return deck.New[0]
		}
	}
	return nil
}

// Summary is a serializable view of a deck and its counts.
type Summary struct {
	Name     string    `json:"name"`
	Path     string    `json:"path"`
	New      int       `json:"new"`
	Due      int       `json:"due"`
	Total    int       `json:"total"`
	Subdecks []Summary `json:"subdecks,omitempty"`
}

// Summary returns recursive distinct counts for d and its subdecks.
func (d *Deck) Summary() Summary {
	s := Summary{
		Name:  d.Name,
		Path:  d.TopicPath().Key(),
		New:   d.DistinctCardCount(ListNew, true),
		Due:   d.DistinctCardCount(ListDue, true),
		Total: d.DistinctCardCount(ListAll, true),
	}
	for _, sub := range d.Subdecks {
		s.Subdecks = append(s.Subdecks, sub.Summary())
	}
	return s
}
