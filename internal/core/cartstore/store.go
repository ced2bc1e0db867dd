// Package cartstore holds the single in-memory cart snapshot for one
// storefront session, together with the purely derived state the checkout
// screen needs: which lines are selected and what they add up to.
//
// The store is an explicit dependency handed to its consumers; there is no
// package-level instance. It never talks to the network.
package cartstore

import (
	"sort"
	"sync"

	"github.com/bookbay/storefront/internal/core/cart"
	"github.com/bookbay/storefront/internal/core/coupon"
)

// Ticket orders in-flight mutations. A ticket taken for a line goes stale as
// soon as a newer ticket is taken for the same line (or for the whole cart),
// so the response of a superseded request is discarded instead of
// overwriting fresher state.
type Ticket struct {
	line    int64 // 0 for whole-cart operations
	lineSeq uint64
	cartSeq uint64
}

type Store struct {
	mu       sync.Mutex
	snapshot *cart.Cart
	selected map[int64]struct{}
	lineSeq  map[int64]uint64
	cartSeq  uint64
	applied  *coupon.Applied
}

func New() *Store {
	return &Store{
		snapshot: &cart.Cart{Items: []cart.Line{}},
		selected: make(map[int64]struct{}),
		lineSeq:  make(map[int64]uint64),
	}
}

// BeginLine takes a ticket for a mutation scoped to one cart line, such as a
// quantity update. It invalidates earlier tickets for the same line.
func (s *Store) BeginLine(lineID int64) Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lineSeq[lineID]++
	return Ticket{line: lineID, lineSeq: s.lineSeq[lineID], cartSeq: s.cartSeq}
}

// BeginCart takes a ticket for a whole-cart mutation (add, remove, merge,
// clear). It invalidates every earlier ticket.
func (s *Store) BeginCart() Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cartSeq++
	return Ticket{cartSeq: s.cartSeq}
}

// Commit installs the snapshot carried by a resolved request if its ticket
// is still current. Returns false when the response is stale; the snapshot
// is then dropped.
func (s *Store) Commit(t Ticket, c *cart.Cart) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.cartSeq != s.cartSeq {
		return false
	}
	if t.line != 0 && t.lineSeq != s.lineSeq[t.line] {
		return false
	}
	s.replaceLocked(c)
	return true
}

// Replace installs a snapshot unconditionally. Used for the initial load.
func (s *Store) Replace(c *cart.Cart) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replaceLocked(c)
}

// replaceLocked swaps the snapshot and reconciles the selection set:
// surviving lines keep their membership, new lines default to selected,
// removed lines are pruned so the set never holds a dangling id.
func (s *Store) replaceLocked(c *cart.Cart) {
	prev := s.snapshot
	next := make(map[int64]struct{}, len(c.Items))
	for _, l := range c.Items {
		if prev == nil {
			next[l.ID] = struct{}{}
			continue
		}
		if _, existed := prev.Line(l.ID); !existed {
			next[l.ID] = struct{}{}
		} else if _, sel := s.selected[l.ID]; sel {
			next[l.ID] = struct{}{}
		}
	}
	s.snapshot = c
	s.selected = next

	for id := range s.lineSeq {
		if _, ok := c.Line(id); !ok {
			delete(s.lineSeq, id)
		}
	}
}

// Cart returns the current snapshot. Callers must treat it as read-only.
func (s *Store) Cart() *cart.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot
}

// Select marks a line for checkout. Unknown ids are ignored so the set can
// never reference a line absent from the snapshot.
func (s *Store) Select(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.snapshot.Line(id); !ok {
		return false
	}
	s.selected[id] = struct{}{}
	return true
}

func (s *Store) Deselect(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.selected, id)
}

// SetSelection replaces the selection with the given ids, dropping any that
// are not in the current snapshot.
func (s *Store) SetSelection(ids []int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := s.snapshot.Line(id); ok {
			s.selected[id] = struct{}{}
		}
	}
}

// SelectAll sets the selection to either the full id set or the empty set.
func (s *Store) SelectAll(selected bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = make(map[int64]struct{})
	if !selected {
		return
	}
	for _, l := range s.snapshot.Items {
		s.selected[l.ID] = struct{}{}
	}
}

func (s *Store) IsSelected(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.selected[id]
	return ok
}

// SelectedIDs returns the selection in ascending order.
func (s *Store) SelectedIDs() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]int64, 0, len(s.selected))
	for id := range s.selected {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// SelectedTotal sums price x quantity over the selected lines.
func (s *Store) SelectedTotal() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	var total int64
	for _, l := range s.snapshot.Items {
		if _, ok := s.selected[l.ID]; ok {
			total += l.Subtotal()
		}
	}
	return total
}

// SetApplied stores (or clears, with nil) the applied coupon.
func (s *Store) SetApplied(a *coupon.Applied) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.applied = a
}

func (s *Store) Applied() *coupon.Applied {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.applied
}
