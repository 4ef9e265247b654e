// Package ordering keeps user-reorderable lists (categories, menu items within a category,
// products) densely ordered: a pure engine computes new order assignments and a per-group
// controller applies them optimistically, persists them and reconciles with the store on failure.
package ordering

import (
	"sort"
)

// Assignment maps entity ids to their dense, 0-based order.
type Assignment map[string]int

// Sequence returns the ids sorted by order.
func (a Assignment) Sequence() []string {
	seq := make([]string, 0, len(a))
	for id := range a {
		seq = append(seq, id)
	}
	sort.Slice(seq, func(i, j int) bool {
		if a[seq[i]] != a[seq[j]] {
			return a[seq[i]] < a[seq[j]]
		}
		return seq[i] < seq[j]
	})
	return seq
}

// Reorder is the outcome of a reorder computation.
type Reorder struct {
	Sequence []string   // the new visual order
	Orders   Assignment // every id of Sequence -> its index
	Changed  []string   // ids whose index differs from the source sequence
}

// ComputeReorder removes movedID from seq and reinserts it at the index targetID occupies,
// shifting everything in between by one. seq is left untouched.
func ComputeReorder(seq []string, movedID, targetID string) (Reorder, error) {
	invalid := func(reason string) error {
		return &InvalidMoveError{MovedID: movedID, TargetID: targetID, Reason: reason}
	}
	if movedID == "" || targetID == "" {
		return Reorder{}, invalid(reasonEmptyID)
	}
	if movedID == targetID {
		return Reorder{}, invalid(reasonSelfMove)
	}
	index, reason := indexSequence(seq)
	if reason != "" {
		return Reorder{}, invalid(reason)
	}
	from, ok := index[movedID]
	if !ok {
		return Reorder{}, invalid(reasonUnknownMoved)
	}
	to, ok := index[targetID]
	if !ok {
		return Reorder{}, invalid(reasonUnknownTarget)
	}

	next := make([]string, 0, len(seq))
	next = append(next, seq[:from]...)
	next = append(next, seq[from+1:]...)
	next = append(next, "")
	copy(next[to+1:], next[to:])
	next[to] = movedID

	return newReorder(seq, next), nil
}

// ComputePermutation assigns dense orders to ordered, which must hold exactly the ids of seq.
func ComputePermutation(seq, ordered []string) (Reorder, error) {
	invalid := func(reason string) error {
		return &InvalidMoveError{Reason: reason}
	}
	index, reason := indexSequence(seq)
	if reason != "" {
		return Reorder{}, invalid(reason)
	}
	if _, reason = indexSequence(ordered); reason != "" {
		return Reorder{}, invalid(reason)
	}
	if len(ordered) != len(seq) {
		return Reorder{}, invalid(reasonNotPermutation)
	}
	for _, id := range ordered {
		if _, ok := index[id]; !ok {
			return Reorder{}, invalid(reasonNotPermutation)
		}
	}

	next := make([]string, len(ordered))
	copy(next, ordered)
	return newReorder(seq, next), nil
}

// DenseOrders assigns 0..N-1 to seq.
func DenseOrders(seq []string) Assignment {
	orders := make(Assignment, len(seq))
	for i, id := range seq {
		orders[id] = i
	}
	return orders
}

func newReorder(prev, next []string) Reorder {
	r := Reorder{
		Sequence: next,
		Orders:   DenseOrders(next),
	}
	for i, id := range next {
		if prev[i] != id {
			r.Changed = append(r.Changed, id)
		}
	}
	return r
}

// indexSequence maps ids to their index; reports the reason seq cannot be reordered.
func indexSequence(seq []string) (map[string]int, string) {
	index := make(map[string]int, len(seq))
	for i, id := range seq {
		if id == "" {
			return nil, reasonEmptyID
		}
		if _, dup := index[id]; dup {
			return nil, reasonDuplicateID
		}
		index[id] = i
	}
	return index, ""
}
