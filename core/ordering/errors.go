package ordering

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrMoveInFlight = errors.New("a reorder is already in flight for this group")
	ErrNotLoaded    = errors.New("group not loaded")
)

// invalid move reasons
const (
	reasonSelfMove       = "cannot move an entity onto itself"
	reasonEmptyID        = "empty id"
	reasonUnknownMoved   = "moved id not found"
	reasonUnknownTarget  = "target id not found"
	reasonDuplicateID    = "duplicate id in sequence"
	reasonNotPermutation = "ordered ids do not match the group"
)

// InvalidMoveError reports a malformed move instruction.
// It is always raised before any state mutation or I/O.
type InvalidMoveError struct {
	MovedID  string
	TargetID string
	Reason   string
}

func (e *InvalidMoveError) Error() string {
	if e.MovedID == "" && e.TargetID == "" {
		return "invalid move: " + e.Reason
	}
	return fmt.Sprintf("invalid move of %q onto %q: %s", e.MovedID, e.TargetID, e.Reason)
}

// StoreError reports a failed (or partially failed) persistence write.
type StoreError struct {
	GroupID string
	Err     error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("persisting order of group %q: %v", e.GroupID, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

func IsInvalidMove(err error) bool {
	var e *InvalidMoveError
	return errors.As(err, &e)
}

func IsStoreError(err error) bool {
	var e *StoreError
	return errors.As(err, &e)
}
