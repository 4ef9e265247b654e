package ordering

import (
	"context"
	"fmt"
	"sync"

	"github.com/pkg/errors"

	"github.com/ahmadkeyhan/qrcodile/core"
)

type State int

const (
	Idle State = iota
	Reordering
)

func (s State) String() string {
	if s == Reordering {
		return "reordering"
	}
	return "idle"
}

// Controller owns the displayed order of one group. Moves are applied to the in-memory
// sequence first, then persisted with a single write; a failed write is followed by a full
// reload of the group from the store. Moves are never retried.
type Controller struct {
	groupID  string
	store    Store
	notifier Notifier
	logger   core.Logger

	mu       sync.Mutex
	state    State
	loaded   bool
	stale    bool   // invalidated while a write was in flight
	gen      uint64 // bumped whenever entities or loaded change
	entities []Entity
	inflight sync.WaitGroup
}

type move struct {
	movedID  string
	targetID string
}

func NewController(groupID string, store Store, notifier Notifier, logger core.Logger) *Controller {
	if logger == nil {
		logger = core.NopLogger{}
	}
	return &Controller{
		groupID:  groupID,
		store:    store,
		notifier: notifier,
		logger:   logger,
	}
}

func (c *Controller) GroupID() string { return c.groupID }

// Load replaces the in-memory sequence with the canonical state of the store.
// A snapshot is only installed when nothing replaced the sequence while it was read.
func (c *Controller) Load(ctx context.Context) error {
	for {
		c.mu.Lock()
		if c.state == Reordering {
			c.mu.Unlock()
			return ErrMoveInFlight
		}
		gen := c.gen
		c.mu.Unlock()

		entities, err := c.store.LoadGroup(ctx, c.groupID)
		if err != nil {
			return errors.Wrapf(err, "loading group %q", c.groupID)
		}
		SortEntities(entities)

		c.mu.Lock()
		switch {
		case c.state == Reordering:
			c.mu.Unlock()
			return ErrMoveInFlight
		case c.gen == gen:
			c.entities = entities
			c.loaded = true
			c.stale = false
			c.gen++
			c.mu.Unlock()
			return nil
		case c.loaded:
			// a concurrent load or move installed a newer sequence
			c.mu.Unlock()
			return nil
		}
		c.mu.Unlock() // invalidated meanwhile: read again
	}
}

func (c *Controller) Loaded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loaded
}

// Invalidate marks the cached sequence as outdated; the next Board access reloads it.
func (c *Controller) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == Reordering {
		c.stale = true
		return
	}
	c.loaded = false
	c.gen++
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Sequence returns a copy of the displayed entities.
func (c *Controller) Sequence() []Entity {
	c.mu.Lock()
	defer c.mu.Unlock()
	entities := make([]Entity, len(c.entities))
	copy(entities, c.entities)
	return entities
}

func (c *Controller) IDs() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return IDs(c.entities)
}

// Wait blocks until no write is in flight.
func (c *Controller) Wait() {
	c.inflight.Wait()
}

// HandleMove applies the move synchronously and persists it in the background.
// A rejected move is returned (and notified); the outcome of the write reaches the notifier only.
func (c *Controller) HandleMove(ctx context.Context, movedID, targetID string) error {
	mv := move{movedID: movedID, targetID: targetID}
	r, err := c.start(ctx, mv, func(seq []string) (Reorder, error) {
		return ComputeReorder(seq, movedID, targetID)
	})
	if err != nil {
		return err
	}
	go func() {
		_ = c.finish(context.WithoutCancel(ctx), mv, r)
	}()
	return nil
}

// Move applies the move and waits for it to be persisted. On a store failure the group
// has already been reconciled when the *StoreError is returned.
func (c *Controller) Move(ctx context.Context, movedID, targetID string) (Reorder, error) {
	mv := move{movedID: movedID, targetID: targetID}
	return c.run(ctx, mv, func(seq []string) (Reorder, error) {
		return ComputeReorder(seq, movedID, targetID)
	})
}

// Reorder replaces the whole sequence of the group with orderedIDs.
func (c *Controller) Reorder(ctx context.Context, orderedIDs []string) (Reorder, error) {
	return c.run(ctx, move{}, func(seq []string) (Reorder, error) {
		return ComputePermutation(seq, orderedIDs)
	})
}

func (c *Controller) run(ctx context.Context, mv move, compute func([]string) (Reorder, error)) (Reorder, error) {
	r, err := c.start(ctx, mv, compute)
	if err != nil {
		return Reorder{}, err
	}
	if err := c.finish(context.WithoutCancel(ctx), mv, r); err != nil {
		return Reorder{}, err
	}
	return r, nil
}

// start begins the move, reloading the group first when it was invalidated.
// Rejections are notified; a failed reload is returned as is.
func (c *Controller) start(ctx context.Context, mv move, compute func([]string) (Reorder, error)) (Reorder, error) {
	r, err := c.begin(mv, compute)
	if err == ErrNotLoaded {
		if err := c.Load(ctx); err != nil && err != ErrMoveInFlight {
			return Reorder{}, err
		}
		r, err = c.begin(mv, compute)
	}
	if err != nil {
		c.reject(mv, err)
		return Reorder{}, err
	}
	return r, nil
}

// begin computes the new order and applies it in memory. Nothing is mutated on error.
func (c *Controller) begin(mv move, compute func([]string) (Reorder, error)) (Reorder, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.loaded {
		return Reorder{}, ErrNotLoaded
	}
	if c.state == Reordering {
		return Reorder{}, ErrMoveInFlight
	}
	r, err := compute(IDs(c.entities))
	if err != nil {
		return Reorder{}, err
	}

	c.entities = applyOrders(c.entities, r)
	c.gen++
	c.state = Reordering
	c.inflight.Add(1)
	return r, nil
}

// finish runs the single persistence write of a move and settles the controller.
func (c *Controller) finish(ctx context.Context, mv move, r Reorder) error {
	defer c.inflight.Done()

	err := c.store.PersistOrder(ctx, c.groupID, r.Orders)
	if err == nil {
		c.mu.Lock()
		c.settle()
		seq := IDs(c.entities)
		c.mu.Unlock()

		c.notify(Notification{Kind: MovePersisted, MovedID: mv.movedID, TargetID: mv.targetID, Sequence: seq})
		return nil
	}

	storeErr := &StoreError{GroupID: c.groupID, Err: err}
	c.logger.Warn(fmt.Sprintf("reorder of group %q failed, reloading", c.groupID), storeErr)

	entities, loadErr := c.store.LoadGroup(ctx, c.groupID)
	c.mu.Lock()
	if loadErr != nil {
		// the optimistic state must not survive; the next access reloads
		c.entities = nil
		c.loaded = false
	} else {
		SortEntities(entities)
		c.entities = entities
	}
	c.gen++
	c.settle()
	seq := IDs(c.entities)
	c.mu.Unlock()

	if loadErr != nil {
		c.logger.Error(fmt.Sprintf("reloading group %q after failed reorder", c.groupID), loadErr)
	}
	c.notify(Notification{Kind: MoveReconciled, MovedID: mv.movedID, TargetID: mv.targetID, Sequence: seq, Err: storeErr})
	return storeErr
}

// settle returns to Idle; c.mu must be held.
func (c *Controller) settle() {
	c.state = Idle
	if c.stale {
		c.stale = false
		c.loaded = false
		c.gen++
	}
}

func (c *Controller) reject(mv move, err error) {
	c.logger.Debug(fmt.Sprintf("rejected move in group %q", c.groupID), err)
	c.notify(Notification{Kind: MoveRejected, MovedID: mv.movedID, TargetID: mv.targetID, Sequence: c.IDs(), Err: err})
}

func (c *Controller) notify(n Notification) {
	if c.notifier == nil {
		return
	}
	n.GroupID = c.groupID
	c.notifier.Notify(n)
}

// applyOrders rearranges entities into r.Sequence and stamps their new orders.
func applyOrders(entities []Entity, r Reorder) []Entity {
	byID := make(map[string]Entity, len(entities))
	for _, e := range entities {
		byID[e.ID] = e
	}
	next := make([]Entity, 0, len(r.Sequence))
	for _, id := range r.Sequence {
		e := byID[id]
		e.Order = r.Orders[id]
		next = append(next, e)
	}
	return next
}
