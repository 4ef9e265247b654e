package ordering

import (
	"context"
	"sync"

	"github.com/ahmadkeyhan/qrcodile/core"
)

// Board keeps one Controller per group of a collection.
type Board struct {
	collection string
	store      Store
	notifier   Notifier
	logger     core.Logger

	mu          sync.Mutex
	controllers map[string]*Controller
}

func NewBoard(collection string, store Store, notifier Notifier, logger core.Logger) *Board {
	return &Board{
		collection:  collection,
		store:       store,
		notifier:    notifier,
		logger:      logger,
		controllers: make(map[string]*Controller),
	}
}

func (b *Board) Collection() string { return b.collection }

// Controller returns the loaded controller of groupID, creating it on first use.
// Empty groups are served by a throwaway controller and never kept.
func (b *Board) Controller(ctx context.Context, groupID string) (*Controller, error) {
	b.mu.Lock()
	c, ok := b.controllers[groupID]
	b.mu.Unlock()

	if !ok {
		c = NewController(groupID, b.store, NotifierFunc(b.notify), b.logger)
		if err := c.Load(ctx); err != nil {
			return nil, err
		}
		if len(c.IDs()) == 0 {
			return c, nil
		}

		b.mu.Lock()
		if cur, ok := b.controllers[groupID]; ok {
			c = cur
		} else {
			b.controllers[groupID] = c
		}
		b.mu.Unlock()
	}

	if !c.Loaded() {
		if err := c.Load(ctx); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Invalidate drops the cached sequences of the given groups after out-of-band writes
// (creation, deletion, category changes).
func (b *Board) Invalidate(groupIDs ...string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, id := range groupIDs {
		if c, ok := b.controllers[id]; ok {
			c.Invalidate()
		}
	}
}

// Forget removes the controllers of groups that no longer exist.
// A controller with a write in flight is only invalidated so that Wait still sees it.
func (b *Board) Forget(groupIDs ...string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, id := range groupIDs {
		c, ok := b.controllers[id]
		if !ok {
			continue
		}
		if c.State() == Reordering {
			c.Invalidate()
			continue
		}
		delete(b.controllers, id)
	}
}

// Wait blocks until no write of the collection is in flight.
func (b *Board) Wait() {
	b.mu.Lock()
	controllers := make([]*Controller, 0, len(b.controllers))
	for _, c := range b.controllers {
		controllers = append(controllers, c)
	}
	b.mu.Unlock()

	for _, c := range controllers {
		c.Wait()
	}
}

func (b *Board) notify(n Notification) {
	if b.notifier == nil {
		return
	}
	n.Collection = b.collection
	b.notifier.Notify(n)
}
