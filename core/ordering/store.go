package ordering

import (
	"context"
	"sort"
)

// RootGroup is the group of collections that are ordered as a single list.
const RootGroup = "root"

// Entity is anything a user can drag into a new position inside its group.
type Entity struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	GroupKey string `json:"group"`
	Order    int    `json:"order"`
}

// Store is the persistence contract of an ordered collection.
type Store interface {
	// LoadGroup returns every entity of the group (any order).
	LoadGroup(ctx context.Context, groupID string) ([]Entity, error)
	// PersistOrder writes all orders of the group or none of them.
	PersistOrder(ctx context.Context, groupID string, orders Assignment) error
}

// SortEntities sorts by order, then name, then id.
func SortEntities(entities []Entity) {
	sort.SliceStable(entities, func(i, j int) bool {
		a, b := entities[i], entities[j]
		if a.Order != b.Order {
			return a.Order < b.Order
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.ID < b.ID
	})
}

// IDs returns the ids of entities, in the same order.
func IDs(entities []Entity) []string {
	ids := make([]string, len(entities))
	for i, e := range entities {
		ids[i] = e.ID
	}
	return ids
}
