package gorelay

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// Edge pairs a loaded entity with the cursor that locates it again.
type Edge struct {
	Node   Entity  `json:"node"`
	Cursor *Cursor `json:"cursor"`
}

// QueryHelper adapts one relationship (e.g. "managers of an event") to a
// Connection. Implementations get their anchor entity, sort key and
// collaborators through their constructor and keep no other state.
type QueryHelper interface {
	// Kind is the entity kind the connection yields.
	Kind() string
	// SortKey is the sort key the helper was built for.
	SortKey() string
	// BaseQuery returns the filtered, unsorted and unbounded row source.
	BaseQuery(ctx context.Context) (*gorm.DB, error)
	// IDField is the id column of the row source.
	IDField() string
	// SortField maps SortKey to a column. Keys outside the helper's closed
	// set fail with ErrUnsupportedSortKey.
	SortField() (string, error)
	// CursorFor decodes raw and returns it when it belongs to this
	// connection, nil otherwise.
	CursorFor(raw string) *Cursor
	// LoadEdges turns ordered ids into ordered edges through the Loader.
	LoadEdges(ids []ID) *Deferred[[]Edge]
}

// AggregateSorter is implemented by helpers that sort by an aggregate of
// SortField (e.g. "COUNT") instead of the plain column. The base query of
// such a helper must group by IDField.
type AggregateSorter interface {
	AggregateSortFunction() string
}

// SortValueFunc reads the value an entity has for sortKey.
type SortValueFunc[T Entity] func(entity T, sortKey string) (any, error)

// LoadEdges requests ids of kind from loader and zips every loaded entity
// with a fresh cursor. Edges follow the order of ids; ids the store no longer
// knows are skipped.
func LoadEdges[T Entity](loader *Loader, kind, sortKey string, ids []ID, sortValueFor SortValueFunc[T]) *Deferred[[]Edge] {
	if len(ids) == 0 {
		return Resolved([]Edge{})
	}

	ordered := append([]ID(nil), ids...)

	return Then(loader.Request(kind, ordered), func(_ context.Context, entities map[ID]Entity) ([]Edge, error) {
		edges := make([]Edge, 0, len(ordered))
		for _, id := range ordered {
			entity, ok := entities[id]
			if !ok {
				continue
			}

			typed, ok := entity.(T)
			if !ok {
				return nil, fmt.Errorf("unexpected entity type %T for kind '%s'", entity, kind)
			}

			sortValue, err := sortValueFor(typed, sortKey)
			if err != nil {
				return nil, err
			}

			edges = append(edges, Edge{
				Node:   entity,
				Cursor: NewCursor(kind, id, sortKey, sortValue),
			})
		}

		return edges, nil
	})
}
