// Package interfaces holds the backend contracts shared by the root package and
// the drivers, so that drivers do not import the root package.
package interfaces

import (
	"context"
	"time"
)

// Document is the raw, map-shaped representation a backend stores.
type Document = map[string]any

// Query selects documents. Keys are field names (dotted for nested fields); values are
// either literals (equality) or operator maps such as {"$gt": 3}.
type Query = map[string]any

// RemovedField is the change value that deletes a key from the stored document
// in Backend.Update.
type RemovedField struct{}

// Removed marks a key of an update's changes for deletion.
var Removed = RemovedField{}

// Backend defines the persistence contract consumed by models.
type Backend interface {
	Store(ctx context.Context, doc Document) error
	FetchOne(ctx context.Context, query Query) (Document, error)
	// Update merges changes into the first match. Keys whose change is Removed are deleted.
	Update(ctx context.Context, query Query, changes Document) error
	Delete(ctx context.Context, query Query) error
}

// Lister is implemented by backends able to return every match of a query.
type Lister interface {
	Fetch(ctx context.Context, query Query) ([]Document, error)
}

// Inspector exposes a backend's stored documents for verification and maintenance.
type Inspector interface {
	Reset(ctx context.Context) error
	Documents(ctx context.Context) ([]Document, error)
}

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

// IDGenerator generates identity values for new instances.
type IDGenerator interface {
	NewID() string
}
