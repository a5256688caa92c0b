package store

import (
	"context"
	"time"

	"github.com/syh52/lexicon-srs/internal/domain"
)

// LocalStore is the device-local key-value store. Writes to it are
// synchronous and must complete before a save is considered durable;
// it is the source of truth when the remote store is unreachable.
type LocalStore interface {
	// Get retrieves the value for a key.
	// Returns ErrNotFound if the key does not exist.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores the value under the key, overwriting any previous value.
	Set(ctx context.Context, key string, value []byte) error

	// Remove deletes the key. Removing a missing key is not an error.
	Remove(ctx context.Context, key string) error
}

// Record is one document in the remote store. Payloads are kept as
// opaque JSON inside the record so the remote schema never constrains
// the domain types.
type Record map[string]any

// RemoteStore is the generic remote document store. All calls carry a
// bounded timeout through the context; implementations return
// ErrUnavailable when the store cannot be reached in time.
type RemoteStore interface {
	// Query returns the records in the collection matching the filter.
	Query(ctx context.Context, collection string, filter Record) ([]Record, error)

	// Upsert inserts the record, or replaces the one matching the filter
	// if it already exists.
	Upsert(ctx context.Context, collection string, filter Record, record Record) error

	// Remove deletes all records matching the filter. Removing nothing is
	// not an error.
	Remove(ctx context.Context, collection string, filter Record) error
}

// CatalogProvider is the read-only word catalog. Catalog CRUD lives in a
// separate system; the engine only pages through published items.
type CatalogProvider interface {
	// GetItems returns a page of catalog items.
	// Returns ErrCatalogNotFound if the catalog does not exist.
	GetItems(ctx context.Context, catalogID string, limit, offset int) ([]domain.CatalogItem, error)
}

// Clock abstracts the time source so scheduling and expiry are testable.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock backed by time.Now.
type SystemClock struct{}

// Now implements Clock.
func (SystemClock) Now() time.Time { return time.Now().UTC() }
