package db

import (
	"context"

	"github.com/jayjaytrn/URLMapper/internal/types"
)

// ShortenerStorage is the durable table of URL mappings.
// Lookups report a missing row with *types.NotFoundError, Insert reports a taken code with *types.ConflictError.
type ShortenerStorage interface {
	// FindByShortCode returns the mapping owning code.
	FindByShortCode(ctx context.Context, code string) (types.URLMapping, error)
	// FindByLongURL returns the oldest mapping for longURL.
	FindByLongURL(ctx context.Context, longURL string) (types.URLMapping, error)
	// FindByID returns the mapping with the given id.
	FindByID(ctx context.Context, id int64) (types.URLMapping, error)
	// List returns every mapping ordered by id.
	List(ctx context.Context) ([]types.URLMapping, error)
	// Exists reports whether code is in use.
	Exists(ctx context.Context, code string) (bool, error)
	// Insert stores a new mapping and returns its id.
	Insert(ctx context.Context, longURL, code string) (int64, error)
	// Update replaces the long URL of an existing mapping.
	Update(ctx context.Context, id int64, longURL string) (types.URLMapping, error)
	// Delete removes the mapping with the given id.
	Delete(ctx context.Context, id int64) error
	// Ping checks that the storage is reachable.
	Ping(ctx context.Context) error
	// Close releases the underlying resources.
	Close(ctx context.Context) error
}
