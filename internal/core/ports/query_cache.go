package ports

import "context"

// QueryCache keeps backend GET results per visitor, mirroring the client
// side request cache a browser app holds.
type QueryCache interface {
	// Get decodes the cached value into dst and reports whether it was found.
	Get(ctx context.Context, visitorID, key string, dst any) (bool, error)
	Put(ctx context.Context, visitorID, key string, value any) error
	Invalidate(ctx context.Context, visitorID string, keys ...string) error
	// Clear drops every cached result of the visitor.
	Clear(ctx context.Context, visitorID string) error
}
