package upstream

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrStoreRequestFailed indicates a non-200 response from a store API.
	ErrStoreRequestFailed = errors.New("upstream: store request failed")
	// ErrStoreInvalidResponse indicates an unparseable store response body.
	ErrStoreInvalidResponse = errors.New("upstream: invalid store response")
)

// StoreClient performs the two order operations this system needs against a
// single upstream store. Implementations must honor the context deadline.
type StoreClient interface {
	// LookupOrder fetches the order with the given canonical name
	// ("#"+digits). A store that has no such order returns a result with
	// Found=false and a nil error; transport failures and non-200
	// responses return an error.
	LookupOrder(ctx context.Context, store StoreConfig, orderName string) (OrderLookupResult, error)

	// CountFulfilled returns the number of fulfilled orders created in
	// [start, end] on the given store.
	CountFulfilled(ctx context.Context, store StoreConfig, start, end time.Time) (int, error)
}

// ResolutionCache caches resolved orders keyed by canonical order name.
// Implementations must be safe for concurrent use.
type ResolutionCache interface {
	// Get returns the cached resolution and true when a non-expired entry
	// exists for the key.
	Get(ctx context.Context, orderName string) (ResolvedOrder, bool, error)

	// Set stores a resolution (found or not) under the key with the
	// given TTL.
	Set(ctx context.Context, orderName string, order ResolvedOrder, ttl time.Duration) error
}
