package app

import (
	"context"
	"errors"
)

// ErrNoProvider means a store was requested outside a mounted provider scope.
var ErrNoProvider = errors.New("jokes store requested outside of a provider")

type storeKey struct{}

// WithStore scopes store to ctx so everything below the provider can reach it.
func WithStore(ctx context.Context, store *JokeStore) context.Context {
	return context.WithValue(ctx, storeKey{}, store)
}

// StoreFromContext returns the store scoped to ctx.
func StoreFromContext(ctx context.Context) (*JokeStore, error) {
	if ctx == nil {
		return nil, ErrNoProvider
	}

	store, ok := ctx.Value(storeKey{}).(*JokeStore)
	if !ok || store == nil {
		return nil, ErrNoProvider
	}

	return store, nil
}

// MustStoreFromContext is StoreFromContext for code that can only run under a
// provider. Reaching it without one is a wiring bug, so it panics.
func MustStoreFromContext(ctx context.Context) *JokeStore {
	store, err := StoreFromContext(ctx)
	if err != nil {
		panic("app: MustStoreFromContext: " + err.Error() + "; mount the session middleware before this handler")
	}

	return store
}
