// Package ports defines interfaces for external dependencies.
// The application layer depends on these contracts; adapters implement them.
//
// Port conventions:
//   - Context first, for cancellation and deadlines
//   - Domain types in and out, never external DTOs
//   - Failures are domain errors (ErrUnavailable, ErrNotFound, ...)
package ports

import (
	"context"

	"github.com/jsamuelsen/jokeboard/internal/domain"
)

// JokeSource is the remote collaborator that hands out random jokes.
// Each call is independent and yields exactly one joke.
type JokeSource interface {
	// RandomJoke fetches one random joke.
	// Returns domain.ErrUnavailable when the source cannot answer.
	RandomJoke(ctx context.Context) (*domain.Joke, error)
}
