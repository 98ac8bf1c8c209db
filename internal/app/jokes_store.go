// Package app contains application services that orchestrate use cases.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/jsamuelsen/jokeboard/internal/domain"
	"github.com/jsamuelsen/jokeboard/internal/platform/logging"
	"github.com/jsamuelsen/jokeboard/internal/ports"
)

// fetchOperationName names the fetch in logs and metrics.
const fetchOperationName = "fetch_new_jokes"

var (
	// ErrStoreClosed is returned by fetches on a store that has been closed.
	ErrStoreClosed = errors.New("jokes store closed")

	// ErrFetchSuperseded is returned by a fetch whose result was discarded
	// because a newer fetch started before it finished.
	ErrFetchSuperseded = errors.New("fetch superseded by a newer fetch")
)

// StoreStatus describes where the store is in its fetch lifecycle.
type StoreStatus string

const (
	StatusEmpty     StoreStatus = "empty"
	StatusLoading   StoreStatus = "loading"
	StatusPopulated StoreStatus = "populated"
	StatusFailed    StoreStatus = "failed"
)

// Snapshot is a consistent copy of the store state.
type Snapshot struct {
	Jokes    []domain.Joke
	Filtered []domain.Joke
	Query    string
	Status   StoreStatus
	Err      error
}

// JokeStoreConfig contains the dependencies of a JokeStore.
type JokeStoreConfig struct {
	Source ports.JokeSource
	Logger *slog.Logger

	// Concurrency caps the number of joke requests in flight per fetch.
	// Zero issues all of them at once.
	Concurrency int

	Recorder Recorder
}

// JokeStore holds the fetched jokes, the filtered view derived from them,
// and the query that produced it. Readers never observe a half-applied fetch.
type JokeStore struct {
	source      ports.JokeSource
	logger      *slog.Logger
	exec        *Executor
	recorder    Recorder
	concurrency int

	mu         sync.RWMutex
	jokes      []domain.Joke
	filtered   []domain.Joke
	query      string
	status     StoreStatus
	lastErr    error
	generation uint64
	inflight   map[uint64]context.CancelFunc
	closed     bool
}

// NewJokeStore creates an empty store. It panics without a joke source.
func NewJokeStore(cfg JokeStoreConfig) *JokeStore {
	if cfg.Source == nil {
		panic("app: JokeStore requires a joke source")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	recorder := cfg.Recorder
	if recorder == nil {
		recorder = NopRecorder{}
	}

	s := &JokeStore{
		source:      cfg.Source,
		logger:      logger,
		recorder:    recorder,
		concurrency: cfg.Concurrency,
		jokes:       []domain.Joke{},
		filtered:    []domain.Joke{},
		status:      StatusEmpty,
		inflight:    make(map[uint64]context.CancelFunc),
	}

	s.exec = NewExecutor(logger).WithObserver(func(_ string, failed ExecutionStep, d time.Duration) {
		recorder.FetchCompleted(failed, d)
	})

	return s
}

// FetchNewJokes requests count jokes concurrently and, only if every request
// succeeds, replaces the whole set and resets the filter. Any failure leaves
// the jokes untouched, marks the store failed and is returned.
func (s *JokeStore) FetchNewJokes(ctx context.Context, count int) error {
	s.mu.RLock()
	closed := s.closed
	s.mu.RUnlock()

	if closed {
		return ErrStoreClosed
	}

	// gen stays zero until the fetch passes validation and claims a generation.
	var gen uint64

	_, err := Execute(ctx, s.exec, s.fetchOperation(&gen), count)
	if err == nil {
		return nil
	}

	if gen == 0 || errors.Is(err, ErrFetchSuperseded) {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	if gen == s.generation {
		s.status = StatusFailed
		s.lastErr = err
		s.logger.WarnContext(ctx, "fetch failed, keeping previous jokes",
			slog.Int("kept", len(s.jokes)),
			slog.Any("error", err),
		)
	}

	return err
}

// begin claims the next generation. Any fetch still running is superseded.
func (s *JokeStore) begin(ctx context.Context) (context.Context, uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ctx, 0, ErrStoreClosed
	}

	s.generation++
	gen := s.generation

	ctx, cancel := context.WithCancel(ctx)
	s.inflight[gen] = cancel
	s.status = StatusLoading

	return ctx, gen, nil
}

// end releases the cancel func registered by begin.
func (s *JokeStore) end(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cancel, ok := s.inflight[gen]; ok {
		cancel()
		delete(s.inflight, gen)
	}
}

// fetchOperation builds the fetch pipeline. Perform writes the claimed
// generation to gen.
func (s *JokeStore) fetchOperation(gen *uint64) Operation[int, []domain.Joke, []domain.Joke, []domain.Joke] {
	return Operation[int, []domain.Joke, []domain.Joke, []domain.Joke]{
		Name: fetchOperationName,
		Validate: func(_ context.Context, count int) error {
			if count < 1 {
				return domain.NewValidationErrorWithValue("count", "must be at least 1", count)
			}

			return nil
		},
		Perform: func(ctx context.Context, count int) ([]domain.Joke, error) {
			ctx, claimed, err := s.begin(ctx)
			if err != nil {
				return nil, err
			}

			*gen = claimed
			defer s.end(claimed)

			return ParallelLimit(ctx, s.concurrency, Repeat(count, s.fetchOne)...)
		},
		Verify: func(_ context.Context, count int, jokes []domain.Joke) ([]domain.Joke, error) {
			if len(jokes) != count {
				return nil, domain.NewConflictErrorWithDetails("joke", "unexpected batch size",
					fmt.Sprintf("want %d, got %d", count, len(jokes)))
			}

			seen := make(map[string]struct{}, len(jokes))
			for _, j := range jokes {
				if _, dup := seen[j.ID]; dup {
					return nil, domain.NewConflictErrorWithDetails("joke", "duplicate id in fetched batch", j.ID)
				}

				seen[j.ID] = struct{}{}
			}

			return jokes, nil
		},
		Archive: func(_ context.Context, _ int, jokes []domain.Joke) error {
			s.mu.Lock()
			defer s.mu.Unlock()

			if s.closed {
				return ErrStoreClosed
			}

			if *gen != s.generation {
				return ErrFetchSuperseded
			}

			s.jokes = jokes
			s.filtered = slices.Clone(jokes)
			s.query = ""
			s.status = StatusPopulated
			s.lastErr = nil

			return nil
		},
		Respond: func(_ context.Context, _ int, jokes []domain.Joke) ([]domain.Joke, error) {
			return jokes, nil
		},
	}
}

// fetchOne requests a single joke from the source.
func (s *JokeStore) fetchOne(ctx context.Context) (domain.Joke, error) {
	joke, err := s.source.RandomJoke(ctx)
	if err != nil {
		return domain.Joke{}, err
	}

	if joke == nil {
		return domain.Joke{}, domain.NewUnavailableError("joke-source", "empty response")
	}

	logging.FromContext(ctx).Log(ctx, logging.LevelTrace, "fetched joke", slog.String("joke_id", joke.ID))

	return *joke, nil
}

// GetJokeByID returns the first joke in the full set with the given id.
// The filter has no effect on lookups.
func (s *JokeStore) GetJokeByID(id string) (*domain.Joke, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := range s.jokes {
		if s.jokes[i].ID == id {
			joke := s.jokes[i]
			return &joke, true
		}
	}

	return nil, false
}

// FilterJokes narrows the filtered view to jokes whose text contains query,
// ignoring case. It always starts from the full set; an empty query restores it.
func (s *JokeStore) FilterJokes(query string) {
	s.mu.Lock()
	s.query = query
	s.filtered = filterJokes(s.jokes, query)
	matched, total := len(s.filtered), len(s.jokes)
	s.mu.Unlock()

	s.recorder.JokesFiltered(matched, total)
}

// filterJokes returns the subsequence of jokes whose Value contains query.
func filterJokes(jokes []domain.Joke, query string) []domain.Joke {
	if query == "" {
		return slices.Clone(jokes)
	}

	needle := strings.ToLower(query)
	out := make([]domain.Joke, 0, len(jokes))

	for _, j := range jokes {
		if j.Value != "" && strings.Contains(strings.ToLower(j.Value), needle) {
			out = append(out, j)
		}
	}

	return out
}

// Jokes returns a copy of the full set.
func (s *JokeStore) Jokes() []domain.Joke {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Clone(s.jokes)
}

// FilteredJokes returns a copy of the filtered view.
func (s *JokeStore) FilteredJokes() []domain.Joke {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Clone(s.filtered)
}

// Query returns the text of the last filter applied.
func (s *JokeStore) Query() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.query
}

// Status returns the fetch lifecycle status.
func (s *JokeStore) Status() StoreStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.status
}

// Err returns the error of the last failed fetch, or nil.
func (s *JokeStore) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.lastErr
}

// Snapshot returns every piece of state read under one lock.
func (s *JokeStore) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Snapshot{
		Jokes:    slices.Clone(s.jokes),
		Filtered: slices.Clone(s.filtered),
		Query:    s.query,
		Status:   s.status,
		Err:      s.lastErr,
	}
}

// Close cancels in-flight fetches. A cancelled fetch applies no update and
// later fetches fail with ErrStoreClosed. Close is idempotent.
func (s *JokeStore) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	for gen, cancel := range s.inflight {
		cancel()
		delete(s.inflight, gen)
	}
}
