package app

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/jsamuelsen/jokeboard/internal/domain"
	"github.com/jsamuelsen/jokeboard/internal/ports"
)

// DefaultInitialCount is how many jokes a freshly mounted session fetches.
const DefaultInitialCount = 3

// ProviderConfig contains configuration for the provider.
type ProviderConfig struct {
	Source ports.JokeSource
	Logger *slog.Logger

	// InitialCount is fetched once when a session is first mounted.
	InitialCount int

	// SessionTTL is how long an idle session keeps its store.
	SessionTTL time.Duration

	// SweepInterval is how often Run evicts idle sessions.
	SweepInterval time.Duration

	// Concurrency is passed to every store it creates.
	Concurrency int

	Recorder Recorder

	// Now defaults to time.Now.
	Now func() time.Time
}

// session is one mounted store plus its bookkeeping.
type session struct {
	store    *JokeStore
	lastSeen time.Time
	ready    chan struct{}
}

// Provider owns one JokeStore per browser session. Mounting a session for the
// first time creates its store and runs the initial fetch exactly once.
type Provider struct {
	cfg      ProviderConfig
	logger   *slog.Logger
	recorder Recorder

	mu       sync.Mutex
	sessions map[string]*session
}

// NewProvider creates a provider. It panics without a joke source.
func NewProvider(cfg ProviderConfig) *Provider {
	if cfg.Source == nil {
		panic("app: Provider requires a joke source")
	}

	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	if cfg.InitialCount <= 0 {
		cfg.InitialCount = DefaultInitialCount
	}

	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 30 * time.Minute
	}

	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = time.Minute
	}

	if cfg.Recorder == nil {
		cfg.Recorder = NopRecorder{}
	}

	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Provider{
		cfg:      cfg,
		logger:   cfg.Logger,
		recorder: cfg.Recorder,
		sessions: make(map[string]*session),
	}
}

// Mount returns the store for sessionID. The first mount of a session builds
// the store and waits for its initial fetch; a failed initial fetch is kept on
// the store and also returned. Later mounts never fetch again.
func (p *Provider) Mount(ctx context.Context, sessionID string) (*JokeStore, error) {
	if sessionID == "" {
		return nil, domain.NewValidationError("session", "id is required")
	}

	p.mu.Lock()

	if sess, ok := p.sessions[sessionID]; ok {
		sess.lastSeen = p.cfg.Now()
		p.mu.Unlock()

		select {
		case <-sess.ready:
			return sess.store, nil
		case <-ctx.Done():
			return sess.store, ctx.Err()
		}
	}

	sess := &session{
		store: NewJokeStore(JokeStoreConfig{
			Source:      p.cfg.Source,
			Logger:      p.logger,
			Concurrency: p.cfg.Concurrency,
			Recorder:    p.recorder,
		}),
		lastSeen: p.cfg.Now(),
		ready:    make(chan struct{}),
	}
	p.sessions[sessionID] = sess
	mounted := len(p.sessions)
	p.mu.Unlock()

	p.recorder.SessionsMounted(mounted)
	p.logger.InfoContext(ctx, "session mounted", slog.Int("initial_count", p.cfg.InitialCount))

	err := sess.store.FetchNewJokes(ctx, p.cfg.InitialCount)
	if err != nil {
		p.logger.ErrorContext(ctx, "initial fetch failed", slog.Any("error", err))
	}

	close(sess.ready)

	return sess.store, err
}

// Store returns the store already mounted for sessionID without touching it.
func (p *Provider) Store(sessionID string) (*JokeStore, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	sess, ok := p.sessions[sessionID]
	if !ok {
		return nil, false
	}

	return sess.store, true
}

// Len reports the number of mounted sessions.
func (p *Provider) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return len(p.sessions)
}

// Sweep unmounts sessions idle for longer than the TTL and closes their
// stores, cancelling any fetch still in flight. It returns how many it evicted.
func (p *Provider) Sweep(now time.Time) int {
	var evicted []*JokeStore

	p.mu.Lock()
	for id, sess := range p.sessions {
		if now.Sub(sess.lastSeen) > p.cfg.SessionTTL {
			evicted = append(evicted, sess.store)
			delete(p.sessions, id)
		}
	}
	mounted := len(p.sessions)
	p.mu.Unlock()

	for _, store := range evicted {
		store.Close()
	}

	if len(evicted) > 0 {
		p.recorder.SessionsMounted(mounted)
		p.logger.Debug("evicted idle sessions", slog.Int("evicted", len(evicted)), slog.Int("mounted", mounted))
	}

	return len(evicted)
}

// Run sweeps idle sessions until ctx is done, then closes every store.
func (p *Provider) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.Close()

			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}

			return ctx.Err()
		case <-ticker.C:
			p.Sweep(p.cfg.Now())
		}
	}
}

// Close unmounts every session.
func (p *Provider) Close() {
	p.mu.Lock()
	sessions := p.sessions
	p.sessions = make(map[string]*session)
	p.mu.Unlock()

	for _, sess := range sessions {
		sess.store.Close()
	}

	p.recorder.SessionsMounted(0)
}
