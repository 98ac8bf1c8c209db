//go:build integration

package integration

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/jokeboard/internal/adapters/clients"
	"github.com/jsamuelsen/jokeboard/internal/adapters/clients/acl"
	apphttp "github.com/jsamuelsen/jokeboard/internal/adapters/http"
	"github.com/jsamuelsen/jokeboard/internal/adapters/http/handlers"
	"github.com/jsamuelsen/jokeboard/internal/adapters/http/middleware"
	"github.com/jsamuelsen/jokeboard/internal/app"
	"github.com/jsamuelsen/jokeboard/internal/platform/config"
	"github.com/jsamuelsen/jokeboard/internal/platform/metrics"
	"github.com/jsamuelsen/jokeboard/internal/ports"
	"github.com/jsamuelsen/jokeboard/internal/render"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// jokeAPI fakes the remote joke API. Random jokes are numbered in request
// order: joke-1, joke-2 and so on.
type jokeAPI struct {
	*httptest.Server

	calls       atomic.Int64
	inflight    atomic.Int64
	maxInflight atomic.Int64
	status      atomic.Int32

	// failOn makes the nth random joke request answer 503. Zero disables it.
	failOn atomic.Int64

	delay time.Duration

	mu      sync.Mutex
	headers []http.Header
}

func newJokeAPI(delay time.Duration) *jokeAPI {
	api := &jokeAPI{delay: delay}
	api.Server = httptest.NewServer(http.HandlerFunc(api.serve))

	return api
}

// setStatus makes every later request answer with status. Zero restores normal service.
func (a *jokeAPI) setStatus(status int) {
	a.status.Store(int32(status))
}

func (a *jokeAPI) serve(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	a.headers = append(a.headers, r.Header.Clone())
	a.mu.Unlock()

	if status := int(a.status.Load()); status != 0 {
		w.WriteHeader(status)
		return
	}

	switch r.URL.Path {
	case "/jokes/categories":
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `["dev","food"]`)

	case "/jokes/random":
		n := a.calls.Add(1)

		current := a.inflight.Add(1)
		defer a.inflight.Add(-1)

		for {
			peak := a.maxInflight.Load()
			if current <= peak || a.maxInflight.CompareAndSwap(peak, current) {
				break
			}
		}

		if a.delay > 0 {
			time.Sleep(a.delay)
		}

		if n == a.failOn.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}

		categories := `[]`
		if n%2 == 0 {
			categories = `["dev"]`
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprintf(w, `{
			"id": "joke-%d",
			"value": "Chuck Norris joke %d",
			"categories": %s,
			"icon_url": "https://api.chucknorris.io/img/avatar/chuck-norris.png",
			"url": "https://api.chucknorris.io/jokes/joke-%d",
			"created_at": "2020-01-05 13:42:19.104863",
			"updated_at": "2020-01-05 13:42:19.104863"
		}`, n, n, categories, n)

	default:
		http.NotFound(w, r)
	}
}

func (a *jokeAPI) receivedHeaders() []http.Header {
	a.mu.Lock()
	defer a.mu.Unlock()

	return append([]http.Header(nil), a.headers...)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testClientConfig returns a client config suitable for integration tests.
func testClientConfig(baseURL string) *clients.Config {
	return &clients.Config{
		ServiceName: "joke-source",
		BaseURL:     baseURL,
		Timeout:     5 * time.Second,
		Circuit: config.CircuitBreakerConfig{
			MaxFailures:   3,
			Timeout:       100 * time.Millisecond,
			HalfOpenLimit: 1,
		},
		UserAgent: "jokeboard-integration",
		Logger:    discardLogger(),
	}
}

func newJokeClient(cfg *clients.Config) (*acl.JokeClient, error) {
	client, err := clients.New(cfg)
	if err != nil {
		return nil, err
	}

	return acl.NewJokeClient(acl.JokeClientConfig{Client: client, Logger: discardLogger()}), nil
}

// board is the full web service wired against a fake joke API.
type board struct {
	*httptest.Server

	provider *app.Provider
	recorder *metrics.Recorder
}

func newBoard(api *jokeAPI) (*board, error) {
	source, err := newJokeClient(testClientConfig(api.URL))
	if err != nil {
		return nil, err
	}

	registry := ports.NewHealthRegistry(ports.WithCheckTimeout(time.Second))
	if err := registry.Register(source); err != nil {
		return nil, err
	}

	recorder := metrics.New()
	provider := app.NewProvider(app.ProviderConfig{
		Source:   source,
		Logger:   discardLogger(),
		Recorder: recorder,
	})

	renderer, err := render.NewRenderer()
	if err != nil {
		return nil, err
	}

	limits := handlers.RefreshLimits{DefaultCount: app.DefaultInitialCount, MaxCount: 10}

	engine := gin.New()
	apphttp.SetupRouter(engine, apphttp.RouterConfig{
		Logger:        discardLogger(),
		ServiceName:   "jokeboard-integration",
		Sessions:      provider,
		Session:       middleware.SessionConfig{CookieName: "jokeboard_session", TTL: time.Hour},
		HealthHandler: handlers.NewHealthHandler(registry, handlers.BuildInfo{Version: "integration"}, recorder.Gatherer()),
		JokesHandler:  handlers.NewJokesHandler(limits),
		PageHandler:   handlers.NewPageHandler(handlers.PageConfig{Limits: limits, Renderer: renderer}),
		Timeout:       5 * time.Second,
	})

	return &board{
		Server:   httptest.NewServer(engine),
		provider: provider,
		recorder: recorder,
	}, nil
}

func (b *board) Close() {
	b.Server.Close()
	b.provider.Close()
}
