package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/jokeboard/internal/adapters/http/dto"
	"github.com/jsamuelsen/jokeboard/internal/app"
	"github.com/jsamuelsen/jokeboard/internal/domain"
)

// sourceFunc adapts a function to ports.JokeSource.
type sourceFunc func(ctx context.Context) (*domain.Joke, error)

func (f sourceFunc) RandomJoke(ctx context.Context) (*domain.Joke, error) {
	return f(ctx)
}

// swappableSource lets a test change what the source returns between fetches.
type swappableSource struct {
	fn atomic.Pointer[sourceFunc]
}

func (s *swappableSource) RandomJoke(ctx context.Context) (*domain.Joke, error) {
	return (*s.fn.Load())(ctx)
}

func (s *swappableSource) set(f sourceFunc) {
	s.fn.Store(&f)
}

// cycle hands out the given jokes in turn.
func cycle(jokes ...domain.Joke) sourceFunc {
	var n atomic.Int64

	return func(context.Context) (*domain.Joke, error) {
		j := jokes[int(n.Add(1)-1)%len(jokes)]
		return &j, nil
	}
}

// numbered hands out jokes with fresh ids.
func numbered() sourceFunc {
	var n atomic.Int64

	return func(context.Context) (*domain.Joke, error) {
		id := n.Add(1)
		return &domain.Joke{ID: fmt.Sprintf("n-%d", id), Value: fmt.Sprintf("Fresh joke %d", id)}, nil
	}
}

func failing() sourceFunc {
	return func(context.Context) (*domain.Joke, error) {
		return nil, domain.NewUnavailableError("joke-source", "HTTP 503")
	}
}

func testJokes() []domain.Joke {
	return []domain.Joke{
		{ID: "a", Value: "Chuck Norris can divide by zero."},
		{ID: "b", Value: "Time waits for CHUCK."},
		{ID: "c", Value: "Nothing here.", Categories: []string{"dev"}, URL: "https://api.chucknorris.io/jokes/c"},
	}
}

// seededStore returns a populated store and the source behind it.
func seededStore(t *testing.T) (*app.JokeStore, *swappableSource) {
	t.Helper()

	source := &swappableSource{}
	source.set(cycle(testJokes()...))

	store := app.NewJokeStore(app.JokeStoreConfig{
		Source: source,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	t.Cleanup(store.Close)

	require.NoError(t, store.FetchNewJokes(context.Background(), len(testJokes())))

	return store, source
}

// scoped returns an engine whose requests carry store, as the session
// middleware would arrange.
func scoped(store *app.JokeStore) *gin.Engine {
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Request = c.Request.WithContext(app.WithStore(c.Request.Context(), store))
		c.Next()
	})

	return router
}

func jokesRouter(store *app.JokeStore) *gin.Engine {
	router := scoped(store)
	NewJokesHandler(RefreshLimits{DefaultCount: 3, MaxCount: 10}).RegisterJokeRoutes(router.Group("/api/v1"))

	return router
}

func serve(router http.Handler, method, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(method, target, nil))

	return w
}

func decodeJokes(t *testing.T, w *httptest.ResponseRecorder) dto.JokesResponse {
	t.Helper()

	var resp dto.JokesResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	return resp
}

func ids(resp dto.JokesResponse) []string {
	out := make([]string, 0, len(resp.Jokes))
	for _, j := range resp.Jokes {
		out = append(out, j.ID)
	}

	return out
}

func TestRefreshLimits_Count(t *testing.T) {
	tests := []struct {
		name      string
		limits    RefreshLimits
		requested int
		want      int
		wantErr   bool
	}{
		{"configured default", RefreshLimits{DefaultCount: 5, MaxCount: 10}, 0, 5, false},
		{"package default", RefreshLimits{}, 0, app.DefaultInitialCount, false},
		{"explicit", RefreshLimits{DefaultCount: 3, MaxCount: 10}, 7, 7, false},
		{"at max", RefreshLimits{MaxCount: 10}, 10, 10, false},
		{"over max", RefreshLimits{MaxCount: 10}, 11, 0, true},
		{"unbounded", RefreshLimits{}, 500, 500, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.limits.count(tt.requested)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, domain.IsValidation(err))
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestJokesHandler_List(t *testing.T) {
	store, _ := seededStore(t)
	router := jokesRouter(store)

	w := serve(router, http.MethodGet, "/api/v1/jokes")
	require.Equal(t, http.StatusOK, w.Code)

	resp := decodeJokes(t, w)
	assert.Equal(t, "populated", resp.Status)
	assert.Equal(t, 3, resp.Total)
	assert.Equal(t, 3, resp.Count)
	assert.Empty(t, resp.Query)
	assert.Empty(t, resp.Error)
}

func TestJokesHandler_List_Filter(t *testing.T) {
	store, _ := seededStore(t)
	router := jokesRouter(store)

	resp := decodeJokes(t, serve(router, http.MethodGet, "/api/v1/jokes?q=chuck"))
	assert.Equal(t, "chuck", resp.Query)
	assert.ElementsMatch(t, []string{"a", "b"}, ids(resp))
	assert.Equal(t, 3, resp.Total)

	// Absent q keeps the current filter.
	resp = decodeJokes(t, serve(router, http.MethodGet, "/api/v1/jokes"))
	assert.Equal(t, 2, resp.Count)

	// Filters never compound: a broader query sees the full set again.
	resp = decodeJokes(t, serve(router, http.MethodGet, "/api/v1/jokes?q=e"))
	assert.ElementsMatch(t, []string{"a", "b", "c"}, ids(resp))

	// Empty q restores everything.
	serve(router, http.MethodGet, "/api/v1/jokes?q=zzz")
	resp = decodeJokes(t, serve(router, http.MethodGet, "/api/v1/jokes?q="))
	assert.Equal(t, 3, resp.Count)
	assert.Empty(t, resp.Query)
}

func TestJokesHandler_List_LongQueryMatchesNothing(t *testing.T) {
	store, _ := seededStore(t)
	long := strings.Repeat("x", 201)

	w := serve(jokesRouter(store), http.MethodGet, "/api/v1/jokes?q="+long)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decodeJokes(t, w)
	assert.Zero(t, resp.Count)
	assert.Equal(t, 3, resp.Total)
	assert.Equal(t, long, store.Query())
}

func TestJokesHandler_Get(t *testing.T) {
	store, _ := seededStore(t)
	router := jokesRouter(store)

	w := serve(router, http.MethodGet, "/api/v1/jokes/c")
	require.Equal(t, http.StatusOK, w.Code)

	var joke dto.JokeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &joke))
	assert.Equal(t, "Nothing here.", joke.Value)
	assert.Equal(t, []string{"dev"}, joke.Categories)
}

func TestJokesHandler_Get_IgnoresFilter(t *testing.T) {
	store, _ := seededStore(t)
	store.FilterJokes("chuck")

	w := serve(jokesRouter(store), http.MethodGet, "/api/v1/jokes/c")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, store.FilteredJokes(), 2)
}

func TestJokesHandler_Get_NotFound(t *testing.T) {
	store, _ := seededStore(t)

	w := serve(jokesRouter(store), http.MethodGet, "/api/v1/jokes/missing")

	assert.Equal(t, http.StatusNotFound, w.Code)

	var resp dto.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, dto.ErrorCodeNotFound, resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "missing")
}

func TestJokesHandler_Refresh(t *testing.T) {
	store, source := seededStore(t)
	store.FilterJokes("chuck")
	source.set(numbered())

	w := serve(jokesRouter(store), http.MethodPost, "/api/v1/jokes/refresh?count=5")
	require.Equal(t, http.StatusOK, w.Code)

	resp := decodeJokes(t, w)
	assert.Equal(t, 5, resp.Total)
	assert.Equal(t, 5, resp.Count)
	assert.Empty(t, resp.Query)

	_, ok := store.GetJokeByID("a")
	assert.False(t, ok)
}

func TestJokesHandler_Refresh_DefaultCount(t *testing.T) {
	store, source := seededStore(t)
	source.set(numbered())

	resp := decodeJokes(t, serve(jokesRouter(store), http.MethodPost, "/api/v1/jokes/refresh"))

	assert.Equal(t, 3, resp.Total)
}

func TestJokesHandler_Refresh_BadCount(t *testing.T) {
	tests := []struct {
		name   string
		target string
		detail string
	}{
		{"over max", "/api/v1/jokes/refresh?count=11", "must be at most 10"},
		{"negative", "/api/v1/jokes/refresh?count=-1", "must be at least 1"},
		{"not a number", "/api/v1/jokes/refresh?count=three", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, source := seededStore(t)
			source.set(numbered())

			w := serve(jokesRouter(store), http.MethodPost, tt.target)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), tt.detail)

			_, ok := store.GetJokeByID("a")
			assert.True(t, ok, "a rejected refresh must not touch the jokes")
		})
	}
}

func TestJokesHandler_Refresh_SourceFailure(t *testing.T) {
	store, source := seededStore(t)
	source.set(failing())

	w := serve(jokesRouter(store), http.MethodPost, "/api/v1/jokes/refresh")

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	var resp dto.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, dto.ErrorCodeUnavailable, resp.Error.Code)
	assert.Equal(t, "HTTP 503", resp.Error.Details["reason"])

	assert.Len(t, store.Jokes(), 3)
	assert.Equal(t, app.StatusFailed, store.Status())

	list := decodeJokes(t, serve(jokesRouter(store), http.MethodGet, "/api/v1/jokes"))
	assert.Equal(t, "failed", list.Status)
	assert.Contains(t, list.Error, "HTTP 503")
}

func TestJokesHandler_Refresh_DuplicateIDs(t *testing.T) {
	store, source := seededStore(t)
	source.set(cycle(domain.Joke{ID: "same", Value: "Again"}))

	w := serve(jokesRouter(store), http.MethodPost, "/api/v1/jokes/refresh?count=2")

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Len(t, store.Jokes(), 3)
}

func TestJokesHandler_Refresh_ClosedStore(t *testing.T) {
	store, _ := seededStore(t)
	store.Close()

	w := serve(jokesRouter(store), http.MethodPost, "/api/v1/jokes/refresh")

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "session expired")
}

func TestJokesHandler_RegisterJokeRoutes(t *testing.T) {
	router := gin.New()
	NewJokesHandler(RefreshLimits{}).RegisterJokeRoutes(router.Group("/api/v1"))

	routeMap := make(map[string]bool)
	for _, r := range router.Routes() {
		routeMap[r.Method+" "+r.Path] = true
	}

	for _, expected := range []string{
		"GET /api/v1/jokes",
		"GET /api/v1/jokes/:id",
		"POST /api/v1/jokes/refresh",
	} {
		assert.True(t, routeMap[expected], "missing route: %s", expected)
	}
}

func TestJokesHandler_PanicsWithoutProvider(t *testing.T) {
	router := gin.New()
	NewJokesHandler(RefreshLimits{}).RegisterJokeRoutes(router.Group("/api/v1"))

	assert.Panics(t, func() {
		serve(router, http.MethodGet, "/api/v1/jokes")
	})
}
