//go:build integration

package integration

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/jokeboard/internal/adapters/clients"
	"github.com/jsamuelsen/jokeboard/internal/adapters/http/middleware"
	"github.com/jsamuelsen/jokeboard/internal/domain"
)

// TestJokeClient_RandomJoke_Integration verifies the full flow of fetching
// a joke through the client and the anti-corruption layer.
func TestJokeClient_RandomJoke_Integration(t *testing.T) {
	api := newJokeAPI(0)
	defer api.Close()

	client, err := newJokeClient(testClientConfig(api.URL))
	require.NoError(t, err)

	joke, err := client.RandomJoke(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "joke-1", joke.ID)
	assert.Equal(t, "Chuck Norris joke 1", joke.Value)
	assert.Empty(t, joke.Categories)
	assert.Equal(t, "https://api.chucknorris.io/jokes/joke-1", joke.URL)
	assert.Equal(t, "2020-01-05 13:42:19.104863", joke.CreatedAt)

	joke, err = client.RandomJoke(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"dev"}, joke.Categories)
}

// TestJokeClient_KeepsValueVerbatim verifies that the joke text reaches the
// domain exactly as the API sent it.
func TestJokeClient_KeepsValueVerbatim(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"x","value":"<script>alert(1)</script>Chuck &amp; <em>Bruce</em>","categories":null}`))
	}))
	defer server.Close()

	client, err := newJokeClient(testClientConfig(server.URL))
	require.NoError(t, err)

	joke, err := client.RandomJoke(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "<script>alert(1)</script>Chuck &amp; <em>Bruce</em>", joke.Value)
	assert.NotNil(t, joke.Categories)
}

// TestJokeClient_ErrorMapping verifies that upstream failures become domain errors.
func TestJokeClient_ErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		checkFn func(error) bool
		message string
	}{
		{
			name:    "service unavailable",
			status:  http.StatusServiceUnavailable,
			checkFn: domain.IsUnavailable,
			message: "HTTP 503",
		},
		{
			name:    "forbidden",
			status:  http.StatusForbidden,
			checkFn: domain.IsUnavailable,
			message: "HTTP 403",
		},
		{
			name:    "not found",
			status:  http.StatusNotFound,
			checkFn: domain.IsNotFound,
		},
		{
			name:    "rate limited upstream",
			status:  http.StatusTooManyRequests,
			checkFn: domain.IsUnavailable,
			message: "rate limit exceeded",
		},
		{
			name:    "undecodable body",
			status:  http.StatusOK,
			body:    `{"id": `,
			checkFn: domain.IsUnavailable,
		},
		{
			name:    "missing id",
			status:  http.StatusOK,
			body:    `{"value":"Chuck"}`,
			checkFn: domain.IsUnavailable,
			message: "invalid joke payload",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client, err := newJokeClient(testClientConfig(server.URL))
			require.NoError(t, err)

			_, err = client.RandomJoke(context.Background())

			require.Error(t, err)
			assert.True(t, tt.checkFn(err), "unexpected error type: %v", err)
			if tt.message != "" {
				assert.Contains(t, err.Error(), tt.message)
			}
		})
	}
}

// TestJokeClient_CircuitBreaker verifies that repeated 5xx responses open
// the breaker and that it closes again once the API recovers.
func TestJokeClient_CircuitBreaker(t *testing.T) {
	api := newJokeAPI(0)
	defer api.Close()

	api.setStatus(http.StatusInternalServerError)

	cfg := testClientConfig(api.URL)

	client, err := newJokeClient(cfg)
	require.NoError(t, err)

	for range cfg.Circuit.MaxFailures {
		_, err := client.RandomJoke(context.Background())
		require.Error(t, err)
	}

	_, err = client.RandomJoke(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "circuit breaker open")
	assert.Equal(t, clients.StateOpen, client.Client().CircuitState())
	require.Error(t, client.Check(context.Background()))

	api.setStatus(0)
	time.Sleep(cfg.Circuit.Timeout + 20*time.Millisecond)

	joke, err := client.RandomJoke(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, joke.ID)
	assert.Equal(t, clients.StateClosed, client.Client().CircuitState())
}

// TestJokeClient_PropagatesHeaders verifies that request and correlation
// IDs and the user agent reach the API.
func TestJokeClient_PropagatesHeaders(t *testing.T) {
	api := newJokeAPI(0)
	defer api.Close()

	client, err := newJokeClient(testClientConfig(api.URL))
	require.NoError(t, err)

	ctx := middleware.ContextWithRequestID(context.Background(), "req-123")
	ctx = middleware.ContextWithCorrelationID(ctx, "corr-456")

	_, err = client.RandomJoke(ctx)
	require.NoError(t, err)

	headers := api.receivedHeaders()
	require.Len(t, headers, 1)
	assert.Equal(t, "req-123", headers[0].Get(middleware.HeaderRequestID))
	assert.Equal(t, "corr-456", headers[0].Get(middleware.HeaderCorrelationID))
	assert.Equal(t, "jokeboard-integration", headers[0].Get("User-Agent"))
	assert.Equal(t, "application/json", headers[0].Get("Accept"))
}

// TestJokeClient_HealthCheck verifies the readiness check against the API.
func TestJokeClient_HealthCheck(t *testing.T) {
	api := newJokeAPI(0)
	defer api.Close()

	client, err := newJokeClient(testClientConfig(api.URL))
	require.NoError(t, err)

	assert.Equal(t, "joke-source", client.Name())
	require.NoError(t, client.Check(context.Background()))

	api.setStatus(http.StatusBadGateway)
	require.Error(t, client.Check(context.Background()))
}
