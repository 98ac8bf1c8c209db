package main_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	main "github.com/jsamuelsen/jokeboard/cmd/jokes"
	"github.com/jsamuelsen/jokeboard/internal/adapters/http/dto"
	"github.com/jsamuelsen/jokeboard/internal/domain"
)

type sourceFunc func(ctx context.Context) (*domain.Joke, error)

func (f sourceFunc) RandomJoke(ctx context.Context) (*domain.Joke, error) {
	return f(ctx)
}

// cycleSource hands out the given jokes in order, wrapping around.
func cycleSource(jokes ...domain.Joke) sourceFunc {
	var n atomic.Int64

	return func(context.Context) (*domain.Joke, error) {
		j := jokes[int(n.Add(1)-1)%len(jokes)]
		return &j, nil
	}
}

func testJokes() []domain.Joke {
	return []domain.Joke{
		{ID: "a", Value: "Chuck Norris can divide by zero.", Categories: []string{"math"}, CreatedAt: "2020-01-05 13:42:19.104863"},
		{ID: "b", Value: "Time waits for CHUCK.", CreatedAt: "2020-01-05 13:42:19.104863"},
		{ID: "c", Value: "Nothing here.", Categories: []string{"dev"}},
	}
}

func run(t *testing.T, m *main.Main, args ...string) (string, string, error) {
	t.Helper()

	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}

	err := m.Run(context.Background(), args, stdout, stderr)

	return stdout.String(), stderr.String(), err
}

func decode(t *testing.T, out string) []dto.JokeResponse {
	t.Helper()

	var jokes []dto.JokeResponse
	require.NoError(t, json.Unmarshal([]byte(out), &jokes))

	return jokes
}

func TestMain_Run_Help(t *testing.T) {
	t.Parallel()

	stdout, _, err := run(t, main.NewMain(), "--help")
	require.NoError(t, err)

	assert.Contains(t, stdout, "Usage:")
	for _, flag := range []string{"--count", "--filter", "--id", "--format", "--base-url", "--columns"} {
		assert.Contains(t, stdout, flag)
	}
}

func TestMain_Run_TextTable(t *testing.T) {
	t.Parallel()

	m := &main.Main{Source: cycleSource(testJokes()...)}

	stdout, _, err := run(t, m)
	require.NoError(t, err)

	assert.Contains(t, stdout, "Joke")
	assert.Contains(t, stdout, "Chuck Norris can divide by zero.")
	assert.Contains(t, stdout, "Nothing here.")
	assert.Contains(t, stdout, "Jan 5, 2020")
}

func TestMain_Run_JSON(t *testing.T) {
	t.Parallel()

	m := &main.Main{Source: cycleSource(testJokes()...)}

	stdout, _, err := run(t, m, "--format", "json", "--count", "2")
	require.NoError(t, err)

	jokes := decode(t, stdout)
	require.Len(t, jokes, 2)
	assert.Equal(t, "a", jokes[0].ID)
	assert.Equal(t, "b", jokes[1].ID)
}

func TestMain_Run_Filter(t *testing.T) {
	t.Parallel()

	m := &main.Main{Source: cycleSource(testJokes()...)}

	stdout, _, err := run(t, m, "--format", "json", "--filter", "chuck")
	require.NoError(t, err)

	jokes := decode(t, stdout)
	require.Len(t, jokes, 2)
	assert.Equal(t, "a", jokes[0].ID)
	assert.Equal(t, "b", jokes[1].ID)
}

func TestMain_Run_FilterNoMatch(t *testing.T) {
	t.Parallel()

	m := &main.Main{Source: cycleSource(testJokes()...)}

	stdout, _, err := run(t, m, "--filter", "zzz")
	require.NoError(t, err)

	assert.Equal(t, "No jokes match.\n", stdout)
}

func TestMain_Run_ID(t *testing.T) {
	t.Parallel()

	t.Run("found", func(t *testing.T) {
		t.Parallel()

		m := &main.Main{Source: cycleSource(testJokes()...)}

		stdout, _, err := run(t, m, "--format", "json", "--id", "c")
		require.NoError(t, err)

		jokes := decode(t, stdout)
		require.Len(t, jokes, 1)
		assert.Equal(t, []string{"dev"}, jokes[0].Categories)
	})

	t.Run("missing", func(t *testing.T) {
		t.Parallel()

		m := &main.Main{Source: cycleSource(testJokes()...)}

		_, _, err := run(t, m, "--id", "zzz")
		require.Error(t, err)
		assert.True(t, domain.IsNotFound(err))
	})
}

func TestMain_Run_SourceFailure(t *testing.T) {
	t.Parallel()

	m := &main.Main{Source: sourceFunc(func(context.Context) (*domain.Joke, error) {
		return nil, domain.NewUnavailableError("joke-source", "HTTP 503")
	})}

	stdout, _, err := run(t, m)
	require.Error(t, err)

	assert.True(t, domain.IsUnavailable(err))
	assert.Contains(t, err.Error(), "fetching jokes")
	assert.Empty(t, stdout)
}

func TestMain_Run_InvalidArgs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"zero count", []string{"--count", "0"}, "count must be at least 1"},
		{"unknown column", []string{"--columns", "value,nope"}, `unknown column "nope"`},
		{"bad format", []string{"--format", "xml"}, "format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			m := &main.Main{Source: cycleSource(testJokes()...)}

			_, _, err := run(t, m, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestMain_Run_BaseURL(t *testing.T) {
	t.Parallel()

	var calls atomic.Int64

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/jokes/random" {
			http.NotFound(w, r)
			return
		}

		n := calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprintf(w, `{"id":"up-%d","value":"Chuck Norris &amp; <b>friends</b> %d","categories":[]}`, n, n)
	}))
	t.Cleanup(upstream.Close)

	stdout, _, err := run(t, main.NewMain(), "--base-url", upstream.URL, "--format", "json", "--count", "4")
	require.NoError(t, err)

	jokes := decode(t, stdout)
	require.Len(t, jokes, 4)
	assert.EqualValues(t, 4, calls.Load())
	assert.Regexp(t, `^Chuck Norris &amp; <b>friends</b> \d$`, jokes[0].Value)
}
