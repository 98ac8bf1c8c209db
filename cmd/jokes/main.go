// Command jokes fetches random jokes and prints them as a terminal table or JSON.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"

	"github.com/jsamuelsen/jokeboard/internal/adapters/clients"
	"github.com/jsamuelsen/jokeboard/internal/adapters/clients/acl"
	"github.com/jsamuelsen/jokeboard/internal/adapters/http/dto"
	"github.com/jsamuelsen/jokeboard/internal/app"
	"github.com/jsamuelsen/jokeboard/internal/domain"
	"github.com/jsamuelsen/jokeboard/internal/platform/config"
	"github.com/jsamuelsen/jokeboard/internal/platform/logging"
	"github.com/jsamuelsen/jokeboard/internal/ports"
	"github.com/jsamuelsen/jokeboard/internal/render"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Count       int           `short:"n" default:"3" help:"Number of jokes to fetch."`
	Filter      string        `short:"f" help:"Only show jokes containing this text (case-insensitive)."`
	ID          string        `help:"Show only the fetched joke with this id."`
	Format      string        `default:"text" enum:"text,json" help:"Output format (${enum})."`
	Columns     []string      `default:"value,categories,created_at" sep:"," help:"Columns for text output."`
	BaseURL     string        `name:"base-url" default:"https://api.chucknorris.io" env:"APP_JOKES_SOURCE_BASE_URL" help:"Joke API base URL."`
	Timeout     time.Duration `default:"10s" help:"Per-request timeout."`
	Concurrency int           `short:"c" default:"0" help:"Requests in flight at once (0 = all)."`
	LogLevel    string        `default:"warn" enum:"trace,debug,info,warn,error" help:"Log level (${enum})."`
}

// Main represents the program.
type Main struct {
	// Source replaces the HTTP joke client when set.
	Source ports.JokeSource
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{}
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cli := &CLI{}

	parser, err := kong.New(cli,
		kong.Name("jokes"),
		kong.Description("Fetch random Chuck Norris jokes"),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 1 && (args[0] == "--help" || args[0] == "-h" || args[0] == "help") {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	if _, err := parser.Parse(args); err != nil {
		return err
	}

	if cli.Count < 1 {
		return errors.New("count must be at least 1")
	}

	columns, err := render.SelectColumns(cli.Columns)
	if err != nil {
		return err
	}

	logger := logging.NewWithWriter(&logging.Config{
		Level:   cli.LogLevel,
		Format:  "pretty",
		Service: "jokes",
		Version: "cli",
	}, stderr)

	source := m.Source
	if source == nil {
		source, err = newSource(cli, logger)
		if err != nil {
			return err
		}
	}

	store := app.NewJokeStore(app.JokeStoreConfig{
		Source:      source,
		Logger:      logger,
		Concurrency: cli.Concurrency,
	})
	defer store.Close()

	if err := store.FetchNewJokes(ctx, cli.Count); err != nil {
		return fmt.Errorf("fetching jokes: %w", err)
	}

	jokes := store.Jokes()

	switch {
	case cli.ID != "":
		joke, ok := store.GetJokeByID(cli.ID)
		if !ok {
			return domain.NewNotFoundError("joke", cli.ID)
		}

		jokes = []domain.Joke{*joke}
	case cli.Filter != "":
		store.FilterJokes(cli.Filter)
		jokes = store.FilteredJokes()
	}

	if cli.Format == "json" {
		return writeJSON(stdout, jokes)
	}

	if len(jokes) == 0 {
		_, err := fmt.Fprintln(stdout, "No jokes match.")
		return err
	}

	return render.RenderText(stdout, jokes, columns)
}

func newSource(cli *CLI, logger *slog.Logger) (ports.JokeSource, error) {
	client, err := clients.New(&clients.Config{
		BaseURL:     cli.BaseURL,
		ServiceName: "joke-source",
		Timeout:     cli.Timeout,
		Circuit: config.CircuitBreakerConfig{
			MaxFailures:   config.DefaultClientCircuitMaxFailures,
			Timeout:       30 * time.Second,
			HalfOpenLimit: config.DefaultClientCircuitHalfOpenLimit,
		},
		RateLimit: config.RateLimitConfig{
			Enabled:           true,
			RequestsPerSecond: config.DefaultClientRateLimit,
			Burst:             config.DefaultClientRateBurst,
		},
		UserAgent: "jokes-cli",
		Logger:    logger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating HTTP client: %w", err)
	}

	return acl.NewJokeClient(acl.JokeClientConfig{Client: client, Logger: logger}), nil
}

func writeJSON(w io.Writer, jokes []domain.Joke) error {
	out := make([]dto.JokeResponse, 0, len(jokes))
	for i := range jokes {
		out = append(out, dto.NewJokeResponse(&jokes[i]))
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(out)
}
