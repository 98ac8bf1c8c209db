package acl

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/jsamuelsen/jokeboard/internal/adapters/clients"
	"github.com/jsamuelsen/jokeboard/internal/domain"
	"github.com/jsamuelsen/jokeboard/internal/platform/logging"
)

const (
	randomJokePath = "/jokes/random"
	categoriesPath = "/jokes/categories"
)

// JokeClientConfig contains configuration for the joke client.
type JokeClientConfig struct {
	// Client is the HTTP client whose BaseURL points at the joke API.
	Client *clients.Client

	// ServiceName names the source in errors and health output.
	// Defaults to "joke-source".
	ServiceName string

	Logger *slog.Logger
}

// JokeClient implements ports.JokeSource and ports.HealthChecker against
// the Chuck Norris joke API.
type JokeClient struct {
	BaseAdapter

	logger    *slog.Logger
	translate Translator[chuckJoke, domain.Joke]
}

// NewJokeClient creates a joke client adapter. Panics if Client is nil.
func NewJokeClient(cfg JokeClientConfig) *JokeClient {
	if cfg.Client == nil {
		panic("JokeClient: Client is required")
	}

	name := cfg.ServiceName
	if name == "" {
		name = "joke-source"
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	c := &JokeClient{
		BaseAdapter: NewBaseAdapter(cfg.Client, name),
		logger:      logger.With(slog.String("component", "acl.JokeClient")),
	}
	c.translate = c.translateJoke

	return c
}

// chuckJoke is the joke API's wire format.
type chuckJoke struct {
	ID         string   `json:"id"`
	Value      string   `json:"value"`
	Categories []string `json:"categories"`
	IconURL    string   `json:"icon_url"`
	URL        string   `json:"url"`
	CreatedAt  string   `json:"created_at"`
	UpdatedAt  string   `json:"updated_at"`
}

// RandomJoke fetches one random joke.
func (c *JokeClient) RandomJoke(ctx context.Context) (*domain.Joke, error) {
	c.logger.Log(ctx, logging.LevelTrace, "starting request", slog.String("path", randomJokePath))

	body, err := c.Get(ctx, randomJokePath, "fetch random joke", "")
	if err != nil {
		return nil, err
	}

	ext, err := DecodeResponseForService[chuckJoke](body, c.ServiceName())
	if err != nil {
		return nil, err
	}

	joke, err := c.translate(ext)
	if err != nil {
		c.logger.WarnContext(ctx, "rejected joke payload", slog.Any("error", err))
		return nil, err
	}

	c.logger.Log(ctx, logging.LevelTrace, "translated joke",
		slog.String("joke_id", joke.ID),
		slog.Int("categories", len(joke.Categories)))

	return joke, nil
}

// translateJoke validates the DTO and converts it to a domain joke. The joke
// text is kept exactly as received.
func (c *JokeClient) translateJoke(ext *chuckJoke) (*domain.Joke, error) {
	if err := ValidateRequired(strings.TrimSpace(ext.ID), "id"); err != nil {
		return nil, domain.NewUnavailableError(c.ServiceName(), fmt.Sprintf("invalid joke payload: %v", err))
	}

	categories := make([]string, 0, len(ext.Categories))
	categories = append(categories, ext.Categories...)

	return &domain.Joke{
		ID:         ext.ID,
		Value:      ext.Value,
		Categories: categories,
		IconURL:    ext.IconURL,
		URL:        ext.URL,
		CreatedAt:  ext.CreatedAt,
		UpdatedAt:  ext.UpdatedAt,
	}, nil
}

// Name implements ports.HealthChecker.
func (c *JokeClient) Name() string {
	return c.ServiceName()
}

// Check implements ports.HealthChecker. An open breaker fails without a
// request; otherwise the category listing must answer 200.
func (c *JokeClient) Check(ctx context.Context) error {
	if state := c.Client().CircuitState(); state == clients.StateOpen {
		return errors.New("circuit breaker open")
	}

	resp, err := c.Client().Get(ctx, categoriesPath)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("joke API returned status %d", resp.StatusCode)
	}

	return nil
}
