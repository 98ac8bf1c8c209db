package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/jokeboard/internal/adapters/http/dto"
	"github.com/jsamuelsen/jokeboard/internal/app"
	"github.com/jsamuelsen/jokeboard/internal/domain"
)

// RefreshLimits bounds explicit refreshes.
type RefreshLimits struct {
	// DefaultCount is used when the request names no count.
	DefaultCount int
	// MaxCount rejects larger requests before any joke is fetched.
	MaxCount int
}

func (l RefreshLimits) count(requested int) (int, error) {
	if requested == 0 {
		requested = l.DefaultCount
	}

	if requested == 0 {
		requested = app.DefaultInitialCount
	}

	if l.MaxCount > 0 && requested > l.MaxCount {
		return 0, domain.NewValidationErrorWithValue("count", fmt.Sprintf("must be at most %d", l.MaxCount), requested)
	}

	return requested, nil
}

// JokesHandler serves the JSON view of the caller's joke store. The store
// is scoped to the request by the session middleware.
type JokesHandler struct {
	limits RefreshLimits
}

// NewJokesHandler creates a new jokes handler.
func NewJokesHandler(limits RefreshLimits) *JokesHandler {
	return &JokesHandler{limits: limits}
}

// List handles GET /api/v1/jokes
// Returns the filtered jokes. A q parameter replaces the filter first; an
// empty q restores the full set.
//
// @Summary List jokes
// @Tags jokes
// @Produce json
// @Param q query string false "Case-insensitive filter"
// @Success 200 {object} dto.JokesResponse
// @Failure 400 {object} dto.ErrorResponse
// @Router /api/v1/jokes [get]
func (h *JokesHandler) List(c *gin.Context) {
	store := app.MustStoreFromContext(c.Request.Context())

	var req dto.FilterRequest
	if err := dto.BindQueryAndValidate(c, &req); err != nil {
		dto.RespondWithBindError(c, err)
		return
	}

	if req.Query != nil {
		store.FilterJokes(*req.Query)
	}

	c.JSON(http.StatusOK, dto.NewJokesResponse(store.Snapshot()))
}

// Get handles GET /api/v1/jokes/:id
// Looks the id up in the full set, whatever the current filter.
//
// @Summary Get a joke by ID
// @Tags jokes
// @Produce json
// @Param id path string true "Joke ID"
// @Success 200 {object} dto.JokeResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/v1/jokes/{id} [get]
func (h *JokesHandler) Get(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		dto.RespondWithErrorCode(c, dto.ErrorCodeBadRequest, "joke ID is required")
		return
	}

	joke, ok := app.MustStoreFromContext(c.Request.Context()).GetJokeByID(id)
	if !ok {
		dto.HandleError(c, domain.NewNotFoundError("joke", id))
		return
	}

	c.JSON(http.StatusOK, dto.NewJokeResponse(joke))
}

// Refresh handles POST /api/v1/jokes/refresh
// Replaces the whole set with count fresh jokes, or changes nothing.
//
// @Summary Fetch a new batch of jokes
// @Tags jokes
// @Produce json
// @Param count query int false "Number of jokes"
// @Success 200 {object} dto.JokesResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Failure 503 {object} dto.ErrorResponse
// @Router /api/v1/jokes/refresh [post]
func (h *JokesHandler) Refresh(c *gin.Context) {
	var req dto.RefreshRequest
	if err := dto.BindFormAndValidate(c, &req); err != nil {
		dto.RespondWithBindError(c, err)
		return
	}

	store := app.MustStoreFromContext(c.Request.Context())

	if err := refresh(c, store, h.limits, req.Count); err != nil {
		respondFetchError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewJokesResponse(store.Snapshot()))
}

// RegisterJokeRoutes registers joke routes on the given router group.
func (h *JokesHandler) RegisterJokeRoutes(rg *gin.RouterGroup) {
	jokes := rg.Group("/jokes")
	jokes.GET("", h.List)
	jokes.POST("/refresh", h.Refresh)
	jokes.GET("/:id", h.Get)
}

func refresh(c *gin.Context, store *app.JokeStore, limits RefreshLimits, requested int) error {
	count, err := limits.count(requested)
	if err != nil {
		return err
	}

	return store.FetchNewJokes(c.Request.Context(), count)
}

// respondFetchError writes the envelope for a failed refresh.
func respondFetchError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, app.ErrFetchSuperseded):
		dto.RespondWithErrorCode(c, dto.ErrorCodeConflict, "a newer refresh replaced this one")
	case errors.Is(err, app.ErrStoreClosed):
		dto.RespondWithErrorCode(c, dto.ErrorCodeUnavailable, "the session expired, reload to start a new one")
	default:
		dto.HandleError(c, err)
	}
}
