package handlers

import (
	"bytes"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/jokeboard/internal/adapters/http/dto"
	"github.com/jsamuelsen/jokeboard/internal/app"
	"github.com/jsamuelsen/jokeboard/internal/platform/logging"
	"github.com/jsamuelsen/jokeboard/internal/render"
)

const contentTypeHTML = "text/html; charset=utf-8"

// PageConfig configures the HTML views.
type PageConfig struct {
	Title    string
	Columns  []render.Column
	Limits   RefreshLimits
	Renderer *render.Renderer
}

// PageHandler serves the joke table page and its fragments.
type PageHandler struct {
	title    string
	columns  []render.Column
	limits   RefreshLimits
	renderer *render.Renderer
}

// NewPageHandler creates a page handler. Columns default to
// render.DefaultColumns.
func NewPageHandler(cfg PageConfig) *PageHandler {
	columns := cfg.Columns
	if len(columns) == 0 {
		columns = render.DefaultColumns()
	}

	title := cfg.Title
	if title == "" {
		title = "Jokes"
	}

	return &PageHandler{
		title:    title,
		columns:  columns,
		limits:   cfg.Limits,
		renderer: cfg.Renderer,
	}
}

// Page handles GET /
// Renders the filter input, the refresh button and the table. A failed
// fetch is shown as a banner above whatever jokes the store still holds.
func (h *PageHandler) Page(c *gin.Context) {
	store, ok := h.filtered(c)
	if !ok {
		return
	}

	snap := store.Snapshot()

	view := render.PageView{
		Title:  h.title,
		Query:  snap.Query,
		Status: string(snap.Status),
		Count:  h.defaultCount(),
		Table:  render.Table(store, h.columns),
	}

	if snap.Status == app.StatusFailed && snap.Err != nil {
		view.Error = snap.Err.Error()
	}

	h.write(c, func(buf *bytes.Buffer) error { return h.renderer.Page(buf, view) })
}

// TablePartial handles GET /jokes/table
// Applies q and returns only the table, for the filter input to swap in.
func (h *PageHandler) TablePartial(c *gin.Context) {
	store, ok := h.filtered(c)
	if !ok {
		return
	}

	view := render.Table(store, h.columns)
	h.write(c, func(buf *bytes.Buffer) error { return h.renderer.Table(buf, view) })
}

// RowPartial handles GET /jokes/:id/row
// An id outside the full set renders nothing.
func (h *PageHandler) RowPartial(c *gin.Context) {
	store := app.MustStoreFromContext(c.Request.Context())

	row, ok := render.Row(store.GetJokeByID, c.Param("id"), h.columns)
	if !ok {
		c.Status(http.StatusNoContent)
		return
	}

	h.write(c, func(buf *bytes.Buffer) error { return h.renderer.Row(buf, row) })
}

// Refresh handles POST /refresh from the page form and redirects back to
// the page, which shows the outcome.
func (h *PageHandler) Refresh(c *gin.Context) {
	var req dto.RefreshRequest
	if err := dto.BindFormAndValidate(c, &req); err != nil {
		dto.RespondWithBindError(c, err)
		return
	}

	store := app.MustStoreFromContext(c.Request.Context())

	if err := refresh(c, store, h.limits, req.Count); err != nil {
		// The store keeps the failure for the banner.
		logging.FromContext(c.Request.Context()).Warn("refresh failed", slog.String("error", err.Error()))
	}

	c.Redirect(http.StatusSeeOther, "/")
}

// RegisterPageRoutes registers the HTML routes on the engine.
func (h *PageHandler) RegisterPageRoutes(r gin.IRoutes) {
	r.GET("/", h.Page)
	r.GET("/jokes/table", h.TablePartial)
	r.GET("/jokes/:id/row", h.RowPartial)
	r.POST("/refresh", h.Refresh)
}

func (h *PageHandler) filtered(c *gin.Context) (*app.JokeStore, bool) {
	store := app.MustStoreFromContext(c.Request.Context())

	var req dto.FilterRequest
	if err := dto.BindQueryAndValidate(c, &req); err != nil {
		dto.RespondWithBindError(c, err)
		return nil, false
	}

	if req.Query != nil {
		store.FilterJokes(*req.Query)
	}

	return store, true
}

func (h *PageHandler) defaultCount() int {
	count, err := h.limits.count(0)
	if err != nil {
		return app.DefaultInitialCount
	}

	return count
}

// write renders into a buffer first so a template error still yields a
// clean 500 envelope.
func (h *PageHandler) write(c *gin.Context, execute func(*bytes.Buffer) error) {
	var buf bytes.Buffer

	if err := execute(&buf); err != nil {
		dto.HandleError(c, err)
		return
	}

	c.Data(http.StatusOK, contentTypeHTML, buf.Bytes())
}
