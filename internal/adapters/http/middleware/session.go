package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jsamuelsen/jokeboard/internal/adapters/http/dto"
	"github.com/jsamuelsen/jokeboard/internal/app"
	"github.com/jsamuelsen/jokeboard/internal/platform/logging"
)

const (
	// HeaderSessionID lets API clients without a cookie jar pin a session.
	HeaderSessionID = "X-Session-ID"

	// ContextKeySessionID is the gin context key for the session ID.
	ContextKeySessionID = "session_id"
)

// StoreMounter resolves the joke store of a browser session.
type StoreMounter interface {
	Mount(ctx context.Context, sessionID string) (*app.JokeStore, error)
}

// SessionConfig configures the session middleware.
type SessionConfig struct {
	CookieName string
	TTL        time.Duration
	Secure     bool
}

// Session returns middleware that mounts the caller's joke store and scopes
// it to the request context, where handlers read it with
// app.MustStoreFromContext.
//
// The session ID comes from the X-Session-ID header, then the session
// cookie. Anything that is not a UUID is replaced by a fresh one. A failed
// initial fetch is logged and the request continues: the store reports
// the failure itself.
func Session(mounter StoreMounter, cfg SessionConfig) gin.HandlerFunc {
	maxAge := int(cfg.TTL / time.Second)

	return func(c *gin.Context) {
		id := sessionID(c, cfg.CookieName)

		c.Set(ContextKeySessionID, id)
		c.Header(HeaderSessionID, id)
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(cfg.CookieName, id, maxAge, "/", "", cfg.Secure, true)

		ctx := logging.WithSessionID(c.Request.Context(), id)

		store, err := mounter.Mount(ctx, id)
		if store == nil {
			if err == nil {
				err = app.ErrNoProvider
			}

			c.Request = c.Request.WithContext(ctx)
			dto.AbortWithError(c, err)

			return
		}

		if err != nil {
			logging.FromContext(ctx).Warn("initial joke fetch failed",
				slog.String("error", err.Error()),
			)
		}

		c.Request = c.Request.WithContext(app.WithStore(ctx, store))

		c.Next()
	}
}

// GetSessionID extracts the session ID from the gin.Context.
// Returns empty string if not set.
func GetSessionID(c *gin.Context) string {
	return getIDFromContext(c, ContextKeySessionID)
}

func sessionID(c *gin.Context, cookieName string) string {
	candidates := []string{c.GetHeader(HeaderSessionID)}
	if cookie, err := c.Cookie(cookieName); err == nil {
		candidates = append(candidates, cookie)
	}

	for _, candidate := range candidates {
		if parsed, err := uuid.Parse(candidate); err == nil {
			return parsed.String()
		}
	}

	return uuid.New().String()
}
