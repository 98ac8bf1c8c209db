package logging

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/m-mizutani/masq"
)

// Keys under which a browser session id can reach a log line. The session
// cookie name is configurable and comes from RedactConfig.
const (
	SessionIDKey    = "session_id"
	SessionIDHeader = "X-Session-ID"
)

// sessionPrefixLen is how much of a session id survives redaction.
const sessionPrefixLen = 8

var (
	jwtPattern        = regexp.MustCompile(`^eyJ[A-Za-z0-9_-]*\.eyJ[A-Za-z0-9_-]*\.[A-Za-z0-9_-]*$`)
	authSchemePattern = regexp.MustCompile(`(?i)^(bearer|basic)\s+\S+`)
)

// RedactConfig names the deployment-specific keys that carry secrets.
type RedactConfig struct {
	// SessionCookie is the name of the cookie holding the session id.
	SessionCookie string
}

// MaskSessionID keeps the first few characters of a session id and masks
// the rest, so lines from one session still group together.
func MaskSessionID(id string) string {
	if len(id) <= sessionPrefixLen {
		return strings.Repeat("*", len(id))
	}

	return id[:sessionPrefixLen] + strings.Repeat("*", len(id)-sessionPrefixLen)
}

// RedactOptions returns the masq options applied to every log handler.
// A session id grants access to that session's jokes, so it is masked
// wherever it appears: the context attribute, the header and the cookie.
func RedactOptions(cfg RedactConfig) []masq.Option {
	maskSession := masq.RedactString(MaskSessionID)

	opts := []masq.Option{
		masq.WithFieldName(SessionIDKey, maskSession),
		masq.WithFieldName(SessionIDHeader, maskSession),
		masq.WithFieldName(strings.ToLower(SessionIDHeader), maskSession),

		masq.WithFieldName("cookie"),
		masq.WithFieldName("Cookie"),
		masq.WithFieldName("set-cookie"),
		masq.WithFieldName("Set-Cookie"),
		masq.WithFieldName("authorization"),
		masq.WithFieldName("Authorization"),
		masq.WithFieldName("password"),
		masq.WithFieldName("token"),
		masq.WithFieldName("api_key"),
		masq.WithFieldPrefix("secret"),

		masq.WithRegex(jwtPattern),
		masq.WithRegex(authSchemePattern),
	}

	if cfg.SessionCookie != "" {
		opts = append(opts, masq.WithFieldName(cfg.SessionCookie, maskSession))
	}

	return opts
}

// NewReplaceAttr builds a slog ReplaceAttr func from RedactOptions plus any
// extra options.
func NewReplaceAttr(cfg RedactConfig, extra ...masq.Option) func(groups []string, a slog.Attr) slog.Attr {
	return masq.New(append(RedactOptions(cfg), extra...)...)
}
