package middleware

import (
	"regexp"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// maxLoggedHeaderLen bounds header values before they reach the log sink.
const maxLoggedHeaderLen = 256

var uuidSegment = regexp.MustCompile(`(?i)^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

// Logger logs one line per request. Paths are anonymized before logging:
// UUID-shaped segments are replaced with ":id" so record identifiers never
// land in the request log, and logged header values are truncated.
func Logger(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()
			rid, _ := c.Get("request_id").(string)

			err := next(c)

			evt := logger.Info()
			if err != nil {
				evt = logger.Error().Err(err)
			}

			evt.
				Str("request_id", rid).
				Str("method", req.Method).
				Str("path", AnonymizePath(req.URL.Path)).
				Int("status", c.Response().Status).
				Dur("latency", time.Since(start)).
				Str("remote_ip", c.RealIP()).
				Str("user_agent", TruncateHeader(req.UserAgent())).
				Msg("request")

			return err
		}
	}
}

// AnonymizePath replaces UUID-shaped path segments with ":id".
func AnonymizePath(path string) string {
	segments := strings.Split(path, "/")
	for i, s := range segments {
		if uuidSegment.MatchString(s) {
			segments[i] = ":id"
		}
	}
	return strings.Join(segments, "/")
}

// TruncateHeader caps a header value at maxLoggedHeaderLen runes. The cut
// lands on a rune boundary so multi-byte sequences survive intact.
func TruncateHeader(v string) string {
	if len(v) <= maxLoggedHeaderLen {
		return v
	}
	runes := []rune(v)
	if len(runes) <= maxLoggedHeaderLen {
		return v
	}
	return string(runes[:maxLoggedHeaderLen]) + "..."
}
