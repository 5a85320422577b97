package auth

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/sasilab/medbot/internal/domain/policy"
)

// sessionContextKey is the echo context key the middleware stores the
// verified session under.
const sessionContextKey = "medbot_session"

// Middleware returns echo middleware that verifies the Bearer token and
// stores the session on the request context.
func Middleware(issuer *TokenIssuer) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
			}

			session, err := issuer.Verify(token)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid session token")
			}

			c.Set(sessionContextKey, session)
			return next(c)
		}
	}
}

// SessionFromContext returns the session stored by Middleware.
func SessionFromContext(c echo.Context) (Session, bool) {
	session, ok := c.Get(sessionContextKey).(Session)
	return session, ok
}

// RequireRole returns middleware that admits only the given roles.
func RequireRole(roles ...policy.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			session, ok := SessionFromContext(c)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "no session")
			}
			for _, r := range roles {
				if session.Role == r {
					return next(c)
				}
			}
			return echo.NewHTTPError(http.StatusForbidden, "insufficient role")
		}
	}
}
