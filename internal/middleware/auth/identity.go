package auth

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Identity headers set by the upstream gateway
const (
	HeaderUserID     = "x-user-id"
	HeaderUserEmail  = "x-user-email"
	HeaderAdminEmail = "x-admin-email"
	HeaderCronSecret = "x-cron-secret"
)

// Caller is the end user identified by the gateway headers
type Caller struct {
	UserID string
	Email  string
}

// AdminAuthorizer decides whether an email belongs to an administrator
type AdminAuthorizer interface {
	IsAdmin(email string) bool
}

// contextKey is used for storing identities in context
type contextKey string

const (
	callerContextKey contextKey = "caller"
	adminContextKey  contextKey = "admin_email"
)

// RequireUser rejects requests without x-user-id with 401 and message
func RequireUser(logger *zap.Logger, message string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userID := strings.TrimSpace(c.Request().Header.Get(HeaderUserID))
			if userID == "" {
				logger.Debug("Missing user identity header",
					zap.String("path", c.Path()))
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": message})
			}

			setCaller(c, &Caller{
				UserID: userID,
				Email:  strings.TrimSpace(c.Request().Header.Get(HeaderUserEmail)),
			})
			return next(c)
		}
	}
}

// RequireUserEmail rejects requests without x-user-email with 400. The user id header is optional here.
func RequireUserEmail(logger *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			email := strings.TrimSpace(c.Request().Header.Get(HeaderUserEmail))
			if email == "" {
				logger.Debug("Missing user email header",
					zap.String("path", c.Path()))
				return c.JSON(http.StatusBadRequest, echo.Map{"error": "Email required"})
			}

			setCaller(c, &Caller{
				UserID: strings.TrimSpace(c.Request().Header.Get(HeaderUserID)),
				Email:  email,
			})
			return next(c)
		}
	}
}

func setCaller(c echo.Context, caller *Caller) {
	ctx := context.WithValue(c.Request().Context(), callerContextKey, caller)
	c.SetRequest(c.Request().WithContext(ctx))
	if caller.UserID != "" {
		c.Set("user_id", caller.UserID)
	}
}

// RequireAdmin allows only allowlisted x-admin-email values: missing → 401, not allowed → 403
func RequireAdmin(authorizer AdminAuthorizer, logger *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			email := strings.TrimSpace(c.Request().Header.Get(HeaderAdminEmail))
			if email == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Unauthorized"})
			}
			if !authorizer.IsAdmin(email) {
				logger.Warn("Rejected admin request",
					zap.String("admin_email", email),
					zap.String("path", c.Path()))
				return c.JSON(http.StatusForbidden, echo.Map{"error": "Forbidden: not an admin"})
			}

			ctx := context.WithValue(c.Request().Context(), adminContextKey, email)
			c.SetRequest(c.Request().WithContext(ctx))
			c.Set("admin_email", email)

			return next(c)
		}
	}
}

// RequireCronSecret compares x-cron-secret to secret in constant time. An empty secret rejects everything.
func RequireCronSecret(secret string, logger *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			given := c.Request().Header.Get(HeaderCronSecret)
			if secret == "" || subtle.ConstantTimeCompare([]byte(given), []byte(secret)) != 1 {
				logger.Warn("Rejected cron request",
					zap.String("path", c.Path()),
					zap.String("remote_ip", c.RealIP()))
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Unauthorized"})
			}
			return next(c)
		}
	}
}

// CallerFromContext returns the caller stored by RequireUser or RequireUserEmail
func CallerFromContext(c echo.Context) (*Caller, bool) {
	caller, ok := c.Request().Context().Value(callerContextKey).(*Caller)
	return caller, ok && caller != nil
}

// AdminEmailFromContext returns the administrator email stored by RequireAdmin
func AdminEmailFromContext(c echo.Context) string {
	email, _ := c.Request().Context().Value(adminContextKey).(string)
	return email
}
