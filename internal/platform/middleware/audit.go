package middleware

import (
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/dpi/dpi/internal/platform/auth"
)

// AuditEntry captures who accessed what, when, and from where.
type AuditEntry struct {
	UserID    string
	Role      string
	Path      string
	Method    string
	Action    string // read, create, update, delete
	IPAddress string
	RequestID string
	Status    int
	Timestamp time.Time
}

// AuditRecorder persists audit entries. Tests provide a mock; the default
// falls back to structured zerolog output.
type AuditRecorder interface {
	RecordAccess(entry AuditEntry) error
}

// AuditRecorderFunc is a function adapter for AuditRecorder.
type AuditRecorderFunc func(entry AuditEntry) error

func (f AuditRecorderFunc) RecordAccess(entry AuditEntry) error {
	return f(entry)
}

// Audit logs the caller's identity and role for every clinical route. The
// evaluators themselves never mutate state; this middleware is the only place
// the role is written out.
func Audit(logger zerolog.Logger, recorders ...AuditRecorder) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)

			path := c.Request().URL.Path
			if !strings.HasPrefix(path, "/api/v1/") {
				return err
			}

			ctx := c.Request().Context()
			rid, _ := c.Get("request_id").(string)
			entry := AuditEntry{
				UserID:    auth.UserIDFromContext(ctx).String(),
				Role:      auth.RoleFromContext(ctx).String(),
				Path:      path,
				Method:    c.Request().Method,
				Action:    actionForMethod(c.Request().Method),
				IPAddress: c.RealIP(),
				RequestID: rid,
				Status:    c.Response().Status,
				Timestamp: time.Now().UTC(),
			}

			if len(recorders) > 0 {
				for _, r := range recorders {
					if recErr := r.RecordAccess(entry); recErr != nil {
						logger.Error().Err(recErr).Msg("audit recorder failed")
					}
				}
				return err
			}

			logger.Info().
				Str("user_id", entry.UserID).
				Str("role", entry.Role).
				Str("method", entry.Method).
				Str("path", entry.Path).
				Str("action", entry.Action).
				Int("status", entry.Status).
				Str("remote_ip", entry.IPAddress).
				Str("request_id", entry.RequestID).
				Msg("audit")

			return err
		}
	}
}

func actionForMethod(method string) string {
	switch method {
	case "GET":
		return "read"
	case "POST":
		return "create"
	case "PUT", "PATCH":
		return "update"
	case "DELETE":
		return "delete"
	}
	return "other"
}
