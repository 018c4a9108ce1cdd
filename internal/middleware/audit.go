package middleware

import (
	"net/http"

	logpkg "github.com/benvon/portfolio-api/internal/logger"
	"github.com/benvon/portfolio-api/internal/request"
	"go.uber.org/zap"
)

// Audit logs security-related responses: rejected requests and rate limit violations.
func Audit(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(wrapped, r)

			var event string
			switch wrapped.statusCode {
			case http.StatusTooManyRequests:
				event = "rate_limit_violation"
			case http.StatusForbidden, http.StatusRequestEntityTooLarge:
				event = "security_event"
			default:
				return
			}
			logger.Warn(event,
				zap.Int("status_code", wrapped.statusCode),
				zap.String("method", r.Method),
				zap.String("path", logpkg.SanitizePath(r.URL.Path)),
				zap.String("ip", logpkg.SanitizeIdentifier(request.ClientIP(r))),
			)
		})
	}
}
