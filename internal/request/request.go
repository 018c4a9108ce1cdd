package request

import (
	"net/http"
	"strings"
)

// UnknownClient is the identifier used when no client IP header is present.
// Every such request shares this one rate limit bucket.
const UnknownClient = "unknown"

// ClientIP extracts the client identifier from proxy headers, in order:
// CF-Connecting-IP, the first X-Forwarded-For value, X-Real-IP.
// RemoteAddr is deliberately not consulted; without headers the result is UnknownClient.
func ClientIP(r *http.Request) string {
	if cf := strings.TrimSpace(r.Header.Get("CF-Connecting-IP")); cf != "" {
		return cf
	}
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}
	return UnknownClient
}
