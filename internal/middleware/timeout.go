package middleware

import (
	"encoding/json"
	"net/http"
	"time"
)

// DefaultRequestTimeout bounds the GitHub and Turnstile proxies, whose
// upstream clients time out well before it.
const DefaultRequestTimeout = 20 * time.Second

// timeoutBody is the ErrorResponse sent when a handler overruns.
var timeoutBody = func() string {
	b, _ := json.Marshal(ErrorResponse{Error: "Service Unavailable", Details: "Request timed out"})
	return string(b)
}()

// Timeout bounds handler run time; on expiry the client gets a JSON 503.
// http.TimeoutHandler cannot set headers on that reply, so Content-Type is
// set up front and overwritten by handlers that finish in time.
func Timeout(timeout time.Duration) func(http.Handler) http.Handler {
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}

	return func(next http.Handler) http.Handler {
		th := http.TimeoutHandler(next, timeout, timeoutBody)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			th.ServeHTTP(w, r)
		})
	}
}
