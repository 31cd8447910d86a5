package middleware

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	sloghttp "github.com/samber/slog-http"
)

// HeaderRequestID is echoed on every response so callers can quote it when
// reporting a problem.
const HeaderRequestID = "X-Request-Id"

// RequestID assigns each request an id, reusing the caller's when it sent
// one. Mount inside the slog-http middleware so the id lands on the access
// log line as well.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(HeaderRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(HeaderRequestID, id)
		sloghttp.AddCustomAttributes(r, slog.String("request_id", id))
		next.ServeHTTP(w, r)
	})
}
