package middleware

import (
	"net/http"
	"strings"

	json "github.com/goccy/go-json"

	"changrep/internal/service"
)

// RequireAuth resolves the caller's API key and stores the resulting user id
// in the request context. With auth disabled the service hands back the
// local principal, so the chain behaves the same either way.
func RequireAuth(app *service.App) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractBearer(r.Header.Get("Authorization"))
			if token == "" {
				token = strings.TrimSpace(r.URL.Query().Get("api_key"))
			}
			userID, err := app.Authenticate(r.Context(), token)
			if err != nil {
				writeErr(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid API key")
				return
			}
			next.ServeHTTP(w, r.WithContext(service.WithUser(r.Context(), userID)))
		})
	}
}

func extractBearer(h string) string {
	h = strings.TrimSpace(h)
	if h == "" {
		return ""
	}
	const prefix = "Bearer "
	if strings.HasPrefix(strings.ToLower(h), strings.ToLower(prefix)) {
		return strings.TrimSpace(h[len(prefix):])
	}
	return h
}

// writeErr mirrors the handlers package envelope. Local copy keeps the
// middleware package free of an import cycle.
func writeErr(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"ok":    false,
		"data":  nil,
		"error": map[string]any{"code": code, "message": message},
	})
}
