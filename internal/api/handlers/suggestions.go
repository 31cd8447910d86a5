package handlers

import "net/http"

// ListSuggestions returns the static pattern catalog.
func (s *Server) ListSuggestions(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"suggestions": s.App.ListSuggestions(),
	})
}
