package handlers

import (
	"io"
	"net/http"
	"net/url"
	"time"

	json "github.com/goccy/go-json"

	"changrep/internal/slack"
)

// maxSlashBodyBytes bounds the form payload the platform can send.
const maxSlashBodyBytes = 1 << 20

// SlashCommand serves the platform's slash webhook. The request is
// authenticated by its signature rather than an API key, and the reply
// rides in the HTTP response body as a plain message, not the envelope.
func (s *Server) SlashCommand(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxSlashBodyBytes))
	if err != nil {
		writeErr(w, http.StatusBadRequest, "VALIDATION_ERROR", "unreadable body")
		return
	}
	if err := slack.VerifySignature(
		s.Config.Slack.SigningSecret,
		r.Header.Get(slack.HeaderTimestamp),
		r.Header.Get(slack.HeaderSignature),
		body,
		time.Now(),
	); err != nil {
		writeErr(w, http.StatusUnauthorized, "BAD_SIGNATURE", "signature verification failed")
		return
	}

	form, err := url.ParseQuery(string(body))
	if err != nil {
		writeErr(w, http.StatusBadRequest, "VALIDATION_ERROR", "malformed form payload")
		return
	}
	userID := form.Get("user_id")
	if userID == "" {
		writeErr(w, http.StatusBadRequest, "VALIDATION_ERROR", "user_id is required")
		return
	}

	msg := s.Commander.Execute(r.Context(), userID, form.Get("text"))

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(msg)
}
