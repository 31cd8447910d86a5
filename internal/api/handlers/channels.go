package handlers

import (
	"net/http"

	"github.com/gookit/validate"

	"changrep/internal/format"
)

type grepRequest struct {
	Pattern string `json:"pattern" validate:"required" message:"pattern is required"`
	Flags   string `json:"flags"`
	// Limit overrides the configured display cap for this request only.
	// Zero means the server default.
	Limit int `json:"limit" validate:"min:0|max:100" message:"limit must be between 0 and 100"`
}

// ListChannels returns every channel visible to the bot credential.
func (s *Server) ListChannels(w http.ResponseWriter, r *http.Request) {
	channels, err := s.App.ListChannels(r.Context())
	if err != nil {
		if mapServiceErr(w, err) {
			return
		}
		writeErr(w, http.StatusInternalServerError, "INTERNAL", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"channels": channels,
		"total":    len(channels),
	})
}

// GrepChannels runs a pattern over the full channel list and returns both
// the raw matches and the capped display rendering.
func (s *Server) GrepChannels(w http.ResponseWriter, r *http.Request) {
	var req grepRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeErr(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid request body")
		return
	}
	if v := validate.Struct(&req); !v.Validate() {
		writeErr(w, http.StatusBadRequest, "VALIDATION_ERROR", v.Errors.One())
		return
	}

	res, err := s.App.GroupByRegex(r.Context(), req.Pattern, req.Flags)
	if err != nil {
		if mapServiceErr(w, err) {
			return
		}
		writeErr(w, http.StatusInternalServerError, "INTERNAL", err.Error())
		return
	}
	limit := req.Limit
	if limit == 0 {
		limit = s.Config.Display.Limit
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"result":  res,
		"display": format.Display(res, limit),
	})
}
