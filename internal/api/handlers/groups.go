package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gookit/validate"

	"changrep/internal/format"
	"changrep/internal/service"
)

type saveGroupRequest struct {
	Pattern string `json:"pattern" validate:"required" message:"pattern is required"`
	Flags   string `json:"flags"`
}

// ListGroups returns the caller's saved groups.
func (s *Server) ListGroups(w http.ResponseWriter, r *http.Request) {
	userID, ok := service.UserFromContext(r.Context())
	if !ok {
		writeErr(w, http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized")
		return
	}
	groups, err := s.App.ListGroups(r.Context(), userID)
	if err != nil {
		if mapServiceErr(w, err) {
			return
		}
		writeErr(w, http.StatusInternalServerError, "INTERNAL", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"groups": groups})
}

// SaveGroup stores a pattern under the path name, overwriting any previous
// pattern saved under it.
func (s *Server) SaveGroup(w http.ResponseWriter, r *http.Request) {
	userID, ok := service.UserFromContext(r.Context())
	if !ok {
		writeErr(w, http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized")
		return
	}
	name := chi.URLParam(r, "name")

	var req saveGroupRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeErr(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid request body")
		return
	}
	if v := validate.Struct(&req); !v.Validate() {
		writeErr(w, http.StatusBadRequest, "VALIDATION_ERROR", v.Errors.One())
		return
	}

	group, err := s.App.SaveGroup(r.Context(), userID, name, req.Pattern, req.Flags)
	if err != nil {
		if mapServiceErr(w, err) {
			return
		}
		writeErr(w, http.StatusInternalServerError, "INTERNAL", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"group": group})
}

// DeleteGroup removes one saved group.
func (s *Server) DeleteGroup(w http.ResponseWriter, r *http.Request) {
	userID, ok := service.UserFromContext(r.Context())
	if !ok {
		writeErr(w, http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized")
		return
	}
	name := chi.URLParam(r, "name")
	if err := s.App.DeleteGroup(r.Context(), userID, name); err != nil {
		if mapServiceErr(w, err) {
			return
		}
		writeErr(w, http.StatusInternalServerError, "INTERNAL", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": true})
}

// ApplyGroup runs a saved group's pattern and returns the matches.
func (s *Server) ApplyGroup(w http.ResponseWriter, r *http.Request) {
	userID, ok := service.UserFromContext(r.Context())
	if !ok {
		writeErr(w, http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized")
		return
	}
	name := chi.URLParam(r, "name")
	res, err := s.App.ApplyGroup(r.Context(), userID, name)
	if err != nil {
		if mapServiceErr(w, err) {
			return
		}
		writeErr(w, http.StatusInternalServerError, "INTERNAL", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"result":  res,
		"display": format.Display(res, s.Config.Display.Limit),
	})
}
