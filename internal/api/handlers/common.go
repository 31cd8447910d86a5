package handlers

import (
	"errors"
	"net/http"

	json "github.com/goccy/go-json"

	"changrep/internal/service"
)

type envelope struct {
	OK    bool `json:"ok"`
	Data  any  `json:"data"`
	Error any  `json:"error"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{
		OK:    status >= 200 && status < 300,
		Data:  data,
		Error: nil,
	})
}

func writeErr(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{
		OK:    false,
		Data:  nil,
		Error: apiError{Code: code, Message: message},
	})
}

// maxBodyBytes bounds any JSON request body.
const maxBodyBytes = 1 << 20

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func mapServiceErr(w http.ResponseWriter, err error) bool {
	switch {
	case errors.Is(err, service.ErrUnauthorized):
		writeErr(w, http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized")
		return true
	case errors.Is(err, service.ErrInvalidPattern):
		writeErr(w, http.StatusBadRequest, "INVALID_PATTERN", err.Error())
		return true
	case errors.Is(err, service.ErrInvalidGroupName):
		writeErr(w, http.StatusBadRequest, "INVALID_GROUP_NAME", err.Error())
		return true
	case errors.Is(err, service.ErrGroupNotFound):
		writeErr(w, http.StatusNotFound, "GROUP_NOT_FOUND", err.Error())
		return true
	case errors.Is(err, service.ErrGroupsDisabled):
		writeErr(w, http.StatusNotFound, "GROUPS_DISABLED", "saved groups are disabled on this server")
		return true
	case errors.Is(err, service.ErrSourceUnavailable):
		writeErr(w, http.StatusBadGateway, "SOURCE_UNAVAILABLE", "channel source unavailable")
		return true
	default:
		return false
	}
}
