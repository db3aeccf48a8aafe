package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/wheelibin/homesim/internal/engine"
)

const (
	errCodeInvalidArgument  = "invalid_argument"
	errCodeNotFound         = "not_found"
	errCodeInternal         = "internal_error"
	errCodeMethodNotAllowed = "method_not_allowed"
)

type errorResponse struct {
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		//nolint:errcheck // the client may have gone away
		json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, errorResponse{Success: false, Code: code, Message: message})
}

// writeEngineError maps the engine's error taxonomy onto http statuses.
func (s *Server) writeEngineError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, engine.ErrNotFound):
		writeError(w, http.StatusNotFound, errCodeNotFound, err.Error())
	case errors.Is(err, engine.ErrInvalidArgument):
		writeError(w, http.StatusBadRequest, errCodeInvalidArgument, err.Error())
	default:
		s.logger.Error("request failed", "path", r.URL.Path, "err", err, "request_id", requestID(r))
		writeError(w, http.StatusInternalServerError, errCodeInternal, "internal server error")
	}
}
