package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/nerrad567/iot-sensor-simulator/internal/preset"
	"github.com/nerrad567/iot-sensor-simulator/internal/simulation"
)

// Error is the body of every non-2xx response. Success is always false so
// clients can branch on the same field as for actionResponse.
type Error struct {
	Success bool   `json:"success"`
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes carried in Error.Code.
const (
	ErrCodeBadRequest = "bad_request"
	ErrCodeValidation = "validation_error"
	ErrCodeForbidden  = "forbidden"
	ErrCodeNotFound   = "not_found"
	ErrCodeConflict   = "conflict"
	ErrCodeInternal   = "internal_error"
)

// domainErrors maps sentinel errors from the engine and preset store onto
// HTTP. The first match wins.
var domainErrors = []struct {
	target error
	status int
	code   string
}{
	{simulation.ErrInvalidSettings, http.StatusBadRequest, ErrCodeValidation},
	{preset.ErrInvalid, http.StatusBadRequest, ErrCodeValidation},
	{preset.ErrExists, http.StatusConflict, ErrCodeConflict},
	{preset.ErrReadOnly, http.StatusForbidden, ErrCodeForbidden},
	{preset.ErrNotFound, http.StatusNotFound, ErrCodeNotFound},
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	//nolint:errcheck // the client may already have gone away
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, Error{Status: status, Code: code, Message: message})
}

func writeBadRequest(w http.ResponseWriter, message string) {
	writeError(w, http.StatusBadRequest, ErrCodeBadRequest, message)
}

func writeNotFound(w http.ResponseWriter, message string) {
	writeError(w, http.StatusNotFound, ErrCodeNotFound, message)
}

func writeInternalError(w http.ResponseWriter, message string) {
	writeError(w, http.StatusInternalServerError, ErrCodeInternal, message)
}

// writeDomainError reports err with the status from domainErrors. Unknown
// errors are logged and hidden behind a generic 500.
func (s *Server) writeDomainError(w http.ResponseWriter, err error) {
	for _, d := range domainErrors {
		if errors.Is(err, d.target) {
			writeError(w, d.status, d.code, err.Error())
			return
		}
	}
	s.logger.Error("request failed", "error", err)
	writeInternalError(w, "internal server error")
}

// decodeJSON decodes the request body into v, answering 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeBadRequest(w, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}
