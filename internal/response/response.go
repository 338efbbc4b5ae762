// Package response writes the uniform JSON envelope every endpoint returns:
//
//	{"success": bool, "status": int, "message": string?, "data": object?}
//
// Each helper pins its own HTTP status; callers pick the helper, never the code.
package response

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// Envelope is the body shape shared by all responses.
type Envelope struct {
	Success bool   `json:"success"`
	Status  int    `json:"status"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// InternalErrorMessage is the only text a client sees for a 500.
const InternalErrorMessage = "Internal server error"

// UnauthenticatedMessage is the body message of every 401 issued by the
// token verifier.
const UnauthenticatedMessage = "Unauthenticated"

// JSON writes payload with the given status. A payload that cannot be
// encoded is answered with the generic 500 envelope and the encode error is
// returned for the caller to log.
func JSON(w http.ResponseWriter, status int, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		fail(w, http.StatusInternalServerError, InternalErrorMessage)
		return fmt.Errorf("encode response: %w", err)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err = w.Write(append(body, '\n'))
	return err
}

// fail writes an envelope carrying only a status and message, which always
// encodes.
func fail(w http.ResponseWriter, status int, msg string) {
	body, _ := json.Marshal(Envelope{Success: false, Status: status, Message: msg})
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))
}

// Success answers 200 with data. See JSON for the error.
func Success(w http.ResponseWriter, msg string, data any) error {
	return JSON(w, http.StatusOK, Envelope{Success: true, Status: http.StatusOK, Message: msg, Data: data})
}

// Error answers 500. err is deliberately not serialized; log it at the call site.
func Error(w http.ResponseWriter, err error) {
	fail(w, http.StatusInternalServerError, InternalErrorMessage)
}

// Warning answers 400.
func Warning(w http.ResponseWriter, msg string) {
	fail(w, http.StatusBadRequest, msg)
}

// Unauthenticated answers 401 with the fixed verifier message.
func Unauthenticated(w http.ResponseWriter) {
	fail(w, http.StatusUnauthorized, UnauthenticatedMessage)
}

// Unauthorized answers 401 with a caller-supplied message.
func Unauthorized(w http.ResponseWriter, msg string) {
	fail(w, http.StatusUnauthorized, msg)
}

// NotFound answers 404.
func NotFound(w http.ResponseWriter, msg string) {
	fail(w, http.StatusNotFound, msg)
}

// Conflict answers 409.
func Conflict(w http.ResponseWriter, msg string) {
	fail(w, http.StatusConflict, msg)
}

// MethodNotAllowed answers 405.
func MethodNotAllowed(w http.ResponseWriter) {
	fail(w, http.StatusMethodNotAllowed, "Method not allowed")
}
