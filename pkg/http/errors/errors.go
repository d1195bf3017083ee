package errors

import (
	"encoding/json"
	"net/http"
)

// ErrorResponse is the body of every non-2xx proxy response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
	Field string `json:"field,omitempty"`
}

// RespondError writes a JSON error body with the given status.
func RespondError(w http.ResponseWriter, status int, code, message string) {
	write(w, status, ErrorResponse{Error: message, Code: code})
}

// RespondMissingField writes a 400 naming the absent field.
func RespondMissingField(w http.ResponseWriter, field, message string) {
	write(w, http.StatusBadRequest, ErrorResponse{
		Error: message,
		Code:  ErrCodeMissingField,
		Field: field,
	})
}

// RespondUpstream writes a 500 whose message is prefixed by the operation that
// failed, e.g. "Failed to fetch questions: connection refused".
func RespondUpstream(w http.ResponseWriter, operation string, err error) {
	RespondError(w, http.StatusInternalServerError, ErrCodeUpstreamError, operation+": "+err.Error())
}

// RespondUnauthorized writes an unauthorized error response
func RespondUnauthorized(w http.ResponseWriter, code, message string) {
	RespondError(w, http.StatusUnauthorized, code, message)
}

// RespondBadRequest writes a bad request error response
func RespondBadRequest(w http.ResponseWriter, code, message string) {
	RespondError(w, http.StatusBadRequest, code, message)
}

// RespondNotFound writes a not found error response
func RespondNotFound(w http.ResponseWriter, message string) {
	RespondError(w, http.StatusNotFound, ErrCodeNotFound, message)
}

func write(w http.ResponseWriter, status int, body ErrorResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
