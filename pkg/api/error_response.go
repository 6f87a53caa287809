package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/driftdb/driftdb/pkg/query"
)

// ErrorResponse represents a standard JSON error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// WriteJSONError writes a JSON error response with the given status code and message
func WriteJSONError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
		Code:    statusCode,
	}

	json.NewEncoder(w).Encode(response)
}

// WriteQueryError maps a compilation error onto an HTTP response. Query
// errors are the caller's fault and map to 400 with their kind; anything
// else is a 500.
func WriteQueryError(w http.ResponseWriter, err error) {
	var qe *query.Error
	if errors.As(err, &qe) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(ErrorResponse{
			Error:   qe.Code.String(),
			Message: qe.Msg,
			Code:    http.StatusBadRequest,
		})
		return
	}
	WriteJSONError(w, http.StatusInternalServerError, err.Error())
}
