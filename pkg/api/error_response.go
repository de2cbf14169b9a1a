package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/adfharrison1/go-blobdb/pkg/domain"
)

var errNotAnObject = errors.New("request body must be a JSON object")

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

// writeError maps a provider error to its status code
func writeError(w http.ResponseWriter, err error) {
	WriteJSONError(w, domain.StatusOf(err), err.Error())
}

func writeJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(v)
}

// decodeRecord reads a JSON object from the request body
func decodeRecord(r *http.Request) (domain.Record, error) {
	var record domain.Record
	if err := json.NewDecoder(r.Body).Decode(&record); err != nil {
		return nil, err
	}
	if record == nil {
		return nil, errNotAnObject
	}
	return record, nil
}
