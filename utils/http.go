package utils

import (
	"encoding/json"
	"net/http"

	"github.com/awantoch/portflow/constants"
)

// HTTPErrorResponse is the body written by WriteHTTPError.
type HTTPErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code"`
}

// WriteHTTPError writes a standardized JSON error response.
func WriteHTTPError(w http.ResponseWriter, message string, code int) {
	w.Header().Set(constants.HeaderContentType, constants.ContentTypeJSON)
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(HTTPErrorResponse{
		Error:   http.StatusText(code),
		Message: message,
		Code:    code,
	})
}

// WriteHTTPJSON writes v as a JSON response.
func WriteHTTPJSON(w http.ResponseWriter, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		WriteHTTPError(w, "Failed to encode response", http.StatusInternalServerError)
		return err
	}
	w.Header().Set(constants.HeaderContentType, constants.ContentTypeJSON)
	_, err = w.Write(data)
	return err
}
