package handler

import (
	"encoding/json"
	"net/http"
)

func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			http.Error(w, "failed to encode response", http.StatusInternalServerError)
		}
	}
}

// ErrorDetails is the body of every failed response.
type ErrorDetails struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	Details    string `json:"details"`
}

func Error(w http.ResponseWriter, status int, message string, details string) {
	JSON(w, status, ErrorDetails{
		StatusCode: status,
		Message:    message,
		Details:    details,
	})
}
