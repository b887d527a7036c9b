package handlers

import (
	"encoding/json"
	"net/http"
)

type errorResponse struct {
	Error interface{} `json:"error"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError sends {"error": err}; err is a message string or a field-error object.
func writeError(w http.ResponseWriter, status int, err interface{}) {
	writeJSON(w, status, errorResponse{Error: err})
}

func writeInternalError(w http.ResponseWriter) {
	writeError(w, http.StatusInternalServerError, "Internal Server Error")
}
