package response

import (
	"encoding/json"
	"net/http"

	"foodshare-connect/pkg/apperror"
)

// Body is a free-form JSON payload merged into the response envelope.
type Body map[string]interface{}

func JSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// Success renders {"success": true, "message": ..., <extra fields>}.
func Success(w http.ResponseWriter, statusCode int, message string, extra Body) {
	resp := Body{
		"success": true,
		"message": message,
	}
	for k, v := range extra {
		resp[k] = v
	}
	JSON(w, statusCode, resp)
}

// Error normalizes err and renders {"success": false, "message": ...}.
// Raw error detail and stack traces never reach the caller.
func Error(w http.ResponseWriter, err error) {
	appErr := apperror.Normalize(err)
	JSON(w, appErr.StatusCode, Body{
		"success": false,
		"message": appErr.Message,
	})
}
