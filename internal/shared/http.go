package shared

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// WriteJSON serialises v to the response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Default().Error("write json response", slog.Any("error", err))
	}
}

// WriteError emits the standard error envelope with a user-safe message.
func WriteError(w http.ResponseWriter, status int, err error) {
	WriteJSON(w, status, map[string]string{"error": UserSafeMessage(err)})
}
