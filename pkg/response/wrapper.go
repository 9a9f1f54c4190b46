package response

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"
)

// Wrapper is the uniform success/error envelope. Exactly one of Data and
// Error is set.
type Wrapper[T any] struct {
	StatusCode int        `json:"statusCode,omitempty"`
	TimeStamp  *time.Time `json:"timeStamp,omitempty"`
	Data       *T         `json:"data,omitempty"`
	Error      *T         `json:"error,omitempty"`
}

// OK wraps data with a 200 status.
func OK[T any](data T) Wrapper[T] {
	return Wrap(http.StatusOK, data)
}

// Wrap wraps data with the given status.
func Wrap[T any](status int, data T) Wrapper[T] {
	now := time.Now().UTC()
	return Wrapper[T]{
		StatusCode: status,
		TimeStamp:  &now,
		Data:       &data,
	}
}

// ErrorOf wraps an error body.
func ErrorOf[T any](err T) Wrapper[T] {
	return Wrapper[T]{Error: &err}
}

// WriteJSON writes payload as JSON with the given status.
func WriteJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}
