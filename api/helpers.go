package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"log/slog"

	"github.com/vamoapp/vamo/internal/reward"
	"github.com/vamoapp/vamo/internal/turn"
)

func writeJSON(w http.ResponseWriter, v any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("encode response", slog.Any("err", err))
	}
}

// writeDomainError maps service-layer sentinels onto HTTP statuses. Anything
// unrecognized is a 500 with a generic body; details stay in the logs.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, turn.ErrNotFound), errors.Is(err, reward.ErrProfileNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, turn.ErrRateLimited):
		http.Error(w, "rate limit exceeded, try again later", http.StatusTooManyRequests)
	case errors.Is(err, turn.ErrValidation), errors.Is(err, reward.ErrBelowMinimum), errors.Is(err, reward.ErrInsufficientBalance):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		logger.Error("request failed", slog.Any("err", err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

// userID extracts the authenticated user id injected by the JWT middleware.
func userID(r *http.Request) (int64, bool) {
	v := r.Context().Value(CtxUserID)
	id, ok := v.(int64)
	return id, ok && id > 0
}
