package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/vamoapp/vamo/internal/reward"
)

type RewardsHandler struct {
	service *reward.Service
}

func NewRewardsHandler(s *reward.Service) *RewardsHandler {
	return &RewardsHandler{service: s}
}

type awardRequest struct {
	EventType      string `json:"eventType"`
	IdempotencyKey string `json:"idempotencyKey"`
	ProjectID      *int64 `json:"projectId,omitempty"`
}

func (h *RewardsHandler) Award(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req awardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	req.EventType = strings.TrimSpace(req.EventType)
	req.IdempotencyKey = strings.TrimSpace(req.IdempotencyKey)
	if req.EventType == "" || req.IdempotencyKey == "" {
		http.Error(w, "missing fields", http.StatusBadRequest)
		return
	}

	res, err := h.service.Award(r.Context(), uid, req.ProjectID, req.EventType, req.IdempotencyKey)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, res, http.StatusOK)
}
