package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/vamoapp/vamo/internal/reward"
	"github.com/vamoapp/vamo/pkg/models"
	"github.com/vamoapp/vamo/pkg/repository"
)

type RedemptionsHandler struct {
	service     *reward.Service
	redemptions repository.RedemptionRepo
}

func NewRedemptionsHandler(s *reward.Service, rr repository.RedemptionRepo) *RedemptionsHandler {
	return &RedemptionsHandler{service: s, redemptions: rr}
}

type redeemRequest struct {
	Amount     int64  `json:"amount"`
	RewardType string `json:"rewardType"`
}

type redeemResponse struct {
	Success    bool               `json:"success"`
	Redemption *models.Redemption `json:"redemption"`
	NewBalance int64              `json:"newBalance"`
}

func (h *RedemptionsHandler) Redeem(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req redeemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	if req.Amount <= 0 {
		http.Error(w, "missing fields", http.StatusBadRequest)
		return
	}

	res, err := h.service.Redeem(r.Context(), uid, req.Amount, req.RewardType)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, redeemResponse{
		Success:    true,
		Redemption: res.Redemption,
		NewBalance: res.NewBalance,
	}, http.StatusCreated)
}

func (h *RedemptionsHandler) List(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	limit, offset := pagination(r)
	items, err := h.redemptions.ListRedemptions(r.Context(), uid, limit, offset)
	if err != nil {
		http.Error(w, "failed to list redemptions", http.StatusInternalServerError)
		return
	}
	if items == nil {
		items = []models.Redemption{}
	}

	writeJSON(w, map[string]any{
		"limit":  limit,
		"offset": offset,
		"items":  items,
	}, http.StatusOK)
}

// pagination reads limit/offset query params with the usual bounds.
func pagination(r *http.Request) (limit, offset int) {
	q := r.URL.Query()
	limit = 50
	if l := q.Get("limit"); l != "" {
		if v, err := strconv.Atoi(l); err == nil && v > 0 && v <= 500 {
			limit = v
		}
	}
	if o := q.Get("offset"); o != "" {
		if v, err := strconv.Atoi(o); err == nil && v >= 0 {
			offset = v
		}
	}
	return limit, offset
}
