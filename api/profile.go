package api

import (
	"net/http"

	"github.com/vamoapp/vamo/pkg/models"
	"github.com/vamoapp/vamo/pkg/repository"
)

type ProfileHandler struct {
	profileRepo repository.ProfileRepo
	ledgerRepo  repository.LedgerRepo
}

func NewProfileHandler(pr repository.ProfileRepo, lr repository.LedgerRepo) *ProfileHandler {
	return &ProfileHandler{profileRepo: pr, ledgerRepo: lr}
}

func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	profile, err := h.profileRepo.GetByUserID(r.Context(), uid)
	if err != nil {
		http.Error(w, "failed to load profile", http.StatusInternalServerError)
		return
	}
	if profile == nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	writeJSON(w, profile, http.StatusOK)
}

// ListLedger exposes the caller's reward history, newest first.
func (h *ProfileHandler) ListLedger(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	limit, offset := pagination(r)
	items, err := h.ledgerRepo.ListLedgerByUser(r.Context(), uid, limit, offset)
	if err != nil {
		http.Error(w, "failed to list ledger", http.StatusInternalServerError)
		return
	}
	if items == nil {
		items = []models.RewardLedgerEntry{}
	}

	writeJSON(w, map[string]any{
		"limit":  limit,
		"offset": offset,
		"items":  items,
	}, http.StatusOK)
}
