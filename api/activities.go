package api

import (
	"net/http"

	"github.com/vamoapp/vamo/pkg/models"
	"github.com/vamoapp/vamo/pkg/repository"
)

type ActivitiesHandler struct {
	activityRepo repository.ActivityRepo
}

func NewActivitiesHandler(ar repository.ActivityRepo) *ActivitiesHandler {
	return &ActivitiesHandler{activityRepo: ar}
}

// ListActivities returns the caller's activity feed, newest first. Activity
// rows are written by the turn processor and reward services; there is no
// direct create endpoint.
func (h *ActivitiesHandler) ListActivities(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	limit, offset := pagination(r)

	acts, err := h.activityRepo.ListActivities(r.Context(), uid, limit, offset)
	if err != nil {
		http.Error(w, "failed to list activities", http.StatusInternalServerError)
		return
	}

	total, err := h.activityRepo.CountActivities(r.Context(), uid)
	if err != nil {
		http.Error(w, "failed to count activities", http.StatusInternalServerError)
		return
	}

	if acts == nil {
		acts = []models.ActivityEvent{}
	}

	resp := map[string]any{
		"total":  total,
		"limit":  limit,
		"offset": offset,
		"items":  acts,
	}

	writeJSON(w, resp, http.StatusOK)
}
