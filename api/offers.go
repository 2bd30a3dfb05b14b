package api

import (
	"encoding/json"
	"net/http"

	"github.com/vamoapp/vamo/internal/offer"
	"github.com/vamoapp/vamo/pkg/models"
	"github.com/vamoapp/vamo/pkg/repository"
)

type OffersHandler struct {
	generator *offer.Generator
	offers    repository.OfferRepo
	projects  repository.ProjectRepo
}

func NewOffersHandler(g *offer.Generator, or repository.OfferRepo, pr repository.ProjectRepo) *OffersHandler {
	return &OffersHandler{generator: g, offers: or, projects: pr}
}

type generateOfferRequest struct {
	ProjectID int64 `json:"projectId"`
}

type generateOfferResponse struct {
	Offer       *models.Offer `json:"offer"`
	Reasoning   string        `json:"reasoning"`
	SignalsUsed []string      `json:"signals_used"`
	Fallback    bool          `json:"fallback"`
}

func (h *OffersHandler) Generate(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req generateOfferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	if req.ProjectID <= 0 {
		http.Error(w, "missing fields", http.StatusBadRequest)
		return
	}

	o, proposal, err := h.generator.Generate(r.Context(), uid, req.ProjectID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, generateOfferResponse{
		Offer:       o,
		Reasoning:   proposal.Reasoning,
		SignalsUsed: proposal.SignalsUsed,
		Fallback:    proposal.Fallback,
	}, http.StatusCreated)
}

func (h *OffersHandler) ListByProject(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	projectID, err := pathID(r, "id")
	if err != nil {
		http.Error(w, "invalid project id", http.StatusBadRequest)
		return
	}

	project, err := h.projects.GetProject(r.Context(), projectID)
	if err != nil {
		http.Error(w, "failed to load project", http.StatusInternalServerError)
		return
	}
	if project == nil || project.UserID != uid {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	items, err := h.offers.ListOffersByProject(r.Context(), projectID)
	if err != nil {
		http.Error(w, "failed to list offers", http.StatusInternalServerError)
		return
	}
	if items == nil {
		items = []models.Offer{}
	}

	writeJSON(w, map[string]any{"items": items}, http.StatusOK)
}
