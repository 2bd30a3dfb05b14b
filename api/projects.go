package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/vamoapp/vamo/internal/reward"
	"github.com/vamoapp/vamo/pkg/models"
	"github.com/vamoapp/vamo/pkg/repository"
)

type ProjectsHandler struct {
	projects repository.ProjectRepo
	links    repository.LinkRepo
	rewards  *reward.Service
}

func NewProjectsHandler(pr repository.ProjectRepo, lr repository.LinkRepo, rs *reward.Service) *ProjectsHandler {
	return &ProjectsHandler{projects: pr, links: lr, rewards: rs}
}

type createProjectRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	URL         string `json:"url,omitempty"`
}

func (h *ProjectsHandler) Create(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req createProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		http.Error(w, "missing fields", http.StatusBadRequest)
		return
	}

	project := &models.Project{
		UserID:      uid,
		Name:        req.Name,
		Description: req.Description,
		URL:         req.URL,
	}
	id, err := h.projects.CreateProject(r.Context(), project)
	if err != nil {
		http.Error(w, "failed to create project", http.StatusInternalServerError)
		return
	}

	created, err := h.projects.GetProject(r.Context(), id)
	if err != nil || created == nil {
		http.Error(w, "failed to load project", http.StatusInternalServerError)
		return
	}

	writeJSON(w, created, http.StatusCreated)
}

func (h *ProjectsHandler) Get(w http.ResponseWriter, r *http.Request) {
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

	writeJSON(w, project, http.StatusOK)
}

func (h *ProjectsHandler) List(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	items, err := h.projects.ListProjectsByUser(r.Context(), uid)
	if err != nil {
		http.Error(w, "failed to list projects", http.StatusInternalServerError)
		return
	}
	if items == nil {
		items = []models.Project{}
	}

	writeJSON(w, map[string]any{"items": items}, http.StatusOK)
}

type addLinkRequest struct {
	Kind string `json:"kind"`
	URL  string `json:"url"`
}

type addLinkResponse struct {
	Link   *models.ProjectLink `json:"link"`
	Reward *reward.AwardResult `json:"reward"`
}

// AddLink attaches an external asset to a project and awards the matching
// link reward. The idempotency key is project+kind, so re-adding the same
// kind of link never pays twice.
func (h *ProjectsHandler) AddLink(w http.ResponseWriter, r *http.Request) {
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

	var req addLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	req.URL = strings.TrimSpace(req.URL)
	switch req.Kind {
	case models.LinkLinkedIn, models.LinkGitHub, models.LinkWebsite:
	default:
		http.Error(w, "invalid link kind", http.StatusBadRequest)
		return
	}
	if req.URL == "" {
		http.Error(w, "missing fields", http.StatusBadRequest)
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

	link := &models.ProjectLink{ProjectID: projectID, Kind: req.Kind, URL: req.URL}
	id, err := h.links.CreateLink(r.Context(), link)
	if err != nil {
		http.Error(w, "failed to create link", http.StatusInternalServerError)
		return
	}
	link.ID = id

	key := fmt.Sprintf("link-%d-%s", projectID, req.Kind)
	res, err := h.rewards.Award(r.Context(), uid, &projectID, "link_"+req.Kind, key)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, addLinkResponse{Link: link, Reward: res}, http.StatusCreated)
}

func (h *ProjectsHandler) ListLinks(w http.ResponseWriter, r *http.Request) {
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

	items, err := h.links.ListLinksByProject(r.Context(), projectID)
	if err != nil {
		http.Error(w, "failed to list links", http.StatusInternalServerError)
		return
	}
	if items == nil {
		items = []models.ProjectLink{}
	}

	writeJSON(w, map[string]any{"items": items}, http.StatusOK)
}
