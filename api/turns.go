package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/vamoapp/vamo/internal/turn"
)

// maxMessageLen caps submitted chat messages.
const maxMessageLen = 2000

type TurnsHandler struct {
	processor *turn.Processor
}

func NewTurnsHandler(p *turn.Processor) *TurnsHandler {
	return &TurnsHandler{processor: p}
}

type submitTurnRequest struct {
	ProjectID int64  `json:"projectId"`
	Message   string `json:"message"`
	Tag       string `json:"tag,omitempty"`
}

type editTurnRequest struct {
	Message string `json:"message"`
	Tag     string `json:"tag,omitempty"`
}

type editTurnMessage struct {
	ID      int64  `json:"id"`
	Content string `json:"content"`
	Tag     string `json:"tag,omitempty"`
}

type editTurnResponse struct {
	Success          bool            `json:"success"`
	Message          editTurnMessage `json:"message"`
	PineapplesEarned int64           `json:"pineapplesEarned"`
}

func (h *TurnsHandler) Submit(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req submitTurnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	req.Message = strings.TrimSpace(req.Message)
	if req.ProjectID <= 0 || req.Message == "" {
		http.Error(w, "missing fields", http.StatusBadRequest)
		return
	}
	if len(req.Message) > maxMessageLen {
		http.Error(w, "message too long", http.StatusBadRequest)
		return
	}

	res, err := h.processor.Submit(r.Context(), req.ProjectID, uid, req.Message, req.Tag)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, res, http.StatusOK)
}

func (h *TurnsHandler) Edit(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	msgID, err := pathID(r, "id")
	if err != nil {
		http.Error(w, "invalid message id", http.StatusBadRequest)
		return
	}

	var req editTurnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" {
		http.Error(w, "missing fields", http.StatusBadRequest)
		return
	}
	if len(req.Message) > maxMessageLen {
		http.Error(w, "message too long", http.StatusBadRequest)
		return
	}

	res, err := h.processor.Edit(r.Context(), uid, msgID, req.Message, req.Tag)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, editTurnResponse{
		Success: true,
		Message: editTurnMessage{
			ID:      msgID,
			Content: req.Message,
			Tag:     req.Tag,
		},
		PineapplesEarned: res.PineapplesEarned,
	}, http.StatusOK)
}

func (h *TurnsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	msgID, err := pathID(r, "id")
	if err != nil {
		http.Error(w, "invalid message id", http.StatusBadRequest)
		return
	}

	if err := h.processor.Delete(r.Context(), uid, msgID); err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, map[string]any{"success": true}, http.StatusOK)
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)[name], 10, 64)
	if err != nil || id <= 0 {
		return 0, strconv.ErrSyntax
	}
	return id, nil
}
