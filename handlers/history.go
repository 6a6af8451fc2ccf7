package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/carrotwaxr/peek-stash-browser-sub011/models"
	"github.com/carrotwaxr/peek-stash-browser-sub011/services/history"
)

type historyService interface {
	ListProgress(ctx context.Context, limit int) ([]models.WatchProgress, error)
	GetProgress(ctx context.Context, itemID string) (*models.WatchProgress, error)
	DeleteProgress(ctx context.Context, itemID string) error
}

var _ historyService = (*history.Service)(nil)

// HistoryHandler serves the continue-watching list and per-item progress.
type HistoryHandler struct {
	Service historyService
}

func NewHistoryHandler(service historyService) *HistoryHandler {
	return &HistoryHandler{Service: service}
}

func (h *HistoryHandler) ListProgress(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	items, err := h.Service.ListProgress(r.Context(), limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if items == nil {
		items = []models.WatchProgress{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(items)
}

func (h *HistoryHandler) GetProgress(w http.ResponseWriter, r *http.Request) {
	itemID, ok := itemIDVar(w, r)
	if !ok {
		return
	}

	progress, err := h.Service.GetProgress(r.Context(), itemID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, history.ErrProgressNotFound) {
			status = http.StatusNotFound
		}
		http.Error(w, err.Error(), status)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(progress)
}

func (h *HistoryHandler) DeleteProgress(w http.ResponseWriter, r *http.Request) {
	itemID, ok := itemIDVar(w, r)
	if !ok {
		return
	}

	if err := h.Service.DeleteProgress(r.Context(), itemID); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func itemIDVar(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := strings.TrimSpace(mux.Vars(r)["itemID"])
	if id == "" {
		http.Error(w, "item id is required", http.StatusBadRequest)
		return "", false
	}
	return id, true
}
