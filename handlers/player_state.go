package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/carrotwaxr/peek-stash-browser-sub011/models"
	"github.com/carrotwaxr/peek-stash-browser-sub011/services/localstate"
)

type playerStateService interface {
	Get() models.PlayerState
	Set(state models.PlayerState) error
}

var _ playerStateService = (*localstate.Service)(nil)

// PlayerStateHandler serves the persisted volume and mute preference.
type PlayerStateHandler struct {
	Service playerStateService
}

func NewPlayerStateHandler(s playerStateService) *PlayerStateHandler {
	return &PlayerStateHandler{Service: s}
}

func (h *PlayerStateHandler) GetState(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h.Service.Get())
}

func (h *PlayerStateHandler) PutState(w http.ResponseWriter, r *http.Request) {
	var state models.PlayerState
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&state); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.Service.Set(state); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	// Echo the stored state so the UI sees the clamped values.
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h.Service.Get())
}
