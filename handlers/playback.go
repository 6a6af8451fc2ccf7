package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/carrotwaxr/peek-stash-browser-sub011/models"
	playbacksvc "github.com/carrotwaxr/peek-stash-browser-sub011/services/playback"
)

type playbackService interface {
	CreateSession(req playbacksvc.CreateRequest) (*models.SessionStatus, error)
	Status(sessionID string) (*models.SessionStatus, error)
	HandleEvent(sessionID string, evt models.PlayerEvent) (*models.SessionStatus, error)
	DrainCommands(sessionID string) ([]models.PlayerCommand, error)
	ChangeQuality(sessionID string, quality models.QualityLevel) (*models.SessionStatus, error)
	NavigateNext(sessionID string) (*models.SessionStatus, error)
	NavigatePrevious(sessionID string) (*models.SessionStatus, error)
	SetPlaylistMode(sessionID string, req playbacksvc.PlaylistModeRequest) (*models.SessionStatus, error)
	KeepAlive(ctx context.Context, sessionID string) error
	Dispose(sessionID string) error
	ListSessions() []*models.SessionStatus
}

var _ playbackService = (*playbacksvc.Manager)(nil)

// PlaybackHandler exposes the playback session controller over HTTP. The UI
// posts player events and drains the command outbox; everything else is
// explicit user intent (create, navigate, switch quality, dispose).
type PlaybackHandler struct {
	Service playbackService
}

func NewPlaybackHandler(s playbackService) *PlaybackHandler {
	return &PlaybackHandler{Service: s}
}

func (h *PlaybackHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req playbacksvc.CreateRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	status, err := h.Service.CreateSession(req)
	if err != nil {
		writePlaybackError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(status)
}

func (h *PlaybackHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionIDVar(w, r)
	if !ok {
		return
	}

	status, err := h.Service.Status(id)
	if err != nil {
		writePlaybackError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(status)
}

func (h *PlaybackHandler) DisposeSession(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionIDVar(w, r)
	if !ok {
		return
	}

	if err := h.Service.Dispose(id); err != nil {
		writePlaybackError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PostEvent ingests one player notification and responds with the updated
// status snapshot, so the UI refreshes its indicators without a second poll.
func (h *PlaybackHandler) PostEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionIDVar(w, r)
	if !ok {
		return
	}

	var evt models.PlayerEvent
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&evt); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if evt.Type == "" {
		http.Error(w, "event type is required", http.StatusBadRequest)
		return
	}

	status, err := h.Service.HandleEvent(id, evt)
	if err != nil {
		writePlaybackError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(status)
}

func (h *PlaybackHandler) DrainCommands(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionIDVar(w, r)
	if !ok {
		return
	}

	cmds, err := h.Service.DrainCommands(id)
	if err != nil {
		writePlaybackError(w, err)
		return
	}
	if cmds == nil {
		cmds = []models.PlayerCommand{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string][]models.PlayerCommand{"commands": cmds})
}

func (h *PlaybackHandler) ChangeQuality(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionIDVar(w, r)
	if !ok {
		return
	}

	var req struct {
		Quality models.QualityLevel `json:"quality"`
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	status, err := h.Service.ChangeQuality(id, req.Quality)
	if err != nil {
		writePlaybackError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(status)
}

func (h *PlaybackHandler) Next(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionIDVar(w, r)
	if !ok {
		return
	}

	status, err := h.Service.NavigateNext(id)
	if err != nil {
		writePlaybackError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(status)
}

func (h *PlaybackHandler) Previous(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionIDVar(w, r)
	if !ok {
		return
	}

	status, err := h.Service.NavigatePrevious(id)
	if err != nil {
		writePlaybackError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(status)
}

func (h *PlaybackHandler) SetPlaylistMode(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionIDVar(w, r)
	if !ok {
		return
	}

	var req playbacksvc.PlaylistModeRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	status, err := h.Service.SetPlaylistMode(id, req)
	if err != nil {
		writePlaybackError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(status)
}

func (h *PlaybackHandler) KeepAlive(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionIDVar(w, r)
	if !ok {
		return
	}

	if err := h.Service.KeepAlive(r.Context(), id); err != nil {
		writePlaybackError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *PlaybackHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	sessions := h.Service.ListSessions()
	if sessions == nil {
		sessions = []*models.SessionStatus{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(sessions)
}

func sessionIDVar(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := strings.TrimSpace(mux.Vars(r)["sessionID"])
	if id == "" {
		http.Error(w, "session id is required", http.StatusBadRequest)
		return "", false
	}
	return id, true
}

func writePlaybackError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, playbacksvc.ErrSessionNotFound):
		status = http.StatusNotFound
	case errors.Is(err, playbacksvc.ErrSessionClosed):
		status = http.StatusGone
	case errors.Is(err, playbacksvc.ErrNoItemLoaded):
		status = http.StatusConflict
	case errors.Is(err, playbacksvc.ErrEmptyPlaylist),
		errors.Is(err, playbacksvc.ErrInvalidStartIndex),
		errors.Is(err, playbacksvc.ErrInvalidQuality),
		errors.Is(err, playbacksvc.ErrInvalidRepeatMode):
		status = http.StatusBadRequest
	}
	http.Error(w, err.Error(), status)
}
