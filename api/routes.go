package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/carrotwaxr/peek-stash-browser-sub011/handlers"
)

// corsMiddleware handles CORS for API routes
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "*")

		// Handle preflight requests
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// handleOptions handles OPTIONS requests for CORS preflight
func handleOptions(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// Register mounts API endpoints onto the provided router.
func Register(
	r *mux.Router,
	playbackHandler *handlers.PlaybackHandler,
	historyHandler *handlers.HistoryHandler,
	playerStateHandler *handlers.PlayerStateHandler,
	settingsHandler *handlers.SettingsHandler,
) {
	api := r.PathPrefix("/api").Subrouter()

	// Add CORS middleware to API subrouter
	api.Use(corsMiddleware)

	// Playback sessions
	api.HandleFunc("/playback/sessions", playbackHandler.CreateSession).Methods(http.MethodPost)
	api.HandleFunc("/playback/sessions", playbackHandler.ListSessions).Methods(http.MethodGet)
	api.HandleFunc("/playback/sessions", handleOptions).Methods(http.MethodOptions)
	api.HandleFunc("/playback/sessions/{sessionID}", playbackHandler.GetSession).Methods(http.MethodGet)
	api.HandleFunc("/playback/sessions/{sessionID}", playbackHandler.DisposeSession).Methods(http.MethodDelete)
	api.HandleFunc("/playback/sessions/{sessionID}", handleOptions).Methods(http.MethodOptions)
	api.HandleFunc("/playback/sessions/{sessionID}/events", playbackHandler.PostEvent).Methods(http.MethodPost)
	api.HandleFunc("/playback/sessions/{sessionID}/events", handleOptions).Methods(http.MethodOptions)
	api.HandleFunc("/playback/sessions/{sessionID}/commands", playbackHandler.DrainCommands).Methods(http.MethodGet)
	api.HandleFunc("/playback/sessions/{sessionID}/commands", handleOptions).Methods(http.MethodOptions)
	api.HandleFunc("/playback/sessions/{sessionID}/quality", playbackHandler.ChangeQuality).Methods(http.MethodPost)
	api.HandleFunc("/playback/sessions/{sessionID}/quality", handleOptions).Methods(http.MethodOptions)
	api.HandleFunc("/playback/sessions/{sessionID}/next", playbackHandler.Next).Methods(http.MethodPost)
	api.HandleFunc("/playback/sessions/{sessionID}/next", handleOptions).Methods(http.MethodOptions)
	api.HandleFunc("/playback/sessions/{sessionID}/previous", playbackHandler.Previous).Methods(http.MethodPost)
	api.HandleFunc("/playback/sessions/{sessionID}/previous", handleOptions).Methods(http.MethodOptions)
	api.HandleFunc("/playback/sessions/{sessionID}/playlist-mode", playbackHandler.SetPlaylistMode).Methods(http.MethodPost)
	api.HandleFunc("/playback/sessions/{sessionID}/playlist-mode", handleOptions).Methods(http.MethodOptions)
	api.HandleFunc("/playback/sessions/{sessionID}/keepalive", playbackHandler.KeepAlive).Methods(http.MethodPost)
	api.HandleFunc("/playback/sessions/{sessionID}/keepalive", handleOptions).Methods(http.MethodOptions)

	// Watch history
	api.HandleFunc("/history/progress", historyHandler.ListProgress).Methods(http.MethodGet)
	api.HandleFunc("/history/progress", handleOptions).Methods(http.MethodOptions)
	api.HandleFunc("/history/progress/{itemID}", historyHandler.GetProgress).Methods(http.MethodGet)
	api.HandleFunc("/history/progress/{itemID}", historyHandler.DeleteProgress).Methods(http.MethodDelete)
	api.HandleFunc("/history/progress/{itemID}", handleOptions).Methods(http.MethodOptions)

	// Player preferences
	api.HandleFunc("/player/state", playerStateHandler.GetState).Methods(http.MethodGet)
	api.HandleFunc("/player/state", playerStateHandler.PutState).Methods(http.MethodPut)
	api.HandleFunc("/player/state", handleOptions).Methods(http.MethodOptions)

	// Settings
	api.HandleFunc("/settings", settingsHandler.GetSettings).Methods(http.MethodGet)
	api.HandleFunc("/settings", settingsHandler.PutSettings).Methods(http.MethodPut)
	api.HandleFunc("/settings", handleOptions).Methods(http.MethodOptions)

	versionHandler := handlers.NewVersionHandler()
	api.HandleFunc("/version", versionHandler.GetVersion).Methods(http.MethodGet, http.MethodOptions)
}
