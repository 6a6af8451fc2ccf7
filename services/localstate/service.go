package localstate

import (
	"encoding/json"
	"fmt"
	"log"
	"path/filepath"
	"sync"

	"github.com/spf13/afero"

	"github.com/carrotwaxr/peek-stash-browser-sub011/models"
)

const stateFile = "player_state.json"

// Service persists the player's local preference state: last-used volume and
// mute flag. The state is read once at construction and written on every
// volume-change event.
type Service struct {
	fs   afero.Fs
	path string

	mu    sync.Mutex
	state models.PlayerState
}

// NewService loads the persisted state from dir, falling back to defaults
// (full volume, unmuted) when no state exists yet. Pass nil for fs to use the
// OS filesystem.
func NewService(fs afero.Fs, dir string) (*Service, error) {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create state directory: %w", err)
	}
	s := &Service{
		fs:    fs,
		path:  filepath.Join(dir, stateFile),
		state: models.PlayerState{Volume: 1.0},
	}
	s.load()
	return s, nil
}

func (s *Service) load() {
	data, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		// First run: keep defaults.
		return
	}
	var state models.PlayerState
	if err := json.Unmarshal(data, &state); err != nil {
		log.Printf("[localstate] ignoring corrupt state file %s: %v", s.path, err)
		return
	}
	s.state = clamp(state)
}

// Get returns the current player state.
func (s *Service) Get() models.PlayerState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Set persists a new player state. Volume is clamped to [0, 1].
func (s *Service) Set(state models.PlayerState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = clamp(state)
	data, err := json.MarshalIndent(s.state, "", "  ")
	if err != nil {
		return fmt.Errorf("encode player state: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, data, 0o644); err != nil {
		return fmt.Errorf("write player state: %w", err)
	}
	if err := s.fs.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace player state: %w", err)
	}
	return nil
}

func clamp(state models.PlayerState) models.PlayerState {
	if state.Volume < 0 {
		state.Volume = 0
	}
	if state.Volume > 1 {
		state.Volume = 1
	}
	return state
}
