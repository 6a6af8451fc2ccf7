package config

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Settings represents the application configuration persisted to disk.
type Settings struct {
	Server     ServerSettings     `json:"server"`
	Library    LibrarySettings    `json:"library"`
	Transcoder TranscoderSettings `json:"transcoder"`
	Playback   PlaybackSettings   `json:"playback"`
	Cache      CacheSettings      `json:"cache"`
	Database   DatabaseSettings   `json:"database"`
	Log        LogConfig          `json:"log"`
}

type ServerSettings struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// LibrarySettings points at the media-management server whose items we play.
type LibrarySettings struct {
	BaseURL           string `json:"baseUrl"`
	APIKey            string `json:"apiKey,omitempty"`
	RequestTimeoutSec int    `json:"requestTimeoutSec"`
}

// TranscoderSettings points at the remote transcoding/session service.
type TranscoderSettings struct {
	BaseURL           string `json:"baseUrl"`
	RequestTimeoutSec int    `json:"requestTimeoutSec"` // grace period before the service is treated as unresponsive
	RetryAttempts     int    `json:"retryAttempts"`
}

// PlaybackSettings tunes the playback session controller. All values are
// operational knobs, not correctness requirements.
type PlaybackSettings struct {
	FallbackQuality          string  `json:"fallbackQuality"`          // baseline transcoded tier used after a codec failure
	SessionIdleTimeoutSec    int     `json:"sessionIdleTimeoutSec"`    // sessions with no events or keepalive past this are evicted
	CleanupIntervalSec       int     `json:"cleanupIntervalSec"`       // eviction sweep interval
	ProgressWriteIntervalSec int     `json:"progressWriteIntervalSec"` // minimum gap between persisted timeupdate positions
	PlayedThresholdPercent   float64 `json:"playedThresholdPercent"`   // play count increments when progress first crosses this
	PrefetchThresholdSec     int     `json:"prefetchThresholdSec"`     // warm the next item when this close to the end
	PrefetchWorkers          int     `json:"prefetchWorkers"`
}

type CacheSettings struct {
	Directory string `json:"directory"`
}

// DatabaseSettings defines where the watch-history database lives.
type DatabaseSettings struct {
	Path string `json:"path"`
}

// LogConfig represents logging configuration.
type LogConfig struct {
	File       string `json:"file"`
	Level      string `json:"level"`
	MaxSize    int    `json:"maxSize"`
	MaxAge     int    `json:"maxAge"`
	MaxBackups int    `json:"maxBackups"`
	Compress   bool   `json:"compress"`
}

// DefaultSettings returns sane defaults for a fresh install.
func DefaultSettings() Settings {
	return Settings{
		Server:     ServerSettings{Host: "0.0.0.0", Port: 9977},
		Library:    LibrarySettings{BaseURL: "http://localhost:9999", RequestTimeoutSec: 10},
		Transcoder: TranscoderSettings{BaseURL: "http://localhost:8788", RequestTimeoutSec: 15, RetryAttempts: 3},
		Playback: PlaybackSettings{
			FallbackQuality:          "480p",
			SessionIdleTimeoutSec:    300,
			CleanupIntervalSec:       60,
			ProgressWriteIntervalSec: 10,
			PlayedThresholdPercent:   90,
			PrefetchThresholdSec:     30,
			PrefetchWorkers:          2,
		},
		Cache:    CacheSettings{Directory: "cache"},
		Database: DatabaseSettings{Path: "cache/history.db"},
		Log: LogConfig{
			File:       "cache/logs/backend.log",
			Level:      "info",
			MaxSize:    50,   // 50 MB per file
			MaxBackups: 3,    // keep 3 old files
			MaxAge:     7,    // 7 days
			Compress:   true, // compress old files
		},
	}
}

// Manager loads and persists settings to a JSON file.
type Manager struct {
	path string
}

func NewManager(configPath string) *Manager {
	return &Manager{path: configPath}
}

// EnsureDir ensures parent directory exists.
func (m *Manager) EnsureDir() error {
	dir := filepath.Dir(m.path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

// Load reads settings.json from disk or creates defaults if missing.
func (m *Manager) Load() (Settings, error) {
	if m.path == "" {
		return Settings{}, errors.New("config path not set")
	}
	if _, err := os.Stat(m.path); errors.Is(err, fs.ErrNotExist) {
		// create with defaults
		defaults := DefaultSettings()
		if err := m.Save(defaults); err != nil {
			return Settings{}, err
		}
		return defaults, nil
	}
	f, err := os.Open(m.path)
	if err != nil {
		return Settings{}, err
	}
	defer f.Close()

	var s Settings
	if err := json.NewDecoder(f).Decode(&s); err != nil {
		return Settings{}, err
	}

	// Backfill defaults for newly introduced settings when config predates them
	if strings.TrimSpace(s.Library.BaseURL) == "" {
		s.Library.BaseURL = "http://localhost:9999"
	}
	if s.Library.RequestTimeoutSec == 0 {
		s.Library.RequestTimeoutSec = 10
	}
	if strings.TrimSpace(s.Transcoder.BaseURL) == "" {
		s.Transcoder.BaseURL = "http://localhost:8788"
	}
	if s.Transcoder.RequestTimeoutSec == 0 {
		s.Transcoder.RequestTimeoutSec = 15
	}
	if s.Transcoder.RetryAttempts == 0 {
		s.Transcoder.RetryAttempts = 3
	}
	if strings.TrimSpace(s.Playback.FallbackQuality) == "" {
		s.Playback.FallbackQuality = "480p"
	}
	if s.Playback.SessionIdleTimeoutSec == 0 {
		s.Playback.SessionIdleTimeoutSec = 300
	}
	if s.Playback.CleanupIntervalSec == 0 {
		s.Playback.CleanupIntervalSec = 60
	}
	if s.Playback.ProgressWriteIntervalSec == 0 {
		s.Playback.ProgressWriteIntervalSec = 10
	}
	if s.Playback.PlayedThresholdPercent == 0 {
		s.Playback.PlayedThresholdPercent = 90
	}
	if s.Playback.PrefetchThresholdSec == 0 {
		s.Playback.PrefetchThresholdSec = 30
	}
	if s.Playback.PrefetchWorkers == 0 {
		s.Playback.PrefetchWorkers = 2
	}
	if strings.TrimSpace(s.Cache.Directory) == "" {
		s.Cache.Directory = "cache"
	}
	if strings.TrimSpace(s.Database.Path) == "" {
		s.Database.Path = "cache/history.db"
	}
	if strings.TrimSpace(s.Log.File) == "" {
		s.Log.File = "cache/logs/backend.log"
	}
	if s.Log.MaxSize == 0 {
		s.Log.MaxSize = 50
	}
	if s.Log.MaxBackups == 0 {
		s.Log.MaxBackups = 3
	}
	if s.Log.MaxAge == 0 {
		s.Log.MaxAge = 7
	}

	return s, nil
}

// Save writes the provided settings to disk atomically.
func (m *Manager) Save(s Settings) error {
	if m.path == "" {
		return errors.New("config path not set")
	}
	if err := m.EnsureDir(); err != nil {
		return err
	}
	tmp := m.path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, m.path)
}
