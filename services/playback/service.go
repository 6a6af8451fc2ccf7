package playback

import (
	"context"
	"log"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/carrotwaxr/peek-stash-browser-sub011/models"
	"github.com/carrotwaxr/peek-stash-browser-sub011/services/history"
	"github.com/carrotwaxr/peek-stash-browser-sub011/services/library"
	"github.com/carrotwaxr/peek-stash-browser-sub011/services/localstate"
	"github.com/carrotwaxr/peek-stash-browser-sub011/services/transcoder"
)

// LibraryClient is the slice of the library API the controller needs.
type LibraryClient interface {
	GetItem(ctx context.Context, itemID string) (*models.PlayableItem, error)
	StreamURL(itemID string) string
	SniffMime(ctx context.Context, itemID string) (string, error)
}

// TranscoderClient manages sessions on the remote transcoder.
type TranscoderClient interface {
	CreateSession(ctx context.Context, itemID string, quality models.QualityLevel) (*models.TranscodeSession, error)
	KeepAlive(ctx context.Context, sessionID string) error
	Release(ctx context.Context, sessionID string) error
}

// HistoryStore records watch progress and quality usage.
type HistoryStore interface {
	GetResumeState(ctx context.Context, itemID string) (models.ResumeInfo, error)
	SaveProgress(ctx context.Context, itemID string, position, duration float64) error
	IncrementPlayCount(ctx context.Context, itemID string) error
	ReportQualityUsed(ctx context.Context, itemID string, quality models.QualityLevel) error
}

// PlayerStateStore persists device-level player settings such as volume.
type PlayerStateStore interface {
	Get() models.PlayerState
	Set(models.PlayerState) error
}

var (
	_ LibraryClient    = (*library.Service)(nil)
	_ TranscoderClient = (*transcoder.Service)(nil)
	_ HistoryStore     = (*history.Service)(nil)
	_ PlayerStateStore = (*localstate.Service)(nil)
)

// Config carries the controller's tunables.
type Config struct {
	FallbackQuality        models.QualityLevel
	SessionIdleTimeout     time.Duration
	CleanupInterval        time.Duration
	ProgressWriteInterval  time.Duration
	PlayedThresholdPercent float64
	PrefetchThreshold      time.Duration
	PrefetchWorkers        int
}

func (c *Config) applyDefaults() {
	if !c.FallbackQuality.Valid() || c.FallbackQuality.IsDirect() {
		c.FallbackQuality = models.Quality480p
	}
	if c.SessionIdleTimeout <= 0 {
		c.SessionIdleTimeout = 5 * time.Minute
	}
	if c.CleanupInterval <= 0 {
		c.CleanupInterval = time.Minute
	}
	if c.ProgressWriteInterval <= 0 {
		c.ProgressWriteInterval = 10 * time.Second
	}
	if c.PlayedThresholdPercent <= 0 || c.PlayedThresholdPercent > 100 {
		c.PlayedThresholdPercent = 90
	}
	if c.PrefetchThreshold <= 0 {
		c.PrefetchThreshold = 30 * time.Second
	}
	if c.PrefetchWorkers <= 0 {
		c.PrefetchWorkers = 2
	}
}

// Manager owns every live playback session. Sessions are created eagerly,
// loaded in the background, and evicted when idle.
type Manager struct {
	cfg Config

	library     LibraryClient
	transcoder  TranscoderClient
	history     HistoryStore
	playerState PlayerStateStore

	resolver   *resolver
	prefetcher *prefetcher

	mu       sync.RWMutex
	sessions map[string]*Session

	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

func NewManager(lib LibraryClient, tc TranscoderClient, hist HistoryStore, state PlayerStateStore, cfg Config) *Manager {
	cfg.applyDefaults()
	m := &Manager{
		cfg:         cfg,
		library:     lib,
		transcoder:  tc,
		history:     hist,
		playerState: state,
		resolver:    &resolver{library: lib, transcoder: tc},
		prefetcher:  newPrefetcher(tc, cfg.PrefetchWorkers),
		sessions:    make(map[string]*Session),
		done:        make(chan struct{}),
	}
	m.wg.Add(1)
	go m.cleanupLoop()
	return m
}

// CreateRequest describes a new playback session.
type CreateRequest struct {
	ItemIDs      []string            `json:"itemIds"`
	StartIndex   int                 `json:"startIndex"`
	Quality      models.QualityLevel `json:"quality,omitempty"`
	Resume       bool                `json:"resume"`
	Autoplay     bool                `json:"autoplay"`
	Shuffle      bool                `json:"shuffle"`
	RepeatMode   models.RepeatMode   `json:"repeatMode,omitempty"`
	AutoplayNext bool                `json:"autoplayNext"`
}

// CreateSession registers a session and starts loading its first item in the
// background. The returned status reports the loading state immediately;
// clients poll status and drain commands to follow the load.
func (m *Manager) CreateSession(req CreateRequest) (*models.SessionStatus, error) {
	if len(req.ItemIDs) == 0 {
		return nil, ErrEmptyPlaylist
	}
	if req.StartIndex < 0 || req.StartIndex >= len(req.ItemIDs) {
		return nil, ErrInvalidStartIndex
	}
	quality := req.Quality
	if quality == "" {
		quality = models.QualityDirect
	}
	if !quality.Valid() {
		return nil, ErrInvalidQuality
	}
	repeat := req.RepeatMode
	if repeat == "" {
		repeat = models.RepeatOff
	}
	if !repeat.Valid() {
		return nil, ErrInvalidRepeatMode
	}

	now := time.Now()
	s := &Session{
		ID:      uuid.NewString(),
		mgr:     m,
		state:   models.SessionStateLoading,
		quality: quality,
		playlist: models.PlaylistContext{
			ItemIDs:      append([]string(nil), req.ItemIDs...),
			CurrentIndex: req.StartIndex,
			Shuffle:      req.Shuffle,
			RepeatMode:   repeat,
			AutoplayNext: req.AutoplayNext,
		},
		resume:          resumeState{requested: req.Resume},
		pendingAutoplay: req.Autoplay,
		rng:             rand.New(rand.NewSource(now.UnixNano())),
		lastActive:      now,
		createdAt:       now,
	}
	// Captured before the session is reachable by other goroutines.
	epoch := s.epoch
	load := loadRequest{
		itemID:        s.playlist.CurrentItemID(),
		quality:       quality,
		resume:        req.Resume,
		reportQuality: req.Quality != "",
		reason:        "initial",
	}

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	log.Printf("[playback] session %s: created (%d items, start=%d, quality=%s, shuffle=%v, repeat=%s)",
		s.ID, len(req.ItemIDs), req.StartIndex, quality, req.Shuffle, repeat)

	m.goBackground(func() { m.loadItem(s, epoch, load) })

	return s.status(), nil
}

type loadRequest struct {
	itemID        string
	quality       models.QualityLevel
	resume        bool
	reportQuality bool
	reason        string
}

// loadItem fetches item metadata, the optional resume point, and the source,
// then applies all of it to the session if it is still on this epoch.
func (m *Manager) loadItem(s *Session, epoch int64, req loadRequest) {
	ctx := context.Background()

	item, err := m.library.GetItem(ctx, req.itemID)
	if err != nil {
		m.failLoad(s, epoch, req.itemID, err)
		return
	}

	var resumeTime float64
	if req.resume {
		info, err := m.history.GetResumeState(ctx, req.itemID)
		if err != nil {
			log.Printf("[playback] session %s: resume lookup for %s: %v", s.ID, req.itemID, err)
		} else {
			resumeTime = info.ResumeTime
		}
	}

	src, ts, err := m.resolver.resolve(ctx, item, req.quality)
	if err != nil {
		m.failLoad(s, epoch, req.itemID, err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.aliveLocked(epoch) {
		if ts != nil {
			m.releaseTranscode(ts.ID)
		}
		log.Printf("[playback] session %s: discarding stale load of %s", s.ID, req.itemID)
		return
	}

	s.item = item
	s.swapTranscodeLocked(ts)
	s.source = src
	s.quality = req.quality
	s.metadataReady = false
	s.position = 0
	s.resume.resumeTime = resumeTime
	if req.quality.IsDirect() {
		s.fallback = newFallbackGuard()
	} else {
		s.fallback = nil
	}
	s.state = models.SessionStateLoading
	s.enqueueLocked(models.PlayerCommand{Type: models.CommandSetSource, Source: src, Reason: req.reason})

	log.Printf("[playback] session %s: loaded item %s (%s, %s)", s.ID, item.ID, req.quality, src.MimeType)

	if req.reportQuality {
		m.reportQualityUsed(item.ID, req.quality)
	}
}

func (m *Manager) failLoad(s *Session, epoch int64, itemID string, err error) {
	log.Printf("[playback] session %s: load of %s failed: %v", s.ID, itemID, err)
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.aliveLocked(epoch) {
		return
	}
	s.state = models.SessionStateFailed
	s.playing = false
	s.setNoticeLocked("loadFailed", "Could not load the selected item.")
}

type navigation struct {
	autoplay bool
	resume   bool
	reason   string
}

// navigateLocked moves the session to the playlist index and starts loading
// that item. The epoch bump orphans async work still running for the old
// item; the old source stays active until the replacement is applied.
func (m *Manager) navigateLocked(s *Session, index int, nav navigation) {
	s.epoch++
	epoch := s.epoch
	s.playlist.CurrentIndex = index
	itemID := s.playlist.CurrentItemID()

	s.state = models.SessionStateLoading
	s.metadataReady = false
	s.switching = false
	s.hasPendingSeek = false
	s.pendingPlay = false
	s.pendingAutoplay = nav.autoplay
	s.playing = false
	s.position = 0
	s.playCounted = false
	s.prefetched = false
	s.notice = nil
	s.resume = resumeState{requested: nav.resume}
	s.fallback = nil

	log.Printf("[playback] session %s: navigating to index %d, item %s (%s)", s.ID, index, itemID, nav.reason)

	load := loadRequest{itemID: itemID, quality: s.quality, resume: nav.resume, reason: nav.reason}
	m.goBackground(func() { m.loadItem(s, epoch, load) })
}

// NavigateNext skips to the next playlist entry. The new item keeps the
// current play state: skipping while paused loads the next item paused.
func (m *Manager) NavigateNext(sessionID string) (*models.SessionStatus, error) {
	return m.navigateDir(sessionID, false)
}

// NavigatePrevious steps back, retracing the shuffle history when shuffle
// is on.
func (m *Manager) NavigatePrevious(sessionID string) (*models.SessionStatus, error) {
	return m.navigateDir(sessionID, true)
}

func (m *Manager) navigateDir(sessionID string, back bool) (*models.SessionStatus, error) {
	s, err := m.get(sessionID)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrSessionClosed
	}
	s.lastActive = time.Now()

	var (
		index  int
		ok     bool
		reason string
	)
	if back {
		index, ok = previous(&s.playlist)
		reason = "previous"
	} else {
		index, ok = nextExplicit(&s.playlist, s.rng)
		reason = "next"
	}
	if !ok {
		// Nowhere to go; leave the session untouched.
		return s.snapshotLocked(), nil
	}
	m.navigateLocked(s, index, navigation{autoplay: s.playing, reason: reason})
	return s.snapshotLocked(), nil
}

// PlaylistModeRequest updates traversal behavior mid-session. Nil fields
// leave the corresponding mode untouched.
type PlaylistModeRequest struct {
	Shuffle      *bool              `json:"shuffle,omitempty"`
	RepeatMode   *models.RepeatMode `json:"repeatMode,omitempty"`
	AutoplayNext *bool              `json:"autoplayNext,omitempty"`
}

func (m *Manager) SetPlaylistMode(sessionID string, req PlaylistModeRequest) (*models.SessionStatus, error) {
	s, err := m.get(sessionID)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrSessionClosed
	}
	s.lastActive = time.Now()

	if req.RepeatMode != nil {
		if !req.RepeatMode.Valid() {
			return nil, ErrInvalidRepeatMode
		}
		s.playlist.RepeatMode = *req.RepeatMode
	}
	if req.Shuffle != nil && *req.Shuffle != s.playlist.Shuffle {
		s.playlist.Shuffle = *req.Shuffle
		// A mode flip starts a fresh traversal round.
		s.playlist.ShuffleHistory = nil
	}
	if req.AutoplayNext != nil {
		s.playlist.AutoplayNext = *req.AutoplayNext
	}
	return s.snapshotLocked(), nil
}

// HandleEvent applies one player event and returns the resulting status.
func (m *Manager) HandleEvent(sessionID string, evt models.PlayerEvent) (*models.SessionStatus, error) {
	s, err := m.get(sessionID)
	if err != nil {
		return nil, err
	}
	if err := s.handleEvent(evt); err != nil {
		return nil, err
	}
	return s.status(), nil
}

// DrainCommands returns the queued player commands in order and clears the
// queue. Each command is delivered exactly once.
func (m *Manager) DrainCommands(sessionID string) ([]models.PlayerCommand, error) {
	s, err := m.get(sessionID)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrSessionClosed
	}
	s.lastActive = time.Now()
	cmds := s.commands
	s.commands = nil
	return cmds, nil
}

func (m *Manager) Status(sessionID string) (*models.SessionStatus, error) {
	s, err := m.get(sessionID)
	if err != nil {
		return nil, err
	}
	return s.status(), nil
}

// ListSessions snapshots every live session, newest first.
func (m *Manager) ListSessions() []*models.SessionStatus {
	m.mu.RLock()
	all := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		all = append(all, s)
	}
	m.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool { return all[i].createdAt.After(all[j].createdAt) })
	out := make([]*models.SessionStatus, 0, len(all))
	for _, s := range all {
		out = append(out, s.status())
	}
	return out
}

// KeepAlive marks the session active and forwards the ping to the
// transcoder when a transcode session is attached.
func (m *Manager) KeepAlive(ctx context.Context, sessionID string) error {
	s, err := m.get(sessionID)
	if err != nil {
		return err
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	s.lastActive = time.Now()
	var tsID string
	if s.transcode != nil {
		tsID = s.transcode.ID
	}
	s.mu.Unlock()

	if tsID == "" {
		return nil
	}
	if err := m.transcoder.KeepAlive(ctx, tsID); err != nil {
		// The transcoder recreates sessions on demand, so a lost ping is
		// not fatal to the playback session.
		log.Printf("[playback] session %s: transcoder keepalive: %v", sessionID, err)
	}
	return nil
}

// Dispose closes the session and releases its transcoder resources.
func (m *Manager) Dispose(sessionID string) error {
	m.mu.Lock()
	s, ok := m.sessions[sessionID]
	if ok {
		delete(m.sessions, sessionID)
	}
	m.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}
	m.closeSession(s, "disposed")
	return nil
}

func (m *Manager) closeSession(s *Session, reason string) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.epoch++
	s.state = models.SessionStateDisposed
	s.playing = false
	s.commands = nil
	var tsID string
	if s.transcode != nil {
		tsID = s.transcode.ID
		s.transcode = nil
	}
	var itemID string
	var pos, dur float64
	if s.item != nil && s.position > 0 {
		itemID = s.item.ID
		pos = s.position
		dur = s.durationLocked(models.PlayerEvent{})
	}
	s.mu.Unlock()

	if itemID != "" {
		m.saveProgress(itemID, pos, dur)
	}
	if tsID != "" {
		m.releaseTranscode(tsID)
	}
	log.Printf("[playback] session %s: closed (%s)", s.ID, reason)
}

func (m *Manager) get(sessionID string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[sessionID]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

func (m *Manager) cleanupLoop() {
	defer m.wg.Done()
	ticker := time.NewTicker(m.cfg.CleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			m.evictIdle()
		}
	}
}

func (m *Manager) evictIdle() {
	cutoff := time.Now().Add(-m.cfg.SessionIdleTimeout)

	m.mu.Lock()
	var idle []*Session
	for id, s := range m.sessions {
		s.mu.Lock()
		stale := s.lastActive.Before(cutoff)
		s.mu.Unlock()
		if stale {
			delete(m.sessions, id)
			idle = append(idle, s)
		}
	}
	m.mu.Unlock()

	for _, s := range idle {
		log.Printf("[playback] session %s: idle for over %s, evicting", s.ID, m.cfg.SessionIdleTimeout)
		m.closeSession(s, "idle timeout")
	}
}

// Close stops the cleanup loop, closes every session, and waits for
// in-flight background work to finish.
func (m *Manager) Close() {
	m.closeOnce.Do(func() {
		close(m.done)

		m.mu.Lock()
		all := make([]*Session, 0, len(m.sessions))
		for id, s := range m.sessions {
			delete(m.sessions, id)
			all = append(all, s)
		}
		m.mu.Unlock()

		for _, s := range all {
			m.closeSession(s, "shutdown")
		}

		m.wg.Wait()
		m.prefetcher.close()
		log.Printf("[playback] manager closed")
	})
}

// goBackground runs fn on a tracked goroutine so Close can wait for it.
func (m *Manager) goBackground(fn func()) {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		fn()
	}()
}

func (m *Manager) saveProgress(itemID string, position, duration float64) {
	m.goBackground(func() {
		if err := m.history.SaveProgress(context.Background(), itemID, position, duration); err != nil {
			log.Printf("[playback] save progress for %s: %v", itemID, err)
		}
	})
}

func (m *Manager) incrementPlayCount(itemID string) {
	m.goBackground(func() {
		if err := m.history.IncrementPlayCount(context.Background(), itemID); err != nil {
			log.Printf("[playback] increment play count for %s: %v", itemID, err)
		}
	})
}

func (m *Manager) reportQualityUsed(itemID string, quality models.QualityLevel) {
	m.goBackground(func() {
		if err := m.history.ReportQualityUsed(context.Background(), itemID, quality); err != nil {
			log.Printf("[playback] report quality for %s: %v", itemID, err)
		}
	})
}

func (m *Manager) releaseTranscode(id string) {
	m.goBackground(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := m.transcoder.Release(ctx, id); err != nil {
			log.Printf("[playback] release transcode session %s: %v", id, err)
		}
	})
}

func (m *Manager) prefetch(itemID string, quality models.QualityLevel) {
	m.prefetcher.warm(itemID, quality)
}
