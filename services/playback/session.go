package playback

import (
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/carrotwaxr/peek-stash-browser-sub011/models"
)

// Session is the server-side state of one playback session. Every field is
// guarded by mu, so player events and HTTP actions are serialized and each
// transition sees a consistent picture. Async work (item loads, transcode
// requests) runs outside the lock, captures the epoch at spawn time, and
// discards its result if the epoch moved while it was in flight.
type Session struct {
	ID string

	mgr *Manager

	mu sync.Mutex

	// epoch increments whenever the session moves to a different item or is
	// disposed. It is the only cancellation mechanism for in-flight work.
	epoch  int64
	closed bool

	state     models.SessionState
	item      *models.PlayableItem
	quality   models.QualityLevel
	source    *models.PlaybackSource
	transcode *models.TranscodeSession
	playlist  models.PlaylistContext

	resume   resumeState
	fallback *fallbackGuard

	// Quality-switch coordination: what to restore once the replacement
	// source reports metadata.
	switching      bool
	hasPendingSeek bool
	pendingSeek    float64
	pendingPlay    bool

	// pendingAutoplay is whether playback should start once the current
	// item load reaches metadata.
	pendingAutoplay bool

	initialized   bool
	metadataReady bool
	playing       bool
	position      float64

	playCounted bool
	prefetched  bool

	notice   *models.Notice
	commands []models.PlayerCommand

	rng *rand.Rand

	lastProgress time.Time
	lastActive   time.Time
	createdAt    time.Time
}

func (s *Session) aliveLocked(epoch int64) bool {
	return !s.closed && s.epoch == epoch
}

func (s *Session) enqueueLocked(cmd models.PlayerCommand) {
	s.commands = append(s.commands, cmd)
}

func (s *Session) setNoticeLocked(code, message string) {
	s.notice = &models.Notice{Code: code, Message: message, CreatedAt: time.Now().UTC()}
}

// swapTranscodeLocked installs ts as the session's transcode handle and
// releases the previous one upstream.
func (s *Session) swapTranscodeLocked(ts *models.TranscodeSession) {
	if s.transcode != nil && (ts == nil || s.transcode.ID != ts.ID) {
		s.mgr.releaseTranscode(s.transcode.ID)
	}
	s.transcode = ts
}

// durationLocked picks the best known duration: the player's report wins,
// then the resolved source, then library metadata.
func (s *Session) durationLocked(evt models.PlayerEvent) float64 {
	if evt.Duration > 0 {
		return evt.Duration
	}
	if s.source != nil && s.source.Duration > 0 {
		return s.source.Duration
	}
	if s.item != nil {
		return s.item.Duration
	}
	return 0
}

func (s *Session) handleEvent(evt models.PlayerEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	s.lastActive = time.Now()

	switch evt.Type {
	case models.EventLoadedMetadata:
		s.handleLoadedMetadataLocked(evt)
	case models.EventTimeUpdate:
		s.handleTimeUpdateLocked(evt)
	case models.EventPlay:
		if !s.switching {
			s.playing = true
			if s.metadataReady {
				s.state = models.SessionStatePlaying
			}
		}
	case models.EventPause:
		if !s.switching {
			s.playing = false
			if s.state == models.SessionStatePlaying {
				s.state = models.SessionStatePaused
			}
		}
	case models.EventEnded:
		s.handleEndedLocked(evt)
	case models.EventError:
		s.handleErrorLocked(evt)
	case models.EventVolumeChange:
		if err := s.mgr.playerState.Set(models.PlayerState{Volume: evt.Volume, Muted: evt.Muted}); err != nil {
			log.Printf("[playback] session %s: persist player state: %v", s.ID, err)
		}
	default:
		log.Printf("[playback] session %s: ignoring unknown event %q", s.ID, evt.Type)
	}
	return nil
}

// handleLoadedMetadataLocked finishes whichever load was waiting on the
// player: a quality switch restores position and play state, a fresh item
// load applies the one-shot resume seek and the autoplay decision.
func (s *Session) handleLoadedMetadataLocked(evt models.PlayerEvent) {
	alreadyReady := s.metadataReady
	s.metadataReady = true
	s.initialized = true
	if evt.Duration > 0 && s.source != nil && s.source.Duration <= 0 {
		s.source.Duration = evt.Duration
	}

	if s.switching {
		s.completeSwitchLocked()
		return
	}
	if alreadyReady {
		// A buffer re-init can replay the event; the resume and autoplay
		// decisions are already made for this load.
		return
	}

	if pos, ok := s.resume.takeSeek(); ok {
		s.position = pos
		s.enqueueLocked(models.PlayerCommand{Type: models.CommandSeek, Position: pos, Reason: "resume"})
	}
	if s.pendingAutoplay {
		s.pendingAutoplay = false
		s.playing = true
		s.state = models.SessionStatePlaying
		s.enqueueLocked(models.PlayerCommand{Type: models.CommandPlay})
	} else {
		s.playing = false
		s.state = models.SessionStateReady
	}
}

func (s *Session) handleTimeUpdateLocked(evt models.PlayerEvent) {
	if s.switching {
		// The old source can emit a few more updates while it tears down;
		// they must not clobber the captured restore position.
		return
	}
	s.position = evt.Position
	s.persistProgressLocked(evt)
	s.maybeCountPlayLocked(evt)
	s.maybePrefetchLocked(evt)
}

func (s *Session) persistProgressLocked(evt models.PlayerEvent) {
	if s.item == nil {
		return
	}
	if time.Since(s.lastProgress) < s.mgr.cfg.ProgressWriteInterval {
		return
	}
	s.lastProgress = time.Now()
	s.mgr.saveProgress(s.item.ID, evt.Position, s.durationLocked(evt))
}

func (s *Session) maybeCountPlayLocked(evt models.PlayerEvent) {
	if s.playCounted || s.item == nil {
		return
	}
	d := s.durationLocked(evt)
	if d <= 0 {
		return
	}
	if evt.Position/d*100 < s.mgr.cfg.PlayedThresholdPercent {
		return
	}
	s.playCounted = true
	s.mgr.incrementPlayCount(s.item.ID)
}

// maybePrefetchLocked warms a transcode session for the upcoming item when
// the current one is close to ending. Only a deterministic successor is
// worth warming, and direct play needs no upstream session at all.
func (s *Session) maybePrefetchLocked(evt models.PlayerEvent) {
	if s.prefetched || s.quality.IsDirect() {
		return
	}
	d := s.durationLocked(evt)
	if d <= 0 || d-evt.Position > s.mgr.cfg.PrefetchThreshold.Seconds() {
		return
	}
	if s.playlist.Shuffle || s.playlist.RepeatMode == models.RepeatOne || !s.playlist.AutoplayNext {
		return
	}
	next := s.playlist.CurrentIndex + 1
	if next >= s.playlist.Len() {
		if s.playlist.RepeatMode != models.RepeatAll {
			return
		}
		next = 0
	}
	s.prefetched = true
	s.mgr.prefetch(s.playlist.ItemIDs[next], s.quality)
}

func (s *Session) handleEndedLocked(evt models.PlayerEvent) {
	if s.switching {
		return
	}
	s.playing = false
	if s.item != nil {
		if d := s.durationLocked(evt); d > 0 {
			// Record the item as finished so it drops out of
			// continue-watching.
			s.position = d
			s.mgr.saveProgress(s.item.ID, d, d)
		}
	}

	next, ok := advance(&s.playlist, s.rng)
	if !ok {
		s.state = models.SessionStateEnded
		return
	}
	if next == s.playlist.CurrentIndex {
		// Repeat-one (or a single-item shuffle round): restart in place
		// without reloading the source.
		s.position = 0
		s.playing = true
		s.state = models.SessionStatePlaying
		s.enqueueLocked(models.PlayerCommand{Type: models.CommandSeek, Position: 0, Reason: "repeat"})
		s.enqueueLocked(models.PlayerCommand{Type: models.CommandPlay})
		return
	}
	s.mgr.navigateLocked(s, next, navigation{autoplay: true, reason: "autoadvance"})
}

func (s *Session) handleErrorLocked(evt models.PlayerEvent) {
	log.Printf("[playback] session %s: player error class=%s position=%.1f message=%q",
		s.ID, evt.Error, evt.Position, evt.Message)

	if s.switching {
		// Teardown noise from the source being replaced.
		return
	}

	if s.item != nil && s.quality.IsDirect() && s.fallback.tryTrigger(evt.Error) {
		item := s.item
		epoch := s.epoch
		s.state = models.SessionStateLoading
		s.metadataReady = false
		s.playing = false
		s.mgr.goBackground(func() {
			s.mgr.performFallback(s, epoch, item)
		})
		return
	}

	switch evt.Error {
	case models.MediaErrAborted:
		// Autoplay refusal or a cancelled load; the user can press play.
		s.playing = false
		if s.state == models.SessionStatePlaying {
			s.state = models.SessionStatePaused
		}
	case models.MediaErrNetwork:
		// The player retries its own fetches; nothing to restart here.
	default:
		s.playing = false
		s.state = models.SessionStateFailed
		s.setNoticeLocked("playbackError", "Playback failed.")
	}
}

func (s *Session) status() *models.SessionStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() *models.SessionStatus {
	st := &models.SessionStatus{
		SessionID:      s.ID,
		State:          s.state,
		Quality:        s.quality,
		IsReady:        s.metadataReady && !s.switching && s.item != nil,
		IsSwitching:    s.switching,
		IsInitializing: !s.initialized && s.state != models.SessionStateFailed,
		Playing:        s.playing,
		Position:       s.position,
		Notice:         s.notice,
		UpdatedAt:      time.Now().UTC(),
		Playlist: &models.PlaylistStatus{
			Length:       s.playlist.Len(),
			CurrentIndex: s.playlist.CurrentIndex,
			Shuffle:      s.playlist.Shuffle,
			RepeatMode:   s.playlist.RepeatMode,
			AutoplayNext: s.playlist.AutoplayNext,
		},
	}
	if s.item != nil {
		st.ItemID = s.item.ID
		st.AspectRatio = s.item.AspectRatio()
	}
	if s.source != nil {
		src := *s.source
		st.Source = &src
	}
	return st
}
