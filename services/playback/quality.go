package playback

import (
	"context"
	"log"
	"time"

	"github.com/carrotwaxr/peek-stash-browser-sub011/models"
)

// ChangeQuality starts a user-initiated switch to a different quality tier.
// The protocol captures position and play state, pauses the player, resolves
// the replacement source off the lock, and finishes the restore when the new
// source reports metadata. On any failure the prior source, quality, and
// position stay as they were.
func (m *Manager) ChangeQuality(sessionID string, quality models.QualityLevel) (*models.SessionStatus, error) {
	if !quality.Valid() {
		return nil, ErrInvalidQuality
	}
	s, err := m.get(sessionID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrSessionClosed
	}
	if s.item == nil {
		return nil, ErrNoItemLoaded
	}
	s.lastActive = time.Now()
	if quality == s.quality || s.switching {
		return s.snapshotLocked(), nil
	}

	item := s.item
	epoch := s.epoch
	priorState := s.state

	log.Printf("[playback] session %s: switching quality %s -> %s at %.1fs",
		s.ID, s.quality, quality, s.position)

	s.switching = true
	s.state = models.SessionStateSwitching
	s.metadataReady = false
	s.pendingSeek = s.position
	s.hasPendingSeek = s.position > 0
	s.pendingPlay = s.playing
	s.playing = false
	s.enqueueLocked(models.PlayerCommand{Type: models.CommandPause, Reason: "qualitySwitch"})

	m.goBackground(func() {
		m.performSwitch(s, epoch, item, quality, priorState)
	})

	return s.snapshotLocked(), nil
}

func (m *Manager) performSwitch(s *Session, epoch int64, item *models.PlayableItem, quality models.QualityLevel, priorState models.SessionState) {
	src, ts, err := m.resolver.resolve(context.Background(), item, quality)

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.aliveLocked(epoch) || !s.switching {
		if ts != nil {
			m.releaseTranscode(ts.ID)
		}
		log.Printf("[playback] session %s: discarding stale quality switch to %s", s.ID, quality)
		return
	}

	if err != nil {
		log.Printf("[playback] session %s: quality switch to %s failed: %v", s.ID, quality, err)
		s.switching = false
		s.hasPendingSeek = false
		// The prior source was never unloaded, so its metadata is still
		// good; resume exactly where the switch interrupted.
		s.metadataReady = true
		s.state = priorState
		if s.pendingPlay {
			s.pendingPlay = false
			s.playing = true
			s.enqueueLocked(models.PlayerCommand{Type: models.CommandPlay})
		}
		s.setNoticeLocked("qualitySwitchFailed", "Could not switch quality; continuing at the current stream.")
		return
	}

	s.swapTranscodeLocked(ts)
	s.source = src
	s.quality = quality
	s.enqueueLocked(models.PlayerCommand{Type: models.CommandSetSource, Source: src, Reason: "qualitySwitch"})
	m.reportQualityUsed(item.ID, quality)
	// switching stays set; the player's metadata event drives
	// completeSwitchLocked for the seek and play restore.
}

// completeSwitchLocked finishes the switch once the replacement source has
// metadata: restore the captured position, then the prior play state.
func (s *Session) completeSwitchLocked() {
	s.switching = false
	if s.hasPendingSeek {
		s.hasPendingSeek = false
		s.position = s.pendingSeek
		s.enqueueLocked(models.PlayerCommand{Type: models.CommandSeek, Position: s.pendingSeek, Reason: "restorePosition"})
	}
	if s.pendingPlay {
		s.pendingPlay = false
		s.playing = true
		s.state = models.SessionStatePlaying
		s.enqueueLocked(models.PlayerCommand{Type: models.CommandPlay})
	} else {
		s.playing = false
		s.state = models.SessionStatePaused
	}
}
