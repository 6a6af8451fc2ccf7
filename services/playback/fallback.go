package playback

import (
	"context"
	"log"

	"github.com/carrotwaxr/peek-stash-browser-sub011/models"
)

// fallbackGuard is the one-shot state for automatic codec-failure recovery.
// A fresh guard is armed on every direct-play attempt; once it fires it stays
// spent until the next item load arms a new one, so a direct source gets at
// most one automatic rescue.
type fallbackGuard struct {
	triggered bool
}

func newFallbackGuard() *fallbackGuard {
	return &fallbackGuard{}
}

// tryTrigger reports whether class should start the fallback. Only codec
// failures qualify; network and abort errors are left to the player.
// Guarded by the owning session's mutex.
func (g *fallbackGuard) tryTrigger(class models.MediaErrorClass) bool {
	if g == nil || g.triggered {
		return false
	}
	if !class.IsCodecFailure() {
		return false
	}
	g.triggered = true
	return true
}

// performFallback swaps a direct source that the player cannot decode for a
// transcoded one at the configured fallback quality. Runs off the session
// lock; the epoch check on completion discards the result if the session
// moved on while the transcoder was working.
func (m *Manager) performFallback(s *Session, epoch int64, item *models.PlayableItem) {
	ctx := context.Background()
	src, ts, err := m.resolver.resolve(ctx, item, m.cfg.FallbackQuality)

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.aliveLocked(epoch) {
		if ts != nil {
			m.releaseTranscode(ts.ID)
		}
		log.Printf("[playback] session %s: discarding stale fallback result for item %s", s.ID, item.ID)
		return
	}

	if err != nil {
		log.Printf("[playback] session %s: fallback transcode failed for item %s: %v", s.ID, item.ID, err)
		s.playing = false
		s.state = models.SessionStatePaused
		s.setNoticeLocked("fallbackFailed", "Playback failed and could not be recovered automatically.")
		return
	}

	log.Printf("[playback] session %s: falling back to %s for item %s", s.ID, m.cfg.FallbackQuality, item.ID)

	s.swapTranscodeLocked(ts)
	s.source = src
	s.quality = m.cfg.FallbackQuality
	s.metadataReady = false
	s.position = 0
	s.playing = true
	s.state = models.SessionStateLoading
	s.pendingAutoplay = true
	s.hasPendingSeek = false
	// The rescue restarts from the beginning, so a still-armed resume seek
	// must not fire against the replacement source.
	s.resume.hasResumed = true
	s.enqueueLocked(models.PlayerCommand{Type: models.CommandSetSource, Source: src, Reason: "fallback"})
	s.setNoticeLocked("fallback", "Direct playback failed; switched to a compatible stream.")

	m.reportQualityUsed(item.ID, m.cfg.FallbackQuality)
}
