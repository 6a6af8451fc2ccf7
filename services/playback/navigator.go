package playback

import (
	"math/rand"

	"github.com/carrotwaxr/peek-stash-browser-sub011/models"
)

// Playlist traversal. These helpers are pure apart from updating the shuffle
// history on p; callers own the context and apply the returned index.

// advance computes where playback goes after the current item ends. It
// reports false when traversal stops (autoplay off, or the list is exhausted
// without repeat).
func advance(p *models.PlaylistContext, rng *rand.Rand) (int, bool) {
	if p.Len() == 0 {
		return 0, false
	}
	// Repeat-one restarts in place and overrides every other mode.
	if p.RepeatMode == models.RepeatOne {
		return p.CurrentIndex, true
	}
	if !p.AutoplayNext {
		return 0, false
	}
	return step(p, rng)
}

// nextExplicit computes the target of a user-initiated skip. The user asked
// to move, so repeat-one and the autoplay gate do not apply.
func nextExplicit(p *models.PlaylistContext, rng *rand.Rand) (int, bool) {
	if p.Len() == 0 {
		return 0, false
	}
	return step(p, rng)
}

// previous steps back through the shuffle history when shuffling, so "back"
// retraces the order actually played, and otherwise to the prior sequential
// index. The popped entry is removed, keeping the history consistent with
// the invariant that it never contains the playing index.
func previous(p *models.PlaylistContext) (int, bool) {
	n := p.Len()
	if n == 0 {
		return 0, false
	}
	if p.Shuffle {
		if h := len(p.ShuffleHistory); h > 0 {
			idx := p.ShuffleHistory[h-1]
			p.ShuffleHistory = p.ShuffleHistory[:h-1]
			return idx, true
		}
		return 0, false
	}
	if p.CurrentIndex > 0 {
		return p.CurrentIndex - 1, true
	}
	if p.RepeatMode == models.RepeatAll {
		return n - 1, true
	}
	return 0, false
}

func step(p *models.PlaylistContext, rng *rand.Rand) (int, bool) {
	if p.Shuffle {
		return stepShuffle(p, rng)
	}
	if p.CurrentIndex+1 < p.Len() {
		return p.CurrentIndex + 1, true
	}
	if p.RepeatMode == models.RepeatAll {
		return 0, true
	}
	return 0, false
}

// stepShuffle picks uniformly among the indices not yet played this round.
// When the round is exhausted it stops, unless repeat-all starts a fresh
// round with a cleared history. The departing index is recorded after the
// pick so the history never contains the index being played.
func stepShuffle(p *models.PlaylistContext, rng *rand.Rand) (int, bool) {
	candidates := shuffleCandidates(p)
	if len(candidates) == 0 {
		if p.RepeatMode != models.RepeatAll {
			return 0, false
		}
		p.ShuffleHistory = p.ShuffleHistory[:0]
		candidates = shuffleCandidates(p)
		if len(candidates) == 0 {
			// Single-item playlist: restart in place.
			return p.CurrentIndex, true
		}
	}
	next := candidates[rng.Intn(len(candidates))]
	p.ShuffleHistory = append(p.ShuffleHistory, p.CurrentIndex)
	return next, true
}

func shuffleCandidates(p *models.PlaylistContext) []int {
	played := make(map[int]struct{}, len(p.ShuffleHistory)+1)
	played[p.CurrentIndex] = struct{}{}
	for _, idx := range p.ShuffleHistory {
		played[idx] = struct{}{}
	}
	candidates := make([]int, 0, p.Len())
	for i := 0; i < p.Len(); i++ {
		if _, ok := played[i]; !ok {
			candidates = append(candidates, i)
		}
	}
	return candidates
}
