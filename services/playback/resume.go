package playback

// resumeState gates the once-per-item resume seek. The saved position is
// read from watch history exactly once while the item loads; the seek itself
// fires on the first metadata arrival and never again for the same item.
type resumeState struct {
	requested  bool
	resumeTime float64
	hasResumed bool
}

// takeSeek returns the position to restore, consuming the one-shot guard.
// It reports false when no resume is due.
func (r *resumeState) takeSeek() (float64, bool) {
	if !r.requested || r.hasResumed || r.resumeTime <= 0 {
		return 0, false
	}
	r.hasResumed = true
	return r.resumeTime, true
}
