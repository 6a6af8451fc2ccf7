package playback

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/carrotwaxr/peek-stash-browser-sub011/models"
)

const prefetchDedupTTL = 5 * time.Minute

// prefetcher warms transcoder sessions for upcoming playlist items so that
// auto-advance does not stall on session creation. Warms run on a bounded
// pool; repeats within the TTL are skipped, and the transcoder client's
// request coalescing absorbs races with a real load of the same item.
type prefetcher struct {
	transcoder TranscoderClient
	pool       *pool.Pool

	mu     sync.Mutex
	warmed map[string]time.Time
}

func newPrefetcher(transcoder TranscoderClient, workers int) *prefetcher {
	if workers <= 0 {
		workers = 2
	}
	return &prefetcher{
		transcoder: transcoder,
		pool:       pool.New().WithMaxGoroutines(workers),
		warmed:     make(map[string]time.Time),
	}
}

// warm schedules a transcode session for itemID at quality. Non-blocking.
func (p *prefetcher) warm(itemID string, quality models.QualityLevel) {
	key := itemID + "|" + string(quality)

	p.mu.Lock()
	if at, ok := p.warmed[key]; ok && time.Since(at) < prefetchDedupTTL {
		p.mu.Unlock()
		return
	}
	p.warmed[key] = time.Now()
	for k, at := range p.warmed {
		if time.Since(at) >= prefetchDedupTTL {
			delete(p.warmed, k)
		}
	}
	p.mu.Unlock()

	p.pool.Go(func() {
		if _, err := p.transcoder.CreateSession(context.Background(), itemID, quality); err != nil {
			log.Printf("[playback] prefetch of %s at %s failed: %v", itemID, quality, err)
			p.mu.Lock()
			delete(p.warmed, key)
			p.mu.Unlock()
			return
		}
		log.Printf("[playback] prefetched transcode session for %s at %s", itemID, quality)
	})
}

// close waits for in-flight warms to finish.
func (p *prefetcher) close() {
	p.pool.Wait()
}
