package playback

import (
	"math/rand"
	"testing"

	"github.com/carrotwaxr/peek-stash-browser-sub011/models"
)

func testRand() *rand.Rand {
	return rand.New(rand.NewSource(1))
}

func testPlaylist(n int) *models.PlaylistContext {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = string(rune('a' + i))
	}
	return &models.PlaylistContext{ItemIDs: ids, AutoplayNext: true, RepeatMode: models.RepeatOff}
}

func TestAdvanceSequential(t *testing.T) {
	p := testPlaylist(3)

	next, ok := advance(p, testRand())
	if !ok || next != 1 {
		t.Fatalf("advance from 0: got (%d, %v), want (1, true)", next, ok)
	}

	p.CurrentIndex = 2
	if _, ok := advance(p, testRand()); ok {
		t.Fatal("advance past the last item without repeat must stop")
	}

	p.RepeatMode = models.RepeatAll
	next, ok = advance(p, testRand())
	if !ok || next != 0 {
		t.Fatalf("repeat all wraps to the start: got (%d, %v)", next, ok)
	}
}

func TestAdvanceSingleItemRepeatAll(t *testing.T) {
	p := testPlaylist(1)
	p.RepeatMode = models.RepeatAll

	next, ok := advance(p, testRand())
	if !ok || next != 0 {
		t.Fatalf("single item under repeat all restarts in place: got (%d, %v)", next, ok)
	}

	p.Shuffle = true
	next, ok = advance(p, testRand())
	if !ok || next != 0 {
		t.Fatalf("shuffled single item under repeat all restarts in place: got (%d, %v)", next, ok)
	}
}

func TestAdvanceRepeatOneRestartsInPlace(t *testing.T) {
	p := testPlaylist(3)
	p.CurrentIndex = 1
	p.RepeatMode = models.RepeatOne
	p.AutoplayNext = false
	p.Shuffle = true
	p.ShuffleHistory = []int{0}

	next, ok := advance(p, testRand())
	if !ok || next != 1 {
		t.Fatalf("repeat one restarts the current item: got (%d, %v)", next, ok)
	}
	if len(p.ShuffleHistory) != 1 || p.ShuffleHistory[0] != 0 {
		t.Fatalf("repeat one must not touch the shuffle history, got %v", p.ShuffleHistory)
	}
}

func TestAdvanceStopsWhenAutoplayDisabled(t *testing.T) {
	p := testPlaylist(3)
	p.AutoplayNext = false

	if _, ok := advance(p, testRand()); ok {
		t.Fatal("advance must stop when autoplay is off")
	}

	p.RepeatMode = models.RepeatAll
	if _, ok := advance(p, testRand()); ok {
		t.Fatal("repeat all does not override the autoplay gate")
	}
}

func TestAdvanceShuffleVisitsEveryItemBeforeRepeating(t *testing.T) {
	p := testPlaylist(5)
	p.Shuffle = true
	p.RepeatMode = models.RepeatAll
	rng := testRand()

	visited := map[int]bool{p.CurrentIndex: true}
	for i := 0; i < 4; i++ {
		next, ok := advance(p, rng)
		if !ok {
			t.Fatalf("advance %d: traversal stopped early", i)
		}
		if visited[next] {
			t.Fatalf("advance %d revisited index %d before the round ended", i, next)
		}
		visited[next] = true
		p.CurrentIndex = next

		for _, h := range p.ShuffleHistory {
			if h == p.CurrentIndex {
				t.Fatalf("shuffle history %v contains the playing index %d", p.ShuffleHistory, p.CurrentIndex)
			}
		}
	}
	if len(visited) != 5 {
		t.Fatalf("expected all 5 items visited, got %d", len(visited))
	}
	if len(p.ShuffleHistory) != 4 {
		t.Fatalf("expected 4 history entries at the end of the round, got %v", p.ShuffleHistory)
	}

	// The round is exhausted; repeat all starts a new one seeded with the
	// index we are leaving.
	last := p.CurrentIndex
	next, ok := advance(p, rng)
	if !ok {
		t.Fatal("repeat all must start a new shuffle round")
	}
	if next == last {
		t.Fatalf("new round picked the item that just finished (%d)", next)
	}
	if len(p.ShuffleHistory) != 1 || p.ShuffleHistory[0] != last {
		t.Fatalf("new round history should be [%d], got %v", last, p.ShuffleHistory)
	}
}

func TestAdvanceShuffleStopsWhenRoundEndsWithoutRepeat(t *testing.T) {
	p := testPlaylist(3)
	p.Shuffle = true
	rng := testRand()

	for i := 0; i < 2; i++ {
		next, ok := advance(p, rng)
		if !ok {
			t.Fatalf("advance %d stopped early", i)
		}
		p.CurrentIndex = next
	}
	if _, ok := advance(p, rng); ok {
		t.Fatal("an exhausted shuffle round without repeat must stop")
	}
	if len(p.ShuffleHistory) != 2 {
		t.Fatalf("a stopped advance must not touch the history, got %v", p.ShuffleHistory)
	}
}

func TestNextExplicitIgnoresRepeatOneAndAutoplayGate(t *testing.T) {
	p := testPlaylist(3)
	p.CurrentIndex = 1
	p.RepeatMode = models.RepeatOne
	p.AutoplayNext = false

	next, ok := nextExplicit(p, testRand())
	if !ok || next != 2 {
		t.Fatalf("explicit next moves on despite repeat one: got (%d, %v), want (2, true)", next, ok)
	}

	p.CurrentIndex = 2
	p.RepeatMode = models.RepeatOff
	if _, ok := nextExplicit(p, testRand()); ok {
		t.Fatal("explicit next at the end without repeat must report no target")
	}
}

func TestPreviousSequential(t *testing.T) {
	p := testPlaylist(4)
	p.CurrentIndex = 2

	prev, ok := previous(p)
	if !ok || prev != 1 {
		t.Fatalf("previous from 2: got (%d, %v), want (1, true)", prev, ok)
	}

	p.CurrentIndex = 0
	if _, ok := previous(p); ok {
		t.Fatal("previous at the start without repeat must report no target")
	}

	p.RepeatMode = models.RepeatAll
	prev, ok = previous(p)
	if !ok || prev != 3 {
		t.Fatalf("previous at the start wraps under repeat all: got (%d, %v)", prev, ok)
	}
}

func TestPreviousShuffleRetracesHistory(t *testing.T) {
	p := testPlaylist(5)
	p.Shuffle = true
	p.CurrentIndex = 4
	p.ShuffleHistory = []int{3, 1}

	prev, ok := previous(p)
	if !ok || prev != 1 {
		t.Fatalf("previous pops the most recent history entry: got (%d, %v), want (1, true)", prev, ok)
	}
	if len(p.ShuffleHistory) != 1 || p.ShuffleHistory[0] != 3 {
		t.Fatalf("history after pop should be [3], got %v", p.ShuffleHistory)
	}

	prev, ok = previous(p)
	if !ok || prev != 3 {
		t.Fatalf("second previous: got (%d, %v), want (3, true)", prev, ok)
	}
	if _, ok := previous(p); ok {
		t.Fatal("previous with an empty shuffle history must report no target")
	}
}

func TestTraversalOnEmptyPlaylist(t *testing.T) {
	p := &models.PlaylistContext{AutoplayNext: true}
	if _, ok := advance(p, testRand()); ok {
		t.Fatal("advance on an empty playlist must stop")
	}
	if _, ok := nextExplicit(p, testRand()); ok {
		t.Fatal("explicit next on an empty playlist must stop")
	}
	if _, ok := previous(p); ok {
		t.Fatal("previous on an empty playlist must stop")
	}
}
