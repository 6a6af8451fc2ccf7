package models

// RepeatMode controls what happens when a session's playlist reaches its end.
type RepeatMode string

const (
	RepeatOff RepeatMode = "off"
	RepeatOne RepeatMode = "one"
	RepeatAll RepeatMode = "all"
)

// Valid reports whether m is a known repeat mode.
func (m RepeatMode) Valid() bool {
	switch m {
	case RepeatOff, RepeatOne, RepeatAll:
		return true
	}
	return false
}

// PlaylistContext is the already-ordered list of playable items a session
// traverses plus its traversal mode. The item list and mode flags are external
// input from the UI; CurrentIndex and ShuffleHistory are owned by the session
// controller. ShuffleHistory records indices visited in the current shuffle
// round; it never contains the current index and is cleared when a full cycle
// completes under repeat "all".
type PlaylistContext struct {
	ItemIDs        []string   `json:"itemIds"`
	CurrentIndex   int        `json:"currentIndex"`
	Shuffle        bool       `json:"shuffle"`
	RepeatMode     RepeatMode `json:"repeatMode"`
	AutoplayNext   bool       `json:"autoplayNext"`
	ShuffleHistory []int      `json:"shuffleHistory,omitempty"`
}

// Len returns the number of items in the playlist.
func (p *PlaylistContext) Len() int {
	if p == nil {
		return 0
	}
	return len(p.ItemIDs)
}

// CurrentItemID returns the item id at CurrentIndex, or "" when the index is
// out of range.
func (p *PlaylistContext) CurrentItemID() string {
	if p == nil || p.CurrentIndex < 0 || p.CurrentIndex >= len(p.ItemIDs) {
		return ""
	}
	return p.ItemIDs[p.CurrentIndex]
}
