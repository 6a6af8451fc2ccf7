package models

import "time"

// QualityLevel identifies direct play or a named transcoded tier. Exactly one
// is current per playback session.
type QualityLevel string

const (
	QualityDirect QualityLevel = "direct"
	Quality4K     QualityLevel = "4k"
	Quality1080p  QualityLevel = "1080p"
	Quality720p   QualityLevel = "720p"
	Quality480p   QualityLevel = "480p"
	Quality240p   QualityLevel = "240p"
)

// IsDirect reports whether the level plays the original file unmodified.
func (q QualityLevel) IsDirect() bool { return q == QualityDirect }

// Valid reports whether q is a known quality tier.
func (q QualityLevel) Valid() bool {
	switch q {
	case QualityDirect, Quality4K, Quality1080p, Quality720p, Quality480p, Quality240p:
		return true
	}
	return false
}

// PlaybackSource is the resolved, player-consumable representation of an
// (item, quality) pair. A fresh value is produced on every quality or item
// change; existing values are never mutated in place.
type PlaybackSource struct {
	URL      string  `json:"url"`
	MimeType string  `json:"mimeType"`
	Duration float64 `json:"duration"` // seconds
}

// TranscodeSession references a live session on the remote transcoder. The
// transcoder owns its lifetime; holders keep only the identifier and drop it
// when the item changes.
type TranscodeSession struct {
	ID          string `json:"id"`
	ManifestURL string `json:"manifestUrl"`
}

// SessionState identifies where a playback session is in its lifecycle.
type SessionState string

const (
	SessionStateUninitialized SessionState = "uninitialized"
	SessionStateLoading       SessionState = "loading"
	SessionStateReady         SessionState = "ready"
	SessionStatePlaying       SessionState = "playing"
	SessionStatePaused        SessionState = "paused"
	SessionStateSwitching     SessionState = "switching"
	SessionStateEnded         SessionState = "ended"
	SessionStateFailed        SessionState = "failed"
	SessionStateDisposed      SessionState = "disposed"
)

// CommandType names one instruction for the player surface.
type CommandType string

const (
	CommandSetSource CommandType = "setSource"
	CommandPlay      CommandType = "play"
	CommandPause     CommandType = "pause"
	CommandSeek      CommandType = "seek"
)

// PlayerCommand is a queued instruction for the player surface. Commands
// accumulate per session and the UI drains them in order.
type PlayerCommand struct {
	Type     CommandType     `json:"type"`
	Source   *PlaybackSource `json:"source,omitempty"`
	Position float64         `json:"position,omitempty"`
	Reason   string          `json:"reason,omitempty"`
}

// EventType names one player lifecycle notification.
type EventType string

const (
	EventLoadedMetadata EventType = "loadedmetadata"
	EventTimeUpdate     EventType = "timeupdate"
	EventPlay           EventType = "play"
	EventPause          EventType = "pause"
	EventEnded          EventType = "ended"
	EventError          EventType = "error"
	EventVolumeChange   EventType = "volumechange"
)

// MediaErrorClass classifies player error events the way the media element
// reports them. Only codec classes may trigger an automatic fallback.
type MediaErrorClass string

const (
	MediaErrAborted         MediaErrorClass = "aborted"
	MediaErrNetwork         MediaErrorClass = "network"
	MediaErrDecode          MediaErrorClass = "decode"
	MediaErrSrcNotSupported MediaErrorClass = "src-not-supported"
)

// IsCodecFailure reports whether the class means the source itself cannot be
// decoded, as opposed to a transport problem or a user-initiated interruption.
func (c MediaErrorClass) IsCodecFailure() bool {
	return c == MediaErrDecode || c == MediaErrSrcNotSupported
}

// PlayerEvent is one player notification posted by the UI surface.
type PlayerEvent struct {
	Type     EventType       `json:"type"`
	Position float64         `json:"position,omitempty"`
	Duration float64         `json:"duration,omitempty"`
	Error    MediaErrorClass `json:"error,omitempty"`
	Message  string          `json:"message,omitempty"`
	Volume   float64         `json:"volume"`
	Muted    bool            `json:"muted"`
}

// SessionStatus is the observable snapshot handed to the UI for indicators.
type SessionStatus struct {
	SessionID      string          `json:"sessionId"`
	State          SessionState    `json:"state"`
	ItemID         string          `json:"itemId,omitempty"`
	Quality        QualityLevel    `json:"quality"`
	IsReady        bool            `json:"isReady"`
	IsSwitching    bool            `json:"isSwitching"`
	IsInitializing bool            `json:"isInitializing"`
	Playing        bool            `json:"playing"`
	Position       float64         `json:"position"`
	AspectRatio    string          `json:"aspectRatio,omitempty"`
	Source         *PlaybackSource `json:"source,omitempty"`
	Playlist       *PlaylistStatus `json:"playlist,omitempty"`
	Notice         *Notice         `json:"notice,omitempty"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// PlaylistStatus summarizes traversal state for the status snapshot.
type PlaylistStatus struct {
	Length       int        `json:"length"`
	CurrentIndex int        `json:"currentIndex"`
	Shuffle      bool       `json:"shuffle"`
	RepeatMode   RepeatMode `json:"repeatMode"`
	AutoplayNext bool       `json:"autoplayNext"`
}

// Notice is a transient, dismissible message describing a recovered failure.
type Notice struct {
	Code      string    `json:"code"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

// PlayerState is the locally persisted player preference set: last-used
// volume and mute flag. Read once at startup, written on every volume change.
type PlayerState struct {
	Volume float64 `json:"volume"`
	Muted  bool    `json:"muted"`
}
