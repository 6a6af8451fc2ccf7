package playback

import "errors"

var (
	// ErrSessionNotFound indicates the playback session id is unknown.
	ErrSessionNotFound = errors.New("playback session not found")
	// ErrSessionClosed indicates the session was disposed and accepts no
	// further events or actions.
	ErrSessionClosed = errors.New("playback session closed")
	// ErrEmptyPlaylist indicates a session was requested without items.
	ErrEmptyPlaylist = errors.New("playlist has no items")
	// ErrInvalidQuality indicates an unknown quality tier was requested.
	ErrInvalidQuality = errors.New("invalid quality level")
	// ErrInvalidStartIndex indicates the requested start position is outside
	// the playlist.
	ErrInvalidStartIndex = errors.New("start index out of range")
	// ErrInvalidRepeatMode indicates an unknown repeat mode was requested.
	ErrInvalidRepeatMode = errors.New("invalid repeat mode")
	// ErrNoItemLoaded indicates an action that needs a loaded item arrived
	// while the session has none yet.
	ErrNoItemLoaded = errors.New("no item loaded")
)
