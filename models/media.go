package models

import "fmt"

// PlayableItem is a media item as loaded from the library server, carrying the
// file metadata needed to start playback. Immutable once loaded; navigating to
// a different item replaces it wholesale.
type PlayableItem struct {
	ID            string      `json:"id"`
	Title         string      `json:"title"`
	Duration      float64     `json:"duration"` // seconds
	Width         int         `json:"width,omitempty"`
	Height        int         `json:"height,omitempty"`
	Files         []MediaFile `json:"files,omitempty"`
	ScreenshotURL string      `json:"screenshotUrl,omitempty"`
	PreviewURL    string      `json:"previewUrl,omitempty"`
}

// MediaFile describes one stored file backing a playable item. The library
// server orders files with the primary source first.
type MediaFile struct {
	ID         string  `json:"id"`
	Format     string  `json:"format"` // container extension, e.g. "mp4", "mkv"
	VideoCodec string  `json:"videoCodec,omitempty"`
	AudioCodec string  `json:"audioCodec,omitempty"`
	Width      int     `json:"width,omitempty"`
	Height     int     `json:"height,omitempty"`
	Duration   float64 `json:"duration,omitempty"`
	Size       int64   `json:"size,omitempty"`
}

// PrimaryFile returns the item's main source file, or nil when the library
// reported no files.
func (p *PlayableItem) PrimaryFile() *MediaFile {
	if p == nil || len(p.Files) == 0 {
		return nil
	}
	return &p.Files[0]
}

// AspectRatio reports the display ratio as "w:h" straight from the item
// dimensions, so it is available before the player has loaded any metadata.
func (p *PlayableItem) AspectRatio() string {
	if p == nil || p.Width <= 0 || p.Height <= 0 {
		return ""
	}
	return fmt.Sprintf("%d:%d", p.Width, p.Height)
}
