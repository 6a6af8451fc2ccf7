package models

import "time"

// ResumeInfo is the watch-history read consulted once per item load.
type ResumeInfo struct {
	ResumeTime  float64      `json:"resumeTime"`
	LastQuality QualityLevel `json:"lastQuality,omitempty"`
}

// WatchProgress stores playback progress and per-item play stats for one
// media item.
type WatchProgress struct {
	ItemID       string       `json:"itemId"`
	ResumeTime   float64      `json:"resumeTime"` // last known position in seconds
	Duration     float64      `json:"duration"`   // total duration in seconds
	Percent      float64      `json:"percent"`    // ResumeTime/Duration * 100, clamped
	LastQuality  QualityLevel `json:"lastQuality,omitempty"`
	PlayCount    int          `json:"playCount"`
	LastPlayedAt time.Time    `json:"lastPlayedAt,omitempty"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}
