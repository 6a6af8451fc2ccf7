package playback

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/carrotwaxr/peek-stash-browser-sub011/models"
)

const hlsMimeType = "application/vnd.apple.mpegurl"

// resolver turns an item plus a requested quality into a playable source.
// Direct play builds a stream URL from the library with no remote calls
// (beyond an optional content sniff when the container is unknown), while
// transcoded tiers ask the transcoder for a session and use its manifest.
type resolver struct {
	library    LibraryClient
	transcoder TranscoderClient
}

// resolve returns the source for item at quality. The returned transcode
// session is nil for direct play.
func (r *resolver) resolve(ctx context.Context, item *models.PlayableItem, quality models.QualityLevel) (*models.PlaybackSource, *models.TranscodeSession, error) {
	if quality.IsDirect() {
		return r.resolveDirect(ctx, item), nil, nil
	}

	ts, err := r.transcoder.CreateSession(ctx, item.ID, quality)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve %s at %s: %w", item.ID, quality, err)
	}
	return &models.PlaybackSource{
		URL:      ts.ManifestURL,
		MimeType: hlsMimeType,
		Duration: item.Duration,
	}, ts, nil
}

func (r *resolver) resolveDirect(ctx context.Context, item *models.PlayableItem) *models.PlaybackSource {
	f := item.PrimaryFile()
	duration := item.Duration
	if f != nil && f.Duration > 0 {
		duration = f.Duration
	}
	return &models.PlaybackSource{
		URL:      r.library.StreamURL(item.ID),
		MimeType: r.directMimeType(ctx, item, f),
		Duration: duration,
	}
}

// directMimeType maps the file's declared container to the MIME type handed
// to the player. Containers the table doesn't know are sniffed from the
// stream's leading bytes; if that also fails we fall back to video/mp4 and
// let the player's own error reporting drive recovery.
func (r *resolver) directMimeType(ctx context.Context, item *models.PlayableItem, f *models.MediaFile) string {
	if f != nil {
		switch strings.ToLower(f.Format) {
		case "mp4", "m4v":
			return "video/mp4"
		case "webm":
			return "video/webm"
		case "mkv", "matroska":
			return "video/x-matroska"
		case "mov", "quicktime":
			return "video/quicktime"
		case "avi":
			return "video/x-msvideo"
		case "ts", "m2ts", "mts":
			return "video/mp2t"
		case "ogv", "ogg":
			return "video/ogg"
		case "wmv":
			return "video/x-ms-wmv"
		case "flv":
			return "video/x-flv"
		}
	}

	mime, err := r.library.SniffMime(ctx, item.ID)
	if err != nil {
		log.Printf("[playback] mime sniff failed for item %s: %v", item.ID, err)
		return "video/mp4"
	}
	return mime
}
