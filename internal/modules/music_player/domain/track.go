package domain

import (
	"strconv"
	"time"

	"github.com/disgoorg/snowflake/v2"
)

// TrackID identifies a track by its page URL.
type TrackID string

// Track represents a playable audio track. Tracks are never mutated after creation.
type Track struct {
	ID            TrackID
	Title         string
	Uploader      string
	Duration      time.Duration // zero when unknown
	StreamURL     string        // direct media URL fed to the transcoder
	PageURL       string        // human-facing page the track came from
	ThumbnailURL  string
	IsStream      bool
	RequesterID   snowflake.ID // Discord user who added the track
	RequesterName string       // Display name of the requester
	EnqueuedAt    time.Time
}

// NewTrack creates a new Track with the given parameters.
func NewTrack(
	title string,
	uploader string,
	duration time.Duration,
	streamURL string,
	pageURL string,
	thumbnailURL string,
	isStream bool,
	requesterID snowflake.ID,
	requesterName string,
) *Track {
	return &Track{
		ID:            TrackID(pageURL),
		Title:         title,
		Uploader:      uploader,
		Duration:      duration,
		StreamURL:     streamURL,
		PageURL:       pageURL,
		ThumbnailURL:  thumbnailURL,
		IsStream:      isStream,
		RequesterID:   requesterID,
		RequesterName: requesterName,
		EnqueuedAt:    time.Now().UTC(),
	}
}

// IsValid returns true if the track has the minimum required fields.
func (t *Track) IsValid() bool {
	return t.StreamURL != "" && t.Title != ""
}

// FormattedDuration returns the duration as a human-readable string (mm:ss or hh:mm:ss).
func (t *Track) FormattedDuration() string {
	if t.IsStream {
		return "LIVE"
	}
	if t.Duration <= 0 {
		return "Unknown"
	}

	totalSeconds := int(t.Duration.Seconds())
	hours := totalSeconds / 3600
	minutes := (totalSeconds % 3600) / 60
	seconds := totalSeconds % 60

	if hours > 0 {
		return formatTime(hours, minutes, seconds)
	}
	return formatTimeShort(minutes, seconds)
}

func formatTime(hours, minutes, seconds int) string {
	return pad(hours) + ":" + pad(minutes) + ":" + pad(seconds)
}

func formatTimeShort(minutes, seconds int) string {
	return pad(minutes) + ":" + pad(seconds)
}

func pad(n int) string {
	if n < 10 {
		return "0" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}
