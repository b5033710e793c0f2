package ports

import (
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/antigravity/internal/modules/music_player/domain"
)

// TrackInfo contains information about a resolved track.
type TrackInfo struct {
	Title        string
	Uploader     string
	Duration     time.Duration // zero when unknown
	StreamURL    string        // may expire; start streaming promptly
	PageURL      string
	ThumbnailURL string
	IsStream     bool
}

// SearchResult is one candidate returned by a TrackSearcher.
type SearchResult struct {
	Title    string
	Uploader string
	URL      string
	Duration time.Duration
}

// NowPlayingInfo contains information for the "Now Playing" notification.
type NowPlayingInfo struct {
	Title         string
	Uploader      string
	Duration      string
	PageURL       string
	ThumbnailURL  string
	IsStream      bool
	RequesterID   snowflake.ID
	RequesterName string
	EnqueuedAt    time.Time
	Volume        domain.Volume
	Muted         bool
	LoopMode      domain.LoopMode
	QueueLength   int // pending tracks after this one
}

// UserInfo is the display information of a requester, resolved per guild so
// nicknames win over global names.
type UserInfo struct {
	DisplayName string
	AvatarURL   string
}

// UserInfoProvider looks up requester display information.
type UserInfoProvider interface {
	GetUserInfo(guildID, userID snowflake.ID) (*UserInfo, error)
}
