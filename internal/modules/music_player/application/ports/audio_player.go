package ports

import (
	"context"
	"errors"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/antigravity/internal/modules/music_player/domain"
)

// ErrNoVoiceSession is returned when an audio operation needs a voice connection
// the guild does not have.
var ErrNoVoiceSession = errors.New("no voice session for guild")

// AudioPlayer defines the interface for audio playback operations.
// Every stream started by Play ends with exactly one domain.TrackEndedEvent
// carrying the returned StreamID.
type AudioPlayer interface {
	// Play starts streaming the track at the given volume, replacing any current stream.
	// An error means the stream could not be constructed and no end event will follow.
	Play(
		ctx context.Context,
		guildID snowflake.ID,
		track *domain.Track,
		volume domain.Volume,
	) (domain.StreamID, error)

	// Stop ends the current stream, tagging its end event with reason.
	// It is a no-op when nothing is streaming.
	Stop(ctx context.Context, guildID snowflake.ID, reason domain.TrackEndReason) error

	// Pause pauses the current stream. No-op when nothing is streaming.
	Pause(ctx context.Context, guildID snowflake.ID) error

	// Resume resumes the paused stream. No-op when nothing is streaming.
	Resume(ctx context.Context, guildID snowflake.ID) error

	// SetVolume changes the gain of the current stream without interrupting it.
	SetVolume(ctx context.Context, guildID snowflake.ID, volume domain.Volume) error
}
