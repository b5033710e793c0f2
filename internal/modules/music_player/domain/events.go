package domain

import (
	"github.com/disgoorg/snowflake/v2"
)

// Event is implemented by every event published on the music player's event bus.
type Event interface {
	EventGuildID() snowflake.ID
}

// TrackEndReason represents why a stream ended.
type TrackEndReason string

const (
	// TrackEndFinished means the source ran out of audio.
	TrackEndFinished TrackEndReason = "finished"
	// TrackEndStopped means the stream was stopped by skip, stop or previous.
	TrackEndStopped TrackEndReason = "stopped"
	// TrackEndErrored means decoding or sending failed.
	TrackEndErrored TrackEndReason = "errored"
	// TrackEndTeardown means the voice session is going away.
	TrackEndTeardown TrackEndReason = "teardown"
)

// ShouldAdvanceQueue returns true if this end reason should advance the queue.
func (r TrackEndReason) ShouldAdvanceQueue() bool {
	return r != TrackEndTeardown
}

// TrackEnqueuedEvent is published when a track is added to the queue.
type TrackEnqueuedEvent struct {
	GuildID snowflake.ID
	Track   *Track
	WasIdle bool // true if no track was playing when this was enqueued
}

// TrackEndedEvent is published exactly once per stream by the audio player,
// from the goroutine that pumped the stream.
type TrackEndedEvent struct {
	GuildID    snowflake.ID
	StreamID   StreamID
	Reason     TrackEndReason
	FramesSent int   // audio frames delivered before the stream ended
	Err        error // set when Reason is TrackEndErrored
}

// PlaybackStartedEvent is published when a track starts playing.
type PlaybackStartedEvent struct {
	GuildID               snowflake.ID
	Track                 *Track
	NotificationChannelID snowflake.ID
}

// PlaybackFinishedEvent is published when playback stops with nothing left to play.
// This signals that the "Now Playing" message should be deleted.
type PlaybackFinishedEvent struct {
	GuildID               snowflake.ID
	NotificationChannelID snowflake.ID
	LastMessage           *NowPlayingMessage // "Now Playing" message to delete
	QueueFinished         bool               // the queue ran dry, as opposed to a disconnect
}

// PlaybackFailedEvent is published when a track could not be played.
// Fatal is set when the consecutive failure limit was hit and the queue was cleared.
type PlaybackFailedEvent struct {
	GuildID               snowflake.ID
	Track                 *Track
	NotificationChannelID snowflake.ID
	Err                   error
	Fatal                 bool
}

func (e TrackEnqueuedEvent) EventGuildID() snowflake.ID    { return e.GuildID }
func (e TrackEndedEvent) EventGuildID() snowflake.ID       { return e.GuildID }
func (e PlaybackStartedEvent) EventGuildID() snowflake.ID  { return e.GuildID }
func (e PlaybackFinishedEvent) EventGuildID() snowflake.ID { return e.GuildID }
func (e PlaybackFailedEvent) EventGuildID() snowflake.ID   { return e.GuildID }
