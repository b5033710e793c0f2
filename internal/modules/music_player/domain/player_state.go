package domain

import (
	"sync"

	"github.com/disgoorg/snowflake/v2"
)

// PlaybackStatus is the playback engine state for a guild.
type PlaybackStatus int

const (
	StatusIdle PlaybackStatus = iota
	StatusConnecting
	StatusPlaying
	StatusPaused
	StatusTransitioning // between tracks, after a stream ended and before the next starts
)

// String returns a human-readable representation of the status.
func (s PlaybackStatus) String() string {
	switch s {
	case StatusConnecting:
		return "connecting"
	case StatusPlaying:
		return "playing"
	case StatusPaused:
		return "paused"
	case StatusTransitioning:
		return "transitioning"
	default:
		return "idle"
	}
}

// Transition tells the completion handler how to pick the next track.
type Transition int

const (
	// TransitionAdvance follows the loop mode.
	TransitionAdvance Transition = iota
	// TransitionSkip moves past the current track even when looping it.
	TransitionSkip
	// TransitionReplay restarts Queue.Current without advancing.
	TransitionReplay
)

// StreamID identifies one audio stream. Every started stream gets a new ID,
// so a completion report for an earlier stream can be recognized as stale.
type StreamID uint64

// NowPlayingMessage stores the channel and message ID for a "Now Playing" message.
// Both values are needed for deletion since the message may be in a different channel
// than the current notification channel if the user switched channels while playing.
type NowPlayingMessage struct {
	ChannelID snowflake.ID
	MessageID snowflake.ID
}

// PlayerState owns everything the bot knows about one guild's playback.
// Callers must hold the state's lock (Lock/Unlock) while reading or mutating it;
// queue mutation and starting a stream happen inside one critical section.
type PlayerState struct {
	mu sync.Mutex

	guildID               snowflake.ID
	voiceChannelID        snowflake.ID       // 0 when not connected
	notificationChannelID snowflake.ID       // Text channel for notifications
	nowPlayingMessage     *NowPlayingMessage // "Now Playing" message info (for deletion)
	Queue                 Queue
	status                PlaybackStatus
	muted                 bool
	activeStream          StreamID // 0 when no stream is attached
	consecutiveFailures   int
	transition            Transition // consumed by the next stream completion
}

// NewPlayerState creates a new idle PlayerState for the given guild.
func NewPlayerState(guildID snowflake.ID) *PlayerState {
	return &PlayerState{
		guildID: guildID,
		Queue:   NewQueue(),
		status:  StatusIdle,
	}
}

// Lock acquires the guild's critical section.
func (p *PlayerState) Lock() {
	p.mu.Lock()
}

// Unlock releases the guild's critical section.
func (p *PlayerState) Unlock() {
	p.mu.Unlock()
}

// GetGuildID returns the guild ID.
func (p *PlayerState) GetGuildID() snowflake.ID {
	// No lock: guildID must not be modified after initialization
	return p.guildID
}

// GetVoiceChannelID returns the current voice channel ID.
func (p *PlayerState) GetVoiceChannelID() snowflake.ID {
	return p.voiceChannelID
}

// SetVoiceChannelID updates the voice channel ID.
func (p *PlayerState) SetVoiceChannelID(channelID snowflake.ID) {
	p.voiceChannelID = channelID
}

// IsConnected returns true if the bot is in a voice channel for this guild.
func (p *PlayerState) IsConnected() bool {
	return p.voiceChannelID != 0
}

// GetNotificationChannelID returns the text channel used for notifications.
func (p *PlayerState) GetNotificationChannelID() snowflake.ID {
	return p.notificationChannelID
}

// SetNotificationChannelID updates the notification channel ID.
func (p *PlayerState) SetNotificationChannelID(channelID snowflake.ID) {
	p.notificationChannelID = channelID
}

// Status returns the playback status.
func (p *PlayerState) Status() PlaybackStatus {
	return p.status
}

// SetStatus sets the playback status.
func (p *PlayerState) SetStatus(status PlaybackStatus) {
	p.status = status
}

// IsIdle returns true when no stream is attached and none is being started.
func (p *PlayerState) IsIdle() bool {
	return p.status == StatusIdle
}

// IsPaused returns true if playback is paused.
func (p *PlayerState) IsPaused() bool {
	return p.status == StatusPaused
}

// ActiveStream returns the attached stream ID, or 0 when none is attached.
func (p *PlayerState) ActiveStream() StreamID {
	return p.activeStream
}

// HasActiveStream returns true if a stream is attached.
func (p *PlayerState) HasActiveStream() bool {
	return p.activeStream != 0
}

// AttachStream records id as the active stream and marks playback as playing.
func (p *PlayerState) AttachStream(id StreamID) {
	p.activeStream = id
	p.status = StatusPlaying
}

// DetachStream forgets the active stream and returns to idle.
func (p *PlayerState) DetachStream() {
	p.activeStream = 0
	p.status = StatusIdle
}

// IsMuted returns true if output is muted.
func (p *PlayerState) IsMuted() bool {
	return p.muted
}

// SetMuted sets whether output is muted. The queue volume is left untouched,
// so unmuting restores the previous level exactly.
func (p *PlayerState) SetMuted(muted bool) {
	p.muted = muted
}

// EffectiveVolume returns the gain to apply to the stream.
func (p *PlayerState) EffectiveVolume() Volume {
	if p.muted {
		return MinVolume
	}
	return p.Queue.Volume()
}

// RecordFailure counts one failed stream and returns the consecutive count.
func (p *PlayerState) RecordFailure() int {
	p.consecutiveFailures++
	return p.consecutiveFailures
}

// ResetFailures clears the consecutive failure count.
func (p *PlayerState) ResetFailures() {
	p.consecutiveFailures = 0
}

// ConsecutiveFailures returns the number of streams that failed in a row.
func (p *PlayerState) ConsecutiveFailures() int {
	return p.consecutiveFailures
}

// SetTransition sets how the next stream completion picks its track.
func (p *PlayerState) SetTransition(t Transition) {
	p.transition = t
}

// TakeTransition returns the pending transition and resets it to TransitionAdvance.
func (p *PlayerState) TakeTransition() Transition {
	t := p.transition
	p.transition = TransitionAdvance
	return t
}

// GetNowPlayingMessage returns a copy of the "Now Playing" message info.
func (p *PlayerState) GetNowPlayingMessage() *NowPlayingMessage {
	if p.nowPlayingMessage == nil {
		return nil
	}
	return &NowPlayingMessage{
		ChannelID: p.nowPlayingMessage.ChannelID,
		MessageID: p.nowPlayingMessage.MessageID,
	}
}

// SetNowPlayingMessage stores the "Now Playing" message info for later deletion.
func (p *PlayerState) SetNowPlayingMessage(channelID, messageID snowflake.ID) {
	p.nowPlayingMessage = &NowPlayingMessage{
		ChannelID: channelID,
		MessageID: messageID,
	}
}

// ClearNowPlayingMessage clears the stored "Now Playing" message info.
func (p *PlayerState) ClearNowPlayingMessage() {
	p.nowPlayingMessage = nil
}

// Disconnect resets the voice session fields. The queue is kept.
func (p *PlayerState) Disconnect() {
	p.voiceChannelID = 0
	p.activeStream = 0
	p.status = StatusIdle
	p.muted = false
	p.transition = TransitionAdvance
	p.consecutiveFailures = 0
}
