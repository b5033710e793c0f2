package usecases

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/antigravity/internal/modules/music_player/application/ports"
	"github.com/sglre6355/antigravity/internal/modules/music_player/domain"
)

// JoinInput contains the input for the Join use case.
type JoinInput struct {
	GuildID               snowflake.ID
	UserID                snowflake.ID
	NotificationChannelID snowflake.ID
	VoiceChannelID        snowflake.ID // Optional: specific channel to join (0 means use user's channel)
	// StayConnected keeps an existing session where it is and only updates the
	// notification channel. The caller's voice channel is consulted only when disconnected.
	StayConnected bool
}

// JoinOutput contains the result of the Join use case.
type JoinOutput struct {
	VoiceChannelID snowflake.ID
	Moved          bool // true if an existing session was relocated
}

// LeaveInput contains the input for the Leave use case.
type LeaveInput struct {
	GuildID snowflake.ID
}

// BotVoiceStateChangeInput contains the input for handling bot voice state changes.
type BotVoiceStateChangeInput struct {
	GuildID      snowflake.ID
	NewChannelID *snowflake.ID // nil means disconnected
}

// VoiceChannelService handles voice channel operations.
type VoiceChannelService struct {
	repo            domain.PlayerStateRepository
	voiceConnection ports.VoiceConnection
	voiceState      ports.VoiceStateProvider
	audioPlayer     ports.AudioPlayer
	publisher       ports.EventPublisher
}

// NewVoiceChannelService creates a new VoiceChannelService.
func NewVoiceChannelService(
	repo domain.PlayerStateRepository,
	voiceConnection ports.VoiceConnection,
	voiceState ports.VoiceStateProvider,
	audioPlayer ports.AudioPlayer,
	publisher ports.EventPublisher,
) *VoiceChannelService {
	return &VoiceChannelService{
		repo:            repo,
		voiceConnection: voiceConnection,
		voiceState:      voiceState,
		audioPlayer:     audioPlayer,
		publisher:       publisher,
	}
}

// Join joins the bot to a voice channel, or moves the existing session there.
func (v *VoiceChannelService) Join(ctx context.Context, input JoinInput) (*JoinOutput, error) {
	if input.StayConnected {
		if output, ok := v.stayConnected(input); ok {
			return output, nil
		}
	}

	// Determine which channel to join
	voiceChannelID := input.VoiceChannelID
	if voiceChannelID == 0 {
		// Get user's current voice channel
		userChannel, err := v.voiceState.GetUserVoiceChannel(input.GuildID, input.UserID)
		if err != nil {
			return nil, err
		}
		if userChannel == nil {
			return nil, ErrUserNotInVoice
		}
		voiceChannelID = *userChannel
	}

	state := v.repo.GetOrCreate(input.GuildID)

	state.Lock()
	defer state.Unlock()

	if input.NotificationChannelID != 0 {
		state.SetNotificationChannelID(input.NotificationChannelID)
	}

	// Already connected to the same channel - nothing else to do
	if state.GetVoiceChannelID() == voiceChannelID {
		return &JoinOutput{VoiceChannelID: voiceChannelID}, nil
	}

	moving := state.IsConnected()
	previous := state.Status()
	if !moving {
		state.SetStatus(domain.StatusConnecting)
	}

	if err := v.voiceConnection.JoinChannel(ctx, input.GuildID, voiceChannelID); err != nil {
		if !moving {
			state.SetStatus(domain.StatusIdle)
		}
		return nil, fmt.Errorf("%w: %w", ErrVoiceConnect, err)
	}

	state.SetVoiceChannelID(voiceChannelID)
	state.SetStatus(previous)

	return &JoinOutput{VoiceChannelID: voiceChannelID, Moved: moving}, nil
}

// stayConnected reports the current channel when the guild already has a session.
func (v *VoiceChannelService) stayConnected(input JoinInput) (*JoinOutput, bool) {
	state := v.repo.Get(input.GuildID)
	if state == nil {
		return nil, false
	}

	state.Lock()
	defer state.Unlock()

	if !state.IsConnected() {
		return nil, false
	}
	if input.NotificationChannelID != 0 {
		state.SetNotificationChannelID(input.NotificationChannelID)
	}
	return &JoinOutput{VoiceChannelID: state.GetVoiceChannelID()}, true
}

// Leave stops playback without advancing the queue and disconnects from voice.
// The queue itself is kept for the next session.
func (v *VoiceChannelService) Leave(ctx context.Context, input LeaveInput) error {
	state := v.repo.Get(input.GuildID)
	if state == nil {
		return ErrNotConnected
	}

	state.Lock()
	defer state.Unlock()

	if !state.IsConnected() {
		return ErrNotConnected
	}

	v.teardownLocked(ctx, state)

	// Leave the channel
	if err := v.voiceConnection.LeaveChannel(ctx, input.GuildID); err != nil {
		return err
	}

	return nil
}

// HandleBotVoiceStateChange handles external voice state changes (bot moved or disconnected).
// This should be called when the bot's voice state changes due to external factors
// (e.g., being moved by a user or disconnected by Discord).
func (v *VoiceChannelService) HandleBotVoiceStateChange(
	ctx context.Context,
	input BotVoiceStateChangeInput,
) {
	state := v.repo.Get(input.GuildID)
	if state == nil {
		// No player state exists, nothing to do
		return
	}

	state.Lock()
	defer state.Unlock()

	if input.NewChannelID == nil {
		if !state.IsConnected() {
			return
		}

		// Bot was disconnected from voice by someone else
		v.teardownLocked(ctx, state)
		if err := v.voiceConnection.LeaveChannel(ctx, input.GuildID); err != nil {
			slog.Debug("failed to release voice connection after disconnect",
				"guild", input.GuildID,
				"error", err,
			)
		}
		return
	}

	// Bot was moved to a different channel
	if *input.NewChannelID != state.GetVoiceChannelID() {
		state.SetVoiceChannelID(*input.NewChannelID)
	}
}

// teardownLocked stops the stream so its end is not treated as a track change,
// removes the "Now Playing" message, requeues the interrupted track, and resets the session. Caller holds the state lock.
func (v *VoiceChannelService) teardownLocked(ctx context.Context, state *domain.PlayerState) {
	guildID := state.GetGuildID()

	if state.HasActiveStream() {
		if err := v.audioPlayer.Stop(ctx, guildID, domain.TrackEndTeardown); err != nil {
			slog.Warn("failed to stop stream during teardown", "guild", guildID, "error", err)
		}
	}

	// Publish event to delete the "Now Playing" message before we lose track of it
	if last := state.GetNowPlayingMessage(); last != nil && v.publisher != nil {
		if err := v.publisher.Publish(domain.PlaybackFinishedEvent{
			GuildID:               guildID,
			NotificationChannelID: state.GetNotificationChannelID(),
			LastMessage:           last,
		}); err != nil {
			slog.Warn("failed to publish event", "guild", guildID, "error", err)
		}
	}

	// The interrupted track plays again on the next join
	state.Queue.Requeue()
	state.ClearNowPlayingMessage()
	state.Disconnect()
}
