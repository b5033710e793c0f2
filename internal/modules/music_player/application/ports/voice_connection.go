package ports

import (
	"context"

	"github.com/disgoorg/snowflake/v2"
)

// VoiceConnection joins and leaves guild voice channels.
type VoiceConnection interface {
	// JoinChannel connects the bot to the specified voice channel.
	// When already connected in the guild the existing session is moved instead.
	// Implementations give up after a bounded connect timeout.
	JoinChannel(ctx context.Context, guildID, channelID snowflake.ID) error

	// LeaveChannel disconnects the bot from the voice channel.
	LeaveChannel(ctx context.Context, guildID snowflake.ID) error
}

// VoiceStateProvider reads which voice channel a member is in.
type VoiceStateProvider interface {
	// GetUserVoiceChannel returns nil when the user is not in a voice channel.
	GetUserVoiceChannel(guildID, userID snowflake.ID) (*snowflake.ID, error)
}
