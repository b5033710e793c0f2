package infrastructure

import (
	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/antigravity/internal/modules/music_player/application/ports"
)

// VoiceStateProvider reads voice states from the session's gateway cache.
type VoiceStateProvider struct {
	state *discordgo.State
}

// NewVoiceStateProvider creates a new VoiceStateProvider.
func NewVoiceStateProvider(session *discordgo.Session) *VoiceStateProvider {
	return &VoiceStateProvider{
		state: session.State,
	}
}

// GetUserVoiceChannel returns the voice channel ID that the user is currently in,
// or nil if the user is not in a voice channel.
func (v *VoiceStateProvider) GetUserVoiceChannel(
	guildID, userID snowflake.ID,
) (*snowflake.ID, error) {
	vs, err := v.state.VoiceState(guildID.String(), userID.String())
	if err == discordgo.ErrStateNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return parseChannelID(vs.ChannelID)
}

// parseChannelID converts a gateway channel ID, where "" means none, to a snowflake.
func parseChannelID(channelID string) (*snowflake.ID, error) {
	if channelID == "" {
		return nil, nil
	}
	id, err := snowflake.Parse(channelID)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// Ensure VoiceStateProvider implements ports.VoiceStateProvider.
var _ ports.VoiceStateProvider = (*VoiceStateProvider)(nil)
