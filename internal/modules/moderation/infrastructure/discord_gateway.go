package infrastructure

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/antigravity/internal/modules/moderation/application"
)

// DiscordMemberGateway performs moderation actions through the Discord REST API.
type DiscordMemberGateway struct {
	session *discordgo.Session
}

// NewDiscordMemberGateway creates a new DiscordMemberGateway.
func NewDiscordMemberGateway(session *discordgo.Session) *DiscordMemberGateway {
	return &DiscordMemberGateway{session: session}
}

// Kick removes the member from the guild, recording reason in the audit log.
func (g *DiscordMemberGateway) Kick(guildID, userID snowflake.ID, reason string) error {
	err := g.session.GuildMemberDeleteWithReason(guildID.String(), userID.String(), reason)
	return translateError("kick member", err)
}

// InVoice reports whether the member has a cached voice state with a channel.
func (g *DiscordMemberGateway) InVoice(guildID, userID snowflake.ID) bool {
	vs, err := g.session.State.VoiceState(guildID.String(), userID.String())
	return err == nil && vs.ChannelID != ""
}

// DisconnectVoice moves the member out of voice.
func (g *DiscordMemberGateway) DisconnectVoice(guildID, userID snowflake.ID) error {
	err := g.session.GuildMemberMove(guildID.String(), userID.String(), nil)
	return translateError("disconnect member", err)
}

// translateError maps Discord refusals onto ErrBotPermissionDenied.
func translateError(op string, err error) error {
	if err == nil {
		return nil
	}
	if isForbidden(err) {
		return fmt.Errorf("%s: %w", op, application.ErrBotPermissionDenied)
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}

func isForbidden(err error) bool {
	var restErr *discordgo.RESTError
	if !errors.As(err, &restErr) {
		return false
	}
	if restErr.Message != nil && restErr.Message.Code == discordgo.ErrCodeMissingPermissions {
		return true
	}
	return restErr.Response != nil && restErr.Response.StatusCode == http.StatusForbidden
}

// Ensure DiscordMemberGateway implements application.MemberGateway.
var _ application.MemberGateway = (*DiscordMemberGateway)(nil)
