package presentation

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/antigravity/internal/bot"
	"github.com/sglre6355/antigravity/internal/modules/moderation/application"
)

var errNotInGuild = errors.New("interaction outside of a guild")

// ModerationHandler handles the /kick and /silence commands.
type ModerationHandler struct {
	kick    *application.KickInteractor
	silence *application.SilenceInteractor
}

// NewModerationHandler creates a new ModerationHandler.
func NewModerationHandler(gateway application.MemberGateway) *ModerationHandler {
	return &ModerationHandler{
		kick:    application.NewKickInteractor(gateway),
		silence: application.NewSilenceInteractor(gateway),
	}
}

// target holds the parsed options shared by both commands.
type target struct {
	guildID snowflake.ID
	userID  snowflake.ID
	reason  string
	invoker *discordgo.Member
	mention string
}

func parseTarget(i *discordgo.InteractionCreate) (*target, error) {
	if i.Member == nil {
		return nil, errNotInGuild
	}
	guildID, err := snowflake.Parse(i.GuildID)
	if err != nil {
		return nil, err
	}

	t := &target{guildID: guildID, invoker: i.Member}
	for _, opt := range i.ApplicationCommandData().Options {
		switch opt.Name {
		case "member":
			user := opt.UserValue(nil)
			if t.userID, err = snowflake.Parse(user.ID); err != nil {
				return nil, err
			}
			t.mention = user.Mention()
		case "reason":
			t.reason = opt.StringValue()
		}
	}
	return t, nil
}

// hasPermission reports whether the invoker holds permission in the interaction channel.
func hasPermission(member *discordgo.Member, permission int64) bool {
	return member.Permissions&(permission|discordgo.PermissionAdministrator) != 0
}

// HandleKick processes the /kick command.
func (h *ModerationHandler) HandleKick(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	t, err := parseTarget(i)
	if err != nil {
		return respond(r, "This command can only be used in a server.", true)
	}

	output, err := h.kick.Execute(application.KickInput{
		GuildID:  t.guildID,
		TargetID: t.userID,
		Reason:   t.reason,
		Allowed:  hasPermission(t.invoker, discordgo.PermissionKickMembers),
	})
	switch {
	case errors.Is(err, application.ErrBotPermissionDenied):
		return respond(r, "I tried to yeet them, but they are too heavy (Missing Permissions).", true)
	case errors.Is(err, application.ErrPermissionDenied):
		return respond(r, "You don't have the power to yeet people!", true)
	case err != nil:
		slog.Warn("failed to kick member", "guild", t.guildID, "target", t.userID, "error", err)
		return respond(r, "Something went wrong.", true)
	}

	slog.Info("kicked member", "guild", t.guildID, "target", t.userID, "reason", output.Reason)
	return respond(r, fmt.Sprintf("%s was yeeted. Reason: %s 🚀", t.mention, output.Reason), false)
}

// HandleSilence processes the /silence command.
func (h *ModerationHandler) HandleSilence(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	t, err := parseTarget(i)
	if err != nil {
		return respond(r, "This command can only be used in a server.", true)
	}

	err = h.silence.Execute(application.SilenceInput{
		GuildID:  t.guildID,
		TargetID: t.userID,
		Allowed:  hasPermission(t.invoker, discordgo.PermissionVoiceMoveMembers),
	})
	switch {
	case errors.Is(err, application.ErrTargetNotInVoice):
		return respond(r, t.mention+" is not in a voice channel.", true)
	case errors.Is(err, application.ErrBotPermissionDenied):
		return respond(r, "I can't disconnect them (Missing Permissions).", true)
	case errors.Is(err, application.ErrPermissionDenied):
		return respond(r, "You don't have the power to silence people!", true)
	case err != nil:
		slog.Warn("failed to disconnect member", "guild", t.guildID, "target", t.userID, "error", err)
		return respond(r, "Something went wrong.", true)
	}

	return respond(r, t.mention+" has been silenced. 🤫", false)
}

func respond(r bot.Responder, content string, ephemeral bool) error {
	data := &discordgo.InteractionResponseData{Content: content}
	if ephemeral {
		data.Flags = discordgo.MessageFlagsEphemeral
	}
	return r.Respond(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	})
}
