package presentation

import "github.com/bwmarrin/discordgo"

var (
	kickPermission    int64 = discordgo.PermissionKickMembers
	silencePermission int64 = discordgo.PermissionVoiceMoveMembers
)

// Commands returns the moderation slash commands.
func Commands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:                     "kick",
			Description:              "Kick a member from the server",
			DefaultMemberPermissions: &kickPermission,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionUser,
					Name:        "member",
					Description: "Member to kick",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "reason",
					Description: "Reason shown in the audit log",
					MaxLength:   512,
				},
			},
		},
		{
			Name:                     "silence",
			Description:              "Disconnect a member from voice",
			DefaultMemberPermissions: &silencePermission,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionUser,
					Name:        "member",
					Description: "Member to disconnect",
					Required:    true,
				},
			},
		},
	}
}
