package moderation

import (
	"github.com/bwmarrin/discordgo"
	"github.com/sglre6355/antigravity/internal/bot"
	"github.com/sglre6355/antigravity/internal/modules/moderation/infrastructure"
	"github.com/sglre6355/antigravity/internal/modules/moderation/presentation"
)

func init() {
	bot.Register(&ModerationModule{})
}

// ModerationModule provides the /kick and /silence commands.
type ModerationModule struct {
	handler *presentation.ModerationHandler
}

// Name returns the module name.
func (m *ModerationModule) Name() string {
	return "moderation"
}

// Commands returns the slash commands for this module.
func (m *ModerationModule) Commands() []*discordgo.ApplicationCommand {
	return presentation.Commands()
}

// CommandHandlers returns the command handlers for this module.
func (m *ModerationModule) CommandHandlers() map[string]bot.InteractionHandler {
	return map[string]bot.InteractionHandler{
		"kick":    m.handler.HandleKick,
		"silence": m.handler.HandleSilence,
	}
}

// EventHandlers returns the event handlers for this module.
func (m *ModerationModule) EventHandlers() []bot.EventHandler {
	return nil
}

// Init initializes the module.
func (m *ModerationModule) Init(deps bot.ModuleDependencies) error {
	m.handler = presentation.NewModerationHandler(
		infrastructure.NewDiscordMemberGateway(deps.Session),
	)
	return nil
}

// Shutdown cleans up module resources.
func (m *ModerationModule) Shutdown() error {
	return nil
}
