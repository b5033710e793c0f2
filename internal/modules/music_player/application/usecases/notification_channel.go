package usecases

import (
	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/antigravity/internal/modules/music_player/domain"
)

// NotificationChannelService handles updating the notification channel for a guild's player.
type NotificationChannelService struct {
	repo domain.PlayerStateRepository
}

// NewNotificationChannelService creates a new NotificationChannelService.
func NewNotificationChannelService(repo domain.PlayerStateRepository) *NotificationChannelService {
	return &NotificationChannelService{repo: repo}
}

// SetNotificationChannelInput contains the input for the Set use case.
type SetNotificationChannelInput struct {
	GuildID   snowflake.ID
	ChannelID snowflake.ID
}

// Set updates the notification channel for the guild's player state.
func (n *NotificationChannelService) Set(input SetNotificationChannelInput) error {
	state := n.repo.Get(input.GuildID)
	if state == nil {
		return ErrNotConnected
	}

	state.Lock()
	defer state.Unlock()

	state.SetNotificationChannelID(input.ChannelID)

	return nil
}
