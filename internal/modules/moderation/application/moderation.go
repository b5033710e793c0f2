package application

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/antigravity/internal/modules/moderation/domain"
)

var (
	// ErrPermissionDenied is returned when the invoker or the bot lacks a permission.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrBotPermissionDenied is the ErrPermissionDenied variant for Discord refusing the bot.
	ErrBotPermissionDenied = fmt.Errorf("bot %w", ErrPermissionDenied)
	// ErrTargetNotInVoice is returned when silencing a member who is not in a voice channel.
	ErrTargetNotInVoice = errors.New("target not in voice channel")
)

// MemberGateway performs moderation actions against the chat platform.
// Implementations return ErrBotPermissionDenied when the platform refuses the action.
type MemberGateway interface {
	Kick(guildID, userID snowflake.ID, reason string) error
	InVoice(guildID, userID snowflake.ID) bool
	DisconnectVoice(guildID, userID snowflake.ID) error
}

// KickInput contains the input for the Kick use case.
type KickInput struct {
	GuildID  snowflake.ID
	TargetID snowflake.ID
	Reason   string
	Allowed  bool
}

// KickOutput contains the result of the Kick use case.
type KickOutput struct {
	Reason string
}

// KickInteractor handles the kick use case.
type KickInteractor struct {
	gateway MemberGateway
	pick    func(n int) int
}

// NewKickInteractor creates a new KickInteractor.
func NewKickInteractor(gateway MemberGateway) *KickInteractor {
	return &KickInteractor{
		gateway: gateway,
		pick:    rand.IntN,
	}
}

// Execute kicks the target member, choosing a reason when none was given.
func (k *KickInteractor) Execute(input KickInput) (*KickOutput, error) {
	if !input.Allowed {
		return nil, ErrPermissionDenied
	}

	reason := domain.KickReason(input.Reason, k.pick)
	if err := k.gateway.Kick(input.GuildID, input.TargetID, reason); err != nil {
		return nil, err
	}

	return &KickOutput{Reason: reason}, nil
}

// SilenceInput contains the input for the Silence use case.
type SilenceInput struct {
	GuildID  snowflake.ID
	TargetID snowflake.ID
	Allowed  bool
}

// SilenceInteractor handles the voice-disconnect use case.
type SilenceInteractor struct {
	gateway MemberGateway
}

// NewSilenceInteractor creates a new SilenceInteractor.
func NewSilenceInteractor(gateway MemberGateway) *SilenceInteractor {
	return &SilenceInteractor{gateway: gateway}
}

// Execute disconnects the target member from voice.
func (s *SilenceInteractor) Execute(input SilenceInput) error {
	if !input.Allowed {
		return ErrPermissionDenied
	}
	if !s.gateway.InVoice(input.GuildID, input.TargetID) {
		return ErrTargetNotInVoice
	}
	return s.gateway.DisconnectVoice(input.GuildID, input.TargetID)
}
