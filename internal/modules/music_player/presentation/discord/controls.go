package discord

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/antigravity/internal/bot"
	"github.com/sglre6355/antigravity/internal/modules/music_player/application/ports"
	"github.com/sglre6355/antigravity/internal/modules/music_player/application/usecases"
	"github.com/sglre6355/antigravity/internal/modules/music_player/domain"
)

// ControlPrefix is the custom ID prefix routed to the control handler.
const ControlPrefix = "music"

// Control actions, the part of the custom ID after the prefix.
const (
	actionPrevious = "previous"
	actionPause    = "pause"
	actionSkip     = "skip"
	actionShuffle  = "shuffle"
	actionLoop     = "loop"
	actionStop     = "stop"
	actionQueue    = "queue"
	actionVolDown  = "voldown"
	actionVolUp    = "volup"
	actionMute     = "mute"
)

func controlID(action string) string {
	return ControlPrefix + ":" + action
}

// ControlComponents builds the button rows attached to the "Now Playing" message.
func ControlComponents(controls usecases.ControlsOutput) []discordgo.MessageComponent {
	pauseLabel := "⏸ Pause"
	if controls.Paused {
		pauseLabel = "▶ Resume"
	}

	muteLabel := "🔇 Mute"
	if controls.Muted {
		muteLabel = "🔈 Unmute"
	}

	loopLabel, loopStyle := loopButton(controls.LoopMode)

	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{Label: "⏮ Previous", Style: discordgo.SecondaryButton, CustomID: controlID(actionPrevious)},
				discordgo.Button{Label: pauseLabel, Style: discordgo.SecondaryButton, CustomID: controlID(actionPause)},
				discordgo.Button{Label: "⏭ Skip", Style: discordgo.SecondaryButton, CustomID: controlID(actionSkip)},
				discordgo.Button{Label: "🔀 Shuffle", Style: discordgo.SecondaryButton, CustomID: controlID(actionShuffle)},
				discordgo.Button{Label: loopLabel, Style: loopStyle, CustomID: controlID(actionLoop)},
			},
		},
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{Label: "⏹ Stop", Style: discordgo.DangerButton, CustomID: controlID(actionStop)},
				discordgo.Button{Label: "📜 Queue", Style: discordgo.SecondaryButton, CustomID: controlID(actionQueue)},
				discordgo.Button{Label: "🔉 Vol -", Style: discordgo.SecondaryButton, CustomID: controlID(actionVolDown)},
				discordgo.Button{Label: "🔊 Vol +", Style: discordgo.SecondaryButton, CustomID: controlID(actionVolUp)},
				discordgo.Button{Label: muteLabel, Style: discordgo.SecondaryButton, CustomID: controlID(actionMute)},
			},
		},
	}
}

// NowPlayingComponents adapts the controls to a freshly started track.
func NowPlayingComponents(info *ports.NowPlayingInfo) []discordgo.MessageComponent {
	return ControlComponents(usecases.ControlsOutput{
		Connected: true,
		Muted:     info.Muted,
		LoopMode:  info.LoopMode,
	})
}

func loopButton(mode domain.LoopMode) (string, discordgo.ButtonStyle) {
	switch mode {
	case domain.LoopModeQueue:
		return "🔁 Loop: Queue", discordgo.SuccessButton
	case domain.LoopModeTrack:
		return "🔂 Loop: Track", discordgo.PrimaryButton
	default:
		return "🔁 Loop: Off", discordgo.SecondaryButton
	}
}

// ControlHandlers handles presses on the "Now Playing" buttons.
type ControlHandlers struct {
	playback *usecases.PlaybackService
	queue    *usecases.QueueService
}

// NewControlHandlers creates new ControlHandlers.
func NewControlHandlers(
	playback *usecases.PlaybackService,
	queue *usecases.QueueService,
) *ControlHandlers {
	return &ControlHandlers{
		playback: playback,
		queue:    queue,
	}
}

// HandleControl dispatches a button press by its action.
// Actions that change state refresh the buttons in place and acknowledge privately;
// actions that cannot apply answer with a private notice instead of failing.
func (h *ControlHandlers) HandleControl(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	_, action, _ := strings.Cut(i.MessageComponentData().CustomID, ":")

	guildID, err := snowflake.Parse(i.GuildID)
	if err != nil {
		return respondNotice(r, "These controls only work in a server.")
	}

	if action == actionQueue {
		return h.showQueue(r, guildID)
	}

	if !h.playback.Controls(guildID).Connected {
		return respondNotice(r, "I'm not connected to a voice channel.")
	}

	ack, err := h.apply(context.Background(), guildID, action)
	if err != nil {
		if !isExpected(err) {
			slog.Warn("control action failed", "action", action, "guild", guildID, "error", err)
		}
		return respondNotice(r, userMessage(err))
	}

	if err := r.Respond(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{
			Components: ControlComponents(h.playback.Controls(guildID)),
		},
	}); err != nil {
		return err
	}

	return r.Followup(&discordgo.WebhookParams{
		Content: ack,
		Flags:   discordgo.MessageFlagsEphemeral,
	})
}

// apply runs the action and returns the acknowledgment for the presser.
func (h *ControlHandlers) apply(ctx context.Context, guildID snowflake.ID, action string) (string, error) {
	switch action {
	case actionPrevious:
		output, err := h.playback.Previous(ctx, usecases.PreviousInput{GuildID: guildID})
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("⏮ Playing %s again.", boldTitle(output.Track)), nil

	case actionPause:
		output, err := h.playback.TogglePause(ctx, usecases.TogglePauseInput{GuildID: guildID})
		if err != nil {
			return "", err
		}
		if output.Paused {
			return "⏸ Paused.", nil
		}
		return "▶ Resumed.", nil

	case actionSkip:
		output, err := h.playback.Skip(ctx, usecases.SkipInput{GuildID: guildID})
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("⏭ Skipped %s.", boldTitle(output.SkippedTrack)), nil

	case actionShuffle:
		output, err := h.queue.Shuffle(usecases.QueueShuffleInput{GuildID: guildID})
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("🔀 Shuffled %d tracks.", output.ShuffledCount), nil

	case actionLoop:
		output, err := h.playback.CycleLoopMode(ctx, usecases.CycleLoopModeInput{GuildID: guildID})
		if err != nil {
			return "", err
		}
		return loopModeMessage(output.NewMode), nil

	case actionStop:
		if err := h.playback.Stop(ctx, usecases.StopInput{GuildID: guildID}); err != nil {
			return "", err
		}
		return "⏹ Stopped playback and cleared the queue.", nil

	case actionVolDown, actionVolUp:
		delta := domain.VolumeStep
		if action == actionVolDown {
			delta = -delta
		}
		output, err := h.playback.AdjustVolume(ctx, usecases.AdjustVolumeInput{
			GuildID: guildID,
			Delta:   delta,
		})
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("🔊 Volume: %s", output.Volume), nil

	case actionMute:
		output, err := h.playback.ToggleMute(ctx, usecases.ToggleMuteInput{GuildID: guildID})
		if err != nil {
			return "", err
		}
		if output.Muted {
			return "🔇 Muted.", nil
		}
		return fmt.Sprintf("🔈 Unmuted at %s.", output.Volume), nil

	default:
		return "", errUnknownControl
	}
}

var errUnknownControl = errors.New("unknown control")

func (h *ControlHandlers) showQueue(r bot.Responder, guildID snowflake.ID) error {
	output, err := h.queue.List(usecases.QueueListInput{GuildID: guildID})
	if errors.Is(err, usecases.ErrQueueEmpty) {
		return respondQueueEmpty(r, true)
	}
	if err != nil {
		return respondNotice(r, userMessage(err))
	}
	return respondQueueList(r, output, true)
}

// respondNotice answers only the presser, leaving the controls untouched.
func respondNotice(r bot.Responder, message string) error {
	return r.Respond(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: message,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
}
