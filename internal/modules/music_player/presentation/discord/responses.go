package discord

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/antigravity/internal/bot"
	"github.com/sglre6355/antigravity/internal/modules/music_player/application/usecases"
	"github.com/sglre6355/antigravity/internal/modules/music_player/domain"
)

// Embed colors.
const (
	colorSuccess = 0x08c404
	colorError   = 0xE74C3C
	colorInfo    = 0x95A5A6
)

func respondEmbed(r bot.Responder, embed *discordgo.MessageEmbed, ephemeral bool) error {
	data := &discordgo.InteractionResponseData{
		Embeds: []*discordgo.MessageEmbed{embed},
	}
	if ephemeral {
		data.Flags = discordgo.MessageFlagsEphemeral
	}
	return r.Respond(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	})
}

func editEmbed(r bot.Responder, embed *discordgo.MessageEmbed) error {
	return r.Edit(&discordgo.WebhookEdit{
		Embeds: &[]*discordgo.MessageEmbed{embed},
	})
}

func successEmbed(description string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Description: description,
		Color:       colorSuccess,
	}
}

func errorEmbed(message string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "Error",
		Description: message,
		Color:       colorError,
	}
}

func respondError(r bot.Responder, message string) error {
	return respondEmbed(r, errorEmbed(message), false)
}

func editError(r bot.Responder, message string) error {
	return editEmbed(r, errorEmbed(message))
}

func noResultsMessage(query string) string {
	return fmt.Sprintf("No results found for **%s**.", query)
}

func respondJoined(r bot.Responder, voiceChannelID snowflake.ID, moved bool) error {
	description := fmt.Sprintf("Connected to <#%d>.", voiceChannelID)
	if moved {
		description = fmt.Sprintf("Moved to <#%d>.", voiceChannelID)
	}
	return respondEmbed(r, successEmbed(description), false)
}

func respondDisconnected(r bot.Responder) error {
	return respondEmbed(r, successEmbed("Disconnected."), false)
}

func respondStopped(r bot.Responder) error {
	return respondEmbed(r, successEmbed("Stopped playback and cleared the queue."), false)
}

func respondPaused(r bot.Responder) error {
	return respondEmbed(r, successEmbed("Paused playback."), false)
}

func respondResumed(r bot.Responder) error {
	return respondEmbed(r, successEmbed("Resumed playback."), false)
}

func respondSkipped(r bot.Responder, track *domain.Track) error {
	return respondEmbed(r, successEmbed("Skipped "+trackLink(track)+"."), false)
}

func respondPrevious(r bot.Responder, track *domain.Track) error {
	return respondEmbed(r, successEmbed("Playing "+trackLink(track)+" again."), false)
}

func respondShuffled(r bot.Responder, count int) error {
	return respondEmbed(r, successEmbed(fmt.Sprintf("Shuffled %d tracks.", count)), false)
}

func respondVolumeChanged(r bot.Responder, volume domain.Volume) error {
	return respondEmbed(r, successEmbed(fmt.Sprintf("Volume set to %s.", volume)), false)
}

func respondLoopModeChanged(r bot.Responder, mode domain.LoopMode) error {
	return respondEmbed(r, successEmbed(loopModeMessage(mode)), false)
}

func loopModeMessage(mode domain.LoopMode) string {
	switch mode {
	case domain.LoopModeTrack:
		return "Now looping the current track."
	case domain.LoopModeQueue:
		return "Now looping the queue."
	default:
		return "Loop disabled."
	}
}

func editQueueAdded(r bot.Responder, track *domain.Track, position int, wasIdle bool) error {
	description := fmt.Sprintf("Added %s to the queue.", trackLink(track))
	if !wasIdle {
		description = fmt.Sprintf("Added %s to the queue at position %d.", trackLink(track), position)
	}

	embed := successEmbed(description)
	if track.ThumbnailURL != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: track.ThumbnailURL}
	}
	return editEmbed(r, embed)
}

func respondQueueEmpty(r bot.Responder, ephemeral bool) error {
	return respondEmbed(r, &discordgo.MessageEmbed{
		Title:       "Queue",
		Description: "Queue is empty.",
		Color:       colorInfo,
	}, ephemeral)
}

func respondQueueList(r bot.Responder, output *usecases.QueueListOutput, ephemeral bool) error {
	return respondEmbed(r, queueEmbed(output), ephemeral)
}

// queueEmbed lists the current track and the first pending tracks, 1-indexed.
func queueEmbed(output *usecases.QueueListOutput) *discordgo.MessageEmbed {
	// Build title with loop mode indicator
	title := "Queue"
	switch output.LoopMode {
	case domain.LoopModeTrack:
		title = "Queue \U0001F502" // 🔂
	case domain.LoopModeQueue:
		title = "Queue \U0001F501" // 🔁
	}

	var sb strings.Builder
	if output.CurrentTrack != nil {
		sb.WriteString("### Now Playing\n")
		fmt.Fprintf(&sb, "%s - %s\n", trackLink(output.CurrentTrack), uploaderOrUnknown(output.CurrentTrack))
	}

	if len(output.Tracks) > 0 {
		sb.WriteString("### Up Next\n")
		for i, track := range output.Tracks {
			writeTrackLine(&sb, i+1, track)
		}
		if rest := output.TotalTracks - len(output.Tracks); rest > 0 {
			fmt.Fprintf(&sb, "...and %d more\n", rest)
		}
	}

	return &discordgo.MessageEmbed{
		Title:       title,
		Description: sb.String(),
		Color:       colorInfo,
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("%d up next • Volume %s", output.TotalTracks, output.Volume),
		},
	}
}

// writeTrackLine writes one numbered queue entry.
// The period is escaped to prevent Discord markdown list formatting.
func writeTrackLine(sb *strings.Builder, position int, track *domain.Track) {
	fmt.Fprintf(sb, "%d\\. %s - %s `%s`\n",
		position,
		trackLink(track),
		uploaderOrUnknown(track),
		track.FormattedDuration(),
	)
}

func trackLink(track *domain.Track) string {
	if track == nil {
		return "the track"
	}
	if track.PageURL != "" {
		return fmt.Sprintf("[%s](%s)", track.Title, track.PageURL)
	}
	return fmt.Sprintf("**%s**", track.Title)
}

func boldTitle(track *domain.Track) string {
	if track == nil {
		return "the track"
	}
	return "**" + track.Title + "**"
}

func uploaderOrUnknown(track *domain.Track) string {
	if track.Uploader == "" {
		return "Unknown"
	}
	return track.Uploader
}
