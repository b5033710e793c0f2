package discord

import (
	"context"
	"errors"
	"log/slog"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/antigravity/internal/bot"
	"github.com/sglre6355/antigravity/internal/modules/music_player/application/usecases"
	"github.com/sglre6355/antigravity/internal/modules/music_player/domain"
)

// CommandHandlers holds all the slash command handlers.
type CommandHandlers struct {
	voiceChannel        *usecases.VoiceChannelService
	playback            *usecases.PlaybackService
	queue               *usecases.QueueService
	trackLoader         *usecases.TrackLoaderService
	notificationChannel *usecases.NotificationChannelService
}

// NewCommandHandlers creates new CommandHandlers.
func NewCommandHandlers(
	voiceChannel *usecases.VoiceChannelService,
	playback *usecases.PlaybackService,
	queue *usecases.QueueService,
	trackLoader *usecases.TrackLoaderService,
	notificationChannel *usecases.NotificationChannelService,
) *CommandHandlers {
	return &CommandHandlers{
		voiceChannel:        voiceChannel,
		playback:            playback,
		queue:               queue,
		trackLoader:         trackLoader,
		notificationChannel: notificationChannel,
	}
}

// interactionContext carries the identifiers every music command needs.
type interactionContext struct {
	guildID   snowflake.ID
	userID    snowflake.ID
	channelID snowflake.ID
	member    *discordgo.Member
}

var errNotInGuild = errors.New("interaction outside of a guild")

func parseInteraction(i *discordgo.InteractionCreate) (*interactionContext, error) {
	if i.Member == nil || i.Member.User == nil {
		return nil, errNotInGuild
	}

	guildID, err := snowflake.Parse(i.GuildID)
	if err != nil {
		return nil, err
	}
	userID, err := snowflake.Parse(i.Member.User.ID)
	if err != nil {
		return nil, err
	}
	channelID, err := snowflake.Parse(i.ChannelID)
	if err != nil {
		return nil, err
	}

	return &interactionContext{
		guildID:   guildID,
		userID:    userID,
		channelID: channelID,
		member:    i.Member,
	}, nil
}

// HandleJoin handles the /join command.
func (h *CommandHandlers) HandleJoin(
	s *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	ic, err := parseInteraction(i)
	if err != nil {
		return respondError(r, "This command can only be used in a server.")
	}

	var voiceChannelID snowflake.ID
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == "channel" {
			voiceChannelID, _ = snowflake.Parse(opt.ChannelValue(s).ID)
		}
	}

	output, err := h.voiceChannel.Join(context.Background(), usecases.JoinInput{
		GuildID:               ic.guildID,
		UserID:                ic.userID,
		NotificationChannelID: ic.channelID,
		VoiceChannelID:        voiceChannelID,
	})
	if err != nil {
		return respondFailure(r, "join", err)
	}

	return respondJoined(r, output.VoiceChannelID, output.Moved)
}

// HandleLeave handles the /leave command.
func (h *CommandHandlers) HandleLeave(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	ic, err := parseInteraction(i)
	if err != nil {
		return respondError(r, "This command can only be used in a server.")
	}

	if err := h.voiceChannel.Leave(context.Background(), usecases.LeaveInput{
		GuildID: ic.guildID,
	}); err != nil {
		return respondFailure(r, "leave", err)
	}

	return respondDisconnected(r)
}

// HandlePlay handles the /play command.
// Resolution can take seconds, so the reply is deferred and edited once the track is queued.
func (h *CommandHandlers) HandlePlay(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	ic, err := parseInteraction(i)
	if err != nil {
		return respondError(r, "This command can only be used in a server.")
	}

	var query string
	var source domain.SearchSource
	for _, opt := range i.ApplicationCommandData().Options {
		switch opt.Name {
		case "query":
			query = opt.StringValue()
		case "source":
			source = domain.ParseSearchSource(opt.StringValue())
		}
	}

	if err := r.Respond(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	}); err != nil {
		return err
	}

	ctx := context.Background()

	// 1. Join the caller's voice channel unless a session is already running
	if _, err := h.voiceChannel.Join(ctx, usecases.JoinInput{
		GuildID:               ic.guildID,
		UserID:                ic.userID,
		NotificationChannelID: ic.channelID,
		StayConnected:         true,
	}); err != nil {
		return editFailure(r, "play", err)
	}

	// 2. Resolve the query; the queue is untouched when nothing is found
	loaded, err := h.trackLoader.LoadTrack(ctx, usecases.LoadTrackInput{
		Query:         query,
		Source:        source,
		GuildID:       ic.guildID,
		RequesterID:   ic.userID,
		RequesterName: getDisplayName(ic.member),
	})
	if errors.Is(err, usecases.ErrNoResults) {
		return editError(r, noResultsMessage(query))
	}
	if err != nil {
		return editFailure(r, "play", err)
	}

	// 3. Enqueue; playback starts from the enqueued event when the guild was idle
	added, err := h.queue.Add(ctx, usecases.QueueAddInput{
		GuildID:               ic.guildID,
		Track:                 loaded.Track,
		NotificationChannelID: ic.channelID,
	})
	if err != nil {
		return editFailure(r, "play", err)
	}

	return editQueueAdded(r, loaded.Track, added.Position, added.WasIdle)
}

// HandleStop handles the /stop command.
func (h *CommandHandlers) HandleStop(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	ic, err := parseInteraction(i)
	if err != nil {
		return respondError(r, "This command can only be used in a server.")
	}

	h.followChannel(ic)

	if err := h.playback.Stop(context.Background(), usecases.StopInput{
		GuildID: ic.guildID,
	}); err != nil {
		return respondFailure(r, "stop", err)
	}

	return respondStopped(r)
}

// HandlePause handles the /pause command.
func (h *CommandHandlers) HandlePause(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	ic, err := parseInteraction(i)
	if err != nil {
		return respondError(r, "This command can only be used in a server.")
	}

	if err := h.playback.Pause(context.Background(), usecases.PauseInput{
		GuildID:               ic.guildID,
		NotificationChannelID: ic.channelID,
	}); err != nil {
		return respondFailure(r, "pause", err)
	}

	return respondPaused(r)
}

// HandleResume handles the /resume command.
func (h *CommandHandlers) HandleResume(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	ic, err := parseInteraction(i)
	if err != nil {
		return respondError(r, "This command can only be used in a server.")
	}

	if err := h.playback.Resume(context.Background(), usecases.ResumeInput{
		GuildID:               ic.guildID,
		NotificationChannelID: ic.channelID,
	}); err != nil {
		return respondFailure(r, "resume", err)
	}

	return respondResumed(r)
}

// HandleSkip handles the /skip command.
func (h *CommandHandlers) HandleSkip(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	ic, err := parseInteraction(i)
	if err != nil {
		return respondError(r, "This command can only be used in a server.")
	}

	output, err := h.playback.Skip(context.Background(), usecases.SkipInput{
		GuildID:               ic.guildID,
		NotificationChannelID: ic.channelID,
	})
	if err != nil {
		return respondFailure(r, "skip", err)
	}

	// "Now Playing" for the next track is posted separately by the notification handler
	return respondSkipped(r, output.SkippedTrack)
}

// HandlePrevious handles the /previous command.
func (h *CommandHandlers) HandlePrevious(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	ic, err := parseInteraction(i)
	if err != nil {
		return respondError(r, "This command can only be used in a server.")
	}

	output, err := h.playback.Previous(context.Background(), usecases.PreviousInput{
		GuildID:               ic.guildID,
		NotificationChannelID: ic.channelID,
	})
	if err != nil {
		return respondFailure(r, "previous", err)
	}

	return respondPrevious(r, output.Track)
}

// HandleQueue handles the /queue command.
func (h *CommandHandlers) HandleQueue(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	ic, err := parseInteraction(i)
	if err != nil {
		return respondError(r, "This command can only be used in a server.")
	}

	h.followChannel(ic)

	output, err := h.queue.List(usecases.QueueListInput{GuildID: ic.guildID})
	if errors.Is(err, usecases.ErrQueueEmpty) {
		return respondQueueEmpty(r, false)
	}
	if err != nil {
		return respondFailure(r, "queue", err)
	}

	return respondQueueList(r, output, false)
}

// HandleShuffle handles the /shuffle command.
func (h *CommandHandlers) HandleShuffle(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	ic, err := parseInteraction(i)
	if err != nil {
		return respondError(r, "This command can only be used in a server.")
	}

	h.followChannel(ic)

	output, err := h.queue.Shuffle(usecases.QueueShuffleInput{GuildID: ic.guildID})
	if err != nil {
		return respondFailure(r, "shuffle", err)
	}

	return respondShuffled(r, output.ShuffledCount)
}

// HandleVolume handles the /volume command.
func (h *CommandHandlers) HandleVolume(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	ic, err := parseInteraction(i)
	if err != nil {
		return respondError(r, "This command can only be used in a server.")
	}

	h.followChannel(ic)

	var percent int64
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == "level" {
			percent = opt.IntValue()
		}
	}

	output, err := h.playback.SetVolume(context.Background(), usecases.SetVolumeInput{
		GuildID: ic.guildID,
		Volume:  domain.Volume(float64(percent) / 100).Clamp(),
	})
	if err != nil {
		return respondFailure(r, "volume", err)
	}

	return respondVolumeChanged(r, output.Volume)
}

// HandleLoop handles the /loop command.
func (h *CommandHandlers) HandleLoop(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	ic, err := parseInteraction(i)
	if err != nil {
		return respondError(r, "This command can only be used in a server.")
	}

	ctx := context.Background()

	var modeStr string
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == "mode" {
			modeStr = opt.StringValue()
		}
	}

	var newMode domain.LoopMode
	if modeStr != "" {
		mode := domain.ParseLoopMode(modeStr)
		if err := h.playback.SetLoopMode(ctx, usecases.SetLoopModeInput{
			GuildID:               ic.guildID,
			Mode:                  mode,
			NotificationChannelID: ic.channelID,
		}); err != nil {
			return respondFailure(r, "loop", err)
		}
		newMode = mode
	} else {
		output, err := h.playback.CycleLoopMode(ctx, usecases.CycleLoopModeInput{
			GuildID:               ic.guildID,
			NotificationChannelID: ic.channelID,
		})
		if err != nil {
			return respondFailure(r, "loop", err)
		}
		newMode = output.NewMode
	}

	return respondLoopModeChanged(r, newMode)
}

// followChannel moves player notifications to the channel the command came from.
// Guilds without a player have nothing to move.
func (h *CommandHandlers) followChannel(ic *interactionContext) {
	_ = h.notificationChannel.Set(usecases.SetNotificationChannelInput{
		GuildID:   ic.guildID,
		ChannelID: ic.channelID,
	})
}

// userMessage converts a usecase error into the notice shown to the user.
func userMessage(err error) string {
	switch {
	case errors.Is(err, usecases.ErrUserNotInVoice):
		return "You must be in a voice channel."
	case errors.Is(err, usecases.ErrVoiceConnect):
		return "Couldn't connect to the voice channel. Please try again."
	case errors.Is(err, usecases.ErrNotConnected):
		return "I'm not connected to a voice channel."
	case errors.Is(err, usecases.ErrNotPlaying):
		return "Nothing is playing right now."
	case errors.Is(err, usecases.ErrNoHistory):
		return "There is no previous track."
	case errors.Is(err, usecases.ErrQueueEmpty):
		return "The queue is empty."
	case errors.Is(err, usecases.ErrNoResults):
		return "No results found."
	case errors.Is(err, usecases.ErrResolution):
		return "Couldn't look up that track. Please try again later."
	case errors.Is(err, usecases.ErrStreamConstruction):
		return "Couldn't start playback."
	default:
		return "Something went wrong."
	}
}

// isExpected reports whether err is an ordinary outcome of user input rather than a fault.
func isExpected(err error) bool {
	for _, target := range []error{
		usecases.ErrUserNotInVoice,
		usecases.ErrNotConnected,
		usecases.ErrNotPlaying,
		usecases.ErrNoHistory,
		usecases.ErrQueueEmpty,
		usecases.ErrNoResults,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func logFailure(command string, err error) {
	if isExpected(err) {
		slog.Debug("command rejected", "command", command, "reason", err)
		return
	}
	slog.Warn("command failed", "command", command, "error", err)
}

func respondFailure(r bot.Responder, command string, err error) error {
	logFailure(command, err)
	return respondError(r, userMessage(err))
}

func editFailure(r bot.Responder, command string, err error) error {
	logFailure(command, err)
	return editError(r, userMessage(err))
}

// getDisplayName returns the effective display name for a guild member.
// Priority: guild nickname > global display name > username.
func getDisplayName(member *discordgo.Member) string {
	if member.Nick != "" {
		return member.Nick
	}
	if member.User.GlobalName != "" {
		return member.User.GlobalName
	}
	return member.User.Username
}
