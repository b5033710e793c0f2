package application

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"

	"github.com/sglre6355/antigravity/internal/modules/music_player/application/ports"
	"github.com/sglre6355/antigravity/internal/modules/music_player/application/usecases"
	"github.com/sglre6355/antigravity/internal/modules/music_player/domain"
)

// PlaybackController is the part of the playback service driven by events.
type PlaybackController interface {
	StartIfIdle(ctx context.Context, input usecases.StartInput) (*domain.Track, error)
	HandleTrackEnded(ctx context.Context, event domain.TrackEndedEvent) error
}

var _ PlaybackController = (*usecases.PlaybackService)(nil)

// PlaybackEventHandler handles events related to playback control.
// It subscribes to TrackEnqueued and TrackEnded events to manage playback flow.
type PlaybackEventHandler struct {
	playback   PlaybackController
	subscriber ports.EventSubscriber
}

// NewPlaybackEventHandler creates a new PlaybackEventHandler.
func NewPlaybackEventHandler(
	playback PlaybackController,
	subscriber ports.EventSubscriber,
) *PlaybackEventHandler {
	return &PlaybackEventHandler{
		playback:   playback,
		subscriber: subscriber,
	}
}

// Start registers event handlers with the subscriber.
func (h *PlaybackEventHandler) Start() error {
	err := h.subscriber.Subscribe(
		reflect.TypeFor[domain.TrackEnqueuedEvent](),
		func(ctx context.Context, e domain.Event) {
			h.handleTrackEnqueued(ctx, e.(domain.TrackEnqueuedEvent))
		},
	)
	if err != nil {
		return err
	}

	err = h.subscriber.Subscribe(
		reflect.TypeFor[domain.TrackEndedEvent](),
		func(ctx context.Context, e domain.Event) {
			h.handleTrackEnded(ctx, e.(domain.TrackEndedEvent))
		},
	)
	if err != nil {
		return err
	}

	slog.Debug("playback event handlers properly registered")

	return nil
}

func (h *PlaybackEventHandler) handleTrackEnqueued(
	ctx context.Context,
	event domain.TrackEnqueuedEvent,
) {
	if !event.WasIdle {
		return
	}

	track, err := h.playback.StartIfIdle(ctx, usecases.StartInput{GuildID: event.GuildID})
	if err != nil {
		slog.Error(
			"failed to start playback after enqueue",
			"guild", event.GuildID,
			"error", err,
		)
		return
	}
	if track != nil {
		slog.Debug("started playback", "guild", event.GuildID, "track", track.Title)
	}
}

func (h *PlaybackEventHandler) handleTrackEnded(ctx context.Context, event domain.TrackEndedEvent) {
	slog.Debug(
		"track ended",
		"guild", event.GuildID,
		"stream", event.StreamID,
		"reason", event.Reason,
		"frames", event.FramesSent,
	)

	if err := h.playback.HandleTrackEnded(ctx, event); err != nil {
		slog.Error(
			"failed to continue playback after track ended",
			"guild", event.GuildID,
			"error", err,
		)
	}
}

// NotificationEventHandler handles events related to Discord notifications.
// It keeps at most one "Now Playing" message per guild and reports playback failures.
type NotificationEventHandler struct {
	playerStates domain.PlayerStateRepository
	subscriber   ports.EventSubscriber
	notifier     ports.NotificationSender
}

// NewNotificationEventHandler creates a new NotificationEventHandler.
func NewNotificationEventHandler(
	playerStates domain.PlayerStateRepository,
	subscriber ports.EventSubscriber,
	notifier ports.NotificationSender,
) *NotificationEventHandler {
	return &NotificationEventHandler{
		playerStates: playerStates,
		subscriber:   subscriber,
		notifier:     notifier,
	}
}

// Start registers event handlers with the subscriber.
func (h *NotificationEventHandler) Start() error {
	err := h.subscriber.Subscribe(
		reflect.TypeFor[domain.PlaybackStartedEvent](),
		func(ctx context.Context, e domain.Event) {
			h.handlePlaybackStarted(ctx, e.(domain.PlaybackStartedEvent))
		},
	)
	if err != nil {
		return err
	}

	err = h.subscriber.Subscribe(
		reflect.TypeFor[domain.PlaybackFinishedEvent](),
		func(ctx context.Context, e domain.Event) {
			h.handlePlaybackFinished(ctx, e.(domain.PlaybackFinishedEvent))
		},
	)
	if err != nil {
		return err
	}

	err = h.subscriber.Subscribe(
		reflect.TypeFor[domain.PlaybackFailedEvent](),
		func(ctx context.Context, e domain.Event) {
			h.handlePlaybackFailed(ctx, e.(domain.PlaybackFailedEvent))
		},
	)
	if err != nil {
		return err
	}

	slog.Debug("notification event handlers properly registered")

	return nil
}

func (h *NotificationEventHandler) handlePlaybackStarted(
	_ context.Context,
	event domain.PlaybackStartedEvent,
) {
	state := h.playerStates.Get(event.GuildID)
	if state == nil {
		slog.Debug(
			"skipping now playing notification, state not found",
			"guild", event.GuildID,
		)
		return
	}

	// Snapshot under the lock; Discord calls happen outside it.
	state.Lock()
	old := state.GetNowPlayingMessage()
	state.ClearNowPlayingMessage()
	channelID := state.GetNotificationChannelID()
	info := nowPlayingInfo(state, event.Track)
	state.Unlock()

	if old != nil {
		if err := h.notifier.DeleteMessage(old.ChannelID, old.MessageID); err != nil {
			slog.Warn(
				"failed to delete previous now playing message",
				"guild", event.GuildID,
				"now_playing", old,
				"error", err,
			)
		}
	}

	if channelID == 0 {
		return
	}

	messageID, err := h.notifier.SendNowPlaying(channelID, info)
	if err != nil {
		slog.Error(
			"failed to send now playing notification",
			"guild", event.GuildID,
			"error", err,
		)
		return
	}

	state.Lock()
	stillCurrent := state.Queue.Current() == event.Track && state.HasActiveStream()
	var stale *domain.NowPlayingMessage
	if stillCurrent {
		stale = state.GetNowPlayingMessage()
		state.SetNowPlayingMessage(channelID, messageID)
	} else {
		// Playback moved on while the message was being sent.
		stale = &domain.NowPlayingMessage{ChannelID: channelID, MessageID: messageID}
	}
	state.Unlock()

	if stale != nil {
		h.deleteQuietly(stale)
	}
}

func (h *NotificationEventHandler) handlePlaybackFinished(
	_ context.Context,
	event domain.PlaybackFinishedEvent,
) {
	if event.LastMessage != nil {
		h.deleteQuietly(event.LastMessage)
	}

	if !event.QueueFinished || event.NotificationChannelID == 0 {
		return
	}

	if err := h.notifier.SendQueueFinished(event.NotificationChannelID); err != nil {
		slog.Warn(
			"failed to send queue finished notification",
			"guild", event.GuildID,
			"error", err,
		)
	}
}

func (h *NotificationEventHandler) handlePlaybackFailed(
	_ context.Context,
	event domain.PlaybackFailedEvent,
) {
	if event.NotificationChannelID == 0 {
		return
	}

	if err := h.notifier.SendError(event.NotificationChannelID, failureMessage(event)); err != nil {
		slog.Warn(
			"failed to send playback failure notification",
			"guild", event.GuildID,
			"error", err,
		)
	}
}

func (h *NotificationEventHandler) deleteQuietly(message *domain.NowPlayingMessage) {
	if err := h.notifier.DeleteMessage(message.ChannelID, message.MessageID); err != nil {
		slog.Warn(
			"failed to delete now playing message",
			"now_playing", message,
			"error", err,
		)
	}
}

// nowPlayingInfo builds the notification payload. Caller holds the state lock.
func nowPlayingInfo(state *domain.PlayerState, track *domain.Track) *ports.NowPlayingInfo {
	return &ports.NowPlayingInfo{
		Title:         track.Title,
		Uploader:      track.Uploader,
		Duration:      track.FormattedDuration(),
		PageURL:       track.PageURL,
		ThumbnailURL:  track.ThumbnailURL,
		IsStream:      track.IsStream,
		RequesterID:   track.RequesterID,
		RequesterName: track.RequesterName,
		EnqueuedAt:    track.EnqueuedAt,
		Volume:        state.Queue.Volume(),
		Muted:         state.IsMuted(),
		LoopMode:      state.Queue.LoopMode(),
		QueueLength:   state.Queue.Len(),
	}
}

func failureMessage(event domain.PlaybackFailedEvent) string {
	if event.Fatal {
		return "Playback stopped after several tracks in a row failed to play. The queue has been cleared."
	}

	title := "the current track"
	if event.Track != nil {
		title = fmt.Sprintf("**%s**", event.Track.Title)
	}
	return fmt.Sprintf("Could not play %s, skipping to the next track.", title)
}
