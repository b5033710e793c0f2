package usecases

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/antigravity/internal/modules/music_player/application/ports"
	"github.com/sglre6355/antigravity/internal/modules/music_player/domain"
)

// DefaultMaxConsecutiveFailures is how many tracks may fail in a row before the queue is dropped.
const DefaultMaxConsecutiveFailures = 3

// PauseInput contains the input for the Pause use case.
type PauseInput struct {
	GuildID               snowflake.ID
	NotificationChannelID snowflake.ID // Optional: updates notification channel if non-zero
}

// ResumeInput contains the input for the Resume use case.
type ResumeInput struct {
	GuildID               snowflake.ID
	NotificationChannelID snowflake.ID // Optional: updates notification channel if non-zero
}

// TogglePauseInput contains the input for the TogglePause use case.
type TogglePauseInput struct {
	GuildID snowflake.ID
}

// TogglePauseOutput contains the result of the TogglePause use case.
type TogglePauseOutput struct {
	Paused bool
}

// SkipInput contains the input for the Skip use case.
type SkipInput struct {
	GuildID               snowflake.ID
	NotificationChannelID snowflake.ID // Optional: updates notification channel if non-zero
}

// SkipOutput contains the result of the Skip use case.
type SkipOutput struct {
	SkippedTrack *domain.Track
}

// StopInput contains the input for the Stop use case.
type StopInput struct {
	GuildID snowflake.ID
}

// PreviousInput contains the input for the Previous use case.
type PreviousInput struct {
	GuildID               snowflake.ID
	NotificationChannelID snowflake.ID // Optional: updates notification channel if non-zero
}

// PreviousOutput contains the result of the Previous use case.
type PreviousOutput struct {
	Track *domain.Track
}

// SetVolumeInput contains the input for the SetVolume use case.
type SetVolumeInput struct {
	GuildID snowflake.ID
	Volume  domain.Volume
}

// AdjustVolumeInput contains the input for the AdjustVolume use case.
type AdjustVolumeInput struct {
	GuildID snowflake.ID
	Delta   domain.Volume
}

// VolumeOutput contains the volume after a volume use case.
type VolumeOutput struct {
	Volume domain.Volume
}

// ToggleMuteInput contains the input for the ToggleMute use case.
type ToggleMuteInput struct {
	GuildID snowflake.ID
}

// ToggleMuteOutput contains the result of the ToggleMute use case.
type ToggleMuteOutput struct {
	Muted  bool
	Volume domain.Volume // level restored on unmute
}

// SetLoopModeInput contains the input for the SetLoopMode use case.
type SetLoopModeInput struct {
	GuildID               snowflake.ID
	Mode                  domain.LoopMode
	NotificationChannelID snowflake.ID // Optional: updates notification channel if non-zero
}

// CycleLoopModeInput contains the input for the CycleLoopMode use case.
type CycleLoopModeInput struct {
	GuildID               snowflake.ID
	NotificationChannelID snowflake.ID // Optional: updates notification channel if non-zero
}

// CycleLoopModeOutput contains the result of the CycleLoopMode use case.
type CycleLoopModeOutput struct {
	NewMode domain.LoopMode
}

// StartInput contains the input for the StartIfIdle use case.
type StartInput struct {
	GuildID snowflake.ID
}

// ControlsOutput describes the state the playback controls should display.
type ControlsOutput struct {
	Connected bool
	Paused    bool
	Muted     bool
	LoopMode  domain.LoopMode
}

// PlaybackService handles playback operations.
// Every method runs inside the guild's critical section, so queue mutation and
// starting a stream can never interleave with a concurrent completion.
type PlaybackService struct {
	repo        domain.PlayerStateRepository
	audioPlayer ports.AudioPlayer
	publisher   ports.EventPublisher
	maxFailures int
}

// NewPlaybackService creates a new PlaybackService.
// maxFailures below one falls back to DefaultMaxConsecutiveFailures.
func NewPlaybackService(
	repo domain.PlayerStateRepository,
	audioPlayer ports.AudioPlayer,
	publisher ports.EventPublisher,
	maxFailures int,
) *PlaybackService {
	if maxFailures < 1 {
		maxFailures = DefaultMaxConsecutiveFailures
	}
	return &PlaybackService{
		repo:        repo,
		audioPlayer: audioPlayer,
		publisher:   publisher,
		maxFailures: maxFailures,
	}
}

// Pause pauses the current playback. Pausing twice is a no-op.
func (p *PlaybackService) Pause(ctx context.Context, input PauseInput) error {
	state := p.repo.Get(input.GuildID)
	if state == nil {
		return ErrNotConnected
	}

	state.Lock()
	defer state.Unlock()

	// Update notification channel if provided
	if input.NotificationChannelID != 0 {
		state.SetNotificationChannelID(input.NotificationChannelID)
	}

	return p.pauseLocked(ctx, state)
}

// Resume resumes the paused playback. Resuming while playing is a no-op.
func (p *PlaybackService) Resume(ctx context.Context, input ResumeInput) error {
	state := p.repo.Get(input.GuildID)
	if state == nil {
		return ErrNotConnected
	}

	state.Lock()
	defer state.Unlock()

	// Update notification channel if provided
	if input.NotificationChannelID != 0 {
		state.SetNotificationChannelID(input.NotificationChannelID)
	}

	return p.resumeLocked(ctx, state)
}

// TogglePause pauses a playing stream or resumes a paused one.
func (p *PlaybackService) TogglePause(
	ctx context.Context,
	input TogglePauseInput,
) (*TogglePauseOutput, error) {
	state := p.repo.Get(input.GuildID)
	if state == nil {
		return nil, ErrNotConnected
	}

	state.Lock()
	defer state.Unlock()

	if state.IsPaused() {
		if err := p.resumeLocked(ctx, state); err != nil {
			return nil, err
		}
		return &TogglePauseOutput{Paused: false}, nil
	}

	if err := p.pauseLocked(ctx, state); err != nil {
		return nil, err
	}
	return &TogglePauseOutput{Paused: true}, nil
}

func (p *PlaybackService) pauseLocked(ctx context.Context, state *domain.PlayerState) error {
	if !state.HasActiveStream() {
		return ErrNotPlaying
	}
	if state.IsPaused() {
		return nil
	}

	if err := p.audioPlayer.Pause(ctx, state.GetGuildID()); err != nil {
		return err
	}

	state.SetStatus(domain.StatusPaused)
	return nil
}

func (p *PlaybackService) resumeLocked(ctx context.Context, state *domain.PlayerState) error {
	if !state.HasActiveStream() {
		return ErrNotPlaying
	}
	if !state.IsPaused() {
		return nil
	}

	if err := p.audioPlayer.Resume(ctx, state.GetGuildID()); err != nil {
		return err
	}

	state.SetStatus(domain.StatusPlaying)
	return nil
}

// Skip stops the current stream. The next track is started by the completion
// handler, which moves past the skipped track even when it is looped.
func (p *PlaybackService) Skip(ctx context.Context, input SkipInput) (*SkipOutput, error) {
	state := p.repo.Get(input.GuildID)
	if state == nil {
		return nil, ErrNotConnected
	}

	state.Lock()
	defer state.Unlock()

	// Update notification channel if provided
	if input.NotificationChannelID != 0 {
		state.SetNotificationChannelID(input.NotificationChannelID)
	}

	// A stopped stream stays attached until its end is handled; there is nothing to skip then.
	skipped := state.Queue.Current()
	if !state.HasActiveStream() || skipped == nil || state.Status() == domain.StatusTransitioning {
		return nil, ErrNotPlaying
	}

	if err := p.interruptLocked(ctx, state, domain.TransitionSkip); err != nil {
		return nil, err
	}

	return &SkipOutput{SkippedTrack: skipped}, nil
}

// Stop clears the queue and stops the current stream.
// The completion handler then finds nothing to play and reports the queue as finished.
func (p *PlaybackService) Stop(ctx context.Context, input StopInput) error {
	state := p.repo.Get(input.GuildID)
	if state == nil {
		return ErrNotConnected
	}

	state.Lock()
	defer state.Unlock()

	state.Queue.Clear()

	if !state.HasActiveStream() {
		return nil
	}
	return p.interruptLocked(ctx, state, domain.TransitionAdvance)
}

// Previous goes back to the most recently finished track and plays it immediately.
func (p *PlaybackService) Previous(ctx context.Context, input PreviousInput) (*PreviousOutput, error) {
	state := p.repo.Get(input.GuildID)
	if state == nil {
		return nil, ErrNotConnected
	}

	state.Lock()
	defer state.Unlock()

	if !state.IsConnected() {
		return nil, ErrNotConnected
	}

	// Update notification channel if provided
	if input.NotificationChannelID != 0 {
		state.SetNotificationChannelID(input.NotificationChannelID)
	}

	if state.Status() == domain.StatusTransitioning {
		return nil, ErrNotPlaying
	}

	track := state.Queue.Retreat()
	if track == nil {
		return nil, ErrNoHistory
	}

	if state.HasActiveStream() {
		if err := p.interruptLocked(ctx, state, domain.TransitionReplay); err != nil {
			return nil, err
		}
		return &PreviousOutput{Track: track}, nil
	}

	started, err := p.playFromQueue(ctx, state, state.Queue.Current)
	if err != nil {
		return nil, err
	}
	if started == nil {
		// Every remaining track failed to start; the failures were already reported.
		return nil, ErrStreamConstruction
	}
	return &PreviousOutput{Track: started}, nil
}

// interruptLocked stops the active stream and leaves the next step to the completion handler.
func (p *PlaybackService) interruptLocked(
	ctx context.Context,
	state *domain.PlayerState,
	transition domain.Transition,
) error {
	state.SetTransition(transition)
	if err := p.audioPlayer.Stop(ctx, state.GetGuildID(), domain.TrackEndStopped); err != nil {
		state.SetTransition(domain.TransitionAdvance)
		return err
	}
	state.SetStatus(domain.StatusTransitioning)
	return nil
}

// SetVolume sets the volume for the current and future tracks and unmutes.
func (p *PlaybackService) SetVolume(ctx context.Context, input SetVolumeInput) (*VolumeOutput, error) {
	return p.changeVolume(ctx, input.GuildID, func(current domain.Volume) domain.Volume {
		return input.Volume
	})
}

// AdjustVolume moves the volume by delta, clamped, and unmutes.
func (p *PlaybackService) AdjustVolume(
	ctx context.Context,
	input AdjustVolumeInput,
) (*VolumeOutput, error) {
	return p.changeVolume(ctx, input.GuildID, func(current domain.Volume) domain.Volume {
		return current.Step(input.Delta)
	})
}

func (p *PlaybackService) changeVolume(
	ctx context.Context,
	guildID snowflake.ID,
	next func(domain.Volume) domain.Volume,
) (*VolumeOutput, error) {
	state := p.repo.GetOrCreate(guildID)

	state.Lock()
	defer state.Unlock()

	volume := state.Queue.SetVolume(next(state.Queue.Volume()))
	state.SetMuted(false)

	if state.HasActiveStream() {
		if err := p.audioPlayer.SetVolume(ctx, guildID, volume); err != nil {
			return nil, err
		}
	}

	return &VolumeOutput{Volume: volume}, nil
}

// ToggleMute silences the current stream or restores its previous volume.
func (p *PlaybackService) ToggleMute(
	ctx context.Context,
	input ToggleMuteInput,
) (*ToggleMuteOutput, error) {
	state := p.repo.Get(input.GuildID)
	if state == nil {
		return nil, ErrNotConnected
	}

	state.Lock()
	defer state.Unlock()

	if !state.HasActiveStream() {
		return nil, ErrNotPlaying
	}

	muted := !state.IsMuted()
	state.SetMuted(muted)

	if err := p.audioPlayer.SetVolume(ctx, input.GuildID, state.EffectiveVolume()); err != nil {
		state.SetMuted(!muted)
		return nil, err
	}

	return &ToggleMuteOutput{Muted: muted, Volume: state.Queue.Volume()}, nil
}

// SetLoopMode sets the loop mode for the guild's queue.
func (p *PlaybackService) SetLoopMode(ctx context.Context, input SetLoopModeInput) error {
	state := p.repo.GetOrCreate(input.GuildID)

	state.Lock()
	defer state.Unlock()

	// Update notification channel if provided
	if input.NotificationChannelID != 0 {
		state.SetNotificationChannelID(input.NotificationChannelID)
	}

	state.Queue.SetLoopMode(input.Mode)

	return nil
}

// CycleLoopMode cycles through loop modes: None -> Queue -> Track -> None.
func (p *PlaybackService) CycleLoopMode(
	ctx context.Context,
	input CycleLoopModeInput,
) (*CycleLoopModeOutput, error) {
	state := p.repo.GetOrCreate(input.GuildID)

	state.Lock()
	defer state.Unlock()

	// Update notification channel if provided
	if input.NotificationChannelID != 0 {
		state.SetNotificationChannelID(input.NotificationChannelID)
	}

	return &CycleLoopModeOutput{
		NewMode: state.Queue.CycleLoopMode(),
	}, nil
}

// Controls returns what the playback controls should currently show.
func (p *PlaybackService) Controls(guildID snowflake.ID) ControlsOutput {
	state := p.repo.Get(guildID)
	if state == nil {
		return ControlsOutput{}
	}

	state.Lock()
	defer state.Unlock()

	return ControlsOutput{
		Connected: state.IsConnected(),
		Paused:    state.IsPaused(),
		Muted:     state.IsMuted(),
		LoopMode:  state.Queue.LoopMode(),
	}
}

// StartIfIdle starts the next queued track when nothing is playing.
// Returns the started track, or nil when playback was already active or nothing is queued.
func (p *PlaybackService) StartIfIdle(ctx context.Context, input StartInput) (*domain.Track, error) {
	state := p.repo.Get(input.GuildID)
	if state == nil {
		return nil, ErrNotConnected
	}

	state.Lock()
	defer state.Unlock()

	if !state.IsIdle() {
		return nil, nil
	}
	if !state.IsConnected() {
		return nil, ErrNotConnected
	}

	return p.playFromQueue(ctx, state, state.Queue.Advance)
}

// HandleTrackEnded advances the queue after a stream ended and starts the next track.
// Reports for streams other than the active one are stale and ignored, so a skip racing
// a natural end results in a single transition.
func (p *PlaybackService) HandleTrackEnded(ctx context.Context, event domain.TrackEndedEvent) error {
	state := p.repo.Get(event.GuildID)
	if state == nil {
		return nil
	}

	state.Lock()
	defer state.Unlock()

	if state.ActiveStream() != event.StreamID {
		slog.Debug("ignoring end of stale stream",
			"guild", event.GuildID,
			"stream", event.StreamID,
			"active", state.ActiveStream(),
		)
		return nil
	}

	if !event.Reason.ShouldAdvanceQueue() {
		state.DetachStream()
		return nil
	}

	state.SetStatus(domain.StatusTransitioning)
	transition := state.TakeTransition()

	if event.Reason == domain.TrackEndErrored && event.FramesSent == 0 {
		// The source never produced audio; count it like a construction failure.
		if p.recordFailure(state, state.Queue.Current(), event.Err) {
			return nil
		}
		if transition != domain.TransitionReplay {
			transition = domain.TransitionSkip
		}
	} else if event.FramesSent > 0 {
		state.ResetFailures()
	}

	next := state.Queue.Advance
	switch transition {
	case domain.TransitionSkip:
		next = state.Queue.Skip
	case domain.TransitionReplay:
		next = state.Queue.Current
	}

	_, err := p.playFromQueue(ctx, state, next)
	return err
}

// playFromQueue starts the track returned by next. When the stream cannot be
// constructed it moves on to the following track until the failure limit is hit.
// Caller holds the state lock.
func (p *PlaybackService) playFromQueue(
	ctx context.Context,
	state *domain.PlayerState,
	next func() *domain.Track,
) (*domain.Track, error) {
	guildID := state.GetGuildID()

	for {
		track := next()
		if track == nil {
			p.finish(state, true)
			return nil, nil
		}

		streamID, err := p.audioPlayer.Play(ctx, guildID, track, state.EffectiveVolume())
		if err == nil {
			state.AttachStream(streamID)
			p.publish(domain.PlaybackStartedEvent{
				GuildID:               guildID,
				Track:                 track,
				NotificationChannelID: state.GetNotificationChannelID(),
			})
			return track, nil
		}

		if errors.Is(err, ports.ErrNoVoiceSession) {
			state.DetachStream()
			return nil, ErrNotConnected
		}

		slog.Warn("failed to start stream",
			"guild", guildID,
			"track", track.Title,
			"error", err,
		)
		if p.recordFailure(state, track, err) {
			return nil, fmt.Errorf("%w: %w", ErrStreamConstruction, err)
		}

		// Move past the broken track even when it is looped.
		next = state.Queue.Skip
	}
}

// recordFailure counts a failed track and reports it. When the limit is reached
// the queue is cleared, playback finishes, and true is returned.
func (p *PlaybackService) recordFailure(
	state *domain.PlayerState,
	track *domain.Track,
	cause error,
) bool {
	failures := state.RecordFailure()
	fatal := failures >= p.maxFailures

	p.publish(domain.PlaybackFailedEvent{
		GuildID:               state.GetGuildID(),
		Track:                 track,
		NotificationChannelID: state.GetNotificationChannelID(),
		Err:                   cause,
		Fatal:                 fatal,
	})

	if !fatal {
		return false
	}

	slog.Error("too many consecutive playback failures, clearing queue",
		"guild", state.GetGuildID(),
		"failures", failures,
	)
	state.Queue.Clear()
	state.ResetFailures()
	p.finish(state, false)
	return true
}

// finish detaches the stream and asks for the "Now Playing" message to be removed.
func (p *PlaybackService) finish(state *domain.PlayerState, queueFinished bool) {
	last := state.GetNowPlayingMessage()
	state.ClearNowPlayingMessage()
	state.DetachStream()

	p.publish(domain.PlaybackFinishedEvent{
		GuildID:               state.GetGuildID(),
		NotificationChannelID: state.GetNotificationChannelID(),
		LastMessage:           last,
		QueueFinished:         queueFinished,
	})
}

func (p *PlaybackService) publish(event domain.Event) {
	if p.publisher == nil {
		return
	}
	if err := p.publisher.Publish(event); err != nil {
		slog.Warn("failed to publish event", "guild", event.EventGuildID(), "error", err)
	}
}
