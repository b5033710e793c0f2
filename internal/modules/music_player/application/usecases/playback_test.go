package usecases

import (
	"context"
	"errors"
	"testing"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/antigravity/internal/modules/music_player/domain"
)

const testGuildID = snowflake.ID(100)

func newTestPlaybackService(
	repo *mockRepository,
	player *mockAudioPlayer,
	publisher *mockEventPublisher,
) *PlaybackService {
	return NewPlaybackService(repo, player, publisher, 3)
}

func TestPlaybackService_Pause(t *testing.T) {
	tests := []struct {
		name      string
		setup     func(repo *mockRepository)
		pauseErr  error
		wantErr   error
		wantPause int
	}{
		{
			name:    "not connected",
			setup:   func(repo *mockRepository) {},
			wantErr: ErrNotConnected,
		},
		{
			name: "nothing playing",
			setup: func(repo *mockRepository) {
				repo.createConnectedState(testGuildID, 200, 300)
			},
			wantErr: ErrNotPlaying,
		},
		{
			name: "pauses active stream",
			setup: func(repo *mockRepository) {
				repo.createPlayingState(testGuildID, 1, mockTrack("a"))
			},
			wantPause: 1,
		},
		{
			name: "already paused is a no-op",
			setup: func(repo *mockRepository) {
				state := repo.createPlayingState(testGuildID, 1, mockTrack("a"))
				state.SetStatus(domain.StatusPaused)
			},
			wantPause: 0,
		},
		{
			name: "audio player error",
			setup: func(repo *mockRepository) {
				repo.createPlayingState(testGuildID, 1, mockTrack("a"))
			},
			pauseErr: errors.New("boom"),
			wantErr:  errors.New("boom"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMockRepository()
			tt.setup(repo)
			player := &mockAudioPlayer{pauseErr: tt.pauseErr}
			svc := newTestPlaybackService(repo, player, &mockEventPublisher{})

			err := svc.Pause(context.Background(), PauseInput{GuildID: testGuildID})

			if tt.wantErr != nil {
				if err == nil || err.Error() != tt.wantErr.Error() {
					t.Fatalf("expected error %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if player.paused != tt.wantPause {
				t.Errorf("expected %d pause calls, got %d", tt.wantPause, player.paused)
			}
			if !repo.Get(testGuildID).IsPaused() {
				t.Error("expected state to be paused")
			}
		})
	}
}

func TestPlaybackService_Resume(t *testing.T) {
	repo := newMockRepository()
	state := repo.createPlayingState(testGuildID, 1, mockTrack("a"))
	state.SetStatus(domain.StatusPaused)
	player := &mockAudioPlayer{}
	svc := newTestPlaybackService(repo, player, &mockEventPublisher{})

	if err := svc.Resume(context.Background(), ResumeInput{GuildID: testGuildID}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if player.resumed != 1 {
		t.Errorf("expected 1 resume call, got %d", player.resumed)
	}
	if state.Status() != domain.StatusPlaying {
		t.Errorf("expected playing, got %v", state.Status())
	}

	// Resuming again is a no-op
	if err := svc.Resume(context.Background(), ResumeInput{GuildID: testGuildID}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if player.resumed != 1 {
		t.Errorf("expected resume to stay at 1, got %d", player.resumed)
	}
}

func TestPlaybackService_Resume_UpdatesNotificationChannel(t *testing.T) {
	repo := newMockRepository()
	state := repo.createPlayingState(testGuildID, 1, mockTrack("a"))
	svc := newTestPlaybackService(repo, &mockAudioPlayer{}, &mockEventPublisher{})

	err := svc.Resume(context.Background(), ResumeInput{
		GuildID:               testGuildID,
		NotificationChannelID: snowflake.ID(999),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if state.GetNotificationChannelID() != 999 {
		t.Errorf("expected notification channel 999, got %d", state.GetNotificationChannelID())
	}
}

func TestPlaybackService_TogglePause(t *testing.T) {
	repo := newMockRepository()
	repo.createPlayingState(testGuildID, 1, mockTrack("a"))
	player := &mockAudioPlayer{}
	svc := newTestPlaybackService(repo, player, &mockEventPublisher{})
	ctx := context.Background()

	out, err := svc.TogglePause(ctx, TogglePauseInput{GuildID: testGuildID})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !out.Paused {
		t.Error("expected first toggle to pause")
	}

	out, err = svc.TogglePause(ctx, TogglePauseInput{GuildID: testGuildID})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Paused {
		t.Error("expected second toggle to resume")
	}

	if player.paused != 1 || player.resumed != 1 {
		t.Errorf("expected one pause and one resume, got %d and %d", player.paused, player.resumed)
	}
}

func TestPlaybackService_TogglePause_NoStream(t *testing.T) {
	repo := newMockRepository()
	repo.createConnectedState(testGuildID, 200, 300)
	svc := newTestPlaybackService(repo, &mockAudioPlayer{}, &mockEventPublisher{})

	_, err := svc.TogglePause(context.Background(), TogglePauseInput{GuildID: testGuildID})
	if !errors.Is(err, ErrNotPlaying) {
		t.Errorf("expected ErrNotPlaying, got %v", err)
	}
}

func TestPlaybackService_Skip(t *testing.T) {
	repo := newMockRepository()
	a, b := mockTrack("a"), mockTrack("b")
	state := repo.createPlayingState(testGuildID, 1, a, b)
	player := &mockAudioPlayer{nextStream: 1}
	svc := newTestPlaybackService(repo, player, &mockEventPublisher{})

	out, err := svc.Skip(context.Background(), SkipInput{GuildID: testGuildID})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if out.SkippedTrack != a {
		t.Errorf("expected skipped track a, got %v", out.SkippedTrack)
	}
	if len(player.stopped) != 1 || player.stopped[0] != domain.TrackEndStopped {
		t.Errorf("expected one stop with reason stopped, got %v", player.stopped)
	}
	if state.Status() != domain.StatusTransitioning {
		t.Errorf("expected transitioning, got %v", state.Status())
	}
	// The next track is started by the completion handler, not by Skip.
	if len(player.played) != 0 {
		t.Errorf("expected no new stream from Skip itself, got %d", len(player.played))
	}
}

func TestPlaybackService_Skip_NothingPlaying(t *testing.T) {
	repo := newMockRepository()
	repo.createConnectedState(testGuildID, 200, 300)
	svc := newTestPlaybackService(repo, &mockAudioPlayer{}, &mockEventPublisher{})

	_, err := svc.Skip(context.Background(), SkipInput{GuildID: testGuildID})
	if !errors.Is(err, ErrNotPlaying) {
		t.Errorf("expected ErrNotPlaying, got %v", err)
	}
}

func TestPlaybackService_Skip_AfterStop(t *testing.T) {
	repo := newMockRepository()
	state := repo.createPlayingState(testGuildID, 1, mockTrack("a"), mockTrack("b"))
	player := &mockAudioPlayer{nextStream: 1}
	svc := newTestPlaybackService(repo, player, &mockEventPublisher{})
	ctx := context.Background()

	if err := svc.Stop(ctx, StopInput{GuildID: testGuildID}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The stopped stream is still attached until its end event is handled.
	if !state.HasActiveStream() {
		t.Fatal("expected stream to stay attached until its end is handled")
	}

	out, err := svc.Skip(ctx, SkipInput{GuildID: testGuildID})
	if !errors.Is(err, ErrNotPlaying) {
		t.Fatalf("expected ErrNotPlaying, got %v (output %+v)", err, out)
	}
	if len(player.stopped) != 1 {
		t.Errorf("expected a single stop, got %v", player.stopped)
	}
}

func TestPlaybackService_Skip_WhileTransitioning(t *testing.T) {
	repo := newMockRepository()
	repo.createPlayingState(testGuildID, 1, mockTrack("a"), mockTrack("b"), mockTrack("c"))
	player := &mockAudioPlayer{nextStream: 1}
	svc := newTestPlaybackService(repo, player, &mockEventPublisher{})
	ctx := context.Background()

	if _, err := svc.Skip(ctx, SkipInput{GuildID: testGuildID}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.Skip(ctx, SkipInput{GuildID: testGuildID}); !errors.Is(err, ErrNotPlaying) {
		t.Errorf("expected ErrNotPlaying for a second skip, got %v", err)
	}
	if len(player.stopped) != 1 {
		t.Errorf("expected a single stop, got %v", player.stopped)
	}
}

func TestPlaybackService_SkipRacingCompletion_SingleTransition(t *testing.T) {
	repo := newMockRepository()
	a, b, c := mockTrack("a"), mockTrack("b"), mockTrack("c")
	repo.createPlayingState(testGuildID, 1, a, b, c)
	player := &mockAudioPlayer{nextStream: 1}
	publisher := &mockEventPublisher{}
	svc := newTestPlaybackService(repo, player, publisher)
	ctx := context.Background()

	if _, err := svc.Skip(ctx, SkipInput{GuildID: testGuildID}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The stream reports its end once, tagged with the reason it was stopped for.
	err := svc.HandleTrackEnded(ctx, domain.TrackEndedEvent{
		GuildID:    testGuildID,
		StreamID:   1,
		Reason:     domain.TrackEndStopped,
		FramesSent: 100,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// A late natural-end report for the same stream must not advance again.
	err = svc.HandleTrackEnded(ctx, domain.TrackEndedEvent{
		GuildID:    testGuildID,
		StreamID:   1,
		Reason:     domain.TrackEndFinished,
		FramesSent: 100,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(player.played) != 1 || player.played[0] != b {
		t.Fatalf("expected exactly one start of b, got %v", player.played)
	}
	if started := publisher.playbackStarted(); len(started) != 1 {
		t.Errorf("expected 1 PlaybackStartedEvent, got %d", len(started))
	}
	state := repo.Get(testGuildID)
	if state.Queue.Current() != b {
		t.Errorf("expected current b, got %v", state.Queue.Current())
	}
	if state.ActiveStream() != 2 {
		t.Errorf("expected active stream 2, got %d", state.ActiveStream())
	}
}

func TestPlaybackService_HandleTrackEnded_AdvancesQueue(t *testing.T) {
	repo := newMockRepository()
	a, b := mockTrack("a"), mockTrack("b")
	state := repo.createPlayingState(testGuildID, 1, a, b)
	state.Queue.SetVolume(1.4)
	player := &mockAudioPlayer{nextStream: 1}
	publisher := &mockEventPublisher{}
	svc := newTestPlaybackService(repo, player, publisher)

	err := svc.HandleTrackEnded(context.Background(), domain.TrackEndedEvent{
		GuildID:    testGuildID,
		StreamID:   1,
		Reason:     domain.TrackEndFinished,
		FramesSent: 500,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(player.played) != 1 || player.played[0] != b {
		t.Fatalf("expected b to start, got %v", player.played)
	}
	if player.playVolumes[0] != 1.4 {
		t.Errorf("expected stream at queue volume 1.4, got %v", player.playVolumes[0])
	}
	if state.Status() != domain.StatusPlaying {
		t.Errorf("expected playing, got %v", state.Status())
	}
	started := publisher.playbackStarted()
	if len(started) != 1 || started[0].Track != b {
		t.Errorf("expected PlaybackStartedEvent for b, got %v", started)
	}
	if started[0].NotificationChannelID != 300 {
		t.Errorf("expected notification channel 300, got %d", started[0].NotificationChannelID)
	}
}

func TestPlaybackService_HandleTrackEnded_QueueFinished(t *testing.T) {
	repo := newMockRepository()
	state := repo.createPlayingState(testGuildID, 1, mockTrack("a"))
	state.SetNowPlayingMessage(300, 555)
	player := &mockAudioPlayer{nextStream: 1}
	publisher := &mockEventPublisher{}
	svc := newTestPlaybackService(repo, player, publisher)

	err := svc.HandleTrackEnded(context.Background(), domain.TrackEndedEvent{
		GuildID:    testGuildID,
		StreamID:   1,
		Reason:     domain.TrackEndFinished,
		FramesSent: 10,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !state.IsIdle() {
		t.Errorf("expected idle, got %v", state.Status())
	}
	if state.HasActiveStream() {
		t.Error("expected no active stream")
	}
	finished := publisher.playbackFinished()
	if len(finished) != 1 {
		t.Fatalf("expected 1 PlaybackFinishedEvent, got %d", len(finished))
	}
	if !finished[0].QueueFinished {
		t.Error("expected QueueFinished to be set")
	}
	if finished[0].LastMessage == nil || finished[0].LastMessage.MessageID != 555 {
		t.Errorf("expected last message 555, got %v", finished[0].LastMessage)
	}
	if state.GetNowPlayingMessage() != nil {
		t.Error("expected now playing message to be cleared")
	}
}

func TestPlaybackService_HandleTrackEnded_Teardown(t *testing.T) {
	repo := newMockRepository()
	state := repo.createPlayingState(testGuildID, 1, mockTrack("a"), mockTrack("b"))
	player := &mockAudioPlayer{nextStream: 1}
	publisher := &mockEventPublisher{}
	svc := newTestPlaybackService(repo, player, publisher)

	err := svc.HandleTrackEnded(context.Background(), domain.TrackEndedEvent{
		GuildID:  testGuildID,
		StreamID: 1,
		Reason:   domain.TrackEndTeardown,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(player.played) != 0 {
		t.Errorf("expected no new stream on teardown, got %d", len(player.played))
	}
	if state.Queue.Len() != 1 {
		t.Errorf("expected queue to be untouched, got %d pending", state.Queue.Len())
	}
	if len(publisher.events) != 0 {
		t.Errorf("expected no events, got %d", len(publisher.events))
	}
}

func TestPlaybackService_HandleTrackEnded_UnknownGuild(t *testing.T) {
	svc := newTestPlaybackService(newMockRepository(), &mockAudioPlayer{}, &mockEventPublisher{})

	err := svc.HandleTrackEnded(context.Background(), domain.TrackEndedEvent{
		GuildID:  testGuildID,
		StreamID: 1,
		Reason:   domain.TrackEndFinished,
	})
	if err != nil {
		t.Errorf("expected nil for unknown guild, got %v", err)
	}
}

func TestPlaybackService_HandleTrackEnded_LoopTrack(t *testing.T) {
	repo := newMockRepository()
	a, b := mockTrack("a"), mockTrack("b")
	state := repo.createPlayingState(testGuildID, 1, a, b)
	state.Queue.SetLoopMode(domain.LoopModeTrack)
	player := &mockAudioPlayer{nextStream: 1}
	svc := newTestPlaybackService(repo, player, &mockEventPublisher{})

	err := svc.HandleTrackEnded(context.Background(), domain.TrackEndedEvent{
		GuildID:    testGuildID,
		StreamID:   1,
		Reason:     domain.TrackEndFinished,
		FramesSent: 10,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(player.played) != 1 || player.played[0] != a {
		t.Errorf("expected a to replay, got %v", player.played)
	}
}

func TestPlaybackService_Skip_LoopTrackMovesOn(t *testing.T) {
	repo := newMockRepository()
	a, b := mockTrack("a"), mockTrack("b")
	state := repo.createPlayingState(testGuildID, 1, a, b)
	state.Queue.SetLoopMode(domain.LoopModeTrack)
	player := &mockAudioPlayer{nextStream: 1}
	svc := newTestPlaybackService(repo, player, &mockEventPublisher{})
	ctx := context.Background()

	if _, err := svc.Skip(ctx, SkipInput{GuildID: testGuildID}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err := svc.HandleTrackEnded(ctx, domain.TrackEndedEvent{
		GuildID:    testGuildID,
		StreamID:   1,
		Reason:     domain.TrackEndStopped,
		FramesSent: 10,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(player.played) != 1 || player.played[0] != b {
		t.Errorf("expected b after skipping looped a, got %v", player.played)
	}
	if state.Queue.LoopMode() != domain.LoopModeTrack {
		t.Error("expected loop mode to be kept")
	}
}

func TestPlaybackService_ConstructionFailureMovesOn(t *testing.T) {
	repo := newMockRepository()
	a, b, c := mockTrack("a"), mockTrack("b"), mockTrack("c")
	repo.createPlayingState(testGuildID, 1, a, b, c)
	player := &mockAudioPlayer{
		nextStream: 1,
		playErrs:   []error{errors.New("ffmpeg missing"), nil},
	}
	publisher := &mockEventPublisher{}
	svc := newTestPlaybackService(repo, player, publisher)

	err := svc.HandleTrackEnded(context.Background(), domain.TrackEndedEvent{
		GuildID:    testGuildID,
		StreamID:   1,
		Reason:     domain.TrackEndFinished,
		FramesSent: 10,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(player.played) != 1 || player.played[0] != c {
		t.Fatalf("expected c after b failed, got %v", player.played)
	}
	failed := publisher.playbackFailed()
	if len(failed) != 1 || failed[0].Track != b || failed[0].Fatal {
		t.Errorf("expected one non-fatal failure for b, got %v", failed)
	}
	if repo.Get(testGuildID).ConsecutiveFailures() != 1 {
		t.Errorf("expected 1 consecutive failure, got %d", repo.Get(testGuildID).ConsecutiveFailures())
	}
}

func TestPlaybackService_ConsecutiveFailureLimitClearsQueue(t *testing.T) {
	repo := newMockRepository()
	tracks := []*domain.Track{
		mockTrack("a"), mockTrack("b"), mockTrack("c"), mockTrack("d"), mockTrack("e"),
	}
	state := repo.createPlayingState(testGuildID, 1, tracks...)
	state.Queue.SetLoopMode(domain.LoopModeQueue)
	broken := errors.New("broken source")
	player := &mockAudioPlayer{
		nextStream: 1,
		playErrs:   []error{broken, broken, broken, broken},
	}
	publisher := &mockEventPublisher{}
	svc := newTestPlaybackService(repo, player, publisher)

	err := svc.HandleTrackEnded(context.Background(), domain.TrackEndedEvent{
		GuildID:    testGuildID,
		StreamID:   1,
		Reason:     domain.TrackEndFinished,
		FramesSent: 10,
	})

	if !errors.Is(err, ErrStreamConstruction) {
		t.Fatalf("expected ErrStreamConstruction, got %v", err)
	}
	if len(player.playErrs) != 1 {
		t.Errorf("expected exactly 3 attempts, %d errors left unconsumed", len(player.playErrs))
	}
	if state.Queue.Len() != 0 || state.Queue.Current() != nil {
		t.Error("expected queue to be cleared")
	}
	if !state.IsIdle() {
		t.Errorf("expected idle, got %v", state.Status())
	}
	failed := publisher.playbackFailed()
	if len(failed) != 3 {
		t.Fatalf("expected 3 failure events, got %d", len(failed))
	}
	if !failed[2].Fatal {
		t.Error("expected last failure to be fatal")
	}
	finished := publisher.playbackFinished()
	if len(finished) != 1 || finished[0].QueueFinished {
		t.Errorf("expected one non-queue-finished PlaybackFinishedEvent, got %v", finished)
	}
}

func TestPlaybackService_ErroredStreamCountsAsFailure(t *testing.T) {
	repo := newMockRepository()
	a, b := mockTrack("a"), mockTrack("b")
	state := repo.createPlayingState(testGuildID, 1, a, b)
	player := &mockAudioPlayer{nextStream: 1}
	publisher := &mockEventPublisher{}
	svc := newTestPlaybackService(repo, player, publisher)

	err := svc.HandleTrackEnded(context.Background(), domain.TrackEndedEvent{
		GuildID:  testGuildID,
		StreamID: 1,
		Reason:   domain.TrackEndErrored,
		Err:      errors.New("403 Forbidden"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if state.ConsecutiveFailures() != 1 {
		t.Errorf("expected 1 consecutive failure, got %d", state.ConsecutiveFailures())
	}
	if len(player.played) != 1 || player.played[0] != b {
		t.Errorf("expected b to start, got %v", player.played)
	}
	if failed := publisher.playbackFailed(); len(failed) != 1 || failed[0].Track != a {
		t.Errorf("expected failure event for a, got %v", failed)
	}
}

func TestPlaybackService_SuccessfulStreamResetsFailures(t *testing.T) {
	repo := newMockRepository()
	state := repo.createPlayingState(testGuildID, 1, mockTrack("a"), mockTrack("b"))
	state.RecordFailure()
	state.RecordFailure()
	svc := newTestPlaybackService(repo, &mockAudioPlayer{nextStream: 1}, &mockEventPublisher{})

	err := svc.HandleTrackEnded(context.Background(), domain.TrackEndedEvent{
		GuildID:    testGuildID,
		StreamID:   1,
		Reason:     domain.TrackEndFinished,
		FramesSent: 1,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if state.ConsecutiveFailures() != 0 {
		t.Errorf("expected failures to reset, got %d", state.ConsecutiveFailures())
	}
}

func TestPlaybackService_Stop(t *testing.T) {
	repo := newMockRepository()
	state := repo.createPlayingState(testGuildID, 1, mockTrack("a"), mockTrack("b"), mockTrack("c"))
	player := &mockAudioPlayer{nextStream: 1}
	publisher := &mockEventPublisher{}
	svc := newTestPlaybackService(repo, player, publisher)
	ctx := context.Background()

	if err := svc.Stop(ctx, StopInput{GuildID: testGuildID}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if state.Queue.Len() != 0 || state.Queue.Current() != nil {
		t.Error("expected queue to be cleared")
	}
	if len(player.stopped) != 1 {
		t.Fatalf("expected stream to be stopped, got %v", player.stopped)
	}

	err := svc.HandleTrackEnded(ctx, domain.TrackEndedEvent{
		GuildID:    testGuildID,
		StreamID:   1,
		Reason:     domain.TrackEndStopped,
		FramesSent: 10,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(player.played) != 0 {
		t.Errorf("expected nothing to play after stop, got %v", player.played)
	}
	finished := publisher.playbackFinished()
	if len(finished) != 1 || !finished[0].QueueFinished {
		t.Errorf("expected queue finished event, got %v", finished)
	}
}

func TestPlaybackService_Stop_NotConnected(t *testing.T) {
	svc := newTestPlaybackService(newMockRepository(), &mockAudioPlayer{}, &mockEventPublisher{})

	err := svc.Stop(context.Background(), StopInput{GuildID: testGuildID})
	if !errors.Is(err, ErrNotConnected) {
		t.Errorf("expected ErrNotConnected, got %v", err)
	}
}

func TestPlaybackService_Previous_WhilePlaying(t *testing.T) {
	repo := newMockRepository()
	a, b := mockTrack("a"), mockTrack("b")
	state := repo.createConnectedState(testGuildID, 200, 300)
	state.Queue.Add(a, b)
	state.Queue.Advance()
	state.Queue.Advance()
	state.AttachStream(1)
	player := &mockAudioPlayer{nextStream: 1}
	svc := newTestPlaybackService(repo, player, &mockEventPublisher{})
	ctx := context.Background()

	out, err := svc.Previous(ctx, PreviousInput{GuildID: testGuildID})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Track != a {
		t.Errorf("expected a, got %v", out.Track)
	}
	if len(player.stopped) != 1 {
		t.Fatalf("expected current stream to be stopped, got %v", player.stopped)
	}

	err = svc.HandleTrackEnded(ctx, domain.TrackEndedEvent{
		GuildID:    testGuildID,
		StreamID:   1,
		Reason:     domain.TrackEndStopped,
		FramesSent: 10,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(player.played) != 1 || player.played[0] != a {
		t.Fatalf("expected a to replay, got %v", player.played)
	}
	if pending := state.Queue.Pending(); len(pending) != 1 || pending[0] != b {
		t.Errorf("expected b back at front of pending, got %v", pending)
	}
}

func TestPlaybackService_Previous_WhileIdle(t *testing.T) {
	repo := newMockRepository()
	a := mockTrack("a")
	state := repo.createConnectedState(testGuildID, 200, 300)
	state.Queue.Add(a)
	state.Queue.Advance()
	state.Queue.Advance() // finished, a in history
	player := &mockAudioPlayer{}
	svc := newTestPlaybackService(repo, player, &mockEventPublisher{})

	out, err := svc.Previous(context.Background(), PreviousInput{GuildID: testGuildID})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if out.Track != a {
		t.Errorf("expected a, got %v", out.Track)
	}
	if len(player.played) != 1 || player.played[0] != a {
		t.Errorf("expected a to start immediately, got %v", player.played)
	}
	if !state.HasActiveStream() {
		t.Error("expected active stream")
	}
}

func TestPlaybackService_Previous_WhileIdleStartFails(t *testing.T) {
	repo := newMockRepository()
	a := mockTrack("a")
	state := repo.createConnectedState(testGuildID, 200, 300)
	state.Queue.Add(a)
	state.Queue.Advance()
	state.Queue.Advance() // finished, a in history
	player := &mockAudioPlayer{playErrs: []error{errors.New("exec: \"ffmpeg\": executable file not found")}}
	publisher := &mockEventPublisher{}
	svc := newTestPlaybackService(repo, player, publisher)

	out, err := svc.Previous(context.Background(), PreviousInput{GuildID: testGuildID})
	if !errors.Is(err, ErrStreamConstruction) {
		t.Fatalf("expected ErrStreamConstruction, got %v (output %+v)", err, out)
	}
	if out != nil {
		t.Errorf("expected no output, got %+v", out)
	}
	if state.HasActiveStream() {
		t.Error("expected no active stream")
	}
	if failed := publisher.playbackFailed(); len(failed) != 1 {
		t.Errorf("expected 1 PlaybackFailedEvent, got %d", len(failed))
	}
}

func TestPlaybackService_Previous_AfterStop(t *testing.T) {
	repo := newMockRepository()
	state := repo.createConnectedState(testGuildID, 200, 300)
	state.Queue.Add(mockTrack("a"), mockTrack("b"))
	state.Queue.Advance()
	state.Queue.Advance()
	state.AttachStream(1)
	player := &mockAudioPlayer{nextStream: 1}
	svc := newTestPlaybackService(repo, player, &mockEventPublisher{})
	ctx := context.Background()

	if _, err := svc.Skip(ctx, SkipInput{GuildID: testGuildID}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := svc.Previous(ctx, PreviousInput{GuildID: testGuildID}); !errors.Is(err, ErrNotPlaying) {
		t.Errorf("expected ErrNotPlaying while transitioning, got %v", err)
	}
	if len(state.Queue.History()) != 1 {
		t.Errorf("expected history untouched, got %v", state.Queue.History())
	}
}

func TestPlaybackService_Previous_NoHistory(t *testing.T) {
	repo := newMockRepository()
	repo.createPlayingState(testGuildID, 1, mockTrack("a"))
	player := &mockAudioPlayer{}
	svc := newTestPlaybackService(repo, player, &mockEventPublisher{})

	_, err := svc.Previous(context.Background(), PreviousInput{GuildID: testGuildID})
	if !errors.Is(err, ErrNoHistory) {
		t.Errorf("expected ErrNoHistory, got %v", err)
	}
	if len(player.stopped) != 0 {
		t.Error("expected stream to keep playing")
	}
}

func TestPlaybackService_AdjustVolume(t *testing.T) {
	tests := []struct {
		name    string
		start   domain.Volume
		delta   domain.Volume
		want    domain.Volume
		playing bool
	}{
		{name: "step up", start: 1.0, delta: domain.VolumeStep, want: 1.1, playing: true},
		{name: "step down", start: 1.0, delta: -domain.VolumeStep, want: 0.9, playing: true},
		{name: "clamp high", start: 2.0, delta: domain.VolumeStep, want: 2.0, playing: true},
		{name: "clamp low", start: 0.0, delta: -domain.VolumeStep, want: 0.0, playing: true},
		{name: "persists without stream", start: 1.0, delta: domain.VolumeStep, want: 1.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMockRepository()
			var state *domain.PlayerState
			if tt.playing {
				state = repo.createPlayingState(testGuildID, 1, mockTrack("a"))
			} else {
				state = repo.createConnectedState(testGuildID, 200, 300)
			}
			state.Queue.SetVolume(tt.start)
			player := &mockAudioPlayer{}
			svc := newTestPlaybackService(repo, player, &mockEventPublisher{})

			out, err := svc.AdjustVolume(context.Background(), AdjustVolumeInput{
				GuildID: testGuildID,
				Delta:   tt.delta,
			})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if out.Volume != tt.want {
				t.Errorf("expected volume %v, got %v", tt.want, out.Volume)
			}
			if state.Queue.Volume() != tt.want {
				t.Errorf("expected queue volume %v, got %v", tt.want, state.Queue.Volume())
			}
			if tt.playing && (len(player.volumes) != 1 || player.volumes[0] != tt.want) {
				t.Errorf("expected live volume %v, got %v", tt.want, player.volumes)
			}
			if !tt.playing && len(player.volumes) != 0 {
				t.Errorf("expected no live volume change, got %v", player.volumes)
			}
		})
	}
}

func TestPlaybackService_SetVolume_Clamps(t *testing.T) {
	repo := newMockRepository()
	svc := newTestPlaybackService(repo, &mockAudioPlayer{}, &mockEventPublisher{})

	out, err := svc.SetVolume(context.Background(), SetVolumeInput{GuildID: testGuildID, Volume: 9})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if out.Volume != domain.MaxVolume {
		t.Errorf("expected %v, got %v", domain.MaxVolume, out.Volume)
	}
}

func TestPlaybackService_ToggleMute_RestoresVolume(t *testing.T) {
	repo := newMockRepository()
	state := repo.createPlayingState(testGuildID, 1, mockTrack("a"))
	state.Queue.SetVolume(1.3)
	player := &mockAudioPlayer{}
	svc := newTestPlaybackService(repo, player, &mockEventPublisher{})
	ctx := context.Background()

	out, err := svc.ToggleMute(ctx, ToggleMuteInput{GuildID: testGuildID})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !out.Muted {
		t.Error("expected muted")
	}

	out, err = svc.ToggleMute(ctx, ToggleMuteInput{GuildID: testGuildID})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Muted {
		t.Error("expected unmuted")
	}

	if len(player.volumes) != 2 || player.volumes[0] != 0 || player.volumes[1] != 1.3 {
		t.Errorf("expected live volumes [0 1.3], got %v", player.volumes)
	}
	if state.Queue.Volume() != 1.3 {
		t.Errorf("expected queue volume to stay 1.3, got %v", state.Queue.Volume())
	}
}

func TestPlaybackService_ToggleMute_NoStream(t *testing.T) {
	repo := newMockRepository()
	repo.createConnectedState(testGuildID, 200, 300)
	svc := newTestPlaybackService(repo, &mockAudioPlayer{}, &mockEventPublisher{})

	_, err := svc.ToggleMute(context.Background(), ToggleMuteInput{GuildID: testGuildID})
	if !errors.Is(err, ErrNotPlaying) {
		t.Errorf("expected ErrNotPlaying, got %v", err)
	}
}

func TestPlaybackService_NewStreamKeepsMute(t *testing.T) {
	repo := newMockRepository()
	state := repo.createPlayingState(testGuildID, 1, mockTrack("a"), mockTrack("b"))
	state.SetMuted(true)
	player := &mockAudioPlayer{nextStream: 1}
	svc := newTestPlaybackService(repo, player, &mockEventPublisher{})

	err := svc.HandleTrackEnded(context.Background(), domain.TrackEndedEvent{
		GuildID:    testGuildID,
		StreamID:   1,
		Reason:     domain.TrackEndFinished,
		FramesSent: 10,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(player.playVolumes) != 1 || player.playVolumes[0] != 0 {
		t.Errorf("expected next stream to start muted, got %v", player.playVolumes)
	}
}

func TestPlaybackService_CycleLoopMode(t *testing.T) {
	repo := newMockRepository()
	svc := newTestPlaybackService(repo, &mockAudioPlayer{}, &mockEventPublisher{})
	ctx := context.Background()

	want := []domain.LoopMode{domain.LoopModeQueue, domain.LoopModeTrack, domain.LoopModeNone}
	for i, w := range want {
		out, err := svc.CycleLoopMode(ctx, CycleLoopModeInput{GuildID: testGuildID})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out.NewMode != w {
			t.Errorf("cycle %d: expected %v, got %v", i, w, out.NewMode)
		}
	}
}

func TestPlaybackService_SetLoopMode(t *testing.T) {
	repo := newMockRepository()
	svc := newTestPlaybackService(repo, &mockAudioPlayer{}, &mockEventPublisher{})

	err := svc.SetLoopMode(context.Background(), SetLoopModeInput{
		GuildID: testGuildID,
		Mode:    domain.LoopModeTrack,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := repo.Get(testGuildID).Queue.LoopMode(); got != domain.LoopModeTrack {
		t.Errorf("expected LoopModeTrack, got %v", got)
	}
}

func TestPlaybackService_Controls(t *testing.T) {
	repo := newMockRepository()
	state := repo.createPlayingState(testGuildID, 1, mockTrack("a"))
	state.SetStatus(domain.StatusPaused)
	state.SetMuted(true)
	state.Queue.SetLoopMode(domain.LoopModeQueue)
	svc := newTestPlaybackService(repo, &mockAudioPlayer{}, &mockEventPublisher{})

	got := svc.Controls(testGuildID)

	if !got.Connected || !got.Paused || !got.Muted || got.LoopMode != domain.LoopModeQueue {
		t.Errorf("unexpected controls %+v", got)
	}
	if empty := svc.Controls(snowflake.ID(42)); empty != (ControlsOutput{}) {
		t.Errorf("expected zero controls for unknown guild, got %+v", empty)
	}
}

func TestPlaybackService_StartIfIdle(t *testing.T) {
	tests := []struct {
		name      string
		setup     func(repo *mockRepository)
		wantErr   error
		wantTrack bool
	}{
		{
			name: "idle with queued track",
			setup: func(repo *mockRepository) {
				state := repo.createConnectedState(testGuildID, 200, 300)
				state.Queue.Add(mockTrack("a"))
			},
			wantTrack: true,
		},
		{
			name: "already playing",
			setup: func(repo *mockRepository) {
				state := repo.createPlayingState(testGuildID, 1, mockTrack("a"))
				state.Queue.Add(mockTrack("b"))
			},
		},
		{
			name: "not connected",
			setup: func(repo *mockRepository) {
				state := repo.GetOrCreate(testGuildID)
				state.Queue.Add(mockTrack("a"))
			},
			wantErr: ErrNotConnected,
		},
		{
			name:    "no state",
			setup:   func(repo *mockRepository) {},
			wantErr: ErrNotConnected,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMockRepository()
			tt.setup(repo)
			player := &mockAudioPlayer{}
			svc := newTestPlaybackService(repo, player, &mockEventPublisher{})

			track, err := svc.StartIfIdle(context.Background(), StartInput{GuildID: testGuildID})

			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected error %v, got %v", tt.wantErr, err)
			}
			if tt.wantTrack && track == nil {
				t.Error("expected a track to start")
			}
			if !tt.wantTrack && track != nil {
				t.Errorf("expected no track, got %v", track)
			}
		})
	}
}
