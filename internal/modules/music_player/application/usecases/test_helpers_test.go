package usecases

import (
	"context"
	"sync"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/antigravity/internal/modules/music_player/application/ports"
	"github.com/sglre6355/antigravity/internal/modules/music_player/domain"
)

func mockTrack(id string) *domain.Track {
	return &domain.Track{
		ID:          domain.TrackID(id),
		Title:       "Track " + id,
		Uploader:    "Artist",
		StreamURL:   "https://cdn.example.com/" + id,
		PageURL:     "https://example.com/" + id,
		Duration:    3 * time.Minute,
		RequesterID: snowflake.ID(123),
	}
}

type mockRepository struct {
	mu      sync.Mutex
	states  map[snowflake.ID]*domain.PlayerState
	deleted []snowflake.ID
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		states: make(map[snowflake.ID]*domain.PlayerState),
	}
}

func (m *mockRepository) Get(guildID snowflake.ID) *domain.PlayerState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.states[guildID]
}

func (m *mockRepository) GetOrCreate(guildID snowflake.ID) *domain.PlayerState {
	m.mu.Lock()
	defer m.mu.Unlock()
	state, ok := m.states[guildID]
	if !ok {
		state = domain.NewPlayerState(guildID)
		m.states[guildID] = state
	}
	return state
}

func (m *mockRepository) Delete(guildID snowflake.ID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, guildID)
	delete(m.states, guildID)
}

// createConnectedState creates a PlayerState with the given IDs and saves it to the mock repository.
// Returns the state for further modification (e.g., adding tracks).
func (m *mockRepository) createConnectedState(
	guildID, voiceChannelID, notificationChannelID snowflake.ID,
) *domain.PlayerState {
	state := m.GetOrCreate(guildID)
	state.SetVoiceChannelID(voiceChannelID)
	state.SetNotificationChannelID(notificationChannelID)
	return state
}

// createPlayingState creates a connected state that is streaming the first of tracks.
func (m *mockRepository) createPlayingState(
	guildID snowflake.ID,
	streamID domain.StreamID,
	tracks ...*domain.Track,
) *domain.PlayerState {
	state := m.createConnectedState(guildID, snowflake.ID(200), snowflake.ID(300))
	state.Queue.Add(tracks...)
	state.Queue.Advance()
	state.AttachStream(streamID)
	return state
}

type mockAudioPlayer struct {
	playErrs   []error // consumed in order by Play; nil entries succeed
	stopErr    error
	pauseErr   error
	resumeErr  error
	volumeErr  error
	nextStream domain.StreamID

	played      []*domain.Track
	playVolumes []domain.Volume
	stopped     []domain.TrackEndReason
	paused      int
	resumed     int
	volumes     []domain.Volume // live SetVolume calls
}

func (m *mockAudioPlayer) Play(
	_ context.Context,
	_ snowflake.ID,
	track *domain.Track,
	volume domain.Volume,
) (domain.StreamID, error) {
	if len(m.playErrs) > 0 {
		err := m.playErrs[0]
		m.playErrs = m.playErrs[1:]
		if err != nil {
			return 0, err
		}
	}
	m.played = append(m.played, track)
	m.playVolumes = append(m.playVolumes, volume)
	m.nextStream++
	return m.nextStream, nil
}

func (m *mockAudioPlayer) Stop(_ context.Context, _ snowflake.ID, reason domain.TrackEndReason) error {
	if m.stopErr != nil {
		return m.stopErr
	}
	m.stopped = append(m.stopped, reason)
	return nil
}

func (m *mockAudioPlayer) Pause(_ context.Context, _ snowflake.ID) error {
	if m.pauseErr != nil {
		return m.pauseErr
	}
	m.paused++
	return nil
}

func (m *mockAudioPlayer) Resume(_ context.Context, _ snowflake.ID) error {
	if m.resumeErr != nil {
		return m.resumeErr
	}
	m.resumed++
	return nil
}

func (m *mockAudioPlayer) SetVolume(_ context.Context, _ snowflake.ID, volume domain.Volume) error {
	if m.volumeErr != nil {
		return m.volumeErr
	}
	m.volumes = append(m.volumes, volume)
	return nil
}

type mockVoiceConnection struct {
	joinErr  error
	leaveErr error
	joined   []snowflake.ID
	left     int
}

func (m *mockVoiceConnection) JoinChannel(_ context.Context, _, channelID snowflake.ID) error {
	if m.joinErr != nil {
		return m.joinErr
	}
	m.joined = append(m.joined, channelID)
	return nil
}

func (m *mockVoiceConnection) LeaveChannel(_ context.Context, _ snowflake.ID) error {
	m.left++
	return m.leaveErr
}

type mockTrackResolver struct {
	info    *ports.TrackInfo
	err     error
	queries []*domain.SearchQuery
}

func (m *mockTrackResolver) Resolve(
	_ context.Context,
	query *domain.SearchQuery,
) (*ports.TrackInfo, error) {
	m.queries = append(m.queries, query)
	if m.err != nil {
		return nil, m.err
	}
	return m.info, nil
}

type mockTrackSearcher struct {
	results []ports.SearchResult
	err     error
	limits  []int
}

func (m *mockTrackSearcher) Search(
	_ context.Context,
	_ string,
	limit int,
) ([]ports.SearchResult, error) {
	m.limits = append(m.limits, limit)
	if m.err != nil {
		return nil, m.err
	}
	return m.results, nil
}

type mockUserInfoProvider struct {
	info *ports.UserInfo
	err  error
}

func (m *mockUserInfoProvider) GetUserInfo(_, _ snowflake.ID) (*ports.UserInfo, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.info, nil
}

type mockVoiceStateProvider struct {
	channels map[snowflake.ID]snowflake.ID // userID -> channelID
	err      error
}

func (m *mockVoiceStateProvider) GetUserVoiceChannel(
	_, userID snowflake.ID,
) (*snowflake.ID, error) {
	if m.err != nil {
		return nil, m.err
	}
	channelID, ok := m.channels[userID]
	if !ok {
		return nil, nil
	}
	return &channelID, nil
}

type mockEventPublisher struct {
	mu     sync.Mutex
	events []domain.Event
	err    error
}

func (m *mockEventPublisher) Publish(event domain.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, event)
	return nil
}

func (m *mockEventPublisher) playbackStarted() []domain.PlaybackStartedEvent {
	return eventsOf[domain.PlaybackStartedEvent](m)
}

func (m *mockEventPublisher) playbackFinished() []domain.PlaybackFinishedEvent {
	return eventsOf[domain.PlaybackFinishedEvent](m)
}

func (m *mockEventPublisher) playbackFailed() []domain.PlaybackFailedEvent {
	return eventsOf[domain.PlaybackFailedEvent](m)
}

func (m *mockEventPublisher) trackEnqueued() []domain.TrackEnqueuedEvent {
	return eventsOf[domain.TrackEnqueuedEvent](m)
}

func eventsOf[T domain.Event](m *mockEventPublisher) []T {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []T
	for _, event := range m.events {
		if e, ok := event.(T); ok {
			result = append(result, e)
		}
	}
	return result
}

// Compile-time checks that the mocks implement the ports.
var (
	_ domain.PlayerStateRepository = (*mockRepository)(nil)
	_ ports.AudioPlayer            = (*mockAudioPlayer)(nil)
	_ ports.VoiceConnection        = (*mockVoiceConnection)(nil)
	_ ports.TrackResolver          = (*mockTrackResolver)(nil)
	_ ports.TrackSearcher          = (*mockTrackSearcher)(nil)
	_ ports.UserInfoProvider       = (*mockUserInfoProvider)(nil)
	_ ports.VoiceStateProvider     = (*mockVoiceStateProvider)(nil)
	_ ports.EventPublisher         = (*mockEventPublisher)(nil)
)
