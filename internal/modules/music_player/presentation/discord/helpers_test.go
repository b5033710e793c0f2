package discord

import (
	"context"
	"sync"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/antigravity/internal/modules/music_player/application/ports"
	"github.com/sglre6355/antigravity/internal/modules/music_player/application/usecases"
	"github.com/sglre6355/antigravity/internal/modules/music_player/domain"
)

const (
	testGuildID        snowflake.ID = 100
	testVoiceChannelID snowflake.ID = 200
	testTextChannelID  snowflake.ID = 300
	testUserID         snowflake.ID = 500
	testBotID          snowflake.ID = 900
)

type mockRepository struct {
	mu     sync.Mutex
	states map[snowflake.ID]*domain.PlayerState
}

func newMockRepository() *mockRepository {
	return &mockRepository{states: make(map[snowflake.ID]*domain.PlayerState)}
}

func (m *mockRepository) Get(guildID snowflake.ID) *domain.PlayerState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.states[guildID]
}

func (m *mockRepository) GetOrCreate(guildID snowflake.ID) *domain.PlayerState {
	m.mu.Lock()
	defer m.mu.Unlock()
	if state, ok := m.states[guildID]; ok {
		return state
	}
	state := domain.NewPlayerState(guildID)
	m.states[guildID] = state
	return state
}

func (m *mockRepository) Delete(guildID snowflake.ID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.states, guildID)
}

type mockAudioPlayer struct {
	mu      sync.Mutex
	nextID  domain.StreamID
	played  []*domain.Track
	stops   []domain.TrackEndReason
	volumes []domain.Volume
	playErr error
}

func (m *mockAudioPlayer) Play(
	_ context.Context,
	_ snowflake.ID,
	track *domain.Track,
	_ domain.Volume,
) (domain.StreamID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.playErr != nil {
		return 0, m.playErr
	}
	m.nextID++
	m.played = append(m.played, track)
	return m.nextID, nil
}

func (m *mockAudioPlayer) Stop(_ context.Context, _ snowflake.ID, reason domain.TrackEndReason) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stops = append(m.stops, reason)
	return nil
}

func (m *mockAudioPlayer) Pause(context.Context, snowflake.ID) error  { return nil }
func (m *mockAudioPlayer) Resume(context.Context, snowflake.ID) error { return nil }

func (m *mockAudioPlayer) SetVolume(_ context.Context, _ snowflake.ID, volume domain.Volume) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.volumes = append(m.volumes, volume)
	return nil
}

type mockVoiceConnection struct {
	joins   []snowflake.ID
	leaves  int
	joinErr error
}

func (m *mockVoiceConnection) JoinChannel(_ context.Context, _, channelID snowflake.ID) error {
	if m.joinErr != nil {
		return m.joinErr
	}
	m.joins = append(m.joins, channelID)
	return nil
}

func (m *mockVoiceConnection) LeaveChannel(context.Context, snowflake.ID) error {
	m.leaves++
	return nil
}

type mockVoiceState struct {
	channel *snowflake.ID
}

func (m *mockVoiceState) GetUserVoiceChannel(_, _ snowflake.ID) (*snowflake.ID, error) {
	return m.channel, nil
}

type mockResolver struct {
	info    *ports.TrackInfo
	err     error
	queries []*domain.SearchQuery
}

func (m *mockResolver) Resolve(_ context.Context, query *domain.SearchQuery) (*ports.TrackInfo, error) {
	m.queries = append(m.queries, query)
	if m.err != nil {
		return nil, m.err
	}
	return m.info, nil
}

type mockSearcher struct {
	results []ports.SearchResult
	err     error
	calls   int
}

func (m *mockSearcher) Search(_ context.Context, _ string, limit int) ([]ports.SearchResult, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	if len(m.results) > limit {
		return m.results[:limit], nil
	}
	return m.results, nil
}

type mockPublisher struct {
	mu     sync.Mutex
	events []domain.Event
}

func (m *mockPublisher) Publish(event domain.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

// testEnv wires the real services to mocked ports.
type testEnv struct {
	repo       *mockRepository
	audio      *mockAudioPlayer
	voice      *mockVoiceConnection
	voiceState *mockVoiceState
	resolver   *mockResolver
	searcher   *mockSearcher

	voiceChannel *usecases.VoiceChannelService
	playback     *usecases.PlaybackService
	queue        *usecases.QueueService
	trackLoader  *usecases.TrackLoaderService

	commands *CommandHandlers
	controls *ControlHandlers
}

func newTestEnv() *testEnv {
	channel := testVoiceChannelID
	env := &testEnv{
		repo:       newMockRepository(),
		audio:      &mockAudioPlayer{},
		voice:      &mockVoiceConnection{},
		voiceState: &mockVoiceState{channel: &channel},
		resolver:   &mockResolver{info: testTrackInfo("Song")},
		searcher:   &mockSearcher{},
	}
	publisher := &mockPublisher{}

	env.voiceChannel = usecases.NewVoiceChannelService(env.repo, env.voice, env.voiceState, env.audio, publisher)
	env.playback = usecases.NewPlaybackService(env.repo, env.audio, publisher, 3)
	env.queue = usecases.NewQueueService(env.repo, publisher)
	env.trackLoader = usecases.NewTrackLoaderService(env.resolver, env.searcher, nil)

	env.commands = NewCommandHandlers(
		env.voiceChannel,
		env.playback,
		env.queue,
		env.trackLoader,
		usecases.NewNotificationChannelService(env.repo),
	)
	env.controls = NewControlHandlers(env.playback, env.queue)
	return env
}

// connect joins the voice channel and queues tracks without starting playback.
func (e *testEnv) connect(t *testing.T, titles ...string) {
	t.Helper()
	if _, err := e.voiceChannel.Join(context.Background(), usecases.JoinInput{
		GuildID:               testGuildID,
		UserID:                testUserID,
		NotificationChannelID: testTextChannelID,
	}); err != nil {
		t.Fatalf("join failed: %v", err)
	}
	for _, title := range titles {
		if _, err := e.queue.Add(context.Background(), usecases.QueueAddInput{
			GuildID: testGuildID,
			Track:   testTrack(title),
		}); err != nil {
			t.Fatalf("add failed: %v", err)
		}
	}
}

// play connects, queues the titles and starts the first one.
func (e *testEnv) play(t *testing.T, titles ...string) {
	t.Helper()
	e.connect(t, titles...)
	if _, err := e.playback.StartIfIdle(context.Background(), usecases.StartInput{GuildID: testGuildID}); err != nil {
		t.Fatalf("start failed: %v", err)
	}
}

// finish leaves the queued titles in history with nothing playing.
func (e *testEnv) finish(t *testing.T, titles ...string) {
	t.Helper()
	e.connect(t, titles...)
	state := e.repo.Get(testGuildID)
	for range len(titles) + 1 {
		state.Queue.Advance()
	}
}

func testTrackInfo(title string) *ports.TrackInfo {
	return &ports.TrackInfo{
		Title:     title,
		Uploader:  "Artist",
		StreamURL: "https://cdn.example.com/" + title,
		PageURL:   "https://www.youtube.com/watch?v=" + title,
	}
}

func testTrack(title string) *domain.Track {
	info := testTrackInfo(title)
	return domain.NewTrack(info.Title, info.Uploader, 0, info.StreamURL, info.PageURL, "", false, testUserID, "alice")
}

func guildMember() *discordgo.Member {
	return &discordgo.Member{User: &discordgo.User{ID: testUserID.String(), Username: "alice"}}
}

func commandInteraction(
	name string,
	options ...*discordgo.ApplicationCommandInteractionDataOption,
) *discordgo.InteractionCreate {
	return &discordgo.InteractionCreate{
		Interaction: &discordgo.Interaction{
			Type:      discordgo.InteractionApplicationCommand,
			GuildID:   testGuildID.String(),
			ChannelID: testTextChannelID.String(),
			Member:    guildMember(),
			Data: discordgo.ApplicationCommandInteractionData{
				Name:    name,
				Options: options,
			},
		},
	}
}

func componentInteraction(customID string) *discordgo.InteractionCreate {
	return &discordgo.InteractionCreate{
		Interaction: &discordgo.Interaction{
			Type:      discordgo.InteractionMessageComponent,
			GuildID:   testGuildID.String(),
			ChannelID: testTextChannelID.String(),
			Member:    guildMember(),
			Data: discordgo.MessageComponentInteractionData{
				CustomID: customID,
			},
		},
	}
}

func stringOption(name, value string) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{
		Name:  name,
		Type:  discordgo.ApplicationCommandOptionString,
		Value: value,
	}
}

// Discord sends integers as JSON numbers.
func integerOption(name string, value int) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{
		Name:  name,
		Type:  discordgo.ApplicationCommandOptionInteger,
		Value: float64(value),
	}
}

func channelOption(name string, id snowflake.ID) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{
		Name:  name,
		Type:  discordgo.ApplicationCommandOptionChannel,
		Value: id.String(),
	}
}

// respondedEmbed returns the single embed of the last immediate response.
func respondedEmbed(t *testing.T, response *discordgo.InteractionResponse) *discordgo.MessageEmbed {
	t.Helper()
	if response == nil || response.Data == nil || len(response.Data.Embeds) != 1 {
		t.Fatalf("expected a response with one embed, got %+v", response)
	}
	return response.Data.Embeds[0]
}

// editedEmbed returns the single embed of the last deferred edit.
func editedEmbed(t *testing.T, edit *discordgo.WebhookEdit) *discordgo.MessageEmbed {
	t.Helper()
	if edit == nil || edit.Embeds == nil || len(*edit.Embeds) != 1 {
		t.Fatalf("expected an edit with one embed, got %+v", edit)
	}
	return (*edit.Embeds)[0]
}
