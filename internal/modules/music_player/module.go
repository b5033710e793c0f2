package music_player

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/antigravity/internal/bot"
	"github.com/sglre6355/antigravity/internal/modules/music_player/application"
	"github.com/sglre6355/antigravity/internal/modules/music_player/application/ports"
	"github.com/sglre6355/antigravity/internal/modules/music_player/application/usecases"
	"github.com/sglre6355/antigravity/internal/modules/music_player/domain"
	"github.com/sglre6355/antigravity/internal/modules/music_player/infrastructure"
	"github.com/sglre6355/antigravity/internal/modules/music_player/presentation/discord"
)

func init() {
	bot.Register(&MusicPlayerModule{})
}

// Compile-time interface checks.
var (
	_ bot.ConfigurableModule = (*MusicPlayerModule)(nil)
	_ bot.ComponentModule    = (*MusicPlayerModule)(nil)
)

// MusicPlayerModule provides music playback commands.
type MusicPlayerModule struct {
	config          *Config
	commandHandlers *discord.CommandHandlers
	controls        *discord.ControlHandlers
	autocomplete    *discord.AutocompleteHandler
	eventHandlers   *discord.EventHandlers

	// Event-driven components
	eventBus            *infrastructure.ChannelEventBus
	playbackHandler     *application.PlaybackEventHandler
	notificationHandler *application.NotificationEventHandler

	lavalink *infrastructure.LavalinkSearcher
}

// Name returns the module name.
func (m *MusicPlayerModule) Name() string {
	return "music_player"
}

// Commands returns the slash commands for this module.
func (m *MusicPlayerModule) Commands() []*discordgo.ApplicationCommand {
	return discord.Commands()
}

// CommandHandlers returns the command handlers for this module.
func (m *MusicPlayerModule) CommandHandlers() map[string]bot.InteractionHandler {
	return map[string]bot.InteractionHandler{
		"join":     m.commandHandlers.HandleJoin,
		"leave":    m.commandHandlers.HandleLeave,
		"play":     m.commandHandlers.HandlePlay,
		"stop":     m.commandHandlers.HandleStop,
		"pause":    m.commandHandlers.HandlePause,
		"resume":   m.commandHandlers.HandleResume,
		"skip":     m.commandHandlers.HandleSkip,
		"previous": m.commandHandlers.HandlePrevious,
		"queue":    m.commandHandlers.HandleQueue,
		"shuffle":  m.commandHandlers.HandleShuffle,
		"volume":   m.commandHandlers.HandleVolume,
		"loop":     m.commandHandlers.HandleLoop,
	}
}

// ComponentHandlers returns the handler for the "Now Playing" buttons.
func (m *MusicPlayerModule) ComponentHandlers() map[string]bot.InteractionHandler {
	return map[string]bot.InteractionHandler{
		discord.ControlPrefix: m.controls.HandleControl,
	}
}

// EventHandlers returns the event handlers for this module.
func (m *MusicPlayerModule) EventHandlers() []bot.EventHandler {
	return []bot.EventHandler{
		func(s *discordgo.Session, event *discordgo.VoiceStateUpdate) {
			if m.eventHandlers != nil {
				m.eventHandlers.HandleVoiceStateUpdate(s, event)
			}
		},
		func(s *discordgo.Session, i *discordgo.InteractionCreate) {
			if m.autocomplete != nil {
				m.autocomplete.HandleInteraction(s, i)
			}
		},
	}
}

// LoadConfig loads module-specific configuration from environment variables.
func (m *MusicPlayerModule) LoadConfig() error {
	cfg, err := LoadConfig()
	if err != nil {
		return err
	}
	m.config = cfg
	return nil
}

// Init wires the module. The session is already connected, so the bot user is known.
func (m *MusicPlayerModule) Init(deps bot.ModuleDependencies) error {
	if m.config == nil {
		if err := m.LoadConfig(); err != nil {
			return err
		}
	}

	botID, err := snowflake.Parse(deps.Session.State.User.ID)
	if err != nil {
		return fmt.Errorf("failed to parse bot user ID: %w", err)
	}

	// Create event bus; stream completions are handed to the playback handler through it
	m.eventBus = infrastructure.NewChannelEventBus(infrastructure.DefaultEventBufferSize)

	// Create infrastructure
	repo := infrastructure.NewMemoryRepository(
		infrastructure.WithDefaultVolume(domain.Volume(m.config.DefaultVolume)),
	)
	voice := infrastructure.NewDiscordVoice(
		deps.Session,
		infrastructure.NewFFmpegTranscoder(m.config.FFmpegPath),
		m.eventBus,
		m.config.VoiceConnectTimeout,
	)
	resolver := infrastructure.NewYtdlpResolver(m.config.YtdlpPath, m.config.ResolverRatePerSecond)
	searcher, err := m.newSearcher(botID, resolver)
	if err != nil {
		return err
	}
	voiceState := infrastructure.NewVoiceStateProvider(deps.Session)
	userInfo := infrastructure.NewDiscordUserInfoProvider(deps.Session)
	notifier := infrastructure.NewNotifier(deps.Session, discord.NowPlayingComponents)

	// Create services with event bus
	voiceChannel := usecases.NewVoiceChannelService(repo, voice, voiceState, voice, m.eventBus)
	playback := usecases.NewPlaybackService(repo, voice, m.eventBus, m.config.MaxConsecutiveFailures)
	queue := usecases.NewQueueService(repo, m.eventBus)
	trackLoader := usecases.NewTrackLoaderService(resolver, searcher, userInfo)
	notificationChannel := usecases.NewNotificationChannelService(repo)

	// Create application event handlers
	m.playbackHandler = application.NewPlaybackEventHandler(playback, m.eventBus)
	m.notificationHandler = application.NewNotificationEventHandler(repo, m.eventBus, notifier)

	// Register event handlers
	if err := m.playbackHandler.Start(); err != nil {
		return err
	}
	if err := m.notificationHandler.Start(); err != nil {
		return err
	}

	// Create presentation handlers
	m.commandHandlers = discord.NewCommandHandlers(
		voiceChannel,
		playback,
		queue,
		trackLoader,
		notificationChannel,
	)
	m.controls = discord.NewControlHandlers(playback, queue)
	m.autocomplete = discord.NewAutocompleteHandler(trackLoader)
	m.eventHandlers = discord.NewEventHandlers(botID, voiceChannel)

	slog.Info("initialized music player",
		"search_backend", m.config.SearchBackend,
		"max_failures", m.config.MaxConsecutiveFailures,
	)

	return nil
}

// newSearcher builds the autocomplete backend selected by MUSIC_SEARCH_BACKEND.
func (m *MusicPlayerModule) newSearcher(
	botID snowflake.ID,
	resolver *infrastructure.YtdlpResolver,
) (ports.TrackSearcher, error) {
	switch m.config.SearchBackend {
	case BackendYTSearch:
		return infrastructure.NewYTSearchSearcher(), nil
	case BackendYTMusic:
		return infrastructure.NewYTMusicSearcher(), nil
	case BackendLavalink:
		ctx, cancel := context.WithTimeout(context.Background(), m.config.VoiceConnectTimeout)
		defer cancel()

		lavalink, err := infrastructure.NewLavalinkSearcher(ctx, botID, infrastructure.LavalinkConfig{
			Address:  m.config.LavalinkAddress,
			Password: m.config.LavalinkPassword,
		})
		if err != nil {
			return nil, err
		}
		m.lavalink = lavalink
		return lavalink, nil
	default:
		return resolver, nil
	}
}

// Shutdown cleans up module resources.
func (m *MusicPlayerModule) Shutdown() error {
	// Close event bus
	if m.eventBus != nil {
		m.eventBus.Close()
	}

	// Close Lavalink connection
	if m.lavalink != nil {
		m.lavalink.Close()
	}

	return nil
}
