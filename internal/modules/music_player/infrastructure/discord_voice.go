package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/antigravity/internal/modules/music_player/application/ports"
	"github.com/sglre6355/antigravity/internal/modules/music_player/domain"
	"go.uber.org/atomic"
)

// DefaultVoiceConnectTimeout is the maximum time to wait for a voice connection to be established.
const DefaultVoiceConnectTimeout = 10 * time.Second

var errVoiceConnectTimeout = errors.New("timeout waiting for voice connection")

// voiceConn is the part of a Discord voice connection the player uses.
type voiceConn interface {
	OpusSink() chan<- []byte
	Speaking(speaking bool) error
	ChangeChannel(channelID string) error
	Disconnect() error
}

// voiceGateway opens voice connections.
type voiceGateway interface {
	JoinVoice(guildID, channelID string) (voiceConn, error)
}

type sessionGateway struct {
	session *discordgo.Session
}

func (g sessionGateway) JoinVoice(guildID, channelID string) (voiceConn, error) {
	vc, err := g.session.ChannelVoiceJoin(guildID, channelID, false, true)
	if err != nil {
		if vc != nil {
			_ = vc.Disconnect()
		}
		return nil, err
	}
	return discordVoiceConn{vc: vc}, nil
}

type discordVoiceConn struct {
	vc *discordgo.VoiceConnection
}

func (c discordVoiceConn) OpusSink() chan<- []byte      { return c.vc.OpusSend }
func (c discordVoiceConn) Speaking(speaking bool) error { return c.vc.Speaking(speaking) }
func (c discordVoiceConn) Disconnect() error            { return c.vc.Disconnect() }

func (c discordVoiceConn) ChangeChannel(channelID string) error {
	return c.vc.ChangeChannel(channelID, false, true)
}

// voiceSession is one guild's connection and the stream currently attached to it.
type voiceSession struct {
	conn   voiceConn
	stream *audioStream
}

// DiscordVoice implements the voice connection and audio player ports on top of
// discordgo voice, an ffmpeg transcoder and an Opus encoder.
type DiscordVoice struct {
	gateway        voiceGateway
	transcoder     Transcoder
	newEncoder     func() (frameEncoder, error)
	publisher      ports.EventPublisher
	connectTimeout time.Duration

	mu       sync.Mutex
	sessions map[snowflake.ID]*voiceSession

	streamSeq *atomic.Uint64
}

// NewDiscordVoice creates a new DiscordVoice.
func NewDiscordVoice(
	session *discordgo.Session,
	transcoder Transcoder,
	publisher ports.EventPublisher,
	connectTimeout time.Duration,
) *DiscordVoice {
	return newDiscordVoice(
		sessionGateway{session: session},
		transcoder,
		newOpusEncoder,
		publisher,
		connectTimeout,
	)
}

func newDiscordVoice(
	gateway voiceGateway,
	transcoder Transcoder,
	newEncoder func() (frameEncoder, error),
	publisher ports.EventPublisher,
	connectTimeout time.Duration,
) *DiscordVoice {
	if connectTimeout <= 0 {
		connectTimeout = DefaultVoiceConnectTimeout
	}
	return &DiscordVoice{
		gateway:        gateway,
		transcoder:     transcoder,
		newEncoder:     newEncoder,
		publisher:      publisher,
		connectTimeout: connectTimeout,
		sessions:       make(map[snowflake.ID]*voiceSession),
		streamSeq:      atomic.NewUint64(0),
	}
}

type joinResult struct {
	conn voiceConn
	err  error
}

// JoinChannel connects to a voice channel, or moves the guild's existing connection.
func (d *DiscordVoice) JoinChannel(ctx context.Context, guildID, channelID snowflake.ID) error {
	d.mu.Lock()
	session := d.sessions[guildID]
	d.mu.Unlock()

	if session != nil {
		if err := session.conn.ChangeChannel(channelID.String()); err != nil {
			return fmt.Errorf("failed to move voice connection: %w", err)
		}
		return nil
	}

	results := make(chan joinResult, 1)
	go func() {
		conn, err := d.gateway.JoinVoice(guildID.String(), channelID.String())
		results <- joinResult{conn: conn, err: err}
	}()

	timer := time.NewTimer(d.connectTimeout)
	defer timer.Stop()

	select {
	case result := <-results:
		if result.err != nil {
			return fmt.Errorf("failed to join voice channel: %w", result.err)
		}
		d.mu.Lock()
		d.sessions[guildID] = &voiceSession{conn: result.conn}
		d.mu.Unlock()
		return nil
	case <-ctx.Done():
		go abandonJoin(guildID, results)
		return fmt.Errorf("context cancelled while waiting for voice connection: %w", ctx.Err())
	case <-timer.C:
		go abandonJoin(guildID, results)
		return errVoiceConnectTimeout
	}
}

// abandonJoin closes a connection that arrives after its caller gave up.
func abandonJoin(guildID snowflake.ID, results <-chan joinResult) {
	result := <-results
	if result.conn == nil {
		return
	}
	if err := result.conn.Disconnect(); err != nil {
		slog.Debug("failed to close late voice connection", "guild", guildID, "error", err)
	}
}

// LeaveChannel tears down the current stream and disconnects from voice.
func (d *DiscordVoice) LeaveChannel(ctx context.Context, guildID snowflake.ID) error {
	d.mu.Lock()
	session := d.sessions[guildID]
	delete(d.sessions, guildID)
	d.mu.Unlock()

	if session == nil {
		return nil
	}

	if stream := session.stream; stream != nil {
		stream.Stop(domain.TrackEndTeardown)
		select {
		case <-stream.Done():
		case <-ctx.Done():
		}
	}

	_ = session.conn.Speaking(false)
	if err := session.conn.Disconnect(); err != nil {
		return fmt.Errorf("failed to leave voice channel: %w", err)
	}
	return nil
}

// Play starts streaming track into the guild's voice connection, replacing any current stream.
func (d *DiscordVoice) Play(
	ctx context.Context,
	guildID snowflake.ID,
	track *domain.Track,
	volume domain.Volume,
) (domain.StreamID, error) {
	d.mu.Lock()
	session := d.sessions[guildID]
	var previous *audioStream
	if session != nil {
		previous = session.stream
	}
	d.mu.Unlock()

	if session == nil {
		return 0, ports.ErrNoVoiceSession
	}

	if previous != nil {
		previous.Stop(domain.TrackEndStopped)
		select {
		case <-previous.Done():
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}

	encoder, err := d.newEncoder()
	if err != nil {
		return 0, err
	}

	source, err := d.transcoder.Open(track.StreamURL)
	if err != nil {
		return 0, err
	}

	id := domain.StreamID(d.streamSeq.Inc())
	stream := newAudioStream(
		id,
		guildID,
		source,
		encoder,
		session.conn.OpusSink(),
		volume,
		func(event domain.TrackEndedEvent) { d.reportEnd(session, event) },
	)

	d.mu.Lock()
	session.stream = stream
	d.mu.Unlock()

	if err := session.conn.Speaking(true); err != nil {
		slog.Debug("failed to set speaking state", "guild", guildID, "error", err)
	}

	go stream.run()

	slog.Debug("stream started", "guild", guildID, "stream", id, "track", track.Title)

	return id, nil
}

// reportEnd runs on the stream's goroutine once it has stopped pumping.
func (d *DiscordVoice) reportEnd(session *voiceSession, event domain.TrackEndedEvent) {
	d.mu.Lock()
	if session.stream != nil && session.stream.id == event.StreamID {
		session.stream = nil
	}
	d.mu.Unlock()

	slog.Debug("stream ended",
		"guild", event.GuildID,
		"stream", event.StreamID,
		"reason", event.Reason,
		"frames", event.FramesSent,
	)

	if d.publisher == nil {
		return
	}
	if err := d.publisher.Publish(event); err != nil {
		slog.Error("failed to publish track ended event",
			"guild", event.GuildID,
			"stream", event.StreamID,
			"error", err,
		)
	}
}

// Stop ends the current stream with the given reason.
func (d *DiscordVoice) Stop(_ context.Context, guildID snowflake.ID, reason domain.TrackEndReason) error {
	if stream := d.currentStream(guildID); stream != nil {
		stream.Stop(reason)
	}
	return nil
}

// Pause pauses the current stream.
func (d *DiscordVoice) Pause(_ context.Context, guildID snowflake.ID) error {
	if stream := d.currentStream(guildID); stream != nil {
		stream.Pause()
	}
	return nil
}

// Resume resumes the current stream.
func (d *DiscordVoice) Resume(_ context.Context, guildID snowflake.ID) error {
	if stream := d.currentStream(guildID); stream != nil {
		stream.Resume()
	}
	return nil
}

// SetVolume changes the gain of the current stream.
func (d *DiscordVoice) SetVolume(_ context.Context, guildID snowflake.ID, volume domain.Volume) error {
	if stream := d.currentStream(guildID); stream != nil {
		stream.SetVolume(volume)
	}
	return nil
}

func (d *DiscordVoice) currentStream(guildID snowflake.ID) *audioStream {
	d.mu.Lock()
	defer d.mu.Unlock()

	if session := d.sessions[guildID]; session != nil {
		return session.stream
	}
	return nil
}

// Ensure DiscordVoice implements port interfaces.
var (
	_ ports.AudioPlayer     = (*DiscordVoice)(nil)
	_ ports.VoiceConnection = (*DiscordVoice)(nil)
)
