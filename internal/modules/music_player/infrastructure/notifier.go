package infrastructure

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/antigravity/internal/modules/music_player/application/ports"
)

// Embed colors.
const (
	colorNowPlaying = 0x08c404
	colorRed        = 0xE74C3C
	colorNeutral    = 0x95A5A6
)

const queueFinishedMessage = "Queue finished. Silence falls..."

// ComponentsFunc builds the message components attached to a "Now Playing" message.
type ComponentsFunc func(info *ports.NowPlayingInfo) []discordgo.MessageComponent

// messageSender is the part of a discordgo session the notifier uses.
type messageSender interface {
	ChannelMessageSendComplex(
		channelID string,
		data *discordgo.MessageSend,
		options ...discordgo.RequestOption,
	) (*discordgo.Message, error)
	ChannelMessageDelete(channelID, messageID string, options ...discordgo.RequestOption) error
}

// Notifier sends notifications to Discord channels.
type Notifier struct {
	session    messageSender
	components ComponentsFunc
	httpClient *http.Client
}

// NewNotifier creates a new Notifier. components may be nil.
func NewNotifier(session *discordgo.Session, components ComponentsFunc) *Notifier {
	return newNotifier(session, components)
}

func newNotifier(session messageSender, components ComponentsFunc) *Notifier {
	return &Notifier{
		session:    session,
		components: components,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

// SendNowPlaying sends a "Now Playing" embed with the playback controls and returns the message ID.
func (n *Notifier) SendNowPlaying(
	channelID snowflake.ID,
	info *ports.NowPlayingInfo,
) (snowflake.ID, error) {
	embed := nowPlayingEmbed(info)

	if thumbnailURL := n.getBestThumbnail(info.PageURL, info.ThumbnailURL); thumbnailURL != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{
			URL: thumbnailURL,
		}
	}

	message := &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{embed},
	}
	if n.components != nil {
		message.Components = n.components(info)
	}

	msg, err := n.session.ChannelMessageSendComplex(channelID.String(), message)
	if err != nil {
		return 0, err
	}
	messageID, err := snowflake.Parse(msg.ID)
	if err != nil {
		return 0, err
	}
	return messageID, nil
}

// nowPlayingEmbed builds the embed without the thumbnail.
func nowPlayingEmbed(info *ports.NowPlayingInfo) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Author: &discordgo.MessageEmbedAuthor{
			Name: "Now Playing",
		},
		Title:     info.Title,
		URL:       info.PageURL,
		Color:     colorNowPlaying,
		Timestamp: info.EnqueuedAt.UTC().Format(time.RFC3339),
		Fields: []*discordgo.MessageEmbedField{
			{
				Name:   "Uploader",
				Value:  orUnknown(info.Uploader),
				Inline: true,
			},
			{
				Name:   "Duration",
				Value:  info.Duration,
				Inline: true,
			},
			{
				Name:   "Requested by",
				Value:  fmt.Sprintf("<@%s>", info.RequesterID),
				Inline: true,
			},
		},
		Footer: &discordgo.MessageEmbedFooter{
			Text: nowPlayingFooter(info),
		},
	}

	return embed
}

func nowPlayingFooter(info *ports.NowPlayingInfo) string {
	volume := info.Volume.String()
	if info.Muted {
		volume = "muted"
	}

	parts := []string{
		"Volume " + volume,
		"Loop " + info.LoopMode.String(),
	}
	if info.QueueLength > 0 {
		parts = append(parts, fmt.Sprintf("%d up next", info.QueueLength))
	}
	return strings.Join(parts, " • ")
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}

// SendQueueFinished tells the channel that nothing is left to play.
func (n *Notifier) SendQueueFinished(channelID snowflake.ID) error {
	embed := &discordgo.MessageEmbed{
		Description: queueFinishedMessage,
		Color:       colorNeutral,
	}

	_, err := n.session.ChannelMessageSendComplex(channelID.String(), &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{embed},
	})
	return err
}

// DeleteMessage deletes a message from the channel.
func (n *Notifier) DeleteMessage(channelID snowflake.ID, messageID snowflake.ID) error {
	return n.session.ChannelMessageDelete(channelID.String(), messageID.String())
}

// SendError sends an error message embed to the channel.
func (n *Notifier) SendError(channelID snowflake.ID, message string) error {
	embed := &discordgo.MessageEmbed{
		Description: message,
		Color:       colorRed,
	}

	_, err := n.session.ChannelMessageSendComplex(channelID.String(), &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{embed},
	})
	return err
}

// getBestThumbnail prefers the highest quality YouTube thumbnail available,
// falling back to the thumbnail the resolver reported.
func (n *Notifier) getBestThumbnail(pageURL string, fallbackURL string) string {
	videoID := youtubeVideoID(pageURL)
	if videoID == "" {
		return fallbackURL
	}
	return n.getYouTubeThumbnail(videoID, fallbackURL)
}

// getYouTubeThumbnail tries to find the highest quality YouTube thumbnail available.
func (n *Notifier) getYouTubeThumbnail(videoID string, fallbackURL string) string {
	qualities := []string{"maxresdefault", "sddefault", "hqdefault", "mqdefault"}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	for _, quality := range qualities {
		url := fmt.Sprintf("https://img.youtube.com/vi/%s/%s.jpg", videoID, quality)
		if n.urlExists(ctx, url) {
			return url
		}
	}

	return fallbackURL
}

// youtubeVideoID extracts the video ID from YouTube and YouTube Music page URLs.
func youtubeVideoID(pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}

	host := strings.TrimPrefix(u.Hostname(), "www.")
	switch host {
	case "youtube.com", "music.youtube.com", "m.youtube.com":
		return u.Query().Get("v")
	case "youtu.be":
		return strings.Trim(u.Path, "/")
	default:
		return ""
	}
}

// urlExists checks if a URL returns a successful response using a HEAD request.
func (n *Notifier) urlExists(ctx context.Context, url string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return false
	}

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer func() { _ = resp.Body.Close() }()

	return resp.StatusCode == http.StatusOK
}

// Ensure Notifier implements ports.NotificationSender.
var _ ports.NotificationSender = (*Notifier)(nil)
