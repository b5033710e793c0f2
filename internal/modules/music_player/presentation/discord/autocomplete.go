package discord

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/sglre6355/antigravity/internal/modules/music_player/application/usecases"
)

const (
	// Discord rejects autocomplete answers after three seconds.
	autocompleteTimeout = 2500 * time.Millisecond
	autocompleteLimit   = 10
	maxChoiceLength     = 100
)

// AutocompleteHandler handles autocomplete requests.
type AutocompleteHandler struct {
	trackLoader *usecases.TrackLoaderService
}

// NewAutocompleteHandler creates a new AutocompleteHandler.
func NewAutocompleteHandler(trackLoader *usecases.TrackLoaderService) *AutocompleteHandler {
	return &AutocompleteHandler{
		trackLoader: trackLoader,
	}
}

// HandleInteraction answers autocomplete interactions for the music commands.
func (h *AutocompleteHandler) HandleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommandAutocomplete {
		return
	}

	if i.ApplicationCommandData().Name != "play" {
		return
	}

	choices := h.PlayChoices(i.ApplicationCommandData().Options)
	if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionApplicationCommandAutocompleteResult,
		Data: &discordgo.InteractionResponseData{
			Choices: choices,
		},
	}); err != nil {
		slog.Debug("failed to answer autocomplete", "error", err)
	}
}

// PlayChoices suggests tracks for the focused query option of /play.
// The choice value is the track URL so it can be played directly.
func (h *AutocompleteHandler) PlayChoices(
	options []*discordgo.ApplicationCommandInteractionDataOption,
) []*discordgo.ApplicationCommandOptionChoice {
	choices := []*discordgo.ApplicationCommandOptionChoice{}

	// Get the current query value
	var query string
	for _, opt := range options {
		if opt.Name == "query" && opt.Focused {
			query = opt.StringValue()
			break
		}
	}

	// Don't search for very short queries
	if len([]rune(query)) < 2 {
		return choices
	}

	ctx, cancel := context.WithTimeout(context.Background(), autocompleteTimeout)
	defer cancel()

	output, err := h.trackLoader.SearchTracks(ctx, usecases.SearchTracksInput{
		Query: query,
		Limit: autocompleteLimit,
	})
	if err != nil {
		slog.Debug("autocomplete search failed", "query", query, "error", err)
		return choices
	}

	for _, track := range output.Tracks {
		// Choice values are capped at 100 characters too
		if track.URL == "" || len(track.URL) > maxChoiceLength {
			continue
		}

		name := track.Title
		if track.Uploader != "" {
			name = fmt.Sprintf("%s - %s", track.Title, track.Uploader)
		}
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{
			Name:  truncate(name, maxChoiceLength),
			Value: track.URL,
		})
	}

	return choices
}

func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-3]) + "..."
}
