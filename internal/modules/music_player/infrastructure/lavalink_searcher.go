package infrastructure

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/disgoorg/disgolink/v3/disgolink"
	"github.com/disgoorg/disgolink/v3/lavalink"
	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/antigravity/internal/modules/music_player/application/ports"
)

// LavalinkConfig contains Lavalink connection configuration.
type LavalinkConfig struct {
	Address  string
	Password string
}

// LavalinkSearcher lists tracks through a Lavalink node's track loading API.
// Playback never goes through Lavalink; only search does.
type LavalinkSearcher struct {
	link disgolink.Client
}

// NewLavalinkSearcher connects to the Lavalink node.
func NewLavalinkSearcher(
	ctx context.Context,
	botID snowflake.ID,
	config LavalinkConfig,
) (*LavalinkSearcher, error) {
	link := disgolink.New(botID)

	node, err := link.AddNode(ctx, disgolink.NodeConfig{
		Name:     "main",
		Address:  config.Address,
		Password: config.Password,
		Secure:   false,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to add Lavalink node: %w", err)
	}

	slog.Info("connected to Lavalink", "node", node.Config().Name, "address", config.Address)

	return &LavalinkSearcher{link: link}, nil
}

// Search returns up to limit tracks from a YouTube search on the node.
func (s *LavalinkSearcher) Search(ctx context.Context, query string, limit int) ([]ports.SearchResult, error) {
	node := s.link.BestNode()
	if node == nil {
		return nil, fmt.Errorf("no available Lavalink node")
	}

	result, err := node.LoadTracks(ctx, "ytsearch:"+query)
	if err != nil {
		return nil, fmt.Errorf("failed to load tracks: %w", err)
	}

	return convertLoadResult(result, limit)
}

// Close disconnects from all nodes.
func (s *LavalinkSearcher) Close() {
	s.link.Close()
}

// convertLoadResult converts a Lavalink load result to search results.
func convertLoadResult(result *lavalink.LoadResult, limit int) ([]ports.SearchResult, error) {
	var tracks []lavalink.Track

	switch data := result.Data.(type) {
	case lavalink.Track:
		tracks = []lavalink.Track{data}
	case lavalink.Playlist:
		tracks = data.Tracks
	case lavalink.Search:
		tracks = data
	case lavalink.Exception:
		return nil, fmt.Errorf("lavalink exception: %s", data.Message)
	}

	if len(tracks) == 0 {
		return nil, ports.ErrTrackNotFound
	}
	if limit > 0 && len(tracks) > limit {
		tracks = tracks[:limit]
	}

	results := make([]ports.SearchResult, len(tracks))
	for i, track := range tracks {
		results[i] = convertTrack(track)
	}
	return results, nil
}

// convertTrack converts a Lavalink track to a SearchResult.
func convertTrack(track lavalink.Track) ports.SearchResult {
	info := track.Info
	return ports.SearchResult{
		Title:    info.Title,
		Uploader: info.Author,
		URL:      getStringPtr(info.URI),
		Duration: time.Duration(info.Length) * time.Millisecond,
	}
}

func getStringPtr(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

var _ ports.TrackSearcher = (*LavalinkSearcher)(nil)
