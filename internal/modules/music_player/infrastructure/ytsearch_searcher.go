package infrastructure

import (
	"context"
	"fmt"

	"github.com/ppalone/ytsearch"
	"github.com/sglre6355/antigravity/internal/modules/music_player/application/ports"
)

const youtubeWatchURL = "https://www.youtube.com/watch?v="

// YTSearchSearcher lists YouTube results through the web search API, without starting yt-dlp.
type YTSearchSearcher struct {
	client *ytsearch.Client
}

// NewYTSearchSearcher creates a new YTSearchSearcher.
func NewYTSearchSearcher() *YTSearchSearcher {
	return &YTSearchSearcher{client: ytsearch.NewClient(nil)}
}

// Search returns up to limit YouTube videos for the query.
func (s *YTSearchSearcher) Search(ctx context.Context, query string, limit int) ([]ports.SearchResult, error) {
	res, err := s.client.Search(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("youtube search error: %w", err)
	}

	var results []ports.SearchResult
	for _, v := range res.Results {
		if len(results) >= limit {
			break
		}
		if v.VideoID == "" {
			continue
		}
		results = append(results, ports.SearchResult{
			Title: v.Title,
			URL:   youtubeWatchURL + v.VideoID,
		})
	}

	if len(results) == 0 {
		return nil, ports.ErrTrackNotFound
	}
	return results, nil
}

var _ ports.TrackSearcher = (*YTSearchSearcher)(nil)
