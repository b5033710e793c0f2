package infrastructure

import (
	"context"
	"fmt"

	"github.com/raitonoberu/ytmusic"
	"github.com/sglre6355/antigravity/internal/modules/music_player/application/ports"
)

const youtubeMusicWatchURL = "https://music.youtube.com/watch?v="

// YTMusicSearcher lists songs from YouTube Music.
type YTMusicSearcher struct{}

// NewYTMusicSearcher creates a new YTMusicSearcher.
func NewYTMusicSearcher() *YTMusicSearcher {
	return &YTMusicSearcher{}
}

// Search returns up to limit YouTube Music tracks for the query.
// The ytmusic client takes no context, so cancellation only abandons the result.
func (s *YTMusicSearcher) Search(ctx context.Context, query string, limit int) ([]ports.SearchResult, error) {
	type searchResult struct {
		results []ports.SearchResult
		err     error
	}

	done := make(chan searchResult, 1)
	go func() {
		r, err := ytmusic.TrackSearch(query).Next()
		if err != nil {
			done <- searchResult{err: fmt.Errorf("youtube music search error: %w", err)}
			return
		}

		var results []ports.SearchResult
		for _, v := range r.Tracks {
			if len(results) >= limit {
				break
			}
			if v.VideoID == "" {
				continue
			}
			uploader := ""
			if len(v.Artists) > 0 {
				uploader = v.Artists[0].Name
			}
			results = append(results, ports.SearchResult{
				Title:    v.Title,
				Uploader: uploader,
				URL:      youtubeMusicWatchURL + v.VideoID,
			})
		}
		done <- searchResult{results: results}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			return nil, res.err
		}
		if len(res.results) == 0 {
			return nil, ports.ErrTrackNotFound
		}
		return res.results, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

var _ ports.TrackSearcher = (*YTMusicSearcher)(nil)
