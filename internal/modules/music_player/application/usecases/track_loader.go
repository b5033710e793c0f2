package usecases

import (
	"context"
	"errors"
	"fmt"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/antigravity/internal/modules/music_player/application/ports"
	"github.com/sglre6355/antigravity/internal/modules/music_player/domain"
)

// LoadTrackInput contains the input for the LoadTrack use case.
type LoadTrackInput struct {
	Query         string
	Source        domain.SearchSource // Optional: defaults to YouTube for free text
	GuildID       snowflake.ID
	RequesterID   snowflake.ID
	RequesterName string // Optional: looked up when empty
}

// LoadTrackOutput contains the result of the LoadTrack use case.
type LoadTrackOutput struct {
	Track *domain.Track
}

// SearchTracksInput contains the input for the SearchTracks use case.
type SearchTracksInput struct {
	Query string
	Limit int
}

// SearchTracksOutput contains the result of the SearchTracks use case.
type SearchTracksOutput struct {
	Tracks []ports.SearchResult
}

// TrackLoaderService handles track loading operations.
type TrackLoaderService struct {
	trackResolver ports.TrackResolver
	trackSearcher ports.TrackSearcher
	userInfo      ports.UserInfoProvider
}

// NewTrackLoaderService creates a new TrackLoaderService.
// trackSearcher and userInfo may be nil.
func NewTrackLoaderService(
	trackResolver ports.TrackResolver,
	trackSearcher ports.TrackSearcher,
	userInfo ports.UserInfoProvider,
) *TrackLoaderService {
	return &TrackLoaderService{
		trackResolver: trackResolver,
		trackSearcher: trackSearcher,
		userInfo:      userInfo,
	}
}

// LoadTrack resolves the query to a single track. The queue is not touched.
func (s *TrackLoaderService) LoadTrack(
	ctx context.Context,
	input LoadTrackInput,
) (*LoadTrackOutput, error) {
	query := domain.NewSearchQuery(input.Query)
	if input.Source != "" {
		query = domain.NewSearchQueryWithSource(input.Query, input.Source)
	}
	if !query.IsValid() {
		return nil, ErrNoResults
	}

	info, err := s.trackResolver.Resolve(ctx, query)
	if errors.Is(err, ports.ErrTrackNotFound) {
		return nil, ErrNoResults
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrResolution, err)
	}

	requesterName := input.RequesterName
	if requesterName == "" && s.userInfo != nil {
		if user, err := s.userInfo.GetUserInfo(input.GuildID, input.RequesterID); err == nil {
			requesterName = user.DisplayName
		}
	}

	track := domain.NewTrack(
		info.Title,
		info.Uploader,
		info.Duration,
		info.StreamURL,
		info.PageURL,
		info.ThumbnailURL,
		info.IsStream,
		input.RequesterID,
		requesterName,
	)
	if !track.IsValid() {
		return nil, fmt.Errorf("%w: incomplete metadata for %q", ErrResolution, input.Query)
	}

	return &LoadTrackOutput{
		Track: track,
	}, nil
}

// SearchTracks searches for tracks matching the query.
// URLs and empty input return no suggestions.
func (s *TrackLoaderService) SearchTracks(
	ctx context.Context,
	input SearchTracksInput,
) (*SearchTracksOutput, error) {
	query := domain.NewSearchQuery(input.Query)
	if !query.IsValid() || query.IsURL || s.trackSearcher == nil {
		return &SearchTracksOutput{Tracks: nil}, nil
	}

	limit := input.Limit
	if limit <= 0 {
		limit = DefaultPageSize
	}

	results, err := s.trackSearcher.Search(ctx, query.Query, limit)
	if errors.Is(err, ports.ErrTrackNotFound) {
		return &SearchTracksOutput{Tracks: nil}, nil
	}
	if err != nil {
		return nil, err
	}

	if len(results) > limit {
		results = results[:limit]
	}

	return &SearchTracksOutput{
		Tracks: results,
	}, nil
}
