package ports

import (
	"context"
	"errors"

	"github.com/sglre6355/antigravity/internal/modules/music_player/domain"
)

// ErrTrackNotFound is returned by resolvers and searchers when a query has no match.
// Any other error is a transport or parse failure.
var ErrTrackNotFound = errors.New("track not found")

// TrackResolver turns a query into a single playable track.
type TrackResolver interface {
	// Resolve returns metadata and a streamable URL for the first match of query.
	Resolve(ctx context.Context, query *domain.SearchQuery) (*TrackInfo, error)
}

// TrackSearcher lists candidate tracks for free-text input.
type TrackSearcher interface {
	// Search returns up to limit results for the query.
	Search(ctx context.Context, query string, limit int) ([]SearchResult, error)
}
