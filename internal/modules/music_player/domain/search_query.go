package domain

import (
	"strconv"
	"strings"
)

// SearchSource is the yt-dlp style search prefix used for free-text queries.
type SearchSource string

const (
	SourceYouTube      SearchSource = "ytsearch"
	SourceYouTubeMusic SearchSource = "ytmsearch"
	SourceSoundCloud   SearchSource = "scsearch"
	// SourceDirect marks a URL, which is resolved as is.
	SourceDirect SearchSource = ""
)

// ParseSearchSource converts a /play source choice to a SearchSource.
// Unknown values fall back to YouTube.
func ParseSearchSource(name string) SearchSource {
	switch name {
	case "youtube_music":
		return SourceYouTubeMusic
	case "soundcloud":
		return SourceSoundCloud
	default:
		return SourceYouTube
	}
}

// SearchQuery is user input for the Track Resolver: a URL or search terms.
type SearchQuery struct {
	Query  string
	Source SearchSource
	IsURL  bool
}

// NewSearchQuery creates a SearchQuery that searches YouTube unless input is a URL.
func NewSearchQuery(input string) *SearchQuery {
	return NewSearchQueryWithSource(input, SourceYouTube)
}

// NewSearchQueryWithSource creates a SearchQuery searching source.
// URLs ignore source.
func NewSearchQueryWithSource(input string, source SearchSource) *SearchQuery {
	q := &SearchQuery{Query: strings.TrimSpace(input), Source: source}
	if looksLikeURL(q.Query) {
		q.Source = SourceDirect
		q.IsURL = true
	}
	return q
}

// Prefixed returns the query in prefix form, e.g. "ytsearch1:term".
// A limit of zero omits the count, which is the form Lavalink expects.
// URLs are returned unchanged.
func (q *SearchQuery) Prefixed(limit int) string {
	switch {
	case q.IsURL:
		return q.Query
	case limit > 0:
		return string(q.Source) + strconv.Itoa(limit) + ":" + q.Query
	default:
		return string(q.Source) + ":" + q.Query
	}
}

// IsValid reports whether there is anything to resolve.
func (q *SearchQuery) IsValid() bool {
	return q.Query != ""
}

func looksLikeURL(input string) bool {
	for _, prefix := range []string{"https://", "http://", "www."} {
		if strings.HasPrefix(input, prefix) {
			return true
		}
	}
	return false
}
