package infrastructure

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/lrstanley/go-ytdlp"
	"github.com/sglre6355/antigravity/internal/modules/music_player/application/ports"
	"github.com/sglre6355/antigravity/internal/modules/music_player/domain"
	"golang.org/x/time/rate"
)

// DefaultResolverRate is the default number of yt-dlp invocations allowed per second.
const DefaultResolverRate = 2

const (
	// Fields printed for a resolved track, tab separated.
	resolveTemplate = "%(url)s\t%(title)s\t%(uploader)s\t%(duration)s\t%(webpage_url)s\t%(thumbnail)s\t%(is_live)s"
	// Fields printed per search entry.
	searchTemplate = "%(url)s\t%(title)s\t%(uploader)s\t%(duration)s"

	audioFormat = "bestaudio[ext=webm]/bestaudio"

	// yt-dlp prints NA for fields the extractor did not provide.
	ytdlpMissing = "NA"
)

// ytdlpExec runs a prepared yt-dlp command.
type ytdlpExec func(ctx context.Context, cmd *ytdlp.Command, args ...string) (stdout, stderr string, err error)

func runYtdlp(ctx context.Context, cmd *ytdlp.Command, args ...string) (string, string, error) {
	res, err := cmd.Run(ctx, args...)
	if res == nil {
		return "", "", err
	}
	return res.Stdout, res.Stderr, err
}

// YtdlpResolver resolves and searches tracks with the yt-dlp binary.
type YtdlpResolver struct {
	executable string
	limiter    *rate.Limiter
	exec       ytdlpExec
}

// NewYtdlpResolver creates a new YtdlpResolver. An empty executable uses yt-dlp from PATH.
// perSecond limits how often yt-dlp is started.
func NewYtdlpResolver(executable string, perSecond float64) *YtdlpResolver {
	return newYtdlpResolver(executable, perSecond, runYtdlp)
}

func newYtdlpResolver(executable string, perSecond float64, exec ytdlpExec) *YtdlpResolver {
	if perSecond <= 0 {
		perSecond = DefaultResolverRate
	}
	return &YtdlpResolver{
		executable: executable,
		limiter:    rate.NewLimiter(rate.Limit(perSecond), 1),
		exec:       exec,
	}
}

func (r *YtdlpResolver) command() *ytdlp.Command {
	cmd := ytdlp.New()
	if r.executable != "" {
		cmd.SetExecutable(r.executable)
	}
	return cmd
}

// Resolve returns metadata and a stream URL for a URL or the first search hit.
func (r *YtdlpResolver) Resolve(ctx context.Context, query *domain.SearchQuery) (*ports.TrackInfo, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	cmd := r.command().
		Format(audioFormat).
		Print(resolveTemplate).
		NoPlaylist().
		NoCheckFormats().
		NoWarnings().
		IgnoreConfig()

	stdout, stderr, err := r.exec(ctx, cmd, "--skip-download", query.Prefixed(1))
	if err != nil {
		if isNotFoundOutput(stderr) {
			return nil, fmt.Errorf("%w: %s", ports.ErrTrackNotFound, query.Query)
		}
		return nil, fmt.Errorf("yt-dlp error: %w", err)
	}

	info, ok := parseResolveOutput(stdout)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ports.ErrTrackNotFound, query.Query)
	}

	slog.Debug("resolved track", "query", query.Query, "title", info.Title)

	return info, nil
}

// Search lists up to limit YouTube results for a free-text query.
func (r *YtdlpResolver) Search(ctx context.Context, query string, limit int) ([]ports.SearchResult, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	search := domain.NewSearchQueryWithSource(query, domain.SourceYouTube)

	cmd := r.command().
		FlatPlaylist().
		Print(searchTemplate).
		PlaylistItems(fmt.Sprintf("1-%d", limit)).
		NoWarnings().
		IgnoreConfig()

	stdout, _, err := r.exec(ctx, cmd, search.Prefixed(limit))
	if err != nil {
		return nil, fmt.Errorf("yt-dlp error: %w", err)
	}

	results := parseSearchOutput(stdout)
	if len(results) == 0 {
		return nil, ports.ErrTrackNotFound
	}
	return results, nil
}

// parseResolveOutput reads the first complete line printed with resolveTemplate.
func parseResolveOutput(stdout string) (*ports.TrackInfo, bool) {
	for _, line := range strings.Split(strings.TrimSpace(stdout), "\n") {
		ps := strings.Split(line, "\t")
		if len(ps) < 7 || field(ps[0]) == "" {
			continue
		}
		return &ports.TrackInfo{
			StreamURL:    ps[0],
			Title:        field(ps[1]),
			Uploader:     field(ps[2]),
			Duration:     parseSeconds(ps[3]),
			PageURL:      field(ps[4]),
			ThumbnailURL: field(ps[5]),
			IsStream:     strings.EqualFold(ps[6], "true"),
		}, true
	}
	return nil, false
}

// parseSearchOutput reads one result per line printed with searchTemplate.
func parseSearchOutput(stdout string) []ports.SearchResult {
	var results []ports.SearchResult
	for _, line := range strings.Split(strings.TrimSpace(stdout), "\n") {
		ps := strings.Split(line, "\t")
		if len(ps) < 4 || field(ps[0]) == "" {
			continue
		}
		results = append(results, ports.SearchResult{
			URL:      ps[0],
			Title:    field(ps[1]),
			Uploader: field(ps[2]),
			Duration: parseSeconds(ps[3]),
		})
	}
	return results
}

func field(s string) string {
	s = strings.TrimSpace(s)
	if s == ytdlpMissing {
		return ""
	}
	return s
}

// parseSeconds parses yt-dlp's duration, which may be fractional. Unknown is zero.
func parseSeconds(s string) time.Duration {
	seconds, err := strconv.ParseFloat(field(s), 64)
	if err != nil || seconds <= 0 {
		return 0
	}
	return time.Duration(seconds * float64(time.Second))
}

// isNotFoundOutput reports whether yt-dlp's stderr describes a missing or unsupported item
// rather than a transport failure.
func isNotFoundOutput(stderr string) bool {
	msg := strings.ToLower(stderr)
	for _, marker := range []string{
		"video unavailable",
		"unsupported url",
		"http error 404",
		"does not exist",
		"private video",
	} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// Ensure YtdlpResolver implements port interfaces.
var (
	_ ports.TrackResolver = (*YtdlpResolver)(nil)
	_ ports.TrackSearcher = (*YtdlpResolver)(nil)
)
