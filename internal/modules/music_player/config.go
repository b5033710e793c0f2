package music_player

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/sglre6355/antigravity/internal/modules/music_player/domain"
)

// Search backends for /play autocomplete.
const (
	BackendYtdlp    = "ytdlp"
	BackendYTSearch = "ytsearch"
	BackendYTMusic  = "ytmusic"
	BackendLavalink = "lavalink"
)

// Config holds the music player module configuration.
type Config struct {
	FFmpegPath             string        `env:"FFMPEG_PATH"              envDefault:"ffmpeg"`
	YtdlpPath              string        `env:"YTDLP_PATH"               envDefault:"yt-dlp"`
	SearchBackend          string        `env:"MUSIC_SEARCH_BACKEND"     envDefault:"ytdlp"`
	LavalinkAddress        string        `env:"LAVALINK_ADDRESS"`
	LavalinkPassword       string        `env:"LAVALINK_PASSWORD"`
	ResolverRatePerSecond  float64       `env:"RESOLVER_RATE_PER_SECOND" envDefault:"2"`
	VoiceConnectTimeout    time.Duration `env:"VOICE_CONNECT_TIMEOUT"    envDefault:"10s"`
	MaxConsecutiveFailures int           `env:"MAX_CONSECUTIVE_FAILURES" envDefault:"3"`
	DefaultVolume          float64       `env:"DEFAULT_VOLUME"           envDefault:"1.0"`
}

var errLavalinkConfig = errors.New("LAVALINK_ADDRESS and LAVALINK_PASSWORD are required for the lavalink backend")

// LoadConfig loads the module configuration from environment variables.
func LoadConfig() (*Config, error) {
	return parseConfig(env.Options{})
}

func parseConfig(opts env.Options) (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values the struct tags cannot express.
func (c *Config) Validate() error {
	switch c.SearchBackend {
	case BackendYtdlp, BackendYTSearch, BackendYTMusic:
	case BackendLavalink:
		if c.LavalinkAddress == "" || c.LavalinkPassword == "" {
			return errLavalinkConfig
		}
	default:
		return fmt.Errorf("unknown MUSIC_SEARCH_BACKEND %q", c.SearchBackend)
	}

	if c.ResolverRatePerSecond <= 0 {
		return fmt.Errorf("RESOLVER_RATE_PER_SECOND must be positive, got %v", c.ResolverRatePerSecond)
	}
	if c.VoiceConnectTimeout <= 0 {
		return fmt.Errorf("VOICE_CONNECT_TIMEOUT must be positive, got %s", c.VoiceConnectTimeout)
	}
	if c.MaxConsecutiveFailures < 1 {
		return fmt.Errorf("MAX_CONSECUTIVE_FAILURES must be at least 1, got %d", c.MaxConsecutiveFailures)
	}
	if v := domain.Volume(c.DefaultVolume); v < domain.MinVolume || v > domain.MaxVolume {
		return fmt.Errorf("DEFAULT_VOLUME must be within [%v, %v], got %v",
			float64(domain.MinVolume), float64(domain.MaxVolume), c.DefaultVolume)
	}

	return nil
}
