package music_player

import (
	"errors"
	"testing"
	"time"

	"github.com/caarlos0/env/v11"
)

func TestParseConfig_Defaults(t *testing.T) {
	cfg, err := parseConfig(env.Options{Environment: map[string]string{}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := Config{
		FFmpegPath:             "ffmpeg",
		YtdlpPath:              "yt-dlp",
		SearchBackend:          BackendYtdlp,
		ResolverRatePerSecond:  2,
		VoiceConnectTimeout:    10 * time.Second,
		MaxConsecutiveFailures: 3,
		DefaultVolume:          1,
	}
	if *cfg != want {
		t.Errorf("expected %+v, got %+v", want, *cfg)
	}
}

func TestParseConfig(t *testing.T) {
	tests := []struct {
		name    string
		environ map[string]string
		wantErr bool
		check   func(t *testing.T, cfg *Config)
	}{
		{
			name: "overrides",
			environ: map[string]string{
				"FFMPEG_PATH":              "/usr/bin/ffmpeg",
				"MUSIC_SEARCH_BACKEND":     "ytmusic",
				"VOICE_CONNECT_TIMEOUT":    "5s",
				"MAX_CONSECUTIVE_FAILURES": "5",
				"DEFAULT_VOLUME":           "0.5",
			},
			check: func(t *testing.T, cfg *Config) {
				if cfg.FFmpegPath != "/usr/bin/ffmpeg" || cfg.SearchBackend != BackendYTMusic {
					t.Errorf("unexpected paths %+v", cfg)
				}
				if cfg.VoiceConnectTimeout != 5*time.Second || cfg.MaxConsecutiveFailures != 5 {
					t.Errorf("unexpected limits %+v", cfg)
				}
				if cfg.DefaultVolume != 0.5 {
					t.Errorf("expected volume 0.5, got %v", cfg.DefaultVolume)
				}
			},
		},
		{
			name: "lavalink with credentials",
			environ: map[string]string{
				"MUSIC_SEARCH_BACKEND": "lavalink",
				"LAVALINK_ADDRESS":     "localhost:2333",
				"LAVALINK_PASSWORD":    "youshallnotpass",
			},
		},
		{
			name:    "lavalink without credentials",
			environ: map[string]string{"MUSIC_SEARCH_BACKEND": "lavalink"},
			wantErr: true,
		},
		{
			name:    "unknown backend",
			environ: map[string]string{"MUSIC_SEARCH_BACKEND": "spotify"},
			wantErr: true,
		},
		{
			name:    "zero failure limit",
			environ: map[string]string{"MAX_CONSECUTIVE_FAILURES": "0"},
			wantErr: true,
		},
		{
			name:    "volume out of range",
			environ: map[string]string{"DEFAULT_VOLUME": "3"},
			wantErr: true,
		},
		{
			name:    "malformed timeout",
			environ: map[string]string{"VOICE_CONNECT_TIMEOUT": "soon"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := parseConfig(env.Options{Environment: tt.environ})
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.check != nil {
				tt.check(t, cfg)
			}
		})
	}
}

func TestConfig_Validate_LavalinkError(t *testing.T) {
	cfg := &Config{
		SearchBackend:          BackendLavalink,
		ResolverRatePerSecond:  1,
		VoiceConnectTimeout:    time.Second,
		MaxConsecutiveFailures: 1,
		DefaultVolume:          1,
	}

	if err := cfg.Validate(); !errors.Is(err, errLavalinkConfig) {
		t.Errorf("expected errLavalinkConfig, got %v", err)
	}
}
