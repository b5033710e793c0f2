package infrastructure

import (
	"testing"

	"github.com/bwmarrin/discordgo"
)

func TestGetDisplayName(t *testing.T) {
	tests := []struct {
		name   string
		member *discordgo.Member
		want   string
	}{
		{
			name: "nickname wins",
			member: &discordgo.Member{
				Nick: "DJ",
				User: &discordgo.User{GlobalName: "Global", Username: "user"},
			},
			want: "DJ",
		},
		{
			name:   "global name without nickname",
			member: &discordgo.Member{User: &discordgo.User{GlobalName: "Global", Username: "user"}},
			want:   "Global",
		},
		{
			name:   "username fallback",
			member: &discordgo.Member{User: &discordgo.User{Username: "user"}},
			want:   "user",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := getDisplayName(tt.member); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestParseChannelID(t *testing.T) {
	id, err := parseChannelID("")
	if err != nil || id != nil {
		t.Errorf("expected nil for empty channel, got %v, %v", id, err)
	}

	id, err = parseChannelID("1234567890")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id == nil || id.String() != "1234567890" {
		t.Errorf("unexpected channel %v", id)
	}

	if _, err := parseChannelID("general"); err == nil {
		t.Error("expected error for non-numeric channel ID")
	}
}
