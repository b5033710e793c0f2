package infrastructure

import (
	"errors"
	"net/http"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/sglre6355/antigravity/internal/modules/moderation/application"
)

func TestTranslateError(t *testing.T) {
	tests := []struct {
		name          string
		err           error
		wantNil       bool
		wantForbidden bool
	}{
		{
			name:    "nil",
			wantNil: true,
		},
		{
			name: "forbidden status",
			err: &discordgo.RESTError{
				Response: &http.Response{StatusCode: http.StatusForbidden},
			},
			wantForbidden: true,
		},
		{
			name: "missing permissions code",
			err: &discordgo.RESTError{
				Response: &http.Response{StatusCode: http.StatusBadRequest},
				Message:  &discordgo.APIErrorMessage{Code: discordgo.ErrCodeMissingPermissions},
			},
			wantForbidden: true,
		},
		{
			name: "not found",
			err: &discordgo.RESTError{
				Response: &http.Response{StatusCode: http.StatusNotFound},
			},
		},
		{
			name: "transport failure",
			err:  errors.New("connection reset"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := translateError("kick member", tt.err)
			if tt.wantNil {
				if got != nil {
					t.Fatalf("expected nil, got %v", got)
				}
				return
			}
			if got == nil {
				t.Fatal("expected error, got nil")
			}
			if errors.Is(got, application.ErrPermissionDenied) != tt.wantForbidden {
				t.Errorf("expected forbidden=%v, got %v", tt.wantForbidden, got)
			}
			if !tt.wantForbidden && !errors.Is(got, tt.err) {
				t.Errorf("expected wrapped %v, got %v", tt.err, got)
			}
		})
	}
}
