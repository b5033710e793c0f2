package domain

import "testing"

func TestTrackEndReason_ShouldAdvanceQueue(t *testing.T) {
	tests := []struct {
		reason TrackEndReason
		want   bool
	}{
		{reason: TrackEndFinished, want: true},
		{reason: TrackEndStopped, want: true},
		{reason: TrackEndErrored, want: true},
		{reason: TrackEndTeardown, want: false},
	}

	for _, tt := range tests {
		t.Run(string(tt.reason), func(t *testing.T) {
			if got := tt.reason.ShouldAdvanceQueue(); got != tt.want {
				t.Errorf("ShouldAdvanceQueue() = %v, want %v", got, tt.want)
			}
		})
	}
}
