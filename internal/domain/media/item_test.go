package media_test

import (
	"testing"

	"github.com/mhilario/cassette-player-backend/internal/domain/media"
)

func TestKindFromMIME(t *testing.T) {
	tests := []struct {
		mimeType string
		want     media.Kind
	}{
		{"video/mp4", media.KindVideo},
		{"video/webm", media.KindVideo},
		{"audio/mpeg", media.KindAudio},
		{"audio/flac", media.KindAudio},
		{"", media.KindAudio},
		{"application/octet-stream", media.KindAudio},
	}

	for _, tc := range tests {
		if got := media.KindFromMIME(tc.mimeType); got != tc.want {
			t.Errorf("KindFromMIME(%q) = %q, want %q", tc.mimeType, got, tc.want)
		}
	}
}

func TestIsStream(t *testing.T) {
	station := media.Item{ID: "fip", Format: media.FormatStream}
	if !station.IsStream() {
		t.Error("stream format should classify as stream")
	}

	track := media.Item{ID: "1", Format: "MP3"}
	if track.IsStream() {
		t.Error("regular track should not classify as stream")
	}
}
