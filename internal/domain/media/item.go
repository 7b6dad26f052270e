// Package media defines the normalized playable item shared by the
// catalog, queue, and player domains.
package media

import "strings"

// Kind discriminates how an item is rendered by the playback device.
type Kind string

const (
	KindAudio Kind = "audio"
	KindVideo Kind = "video"
)

// Format values with special handling.
const (
	// FormatStream marks a live radio stream with no fixed duration.
	FormatStream = "stream"
	// FormatLocal marks a device-local file played through a transient
	// resource URL.
	FormatLocal = "local"
	// FormatFLAC has inconsistent device support and triggers a
	// non-fatal warning before playback.
	FormatFLAC = "FLAC"
)

// Item is anything that can be handed to the playback device: a remote
// track or video, a radio stream, or a locally selected file.
//
// ID is stable for the lifetime of the item; two items with the same ID
// are the same logical track even across catalog reloads, so queue and
// favorite lookups by ID stay valid.
type Item struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Artist       string `json:"artist,omitempty"`
	Album        string `json:"album,omitempty"`
	DurationHint int    `json:"duration,omitempty"` // seconds, advisory
	SourceURL    string `json:"url"`
	Kind         Kind   `json:"kind"`
	Format       string `json:"format,omitempty"`
	IsLocal      bool   `json:"isLocal,omitempty"`
	ArtworkURL   string `json:"artworkUrl,omitempty"`
}

// IsStream reports whether the item is a live stream (no seekable
// duration).
func (i Item) IsStream() bool {
	return i.Format == FormatStream
}

// KindFromMIME classifies a declared media type. Anything that is not
// explicitly video is treated as audio.
func KindFromMIME(mimeType string) Kind {
	if strings.HasPrefix(mimeType, "video") {
		return KindVideo
	}
	return KindAudio
}
