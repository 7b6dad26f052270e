// Package player provides the playback session state and the
// controller that drives the single shared playback device.
package player

import (
	"sync"

	"github.com/mhilario/cassette-player-backend/internal/domain/media"
)

// Status constants for the playback state machine.
const (
	StatusIdle    = "idle"
	StatusLoading = "loading"
	StatusPlaying = "playing"
	StatusPaused  = "paused"
)

// Session is the single mutable "now playing" record. At most one
// exists process-wide, matching the single shared device.
// It is safe for concurrent access.
type Session struct {
	mu sync.RWMutex

	// Playback state
	Status   string
	Position float64 // seconds, meaningful only while a current item is set
	Duration float64 // seconds, 0 until the device reports it

	// Current item
	Current *media.Item

	// Volume
	Volume int // 0-100
	Muted  bool

	// Transient resource attached to the session when the current item
	// is a local file.
	ActiveLocalResourceURL string
}

// NewSession creates a session with default values.
func NewSession() *Session {
	return &Session{
		Status: StatusIdle,
		Volume: 70,
	}
}

// CurrentItem returns the current item, or nil when idle.
func (s *Session) CurrentItem() *media.Item {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.Current == nil {
		return nil
	}
	item := *s.Current
	return &item
}

// CurrentID returns the current item's id, or "" when idle.
func (s *Session) CurrentID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.Current == nil {
		return ""
	}
	return s.Current.ID
}

// IsPlaying reports whether the device is actively playing.
func (s *Session) IsPlaying() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Status == StatusPlaying
}

// StatusNow returns the current status.
func (s *Session) StatusNow() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Status
}

// DurationNow returns the known duration in seconds, 0 if unknown.
func (s *Session) DurationNow() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Duration
}

// SetCurrent switches the session to a new item. Position resets to 0
// whenever the current item changes, and the duration falls back to
// the item's hint until the device reports the real value.
func (s *Session) SetCurrent(item media.Item) {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := item
	s.Current = &copied
	s.Position = 0
	s.Duration = float64(item.DurationHint)
	s.Status = StatusLoading
}

// Clear resets the session to idle with no current item.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Current = nil
	s.Position = 0
	s.Duration = 0
	s.Status = StatusIdle
}

// SetStatus updates the playback status.
func (s *Session) SetStatus(status string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Status = status
}

// SetVolume sets the volume level (0-100), clamping out-of-range
// values.
func (s *Session) SetVolume(volume int) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if volume < 0 {
		volume = 0
	} else if volume > 100 {
		volume = 100
	}
	s.Volume = volume
	return volume
}

// ToggleMute flips the mute state and returns the new value.
func (s *Session) ToggleMute() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Muted = !s.Muted
	return s.Muted
}

// UpdatePosition records the device-reported playback position.
func (s *Session) UpdatePosition(seconds float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Current == nil {
		return
	}
	s.Position = seconds
}

// UpdateDuration records the device-reported duration.
func (s *Session) UpdateDuration(seconds float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Current == nil {
		return
	}
	s.Duration = seconds
}

// ActiveResource returns the session's active local resource URL, or
// "" when the current item is not a local file.
func (s *Session) ActiveResource() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ActiveLocalResourceURL
}

// SetActiveResource records the local resource URL attached to the
// session.
func (s *Session) SetActiveResource(url string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ActiveLocalResourceURL = url
}

// ToJSON returns the session as a map suitable for push-state
// serialization.
func (s *Session) ToJSON() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state := map[string]interface{}{
		"status":    s.Status,
		"isPlaying": s.Status == StatusPlaying,
		"position":  s.Position,
		"duration":  s.Duration,
		"volume":    s.Volume,
		"mute":      s.Muted,
	}

	if s.Current != nil {
		state["id"] = s.Current.ID
		state["title"] = s.Current.Title
		state["artist"] = s.Current.Artist
		state["album"] = s.Current.Album
		state["uri"] = s.Current.SourceURL
		state["kind"] = string(s.Current.Kind)
		state["format"] = s.Current.Format
		state["isLocal"] = s.Current.IsLocal
		state["artworkUrl"] = s.Current.ArtworkURL
	}

	return state
}
