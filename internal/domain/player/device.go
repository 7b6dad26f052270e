package player

import (
	"errors"
	"fmt"
)

// Device is the single audio/video rendering facility the controller
// drives imperatively. Play may block until the device confirms start
// or rejects the attempt; the controller calls it off the event path
// and discards stale results by generation tag.
type Device interface {
	Load(url string)
	Play() error
	Pause()
	Seek(seconds float64)
	SetVolume(level float64) // 0.0-1.0
	SetMuted(muted bool)

	// CanPlayType reports native support for a format hint, used to
	// warn before attempting formats with inconsistent support.
	CanPlayType(format string) bool

	// SetCallbacks registers the device's advisory callbacks. They
	// never fail the state machine.
	SetCallbacks(cb DeviceCallbacks)
}

// DeviceCallbacks carries the device's time, duration, and error
// notifications back to the controller.
type DeviceCallbacks struct {
	OnTimeUpdate    func(seconds float64)
	OnDurationKnown func(seconds float64)
	OnError         func(err error)
}

// Sentinel errors devices return for classified playback failures.
var (
	// ErrUnsupportedFormat means the device cannot decode the source.
	ErrUnsupportedFormat = errors.New("unsupported format")
	// ErrAutoplayBlocked means the environment rejected an unattended
	// play attempt.
	ErrAutoplayBlocked = errors.New("autoplay blocked")
	// ErrDeviceFailure covers everything else the device can report.
	ErrDeviceFailure = errors.New("device failure")
)

// FailureReason classifies a recoverable playback failure.
type FailureReason string

const (
	ReasonUnsupportedFormat FailureReason = "unsupported_format"
	ReasonAutoplayBlocked   FailureReason = "autoplay_blocked"
	ReasonDeviceFailure     FailureReason = "device_failure"
)

// PlaybackError is a classified, user-visible, recoverable playback
// failure. It is reported to callers, never treated as fatal.
type PlaybackError struct {
	Reason FailureReason
	ItemID string
	Err    error
}

func (e *PlaybackError) Error() string {
	return fmt.Sprintf("playback failed (%s): %v", e.Reason, e.Err)
}

func (e *PlaybackError) Unwrap() error {
	return e.Err
}

// classifyFailure wraps a device error with its failure reason.
func classifyFailure(itemID string, err error) *PlaybackError {
	reason := ReasonDeviceFailure
	switch {
	case errors.Is(err, ErrUnsupportedFormat):
		reason = ReasonUnsupportedFormat
	case errors.Is(err, ErrAutoplayBlocked):
		reason = ReasonAutoplayBlocked
	}
	return &PlaybackError{Reason: reason, ItemID: itemID, Err: err}
}

// FormatWarning is a non-fatal heads-up that the selected item's
// format may not be supported by the device. Playback proceeds anyway.
type FormatWarning struct {
	Format    string
	Suggested string
}

func (w *FormatWarning) Message() string {
	return fmt.Sprintf("%s playback may not be supported on this device; if it fails, convert to %s", w.Format, w.Suggested)
}
