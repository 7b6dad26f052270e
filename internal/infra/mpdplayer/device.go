// Package mpdplayer drives playback through an MPD server, acting as
// the audio output device for the playback engine.
package mpdplayer

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/fhs/gompd/v2/mpd"
	"github.com/rs/zerolog/log"

	"github.com/mhilario/cassette-player-backend/internal/domain/player"
)

const (
	// DefaultHost is the MPD host in the default deployment.
	DefaultHost = "localhost"

	// DefaultPort is the standard MPD port.
	DefaultPort = 6600

	// pollInterval is how often playback progress is sampled while a
	// track is loaded.
	pollInterval = time.Second
)

// Device is an MPD-backed playback device with reconnection logic.
type Device struct {
	mu       sync.RWMutex
	client   *mpd.Client
	host     string
	port     int
	password string

	callbacks player.DeviceCallbacks
	volume    int
	muted     bool

	stopPoll chan struct{}
}

// NewDevice creates an MPD device. The connection is established
// lazily on first use.
func NewDevice(host string, port int, password string) *Device {
	return &Device{
		host:     host,
		port:     port,
		password: password,
		volume:   70,
	}
}

// Connect establishes the connection to MPD.
func (d *Device) Connect() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.connectLocked()
}

// connectLocked establishes connection (must hold lock).
func (d *Device) connectLocked() error {
	addr := fmt.Sprintf("%s:%d", d.host, d.port)
	log.Info().Str("addr", addr).Msg("Connecting to MPD")

	client, err := mpd.Dial("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to connect to MPD: %w", err)
	}

	if d.password != "" {
		if err := client.Command("password %s", d.password).OK(); err != nil {
			client.Close()
			return fmt.Errorf("MPD authentication failed: %w", err)
		}
	}

	d.client = client
	log.Info().Msg("Connected to MPD")
	return nil
}

// ensureConnected checks connection and reconnects if needed.
func (d *Device) ensureConnected() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.client == nil {
		return d.connectLocked()
	}

	if err := d.client.Ping(); err != nil {
		log.Warn().Err(err).Msg("MPD connection lost, reconnecting...")
		d.client.Close()
		d.client = nil
		return d.connectLocked()
	}

	return nil
}

// Close stops progress polling and closes the MPD connection.
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopPoll != nil {
		close(d.stopPoll)
		d.stopPoll = nil
	}

	if d.client != nil {
		err := d.client.Close()
		d.client = nil
		return err
	}
	return nil
}

// SetCallbacks registers progress and error callbacks.
func (d *Device) SetCallbacks(cb player.DeviceCallbacks) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.callbacks = cb
}

// Load replaces the MPD queue with the given URL. MPD plays remote
// streams and HTTP sources directly.
func (d *Device) Load(url string) {
	if err := d.ensureConnected(); err != nil {
		d.reportError(err)
		return
	}

	d.mu.RLock()
	client := d.client
	d.mu.RUnlock()

	if err := client.Clear(); err != nil {
		d.reportError(fmt.Errorf("failed to clear queue: %w", err))
		return
	}
	if err := client.Add(url); err != nil {
		d.reportError(fmt.Errorf("failed to load source: %w", err))
	}
}

// Play starts or resumes playback and begins progress polling.
func (d *Device) Play() error {
	if err := d.ensureConnected(); err != nil {
		return fmt.Errorf("%w: %s", player.ErrDeviceFailure, err)
	}

	d.mu.Lock()
	client := d.client
	d.mu.Unlock()

	status, err := client.Status()
	if err != nil {
		return fmt.Errorf("%w: %s", player.ErrDeviceFailure, err)
	}

	if status["state"] == "pause" {
		err = client.Pause(false)
	} else {
		err = client.Play(0)
	}
	if err != nil {
		return fmt.Errorf("%w: %s", player.ErrDeviceFailure, err)
	}

	d.startPolling()
	return nil
}

// Pause pauses playback.
func (d *Device) Pause() {
	if err := d.ensureConnected(); err != nil {
		d.reportError(err)
		return
	}

	d.mu.RLock()
	client := d.client
	d.mu.RUnlock()

	if err := client.Pause(true); err != nil {
		d.reportError(err)
	}
}

// Seek jumps to a position in the current track.
func (d *Device) Seek(seconds float64) {
	if err := d.ensureConnected(); err != nil {
		d.reportError(err)
		return
	}

	d.mu.RLock()
	client := d.client
	d.mu.RUnlock()

	status, err := client.Status()
	if err != nil {
		d.reportError(err)
		return
	}
	songPos, err := strconv.Atoi(status["song"])
	if err != nil {
		d.reportError(fmt.Errorf("no song loaded"))
		return
	}

	if err := client.Seek(songPos, int(seconds)); err != nil {
		d.reportError(err)
	}
}

// SetVolume sets the output volume from a 0-1 fraction.
func (d *Device) SetVolume(v float64) {
	if v < 0 {
		v = 0
	} else if v > 1 {
		v = 1
	}
	vol := int(v * 100)

	d.mu.Lock()
	d.volume = vol
	muted := d.muted
	d.mu.Unlock()

	if muted {
		return
	}
	d.applyVolume(vol)
}

// SetMuted silences output while remembering the volume.
func (d *Device) SetMuted(muted bool) {
	d.mu.Lock()
	d.muted = muted
	vol := d.volume
	d.mu.Unlock()

	if muted {
		d.applyVolume(0)
	} else {
		d.applyVolume(vol)
	}
}

func (d *Device) applyVolume(vol int) {
	if err := d.ensureConnected(); err != nil {
		d.reportError(err)
		return
	}

	d.mu.RLock()
	client := d.client
	d.mu.RUnlock()

	if err := client.SetVolume(vol); err != nil {
		d.reportError(err)
	}
}

// CanPlayType reports whether MPD can decode the format. MPD decodes
// every format this catalog serves, FLAC included.
func (d *Device) CanPlayType(format string) bool {
	return true
}

// startPolling samples playback progress until the poller is replaced
// or the device is closed.
func (d *Device) startPolling() {
	d.mu.Lock()
	if d.stopPoll != nil {
		close(d.stopPoll)
	}
	stop := make(chan struct{})
	d.stopPoll = stop
	d.mu.Unlock()

	go d.pollLoop(stop)
}

func (d *Device) pollLoop(stop chan struct{}) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	var lastDuration float64

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			status, err := d.status()
			if err != nil {
				log.Warn().Err(err).Msg("MPD status poll failed")
				continue
			}

			if status["state"] == "stop" {
				continue
			}

			d.mu.RLock()
			cb := d.callbacks
			d.mu.RUnlock()

			if dur, err := strconv.ParseFloat(status["duration"], 64); err == nil && dur != lastDuration {
				lastDuration = dur
				if cb.OnDurationKnown != nil {
					cb.OnDurationKnown(dur)
				}
			}
			if elapsed, err := strconv.ParseFloat(status["elapsed"], 64); err == nil {
				if cb.OnTimeUpdate != nil {
					cb.OnTimeUpdate(elapsed)
				}
			}
		}
	}
}

func (d *Device) status() (mpd.Attrs, error) {
	if err := d.ensureConnected(); err != nil {
		return nil, err
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	return d.client.Status()
}

func (d *Device) reportError(err error) {
	log.Error().Err(err).Msg("MPD device error")

	d.mu.RLock()
	cb := d.callbacks
	d.mu.RUnlock()

	if cb.OnError != nil {
		cb.OnError(fmt.Errorf("%w: %s", player.ErrDeviceFailure, err))
	}
}
