package mpdplayer_test

import (
	"errors"
	"testing"

	"github.com/mhilario/cassette-player-backend/internal/domain/player"
	"github.com/mhilario/cassette-player-backend/internal/infra/mpdplayer"
)

// deadDevice returns a device pointed at a port nothing listens on so
// lazy connection attempts always fail.
func deadDevice() *mpdplayer.Device {
	return mpdplayer.NewDevice("localhost", 16600, "")
}

func TestNewDevice(t *testing.T) {
	if deadDevice() == nil {
		t.Error("NewDevice should return a non-nil device")
	}
}

func TestConnectFailure(t *testing.T) {
	d := deadDevice()

	if err := d.Connect(); err == nil {
		t.Error("Connect should fail for non-existent server")
		d.Close()
	}
}

func TestPlayWithoutServerIsDeviceFailure(t *testing.T) {
	d := deadDevice()

	err := d.Play()
	if err == nil {
		t.Fatal("Play should fail without a server")
	}
	if !errors.Is(err, player.ErrDeviceFailure) {
		t.Errorf("Play error should wrap ErrDeviceFailure, got %v", err)
	}
}

func TestLoadWithoutServerReportsError(t *testing.T) {
	d := deadDevice()

	var reported error
	d.SetCallbacks(player.DeviceCallbacks{
		OnError: func(err error) { reported = err },
	})

	d.Load("http://media/track.mp3")

	if reported == nil {
		t.Fatal("Load should report an error without a server")
	}
	if !errors.Is(reported, player.ErrDeviceFailure) {
		t.Errorf("reported error should wrap ErrDeviceFailure, got %v", reported)
	}
}

func TestPauseWithoutServerReportsError(t *testing.T) {
	d := deadDevice()

	var reported error
	d.SetCallbacks(player.DeviceCallbacks{
		OnError: func(err error) { reported = err },
	})

	d.Pause()

	if reported == nil {
		t.Error("Pause should report an error without a server")
	}
}

func TestCanPlayTypeAcceptsFLAC(t *testing.T) {
	d := deadDevice()

	if !d.CanPlayType("FLAC") {
		t.Error("MPD decodes FLAC natively")
	}
	if !d.CanPlayType("audio/flac") {
		t.Error("MIME form should be accepted too")
	}
}

func TestCloseWithoutConnect(t *testing.T) {
	d := deadDevice()

	if err := d.Close(); err != nil {
		t.Errorf("Close on unconnected device should be a no-op, got %v", err)
	}
}
