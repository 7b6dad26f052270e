package socketio_test

import (
	"context"
	"testing"

	"github.com/mhilario/cassette-player-backend/internal/domain/catalog"
	"github.com/mhilario/cassette-player-backend/internal/domain/favorites"
	"github.com/mhilario/cassette-player-backend/internal/domain/localfiles"
	"github.com/mhilario/cassette-player-backend/internal/domain/media"
	"github.com/mhilario/cassette-player-backend/internal/domain/player"
	"github.com/mhilario/cassette-player-backend/internal/transport/socketio"
)

type nullDevice struct{}

func (nullDevice) Load(url string)                        {}
func (nullDevice) Play() error                            { return nil }
func (nullDevice) Pause()                                 {}
func (nullDevice) Seek(seconds float64)                   {}
func (nullDevice) SetVolume(level float64)                {}
func (nullDevice) SetMuted(muted bool)                    {}
func (nullDevice) CanPlayType(format string) bool         { return true }
func (nullDevice) SetCallbacks(cb player.DeviceCallbacks) {}

type nullProvider struct{}

func (nullProvider) ListTracks(ctx context.Context) ([]media.Item, error)   { return nil, nil }
func (nullProvider) ListVideos(ctx context.Context) ([]media.Item, error)   { return nil, nil }
func (nullProvider) ListStations(ctx context.Context) ([]media.Item, error) { return nil, nil }
func (nullProvider) UploadTracks(ctx context.Context, files []catalog.Upload) (int, error) {
	return 0, nil
}

type nullPersistence struct{}

func (nullPersistence) LoadFavorites() ([]string, error) { return nil, nil }
func (nullPersistence) SaveFavorites(ids []string) error { return nil }

type nullBlobs struct{}

func (nullBlobs) CreateResourceURL(f localfiles.RawFile) (string, error) { return "blob:0", nil }
func (nullBlobs) RevokeResourceURL(url string)                           {}

func newTestServer(t *testing.T) *socketio.Server {
	t.Helper()

	cat := catalog.NewCache(nullProvider{})
	favs := favorites.NewStore(nullPersistence{})
	files := localfiles.NewRegistry(nullBlobs{})
	controller := player.NewController(nullDevice{}, cat, favs, files)

	server, err := socketio.NewServer(controller, cat, favs)
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}
	return server
}

func TestNewServer(t *testing.T) {
	server := newTestServer(t)
	defer server.Close()

	if server == nil {
		t.Error("NewServer should return a non-nil server")
	}
}

func TestServerClose(t *testing.T) {
	server := newTestServer(t)

	if err := server.Close(); err != nil {
		t.Errorf("Close should not error: %v", err)
	}
}

func TestServerBroadcastStateWithoutClients(t *testing.T) {
	server := newTestServer(t)
	defer server.Close()

	// Smoke test: broadcasting with no clients must not panic
	server.BroadcastState()
}

func TestServerBroadcastQueueWithoutClients(t *testing.T) {
	server := newTestServer(t)
	defer server.Close()

	server.BroadcastQueue()
}
