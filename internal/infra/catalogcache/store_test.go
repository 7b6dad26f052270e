package catalogcache_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/mhilario/cassette-player-backend/internal/domain/catalog"
	"github.com/mhilario/cassette-player-backend/internal/domain/media"
	"github.com/mhilario/cassette-player-backend/internal/infra/catalogcache"
)

func openTestStore(t *testing.T) *catalogcache.Store {
	t.Helper()

	store := catalogcache.NewStore(filepath.Join(t.TempDir(), "catalog.db"))
	if err := store.Open(); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func sampleItems() []media.Item {
	return []media.Item{
		{ID: "1", Title: "So What", Artist: "Miles Davis", Album: "Kind of Blue", DurationHint: 545, SourceURL: "http://media/1.flac", Kind: media.KindAudio, Format: "FLAC"},
		{ID: "2", Title: "Freddie Freeloader", Artist: "Miles Davis", SourceURL: "http://media/2.mp3", Kind: media.KindAudio, Format: "MP3"},
	}
}

func TestStoreSaveAndLoad(t *testing.T) {
	store := openTestStore(t)

	if err := store.Save(catalogcache.KindTracks, sampleItems()); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := store.Load(catalogcache.KindTracks)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d items, want 2", len(got))
	}
	if got[0] != sampleItems()[0] {
		t.Errorf("first item = %+v, want %+v", got[0], sampleItems()[0])
	}
	if got[1].ID != "2" {
		t.Errorf("order not preserved: %+v", got)
	}
}

func TestStoreSaveReplacesSnapshot(t *testing.T) {
	store := openTestStore(t)

	if err := store.Save(catalogcache.KindTracks, sampleItems()); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := store.Save(catalogcache.KindTracks, sampleItems()[:1]); err != nil {
		t.Fatalf("second Save failed: %v", err)
	}

	got, err := store.Load(catalogcache.KindTracks)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(got) != 1 || got[0].ID != "1" {
		t.Errorf("snapshot not replaced: %+v", got)
	}
}

func TestStoreKindsAreIndependent(t *testing.T) {
	store := openTestStore(t)

	if err := store.Save(catalogcache.KindTracks, sampleItems()); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := store.Load(catalogcache.KindVideos)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("videos snapshot should be empty, got %+v", got)
	}
}

// flakyProvider simulates an upstream that can be toggled down.
type flakyProvider struct {
	tracks []media.Item
	down   bool
}

func (f *flakyProvider) ListTracks(ctx context.Context) ([]media.Item, error) {
	if f.down {
		return nil, errors.New("connection refused")
	}
	return f.tracks, nil
}

func (f *flakyProvider) ListVideos(ctx context.Context) ([]media.Item, error) {
	if f.down {
		return nil, errors.New("connection refused")
	}
	return nil, nil
}

func (f *flakyProvider) ListStations(ctx context.Context) ([]media.Item, error) {
	return nil, nil
}

func (f *flakyProvider) UploadTracks(ctx context.Context, files []catalog.Upload) (int, error) {
	return len(files), nil
}

func TestProviderServesSnapshotWhenUpstreamDown(t *testing.T) {
	store := openTestStore(t)
	upstream := &flakyProvider{tracks: sampleItems()}
	provider := catalogcache.Wrap(upstream, store)

	// First listing succeeds and persists the snapshot
	items, err := provider.ListTracks(context.Background())
	if err != nil {
		t.Fatalf("ListTracks failed: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2", len(items))
	}

	// Upstream goes down; the snapshot takes over
	upstream.down = true
	items, err = provider.ListTracks(context.Background())
	if err != nil {
		t.Fatalf("ListTracks with snapshot failed: %v", err)
	}
	if len(items) != 2 || items[0].ID != "1" {
		t.Errorf("snapshot listing = %+v", items)
	}
}

func TestProviderErrorsWithoutSnapshot(t *testing.T) {
	store := openTestStore(t)
	provider := catalogcache.Wrap(&flakyProvider{down: true}, store)

	if _, err := provider.ListTracks(context.Background()); err == nil {
		t.Error("expected error when upstream is down and no snapshot exists")
	}
}
