package catalog_test

import (
	"context"
	"errors"
	"testing"

	"github.com/mhilario/cassette-player-backend/internal/domain/catalog"
	"github.com/mhilario/cassette-player-backend/internal/domain/media"
)

type fakeProvider struct {
	tracks   []media.Item
	videos   []media.Item
	stations []media.Item
	err      error
}

func (f *fakeProvider) ListTracks(ctx context.Context) ([]media.Item, error) {
	return f.tracks, f.err
}

func (f *fakeProvider) ListVideos(ctx context.Context) ([]media.Item, error) {
	return f.videos, f.err
}

func (f *fakeProvider) ListStations(ctx context.Context) ([]media.Item, error) {
	return f.stations, f.err
}

func (f *fakeProvider) UploadTracks(ctx context.Context, files []catalog.Upload) (int, error) {
	return 0, f.err
}

func TestReloadFailureKeepsPreviousList(t *testing.T) {
	p := &fakeProvider{tracks: []media.Item{{ID: "a", Title: "Alpha"}}}
	c := catalog.NewCache(p)

	c.ReloadTracks(context.Background())
	if len(c.Tracks()) != 1 {
		t.Fatalf("expected 1 track, got %d", len(c.Tracks()))
	}

	p.err = errors.New("connection refused")
	c.ReloadTracks(context.Background())
	if len(c.Tracks()) != 1 {
		t.Fatalf("expected previous list retained on failure, got %d tracks", len(c.Tracks()))
	}
}

func TestFilterTracksByQuery(t *testing.T) {
	p := &fakeProvider{tracks: []media.Item{
		{ID: "1", Title: "Blue Moon", Artist: "Ella"},
		{ID: "2", Title: "Autumn Leaves", Artist: "Chet"},
		{ID: "3", Title: "Something Blue", Artist: "Miles"},
	}}
	c := catalog.NewCache(p)
	c.ReloadTracks(context.Background())

	tests := []struct {
		name     string
		query    string
		expected []string
	}{
		{"title match", "blue", []string{"1", "3"}},
		{"artist match", "chet", []string{"2"}},
		{"no match", "zzz", nil},
		{"empty query matches all", "", []string{"1", "2", "3"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.FilterTracks(catalog.Filter{Query: tt.query})
			if len(got) != len(tt.expected) {
				t.Fatalf("expected %d results, got %d", len(tt.expected), len(got))
			}
			for i, id := range tt.expected {
				if got[i].ID != id {
					t.Errorf("expected id %q at %d, got %q", id, i, got[i].ID)
				}
			}
		})
	}
}

func TestFilterTracksFavoritesOnly(t *testing.T) {
	p := &fakeProvider{tracks: []media.Item{
		{ID: "1", Title: "One"},
		{ID: "2", Title: "Two"},
	}}
	c := catalog.NewCache(p)
	c.ReloadTracks(context.Background())

	got := c.FilterTracks(catalog.Filter{
		FavoritesOnly: true,
		IsFavorite:    func(id string) bool { return id == "2" },
	})

	if len(got) != 1 || got[0].ID != "2" {
		t.Fatalf("expected only favorite track 2, got %v", got)
	}
}

func TestFilterVideos(t *testing.T) {
	p := &fakeProvider{videos: []media.Item{
		{ID: "v1", Title: "Intro", Kind: media.KindVideo},
		{ID: "v2", Title: "Outro", Kind: media.KindVideo},
	}}
	c := catalog.NewCache(p)
	c.ReloadVideos(context.Background())

	got := c.FilterVideos("out")
	if len(got) != 1 || got[0].ID != "v2" {
		t.Fatalf("expected only v2, got %v", got)
	}
}
