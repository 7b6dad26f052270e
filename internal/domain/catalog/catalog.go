// Package catalog caches the last-fetched track, video, and radio
// station lists and derives the filtered views used for playback.
package catalog

import (
	"context"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/mhilario/cassette-player-backend/internal/domain/media"
)

// Provider fetches catalog contents from the media server. Items come
// back normalized with SourceURL already resolved to an absolute
// address.
type Provider interface {
	ListTracks(ctx context.Context) ([]media.Item, error)
	ListVideos(ctx context.Context) ([]media.Item, error)
	ListStations(ctx context.Context) ([]media.Item, error)
	UploadTracks(ctx context.Context, files []Upload) (int, error)
}

// Upload is one file submitted through the upload endpoint.
type Upload struct {
	Name     string
	MIMEType string
	Data     []byte
}

// Cache holds the last successfully fetched lists. A failed reload
// leaves the previous value in place and never blocks playback.
// It is safe for concurrent access.
type Cache struct {
	mu       sync.RWMutex
	provider Provider
	tracks   []media.Item
	videos   []media.Item
	stations []media.Item
}

// NewCache creates an empty cache over the given provider.
func NewCache(provider Provider) *Cache {
	return &Cache{provider: provider}
}

// ReloadTracks refreshes the track list. On failure the previous list
// is kept.
func (c *Cache) ReloadTracks(ctx context.Context) {
	items, err := c.provider.ListTracks(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Track catalog reload failed, keeping previous list")
		return
	}
	c.mu.Lock()
	c.tracks = items
	c.mu.Unlock()
	log.Info().Int("count", len(items)).Msg("Track catalog reloaded")
}

// ReloadVideos refreshes the video list. On failure the previous list
// is kept.
func (c *Cache) ReloadVideos(ctx context.Context) {
	items, err := c.provider.ListVideos(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Video catalog reload failed, keeping previous list")
		return
	}
	c.mu.Lock()
	c.videos = items
	c.mu.Unlock()
	log.Info().Int("count", len(items)).Msg("Video catalog reloaded")
}

// ReloadStations refreshes the radio station list. On failure the
// previous list is kept.
func (c *Cache) ReloadStations(ctx context.Context) {
	items, err := c.provider.ListStations(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Radio catalog reload failed, keeping previous list")
		return
	}
	c.mu.Lock()
	c.stations = items
	c.mu.Unlock()
	log.Info().Int("count", len(items)).Msg("Radio catalog reloaded")
}

// ReloadAll refreshes every list.
func (c *Cache) ReloadAll(ctx context.Context) {
	c.ReloadTracks(ctx)
	c.ReloadVideos(ctx)
	c.ReloadStations(ctx)
}

// Tracks returns a copy of the cached track list.
func (c *Cache) Tracks() []media.Item {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return copyItems(c.tracks)
}

// Videos returns a copy of the cached video list.
func (c *Cache) Videos() []media.Item {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return copyItems(c.videos)
}

// Stations returns a copy of the cached radio station list.
func (c *Cache) Stations() []media.Item {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return copyItems(c.stations)
}

// Filter narrows the visible catalog the same way the player screen
// does: a case-insensitive title/artist query plus an optional
// favorites-only restriction.
type Filter struct {
	Query         string
	FavoritesOnly bool
	IsFavorite    func(id string) bool
}

// FilterTracks returns the tracks matching the filter, in catalog
// order.
func (c *Cache) FilterTracks(f Filter) []media.Item {
	c.mu.RLock()
	defer c.mu.RUnlock()

	query := strings.ToLower(f.Query)
	out := make([]media.Item, 0, len(c.tracks))
	for _, it := range c.tracks {
		if query != "" &&
			!strings.Contains(strings.ToLower(it.Title), query) &&
			!strings.Contains(strings.ToLower(it.Artist), query) {
			continue
		}
		if f.FavoritesOnly && (f.IsFavorite == nil || !f.IsFavorite(it.ID)) {
			continue
		}
		out = append(out, it)
	}
	return out
}

// FilterVideos returns the videos whose title matches the query.
func (c *Cache) FilterVideos(query string) []media.Item {
	c.mu.RLock()
	defer c.mu.RUnlock()

	q := strings.ToLower(query)
	out := make([]media.Item, 0, len(c.videos))
	for _, it := range c.videos {
		if q != "" && !strings.Contains(strings.ToLower(it.Title), q) {
			continue
		}
		out = append(out, it)
	}
	return out
}

func copyItems(items []media.Item) []media.Item {
	out := make([]media.Item, len(items))
	copy(out, items)
	return out
}
