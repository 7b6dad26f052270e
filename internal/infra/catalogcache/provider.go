package catalogcache

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/mhilario/cassette-player-backend/internal/domain/catalog"
	"github.com/mhilario/cassette-player-backend/internal/domain/media"
)

// Provider decorates an upstream catalog provider with the snapshot
// store: successful listings are persisted, and when the upstream is
// unreachable the last persisted listing is served instead.
type Provider struct {
	upstream catalog.Provider
	store    *Store
}

// Wrap decorates upstream with snapshot persistence.
func Wrap(upstream catalog.Provider, store *Store) *Provider {
	return &Provider{upstream: upstream, store: store}
}

// ListTracks lists the audio catalog, falling back to the snapshot.
func (p *Provider) ListTracks(ctx context.Context) ([]media.Item, error) {
	return p.list(ctx, KindTracks, p.upstream.ListTracks)
}

// ListVideos lists the video catalog, falling back to the snapshot.
func (p *Provider) ListVideos(ctx context.Context) ([]media.Item, error) {
	return p.list(ctx, KindVideos, p.upstream.ListVideos)
}

// ListStations lists radio stations, falling back to the snapshot.
func (p *Provider) ListStations(ctx context.Context) ([]media.Item, error) {
	return p.list(ctx, KindStations, p.upstream.ListStations)
}

func (p *Provider) list(ctx context.Context, kind string, fetch func(context.Context) ([]media.Item, error)) ([]media.Item, error) {
	items, err := fetch(ctx)
	if err == nil {
		if saveErr := p.store.Save(kind, items); saveErr != nil {
			log.Warn().Err(saveErr).Str("kind", kind).Msg("Failed to persist catalog snapshot")
		}
		return items, nil
	}

	cached, loadErr := p.store.Load(kind)
	if loadErr != nil || len(cached) == 0 {
		return nil, err
	}

	log.Warn().Err(err).Str("kind", kind).Int("items", len(cached)).Msg("Upstream catalog unavailable, serving snapshot")
	return cached, nil
}

// UploadTracks passes through to the upstream; snapshots only track
// listings.
func (p *Provider) UploadTracks(ctx context.Context, files []catalog.Upload) (int, error) {
	return p.upstream.UploadTracks(ctx, files)
}
