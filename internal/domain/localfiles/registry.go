// Package localfiles tracks device-local files selected for playback
// and the transient resource URLs that make their bytes reachable.
package localfiles

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mhilario/cassette-player-backend/internal/domain/media"
)

// RawFile is a locally selected file before normalization.
type RawFile struct {
	Name         string
	MIMEType     string
	Size         int64
	LastModified time.Time
}

// BlobFacility allocates and revokes transient resource URLs for local
// file bytes.
type BlobFacility interface {
	CreateResourceURL(file RawFile) (string, error)
	RevokeResourceURL(url string)
}

// Handle pairs a normalized item with its transient resource URL. The
// URL must be revoked exactly once, when the handle is superseded or
// the selection changes.
type Handle struct {
	Item        media.Item
	ResourceURL string
}

// Registry owns handle creation and revocation. Whether a URL may be
// revoked while active is the playback controller's call; the registry
// itself only guarantees idempotent release.
// It is safe for concurrent access.
type Registry struct {
	mu      sync.Mutex
	blobs   BlobFacility
	handles map[string]Handle // keyed by resource URL
}

// NewRegistry creates a registry over the given blob facility.
func NewRegistry(blobs BlobFacility) *Registry {
	return &Registry{
		blobs:   blobs,
		handles: make(map[string]Handle),
	}
}

// RegisterSelection normalizes each file into a playable item and
// allocates one resource URL per file. The id is synthesized from name
// and last-modified time; two files sharing both are the same logical
// item. Files whose URL allocation fails are skipped.
func (r *Registry) RegisterSelection(files []RawFile) []media.Item {
	r.mu.Lock()
	defer r.mu.Unlock()

	items := make([]media.Item, 0, len(files))
	for _, f := range files {
		url, err := r.blobs.CreateResourceURL(f)
		if err != nil {
			log.Warn().Err(err).Str("file", f.Name).Msg("Failed to allocate resource URL")
			continue
		}

		format := f.MIMEType
		if format == "" {
			format = media.FormatLocal
		}

		item := media.Item{
			ID:        fmt.Sprintf("local-%s-%d", f.Name, f.LastModified.UnixMilli()),
			Title:     f.Name,
			SourceURL: url,
			Kind:      media.KindFromMIME(f.MIMEType),
			Format:    format,
			IsLocal:   true,
		}
		r.handles[url] = Handle{Item: item, ResourceURL: url}
		items = append(items, item)
	}

	log.Info().Int("count", len(items)).Msg("Local files registered")
	return items
}

// Release revokes the resource URL behind a handle. Releasing an
// unknown or already-released URL is a no-op: cleanup paths race with
// new selections.
func (r *Registry) Release(resourceURL string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.handles[resourceURL]; !ok {
		return
	}
	delete(r.handles, resourceURL)
	r.blobs.RevokeResourceURL(resourceURL)
	log.Debug().Str("url", resourceURL).Msg("Local resource released")
}

// Handles returns the currently live handles.
func (r *Registry) Handles() []Handle {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Handle, 0, len(r.handles))
	for _, h := range r.handles {
		out = append(out, h)
	}
	return out
}
