package player

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/mhilario/cassette-player-backend/internal/domain/catalog"
	"github.com/mhilario/cassette-player-backend/internal/domain/favorites"
	"github.com/mhilario/cassette-player-backend/internal/domain/localfiles"
	"github.com/mhilario/cassette-player-backend/internal/domain/media"
	"github.com/mhilario/cassette-player-backend/internal/domain/queue"
)

// Controller owns the playback session, the queue, and the favorites
// set, and is the only writer of the shared device and the active
// local resource.
//
// Device start calls resolve asynchronously and can race later user
// actions. Every start attempt is tagged with a generation; a
// resolution whose generation no longer matches is discarded instead
// of mutating state for the wrong item.
type Controller struct {
	mu      sync.Mutex
	session *Session
	queue   *queue.Model
	catalog *catalog.Cache
	favs    *favorites.Store
	files   *localfiles.Registry
	device  Device

	generation uint64

	// Visible-list filter applied when a play reseeds the queue.
	searchQuery   string
	favoritesOnly bool

	onChange  func()
	onFailure func(*PlaybackError)
}

// NewController wires the controller over its collaborators and
// registers the device callbacks.
func NewController(device Device, cat *catalog.Cache, favs *favorites.Store, files *localfiles.Registry) *Controller {
	c := &Controller{
		session: NewSession(),
		queue:   queue.NewModel(),
		catalog: cat,
		favs:    favs,
		files:   files,
		device:  device,
	}

	device.SetCallbacks(DeviceCallbacks{
		OnTimeUpdate:    c.handleTimeUpdate,
		OnDurationKnown: c.handleDurationKnown,
		OnError:         c.handleDeviceError,
	})

	return c
}

// OnChange registers the callback invoked after observable state
// changes.
func (c *Controller) OnChange(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onChange = fn
}

// OnFailure registers the callback invoked with classified,
// recoverable playback failures.
func (c *Controller) OnFailure(fn func(*PlaybackError)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onFailure = fn
}

// Session returns the playback session.
func (c *Controller) Session() *Session {
	return c.session
}

// Queue returns the playback queue.
func (c *Controller) Queue() *queue.Model {
	return c.queue
}

// SetSearchQuery updates the filter applied when a play reseeds the
// queue from the visible list.
func (c *Controller) SetSearchQuery(query string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.searchQuery = query
}

// SetFavoritesOnly toggles the favorites-only restriction of the
// visible list.
func (c *Controller) SetFavoritesOnly(on bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.favoritesOnly = on
}

// Play starts playback of the given item. It releases the previously
// active local resource when the source changes, reseeds the queue
// from the currently visible list for the item's kind, and asks the
// device to start. The returned warning, when non-nil, flags a format
// with inconsistent device support; playback proceeds regardless.
func (c *Controller) Play(item media.Item) *FormatWarning {
	c.mu.Lock()

	// A local resource stays attached only while it is the source
	// being played; releasing the URL still backing the new item would
	// be a use-after-release.
	if prev := c.session.ActiveResource(); prev != "" && prev != item.SourceURL {
		c.files.Release(prev)
		c.session.SetActiveResource("")
	}
	if item.IsLocal {
		c.session.SetActiveResource(item.SourceURL)
	}

	// Starting playback always resets "what's next" to the list
	// visible at this moment, so next/previous stay predictable.
	c.queue.Seed(c.visibleList(item.Kind, c.searchQuery, c.favoritesOnly))

	var warning *FormatWarning
	if item.Format == media.FormatFLAC && !c.device.CanPlayType("audio/flac") {
		warning = &FormatWarning{Format: "FLAC", Suggested: "MP3 or AAC"}
		log.Warn().Str("id", item.ID).Msg("FLAC support not reported by device, attempting anyway")
	}

	c.session.SetCurrent(item)
	c.generation++
	gen := c.generation
	c.mu.Unlock()

	log.Info().Str("id", item.ID).Str("title", item.Title).Str("kind", string(item.Kind)).Msg("Play")
	c.notifyChange()

	go c.startPlayback(gen, item, true)

	return warning
}

// startPlayback issues the device start command and applies the
// outcome unless a later action superseded this attempt.
func (c *Controller) startPlayback(gen uint64, item media.Item, load bool) {
	if load {
		c.device.Load(item.SourceURL)
	}
	err := c.device.Play()

	c.mu.Lock()
	if gen != c.generation {
		// Stale resolution for an item the session already left.
		c.mu.Unlock()
		log.Debug().Str("id", item.ID).Msg("Discarding stale device resolution")
		return
	}

	if err != nil {
		c.session.SetStatus(StatusIdle)
		failure := classifyFailure(item.ID, err)
		c.mu.Unlock()

		log.Warn().Err(err).Str("id", item.ID).Str("reason", string(failure.Reason)).Msg("Device rejected playback")
		c.notifyFailure(failure)
		c.notifyChange()
		return
	}

	c.session.SetStatus(StatusPlaying)
	c.mu.Unlock()
	c.notifyChange()
}

// TogglePlayPause pauses active playback, or resumes/starts the
// current item.
func (c *Controller) TogglePlayPause() {
	c.mu.Lock()

	switch {
	case c.session.StatusNow() == StatusPlaying:
		c.device.Pause()
		c.session.SetStatus(StatusPaused)
		c.mu.Unlock()
		log.Info().Msg("Pause")
		c.notifyChange()

	case c.session.CurrentItem() != nil:
		item := *c.session.CurrentItem()
		c.session.SetStatus(StatusLoading)
		c.generation++
		gen := c.generation
		c.mu.Unlock()

		log.Info().Str("id", item.ID).Msg("Resume")
		c.notifyChange()
		go c.startPlayback(gen, item, false)

	default:
		c.mu.Unlock()
	}
}

// Seek moves playback to the given position in seconds, clamped to the
// known duration. The session position is updated optimistically so
// progress display stays responsive.
func (c *Controller) Seek(seconds float64) {
	if c.session.CurrentItem() == nil {
		return
	}

	if seconds < 0 {
		seconds = 0
	}
	duration := c.session.DurationNow()
	if duration > 0 && seconds > duration {
		seconds = duration
	}

	c.device.Seek(seconds)
	c.session.UpdatePosition(seconds)
	c.notifyChange()
}

// SetVolume sets the volume (0-100) on both the session and the
// device.
func (c *Controller) SetVolume(volume int) {
	v := c.session.SetVolume(volume)
	c.device.SetVolume(float64(v) / 100)
	log.Info().Int("volume", v).Msg("SetVolume")
	c.notifyChange()
}

// ToggleMute flips mute on both the session and the device.
func (c *Controller) ToggleMute() {
	muted := c.session.ToggleMute()
	c.device.SetMuted(muted)
	log.Info().Bool("mute", muted).Msg("ToggleMute")
	c.notifyChange()
}

// Next plays the item following the current one, wrapping at the end.
func (c *Controller) Next() {
	c.advance(1)
}

// Previous plays the item preceding the current one, wrapping at the
// start.
func (c *Controller) Previous() {
	c.advance(-1)
}

func (c *Controller) advance(direction int) {
	current := c.session.CurrentItem()
	if current == nil {
		return
	}

	var target media.Item
	var ok bool
	if direction > 0 {
		target, ok = c.queue.Next(current.ID)
	} else {
		target, ok = c.queue.Previous(current.ID)
	}

	if !ok {
		// The explicit queue was emptied or never held this item;
		// navigation falls back to the visible list for the current
		// kind rather than stalling.
		target, ok = c.fallbackNeighbor(*current, direction)
	}
	if !ok {
		return
	}

	c.Play(target)
}

// fallbackNeighbor picks next/previous from the filtered catalog for
// the current kind, with the same wraparound as the queue.
func (c *Controller) fallbackNeighbor(current media.Item, direction int) (media.Item, bool) {
	c.mu.Lock()
	query, favOnly := c.searchQuery, c.favoritesOnly
	c.mu.Unlock()

	list := c.visibleList(current.Kind, query, favOnly)
	if len(list) == 0 {
		return media.Item{}, false
	}

	idx := -1
	for i, it := range list {
		if it.ID == current.ID {
			idx = i
			break
		}
	}

	if direction > 0 {
		if idx >= 0 && idx < len(list)-1 {
			return list[idx+1], true
		}
		return list[0], true
	}
	if idx > 0 {
		return list[idx-1], true
	}
	return list[len(list)-1], true
}

// ToggleShuffle flips queue shuffle mode.
func (c *Controller) ToggleShuffle() bool {
	on := c.queue.ShuffleToggle()
	log.Info().Bool("shuffle", on).Msg("ToggleShuffle")
	c.notifyChange()
	return on
}

// QueueAll replaces the queue with the given items.
func (c *Controller) QueueAll(items []media.Item) {
	c.queue.QueueAll(items)
	log.Info().Int("count", len(items)).Msg("QueueAll")
	c.notifyChange()
}

// MoveQueueItem swaps a queued item with its neighbor.
func (c *Controller) MoveQueueItem(index, direction int) {
	c.queue.MoveItem(index, direction)
	c.notifyChange()
}

// PlayItemNext inserts the item right after the one currently playing.
func (c *Controller) PlayItemNext(item media.Item) {
	c.queue.InsertAfterCurrent(item, c.session.CurrentID())
	log.Info().Str("id", item.ID).Msg("PlayItemNext")
	c.notifyChange()
}

// PlayLocalSelection registers locally selected files and starts
// playback of the first one, matching the screen behavior where
// picking files begins playing immediately.
func (c *Controller) PlayLocalSelection(files []localfiles.RawFile) ([]media.Item, *FormatWarning) {
	items := c.files.RegisterSelection(files)
	if len(items) == 0 {
		return items, nil
	}
	warning := c.Play(items[0])
	return items, warning
}

// visibleList returns the filtered list a play of the given kind
// seeds the queue from.
func (c *Controller) visibleList(kind media.Kind, query string, favoritesOnly bool) []media.Item {
	if kind == media.KindVideo {
		return c.catalog.FilterVideos(query)
	}
	return c.catalog.FilterTracks(catalog.Filter{
		Query:         query,
		FavoritesOnly: favoritesOnly,
		IsFavorite:    c.favs.IsFavorite,
	})
}

// handleTimeUpdate records device-reported positions. Advisory only.
func (c *Controller) handleTimeUpdate(seconds float64) {
	c.session.UpdatePosition(seconds)
	c.notifyChange()
}

// handleDurationKnown records the device-reported duration.
func (c *Controller) handleDurationKnown(seconds float64) {
	c.session.UpdateDuration(seconds)
	c.notifyChange()
}

// handleDeviceError reverts to a consistent non-playing state on
// asynchronous device errors.
func (c *Controller) handleDeviceError(err error) {
	c.mu.Lock()
	current := c.session.CurrentItem()
	if current == nil {
		c.mu.Unlock()
		return
	}
	c.session.SetStatus(StatusIdle)
	failure := classifyFailure(current.ID, err)
	c.mu.Unlock()

	log.Warn().Err(err).Str("id", current.ID).Msg("Device error during playback")
	c.notifyFailure(failure)
	c.notifyChange()
}

func (c *Controller) notifyChange() {
	c.mu.Lock()
	fn := c.onChange
	c.mu.Unlock()
	if fn != nil {
		fn()
	}
}

func (c *Controller) notifyFailure(err *PlaybackError) {
	c.mu.Lock()
	fn := c.onFailure
	c.mu.Unlock()
	if fn != nil {
		fn(err)
	}
}
