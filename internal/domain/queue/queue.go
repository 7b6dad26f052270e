// Package queue provides the ordered playback queue governing
// next/previous traversal, distinct from the catalog it was seeded from.
package queue

import (
	"math/rand"
	"sync"
	"time"

	"github.com/mhilario/cassette-player-backend/internal/domain/media"
)

// Model holds the ordered list of playable items plus the shuffle flag.
// Queue order is never resorted by catalog reloads; it only changes
// through the explicit operations below.
// It is safe for concurrent access.
type Model struct {
	mu      sync.RWMutex
	items   []media.Item
	shuffle bool
	rng     *rand.Rand
}

// NewModel creates an empty queue.
func NewModel() *Model {
	return &Model{
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Seed replaces the queue verbatim and clears the shuffle flag.
// An empty input yields an empty queue; Next/Previous become no-ops.
func (m *Model) Seed(items []media.Item) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.items = make([]media.Item, len(items))
	copy(m.items, items)
	m.shuffle = false
}

// QueueAll replaces the queue with the given items. Alias of Seed, used
// by bulk "queue all visible" actions.
func (m *Model) QueueAll(items []media.Item) {
	m.Seed(items)
}

// Items returns a copy of the queue in order.
func (m *Model) Items() []media.Item {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]media.Item, len(m.items))
	copy(out, m.items)
	return out
}

// Len returns the number of queued items.
func (m *Model) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}

// Shuffle reports whether shuffle mode is on.
func (m *Model) Shuffle() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.shuffle
}

// ShuffleToggle flips the shuffle flag. Turning shuffle on permutes the
// current queue in place (Fisher-Yates). Turning it off keeps the
// shuffled order; the original order is not restored.
func (m *Model) ShuffleToggle() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.shuffle = !m.shuffle
	if m.shuffle && len(m.items) > 0 {
		for i := len(m.items) - 1; i > 0; i-- {
			j := m.rng.Intn(i + 1)
			m.items[i], m.items[j] = m.items[j], m.items[i]
		}
	}
	return m.shuffle
}

// MoveItem swaps the item at index with its neighbor in direction
// (-1 up, +1 down). Out-of-range indices are ignored: moves originate
// from UI actions that can race with list mutation.
func (m *Model) MoveItem(index, direction int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	target := index + direction
	if index < 0 || index >= len(m.items) || target < 0 || target >= len(m.items) {
		return
	}
	m.items[index], m.items[target] = m.items[target], m.items[index]
}

// InsertAfterCurrent removes any existing occurrence of item.ID and
// inserts the item immediately after the element whose id equals
// currentID. When currentID is not present (nothing playing), the item
// is inserted at the head. Net queue growth is at most one.
func (m *Model) InsertAfterCurrent(item media.Item, currentID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.items[:0]
	for _, it := range m.items {
		if it.ID != item.ID {
			kept = append(kept, it)
		}
	}
	m.items = kept

	pos := 0
	for i, it := range m.items {
		if it.ID == currentID {
			pos = i + 1
			break
		}
	}

	m.items = append(m.items, media.Item{})
	copy(m.items[pos+1:], m.items[pos:])
	m.items[pos] = item
}

// Next returns the item following currentID, wrapping to the first item
// after the last. The second return is false when currentID is not in
// the queue or the queue is empty.
func (m *Model) Next(currentID string) (media.Item, bool) {
	return m.neighbor(currentID, 1)
}

// Previous returns the item preceding currentID, wrapping to the last
// item before the first. The second return is false when currentID is
// not in the queue or the queue is empty.
func (m *Model) Previous(currentID string) (media.Item, bool) {
	return m.neighbor(currentID, -1)
}

func (m *Model) neighbor(currentID string, direction int) (media.Item, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := len(m.items)
	if n == 0 {
		return media.Item{}, false
	}
	for i, it := range m.items {
		if it.ID == currentID {
			return m.items[(i+direction+n)%n], true
		}
	}
	return media.Item{}, false
}
