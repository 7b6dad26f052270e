package socketio

import (
	"sync"
	"time"
)

// Broadcast trigger kinds.
const (
	// TriggerState marks the playback state snapshot dirty.
	TriggerState = "state"
	// TriggerQueue marks the queue snapshot dirty.
	TriggerQueue = "queue"
)

// BroadcastDebouncer collapses rapid engine change notifications into
// batched broadcasts. Multiple triggers within the debounce window
// result in a single broadcast per affected snapshot.
type BroadcastDebouncer struct {
	window        time.Duration
	stateCallback func()
	queueCallback func()

	mu           sync.Mutex
	pendingState bool
	pendingQueue bool
	timer        *time.Timer
	stopped      bool
}

// NewBroadcastDebouncer creates a debouncer with the given window.
// stateCallback fires for pending state triggers, queueCallback for
// pending queue triggers.
func NewBroadcastDebouncer(window time.Duration, stateCallback, queueCallback func()) *BroadcastDebouncer {
	return &BroadcastDebouncer{
		window:        window,
		stateCallback: stateCallback,
		queueCallback: queueCallback,
	}
}

// Trigger records that a snapshot changed. The broadcast is deferred
// until the window elapses without further triggers.
func (d *BroadcastDebouncer) Trigger(kind string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}

	switch kind {
	case TriggerState:
		d.pendingState = true
	case TriggerQueue:
		d.pendingQueue = true
	}

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.window, d.flush)
}

// flush fires callbacks for any pending flags and resets them.
func (d *BroadcastDebouncer) flush() {
	d.mu.Lock()
	doState := d.pendingState
	doQueue := d.pendingQueue
	d.pendingState = false
	d.pendingQueue = false
	d.mu.Unlock()

	if doState && d.stateCallback != nil {
		d.stateCallback()
	}
	if doQueue && d.queueCallback != nil {
		d.queueCallback()
	}
}

// Stop prevents any further callbacks from firing.
func (d *BroadcastDebouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
	}
	d.pendingState = false
	d.pendingQueue = false
}
