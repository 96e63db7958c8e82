package queue

import (
	"sync/atomic"

	"github.com/chrislyons/cueengine/clip"
	"github.com/chrislyons/cueengine/internal/ring"
)

// EventKind discriminates the Event union.
type EventKind uint8

const (
	ClipStarted EventKind = iota
	ClipStopped
	ClipLooped
	BufferUnderrun
	DeviceChanged
)

// Event is a single observation the audio thread reports to the UI thread.
type Event struct {
	Kind            EventKind
	ClipID          clip.ID
	PositionSamples int64
}

// EventQueue is the single-producer (audio)/single-consumer (UI) event
// channel. If the ring is full, Push never blocks: it increments
// Dropped and discards the event, exactly as spec.md requires of the audio
// thread.
type EventQueue struct {
	ring    *ring.Ring[Event]
	dropped atomic.Uint64
}

// NewEventQueue creates an EventQueue with room for at least capacity
// pending events.
func NewEventQueue(capacity int) *EventQueue {
	return &EventQueue{ring: ring.New[Event](capacity)}
}

// Push enqueues ev. Audio-thread only; never blocks, never errors.
func (q *EventQueue) Push(ev Event) {
	if !q.ring.TryPush(ev) {
		q.dropped.Add(1)
	}
}

// Drain pops every currently queued event and invokes fn for each, in
// emission order. UI-thread only.
func (q *EventQueue) Drain(fn func(Event)) {
	for {
		ev, ok := q.ring.TryPop()
		if !ok {
			return
		}
		fn(ev)
	}
}

// Dropped returns the number of events discarded so far because the ring
// was full.
func (q *EventQueue) Dropped() uint64 { return q.dropped.Load() }
