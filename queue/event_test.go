package queue

import "testing"

func TestEventQueuePushDrain(t *testing.T) {
	q := NewEventQueue(4)
	q.Push(Event{Kind: ClipStarted, ClipID: 1, PositionSamples: 0})
	q.Push(Event{Kind: ClipStopped, ClipID: 1, PositionSamples: 480})

	var got []EventKind
	q.Drain(func(e Event) { got = append(got, e.Kind) })

	if len(got) != 2 || got[0] != ClipStarted || got[1] != ClipStopped {
		t.Fatalf("unexpected drain order: %v", got)
	}
}

func TestEventQueueNeverBlocksOnOverflow(t *testing.T) {
	q := NewEventQueue(2)
	for i := 0; i < 10; i++ {
		q.Push(Event{Kind: ClipLooped, ClipID: 1})
	}
	if q.Dropped() == 0 {
		t.Fatal("expected some events to be dropped once the ring overflowed")
	}
}
