// Package queue implements the lock-free SPSC command and event channels
// between the UI thread and the audio thread.
//
// Commands and events are plain value structs, not an interface/variant
// type — the same choice the teacher made for its jitter-buffer slots
// (client/internal/jitter's fixed-size slot array) and for its tagged
// protocol messages (server/protocol.ControlMsg, a single struct with a
// Type discriminator rather than one type per message). A fixed struct
// means Ring[Command] never boxes an interface value, so pushing and
// popping a command allocates nothing.
package queue

import (
	"github.com/chrislyons/cueengine/clip"
	"github.com/chrislyons/cueengine/internal/ring"
	"github.com/chrislyons/cueengine/status"
)

// CommandKind discriminates the Command union.
type CommandKind uint8

const (
	StartClip CommandKind = iota
	StopClip
	StopAll
	StopAllInGroup
	UpdateGain
	Seek
	SetGroupGain
	SetGroupMute
	SetGroupSolo
)

// Command is a single instruction from the UI thread to the audio thread.
// It carries no timestamp: it is applied when the next Process call drains
// the queue, in enqueue order. Only the fields relevant to Kind are
// meaningful.
type Command struct {
	Kind           CommandKind
	ClipID         clip.ID
	GroupIndex     uint8
	AtSampleOffset int64
	ToSourceSample int64
	GainLinear     float32
	Bool           bool
}

// CommandQueue is the single-producer (UI)/single-consumer (audio) command
// channel. Capacity is fixed at construction and rounded up to a power of
// two.
type CommandQueue struct {
	ring *ring.Ring[Command]
}

// NewCommandQueue creates a CommandQueue with room for at least capacity
// pending commands.
func NewCommandQueue(capacity int) *CommandQueue {
	return &CommandQueue{ring: ring.New[Command](capacity)}
}

// Push enqueues cmd. It returns status.QueueFull without blocking if the
// ring is saturated — existing queued commands are left intact and will
// still run on the next Drain.
func (q *CommandQueue) Push(cmd Command) error {
	if !q.ring.TryPush(cmd) {
		return status.New(status.QueueFull, "command_queue_push", nil)
	}
	return nil
}

// Drain pops every currently queued command (up to budget, or all of them
// when budget <= 0) and invokes handle for each, in enqueue order.
// Audio-thread only.
func (q *CommandQueue) Drain(budget int, handle func(Command)) {
	n := 0
	for {
		if budget > 0 && n >= budget {
			return
		}
		cmd, ok := q.ring.TryPop()
		if !ok {
			return
		}
		handle(cmd)
		n++
	}
}

// Len reports the number of commands currently queued.
func (q *CommandQueue) Len() int { return q.ring.Len() }
