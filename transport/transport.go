// Package transport implements the real-time entry point: draining
// commands, advancing every active Voice, and handing mixed output to the
// RoutingMatrix. Transport.Process is the only method this package
// exposes that runs on the audio thread; everything else here is
// UI-thread bookkeeping (free-voice accounting, state queries).
package transport

import (
	"sync/atomic"

	"github.com/chrislyons/cueengine/clip"
	"github.com/chrislyons/cueengine/queue"
	"github.com/chrislyons/cueengine/routing"
	"github.com/chrislyons/cueengine/source"
	"github.com/chrislyons/cueengine/status"
	"github.com/chrislyons/cueengine/voice"
)

// ClipState is the coarse playback state the UI thread can query for a
// clip_id, collapsing Voice.Starting into Playing per spec.md §6.
type ClipState uint8

const (
	Stopped ClipState = iota
	Playing
	Stopping
)

// Config bundles the fixed parameters Transport needs at construction.
// All of it is pre-allocated up front per spec.md §5's "pre-allocation
// discipline" — nothing here grows after New returns.
type Config struct {
	SampleRate      float64
	MaxBufferFrames int
	MaxVoices       int
	NumGroups       uint8
	GainSmoothingMs float64
	ReleaseMs       float64
	Registry        *clip.Registry
	Sources         *source.Table
}

// Transport owns the voice pool and drives one buffer's worth of mixing
// per Process call.
type Transport struct {
	sampleRate      float64
	maxBufferFrames int
	releaseSamples  uint32

	registry *clip.Registry
	sources  *source.Table

	commands *queue.CommandQueue
	events   *queue.EventQueue
	routing  *routing.Matrix

	voices     []*voice.Voice
	srcScratch [][]float32
	voiceOut   [][]float32

	// Published once per buffer so the UI thread can query state without
	// the audio thread ever taking a lock.
	voiceClipID []atomic.Uint64
	voiceState  []atomic.Uint32

	freeVoices atomic.Int32

	positionSamples atomic.Int64
}

// New constructs a Transport with its full voice pool, scratch buffers,
// and command/event queues pre-allocated.
func New(cfg Config, commandCapacity, eventCapacity int) *Transport {
	t := &Transport{
		sampleRate:      cfg.SampleRate,
		maxBufferFrames: cfg.MaxBufferFrames,
		releaseSamples:  uint32(cfg.ReleaseMs * cfg.SampleRate / 1000),
		registry:        cfg.Registry,
		sources:         cfg.Sources,
		commands:        queue.NewCommandQueue(commandCapacity),
		events:          queue.NewEventQueue(eventCapacity),
		routing:         routing.NewMatrix(cfg.NumGroups, cfg.MaxBufferFrames, cfg.SampleRate),
		voices:          make([]*voice.Voice, cfg.MaxVoices),
		srcScratch:      make([][]float32, cfg.MaxVoices),
		voiceOut:        make([][]float32, cfg.MaxVoices),
		voiceClipID:     make([]atomic.Uint64, cfg.MaxVoices),
		voiceState:      make([]atomic.Uint32, cfg.MaxVoices),
	}
	if t.releaseSamples == 0 {
		t.releaseSamples = 1
	}
	for i := range t.voices {
		t.voices[i] = voice.New(cfg.SampleRate, cfg.GainSmoothingMs)
		t.srcScratch[i] = make([]float32, cfg.MaxBufferFrames)
		t.voiceOut[i] = make([]float32, cfg.MaxBufferFrames)
	}
	t.freeVoices.Store(int32(cfg.MaxVoices))
	return t
}

// Commands returns the queue UI-thread command producers push onto.
func (t *Transport) Commands() *queue.CommandQueue { return t.commands }

// FreeVoiceCount returns the number of pool slots not currently in use.
// UI-thread read, so start_clip can fail fast with NoVoiceAvailable
// before even enqueuing a command, per spec.md §7.
func (t *Transport) FreeVoiceCount() int { return int(t.freeVoices.Load()) }

// PositionSamples returns the running sample-position counter.
func (t *Transport) PositionSamples() int64 { return t.positionSamples.Load() }

// ClipState reports the coarse state of any voice currently playing id,
// or Stopped if none is.
func (t *Transport) ClipState(id clip.ID) ClipState {
	for i := range t.voices {
		if clip.ID(t.voiceClipID[i].Load()) != id {
			continue
		}
		switch voice.State(t.voiceState[i].Load()) {
		case voice.Starting, voice.Playing:
			return Playing
		case voice.Stopping:
			return Stopping
		}
	}
	return Stopped
}

// GroupMeter and MasterMeter forward to the RoutingMatrix for UI polling.
func (t *Transport) GroupMeter(index uint8) (peak, rms float32, err error) {
	return t.routing.GroupMeter(index)
}

func (t *Transport) MasterMeter() (peak, rms float32) {
	return t.routing.MasterMeter()
}

// Group exposes a group's mutable mix state (mute/solo/gain) for UI-thread
// commands that want to bypass the CommandQueue — kept private to the
// engine package in practice, exported here because transport is the
// owner of the RoutingMatrix.
func (t *Transport) Group(index uint8) (*routing.GroupState, error) {
	return t.routing.Group(index)
}

// DrainEvents forwards to the EventQueue for the UI thread's event loop.
func (t *Transport) DrainEvents(fn func(queue.Event)) {
	t.events.Drain(fn)
}

// DroppedEvents reports how many events have been discarded for lack of
// room in the EventQueue.
func (t *Transport) DroppedEvents() uint64 {
	return t.events.Dropped()
}

func (t *Transport) findFreeSlot() int {
	for i, v := range t.voices {
		if !v.IsActive() {
			return i
		}
	}
	return -1
}

// Process is the sole real-time entry point: drains pending commands,
// advances every active voice by frames samples, mixes through the
// RoutingMatrix, and writes the master bus into out. out must have length
// >= frames, and frames must not exceed the MaxBufferFrames this
// Transport was constructed with — the caller (AudioCallback adapter) is
// responsible for enforcing that at stream-open time.
func (t *Transport) Process(out []float32, frames int) {
	if frames > t.maxBufferFrames {
		frames = t.maxBufferFrames
	}

	t.commands.Drain(0, t.handleCommand)
	t.routing.BeginBuffer(frames)

	for i, v := range t.voices {
		if !v.IsActive() {
			t.voiceClipID[i].Store(0)
			t.voiceState[i].Store(uint32(voice.Idle))
			continue
		}

		rec := v.Record
		scratch := t.srcScratch[i][:frames]
		voiceOut := t.voiceOut[i][:frames]

		read := 0
		if src, ok := t.sources.Resolve(rec.SourceRef); ok {
			if rec.Loop {
				// A looping voice wraps from trim_out back to trim_in
				// mid-buffer, so its frames are read one trim-window span
				// at a time.
				for pos := v.ReadPosition; read < frames; pos = rec.TrimInSamples {
					want := frames - read
					if avail := rec.TrimOutSamples - pos; int64(want) > avail {
						want = int(avail)
					}
					got := src.ReadInto(scratch[read:read+want], pos)
					read += got
					if got < want {
						break
					}
				}
			} else {
				read = src.ReadInto(scratch, v.ReadPosition)
			}
		}
		if read < 0 {
			read = 0
		}
		if read < frames {
			for j := read; j < frames; j++ {
				scratch[j] = 0
			}
			t.events.Push(queue.Event{Kind: queue.BufferUnderrun, ClipID: v.ClipID, PositionSamples: v.ReadPosition})
		}

		clipID := v.ClipID
		n := v.Render(scratch, voiceOut, func(k queue.EventKind) {
			t.events.Push(queue.Event{Kind: k, ClipID: clipID, PositionSamples: v.ReadPosition})
		})
		for j := n; j < frames; j++ {
			voiceOut[j] = 0
		}

		t.routing.AccumulateClip(rec.GroupIndex, voiceOut)

		t.voiceClipID[i].Store(uint64(v.ClipID))
		t.voiceState[i].Store(uint32(v.State))

		if !v.IsActive() {
			v.Release()
			t.freeVoices.Add(1)
			t.voiceClipID[i].Store(0)
			t.voiceState[i].Store(uint32(voice.Idle))
		}
	}

	t.routing.Mix(frames, out)
	t.positionSamples.Add(int64(frames))
}

func (t *Transport) handleCommand(cmd queue.Command) {
	switch cmd.Kind {
	case queue.StartClip:
		t.startClip(cmd.ClipID, cmd.AtSampleOffset)
	case queue.StopClip:
		t.stopClipByID(cmd.ClipID)
	case queue.StopAll:
		for _, v := range t.voices {
			if v.IsActive() {
				v.RequestStop()
			}
		}
	case queue.StopAllInGroup:
		for _, v := range t.voices {
			if v.IsActive() && v.Record.GroupIndex == cmd.GroupIndex {
				v.RequestStop()
			}
		}
	case queue.UpdateGain:
		for _, v := range t.voices {
			if v.IsActive() && v.ClipID == cmd.ClipID {
				v.SetGain(cmd.GainLinear)
			}
		}
	case queue.Seek:
		for _, v := range t.voices {
			if v.IsActive() && v.ClipID == cmd.ClipID {
				v.Seek(cmd.ToSourceSample)
			}
		}
	case queue.SetGroupGain:
		if g, err := t.routing.Group(cmd.GroupIndex); err == nil {
			g.Gain.SetTarget(cmd.GainLinear)
		}
	case queue.SetGroupMute:
		if g, err := t.routing.Group(cmd.GroupIndex); err == nil {
			g.SetMute(cmd.Bool)
		}
	case queue.SetGroupSolo:
		if g, err := t.routing.Group(cmd.GroupIndex); err == nil {
			g.SetSolo(cmd.Bool)
		}
	}
}

// startClip allocates a voice for id. Both a registry miss and pool
// exhaustion discovered here (the rare race the UI-thread FreeVoiceCount
// check didn't catch) are silently dropped: no ClipStarted is emitted,
// matching spec.md §7's resource-exhaustion handling at dequeue time.
func (t *Transport) startClip(id clip.ID, atSampleOffset int64) {
	rec, ok := t.registry.Lookup(id)
	if !ok {
		return
	}
	slot := t.findFreeSlot()
	if slot < 0 {
		return
	}
	t.freeVoices.Add(-1)
	t.voices[slot].Start(id, rec, atSampleOffset, t.releaseSamples)
}

// stopClipByID requests a release fade on every active voice currently
// playing id — soundboard semantics permit concurrent voices of the same
// clip (spec.md §4.6), so stop_clip stops all of them together.
func (t *Transport) stopClipByID(id clip.ID) {
	for _, v := range t.voices {
		if v.IsActive() && v.ClipID == id {
			v.RequestStop()
		}
	}
}

// PushCommand is a thin wrapper so the engine package doesn't need to know
// about status codes living in the queue package.
func (t *Transport) PushCommand(cmd queue.Command) error {
	if err := t.commands.Push(cmd); err != nil {
		return status.New(status.QueueFull, "push_command", err)
	}
	return nil
}
