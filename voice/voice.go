// Package voice implements the per-active-clip playback state machine:
// trim/fade/loop semantics, the release fade triggered by StopClip, and the
// overlap rule between a natural end-of-clip fade and a requested stop.
package voice

import (
	"github.com/chrislyons/cueengine/clip"
	"github.com/chrislyons/cueengine/queue"
	"github.com/chrislyons/cueengine/smoother"
)

// State is one state of the Voice lifecycle (spec.md §4.6).
type State uint8

const (
	Idle State = iota // pool slot, not in use
	Starting
	Playing
	Stopping
	Done
)

// Voice is one playing instance of a clip. Voices are pool-allocated at
// engine init (spec.md "all Voice storage is pre-allocated") and reused —
// Start re-initializes an Idle/Done Voice rather than allocating a new one.
type Voice struct {
	ClipID ID
	Record *clip.Record

	ReadPosition int64
	State        State

	Gain *smoother.Smoother

	releaseActive  bool
	releaseElapsed uint32
	releaseSamples uint32
}

// ID aliases clip.ID so callers of this package don't need a second import
// just to spell out the handle type.
type ID = clip.ID

// New returns an Idle Voice with its own pre-allocated gain smoother.
func New(sampleRate float64, smoothingMs float64) *Voice {
	return &Voice{
		State: Idle,
		Gain:  smoother.New(sampleRate, smoothingMs),
	}
}

// Start (re-)initializes the voice to play rec from atSampleOffset frames
// past the trim-in point. releaseSamples is the configured release-fade
// length (engine-wide, spec.md's "10 ms linear release fade (or configured
// release)").
func (v *Voice) Start(id ID, rec *clip.Record, atSampleOffset int64, releaseSamples uint32) {
	pos := rec.TrimInSamples + atSampleOffset
	if pos < rec.TrimInSamples {
		pos = rec.TrimInSamples
	}
	if pos > rec.TrimOutSamples {
		pos = rec.TrimOutSamples
	}

	v.ClipID = id
	v.Record = rec
	v.ReadPosition = pos
	v.State = Starting
	v.releaseActive = false
	v.releaseElapsed = 0
	v.releaseSamples = releaseSamples
	v.Gain.Reset(rec.GainLinear)
}

// SetGain re-targets the voice's gain smoother so the change ramps in
// smoothly rather than stepping (spec.md: gain "applies immediately ... via
// the voice's smoother").
func (v *Voice) SetGain(linear float32) {
	v.Gain.SetTarget(linear)
}

// Seek jumps the read position within [trim_in, trim_out]. It intentionally
// does not touch any fade state: the fade-in envelope is derived from
// position, not from a separately-ticking counter, so "seek is a jump, not
// a restart" falls out for free (see DESIGN.md).
func (v *Voice) Seek(toSourceSample int64) {
	pos := toSourceSample
	if pos < v.Record.TrimInSamples {
		pos = v.Record.TrimInSamples
	}
	if pos > v.Record.TrimOutSamples {
		pos = v.Record.TrimOutSamples
	}
	v.ReadPosition = pos
}

// RequestStop begins the release fade. It is a no-op if a release is
// already in progress or the voice is already Done (spec.md invariant:
// "stop_clip on an already-Stopping ... clip is a no-op" — read as
// "already explicitly stopping", since a voice already in its *natural*
// end-of-clip fade must still be able to layer in a shorter release, per
// the overlap rule below).
func (v *Voice) RequestStop() {
	if v.releaseActive || v.State == Done || v.State == Idle {
		return
	}
	v.releaseActive = true
	v.releaseElapsed = 0
}

// IsActive reports whether the voice occupies a pool slot.
func (v *Voice) IsActive() bool {
	return v.State != Idle && v.State != Done
}

// Release returns the voice to the pool.
func (v *Voice) Release() {
	v.State = Idle
	v.Record = nil
	v.releaseActive = false
}

// Render applies trim/fade/loop/gain to srcFrames (one source sample per
// output sample, already resolved by the caller via Source.ReadInto) and
// writes the result into out. It returns the number of samples actually
// written before the voice went Done — the caller should treat any
// trailing, unwritten samples in out as silence — and emits any lifecycle
// transitions via emit.
func (v *Voice) Render(srcFrames []float32, out []float32, emit func(queue.EventKind)) int {
	rec := v.Record
	n := len(srcFrames)
	if len(out) < n {
		n = len(out)
	}

	for i := 0; i < n; i++ {
		if v.State == Starting {
			v.State = Playing
			emit(queue.ClipStarted)
		}

		pos := v.ReadPosition

		fadeIn := float32(1)
		if rec.FadeInSamples > 0 {
			elapsed := pos - rec.TrimInSamples
			if elapsed < int64(rec.FadeInSamples) {
				x := float32(elapsed) / float32(rec.FadeInSamples)
				fadeIn = rec.FadeInCurve.Apply(x)
			}
		}

		naturalGain := float32(1)
		naturalActive := !rec.Loop && rec.FadeOutSamples > 0 &&
			pos >= rec.TrimOutSamples-int64(rec.FadeOutSamples)
		if naturalActive {
			remaining := rec.TrimOutSamples - pos
			x := float32(remaining) / float32(rec.FadeOutSamples)
			naturalGain = rec.FadeOutCurve.Apply(x)
			if v.State == Playing {
				v.State = Stopping
			}
		}

		envelope := naturalGain
		if v.releaseActive {
			if v.State == Playing || v.State == Starting {
				v.State = Stopping
			}
			// Ramps from 1.0 on the first release sample to 0.0 on the last.
			remaining := int64(v.releaseSamples) - int64(v.releaseElapsed) - 1
			if remaining < 0 {
				remaining = 0
			}
			x := float32(0)
			if v.releaseSamples > 1 {
				x = float32(remaining) / float32(v.releaseSamples-1)
			}
			releaseGain := clip.Linear.Apply(x)
			if releaseGain < envelope {
				envelope = releaseGain
			}
			v.releaseElapsed++
		}

		clipGain := v.Gain.Process()
		out[i] = srcFrames[i] * fadeIn * envelope * clipGain

		pos++
		done := false
		if pos >= rec.TrimOutSamples {
			if rec.Loop && !v.releaseActive {
				pos = rec.TrimInSamples
				emit(queue.ClipLooped)
			} else {
				pos = rec.TrimOutSamples
				done = true
			}
		} else if v.releaseActive && v.releaseElapsed >= v.releaseSamples {
			done = true
		}
		v.ReadPosition = pos

		if done {
			v.State = Done
			emit(queue.ClipStopped)
			return i + 1
		}
	}
	return n
}
