// Package cueengine implements a real-time audio playback engine for
// cue-driven, soundboard-style applications: clip triggering with
// sample-accurate start/stop, trim points, fade envelopes, looping,
// per-clip gain, and grouping with mute/solo, mixed through groups into a
// master bus.
package cueengine

import (
	"math"

	"github.com/chrislyons/cueengine/clip"
	"github.com/chrislyons/cueengine/driver"
	"github.com/chrislyons/cueengine/queue"
	"github.com/chrislyons/cueengine/source"
	"github.com/chrislyons/cueengine/status"
	"github.com/chrislyons/cueengine/transport"
)

// ClipState mirrors transport.ClipState at the public API boundary so
// callers of this package never need to import the transport package
// directly.
type ClipState = transport.ClipState

const (
	Stopped  = transport.Stopped
	Playing  = transport.Playing
	Stopping = transport.Stopping
)

// Position is the result of CurrentPosition: the transport's running
// sample counter, derived into seconds and (given Options.Tempo) beats.
type Position struct {
	Samples int64
	Seconds float64
	Beats   float64
}

// Meter is a peak/RMS reading. ClipCount is not populated by GroupMeter or
// MasterMeter and is always zero.
type Meter struct {
	Peak      float32
	RMS       float32
	ClipCount int
}

// Engine is an owned instance; the package keeps no global state, so
// multiple Engines coexist in one process (spec.md §9 — offline render
// concurrent with live playback).
type Engine struct {
	opts      Options
	registry  *clip.Registry
	sources   *source.Table
	transport *transport.Transport
	logger    Logger
}

// New validates opts and constructs an Engine with its full voice pool,
// scratch buffers, and command/event queues pre-allocated.
func New(opts Options) (*Engine, error) {
	if opts.Logger == nil {
		opts.Logger = noopLogger{}
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}

	sources := source.NewTable()
	registry := clip.NewRegistry(sources, uint32(opts.SampleRate), 0)
	tr := transport.New(transport.Config{
		SampleRate:      opts.SampleRate,
		MaxBufferFrames: opts.MaxBufferFrames,
		MaxVoices:       opts.MaxVoices,
		NumGroups:       opts.NumGroups,
		GainSmoothingMs: opts.GainSmoothingMs,
		ReleaseMs:       opts.ReleaseMs,
		Registry:        registry,
		Sources:         sources,
	}, opts.MaxVoices*4, opts.MaxVoices*4)

	opts.Logger.Printf("[engine] initialized sample_rate=%.0f buffer_size=%d max_voices=%d num_groups=%d",
		opts.SampleRate, opts.BufferSize, opts.MaxVoices, opts.NumGroups)

	return &Engine{opts: opts, registry: registry, sources: sources, transport: tr, logger: opts.Logger}, nil
}

// Shutdown releases engine resources. There is nothing to close on the
// core itself (no file handles, no device); a Driver bound to this
// Engine's Callback must be stopped separately by the caller.
func (e *Engine) Shutdown() {
	e.logger.Printf("[engine] shutdown")
}

// Callback returns a driver.Callback wired to this engine's transport, for
// handing to a concrete Driver's Start method.
func (e *Engine) Callback() driver.Callback {
	return driver.NewAudioCallback(e.transport)
}

// RegisterSource makes src resolvable as sourceRef by future RegisterClip
// calls. UI-thread only.
func (e *Engine) RegisterSource(ref string, src source.Source) {
	e.sources.Register(ref, src)
}

// RegisterClip validates defaults against the named source and publishes
// a new clip record, returning its handle.
func (e *Engine) RegisterClip(sourceRef string, defaults clip.Defaults) (clip.ID, error) {
	id, err := e.registry.Register(sourceRef, defaults)
	if err != nil {
		e.logger.Printf("[engine] register_clip failed source=%s err=%v", sourceRef, err)
		return clip.Invalid, err
	}
	e.logger.Printf("[engine] register_clip id=%d source=%s", id, sourceRef)
	return id, nil
}

// UnregisterClip retires a clip's record. Voices already playing it keep
// their captured snapshot alive until they finish naturally.
func (e *Engine) UnregisterClip(id clip.ID) error {
	return e.registry.Unregister(id)
}

// UpdateTrim replaces a clip's trim window. Applies to voices started
// after publication; currently-playing voices keep the snapshot they
// captured at Start.
func (e *Engine) UpdateTrim(id clip.ID, in, out int64) error {
	return e.registry.UpdateTrim(id, in, out)
}

// UpdateFades replaces a clip's fade durations and curves.
func (e *Engine) UpdateFades(id clip.ID, inSamples, outSamples uint32, inCurve, outCurve clip.FadeCurve) error {
	return e.registry.UpdateFades(id, inSamples, outSamples, inCurve, outCurve)
}

// UpdateGainDB converts db to linear, publishes it to the clip's record
// (seeding future voices), and retargets every currently-playing voice's
// gain smoother so the change is audible immediately, per spec.md §4.1's
// takes-effect rule for gain.
func (e *Engine) UpdateGainDB(id clip.ID, db float32) error {
	if err := e.registry.UpdateGainDB(id, db); err != nil {
		return err
	}
	linear, _ := e.registry.GainLinear(id)
	return e.pushCommand(queue.Command{Kind: queue.UpdateGain, ClipID: id, GainLinear: linear})
}

// SetLoop replaces a clip's loop flag.
func (e *Engine) SetLoop(id clip.ID, loop bool) error {
	return e.registry.SetLoop(id, loop)
}

// AssignGroup replaces a clip's group assignment.
func (e *Engine) AssignGroup(id clip.ID, group uint8) error {
	return e.registry.AssignGroup(id, group, e.opts.NumGroups)
}

// SetOutputBus replaces a clip's output bus.
func (e *Engine) SetOutputBus(id clip.ID, bus uint8) error {
	return e.registry.SetOutputBus(id, bus)
}

// AddCuePoint inserts a cue point and returns its sorted index.
func (e *Engine) AddCuePoint(id clip.ID, pos int64, name string, color uint32) (int, error) {
	return e.registry.AddCuePoint(id, pos, name, color)
}

// RemoveCuePoint deletes the cue point at index.
func (e *Engine) RemoveCuePoint(id clip.ID, index int) error {
	return e.registry.RemoveCuePoint(id, index)
}

// SeekToCuePoint issues an immediate Seek command to the cue point's
// source-frame position. Per spec.md §9, this is an immediate jump with
// no fade-through, even across a loop boundary.
func (e *Engine) SeekToCuePoint(id clip.ID, index int) error {
	pos, err := e.registry.CuePointPosition(id, index)
	if err != nil {
		return err
	}
	return e.Seek(id, pos)
}

// StartClip enqueues a StartClip command. If the voice pool is already
// exhausted, this fails synchronously with NoVoiceAvailable rather than
// enqueuing a command the audio thread would silently drop (spec.md §7).
func (e *Engine) StartClip(id clip.ID, atSampleOffset int64) error {
	if e.transport.FreeVoiceCount() <= 0 {
		return status.New(status.NoVoiceAvailable, "start_clip", nil)
	}
	return e.pushCommand(queue.Command{Kind: queue.StartClip, ClipID: id, AtSampleOffset: atSampleOffset})
}

// StopClip initiates a release fade on every active voice of id.
func (e *Engine) StopClip(id clip.ID) error {
	return e.pushCommand(queue.Command{Kind: queue.StopClip, ClipID: id})
}

// StopAll initiates a release fade on every active voice.
func (e *Engine) StopAll() error {
	return e.pushCommand(queue.Command{Kind: queue.StopAll})
}

// StopAllInGroup initiates a release fade on every active voice routed to
// group.
func (e *Engine) StopAllInGroup(group uint8) error {
	return e.pushCommand(queue.Command{Kind: queue.StopAllInGroup, GroupIndex: group})
}

// Seek jumps every active voice of id to toSourceSample, clamped to the
// clip's trim window.
func (e *Engine) Seek(id clip.ID, toSourceSample int64) error {
	return e.pushCommand(queue.Command{Kind: queue.Seek, ClipID: id, ToSourceSample: toSourceSample})
}

// SetGroupGainDB converts db to linear and retargets the group's gain
// smoother.
func (e *Engine) SetGroupGainDB(group uint8, db float32) error {
	linear := float32(math.Pow(10, float64(db)/20))
	return e.pushCommand(queue.Command{Kind: queue.SetGroupGain, GroupIndex: group, GainLinear: linear})
}

// SetGroupMute sets a group's mute flag.
func (e *Engine) SetGroupMute(group uint8, muted bool) error {
	return e.pushCommand(queue.Command{Kind: queue.SetGroupMute, GroupIndex: group, Bool: muted})
}

// SetGroupSolo sets a group's solo flag.
func (e *Engine) SetGroupSolo(group uint8, soloed bool) error {
	return e.pushCommand(queue.Command{Kind: queue.SetGroupSolo, GroupIndex: group, Bool: soloed})
}

// ClipState reports the coarse playback state of id: Stopped if no voice
// is currently playing it.
func (e *Engine) ClipState(id clip.ID) ClipState {
	return e.transport.ClipState(id)
}

// CurrentPosition reads the transport's running sample counter and
// derives seconds and beats (beats uses Options.Tempo, default 120 BPM).
func (e *Engine) CurrentPosition() Position {
	samples := e.transport.PositionSamples()
	seconds := float64(samples) / e.opts.SampleRate
	return Position{
		Samples: samples,
		Seconds: seconds,
		Beats:   seconds * e.opts.Tempo / 60,
	}
}

// GroupMeter returns group's last-computed peak/RMS levels.
func (e *Engine) GroupMeter(group uint8) (Meter, error) {
	peak, rms, err := e.transport.GroupMeter(group)
	if err != nil {
		return Meter{}, err
	}
	return Meter{Peak: peak, RMS: rms}, nil
}

// MasterMeter returns the master bus's last-computed peak/RMS levels.
func (e *Engine) MasterMeter() Meter {
	peak, rms := e.transport.MasterMeter()
	return Meter{Peak: peak, RMS: rms}
}

// DrainEvents invokes fn for every event the audio thread has emitted
// since the last drain. UI-thread only; call from the application's own
// event loop.
func (e *Engine) DrainEvents(fn func(queue.Event)) {
	e.transport.DrainEvents(fn)
}

// DroppedEvents reports how many events were discarded for lack of room
// in the EventQueue.
func (e *Engine) DroppedEvents() uint64 {
	return e.transport.DroppedEvents()
}

func (e *Engine) pushCommand(cmd queue.Command) error {
	if err := e.transport.PushCommand(cmd); err != nil {
		e.logger.Printf("[transport] command dropped kind=%d clip=%d err=%v", cmd.Kind, cmd.ClipID, err)
		return err
	}
	return nil
}
