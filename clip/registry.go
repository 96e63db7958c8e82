package clip

import (
	"math"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/chrislyons/cueengine/status"
)

// SourceLookup resolves a clip's source_ref to the source's total duration
// in frames and its declared sample rate. It is the only thing Registry
// needs to know about Source implementations, keeping this package
// decoupled from the source package.
type SourceLookup interface {
	SourceFormat(ref string) (frames int64, sampleRate uint32, ok bool)
}

// Defaults bundles the fields a caller may supply at Register time; zero
// values fall back to sane engine defaults (full-duration trim, unity gain,
// no fades, no loop, group 0, bus 0).
type Defaults struct {
	TrimInSamples  int64
	TrimOutSamples int64 // 0 means "full source duration"
	FadeInSamples  uint32
	FadeOutSamples uint32
	FadeInCurve    FadeCurve
	FadeOutCurve   FadeCurve
	GainLinear     float32 // 0 means unity (1.0)
	Loop           bool
	GroupIndex     uint8 // zero value is group 0, not UnassignedGroup — callers wanting master-only routing must set clip.UnassignedGroup explicitly
	OutputBus      uint8
}

// entry is the registry's bookkeeping for one clip: an atomically published
// pointer to the clip's current Record.
type entry struct {
	current atomic.Pointer[Record]
}

// Registry owns every ClipRecord in the engine. All exported methods except
// Lookup are UI-thread only. The audio thread calls only Lookup (lock-free)
// when it starts a voice, and otherwise dereferences the *Record pointer it
// captured at Voice-start time.
//
// Go's garbage collector substitutes for the hazard/epoch-pointer scheme
// spec.md describes: an atomic.Pointer swap is never observed "torn" by a
// reader, and a Record stays reachable (and therefore alive) for exactly as
// long as some Voice still holds it, with no explicit retirement queue
// needed. See DESIGN.md for this Open Question resolution.
type Registry struct {
	mu         sync.RWMutex
	entries    map[ID]*entry
	snapshot   atomic.Pointer[map[ID]*entry] // read-only copy for the audio thread
	nextID     atomic.Uint64
	lookup     SourceLookup
	sampleRate uint32
	maxSize    int
}

// NewRegistry creates an empty Registry backed by lookup for source
// validation. sampleRate is the engine's configured rate: Register rejects
// any source whose declared rate differs, per spec.md's source/engine
// rate-mismatch resolution (see DESIGN.md). maxSize bounds the number of
// simultaneously registered clips (0 means unbounded).
func NewRegistry(lookup SourceLookup, sampleRate uint32, maxSize int) *Registry {
	r := &Registry{
		entries:    make(map[ID]*entry),
		lookup:     lookup,
		sampleRate: sampleRate,
		maxSize:    maxSize,
	}
	empty := make(map[ID]*entry)
	r.snapshot.Store(&empty)
	return r
}

// publishSnapshot republishes an immutable copy of r.entries for
// lock-free reads. Called with r.mu held, after entries changes shape
// (insert/delete — not needed for in-place Record swaps, which already
// go through the per-entry atomic.Pointer).
func (r *Registry) publishSnapshot() {
	cp := make(map[ID]*entry, len(r.entries))
	for k, v := range r.entries {
		cp[k] = v
	}
	r.snapshot.Store(&cp)
}

// Lookup resolves id to its current Record without ever taking a lock,
// safe to call from the audio thread: Go maps are safe for concurrent
// reads as long as nothing writes to that exact map value, and
// publishSnapshot only ever replaces the pointer, never mutates the map a
// reader might be mid-range over.
func (r *Registry) Lookup(id ID) (*Record, bool) {
	m := *r.snapshot.Load()
	e, ok := m[id]
	if !ok {
		return nil, false
	}
	return e.current.Load(), true
}

// Register validates defaults against the resolved source and publishes a
// new Record, returning its freshly assigned ID.
func (r *Registry) Register(sourceRef string, d Defaults) (ID, error) {
	duration, sourceSampleRate, ok := r.lookup.SourceFormat(sourceRef)
	if !ok {
		return Invalid, status.New(status.ClipNotRegistered, "register", nil)
	}
	if r.sampleRate != 0 && sourceSampleRate != r.sampleRate {
		return Invalid, status.New(status.InvalidParameter, "register", nil)
	}

	rec := &Record{
		SourceRef:      sourceRef,
		TrimInSamples:  d.TrimInSamples,
		TrimOutSamples: d.TrimOutSamples,
		FadeInSamples:  d.FadeInSamples,
		FadeOutSamples: d.FadeOutSamples,
		FadeInCurve:    d.FadeInCurve,
		FadeOutCurve:   d.FadeOutCurve,
		GainLinear:     d.GainLinear,
		Loop:           d.Loop,
		GroupIndex:     d.GroupIndex,
		OutputBus:      d.OutputBus,
	}
	if rec.TrimOutSamples == 0 {
		rec.TrimOutSamples = duration
	}
	if rec.GainLinear == 0 {
		rec.GainLinear = 1.0
	}

	if err := validateTrim(rec.TrimInSamples, rec.TrimOutSamples, duration); err != nil {
		return Invalid, err
	}
	if err := validateFades(rec.FadeInSamples, rec.FadeOutSamples, rec.TrimInSamples, rec.TrimOutSamples); err != nil {
		return Invalid, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.maxSize > 0 && len(r.entries) >= r.maxSize {
		return Invalid, status.New(status.InvalidParameter, "register", nil)
	}

	id := ID(r.nextID.Add(1))
	rec.ID = id
	e := &entry{}
	e.current.Store(rec)
	r.entries[id] = e
	r.publishSnapshot()
	return id, nil
}

// Unregister drops the clip from the registry. Any Voice already playing
// the clip keeps its captured Record alive until it finishes naturally.
func (r *Registry) Unregister(id ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[id]; !ok {
		return status.New(status.InvalidHandle, "unregister", nil)
	}
	delete(r.entries, id)
	r.publishSnapshot()
	return nil
}

// Get returns the current Record snapshot for id. It takes the registry's
// read lock, so it is for the UI thread; the audio thread uses Lookup.
func (r *Registry) Get(id ID) (*Record, bool) {
	r.mu.RLock()
	e, ok := r.entries[id]
	r.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return e.current.Load(), true
}

// UpdateTrim derives a new Record from the current snapshot with the trim
// window replaced, validates it, and publishes it.
func (r *Registry) UpdateTrim(id ID, in, out int64) error {
	return r.update(id, func(rec *Record) error {
		duration, _, _ := r.lookup.SourceFormat(rec.SourceRef)
		if err := validateTrim(in, out, duration); err != nil {
			return err
		}
		if err := validateFades(rec.FadeInSamples, rec.FadeOutSamples, in, out); err != nil {
			return err
		}
		rec.TrimInSamples = in
		rec.TrimOutSamples = out
		return nil
	})
}

// UpdateFades derives a new Record with fade durations/curves replaced.
func (r *Registry) UpdateFades(id ID, inSamples, outSamples uint32, inCurve, outCurve FadeCurve) error {
	return r.update(id, func(rec *Record) error {
		if err := validateFades(inSamples, outSamples, rec.TrimInSamples, rec.TrimOutSamples); err != nil {
			return err
		}
		rec.FadeInSamples = inSamples
		rec.FadeOutSamples = outSamples
		rec.FadeInCurve = inCurve
		rec.FadeOutCurve = outCurve
		return nil
	})
}

// UpdateGainDB converts db to a linear multiplier and publishes it.
// The published Record only seeds new voices; already-playing voices apply
// gain from their own GainSmoother, which this method does not touch
// (Engine.UpdateGainDB retargets it with an UpdateGain command).
func (r *Registry) UpdateGainDB(id ID, db float32) error {
	if math.IsNaN(float64(db)) || math.IsInf(float64(db), 0) {
		return status.New(status.InvalidParameter, "update_gain_db", nil)
	}
	linear := float32(math.Pow(10, float64(db)/20))
	return r.update(id, func(rec *Record) error {
		rec.GainLinear = linear
		return nil
	})
}

// GainLinear returns the clip's currently published linear gain, or false
// if the clip is not registered.
func (r *Registry) GainLinear(id ID) (float32, bool) {
	rec, ok := r.Get(id)
	if !ok {
		return 0, false
	}
	return rec.GainLinear, true
}

// SetLoop publishes a Record with the loop flag replaced.
func (r *Registry) SetLoop(id ID, loop bool) error {
	return r.update(id, func(rec *Record) error {
		rec.Loop = loop
		return nil
	})
}

// AssignGroup publishes a Record with the group assignment replaced.
// group must be UnassignedGroup or a value in [0, numGroups).
func (r *Registry) AssignGroup(id ID, group uint8, numGroups uint8) error {
	if group != UnassignedGroup && group >= numGroups {
		return status.New(status.InvalidParameter, "assign_group", nil)
	}
	return r.update(id, func(rec *Record) error {
		rec.GroupIndex = group
		return nil
	})
}

// SetOutputBus publishes a Record with the output bus replaced.
func (r *Registry) SetOutputBus(id ID, bus uint8) error {
	return r.update(id, func(rec *Record) error {
		rec.OutputBus = bus
		return nil
	})
}

// AddCuePoint inserts a cue point, clamps its position to the source's
// frame range, and returns its index within the sorted cue list after
// insertion.
func (r *Registry) AddCuePoint(id ID, pos int64, name string, color uint32) (int, error) {
	var index int
	err := r.update(id, func(rec *Record) error {
		duration, _, _ := r.lookup.SourceFormat(rec.SourceRef)
		if pos < 0 {
			pos = 0
		}
		if pos > duration {
			pos = duration
		}
		rec.CuePoints = append(rec.CuePoints, CuePoint{Position: pos, Name: name, Color: color})
		sort.Slice(rec.CuePoints, func(i, j int) bool {
			return rec.CuePoints[i].Position < rec.CuePoints[j].Position
		})
		for i, cp := range rec.CuePoints {
			if cp.Position == pos && cp.Name == name {
				index = i
				break
			}
		}
		return nil
	})
	return index, err
}

// RemoveCuePoint deletes the cue point at index.
func (r *Registry) RemoveCuePoint(id ID, index int) error {
	return r.update(id, func(rec *Record) error {
		if index < 0 || index >= len(rec.CuePoints) {
			return status.New(status.InvalidParameter, "remove_cue_point", nil)
		}
		rec.CuePoints = append(rec.CuePoints[:index], rec.CuePoints[index+1:]...)
		return nil
	})
}

// CuePointPosition returns the source-frame position of the cue point at
// index, for callers implementing seek_to_cue_point as a Seek command.
func (r *Registry) CuePointPosition(id ID, index int) (int64, error) {
	rec, ok := r.Get(id)
	if !ok {
		return 0, status.New(status.InvalidHandle, "seek_to_cue_point", nil)
	}
	if index < 0 || index >= len(rec.CuePoints) {
		return 0, status.New(status.InvalidParameter, "seek_to_cue_point", nil)
	}
	return rec.CuePoints[index].Position, nil
}

// update loads the current Record for id, applies mutate to a clone, and
// publishes the clone if mutate succeeds.
func (r *Registry) update(id ID, mutate func(*Record) error) error {
	r.mu.RLock()
	e, ok := r.entries[id]
	r.mu.RUnlock()
	if !ok {
		return status.New(status.InvalidHandle, "update", nil)
	}

	for {
		old := e.current.Load()
		next := old.clone()
		if err := mutate(next); err != nil {
			return err
		}
		next.version = old.version + 1
		if e.current.CompareAndSwap(old, next) {
			return nil
		}
		// Another UI-thread update raced us; retry against the new snapshot.
	}
}

func validateTrim(in, out, duration int64) error {
	if in < 0 || in >= out || out > duration {
		return status.New(status.InvalidTrimPoints, "validate_trim", nil)
	}
	return nil
}

func validateFades(inSamples, outSamples uint32, trimIn, trimOut int64) error {
	span := trimOut - trimIn
	if span < 0 {
		return status.New(status.InvalidFadeDuration, "validate_fades", nil)
	}
	if int64(inSamples)+int64(outSamples) > span {
		return status.New(status.InvalidFadeDuration, "validate_fades", nil)
	}
	return nil
}
