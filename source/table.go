package source

import "sync/atomic"

// Table resolves a clip's source_ref string to a concrete Source. It is
// the UI-thread registration point for Sources and the audio thread's
// lock-free lookup path, using the same copy-on-write snapshot technique
// as clip.Registry's audio-thread lookup.
type Table struct {
	snapshot atomic.Pointer[map[string]Source]
}

// NewTable returns an empty Table.
func NewTable() *Table {
	t := &Table{}
	empty := make(map[string]Source)
	t.snapshot.Store(&empty)
	return t
}

// Register associates ref with src. UI-thread only.
func (t *Table) Register(ref string, src Source) {
	old := *t.snapshot.Load()
	cp := make(map[string]Source, len(old)+1)
	for k, v := range old {
		cp[k] = v
	}
	cp[ref] = src
	t.snapshot.Store(&cp)
}

// Unregister removes ref. UI-thread only.
func (t *Table) Unregister(ref string) {
	old := *t.snapshot.Load()
	if _, ok := old[ref]; !ok {
		return
	}
	cp := make(map[string]Source, len(old))
	for k, v := range old {
		if k != ref {
			cp[k] = v
		}
	}
	t.snapshot.Store(&cp)
}

// Resolve looks up ref. Lock-free; safe on the audio thread.
func (t *Table) Resolve(ref string) (Source, bool) {
	m := *t.snapshot.Load()
	src, ok := m[ref]
	return src, ok
}

// SourceFormat implements clip.SourceLookup.
func (t *Table) SourceFormat(ref string) (frames int64, sampleRate uint32, ok bool) {
	src, ok := t.Resolve(ref)
	if !ok {
		return 0, 0, false
	}
	format := src.Metadata()
	return format.DurationFrame, uint32(format.SampleRate), true
}
