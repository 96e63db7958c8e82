package clip

import (
	"errors"
	"testing"

	"github.com/chrislyons/cueengine/status"
)

type fakeLookup struct {
	durations   map[string]int64
	sampleRates map[string]uint32 // missing entries default to 48000
}

func (f fakeLookup) SourceFormat(ref string) (int64, uint32, bool) {
	d, ok := f.durations[ref]
	if !ok {
		return 0, 0, false
	}
	rate, ok := f.sampleRates[ref]
	if !ok {
		rate = 48000
	}
	return d, rate, true
}

func newTestRegistry() *Registry {
	return NewRegistry(fakeLookup{durations: map[string]int64{"a": 48000, "b": 1000}}, 48000, 0)
}

func TestRegisterDefaultsFillTrimAndGain(t *testing.T) {
	r := newTestRegistry()
	id, err := r.Register("a", Defaults{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rec, ok := r.Get(id)
	if !ok {
		t.Fatal("expected registered clip to be retrievable")
	}
	if rec.TrimOutSamples != 48000 {
		t.Fatalf("expected default trim_out to be full duration, got %d", rec.TrimOutSamples)
	}
	if rec.GainLinear != 1.0 {
		t.Fatalf("expected default gain 1.0, got %f", rec.GainLinear)
	}
}

func TestRegisterRejectsUnknownSource(t *testing.T) {
	r := newTestRegistry()
	_, err := r.Register("missing", Defaults{})
	var se *status.Error
	if !errors.As(err, &se) || se.Code != status.ClipNotRegistered {
		t.Fatalf("expected ClipNotRegistered, got %v", err)
	}
}

func TestRegisterRejectsInvalidTrim(t *testing.T) {
	r := newTestRegistry()
	_, err := r.Register("a", Defaults{TrimInSamples: 100, TrimOutSamples: 50})
	var se *status.Error
	if !errors.As(err, &se) || se.Code != status.InvalidTrimPoints {
		t.Fatalf("expected InvalidTrimPoints, got %v", err)
	}
}

func TestRegisterRejectsFadesExceedingDuration(t *testing.T) {
	r := newTestRegistry()
	_, err := r.Register("b", Defaults{
		TrimInSamples: 0, TrimOutSamples: 1000,
		FadeInSamples: 600, FadeOutSamples: 600,
	})
	var se *status.Error
	if !errors.As(err, &se) || se.Code != status.InvalidFadeDuration {
		t.Fatalf("expected InvalidFadeDuration, got %v", err)
	}
}

func TestUpdateGainDBConvertsToLinear(t *testing.T) {
	r := newTestRegistry()
	id, _ := r.Register("a", Defaults{})
	if err := r.UpdateGainDB(id, -6); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	linear, _ := r.GainLinear(id)
	if linear < 0.5 || linear > 0.502 {
		t.Fatalf("expected -6dB ~= 0.501 linear, got %f", linear)
	}
}

func TestUpdateGainDBRejectsNonFinite(t *testing.T) {
	r := newTestRegistry()
	id, _ := r.Register("a", Defaults{})
	var nan float32 = float32(0)
	nan = nan / nan
	if err := r.UpdateGainDB(id, nan); err == nil {
		t.Fatal("expected error for NaN dB value")
	}
}

func TestAssignGroupValidatesRange(t *testing.T) {
	r := newTestRegistry()
	id, _ := r.Register("a", Defaults{})
	if err := r.AssignGroup(id, 3, 2); err == nil {
		t.Fatal("expected error assigning out-of-range group")
	}
	if err := r.AssignGroup(id, UnassignedGroup, 2); err != nil {
		t.Fatalf("unexpected error assigning sentinel group: %v", err)
	}
	if err := r.AssignGroup(id, 1, 2); err != nil {
		t.Fatalf("unexpected error assigning in-range group: %v", err)
	}
}

func TestAddCuePointClampsAndSorts(t *testing.T) {
	r := newTestRegistry()
	id, _ := r.Register("b", Defaults{})
	if _, err := r.AddCuePoint(id, 5000, "late", 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	idx, err := r.AddCuePoint(id, 10, "early", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if idx != 0 {
		t.Fatalf("expected the earlier cue point to sort first, got index %d", idx)
	}
	rec, _ := r.Get(id)
	if rec.CuePoints[0].Position != 10 {
		t.Fatalf("expected clamped/sorted position 10, got %d", rec.CuePoints[0].Position)
	}
	if rec.CuePoints[1].Position != 1000 {
		t.Fatalf("expected the out-of-range cue point clamped to source duration 1000, got %d", rec.CuePoints[1].Position)
	}
}

func TestUnregisterThenGetFails(t *testing.T) {
	r := newTestRegistry()
	id, _ := r.Register("a", Defaults{})
	if err := r.Unregister(id); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := r.Get(id); ok {
		t.Fatal("expected Get to fail after Unregister")
	}
	if _, ok := r.Lookup(id); ok {
		t.Fatal("expected Lookup to fail after Unregister")
	}
}

func TestLookupMatchesGetAfterRegister(t *testing.T) {
	r := newTestRegistry()
	id, _ := r.Register("a", Defaults{})
	got, ok := r.Get(id)
	if !ok {
		t.Fatal("expected Get to find the registered clip")
	}
	looked, ok := r.Lookup(id)
	if !ok {
		t.Fatal("expected Lookup to find the registered clip")
	}
	if got != looked {
		t.Fatal("expected Get and Lookup to observe the same Record snapshot")
	}
}

func TestMaxSizeEnforced(t *testing.T) {
	r := NewRegistry(fakeLookup{durations: map[string]int64{"a": 100}}, 48000, 1)
	if _, err := r.Register("a", Defaults{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := r.Register("a", Defaults{}); err == nil {
		t.Fatal("expected second registration to fail once maxSize is reached")
	}
}

func TestRegisterRejectsSampleRateMismatch(t *testing.T) {
	r := NewRegistry(fakeLookup{
		durations:   map[string]int64{"a": 48000},
		sampleRates: map[string]uint32{"a": 44100},
	}, 48000, 0)
	_, err := r.Register("a", Defaults{})
	var se *status.Error
	if !errors.As(err, &se) || se.Code != status.InvalidParameter {
		t.Fatalf("expected InvalidParameter for sample-rate mismatch, got %v", err)
	}
}

func TestRegisterAcceptsMatchingSampleRate(t *testing.T) {
	r := NewRegistry(fakeLookup{
		durations:   map[string]int64{"a": 48000},
		sampleRates: map[string]uint32{"a": 48000},
	}, 48000, 0)
	if _, err := r.Register("a", Defaults{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
