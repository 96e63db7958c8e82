package clip

import "testing"

func TestFadeCurveClamps(t *testing.T) {
	if Linear.Apply(-1) != 0 {
		t.Fatal("expected clamp to 0 below range")
	}
	if Linear.Apply(2) != 1 {
		t.Fatal("expected clamp to 1 above range")
	}
}

func TestFadeCurveShapes(t *testing.T) {
	if got := Linear.Apply(0.5); got != 0.5 {
		t.Fatalf("linear(0.5) = %f, want 0.5", got)
	}
	if got := Exponential.Apply(0.5); got != 0.25 {
		t.Fatalf("exponential(0.5) = %f, want 0.25", got)
	}
	// EqualPower(0.5) = sin(pi/4) ~= 0.70710678
	got := EqualPower.Apply(0.5)
	if got < 0.706 || got > 0.708 {
		t.Fatalf("equal-power(0.5) = %f, want ~0.7071", got)
	}
}

func TestRecordDuration(t *testing.T) {
	r := &Record{TrimInSamples: 100, TrimOutSamples: 500}
	if r.Duration() != 400 {
		t.Fatalf("expected duration 400, got %d", r.Duration())
	}
}

func TestRecordCloneIsIndependent(t *testing.T) {
	r := &Record{CuePoints: []CuePoint{{Position: 10, Name: "a"}}}
	c := r.clone()
	c.CuePoints[0].Name = "b"
	if r.CuePoints[0].Name != "a" {
		t.Fatal("mutating the clone's cue points must not affect the original")
	}
}
