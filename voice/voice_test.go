package voice

import (
	"testing"

	"github.com/chrislyons/cueengine/clip"
	"github.com/chrislyons/cueengine/queue"
)

func collectEvents() (func(queue.EventKind), *[]queue.EventKind) {
	var got []queue.EventKind
	return func(k queue.EventKind) { got = append(got, k) }, &got
}

func makeRecord(trimIn, trimOut int64, fadeIn, fadeOut uint32, loop bool) *clip.Record {
	return &clip.Record{
		ID:             1,
		SourceRef:      "test",
		TrimInSamples:  trimIn,
		TrimOutSamples: trimOut,
		FadeInSamples:  fadeIn,
		FadeOutSamples: fadeOut,
		FadeInCurve:    clip.Linear,
		FadeOutCurve:   clip.Linear,
		GainLinear:     1.0,
		Loop:           loop,
	}
}

func onesBuf(n int) []float32 {
	buf := make([]float32, n)
	for i := range buf {
		buf[i] = 1.0
	}
	return buf
}

func TestVoiceEmitsClipStartedOnce(t *testing.T) {
	v := New(48000, 5)
	rec := makeRecord(0, 10, 0, 0, false)
	v.Start(1, rec, 0, 480)

	emit, got := collectEvents()
	out := make([]float32, 4)
	v.Render(onesBuf(4), out, emit)
	out2 := make([]float32, 4)
	v.Render(onesBuf(4), out2, emit)

	count := 0
	for _, k := range *got {
		if k == queue.ClipStarted {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("expected exactly one ClipStarted, got %d", count)
	}
}

func TestVoiceFadeInRampsFromZero(t *testing.T) {
	v := New(48000, 5)
	rec := makeRecord(0, 100, 10, 0, false)
	v.Start(1, rec, 0, 480)

	emit, _ := collectEvents()
	out := make([]float32, 10)
	v.Render(onesBuf(10), out, emit)

	if out[0] != 0 {
		t.Fatalf("expected first sample of fade-in to be silent, got %f", out[0])
	}
	for i := 1; i < len(out); i++ {
		if out[i] < out[i-1] {
			t.Fatalf("fade-in gain should be monotonically non-decreasing, sample %d: %f < %f", i, out[i], out[i-1])
		}
	}
}

func TestVoiceNaturalFadeOutReachesZeroAtTrimOut(t *testing.T) {
	v := New(48000, 5)
	rec := makeRecord(0, 10, 0, 10, false)
	v.Start(1, rec, 0, 480)

	emit, got := collectEvents()
	out := make([]float32, 10)
	n := v.Render(onesBuf(10), out, emit)

	if n != 10 {
		t.Fatalf("expected 10 samples rendered before Done, got %d", n)
	}
	if v.State != Done {
		t.Fatalf("expected voice Done at trim_out, got state %d", v.State)
	}
	foundStopped := false
	for _, k := range *got {
		if k == queue.ClipStopped {
			foundStopped = true
		}
	}
	if !foundStopped {
		t.Fatal("expected ClipStopped event on natural end")
	}
}

func TestVoiceLoopsWithoutEmittingStopped(t *testing.T) {
	v := New(48000, 5)
	rec := makeRecord(0, 4, 0, 0, true)
	v.Start(1, rec, 0, 480)

	emit, got := collectEvents()
	out := make([]float32, 10)
	n := v.Render(onesBuf(10), out, emit)

	if n != 10 {
		t.Fatalf("looping voice should never report Done mid-buffer, got n=%d", n)
	}
	if v.State == Done {
		t.Fatal("looping voice must not go Done")
	}
	sawLoop := false
	for _, k := range *got {
		if k == queue.ClipLooped {
			sawLoop = true
		}
		if k == queue.ClipStopped {
			t.Fatal("looping voice must not emit ClipStopped")
		}
	}
	if !sawLoop {
		t.Fatal("expected at least one ClipLooped event")
	}
}

func TestVoiceRequestStopBeginsReleaseFade(t *testing.T) {
	v := New(48000, 5)
	rec := makeRecord(0, 1000, 0, 0, false)
	v.Start(1, rec, 0, 10) // 10-sample release for a short, deterministic test

	emit, got := collectEvents()
	out := make([]float32, 5)
	v.Render(onesBuf(5), out, emit) // enter Playing

	v.RequestStop()
	out2 := make([]float32, 20)
	n := v.Render(onesBuf(20), out2, emit)

	if n >= 20 {
		t.Fatalf("expected release fade to finish the voice within the buffer, n=%d", n)
	}
	if v.State != Done {
		t.Fatalf("expected Done after release fade completes, got %d", v.State)
	}
	if out2[n-1] != 0 {
		t.Fatalf("expected release fade to reach zero gain on its last sample, got %f", out2[n-1])
	}
	sawStopped := false
	for _, k := range *got {
		if k == queue.ClipStopped {
			sawStopped = true
		}
	}
	if !sawStopped {
		t.Fatal("expected ClipStopped after release fade")
	}
}

func TestVoiceRequestStopIsIdempotent(t *testing.T) {
	v := New(48000, 5)
	rec := makeRecord(0, 1000, 0, 0, false)
	v.Start(1, rec, 0, 100)

	emit, _ := collectEvents()
	out := make([]float32, 5)
	v.Render(onesBuf(5), out, emit)

	v.RequestStop()
	elapsedAfterFirst := v.releaseElapsed
	v.RequestStop() // should be a no-op: releaseActive is already true

	if v.releaseElapsed != elapsedAfterFirst {
		t.Fatal("second RequestStop must not reset release progress")
	}
}

func TestVoiceOverlapTakesShorterOfNaturalAndReleaseFade(t *testing.T) {
	v := New(48000, 5)
	// Long natural fade-out (20 samples) already in progress when a short
	// release (4 samples) is requested — the release should win because its
	// remaining gain is smaller.
	rec := makeRecord(0, 20, 0, 20, false)
	v.Start(1, rec, 0, 4)

	emit, _ := collectEvents()
	out := make([]float32, 1)
	v.Render(onesBuf(1), out, emit) // enters natural fade-out zone immediately, Stopping

	if v.State != Stopping {
		t.Fatalf("expected natural fade-out to move voice to Stopping, got %d", v.State)
	}

	v.RequestStop()
	out2 := make([]float32, 10)
	n := v.Render(onesBuf(10), out2, emit)

	if n > 4 {
		t.Fatalf("expected the 4-sample release to dominate the 20-sample natural fade, n=%d", n)
	}
}

func TestVoiceSeekClampsToTrimWindow(t *testing.T) {
	v := New(48000, 5)
	rec := makeRecord(10, 100, 0, 0, false)
	v.Start(1, rec, 0, 480)

	v.Seek(5)
	if v.ReadPosition != 10 {
		t.Fatalf("expected seek below trim_in to clamp to 10, got %d", v.ReadPosition)
	}
	v.Seek(500)
	if v.ReadPosition != 100 {
		t.Fatalf("expected seek above trim_out to clamp to 100, got %d", v.ReadPosition)
	}
}
