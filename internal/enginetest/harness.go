// Package enginetest provides an offline render harness for property
// tests that need deterministic, device-free playback: no PortAudio
// stream, no wall clock, just repeated Transport.Process calls. Adapted
// from the teacher's loopback test mode (client/audio.go's
// StartTest/StopTest, which re-run the same device path with a test flag
// set) — generalized here to skip the device entirely, since the core
// under test has no device dependency at all.
package enginetest

// Processor is the minimal Transport surface the harness drives.
type Processor interface {
	Process(out []float32, frames int)
}

// RenderOffline processes totalFrames samples through proc in a sequence
// of chunkSize buffers (the final chunk may be shorter) and returns the
// concatenated master-bus output. Used for spec.md §8 property 3:
// processing two buffers of size n must match one buffer of size 2n,
// modulo smoothing-ramp continuity.
func RenderOffline(proc Processor, totalFrames, chunkSize int) []float32 {
	out := make([]float32, totalFrames)
	if chunkSize <= 0 {
		chunkSize = totalFrames
	}
	for offset := 0; offset < totalFrames; offset += chunkSize {
		n := chunkSize
		if offset+n > totalFrames {
			n = totalFrames - offset
		}
		proc.Process(out[offset:offset+n], n)
	}
	return out
}
