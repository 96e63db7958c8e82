// Package tone generates synthetic test signals: a linear-enveloped sine
// tone, adapted from the teacher's UI notification-sound generator
// (client/notification.go's generateSineTone). The envelope math here is
// the same linear ramp-in/out the clip package's FadeCurve.Linear
// implements, so it doubles as a hand-checkable fixture for fade-curve
// tests.
package tone

import "math"

// Sine returns durationMs worth of a freq Hz sine wave at sampleRate,
// amplitude-scaled by amplitude, with a linear fadeMs ramp at both ends.
func Sine(sampleRate int, freq float64, durationMs int, fadeMs int, amplitude float32) []float32 {
	total := sampleRate * durationMs / 1000
	raw := make([]float32, total)

	fadeLen := sampleRate * fadeMs / 1000
	if fadeLen > total/2 {
		fadeLen = total / 2
	}

	for i := range raw {
		t := float64(i) / float64(sampleRate)
		s := float32(math.Sin(2 * math.Pi * freq * t))

		env := float32(1.0)
		if fadeLen > 0 {
			if i < fadeLen {
				env = float32(i) / float32(fadeLen)
			} else if i >= total-fadeLen {
				env = float32(total-1-i) / float32(fadeLen)
			}
		}
		raw[i] = s * env * amplitude
	}
	return raw
}

// Constant returns n samples of value v, used as a simple fixture for
// fade-envelope tests where a pure sine would complicate the arithmetic.
func Constant(n int, v float32) []float32 {
	buf := make([]float32, n)
	for i := range buf {
		buf[i] = v
	}
	return buf
}

// Ramp returns n samples of i/n, used as the identity fixture for loop
// boundary tests.
func Ramp(n int) []float32 {
	buf := make([]float32, n)
	for i := range buf {
		buf[i] = float32(i) / float32(n)
	}
	return buf
}
