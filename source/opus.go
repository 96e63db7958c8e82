package source

import (
	"fmt"

	"gopkg.in/hraban/opus.v2"
)

// maxOpusFrameSamples bounds a single decode call's scratch buffer; Opus
// frames are at most 120 ms, which at 48 kHz is 5760 samples.
const maxOpusFrameSamples = 5760

// DecodeOpusFrames decodes a sequence of independently-framed Opus packets
// (as produced by the teacher's own encoder path) into a single
// MemorySource. Exercises gopkg.in/hraban/opus.v2, the codec the teacher
// uses for network transport; here it decodes a whole clip once at
// registration time rather than streaming packet-by-packet, since the core
// never touches compressed audio on the hot path (spec.md §4.5: the
// Source's own concern).
func DecodeOpusFrames(sampleRate, channels int, packets [][]byte) (*MemorySource, error) {
	dec, err := opus.NewDecoder(sampleRate, channels)
	if err != nil {
		return nil, fmt.Errorf("new opus decoder: %w", err)
	}

	scratch := make([]int16, maxOpusFrameSamples*channels)
	var pcm []float32

	for i, pkt := range packets {
		n, err := dec.Decode(pkt, scratch)
		if err != nil {
			return nil, fmt.Errorf("decode opus packet %d: %w", i, err)
		}
		for s := 0; s < n*channels; s += channels {
			var sum float32
			for c := 0; c < channels; c++ {
				sum += float32(scratch[s+c]) / 32768.0
			}
			pcm = append(pcm, sum/float32(channels))
		}
	}

	return NewMemorySource(sampleRate, pcm), nil
}
