package source

import (
	"encoding/binary"
	"fmt"
	"io"
)

// LoadWAV reads a mono 16-bit PCM WAV file from r and returns a Source
// backed by its fully-decoded, normalized float32 samples. Adapted from
// the teacher's test-fixture WAV loader (client/testuser.go's loadWAV):
// same manual RIFF/fmt/data chunk walk, generalized from a fixed expected
// sample rate to whatever the file declares, with the mismatch check
// deferred to clip registration rather than load time.
func LoadWAV(r io.Reader) (*MemorySource, error) {
	var riff [4]byte
	if _, err := io.ReadFull(r, riff[:]); err != nil {
		return nil, fmt.Errorf("read RIFF: %w", err)
	}
	if string(riff[:]) != "RIFF" {
		return nil, fmt.Errorf("not a RIFF file")
	}
	var chunkSize uint32
	if err := binary.Read(r, binary.LittleEndian, &chunkSize); err != nil {
		return nil, fmt.Errorf("read RIFF size: %w", err)
	}
	var wave [4]byte
	if _, err := io.ReadFull(r, wave[:]); err != nil {
		return nil, fmt.Errorf("read WAVE: %w", err)
	}
	if string(wave[:]) != "WAVE" {
		return nil, fmt.Errorf("not a WAVE file")
	}

	var (
		audioFormat   uint16
		numChannels   uint16
		sampleRateHz  uint32
		bitsPerSample uint16
		fmtFound      bool
		pcm           []int16
	)

	for {
		var id [4]byte
		if _, err := io.ReadFull(r, id[:]); err != nil {
			break
		}
		var size uint32
		if err := binary.Read(r, binary.LittleEndian, &size); err != nil {
			break
		}

		switch string(id[:]) {
		case "fmt ":
			binary.Read(r, binary.LittleEndian, &audioFormat)
			binary.Read(r, binary.LittleEndian, &numChannels)
			binary.Read(r, binary.LittleEndian, &sampleRateHz)
			var byteRate uint32
			binary.Read(r, binary.LittleEndian, &byteRate)
			var blockAlign uint16
			binary.Read(r, binary.LittleEndian, &blockAlign)
			binary.Read(r, binary.LittleEndian, &bitsPerSample)
			if size > 16 {
				io.CopyN(io.Discard, r, int64(size-16))
			}
			if size%2 != 0 {
				io.CopyN(io.Discard, r, 1)
			}
			fmtFound = true

		case "data":
			if !fmtFound {
				return nil, fmt.Errorf("data chunk before fmt chunk")
			}
			if audioFormat != 1 {
				return nil, fmt.Errorf("WAV must be PCM (format 1, got %d)", audioFormat)
			}
			if numChannels != 1 {
				return nil, fmt.Errorf("WAV must be mono (got %d channels)", numChannels)
			}
			if bitsPerSample != 16 {
				return nil, fmt.Errorf("WAV must be 16-bit (got %d-bit)", bitsPerSample)
			}
			pcm = make([]int16, size/2)
			if err := binary.Read(r, binary.LittleEndian, pcm); err != nil {
				return nil, fmt.Errorf("read samples: %w", err)
			}
			if size%2 != 0 {
				io.CopyN(io.Discard, r, 1)
			}

		default:
			skip := int64(size)
			if size%2 != 0 {
				skip++
			}
			io.CopyN(io.Discard, r, skip)
		}

		if pcm != nil {
			break
		}
	}

	if pcm == nil {
		return nil, fmt.Errorf("no data chunk found")
	}

	out := make([]float32, len(pcm))
	for i, s := range pcm {
		out[i] = float32(s) / 32768.0
	}
	return NewMemorySource(int(sampleRateHz), out), nil
}
