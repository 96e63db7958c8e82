package source

// MemorySource is a fully in-memory Source backed by a flat float32
// buffer, used by unit tests and by any asset small enough to decode
// entirely up front.
type MemorySource struct {
	format Format
	data   []float32
}

// NewMemorySource wraps data (mono float32 PCM at sampleRate) as a Source.
func NewMemorySource(sampleRate int, data []float32) *MemorySource {
	return &MemorySource{
		format: Format{
			Channels:      1,
			SampleRate:    sampleRate,
			DurationFrame: int64(len(data)),
		},
		data: data,
	}
}

func (m *MemorySource) Metadata() Format { return m.format }

func (m *MemorySource) ReadInto(dest []float32, startFrame int64) int {
	if startFrame < 0 || startFrame >= int64(len(m.data)) {
		return 0
	}
	n := copy(dest, m.data[startFrame:])
	return n
}
