package cueengine

// Options configures a new Engine. There is no file-backed persistence
// here — saving and loading Options is the hosting application's
// concern, the same boundary spec.md already draws around session
// serialization — but the shape (a plain struct with a Default
// constructor and field-level validation) follows the teacher's
// config.Config / config.Default pattern.
type Options struct {
	SampleRate      float64
	BufferSize      int
	MaxBufferFrames int // must be >= the largest frame count Process will ever see
	NumOutputs      int
	MaxVoices       int
	NumGroups       uint8
	GainSmoothingMs float64
	ReleaseMs       float64
	Tempo           float64 // beats per minute, used only to derive CurrentPosition().Beats
	Logger          Logger
}

// Default returns sensible defaults: 48 kHz, 512-sample buffers, 32
// voices, 4 groups, 10 ms smoothing and release, 120 BPM.
func Default() Options {
	return Options{
		SampleRate:      48000,
		BufferSize:      512,
		MaxBufferFrames: 4096,
		NumOutputs:      2,
		MaxVoices:       32,
		NumGroups:       4,
		GainSmoothingMs: 10,
		ReleaseMs:       10,
		Tempo:           120,
		Logger:          noopLogger{},
	}
}

func (o Options) validate() error {
	if o.SampleRate <= 0 {
		return newf(InvalidParameter, "new", "sample rate must be positive")
	}
	if o.BufferSize <= 0 || o.BufferSize > o.MaxBufferFrames {
		return newf(InvalidParameter, "new", "buffer size must be in (0, max_buffer_frames]")
	}
	if o.MaxVoices <= 0 {
		return newf(InvalidParameter, "new", "max_voices must be positive")
	}
	if o.NumGroups == 0 {
		return newf(InvalidParameter, "new", "num_groups must be positive")
	}
	return nil
}
