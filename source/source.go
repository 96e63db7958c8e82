// Package source defines the Source contract the transport core pulls
// decoded PCM from, plus a handful of concrete implementations
// (in-memory, WAV, Opus) exercising that contract.
package source

// Format describes a Source's fixed audio properties. SampleRate must
// match the engine's configured rate — spec.md leaves source/engine rate
// mismatch an open question and this repo resolves it by rejecting a
// mismatched Source at registration rather than adding an implicit SRC
// stage on the audio thread (see DESIGN.md).
type Format struct {
	Channels      int
	SampleRate    int
	DurationFrame int64
}

// Source is a seekable, pull-only PCM provider. Implementations own their
// own background streaming, if any; the core only ever calls ReadInto.
type Source interface {
	// Metadata returns the source's fixed format.
	Metadata() Format

	// ReadInto fills dest with up to len(dest) mono-summed float32 samples
	// starting at startFrame, returning the number of samples actually
	// written. A short read (framesRead < len(dest)) is not an error — the
	// caller zero-fills the remainder and reports a BufferUnderrun event.
	// Must never block or allocate when called from the audio thread.
	ReadInto(dest []float32, startFrame int64) (framesRead int)
}
