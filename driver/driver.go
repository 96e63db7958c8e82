// Package driver defines the platform audio device contract the engine's
// AudioCallback adapter bridges to, plus a concrete PortAudio-backed
// implementation.
package driver

import "github.com/chrislyons/cueengine/status"

// Config configures a Driver at Initialize time.
type Config struct {
	SampleRate  float64
	BufferSize  int
	NumInputs   int
	NumOutputs  int
	DeviceID    int // -1 selects the platform default output device
	MaxBuffer   int // hard cap; Initialize rejects BufferSize above this
}

// Callback is invoked once per hardware buffer. Output is guaranteed
// non-null and sized BufferSize; the callback must not retain references
// to either slice past the call, per spec.md §4.9.
type Callback func(input, output []float32, frames int)

// Driver is the capability set a platform audio backend must implement.
// Concrete drivers (PortAudio here) are known at engine-init time; there
// is no dynamic plugin loading in the core (spec.md §9).
type Driver interface {
	Initialize(cfg Config) error
	Start(cb Callback) error
	Stop() error
	IsRunning() bool
	LatencySamples() int64
}

// validateConfig enforces the one rule every Driver implementation must
// apply before opening a device: BufferSize must fit the engine's
// pre-allocated scratch space.
func validateConfig(cfg Config) error {
	if cfg.MaxBuffer > 0 && cfg.BufferSize > cfg.MaxBuffer {
		return status.New(status.InvalidParameter, "initialize", nil)
	}
	if cfg.SampleRate <= 0 || cfg.BufferSize <= 0 {
		return status.New(status.InvalidParameter, "initialize", nil)
	}
	return nil
}
