// Package status defines the engine's stable numeric error codes and the
// error type that carries them.
//
// The teacher repo never reached for a categorized-error framework for
// comparable audio code — errors there are plain fmt.Errorf wraps around
// sentinel values (see client/audio.go's use of the stdlib errors package).
// This package follows the same shape: a small struct that satisfies the
// error interface and carries a stable Code so callers across language
// bindings can switch on an integer instead of parsing strings.
package status

import "fmt"

// Code is a stable numeric error code, safe to expose across FFI/bindings.
type Code int

const (
	OK                   Code = 0
	InvalidHandle        Code = 1
	InvalidParameter     Code = 2
	NotReady             Code = 3
	NotSupported         Code = 4
	NotInitialized       Code = 5
	InvalidTrimPoints    Code = 18
	InvalidFadeDuration  Code = 19
	ClipNotRegistered    Code = 20
	NoVoiceAvailable     Code = 21
	QueueFull            Code = 22
	InternalError        Code = 255
)

var names = map[Code]string{
	OK:                  "ok",
	InvalidHandle:       "invalid_handle",
	InvalidParameter:    "invalid_parameter",
	NotReady:            "not_ready",
	NotSupported:        "not_supported",
	NotInitialized:      "not_initialized",
	InvalidTrimPoints:   "invalid_trim_points",
	InvalidFadeDuration: "invalid_fade_duration",
	ClipNotRegistered:   "clip_not_registered",
	NoVoiceAvailable:    "no_voice_available",
	QueueFull:           "queue_full",
	InternalError:       "internal_error",
}

// String returns the snake_case name of the code, or "unknown" if unmapped.
func (c Code) String() string {
	if n, ok := names[c]; ok {
		return n
	}
	return "unknown"
}

// Error wraps a Code with the operation that produced it and, optionally, an
// underlying cause.
type Error struct {
	Code Code
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Code, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Code)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an *Error for op with the given code and optional cause.
func New(code Code, op string, cause error) *Error {
	return &Error{Code: code, Op: op, Err: cause}
}
