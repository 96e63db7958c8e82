package cueengine

import (
	"errors"
	"fmt"

	"github.com/chrislyons/cueengine/status"
)

// Error is the engine's public error type — the same status.Error the
// boundary packages (clip, queue, transport) already return. Re-exported
// here under the engine's own name rather than duplicated, since a second
// struct with an identical Error()/Unwrap() shape would just be the same
// plain fmt.Errorf-wrap style the teacher uses, with no behavioral
// difference (see DESIGN.md).
type Error = status.Error

// Error codes, re-exported for callers who only import the root package.
const (
	OK                  = status.OK
	InvalidHandle       = status.InvalidHandle
	InvalidParameter    = status.InvalidParameter
	NotReady            = status.NotReady
	NotSupported        = status.NotSupported
	NotInitialized      = status.NotInitialized
	InvalidTrimPoints   = status.InvalidTrimPoints
	InvalidFadeDuration = status.InvalidFadeDuration
	ClipNotRegistered   = status.ClipNotRegistered
	NoVoiceAvailable    = status.NoVoiceAvailable
	QueueFull           = status.QueueFull
	InternalError       = status.InternalError
)

func newf(code status.Code, op, format string, args ...any) *Error {
	return status.New(code, op, errors.New(fmt.Sprintf(format, args...)))
}
