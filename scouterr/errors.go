// Package scouterr defines the typed error taxonomy shared across scout's
// core packages, so callers (CLI, watch processor) can branch on failure
// class without string matching.
package scouterr

import (
	"errors"
	"fmt"
)

// Code classifies a failure into one of a fixed set of categories.
type Code int

const (
	// Unknown is the zero value; Of returns it for errors not wrapped by
	// this package.
	Unknown Code = iota
	// InputInvalid marks a caller-supplied argument that is malformed or
	// out of range (bad path, bad weight, bad flag combination).
	InputInvalid
	// AssetMissing marks an absent required external resource: a model
	// file, the ffmpeg binary, a sidecar referenced by path.
	AssetMissing
	// BackendUnavailable marks an inference or tooling backend that
	// cannot run in the current process (ONNX Runtime not built in, no
	// execution provider, ffprobe not on PATH).
	BackendUnavailable
	// MediaUnreadable marks a file that matched a MediaKind but could not
	// be decoded (corrupt image, truncated video).
	MediaUnreadable
	// SidecarCorrupt marks an on-disk sidecar that failed to deserialize
	// or violated an invariant (wrong length embedding, hash mismatch).
	SidecarCorrupt
	// Cancelled marks an operation stopped by context cancellation.
	Cancelled
	// Fatal marks an unrecoverable internal error (unexpected
	// invariant violation, programmer error).
	Fatal
)

func (c Code) String() string {
	switch c {
	case InputInvalid:
		return "input_invalid"
	case AssetMissing:
		return "asset_missing"
	case BackendUnavailable:
		return "backend_unavailable"
	case MediaUnreadable:
		return "media_unreadable"
	case SidecarCorrupt:
		return "sidecar_corrupt"
	case Cancelled:
		return "cancelled"
	case Fatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// scoutError is a Code-tagged error wrapping an underlying cause.
type scoutError struct {
	code    Code
	message string
	cause   error
}

func (e *scoutError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

func (e *scoutError) Unwrap() error { return e.cause }

// New builds a Code-tagged error with no wrapped cause.
func New(code Code, message string) error {
	return &scoutError{code: code, message: message}
}

// Wrap attaches a Code and message to an existing error. Returns nil if err
// is nil, matching fmt.Errorf/errors.Join conventions for pass-through
// wrapping in defer/return sites.
func Wrap(code Code, err error, message string, args ...any) error {
	if err == nil {
		return nil
	}
	return &scoutError{code: code, message: fmt.Sprintf(message, args...), cause: err}
}

// Of reports the Code carried by err, or Unknown if err was not produced by
// this package (or is nil).
func Of(err error) Code {
	var se *scoutError
	if errors.As(err, &se) {
		return se.code
	}
	return Unknown
}

// Is reports whether err (or any error it wraps) carries the given Code.
func Is(err error, code Code) bool {
	return Of(err) == code
}
