package recorder

import "errors"

var (
	// ErrBadMagic indicates a file that is not a session recording
	ErrBadMagic = errors.New("not a skeletrack recording")

	// ErrUnsupportedVersion indicates a recording written by a newer format
	ErrUnsupportedVersion = errors.New("unsupported recording version")

	// ErrClosed is returned when writing to a closed recorder
	ErrClosed = errors.New("recorder is closed")
)
