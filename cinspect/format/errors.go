package format

import "errors"

// Common error types for container file access
var (
	ErrBadMagic           = errors.New("not a container file (bad magic)")
	ErrUnsupportedVersion = errors.New("unsupported container format version")
	ErrDatasetNotFound    = errors.New("dataset not found in container file")
	ErrUnsupportedCodec   = errors.New("unsupported envelope codec")
	ErrCorruptEnvelope    = errors.New("corrupt descriptor envelope")
)
