package inspect

import "errors"

// Common error types for the statistics engine
var (
	// ErrCompressionSettingsMismatch is returned when two column ranges of
	// the same dataset carry different compression settings. Datasets are
	// written with a single setting; a mismatch means the file is
	// structurally inconsistent.
	ErrCompressionSettingsMismatch = errors.New("compression settings differ between column ranges")

	ErrColumnNotFound = errors.New("no column with this physical id present")
	ErrFieldNotFound  = errors.New("no field with this id or name present")
)
