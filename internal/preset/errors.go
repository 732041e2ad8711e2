package preset

import "errors"

// Domain errors for the preset package.
//
//	if errors.Is(err, preset.ErrNotFound) {
//	    // 404
//	}
var (
	// ErrNotFound is returned when a preset ID does not exist.
	ErrNotFound = errors.New("preset: not found")

	// ErrExists is returned when a preset name is already taken.
	ErrExists = errors.New("preset: already exists")

	// ErrInvalid is returned when preset validation fails.
	ErrInvalid = errors.New("preset: invalid")

	// ErrReadOnly is returned when modifying a built-in preset.
	ErrReadOnly = errors.New("preset: built-in presets are read-only")
)
