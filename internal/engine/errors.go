package engine

import "errors"

// Sentinel errors for the engine package.
var (
	// ErrEmptyTexture is returned when a texture has no pixels.
	ErrEmptyTexture = errors.New("engine: texture has zero width or height")

	// ErrCanvasSize is returned when an atlas size is not a power of two
	// inside the size ladder.
	ErrCanvasSize = errors.New("engine: atlas size must be a power of two between 256 and 4096")
)
