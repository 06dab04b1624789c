package domain

import "errors"

// -----------------------------------------------------------------------------
// Domain Errors
// Missing content, missing progress and out-of-range navigation are not
// errors; they degrade. These cover the remaining failure modes.
// -----------------------------------------------------------------------------

// Route errors
var (
	ErrInvalidRoute = errors.New("invalid lesson route")
)

// Catalog errors
var (
	ErrCatalogNotLoaded = errors.New("catalog not loaded")
	ErrLessonNotFound   = errors.New("lesson not found")
	ErrInvalidCatalog   = errors.New("invalid catalog")
)

// Progress errors
var (
	ErrProgressNotFound = errors.New("progress not found")
	ErrInvalidEvent     = errors.New("invalid completion event")
)
