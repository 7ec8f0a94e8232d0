package image

import "errors"

// Sentinel errors returned across the service boundary. Callers match them
// with errors.Is; wrapping adds identifiers but never changes the kind.
var (
	// ErrDuplicateImage reports content that already exists where uniqueness
	// is required (same origin hash per user, same subimage hash per origin).
	ErrDuplicateImage = errors.New("image already exists")

	// ErrNotFound reports a lookup with no matching record or file.
	ErrNotFound = errors.New("image not found")

	// ErrOriginNotFound reports a subimage operation whose owning origin
	// record does not exist.
	ErrOriginNotFound = errors.New("origin image not found")

	// ErrAmbiguousRecord reports more than one index match where exactly one
	// is required. It indicates a consistency violation, never a caller error.
	ErrAmbiguousRecord = errors.New("ambiguous image record")

	// ErrConsistency reports a detected mismatch between the blob store and
	// the metadata index, such as a record pointing at a missing file.
	ErrConsistency = errors.New("store consistency violation")

	// ErrInvalidDimensions reports resize dimensions outside the accepted
	// range. Both width and height must be integers greater than 1.
	ErrInvalidDimensions = errors.New("invalid resize dimensions")

	// ErrInvalidImage reports an upload payload rejected before storage:
	// empty, oversized, or not a supported image format.
	ErrInvalidImage = errors.New("invalid image payload")
)
