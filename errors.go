package objcabi

import "errors"

// Error taxonomy (component 7). Per-entity failures are local and
// recoverable; only ErrOpen is fatal to a Parse call.
var (
	// ErrOpen means the Mach-O container could not be parsed or no
	// supported slice was found in a fat binary.
	ErrOpen = errors.New("objcabi: could not open Mach-O image")

	// ErrRead means a stream read targeted a VA outside any mapped
	// segment.
	ErrRead = errors.New("objcabi: read outside mapped segment")

	// ErrTruncation means a structural field (e.g. a class_ro VA) was
	// zero or otherwise invalid, so the entity was dropped.
	ErrTruncation = errors.New("objcabi: truncated or invalid record")
)
