package common

import "errors"

// Sentinel errors shared across the graph, store and extraction layers.
// Callers branch with errors.Is; wrapping with fmt.Errorf("...: %w", err)
// preserves the taxonomy across package boundaries.
var (
	// ErrMissingEmbedding is returned when similarity is requested for a
	// news item whose embedding has not been computed yet. Callers must
	// trigger embedding first rather than silently skip the item.
	ErrMissingEmbedding = errors.New("news embedding missing")

	// ErrInvalidOperation is returned for manual merge/split operations
	// that target an editorial story without an explicit override, or
	// reference unknown IDs.
	ErrInvalidOperation = errors.New("invalid operation")

	// ErrInconsistentGraph is returned when persisted state contradicts
	// itself, e.g. a news item referencing a story that does not exist or
	// a duplicate_of cycle. It is surfaced rather than auto-healed so that
	// upstream extraction bugs stay visible.
	ErrInconsistentGraph = errors.New("inconsistent graph state")

	// ErrExtractionFailure wraps errors from the external embedding/NER
	// collaborators. The failed unit of work leaves prior state untouched
	// and is retried at single-news granularity.
	ErrExtractionFailure = errors.New("extraction failure")

	// ErrNotFound is returned by store lookups for unknown IDs.
	ErrNotFound = errors.New("not found")
)
