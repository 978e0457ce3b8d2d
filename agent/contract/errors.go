package contract

import "errors"

var (
	// ErrClassification covers failures of the classification call: transport
	// errors, timeouts, and unparseable output. The gate fails closed.
	ErrClassification = errors.New("intent classification failed")

	// ErrReplyGeneration covers failures of the grounded-reply call after the
	// gate has already opened. The turn aborts and the session is not advanced.
	ErrReplyGeneration = errors.New("reply generation failed")

	// ErrEmbedding marks per-item embedding failures. These are absorbed by
	// the search engine and degrade to partial results.
	ErrEmbedding = errors.New("embedding call failed")

	// ErrInvalidReference means the user confirmed an item that is not in the
	// last shown candidate set. Handled as a clarification, never a crash.
	ErrInvalidReference = errors.New("invalid candidate reference")

	// ErrCacheCorruption marks an unreadable or dimensionally mismatched
	// persisted embedding cache. Non-fatal: discarded and regenerated.
	ErrCacheCorruption = errors.New("embedding cache corrupt")

	ErrSchemaViolation = errors.New("model response violates schema")
	ErrValidation      = errors.New("validation failed")
)
