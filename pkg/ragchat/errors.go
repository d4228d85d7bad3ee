package ragchat

import "errors"

// Sentinel errors for the failure classes callers branch on. Wrapped causes
// are attached with fmt.Errorf("%w: %w", ...) so errors.Is works against
// these while the provider detail stays in the chain.
var (
	// ErrUnsupportedFormat rejects uploads that are not PDF files.
	ErrUnsupportedFormat = errors.New("only PDF files are supported")

	// ErrExtraction marks an unreadable or corrupt document.
	ErrExtraction = errors.New("text extraction failed")

	// ErrEmbedding marks a rejected embedding request. Fatal during
	// ingestion, degraded to an empty retrieval during queries.
	ErrEmbedding = errors.New("embedding failed")

	// ErrDimensionMismatch marks an embedding whose length disagrees with
	// the index. Unreachable under the replace-on-ingest policy but checked
	// on every insert.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrGeneration marks a completion request the provider rejected before
	// any token was streamed.
	ErrGeneration = errors.New("generation failed")
)
