package domain

import "errors"

// Domain errors - used across all layers
var (
	// ErrNotFound indicates the requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates the input is invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidPayload indicates an import payload failed validation
	ErrInvalidPayload = errors.New("invalid vault payload")

	// ErrCorruptArchive indicates the persisted archive could not be decoded
	ErrCorruptArchive = errors.New("corrupt archive")

	// ErrChunkingFailed indicates a file could not be turned into chunks
	ErrChunkingFailed = errors.New("chunking failed")

	// ErrDuplicateChunk indicates a chunk id is already present in the store
	ErrDuplicateChunk = errors.New("duplicate chunk")

	// ErrCancelled indicates a turn was superseded by a newer one
	ErrCancelled = errors.New("turn cancelled")

	// ErrGenerationUnavailable indicates no generation provider is configured
	ErrGenerationUnavailable = errors.New("generation provider unavailable")

	// ErrArchiveBusy indicates another writer holds the archive lock
	ErrArchiveBusy = errors.New("archive busy")

	// ErrSchedulerStopped indicates the ingestion scheduler no longer accepts work
	ErrSchedulerStopped = errors.New("scheduler stopped")
)
