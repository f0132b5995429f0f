package storage

import (
	"context"

	"github.com/poiesic/lexis/core"
)

// Repository provides common storage operations shared across all repositories.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// WithTransaction executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Close releases resources held by the repository.
	Close() error
}

// ChunkRepository stores one corpus of chunks in source order.
type ChunkRepository interface {
	Repository

	// ReplaceChunks removes every stored chunk, writes chunks in order and
	// records fingerprint, all in one transaction.
	ReplaceChunks(ctx context.Context, fingerprint string, chunks ...*core.Chunk) error

	// AppendChunks writes chunks after those already stored.
	// Returns ErrDuplicateKey if a chunk id is already stored.
	AppendChunks(ctx context.Context, chunks ...*core.Chunk) error

	// DeleteAll removes every stored chunk and the corpus fingerprint.
	DeleteAll(ctx context.Context) error

	// GetChunk retrieves a single chunk by id.
	// Returns ErrNotFound if the chunk doesn't exist.
	GetChunk(ctx context.Context, id string) (*core.Chunk, error)

	// ListChunks returns every stored chunk in write order.
	ListChunks(ctx context.Context) ([]*core.Chunk, error)

	// CountChunks returns the number of stored chunks.
	CountChunks(ctx context.Context) (int, error)

	// SetFingerprint records the fingerprint of the stored corpus.
	SetFingerprint(ctx context.Context, fingerprint string) error

	// Fingerprint returns the recorded corpus fingerprint, or "" if none.
	Fingerprint(ctx context.Context) (string, error)
}
