// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package badger

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/lexis/core"
	"github.com/poiesic/lexis/storage"
)

// ChunkRepository implements storage.ChunkRepository for BadgerDB.
type ChunkRepository struct {
	backend *Backend
	seq     *badger.Sequence
}

var _ storage.ChunkRepository = (*ChunkRepository)(nil)

// NewChunkRepository creates a new ChunkRepository.
func NewChunkRepository(backend *Backend) (*ChunkRepository, error) {
	seq, err := backend.GetSequence(chunkSeq)
	if err != nil {
		return nil, err
	}

	return &ChunkRepository{
		backend: backend,
		seq:     seq,
	}, nil
}

// Close releases the key sequence.
func (r *ChunkRepository) Close() error {
	return r.seq.Release()
}

// WithTransaction delegates to the backend.
func (r *ChunkRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// ReplaceChunks removes every stored chunk, writes chunks in order and
// records fingerprint in a single transaction.
func (r *ChunkRepository) ReplaceChunks(ctx context.Context, fingerprint string, chunks ...*core.Chunk) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		if err := deletePrefix(ctx, tx, chunkRecordPrefix); err != nil {
			return err
		}
		if err := deletePrefix(ctx, tx, chunkIDPrefix); err != nil {
			return err
		}
		if err := r.writeChunks(ctx, tx, chunks); err != nil {
			return err
		}
		if err := tx.Set([]byte(fingerprintKey), []byte(fingerprint)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// AppendChunks writes chunks after those already stored.
func (r *ChunkRepository) AppendChunks(ctx context.Context, chunks ...*core.Chunk) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		if err := r.writeChunks(ctx, tx, chunks); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// DeleteAll removes every stored chunk and the corpus fingerprint.
func (r *ChunkRepository) DeleteAll(ctx context.Context) error {
	var keys [][]byte
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, prefix := range []string{chunkRecordPrefix, chunkIDPrefix, fingerprintKey} {
			found, err := collectKeys(ctx, tx, prefix)
			if err != nil {
				return err
			}
			keys = append(keys, found...)
		}
		return nil
	}, false)
	if err != nil {
		return err
	}
	return r.backend.DeleteKeys(keys)
}

// GetChunk retrieves a single chunk by id.
func (r *ChunkRepository) GetChunk(ctx context.Context, id string) (*core.Chunk, error) {
	var result *core.Chunk
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeChunkIDKey(id))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("chunk %q: %w", id, storage.ErrNotFound)
			}
			return err
		}

		var seq uint64
		if err := item.Value(func(val []byte) error {
			var err error
			seq, err = storage.UnmarshalSeq(val)
			return err
		}); err != nil {
			return err
		}

		result, err = r.readChunk(tx, makeChunkKey(seq))
		if err != nil {
			return err
		}
		if result == nil {
			return fmt.Errorf("chunk %q: %w", id, storage.ErrNotFound)
		}
		return nil
	}, false)
	return result, err
}

// ListChunks returns every stored chunk in write order.
func (r *ChunkRepository) ListChunks(ctx context.Context) ([]*core.Chunk, error) {
	var results []*core.Chunk
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(chunkRecordPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var chunk *core.Chunk
			err := iter.Item().Value(func(val []byte) error {
				var err error
				chunk, err = storage.UnmarshalChunk(val)
				return err
			})
			if err != nil {
				return err
			}
			results = append(results, chunk)
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	if results == nil {
		results = []*core.Chunk{}
	}
	return results, nil
}

// CountChunks returns the number of stored chunks.
func (r *ChunkRepository) CountChunks(ctx context.Context) (int, error) {
	count := 0
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(chunkRecordPrefix)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			count++
		}
		return ctx.Err()
	}, false)
	return count, err
}

// SetFingerprint records the fingerprint of the stored corpus.
func (r *ChunkRepository) SetFingerprint(ctx context.Context, fingerprint string) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set([]byte(fingerprintKey), []byte(fingerprint)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// Fingerprint returns the recorded corpus fingerprint, or "" if none.
func (r *ChunkRepository) Fingerprint(ctx context.Context) (string, error) {
	var fingerprint string
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get([]byte(fingerprintKey))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			return err
		}
		return item.Value(func(val []byte) error {
			fingerprint = string(val)
			return nil
		})
	}, false)
	return fingerprint, err
}

// writeChunks stores chunks under fresh sequence keys and indexes their ids.
func (r *ChunkRepository) writeChunks(ctx context.Context, tx *badger.Txn, chunks []*core.Chunk) error {
	for _, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := core.ValidateChunk(chunk); err != nil {
			return err
		}

		idKey := makeChunkIDKey(chunk.Id)
		if _, err := tx.Get(idKey); err == nil {
			return fmt.Errorf("chunk %q: %w", chunk.Id, storage.ErrDuplicateKey)
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		seq, err := r.seq.Next()
		if err != nil {
			return err
		}
		// BadgerDB sequences can return 0 on first call, so we skip it
		if seq == 0 {
			seq, err = r.seq.Next()
			if err != nil {
				return err
			}
		}

		if err := tx.Set(makeChunkKey(seq), storage.MarshalChunk(chunk)); err != nil {
			return err
		}
		if err := tx.Set(idKey, storage.MarshalSeq(seq)); err != nil {
			return err
		}
	}
	return nil
}

// readChunk reads a chunk by primary key. Returns nil, nil if it doesn't exist.
func (r *ChunkRepository) readChunk(tx *badger.Txn, key []byte) (*core.Chunk, error) {
	item, err := tx.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var chunk *core.Chunk
	err = item.Value(func(val []byte) error {
		var err error
		chunk, err = storage.UnmarshalChunk(val)
		return err
	})
	return chunk, err
}

// deletePrefix deletes every key under prefix inside tx.
func deletePrefix(ctx context.Context, tx *badger.Txn, prefix string) error {
	keys, err := collectKeys(ctx, tx, prefix)
	if err != nil {
		return err
	}
	for _, key := range keys {
		if err := tx.Delete(key); err != nil {
			return err
		}
	}
	return nil
}

// collectKeys copies every key under prefix. The iterator is closed before
// returning so the caller may modify the transaction.
func collectKeys(ctx context.Context, tx *badger.Txn, prefix string) ([][]byte, error) {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(prefix)
	opts.PrefetchValues = false
	iter := tx.NewIterator(opts)
	defer iter.Close()

	var keys [][]byte
	for iter.Rewind(); iter.Valid(); iter.Next() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		keys = append(keys, iter.Item().KeyCopy(nil))
	}
	return keys, nil
}
