package badger

import (
	"encoding/binary"
)

const (
	chunkRecordPrefix = "chunk:"
	chunkIDPrefix     = "chunkid:"
	chunkSeq          = "chunkseq"
	fingerprintKey    = "corpus:fingerprint"
)

// makeChunkKey generates the primary key for a chunk.
// Format: prefix + big-endian sequence, so key order is write order.
func makeChunkKey(seq uint64) []byte {
	buf := make([]byte, len(chunkRecordPrefix)+8)
	offset := copy(buf, chunkRecordPrefix)
	binary.BigEndian.PutUint64(buf[offset:], seq)
	return buf
}

// makeChunkIDKey generates the id index key for a chunk.
// Format: prefix + chunk id
func makeChunkIDKey(id string) []byte {
	return []byte(chunkIDPrefix + id)
}
