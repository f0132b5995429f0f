// Package ingestion imports a corpus file into a chunk repository.
//
// The Importer validates chunks with the same rules the search index applies,
// then writes them to storage in ordered batches. Each batch write is retried
// with exponential backoff on failure, and progress can be reported to a
// writer as batches land.
//
// An import whose corpus fingerprint matches the one already stored is
// skipped unless forced. The fingerprint is written last, so an interrupted
// import is never mistaken for a complete one.
package ingestion
