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

package core

//go:generate go run ../cmd/musgen

import (
	"encoding/binary"
	"fmt"
	"strconv"

	"github.com/go-crypt/x/blake2b"
)

const (
	// UnknownPage is the label rendered for chunks without a page number.
	UnknownPage = "unknown"
	// NotAvailable is the label rendered for absent chapter and content type values.
	NotAvailable = "N/A"
)

// ID is a content-derived identifier.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// String renders the ID as fixed-width hex.
func (id ID) String() string {
	return fmt.Sprintf("%016x", uint64(id))
}

// Chunk is a unit of retrievable text from the reference corpus.
// Chunks are read-only once an index has been built over them.
type Chunk struct {
	Id          string // Unique within one corpus
	Seq         int    // Zero-based position in source order
	Text        string // Original-case passage content, never empty
	Page        int    // 1-based source page, 0 when unknown
	Chapter     string // Chapter or category label, optional
	ContentType string // e.g. "paragraph", "form", "heading", optional
	WordCount   int    // Informational only
}

// PageLabel returns the page number as text, or "unknown".
func (c *Chunk) PageLabel() string {
	if c.Page <= 0 {
		return UnknownPage
	}
	return strconv.Itoa(c.Page)
}

// ChapterLabel returns the chapter, or "N/A" when absent.
func (c *Chunk) ChapterLabel() string {
	if c.Chapter == "" {
		return NotAvailable
	}
	return c.Chapter
}

// ContentTypeLabel returns the content type, or "N/A" when absent.
func (c *Chunk) ContentTypeLabel() string {
	if c.ContentType == "" {
		return NotAvailable
	}
	return c.ContentType
}

// ScoredResult is one ranked hit for a query. Results are built fresh for every
// search call and are never persisted.
type ScoredResult struct {
	ChunkId      string
	Chunk        *Chunk
	Score        int      // Always >= 1
	MatchedTerms []string // Sorted ascending
}
