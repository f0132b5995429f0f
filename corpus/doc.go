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

// Package corpus decodes chunk files into validated core.Chunk records.
//
// A corpus file is JSON, optionally with comments and trailing commas, holding
// either an object with a "chunks" array or a bare array of chunk records.
// Each record must carry non-empty text. Other fields are optional and accept
// the spellings found in existing chunk exports:
//
//	chunk_id | id                      chunk id; derived from position and text when absent
//	page_number | page                 1-based page; absent, null or non-numeric means unknown
//	chapter | category                 chapter label
//	content_type | type                content type label
//	metadata.word_count | word_count   word count; counted from text when absent
//
// Malformed records are rejected with core.ErrMalformedRecord naming the
// record's position. Duplicate ids are detected when an index is built.
package corpus
