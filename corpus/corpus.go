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

package corpus

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/poiesic/lexis/analysis"
	"github.com/poiesic/lexis/core"
	"github.com/tidwall/jsonc"
)

// LoadFile reads and decodes the corpus file at path.
func LoadFile(path string) ([]*core.Chunk, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening corpus %s: %w", path, err)
	}
	defer f.Close()

	chunks, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return chunks, nil
}

// Load decodes a corpus from r. Chunks are returned in source order with Seq
// set to their position.
func Load(r io.Reader) ([]*core.Chunk, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading corpus: %w", err)
	}
	return Parse(data)
}

// Parse decodes corpus bytes.
func Parse(data []byte) ([]*core.Chunk, error) {
	stripped := bytes.TrimSpace(jsonc.ToJSON(data))
	if len(stripped) == 0 {
		return nil, fmt.Errorf("%w: empty corpus", core.ErrMalformedRecord)
	}

	var raw []json.RawMessage
	switch stripped[0] {
	case '[':
		if err := json.Unmarshal(stripped, &raw); err != nil {
			return nil, fmt.Errorf("%w: %w", core.ErrMalformedRecord, err)
		}
	case '{':
		var envelope struct {
			Chunks *[]json.RawMessage `json:"chunks"`
		}
		if err := json.Unmarshal(stripped, &envelope); err != nil {
			return nil, fmt.Errorf("%w: %w", core.ErrMalformedRecord, err)
		}
		if envelope.Chunks == nil {
			return nil, fmt.Errorf("%w: missing \"chunks\" array", core.ErrMalformedRecord)
		}
		raw = *envelope.Chunks
	default:
		return nil, fmt.Errorf("%w: corpus must be an object or an array", core.ErrMalformedRecord)
	}

	chunks := make([]*core.Chunk, 0, len(raw))
	for i, msg := range raw {
		chunk, err := decodeRecord(msg, i)
		if err != nil {
			return nil, fmt.Errorf("%w at position %d: %w", core.ErrMalformedRecord, i, err)
		}
		chunks = append(chunks, chunk)
	}
	return chunks, nil
}

type record struct {
	ChunkId     flexString `json:"chunk_id"`
	Id          flexString `json:"id"`
	Text        *string    `json:"text"`
	PageNumber  flexInt    `json:"page_number"`
	Page        flexInt    `json:"page"`
	Chapter     *string    `json:"chapter"`
	Category    *string    `json:"category"`
	ContentType *string    `json:"content_type"`
	Type        *string    `json:"type"`
	WordCount   flexInt    `json:"word_count"`
	Metadata    struct {
		WordCount flexInt `json:"word_count"`
	} `json:"metadata"`
}

func decodeRecord(msg json.RawMessage, pos int) (*core.Chunk, error) {
	var rec record
	if err := json.Unmarshal(msg, &rec); err != nil {
		return nil, err
	}
	if rec.Text == nil || strings.TrimSpace(*rec.Text) == "" {
		return nil, core.ErrEmptyText
	}
	text := *rec.Text

	chunk := &core.Chunk{
		Id:          firstString(rec.ChunkId.ptr(), rec.Id.ptr()),
		Seq:         pos,
		Text:        text,
		Page:        firstInt(rec.PageNumber, rec.Page),
		Chapter:     strings.TrimSpace(firstString(rec.Chapter, rec.Category)),
		ContentType: strings.TrimSpace(firstString(rec.ContentType, rec.Type)),
	}
	if chunk.Id == "" {
		chunk.Id = DeriveID(pos, text)
	}
	if rec.Metadata.WordCount.set {
		chunk.WordCount = rec.Metadata.WordCount.value
	} else if rec.WordCount.set {
		chunk.WordCount = rec.WordCount.value
	} else {
		chunk.WordCount = analysis.WordCount(text)
	}

	if err := core.ValidateChunk(chunk); err != nil {
		return nil, err
	}
	return chunk, nil
}

// DeriveID returns the id assigned to a record without one.
func DeriveID(pos int, text string) string {
	return fmt.Sprintf("chunk-%d-%s", pos, core.IDFromContent(text))
}

func firstString(values ...*string) string {
	for _, v := range values {
		if v != nil && *v != "" {
			return *v
		}
	}
	return ""
}

func firstInt(values ...flexInt) int {
	for _, v := range values {
		if v.set {
			return v.value
		}
	}
	return 0
}

// flexString accepts a JSON string or number.
type flexString struct {
	value string
	set   bool
}

func (s *flexString) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &s.value); err != nil {
			return err
		}
		s.set = true
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be a string or a number, got %s", data)
	}
	s.value, s.set = n.String(), true
	return nil
}

func (s flexString) ptr() *string {
	if !s.set {
		return nil
	}
	return &s.value
}

// flexInt accepts a JSON number or a numeric string. Null and non-numeric
// strings such as "N/A" leave the value unset.
type flexInt struct {
	value int
	set   bool
}

func (n *flexInt) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		v, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return nil
		}
		n.value, n.set = v, true
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("expected a number, got %s", data)
	}
	if f != float64(int(f)) {
		return fmt.Errorf("expected an integer, got %s", data)
	}
	n.value, n.set = int(f), true
	return nil
}
