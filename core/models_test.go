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

import "testing"

func TestIDFromContent_Deterministic(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "simple text", content: "test content"},
		{name: "empty string", content: ""},
		{name: "unicode", content: "离婚财产分割"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id1 := IDFromContent(tt.content)
			id2 := IDFromContent(tt.content)
			if id1 != id2 {
				t.Errorf("IDFromContent() produced different IDs for same content: %d vs %d", id1, id2)
			}
		})
	}
}

func TestIDFromContent_Different(t *testing.T) {
	id1 := IDFromContent("content1")
	id2 := IDFromContent("content2")

	if id1 == id2 {
		t.Errorf("IDFromContent() produced same ID for different content: %d", id1)
	}
}

func TestID_String(t *testing.T) {
	if got := ID(0xab).String(); got != "00000000000000ab" {
		t.Errorf("ID.String() = %q, want %q", got, "00000000000000ab")
	}
}

func TestChunkLabels(t *testing.T) {
	tests := []struct {
		name            string
		chunk           Chunk
		wantPage        string
		wantChapter     string
		wantContentType string
	}{
		{
			name:            "all metadata present",
			chunk:           Chunk{Page: 12, Chapter: "Property", ContentType: "paragraph"},
			wantPage:        "12",
			wantChapter:     "Property",
			wantContentType: "paragraph",
		},
		{
			name:            "metadata absent",
			chunk:           Chunk{},
			wantPage:        UnknownPage,
			wantChapter:     NotAvailable,
			wantContentType: NotAvailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.chunk.PageLabel(); got != tt.wantPage {
				t.Errorf("PageLabel() = %q, want %q", got, tt.wantPage)
			}
			if got := tt.chunk.ChapterLabel(); got != tt.wantChapter {
				t.Errorf("ChapterLabel() = %q, want %q", got, tt.wantChapter)
			}
			if got := tt.chunk.ContentTypeLabel(); got != tt.wantContentType {
				t.Errorf("ContentTypeLabel() = %q, want %q", got, tt.wantContentType)
			}
		})
	}
}
