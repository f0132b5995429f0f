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

package main

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/poiesic/lexis/core"
	"github.com/poiesic/lexis/index"
	"github.com/poiesic/lexis/search"
)

const (
	chapterRunes = 70
	previewRunes = 400
	cardWidth    = 88
)

const (
	colorAccent   = "111"
	colorGray     = "245"
	colorDarkGray = "238"
	colorRed      = "196"
)

// styles holds the terminal styles for result cards.
type styles struct {
	Header lipgloss.Style
	Label  lipgloss.Style
	Dim    lipgloss.Style
	Error  lipgloss.Style
	Card   lipgloss.Style
}

func defaultStyles() styles {
	return styles{
		Header: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(colorAccent)),
		Label:  lipgloss.NewStyle().Foreground(lipgloss.Color(colorGray)),
		Dim:    lipgloss.NewStyle().Foreground(lipgloss.Color(colorDarkGray)),
		Error:  lipgloss.NewStyle().Foreground(lipgloss.Color(colorRed)),
		Card: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(colorDarkGray)).
			Padding(0, 1).
			Width(cardWidth),
	}
}

func plainStyles() styles {
	return styles{
		Header: lipgloss.NewStyle(),
		Label:  lipgloss.NewStyle(),
		Dim:    lipgloss.NewStyle(),
		Error:  lipgloss.NewStyle(),
		Card:   lipgloss.NewStyle(),
	}
}

func getStyles(noColor bool) styles {
	if noColor {
		return plainStyles()
	}
	return defaultStyles()
}

// renderResults writes one card per result, or a notice when there are none.
func renderResults(w io.Writer, st styles, query string, results []*core.ScoredResult) {
	if len(results) == 0 {
		fmt.Fprintf(w, "No results for %q\n", query)
		return
	}

	fmt.Fprintln(w, st.Header.Render(fmt.Sprintf("Found %d results for %q", len(results), query)))
	for i, result := range results {
		fmt.Fprintln(w, renderCard(st, i+1, result))
	}
}

func renderCard(st styles, rank int, result *core.ScoredResult) string {
	chunk := result.Chunk

	var b strings.Builder
	b.WriteString(st.Header.Render(fmt.Sprintf("#%d  score %d", rank, result.Score)))
	b.WriteString("\n")
	fmt.Fprintf(&b, "%s %s   %s %s\n",
		st.Label.Render("Page:"), chunk.PageLabel(),
		st.Label.Render("Type:"), chunk.ContentTypeLabel())
	fmt.Fprintf(&b, "%s %s\n", st.Label.Render("Chapter:"), search.Snippet(chunk.ChapterLabel(), chapterRunes))
	fmt.Fprintf(&b, "%s %s\n", st.Label.Render("Matched:"), strings.Join(result.MatchedTerms, ", "))
	b.WriteString(search.Highlight(search.Snippet(chunk.Text, previewRunes), result.MatchedTerms))

	return st.Card.Render(b.String())
}

// renderStats writes knowledge-base statistics.
func renderStats(w io.Writer, st styles, idx *index.Index) {
	stats := idx.Stats()
	fmt.Fprintln(w, st.Header.Render("Knowledge base"))
	fmt.Fprintf(w, "%s %d\n", st.Label.Render("Chunks:     "), stats.Chunks)
	fmt.Fprintf(w, "%s %d\n", st.Label.Render("Pages:      "), stats.Pages)
	fmt.Fprintf(w, "%s %d\n", st.Label.Render("Words:      "), stats.Words)
	fmt.Fprintf(w, "%s %d\n", st.Label.Render("Chapters:   "), stats.Chapters)
	fmt.Fprintf(w, "%s %s\n", st.Label.Render("Fingerprint:"), idx.Fingerprint())

	types := make([]string, 0, len(stats.ContentTypes))
	for t := range stats.ContentTypes {
		types = append(types, t)
	}
	sort.Strings(types)
	for _, t := range types {
		fmt.Fprintf(w, "  %-12s %d\n", t, stats.ContentTypes[t])
	}
}
