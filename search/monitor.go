package search

import (
	"github.com/poiesic/lexis/core"
	"github.com/poiesic/lexis/index"
)

// SearchMonitor receives callbacks as a query moves through the ranker.
// Implementations must not retain or modify the documents they are given.
type SearchMonitor interface {
	Start(query string, policy Policy)
	AfterTokenize(terms []string)
	Scored(doc *index.Document, score int, matched []string)
	Finish(results []*core.ScoredResult)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string, _ Policy)                    {}
func (n *noopMonitor) AfterTokenize(_ []string)                    {}
func (n *noopMonitor) Scored(_ *index.Document, _ int, _ []string) {}
func (n *noopMonitor) Finish(_ []*core.ScoredResult)               {}
