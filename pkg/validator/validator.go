// Package validator checks the structural soundness of a flow graph.
//
// Validate is pure and deterministic: the interactive editor calls it on
// every edit for live feedback, and the lifecycle manager calls it again
// before accepting a publish. Both call sites see identical results for
// identical input.
package validator

import (
	"fmt"

	"github.com/rehearse-dev/rehearse/pkg/domain"
)

// Summary reports graph counts independent of validity.
type Summary struct {
	TotalNodes    int `json:"totalNodes"`
	TotalEdges    int `json:"totalEdges"`
	StartNodes    int `json:"startNodes"`
	EndNodes      int `json:"endNodes"`
	OrphanedNodes int `json:"orphanedNodes"`
	InvalidEdges  int `json:"invalidEdges"`
}

// Result is the outcome of a validation pass. Warnings do not affect
// IsValid.
type Result struct {
	IsValid  bool     `json:"isValid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings,omitempty"`
	Summary  Summary  `json:"summary"`
}

// Validate checks a candidate graph against the structural rules:
// non-empty graph, exactly one start node, at least one end node, no
// orphaned nodes, no dangling edges, decision nodes with at least two
// choices. Question nodes without keywords are flagged as warnings only.
func Validate(nodes []domain.Node, edges []domain.Edge) Result {
	res := Result{Errors: []string{}}

	if len(nodes) == 0 {
		res.Errors = append(res.Errors, "flow has no nodes")
	}
	if len(edges) == 0 {
		res.Errors = append(res.Errors, "flow has no edges")
	}

	nodeIDs := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		nodeIDs[n.ID] = true
		switch n.Type {
		case domain.NodeTypeStart:
			res.Summary.StartNodes++
		case domain.NodeTypeEnd:
			res.Summary.EndNodes++
		}
	}

	switch {
	case res.Summary.StartNodes == 0:
		res.Errors = append(res.Errors, "flow has no start node")
	case res.Summary.StartNodes > 1:
		res.Errors = append(res.Errors, fmt.Sprintf("flow has %d start nodes, expected exactly one", res.Summary.StartNodes))
	}
	if res.Summary.EndNodes == 0 {
		res.Errors = append(res.Errors, "flow has no end node")
	}

	// A node is orphaned when no edge references it as source or target.
	referenced := make(map[string]bool, len(nodes))
	for _, e := range edges {
		referenced[e.From] = true
		referenced[e.To] = true
	}
	for _, n := range nodes {
		if !referenced[n.ID] {
			res.Summary.OrphanedNodes++
			res.Errors = append(res.Errors, fmt.Sprintf("orphaned node: %q is not connected to any edge", nodeLabel(n)))
		}
	}

	for _, e := range edges {
		if !nodeIDs[e.From] {
			res.Summary.InvalidEdges++
			res.Errors = append(res.Errors, fmt.Sprintf("edge %s references missing source node %q", e.ID, e.From))
		}
		if !nodeIDs[e.To] {
			res.Summary.InvalidEdges++
			res.Errors = append(res.Errors, fmt.Sprintf("edge %s references missing target node %q", e.ID, e.To))
		}
	}

	for _, n := range nodes {
		switch n.Type {
		case domain.NodeTypeDecision:
			if len(n.Choices()) < 2 {
				res.Errors = append(res.Errors, fmt.Sprintf("decision node %q must declare at least two choices", nodeLabel(n)))
			}
		case domain.NodeTypeQuestion:
			if len(n.Keywords()) == 0 {
				res.Warnings = append(res.Warnings, fmt.Sprintf("question node %q declares no keywords", nodeLabel(n)))
			}
		}
	}

	res.Summary.TotalNodes = len(nodes)
	res.Summary.TotalEdges = len(edges)
	res.IsValid = len(res.Errors) == 0
	return res
}

// ValidateFlow validates a flow document's graph.
func ValidateFlow(f domain.Flow) Result {
	return Validate(f.Nodes, f.Edges)
}

func nodeLabel(n domain.Node) string {
	if n.Label != "" {
		return n.Label
	}
	return n.ID
}
