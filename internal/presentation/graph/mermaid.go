package graph

import (
	"fmt"
	"strings"

	"github.com/rehearse-dev/rehearse/pkg/domain"
)

// Overlay contains session state to visualize on the graph.
type Overlay struct {
	CompletedNodes []string
	CurrentNode    string
}

// GenerateMermaid produces a Mermaid flowchart from a flow graph.
// Node shapes follow the node's role:
//   - start/end: ((circle))
//   - question: [/parallelogram/]
//   - decision: {diamond}
//   - everything else: [rectangle]
//
// Edge labels carry the condition (choice key or keywords). Overlay
// styles mark completed and current nodes when provided.
func GenerateMermaid(nodes []domain.Node, edges []domain.Edge, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for _, node := range nodes {
		safeID := sanitizeMermaidID(node.ID)

		opener, closer := "[", "]"
		switch node.Type {
		case domain.NodeTypeStart, domain.NodeTypeEnd:
			opener, closer = "((", "))"
		case domain.NodeTypeQuestion:
			opener, closer = "[/", "/]"
		case domain.NodeTypeDecision:
			opener, closer = "{", "}"
		}

		label := node.Label
		if label == "" {
			label = node.ID
		}
		sb.WriteString(fmt.Sprintf("    %s%s\"%s\"%s\n", safeID, opener, escapeMermaidLabel(label), closer))
	}

	for _, edge := range edges {
		safeFrom := sanitizeMermaidID(edge.From)
		safeTo := sanitizeMermaidID(edge.To)

		arrow := "-->"
		if label := edgeLabel(edge); label != "" {
			arrow = fmt.Sprintf("-- \"%s\" -->", escapeMermaidLabel(label))
		}
		sb.WriteString(fmt.Sprintf("    %s %s %s\n", safeFrom, arrow, safeTo))
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text for contrast regardless of theme.
		sb.WriteString("    classDef completed fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		seen := make(map[string]bool)
		for _, id := range overlay.CompletedNodes {
			safeID := sanitizeMermaidID(id)
			if safeID != "" && !seen[safeID] {
				seen[safeID] = true
				sb.WriteString(fmt.Sprintf("    class %s completed;\n", safeID))
			}
		}

		if overlay.CurrentNode != "" {
			sb.WriteString(fmt.Sprintf("    class %s current;\n", sanitizeMermaidID(overlay.CurrentNode)))
		}
	}

	return sb.String()
}

// edgeLabel picks the text shown on an edge: explicit label, then the
// condition's choice key or keyword list.
func edgeLabel(e domain.Edge) string {
	if e.Label != "" {
		return e.Label
	}
	switch e.Condition.Type {
	case domain.ConditionDecision:
		return e.Condition.ChoiceKey
	case domain.ConditionQuestion:
		return strings.Join(e.Condition.Keywords, ", ")
	}
	return ""
}

func escapeMermaidLabel(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	return s
}
