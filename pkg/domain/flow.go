package domain

import "time"

// FlowStatus is the lifecycle state of a flow document.
type FlowStatus string

const (
	StatusDraft     FlowStatus = "draft"
	StatusPublished FlowStatus = "published"
)

// Complexity tiers derived from node count.
const (
	ComplexityLow    = "low"
	ComplexityMedium = "medium"
)

// Settings holds authoring-time traversal configuration.
type Settings struct {
	StartNode  string   `json:"startNode"`
	EndNodes   []string `json:"endNodes"`
	MaxDepth   int      `json:"maxDepth"`
	AllowLoops bool     `json:"allowLoops"`
}

// Metadata holds counts derived from the graph. It is recomputed on every
// node or edge change, never authored directly.
type Metadata struct {
	TotalNodes int `json:"totalNodes"`
	TotalEdges int `json:"totalEdges"`
	// Complexity is a coarse tier ("low" or "medium") from node count.
	Complexity string `json:"complexity"`
	// EstimatedDuration is in minutes.
	EstimatedDuration int `json:"estimatedDuration"`
}

// ComputeMetadata derives the document metadata from its graph:
// two minutes per node, "medium" complexity above ten nodes.
func ComputeMetadata(nodes []Node, edges []Edge) Metadata {
	complexity := ComplexityLow
	if len(nodes) > 10 {
		complexity = ComplexityMedium
	}
	return Metadata{
		TotalNodes:        len(nodes),
		TotalEdges:        len(edges),
		Complexity:        complexity,
		EstimatedDuration: len(nodes) * 2,
	}
}

// Flow is a versioned, trainer-owned training script document.
// Flow values are treated as immutable: edit operations return a copy,
// so a validator can run after every edit without aliasing hazards.
type Flow struct {
	ID        string     `json:"id"`
	TrainerID string     `json:"trainerId"`
	Name      string     `json:"name"`
	Version   string     `json:"version"`
	Status    FlowStatus `json:"status"`

	Nodes    []Node   `json:"nodes"`
	Edges    []Edge   `json:"edges"`
	Settings Settings `json:"settings"`
	Metadata Metadata `json:"metadata"`

	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	PublishedAt *time.Time `json:"publishedAt,omitempty"`
	PublishedBy string     `json:"publishedBy,omitempty"`
}

// Node returns the node with the given id.
func (f Flow) Node(id string) (Node, bool) {
	for _, n := range f.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// StartNode resolves the entry node: the settings override, else the node
// of type start, else the first node in document order.
func (f Flow) StartNode() (Node, bool) {
	if f.Settings.StartNode != "" {
		if n, ok := f.Node(f.Settings.StartNode); ok {
			return n, true
		}
	}
	for _, n := range f.Nodes {
		if n.Type == NodeTypeStart {
			return n, true
		}
	}
	if len(f.Nodes) > 0 {
		return f.Nodes[0], true
	}
	return Node{}, false
}

// EdgesFrom returns the outgoing edges of a node in stored order.
func (f Flow) EdgesFrom(nodeID string) []Edge {
	var out []Edge
	for _, e := range f.Edges {
		if e.From == nodeID {
			out = append(out, e)
		}
	}
	return out
}

// Clone returns a deep-enough copy for independent mutation of the
// node and edge slices.
func (f Flow) Clone() Flow {
	out := f
	out.Nodes = append([]Node(nil), f.Nodes...)
	out.Edges = append([]Edge(nil), f.Edges...)
	out.Settings.EndNodes = append([]string(nil), f.Settings.EndNodes...)
	if f.PublishedAt != nil {
		t := *f.PublishedAt
		out.PublishedAt = &t
	}
	return out
}

// WithNode returns a copy with the node added, or replaced when a node
// with the same id exists. Metadata is recomputed.
func (f Flow) WithNode(n Node) Flow {
	out := f.Clone()
	replaced := false
	for i, existing := range out.Nodes {
		if existing.ID == n.ID {
			out.Nodes[i] = n
			replaced = true
			break
		}
	}
	if !replaced {
		out.Nodes = append(out.Nodes, n)
	}
	out.Metadata = ComputeMetadata(out.Nodes, out.Edges)
	return out
}

// WithoutNode returns a copy with the node and its incident edges removed.
func (f Flow) WithoutNode(nodeID string) Flow {
	out := f.Clone()
	nodes := out.Nodes[:0]
	for _, n := range out.Nodes {
		if n.ID != nodeID {
			nodes = append(nodes, n)
		}
	}
	out.Nodes = nodes
	edges := out.Edges[:0]
	for _, e := range out.Edges {
		if e.From != nodeID && e.To != nodeID {
			edges = append(edges, e)
		}
	}
	out.Edges = edges
	out.Metadata = ComputeMetadata(out.Nodes, out.Edges)
	return out
}

// WithEdge returns a copy with the edge added, or replaced when an edge
// with the same id exists. Metadata is recomputed.
func (f Flow) WithEdge(e Edge) Flow {
	out := f.Clone()
	replaced := false
	for i, existing := range out.Edges {
		if existing.ID == e.ID {
			out.Edges[i] = e
			replaced = true
			break
		}
	}
	if !replaced {
		out.Edges = append(out.Edges, e)
	}
	out.Metadata = ComputeMetadata(out.Nodes, out.Edges)
	return out
}

// WithoutEdge returns a copy with the edge removed.
func (f Flow) WithoutEdge(edgeID string) Flow {
	out := f.Clone()
	edges := out.Edges[:0]
	for _, e := range out.Edges {
		if e.ID != edgeID {
			edges = append(edges, e)
		}
	}
	out.Edges = edges
	out.Metadata = ComputeMetadata(out.Nodes, out.Edges)
	return out
}

// WithSettings returns a copy with the traversal settings replaced.
func (f Flow) WithSettings(s Settings) Flow {
	out := f.Clone()
	out.Settings = s
	out.Settings.EndNodes = append([]string(nil), s.EndNodes...)
	return out
}
