package dsl

import (
	"fmt"

	"github.com/rehearse-dev/rehearse/pkg/domain"
)

// Builder manages the graph construction.
type Builder struct {
	order []string
	nodes map[string]*NodeBuilder
	edges []domain.Edge
}

// New creates a new graph builder.
func New() *Builder {
	return &Builder{
		nodes: make(map[string]*NodeBuilder),
	}
}

// Add creates a new node in the graph, defaulting to a text node.
// If the node already exists, it returns the existing builder.
func (b *Builder) Add(id string) *NodeBuilder {
	if nb, ok := b.nodes[id]; ok {
		return nb
	}
	nb := &NodeBuilder{
		id:       id,
		nodeType: domain.NodeTypeText,
		builder:  b,
	}
	b.order = append(b.order, id)
	b.nodes[id] = nb
	return nb
}

// edge appends an edge with the next sequential id.
func (b *Builder) edge(from, to string, cond domain.Condition) {
	b.edges = append(b.edges, domain.Edge{
		ID:        fmt.Sprintf("e%d", len(b.edges)+1),
		From:      from,
		To:        to,
		Condition: cond,
	})
}

// Build compiles the graph into node and edge slices in declaration order.
func (b *Builder) Build() ([]domain.Node, []domain.Edge) {
	nodes := make([]domain.Node, 0, len(b.order))
	for _, id := range b.order {
		nodes = append(nodes, b.nodes[id].build())
	}
	edges := append([]domain.Edge(nil), b.edges...)
	return nodes, edges
}
