package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rehearse-dev/rehearse/pkg/domain"
)

func graphFlow() domain.Flow {
	nodes := []domain.Node{
		{ID: "start", Type: domain.NodeTypeStart},
		{ID: "mid", Type: domain.NodeTypeText},
		{ID: "end", Type: domain.NodeTypeEnd},
	}
	edges := []domain.Edge{
		{ID: "e1", From: "start", To: "mid"},
		{ID: "e2", From: "mid", To: "end"},
	}
	return domain.Flow{
		ID:       "f1",
		Nodes:    nodes,
		Edges:    edges,
		Metadata: domain.ComputeMetadata(nodes, edges),
	}
}

func TestComputeMetadata(t *testing.T) {
	t.Run("small graph", func(t *testing.T) {
		md := domain.ComputeMetadata(make([]domain.Node, 3), make([]domain.Edge, 2))
		assert.Equal(t, 3, md.TotalNodes)
		assert.Equal(t, 2, md.TotalEdges)
		assert.Equal(t, domain.ComplexityLow, md.Complexity)
		assert.Equal(t, 6, md.EstimatedDuration)
	})

	t.Run("complexity tips at eleven nodes", func(t *testing.T) {
		assert.Equal(t, domain.ComplexityLow, domain.ComputeMetadata(make([]domain.Node, 10), nil).Complexity)
		assert.Equal(t, domain.ComplexityMedium, domain.ComputeMetadata(make([]domain.Node, 11), nil).Complexity)
	})
}

func TestFlowStartNode(t *testing.T) {
	f := graphFlow()

	t.Run("settings override wins", func(t *testing.T) {
		g := f.WithSettings(domain.Settings{StartNode: "mid"})
		n, ok := g.StartNode()
		require.True(t, ok)
		assert.Equal(t, "mid", n.ID)
	})

	t.Run("start typed node", func(t *testing.T) {
		n, ok := f.StartNode()
		require.True(t, ok)
		assert.Equal(t, "start", n.ID)
	})

	t.Run("first node fallback", func(t *testing.T) {
		g := domain.Flow{Nodes: []domain.Node{{ID: "only", Type: domain.NodeTypeText}}}
		n, ok := g.StartNode()
		require.True(t, ok)
		assert.Equal(t, "only", n.ID)
	})

	t.Run("empty flow", func(t *testing.T) {
		_, ok := domain.Flow{}.StartNode()
		assert.False(t, ok)
	})
}

func TestFlowCopyOnWrite(t *testing.T) {
	f := graphFlow()

	t.Run("WithNode adds and recomputes metadata", func(t *testing.T) {
		g := f.WithNode(domain.Node{ID: "extra", Type: domain.NodeTypeText})

		assert.Len(t, g.Nodes, 4)
		assert.Equal(t, 4, g.Metadata.TotalNodes)
		assert.Len(t, f.Nodes, 3, "original must be untouched")
		assert.Equal(t, 3, f.Metadata.TotalNodes)
	})

	t.Run("WithNode replaces by id", func(t *testing.T) {
		g := f.WithNode(domain.Node{ID: "mid", Type: domain.NodeTypeQuestion})

		assert.Len(t, g.Nodes, 3)
		n, _ := g.Node("mid")
		assert.Equal(t, domain.NodeTypeQuestion, n.Type)
	})

	t.Run("WithoutNode drops incident edges", func(t *testing.T) {
		g := f.WithoutNode("mid")

		assert.Len(t, g.Nodes, 2)
		assert.Empty(t, g.Edges, "both edges touched mid")
		assert.Equal(t, 0, g.Metadata.TotalEdges)
		assert.Len(t, f.Edges, 2)
	})

	t.Run("WithEdge and WithoutEdge", func(t *testing.T) {
		g := f.WithEdge(domain.Edge{ID: "e3", From: "start", To: "end"})
		assert.Len(t, g.Edges, 3)

		g = g.WithoutEdge("e1")
		assert.Len(t, g.Edges, 2)
		assert.Equal(t, 2, g.Metadata.TotalEdges)
	})
}

func TestFlowEdgesFrom(t *testing.T) {
	f := graphFlow()
	f = f.WithEdge(domain.Edge{ID: "e3", From: "start", To: "end"})

	edges := f.EdgesFrom("start")
	require.Len(t, edges, 2)
	assert.Equal(t, "e1", edges[0].ID, "stored order must be preserved")
	assert.Equal(t, "e3", edges[1].ID)

	assert.Empty(t, f.EdgesFrom("end"))
}
