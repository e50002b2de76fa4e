package memory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rehearse-dev/rehearse/internal/adapters/memory"
	"github.com/rehearse-dev/rehearse/pkg/domain"
	"github.com/rehearse-dev/rehearse/pkg/ports"
)

func TestFlowStoreContract(t *testing.T) {
	ports.RunFlowStoreContract(t, memory.NewFlowStore())
}

func TestSessionStoreContract(t *testing.T) {
	ports.RunSessionStoreContract(t, memory.NewSessionStore())
}

func TestFlowStoreIsolation(t *testing.T) {
	ctx := context.Background()
	store := memory.NewFlowStore()

	flow := domain.Flow{
		ID:        "f1",
		TrainerID: "trainer-1",
		Nodes:     []domain.Node{{ID: "start", Type: domain.NodeTypeStart}},
	}
	require.NoError(t, store.SaveFlow(ctx, flow))

	loaded, err := store.GetFlow(ctx, "f1")
	require.NoError(t, err)
	loaded.Nodes[0].ID = "mutated"

	again, err := store.GetFlow(ctx, "f1")
	require.NoError(t, err)
	assert.Equal(t, "start", again.Nodes[0].ID, "stored flow must not alias returned copies")
}
