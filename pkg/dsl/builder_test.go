package dsl_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rehearse-dev/rehearse/pkg/domain"
	"github.com/rehearse-dev/rehearse/pkg/dsl"
	"github.com/rehearse-dev/rehearse/pkg/validator"
)

func TestBuilderBuildsValidFlow(t *testing.T) {
	b := dsl.New()
	b.Add("start").Start().Say("Welcome!").Go("q1")
	b.Add("q1").Question("yes").Say("Ready?").Match("d1", "yes")
	b.Add("d1").Decision("refund", "replace").Say("Pick one").
		Choice("end", "refund").
		Choice("end", "replace")
	b.Add("end").End().Say("Done.")

	nodes, edges := b.Build()

	require.Len(t, nodes, 4)
	require.Len(t, edges, 4)

	res := validator.Validate(nodes, edges)
	assert.True(t, res.IsValid, "builder output should validate: %v", res.Errors)
}

func TestBuilderNodeData(t *testing.T) {
	b := dsl.New()
	b.Add("q1").Question("yes", "ok").Say("Ready?").Retry("Say yes or no.")
	b.Add("v1").Media(domain.NodeTypeVideo, "https://cdn.example/v.mp4").Say("Watch")
	b.Add("a1").Assessment(80, 15)

	nodes, _ := b.Build()
	require.Len(t, nodes, 3)

	q, ok := nodes[0].Data.(domain.QuestionData)
	require.True(t, ok)
	assert.Equal(t, []string{"yes", "ok"}, q.Keywords)
	assert.Equal(t, "Say yes or no.", q.ErrorMessage)

	assert.Equal(t, "https://cdn.example/v.mp4", nodes[1].MediaURL())

	a, ok := nodes[2].Data.(domain.AssessmentData)
	require.True(t, ok)
	assert.Equal(t, 80, a.PassingScore)
	assert.Equal(t, 15, a.TimeLimit)
}

func TestBuilderDeterministicOrder(t *testing.T) {
	build := func() ([]domain.Node, []domain.Edge) {
		b := dsl.New()
		b.Add("start").Start().Go("end")
		b.Add("end").End()
		return b.Build()
	}

	n1, e1 := build()
	n2, e2 := build()
	assert.Equal(t, n1, n2)
	assert.Equal(t, e1, e2)
	assert.Equal(t, "e1", e1[0].ID)
}

func TestBuilderAddIsIdempotent(t *testing.T) {
	b := dsl.New()
	first := b.Add("n1")
	second := b.Add("n1").Say("appended")

	assert.Same(t, first, second)
	nodes, _ := b.Build()
	assert.Len(t, nodes, 1)
	assert.Equal(t, []string{"appended"}, nodes[0].Data.Lines())
}
