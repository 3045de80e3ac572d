package layout

import (
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"synapse/internal/council"
)

func pipelineGraph() *council.ReasoningGraph {
	return &council.ReasoningGraph{
		Nodes: []council.GraphNode{
			{ID: "a1", Type: council.NodeInitialAnswer, Role: "scientist", Model: "deepseek/deepseek-chat"},
			{ID: "a2", Type: council.NodeInitialAnswer, Role: "critic", Model: "meta-llama/llama-3.1-70b-instruct"},
			{ID: "c1", Type: council.NodeCritique, Role: "critic", Model: "meta-llama/llama-3.1-70b-instruct"},
			{ID: "s1", Type: council.NodeSynthesis, Role: "chairman", Model: "mistralai/mistral-nemo"},
		},
		Edges: []council.GraphEdge{
			{From: "a1", To: "c1", Relation: "critiques"},
			{From: "c1", To: "s1", Relation: "informs"},
		},
	}
}

func positions(r Result) map[string]Position {
	out := make(map[string]Position, len(r.Nodes))
	for _, n := range r.Nodes {
		out[n.ID] = n.Position
	}
	return out
}

func TestLayoutPipeline(t *testing.T) {
	got := Layout(pipelineGraph())

	want := map[string]Position{
		"a1": {X: 0, Y: 50},
		"a2": {X: 200, Y: 50},
		"c1": {X: 0, Y: 200},
		"s1": {X: 200, Y: 500},
	}
	if diff := cmp.Diff(want, positions(got)); diff != "" {
		t.Errorf("positions mismatch (-want +got):\n%s", diff)
	}

	wantEdges := []Edge{
		{ID: "e0", Source: "a1", Target: "c1", Label: "critiques", Animated: true, Style: EdgeStyle{Stroke: "#4b5563"}},
		{ID: "e1", Source: "c1", Target: "s1", Label: "informs", Animated: true, Style: EdgeStyle{Stroke: "#4b5563"}},
	}
	if diff := cmp.Diff(wantEdges, got.Edges); diff != "" {
		t.Errorf("edges mismatch (-want +got):\n%s", diff)
	}
}

func TestLayoutRankingRowCentered(t *testing.T) {
	g := &council.ReasoningGraph{}
	for _, id := range []string{"a1", "a2", "a3", "a4"} {
		g.Nodes = append(g.Nodes, council.GraphNode{ID: id, Type: council.NodeInitialAnswer})
	}
	g.Nodes = append(g.Nodes,
		council.GraphNode{ID: "r1", Type: council.NodeRanking},
		council.GraphNode{ID: "r2", Type: council.NodeRanking},
		council.GraphNode{ID: "s1", Type: council.NodeSynthesis},
	)

	pos := positions(Layout(g))
	assert.Equal(t, Position{X: 200, Y: 350}, pos["r1"])
	assert.Equal(t, Position{X: 400, Y: 350}, pos["r2"])
	assert.Equal(t, Position{X: 400, Y: 500}, pos["s1"])
}

func TestLayoutTierInvariants(t *testing.T) {
	g := pipelineGraph()
	g.Nodes = append(g.Nodes,
		council.GraphNode{ID: "a3", Type: council.NodeInitialAnswer},
		council.GraphNode{ID: "c2", Type: council.NodeCritique},
	)
	res := Layout(g)

	var initialY, critiqueY []float64
	var minX, maxX float64
	first := true
	var synthX float64
	for _, n := range res.Nodes {
		switch n.Type {
		case council.NodeInitialAnswer:
			initialY = append(initialY, n.Position.Y)
			if first {
				minX, maxX, first = n.Position.X, n.Position.X, false
			}
			minX = min(minX, n.Position.X)
			maxX = max(maxX, n.Position.X)
		case council.NodeCritique:
			critiqueY = append(critiqueY, n.Position.Y)
		case council.NodeSynthesis:
			synthX = n.Position.X
		}
	}

	require.Len(t, initialY, 3)
	require.Len(t, critiqueY, 2)
	for _, y := range initialY {
		assert.Equal(t, initialY[0], y)
	}
	for _, y := range critiqueY {
		assert.Equal(t, critiqueY[0], y)
	}
	assert.Greater(t, critiqueY[0], initialY[0])

	// midpoint of the span [minX, maxX+pitch)
	assert.Equal(t, (minX+maxX+DefaultOptions().Pitch)/2, synthX)
}

func TestLayoutEmpty(t *testing.T) {
	for name, g := range map[string]*council.ReasoningGraph{
		"nil":   nil,
		"empty": {Nodes: []council.GraphNode{}, Edges: []council.GraphEdge{}},
		"zero":  {},
	} {
		t.Run(name, func(t *testing.T) {
			res := Layout(g)
			assert.NotNil(t, res.Nodes)
			assert.NotNil(t, res.Edges)
			assert.Empty(t, res.Nodes)
			assert.Empty(t, res.Edges)
		})
	}
}

func TestLayoutUnknownTypeFallsIntoFirstTier(t *testing.T) {
	g := &council.ReasoningGraph{Nodes: []council.GraphNode{
		{ID: "a1", Type: council.NodeInitialAnswer},
		{ID: "x1", Type: "reflection"},
		{ID: "x2"},
	}}

	res := Layout(g)
	require.Len(t, res.Nodes, 3)
	for _, n := range res.Nodes {
		assert.Equal(t, 0, n.Tier, n.ID)
		assert.Equal(t, 50.0, n.Position.Y, n.ID)
	}
	assert.Equal(t, []string{"a1", "x1", "x2"}, []string{res.Nodes[0].ID, res.Nodes[1].ID, res.Nodes[2].ID})
	assert.Equal(t, 400.0, res.Nodes[2].Position.X)
}

func TestLayoutDanglingEdges(t *testing.T) {
	g := &council.ReasoningGraph{Edges: []council.GraphEdge{{From: "ghost", To: "nowhere", Relation: "haunts"}}}

	res := Layout(g)
	assert.Empty(t, res.Nodes)
	require.Len(t, res.Edges, 1)
	assert.Equal(t, "ghost", res.Edges[0].Source)
	assert.Equal(t, "nowhere", res.Edges[0].Target)
}

func TestLayoutCustomOptions(t *testing.T) {
	opts := Options{TopMargin: 10, RowSpacing: 100, Pitch: 50, LeftMargin: 250, NodeWidth: 40}

	pos := positions(opts.Layout(pipelineGraph()))
	assert.Equal(t, Position{X: 250, Y: 10}, pos["a1"])
	assert.Equal(t, Position{X: 300, Y: 10}, pos["a2"])
	assert.Equal(t, Position{X: 300, Y: 310}, pos["s1"])
}

func TestLayoutIsDeterministic(t *testing.T) {
	g := pipelineGraph()
	want := Layout(g)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Equal(t, want, Layout(g))
		}()
	}
	wg.Wait()
}

func TestLabel(t *testing.T) {
	tests := []struct {
		node council.GraphNode
		want string
	}{
		{council.GraphNode{Role: "scientist", Model: "deepseek/deepseek-chat"}, "SCIENTIST\ndeepseek-chat"},
		{council.GraphNode{Role: "chairman", Model: "local-model"}, "CHAIRMAN\nlocal-model"},
		{council.GraphNode{}, "\n"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Label(tt.node))
	}
}

func TestBounds(t *testing.T) {
	w, h := Layout(pipelineGraph()).Bounds(150)
	assert.Equal(t, 350.0, w)
	assert.Equal(t, 500.0, h)
}
