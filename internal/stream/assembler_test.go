package stream

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"synapse/internal/council"
)

func optimistic() Snapshot {
	_, assistant := council.NewOptimisticExchange("What is entropy?")
	return NewSnapshot(assistant)
}

func stageOne() []council.StageOneResult {
	return []council.StageOneResult{
		{Role: "scientist", Model: "deepseek/deepseek-chat", Response: "Entropy measures disorder."},
		{Role: "critic", Model: "meta-llama/llama-3.1-70b-instruct", Response: "Define disorder first."},
	}
}

func stageTwo() []council.StageTwoResult {
	return []council.StageTwoResult{
		{Model: "mistralai/mistral-nemo", Ranking: "FINAL RANKING:\n1. Response A\n2. Response B"},
	}
}

func stageThree() council.StageThreeResult {
	return council.StageThreeResult{Model: "mistralai/mistral-nemo", Response: "Entropy is..."}
}

func fullSequence() []Event {
	return []Event{
		Stage1Start{},
		Stage1Complete{Results: stageOne()},
		Stage2Start{},
		Stage2Complete{Results: stageTwo(), Metadata: &council.RankingMetadata{}},
		Stage3Start{},
		Stage3Complete{Result: stageThree()},
		Complete{},
	}
}

func TestAdvanceFullSequence(t *testing.T) {
	snap := optimistic()
	phases := []Phase{snap.Phase}

	for _, ev := range fullSequence() {
		snap = Advance(snap, ev)
		if phases[len(phases)-1] != snap.Phase {
			phases = append(phases, snap.Phase)
		}
	}

	assert.Equal(t, []Phase{PhaseIdle, PhaseStage1Pending, PhaseStage2Pending, PhaseStage3Pending, PhaseDone}, phases)
	assert.True(t, snap.Done())
	assert.Len(t, snap.Message.Stage1, 2)
	assert.Len(t, snap.Message.Stage2, 1)
	require.NotNil(t, snap.Message.Stage3)
	assert.Equal(t, "Entropy is...", snap.Message.Stage3.Response)
	assert.NotNil(t, snap.Message.Metadata)
	assert.Equal(t, council.Loading{}, snap.Message.Loading)
}

func TestAdvanceLoadingFlagsPerStep(t *testing.T) {
	tests := []struct {
		name string
		ev   Event
		want council.Loading
	}{
		{"stage1_start", Stage1Start{}, council.Loading{Stage1: true}},
		{"stage1_complete", Stage1Complete{Results: stageOne()}, council.Loading{Stage2: true}},
		{"stage2_start", Stage2Start{}, council.Loading{Stage2: true}},
		{"stage2_complete", Stage2Complete{Results: stageTwo()}, council.Loading{Stage3: true}},
		{"stage3_start", Stage3Start{}, council.Loading{Stage3: true}},
		{"stage3_complete", Stage3Complete{Result: stageThree()}, council.Loading{}},
	}

	snap := optimistic()
	for _, tt := range tests {
		snap = Advance(snap, tt.ev)
		assert.Equal(t, tt.want, snap.Message.Loading, tt.name)
	}
}

func TestAdvanceCompleteWithoutStart(t *testing.T) {
	snap := NewSnapshot(council.Message{Role: council.RoleAssistant})

	snap = Advance(snap, Stage1Complete{Results: stageOne()})

	assert.NotNil(t, snap.Message.Stage1)
	assert.False(t, snap.Message.Loading.Stage1)
	assert.True(t, snap.Message.Loading.Stage2)
	assert.Equal(t, PhaseStage2Pending, snap.Phase)
}

func TestAdvanceIsPure(t *testing.T) {
	before := Advance(optimistic(), Stage1Start{})
	after := Advance(before, Stage1Complete{Results: stageOne()})

	assert.Nil(t, before.Message.Stage1)
	assert.True(t, before.Message.Loading.Stage1)
	assert.Equal(t, PhaseStage1Pending, before.Phase)
	assert.NotNil(t, after.Message.Stage1)

	again := Advance(before, Stage1Complete{Results: stageOne()})
	assert.Equal(t, after, again)
}

func TestAdvanceDoesNotAliasPayload(t *testing.T) {
	results := stageOne()
	snap := Advance(optimistic(), Stage1Complete{Results: results})

	results[0].Response = "mutated"
	assert.Equal(t, "Entropy measures disorder.", snap.Message.Stage1[0].Response)
}

func TestAdvanceNeverOverwritesStage(t *testing.T) {
	snap := optimistic()
	snap = Advance(snap, Stage1Complete{Results: stageOne()})
	snap = Advance(snap, Stage2Complete{Results: stageTwo()})

	dup := Advance(snap, Stage1Complete{Results: []council.StageOneResult{{Role: "impostor"}}})
	assert.Equal(t, snap, dup)
	assert.Equal(t, "scientist", dup.Message.Stage1[0].Role)
	assert.True(t, dup.Message.Loading.Stage3)
	assert.False(t, dup.Message.Loading.Stage2)

	snap = Advance(snap, Stage3Complete{Result: stageThree()})
	dup = Advance(snap, Stage3Complete{Result: council.StageThreeResult{Response: "second"}})
	assert.Equal(t, "Entropy is...", dup.Message.Stage3.Response)
}

func TestAdvanceEmptyPayloadIsPresent(t *testing.T) {
	snap := Advance(optimistic(), Stage1Complete{})
	assert.NotNil(t, snap.Message.Stage1)
	assert.Empty(t, snap.Message.Stage1)
}

func TestAdvancePhaseIsMonotonic(t *testing.T) {
	snap := optimistic()
	snap = Advance(snap, Stage2Complete{Results: stageTwo()})
	assert.Equal(t, PhaseStage3Pending, snap.Phase)

	snap = Advance(snap, Stage1Start{})
	assert.Equal(t, PhaseStage3Pending, snap.Phase)
	assert.True(t, snap.Message.Loading.Stage1)
}

func TestAdvanceIgnoresEventsAfterTerminal(t *testing.T) {
	snap := optimistic()
	for _, ev := range fullSequence() {
		snap = Advance(snap, ev)
	}
	require.True(t, snap.Done())

	for _, ev := range []Event{Stage1Start{}, Stage3Start{}, GraphPartial{Graph: &council.ReasoningGraph{}}, Failed{Message: "late"}} {
		assert.NotPanics(t, func() {
			assert.Equal(t, snap, Advance(snap, ev))
		})
	}
}

func TestAdvanceUnknownIsNoop(t *testing.T) {
	snap := Advance(optimistic(), Stage1Start{})
	assert.Equal(t, snap, Advance(snap, Unknown{Name: "stage4_start"}))
	assert.Equal(t, snap, Advance(snap, nil))
}

func TestAdvanceGraphPartialReplaces(t *testing.T) {
	first := &council.ReasoningGraph{Nodes: []council.GraphNode{{ID: "a1", Type: council.NodeInitialAnswer}}}
	second := &council.ReasoningGraph{Nodes: []council.GraphNode{{ID: "a1"}, {ID: "s1"}}}

	snap := Advance(optimistic(), GraphPartial{Graph: first})
	assert.Same(t, first, snap.Message.Graph)
	assert.Equal(t, PhaseIdle, snap.Phase)

	snap = Advance(snap, GraphPartial{Graph: second})
	assert.Same(t, second, snap.Message.Graph)

	snap = Advance(snap, GraphPartial{})
	assert.Same(t, second, snap.Message.Graph)
}

func TestAdvanceFailed(t *testing.T) {
	snap := Advance(optimistic(), Stage1Complete{Results: stageOne()})
	snap = Advance(snap, Failed{Message: "No responses from Stage 1"})

	assert.Equal(t, PhaseFailed, snap.Phase)
	assert.Equal(t, "No responses from Stage 1", snap.Failure)
	assert.False(t, snap.Message.Loading.Any())
}

func TestAbort(t *testing.T) {
	snap := Advance(optimistic(), Stage2Complete{Results: stageTwo()})
	require.True(t, snap.Message.Loading.Stage3)

	aborted := Abort(snap, "closed")
	assert.Equal(t, PhaseFailed, aborted.Phase)
	assert.False(t, aborted.Message.Loading.Any())
	assert.True(t, snap.Message.Loading.Stage3, "input snapshot must not change")

	done := Advance(snap, Complete{})
	assert.Equal(t, done, Abort(done, "late"))
}

func TestPhaseString(t *testing.T) {
	assert.Equal(t, "stage2_pending", PhaseStage2Pending.String())
	assert.Equal(t, "unknown", Phase(42).String())
	assert.True(t, PhaseFailed.Terminal())
	assert.False(t, PhaseStage3Pending.Terminal())
}
