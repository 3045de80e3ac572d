// internal/ui/transcript_test.go
package ui

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"synapse/internal/council"
)

func TestRenderConversationPlaceholders(t *testing.T) {
	assert.Contains(t, RenderConversation(nil, 3, nil, "*", 80), "No conversation open")
	assert.Contains(t, RenderConversation(&council.Conversation{ID: "c1"}, 3, nil, "*", 80), "Ask the council")
}

func TestRenderConversationStages(t *testing.T) {
	user, assistant := council.NewOptimisticExchange("Why is the sky blue?")
	assistant.Stage1 = []council.StageOneResult{{Role: "physicist", Model: "x/alpha", Response: "Rayleigh scattering."}}
	assistant.Loading.Stage1 = false
	assistant.Loading.Stage2 = true
	conv := &council.Conversation{ID: "c1", Messages: []council.Message{user, assistant}}

	out := RenderConversation(conv, 1, nil, "*", 80)
	assert.Contains(t, out, "Why is the sky blue?")
	assert.Contains(t, out, "PHYSICIST (alpha)")
	assert.Contains(t, out, "Rayleigh scattering.")

	out = RenderConversation(conv, 2, nil, "*", 80)
	assert.Contains(t, out, "Waiting for stage 2...")

	out = RenderConversation(conv, 3, nil, "*", 80)
	assert.Contains(t, out, "Stage 3 unavailable.")
}

func TestRenderFinalAnswer(t *testing.T) {
	msg := council.Message{
		Role:   council.RoleAssistant,
		Stage3: &council.StageThreeResult{Model: "x/chair", Response: "**Blue** light scatters more."},
		Metadata: &council.RankingMetadata{AggregateRankings: []council.AggregateRanking{
			{Label: "Response A", Model: "Physicist (x/alpha)", AverageRank: 1, RankingsCount: 2},
		}},
		Stage2: []council.StageTwoResult{{Model: "x/beta", Ranking: "FINAL RANKING:\n1. Response A", ParsedRanking: []string{"Response A"}}},
	}
	conv := &council.Conversation{Messages: []council.Message{msg}}

	out := RenderConversation(conv, 3, NewMarkdown("notty"), "*", 80)
	assert.Contains(t, out, "Chairman: chair")
	assert.Contains(t, out, "light scatters more.")

	out = RenderConversation(conv, 2, nil, "*", 80)
	assert.Contains(t, out, "Aggregate ranking")
	assert.Contains(t, out, "Physicist (x/alpha)")
	assert.Contains(t, out, "avg 1.00 (2 votes)")
}

func TestStageStatus(t *testing.T) {
	_, assistant := council.NewOptimisticExchange("q")
	status := StageStatus(assistant, "@")
	assert.Equal(t, 1, strings.Count(status, "@"), status)

	assistant.Loading = council.Loading{}
	assistant.Stage1 = []council.StageOneResult{}
	status = StageStatus(assistant, "@")
	assert.Equal(t, 1, strings.Count(status, "●"))
	assert.Equal(t, 2, strings.Count(status, "○"))
}
