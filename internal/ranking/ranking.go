// internal/ranking/ranking.go
package ranking

import (
	"regexp"
	"sort"
	"strings"

	"synapse/internal/council"
)

// Marker introduces the ordered list at the end of a stage 2 critique
const Marker = "FINAL RANKING:"

var labelPattern = regexp.MustCompile(`Response [A-Z]`)

// ParseRanking extracts the "Response X" labels in ranked order. Only the text
// after the first FINAL RANKING: marker is searched when the marker is present.
// A label repeated later in the list keeps its first position.
func ParseRanking(text string) []string {
	if _, after, found := strings.Cut(text, Marker); found {
		text = after
	}

	matches := labelPattern.FindAllString(text, -1)
	seen := make(map[string]bool, len(matches))
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		if seen[m] {
			continue
		}
		seen[m] = true
		out = append(out, m)
	}
	return out
}

// Fill returns a copy of results with ParsedRanking populated from the raw
// ranking text wherever the backend left it empty
func Fill(results []council.StageTwoResult) []council.StageTwoResult {
	out := make([]council.StageTwoResult, len(results))
	for i, r := range results {
		if len(r.ParsedRanking) == 0 {
			r.ParsedRanking = ParseRanking(r.Ranking)
		}
		out[i] = r
	}
	return out
}

// Aggregate averages each label's 1-based position across all rankers.
// The result is sorted best first; ties break on label.
func Aggregate(results []council.StageTwoResult, labelToModel map[string]string) []council.AggregateRanking {
	positions := make(map[string][]int)
	for _, r := range results {
		parsed := r.ParsedRanking
		if len(parsed) == 0 {
			parsed = ParseRanking(r.Ranking)
		}
		for i, label := range parsed {
			positions[label] = append(positions[label], i+1)
		}
	}

	out := make([]council.AggregateRanking, 0, len(positions))
	for label, ps := range positions {
		sum := 0
		for _, p := range ps {
			sum += p
		}
		out = append(out, council.AggregateRanking{
			Label:         label,
			Model:         labelToModel[label],
			AverageRank:   float64(sum) / float64(len(ps)),
			RankingsCount: len(ps),
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].AverageRank != out[j].AverageRank {
			return out[i].AverageRank < out[j].AverageRank
		}
		return out[i].Label < out[j].Label
	})
	return out
}

// Enrich fills in parsed rankings and aggregate rankings on an assistant
// message when the backend did not send them. The input is not modified.
func Enrich(msg council.Message) council.Message {
	if msg.Stage2 == nil {
		return msg
	}
	msg.Stage2 = Fill(msg.Stage2)

	var meta council.RankingMetadata
	if msg.Metadata != nil {
		meta = *msg.Metadata
	}
	if len(meta.AggregateRankings) == 0 {
		meta.AggregateRankings = Aggregate(msg.Stage2, meta.LabelToModel)
	}
	msg.Metadata = &meta
	return msg
}
