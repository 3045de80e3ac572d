// internal/client/metrics.go
package client

import (
	"context"
	"net/http"
	"sort"
	"time"
)

// MetricEntry is one model call as recorded by the backend
type MetricEntry struct {
	Timestamp float64 `json:"timestamp"` // unix seconds
	Model     string  `json:"model"`
	Latency   float64 `json:"latency"` // seconds
	Success   bool    `json:"success"`
	Tokens    int     `json:"tokens"`
}

// Time returns the entry's timestamp
func (m MetricEntry) Time() time.Time {
	sec := int64(m.Timestamp)
	return time.Unix(sec, int64((m.Timestamp-float64(sec))*1e9))
}

// ModelStats summarizes all calls to one model
type ModelStats struct {
	Model       string
	Calls       int
	Failures    int
	MeanLatency time.Duration
	Tokens      int
}

// SuccessRate is the fraction of successful calls
func (s ModelStats) SuccessRate() float64 {
	if s.Calls == 0 {
		return 0
	}
	return float64(s.Calls-s.Failures) / float64(s.Calls)
}

// Metrics fetches the backend's raw model call log
func (c *Client) Metrics(ctx context.Context) ([]MetricEntry, error) {
	var out []MetricEntry
	if err := c.doJSON(ctx, http.MethodGet, "/api/metrics", nil, true, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SummarizeMetrics groups entries per model, sorted by call count then name.
// Mean latency covers successful calls only.
func SummarizeMetrics(entries []MetricEntry) []ModelStats {
	byModel := make(map[string]*ModelStats)
	latency := make(map[string]float64)

	for _, e := range entries {
		s, ok := byModel[e.Model]
		if !ok {
			s = &ModelStats{Model: e.Model}
			byModel[e.Model] = s
		}
		s.Calls++
		s.Tokens += e.Tokens
		if !e.Success {
			s.Failures++
			continue
		}
		latency[e.Model] += e.Latency
	}

	out := make([]ModelStats, 0, len(byModel))
	for model, s := range byModel {
		if ok := s.Calls - s.Failures; ok > 0 {
			s.MeanLatency = time.Duration(latency[model] / float64(ok) * float64(time.Second))
		}
		out = append(out, *s)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Calls != out[j].Calls {
			return out[i].Calls > out[j].Calls
		}
		return out[i].Model < out[j].Model
	})
	return out
}
