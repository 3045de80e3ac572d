package client

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/metrics", r.URL.Path)
		w.Write([]byte(`[{"timestamp":1700000000.5,"model":"mistralai/mistral-nemo","latency":1.25,"success":true,"tokens":320}]`))
	})

	got, err := c.Metrics(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(1700000000), got[0].Time().Unix())
	assert.Equal(t, 320, got[0].Tokens)
}

func TestSummarizeMetrics(t *testing.T) {
	entries := []MetricEntry{
		{Model: "a/x", Latency: 1, Success: true, Tokens: 10},
		{Model: "a/x", Latency: 3, Success: true, Tokens: 20},
		{Model: "a/x", Latency: 99, Success: false},
		{Model: "b/y", Latency: 0.5, Success: true, Tokens: 5},
		{Model: "c/z", Success: false},
	}

	got := SummarizeMetrics(entries)

	want := []ModelStats{
		{Model: "a/x", Calls: 3, Failures: 1, MeanLatency: 2 * time.Second, Tokens: 30},
		{Model: "b/y", Calls: 1, MeanLatency: 500 * time.Millisecond, Tokens: 5},
		{Model: "c/z", Calls: 1, Failures: 1},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("SummarizeMetrics() mismatch (-want +got):\n%s", diff)
	}

	assert.InDelta(t, 2.0/3.0, got[0].SuccessRate(), 1e-9)
	assert.Zero(t, got[2].SuccessRate())
	assert.Zero(t, ModelStats{}.SuccessRate())
}

func TestSummarizeMetricsEmpty(t *testing.T) {
	assert.Empty(t, SummarizeMetrics(nil))
}
