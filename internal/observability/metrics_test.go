package observability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsSnapshot(t *testing.T) {
	m := NewMetrics()
	m.RecordRequest("/api/Ticket", "GET", 200, 10*time.Millisecond)
	m.RecordRequest("/api/Ticket", "GET", 200, 30*time.Millisecond)
	m.RecordRequest("/api/Ticket", "POST", 400, time.Millisecond)
	m.RecordError("/api/Ticket", "POST", "VALIDATION_FAILED")

	snap := m.Snapshot()
	require.Len(t, snap.Requests, 2)
	assert.Equal(t, "GET", snap.Requests[0].Method)
	assert.Equal(t, int64(2), snap.Requests[0].Count)
	assert.InDelta(t, 20.0, snap.Requests[0].AvgMillis, 0.01)
	assert.Equal(t, 400, snap.Requests[1].Status)

	require.Len(t, snap.Errors, 1)
	assert.Equal(t, "VALIDATION_FAILED", snap.Errors[0].Code)
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.RecordRequest("/", "GET", 200, time.Millisecond)
	m.RecordError("/", "GET", "X")
	assert.Empty(t, m.Snapshot().Requests)
}
