package tracker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drain(t *testing.T, tr *Tracker) []StreamEvent {
	t.Helper()
	var events []StreamEvent
	for ev := range tr.Stream() {
		events = append(events, ev)
	}
	return events
}

func TestRecordToolCall_EmitsStartAndEndTraceLines(t *testing.T) {
	tr := New("task1", "sess1")

	go func() {
		tr.RecordToolCallStart("read_file", map[string]any{"path": "a.txt"})
		tr.RecordToolCallEnd(ToolCall{Tool: "read_file", Success: true, DurationMs: 5})
		tr.Close()
	}()

	events := drain(t, tr)
	require.Len(t, events, 3)
	assert.Equal(t, EventToolCallStart, events[0].Kind)
	assert.Equal(t, EventToolCallEnd, events[1].Kind)
	assert.Equal(t, StreamSummary, events[2].Type)

	require.Len(t, tr.ToolCalls(), 1)
	assert.Equal(t, "read_file", tr.ToolCalls()[0].Tool)
}

func TestRecordTransfer_AppearsInTrace(t *testing.T) {
	tr := New("task1", "sess1")
	confidence := 0.42

	go func() {
		tr.RecordTransfer(AgentTransfer{From: "GENERAL_CHAT", To: "CODE_DEVELOPMENT", Reason: "keyword match", Confidence: &confidence})
		tr.Close()
	}()

	events := drain(t, tr)
	require.Len(t, events, 2)
	assert.Equal(t, EventAgentTransfer, events[0].Kind)
	require.Len(t, tr.Transfers(), 1)
	assert.Equal(t, "CODE_DEVELOPMENT", tr.Transfers()[0].To)
}

func TestClose_IsIdempotent(t *testing.T) {
	tr := New("task1", "sess1")
	go func() {
		tr.Close()
		tr.Close()
	}()
	events := drain(t, tr)
	assert.Len(t, events, 1)
}

func TestSummary_ReflectsElapsedTime(t *testing.T) {
	tr := New("task1", "sess1")
	time.Sleep(time.Millisecond)
	summary := tr.Summary()
	assert.GreaterOrEqual(t, summary.ElapsedMs, int64(0))
}

func TestRegistry_GetOrCreateReusesExistingTracker(t *testing.T) {
	r := NewRegistry(8)
	a := r.GetOrCreate("task1", "sess1")
	b := r.GetOrCreate("task1", "sess1")
	assert.Same(t, a, b)
	assert.Equal(t, 1, r.Len())

	r.Remove("task1", "sess1")
	assert.Equal(t, 0, r.Len())
}
