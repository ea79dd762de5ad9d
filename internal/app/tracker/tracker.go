// Package tracker implements a per-(task_id, session_id) trace of tool
// calls, agent transfers, and activities, plus the channel of
// StreamEvents the HTTP façade relays to the caller.
package tracker

import (
	"strconv"
	"sync"
	"time"
)

// EventKind names one trace-line boundary.
type EventKind string

const (
	EventAgentRouting     EventKind = "AGENT_ROUTING"
	EventToolCallStart    EventKind = "TOOL_CALL_START"
	EventToolCallEnd      EventKind = "TOOL_CALL_END"
	EventAgentTransfer    EventKind = "AGENT_TRANSFER"
	EventError            EventKind = "ERROR"
	EventExecutionSummary EventKind = "EXECUTION_SUMMARY"
)

// Activity is one recorded agent action.
type Activity struct {
	Agent       string         `json:"agent"`
	ActionType  string         `json:"action_type"`
	Description string         `json:"description"`
	Details     map[string]any `json:"details,omitempty"`
	Success     bool           `json:"success"`
	Error       string         `json:"error,omitempty"`
	Timestamp   time.Time      `json:"ts"`
}

// ToolCall is one recorded tool invocation.
type ToolCall struct {
	Tool          string         `json:"tool"`
	Params        map[string]any `json:"params,omitempty"`
	ResultPreview string         `json:"result_preview,omitempty"`
	Success       bool           `json:"success"`
	Error         string         `json:"error,omitempty"`
	DurationMs    int64          `json:"duration_ms"`
	Timestamp     time.Time      `json:"ts"`
}

// AgentTransfer is one recorded routing decision.
type AgentTransfer struct {
	From       string    `json:"from"`
	To         string    `json:"to"`
	Reason     string    `json:"reason"`
	Confidence *float64  `json:"confidence,omitempty"`
	Timestamp  time.Time `json:"ts"`
}

// StreamEventType is one of the four variants a streaming response
// interleaves.
type StreamEventType string

const (
	StreamProseChunk StreamEventType = "prose_chunk"
	StreamTraceLine  StreamEventType = "trace_line"
	StreamError      StreamEventType = "error"
	StreamSummary    StreamEventType = "summary"
)

// StreamEvent is one item delivered over a Tracker's Stream channel.
type StreamEvent struct {
	Type      StreamEventType `json:"type"`
	Text      string          `json:"text,omitempty"`
	Kind      EventKind       `json:"kind,omitempty"`
	Timestamp time.Time       `json:"ts"`
}

// Summary is the final stream event's payload.
type Summary struct {
	ElapsedMs      int64 `json:"elapsed_ms"`
	ToolCallCount  int   `json:"tool_call_count"`
	ActivityCount  int   `json:"activity_count"`
}

// Tracker accumulates one request's trace and fans it out as a channel of
// StreamEvents. It is safe for concurrent use; the stream channel has a
// single writer (the owning request handler) and is closed by Close.
type Tracker struct {
	TaskID    string
	SessionID string
	StartTime time.Time

	mu         sync.Mutex
	activities []Activity
	toolCalls  []ToolCall
	transfers  []AgentTransfer

	stream   chan StreamEvent
	now      func() time.Time
	closeOne sync.Once
}

// New constructs a Tracker for one (taskID, sessionID) pair.
func New(taskID, sessionID string) *Tracker {
	now := time.Now
	return &Tracker{
		TaskID:    taskID,
		SessionID: sessionID,
		StartTime: now(),
		stream:    make(chan StreamEvent, 64),
		now:       now,
	}
}

// Stream returns the channel of StreamEvents for this request. The caller
// must drain it until it closes.
func (t *Tracker) Stream() <-chan StreamEvent { return t.stream }

// RecordActivity appends an Activity to the trace. It emits no stream
// event.
func (t *Tracker) RecordActivity(a Activity) {
	a.Timestamp = t.now()
	t.mu.Lock()
	t.activities = append(t.activities, a)
	t.mu.Unlock()
}

// RecordToolCallStart emits TOOL_CALL_START immediately; the paired
// RecordToolCallEnd records the completed ToolCall and emits
// TOOL_CALL_END.
func (t *Tracker) RecordToolCallStart(tool string, params map[string]any) {
	t.emitTrace(EventToolCallStart, "tool_call_start:"+tool)
}

// RecordToolCallEnd appends the completed ToolCall and emits its trace line.
func (t *Tracker) RecordToolCallEnd(tc ToolCall) {
	tc.Timestamp = t.now()
	t.mu.Lock()
	t.toolCalls = append(t.toolCalls, tc)
	t.mu.Unlock()
	t.emitTrace(EventToolCallEnd, "tool_call_end:"+tc.Tool)
}

// RecordTransfer appends an AgentTransfer and emits its trace line.
func (t *Tracker) RecordTransfer(tr AgentTransfer) {
	tr.Timestamp = t.now()
	t.mu.Lock()
	t.transfers = append(t.transfers, tr)
	t.mu.Unlock()
	t.emitTrace(EventAgentTransfer, "transfer:"+tr.From+"->"+tr.To)
}

// EmitProse sends a prose chunk from the LLM.
func (t *Tracker) EmitProse(text string) {
	t.send(StreamEvent{Type: StreamProseChunk, Text: text, Timestamp: t.now()})
}

// EmitError sends an error chunk. It records no Activity.
func (t *Tracker) EmitError(msg string) {
	t.send(StreamEvent{Type: StreamError, Text: msg, Kind: EventError, Timestamp: t.now()})
}

func (t *Tracker) emitTrace(kind EventKind, text string) {
	t.send(StreamEvent{Type: StreamTraceLine, Text: text, Kind: kind, Timestamp: t.now()})
}

func (t *Tracker) send(ev StreamEvent) {
	defer func() { recover() }() // tolerate sends racing a Close
	t.stream <- ev
}

// Summary returns the final counts for the EXECUTION_SUMMARY event.
func (t *Tracker) Summary() Summary {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Summary{
		ElapsedMs:     t.now().Sub(t.StartTime).Milliseconds(),
		ToolCallCount: len(t.toolCalls),
		ActivityCount: len(t.activities),
	}
}

// Close emits the closing summary and closes the stream channel. Safe to
// call more than once.
func (t *Tracker) Close() {
	t.closeOne.Do(func() {
		summary := t.Summary()
		t.send(StreamEvent{Type: StreamSummary, Kind: EventExecutionSummary, Timestamp: t.now(),
			Text: formatSummary(summary)})
		close(t.stream)
	})
}

// Activities returns a copy of the recorded activities.
func (t *Tracker) Activities() []Activity {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Activity, len(t.activities))
	copy(out, t.activities)
	return out
}

// ToolCalls returns a copy of the recorded tool calls.
func (t *Tracker) ToolCalls() []ToolCall {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]ToolCall, len(t.toolCalls))
	copy(out, t.toolCalls)
	return out
}

// Transfers returns a copy of the recorded agent transfers.
func (t *Tracker) Transfers() []AgentTransfer {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]AgentTransfer, len(t.transfers))
	copy(out, t.transfers)
	return out
}

func formatSummary(s Summary) string {
	return "elapsed_ms=" + strconv.FormatInt(s.ElapsedMs, 10) +
		" tool_calls=" + strconv.Itoa(s.ToolCallCount) +
		" activities=" + strconv.Itoa(s.ActivityCount)
}
