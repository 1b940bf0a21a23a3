package agent

import "encoding/json"

// EventType enumerates the events a running conversation emits.
type EventType string

const (
	// EventToolCalls announces the batch of tools about to run.
	EventToolCalls EventType = "tool_calls"
	// EventDelta carries one increment of the final answer text.
	EventDelta EventType = "delta"
	// EventDone closes the stream with the terminal status.
	EventDone EventType = "done"
	// EventError reports a fatal failure; no further events follow.
	EventError EventType = "error"
)

// Terminal statuses carried by EventDone.
const (
	StatusDone              = "done"
	StatusAbortedRoundLimit = "aborted_round_limit"
)

// ToolCallSummary is the announcement of one pending tool invocation.
type ToolCallSummary struct {
	Name  string          `json:"name"`
	Input json.RawMessage `json:"input"`
}

// Event is one item on the conversation's output stream. Exactly one of
// the payload fields is meaningful per type.
type Event struct {
	Type   EventType
	Tools  []ToolCallSummary
	Delta  string
	Status string
	Err    error
}
