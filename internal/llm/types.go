package llm

import (
	"context"
	"encoding/json"
	"strings"
)

// Role is the message role used in chat exchanges.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// StopReason signals why a planning call ended.
type StopReason string

const (
	// StopToolUse means the model wants one or more tools executed.
	StopToolUse StopReason = "tool_use"
	// StopEnd means the model produced a final answer.
	StopEnd StopReason = "end"
	// StopMaxTokens means generation was cut off by the token limit.
	StopMaxTokens StopReason = "max_tokens"
)

// ContentBlock is one unit of model input or output: text, a tool-use
// request, or a tool result. Consumers switch exhaustively on the concrete
// type.
type ContentBlock interface {
	isContentBlock()
}

// TextBlock carries plain assistant or user text.
type TextBlock struct {
	Text string
}

// ToolUseBlock is a model-initiated tool invocation. ID is the opaque
// correlation id matched by the following ToolResultBlock.
type ToolUseBlock struct {
	ID    string
	Name  string
	Input json.RawMessage
}

// ToolResultBlock carries the serialized outcome of one tool invocation.
// Content is always a JSON string, success or error.
type ToolResultBlock struct {
	ToolUseID string
	Content   string
	IsError   bool
}

func (TextBlock) isContentBlock()       {}
func (ToolUseBlock) isContentBlock()    {}
func (ToolResultBlock) isContentBlock() {}

// Message is a single conversation turn.
type Message struct {
	Role   Role
	Blocks []ContentBlock
}

// UserText builds a user turn holding plain text.
func UserText(text string) Message {
	return Message{Role: RoleUser, Blocks: []ContentBlock{TextBlock{Text: text}}}
}

// AssistantText builds an assistant turn holding plain text.
func AssistantText(text string) Message {
	return Message{Role: RoleAssistant, Blocks: []ContentBlock{TextBlock{Text: text}}}
}

// ToolDef describes one callable tool published to the model.
type ToolDef struct {
	Name        string
	Description string
	InputSchema json.RawMessage
}

// PlanRequest is the input for both gateway entry points.
type PlanRequest struct {
	System      string
	Messages    []Message
	Tools       []ToolDef
	MaxTokens   int
	Temperature float64
}

// Usage captures token accounting.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// PlanResponse is the result of a non-streaming planning call.
type PlanResponse struct {
	StopReason StopReason
	Blocks     []ContentBlock
	Usage      Usage
}

// Text concatenates the text blocks of the response in order.
func (r PlanResponse) Text() string {
	var b strings.Builder
	for _, block := range r.Blocks {
		if t, ok := block.(TextBlock); ok {
			b.WriteString(t.Text)
		}
	}
	return b.String()
}

// ToolUses returns the tool-use blocks of the response in order.
func (r PlanResponse) ToolUses() []ToolUseBlock {
	var uses []ToolUseBlock
	for _, block := range r.Blocks {
		if u, ok := block.(ToolUseBlock); ok {
			uses = append(uses, u)
		}
	}
	return uses
}

// StreamChunk is emitted during streaming responses.
type StreamChunk struct {
	Text string
	Done bool
}

// Gateway is the contract for the model API.
//
// Plan is a single non-streaming request/response call that may return a
// final answer or a batch of tool invocations. StreamFinal is used once,
// after the loop has terminated, to deliver the user-visible answer
// incrementally; tools are never attached to it. A non-2xx response from
// the underlying API is a fatal error for the whole request on both paths.
type Gateway interface {
	Name() string
	Plan(ctx context.Context, req PlanRequest) (PlanResponse, error)
	StreamFinal(ctx context.Context, req PlanRequest) (<-chan StreamChunk, <-chan error)
}
