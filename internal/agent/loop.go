// Package agent runs the tool-calling conversation loop: it alternates
// planning calls against the model gateway with batches of tool executions
// until the model produces a final answer or the round limit is hit.
package agent

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/contact4labs-eng/costwise/internal/config"
	"github.com/contact4labs-eng/costwise/internal/llm"
	"github.com/contact4labs-eng/costwise/internal/observability"
	"github.com/contact4labs-eng/costwise/internal/tools"
)

// chunkSize is the rune width of locally produced delta events.
const chunkSize = 48

// ChatMessage is one turn of the incoming conversation.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is one chat request for a tenant.
type Request struct {
	TenantID string
	Messages []ChatMessage
	Language string
}

// Options wires a Loop.
type Options struct {
	Gateway  llm.Gateway
	Executor *tools.Executor
	Registry *tools.Registry
	Agent    config.AgentConfig
	Model    config.ModelConfig
	Metrics  *observability.Metrics
	Logger   *zap.Logger
	Now      func() time.Time
}

// Loop orchestrates planning and tool execution for chat requests.
type Loop struct {
	gateway  llm.Gateway
	executor *tools.Executor
	registry *tools.Registry
	agent    config.AgentConfig
	model    config.ModelConfig
	metrics  *observability.Metrics
	logger   *zap.Logger
	now      func() time.Time
}

// New validates the options and builds a Loop.
func New(opts Options) (*Loop, error) {
	if opts.Gateway == nil {
		return nil, fmt.Errorf("agent: gateway is required")
	}
	if opts.Executor == nil {
		return nil, fmt.Errorf("agent: executor is required")
	}
	if opts.Registry == nil {
		return nil, fmt.Errorf("agent: registry is required")
	}
	if opts.Agent.MaxRounds <= 0 {
		return nil, fmt.Errorf("agent: max rounds must be positive")
	}
	if opts.Agent.MaxParallelTools <= 0 {
		opts.Agent.MaxParallelTools = 1
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Loop{
		gateway:  opts.Gateway,
		executor: opts.Executor,
		registry: opts.Registry,
		agent:    opts.Agent,
		model:    opts.Model,
		metrics:  opts.Metrics,
		logger:   opts.Logger,
		now:      opts.Now,
	}, nil
}

// Run starts one conversation. Validation failures are returned
// synchronously; everything after that arrives on the event channel, which
// is closed when the conversation ends. Events are emitted strictly in
// order: at most one tool_calls summary covering every round, zero or
// more delta, then exactly one done or error.
func (l *Loop) Run(ctx context.Context, req Request) (<-chan Event, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	messages := make([]llm.Message, 0, len(req.Messages))
	for _, m := range req.Messages {
		if m.Role == string(llm.RoleAssistant) {
			messages = append(messages, llm.AssistantText(m.Content))
		} else {
			messages = append(messages, llm.UserText(m.Content))
		}
	}

	events := make(chan Event, 8)
	go l.run(ctx, req, messages, events)
	return events, nil
}

func validate(req Request) error {
	if strings.TrimSpace(req.TenantID) == "" {
		return fmt.Errorf("tenant_id is required")
	}
	if len(req.Messages) == 0 {
		return fmt.Errorf("messages must not be empty")
	}
	for i, m := range req.Messages {
		if m.Role != string(llm.RoleUser) && m.Role != string(llm.RoleAssistant) {
			return fmt.Errorf("messages[%d]: role must be user or assistant", i)
		}
		if strings.TrimSpace(m.Content) == "" {
			return fmt.Errorf("messages[%d]: content must not be empty", i)
		}
	}
	if req.Messages[len(req.Messages)-1].Role != string(llm.RoleUser) {
		return fmt.Errorf("last message must be from the user")
	}
	return nil
}

func (l *Loop) run(ctx context.Context, req Request, messages []llm.Message, events chan<- Event) {
	defer close(events)
	start := l.now()
	logger := l.logger.With(zap.String("tenant_id", req.TenantID))

	system := BuildSystemPrompt(languageOrDefault(req.Language, l.agent.DefaultLanguage), l.now().UTC().Format("2006-01-02"))
	toolDefs := l.registry.ToolDefs()

	var accumulated strings.Builder
	var allCalls []ToolCallSummary
	rounds := 0
	for {
		resp, err := l.gateway.Plan(ctx, llm.PlanRequest{
			System:      system,
			Messages:    messages,
			Tools:       toolDefs,
			MaxTokens:   l.model.MaxTokens,
			Temperature: l.model.Temperature,
		})
		if err != nil {
			l.metrics.RecordModelFailure("plan")
			l.finish(events, start, rounds, Event{Type: EventError, Err: fmt.Errorf("model planning failed: %w", err)})
			return
		}
		accumulated.WriteString(resp.Text())

		uses := resp.ToolUses()
		wantsTools := resp.StopReason == llm.StopToolUse && len(uses) > 0
		if !wantsTools {
			l.emitToolSummary(events, allCalls)
			l.stream(ctx, events, start, rounds, messages, system, resp.Text())
			return
		}
		if rounds >= l.agent.MaxRounds {
			logger.Warn("round limit reached, aborting", zap.Int("rounds", rounds))
			l.emitToolSummary(events, allCalls)
			l.emitChunks(events, accumulated.String())
			l.finish(events, start, rounds, Event{Type: EventDone, Status: StatusAbortedRoundLimit})
			return
		}

		for _, use := range uses {
			allCalls = append(allCalls, ToolCallSummary{Name: use.Name, Input: use.Input})
		}

		logger.Debug("executing tool batch", zap.Int("round", rounds), zap.Int("tools", len(uses)))
		results := l.executeBatch(ctx, req.TenantID, uses)

		messages = append(messages, llm.Message{Role: llm.RoleAssistant, Blocks: resp.Blocks})
		messages = append(messages, llm.Message{Role: llm.RoleUser, Blocks: results})
		rounds++
	}
}

// executeBatch runs one batch of tool invocations concurrently, bounded by
// the configured parallelism. Results come back in call order; individual
// failures become error results without affecting their siblings.
func (l *Loop) executeBatch(ctx context.Context, tenantID string, uses []llm.ToolUseBlock) []llm.ContentBlock {
	results := make([]llm.ContentBlock, len(uses))
	sem := make(chan struct{}, l.agent.MaxParallelTools)
	var wg sync.WaitGroup

	for i, use := range uses {
		wg.Add(1)
		go func(i int, use llm.ToolUseBlock) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			res := l.executor.Execute(ctx, tenantID, use.Name, use.Input)
			results[i] = llm.ToolResultBlock{
				ToolUseID: use.ID,
				Content:   res.Content,
				IsError:   res.IsError,
			}
		}(i, use)
	}
	wg.Wait()
	return results
}

// stream delivers the final answer. With final streaming enabled the
// answer is regenerated token by token through the gateway; otherwise the
// planned text is chunked locally. Either way the delta events concatenate
// to the exact final text.
func (l *Loop) stream(ctx context.Context, events chan<- Event, start time.Time, rounds int, messages []llm.Message, system, planned string) {
	if !l.agent.FinalStream {
		l.emitChunks(events, planned)
		l.finish(events, start, rounds, Event{Type: EventDone, Status: StatusDone})
		return
	}

	chunks, errCh := l.gateway.StreamFinal(ctx, llm.PlanRequest{
		System:      system,
		Messages:    messages,
		MaxTokens:   l.model.MaxTokens,
		Temperature: l.model.Temperature,
	})
	for chunk := range chunks {
		if chunk.Done {
			break
		}
		if chunk.Text != "" {
			events <- Event{Type: EventDelta, Delta: chunk.Text}
		}
	}
	if err := <-errCh; err != nil {
		l.metrics.RecordModelFailure("stream")
		l.finish(events, start, rounds, Event{Type: EventError, Err: fmt.Errorf("final answer stream failed: %w", err)})
		return
	}
	l.finish(events, start, rounds, Event{Type: EventDone, Status: StatusDone})
}

// emitToolSummary announces every tool call made across all rounds, in
// invocation order. Nothing is emitted when no tools ran.
func (l *Loop) emitToolSummary(events chan<- Event, calls []ToolCallSummary) {
	if len(calls) == 0 {
		return
	}
	events <- Event{Type: EventToolCalls, Tools: calls}
}

// emitChunks splits text into fixed-width rune windows and emits each as a
// delta event. Concatenating the deltas reproduces text exactly.
func (l *Loop) emitChunks(events chan<- Event, text string) {
	runes := []rune(text)
	for offset := 0; offset < len(runes); offset += chunkSize {
		end := offset + chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		events <- Event{Type: EventDelta, Delta: string(runes[offset:end])}
	}
}

func (l *Loop) finish(events chan<- Event, start time.Time, rounds int, terminal Event) {
	outcome := terminal.Status
	if terminal.Type == EventError {
		outcome = "error"
	}
	l.metrics.RecordChat(outcome, l.now().Sub(start), rounds)
	events <- terminal
}

func languageOrDefault(requested, fallback string) string {
	if strings.TrimSpace(requested) != "" {
		return requested
	}
	return fallback
}
