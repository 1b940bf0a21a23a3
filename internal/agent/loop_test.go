package agent

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/contact4labs-eng/costwise/internal/config"
	"github.com/contact4labs-eng/costwise/internal/llm"
	"github.com/contact4labs-eng/costwise/internal/llm/mock"
	"github.com/contact4labs-eng/costwise/internal/store"
	"github.com/contact4labs-eng/costwise/internal/store/storetest"
	"github.com/contact4labs-eng/costwise/internal/tools"
)

func testRegistry(t *testing.T) (*tools.Registry, *tools.Executor) {
	t.Helper()
	fake := &storetest.Fake{
		Revenue: []store.RevenueEntry{
			{ID: "r-1", TenantID: "tenant-a", Date: "2024-01-10", Source: "dine_in", Gross: 1000},
		},
	}
	catalog := &tools.Catalog{Store: fake, Now: func() time.Time {
		return time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	}}
	registry, err := tools.NewRegistry(catalog.Descriptors())
	require.NoError(t, err)
	return registry, tools.NewExecutor(registry, nil, nil)
}

func newTestLoop(t *testing.T, gateway llm.Gateway, agentCfg config.AgentConfig) *Loop {
	t.Helper()
	registry, executor := testRegistry(t)
	return newTestLoopWith(t, gateway, agentCfg, registry, executor)
}

func newTestLoopWith(t *testing.T, gateway llm.Gateway, agentCfg config.AgentConfig, registry *tools.Registry, executor *tools.Executor) *Loop {
	t.Helper()
	if agentCfg.MaxRounds == 0 {
		agentCfg.MaxRounds = 8
	}
	if agentCfg.MaxParallelTools == 0 {
		agentCfg.MaxParallelTools = 5
	}
	loop, err := New(Options{
		Gateway:  gateway,
		Executor: executor,
		Registry: registry,
		Agent:    agentCfg,
		Model:    config.ModelConfig{MaxTokens: 512},
	})
	require.NoError(t, err)
	return loop
}

func collect(t *testing.T, events <-chan Event) []Event {
	t.Helper()
	var out []Event
	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return out
			}
			out = append(out, ev)
		case <-timeout:
			t.Fatal("timed out waiting for events")
		}
	}
}

func userRequest(content string) Request {
	return Request{
		TenantID: "tenant-a",
		Messages: []ChatMessage{{Role: "user", Content: content}},
	}
}

func toolUseResponse(uses ...llm.ToolUseBlock) llm.PlanResponse {
	blocks := make([]llm.ContentBlock, 0, len(uses))
	for _, u := range uses {
		blocks = append(blocks, u)
	}
	return llm.PlanResponse{StopReason: llm.StopToolUse, Blocks: blocks}
}

func TestRunValidation(t *testing.T) {
	loop := newTestLoop(t, &mock.Gateway{}, config.AgentConfig{})
	ctx := context.Background()

	_, err := loop.Run(ctx, Request{Messages: []ChatMessage{{Role: "user", Content: "hi"}}})
	require.ErrorContains(t, err, "tenant_id")

	_, err = loop.Run(ctx, Request{TenantID: "t"})
	require.ErrorContains(t, err, "messages")

	_, err = loop.Run(ctx, Request{TenantID: "t", Messages: []ChatMessage{{Role: "system", Content: "x"}}})
	require.ErrorContains(t, err, "role")

	_, err = loop.Run(ctx, Request{TenantID: "t", Messages: []ChatMessage{
		{Role: "user", Content: "hi"},
		{Role: "assistant", Content: "hello"},
	}})
	require.ErrorContains(t, err, "last message")
}

func TestRunDirectAnswerChunksLocally(t *testing.T) {
	answer := "Your revenue was 1000.00 for January. That is all the data I have."
	gateway := &mock.Gateway{
		PlanFn: func(ctx context.Context, req llm.PlanRequest) (llm.PlanResponse, error) {
			return llm.PlanResponse{
				StopReason: llm.StopEnd,
				Blocks:     []llm.ContentBlock{llm.TextBlock{Text: answer}},
			}, nil
		},
	}
	loop := newTestLoop(t, gateway, config.AgentConfig{FinalStream: false})

	events, err := loop.Run(context.Background(), userRequest("revenue?"))
	require.NoError(t, err)
	got := collect(t, events)

	var rebuilt strings.Builder
	for _, ev := range got[:len(got)-1] {
		require.Equal(t, EventDelta, ev.Type)
		rebuilt.WriteString(ev.Delta)
	}
	require.Equal(t, answer, rebuilt.String())

	last := got[len(got)-1]
	require.Equal(t, EventDone, last.Type)
	require.Equal(t, StatusDone, last.Status)
}

func TestRunToolRoundTrip(t *testing.T) {
	var planCalls int
	var toolResults []llm.ToolResultBlock
	gateway := &mock.Gateway{
		PlanFn: func(ctx context.Context, req llm.PlanRequest) (llm.PlanResponse, error) {
			planCalls++
			if planCalls == 1 {
				require.NotEmpty(t, req.Tools)
				return toolUseResponse(llm.ToolUseBlock{
					ID:    "call-1",
					Name:  "query_revenue",
					Input: json.RawMessage(`{"from_date": "2024-01-01", "to_date": "2024-01-31"}`),
				}), nil
			}
			// Second round sees the tool result appended as a user turn.
			lastTurn := req.Messages[len(req.Messages)-1]
			require.Equal(t, llm.RoleUser, lastTurn.Role)
			for _, block := range lastTurn.Blocks {
				if tr, ok := block.(llm.ToolResultBlock); ok {
					toolResults = append(toolResults, tr)
				}
			}
			return llm.PlanResponse{
				StopReason: llm.StopEnd,
				Blocks:     []llm.ContentBlock{llm.TextBlock{Text: "Your revenue was reported above."}},
			}, nil
		},
	}
	loop := newTestLoop(t, gateway, config.AgentConfig{FinalStream: false})

	events, err := loop.Run(context.Background(), userRequest("how much revenue in January?"))
	require.NoError(t, err)
	got := collect(t, events)

	require.Equal(t, 2, planCalls)
	require.Equal(t, EventToolCalls, got[0].Type)
	require.Len(t, got[0].Tools, 1)
	require.Equal(t, "query_revenue", got[0].Tools[0].Name)

	require.Len(t, toolResults, 1)
	require.Equal(t, "call-1", toolResults[0].ToolUseID)
	require.False(t, toolResults[0].IsError)
	require.Contains(t, toolResults[0].Content, "1000.00")

	var rebuilt strings.Builder
	for _, ev := range got[1 : len(got)-1] {
		require.Equal(t, EventDelta, ev.Type)
		rebuilt.WriteString(ev.Delta)
	}
	require.Equal(t, "Your revenue was reported above.", rebuilt.String())
	require.Equal(t, StatusDone, got[len(got)-1].Status)
}

func TestRunRoundLimit(t *testing.T) {
	var planCalls int
	gateway := &mock.Gateway{
		PlanFn: func(ctx context.Context, req llm.PlanRequest) (llm.PlanResponse, error) {
			planCalls++
			return toolUseResponse(llm.ToolUseBlock{
				ID:    "loop",
				Name:  "query_fixed_costs",
				Input: json.RawMessage(`{}`),
			}), nil
		},
	}
	loop := newTestLoop(t, gateway, config.AgentConfig{MaxRounds: 3})

	events, err := loop.Run(context.Background(), userRequest("spin forever"))
	require.NoError(t, err)
	got := collect(t, events)

	// MaxRounds tool batches, then one more plan that still wants tools
	// and triggers the abort.
	require.Equal(t, 4, planCalls)

	// One summary event covering every round's calls.
	require.Equal(t, EventToolCalls, got[0].Type)
	require.Len(t, got[0].Tools, 3)

	last := got[len(got)-1]
	require.Equal(t, EventDone, last.Type)
	require.Equal(t, StatusAbortedRoundLimit, last.Status)
}

func TestRunPartialToolFailure(t *testing.T) {
	var planCalls int
	var toolResults []llm.ToolResultBlock
	gateway := &mock.Gateway{
		PlanFn: func(ctx context.Context, req llm.PlanRequest) (llm.PlanResponse, error) {
			planCalls++
			if planCalls == 1 {
				return toolUseResponse(
					llm.ToolUseBlock{ID: "ok", Name: "query_fixed_costs", Input: json.RawMessage(`{}`)},
					llm.ToolUseBlock{ID: "bad", Name: "no_such_tool", Input: json.RawMessage(`{}`)},
				), nil
			}
			lastTurn := req.Messages[len(req.Messages)-1]
			for _, block := range lastTurn.Blocks {
				if tr, ok := block.(llm.ToolResultBlock); ok {
					toolResults = append(toolResults, tr)
				}
			}
			return llm.PlanResponse{
				StopReason: llm.StopEnd,
				Blocks:     []llm.ContentBlock{llm.TextBlock{Text: "done"}},
			}, nil
		},
	}
	loop := newTestLoop(t, gateway, config.AgentConfig{FinalStream: false})

	events, err := loop.Run(context.Background(), userRequest("mixed batch"))
	require.NoError(t, err)
	collect(t, events)

	require.Len(t, toolResults, 2)
	require.Equal(t, "ok", toolResults[0].ToolUseID)
	require.False(t, toolResults[0].IsError)
	require.Equal(t, "bad", toolResults[1].ToolUseID)
	require.True(t, toolResults[1].IsError)
	require.Contains(t, toolResults[1].Content, "Unknown tool")
}

func TestRunParallelCap(t *testing.T) {
	var mu sync.Mutex
	var inFlight, peak int

	slow := tools.Descriptor{
		Name:        "slow_probe",
		Description: "records concurrency",
		InputSchema: json.RawMessage(`{"type": "object"}`),
		Handler: func(ctx context.Context, tenantID string, input json.RawMessage) (interface{}, error) {
			mu.Lock()
			inFlight++
			if inFlight > peak {
				peak = inFlight
			}
			mu.Unlock()
			time.Sleep(20 * time.Millisecond)
			mu.Lock()
			inFlight--
			mu.Unlock()
			return map[string]bool{"ok": true}, nil
		},
	}
	registry, err := tools.NewRegistry([]tools.Descriptor{slow})
	require.NoError(t, err)
	executor := tools.NewExecutor(registry, nil, nil)

	var planCalls int
	gateway := &mock.Gateway{
		PlanFn: func(ctx context.Context, req llm.PlanRequest) (llm.PlanResponse, error) {
			planCalls++
			if planCalls == 1 {
				uses := make([]llm.ToolUseBlock, 6)
				for i := range uses {
					uses[i] = llm.ToolUseBlock{ID: "c", Name: "slow_probe", Input: json.RawMessage(`{}`)}
				}
				return toolUseResponse(uses...), nil
			}
			return llm.PlanResponse{
				StopReason: llm.StopEnd,
				Blocks:     []llm.ContentBlock{llm.TextBlock{Text: "done"}},
			}, nil
		},
	}
	loop := newTestLoopWith(t, gateway, config.AgentConfig{MaxParallelTools: 2, FinalStream: false}, registry, executor)

	events, err := loop.Run(context.Background(), userRequest("probe"))
	require.NoError(t, err)
	collect(t, events)

	require.LessOrEqual(t, peak, 2)
	require.Greater(t, peak, 0)
}

func TestRunFinalStreamUsesGateway(t *testing.T) {
	gateway := &mock.Gateway{
		PlanFn: func(ctx context.Context, req llm.PlanRequest) (llm.PlanResponse, error) {
			return llm.PlanResponse{
				StopReason: llm.StopEnd,
				Blocks:     []llm.ContentBlock{llm.TextBlock{Text: "planned text"}},
			}, nil
		},
		StreamChunks: []llm.StreamChunk{{Text: "streamed "}, {Text: "answer"}},
	}
	loop := newTestLoop(t, gateway, config.AgentConfig{FinalStream: true})

	events, err := loop.Run(context.Background(), userRequest("stream it"))
	require.NoError(t, err)
	got := collect(t, events)

	var rebuilt strings.Builder
	for _, ev := range got[:len(got)-1] {
		require.Equal(t, EventDelta, ev.Type)
		rebuilt.WriteString(ev.Delta)
	}
	require.Equal(t, "streamed answer", rebuilt.String())
	require.Equal(t, StatusDone, got[len(got)-1].Status)
}

func TestRunPlanFailure(t *testing.T) {
	gateway := &mock.Gateway{
		PlanFn: func(ctx context.Context, req llm.PlanRequest) (llm.PlanResponse, error) {
			return llm.PlanResponse{}, errors.New("upstream 500")
		},
	}
	loop := newTestLoop(t, gateway, config.AgentConfig{})

	events, err := loop.Run(context.Background(), userRequest("fail"))
	require.NoError(t, err)
	got := collect(t, events)

	require.Len(t, got, 1)
	require.Equal(t, EventError, got[0].Type)
	require.ErrorContains(t, got[0].Err, "upstream 500")
}

func TestRunStreamFailure(t *testing.T) {
	gateway := &mock.Gateway{
		PlanFn: func(ctx context.Context, req llm.PlanRequest) (llm.PlanResponse, error) {
			return llm.PlanResponse{
				StopReason: llm.StopEnd,
				Blocks:     []llm.ContentBlock{llm.TextBlock{Text: "x"}},
			}, nil
		},
		StreamErr: errors.New("connection reset"),
	}
	loop := newTestLoop(t, gateway, config.AgentConfig{FinalStream: true})

	events, err := loop.Run(context.Background(), userRequest("fail"))
	require.NoError(t, err)
	got := collect(t, events)

	last := got[len(got)-1]
	require.Equal(t, EventError, last.Type)
	require.ErrorContains(t, last.Err, "connection reset")
}

func TestBuildSystemPrompt(t *testing.T) {
	prompt := BuildSystemPrompt("", "2024-03-15")
	require.Contains(t, prompt, "2024-03-15")
	require.Contains(t, prompt, "Respond in English.")

	prompt = BuildSystemPrompt("Greek", "2024-03-15")
	require.Contains(t, prompt, "Respond in Greek.")
}
