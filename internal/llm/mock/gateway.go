package mock

import (
	"context"

	"github.com/contact4labs-eng/costwise/internal/llm"
)

// Gateway is a test double implementing llm.Gateway.
type Gateway struct {
	NameValue    string
	PlanFn       func(ctx context.Context, req llm.PlanRequest) (llm.PlanResponse, error)
	StreamChunks []llm.StreamChunk
	StreamErr    error
}

func (g *Gateway) Name() string {
	if g.NameValue != "" {
		return g.NameValue
	}
	return "mock"
}

func (g *Gateway) Plan(ctx context.Context, req llm.PlanRequest) (llm.PlanResponse, error) {
	if g.PlanFn != nil {
		return g.PlanFn(ctx, req)
	}
	return llm.PlanResponse{
		StopReason: llm.StopEnd,
		Blocks:     []llm.ContentBlock{llm.TextBlock{Text: "mock"}},
	}, nil
}

func (g *Gateway) StreamFinal(ctx context.Context, req llm.PlanRequest) (<-chan llm.StreamChunk, <-chan error) {
	ch := make(chan llm.StreamChunk, len(g.StreamChunks)+1)
	errCh := make(chan error, 1)
	go func() {
		defer close(ch)
		defer close(errCh)
		for _, c := range g.StreamChunks {
			ch <- c
		}
		if g.StreamErr != nil {
			errCh <- g.StreamErr
			return
		}
		ch <- llm.StreamChunk{Done: true}
	}()
	return ch, errCh
}
