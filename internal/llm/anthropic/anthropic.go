// Package anthropic implements the llm.Gateway contract on top of the
// official Anthropic SDK. Planning uses the non-streaming messages call;
// the final user-visible answer is obtained through the streaming variant.
package anthropic

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/contact4labs-eng/costwise/internal/llm"
)

// Gateway wraps the Anthropic messages API.
type Gateway struct {
	client anthropic.Client
	model  string
}

// Options configures the gateway.
type Options struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// NewGateway constructs a gateway with sane defaults.
func NewGateway(opts Options) (*Gateway, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("anthropic: API key is required")
	}
	if opts.Model == "" {
		opts.Model = "claude-sonnet-4-20250514"
	}
	if opts.Timeout == 0 {
		opts.Timeout = 60 * time.Second
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(opts.APIKey),
		option.WithHTTPClient(&http.Client{Timeout: opts.Timeout}),
	}
	if strings.TrimSpace(opts.BaseURL) != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}

	return &Gateway{
		client: anthropic.NewClient(reqOpts...),
		model:  opts.Model,
	}, nil
}

// Name returns the gateway identifier.
func (g *Gateway) Name() string {
	return "anthropic"
}

// Plan executes a single non-streaming planning call. Any API error is
// returned as-is; the caller treats it as fatal for the request.
func (g *Gateway) Plan(ctx context.Context, req llm.PlanRequest) (llm.PlanResponse, error) {
	params, err := g.buildParams(req)
	if err != nil {
		return llm.PlanResponse{}, err
	}

	msg, err := g.client.Messages.New(ctx, params)
	if err != nil {
		return llm.PlanResponse{}, fmt.Errorf("anthropic: plan call failed: %w", err)
	}

	blocks := make([]llm.ContentBlock, 0, len(msg.Content))
	for _, block := range msg.Content {
		switch block.Type {
		case "text":
			blocks = append(blocks, llm.TextBlock{Text: block.AsText().Text})
		case "tool_use":
			tu := block.AsToolUse()
			input, err := json.Marshal(tu.Input)
			if err != nil {
				return llm.PlanResponse{}, fmt.Errorf("anthropic: invalid tool input for %s: %w", tu.Name, err)
			}
			blocks = append(blocks, llm.ToolUseBlock{ID: tu.ID, Name: tu.Name, Input: input})
		}
	}

	return llm.PlanResponse{
		StopReason: mapStopReason(msg.StopReason),
		Blocks:     blocks,
		Usage: llm.Usage{
			InputTokens:  int(msg.Usage.InputTokens),
			OutputTokens: int(msg.Usage.OutputTokens),
		},
	}, nil
}

// StreamFinal streams the final answer token by token. Tool definitions on
// the request are ignored; the final call never plans.
func (g *Gateway) StreamFinal(ctx context.Context, req llm.PlanRequest) (<-chan llm.StreamChunk, <-chan error) {
	chunks := make(chan llm.StreamChunk, 16)
	errCh := make(chan error, 1)

	req.Tools = nil
	params, err := g.buildParams(req)
	if err != nil {
		errCh <- err
		close(chunks)
		close(errCh)
		return chunks, errCh
	}

	go func() {
		defer close(chunks)
		defer close(errCh)

		stream := g.client.Messages.NewStreaming(ctx, params)
		for stream.Next() {
			event := stream.Current()
			switch event.Type {
			case "content_block_delta":
				delta := event.AsContentBlockDelta().Delta
				if delta.Type == "text_delta" && delta.Text != "" {
					select {
					case chunks <- llm.StreamChunk{Text: delta.Text}:
					case <-ctx.Done():
						errCh <- ctx.Err()
						return
					}
				}
			case "message_stop":
				chunks <- llm.StreamChunk{Done: true}
				return
			}
		}
		if err := stream.Err(); err != nil {
			errCh <- fmt.Errorf("anthropic: stream failed: %w", err)
		}
	}()

	return chunks, errCh
}

func (g *Gateway) buildParams(req llm.PlanRequest) (anthropic.MessageNewParams, error) {
	messages, err := convertMessages(req.Messages)
	if err != nil {
		return anthropic.MessageNewParams{}, err
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 2048
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(g.model),
		Messages:  messages,
		MaxTokens: int64(maxTokens),
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Type: "text", Text: req.System}}
	}
	if req.Temperature > 0 {
		params.Temperature = anthropic.Float(req.Temperature)
	}
	if len(req.Tools) > 0 {
		tools, err := convertTools(req.Tools)
		if err != nil {
			return anthropic.MessageNewParams{}, err
		}
		params.Tools = tools
	}
	return params, nil
}

// convertMessages translates conversation turns into the Anthropic wire
// shape. Every turn becomes an ordered array of content block params.
func convertMessages(messages []llm.Message) ([]anthropic.MessageParam, error) {
	out := make([]anthropic.MessageParam, 0, len(messages))
	for _, msg := range messages {
		content := make([]anthropic.ContentBlockParamUnion, 0, len(msg.Blocks))
		for _, block := range msg.Blocks {
			switch b := block.(type) {
			case llm.TextBlock:
				content = append(content, anthropic.NewTextBlock(b.Text))
			case llm.ToolUseBlock:
				var input map[string]interface{}
				if err := json.Unmarshal(b.Input, &input); err != nil {
					return nil, fmt.Errorf("anthropic: invalid tool use input for %s: %w", b.Name, err)
				}
				content = append(content, anthropic.NewToolUseBlock(b.ID, input, b.Name))
			case llm.ToolResultBlock:
				content = append(content, anthropic.NewToolResultBlock(b.ToolUseID, b.Content, b.IsError))
			default:
				return nil, fmt.Errorf("anthropic: unsupported content block %T", block)
			}
		}

		if msg.Role == llm.RoleAssistant {
			out = append(out, anthropic.NewAssistantMessage(content...))
		} else {
			out = append(out, anthropic.NewUserMessage(content...))
		}
	}
	return out, nil
}

func convertTools(defs []llm.ToolDef) ([]anthropic.ToolUnionParam, error) {
	out := make([]anthropic.ToolUnionParam, 0, len(defs))
	for _, def := range defs {
		var schema anthropic.ToolInputSchemaParam
		if err := json.Unmarshal(def.InputSchema, &schema); err != nil {
			return nil, fmt.Errorf("anthropic: invalid schema for tool %s: %w", def.Name, err)
		}
		tool := anthropic.ToolUnionParamOfTool(schema, def.Name)
		if tool.OfTool == nil {
			return nil, fmt.Errorf("anthropic: invalid tool definition for %s", def.Name)
		}
		tool.OfTool.Description = anthropic.String(def.Description)
		out = append(out, tool)
	}
	return out, nil
}

func mapStopReason(reason anthropic.StopReason) llm.StopReason {
	switch reason {
	case anthropic.StopReasonToolUse:
		return llm.StopToolUse
	case anthropic.StopReasonMaxTokens:
		return llm.StopMaxTokens
	default:
		return llm.StopEnd
	}
}
