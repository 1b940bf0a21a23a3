package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/contact4labs-eng/costwise/internal/observability"
)

// Result is the serialized outcome of one tool invocation. Content is
// always JSON, success or failure, so the model receives a uniform shape.
type Result struct {
	Content string
	IsError bool
}

// Executor validates and runs tool invocations. Failures never propagate
// as Go errors; they come back as error results for the model to read.
type Executor struct {
	registry *Registry
	metrics  *observability.Metrics
	logger   *zap.Logger
}

// NewExecutor wires an executor over a registry. Metrics and logger may be
// nil.
func NewExecutor(registry *Registry, metrics *observability.Metrics, logger *zap.Logger) *Executor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Executor{registry: registry, metrics: metrics, logger: logger}
}

// Execute runs one tool call for a tenant. Unknown tools, schema
// violations, handler errors, and panics all become IsError results.
func (e *Executor) Execute(ctx context.Context, tenantID, name string, input json.RawMessage) Result {
	desc, schema, ok := e.registry.Lookup(name)
	if !ok {
		e.metrics.RecordToolRun(name, "unknown")
		return errorResult(fmt.Sprintf("Unknown tool: %s", name))
	}

	if len(input) == 0 {
		input = json.RawMessage(`{}`)
	}

	var decoded interface{}
	if err := json.Unmarshal(input, &decoded); err != nil {
		e.metrics.RecordToolRun(name, "invalid_input")
		return errorResult(fmt.Sprintf("Invalid input for %s: not valid JSON: %v", name, err))
	}
	if err := schema.Validate(decoded); err != nil {
		e.metrics.RecordToolRun(name, "invalid_input")
		return errorResult(fmt.Sprintf("Invalid input for %s: %v", name, err))
	}

	value, err := e.run(ctx, desc, tenantID, input)
	if err != nil {
		e.metrics.RecordToolRun(name, "error")
		e.logger.Warn("tool execution failed",
			zap.String("tool", name),
			zap.String("tenant_id", tenantID),
			zap.Error(err))
		return errorResult(err.Error())
	}

	content, err := json.Marshal(value)
	if err != nil {
		e.metrics.RecordToolRun(name, "error")
		return errorResult(fmt.Sprintf("Tool %s produced an unserializable result: %v", name, err))
	}

	e.metrics.RecordToolRun(name, "ok")
	return Result{Content: string(content)}
}

// run isolates handler panics so a single bad tool cannot take down the
// whole request.
func (e *Executor) run(ctx context.Context, desc Descriptor, tenantID string, input json.RawMessage) (value interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("tool handler panicked",
				zap.String("tool", desc.Name),
				zap.Any("panic", r))
			err = fmt.Errorf("tool %s failed unexpectedly", desc.Name)
		}
	}()
	return desc.Handler(ctx, tenantID, input)
}

func errorResult(msg string) Result {
	content, _ := json.Marshal(map[string]string{"error": msg})
	return Result{Content: string(content), IsError: true}
}
