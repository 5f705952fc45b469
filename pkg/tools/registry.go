package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"mercator-hq/procurement/pkg/telemetry/metrics"
	"mercator-hq/procurement/pkg/telemetry/tracing"
)

// Tool describes a named operation and its JSON-schema parameters.
type Tool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// Handler is the function signature for tool implementations.
// Handlers receive the request context and JSON-encoded arguments.
type Handler func(ctx context.Context, args json.RawMessage) (Result, error)

// Result is the output of a tool call. IsError signals a typed failure
// described by Error; Content may still be set, for example a decision that
// stands despite a failed audit write.
type Result struct {
	Content any    `json:"content,omitempty"`
	IsError bool   `json:"is_error"`
	Error   *Error `json:"error,omitempty"`
}

type entry struct {
	tool    Tool
	handler Handler
}

// Registry holds the tools exposed to callers. It is safe for concurrent
// use.
type Registry struct {
	entries map[string]entry
	mu      sync.RWMutex

	metrics *metrics.Collector
	tracer  *tracing.Tracer
	logger  *slog.Logger
}

// NewRegistry creates an empty registry. metrics and tracer may be nil.
func NewRegistry(m *metrics.Collector, tracer *tracing.Tracer) *Registry {
	return &Registry{
		entries: make(map[string]entry),
		metrics: m,
		tracer:  tracer,
		logger:  slog.Default().With("component", "tools"),
	}
}

// Register adds a new tool.
// Returns ErrAlreadyExists if a tool with the same name is already registered.
// Use Replace to update an existing tool's handler.
func (r *Registry) Register(tool Tool, handler Handler) error {
	if tool.Name == "" {
		return ErrEmptyName
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[tool.Name]; exists {
		return fmt.Errorf("%w: %s", ErrAlreadyExists, tool.Name)
	}

	r.entries[tool.Name] = entry{tool: tool, handler: handler}
	return nil
}

// Replace updates an existing tool's definition and handler.
// Returns ErrNotFound if no tool with the given name is registered.
func (r *Registry) Replace(tool Tool, handler Handler) error {
	if tool.Name == "" {
		return ErrEmptyName
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[tool.Name]; !exists {
		return fmt.Errorf("%w: %s", ErrNotFound, tool.Name)
	}

	r.entries[tool.Name] = entry{tool: tool, handler: handler}
	return nil
}

// Get retrieves a handler by tool name.
func (r *Registry) Get(name string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, exists := r.entries[name]
	if !exists {
		return nil, false
	}
	return e.handler, true
}

// List returns the definitions of all registered tools ordered by name.
func (r *Registry) List() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tools := make([]Tool, 0, len(r.entries))
	for _, e := range r.entries {
		tools = append(tools, e.tool)
	}
	sort.Slice(tools, func(i, j int) bool { return tools[i].Name < tools[j].Name })
	return tools
}

// Execute dispatches a tool call to the registered handler by name.
//
// Returns ErrNotFound if the tool is not registered. A handler error is
// not returned; it becomes a Result with IsError set and a failure code
// from Classify, so callers can branch on the code.
func (r *Registry) Execute(ctx context.Context, name string, args json.RawMessage) (Result, error) {
	r.mu.RLock()
	e, exists := r.entries[name]
	r.mu.RUnlock()

	if !exists {
		return Result{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	ctx, span := r.tracer.Start(ctx, tracing.SpanToolCall,
		trace.WithAttributes(attribute.String(tracing.AttrTool, name)))
	defer span.End()

	start := time.Now()
	result, err := e.handler(ctx, args)
	if err != nil {
		result = failure(result, err)
	}

	status := "ok"
	if result.IsError && result.Error != nil {
		status = result.Error.Code
		tracing.SetError(span, err)
		r.logger.WarnContext(ctx, "Tool call failed", "tool", name, "code", status, "error", err)
	} else {
		r.logger.DebugContext(ctx, "Tool call completed", "tool", name)
	}
	span.SetAttributes(attribute.String(tracing.AttrToolStatus, status))
	r.metrics.RecordToolCall(name, status, time.Since(start))

	return result, nil
}

// failure turns err into an error Result, keeping any content the handler
// returned alongside it.
func failure(partial Result, err error) Result {
	return Result{
		Content: partial.Content,
		IsError: true,
		Error:   &Error{Code: Classify(err), Message: err.Error()},
	}
}
