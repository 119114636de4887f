// Package registry maps a tool name to a handler capable of advertising
// a JSON Schema and executing against a parameter bag (§4.3).
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"
	mcp_sdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

// Handler executes a tool call with raw JSON arguments and returns the
// envelope verbatim.
type Handler func(ctx context.Context, arguments json.RawMessage) (*mcp_sdk.CallToolResult, error)

// ToolDef is everything tools/list needs to advertise a tool.
type ToolDef struct {
	Name        string
	Description string
	InputSchema map[string]any
}

// Registry stores tool definitions and handlers, keyed by name, and
// remembers registration order so tools/list is stable within a run
// (the relative order across runs is unspecified, per spec §9).
type Registry struct {
	mu       sync.RWMutex
	tools    map[string]*ToolDef
	handlers map[string]Handler
	order    []string
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		tools:    make(map[string]*ToolDef),
		handlers: make(map[string]Handler),
	}
}

// Register adds a tool. If def.InputSchema is nil, it is generated from
// the P type parameter via jsonschema-go reflection.
func Register[P any](r *Registry, def ToolDef, handler func(ctx context.Context, params P) (*mcp_sdk.CallToolResult, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if def.InputSchema == nil {
		def.InputSchema = GenerateSchema[P]()
	}

	r.tools[def.Name] = &def
	r.handlers[def.Name] = wrap(handler)
	r.order = append(r.order, def.Name)
}

func wrap[P any](handler func(ctx context.Context, params P) (*mcp_sdk.CallToolResult, error)) Handler {
	return func(ctx context.Context, args json.RawMessage) (*mcp_sdk.CallToolResult, error) {
		var params P
		if len(args) > 0 {
			if err := json.Unmarshal(args, &params); err != nil {
				return nil, fmt.Errorf("invalid parameters: %w", err)
			}
		}
		return handler(ctx, params)
	}
}

// GetTool returns a tool definition by name.
func (r *Registry) GetTool(name string) (*ToolDef, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// All returns all tool definitions in registration order.
func (r *Registry) All() []*ToolDef {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*ToolDef, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name])
	}
	return out
}

// Call executes a tool by name with raw JSON arguments.
func (r *Registry) Call(ctx context.Context, name string, args json.RawMessage) (*mcp_sdk.CallToolResult, error) {
	r.mu.RLock()
	handler, ok := r.handlers[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
	return handler(ctx, args)
}

// GenerateSchema derives a JSON Schema map for P using jsonschema-go's
// reflection-based generator. P is normally a plain struct with `json`
// and optional `jsonschema` tags.
func GenerateSchema[P any]() map[string]any {
	schema, err := jsonschema.For[P](nil)
	if err != nil || schema == nil {
		return map[string]any{"type": "object"}
	}

	data, err := json.Marshal(schema)
	if err != nil {
		return map[string]any{"type": "object"}
	}

	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return map[string]any{"type": "object"}
	}
	return m
}
