// Package jsonrpc implements the dispatcher described in §4.1: it
// accepts one decoded request and returns one response, notifications
// included. Transports (stdio, unix socket) own framing and decide not
// to write the response to a notification; this package owns method
// routing and error-code mapping.
package jsonrpc

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/quietloop/sessionmcp/internal/envelope"
	"github.com/quietloop/sessionmcp/internal/registry"
)

// Error codes per §6/§7.
const (
	CodeParseError     = -32700
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
)

// Request mirrors the wire shape: {jsonrpc, id?, method, params?}.
type Request struct {
	JSONRPC string          `json:"jsonrpc,omitempty"`
	ID      any             `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// IsNotification reports whether the request carries no id.
func (r *Request) IsNotification() bool {
	return r.ID == nil
}

// Response mirrors the wire shape: {jsonrpc, id, result} or
// {jsonrpc, id, error}.
type Response struct {
	JSONRPC string `json:"jsonrpc"`
	ID      any    `json:"id"`
	Result  any    `json:"result,omitempty"`
	Error   *Error `json:"error,omitempty"`
}

// Error is the JSON-RPC error object.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// ServerInfo describes this server to a client's initialize call.
type ServerInfo struct {
	Name         string
	Version      string
	Instructions string // if non-empty, surfaced at the top level of the initialize result
}

// Dispatcher routes initialize / tools/list / tools/call / ping and maps
// everything else to "method not found" (§4.1).
type Dispatcher struct {
	Registry   *registry.Registry
	Info       ServerInfo
	ToolAlias  map[string]string // e.g. str_replace_based_edit_tool -> str_replace_editor
}

// New creates a Dispatcher.
func New(reg *registry.Registry, info ServerInfo) *Dispatcher {
	return &Dispatcher{
		Registry: reg,
		Info:     info,
		ToolAlias: map[string]string{
			"str_replace_based_edit_tool": "str_replace_editor",
		},
	}
}

// Handle processes one decoded request and always returns a response.
// For a notification (no id) the response is still computed, so tests
// can observe it, but transports must not emit it on the wire.
func (d *Dispatcher) Handle(ctx context.Context, req *Request) *Response {
	result, rpcErr := d.dispatch(ctx, req)

	resp := &Response{JSONRPC: "2.0", ID: req.ID}
	if rpcErr != nil {
		resp.Error = rpcErr
	} else {
		resp.Result = result
	}
	return resp
}

func (d *Dispatcher) dispatch(ctx context.Context, req *Request) (any, *Error) {
	switch req.Method {
	case "initialize":
		return d.handleInitialize(), nil
	case "tools/list":
		return d.handleToolsList(), nil
	case "tools/call":
		return d.handleToolsCall(ctx, req.Params)
	case "ping":
		return map[string]any{}, nil
	default:
		return nil, &Error{Code: CodeMethodNotFound, Message: "Method not found"}
	}
}

func (d *Dispatcher) handleInitialize() any {
	result := map[string]any{
		"protocolVersion": "2024-11-05",
		"serverInfo": map[string]any{
			"name":    d.Info.Name,
			"version": d.Info.Version,
		},
		"capabilities": map[string]any{
			"tools": map[string]any{
				"listChanged": false,
			},
		},
	}
	if d.Info.Instructions != "" {
		result["instructions"] = d.Info.Instructions
	}
	return result
}

func (d *Dispatcher) handleToolsList() any {
	defs := d.Registry.All()
	tools := make([]map[string]any, 0, len(defs))
	for _, t := range defs {
		tools = append(tools, map[string]any{
			"name":        t.Name,
			"description": t.Description,
			"inputSchema": t.InputSchema,
		})
	}
	return map[string]any{"tools": tools}
}

func (d *Dispatcher) handleToolsCall(ctx context.Context, params json.RawMessage) (any, *Error) {
	var call struct {
		Name      string          `json:"name"`
		Arguments json.RawMessage `json:"arguments"`
	}
	if len(params) > 0 {
		if err := json.Unmarshal(params, &call); err != nil {
			return nil, &Error{Code: CodeInvalidParams, Message: "invalid params"}
		}
	}

	if call.Name == "" {
		return nil, &Error{Code: CodeInvalidParams, Message: "missing tool name"}
	}

	name := call.Name
	if alias, ok := d.ToolAlias[name]; ok {
		name = alias
	}

	if _, ok := d.Registry.GetTool(name); !ok {
		return nil, &Error{Code: CodeInvalidParams, Message: fmt.Sprintf("unknown tool: %s", call.Name)}
	}

	result, err := d.Registry.Call(ctx, name, call.Arguments)
	if err != nil {
		// An uncaught exception from a handler maps to an internal
		// protocol error; tools that want isError:true envelopes
		// return one directly instead of an error.
		return nil, &Error{Code: CodeInternalError, Message: err.Error()}
	}

	return envelope.AsMap(result), nil
}

// ParseError builds the -32700 response for an unparseable line. The id
// is always null because we could not even extract one.
func ParseError() *Response {
	return &Response{
		JSONRPC: "2.0",
		ID:      nil,
		Error:   &Error{Code: CodeParseError, Message: "Parse error"},
	}
}
