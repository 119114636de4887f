package registry

import (
	"context"
	"encoding/json"
	"testing"

	mcp_sdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

type echoParams struct {
	Text string `json:"text"`
}

func TestRegisterAndCall(t *testing.T) {
	r := New()
	Register(r, ToolDef{Name: "echo", Description: "echoes text"}, func(ctx context.Context, p echoParams) (*mcp_sdk.CallToolResult, error) {
		return &mcp_sdk.CallToolResult{Content: []mcp_sdk.Content{&mcp_sdk.TextContent{Text: p.Text}}}, nil
	})

	def, ok := r.GetTool("echo")
	if !ok {
		t.Fatal("expected tool to be registered")
	}
	if def.InputSchema == nil {
		t.Fatal("expected a generated input schema")
	}
	if def.InputSchema["type"] != "object" {
		t.Fatalf("expected object schema, got %v", def.InputSchema["type"])
	}

	args, _ := json.Marshal(echoParams{Text: "hi"})
	result, err := r.Call(context.Background(), "echo", args)
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	tc, ok := result.Content[0].(*mcp_sdk.TextContent)
	if !ok || tc.Text != "hi" {
		t.Fatalf("expected echoed text %q, got %+v", "hi", result.Content)
	}
}

func TestCallUnknownTool(t *testing.T) {
	r := New()
	if _, err := r.Call(context.Background(), "missing", nil); err == nil {
		t.Fatal("expected an error calling an unregistered tool")
	}
}

func TestCallInvalidParams(t *testing.T) {
	r := New()
	Register(r, ToolDef{Name: "echo"}, func(ctx context.Context, p echoParams) (*mcp_sdk.CallToolResult, error) {
		return &mcp_sdk.CallToolResult{}, nil
	})

	if _, err := r.Call(context.Background(), "echo", json.RawMessage(`not json`)); err == nil {
		t.Fatal("expected an error unmarshalling invalid arguments")
	}
}

func TestAllPreservesRegistrationOrder(t *testing.T) {
	r := New()
	names := []string{"a", "b", "c"}
	for _, n := range names {
		Register(r, ToolDef{Name: n}, func(ctx context.Context, p echoParams) (*mcp_sdk.CallToolResult, error) {
			return &mcp_sdk.CallToolResult{}, nil
		})
	}

	defs := r.All()
	if len(defs) != len(names) {
		t.Fatalf("expected %d tools, got %d", len(names), len(defs))
	}
	for i, d := range defs {
		if d.Name != names[i] {
			t.Fatalf("expected tool %d to be %q, got %q", i, names[i], d.Name)
		}
	}
}
