package tools

import (
	"context"
	"time"

	mcp_sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/quietloop/sessionmcp/internal/bashtool"
	"github.com/quietloop/sessionmcp/internal/metrics"
	"github.com/quietloop/sessionmcp/internal/registry"
)

// BashParams is the non-sessioned bash tool's parameter bag (§6): one
// command, one fresh process, an optional per-call timeout in seconds.
type BashParams struct {
	Command string `json:"command" jsonschema:"the shell command to run"`
	Timeout int    `json:"timeout,omitempty" jsonschema:"timeout in seconds; defaults to the server's configured default"`
}

// RegisterBashTool registers the non-sessioned, one-shot bash tool.
func RegisterBashTool(reg *registry.Registry, runner *bashtool.Runner) {
	registry.Register(reg, registry.ToolDef{
		Name:        "bash",
		Description: "Run a single shell command in a fresh process and return its output.",
	}, func(ctx context.Context, p BashParams) (*mcp_sdk.CallToolResult, error) {
		result, err := runner.Run(ctx, p.Command, time.Duration(p.Timeout)*time.Second)
		if err == nil {
			metrics.RecordToolCall("bash", result.IsError)
		}
		return result, err
	})
}
