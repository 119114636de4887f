// Package tools wires the shellsession manager, sessioned editor,
// bash tool, and filesystem editor into an internal/registry.Registry,
// producing the tool surface named in §4.4.4, §4.5, §4.6 and §6.
package tools

import (
	"context"
	"fmt"
	"time"

	mcp_sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/quietloop/sessionmcp/internal/audit"
	"github.com/quietloop/sessionmcp/internal/config"
	"github.com/quietloop/sessionmcp/internal/envelope"
	"github.com/quietloop/sessionmcp/internal/metrics"
	"github.com/quietloop/sessionmcp/internal/registry"
	"github.com/quietloop/sessionmcp/internal/shellsession"
)

// StartParams is the *_start tool's parameter bag. Embedders extending
// the schema with extra required properties (§4.4.4) do so outside
// this struct, by post-processing the *ToolDef that registry.GetTool
// returns for the start tool once it is registered.
type StartParams struct {
	Workdir string            `json:"workdir,omitempty" jsonschema:"the working directory to start the shell in"`
	User    string            `json:"user,omitempty" jsonschema:"the user name to run the shell as"`
	Env     map[string]string `json:"env,omitempty" jsonschema:"additional environment variables"`
}

// ExecParams is the *_exec tool's parameter bag.
type ExecParams struct {
	SessionID   string `json:"session_id" jsonschema:"the id of the session to run the command in"`
	Command     string `json:"command" jsonschema:"the shell command to run"`
	TimeoutMs   int    `json:"timeout,omitempty" jsonschema:"timeout in milliseconds, clamped to the server's configured maximum"`
	Description string `json:"description,omitempty" jsonschema:"a short human-readable description of the command, for display only"`
}

// StopParams is the *_stop tool's parameter bag.
type StopParams struct {
	SessionID string `json:"session_id" jsonschema:"the id of the session to stop"`
}

// ListParams is the *_list tool's parameter bag (no arguments).
type ListParams struct{}

// RegisterSessionTools registers the four session tools named with
// cfg.ToolPrefix, per §4.4.4.
func RegisterSessionTools(reg *registry.Registry, manager *shellsession.Manager, cfg *config.Config, store *audit.Store) {
	prefix := cfg.ToolPrefix

	registry.Register(reg, registry.ToolDef{
		Name:        prefix + "_start",
		Description: "Start a new persistent interactive shell session.",
	}, func(ctx context.Context, p StartParams) (*mcp_sdk.CallToolResult, error) {
		params := map[string]any{}
		if p.Workdir != "" {
			params["workdir"] = p.Workdir
		}
		if p.User != "" {
			params["user"] = p.User
		}
		if len(p.Env) > 0 {
			env := make(map[string]any, len(p.Env))
			for k, v := range p.Env {
				env[k] = v
			}
			params["env"] = env
		}

		sess, err := manager.StartSession(params)
		if err != nil {
			text := fmt.Sprintf("Failed to start session: %v", err)
			metrics.RecordToolCall(prefix+"_start", true)
			return envelope.Error(text), nil
		}

		metrics.ActiveSessions.Inc()
		metrics.RecordToolCall(prefix+"_start", false)
		return envelope.Text(fmt.Sprintf("Session '%s' started.", sess.ID)), nil
	})

	registry.Register(reg, registry.ToolDef{
		Name:        prefix + "_exec",
		Description: "Run a command in an existing shell session, preserving working directory, environment, and background jobs across calls.",
	}, func(ctx context.Context, p ExecParams) (*mcp_sdk.CallToolResult, error) {
		if p.SessionID == "" {
			return envelope.Error("session_id is required"), nil
		}
		if p.Command == "" {
			return envelope.Error("command is required"), nil
		}

		timeout := time.Duration(cfg.DefaultTimeoutMs) * time.Millisecond
		if p.TimeoutMs > 0 {
			timeout = time.Duration(p.TimeoutMs) * time.Millisecond
		}
		if max := time.Duration(cfg.MaxTimeoutMs) * time.Millisecond; timeout > max {
			timeout = max
		}

		start := time.Now()
		result := manager.Exec(p.SessionID, p.Command, timeout)
		elapsed := time.Since(start)

		outcome := "ok"
		switch {
		case result.ProcessDied:
			outcome = "process_died"
		case result.TimedOut:
			outcome = "timed_out"
		}
		metrics.RecordExec(outcome, elapsed)

		truncated := cfg.MaxOutputChars > 0 && len(result.Output) >= cfg.MaxOutputChars
		if store != nil {
			_ = store.Record(p.SessionID, p.Command, result.ExitCode, result.ProcessDied, result.TimedOut, truncated)
		}

		isError := result.ExitCode != 0
		suffix := ""
		switch {
		case result.ProcessDied:
			isError = true
			suffix = " [Process exited]"
		case result.TimedOut:
			isError = true
			suffix = fmt.Sprintf(" [Command timed out after %dms]", timeout.Milliseconds())
		case result.ExitCode != 0:
			suffix = fmt.Sprintf(" [Exit code: %d]", result.ExitCode)
		}

		metrics.RecordToolCall(prefix+"_exec", isError)

		text := result.Output + suffix
		if isError {
			return envelope.Error(text), nil
		}
		return envelope.Text(text), nil
	})

	registry.Register(reg, registry.ToolDef{
		Name:        prefix + "_stop",
		Description: "Stop a running shell session and release its resources.",
	}, func(ctx context.Context, p StopParams) (*mcp_sdk.CallToolResult, error) {
		if p.SessionID == "" {
			return envelope.Error("session_id is required"), nil
		}

		var uptime time.Duration
		if sess, ok := manager.Get(p.SessionID); ok {
			uptime = sess.Uptime()
		}

		ok := manager.StopSession(p.SessionID)
		metrics.RecordToolCall(prefix+"_stop", !ok)
		if !ok {
			return envelope.Error(fmt.Sprintf("Session '%s' not found.", p.SessionID)), nil
		}

		metrics.ActiveSessions.Dec()
		metrics.RecordSessionStop(uptime)
		return envelope.Text(fmt.Sprintf("Session '%s' stopped.", p.SessionID)), nil
	})

	registry.Register(reg, registry.ToolDef{
		Name:        prefix + "_list",
		Description: "List all currently known shell sessions.",
	}, func(ctx context.Context, p ListParams) (*mcp_sdk.CallToolResult, error) {
		infos := manager.List()
		metrics.RecordToolCall(prefix+"_list", false)
		if len(infos) == 0 {
			return envelope.Text("No active sessions."), nil
		}

		text := "Sessions:\n"
		for _, info := range infos {
			status := "running"
			if !info.Running {
				status = "exited"
			}
			text += fmt.Sprintf("- %s (%s, uptime %s, %v)\n", info.ID, status, info.Uptime.Round(time.Second), info.Metadata)
		}
		return envelope.Text(text), nil
	})
}
