// Package bashtool implements the non-sessioned, one-shot bash tool of
// §6: one process per call, non-zero exit is not an MCP error, stderr
// is demarcated with a literal separator, and output is truncated at a
// fixed byte budget.
package bashtool

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	mcp_sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/quietloop/sessionmcp/internal/envelope"
)

// maxOutputBytes is the §6 truncation budget (30,720 bytes).
const maxOutputBytes = 30720

// Runner executes one-shot shell commands, each in a fresh process.
type Runner struct {
	ShellPath      string
	ShellArgs      []string
	DefaultTimeout time.Duration
}

// New creates a Runner that launches shellPath with args for each call,
// killing the child if it outlives defaultTimeout and no per-call
// timeout is given.
func New(shellPath string, shellArgs []string, defaultTimeout time.Duration) *Runner {
	return &Runner{ShellPath: shellPath, ShellArgs: shellArgs, DefaultTimeout: defaultTimeout}
}

// Run executes command in a fresh process and renders the §6 envelope.
// timeout is the caller's budget for the call; zero means DefaultTimeout.
func (r *Runner) Run(ctx context.Context, command string, timeout time.Duration) (*mcp_sdk.CallToolResult, error) {
	if timeout <= 0 {
		timeout = r.DefaultTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	args := append(append([]string{}, r.ShellArgs...), "-c", command)
	cmd := exec.CommandContext(ctx, r.ShellPath, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()

	if runErr != nil && ctx.Err() == context.DeadlineExceeded {
		seconds := int(timeout.Round(time.Second) / time.Second)
		return envelope.Error(fmt.Sprintf("Command timed out after %d seconds", seconds)), nil
	}

	exitCode := 0
	if runErr != nil {
		if exitErr, ok := runErr.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			return envelope.Error(fmt.Sprintf("Error running command: %v", runErr)), nil
		}
	}

	return envelope.Text(renderResult(stdout.String(), stderr.String(), exitCode)), nil
}

// renderResult builds the §6 text body: stdout, then a literal
// "\n--- stderr ---\n" separator and stderr if any was produced,
// truncated to maxOutputBytes, with the documented empty-success
// sentinel when there is nothing to report. A non-zero exit code is
// not an MCP error; it is only surfaced as a leading "Exit code: N"
// line, and only when the exit was non-zero (§6, grounded on the cited
// LaurieRhodes bash.go, which likewise only appends exit-code text on a
// non-zero exit).
func renderResult(stdout, stderr string, exitCode int) string {
	if stdout == "" && stderr == "" && exitCode == 0 {
		return "<system>Tool ran without output or errors</system>"
	}

	var b strings.Builder
	if exitCode != 0 {
		fmt.Fprintf(&b, "Exit code: %d\n", exitCode)
	}
	b.WriteString(stdout)
	if stderr != "" {
		b.WriteString("\n--- stderr ---\n")
		b.WriteString(stderr)
	}
	body := b.String()

	if len(body) > maxOutputBytes {
		body = body[:maxOutputBytes] + fmt.Sprintf("\n... (output truncated at %d bytes) ...", maxOutputBytes)
	}
	return body
}
