// Package shelleditor implements the sessioned editor of §4.5: view,
// str_replace and create operate on a path as seen by a running
// session's shell, not the host filesystem, by shelling commands
// through shellsession.Manager.Exec. File content crosses the wire
// through base64 so writes are atomic with respect to the session's
// view of the filesystem.
package shelleditor

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	mcp_sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/quietloop/sessionmcp/internal/editorutil"
	"github.com/quietloop/sessionmcp/internal/envelope"
	"github.com/quietloop/sessionmcp/internal/shellsession"
)

// Editor operates the view/str_replace/create commands inside a
// session's shell.
type Editor struct {
	Manager *shellsession.Manager
	Timeout time.Duration
}

// New creates an Editor bound to manager, executing each shell probe
// with the given timeout.
func New(manager *shellsession.Manager, timeout time.Duration) *Editor {
	return &Editor{Manager: manager, Timeout: timeout}
}

// quote single-quote shell-escapes s (§4.5: "Path is always
// single-quote shell-escaped").
func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func randomToken() string {
	b := make([]byte, 12)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

func (e *Editor) exec(sessionID, command string) shellsession.ExecResult {
	return e.Manager.Exec(sessionID, command, e.Timeout)
}

// writeViaBase64 writes content to path (already quoted) through a
// base64 + here-document with a random sentinel, per §4.5's writer:
// `base64 -d > P << 'MARK…'\n<b64>\nMARK…`.
func (e *Editor) writeViaBase64(sessionID, quotedPath, content string) shellsession.ExecResult {
	token := "MARK_" + randomToken()
	encoded := base64.StdEncoding.EncodeToString([]byte(content))
	cmd := fmt.Sprintf("base64 -d > %s << '%s'\n%s\n%s\n", quotedPath, token, encoded, token)
	return e.exec(sessionID, cmd)
}

var base64Whitespace = strings.NewReplacer("\n", "", "\r", "", " ", "", "\t", "")

func decodeBase64Output(output string) (string, error) {
	clean := base64Whitespace.Replace(output)
	decoded, err := base64.StdEncoding.DecodeString(clean)
	if err != nil {
		return "", err
	}
	return string(decoded), nil
}

// View implements the `view` command (§4.5).
func (e *Editor) View(sessionID, path string, viewRange []int) (*mcp_sdk.CallToolResult, error) {
	q := quote(path)

	probe := e.exec(sessionID, fmt.Sprintf("test -d %s && echo DIR || (test -f %s && echo FILE || echo NOTFOUND)", q, q))
	if probe.ProcessDied || probe.TimedOut {
		return envelope.Error(fmt.Sprintf("Error: could not stat %s: %s", path, probe.Output)), nil
	}

	kind := strings.TrimSpace(probe.Output)
	switch {
	case strings.Contains(kind, "NOTFOUND"):
		return envelope.Error(fmt.Sprintf("The path %s does not exist", path)), nil

	case strings.Contains(kind, "DIR"):
		if len(viewRange) > 0 {
			return envelope.Error("view_range is not allowed when path points to a directory"), nil
		}
		listing := e.exec(sessionID, fmt.Sprintf("find %s -maxdepth 2 -not -path '*/.*'", q))
		return envelope.Text(fmt.Sprintf("Here's the files and directories up to 2 levels deep in %s, excluding hidden items:\n%s", path, listing.Output)), nil

	case strings.Contains(kind, "FILE"):
		return e.viewFile(sessionID, path, q, viewRange)

	default:
		return envelope.Error(fmt.Sprintf("Error: unexpected probe result for %s: %q", path, kind)), nil
	}
}

func (e *Editor) viewFile(sessionID, path, q string, viewRange []int) (*mcp_sdk.CallToolResult, error) {
	countRes := e.exec(sessionID, fmt.Sprintf("wc -l < %s", q))
	total, err := strconv.Atoi(strings.TrimSpace(countRes.Output))
	if err != nil {
		return envelope.Error(fmt.Sprintf("Error: could not determine line count of %s: %s", path, countRes.Output)), nil
	}

	start, end := 1, total
	if len(viewRange) > 0 {
		start, end, err = editorutil.ValidateViewRange(total, viewRange)
		if err != nil {
			return envelope.Error(err.Error()), nil
		}
	}

	var body shellsession.ExecResult
	if len(viewRange) == 0 {
		body = e.exec(sessionID, fmt.Sprintf(`awk '{printf "%%d\t%%s\n", NR, $0}' %s`, q))
	} else {
		body = e.exec(sessionID, fmt.Sprintf(`awk 'NR>=%d && NR<=%d {printf "%%d\t%%s\n", NR, $0}' %s`, start, end, q))
	}

	header := fmt.Sprintf("Here's the result of running `cat -n` on %s (lines %d-%d out of %d total):", path, start, end, total)
	return envelope.Text(header + "\n" + body.Output), nil
}

// StrReplace implements the `str_replace` command (§4.5).
func (e *Editor) StrReplace(sessionID, path, oldStr, newStr string, replaceAll bool) (*mcp_sdk.CallToolResult, error) {
	q := quote(path)

	read := e.exec(sessionID, fmt.Sprintf("base64 %s", q))
	if read.ExitCode != 0 || read.ProcessDied {
		return envelope.Error(fmt.Sprintf("Error reading %s: %s", path, strings.TrimSpace(read.Output))), nil
	}

	content, err := decodeBase64Output(read.Output)
	if err != nil {
		return envelope.Error(fmt.Sprintf("Error decoding %s: %v", path, err)), nil
	}

	occs := editorutil.FindOccurrences(content, oldStr)
	if len(occs) == 0 {
		return envelope.Error(fmt.Sprintf("No replacement was performed, old_str\n%s\ndid not appear verbatim in %s.", oldStr, path)), nil
	}
	if !replaceAll && len(occs) > 1 {
		return envelope.Error(fmt.Sprintf(
			"No replacement was performed. old_str appeared %d times in %s. It must appear exactly once unless replace_all is set. Lines: %s",
			len(occs), path, editorutil.LineNumbers(occs),
		)), nil
	}

	newContent := editorutil.ReplaceLiteral(content, oldStr, newStr, replaceAll)

	write := e.writeViaBase64(sessionID, q, newContent)
	if write.ExitCode != 0 || write.ProcessDied {
		return envelope.Error(fmt.Sprintf("Error writing %s: %s", path, strings.TrimSpace(write.Output))), nil
	}

	if replaceAll && len(occs) > 1 {
		return envelope.Text(fmt.Sprintf("The file %s has been edited successfully. Made %d replacements.", path, len(occs))), nil
	}
	return envelope.Text(fmt.Sprintf("The file %s has been edited successfully.", path)), nil
}

// Create implements the `create` command (§4.5).
func (e *Editor) Create(sessionID, path, fileText string) (*mcp_sdk.CallToolResult, error) {
	q := quote(path)

	probe := e.exec(sessionID, fmt.Sprintf("test -e %s && echo EXISTS || echo MISSING", q))
	if strings.Contains(probe.Output, "EXISTS") {
		return envelope.Error(fmt.Sprintf("Cannot create %s: file already exists. Use str_replace to edit an existing file.", path)), nil
	}

	mkdir := e.exec(sessionID, fmt.Sprintf(`mkdir -p "$(dirname %s)"`, q))
	if mkdir.ExitCode != 0 || mkdir.ProcessDied {
		return envelope.Error(fmt.Sprintf("Error creating parent directory for %s: %s", path, strings.TrimSpace(mkdir.Output))), nil
	}

	write := e.writeViaBase64(sessionID, q, fileText)
	if write.ExitCode != 0 || write.ProcessDied {
		return envelope.Error(fmt.Sprintf("Error writing %s: %s", path, strings.TrimSpace(write.Output))), nil
	}

	return envelope.Text(fmt.Sprintf("File created successfully at %s", path)), nil
}
