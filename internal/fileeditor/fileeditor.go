// Package fileeditor implements the non-sessioned editor of §4.6:
// view/str_replace/create against the host filesystem, rooted at a
// configured base directory, sharing editorutil's validation and
// replace logic with the sessioned editor.
package fileeditor

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	mcp_sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/quietloop/sessionmcp/internal/editorutil"
	"github.com/quietloop/sessionmcp/internal/envelope"
)

// Editor operates view/str_replace/create against files under BaseDir.
type Editor struct {
	BaseDir string
}

// New creates an Editor rooted at baseDir.
func New(baseDir string) *Editor {
	return &Editor{BaseDir: baseDir}
}

// resolve joins path against e.BaseDir. Paths are taken as given by
// the caller, matching the sessioned editor's treatment of path as an
// opaque string interpreted by a shell; no extra normalization is
// applied beyond filepath.Join.
func (e *Editor) resolve(path string) string {
	if filepath.IsAbs(path) {
		return filepath.Join(e.BaseDir, path)
	}
	return filepath.Join(e.BaseDir, path)
}

// View implements the `view` command (§4.6), sharing wording and
// range rules with the sessioned editor (§4.5).
func (e *Editor) View(path string, viewRange []int) (*mcp_sdk.CallToolResult, error) {
	full := e.resolve(path)

	info, err := os.Stat(full)
	if os.IsNotExist(err) {
		return envelope.Error(fmt.Sprintf("The path %s does not exist", path)), nil
	}
	if err != nil {
		return envelope.Error(fmt.Sprintf("Error: could not stat %s: %v", path, err)), nil
	}

	if info.IsDir() {
		if len(viewRange) > 0 {
			return envelope.Error("view_range is not allowed when path points to a directory"), nil
		}
		listing, err := listDir(full, 2)
		if err != nil {
			return envelope.Error(fmt.Sprintf("Error listing %s: %v", path, err)), nil
		}
		return envelope.Text(fmt.Sprintf("Here's the files and directories up to 2 levels deep in %s, excluding hidden items:\n%s", path, listing)), nil
	}

	data, err := os.ReadFile(full)
	if err != nil {
		return envelope.Error(fmt.Sprintf("Error reading %s: %v", path, err)), nil
	}

	lines := strings.Split(string(data), "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	total := len(lines)

	start, end := 1, total
	if len(viewRange) > 0 {
		start, end, err = editorutil.ValidateViewRange(total, viewRange)
		if err != nil {
			return envelope.Error(err.Error()), nil
		}
	}

	body := editorutil.NumberLines(lines[start-1:end], start)
	header := fmt.Sprintf("Here's the result of running `cat -n` on %s (lines %d-%d out of %d total):", path, start, end, total)
	return envelope.Text(header + "\n" + body), nil
}

// StrReplace implements the `str_replace` command (§4.6).
func (e *Editor) StrReplace(path, oldStr, newStr string, replaceAll bool) (*mcp_sdk.CallToolResult, error) {
	full := e.resolve(path)

	data, err := os.ReadFile(full)
	if err != nil {
		return envelope.Error(fmt.Sprintf("Error reading %s: %v", path, err)), nil
	}
	content := string(data)

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

	if err := os.WriteFile(full, []byte(newContent), 0o644); err != nil {
		return envelope.Error(fmt.Sprintf("Error writing %s: %v", path, err)), nil
	}

	if replaceAll && len(occs) > 1 {
		return envelope.Text(fmt.Sprintf("The file %s has been edited successfully. Made %d replacements.", path, len(occs))), nil
	}
	return envelope.Text(fmt.Sprintf("The file %s has been edited successfully.", path)), nil
}

// Create implements the `create` command (§4.6), refusing to overwrite
// an existing target.
func (e *Editor) Create(path, fileText string) (*mcp_sdk.CallToolResult, error) {
	full := e.resolve(path)

	if _, err := os.Stat(full); err == nil {
		return envelope.Error(fmt.Sprintf("Cannot create %s: file already exists. Use str_replace to edit an existing file.", path)), nil
	}

	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return envelope.Error(fmt.Sprintf("Error creating parent directory for %s: %v", path, err)), nil
	}

	if err := os.WriteFile(full, []byte(fileText), 0o644); err != nil {
		return envelope.Error(fmt.Sprintf("Error writing %s: %v", path, err)), nil
	}

	return envelope.Text(fmt.Sprintf("File created successfully at %s", path)), nil
}

func listDir(root string, maxDepth int) (string, error) {
	var lines []string
	rootDepth := strings.Count(filepath.Clean(root), string(filepath.Separator))

	err := filepath.Walk(root, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if p == root {
			return nil
		}
		if strings.HasPrefix(info.Name(), ".") {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		depth := strings.Count(filepath.Clean(p), string(filepath.Separator)) - rootDepth
		if depth > maxDepth {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		lines = append(lines, p)
		return nil
	})
	if err != nil {
		return "", err
	}
	return strings.Join(lines, "\n"), nil
}
