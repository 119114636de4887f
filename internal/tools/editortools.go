package tools

import (
	"context"
	"time"

	mcp_sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/quietloop/sessionmcp/internal/config"
	"github.com/quietloop/sessionmcp/internal/envelope"
	"github.com/quietloop/sessionmcp/internal/fileeditor"
	"github.com/quietloop/sessionmcp/internal/metrics"
	"github.com/quietloop/sessionmcp/internal/registry"
	"github.com/quietloop/sessionmcp/internal/shelleditor"
	"github.com/quietloop/sessionmcp/internal/shellsession"
)

// SessionEditParams is the sessioned editor tool's parameter bag
// (§4.5): view / str_replace / create against a path inside a
// session's shell.
type SessionEditParams struct {
	Command    string `json:"command" jsonschema:"one of view, str_replace, create"`
	SessionID  string `json:"session_id" jsonschema:"the id of the session whose shell resolves path"`
	Path       string `json:"path" jsonschema:"absolute path, interpreted inside the session's shell"`
	ViewRange  []int  `json:"view_range,omitempty" jsonschema:"optional [start,end] 1-based inclusive line range; end -1 means end of file"`
	OldStr     string `json:"old_str,omitempty" jsonschema:"the literal text to replace, required for str_replace"`
	NewStr     string `json:"new_str,omitempty" jsonschema:"the replacement text, required for str_replace"`
	ReplaceAll bool   `json:"replace_all,omitempty" jsonschema:"replace every occurrence of old_str instead of requiring exactly one"`
	FileText   string `json:"file_text,omitempty" jsonschema:"the content to write, required for create"`
}

// RegisterSessionEditor registers the sessioned editor tool (§4.5).
func RegisterSessionEditor(reg *registry.Registry, manager *shellsession.Manager, cfg *config.Config) {
	editor := shelleditor.New(manager, time.Duration(cfg.DefaultTimeoutMs)*time.Millisecond)

	registry.Register(reg, registry.ToolDef{
		Name:        "session_str_replace_editor",
		Description: "View, create, or edit (by exact string replacement) a file as seen by a session's shell.",
	}, func(ctx context.Context, p SessionEditParams) (*mcp_sdk.CallToolResult, error) {
		result, err := dispatchSessionEdit(editor, p)
		if err == nil {
			metrics.RecordToolCall("session_str_replace_editor", result.IsError)
		}
		return result, err
	})
}

func dispatchSessionEdit(editor *shelleditor.Editor, p SessionEditParams) (*mcp_sdk.CallToolResult, error) {
	if p.SessionID == "" {
		return envelope.Error("session_id is required"), nil
	}
	if p.Path == "" {
		return envelope.Error("path is required"), nil
	}

	switch p.Command {
	case "view":
		return editor.View(p.SessionID, p.Path, p.ViewRange)
	case "str_replace":
		if p.OldStr == "" {
			return envelope.Error("old_str is required"), nil
		}
		return editor.StrReplace(p.SessionID, p.Path, p.OldStr, p.NewStr, p.ReplaceAll)
	case "create":
		return editor.Create(p.SessionID, p.Path, p.FileText)
	default:
		return envelope.Error("unknown command: " + p.Command), nil
	}
}

// FileEditParams is the non-sessioned editor tool's parameter bag
// (§4.6): identical vocabulary to SessionEditParams, minus session_id,
// resolved against a configured host base directory.
type FileEditParams struct {
	Command    string `json:"command" jsonschema:"one of view, str_replace, create"`
	Path       string `json:"path" jsonschema:"path, resolved against the server's configured base directory"`
	ViewRange  []int  `json:"view_range,omitempty" jsonschema:"optional [start,end] 1-based inclusive line range; end -1 means end of file"`
	OldStr     string `json:"old_str,omitempty" jsonschema:"the literal text to replace, required for str_replace"`
	NewStr     string `json:"new_str,omitempty" jsonschema:"the replacement text, required for str_replace"`
	ReplaceAll bool   `json:"replace_all,omitempty" jsonschema:"replace every occurrence of old_str instead of requiring exactly one"`
	FileText   string `json:"file_text,omitempty" jsonschema:"the content to write, required for create"`
}

// RegisterFileEditor registers the non-sessioned, host-filesystem
// editor tool (§4.6), under the vendor-compatible name
// str_replace_editor (aliased from str_replace_based_edit_tool by the
// dispatcher).
func RegisterFileEditor(reg *registry.Registry, baseDir string) {
	editor := fileeditor.New(baseDir)

	registry.Register(reg, registry.ToolDef{
		Name:        "str_replace_editor",
		Description: "View, create, or edit (by exact string replacement) a file on the host filesystem.",
	}, func(ctx context.Context, p FileEditParams) (*mcp_sdk.CallToolResult, error) {
		if p.Path == "" {
			return envelope.Error("path is required"), nil
		}

		var result *mcp_sdk.CallToolResult
		var err error
		switch p.Command {
		case "view":
			result, err = editor.View(p.Path, p.ViewRange)
		case "str_replace":
			if p.OldStr == "" {
				return envelope.Error("old_str is required"), nil
			}
			result, err = editor.StrReplace(p.Path, p.OldStr, p.NewStr, p.ReplaceAll)
		case "create":
			result, err = editor.Create(p.Path, p.FileText)
		default:
			return envelope.Error("unknown command: " + p.Command), nil
		}

		if err == nil {
			metrics.RecordToolCall("str_replace_editor", result.IsError)
		}
		return result, err
	})
}
