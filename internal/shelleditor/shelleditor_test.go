package shelleditor

import (
	"fmt"
	"os/exec"
	"strings"
	"testing"
	"time"

	mcp_sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/quietloop/sessionmcp/internal/shellsession"
)

func newTestEditor(t *testing.T) (*Editor, *shellsession.Manager, string) {
	t.Helper()
	factory := func(params map[string]any) (*exec.Cmd, map[string]string, error) {
		return exec.Command("/bin/bash"), map[string]string{}, nil
	}
	manager := shellsession.NewManager(factory, 30000, 600000, 5000, 10)
	sess, err := manager.StartSession(nil)
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	t.Cleanup(func() { manager.StopSession(sess.ID) })
	return New(manager, 5*time.Second), manager, sess.ID
}

func tempPath(t *testing.T) string {
	return fmt.Sprintf("/tmp/shelleditor_test_%d.txt", time.Now().UnixNano())
}

func firstText(res *mcp_sdk.CallToolResult) string {
	for _, c := range res.Content {
		if tc, ok := c.(*mcp_sdk.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestCreateEditView(t *testing.T) {
	editor, _, sid := newTestEditor(t)
	path := tempPath(t)

	created, err := editor.Create(sid, path, "Hello World\nThis is a test\nAnother line")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.IsError {
		t.Fatalf("expected success, got error result: %+v", created.Content)
	}

	edited, err := editor.StrReplace(sid, path, "Hello World", "Hello Julia", false)
	if err != nil {
		t.Fatalf("StrReplace: %v", err)
	}
	if edited.IsError {
		t.Fatalf("expected success, got error: %+v", edited.Content)
	}

	viewed, err := editor.View(sid, path, nil)
	if err != nil {
		t.Fatalf("View: %v", err)
	}
	if viewed.IsError {
		t.Fatalf("expected success, got error: %+v", viewed.Content)
	}
	text := firstText(viewed)
	if !strings.Contains(text, "1\tHello Julia") {
		t.Fatalf("expected first line %q in view output, got %q", "1\tHello Julia", text)
	}
}

func TestAmbiguousReplace(t *testing.T) {
	editor, _, sid := newTestEditor(t)
	path := tempPath(t)

	if res, err := editor.Create(sid, path, "foo bar\nfoo baz\nfoo qux"); err != nil || res.IsError {
		t.Fatalf("Create: %v %+v", err, res)
	}

	res, err := editor.StrReplace(sid, path, "foo", "bar", false)
	if err != nil {
		t.Fatalf("StrReplace: %v", err)
	}
	if !res.IsError {
		t.Fatal("expected ambiguous replace to error")
	}
	text := firstText(res)
	if !strings.Contains(text, "3 times") || !strings.Contains(text, "1, 2, 3") {
		t.Fatalf("expected line numbers and count in error, got %q", text)
	}

	all, err := editor.StrReplace(sid, path, "foo", "bar", true)
	if err != nil {
		t.Fatalf("StrReplace all: %v", err)
	}
	if all.IsError {
		t.Fatalf("expected replace_all to succeed, got %+v", all)
	}
	if !strings.Contains(firstText(all), "Made 3 replacements") {
		t.Fatalf("expected replacement count in success text, got %q", firstText(all))
	}
}

func TestCreateRefusesExisting(t *testing.T) {
	editor, _, sid := newTestEditor(t)
	path := tempPath(t)

	if res, err := editor.Create(sid, path, "one"); err != nil || res.IsError {
		t.Fatalf("first create: %v %+v", err, res)
	}
	res, err := editor.Create(sid, path, "two")
	if err != nil {
		t.Fatalf("second create: %v", err)
	}
	if !res.IsError {
		t.Fatal("expected second create on existing path to error")
	}
}

