package fileeditor

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	mcp_sdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

func firstText(res *mcp_sdk.CallToolResult) string {
	for _, c := range res.Content {
		if tc, ok := c.(*mcp_sdk.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestCreateEditView(t *testing.T) {
	dir := t.TempDir()
	editor := New(dir)

	created, err := editor.Create("t.txt", "Hello World\nThis is a test\nAnother line")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.IsError {
		t.Fatalf("expected success, got %+v", created.Content)
	}
	if firstText(created) != "File created successfully at t.txt" {
		t.Fatalf("unexpected create message: %q", firstText(created))
	}

	edited, err := editor.StrReplace("t.txt", "Hello World", "Hello Julia", false)
	if err != nil {
		t.Fatalf("StrReplace: %v", err)
	}
	if edited.IsError {
		t.Fatalf("expected success, got %+v", edited.Content)
	}

	viewed, err := editor.View("t.txt", nil)
	if err != nil {
		t.Fatalf("View: %v", err)
	}
	if !strings.Contains(firstText(viewed), "1\tHello Julia") {
		t.Fatalf("expected first line Hello Julia, got %q", firstText(viewed))
	}
}

func TestCreateRefusesExisting(t *testing.T) {
	dir := t.TempDir()
	editor := New(dir)

	if res, err := editor.Create("t.txt", "one"); err != nil || res.IsError {
		t.Fatalf("first create: %v %+v", err, res)
	}
	res, err := editor.Create("t.txt", "two")
	if err != nil {
		t.Fatalf("second create: %v", err)
	}
	if !res.IsError {
		t.Fatal("expected create on an existing file to error")
	}
	data, _ := os.ReadFile(filepath.Join(dir, "t.txt"))
	if string(data) != "one" {
		t.Fatalf("expected original content preserved, got %q", data)
	}
}

func TestAmbiguousReplaceLeavesFileUnchanged(t *testing.T) {
	dir := t.TempDir()
	editor := New(dir)
	original := "foo bar\nfoo baz\nfoo qux"

	if res, err := editor.Create("t.txt", original); err != nil || res.IsError {
		t.Fatalf("create: %v %+v", err, res)
	}

	res, err := editor.StrReplace("t.txt", "foo", "bar", false)
	if err != nil {
		t.Fatalf("StrReplace: %v", err)
	}
	if !res.IsError {
		t.Fatal("expected ambiguous replace to error")
	}
	if !strings.Contains(firstText(res), "3 times") {
		t.Fatalf("expected occurrence count in error, got %q", firstText(res))
	}

	data, _ := os.ReadFile(filepath.Join(dir, "t.txt"))
	if string(data) != original {
		t.Fatalf("expected file unchanged, got %q", data)
	}
}

func TestViewRangeValidation(t *testing.T) {
	dir := t.TempDir()
	editor := New(dir)

	var lines []string
	for i := 1; i <= 20; i++ {
		lines = append(lines, "line")
	}
	content := strings.Join(lines, "\n")
	if res, err := editor.Create("f.txt", content); err != nil || res.IsError {
		t.Fatalf("create: %v %+v", err, res)
	}

	res, err := editor.View("f.txt", []int{18, -1})
	if err != nil {
		t.Fatalf("View: %v", err)
	}
	if res.IsError {
		t.Fatalf("expected success for [18,-1], got %+v", res.Content)
	}

	bad, err := editor.View("f.txt", []int{10, 5})
	if err != nil {
		t.Fatalf("View: %v", err)
	}
	if !bad.IsError {
		t.Fatal("expected [10,5] to error")
	}
}
