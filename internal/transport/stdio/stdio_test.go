package stdio

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	mcp_sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/quietloop/sessionmcp/internal/jsonrpc"
	"github.com/quietloop/sessionmcp/internal/registry"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.String()
}

func newTestDispatcher() *jsonrpc.Dispatcher {
	r := registry.New()
	registry.Register(r, registry.ToolDef{Name: "slow"}, func(ctx context.Context, p struct{}) (*mcp_sdk.CallToolResult, error) {
		time.Sleep(1 * time.Second)
		return &mcp_sdk.CallToolResult{Content: []mcp_sdk.Content{&mcp_sdk.TextContent{Text: "done"}}}, nil
	})
	return jsonrpc.New(r, jsonrpc.ServerInfo{Name: "test", Version: "0"})
}

// TestConcurrentDispatch is the §8 "concurrent stdio dispatch" property:
// a long-running request must not block an independent, fast request
// submitted after it.
func TestConcurrentDispatch(t *testing.T) {
	d := newTestDispatcher()

	slowParams, _ := json.Marshal(map[string]any{"name": "slow", "arguments": map[string]any{}})
	in := strings.NewReader(
		`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":` + string(slowParams) + "}\n" +
			`{"jsonrpc":"2.0","id":2,"method":"tools/list"}` + "\n",
	)

	out := &syncBuffer{}
	srv := New(d, in, out)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	done := make(chan struct{})
	go func() {
		srv.Serve(ctx)
		close(done)
	}()

	// Poll for the fast response to land well before the slow one could.
	deadline := time.Now().Add(700 * time.Millisecond)
	var sawFast bool
	for time.Now().Before(deadline) {
		if strings.Contains(out.String(), `"id":2`) {
			sawFast = true
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if !sawFast {
		t.Fatalf("expected the tools/list response before the slow exec completed, got %q", out.String())
	}
	if strings.Contains(out.String(), `"id":1`) {
		t.Fatalf("did not expect the slow response yet, got %q", out.String())
	}

	<-done
	if !strings.Contains(out.String(), `"id":1`) {
		t.Fatalf("expected the slow response eventually, got %q", out.String())
	}
}

func TestNotificationProducesNoResponse(t *testing.T) {
	d := newTestDispatcher()
	in := strings.NewReader(`{"jsonrpc":"2.0","method":"ping"}` + "\n")
	out := &syncBuffer{}
	srv := New(d, in, out)

	srv.Serve(context.Background())

	if out.String() != "" {
		t.Fatalf("expected no response for a notification, got %q", out.String())
	}
}

func TestUnparseableLineProducesParseError(t *testing.T) {
	d := newTestDispatcher()
	in := strings.NewReader("not json\n")
	out := &syncBuffer{}
	srv := New(d, in, out)

	srv.Serve(context.Background())

	scanner := bufio.NewScanner(strings.NewReader(out.String()))
	if !scanner.Scan() {
		t.Fatal("expected one line of output")
	}
	var resp jsonrpc.Response
	if err := json.Unmarshal(scanner.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if resp.Error == nil || resp.Error.Code != jsonrpc.CodeParseError {
		t.Fatalf("expected a parse error, got %+v", resp.Error)
	}
}
