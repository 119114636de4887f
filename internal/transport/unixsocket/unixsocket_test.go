package unixsocket

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	mcp_sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/quietloop/sessionmcp/internal/jsonrpc"
	"github.com/quietloop/sessionmcp/internal/registry"
)

func newTestDispatcher() *jsonrpc.Dispatcher {
	r := registry.New()
	registry.Register(r, registry.ToolDef{Name: "echo"}, func(ctx context.Context, p struct {
		Text string `json:"text"`
	}) (*mcp_sdk.CallToolResult, error) {
		return &mcp_sdk.CallToolResult{Content: []mcp_sdk.Content{&mcp_sdk.TextContent{Text: p.Text}}}, nil
	})
	return jsonrpc.New(r, jsonrpc.ServerInfo{Name: "test", Version: "0"})
}

func TestServeAndRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), fmt.Sprintf("sessionmcp_test_%d.sock", time.Now().UnixNano()))
	srv := New(newTestDispatcher(), path, true)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.Serve(ctx) }()

	waitForSocket(t, path)

	conn, err := net.Dial("unix", path)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	args, _ := json.Marshal(map[string]any{"text": "hi"})
	params, _ := json.Marshal(map[string]any{"name": "echo", "arguments": json.RawMessage(args)})
	req := fmt.Sprintf(`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":%s}`, params)
	if _, err := conn.Write([]byte(req + "\n")); err != nil {
		t.Fatalf("write: %v", err)
	}

	scanner := bufio.NewScanner(conn)
	if !scanner.Scan() {
		t.Fatalf("expected a response line, scan error: %v", scanner.Err())
	}

	var resp jsonrpc.Response
	if err := json.Unmarshal(scanner.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Error != nil {
		t.Fatalf("unexpected error: %+v", resp.Error)
	}

	cancel()
	<-serveErr

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected socket file removed on shutdown, stat err: %v", err)
	}
}

func waitForSocket(t *testing.T, path string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if _, err := os.Stat(path); err == nil {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("socket %s never appeared", path)
}
