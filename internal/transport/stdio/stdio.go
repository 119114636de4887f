// Package stdio implements the stdio transport of §4.2: newline-framed
// JSON-RPC requests read from standard input, each request carrying an
// id dispatched on its own goroutine, with writes to standard output
// serialised through a single mutex. Grounded on the getmockd
// StdioServer's scan-dispatch-write loop, generalised to concurrent
// per-request dispatch.
package stdio

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"strings"
	"sync"

	"github.com/quietloop/sessionmcp/internal/jsonrpc"
	"github.com/quietloop/sessionmcp/internal/logger"
)

// Server reads requests from in and writes responses to out.
type Server struct {
	Dispatcher *jsonrpc.Dispatcher
	In         io.Reader
	Out        io.Writer

	writeMu sync.Mutex
	wg      sync.WaitGroup
}

// New creates a stdio Server.
func New(d *jsonrpc.Dispatcher, in io.Reader, out io.Writer) *Server {
	return &Server{Dispatcher: d, In: in, Out: out}
}

// Serve reads lines until In reaches EOF, dispatching each well-formed
// request with an id on its own goroutine. ctx is passed to every
// dispatch; cancelling it does not stop the read loop. Serve blocks
// until input closes and all in-flight dispatches have completed.
func (s *Server) Serve(ctx context.Context) error {
	scanner := bufio.NewScanner(s.In)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var req jsonrpc.Request
		if err := json.Unmarshal([]byte(line), &req); err != nil {
			s.write(jsonrpc.ParseError())
			continue
		}

		if req.IsNotification() {
			s.wg.Add(1)
			go func(r jsonrpc.Request) {
				defer s.wg.Done()
				s.Dispatcher.Handle(ctx, &r)
			}(req)
			continue
		}

		s.wg.Add(1)
		go func(r jsonrpc.Request) {
			defer s.wg.Done()
			resp := s.Dispatcher.Handle(ctx, &r)
			s.write(resp)
		}(req)
	}

	s.wg.Wait()

	if err := scanner.Err(); err != nil {
		logger.Error("stdio transport: scan error: %v", err)
		return err
	}
	return nil
}

// write serialises one response onto Out, guarded by writeMu so
// concurrently completing dispatches never interleave their JSON.
func (s *Server) write(resp *jsonrpc.Response) {
	data, err := json.Marshal(resp)
	if err != nil {
		logger.Error("stdio transport: failed to marshal response: %v", err)
		return
	}
	data = append(data, '\n')

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if _, err := s.Out.Write(data); err != nil {
		logger.Error("stdio transport: write error: %v", err)
	}
}
