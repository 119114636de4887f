// Package shellsession implements the session manager described in
// §3/§4.4: persistent interactive shell processes addressable by an
// opaque id, with a readiness handshake, sentinel-framed exec, and
// graceful/forced teardown.
package shellsession

import (
	"bufio"
	"io"
	"os/exec"
	"sync"
	"time"
)

// outputChanCapacity is the minimum bounded-queue capacity required by
// §3 ("capacity ≥ 10,000").
const outputChanCapacity = 10000

// Session is one live interactive shell process.
type Session struct {
	ID string

	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout io.ReadCloser
	stderr io.ReadCloser

	// output is the bounded queue of stdout lines, produced by exactly
	// one reader goroutine (readStdout) and drained by exec calls.
	output chan string

	// stderrBuffer accumulates stderr lines seen during startup only;
	// after the ready handshake the shell redirects its own stderr into
	// stdout (`exec 2>&1`), so nothing more is appended here.
	stderrBuffer []string
	stderrMu     sync.Mutex
	stderrDone   chan struct{}

	// waitDone closes once waitProcess's single cmd.Wait() call returns,
	// at which point cmd.ProcessState is safe to read.
	waitDone chan struct{}

	Metadata  map[string]string
	CreatedAt time.Time

	mu      sync.Mutex // guards running/exited bookkeeping below
	running bool
}

func newSession(id string, cmd *exec.Cmd, metadata map[string]string) *Session {
	return &Session{
		ID:         id,
		cmd:        cmd,
		output:     make(chan string, outputChanCapacity),
		stderrDone: make(chan struct{}),
		waitDone:   make(chan struct{}),
		Metadata:   metadata,
		CreatedAt:  time.Now(),
		running:    true,
	}
}

// IsRunning reports whether the child process is believed to still be
// alive. It is a cheap in-memory flag, flipped to false by markExited
// once waitProcess/Exec/drainUntilMarker/StopSession observe the process has gone
// away (closed output channel, a populated ProcessState, or an explicit
// stop) — it does not itself probe the OS process table.
func (s *Session) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Session) markExited() {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
}

// Uptime reports how long the session has existed.
func (s *Session) Uptime() time.Duration {
	return time.Since(s.CreatedAt)
}

// readStdout is the session's single stdout reader task (§3's
// reader_task). It terminates on EOF or stream error, closing output.
func (s *Session) readStdout() {
	defer close(s.output)
	scanner := bufio.NewScanner(s.stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		s.output <- scanner.Text()
	}
}

// readStderr is the session's stderr_reader_task. It logs and buffers
// every line until startup completes and the shell's own stderr is
// folded into stdout; after that it only ever observes EOF.
func (s *Session) readStderr(logLine func(string)) {
	defer close(s.stderrDone)
	scanner := bufio.NewScanner(s.stderr)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if logLine != nil {
			logLine(line)
		}
		s.stderrMu.Lock()
		s.stderrBuffer = append(s.stderrBuffer, line)
		s.stderrMu.Unlock()
	}
}

// waitProcess is the session's sole cmd.Wait() caller. It blocks until
// the child exits, which populates cmd.ProcessState (unlike a raw
// process.Wait(), which would not), then flips the session to exited.
func (s *Session) waitProcess() {
	_ = s.cmd.Wait()
	s.markExited()
	close(s.waitDone)
}

func (s *Session) stderrSnapshot() []string {
	s.stderrMu.Lock()
	defer s.stderrMu.Unlock()
	out := make([]string, len(s.stderrBuffer))
	copy(out, s.stderrBuffer)
	return out
}

// drainNonBlocking pulls any lines already buffered on output without
// blocking, discarding them. Used after the ready handshake to flush
// echoes of earlier readiness markers (§4.4.1).
func (s *Session) drainNonBlocking() {
	for {
		select {
		case _, ok := <-s.output:
			if !ok {
				return
			}
		default:
			return
		}
	}
}

// StartupError is returned by StartSession when the child exits or the
// readiness handshake times out before the shell responds.
type StartupError struct {
	Message string
}

func (e *StartupError) Error() string { return e.Message }
