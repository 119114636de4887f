// Command sessionmcp runs the MCP server: a JSON-RPC 2.0 dispatcher
// over stdio or a Unix domain socket, exposing persistent shell
// sessions, a sessioned editor, a one-shot bash tool, and a
// non-sessioned filesystem editor.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/quietloop/sessionmcp/internal/audit"
	"github.com/quietloop/sessionmcp/internal/bashtool"
	"github.com/quietloop/sessionmcp/internal/config"
	"github.com/quietloop/sessionmcp/internal/housekeeping"
	"github.com/quietloop/sessionmcp/internal/jsonrpc"
	"github.com/quietloop/sessionmcp/internal/logger"
	"github.com/quietloop/sessionmcp/internal/metrics"
	"github.com/quietloop/sessionmcp/internal/registry"
	"github.com/quietloop/sessionmcp/internal/shellsession"
	"github.com/quietloop/sessionmcp/internal/tools"
	"github.com/quietloop/sessionmcp/internal/transport/stdio"
	"github.com/quietloop/sessionmcp/internal/transport/unixsocket"
)

// Version is set at build time via -ldflags "-X main.Version=v1.0.0".
var Version = "dev"

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v":
			fmt.Printf("sessionmcp %s\n", Version)
			return
		case "--help", "-h", "help":
			printUsage()
			return
		}
	}

	run()
}

func printUsage() {
	fmt.Printf(`sessionmcp %s - MCP server with persistent shell sessions

Usage: sessionmcp [options]

Options:
  --socket <path>       Serve over a Unix domain socket instead of stdio
  --unlink              Unlink a stale socket file before binding (default true)
  --tool-prefix <name>  Prefix for the four session tools (default "session")
  --shell <path>        Shell binary launched per session (default /bin/bash)
  --base-dir <path>     Base directory for the non-sessioned filesystem editor
  --log-dir <path>      Mirror log output to a file under this directory
  --audit-db <path>     Path to the sqlite exec-history database
  --metrics-addr <addr> Address for an optional debug /metrics HTTP listener
  --max-output-chars N  Truncate exec_command output at N characters
  --max-timeout-ms N    Upper bound on a caller-supplied exec timeout
  --default-timeout-ms N  Default exec timeout when none is given
  --ready-timeout-s N   Seconds to wait for a new session to become ready
`, Version)
}

func run() {
	cfg := config.Default()

	socket := flag.String("socket", "", "Unix domain socket path (empty: use stdio)")
	unlink := flag.Bool("unlink", true, "Unlink a stale socket file before binding")
	toolPrefix := flag.String("tool-prefix", cfg.ToolPrefix, "Prefix for the session tool surface")
	shellPath := flag.String("shell", cfg.ShellPath, "Shell binary launched per session")
	baseDir := flag.String("base-dir", ".", "Base directory for the non-sessioned filesystem editor")
	logDir := flag.String("log-dir", "", "Mirror log output to a file under this directory")
	auditDB := flag.String("audit-db", "", "Path to the sqlite exec-history database (empty disables audit)")
	metricsAddr := flag.String("metrics-addr", "", "Address for an optional debug /metrics HTTP listener (empty disables it)")
	maxOutputChars := flag.Int("max-output-chars", cfg.MaxOutputChars, "Truncate exec_command output at N characters")
	maxTimeoutMs := flag.Int("max-timeout-ms", cfg.MaxTimeoutMs, "Upper bound on a caller-supplied exec timeout")
	defaultTimeoutMs := flag.Int("default-timeout-ms", cfg.DefaultTimeoutMs, "Default exec timeout when none is given")
	readyTimeoutS := flag.Int("ready-timeout-s", cfg.ReadyTimeoutS, "Seconds to wait for a new session to become ready")
	flag.Parse()

	cfg.UseSocket = *socket != ""
	cfg.SocketPath = *socket
	cfg.UnlinkOld = *unlink
	cfg.ToolPrefix = *toolPrefix
	cfg.ShellPath = *shellPath
	cfg.LogDir = *logDir
	cfg.AuditDBPath = *auditDB
	cfg.MetricsAddr = *metricsAddr
	cfg.MaxOutputChars = *maxOutputChars
	cfg.MaxTimeoutMs = *maxTimeoutMs
	cfg.DefaultTimeoutMs = *defaultTimeoutMs
	cfg.ReadyTimeoutS = *readyTimeoutS

	if err := logger.Init(cfg.LogDir); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Close()

	var store *audit.Store
	if cfg.AuditDBPath != "" {
		s, err := audit.NewStore(cfg.AuditDBPath)
		if err != nil {
			logger.Fatal(fmt.Sprintf("failed to open audit store: %v", err))
		}
		store = s
		defer store.Close()
	}

	factory := shellsession.DefaultFactory(shellsession.ShellFactoryConfig{
		ShellPath: cfg.ShellPath,
		ShellArgs: cfg.ShellArgs,
		RunAsUID:  cfg.RunAsUID,
	})
	manager := shellsession.NewManager(factory, cfg.MaxOutputChars, cfg.MaxTimeoutMs, cfg.DefaultTimeoutMs, cfg.ReadyTimeoutS)

	reg := registry.New()
	tools.RegisterSessionTools(reg, manager, cfg, store)
	tools.RegisterSessionEditor(reg, manager, cfg)
	tools.RegisterBashTool(reg, bashtool.New(cfg.ShellPath, cfg.ShellArgs, time.Duration(cfg.DefaultTimeoutMs)*time.Millisecond))
	tools.RegisterFileEditor(reg, *baseDir)

	dispatcher := jsonrpc.New(reg, jsonrpc.ServerInfo{
		Name:    "sessionmcp",
		Version: Version,
	})

	sweeper, err := housekeeping.New(manager, cfg.HousekeepEvery)
	if err != nil {
		logger.Fatal(fmt.Sprintf("failed to build housekeeping sweeper: %v", err))
	}
	sweeper.Start()
	defer sweeper.Stop()

	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		srv := &http.Server{Addr: cfg.MetricsAddr, Handler: mux}
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("metrics listener stopped: %v", err)
			}
		}()
		defer srv.Close()
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	defer manager.StopAll()

	if cfg.UseSocket {
		srv := unixsocket.New(dispatcher, cfg.SocketPath, cfg.UnlinkOld)
		logger.Info("sessionmcp listening on unix socket %s", cfg.SocketPath)
		if err := srv.Serve(ctx); err != nil {
			logger.Fatal(fmt.Sprintf("unix socket transport exited: %v", err))
		}
		return
	}

	logger.Info("sessionmcp serving over stdio")
	srv := stdio.New(dispatcher, os.Stdin, os.Stdout)
	if err := srv.Serve(ctx); err != nil {
		logger.Fatal(fmt.Sprintf("stdio transport exited: %v", err))
	}
}
