package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/sync/errgroup"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/tinytelemetry/msglog/internal/app"
	"github.com/tinytelemetry/msglog/internal/httpserver"
	"github.com/tinytelemetry/msglog/internal/ledger"
	"github.com/tinytelemetry/msglog/internal/snapshot"
	"github.com/tinytelemetry/msglog/internal/socketrpc"
	"github.com/tinytelemetry/msglog/internal/terminal"
	"github.com/tinytelemetry/msglog/internal/timer"
	"github.com/tinytelemetry/msglog/internal/wshub"
)

// runServer starts the message log with its HTTP, WebSocket and socket surfaces.
func runServer(cfg appConfig) error {
	cleanupLogger := configureRuntimeLogger(cfg)
	defer cleanupLogger()

	st, store, err := openState(cfg)
	if err != nil {
		return err
	}

	var persist app.Persister
	if store != nil {
		persist = store
	}
	svc := app.New(st, persist)
	svc.Initialize()

	hub := wshub.NewHub(svc, wshub.Config{SendBuffer: cfg.PushBuffer})
	svc.SetPusher(hub)
	defer func() {
		if n := hub.ClientCount(); n > 0 {
			log.Printf("server: disconnecting %d websocket clients", n)
		}
		hub.Close()
	}()

	// Start HTTP API and WebSocket binding if enabled
	if cfg.APIEnabled {
		apiServer := httpserver.NewServer(cfg.APIAddr, svc, httpserver.Config{
			WSPath: cfg.WSPath,
			WS:     http.HandlerFunc(hub.Serve),
			CORS:   cfg.CORSEnabled,
		})
		if err := apiServer.Start(); err != nil {
			return fmt.Errorf("failed to start API server: %w", err)
		}
		defer apiServer.Stop()
	}

	// Start socket RPC server for external callers
	socketActive := false
	if cfg.SocketPath != "" {
		sockServer := socketrpc.NewServer(cfg.SocketPath, svc)
		if err := sockServer.Start(); err != nil {
			log.Printf("Warning: failed to start socket server: %v", err)
		} else {
			socketActive = true
			defer sockServer.Stop()
		}
	}

	ticker := timer.New(svc.HandleTimer, timer.Config{Interval: cfg.TimerInterval})
	defer ticker.Stop()

	// Set up context and signal handling before errgroup
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		fmt.Println("\nShutting down gracefully... (press Ctrl+C again to force)")
		cancel()

		// Shutdown deadline starts at the signal, not at boot.
		deadline := time.NewTimer(10 * time.Second)
		defer deadline.Stop()

		select {
		case <-sigCh:
			fmt.Println("\nForce shutdown.")
		case <-deadline.C:
			fmt.Println("Shutdown timed out, forcing exit.")
		}
		cleanupSocket(cfg.SocketPath)
		os.Exit(1)
	}()

	var retained int
	svc.Inspect(func(st *ledger.State) { retained = len(st.History) })
	printStartupBanner(cfg, socketActive, retained)

	// Use errgroup for concurrent goroutine lifecycle management.
	g, gctx := errgroup.WithContext(ctx)

	// Operator commands from stdin
	if cfg.TerminalEnabled {
		src := terminal.NewSource(gctx)
		g.Go(func() error {
			defer src.Stop()
			return terminal.Serve(gctx, src, svc, os.Stdout)
		})
	}

	// Wait for context cancellation (from signal handler) in the errgroup
	g.Go(func() error {
		<-gctx.Done()
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Printf("server: errgroup exited with error: %v", err)
	}

	cancel()

	// If we reach here, graceful shutdown succeeded within the deadline.
	// The signal goroutine (if active) dies with the process.
	signal.Stop(sigCh)

	return nil
}

// openState loads the persisted state, or creates a fresh one when there is
// none, persistence is disabled, or the snapshot cannot be decoded.
func openState(cfg appConfig) (*ledger.State, *snapshot.Store, error) {
	if cfg.StatePath == "" {
		log.Printf("server: persistence disabled, state is in-memory only")
		return ledger.New(cfg.appConfig()), nil, nil
	}

	store, err := snapshot.Open(cfg.StatePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open state file: %w", err)
	}

	st, ok, err := store.Load()
	switch {
	case errors.Is(err, snapshot.ErrCorrupt):
		dst, qerr := store.Quarantine()
		if qerr != nil {
			return nil, nil, fmt.Errorf("failed to quarantine state file: %w", qerr)
		}
		log.Printf("server: %v; moved to %s, starting fresh", err, dst)
		return ledger.New(cfg.appConfig()), store, nil
	case err != nil:
		return nil, nil, fmt.Errorf("failed to load state: %w", err)
	case !ok:
		return ledger.New(cfg.appConfig()), store, nil
	}

	st.Restore(cfg.appConfig())
	log.Printf("server: restored %d history entries from %s", len(st.History), store.Path())
	return st, store, nil
}

func cleanupSocket(path string) {
	if path != "" {
		os.Remove(path)
	}
}

func configureRuntimeLogger(cfg appConfig) func() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	if cfg.LogFile == "" {
		log.SetOutput(os.Stderr)
		return func() {}
	}
	if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0755); err != nil {
		log.SetOutput(os.Stderr)
		return func() {}
	}

	w := &lumberjack.Logger{
		Filename:   cfg.LogFile,
		MaxSize:    cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		Compress:   true,
	}
	log.SetOutput(w)
	return func() {
		_ = w.Close()
	}
}

func printStartupBanner(cfg appConfig, socketActive bool, retained int) {
	dim := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	green := lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	cyan := lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	yellow := lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	bold := lipgloss.NewStyle().Bold(true)

	check := green.Render("●")
	dot := dim.Render("●")

	logo := cyan.Bold(true).Render(`
    ╔╦╗╔═╗╔═╗╦  ╔═╗╔═╗
    ║║║╚═╗║ ╦║  ║ ║║ ╦
    ╩ ╩╚═╝╚═╝╩═╝╚═╝╚═╝`)

	ver := dim.Render("v" + version)

	var lines []string
	lines = append(lines, "")
	lines = append(lines, logo)
	lines = append(lines, "    "+ver)
	lines = append(lines, "")

	separator := dim.Render("    ─────────────────────────────────")
	lines = append(lines, separator)
	lines = append(lines, "")

	// Gateway
	lines = append(lines, bold.Render("    Gateway"))
	lines = append(lines, "")

	if cfg.APIEnabled {
		lines = append(lines, fmt.Sprintf("    %s  HTTP API       %s", check, cyan.Render(cfg.APIAddr)))
		lines = append(lines, fmt.Sprintf("    %s  WebSocket      %s", check, cyan.Render("ws://"+cfg.APIAddr+cfg.WSPath)))
	} else {
		lines = append(lines, fmt.Sprintf("    %s  HTTP API       %s", dot, dim.Render("disabled")))
		lines = append(lines, fmt.Sprintf("    %s  WebSocket      %s", dot, dim.Render("disabled")))
	}

	if socketActive {
		lines = append(lines, fmt.Sprintf("    %s  Unix Socket    %s", check, cyan.Render(shortenPath(cfg.SocketPath))))
	} else {
		lines = append(lines, fmt.Sprintf("    %s  Unix Socket    %s", dot, dim.Render("disabled")))
	}
	if cfg.TerminalEnabled {
		lines = append(lines, fmt.Sprintf("    %s  Terminal       %s", check, dim.Render("stdin")))
	}
	lines = append(lines, "")

	// Storage
	lines = append(lines, bold.Render("    Storage"))
	lines = append(lines, "")

	if cfg.StatePath != "" {
		lines = append(lines, fmt.Sprintf("    %s  State File     %s", check, dim.Render(shortenPath(cfg.StatePath))))
	} else {
		lines = append(lines, fmt.Sprintf("    %s  State File     %s", dot, dim.Render("in-memory")))
	}
	lines = append(lines, fmt.Sprintf("    %s  History        %s", check, dim.Render(fmt.Sprintf("%d of %d entries", retained, cfg.MaxHistory))))
	lines = append(lines, "")

	// Runtime
	lines = append(lines, bold.Render("    Runtime"))
	lines = append(lines, "")

	if cfg.TimerInterval > 0 {
		lines = append(lines, fmt.Sprintf("    %s  Timer          %s", check, dim.Render("every "+cfg.TimerInterval.String())))
	} else {
		lines = append(lines, fmt.Sprintf("    %s  Timer          %s", dot, dim.Render("disabled")))
	}

	lines = append(lines, "")
	lines = append(lines, bold.Render("    Config"))
	lines = append(lines, "")
	if cfg.ConfigPath != "" {
		lines = append(lines, fmt.Sprintf("    %s  Config File    %s", check, dim.Render(shortenPath(cfg.ConfigPath))))
	} else {
		lines = append(lines, fmt.Sprintf("    %s  Config File    %s", dot, dim.Render("default (no file)")))
	}

	lines = append(lines, "")
	lines = append(lines, separator)
	lines = append(lines, "")
	lines = append(lines, "    "+dim.Render("Press ")+yellow.Render("Ctrl+C")+dim.Render(" to stop"))
	lines = append(lines, "")

	fmt.Println(strings.Join(lines, "\n"))
}

func shortenPath(path string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	if strings.HasPrefix(path, home) {
		return "~" + path[len(home):]
	}
	return path
}
