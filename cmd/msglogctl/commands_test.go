package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tinytelemetry/msglog/internal/app"
	"github.com/tinytelemetry/msglog/internal/ledger"
	"github.com/tinytelemetry/msglog/internal/model"
	"github.com/tinytelemetry/msglog/internal/socketrpc"
)

func startServer(t *testing.T) (string, *app.Service) {
	t.Helper()
	svc := app.New(ledger.New(model.DefaultAppConfig()), nil)
	svc.Initialize()

	sockPath := filepath.Join(t.TempDir(), "ctl.sock")
	srv := socketrpc.NewServer(sockPath, svc)
	if err := srv.Start(); err != nil {
		t.Fatalf("start server: %v", err)
	}
	t.Cleanup(srv.Stop)
	return sockPath, svc
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestStatusCommand(t *testing.T) {
	sock, _ := startServer(t)

	out, err := run(t, "--socket", sock, "status")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	var status model.StatusResponse
	if err := json.Unmarshal([]byte(out), &status); err != nil {
		t.Fatalf("unmarshal status %q: %v", out, err)
	}
	if status.MessageCount != 2 {
		t.Errorf("message_count = %d, want 2", status.MessageCount)
	}
}

func TestLogCommandJoinsContent(t *testing.T) {
	sock, svc := startServer(t)

	if _, err := run(t, "--socket", sock, "--caller", "ci", "log", "deploy", "v1.2.3", "rolled", "out"); err != nil {
		t.Fatalf("log: %v", err)
	}

	var last model.LogEntry
	svc.Inspect(func(st *ledger.State) { last = st.History[len(st.History)-1] })
	if last.Source != "External:ci" {
		t.Errorf("source = %q, want External:ci", last.Source)
	}
	if last.Content == nil || *last.Content != "v1.2.3 rolled out" {
		t.Errorf("content = %v, want v1.2.3 rolled out", last.Content)
	}
}

func TestLogCommandRequiresArgs(t *testing.T) {
	sock, _ := startServer(t)

	if _, err := run(t, "--socket", sock, "log", "deploy"); err == nil {
		t.Fatal("expected error for missing content")
	}
}

func TestHistoryCommandYAML(t *testing.T) {
	sock, _ := startServer(t)

	out, err := run(t, "--socket", sock, "-o", "yaml", "history")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	for _, want := range []string{"entries:", "source: System", "Initialization"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestClearCommand(t *testing.T) {
	sock, svc := startServer(t)

	out, err := run(t, "--socket", sock, "clear")
	if err != nil {
		t.Fatalf("clear: %v", err)
	}
	if !strings.Contains(out, `"success": true`) {
		t.Errorf("output = %s, want success", out)
	}
	var n int
	svc.Inspect(func(st *ledger.State) { n = len(st.History) })
	if n != 1 {
		t.Errorf("history after clear = %d, want 1", n)
	}
}

func TestUnsupportedOutput(t *testing.T) {
	sock, _ := startServer(t)

	if _, err := run(t, "--socket", sock, "-o", "xml", "status"); err == nil {
		t.Fatal("expected error for unsupported output format")
	}
}

func TestDialError(t *testing.T) {
	if _, err := run(t, "--socket", filepath.Join(t.TempDir(), "none.sock"), "status"); err == nil {
		t.Fatal("expected dial error")
	}
}
