package tui

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/tinytelemetry/msglog/internal/app"
	"github.com/tinytelemetry/msglog/internal/ledger"
	"github.com/tinytelemetry/msglog/internal/model"
	"github.com/tinytelemetry/msglog/internal/socketrpc"
)

func TestDashboardAgainstSocketServer(t *testing.T) {
	svc := app.New(ledger.New(model.DefaultAppConfig()), nil)
	svc.Initialize()

	sockPath := filepath.Join(t.TempDir(), "tui.sock")
	srv := socketrpc.NewServer(sockPath, svc)
	if err := srv.Start(); err != nil {
		t.Fatalf("start server: %v", err)
	}
	defer srv.Stop()

	client, err := socketrpc.Dial(sockPath)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer client.Close()

	m := NewDashboardModel(time.Second, client, "Socket")
	poll(m)

	// Initialization, the status poll and the history poll.
	if got := len(m.entries); got != 3 {
		t.Fatalf("entries = %d, want 3", got)
	}
	if got := m.entries[1].Source; got != "External:GetStatus" {
		t.Errorf("entries[1].Source = %q, want External:GetStatus", got)
	}
	if m.status.MessageCount != 2 {
		t.Errorf("MessageCount = %d, want 2 at status time", m.status.MessageCount)
	}

	_, cmd := m.Update(runeKey("C"))
	_, refresh := m.Update(cmd())
	if refresh == nil {
		t.Fatal("no refresh after clear")
	}
	m.Update(refresh())

	// Clear event, then the two polls.
	if got := len(m.entries); got != 3 {
		t.Fatalf("entries after clear = %d, want 3", got)
	}
	if got := m.entries[0].Source; got != "External:ClearHistory" {
		t.Errorf("entries[0].Source = %q, want External:ClearHistory", got)
	}
}
