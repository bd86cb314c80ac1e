package socketrpc_test

import (
	"bufio"
	"errors"
	"net"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/tinytelemetry/msglog/internal/app"
	"github.com/tinytelemetry/msglog/internal/ledger"
	"github.com/tinytelemetry/msglog/internal/model"
	"github.com/tinytelemetry/msglog/internal/socketrpc"
)

func startTestServer(t *testing.T) (string, *app.Service, *socketrpc.Server) {
	t.Helper()
	svc := app.New(ledger.New(model.DefaultAppConfig()), nil)
	svc.Initialize()

	sockPath := filepath.Join(t.TempDir(), "test.sock")
	srv := socketrpc.NewServer(sockPath, svc)
	if err := srv.Start(); err != nil {
		t.Fatalf("start server: %v", err)
	}
	return sockPath, svc, srv
}

func TestRoundtrip(t *testing.T) {
	sockPath, svc, srv := startTestServer(t)
	defer srv.Stop()

	client, err := socketrpc.Dial(sockPath, socketrpc.ClientConfig{Caller: "ci-runner"})
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer client.Close()

	t.Run("ExternalGetStatus", func(t *testing.T) {
		status, err := client.ExternalGetStatus()
		if err != nil {
			t.Fatal(err)
		}
		// Initialization plus this request.
		if status.MessageCount != 2 {
			t.Fatalf("message_count = %d, want 2", status.MessageCount)
		}
		if len(status.ChannelStats) != 2 || status.ChannelStats[1] != (model.ChannelStat{Channel: "External", Count: 1}) {
			t.Fatalf("unexpected channel stats: %v", status.ChannelStats)
		}
	})

	t.Run("LogExternalMessage", func(t *testing.T) {
		resp, err := client.LogExternalMessage("deploy", "v1.2.3")
		if err != nil {
			t.Fatal(err)
		}
		if !resp.Success || resp.Message != "Message logged successfully" {
			t.Fatalf("unexpected response: %+v", resp)
		}

		var last model.LogEntry
		svc.Inspect(func(st *ledger.State) { last = st.History[len(st.History)-1] })
		if last.Source != "External:ci-runner" || last.TypeName != `Other("deploy")` || *last.Content != "v1.2.3" {
			t.Fatalf("unexpected entry: %+v", last)
		}
	})

	t.Run("ExternalGetHistory", func(t *testing.T) {
		hist, err := client.ExternalGetHistory()
		if err != nil {
			t.Fatal(err)
		}
		if len(hist.Entries) != 4 {
			t.Fatalf("entries = %d, want 4", len(hist.Entries))
		}
		if hist.Entries[3].Source != "External:GetHistory" || *hist.Entries[3].Content != "History requested externally" {
			t.Fatalf("unexpected last entry: %+v", hist.Entries[3])
		}
	})

	t.Run("ExternalClearHistory", func(t *testing.T) {
		resp, err := client.ExternalClearHistory()
		if err != nil {
			t.Fatal(err)
		}
		if !resp.Success {
			t.Fatalf("unexpected response: %+v", resp)
		}
		var n int
		svc.Inspect(func(st *ledger.State) { n = len(st.History) })
		if n != 1 {
			t.Fatalf("history after clear = %d, want 1", n)
		}
	})
}

func TestDefaultCaller(t *testing.T) {
	sockPath, _, srv := startTestServer(t)
	defer srv.Stop()

	client, err := socketrpc.Dial(sockPath)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer client.Close()

	if !strings.Contains(client.Caller(), ":") {
		t.Errorf("Caller() = %q, want host:pid", client.Caller())
	}
}

func TestParseErrorKeepsConnection(t *testing.T) {
	sockPath, _, srv := startTestServer(t)
	defer srv.Stop()

	conn, err := net.Dial("unix", sockPath)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(2 * time.Second))

	scanner := bufio.NewScanner(conn)
	if _, err := conn.Write([]byte("{broken\n")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if !scanner.Scan() || !strings.Contains(scanner.Text(), "-32700") {
		t.Fatalf("parse error response = %q", scanner.Text())
	}

	if _, err := conn.Write([]byte(`{"jsonrpc":"2.0","id":7,"method":"Nope"}` + "\n")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if !scanner.Scan() || !strings.Contains(scanner.Text(), "-32601") {
		t.Fatalf("method not found response = %q", scanner.Text())
	}
}

func TestRPCErrorSurfaced(t *testing.T) {
	ln := startRawServer(t, `{"jsonrpc":"2.0","id":1,"error":{"code":-32602,"message":"invalid params: boom"}}`)
	client, err := socketrpc.Dial(ln)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer client.Close()

	_, err = client.LogExternalMessage("x", "y")
	var rpcErr *socketrpc.RPCError
	if !errors.As(err, &rpcErr) {
		t.Fatalf("err = %v, want *RPCError", err)
	}
	if rpcErr.Code != -32602 {
		t.Errorf("code = %d, want -32602", rpcErr.Code)
	}
}

// startRawServer answers every line with a fixed response.
func startRawServer(t *testing.T, reply string) string {
	t.Helper()
	sockPath := filepath.Join(t.TempDir(), "raw.sock")
	ln, err := net.Listen("unix", sockPath)
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { ln.Close() })
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func(c net.Conn) {
				defer c.Close()
				sc := bufio.NewScanner(c)
				for sc.Scan() {
					if _, err := c.Write([]byte(reply + "\n")); err != nil {
						return
					}
				}
			}(conn)
		}
	}()
	return sockPath
}

func TestCallTimeout(t *testing.T) {
	sockPath := filepath.Join(t.TempDir(), "silent.sock")
	ln, err := net.Listen("unix", sockPath)
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		time.Sleep(2 * time.Second)
	}()

	client, err := socketrpc.Dial(sockPath, socketrpc.ClientConfig{Timeout: 100 * time.Millisecond})
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer client.Close()

	start := time.Now()
	first := func() error { _, err := client.ExternalGetStatus(); return err }()
	if first == nil {
		t.Fatal("expected timeout error")
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("call took %v, want < 1s", elapsed)
	}

	_, err = client.ExternalGetHistory()
	if !errors.Is(err, first) {
		t.Errorf("second call err = %v, want wrapped %v", err, first)
	}
}

func TestResponseIDMismatch(t *testing.T) {
	sock := startRawServer(t, `{"jsonrpc":"2.0","id":99,"result":{"success":true}}`)
	client, err := socketrpc.Dial(sock)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer client.Close()

	_, err = client.ExternalClearHistory()
	if err == nil || !strings.Contains(err.Error(), "response id 99, want 1") {
		t.Fatalf("err = %v, want id mismatch", err)
	}
	_, err = client.ExternalClearHistory()
	if err == nil || !strings.Contains(err.Error(), "client unusable") {
		t.Errorf("second call err = %v, want client unusable", err)
	}
}

func TestDialFailure(t *testing.T) {
	_, err := socketrpc.Dial(filepath.Join(t.TempDir(), "nonexistent.sock"))
	if err == nil {
		t.Fatal("expected error dialing nonexistent socket")
	}
}

func TestSecondServerRejected(t *testing.T) {
	sockPath, svc, srv := startTestServer(t)
	defer srv.Stop()

	other := socketrpc.NewServer(sockPath, svc)
	if err := other.Start(); err == nil {
		other.Stop()
		t.Fatal("expected second server on the same socket to fail")
	}
}

func TestServerStopCleansSocket(t *testing.T) {
	sockPath, _, srv := startTestServer(t)
	srv.Stop()

	// Socket file should be removed.
	if _, err := socketrpc.Dial(sockPath); err == nil {
		t.Fatal("expected dial to fail after server stop")
	}
}

func TestStopIdempotent(t *testing.T) {
	_, _, srv := startTestServer(t)

	srv.Stop()
	srv.Stop()
}

func TestStopClosesConns(t *testing.T) {
	sockPath, _, srv := startTestServer(t)
	client, err := socketrpc.Dial(sockPath)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer client.Close()

	srv.Stop()

	done := make(chan error, 1)
	go func() {
		_, callErr := client.ExternalGetStatus()
		done <- callErr
	}()

	select {
	case callErr := <-done:
		if callErr == nil {
			t.Fatal("expected client call to fail after server stop")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("client call hung after server stop")
	}
}
