package socketrpc

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// JSON-RPC 2.0 Method Reference
//
// The socket RPC server exposes model.RemoteHandler over a Unix domain socket,
// one JSON object per line in each direction.
//
//   Method                  Params                                          Result
//   ────────────────────    ──────────────────────────────────────────────  ───────────────
//   ExternalGetStatus       (none)                                          StatusResponse
//   ExternalGetHistory      (none)                                          HistoryResponse
//   ExternalClearHistory    (none)                                          SuccessResponse
//   LogExternalMessage      {Caller: string, MessageType: string,           SuccessResponse
//                            Content: string}
//
// Caller is optional; when empty the server records the peer address, or
// "anonymous" when the socket has none.
//
// Error codes follow JSON-RPC 2.0:
//   -32700  Parse error (malformed JSON)
//   -32601  Method not found
//   -32602  Invalid params (missing MessageType or Content)
//   -32603  Internal error (marshal failure)

const (
	MethodExternalGetStatus    = "ExternalGetStatus"
	MethodExternalGetHistory   = "ExternalGetHistory"
	MethodExternalClearHistory = "ExternalClearHistory"
	MethodLogExternalMessage   = "LogExternalMessage"
)

// Request is a JSON-RPC 2.0 request.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int             `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
}

// Response is a JSON-RPC 2.0 response.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int             `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// RPCError represents a JSON-RPC 2.0 error object.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string { return e.Message }

// LogParams are the params of LogExternalMessage.
type LogParams struct {
	Caller      string
	MessageType *string
	Content     *string
}

// DefaultSocketPath returns the default Unix socket path.
// It prefers $XDG_RUNTIME_DIR/msglog/msglog.sock, falling back to
// ~/.local/state/msglog/msglog.sock.
func DefaultSocketPath() string {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, "msglog", "msglog.sock")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "/tmp/msglog.sock"
	}
	return filepath.Join(home, ".local", "state", "msglog", "msglog.sock")
}
