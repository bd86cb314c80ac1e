package socketrpc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/tinytelemetry/msglog/internal/model"
)

// ClientConfig holds optional client settings.
type ClientConfig struct {
	// Caller identifies this process in LogExternalMessage. Defaults to
	// "<hostname>:<pid>".
	Caller string
	// Timeout bounds each call. Defaults to model.DefaultRemoteTimeout.
	Timeout time.Duration
}

// Client calls a message log server over a Unix domain socket using JSON-RPC 2.0.
// Calls are serialized. A transport failure (send or read error, timeout, or a
// response for another request) closes the connection, and every later call
// returns that failure; Dial again to recover.
type Client struct {
	conn    net.Conn
	mu      sync.Mutex
	nextID  int
	broken  error
	scanner *bufio.Scanner
	encoder *json.Encoder
	caller  string
	timeout time.Duration
}

// Dial connects to the socket RPC server at the given path.
func Dial(socketPath string, conf ...ClientConfig) (*Client, error) {
	var cfg ClientConfig
	if len(conf) > 0 {
		cfg = conf[0]
	}
	if cfg.Caller == "" {
		cfg.Caller = defaultCaller()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = model.DefaultRemoteTimeout
	}

	conn, err := net.DialTimeout("unix", socketPath, 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("socketrpc: dial: %w", err)
	}
	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, scannerInitBufSize), scannerMaxTokenSize)
	return &Client{
		conn:    conn,
		scanner: scanner,
		encoder: json.NewEncoder(conn),
		caller:  cfg.Caller,
		timeout: cfg.Timeout,
	}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// Caller returns the identity sent with LogExternalMessage.
func (c *Client) Caller() string { return c.caller }

// call performs a JSON-RPC call and unmarshals the result into dest.
func (c *Client) call(method string, params interface{}, dest interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.broken != nil {
		return fmt.Errorf("socketrpc: client unusable: %w", c.broken)
	}

	c.nextID++
	id := c.nextID

	var paramsData json.RawMessage
	if params != nil {
		data, err := json.Marshal(params)
		if err != nil {
			return fmt.Errorf("socketrpc: marshal params: %w", err)
		}
		paramsData = data
	}

	req := Request{
		JSONRPC: "2.0",
		ID:      id,
		Method:  method,
		Params:  paramsData,
	}

	c.conn.SetDeadline(time.Now().Add(c.timeout))
	defer c.conn.SetDeadline(time.Time{})

	if err := c.encoder.Encode(req); err != nil {
		return c.fail(fmt.Errorf("socketrpc: send: %w", err))
	}

	if !c.scanner.Scan() {
		if err := c.scanner.Err(); err != nil {
			return c.fail(fmt.Errorf("socketrpc: read: %w", err))
		}
		return c.fail(fmt.Errorf("socketrpc: connection closed"))
	}

	var resp Response
	if err := json.Unmarshal(c.scanner.Bytes(), &resp); err != nil {
		return c.fail(fmt.Errorf("socketrpc: unmarshal response: %w", err))
	}
	if resp.ID != id {
		return c.fail(fmt.Errorf("socketrpc: response id %d, want %d", resp.ID, id))
	}

	if resp.Error != nil {
		return resp.Error
	}

	if dest != nil {
		if err := json.Unmarshal(resp.Result, dest); err != nil {
			return fmt.Errorf("socketrpc: unmarshal result: %w", err)
		}
	}
	return nil
}

// fail marks the client unusable. Caller holds c.mu.
func (c *Client) fail(err error) error {
	c.broken = err
	_ = c.conn.Close()
	return err
}

func (c *Client) ExternalGetStatus() (model.StatusResponse, error) {
	var result model.StatusResponse
	err := c.call(MethodExternalGetStatus, nil, &result)
	return result, err
}

func (c *Client) ExternalGetHistory() (model.HistoryResponse, error) {
	var result model.HistoryResponse
	err := c.call(MethodExternalGetHistory, nil, &result)
	return result, err
}

func (c *Client) ExternalClearHistory() (model.SuccessResponse, error) {
	var result model.SuccessResponse
	err := c.call(MethodExternalClearHistory, nil, &result)
	return result, err
}

func (c *Client) LogExternalMessage(messageType, content string) (model.SuccessResponse, error) {
	var result model.SuccessResponse
	err := c.call(MethodLogExternalMessage, LogParams{
		Caller:      c.caller,
		MessageType: &messageType,
		Content:     &content,
	}, &result)
	return result, err
}

func defaultCaller() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "localhost"
	}
	return host + ":" + strconv.Itoa(os.Getpid())
}

var _ model.RemoteQuerier = (*Client)(nil)
