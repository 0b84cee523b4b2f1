// Package daemonrpc implements the JSON-RPC 2.0 client for the swap daemon's
// control socket. The monitor uses it for the authoritative swap records and
// to forward user decisions; it never drives swaps itself.
package daemonrpc

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/eigenwallet/swapwatch/internal/protocol"
)

const (
	dialTimeout    = 5 * time.Second
	defaultTimeout = 15 * time.Second

	scannerInitBufSize  = 1024 * 1024
	scannerMaxTokenSize = 10 * 1024 * 1024
)

// Client is a JSON-RPC 2.0 client over the daemon's Unix control socket.
// Calls are serialized on a single connection.
type Client struct {
	mu      sync.Mutex
	conn    net.Conn
	scanner *bufio.Scanner
	encoder *json.Encoder
	nextID  int
}

type request struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      int         `json:"id"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params"`
}

type response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int             `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("daemon rpc error %d: %s", e.Code, e.Message)
}

// Dial connects to the daemon's control socket.
func Dial(socketPath string) (*Client, error) {
	conn, err := net.DialTimeout("unix", socketPath, dialTimeout)
	if err != nil {
		return nil, fmt.Errorf("daemonrpc: dial %s: %w", socketPath, err)
	}
	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, scannerInitBufSize), scannerMaxTokenSize)
	return &Client{
		conn:    conn,
		scanner: scanner,
		encoder: json.NewEncoder(conn),
	}, nil
}

// Close closes the control socket connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) call(ctx context.Context, method string, params interface{}, dest interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	deadline := time.Now().Add(defaultTimeout)
	if d, ok := ctx.Deadline(); ok {
		deadline = d
	}
	c.conn.SetDeadline(deadline)
	defer c.conn.SetDeadline(time.Time{})

	c.nextID++
	req := request{JSONRPC: "2.0", ID: c.nextID, Method: method, Params: params}
	if err := c.encoder.Encode(req); err != nil {
		return fmt.Errorf("daemonrpc: send %s: %w", method, err)
	}

	if !c.scanner.Scan() {
		if err := c.scanner.Err(); err != nil {
			return fmt.Errorf("daemonrpc: read: %w", err)
		}
		return fmt.Errorf("daemonrpc: connection closed")
	}

	var resp response
	if err := json.Unmarshal(c.scanner.Bytes(), &resp); err != nil {
		return fmt.Errorf("daemonrpc: unmarshal response: %w", err)
	}
	if resp.Error != nil {
		return resp.Error
	}
	if dest != nil {
		if err := json.Unmarshal(resp.Result, dest); err != nil {
			return fmt.Errorf("daemonrpc: unmarshal %s result: %w", method, err)
		}
	}
	return nil
}

// GetSwapInfosAll fetches the daemon's authoritative record for every swap.
func (c *Client) GetSwapInfosAll(ctx context.Context) ([]protocol.SwapInfo, error) {
	var result struct {
		Swaps []protocol.SwapInfo `json:"swaps"`
	}
	if err := c.call(ctx, "get_swap_infos_all", map[string]interface{}{}, &result); err != nil {
		return nil, err
	}
	return result.Swaps, nil
}

// ResolveApproval forwards an approval decision. The forward happens at most
// once; a failure is returned to the caller, never retried.
func (c *Client) ResolveApproval(ctx context.Context, requestID string, accept bool) error {
	params := map[string]interface{}{
		"request_id": requestID,
		"accept":     accept,
	}
	return c.call(ctx, "resolve_approval_request", params, nil)
}

// ResumeSwap asks the daemon to resume an interrupted swap.
func (c *Client) ResumeSwap(ctx context.Context, swapID string) error {
	params := map[string]interface{}{"swap_id": swapID}
	return c.call(ctx, "resume_swap", params, nil)
}

// SuspendCurrentSwap asks the daemon to suspend the running swap.
func (c *Client) SuspendCurrentSwap(ctx context.Context) error {
	return c.call(ctx, "suspend_current_swap", map[string]interface{}{}, nil)
}
