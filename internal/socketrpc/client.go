package socketrpc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/eigenwallet/swapwatch/internal/logparse"
	"github.com/eigenwallet/swapwatch/internal/protocol"
	"github.com/eigenwallet/swapwatch/internal/readmodel"
)

// Client talks to the monitor's socket RPC server. It is the TUI's only
// channel to the read model.
type Client struct {
	conn    net.Conn
	mu      sync.Mutex
	nextID  int
	scanner *bufio.Scanner
	encoder *json.Encoder
}

// Dial connects to the socket RPC server at the given path.
func Dial(socketPath string) (*Client, error) {
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
	}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// call performs a JSON-RPC call and unmarshals the result into dest.
func (c *Client) call(method string, params interface{}, dest interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextID++
	id := c.nextID

	paramsData, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("socketrpc: marshal params: %w", err)
	}

	req := Request{
		JSONRPC: "2.0",
		ID:      id,
		Method:  method,
		Params:  paramsData,
	}

	c.conn.SetDeadline(time.Now().Add(30 * time.Second))
	defer c.conn.SetDeadline(time.Time{})

	if err := c.encoder.Encode(req); err != nil {
		return fmt.Errorf("socketrpc: send: %w", err)
	}

	if !c.scanner.Scan() {
		if err := c.scanner.Err(); err != nil {
			return fmt.Errorf("socketrpc: read: %w", err)
		}
		return fmt.Errorf("socketrpc: connection closed")
	}

	var resp Response
	if err := json.Unmarshal(c.scanner.Bytes(), &resp); err != nil {
		return fmt.Errorf("socketrpc: unmarshal response: %w", err)
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

// GetSwapInfosAll fetches the view model for every swap in the session.
func (c *Client) GetSwapInfosAll() ([]readmodel.SwapView, error) {
	var result []readmodel.SwapView
	err := c.call("GetSwapInfosAll", map[string]interface{}{}, &result)
	return result, err
}

// GetSwap fetches one swap's view.
func (c *Client) GetSwap(swapID string) (readmodel.SwapView, error) {
	var result readmodel.SwapView
	err := c.call("GetSwap", map[string]interface{}{"SwapID": swapID}, &result)
	return result, err
}

// GetConnectionStatus fetches the latest connection view; nil when no
// telemetry has arrived yet.
func (c *Client) GetConnectionStatus() (*readmodel.ConnectionView, error) {
	var result *readmodel.ConnectionView
	err := c.call("GetConnectionStatus", map[string]interface{}{}, &result)
	return result, err
}

// GetPendingApprovals fetches the non-expired approval requests.
func (c *Client) GetPendingApprovals() ([]protocol.ApprovalRequest, error) {
	var result []protocol.ApprovalRequest
	err := c.call("GetPendingApprovals", map[string]interface{}{}, &result)
	return result, err
}

// GetRecentLogs fetches up to limit of the newest daemon log entries.
func (c *Client) GetRecentLogs(limit int) ([]logparse.Entry, error) {
	var result []logparse.Entry
	err := c.call("GetRecentLogs", map[string]interface{}{"Limit": limit}, &result)
	return result, err
}

// GetBackgroundTasks fetches the background task view.
func (c *Client) GetBackgroundTasks() (readmodel.BackgroundView, error) {
	var result readmodel.BackgroundView
	err := c.call("GetBackgroundTasks", map[string]interface{}{}, &result)
	return result, err
}

// GetBalance fetches the last observed wallet balance.
func (c *Client) GetBalance() (BalanceResult, error) {
	var result BalanceResult
	err := c.call("GetBalance", map[string]interface{}{}, &result)
	return result, err
}

// ResolveApproval dispatches an approval decision.
func (c *Client) ResolveApproval(requestID string, accept bool) error {
	return c.call("ResolveApproval", map[string]interface{}{"RequestID": requestID, "Accept": accept}, nil)
}

// ResumeSwap asks the daemon to resume a swap.
func (c *Client) ResumeSwap(swapID string) error {
	return c.call("ResumeSwap", map[string]interface{}{"SwapID": swapID}, nil)
}

// SuspendCurrentSwap asks the daemon to suspend the running swap.
func (c *Client) SuspendCurrentSwap() error {
	return c.call("SuspendCurrentSwap", map[string]interface{}{}, nil)
}
