package socketrpc

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// JSON-RPC 2.0 Method Reference
//
// The socket RPC server exposes the session read model plus the thin command
// surface over a Unix domain socket, newline-delimited JSON.
//
//   Method                Params                              Result
//   ──────────────────    ────────────────────────────────    ──────────────────────────
//   GetSwapInfosAll       (none)                              []readmodel.SwapView
//   GetSwap               {SwapID: string}                    readmodel.SwapView
//   GetConnectionStatus   (none)                              readmodel.ConnectionView|null
//   GetPendingApprovals   (none)                              []protocol.ApprovalRequest
//   GetRecentLogs         {Limit: int}                        []logparse.Entry
//   GetBackgroundTasks    (none)                              readmodel.BackgroundView
//   GetBalance            (none)                              {Balance: uint64, Known: bool}
//   ResolveApproval       {RequestID: string, Accept: bool}   null
//   ResumeSwap            {SwapID: string}                    null
//   SuspendCurrentSwap    (none)                              null
//
// Commands are forwarded to the daemon at most once; a failed forward is
// returned as an application error, never retried here.
//
// Error codes follow JSON-RPC 2.0:
//   -32700  Parse error (malformed JSON)
//   -32601  Method not found
//   -32602  Invalid params
//   -32603  Internal error (marshal failure)
//   -32000  Application error (command or query failure)

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

// BalanceResult is the GetBalance response shape.
type BalanceResult struct {
	Balance uint64 `json:"balance"`
	Known   bool   `json:"known"`
}

// DefaultSocketPath returns the default Unix socket path. It prefers
// $XDG_RUNTIME_DIR/swapwatch/swapwatch.sock, falling back to
// ~/.local/state/swapwatch/swapwatch.sock.
func DefaultSocketPath() string {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, "swapwatch", "swapwatch.sock")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "/tmp/swapwatch.sock"
	}
	return filepath.Join(home, ".local", "state", "swapwatch", "swapwatch.sock")
}
