package socketrpc

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/eigenwallet/swapwatch/internal/logparse"
	"github.com/eigenwallet/swapwatch/internal/protocol"
	"github.com/eigenwallet/swapwatch/internal/readmodel"
)

const (
	// scannerInitBufSize is the initial buffer size for the per-connection scanner (1 MB).
	scannerInitBufSize = 1024 * 1024
	// scannerMaxTokenSize is the maximum token size the scanner will accept (10 MB).
	scannerMaxTokenSize = 10 * 1024 * 1024
)

// ReadModel is the read-side contract the server exposes.
type ReadModel interface {
	SwapViews() []readmodel.SwapView
	SwapView(swapID string) (readmodel.SwapView, bool)
	Connection() (readmodel.ConnectionView, bool)
	PendingApprovals() []protocol.ApprovalRequest
	RecentLogs(limit int) []logparse.Entry
	Background() readmodel.BackgroundView
	Balance() (uint64, bool)
	ResolveApproval(ctx context.Context, requestID string, accept bool) error
}

// SwapCommander forwards swap lifecycle commands to the daemon.
type SwapCommander interface {
	ResumeSwap(ctx context.Context, swapID string) error
	SuspendCurrentSwap(ctx context.Context) error
}

// Server exposes the read model and command surface over a Unix domain
// socket using JSON-RPC 2.0.
type Server struct {
	socketPath string
	store      ReadModel
	commander  SwapCommander
	log        *zap.Logger
	listener   net.Listener
	wg         sync.WaitGroup
	quit       chan struct{}
}

// NewServer creates a new socket RPC server. commander may be nil; the swap
// commands then return an application error.
func NewServer(socketPath string, store ReadModel, commander SwapCommander, log *zap.Logger) *Server {
	return &Server{
		socketPath: socketPath,
		store:      store,
		commander:  commander,
		log:        log.Named("socketrpc"),
		quit:       make(chan struct{}),
	}
}

// Start begins listening on the Unix socket and accepting connections.
func (s *Server) Start() error {
	if err := os.MkdirAll(filepath.Dir(s.socketPath), 0o755); err != nil {
		return fmt.Errorf("socketrpc: mkdir: %w", err)
	}

	// Remove stale socket if it exists.
	if _, err := os.Stat(s.socketPath); err == nil {
		conn, dialErr := net.DialTimeout("unix", s.socketPath, 500*time.Millisecond)
		if dialErr != nil {
			// Socket file exists but nobody is listening — stale.
			os.Remove(s.socketPath)
		} else {
			conn.Close()
			return fmt.Errorf("socketrpc: another monitor is already listening on %s", s.socketPath)
		}
	}

	ln, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("socketrpc: listen: %w", err)
	}
	s.listener = ln

	s.wg.Add(1)
	go s.acceptLoop()

	s.log.Info("listening", zap.String("socket", s.socketPath))
	return nil
}

// Stop closes the listener, waits for connections to drain, and removes the
// socket file.
func (s *Server) Stop() {
	close(s.quit)
	if s.listener != nil {
		s.listener.Close()
	}
	s.wg.Wait()
	os.Remove(s.socketPath)
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.quit:
				return
			default:
				s.log.Warn("accept error", zap.Error(err))
				// Continue on transient errors (e.g. fd limit) instead of
				// killing the entire accept loop.
				continue
			}
		}
		s.wg.Add(1)
		go s.handleConn(conn)
	}
}

func (s *Server) handleConn(conn net.Conn) {
	defer s.wg.Done()
	defer conn.Close()

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, scannerInitBufSize), scannerMaxTokenSize)
	encoder := json.NewEncoder(conn)

	for scanner.Scan() {
		select {
		case <-s.quit:
			return
		default:
		}

		var req Request
		if err := json.Unmarshal(scanner.Bytes(), &req); err != nil {
			resp := Response{JSONRPC: "2.0", ID: 0, Error: &RPCError{Code: -32700, Message: "parse error"}}
			encoder.Encode(resp)
			continue
		}

		resp := s.dispatch(req)
		if err := encoder.Encode(resp); err != nil {
			return
		}
	}
}

func (s *Server) dispatch(req Request) Response {
	resp := Response{JSONRPC: "2.0", ID: req.ID}

	marshalResult := func(v interface{}) Response {
		data, err := json.Marshal(v)
		if err != nil {
			resp.Error = &RPCError{Code: -32603, Message: err.Error()}
			return resp
		}
		resp.Result = data
		return resp
	}

	appError := func(err error) Response {
		resp.Error = &RPCError{Code: -32000, Message: err.Error()}
		return resp
	}

	invalidParams := func(err error) Response {
		resp.Error = &RPCError{Code: -32602, Message: fmt.Sprintf("invalid params: %v", err)}
		return resp
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	switch req.Method {
	case "GetSwapInfosAll":
		return marshalResult(s.store.SwapViews())

	case "GetSwap":
		var p struct{ SwapID string }
		if err := json.Unmarshal(req.Params, &p); err != nil {
			return invalidParams(err)
		}
		view, ok := s.store.SwapView(p.SwapID)
		if !ok {
			return appError(fmt.Errorf("unknown swap %s", p.SwapID))
		}
		return marshalResult(view)

	case "GetConnectionStatus":
		view, ok := s.store.Connection()
		if !ok {
			return marshalResult(nil)
		}
		return marshalResult(view)

	case "GetPendingApprovals":
		return marshalResult(s.store.PendingApprovals())

	case "GetRecentLogs":
		var p struct{ Limit int }
		// Allow empty/null params for defaults; only reject malformed JSON.
		if err := json.Unmarshal(req.Params, &p); err != nil && len(req.Params) > 0 {
			return invalidParams(err)
		}
		return marshalResult(s.store.RecentLogs(p.Limit))

	case "GetBackgroundTasks":
		return marshalResult(s.store.Background())

	case "GetBalance":
		balance, known := s.store.Balance()
		return marshalResult(BalanceResult{Balance: balance, Known: known})

	case "ResolveApproval":
		var p struct {
			RequestID string
			Accept    bool
		}
		if err := json.Unmarshal(req.Params, &p); err != nil {
			return invalidParams(err)
		}
		if err := s.store.ResolveApproval(ctx, p.RequestID, p.Accept); err != nil {
			return appError(err)
		}
		return marshalResult(nil)

	case "ResumeSwap":
		var p struct{ SwapID string }
		if err := json.Unmarshal(req.Params, &p); err != nil {
			return invalidParams(err)
		}
		if s.commander == nil {
			return appError(fmt.Errorf("daemon command channel not configured"))
		}
		if err := s.commander.ResumeSwap(ctx, p.SwapID); err != nil {
			return appError(err)
		}
		return marshalResult(nil)

	case "SuspendCurrentSwap":
		if s.commander == nil {
			return appError(fmt.Errorf("daemon command channel not configured"))
		}
		if err := s.commander.SuspendCurrentSwap(ctx); err != nil {
			return appError(err)
		}
		return marshalResult(nil)

	default:
		resp.Error = &RPCError{Code: -32601, Message: fmt.Sprintf("method not found: %s", req.Method)}
		return resp
	}
}
