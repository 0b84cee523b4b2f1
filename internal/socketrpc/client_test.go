package socketrpc_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/eigenwallet/swapwatch/internal/logparse"
	"github.com/eigenwallet/swapwatch/internal/protocol"
	"github.com/eigenwallet/swapwatch/internal/readmodel"
	"github.com/eigenwallet/swapwatch/internal/socketrpc"
)

// mockModel is a minimal ReadModel for roundtrip testing.
type mockModel struct{}

func (m *mockModel) SwapViews() []readmodel.SwapView {
	return []readmodel.SwapView{{SwapID: "swap-1", ProcessExited: true}}
}

func (m *mockModel) SwapView(swapID string) (readmodel.SwapView, bool) {
	if swapID != "swap-1" {
		return readmodel.SwapView{}, false
	}
	return readmodel.SwapView{SwapID: "swap-1"}, true
}

func (m *mockModel) Connection() (readmodel.ConnectionView, bool) {
	return readmodel.ConnectionView{
		Progress: protocol.ConnectionProgress{
			State:          protocol.ConnConnecting,
			CurrentAttempt: 3,
			Target:         "peer-a",
		},
	}, true
}

func (m *mockModel) PendingApprovals() []protocol.ApprovalRequest {
	return []protocol.ApprovalRequest{{
		RequestID: "req-1",
		Kind:      "lock_btc",
		ExpiresAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}}
}

func (m *mockModel) RecentLogs(limit int) []logparse.Entry {
	return []logparse.Entry{{Severity: "WARN", Message: "peer went away"}}
}

func (m *mockModel) Background() readmodel.BackgroundView {
	return readmodel.BackgroundView{}
}

func (m *mockModel) Balance() (uint64, bool) { return 42_000, true }

func (m *mockModel) ResolveApproval(ctx context.Context, requestID string, accept bool) error {
	return nil
}

func startServer(t *testing.T) string {
	t.Helper()
	socketPath := filepath.Join(t.TempDir(), "swapwatch.sock")
	server := socketrpc.NewServer(socketPath, &mockModel{}, nil, zap.NewNop())
	if err := server.Start(); err != nil {
		t.Fatalf("start server: %v", err)
	}
	t.Cleanup(server.Stop)
	return socketPath
}

func TestClientRoundTrip(t *testing.T) {
	socketPath := startServer(t)

	client, err := socketrpc.Dial(socketPath)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer client.Close()

	views, err := client.GetSwapInfosAll()
	if err != nil {
		t.Fatalf("GetSwapInfosAll: %v", err)
	}
	if len(views) != 1 || views[0].SwapID != "swap-1" || !views[0].ProcessExited {
		t.Errorf("views = %+v, want one exited swap-1", views)
	}

	conn, err := client.GetConnectionStatus()
	if err != nil {
		t.Fatalf("GetConnectionStatus: %v", err)
	}
	if conn == nil || conn.Progress.State != protocol.ConnConnecting || conn.Progress.CurrentAttempt != 3 {
		t.Errorf("connection = %+v, want Connecting attempt 3", conn)
	}

	approvals, err := client.GetPendingApprovals()
	if err != nil {
		t.Fatalf("GetPendingApprovals: %v", err)
	}
	if len(approvals) != 1 || approvals[0].RequestID != "req-1" {
		t.Errorf("approvals = %+v, want [req-1]", approvals)
	}

	balance, err := client.GetBalance()
	if err != nil {
		t.Fatalf("GetBalance: %v", err)
	}
	if balance.Balance != 42_000 || !balance.Known {
		t.Errorf("balance = %+v, want 42000/known", balance)
	}
}

func TestClientUnknownSwapError(t *testing.T) {
	socketPath := startServer(t)

	client, err := socketrpc.Dial(socketPath)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer client.Close()

	if _, err := client.GetSwap("missing"); err == nil {
		t.Fatal("GetSwap(missing) should return an error")
	}
}

func TestClientSequentialCalls(t *testing.T) {
	socketPath := startServer(t)

	client, err := socketrpc.Dial(socketPath)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer client.Close()

	// A single connection must survive many sequential calls.
	for i := 0; i < 20; i++ {
		if _, err := client.GetSwapInfosAll(); err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
	}
}

func TestServerRejectsSecondInstance(t *testing.T) {
	socketPath := startServer(t)

	second := socketrpc.NewServer(socketPath, &mockModel{}, nil, zap.NewNop())
	if err := second.Start(); err == nil {
		second.Stop()
		t.Fatal("second server on the same socket should fail to start")
	}
}
