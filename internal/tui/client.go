package tui

import (
	"time"

	"github.com/eigenwallet/swapwatch/internal/logparse"
	"github.com/eigenwallet/swapwatch/internal/protocol"
	"github.com/eigenwallet/swapwatch/internal/readmodel"
	"github.com/eigenwallet/swapwatch/internal/socketrpc"
)

// DataClient is what the dashboard needs from the monitor's socket RPC
// client. *socketrpc.Client satisfies it.
type DataClient interface {
	GetSwapInfosAll() ([]readmodel.SwapView, error)
	GetConnectionStatus() (*readmodel.ConnectionView, error)
	GetPendingApprovals() ([]protocol.ApprovalRequest, error)
	GetRecentLogs(limit int) ([]logparse.Entry, error)
	GetBackgroundTasks() (readmodel.BackgroundView, error)
	GetBalance() (socketrpc.BalanceResult, error)
	ResolveApproval(requestID string, accept bool) error
	ResumeSwap(swapID string) error
	SuspendCurrentSwap() error
}

// Snapshot is one refresh cycle's worth of read model state.
type Snapshot struct {
	Swaps      []readmodel.SwapView
	Connection *readmodel.ConnectionView
	Approvals  []protocol.ApprovalRequest
	Logs       []logparse.Entry
	Background readmodel.BackgroundView
	Balance    socketrpc.BalanceResult
	FetchedAt  time.Time
	Err        error
}

// fetchSnapshot pulls the full dashboard state. Individual query failures do
// not abort the fetch; the first error is carried for the status line.
func fetchSnapshot(client DataClient, logLimit int) Snapshot {
	snap := Snapshot{FetchedAt: time.Now()}
	keep := func(err error) {
		if err != nil && snap.Err == nil {
			snap.Err = err
		}
	}

	var err error
	snap.Swaps, err = client.GetSwapInfosAll()
	keep(err)
	snap.Connection, err = client.GetConnectionStatus()
	keep(err)
	snap.Approvals, err = client.GetPendingApprovals()
	keep(err)
	snap.Logs, err = client.GetRecentLogs(logLimit)
	keep(err)
	snap.Background, err = client.GetBackgroundTasks()
	keep(err)
	snap.Balance, err = client.GetBalance()
	keep(err)

	return snap
}
