package tui

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/eigenwallet/swapwatch/internal/clock"
	"github.com/eigenwallet/swapwatch/internal/logparse"
	"github.com/eigenwallet/swapwatch/internal/protocol"
	"github.com/eigenwallet/swapwatch/internal/readmodel"
	"github.com/eigenwallet/swapwatch/internal/socketrpc"
	"github.com/eigenwallet/swapwatch/internal/timeline"
)

// fakeClient records commands and serves canned snapshots.
type fakeClient struct {
	swaps     []readmodel.SwapView
	approvals []protocol.ApprovalRequest

	resolved  []string
	accepted  []bool
	resumed   []string
	suspended int
}

func (f *fakeClient) GetSwapInfosAll() ([]readmodel.SwapView, error) { return f.swaps, nil }
func (f *fakeClient) GetConnectionStatus() (*readmodel.ConnectionView, error) {
	return nil, nil
}
func (f *fakeClient) GetPendingApprovals() ([]protocol.ApprovalRequest, error) {
	return f.approvals, nil
}
func (f *fakeClient) GetRecentLogs(limit int) ([]logparse.Entry, error) { return nil, nil }
func (f *fakeClient) GetBackgroundTasks() (readmodel.BackgroundView, error) {
	return readmodel.BackgroundView{}, nil
}
func (f *fakeClient) GetBalance() (socketrpc.BalanceResult, error) {
	return socketrpc.BalanceResult{}, nil
}
func (f *fakeClient) ResolveApproval(requestID string, accept bool) error {
	f.resolved = append(f.resolved, requestID)
	f.accepted = append(f.accepted, accept)
	return nil
}
func (f *fakeClient) ResumeSwap(swapID string) error {
	f.resumed = append(f.resumed, swapID)
	return nil
}
func (f *fakeClient) SuspendCurrentSwap() error {
	f.suspended++
	return nil
}

// runCmd executes a command tree synchronously, discarding messages.
func runCmd(cmd tea.Cmd) {
	if cmd == nil {
		return
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		for _, c := range batch {
			runCmd(c)
		}
	}
}

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func newTestDashboard(client *fakeClient) (*DashboardModel, *clock.Fake) {
	clk := clock.NewFake(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	m := NewDashboardModel(client, clk, DefaultSkin())
	m.width = 120
	m.height = 40
	return m, clk
}

func TestApplySnapshotArmsCountdown(t *testing.T) {
	m, clk := newTestDashboard(&fakeClient{})

	retryIn := int64(30)
	m.applySnapshot(Snapshot{
		Connection: &readmodel.ConnectionView{
			Progress: protocol.ConnectionProgress{
				State:              protocol.ConnWaitingToRetry,
				NextRetryInSeconds: &retryIn,
			},
			RetryDeadline: clk.Now().Add(30 * time.Second),
		},
	})

	if got := m.countdown.Remaining(); got != 30 {
		t.Fatalf("Remaining() = %d, want 30", got)
	}

	clk.Advance(12 * time.Second)
	if got := m.countdown.Remaining(); got != 18 {
		t.Errorf("Remaining() after 12s = %d, want 18", got)
	}

	// A snapshot without a retry wait disarms the projection.
	m.applySnapshot(Snapshot{
		Connection: &readmodel.ConnectionView{
			Progress: protocol.ConnectionProgress{State: protocol.ConnConnected},
		},
	})
	if m.countdown.Armed() {
		t.Error("countdown should disarm once connected")
	}
}

func TestApplySnapshotClampsSelection(t *testing.T) {
	m, _ := newTestDashboard(&fakeClient{})

	m.applySnapshot(Snapshot{Swaps: []readmodel.SwapView{
		{SwapID: "a"}, {SwapID: "b"}, {SwapID: "c"},
	}})
	m.selected = 2

	m.applySnapshot(Snapshot{Swaps: []readmodel.SwapView{{SwapID: "a"}}})
	if m.selected != 0 {
		t.Errorf("selected = %d, want 0 after the list shrank", m.selected)
	}
}

func TestKeyNavigation(t *testing.T) {
	m, _ := newTestDashboard(&fakeClient{})
	m.applySnapshot(Snapshot{Swaps: []readmodel.SwapView{
		{SwapID: "a"}, {SwapID: "b"},
	}})

	m.Update(key("j"))
	if m.selected != 1 {
		t.Errorf("selected = %d after j, want 1", m.selected)
	}
	m.Update(key("j"))
	if m.selected != 1 {
		t.Errorf("selected = %d at list end, want 1", m.selected)
	}
	m.Update(key("k"))
	if m.selected != 0 {
		t.Errorf("selected = %d after k, want 0", m.selected)
	}
}

func TestApprovalModalResolve(t *testing.T) {
	client := &fakeClient{}
	m, _ := newTestDashboard(client)
	m.applySnapshot(Snapshot{Approvals: []protocol.ApprovalRequest{
		{RequestID: "req-1", Kind: "lock_btc"},
	}})

	m.Update(key("a"))
	if !m.showApprovals {
		t.Fatal("approvals modal should open on a")
	}

	cmd, _ := m.Update(key("y"))
	runCmd(cmd)

	if len(client.resolved) != 1 || client.resolved[0] != "req-1" || !client.accepted[0] {
		t.Errorf("resolved = %v/%v, want req-1 accepted", client.resolved, client.accepted)
	}
	if m.showApprovals {
		t.Error("modal should close after resolving the only approval")
	}
}

func TestResumeAndSuspendKeys(t *testing.T) {
	client := &fakeClient{}
	m, _ := newTestDashboard(client)
	m.applySnapshot(Snapshot{Swaps: []readmodel.SwapView{{SwapID: "swap-9"}}})

	cmd, _ := m.Update(key("R"))
	runCmd(cmd)
	if len(client.resumed) != 1 || client.resumed[0] != "swap-9" {
		t.Errorf("resumed = %v, want [swap-9]", client.resumed)
	}

	cmd, _ = m.Update(key("S"))
	runCmd(cmd)
	if client.suspended != 1 {
		t.Errorf("suspended = %d, want 1", client.suspended)
	}
}

func TestViewRendersWithoutSnapshot(t *testing.T) {
	m, _ := newTestDashboard(&fakeClient{})

	out := m.View(120, 40)
	if out == "" {
		t.Fatal("View should render a loading dashboard before the first snapshot")
	}
}

func TestViewRendersSwapsAndTimeline(t *testing.T) {
	m, _ := newTestDashboard(&fakeClient{})

	duration := uint64(50)
	pos := timeline.Position{SegmentIndex: 1, BlocksIntoSegment: 45, SegmentDuration: &duration}
	m.applySnapshot(Snapshot{Swaps: []readmodel.SwapView{{
		SwapID: "8f14e45f-ceea-4e6b-9c4d-000000000001",
		Record: readmodel.SwapStateRecord{Current: protocol.BtcLockTxInMempool{}},
		Info: &protocol.SwapInfo{
			SwapID:         "8f14e45f-ceea-4e6b-9c4d-000000000001",
			CancelTimelock: 100,
			PunishTimelock: 50,
		},
		Timeline: &pos,
	}}})

	out := m.View(120, 40)
	if out == "" {
		t.Fatal("View returned empty output")
	}
}
