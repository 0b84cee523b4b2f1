package readmodel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/eigenwallet/swapwatch/internal/clock"
	"github.com/eigenwallet/swapwatch/internal/protocol"
	"github.com/eigenwallet/swapwatch/internal/steps"
	"github.com/eigenwallet/swapwatch/internal/timeline"
)

type fakeFetcher struct {
	infos []protocol.SwapInfo
	calls int
	err   error
}

func (f *fakeFetcher) GetSwapInfosAll(context.Context) ([]protocol.SwapInfo, error) {
	f.calls++
	return f.infos, f.err
}

type fakeResolver struct {
	calls []string
	err   error
}

func (f *fakeResolver) ResolveApproval(_ context.Context, requestID string, accept bool) error {
	f.calls = append(f.calls, fmt.Sprintf("%s:%v", requestID, accept))
	return f.err
}

type manualScheduler struct {
	delays []time.Duration
	funcs  []func()
}

func (m *manualScheduler) after(d time.Duration, f func()) {
	m.delays = append(m.delays, d)
	m.funcs = append(m.funcs, f)
}

func (m *manualScheduler) runAll() {
	for _, f := range m.funcs {
		f()
	}
	m.delays, m.funcs = nil, nil
}

func newTestStore(t *testing.T, fetcher SwapInfoFetcher, resolver ApprovalResolver) (*SessionStore, *clock.Fake, *manualScheduler) {
	t.Helper()
	clk := clock.NewFake(time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC))
	store := NewSessionStore(clk, zap.NewNop(), fetcher, resolver)
	scheduler := &manualScheduler{}
	store.afterFunc = scheduler.after
	return store, clk, scheduler
}

func swapEvent(t *testing.T, swapID string, event protocol.SwapStateEvent) protocol.Envelope {
	t.Helper()
	payload, err := protocol.EncodeSwapEvent(event)
	if err != nil {
		t.Fatalf("encode event: %v", err)
	}
	return protocol.Envelope{Channel: protocol.ChannelSwapProgress, SwapID: swapID, Payload: payload}
}

func mustJSON(t *testing.T, v any) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return data
}

// Scenario: [Initiated, BtcLockTxInMempool{conf:0}, Released] with no further
// updates classifies via previous as (Happy, step 1, error).
func TestDispatchSwapProgressProcessExit(t *testing.T) {
	store, _, _ := newTestStore(t, nil, nil)

	store.Dispatch(swapEvent(t, "swap-1", protocol.Initiated{}))
	store.Dispatch(swapEvent(t, "swap-1", protocol.BtcLockTxInMempool{BtcLockConfirmations: 0}))
	store.Dispatch(swapEvent(t, "swap-1", protocol.Released{}))

	view, ok := store.SwapView("swap-1")
	if !ok {
		t.Fatal("swap-1 missing from the read model")
	}
	if !view.ProcessExited {
		t.Error("ProcessExited should be set")
	}
	want := steps.Classification{Path: steps.PathHappy, Step: 1, IsError: true}
	if view.Classification == nil || *view.Classification != want {
		t.Errorf("classification = %v, want %+v", view.Classification, want)
	}
}

func TestDispatchUnknownChannelIsDroppedNotFatal(t *testing.T) {
	store, _, _ := newTestStore(t, nil, nil)

	store.Dispatch(protocol.Envelope{Channel: "Telepathy", Payload: []byte(`{}`)})
	store.Dispatch(swapEvent(t, "swap-1", protocol.Initiated{}))

	if _, ok := store.SwapView("swap-1"); !ok {
		t.Error("processing must continue after an unknown channel tag")
	}
}

func TestDispatchMalformedEventIsDropped(t *testing.T) {
	store, _, _ := newTestStore(t, nil, nil)

	store.Dispatch(swapEvent(t, "swap-1", protocol.XmrLocked{}))
	store.Dispatch(protocol.Envelope{
		Channel: protocol.ChannelSwapProgress,
		SwapID:  "swap-1",
		Payload: []byte(`{"type":"NotAState"}`),
	})

	view, _ := store.SwapView("swap-1")
	if view.Record.Current.Tag() != protocol.TagXmrLocked {
		t.Errorf("record corrupted by malformed event: %v", view.Record.Current)
	}
}

func TestConnectionProgressArmsRetryDeadline(t *testing.T) {
	store, clk, _ := newTestStore(t, nil, nil)

	retryIn := int64(30)
	store.Dispatch(protocol.Envelope{
		Channel: protocol.ChannelConnectionProgress,
		Payload: mustJSON(t, protocol.ConnectionProgress{
			State:              protocol.ConnWaitingToRetry,
			TotalAttempts:      12,
			NextRetryInSeconds: &retryIn,
			Target:             "maker",
		}),
	})

	view, ok := store.Connection()
	if !ok {
		t.Fatal("connection view missing")
	}
	want := clk.Now().Add(30 * time.Second)
	if !view.RetryDeadline.Equal(want) {
		t.Errorf("RetryDeadline = %v, want %v", view.RetryDeadline, want)
	}

	// A superseding record without a wait clears the deadline.
	store.Dispatch(protocol.Envelope{
		Channel: protocol.ChannelConnectionProgress,
		Payload: mustJSON(t, protocol.ConnectionProgress{State: protocol.ConnConnected, Target: "maker"}),
	})
	view, _ = store.Connection()
	if !view.RetryDeadline.IsZero() {
		t.Errorf("RetryDeadline = %v, want zero after supersession", view.RetryDeadline)
	}
}

func TestDatabaseStateUpdateSchedulesDoubleRefetch(t *testing.T) {
	fetcher := &fakeFetcher{infos: []protocol.SwapInfo{{SwapID: "swap-1", StateName: "btc locked", CancelTimelock: 72, PunishTimelock: 144}}}
	store, _, scheduler := newTestStore(t, fetcher, nil)

	store.Dispatch(protocol.Envelope{
		Channel: protocol.ChannelSwapDatabaseStateUpdate,
		Payload: mustJSON(t, protocol.SwapDatabaseStateUpdate{SwapID: "swap-1"}),
	})

	if len(scheduler.delays) != 2 {
		t.Fatalf("scheduled %d fetches, want 2 (immediate + settle delay)", len(scheduler.delays))
	}
	if scheduler.delays[0] != 0 {
		t.Errorf("first fetch delay = %v, want immediate", scheduler.delays[0])
	}
	if scheduler.delays[1] != SettleDelay {
		t.Errorf("second fetch delay = %v, want %v", scheduler.delays[1], SettleDelay)
	}

	scheduler.runAll()
	if fetcher.calls != 2 {
		t.Errorf("fetcher called %d times, want 2", fetcher.calls)
	}

	view, ok := store.SwapView("swap-1")
	if !ok || view.Info == nil || view.Info.CancelTimelock != 72 {
		t.Errorf("authoritative info not merged: %+v", view.Info)
	}
}

func TestTimelockChangeJoinsTimeline(t *testing.T) {
	store, _, _ := newTestStore(t, nil, nil)

	store.Dispatch(swapEvent(t, "swap-1", protocol.BtcLockTxInMempool{BtcLockConfirmations: 1}))
	store.SetSwapInfos([]protocol.SwapInfo{{SwapID: "swap-1", CancelTimelock: 100, PunishTimelock: 50}})
	store.Dispatch(protocol.Envelope{
		Channel: protocol.ChannelTimelockChange,
		SwapID:  "swap-1",
		Payload: mustJSON(t, protocol.TimelockChange{
			SwapID:   "swap-1",
			Timelock: &protocol.TimelockStatus{Kind: protocol.TimelockCancel, BlocksLeft: 5},
		}),
	})

	view, _ := store.SwapView("swap-1")
	if view.Timeline == nil {
		t.Fatal("timeline position missing")
	}
	if view.Timeline.SegmentIndex != timeline.SegmentRefund {
		t.Errorf("segment = %d, want Refund", view.Timeline.SegmentIndex)
	}
}

func TestApprovalLifecycle(t *testing.T) {
	resolver := &fakeResolver{}
	store, clk, _ := newTestStore(t, nil, resolver)

	store.Dispatch(protocol.Envelope{
		Channel: protocol.ChannelApproval,
		Payload: mustJSON(t, protocol.ApprovalRequest{
			RequestID: "req-1",
			Kind:      "lock_bitcoin",
			ExpiresAt: clk.Now().Add(time.Minute),
		}),
	})

	if got := len(store.PendingApprovals()); got != 1 {
		t.Fatalf("pending = %d, want 1", got)
	}

	if err := store.ResolveApproval(context.Background(), "req-1", true); err != nil {
		t.Fatalf("ResolveApproval: %v", err)
	}
	if len(resolver.calls) != 1 || resolver.calls[0] != "req-1:true" {
		t.Errorf("resolver calls = %v, want one accept for req-1", resolver.calls)
	}
	// Removal is optimistic: gone the moment the resolution is dispatched.
	if got := len(store.PendingApprovals()); got != 0 {
		t.Errorf("pending after resolve = %d, want 0", got)
	}
	if err := store.ResolveApproval(context.Background(), "req-1", true); !errors.Is(err, ErrApprovalGone) {
		t.Errorf("second resolve err = %v, want ErrApprovalGone", err)
	}
}

func TestExpiredApprovalIsVoid(t *testing.T) {
	resolver := &fakeResolver{}
	store, clk, _ := newTestStore(t, nil, resolver)

	store.Dispatch(protocol.Envelope{
		Channel: protocol.ChannelApproval,
		Payload: mustJSON(t, protocol.ApprovalRequest{
			RequestID: "req-1",
			Kind:      "lock_bitcoin",
			ExpiresAt: clk.Now().Add(10 * time.Second),
		}),
	})

	clk.Advance(11 * time.Second)

	if err := store.ResolveApproval(context.Background(), "req-1", true); !errors.Is(err, ErrApprovalGone) {
		t.Fatalf("err = %v, want ErrApprovalGone for an expired request", err)
	}
	if len(resolver.calls) != 0 {
		t.Error("no command may be sent for an expired request")
	}
	if got := len(store.PendingApprovals()); got != 0 {
		t.Errorf("expired request still pending: %d", got)
	}
}

// A process exit before any real state is not a fallback: it renders as the
// first step, failed.
func TestExitBeforeFirstStateClassifiesStepZero(t *testing.T) {
	store, _, _ := newTestStore(t, nil, nil)

	store.Dispatch(swapEvent(t, "swap-1", protocol.Released{RPCError: "daemon crashed"}))

	view, ok := store.SwapView("swap-1")
	if !ok {
		t.Fatal("swap-1 missing from the read model")
	}
	if view.Fallback {
		t.Error("exit before the first state must classify, not degrade to the fallback")
	}
	want := steps.Classification{Path: steps.PathHappy, Step: 0, IsError: true}
	if view.Classification == nil || *view.Classification != want {
		t.Errorf("classification = %v, want %+v", view.Classification, want)
	}
}

// The explicit fallback of last resort: a swap known only from the
// authoritative database, with no event observed yet, renders as
// "no information to display" with the raw record available.
func TestNoInformationToDisplayFallback(t *testing.T) {
	store, _, _ := newTestStore(t, nil, nil)

	store.SetSwapInfos([]protocol.SwapInfo{{SwapID: "swap-ghost", StateName: "unknown"}})

	view, ok := store.SwapView("swap-ghost")
	if !ok {
		t.Fatal("swap missing")
	}
	if !view.Fallback {
		t.Error("view must degrade to the fallback, not crash or invent a step")
	}
	if view.Classification != nil {
		t.Errorf("classification = %+v, want none", view.Classification)
	}
	if view.Record.SwapID != "swap-ghost" {
		t.Error("raw record must remain available for the fallback dump")
	}
}

func TestLogRingBufferBounded(t *testing.T) {
	clk := clock.NewFake(time.Unix(0, 0))
	store := NewSessionStore(clk, zap.NewNop(), nil, nil, WithLogCapacity(5))

	for i := 0; i < 12; i++ {
		store.Dispatch(protocol.Envelope{
			Channel: protocol.ChannelCliLog,
			Payload: mustJSON(t, protocol.CliLog{Line: fmt.Sprintf("INFO line %d", i)}),
		})
	}

	logs := store.RecentLogs(0)
	if len(logs) != 5 {
		t.Fatalf("kept %d lines, want 5", len(logs))
	}
	if logs[0].Message != "INFO line 7" || logs[4].Message != "INFO line 11" {
		t.Errorf("ring kept wrong window: first=%q last=%q", logs[0].Message, logs[4].Message)
	}
}

func TestBackgroundProgressCompletesAndClears(t *testing.T) {
	store, _, _ := newTestStore(t, nil, nil)

	store.Dispatch(protocol.Envelope{
		Channel: protocol.ChannelBackgroundProgress,
		Payload: mustJSON(t, protocol.BackgroundProgress{ID: "sync", Label: "Syncing wallet", Progress: 40}),
	})
	if got := store.Background(); len(got.Tasks) != 1 {
		t.Fatalf("tasks = %d, want 1", len(got.Tasks))
	}

	store.Dispatch(protocol.Envelope{
		Channel: protocol.ChannelBackgroundProgress,
		Payload: mustJSON(t, protocol.BackgroundProgress{ID: "sync", Label: "Syncing wallet", Progress: 100}),
	})
	if got := store.Background(); len(got.Tasks) != 0 {
		t.Errorf("completed task still listed: %+v", got.Tasks)
	}
}

func TestBalanceChange(t *testing.T) {
	store, _, _ := newTestStore(t, nil, nil)

	if _, ok := store.Balance(); ok {
		t.Error("balance should be unknown before the first update")
	}
	store.Dispatch(protocol.Envelope{
		Channel: protocol.ChannelBalanceChange,
		Payload: mustJSON(t, protocol.BalanceChange{Balance: 250_000}),
	})
	got, ok := store.Balance()
	if !ok || got != 250_000 {
		t.Errorf("balance = %d (known=%v), want 250000", got, ok)
	}
}
