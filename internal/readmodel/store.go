// Package readmodel holds the per-session read model: the event normalizer
// routing daemon notifications to their owning sub-stores, the swap state
// reducer, and the snapshot queries the presentation layer consumes.
//
// The store is explicitly constructed on session start and torn down on
// session end; it is rebuilt from zero on restart and never merged across
// sessions. A single mutex serializes the one writer (the normalizer) against
// snapshot readers.
package readmodel

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/eigenwallet/swapwatch/internal/clock"
	"github.com/eigenwallet/swapwatch/internal/logparse"
	"github.com/eigenwallet/swapwatch/internal/protocol"
)

// SettleDelay is the wait before the second authoritative re-fetch after a
// SwapDatabaseStateUpdate. The daemon's store may not yet reflect the change
// it just announced, so we fetch immediately and once more after this delay.
// The value is an empirical workaround for that consistency gap, not a tuned
// constant; do not harden it without measuring the actual settle time.
const SettleDelay = 3 * time.Second

// defaultLogCapacity bounds the daemon log ring buffer.
const defaultLogCapacity = 1000

// SwapInfoFetcher fetches the authoritative swap records from the daemon.
type SwapInfoFetcher interface {
	GetSwapInfosAll(ctx context.Context) ([]protocol.SwapInfo, error)
}

// ApprovalResolver dispatches an approval decision to the daemon. Dispatch is
// at-most-once: a failure is surfaced, never retried here.
type ApprovalResolver interface {
	ResolveApproval(ctx context.Context, requestID string, accept bool) error
}

// ResolutionPolicy observes approval resolutions. The default policy is
// purely optimistic: the request leaves the pending set on dispatch and no
// reconciliation happens if the daemon never acknowledges. A future
// reconciliation pass can hook in here without touching the store.
type ResolutionPolicy interface {
	OnResolved(request protocol.ApprovalRequest, accepted bool)
}

type optimisticPolicy struct{}

func (optimisticPolicy) OnResolved(protocol.ApprovalRequest, bool) {}

// ErrApprovalGone is returned when resolving an approval that is unknown or
// already expired. The command is rejected locally before anything is sent.
var ErrApprovalGone = errors.New("readmodel: approval request is gone or expired")

type swapEntry struct {
	record   SwapStateRecord
	timelock *protocol.TimelockStatus
	info     *protocol.SwapInfo
	updated  time.Time
}

// SessionStore is the single-session read model.
type SessionStore struct {
	mu sync.Mutex

	clk      clock.Clock
	log      *zap.Logger
	fetcher  SwapInfoFetcher
	resolver ApprovalResolver
	policy   ResolutionPolicy

	// afterFunc schedules the deferred re-fetch; swapped out in tests.
	afterFunc func(d time.Duration, f func())

	swaps       map[string]*swapEntry
	conn        *ConnectionView
	approvals   map[string]protocol.ApprovalRequest
	background  map[string]protocol.BackgroundProgress
	refunds     map[string]protocol.BackgroundRefund
	balance     *uint64
	logs        []logparse.Entry
	logCapacity int

	closed bool
}

// Option configures a SessionStore.
type Option func(*SessionStore)

// WithResolutionPolicy replaces the default optimistic approval policy.
func WithResolutionPolicy(policy ResolutionPolicy) Option {
	return func(s *SessionStore) { s.policy = policy }
}

// WithLogCapacity bounds the daemon log ring buffer.
func WithLogCapacity(n int) Option {
	return func(s *SessionStore) {
		if n > 0 {
			s.logCapacity = n
		}
	}
}

// NewSessionStore constructs the read model for one session. fetcher and
// resolver may be nil in read-only setups; the corresponding operations then
// degrade gracefully (no re-fetch, approvals rejected).
func NewSessionStore(clk clock.Clock, log *zap.Logger, fetcher SwapInfoFetcher, resolver ApprovalResolver, opts ...Option) *SessionStore {
	store := &SessionStore{
		clk:         clk,
		log:         log.Named("readmodel"),
		fetcher:     fetcher,
		resolver:    resolver,
		policy:      optimisticPolicy{},
		afterFunc:   func(d time.Duration, f func()) { time.AfterFunc(d, f) },
		swaps:       make(map[string]*swapEntry),
		approvals:   make(map[string]protocol.ApprovalRequest),
		background:  make(map[string]protocol.BackgroundProgress),
		refunds:     make(map[string]protocol.BackgroundRefund),
		logCapacity: defaultLogCapacity,
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

// Close tears the session down. Subsequent dispatches are dropped.
func (s *SessionStore) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

// Dispatch routes one notification to its owning sub-store by channel tag.
// Unknown tags and malformed payloads are logged and dropped; the stream is
// long-lived and one bad event must not terminate processing.
func (s *SessionStore) Dispatch(env protocol.Envelope) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	switch env.Channel {
	case protocol.ChannelSwapProgress:
		s.applySwapProgress(env)
	case protocol.ChannelConnectionProgress:
		s.applyConnectionProgress(env)
	case protocol.ChannelCliLog:
		s.applyCliLog(env)
	case protocol.ChannelBalanceChange:
		s.applyBalanceChange(env)
	case protocol.ChannelSwapDatabaseStateUpdate:
		s.applyDatabaseStateUpdate(env)
	case protocol.ChannelTimelockChange:
		s.applyTimelockChange(env)
	case protocol.ChannelBackgroundRefund:
		s.applyBackgroundRefund(env)
	case protocol.ChannelApproval:
		s.applyApproval(env)
	case protocol.ChannelBackgroundProgress:
		s.applyBackgroundProgress(env)
	default:
		s.log.Warn("dropping event with unknown channel tag",
			zap.String("channel", string(env.Channel)))
	}
}

func (s *SessionStore) applySwapProgress(env protocol.Envelope) {
	event, err := protocol.DecodeSwapEvent(env.Payload)
	if err != nil {
		s.log.Warn("dropping malformed swap progress event",
			zap.String("swap_id", env.SwapID), zap.Error(err))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entry := s.swaps[env.SwapID]
	var record *SwapStateRecord
	if entry != nil {
		record = &entry.record
	}

	next, err := Reduce(record, env.SwapID, event)
	if err != nil {
		// Invariant violation; keep the old record rather than corrupt it.
		s.log.Error("rejecting swap progress event",
			zap.String("swap_id", env.SwapID),
			zap.String("tag", string(event.Tag())),
			zap.Error(err))
		return
	}

	if entry == nil {
		entry = &swapEntry{}
		s.swaps[env.SwapID] = entry
	}
	entry.record = next
	entry.updated = s.clk.Now()
}

func (s *SessionStore) applyConnectionProgress(env protocol.Envelope) {
	var progress protocol.ConnectionProgress
	if err := json.Unmarshal(env.Payload, &progress); err != nil {
		s.log.Warn("dropping malformed connection progress", zap.Error(err))
		return
	}

	view := ConnectionView{Progress: progress}
	if progress.State == protocol.ConnWaitingToRetry && progress.NextRetryInSeconds != nil && *progress.NextRetryInSeconds > 0 {
		view.RetryDeadline = s.clk.Now().Add(time.Duration(*progress.NextRetryInSeconds) * time.Second)
	}

	s.mu.Lock()
	s.conn = &view
	s.mu.Unlock()
}

func (s *SessionStore) applyCliLog(env protocol.Envelope) {
	var payload protocol.CliLog
	if err := json.Unmarshal(env.Payload, &payload); err != nil {
		s.log.Warn("dropping malformed log payload", zap.Error(err))
		return
	}
	entry := logparse.Parse(payload.Line, s.clk.Now())

	s.mu.Lock()
	s.logs = append(s.logs, entry)
	if len(s.logs) > s.logCapacity {
		s.logs = s.logs[len(s.logs)-s.logCapacity:]
	}
	s.mu.Unlock()
}

func (s *SessionStore) applyBalanceChange(env protocol.Envelope) {
	var payload protocol.BalanceChange
	if err := json.Unmarshal(env.Payload, &payload); err != nil {
		s.log.Warn("dropping malformed balance change", zap.Error(err))
		return
	}
	s.mu.Lock()
	s.balance = &payload.Balance
	s.mu.Unlock()
}

// applyDatabaseStateUpdate schedules the authoritative re-fetch twice: once
// immediately and once after SettleDelay, because the daemon's store may lag
// its own announcement. Both fetches are fire-and-forget.
func (s *SessionStore) applyDatabaseStateUpdate(env protocol.Envelope) {
	if s.fetcher == nil {
		return
	}
	s.afterFunc(0, s.refetchSwapInfos)
	s.afterFunc(SettleDelay, s.refetchSwapInfos)
}

func (s *SessionStore) refetchSwapInfos() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	infos, err := s.fetcher.GetSwapInfosAll(ctx)
	if err != nil {
		s.log.Warn("authoritative swap info fetch failed", zap.Error(err))
		return
	}
	s.SetSwapInfos(infos)
}

// SetSwapInfos merges authoritative records into the per-swap entries.
func (s *SessionStore) SetSwapInfos(infos []protocol.SwapInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	for i := range infos {
		info := infos[i]
		entry := s.swaps[info.SwapID]
		if entry == nil {
			entry = &swapEntry{record: SwapStateRecord{SwapID: info.SwapID}}
			s.swaps[info.SwapID] = entry
		}
		entry.info = &info
		if info.Timelock != nil && entry.timelock == nil {
			entry.timelock = info.Timelock
		}
	}
}

func (s *SessionStore) applyTimelockChange(env protocol.Envelope) {
	var payload protocol.TimelockChange
	if err := json.Unmarshal(env.Payload, &payload); err != nil {
		s.log.Warn("dropping malformed timelock change", zap.Error(err))
		return
	}
	swapID := payload.SwapID
	if swapID == "" {
		swapID = env.SwapID
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	entry := s.swaps[swapID]
	if entry == nil {
		entry = &swapEntry{record: SwapStateRecord{SwapID: swapID}}
		s.swaps[swapID] = entry
	}
	entry.timelock = payload.Timelock
}

func (s *SessionStore) applyBackgroundRefund(env protocol.Envelope) {
	var payload protocol.BackgroundRefund
	if err := json.Unmarshal(env.Payload, &payload); err != nil {
		s.log.Warn("dropping malformed background refund", zap.Error(err))
		return
	}
	s.mu.Lock()
	s.refunds[payload.SwapID] = payload
	s.mu.Unlock()
}

func (s *SessionStore) applyApproval(env protocol.Envelope) {
	var request protocol.ApprovalRequest
	if err := json.Unmarshal(env.Payload, &request); err != nil {
		s.log.Warn("dropping malformed approval request", zap.Error(err))
		return
	}
	if request.RequestID == "" {
		s.log.Warn("dropping approval request without id")
		return
	}
	s.mu.Lock()
	s.approvals[request.RequestID] = request
	s.mu.Unlock()
}

func (s *SessionStore) applyBackgroundProgress(env protocol.Envelope) {
	var payload protocol.BackgroundProgress
	if err := json.Unmarshal(env.Payload, &payload); err != nil {
		s.log.Warn("dropping malformed background progress", zap.Error(err))
		return
	}
	s.mu.Lock()
	if payload.Progress >= 100 {
		delete(s.background, payload.ID)
	} else {
		s.background[payload.ID] = payload
	}
	s.mu.Unlock()
}

// ResolveApproval resolves a pending request. The request is removed from the
// pending set the moment the resolution is dispatched; expired or unknown
// requests are rejected locally before any command is sent.
func (s *SessionStore) ResolveApproval(ctx context.Context, requestID string, accept bool) error {
	s.mu.Lock()
	request, ok := s.approvals[requestID]
	if !ok {
		s.mu.Unlock()
		return ErrApprovalGone
	}
	if !request.ExpiresAt.IsZero() && !s.clk.Now().Before(request.ExpiresAt) {
		// Expired requests are implicitly void.
		delete(s.approvals, requestID)
		s.mu.Unlock()
		return ErrApprovalGone
	}
	delete(s.approvals, requestID)
	policy := s.policy
	s.mu.Unlock()

	policy.OnResolved(request, accept)

	if s.resolver == nil {
		return errors.New("readmodel: no approval resolver configured")
	}
	return s.resolver.ResolveApproval(ctx, requestID, accept)
}

// SwapViews returns the view model for all swaps, newest update first.
func (s *SessionStore) SwapViews() []SwapView {
	s.mu.Lock()
	defer s.mu.Unlock()

	views := make([]SwapView, 0, len(s.swaps))
	entries := make([]*swapEntry, 0, len(s.swaps))
	for _, entry := range s.swaps {
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].updated.Equal(entries[j].updated) {
			return entries[i].updated.After(entries[j].updated)
		}
		return entries[i].record.SwapID < entries[j].record.SwapID
	})
	for _, entry := range entries {
		view := buildSwapView(entry)
		if view.Fallback {
			s.log.Error("swap view degraded to fallback",
				zap.String("swap_id", view.SwapID),
				zap.String("reason", view.FallbackReason))
		}
		views = append(views, view)
	}
	return views
}

// SwapView returns the view for one swap id.
func (s *SessionStore) SwapView(swapID string) (SwapView, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.swaps[swapID]
	if !ok {
		return SwapView{}, false
	}
	return buildSwapView(entry), true
}

// Connection returns the latest connection view, if any record arrived yet.
func (s *SessionStore) Connection() (ConnectionView, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return ConnectionView{}, false
	}
	return *s.conn, true
}

// PendingApprovals returns non-expired requests, pruning expired ones.
func (s *SessionStore) PendingApprovals() []protocol.ApprovalRequest {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clk.Now()
	pending := make([]protocol.ApprovalRequest, 0, len(s.approvals))
	for id, request := range s.approvals {
		if !request.ExpiresAt.IsZero() && !now.Before(request.ExpiresAt) {
			delete(s.approvals, id)
			continue
		}
		pending = append(pending, request)
	}
	sort.Slice(pending, func(i, j int) bool {
		return pending[i].ExpiresAt.Before(pending[j].ExpiresAt)
	})
	return pending
}

// RecentLogs returns up to limit of the newest daemon log entries, oldest
// first.
func (s *SessionStore) RecentLogs(limit int) []logparse.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	if limit <= 0 || limit > len(s.logs) {
		limit = len(s.logs)
	}
	out := make([]logparse.Entry, limit)
	copy(out, s.logs[len(s.logs)-limit:])
	return out
}

// Background returns the background task view.
func (s *SessionStore) Background() BackgroundView {
	s.mu.Lock()
	defer s.mu.Unlock()

	view := BackgroundView{}
	for _, task := range s.background {
		view.Tasks = append(view.Tasks, task)
	}
	sort.Slice(view.Tasks, func(i, j int) bool { return view.Tasks[i].ID < view.Tasks[j].ID })
	for _, refund := range s.refunds {
		view.Refunds = append(view.Refunds, refund)
	}
	sort.Slice(view.Refunds, func(i, j int) bool { return view.Refunds[i].SwapID < view.Refunds[j].SwapID })
	return view
}

// Balance returns the last observed wallet balance in satoshi.
func (s *SessionStore) Balance() (uint64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.balance == nil {
		return 0, false
	}
	return *s.balance, true
}
