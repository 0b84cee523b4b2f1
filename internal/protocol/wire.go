package protocol

import (
	"encoding/json"
	"time"
)

// Channel names one notification stream multiplexed over the daemon feed.
type Channel string

const (
	ChannelSwapProgress            Channel = "SwapProgress"
	ChannelConnectionProgress      Channel = "ConnectionProgress"
	ChannelCliLog                  Channel = "CliLog"
	ChannelBalanceChange           Channel = "BalanceChange"
	ChannelSwapDatabaseStateUpdate Channel = "SwapDatabaseStateUpdate"
	ChannelTimelockChange          Channel = "TimelockChange"
	ChannelBackgroundRefund        Channel = "BackgroundRefund"
	ChannelApproval                Channel = "Approval"
	ChannelBackgroundProgress      Channel = "BackgroundProgress"
)

// Envelope frames one notification on the feed. SwapID is set for
// swap-specific channels and empty otherwise. Payload stays opaque until the
// owning sub-store decodes it.
type Envelope struct {
	Channel Channel         `json:"channel"`
	SwapID  string          `json:"swap_id,omitempty"`
	Payload json.RawMessage `json:"payload"`
}

// CliLog carries one daemon log line, unparsed.
type CliLog struct {
	Line string `json:"line"`
}

// BalanceChange reports the wallet's new spendable balance in satoshi.
type BalanceChange struct {
	Balance uint64 `json:"balance"`
}

// SwapDatabaseStateUpdate announces that the daemon persisted a state change
// for a swap. The authoritative store may lag the announcement; see the
// readmodel refetch scheduling.
type SwapDatabaseStateUpdate struct {
	SwapID string `json:"swap_id"`
}

// TimelockChange carries a fresh timelock observation for one swap.
type TimelockChange struct {
	SwapID   string          `json:"swap_id"`
	Timelock *TimelockStatus `json:"timelock"`
}

// BackgroundRefundState enumerates the background refund watcher's phases.
type BackgroundRefundState string

const (
	BackgroundRefundStarted   BackgroundRefundState = "Started"
	BackgroundRefundCompleted BackgroundRefundState = "Completed"
	BackgroundRefundFailed    BackgroundRefundState = "Failed"
)

// BackgroundRefund reports progress of the daemon's background refund watcher.
type BackgroundRefund struct {
	SwapID string                `json:"swap_id"`
	State  BackgroundRefundState `json:"state"`
	Error  string                `json:"error,omitempty"`
}

// BackgroundProgress is a generic background task update (wallet sync,
// database migration, tor bootstrap).
type BackgroundProgress struct {
	ID       string `json:"id"`
	Label    string `json:"label"`
	Progress uint8  `json:"progress"` // 0-100
}

// ApprovalRequest is a pending decision the daemon is blocked on. It is void
// once ExpiresAt elapses; a void request must never be resolved.
type ApprovalRequest struct {
	RequestID string          `json:"request_id"`
	Kind      string          `json:"kind"`
	Details   json.RawMessage `json:"details"`
	ExpiresAt time.Time       `json:"expires_at"`
}

// SwapInfo is the authoritative per-swap record fetched from the daemon's
// database, joined with the live event stream by the read model.
type SwapInfo struct {
	SwapID         string          `json:"swap_id"`
	Seller         string          `json:"seller"`
	StateName      string          `json:"state_name"`
	BtcAmount      uint64          `json:"btc_amount"`
	XmrAmount      uint64          `json:"xmr_amount"`
	BtcRefundAddr  string          `json:"btc_refund_address"`
	CancelTimelock uint64          `json:"cancel_timelock"`
	PunishTimelock uint64          `json:"punish_timelock"`
	Timelock       *TimelockStatus `json:"timelock"`
	Completed      bool            `json:"completed"`
	StartDate      time.Time       `json:"start_date"`
}
