package readmodel

import (
	"errors"
	"time"

	"github.com/eigenwallet/swapwatch/internal/protocol"
	"github.com/eigenwallet/swapwatch/internal/steps"
	"github.com/eigenwallet/swapwatch/internal/timeline"
)

// SwapView is the per-swap read model handed to presentation: the folded
// record joined with the authoritative swap info, step classification, and
// timelock timeline position.
//
// When Fallback is set the classification could not be derived (an invariant
// violation such as Released reaching classification); presentation shows
// "no information to display" plus the raw record, never a crash. An exit
// before the first real state is not a fallback: it classifies as the first
// step, failed.
type SwapView struct {
	SwapID         string                   `json:"swap_id"`
	Record         SwapStateRecord          `json:"record"`
	ProcessExited  bool                     `json:"process_exited"`
	Classification *steps.Classification    `json:"classification,omitempty"`
	Fallback       bool                     `json:"fallback"`
	FallbackReason string                   `json:"fallback_reason,omitempty"`
	Timelock       *protocol.TimelockStatus `json:"timelock,omitempty"`
	Timeline       *timeline.Position       `json:"timeline,omitempty"`
	Info           *protocol.SwapInfo       `json:"info,omitempty"`
}

// ConnectionView pairs the latest daemon retry telemetry with the absolute
// retry deadline derived at arrival, so consumers can project the countdown
// without trusting a stale seconds field.
type ConnectionView struct {
	Progress protocol.ConnectionProgress `json:"progress"`
	// RetryDeadline = arrival time + next_retry_in_seconds; zero when the
	// record carries no retry wait.
	RetryDeadline time.Time `json:"retry_deadline"`
}

// BackgroundView aggregates background task state for the status line.
type BackgroundView struct {
	Tasks   []protocol.BackgroundProgress `json:"tasks"`
	Refunds []protocol.BackgroundRefund   `json:"refunds"`
}

// buildSwapView derives the full view for one swap entry. Classification
// failures degrade to the fallback view and are reported by the caller.
func buildSwapView(entry *swapEntry) SwapView {
	view := SwapView{
		SwapID:        entry.record.SwapID,
		Record:        entry.record,
		ProcessExited: entry.record.ProcessExited(),
		Timelock:      entry.timelock,
		Info:          entry.info,
	}

	classification, err := steps.Classify(entry.record.Current, entry.record.Previous, view.ProcessExited)
	switch {
	case err == nil:
		view.Classification = &classification
	case errors.Is(err, steps.ErrNoState) && view.ProcessExited:
		// Exited before the first real state still has a defined display:
		// the first step, failed. The raw-record fallback stays reserved
		// for invariant violations and swaps with no events at all.
		view.Classification = &classification
	default:
		view.Fallback = true
		view.FallbackReason = err.Error()
	}

	if entry.timelock != nil && entry.info != nil &&
		entry.info.CancelTimelock > 0 && entry.info.PunishTimelock > 0 {
		if pos, err := timeline.Locate(*entry.timelock, entry.info.CancelTimelock, entry.info.PunishTimelock); err == nil {
			view.Timeline = &pos
		}
	}

	return view
}
