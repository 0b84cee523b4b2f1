// Package steps maps a swap's latest state onto the step ladder shown to the
// user: which of the two trajectories the swap is on, how far along it is,
// and whether the step is currently failed.
package steps

import (
	"errors"
	"fmt"

	"github.com/eigenwallet/swapwatch/internal/protocol"
)

// Path is one of the two mutually exclusive swap trajectories.
type Path string

const (
	// PathHappy: deposit, lock, redeem, done.
	PathHappy Path = "Happy"
	// PathUnhappy: cancel, then refund, cooperative redeem, or punishment.
	PathUnhappy Path = "Unhappy"
)

// Classification places a swap on its path.
type Classification struct {
	Path    Path `json:"path"`
	Step    int  `json:"step"`
	IsError bool `json:"is_error"`
}

// ErrReleasedState is returned when Released reaches classification as the
// effective state. The reducer guarantees this cannot happen for well-formed
// streams; seeing it means the upstream guard was bypassed.
var ErrReleasedState = errors.New("steps: Released is not a classifiable state")

// ErrNoState is returned when there is nothing to classify: the process
// exited before any real state was observed.
var ErrNoState = errors.New("steps: no state observed before process exit")

// Classify derives the display step for a swap.
//
// If the process has exited, the swap's last real state (previous) is
// classified instead of current, since current is by then the Released
// marker. Mid-path states only count as failures when the process died while
// still in them; reaching the same state with the process alive is normal
// progress.
func Classify(current, previous protocol.SwapStateEvent, processExited bool) (Classification, error) {
	effective := current
	if processExited {
		if previous == nil {
			// Exited before the first real state: show the first step, failed.
			return Classification{Path: PathHappy, Step: 0, IsError: true}, ErrNoState
		}
		effective = previous
	}
	if effective == nil {
		return Classification{Path: PathHappy, Step: 0, IsError: true}, ErrNoState
	}
	if effective.Tag() == protocol.TagReleased {
		return Classification{}, ErrReleasedState
	}
	return classifyTag(effective.Tag(), processExited)
}

// classifyTag is exhaustive over the event union. An unmapped tag is a defect
// and fails loudly; there is deliberately no silent default.
func classifyTag(tag protocol.EventTag, processExited bool) (Classification, error) {
	switch tag {
	case protocol.TagInitiated,
		protocol.TagReceivedQuote,
		protocol.TagWaitingForBtcDeposit,
		protocol.TagStarted:
		return Classification{Path: PathHappy, Step: 0, IsError: processExited}, nil

	case protocol.TagBtcLockTxInMempool,
		protocol.TagXmrLockTxInMempool:
		return Classification{Path: PathHappy, Step: 1, IsError: processExited}, nil

	case protocol.TagXmrLocked,
		protocol.TagEncryptedSignatureSent:
		return Classification{Path: PathHappy, Step: 2, IsError: processExited}, nil

	case protocol.TagBtcRedeemed:
		return Classification{Path: PathHappy, Step: 3, IsError: processExited}, nil

	case protocol.TagXmrRedeemInMempool:
		// Terminal success, never an error even across process exit.
		return Classification{Path: PathHappy, Step: 4, IsError: false}, nil

	case protocol.TagCancelTimelockExpired:
		return Classification{Path: PathUnhappy, Step: 0, IsError: processExited}, nil

	case protocol.TagBtcCancelled:
		return Classification{Path: PathUnhappy, Step: 1, IsError: processExited}, nil

	case protocol.TagBtcPunished:
		// Funds are gone; always an error regardless of process liveness.
		return Classification{Path: PathUnhappy, Step: 1, IsError: true}, nil

	case protocol.TagAttemptingCooperativeRedeem,
		protocol.TagCooperativeRedeemAccepted:
		return Classification{Path: PathUnhappy, Step: 1, IsError: false}, nil

	case protocol.TagCooperativeRedeemRejected:
		return Classification{Path: PathUnhappy, Step: 1, IsError: true}, nil

	case protocol.TagBtcRefunded:
		// Terminal refund, never an error.
		return Classification{Path: PathUnhappy, Step: 2, IsError: false}, nil

	case protocol.TagReleased:
		return Classification{}, ErrReleasedState

	default:
		return Classification{}, fmt.Errorf("steps: unmapped event tag %q", tag)
	}
}

// HappyStepCount and UnhappyStepCount are the ladder lengths rendered by the
// progress view (terminal step included).
const (
	HappyStepCount   = 5
	UnhappyStepCount = 3
)
