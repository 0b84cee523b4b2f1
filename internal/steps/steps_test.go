package steps

import (
	"errors"
	"testing"

	"github.com/eigenwallet/swapwatch/internal/protocol"
)

func TestClassifyTagIsExhaustive(t *testing.T) {
	for _, tag := range protocol.AllEventTags {
		if tag == protocol.TagReleased {
			continue // classifiable only through the reducer's previous slot
		}
		t.Run(string(tag), func(t *testing.T) {
			if _, err := classifyTag(tag, false); err != nil {
				t.Errorf("classifyTag(%q, false): %v", tag, err)
			}
			if _, err := classifyTag(tag, true); err != nil {
				t.Errorf("classifyTag(%q, true): %v", tag, err)
			}
		})
	}
}

func TestClassifyMapping(t *testing.T) {
	tests := []struct {
		tag  protocol.EventTag
		want Classification
	}{
		{protocol.TagInitiated, Classification{PathHappy, 0, false}},
		{protocol.TagReceivedQuote, Classification{PathHappy, 0, false}},
		{protocol.TagWaitingForBtcDeposit, Classification{PathHappy, 0, false}},
		{protocol.TagStarted, Classification{PathHappy, 0, false}},
		{protocol.TagBtcLockTxInMempool, Classification{PathHappy, 1, false}},
		{protocol.TagXmrLockTxInMempool, Classification{PathHappy, 1, false}},
		{protocol.TagXmrLocked, Classification{PathHappy, 2, false}},
		{protocol.TagEncryptedSignatureSent, Classification{PathHappy, 2, false}},
		{protocol.TagBtcRedeemed, Classification{PathHappy, 3, false}},
		{protocol.TagXmrRedeemInMempool, Classification{PathHappy, 4, false}},
		{protocol.TagCancelTimelockExpired, Classification{PathUnhappy, 0, false}},
		{protocol.TagBtcCancelled, Classification{PathUnhappy, 1, false}},
		{protocol.TagBtcPunished, Classification{PathUnhappy, 1, true}},
		{protocol.TagAttemptingCooperativeRedeem, Classification{PathUnhappy, 1, false}},
		{protocol.TagCooperativeRedeemAccepted, Classification{PathUnhappy, 1, false}},
		{protocol.TagCooperativeRedeemRejected, Classification{PathUnhappy, 1, true}},
		{protocol.TagBtcRefunded, Classification{PathUnhappy, 2, false}},
	}

	for _, tt := range tests {
		t.Run(string(tt.tag), func(t *testing.T) {
			got, err := classifyTag(tt.tag, false)
			if err != nil {
				t.Fatalf("classifyTag: %v", err)
			}
			if got != tt.want {
				t.Errorf("classifyTag(%q, false) = %+v, want %+v", tt.tag, got, tt.want)
			}
		})
	}
}

func TestClassifyProcessExitedMarksMidPathAsError(t *testing.T) {
	got, err := Classify(protocol.Released{}, protocol.BtcLockTxInMempool{BtcLockConfirmations: 0}, true)
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	want := Classification{Path: PathHappy, Step: 1, IsError: true}
	if got != want {
		t.Errorf("Classify = %+v, want %+v", got, want)
	}
}

func TestClassifyTerminalStatesNeverError(t *testing.T) {
	tests := []struct {
		name  string
		event protocol.SwapStateEvent
		want  Classification
	}{
		{"xmr redeem terminal", protocol.XmrRedeemInMempool{}, Classification{PathHappy, 4, false}},
		{"btc refund terminal", protocol.BtcRefunded{Finalized: true}, Classification{PathUnhappy, 2, false}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Even with the process dead, terminal states stay non-errors.
			got, err := Classify(protocol.Released{}, tt.event, true)
			if err != nil {
				t.Fatalf("Classify: %v", err)
			}
			if got != tt.want {
				t.Errorf("Classify = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestClassifyExitWithoutPreviousFallsBackToStepZero(t *testing.T) {
	got, err := Classify(protocol.Released{}, nil, true)
	if !errors.Is(err, ErrNoState) {
		t.Fatalf("err = %v, want ErrNoState", err)
	}
	want := Classification{Path: PathHappy, Step: 0, IsError: true}
	if got != want {
		t.Errorf("fallback classification = %+v, want %+v", got, want)
	}
}

func TestClassifyRejectsReleasedAsCurrent(t *testing.T) {
	_, err := Classify(protocol.Released{}, protocol.XmrLocked{}, false)
	if !errors.Is(err, ErrReleasedState) {
		t.Fatalf("err = %v, want ErrReleasedState", err)
	}
}

func TestClassifyBtcPunishedAlwaysError(t *testing.T) {
	for _, exited := range []bool{false, true} {
		got, err := classifyTag(protocol.TagBtcPunished, exited)
		if err != nil {
			t.Fatalf("classifyTag: %v", err)
		}
		if !got.IsError {
			t.Errorf("BtcPunished with processExited=%v should be an error", exited)
		}
	}
}
