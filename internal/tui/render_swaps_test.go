package tui

import (
	"strings"
	"testing"

	"github.com/eigenwallet/swapwatch/internal/protocol"
	"github.com/eigenwallet/swapwatch/internal/readmodel"
	"github.com/eigenwallet/swapwatch/internal/steps"
)

func plainStyles() Styles {
	return NewStyles(DefaultSkin())
}

func TestRenderStepLadderHappyPath(t *testing.T) {
	t.Parallel()

	c := &steps.Classification{Path: steps.PathHappy, Step: 2, IsError: false}
	out := renderStepLadder(c, false, plainStyles())

	if !strings.Contains(out, "swap 3/5") {
		t.Errorf("ladder = %q, want the happy-path counter swap 3/5", out)
	}
	if strings.Count(out, "●") != 3 {
		t.Errorf("ladder = %q, want 3 filled dots", out)
	}
	if strings.Count(out, "○") != 2 {
		t.Errorf("ladder = %q, want 2 hollow dots", out)
	}
}

func TestRenderStepLadderUnhappyPath(t *testing.T) {
	t.Parallel()

	c := &steps.Classification{Path: steps.PathUnhappy, Step: 1, IsError: false}
	out := renderStepLadder(c, false, plainStyles())

	if !strings.Contains(out, "refund 2/3") {
		t.Errorf("ladder = %q, want the unhappy-path counter refund 2/3", out)
	}
}

func TestRenderStepLadderFailedStep(t *testing.T) {
	t.Parallel()

	c := &steps.Classification{Path: steps.PathHappy, Step: 1, IsError: true}
	out := renderStepLadder(c, false, plainStyles())

	if !strings.Contains(out, "✗") {
		t.Errorf("ladder = %q, want a failure mark on the active step", out)
	}
	if strings.Count(out, "●") != 1 {
		t.Errorf("ladder = %q, want exactly 1 done dot before the failed step", out)
	}
}

func TestRenderStepLadderFallback(t *testing.T) {
	t.Parallel()

	out := renderStepLadder(nil, true, plainStyles())
	if !strings.Contains(out, fallbackText) {
		t.Errorf("ladder = %q, want %q", out, fallbackText)
	}

	// A nil classification without the fallback flag still degrades.
	out = renderStepLadder(nil, false, plainStyles())
	if !strings.Contains(out, fallbackText) {
		t.Errorf("nil classification = %q, want %q", out, fallbackText)
	}
}

func TestSwapStateLabel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		view readmodel.SwapView
		want string
	}{
		{
			name: "running swap names the current state",
			view: readmodel.SwapView{
				Record: readmodel.SwapStateRecord{Current: protocol.XmrLocked{}},
			},
			want: "XmrLocked",
		},
		{
			name: "exited swap names the last real state",
			view: readmodel.SwapView{
				ProcessExited: true,
				Record: readmodel.SwapStateRecord{
					Current:  protocol.Released{},
					Previous: protocol.BtcLockTxInMempool{},
				},
			},
			want: "BtcLockTxInMempool (exited)",
		},
		{
			name: "exited without previous",
			view: readmodel.SwapView{
				ProcessExited: true,
				Record:        readmodel.SwapStateRecord{Current: protocol.Released{}},
			},
			want: "exited",
		},
		{
			name: "database-only swap uses the state name",
			view: readmodel.SwapView{
				Info: &protocol.SwapInfo{StateName: "btc is locked"},
			},
			want: "btc is locked",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := swapStateLabel(tt.view); got != tt.want {
				t.Errorf("swapStateLabel() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestShortID(t *testing.T) {
	t.Parallel()

	if got := shortID("1234567890abcdef"); got != "12345678" {
		t.Errorf("shortID = %q, want 12345678", got)
	}
	if got := shortID("ab"); got != "ab" {
		t.Errorf("shortID = %q, want ab", got)
	}
}
