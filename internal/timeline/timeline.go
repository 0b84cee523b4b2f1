// Package timeline computes the swap's position on the three-segment safety
// timeline: Normal (only the happy path is possible), Refund (the cancel
// timelock expired, refund is possible) and Danger (the punish timelock
// expired, funds can be taken).
//
// All block arithmetic is integral. Only rendering helpers produce floats,
// and never participate in segment selection.
package timeline

import (
	"fmt"

	"github.com/eigenwallet/swapwatch/internal/protocol"
)

// Segment is one fixed span of the safety timeline. StartBlock is measured
// from the Bitcoin lock transaction's confirmation height.
type Segment struct {
	Label        string `json:"label"`
	StartBlock   uint64 `json:"start_block"`
	SeverityRank int    `json:"severity_rank"`
}

// Position describes where on the timeline a swap currently sits.
// SegmentDuration is nil for the final open-ended segment.
type Position struct {
	SegmentIndex      int     `json:"segment_index"`
	BlocksIntoSegment uint64  `json:"blocks_into_segment"`
	SegmentDuration   *uint64 `json:"segment_duration"`
}

const (
	SegmentNormal = 0
	SegmentRefund = 1
	SegmentDanger = 2
)

// Segments builds the three fixed segments for the given timelock offsets.
// StartBlock is strictly increasing provided both offsets are non-zero, which
// the protocol guarantees.
func Segments(cancelTimelock, punishTimelock uint64) [3]Segment {
	return [3]Segment{
		{Label: "Normal", StartBlock: 0, SeverityRank: 0},
		{Label: "Refund", StartBlock: cancelTimelock, SeverityRank: 1},
		{Label: "Danger", StartBlock: cancelTimelock + punishTimelock, SeverityRank: 2},
	}
}

// ActiveSegment selects the segment containing absoluteBlock: the last
// segment whose StartBlock <= absoluteBlock. At an exact boundary the later,
// more dangerous segment wins, which is the conservative choice for a safety
// display.
func ActiveSegment(absoluteBlock, cancelTimelock, punishTimelock uint64) Position {
	segments := Segments(cancelTimelock, punishTimelock)

	active := 0
	for i := len(segments) - 1; i >= 0; i-- {
		if segments[i].StartBlock <= absoluteBlock {
			active = i
			break
		}
	}

	pos := Position{
		SegmentIndex:      active,
		BlocksIntoSegment: absoluteBlock - segments[active].StartBlock,
	}
	if active < len(segments)-1 {
		duration := segments[active+1].StartBlock - segments[active].StartBlock
		pos.SegmentDuration = &duration
	}
	return pos
}

// AbsoluteBlock derives the current block offset from the daemon's timelock
// status. None counts down to the cancel boundary, Cancel counts down to the
// punish boundary, and Punish reports the exact boundary since it carries no
// countdown.
func AbsoluteBlock(status protocol.TimelockStatus, cancelTimelock, punishTimelock uint64) (uint64, error) {
	switch status.Kind {
	case protocol.TimelockNone:
		if status.BlocksLeft > cancelTimelock {
			return 0, fmt.Errorf("timeline: %d blocks left exceeds cancel timelock %d", status.BlocksLeft, cancelTimelock)
		}
		return cancelTimelock - status.BlocksLeft, nil
	case protocol.TimelockCancel:
		if status.BlocksLeft > punishTimelock {
			return 0, fmt.Errorf("timeline: %d blocks left exceeds punish timelock %d", status.BlocksLeft, punishTimelock)
		}
		return cancelTimelock + (punishTimelock - status.BlocksLeft), nil
	case protocol.TimelockPunish:
		return cancelTimelock + punishTimelock, nil
	default:
		return 0, fmt.Errorf("timeline: unknown timelock kind %q", status.Kind)
	}
}

// Locate combines AbsoluteBlock and ActiveSegment for one observation.
func Locate(status protocol.TimelockStatus, cancelTimelock, punishTimelock uint64) (Position, error) {
	block, err := AbsoluteBlock(status, cancelTimelock, punishTimelock)
	if err != nil {
		return Position{}, err
	}
	return ActiveSegment(block, cancelTimelock, punishTimelock), nil
}

// Fraction is a display-only progress ratio through the active segment,
// clamped to [0, 1]. The final segment has no duration and always reports 1.
func (p Position) Fraction() float64 {
	if p.SegmentDuration == nil || *p.SegmentDuration == 0 {
		return 1
	}
	f := float64(p.BlocksIntoSegment) / float64(*p.SegmentDuration)
	if f > 1 {
		return 1
	}
	return f
}
