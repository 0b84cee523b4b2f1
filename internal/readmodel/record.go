package readmodel

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/eigenwallet/swapwatch/internal/protocol"
)

// SwapStateRecord is the folded event stream for one swap: the current state
// and the state that held the slot immediately before it. This pair is the
// minimal information needed to classify a display step, including across a
// process exit (Released carries no protocol state of its own, so only
// Previous tells the viewer what the swap was last doing).
type SwapStateRecord struct {
	SwapID   string
	Current  protocol.SwapStateEvent
	Previous protocol.SwapStateEvent
}

// ErrPreviousReleased signals the upstream logic error of Released occupying
// the previous slot. It must be rejected, not silently accepted.
var ErrPreviousReleased = errors.New("readmodel: Released must never become the previous state")

// Reduce folds one incoming event into a record.
//
// Every event, Released included, slides the existing current into previous.
// The one guard: if current is already Released, the next previous reuses the
// record's existing previous instead, so Released is never promoted into the
// previous slot by a subsequent update.
func Reduce(record *SwapStateRecord, swapID string, incoming protocol.SwapStateEvent) (SwapStateRecord, error) {
	if incoming == nil {
		return SwapStateRecord{}, errors.New("readmodel: nil event")
	}
	if record == nil {
		return SwapStateRecord{SwapID: swapID, Current: incoming}, nil
	}

	if record.Previous != nil && record.Previous.Tag() == protocol.TagReleased {
		// Released already sits in the previous slot: the record is corrupt
		// and must not be folded over.
		return SwapStateRecord{}, ErrPreviousReleased
	}

	previous := record.Current
	if record.Current != nil && record.Current.Tag() == protocol.TagReleased {
		previous = record.Previous
	}

	return SwapStateRecord{
		SwapID:   record.SwapID,
		Current:  incoming,
		Previous: previous,
	}, nil
}

// ProcessExited reports whether the swap process has exited, which is exactly
// when the current state is the Released marker.
func (r SwapStateRecord) ProcessExited() bool {
	return r.Current != nil && r.Current.Tag() == protocol.TagReleased
}

type recordWire struct {
	SwapID   string          `json:"swap_id"`
	Current  json.RawMessage `json:"current"`
	Previous json.RawMessage `json:"previous"`
}

// MarshalJSON serializes both slots in the daemon's tagged-event form so
// records survive the socket RPC hop intact.
func (r SwapStateRecord) MarshalJSON() ([]byte, error) {
	wire := recordWire{SwapID: r.SwapID}
	if r.Current != nil {
		data, err := protocol.EncodeSwapEvent(r.Current)
		if err != nil {
			return nil, fmt.Errorf("readmodel: encode current: %w", err)
		}
		wire.Current = data
	}
	if r.Previous != nil {
		data, err := protocol.EncodeSwapEvent(r.Previous)
		if err != nil {
			return nil, fmt.Errorf("readmodel: encode previous: %w", err)
		}
		wire.Previous = data
	}
	return json.Marshal(wire)
}

func (r *SwapStateRecord) UnmarshalJSON(data []byte) error {
	var wire recordWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return fmt.Errorf("readmodel: decode record: %w", err)
	}
	r.SwapID = wire.SwapID
	r.Current, r.Previous = nil, nil
	if len(wire.Current) > 0 && string(wire.Current) != "null" {
		event, err := protocol.DecodeSwapEvent(wire.Current)
		if err != nil {
			return err
		}
		r.Current = event
	}
	if len(wire.Previous) > 0 && string(wire.Previous) != "null" {
		event, err := protocol.DecodeSwapEvent(wire.Previous)
		if err != nil {
			return err
		}
		r.Previous = event
	}
	return nil
}
