package protocol

import (
	"encoding/json"
	"fmt"
)

// TimelockKind names the swap's position relative to the two timelock offsets.
type TimelockKind string

const (
	// TimelockNone: the cancel timelock has not expired yet.
	TimelockNone TimelockKind = "None"
	// TimelockCancel: the cancel timelock expired, the punish one has not.
	TimelockCancel TimelockKind = "Cancel"
	// TimelockPunish: both timelocks expired.
	TimelockPunish TimelockKind = "Punish"
)

// TimelockStatus is the daemon's report of the current timelock position.
// BlocksLeft counts down to the *next* boundary and is absent for Punish,
// which carries no countdown.
type TimelockStatus struct {
	Kind       TimelockKind
	BlocksLeft uint64
}

type taggedTimelock struct {
	Type    TimelockKind `json:"type"`
	Content *struct {
		BlocksLeft uint64 `json:"blocks_left"`
	} `json:"content,omitempty"`
}

// MarshalJSON renders the daemon's tagged-union form.
func (t TimelockStatus) MarshalJSON() ([]byte, error) {
	tagged := taggedTimelock{Type: t.Kind}
	if t.Kind != TimelockPunish {
		tagged.Content = &struct {
			BlocksLeft uint64 `json:"blocks_left"`
		}{BlocksLeft: t.BlocksLeft}
	}
	return json.Marshal(tagged)
}

func (t *TimelockStatus) UnmarshalJSON(data []byte) error {
	var tagged taggedTimelock
	if err := json.Unmarshal(data, &tagged); err != nil {
		return fmt.Errorf("protocol: decode timelock status: %w", err)
	}
	switch tagged.Type {
	case TimelockNone, TimelockCancel, TimelockPunish:
	default:
		return fmt.Errorf("protocol: unknown timelock kind %q", tagged.Type)
	}
	t.Kind = tagged.Type
	t.BlocksLeft = 0
	if tagged.Content != nil {
		t.BlocksLeft = tagged.Content.BlocksLeft
	}
	return nil
}
