// Package protocol defines the wire shapes shared with the swap daemon: the
// swap progress event union, connection telemetry, timelock status, approval
// requests, and the channel envelope carrying all of them.
//
// The daemon serializes each progress event as a tagged union:
//
//	{"type": "BtcLockTxInMempool", "content": {"btc_lock_txid": "...", ...}}
//
// The tag set is closed. Decoding an unknown tag is an error the caller is
// expected to log and drop, never to fail the stream on.
package protocol

import (
	"encoding/json"
	"fmt"
)

// EventTag identifies one case of the swap progress event union.
type EventTag string

const (
	TagInitiated                   EventTag = "Initiated"
	TagReceivedQuote               EventTag = "ReceivedQuote"
	TagWaitingForBtcDeposit        EventTag = "WaitingForBtcDeposit"
	TagStarted                     EventTag = "Started"
	TagBtcLockTxInMempool          EventTag = "BtcLockTxInMempool"
	TagXmrLockTxInMempool          EventTag = "XmrLockTxInMempool"
	TagXmrLocked                   EventTag = "XmrLocked"
	TagEncryptedSignatureSent      EventTag = "EncryptedSignatureSent"
	TagBtcRedeemed                 EventTag = "BtcRedeemed"
	TagXmrRedeemInMempool          EventTag = "XmrRedeemInMempool"
	TagCancelTimelockExpired       EventTag = "CancelTimelockExpired"
	TagBtcCancelled                EventTag = "BtcCancelled"
	TagBtcRefunded                 EventTag = "BtcRefunded"
	TagBtcPunished                 EventTag = "BtcPunished"
	TagAttemptingCooperativeRedeem EventTag = "AttemptingCooperativeRedeem"
	TagCooperativeRedeemAccepted   EventTag = "CooperativeRedeemAccepted"
	TagCooperativeRedeemRejected   EventTag = "CooperativeRedeemRejected"
	TagReleased                    EventTag = "Released"
)

// AllEventTags lists every defined tag. Exhaustiveness tests iterate this
// slice; a new tag added here without a classification fails the suite.
var AllEventTags = []EventTag{
	TagInitiated,
	TagReceivedQuote,
	TagWaitingForBtcDeposit,
	TagStarted,
	TagBtcLockTxInMempool,
	TagXmrLockTxInMempool,
	TagXmrLocked,
	TagEncryptedSignatureSent,
	TagBtcRedeemed,
	TagXmrRedeemInMempool,
	TagCancelTimelockExpired,
	TagBtcCancelled,
	TagBtcRefunded,
	TagBtcPunished,
	TagAttemptingCooperativeRedeem,
	TagCooperativeRedeemAccepted,
	TagCooperativeRedeemRejected,
	TagReleased,
}

// SwapStateEvent is one instantaneous protocol state emitted by the daemon.
// Events are immutable once received and ordered by arrival.
type SwapStateEvent interface {
	Tag() EventTag
}

// BidQuote is the maker's quote: price and tradeable quantity bounds, all in
// satoshi. Block counts and amounts stay integral end to end.
type BidQuote struct {
	Price       uint64 `json:"price"`
	MinQuantity uint64 `json:"min_quantity"`
	MaxQuantity uint64 `json:"max_quantity"`
}

type Initiated struct{}

type ReceivedQuote struct {
	Quote BidQuote `json:"quote"`
}

type WaitingForBtcDeposit struct {
	DepositAddress    string   `json:"deposit_address"`
	MaxGiveable       uint64   `json:"max_giveable"`
	MinDeposit        uint64   `json:"min_deposit_until_swap_will_start"`
	MaxDeposit        uint64   `json:"max_deposit_until_maximum_amount_is_reached"`
	MinBitcoinLockFee uint64   `json:"min_bitcoin_lock_tx_fee"`
	Quote             BidQuote `json:"quote"`
}

type Started struct {
	BtcLockAmount uint64 `json:"btc_lock_amount"`
	BtcTxLockFee  uint64 `json:"btc_tx_lock_fee"`
}

type BtcLockTxInMempool struct {
	BtcLockTxid          string `json:"btc_lock_txid"`
	BtcLockConfirmations uint64 `json:"btc_lock_confirmations"`
}

type XmrLockTxInMempool struct {
	XmrLockTxid          string `json:"xmr_lock_txid"`
	XmrLockConfirmations uint64 `json:"xmr_lock_tx_confirmations"`
}

type XmrLocked struct{}

type EncryptedSignatureSent struct{}

type BtcRedeemed struct{}

type XmrRedeemInMempool struct {
	XmrRedeemTxid    string `json:"xmr_redeem_txid"`
	XmrRedeemAddress string `json:"xmr_redeem_address"`
}

type CancelTimelockExpired struct{}

type BtcCancelled struct {
	BtcCancelTxid string `json:"btc_cancel_txid"`
}

type BtcRefunded struct {
	BtcRefundTxid string `json:"btc_refund_txid"`
	Finalized     bool   `json:"finalized"`
}

type BtcPunished struct{}

type AttemptingCooperativeRedeem struct{}

type CooperativeRedeemAccepted struct{}

type CooperativeRedeemRejected struct {
	Reason string `json:"reason"`
}

// Released is emitted when the swap process exits. It carries no protocol
// state of its own; only the preceding event tells a viewer what the swap was
// last doing.
type Released struct {
	RPCError string `json:"rpc_error,omitempty"`
}

func (Initiated) Tag() EventTag                   { return TagInitiated }
func (ReceivedQuote) Tag() EventTag               { return TagReceivedQuote }
func (WaitingForBtcDeposit) Tag() EventTag        { return TagWaitingForBtcDeposit }
func (Started) Tag() EventTag                     { return TagStarted }
func (BtcLockTxInMempool) Tag() EventTag          { return TagBtcLockTxInMempool }
func (XmrLockTxInMempool) Tag() EventTag          { return TagXmrLockTxInMempool }
func (XmrLocked) Tag() EventTag                   { return TagXmrLocked }
func (EncryptedSignatureSent) Tag() EventTag      { return TagEncryptedSignatureSent }
func (BtcRedeemed) Tag() EventTag                 { return TagBtcRedeemed }
func (XmrRedeemInMempool) Tag() EventTag          { return TagXmrRedeemInMempool }
func (CancelTimelockExpired) Tag() EventTag       { return TagCancelTimelockExpired }
func (BtcCancelled) Tag() EventTag                { return TagBtcCancelled }
func (BtcRefunded) Tag() EventTag                 { return TagBtcRefunded }
func (BtcPunished) Tag() EventTag                 { return TagBtcPunished }
func (AttemptingCooperativeRedeem) Tag() EventTag { return TagAttemptingCooperativeRedeem }
func (CooperativeRedeemAccepted) Tag() EventTag   { return TagCooperativeRedeemAccepted }
func (CooperativeRedeemRejected) Tag() EventTag   { return TagCooperativeRedeemRejected }
func (Released) Tag() EventTag                    { return TagReleased }

// taggedEvent is the on-wire framing of a SwapStateEvent.
type taggedEvent struct {
	Type    EventTag        `json:"type"`
	Content json.RawMessage `json:"content,omitempty"`
}

// DecodeSwapEvent parses one tagged swap progress event.
func DecodeSwapEvent(data []byte) (SwapStateEvent, error) {
	var tagged taggedEvent
	if err := json.Unmarshal(data, &tagged); err != nil {
		return nil, fmt.Errorf("protocol: decode event: %w", err)
	}

	event, err := newEvent(tagged.Type)
	if err != nil {
		return nil, err
	}
	if len(tagged.Content) > 0 {
		if err := json.Unmarshal(tagged.Content, event); err != nil {
			return nil, fmt.Errorf("protocol: decode %s content: %w", tagged.Type, err)
		}
	}
	return deref(event), nil
}

// EncodeSwapEvent serializes an event back into its tagged wire form.
func EncodeSwapEvent(event SwapStateEvent) ([]byte, error) {
	content, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("protocol: encode %s: %w", event.Tag(), err)
	}
	// Payload-less cases serialize as a bare tag.
	if string(content) == "{}" {
		content = nil
	}
	return json.Marshal(taggedEvent{Type: event.Tag(), Content: content})
}

func newEvent(tag EventTag) (SwapStateEvent, error) {
	switch tag {
	case TagInitiated:
		return &Initiated{}, nil
	case TagReceivedQuote:
		return &ReceivedQuote{}, nil
	case TagWaitingForBtcDeposit:
		return &WaitingForBtcDeposit{}, nil
	case TagStarted:
		return &Started{}, nil
	case TagBtcLockTxInMempool:
		return &BtcLockTxInMempool{}, nil
	case TagXmrLockTxInMempool:
		return &XmrLockTxInMempool{}, nil
	case TagXmrLocked:
		return &XmrLocked{}, nil
	case TagEncryptedSignatureSent:
		return &EncryptedSignatureSent{}, nil
	case TagBtcRedeemed:
		return &BtcRedeemed{}, nil
	case TagXmrRedeemInMempool:
		return &XmrRedeemInMempool{}, nil
	case TagCancelTimelockExpired:
		return &CancelTimelockExpired{}, nil
	case TagBtcCancelled:
		return &BtcCancelled{}, nil
	case TagBtcRefunded:
		return &BtcRefunded{}, nil
	case TagBtcPunished:
		return &BtcPunished{}, nil
	case TagAttemptingCooperativeRedeem:
		return &AttemptingCooperativeRedeem{}, nil
	case TagCooperativeRedeemAccepted:
		return &CooperativeRedeemAccepted{}, nil
	case TagCooperativeRedeemRejected:
		return &CooperativeRedeemRejected{}, nil
	case TagReleased:
		return &Released{}, nil
	default:
		return nil, fmt.Errorf("protocol: unknown event tag %q", tag)
	}
}

// deref unwraps the pointer used for unmarshalling so events are passed and
// compared by value.
func deref(event SwapStateEvent) SwapStateEvent {
	switch e := event.(type) {
	case *Initiated:
		return *e
	case *ReceivedQuote:
		return *e
	case *WaitingForBtcDeposit:
		return *e
	case *Started:
		return *e
	case *BtcLockTxInMempool:
		return *e
	case *XmrLockTxInMempool:
		return *e
	case *XmrLocked:
		return *e
	case *EncryptedSignatureSent:
		return *e
	case *BtcRedeemed:
		return *e
	case *XmrRedeemInMempool:
		return *e
	case *CancelTimelockExpired:
		return *e
	case *BtcCancelled:
		return *e
	case *BtcRefunded:
		return *e
	case *BtcPunished:
		return *e
	case *AttemptingCooperativeRedeem:
		return *e
	case *CooperativeRedeemAccepted:
		return *e
	case *CooperativeRedeemRejected:
		return *e
	case *Released:
		return *e
	default:
		return event
	}
}
