package protocol

// ConnectionState is the daemon's view of its own connection to the maker.
type ConnectionState string

const (
	ConnInitial        ConnectionState = "Initial"
	ConnConnecting     ConnectionState = "Connecting"
	ConnWaitingToRetry ConnectionState = "WaitingToRetry"
	ConnConnected      ConnectionState = "Connected"
	ConnFailed         ConnectionState = "Failed"
	ConnReconnecting   ConnectionState = "Reconnecting"
)

// ErrorCategory groups connection errors for user messaging.
type ErrorCategory string

const (
	ErrCatNetwork         ErrorCategory = "Network"
	ErrCatTimeout         ErrorCategory = "Timeout"
	ErrCatAuth            ErrorCategory = "Auth"
	ErrCatProtocol        ErrorCategory = "Protocol"
	ErrCatPeerUnavailable ErrorCategory = "PeerUnavailable"
	ErrCatResource        ErrorCategory = "Resource"
	ErrCatUnknown         ErrorCategory = "Unknown"
)

// ConnectionProgress is retry telemetry about the daemon's own reconnection
// loop. It is pure display input here; the daemon does the retrying.
//
// NextRetryInSeconds is only meaningful in the WaitingToRetry state. It is a
// snapshot at emission time: the visible countdown is a client-side projection
// re-armed on every new record, not a server-side field that ticks down.
type ConnectionProgress struct {
	State              ConnectionState `json:"state"`
	CurrentAttempt     uint32          `json:"current_attempt"`
	TotalAttempts      uint32          `json:"total_attempts"`
	RetriesLeft        *uint32         `json:"retries_left"`
	LastError          string          `json:"last_error"`
	ErrorCategory      ErrorCategory   `json:"error_category"`
	NextRetryInSeconds *int64          `json:"next_retry_in_seconds"`
	ElapsedSeconds     int64           `json:"elapsed_seconds"`
	Target             string          `json:"target"`
}
