// Package connhealth interprets the daemon's reconnection telemetry for
// display: a discrete severity, a human status message, escalation hints, and
// the client-side retry countdown projection.
//
// Nothing here retries anything. The daemon owns the retry loop; this package
// only renders what the daemon reports about it.
package connhealth

import (
	"fmt"
	"strings"
	"time"

	"github.com/eigenwallet/swapwatch/internal/clock"
	"github.com/eigenwallet/swapwatch/internal/protocol"
)

// Severity grades a connection status for display.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Escalation thresholds on total failed attempts. Both are independent and
// cumulative: at 15 attempts the troubleshooting affordance stays up alongside
// the persistent-failure notice.
const (
	warnAttempts            = 10
	troubleshootingAttempts = 5
	persistentFailAttempts  = 15
)

// Status is the renderable interpretation of one ConnectionProgress record.
type Status struct {
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
	// ShowTroubleshooting surfaces the troubleshooting affordance
	// (totalAttempts >= 5).
	ShowTroubleshooting bool `json:"show_troubleshooting"`
	// PersistentFailure surfaces the persistent-failure notice in addition
	// to the status message (totalAttempts >= 15).
	PersistentFailure bool     `json:"persistent_failure"`
	Suggestions       []string `json:"suggestions,omitempty"`
}

// Classify derives the display status for a progress record, using
// retryInSeconds as the countdown value to embed in the message. Callers with
// a live projection pass Countdown.Remaining(); callers rendering a fresh
// record pass the record's own snapshot (see ClassifySnapshot).
//
// Classify is total: every well-formed record maps to some renderable status.
func Classify(p protocol.ConnectionProgress, retryInSeconds int64) Status {
	status := Status{
		Severity: severityFor(p),
		Message:  message(p, retryInSeconds),
	}
	if p.TotalAttempts >= troubleshootingAttempts {
		status.ShowTroubleshooting = true
		status.Suggestions = Suggestions(p.ErrorCategory)
	}
	if p.TotalAttempts >= persistentFailAttempts {
		status.PersistentFailure = true
	}
	return status
}

// ClassifySnapshot classifies a record as of its arrival, before any
// countdown ticks have elapsed.
func ClassifySnapshot(p protocol.ConnectionProgress) Status {
	var retryIn int64
	if p.NextRetryInSeconds != nil {
		retryIn = *p.NextRetryInSeconds
	}
	return Classify(p, retryIn)
}

func severityFor(p protocol.ConnectionProgress) Severity {
	switch p.State {
	case protocol.ConnConnected:
		return SeveritySuccess
	case protocol.ConnFailed:
		return SeverityError
	case protocol.ConnWaitingToRetry:
		if p.TotalAttempts >= warnAttempts {
			return SeverityWarning
		}
		return SeverityInfo
	default:
		return SeverityInfo
	}
}

func message(p protocol.ConnectionProgress, retryInSeconds int64) string {
	switch p.State {
	case protocol.ConnInitial:
		return fmt.Sprintf("Preparing to connect to %s", p.Target)
	case protocol.ConnConnecting:
		return fmt.Sprintf("Connecting to %s (attempt %d)", p.Target, p.CurrentAttempt)
	case protocol.ConnWaitingToRetry:
		retryInfo := "unlimited retries"
		if p.RetriesLeft != nil {
			retryInfo = fmt.Sprintf("%d retries left", *p.RetriesLeft)
		}
		msg := fmt.Sprintf("Trying to reconnect to %s (Last Error: %s, %d times failed, %s)",
			p.Target, CategoryLabel(p.ErrorCategory), p.TotalAttempts, retryInfo)
		if retryInSeconds > 0 {
			msg += fmt.Sprintf(" in %ds", retryInSeconds)
		}
		return msg
	case protocol.ConnConnected:
		return fmt.Sprintf("Connected to %s", p.Target)
	case protocol.ConnFailed:
		return fmt.Sprintf("Failed to connect to %s after %d attempts", p.Target, p.TotalAttempts)
	case protocol.ConnReconnecting:
		return fmt.Sprintf("Connection to %s lost, attempting to reconnect", p.Target)
	default:
		// Unknown states still render; the record is the daemon's, and a
		// newer daemon may know states we do not.
		return fmt.Sprintf("Connection to %s: %s", p.Target, p.State)
	}
}

// CategoryLabel is the user-facing name of an error category.
func CategoryLabel(category protocol.ErrorCategory) string {
	switch category {
	case protocol.ErrCatNetwork:
		return "Network Error"
	case protocol.ErrCatTimeout:
		return "Connection Timeout"
	case protocol.ErrCatAuth:
		return "Authentication Failed"
	case protocol.ErrCatProtocol:
		return "Protocol Error"
	case protocol.ErrCatPeerUnavailable:
		return "Peer Unavailable"
	case protocol.ErrCatResource:
		return "Resource Exhaustion"
	default:
		return "Unknown Error"
	}
}

// Suggestions returns actionable hints for an error category, shown with the
// troubleshooting affordance.
func Suggestions(category protocol.ErrorCategory) []string {
	switch category {
	case protocol.ErrCatNetwork:
		return []string{
			"Check your internet connection",
			"Verify DNS settings",
			"Try connecting from a different network",
		}
	case protocol.ErrCatTimeout:
		return []string{
			"Check if the maker is online",
			"Try again in a few minutes",
		}
	case protocol.ErrCatAuth:
		return []string{
			"Check your credentials",
			"Verify your account permissions",
		}
	case protocol.ErrCatProtocol:
		return []string{
			"Update the application",
			"Check for compatibility issues",
		}
	case protocol.ErrCatPeerUnavailable:
		return []string{
			"The peer may be offline",
			"Try a different maker",
			"Check the peer address",
		}
	case protocol.ErrCatResource:
		return []string{
			"Wait a moment and try again",
			"Close other network-intensive applications",
		}
	default:
		return []string{
			"Check the daemon logs for details",
			"Try restarting the daemon",
		}
	}
}

// CategorizeError buckets an error message by keyword, mirroring the daemon's
// own heuristics so locally observed errors classify the same way its
// telemetry does.
func CategorizeError(msg string) protocol.ErrorCategory {
	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "timeout") || strings.Contains(lower, "timed out"):
		return protocol.ErrCatTimeout
	case strings.Contains(lower, "dns") || strings.Contains(lower, "network") || strings.Contains(lower, "unreachable"):
		return protocol.ErrCatNetwork
	case strings.Contains(lower, "auth") || strings.Contains(lower, "unauthorized") || strings.Contains(lower, "forbidden"):
		return protocol.ErrCatAuth
	case strings.Contains(lower, "protocol") || strings.Contains(lower, "handshake"):
		return protocol.ErrCatProtocol
	case strings.Contains(lower, "refused") || strings.Contains(lower, "unavailable") || strings.Contains(lower, "offline"):
		return protocol.ErrCatPeerUnavailable
	case strings.Contains(lower, "resource") || strings.Contains(lower, "limit") || strings.Contains(lower, "exhausted"):
		return protocol.ErrCatResource
	default:
		return protocol.ErrCatUnknown
	}
}

// Countdown projects the retry countdown from an absolute deadline instead of
// decrementing a counter, so a missed or delayed tick cannot drift it. It is
// re-armed whenever a newer ConnectionProgress supersedes the current one; an
// old countdown never runs past the arrival of a newer record.
type Countdown struct {
	clk      clock.Clock
	deadline time.Time
	armed    bool
}

// NewCountdown creates a disarmed countdown.
func NewCountdown(clk clock.Clock) *Countdown {
	return &Countdown{clk: clk}
}

// Arm sets the deadline to now + seconds, replacing any previous deadline.
// Non-positive values disarm.
func (c *Countdown) Arm(seconds int64) {
	if seconds <= 0 {
		c.Disarm()
		return
	}
	c.deadline = c.clk.Now().Add(time.Duration(seconds) * time.Second)
	c.armed = true
}

// ArmFrom arms from a progress record, disarming unless the record is
// WaitingToRetry with a positive countdown.
func (c *Countdown) ArmFrom(p protocol.ConnectionProgress) {
	if p.State == protocol.ConnWaitingToRetry && p.NextRetryInSeconds != nil {
		c.Arm(*p.NextRetryInSeconds)
		return
	}
	c.Disarm()
}

// Disarm clears the deadline.
func (c *Countdown) Disarm() {
	c.armed = false
	c.deadline = time.Time{}
}

// Remaining returns the whole seconds left, floor-clamped at 0. A disarmed
// countdown reports 0. The value is derived from the deadline on every call.
func (c *Countdown) Remaining() int64 {
	if !c.armed {
		return 0
	}
	left := c.deadline.Sub(c.clk.Now())
	if left <= 0 {
		return 0
	}
	// Round up so the display starts at the armed value and hits 0 exactly
	// at the deadline, never later.
	return int64((left + time.Second - 1) / time.Second)
}

// Armed reports whether a deadline is set and not yet reached.
func (c *Countdown) Armed() bool {
	return c.armed && c.Remaining() > 0
}
