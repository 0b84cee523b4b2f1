// Package logparse extracts structure from the daemon's tracing log lines so
// the log tail can be filtered and colored by severity.
package logparse

import (
	"regexp"
	"strings"
	"time"
)

// Entry is one parsed daemon log line. The raw line is kept verbatim; parsing
// is best-effort and never drops a line.
type Entry struct {
	Timestamp time.Time `json:"timestamp"`
	Severity  string    `json:"severity"` // TRACE/DEBUG/INFO/WARN/ERROR
	Target    string    `json:"target"`   // tracing target, e.g. swap::cli::event_loop
	Message   string    `json:"message"`
	Raw       string    `json:"raw"`
}

// tracingLine matches the daemon's default tracing format:
//
//	2024-08-25T10:04:05.123456Z  INFO swap::cli::event_loop: message...
var tracingLine = regexp.MustCompile(
	`^(\S+Z)\s+(TRACE|DEBUG|INFO|WARN|ERROR)\s+([\w:]+):\s?(.*)$`)

var severityWord = regexp.MustCompile(`(?i)\b(TRACE|DEBUG|INFO|WARN|WARNING|ERROR|FATAL)\b`)

// Parse parses one daemon log line. Lines that do not match the tracing
// format fall back to severity extraction from the text and keep the whole
// line as the message.
func Parse(line string, receivedAt time.Time) Entry {
	entry := Entry{
		Timestamp: receivedAt,
		Severity:  "INFO",
		Message:   line,
		Raw:       line,
	}

	if m := tracingLine.FindStringSubmatch(line); m != nil {
		if ts, err := time.Parse(time.RFC3339Nano, m[1]); err == nil {
			entry.Timestamp = ts
		}
		entry.Severity = m[2]
		entry.Target = m[3]
		entry.Message = m[4]
		return entry
	}

	entry.Severity = ExtractSeverity(line)
	return entry
}

// ExtractSeverity finds a severity token anywhere in the text, defaulting to
// INFO.
func ExtractSeverity(text string) string {
	m := severityWord.FindStringSubmatch(text)
	if len(m) < 2 {
		return "INFO"
	}
	return NormalizeSeverity(m[1])
}

// NormalizeSeverity maps severity spellings onto the five canonical levels.
func NormalizeSeverity(severity string) string {
	switch strings.ToUpper(strings.TrimSpace(severity)) {
	case "TRACE", "TRC":
		return "TRACE"
	case "DEBUG", "DBG":
		return "DEBUG"
	case "WARN", "WARNING", "WRN":
		return "WARN"
	case "ERROR", "ERR", "FATAL", "CRITICAL":
		return "ERROR"
	default:
		return "INFO"
	}
}

// SeverityRank orders severities for filtering; higher is more severe.
func SeverityRank(severity string) int {
	switch severity {
	case "TRACE":
		return 0
	case "DEBUG":
		return 1
	case "INFO":
		return 2
	case "WARN":
		return 3
	case "ERROR":
		return 4
	default:
		return 2
	}
}
