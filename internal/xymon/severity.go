// internal/xymon/severity.go
package xymon

import (
	"fmt"
	"strings"
)

// Xymon color tokens, from least to most critical. The leading '&'
// marks the token as an inline status icon when embedded in section
// bodies; the status line uses the bare color.
const (
	StatusOK       = "&green"
	StatusWarning  = "&yellow"
	StatusCritical = "&red"
)

// Severity is the criticity level of a report. The zero value is OK.
// Levels compare by rank, never by token string.
type Severity int

const (
	SeverityOK Severity = iota
	SeverityWarning
	SeverityCritical
)

var severityTokens = [...]string{
	SeverityOK:       StatusOK,
	SeverityWarning:  StatusWarning,
	SeverityCritical: StatusCritical,
}

// ParseSeverity maps a color token to its Severity rank.
func ParseSeverity(token string) (Severity, error) {
	for rank, t := range severityTokens {
		if t == token {
			return Severity(rank), nil
		}
	}
	return SeverityOK, fmt.Errorf("%w: %q", ErrInvalidSeverity, token)
}

// Token returns the wire token, e.g. "&green". Out-of-range values
// yield the empty string.
func (s Severity) Token() string {
	if s < SeverityOK || s > SeverityCritical {
		return ""
	}
	return severityTokens[s]
}

// Color returns the token without the leading marker, as it appears in
// the status line, e.g. "green".
func (s Severity) Color() string {
	return strings.TrimPrefix(s.Token(), "&")
}
