// internal/xymon/message.go
package xymon

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Message accumulates the content of one status report and tracks its
// criticity. It is owned by exactly one Client for the lifetime of one
// report and is not safe for concurrent use.
type Message struct {
	body     strings.Builder
	footer   string
	severity Severity
	lifetime int // minutes; 0 means collector default

	now func() time.Time
}

// NewMessage returns an empty report with severity OK and no lifetime.
func NewMessage() *Message {
	return &Message{now: time.Now}
}

// SetTitle appends a title block to the message body.
func (m *Message) SetTitle(text string) {
	fmt.Fprintf(&m.body, "<br><h1>%s</h1><hr><br>", text)
}

// AddSection appends a titled section. Sections render in append
// order.
func (m *Message) AddSection(title, body string) {
	fmt.Fprintf(&m.body, "<h2>%s</h2><p>%s</p><br>", title, body)
}

// SetFooter records the identity of the check script. A second call
// replaces the previous footer.
func (m *Message) SetFooter(name, version string) {
	m.footer = fmt.Sprintf("<br><center>xymon script: %s version %s</center>", name, version)
}

// Severity returns the current criticity level.
func (m *Message) Severity() Severity {
	return m.severity
}

// RaiseSeverity moves the criticity up to the level of token. Tokens
// at or below the current level are ignored: within one run a report
// can only get worse, never improve, so independent sections may each
// degrade the report without knowing about the others.
func (m *Message) RaiseSeverity(token string) error {
	sev, err := ParseSeverity(token)
	if err != nil {
		return err
	}
	if sev > m.severity {
		m.severity = sev
	}
	return nil
}

// SetLifetime sets the number of minutes after which the collector
// flags an unrefreshed report as stale.
func (m *Message) SetLifetime(minutes string) error {
	n, err := strconv.Atoi(strings.TrimSpace(minutes))
	if err != nil || n < 1 {
		return fmt.Errorf("%w: %q", ErrInvalidLifetime, minutes)
	}
	m.lifetime = n
	return nil
}

func (m *Message) lifetimeSuffix() string {
	if m.lifetime == 0 {
		return ""
	}
	return "+" + strconv.Itoa(m.lifetime)
}

// Render produces the wire form of the report for one check name on
// one reporting host:
//
//	status[+lifetime] <machine>.<check> <color> <date>
//	<html body>
//
// Render does not consume the accumulated state; called again without
// mutation it yields the same bytes apart from the timestamp.
func (m *Message) Render(check, machine string) (string, error) {
	if machine == "" {
		return "", ErrMissingMachine
	}
	// The ratchet makes an out-of-range severity unreachable through
	// the public API, but the token is re-checked so a corrupted value
	// can never reach the wire.
	if m.severity.Token() == "" {
		return "", fmt.Errorf("%w: rank %d", ErrInvalidSeverity, int(m.severity))
	}
	date := m.now().Format(time.ANSIC)
	return fmt.Sprintf("status%s %s.%s %s %s\n%s%s\n",
		m.lifetimeSuffix(), machine, check, m.severity.Color(), date,
		m.body.String(), m.footer), nil
}
