// internal/xymon/client.go
package xymon

import (
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"time"
)

// defaultTimeout bounds dial plus write per destination. The
// historical client had no deadline at all; an unresponsive collector
// then hangs the whole check run.
const defaultTimeout = 10 * time.Second

// Client composes one status report and delivers it to every
// configured collector. One Client produces exactly one report for one
// check name; it is discarded after Send.
type Client struct {
	check      string
	msg        *Message
	timeout    time.Duration
	bestEffort bool

	dial func(addr string, timeout time.Duration) (net.Conn, error)
}

// NewClient creates a client for the named check with an empty report
// (severity OK, no body, no footer, no lifetime).
func NewClient(check string) (*Client, error) {
	if strings.TrimSpace(check) == "" {
		return nil, errors.New("xymon: check name required")
	}
	return &Client{
		check:   check,
		msg:     NewMessage(),
		timeout: defaultTimeout,
		dial: func(addr string, timeout time.Duration) (net.Conn, error) {
			return net.DialTimeout("tcp", addr, timeout)
		},
	}, nil
}

// Message exposes the owned report accumulator.
func (c *Client) Message() *Message { return c.msg }

// The builder surface is forwarded so a check reads like the message
// it builds.

func (c *Client) SetTitle(text string)             { c.msg.SetTitle(text) }
func (c *Client) AddSection(title, body string)    { c.msg.AddSection(title, body) }
func (c *Client) SetFooter(name, version string)   { c.msg.SetFooter(name, version) }
func (c *Client) RaiseSeverity(token string) error { return c.msg.RaiseSeverity(token) }
func (c *Client) SetLifetime(minutes string) error { return c.msg.SetLifetime(minutes) }

// SetTimeout overrides the per-destination dial and write deadline.
func (c *Client) SetTimeout(d time.Duration) {
	if d > 0 {
		c.timeout = d
	}
}

// BestEffort selects the fan-out policy on transport failure. The
// default (false) stops at the first failed destination and reports
// how many were left unattempted. With best effort enabled every
// destination is attempted and all failures are returned together.
func (c *Client) BestEffort(on bool) {
	c.bestEffort = on
}

// Send renders the report once and writes it to every collector from
// the environment snapshot, in order, one fresh connection per
// destination. Configuration errors surface before any network I/O.
func (c *Client) Send() error {
	env, err := ResolveEnvironment()
	if err != nil {
		return err
	}
	rendered, err := c.msg.Render(c.check, env.Machine)
	if err != nil {
		return err
	}
	payload := []byte(rendered)

	var errs []string
	for i, host := range env.Servers {
		err := c.deliver(net.JoinHostPort(host, strconv.Itoa(env.Port)), payload)
		if err == nil {
			continue
		}
		if !c.bestEffort {
			if rest := len(env.Servers) - i - 1; rest > 0 {
				return fmt.Errorf("xymon: %v (%d destination(s) not attempted)", err, rest)
			}
			return fmt.Errorf("xymon: %w", err)
		}
		errs = append(errs, err.Error())
	}
	if len(errs) > 0 {
		return errors.New("xymon: " + strings.Join(errs, " | "))
	}
	return nil
}

// deliver writes the whole payload over one connection. The socket is
// released on every path, including write failure.
func (c *Client) deliver(addr string, payload []byte) error {
	conn, err := c.dial(addr, c.timeout)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	defer conn.Close()

	_ = conn.SetWriteDeadline(time.Now().Add(c.timeout))
	if err := writeAll(conn, payload); err != nil {
		return fmt.Errorf("write %s: %w", addr, err)
	}
	return nil
}

func writeAll(w io.Writer, b []byte) error {
	for len(b) > 0 {
		n, err := w.Write(b)
		if err != nil {
			return err
		}
		b = b[n:]
	}
	return nil
}
