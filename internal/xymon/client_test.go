// internal/xymon/client_test.go
package xymon

import (
	"errors"
	"io"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---- environment resolution ----

func TestResolveEnvironment_PrimaryWins(t *testing.T) {
	t.Setenv("MACHINE", "node1")
	t.Setenv("XYMONSERVERS", "a b c")
	t.Setenv("XYMSRV", "x")
	t.Setenv("XYMONDPORT", "")

	env, err := ResolveEnvironment()
	require.NoError(t, err)
	assert.Equal(t, "node1", env.Machine)
	assert.Equal(t, []string{"a", "b", "c"}, env.Servers)
	assert.Equal(t, DefaultPort, env.Port)
}

func TestResolveEnvironment_LegacyFallback(t *testing.T) {
	t.Setenv("MACHINE", "node1")
	t.Setenv("XYMONSERVERS", "")
	t.Setenv("XYMSRV", "x")

	env, err := ResolveEnvironment()
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, env.Servers)
}

func TestResolveEnvironment_NoCollector(t *testing.T) {
	t.Setenv("MACHINE", "node1")
	t.Setenv("XYMONSERVERS", "")
	t.Setenv("XYMSRV", "")

	_, err := ResolveEnvironment()
	require.ErrorIs(t, err, ErrNoCollector)
}

func TestResolveEnvironment_MissingMachine(t *testing.T) {
	t.Setenv("MACHINE", "")
	t.Setenv("XYMONSERVERS", "a")

	_, err := ResolveEnvironment()
	require.ErrorIs(t, err, ErrMissingMachine)
}

func TestResolveEnvironment_Port(t *testing.T) {
	t.Setenv("MACHINE", "node1")
	t.Setenv("XYMONSERVERS", "a")

	t.Setenv("XYMONDPORT", "1985")
	env, err := ResolveEnvironment()
	require.NoError(t, err)
	assert.Equal(t, 1985, env.Port)

	for _, bad := range []string{"abc", "-1", "0", "70000"} {
		t.Setenv("XYMONDPORT", bad)
		_, err := ResolveEnvironment()
		require.ErrorIs(t, err, ErrInvalidPort, "port %q", bad)
	}
}

// ---- fake connection ----

type fakeConn struct {
	mu   sync.Mutex
	data []byte
	fail bool
}

func (f *fakeConn) Write(b []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return 0, errors.New("broken pipe")
	}
	f.data = append(f.data, b...)
	return len(b), nil
}

func (f *fakeConn) Read([]byte) (int, error)         { return 0, io.EOF }
func (f *fakeConn) Close() error                     { return nil }
func (f *fakeConn) LocalAddr() net.Addr              { return nil }
func (f *fakeConn) RemoteAddr() net.Addr             { return nil }
func (f *fakeConn) SetDeadline(time.Time) error      { return nil }
func (f *fakeConn) SetReadDeadline(time.Time) error  { return nil }
func (f *fakeConn) SetWriteDeadline(time.Time) error { return nil }

type fakeDialer struct {
	dialed  []string
	refuse  map[string]bool
	written map[string]*fakeConn
}

func newFakeDialer() *fakeDialer {
	return &fakeDialer{refuse: map[string]bool{}, written: map[string]*fakeConn{}}
}

func (d *fakeDialer) dial(addr string, _ time.Duration) (net.Conn, error) {
	d.dialed = append(d.dialed, addr)
	if d.refuse[addr] {
		return nil, errors.New("connection refused")
	}
	conn := &fakeConn{}
	d.written[addr] = conn
	return conn, nil
}

func newTestClient(t *testing.T, check string) (*Client, *fakeDialer) {
	t.Helper()
	c, err := NewClient(check)
	require.NoError(t, err)
	c.Message().now = func() time.Time {
		return time.Date(2025, time.October, 4, 12, 0, 0, 0, time.UTC)
	}
	d := newFakeDialer()
	c.dial = d.dial
	return c, d
}

// ---- send ----

func TestNewClient_EmptyCheckName(t *testing.T) {
	_, err := NewClient("  ")
	require.Error(t, err)
}

func TestSend_FanOutOrder(t *testing.T) {
	t.Setenv("MACHINE", "node1")
	t.Setenv("XYMONSERVERS", "host1 host2")
	t.Setenv("XYMONDPORT", "")

	c, d := newTestClient(t, "pacemaker")
	c.AddSection("Node Status", "online &green")
	require.NoError(t, c.Send())

	require.Equal(t, []string{"host1:1984", "host2:1984"}, d.dialed)

	payload := string(d.written["host1:1984"].data)
	assert.True(t, strings.HasPrefix(payload, "status node1.pacemaker green "), "got %q", payload)
	assert.Contains(t, payload, "<h2>Node Status</h2><p>online &green</p><br>")
	assert.Equal(t, payload, string(d.written["host2:1984"].data))
}

func TestSend_AbortOnFirstFailure(t *testing.T) {
	t.Setenv("MACHINE", "node1")
	t.Setenv("XYMONSERVERS", "host1 host2 host3")
	t.Setenv("XYMONDPORT", "")

	c, d := newTestClient(t, "pacemaker")
	d.refuse["host2:1984"] = true

	err := c.Send()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "host2:1984")
	assert.Contains(t, err.Error(), "1 destination(s) not attempted")
	// host3 is never dialed under the default policy
	assert.Equal(t, []string{"host1:1984", "host2:1984"}, d.dialed)
}

func TestSend_BestEffort(t *testing.T) {
	t.Setenv("MACHINE", "node1")
	t.Setenv("XYMONSERVERS", "host1 host2 host3")
	t.Setenv("XYMONDPORT", "")

	c, d := newTestClient(t, "pacemaker")
	c.BestEffort(true)
	d.refuse["host1:1984"] = true
	d.refuse["host3:1984"] = true

	err := c.Send()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "host1:1984")
	assert.Contains(t, err.Error(), "host3:1984")
	// every destination was attempted and the healthy one got the report
	assert.Equal(t, []string{"host1:1984", "host2:1984", "host3:1984"}, d.dialed)
	assert.NotEmpty(t, d.written["host2:1984"].data)
}

func TestSend_ConfigErrorsBeforeIO(t *testing.T) {
	t.Setenv("MACHINE", "")
	t.Setenv("XYMONSERVERS", "host1")

	c, d := newTestClient(t, "pacemaker")
	require.ErrorIs(t, c.Send(), ErrMissingMachine)
	assert.Empty(t, d.dialed, "no connection may be attempted on a configuration error")
}

func TestSend_RealListener(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	received := make(chan string, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			received <- ""
			return
		}
		defer conn.Close()
		data, _ := io.ReadAll(conn)
		received <- string(data)
	}()

	_, port, err := net.SplitHostPort(ln.Addr().String())
	require.NoError(t, err)

	t.Setenv("MACHINE", "node1")
	t.Setenv("XYMONSERVERS", "127.0.0.1")
	t.Setenv("XYMONDPORT", port)

	c, err := NewClient("pacemaker")
	require.NoError(t, err)
	c.SetTimeout(5 * time.Second)
	c.SetTitle("end to end")
	require.NoError(t, c.Send())

	select {
	case payload := <-received:
		assert.True(t, strings.HasPrefix(payload, "status node1.pacemaker green "), "got %q", payload)
		assert.Contains(t, payload, "<br><h1>end to end</h1><hr><br>")
		assert.True(t, strings.HasSuffix(payload, "\n"))
	case <-time.After(5 * time.Second):
		t.Fatal("collector never received the report")
	}
}
