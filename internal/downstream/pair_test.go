package downstream

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestPair(t *testing.T, portE, portO int) *Pair {
	t.Helper()
	p, err := NewPair([]*Channel{
		NewChannel("E", "127.0.0.1", portE, time.Second),
		NewChannel("O", "127.0.0.1", portO, time.Second),
	}, 0, log.New(io.Discard, "", 0))
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })
	return p
}

// dialWhenBound waits for the named channel to listen, then connects.
func dialWhenBound(t *testing.T, p *Pair, name string) net.Conn {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if addr := p.Addr(name); addr != nil {
			c, err := net.Dial("tcp", addr.String())
			require.NoError(t, err)
			t.Cleanup(func() { _ = c.Close() })
			return c
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("channel %s never bound", name)
	return nil
}

// connectPair runs Connect and attaches one client per channel.
func connectPair(t *testing.T, p *Pair) (net.Conn, net.Conn) {
	t.Helper()
	errCh := make(chan error, 1)
	go func() { errCh <- p.Connect(context.Background()) }()

	e := dialWhenBound(t, p, "E")
	o := dialWhenBound(t, p, "O")
	require.NoError(t, <-errCh)
	return e, o
}

func readLine(t *testing.T, c net.Conn) string {
	t.Helper()
	require.NoError(t, c.SetReadDeadline(time.Now().Add(5*time.Second)))
	line, err := bufio.NewReader(c).ReadString('\n')
	require.NoError(t, err)
	return line
}

func TestPair_ConnectAndSend(t *testing.T) {
	p := newTestPair(t, 0, 0)
	e, o := connectPair(t, p)

	require.NoError(t, p.Send([][]byte{[]byte("e1\n"), []byte("o1\n")}))

	require.Equal(t, "e1\n", readLine(t, e))
	require.Equal(t, "o1\n", readLine(t, o))
}

func TestPair_SendFailureForcesBothChannelsToReconnect(t *testing.T) {
	p := newTestPair(t, 0, 0)
	_, oldO := connectPair(t, p)

	// Break channel E from the server side.
	p.channels[0].mu.Lock()
	require.NoError(t, p.channels[0].conn.Close())
	p.channels[0].mu.Unlock()

	err := p.Send([][]byte{[]byte("e\n"), []byte("o\n")})
	var serr *SendError
	require.ErrorAs(t, err, &serr)
	require.Equal(t, "E", serr.Channel)

	// Re-arm from scratch.
	require.NoError(t, p.Close())
	newE, newO := connectPair(t, p)

	// The previous O client must have been dropped.
	require.NoError(t, oldO.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, err = bufio.NewReader(oldO).ReadString('\n')
	require.ErrorIs(t, err, io.EOF)

	require.NoError(t, p.Send([][]byte{[]byte("e2\n"), []byte("o2\n")}))
	require.Equal(t, "e2\n", readLine(t, newE))
	require.Equal(t, "o2\n", readLine(t, newO))
}

func TestPair_BindFailureOnFirstChannelSkipsSecond(t *testing.T) {
	busy, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer busy.Close()

	p := newTestPair(t, busy.Addr().(*net.TCPAddr).Port, 0)

	err = p.Connect(context.Background())
	var berr *BindError
	require.ErrorAs(t, err, &berr)
	require.Equal(t, "E", berr.Channel)

	require.Nil(t, p.Addr("E"))
	require.Nil(t, p.Addr("O"))
}

func TestPair_BindFailureOnSecondChannelClosesFirst(t *testing.T) {
	busy, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer busy.Close()

	p := newTestPair(t, 0, busy.Addr().(*net.TCPAddr).Port)

	errCh := make(chan error, 1)
	go func() { errCh <- p.Connect(context.Background()) }()
	e := dialWhenBound(t, p, "E")

	var berr *BindError
	require.ErrorAs(t, <-errCh, &berr)
	require.Equal(t, "O", berr.Channel)

	require.False(t, p.channels[0].Connected())
	require.Nil(t, p.Addr("E"))

	require.NoError(t, e.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, err = e.Read(make([]byte, 1))
	require.ErrorIs(t, err, io.EOF)
}

func TestPair_ConnectCancelledWhileWaiting(t *testing.T) {
	p := newTestPair(t, 0, 0)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- p.Connect(ctx) }()

	require.Eventually(t, func() bool { return p.Addr("E") != nil }, 5*time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("connect did not return after cancel")
	}
}

type failingConn struct {
	net.Conn
	closed bool
}

func (f *failingConn) Close() error {
	f.closed = true
	return errors.New("close failed")
}

func TestPair_CloseAttemptsEveryResource(t *testing.T) {
	p := newTestPair(t, 0, 0)
	ctx := context.Background()

	require.NoError(t, p.channels[0].Bind(ctx))
	require.NoError(t, p.channels[1].Bind(ctx))

	fe, fo := &failingConn{}, &failingConn{}
	p.channels[0].conn = fe
	p.channels[1].conn = fo

	err := p.Close()
	require.Error(t, err)

	require.True(t, fe.closed)
	require.True(t, fo.closed)
	require.Nil(t, p.Addr("E"))
	require.Nil(t, p.Addr("O"))
}

func TestPair_SendWithoutClient(t *testing.T) {
	p := newTestPair(t, 0, 0)

	err := p.Send([][]byte{[]byte("x\n"), []byte("y\n")})
	var serr *SendError
	require.ErrorAs(t, err, &serr)
	require.Equal(t, "E", serr.Channel)

	require.Error(t, p.Send([][]byte{[]byte("x\n")}))
}

func busyPort(t *testing.T) int {
	t.Helper()
	busy, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = busy.Close() })
	return busy.Addr().(*net.TCPAddr).Port
}

func TestPair_BindFailureWaitsBackoff(t *testing.T) {
	p, err := NewPair([]*Channel{
		NewChannel("E", "127.0.0.1", busyPort(t), time.Second),
	}, 50*time.Millisecond, log.New(io.Discard, "", 0))
	require.NoError(t, err)

	start := time.Now()
	err = p.Connect(context.Background())

	var berr *BindError
	require.ErrorAs(t, err, &berr)
	require.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
}

func TestPair_BackoffCutShortByCancel(t *testing.T) {
	p, err := NewPair([]*Channel{
		NewChannel("E", "127.0.0.1", busyPort(t), time.Second),
	}, time.Minute, log.New(io.Discard, "", 0))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)

	start := time.Now()
	err = p.Connect(ctx)

	var berr *BindError
	require.ErrorAs(t, err, &berr)
	require.Less(t, time.Since(start), 5*time.Second)
}
