package comm

import (
	"bytes"
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/ramloader/pkg/l0/msgs"
)

// pollingStream mimics a serial port with a read timeout: Read returns
// no data instead of blocking when nothing is queued.
type pollingStream struct {
	lock    sync.Mutex
	in      bytes.Buffer
	out     bytes.Buffer
	onWrite func(s *pollingStream, p []byte)
	readErr error
}

func (s *pollingStream) Read(p []byte) (int, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.readErr != nil {
		return 0, s.readErr
	}
	if s.in.Len() == 0 {
		time.Sleep(time.Millisecond)
		return 0, nil
	}
	return s.in.Read(p)
}

func (s *pollingStream) Write(p []byte) (int, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.out.Write(p)
	if s.onWrite != nil {
		s.onWrite(s, p)
	}
	return len(p), nil
}

func (s *pollingStream) inject(p ...byte) {
	s.in.Write(p)
}

func newPollingClient(s *pollingStream) *Client {
	c := NewClient(s)
	c.ReadTimeout = true
	c.Timeout = 100 * time.Millisecond
	return c
}

func mustEncodeResponse(t *testing.T, r msgs.Response) []byte {
	frame, err := EncodeResponse(r)
	require.NoError(t, err)
	return frame
}

func TestClientRequestResponse(t *testing.T) {
	okFrame := mustEncodeResponse(t, msgs.WriteOk)
	s := &pollingStream{onWrite: func(s *pollingStream, p []byte) {
		// answer in two pieces to exercise reassembly.
		s.inject(okFrame[:1]...)
		s.inject(okFrame[1:]...)
	}}
	c := newPollingClient(s)
	req := &msgs.Write{StartAddress: 0x20020000, Data: []byte{1, 2, 3}}
	r, err := c.RequestResponse(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, msgs.WriteOk, r)

	expect, err := EncodeRequest(req)
	require.NoError(t, err)
	require.Equal(t, expect, s.out.Bytes())
}

func TestClientKeepsBytesOfNextFrame(t *testing.T) {
	s := &pollingStream{}
	s.inject(mustEncodeResponse(t, msgs.WriteOk)...)
	s.inject(mustEncodeResponse(t, msgs.InvalidAddress)...)
	c := newPollingClient(s)

	r, err := c.RequestResponse(context.Background(), &msgs.Ping{})
	require.NoError(t, err)
	require.Equal(t, msgs.WriteOk, r)
	r, err = c.RequestResponse(context.Background(), &msgs.Ping{})
	require.NoError(t, err)
	require.Equal(t, msgs.InvalidAddress, r)
}

func TestClientTimeout(t *testing.T) {
	s := &pollingStream{}
	c := newPollingClient(s)
	start := time.Now()
	_, err := c.RequestResponse(context.Background(), &msgs.Ping{})
	require.ErrorIs(t, err, ErrTimeout)
	require.GreaterOrEqual(t, time.Since(start), c.Timeout)
}

func TestClientPartialFrameTimeout(t *testing.T) {
	s := &pollingStream{}
	s.inject(0x02, 0x02)
	c := newPollingClient(s)
	_, err := c.RequestResponse(context.Background(), &msgs.Ping{})
	require.ErrorIs(t, err, ErrTimeout)
}

func TestClientMalformedResponse(t *testing.T) {
	s := &pollingStream{}
	s.inject(0x05, 0x01, Delimiter)
	c := newPollingClient(s)
	_, err := c.RequestResponse(context.Background(), &msgs.Ping{})
	require.ErrorIs(t, err, ErrMalformedFrame)
}

func TestClientOverflowIsMalformed(t *testing.T) {
	s := &pollingStream{}
	s.inject(bytes.Repeat([]byte{0x11}, MaxFrameSize+1)...)
	c := newPollingClient(s)
	_, err := c.RequestResponse(context.Background(), &msgs.Ping{})
	require.ErrorIs(t, err, ErrMalformedFrame)
}

func TestClientReadError(t *testing.T) {
	readErr := errors.New("unplugged")
	s := &pollingStream{readErr: readErr}
	c := newPollingClient(s)
	_, err := c.RequestResponse(context.Background(), &msgs.Ping{})
	var ioErr *IOError
	require.ErrorAs(t, err, &ioErr)
	require.Equal(t, "read", ioErr.Op)
	require.ErrorIs(t, err, readErr)
}

type failingWriter struct {
	bytes.Buffer
}

func (w *failingWriter) Write(p []byte) (int, error) {
	return 0, errors.New("device gone")
}

func TestClientSendError(t *testing.T) {
	c := NewClient(&failingWriter{})
	err := c.Send(&msgs.Execute{})
	var ioErr *IOError
	require.ErrorAs(t, err, &ioErr)
	require.Equal(t, "write", ioErr.Op)
}

func TestClientSendTooLarge(t *testing.T) {
	c := NewClient(&failingWriter{})
	err := c.Send(&msgs.Write{Data: make([]byte, msgs.MaxPayloadSize+1)})
	require.ErrorIs(t, err, msgs.ErrPayloadTooLarge)
}

func TestClientOverPipe(t *testing.T) {
	host, target := net.Pipe()
	defer host.Close()
	defer target.Close()

	go func() {
		var parser Parser
		buf := make([]byte, 1)
		for {
			if _, err := target.Read(buf); err != nil {
				return
			}
			pr := parser.Parse(buf[0])
			if pr.Frame == nil {
				continue
			}
			req, err := DecodeRequest(pr.Frame)
			if err != nil {
				return
			}
			if _, ok := req.(*msgs.Ping); ok {
				frame, _ := EncodeResponse(msgs.Pong)
				target.Write(frame)
			}
		}
	}()

	c := NewClient(host)
	c.Timeout = time.Second
	require.NoError(t, c.Ping(context.Background()))
	require.NoError(t, c.Ping(context.Background()))

	// Execute is never answered.
	require.NoError(t, c.Send(&msgs.Execute{}))
	c.Timeout = 50 * time.Millisecond
	_, err := c.RequestResponse(context.Background(), &msgs.Write{StartAddress: 1})
	require.ErrorIs(t, err, ErrTimeout)
}

func TestClientContextCanceled(t *testing.T) {
	host, target := net.Pipe()
	defer host.Close()
	defer target.Close()
	go func() {
		buf := make([]byte, MaxFrameSize)
		for {
			if _, err := target.Read(buf); err != nil {
				return
			}
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c := NewClient(host)
	_, err := c.RequestResponse(ctx, &msgs.Ping{})
	require.ErrorIs(t, err, context.Canceled)
}

// lateTarget answers the first request after delay with InvalidAddress
// and every later request at once with WriteOk.
func lateTarget(conn net.Conn, delay time.Duration) {
	var parser Parser
	buf := make([]byte, 1)
	late := true
	for {
		if _, err := conn.Read(buf); err != nil {
			return
		}
		if pr := parser.Parse(buf[0]); pr.Frame == nil {
			continue
		}
		r := msgs.WriteOk
		if late {
			late = false
			time.Sleep(delay)
			r = msgs.InvalidAddress
		}
		frame, _ := EncodeResponse(r)
		if _, err := conn.Write(frame); err != nil {
			return
		}
	}
}

func TestClientLateResponseDesynchronizes(t *testing.T) {
	host, target := net.Pipe()
	defer host.Close()
	defer target.Close()
	go lateTarget(target, 100*time.Millisecond)

	c := NewClient(host)
	c.Timeout = 50 * time.Millisecond
	ctx := context.Background()
	req := &msgs.Write{StartAddress: 0x20020000, Data: []byte{1}}

	_, err := c.RequestResponse(ctx, req)
	require.ErrorIs(t, err, ErrTimeout)
	_, err = c.RequestResponse(ctx, req)
	require.ErrorIs(t, err, ErrDesynchronized)

	require.NoError(t, c.Resync(ctx))
	r, err := c.RequestResponse(ctx, req)
	require.NoError(t, err)
	require.Equal(t, msgs.WriteOk, r)
}

func TestClientResyncPolling(t *testing.T) {
	s := &pollingStream{}
	c := newPollingClient(s)
	ctx := context.Background()
	_, err := c.RequestResponse(ctx, &msgs.Ping{})
	require.ErrorIs(t, err, ErrTimeout)

	s.lock.Lock()
	s.inject(mustEncodeResponse(t, msgs.Pong)...)
	s.onWrite = func(s *pollingStream, p []byte) {
		s.inject(mustEncodeResponse(t, msgs.WriteOk)...)
	}
	s.lock.Unlock()

	require.NoError(t, c.Resync(ctx))
	r, err := c.RequestResponse(ctx, &msgs.Write{StartAddress: 0x20020000})
	require.NoError(t, err)
	require.Equal(t, msgs.WriteOk, r)
}
