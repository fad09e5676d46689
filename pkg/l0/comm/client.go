package comm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/ramloader/pkg/l0/msgs"
)

// DefaultTimeout is the default time to wait for a response frame.
const DefaultTimeout = 5 * time.Second

// Client provides host side operations over a byte stream.
// It is not safe for concurrent use: the protocol allows one request
// in flight.
type Client struct {
	ReadWriter  io.ReadWriter
	Timeout     time.Duration
	ReadTimeout bool // set to true if ReadWriter already supports timeout with Read

	parser  Parser
	pending []byte
	// desync is set when a request is abandoned without its response.
	desync bool

	pumpOnce sync.Once
	chunkCh  chan []byte
	errCh    chan error
}

// NewClient creates a client over rw.
func NewClient(rw io.ReadWriter) *Client {
	return &Client{ReadWriter: rw, Timeout: DefaultTimeout}
}

// Send sends a request without waiting for a response.
func (c *Client) Send(req msgs.Request) error {
	frame, err := EncodeRequest(req)
	if err != nil {
		return err
	}
	if glog.V(2) {
		glog.Infof("SND %v [% x]", req, frame)
	}
	if _, err = c.ReadWriter.Write(frame); err != nil {
		return &IOError{Op: "write", Err: err}
	}
	return nil
}

// RequestResponse sends a request and waits for the response.
// After a timeout or cancellation, it fails with ErrDesynchronized until
// Resync succeeds, so a late response is never taken for the next one.
func (c *Client) RequestResponse(ctx context.Context, req msgs.Request) (msgs.Response, error) {
	if c.desync {
		return 0, ErrDesynchronized
	}
	if err := c.Send(req); err != nil {
		return 0, err
	}
	frame, err := c.readFrame(ctx)
	if err != nil {
		if errors.Is(err, ErrTimeout) || ctx.Err() != nil {
			c.desync = true
		}
		return 0, err
	}
	r, err := DecodeResponse(frame)
	if err != nil {
		return 0, err
	}
	glog.V(2).Infof("RCV %v", r)
	return r, nil
}

// Ping checks the target answers Pong.
func (c *Client) Ping(ctx context.Context) error {
	r, err := c.RequestResponse(ctx, &msgs.Ping{})
	if err != nil {
		return err
	}
	if r != msgs.Pong {
		return fmt.Errorf("unexpected response to ping: %v", r)
	}
	return nil
}

// Resync discards input until the stream stays quiet for one Timeout.
func (c *Client) Resync(ctx context.Context) error {
	c.pending = nil
	c.parser.Reset()
	for {
		deadline := time.Now().Add(c.timeout())
		var (
			chunk []byte
			err   error
		)
		if c.ReadTimeout {
			chunk, err = c.readUntil(ctx, deadline)
		} else {
			chunk, err = c.recvUntil(ctx, deadline)
		}
		switch {
		case errors.Is(err, ErrTimeout):
			c.desync = false
			return nil
		case err != nil:
			return err
		}
		glog.V(2).Infof("DROP [% x]", chunk)
	}
}

func (c *Client) timeout() time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}
	return DefaultTimeout
}

func (c *Client) readFrame(ctx context.Context) ([]byte, error) {
	deadline := time.Now().Add(c.timeout())
	for {
		for len(c.pending) > 0 {
			b := c.pending[0]
			c.pending = c.pending[1:]
			pr := c.parser.Parse(b)
			if pr.Err != nil {
				return nil, fmt.Errorf("%w: %v", ErrMalformedFrame, pr.Err)
			}
			if pr.Frame != nil {
				return append([]byte(nil), pr.Frame...), nil
			}
		}
		var err error
		if c.ReadTimeout {
			c.pending, err = c.readUntil(ctx, deadline)
		} else {
			c.pending, err = c.recvUntil(ctx, deadline)
		}
		if err != nil {
			c.parser.Reset()
			return nil, err
		}
	}
}

// readUntil reads directly from a ReadWriter which returns periodically
// when no data is available.
func (c *Client) readUntil(ctx context.Context, deadline time.Time) ([]byte, error) {
	buf := make([]byte, MaxFrameSize)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if time.Now().After(deadline) {
			return nil, ErrTimeout
		}
		n, err := c.ReadWriter.Read(buf)
		if n > 0 {
			return buf[:n], nil
		}
		if err != nil && !os.IsTimeout(err) {
			return nil, &IOError{Op: "read", Err: err}
		}
	}
}

// recvUntil waits for data from the background read loop.
func (c *Client) recvUntil(ctx context.Context, deadline time.Time) ([]byte, error) {
	c.pumpOnce.Do(func() {
		c.chunkCh, c.errCh = make(chan []byte), make(chan error, 1)
		go c.readLoop()
	})
	timer := time.NewTimer(time.Until(deadline))
	defer timer.Stop()
	select {
	case chunk := <-c.chunkCh:
		return chunk, nil
	case err := <-c.errCh:
		c.errCh <- err
		return nil, &IOError{Op: "read", Err: err}
	case <-timer.C:
		return nil, ErrTimeout
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *Client) readLoop() {
	buf := make([]byte, MaxFrameSize)
	for {
		n, err := c.ReadWriter.Read(buf)
		if n > 0 {
			c.chunkCh <- append([]byte(nil), buf[:n]...)
		}
		if err != nil {
			c.errCh <- err
			return
		}
	}
}
