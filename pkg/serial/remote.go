package serial

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/websocket"
)

// Stream is an opened connection to the target.
type Stream interface {
	io.ReadWriteCloser
	// ReadTimeout tells if Read returns periodically without data.
	ReadTimeout() bool
}

// IsRemote tells if port names a websocket endpoint.
func IsRemote(port string) bool {
	return strings.HasPrefix(port, "ws://") || strings.HasPrefix(port, "wss://")
}

// Connect opens the serial port, or dials the websocket endpoint when
// Port is a ws:// or wss:// URL. It returns the stream and its name.
func Connect(c *Config) (Stream, string, error) {
	if IsRemote(c.Port) {
		s, err := DialRemote(c.Port)
		return s, c.Port, err
	}
	p, err := Open(c)
	if err != nil {
		return nil, "", err
	}
	return p, p.Name, nil
}

// Remote is a target reached over a websocket, each binary message
// carries raw serial bytes.
type Remote struct {
	*websocket.Conn
}

// DialRemote connects to a websocket endpoint.
func DialRemote(url string) (*Remote, error) {
	origin := "http://localhost/"
	if strings.HasPrefix(url, "wss://") {
		origin = "https://localhost/"
	}
	conn, err := websocket.Dial(url, "", origin)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	conn.PayloadType = websocket.BinaryFrame
	return &Remote{Conn: conn}, nil
}

// ReadTimeout implements Stream. Read blocks until data arrives.
func (r *Remote) ReadTimeout() bool {
	return false
}
