// Package serial locates and opens the serial port of the target.
package serial

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/golang/glog"
	"github.com/pkg/term"
	"go.bug.st/serial/enumerator"
)

// ErrDeviceNotFound indicates no serial port matches the VID/PID.
var ErrDeviceNotFound = errors.New("device not found")

// pollInterval is the read timeout of an opened port.
const pollInterval = 100 * time.Millisecond

// lister enumerates serial ports. Replaced in tests.
var lister = enumerator.GetDetailedPortsList

// Find returns the port to use.
func Find(c *Config) (string, error) {
	if c.Port != "" {
		return c.Port, nil
	}
	if c.Wait <= 0 {
		return find(c.VendorID, c.ProductID)
	}
	var name string
	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = c.Wait
	err := backoff.Retry(func() (err error) {
		name, err = find(c.VendorID, c.ProductID)
		if err != nil && !errors.Is(err, ErrDeviceNotFound) {
			return backoff.Permanent(err)
		}
		if err != nil {
			glog.V(1).Info("waiting for device")
		}
		return err
	}, b)
	return name, err
}

func find(vid, pid uint16) (string, error) {
	ports, err := lister()
	if err != nil {
		return "", fmt.Errorf("enumerate serial ports: %w", err)
	}
	if name := match(ports, vid, pid); name != "" {
		return name, nil
	}
	return "", fmt.Errorf("%w: %04x:%04x", ErrDeviceNotFound, vid, pid)
}

func match(ports []*enumerator.PortDetails, vid, pid uint16) string {
	for _, port := range ports {
		if !port.IsUSB {
			continue
		}
		if sameID(port.VID, vid) && sameID(port.PID, pid) {
			glog.V(1).Infof("found %s (%s:%s %s)", port.Name, port.VID, port.PID, port.Product)
			return port.Name
		}
	}
	return ""
}

func sameID(s string, id uint16) bool {
	v, err := strconv.ParseUint(strings.TrimPrefix(strings.ToLower(s), "0x"), 16, 16)
	return err == nil && uint16(v) == id
}

// Port is an opened serial port.
// Read returns (0, nil) when no data arrives in a short interval.
type Port struct {
	Name string
	t    *term.Term
}

// Open finds and opens the port in raw 8N1 mode without flow control.
func Open(c *Config) (*Port, error) {
	name, err := Find(c)
	if err != nil {
		return nil, err
	}
	t, err := term.Open(name,
		term.RawMode,
		term.Speed(c.BaudRate),
		term.FlowControl(term.NONE),
		term.ReadTimeout(pollInterval))
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	glog.Infof("opened %s at %d baud", name, c.BaudRate)
	return &Port{Name: name, t: t}, nil
}

// Read implements io.Reader.
func (p *Port) Read(b []byte) (int, error) {
	n, err := p.t.Read(b)
	if n == 0 && err == io.EOF {
		return 0, nil
	}
	return n, err
}

// Write implements io.Writer.
func (p *Port) Write(b []byte) (int, error) {
	return p.t.Write(b)
}

// ReadTimeout tells readers Read returns periodically.
func (p *Port) ReadTimeout() bool {
	return true
}

// Close implements io.Closer.
func (p *Port) Close() error {
	p.t.Restore()
	return p.t.Close()
}
