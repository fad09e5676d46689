package serial

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.bug.st/serial/enumerator"
)

func withPorts(t *testing.T, fn func() ([]*enumerator.PortDetails, error)) {
	orig := lister
	lister = fn
	t.Cleanup(func() { lister = orig })
}

func TestMatch(t *testing.T) {
	ports := []*enumerator.PortDetails{
		{Name: "/dev/ttyS0"},
		{Name: "/dev/ttyUSB0", IsUSB: true, VID: "0403", PID: "6001"},
		{Name: "/dev/ttyACM0", IsUSB: true, VID: "1366", PID: "1015", Product: "J-Link"},
		{Name: "/dev/ttyACM1", IsUSB: true, VID: "1366", PID: "1015"},
	}
	tests := []struct {
		name     string
		vid, pid uint16
		expected string
	}{
		{"default", DefaultVendorID, DefaultProductID, "/dev/ttyACM0"},
		{"ftdi", 0x0403, 0x6001, "/dev/ttyUSB0"},
		{"missing", 0x1234, 0x5678, ""},
		{"pid mismatch", 0x1366, 0x6001, ""},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			require.Equal(t, test.expected, match(ports, test.vid, test.pid))
		})
	}
}

func TestSameID(t *testing.T) {
	require.True(t, sameID("1366", 0x1366))
	require.True(t, sameID("0x1366", 0x1366))
	require.True(t, sameID("ABCD", 0xabcd))
	require.False(t, sameID("", 0))
	require.False(t, sameID("xyz", 0x1366))
}

func TestFindExplicitPort(t *testing.T) {
	withPorts(t, func() ([]*enumerator.PortDetails, error) {
		t.Fatal("should not enumerate")
		return nil, nil
	})
	c := NewConfig()
	c.Port = "/dev/pts/3"
	name, err := Find(c)
	require.NoError(t, err)
	require.Equal(t, "/dev/pts/3", name)
}

func TestFindNotFound(t *testing.T) {
	withPorts(t, func() ([]*enumerator.PortDetails, error) {
		return []*enumerator.PortDetails{{Name: "/dev/ttyS0"}}, nil
	})
	c := NewConfig()
	c.Port = ""
	_, err := Find(c)
	require.ErrorIs(t, err, ErrDeviceNotFound)
}

func TestFindEnumerationError(t *testing.T) {
	failure := errors.New("no sysfs")
	calls := 0
	withPorts(t, func() ([]*enumerator.PortDetails, error) {
		calls++
		return nil, failure
	})
	c := NewConfig()
	c.Port, c.Wait = "", time.Second
	_, err := Find(c)
	require.ErrorIs(t, err, failure)
	require.Equal(t, 1, calls)
}

func TestFindWaitsForDevice(t *testing.T) {
	calls := 0
	withPorts(t, func() ([]*enumerator.PortDetails, error) {
		calls++
		if calls < 3 {
			return nil, nil
		}
		return []*enumerator.PortDetails{
			{Name: "/dev/ttyACM0", IsUSB: true, VID: "1366", PID: "1015"},
		}, nil
	})
	c := NewConfig()
	c.Port, c.Wait = "", 10*time.Second
	name, err := Find(c)
	require.NoError(t, err)
	require.Equal(t, "/dev/ttyACM0", name)
	require.Equal(t, 3, calls)
}

func TestFindWaitExpires(t *testing.T) {
	withPorts(t, func() ([]*enumerator.PortDetails, error) {
		return nil, nil
	})
	c := NewConfig()
	c.Port, c.Wait = "", 200*time.Millisecond
	start := time.Now()
	_, err := Find(c)
	require.ErrorIs(t, err, ErrDeviceNotFound)
	require.Less(t, time.Since(start), 5*time.Second)
}

func TestHexFlag(t *testing.T) {
	var v uint16
	f := hexFlag{&v}
	require.NoError(t, f.Set("1366"))
	require.Equal(t, uint16(0x1366), v)
	require.Equal(t, "1366", f.String())
	require.Error(t, f.Set("10000"))
	require.Error(t, f.Set("zz"))
}
