package target

import "fmt"

// Default window boundaries: the upper half of the nRF52840 RAM.
// The loader itself lives in the lower half.
const (
	DefaultWindowStart uint32 = 0x2002_0000
	DefaultWindowEnd   uint32 = 0x2004_0000
)

// Window is the inclusive address range the loader may overwrite.
type Window struct {
	Start uint32
	End   uint32
}

// DefaultWindow returns the default Window.
func DefaultWindow() Window {
	return Window{Start: DefaultWindowStart, End: DefaultWindowEnd}
}

// Region is a certified destination range.
// It can only be created by Window.Certify.
type Region struct {
	start uint32
	size  uint32
}

// Start returns the first address.
func (r Region) Start() uint32 {
	return r.start
}

// Len returns the number of bytes.
func (r Region) Len() int {
	return int(r.size)
}

// String implements fmt.Stringer.
func (r Region) String() string {
	return fmt.Sprintf("[0x%08x, 0x%08x)", r.start, uint64(r.start)+uint64(r.size))
}

// Certify checks n bytes starting at start fit in the window.
// Both start and start+n must be within the window, and start+n must not
// overflow the address space. An empty range is always accepted.
func (w Window) Certify(start uint32, n int) (Region, bool) {
	if n == 0 {
		return Region{start: start}, true
	}
	if n < 0 {
		return Region{}, false
	}
	end := uint64(start) + uint64(n)
	if end > 0xffff_ffff {
		return Region{}, false
	}
	if !w.Contains(start) || !w.Contains(uint32(end)) {
		return Region{}, false
	}
	return Region{start: start, size: uint32(n)}, true
}

// Contains tells if addr is inside the window.
func (w Window) Contains(addr uint32) bool {
	return addr >= w.Start && addr <= w.End
}

// Size returns the number of bytes from Start to End.
func (w Window) Size() uint32 {
	return w.End - w.Start
}

// String implements fmt.Stringer.
func (w Window) String() string {
	return fmt.Sprintf("[0x%08x, 0x%08x]", w.Start, w.End)
}
