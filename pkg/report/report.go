// Package report delivers upload progress.
package report

import (
	"fmt"
	"io"
	"sync"

	"github.com/robotalks/ramloader/pkg/elfimage"
)

//go:generate mockgen -destination=mock_report/mock_reporter.go -package=mock_report github.com/robotalks/ramloader/pkg/report Reporter

// Reporter receives upload progress.
type Reporter interface {
	// SegmentStarted is called before the first chunk of a segment.
	SegmentStarted(index int, seg *elfimage.Segment)
	// ChunkWritten is called after a chunk is acknowledged.
	ChunkWritten(addr uint32, size int)
	// Loaded is called after Execute is sent.
	Loaded(segments, bytes int)
	// Failed is called when the upload is aborted.
	Failed(err error)
}

// Discard ignores all progress.
var Discard Reporter = discard{}

type discard struct{}

func (discard) SegmentStarted(int, *elfimage.Segment) {}
func (discard) ChunkWritten(uint32, int)              {}
func (discard) Loaded(int, int)                       {}
func (discard) Failed(error)                          {}

// Console prints a dot per chunk and a final message.
type Console struct {
	Out io.Writer

	lock sync.Mutex
	dots bool
}

// NewConsole creates a Console writing to w.
func NewConsole(w io.Writer) *Console {
	return &Console{Out: w}
}

// SegmentStarted implements Reporter.
func (c *Console) SegmentStarted(index int, seg *elfimage.Segment) {}

// ChunkWritten implements Reporter.
func (c *Console) ChunkWritten(addr uint32, size int) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.dots = true
	fmt.Fprint(c.Out, ".")
}

// Loaded implements Reporter.
func (c *Console) Loaded(segments, bytes int) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.endLine()
	fmt.Fprintln(c.Out, "program loaded")
}

// Failed implements Reporter.
func (c *Console) Failed(err error) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.endLine()
}

func (c *Console) endLine() {
	if c.dots {
		fmt.Fprintln(c.Out)
		c.dots = false
	}
}

// Mux fans out to multiple reporters.
type Mux []Reporter

// SegmentStarted implements Reporter.
func (m Mux) SegmentStarted(index int, seg *elfimage.Segment) {
	for _, r := range m {
		r.SegmentStarted(index, seg)
	}
}

// ChunkWritten implements Reporter.
func (m Mux) ChunkWritten(addr uint32, size int) {
	for _, r := range m {
		r.ChunkWritten(addr, size)
	}
}

// Loaded implements Reporter.
func (m Mux) Loaded(segments, bytes int) {
	for _, r := range m {
		r.Loaded(segments, bytes)
	}
}

// Failed implements Reporter.
func (m Mux) Failed(err error) {
	for _, r := range m {
		r.Failed(err)
	}
}
