package target

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang/glog"

	"github.com/robotalks/ramloader/pkg/l0/comm"
	"github.com/robotalks/ramloader/pkg/l0/msgs"
)

// DefaultFlushDelay is the number of cycles to wait after relocating
// the vector table before jumping.
const DefaultFlushDelay = 1_000_000

var (
	// ErrHandedOff is returned by Run when Core.Bootload returns, which
	// only happens with simulated cores.
	ErrHandedOff = errors.New("handed off to loaded program")
	// ErrNoPeripherals indicates the Loader was created without a
	// complete set of peripherals, or they have been consumed.
	ErrNoPeripherals = errors.New("peripherals not available")
)

// Fault halts the loader. It carries the framing error.
type Fault struct {
	Err error
	// Frame is a copy of the offending frame, if any.
	Frame []byte
}

// Error implements error.
func (f *Fault) Error() string {
	if len(f.Frame) > 0 {
		return fmt.Sprintf("loader halted: %v [% x]", f.Err, f.Frame)
	}
	return fmt.Sprintf("loader halted: %v", f.Err)
}

// Unwrap returns the underlying error.
func (f *Fault) Unwrap() error {
	return f.Err
}

// Loader is the resident loader state machine.
type Loader struct {
	// FlushDelay is the Core.Delay argument before the jump.
	FlushDelay uint32

	p          *Peripherals
	dispatcher Dispatcher
	parser     comm.Parser
}

// NewLoader creates a Loader owning p.
func NewLoader(p *Peripherals, w Window) *Loader {
	l := &Loader{FlushDelay: DefaultFlushDelay, p: p}
	l.dispatcher.Window = w
	if p != nil {
		l.dispatcher.Memory = p.Memory
	}
	return l
}

// Window returns the window writes are validated against.
func (l *Loader) Window() Window {
	return l.dispatcher.Window
}

// Run receives and dispatches frames until Execute or a failure.
// A frame overflow or a malformed frame halts the loader with a *Fault.
// Errors from the serial port are returned as they are.
func (l *Loader) Run(ctx context.Context) error {
	if !l.p.Valid() {
		return ErrNoPeripherals
	}
	glog.Infof("loader ready, window %v", l.dispatcher.Window)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		b, err := l.p.Serial.ReadByte()
		if err != nil {
			return err
		}
		pr := l.parser.Parse(b)
		if pr.Err != nil {
			glog.Errorf("frame overflow")
			return &Fault{Err: pr.Err}
		}
		if pr.Frame == nil {
			continue
		}
		req, err := comm.DecodeRequest(pr.Frame)
		if err != nil {
			glog.Errorf("malformed frame: %v", err)
			return &Fault{Err: err, Frame: append([]byte(nil), pr.Frame...)}
		}
		glog.V(2).Infof("RCV %v", req)
		resp, execute := l.dispatcher.Dispatch(req)
		if execute {
			return l.handoff()
		}
		if err := l.respond(resp); err != nil {
			return err
		}
	}
}

func (l *Loader) respond(resp msgs.Response) error {
	frame, err := comm.EncodeResponse(resp)
	if err != nil {
		return err
	}
	glog.V(2).Infof("SND %v", resp)
	_, err = l.p.Serial.Write(frame)
	return err
}

// handoff relocates the vector table to the window start and jumps to
// the reset handler of the loaded image. The peripherals are released
// before the jump.
func (l *Loader) handoff() error {
	p, start := l.p, l.dispatcher.Window.Start
	l.p, l.dispatcher.Memory = nil, nil

	core, mem := p.Core, p.Memory
	p.release()

	core.SetVectorTable(start)
	core.Delay(l.FlushDelay)
	sp, entry := mem.Load32(start), mem.Load32(start+4)
	glog.Infof("boot sp=0x%08x entry=0x%08x", sp, entry)
	glog.Flush()
	core.Bootload(sp, entry)
	return ErrHandedOff
}
