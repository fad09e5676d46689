package target

import (
	"github.com/golang/glog"

	"github.com/robotalks/ramloader/pkg/l0/msgs"
)

// Dispatcher interprets requests against a memory window.
type Dispatcher struct {
	Window Window
	Memory Memory
}

// Dispatch handles one request. It returns the response to send back,
// or execute == true if the request is Execute, which has no response.
func (d *Dispatcher) Dispatch(req msgs.Request) (resp msgs.Response, execute bool) {
	switch r := req.(type) {
	case *msgs.Ping:
		return msgs.Pong, false
	case *msgs.Write:
		return d.write(r.StartAddress, r.Data), false
	case *msgs.Execute:
		return 0, true
	}
	glog.Warningf("unknown request %T", req)
	return msgs.InvalidAddress, false
}

// write is the only path from a request into Memory.
func (d *Dispatcher) write(addr uint32, data []byte) msgs.Response {
	region, ok := d.Window.Certify(addr, len(data))
	if !ok {
		glog.V(1).Infof("reject write 0x%08x+%d outside %v", addr, len(data), d.Window)
		return msgs.InvalidAddress
	}
	if region.Len() > 0 {
		d.Memory.Write(region, data)
	}
	return msgs.WriteOk
}
