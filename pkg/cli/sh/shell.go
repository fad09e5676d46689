// Package sh provides an interactive shell to talk to the resident loader.
package sh

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/ramloader/pkg/elfimage"
	"github.com/robotalks/ramloader/pkg/l0/comm"
	"github.com/robotalks/ramloader/pkg/l0/msgs"
	"github.com/robotalks/ramloader/pkg/report"
	"github.com/robotalks/ramloader/pkg/serial"
	"github.com/robotalks/ramloader/pkg/uploader"
)

// ErrNotConnected indicates a command requires a connection.
var ErrNotConnected = errors.New("not connected")

// Session is an open connection to the target.
type Session struct {
	Name   string
	Conn   io.ReadWriteCloser
	Client *comm.Client
}

// NewSession creates a Session over conn.
func NewSession(name string, conn io.ReadWriteCloser, readTimeout bool) *Session {
	client := comm.NewClient(conn)
	client.ReadTimeout = readTimeout
	return &Session{Name: name, Conn: conn, Client: client}
}

// Write writes data at addr and returns the response.
func (s *Session) Write(ctx context.Context, addr uint32, data []byte) (msgs.Response, error) {
	return s.Client.RequestResponse(ctx, &msgs.Write{StartAddress: addr, Data: data})
}

// Execute asks the target to boot.
func (s *Session) Execute() error {
	return s.Client.Send(&msgs.Execute{})
}

// Load uploads an image and boots it.
func (s *Session) Load(ctx context.Context, segs []elfimage.Segment, chunkSize int, r report.Reporter) error {
	u := uploader.NewUploader(s.Client)
	u.ChunkSize, u.Reporter = chunkSize, r
	return u.Upload(ctx, segs)
}

// Close closes the connection.
func (s *Session) Close() error {
	return s.Conn.Close()
}

// Dialer opens a connection to the target.
type Dialer func(port string) (*Session, error)

// DialSerial opens the serial port or a remote endpoint.
func DialSerial(conf *serial.Config) Dialer {
	return func(port string) (*Session, error) {
		c := *conf
		if port != "" {
			c.Port = port
		}
		stream, name, err := serial.Connect(&c)
		if err != nil {
			return nil, err
		}
		s := NewSession(name, stream, stream.ReadTimeout())
		s.Client.Timeout = c.Timeout
		return s, nil
	}
}

// Shell provides ishell backed interactive shell.
type Shell struct {
	Interactive bool
	OutputJSON  bool
	ChunkSize   int

	Shell   *ishell.Shell
	Dial    Dialer
	Session *Session
}

const (
	shellKey          = "$shell"
	unconnectedPrompt = "[none] > "
)

var (
	evalOnly   bool
	outputJSON bool

	commands = []*ishell.Cmd{
		&ConnectCmd,
		&DisconnectCmd,
		&PingCmd,
		&ResyncCmd,
		&WriteCmd,
		&ExecCmd,
		&SegmentsCmd,
		&LoadCmd,
	}
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print output in JSON.")
}

// New creates a new shell.
func New(dial Dialer) *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		OutputJSON:  outputJSON,
		ChunkSize:   msgs.MaxPayloadSize,

		Shell: ishell.New(),
		Dial:  dial,
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(unconnectedPrompt)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// MustBeConnected wraps command func requires a connection.
// It connects to the default port if not connected yet.
func MustBeConnected(fn func(c *ishell.Context, s *Session)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		sh := ShellFrom(c)
		if sh.Session == nil {
			if err := sh.Connect(""); err != nil {
				c.Err(err)
				return
			}
		}
		fn(c, sh.Session)
	}
}

// Connect opens a session, closing the current one.
func (s *Shell) Connect(port string) error {
	if s.Dial == nil {
		return ErrNotConnected
	}
	sess, err := s.Dial(port)
	if err != nil {
		return err
	}
	s.Disconnect()
	s.Session = sess
	s.Shell.SetPrompt(fmt.Sprintf("%s > ", sess.Name))
	return nil
}

// Disconnect closes the current session.
func (s *Shell) Disconnect() {
	if s.Session != nil {
		s.Session.Close()
		s.Session = nil
		s.Shell.SetPrompt(unconnectedPrompt)
	}
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
	defer s.Disconnect()
	if len(args) > 0 {
		if err := s.Shell.Process(args...); err != nil {
			log.Fatalln(err)
		}
		return
	}
	if s.Interactive {
		s.Shell.Run()
		return
	}
	log.Fatalln("command expected")
}

// ParseAddress parses a 32-bit address in hex (0x prefixed) or decimal.
func ParseAddress(s string) (uint32, error) {
	v, err := strconv.ParseUint(strings.ReplaceAll(s, "_", ""), 0, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid address %q", s)
	}
	return uint32(v), nil
}

// ParseHex parses bytes in hex, spaces and colons are ignored.
func ParseHex(args ...string) ([]byte, error) {
	s := strings.NewReplacer(" ", "", ":", "").Replace(strings.Join(args, ""))
	return hex.DecodeString(strings.TrimPrefix(s, "0x"))
}

// SegmentInfo is the printed form of a segment.
type SegmentInfo struct {
	Index    int    `json:"index"`
	Address  string `json:"address"`
	Size     int    `json:"size"`
	ZeroFill uint32 `json:"zero_fill"`
}

// DescribeSegments converts segments for display.
func DescribeSegments(segs []elfimage.Segment) []SegmentInfo {
	infos := make([]SegmentInfo, len(segs))
	for n := range segs {
		infos[n] = SegmentInfo{
			Index:    n,
			Address:  fmt.Sprintf("0x%08x", segs[n].StartAddress),
			Size:     len(segs[n].Data),
			ZeroFill: segs[n].ZeroFill(),
		}
	}
	return infos
}

func (s *Shell) printJSON(c *ishell.Context, v interface{}) {
	out, err := json.Marshal(v)
	if err != nil {
		c.Err(err)
		return
	}
	c.Println(string(out))
}

func (s *Shell) printResponse(c *ishell.Context, r msgs.Response) {
	if s.OutputJSON {
		s.printJSON(c, map[string]string{"response": r.String()})
		return
	}
	c.Println(r.String())
}

var (
	// ConnectCmd opens the serial port.
	ConnectCmd = ishell.Cmd{
		Name:    "connect",
		Aliases: []string{"c"},
		Help:    "[PORT]",
		Func: func(c *ishell.Context) {
			var port string
			if len(c.Args) > 0 {
				port = c.Args[0]
			}
			if err := ShellFrom(c).Connect(port); err != nil {
				c.Err(err)
			}
		},
	}

	// DisconnectCmd closes the serial port.
	DisconnectCmd = ishell.Cmd{
		Name:    "disconnect",
		Aliases: []string{"d"},
		Help:    "",
		Func: func(c *ishell.Context) {
			ShellFrom(c).Disconnect()
		},
	}

	// PingCmd checks the loader is alive.
	PingCmd = ishell.Cmd{
		Name: "ping",
		Help: "",
		Func: MustBeConnected(func(c *ishell.Context, s *Session) {
			r, err := s.Client.RequestResponse(context.Background(), &msgs.Ping{})
			if err != nil {
				c.Err(err)
				return
			}
			ShellFrom(c).printResponse(c, r)
		}),
	}

	// ResyncCmd drops late responses after a timeout.
	ResyncCmd = ishell.Cmd{
		Name: "resync",
		Help: "",
		Func: MustBeConnected(func(c *ishell.Context, s *Session) {
			if err := s.Client.Resync(context.Background()); err != nil {
				c.Err(err)
				return
			}
			c.Println("in sync")
		}),
	}

	// WriteCmd writes bytes into target RAM.
	WriteCmd = ishell.Cmd{
		Name:    "write",
		Aliases: []string{"w"},
		Help:    "ADDR HEX...",
		Func: MustBeConnected(func(c *ishell.Context, s *Session) {
			if len(c.Args) < 1 {
				c.Err(fmt.Errorf("address expected"))
				return
			}
			addr, err := ParseAddress(c.Args[0])
			if err != nil {
				c.Err(err)
				return
			}
			data, err := ParseHex(c.Args[1:]...)
			if err != nil {
				c.Err(err)
				return
			}
			if len(data) > msgs.MaxPayloadSize {
				c.Err(fmt.Errorf("at most %d bytes", msgs.MaxPayloadSize))
				return
			}
			r, err := s.Write(context.Background(), addr, data)
			if err != nil {
				c.Err(err)
				return
			}
			ShellFrom(c).printResponse(c, r)
		}),
	}

	// ExecCmd boots the loaded program.
	ExecCmd = ishell.Cmd{
		Name: "exec",
		Help: "",
		Func: MustBeConnected(func(c *ishell.Context, s *Session) {
			if err := s.Execute(); err != nil {
				c.Err(err)
			}
		}),
	}

	// SegmentsCmd lists loadable segments of an image.
	SegmentsCmd = ishell.Cmd{
		Name:    "segments",
		Aliases: []string{"segs"},
		Help:    "FILE",
		Func: func(c *ishell.Context) {
			if len(c.Args) != 1 {
				c.Err(fmt.Errorf("file expected"))
				return
			}
			segs, err := elfimage.LoadFile(c.Args[0])
			if err != nil {
				c.Err(err)
				return
			}
			infos := DescribeSegments(segs)
			if s := ShellFrom(c); s.OutputJSON {
				s.printJSON(c, infos)
				return
			}
			for _, info := range infos {
				c.Printf("%d %s %d zero-fill %d\n", info.Index, info.Address, info.Size, info.ZeroFill)
			}
		},
	}

	// LoadCmd uploads an image and boots it.
	LoadCmd = ishell.Cmd{
		Name: "load",
		Help: "FILE",
		Func: MustBeConnected(func(c *ishell.Context, s *Session) {
			if len(c.Args) != 1 {
				c.Err(fmt.Errorf("file expected"))
				return
			}
			segs, err := elfimage.LoadFile(c.Args[0])
			if err != nil {
				c.Err(err)
				return
			}
			sh := ShellFrom(c)
			if err := s.Load(context.Background(), segs, sh.ChunkSize, report.NewConsole(printer{c})); err != nil {
				c.Err(err)
			}
		}),
	}
)

type printer struct {
	c *ishell.Context
}

func (p printer) Write(b []byte) (int, error) {
	p.c.Print(string(b))
	return len(b), nil
}

// Main is a helper to provide a single call in main.
func Main() {
	flag.Parse()
	s := New(DialSerial(serial.Default()))
	s.ChunkSize = uploader.Default().ChunkSize
	s.Run(flag.Args()...)
}
