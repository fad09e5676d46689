package mqtt

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/denisbrodbeck/machineid"
	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/golang/glog"

	"github.com/robotalks/ramloader/pkg/elfimage"
)

// Event kinds.
const (
	EventSegment = "segment"
	EventChunk   = "chunk"
	EventLoaded  = "loaded"
	EventFailed  = "failed"
)

// EventsTopic is the topic pattern of all hosts' events.
const EventsTopic = "ramloader/+/events"

// Event is the JSON payload published for each progress step.
type Event struct {
	Host    string    `json:"host"`
	Kind    string    `json:"kind"`
	Time    time.Time `json:"time"`
	Segment int       `json:"segment"`
	Address uint32    `json:"address"`
	Size    int       `json:"size,omitempty"`
	Error   string    `json:"error,omitempty"`
}

// String implements fmt.Stringer.
func (e *Event) String() string {
	switch e.Kind {
	case EventSegment:
		return fmt.Sprintf("%s: segment %d at 0x%08x, %d bytes", e.Host, e.Segment, e.Address, e.Size)
	case EventChunk:
		return fmt.Sprintf("%s: wrote 0x%08x+%d", e.Host, e.Address, e.Size)
	case EventLoaded:
		return fmt.Sprintf("%s: loaded %d segments, %d bytes", e.Host, e.Segment, e.Size)
	case EventFailed:
		return fmt.Sprintf("%s: failed: %s", e.Host, e.Error)
	}
	return fmt.Sprintf("%s: %s", e.Host, e.Kind)
}

// HostTopic returns the events topic of a host.
func HostTopic(host string) string {
	return "ramloader/" + host + "/events"
}

// HostID identifies this machine without exposing the raw machine ID.
func HostID() string {
	if id, err := machineid.ProtectedID("ramloader"); err == nil {
		return id[:12]
	}
	if name, err := os.Hostname(); err == nil {
		return name
	}
	return "unknown"
}

// Publisher is the publishing side of Queue.
type Publisher interface {
	Pub(topic string, payload []byte) paho.Token
}

// Reporter publishes upload progress as Events.
type Reporter struct {
	Pub  Publisher
	Host string
	// Chunks enables per-chunk events.
	Chunks bool

	now func() time.Time
}

// NewReporter creates a Reporter for this host.
func NewReporter(pub Publisher) *Reporter {
	return &Reporter{Pub: pub, Host: HostID(), now: time.Now}
}

func (r *Reporter) publish(ev Event) {
	ev.Host = r.Host
	if r.now != nil {
		ev.Time = r.now()
	} else {
		ev.Time = time.Now()
	}
	payload, err := json.Marshal(&ev)
	if err != nil {
		panic(err)
	}
	r.Pub.Pub(HostTopic(r.Host), payload)
}

// SegmentStarted implements report.Reporter.
func (r *Reporter) SegmentStarted(index int, seg *elfimage.Segment) {
	r.publish(Event{Kind: EventSegment, Segment: index, Address: seg.StartAddress, Size: len(seg.Data)})
}

// ChunkWritten implements report.Reporter.
func (r *Reporter) ChunkWritten(addr uint32, size int) {
	if r.Chunks {
		r.publish(Event{Kind: EventChunk, Address: addr, Size: size})
	}
}

// Loaded implements report.Reporter.
func (r *Reporter) Loaded(segments, bytes int) {
	r.publish(Event{Kind: EventLoaded, Segment: segments, Size: bytes})
}

// Failed implements report.Reporter.
func (r *Reporter) Failed(err error) {
	r.publish(Event{Kind: EventFailed, Error: err.Error()})
}

// Config defines the broker to publish to.
type Config struct {
	// BrokerURL is like mqtt://host:port/topic-prefix/, empty to disable.
	BrokerURL string
	Chunks    bool
	// ConnectTimeout bounds the initial connection.
	ConnectTimeout time.Duration
}

var defaultConfig = Config{
	ConnectTimeout: 3 * time.Second,
}

func init() {
	if val := os.Getenv("RAMLOADER_MQTT_URL"); val != "" {
		defaultConfig.BrokerURL = val
	}
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.BrokerURL, "mqtt", defaultConfig.BrokerURL, "MQTT broker URL for progress events.")
	flag.BoolVar(&defaultConfig.Chunks, "mqtt-chunks", defaultConfig.Chunks, "Publish an event per chunk.")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a config with defaults.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// Connect dials the configured broker.
func (c *Config) Connect() (*Queue, error) {
	return Dial(c.BrokerURL, c.ConnectTimeout)
}

// NewReporter connects to the broker and creates a Reporter.
// It returns nil Reporter if BrokerURL is empty.
func (c *Config) NewReporter() (*Reporter, *Queue, error) {
	if c.BrokerURL == "" {
		return nil, nil, nil
	}
	q, err := c.Connect()
	if err != nil {
		return nil, nil, err
	}
	r := NewReporter(q)
	r.Chunks = c.Chunks
	glog.V(1).Infof("publishing events to %s%s", q.Prefix, HostTopic(r.Host))
	return r, q, nil
}
