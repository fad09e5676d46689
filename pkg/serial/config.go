package serial

import (
	"flag"
	"os"
	"strconv"
	"time"
)

// Identification of the J-Link virtual COM port on the development kit.
const (
	DefaultVendorID  uint16 = 0x1366
	DefaultProductID uint16 = 0x1015
	DefaultBaudRate         = 115200
	DefaultTimeout          = 5 * time.Second
)

// Config defines how to locate and open the target serial port.
type Config struct {
	// Port is the device path. Discovery is skipped if specified.
	Port      string
	VendorID  uint16
	ProductID uint16
	BaudRate  int
	// Timeout bounds the wait for each response.
	Timeout time.Duration
	// Wait is how long to wait for the device to appear, 0 for no waiting.
	Wait time.Duration
}

var defaultConfig = Config{
	VendorID:  DefaultVendorID,
	ProductID: DefaultProductID,
	BaudRate:  DefaultBaudRate,
	Timeout:   DefaultTimeout,
}

func init() {
	if val := os.Getenv("RAMLOADER_PORT"); val != "" {
		defaultConfig.Port = val
	}
}

type hexFlag struct {
	val *uint16
}

func (f hexFlag) String() string {
	if f.val == nil {
		return ""
	}
	return strconv.FormatUint(uint64(*f.val), 16)
}

func (f hexFlag) Set(s string) error {
	v, err := strconv.ParseUint(s, 16, 16)
	if err != nil {
		return err
	}
	*f.val = uint16(v)
	return nil
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.Port, "port", defaultConfig.Port, "Serial port, auto detected by VID/PID if empty.")
	flag.Var(hexFlag{&defaultConfig.VendorID}, "vid", "USB vendor ID (hex) of the target.")
	flag.Var(hexFlag{&defaultConfig.ProductID}, "pid", "USB product ID (hex) of the target.")
	flag.IntVar(&defaultConfig.BaudRate, "baud", defaultConfig.BaudRate, "Baud rate.")
	flag.DurationVar(&defaultConfig.Timeout, "timeout", defaultConfig.Timeout, "Response timeout.")
	flag.DurationVar(&defaultConfig.Wait, "wait", defaultConfig.Wait, "Wait for the device to appear.")
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
