package comm

import (
	"flag"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/iosamurai/pkg/l0/checksum"
	"github.com/robotalks/iosamurai/pkg/l0/regs"
)

// Config provides the options to open a Session.
type Config struct {
	// Name identifies the session in logs and topics, defaults to the
	// device address.
	Name       string
	RemoteHost string
	RemotePort int
	// LocalPort is the port to bind, 0 for the same as RemotePort,
	// negative for an ephemeral port.
	LocalPort int
	Timeout   time.Duration
	// TOS is the IP TOS byte of outgoing datagrams, 0 leaves it alone.
	TOS int
	// TableFile holds the checksum table (binary or C header).
	TableFile string
	// Table is used instead of loading TableFile if set.
	Table *checksum.Table

	WatchdogLimit int
	WatchdogReset bool
	AnalogScale   float64

	// AnalogMin and AnalogMax enable the analog conditioner when they
	// differ.
	AnalogMin    float64
	AnalogMax    float64
	AnalogFilter bool
	AnalogRound  bool
	ADCCalibrate bool
}

var defaultConfig = Config{
	RemoteHost:    "192.168.0.177",
	RemotePort:    8888,
	Timeout:       DefaultTimeout,
	WatchdogLimit: 5,
	AnalogScale:   4095,
}

func init() {
	if val := os.Getenv("SAMURAI_HOST"); val != "" {
		defaultConfig.RemoteHost = val
	}
	if val := os.Getenv("SAMURAI_PORT"); val != "" {
		if port, err := strconv.Atoi(val); err == nil {
			defaultConfig.RemotePort = port
		}
	}
	if val := os.Getenv("SAMURAI_TABLE"); val != "" {
		defaultConfig.TableFile = val
	}
	if val := os.Getenv("SAMURAI_NAME"); val != "" {
		defaultConfig.Name = val
	}
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.Name, "name", defaultConfig.Name, "Device name, defaults to its address.")
	flag.StringVar(&defaultConfig.RemoteHost, "host", defaultConfig.RemoteHost, "Device IP address.")
	flag.IntVar(&defaultConfig.RemotePort, "port", defaultConfig.RemotePort, "Device UDP port.")
	flag.IntVar(&defaultConfig.LocalPort, "local-port", defaultConfig.LocalPort, "Local UDP port, 0 for the device port, -1 for any.")
	flag.DurationVar(&defaultConfig.Timeout, "timeout", defaultConfig.Timeout, "Receive timeout of a cycle.")
	flag.IntVar(&defaultConfig.TOS, "tos", defaultConfig.TOS, "IP TOS byte for outgoing datagrams, 0 to keep the system default.")
	flag.StringVar(&defaultConfig.TableFile, "table", defaultConfig.TableFile, "Checksum table file (binary or C header).")
	flag.IntVar(&defaultConfig.WatchdogLimit, "watchdog", defaultConfig.WatchdogLimit, "Failed cycles tolerated before the link is considered lost.")
	flag.BoolVar(&defaultConfig.WatchdogReset, "watchdog-reset", defaultConfig.WatchdogReset, "Reset checksum cursors when the link is lost.")
	flag.Float64Var(&defaultConfig.AnalogScale, "analog-scale", defaultConfig.AnalogScale, "Value reported for a full scale analog sample.")
	flag.Float64Var(&defaultConfig.AnalogMin, "analog-min", defaultConfig.AnalogMin, "Conditioned analog value at zero scale.")
	flag.Float64Var(&defaultConfig.AnalogMax, "analog-max", defaultConfig.AnalogMax, "Conditioned analog value at full scale, equal to analog-min disables conditioning.")
	flag.BoolVar(&defaultConfig.AnalogFilter, "analog-filter", defaultConfig.AnalogFilter, "Smooth conditioned analog values.")
	flag.BoolVar(&defaultConfig.AnalogRound, "analog-round", defaultConfig.AnalogRound, "Round conditioned analog values.")
	flag.BoolVar(&defaultConfig.ADCCalibrate, "adc-calibrate", defaultConfig.ADCCalibrate, "Stretch the usable ADC span to full scale before conditioning.")
}

// NewConditioner creates the analog conditioner, nil if disabled.
func (c *Config) NewConditioner() *regs.Conditioner {
	if c.AnalogMin == c.AnalogMax {
		return nil
	}
	cond := regs.NewConditioner(c.AnalogMin, c.AnalogMax)
	cond.LowPass, cond.Rounding = c.AnalogFilter, c.AnalogRound
	return cond
}

// Default gets the default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// RemoteAddr resolves the device address.
func (c *Config) RemoteAddr() (*net.UDPAddr, error) {
	return net.ResolveUDPAddr("udp", net.JoinHostPort(c.RemoteHost, strconv.Itoa(c.RemotePort)))
}

// LoadTable returns Table or loads TableFile.
func (c *Config) LoadTable() (*checksum.Table, error) {
	if c.Table != nil {
		return c.Table, nil
	}
	if c.TableFile == "" {
		return nil, fmt.Errorf("checksum table required (-table or SAMURAI_TABLE)")
	}
	return checksum.LoadTableFile(c.TableFile)
}

// NewSession binds the local port and creates a Session.
func (c *Config) NewSession() (*Session, error) {
	table, err := c.LoadTable()
	if err != nil {
		return nil, err
	}
	remote, err := c.RemoteAddr()
	if err != nil {
		return nil, err
	}
	localPort := c.LocalPort
	if localPort == 0 {
		localPort = c.RemotePort
	} else if localPort < 0 {
		localPort = 0
	}
	transport, err := ListenUDP(remote, localPort, c.TOS)
	if err != nil {
		return nil, err
	}
	name := c.Name
	if name == "" {
		name = remote.String()
	}
	s := NewSession(transport, table).
		WithName(name).
		WithWatchdog(c.WatchdogLimit, c.WatchdogReset)
	if c.Timeout > 0 {
		s.Timeout = c.Timeout
	}
	s.Registers().SetAnalogScale(c.AnalogScale)
	if cond := c.NewConditioner(); cond != nil {
		s.WithConditioner(cond, c.ADCCalibrate)
	}
	glog.Infof("session %s using %s", s.Name(), table)
	return s, nil
}

// MustNewSession creates Session and fails on error.
func (c *Config) MustNewSession() *Session {
	s, err := c.NewSession()
	if err != nil {
		glog.Exitf("open session: %v", err)
	}
	return s
}
