package sim

import (
	"flag"
	"fmt"
	"os"
	"time"

	fx "github.com/robotalks/iosamurai/pkg/framework"
	"github.com/robotalks/iosamurai/pkg/l0/checksum"
	"github.com/robotalks/iosamurai/pkg/l0/regs"
)

// Config defines the configuration of an emulated device.
type Config struct {
	Addr      string
	TableFile string
	Inputs    uint
	// InactivityTimeout resets the device cursors after this long
	// without requests. 0 disables it.
	InactivityTimeout time.Duration
	// SweepStep moves the analog sample by this much every loop
	// iteration, bouncing between 0 and full scale. 0 keeps it still.
	SweepStep int
}

var defaultConfig = Config{
	Addr:              ":8888",
	InactivityTimeout: DefaultInactivityTimeout,
}

// DefaultInactivityTimeout matches the firmware default.
const DefaultInactivityTimeout = 100 * time.Millisecond

func init() {
	if val := os.Getenv("SAMURAI_TABLE"); val != "" {
		defaultConfig.TableFile = val
	}
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.Addr, "listen", defaultConfig.Addr, "UDP address the device listens on.")
	flag.StringVar(&defaultConfig.TableFile, "table", defaultConfig.TableFile, "Checksum table file (binary or C header).")
	flag.UintVar(&defaultConfig.Inputs, "inputs", defaultConfig.Inputs, "Initial 32-bit input register.")
	flag.DurationVar(&defaultConfig.InactivityTimeout, "idle-timeout", defaultConfig.InactivityTimeout, "Reset checksum cursors after this long without requests, 0 to disable.")
	flag.IntVar(&defaultConfig.SweepStep, "sweep", defaultConfig.SweepStep, "Analog sweep step per iteration, 0 to disable.")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates the default configuration.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// NewServer loads the table and starts listening.
func (c *Config) NewServer() (*Server, error) {
	if c.TableFile == "" {
		return nil, fmt.Errorf("checksum table required")
	}
	table, err := checksum.LoadTableFile(c.TableFile)
	if err != nil {
		return nil, err
	}
	device := NewDevice(table).WithInactivityTimeout(c.InactivityTimeout)
	device.SetInputs(uint32(c.Inputs))
	return Listen(device, c.Addr)
}

// Sweeper moves the analog sample of a device back and forth.
type Sweeper struct {
	Device *Device
	Step   int

	sample int
}

// Control implements framework.Controller.
func (s *Sweeper) Control(fx.ControlContext) error {
	s.sample += s.Step
	if s.sample > regs.AnalogNativeMax {
		s.sample, s.Step = regs.AnalogNativeMax, -s.Step
	} else if s.sample < 0 {
		s.sample, s.Step = 0, -s.Step
	}
	s.Device.SetAnalog(uint16(s.sample))
	return nil
}

// AddToLoop implements framework.LoopAdder.
func (s *Server) AddToLoop(loop *fx.Loop) {
	loop.AddRunnable(s)
}
