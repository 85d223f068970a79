package devconsole

import (
	"flag"
	"fmt"
	"os"
	"time"
)

// Config is the serial port configuration.
type Config struct {
	Device      string
	Baud        int
	ReadTimeout time.Duration
}

var defaultConfig = Config{
	Baud:        115200,
	ReadTimeout: 2 * time.Second,
}

func init() {
	if val := os.Getenv("SAMURAI_CONSOLE"); val != "" {
		defaultConfig.Device = val
	}
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.Device, "console", defaultConfig.Device, "Serial device of the device console, e.g. /dev/ttyACM0.")
	flag.IntVar(&defaultConfig.Baud, "console-baud", defaultConfig.Baud, "Baud rate of the device console.")
	flag.DurationVar(&defaultConfig.ReadTimeout, "console-timeout", defaultConfig.ReadTimeout, "Read timeout of the device console.")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// Open opens the configured console.
func (c *Config) Open() (*Console, error) {
	if c.Device == "" {
		return nil, fmt.Errorf("console device required (-console or SAMURAI_CONSOLE)")
	}
	return Open(c.Device, c.Baud, c.ReadTimeout)
}
