package mqtt

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/iosamurai/pkg/l1/env"
)

// Config is the configuration of the bridge.
type Config struct {
	// ServerURL is empty to disable the bridge.
	ServerURL string
	Heartbeat time.Duration
}

var defaultConfig = Config{
	Heartbeat: DefaultHeartbeat,
}

func init() {
	if val := os.Getenv("SAMURAI_MQTT_URL"); val != "" {
		defaultConfig.ServerURL = val
	}
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.ServerURL, "mqtt", defaultConfig.ServerURL, "MQTT server URL, e.g. mqtt://host:1883/prefix/, empty to disable.")
	flag.DurationVar(&defaultConfig.Heartbeat, "mqtt-heartbeat", defaultConfig.Heartbeat, "Interval to republish unchanged state.")
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

// Enabled tells whether a server is configured.
func (c *Config) Enabled() bool {
	return c.ServerURL != ""
}

// ClientID generates a client ID unique to this host and device.
func ClientID(name string) string {
	return "samurai:" + name + ":" + env.ShortMachineID()
}

// NewQueue creates a Queue on the configured server. name is used for
// the client ID unless the URL specifies one.
func (c *Config) NewQueue(name string) (*Queue, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("mqtt server not configured")
	}
	opts, prefix, err := ClientOptionsFromURL(c.ServerURL)
	if err != nil {
		return nil, err
	}
	if opts.ClientID == "" {
		opts.SetClientID(ClientID(name))
	}
	glog.Infof("mqtt %s as %s, prefix %q", opts.Servers[0], opts.ClientID, prefix)
	return NewQueue(opts, prefix), nil
}

// NewBridge creates a Bridge for device.
func (c *Config) NewBridge(device Device) (*Bridge, error) {
	queue, err := c.NewQueue(device.Name())
	if err != nil {
		return nil, err
	}
	b := NewBridge(device, queue)
	b.Heartbeat = c.Heartbeat
	return b, nil
}

// MustNewBridge creates Bridge and fails on error.
func (c *Config) MustNewBridge(device Device) *Bridge {
	b, err := c.NewBridge(device)
	if err != nil {
		glog.Exitf("mqtt: %v", err)
	}
	return b
}
