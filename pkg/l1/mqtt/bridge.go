package mqtt

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang/glog"

	fx "github.com/robotalks/iosamurai/pkg/framework"
	"github.com/robotalks/iosamurai/pkg/l0/regs"
)

// Topics relative to the device name.
const (
	TopicState       = "state"
	TopicOutput      = "output"
	TopicLowPass     = "lpf"
	TopicDisplayOff  = "display-off"
	TopicAnalogScale = "analog-scale"
	TopicReset       = "reset"
)

// DefaultHeartbeat is the default interval to republish an unchanged state.
const DefaultHeartbeat = 5 * time.Second

// Device is what the bridge exposes, satisfied by *comm.Session.
type Device interface {
	fx.Named
	Registers() *regs.Registers
	Snapshot() regs.Snapshot
	ResetCursors()
}

// PublishFunc publishes payload to a topic relative to the queue prefix.
type PublishFunc func(topic string, payload []byte, retain bool) error

// Bridge publishes device state and applies commands received from MQTT.
type Bridge struct {
	Device    Device
	Queue     *Queue
	Heartbeat time.Duration
	// Publish overrides publishing through Queue.
	Publish PublishFunc

	last      regs.Snapshot
	lastTime  time.Time
	published bool
}

// NewBridge creates a Bridge.
func NewBridge(device Device, queue *Queue) *Bridge {
	return &Bridge{Device: device, Queue: queue, Heartbeat: DefaultHeartbeat}
}

// Name implements framework.Named.
func (b *Bridge) Name() string {
	return "mqtt:" + b.Device.Name()
}

func (b *Bridge) topic(suffix string) string {
	return b.Device.Name() + "/" + suffix
}

func (b *Bridge) publish(topic string, payload []byte, retain bool) error {
	if b.Publish != nil {
		return b.Publish(topic, payload, retain)
	}
	if !b.Queue.Client.IsConnected() {
		return fmt.Errorf("not connected")
	}
	token := b.Queue.PubWith(topic, payload, 0, retain)
	token.Wait()
	return token.Error()
}

// Control implements framework.Controller. The state is published when it
// changes, or when Heartbeat elapsed since the last publish.
func (b *Bridge) Control(cc fx.ControlContext) error {
	snapshot := b.Device.Snapshot()
	now := cc.Time()
	if b.published && snapshot == b.last &&
		(b.Heartbeat <= 0 || now.Sub(b.lastTime) < b.Heartbeat) {
		return nil
	}
	encoded, err := snapshot.JSON()
	if err != nil {
		return err
	}
	if err = b.publish(b.topic(TopicState), []byte(encoded), true); err != nil {
		glog.V(2).Infof("%s: publish state: %v", b.Name(), err)
		return nil
	}
	b.last, b.lastTime, b.published = snapshot, now, true
	return nil
}

// HandleCommand applies a command message. topic is relative to the queue
// prefix.
func (b *Bridge) HandleCommand(topic string, payload []byte) error {
	prefix := b.Device.Name() + "/"
	if !strings.HasPrefix(topic, prefix) {
		return fmt.Errorf("topic %q not for %s", topic, b.Device.Name())
	}
	cmd := strings.Split(topic[len(prefix):], "/")
	value := strings.TrimSpace(string(payload))
	r := b.Device.Registers()
	switch {
	case len(cmd) == 2 && cmd[0] == TopicOutput:
		bit, err := strconv.Atoi(cmd[1])
		if err != nil {
			return fmt.Errorf("invalid output bit %q", cmd[1])
		}
		on, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		return r.SetOutput(bit, on)
	case len(cmd) == 1 && cmd[0] == TopicLowPass:
		on, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		if on {
			r.EnableLowPassFilter()
		} else {
			r.DisableLowPassFilter()
		}
	case len(cmd) == 1 && cmd[0] == TopicDisplayOff:
		off, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		r.SetDisplayOff(off)
	case len(cmd) == 1 && cmd[0] == TopicAnalogScale:
		scale, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		r.SetAnalogScale(scale)
	case len(cmd) == 1 && cmd[0] == TopicReset:
		b.Device.ResetCursors()
	default:
		return fmt.Errorf("unknown command topic %q", topic)
	}
	return nil
}

func (b *Bridge) onMessage(topic string, payload []byte) {
	if err := b.HandleCommand(topic, payload); err != nil {
		glog.Warningf("%s: %v", b.Name(), err)
	}
}

// Run implements framework.Runnable. It connects the queue and stays
// connected until ctx is done.
func (b *Bridge) Run(ctx context.Context) error {
	if b.Queue == nil {
		return fmt.Errorf("%s: no queue", b.Name())
	}
	b.Queue.Sub(b.topic(TopicOutput+"/+"), b.onMessage)
	for _, cmd := range []string{TopicLowPass, TopicDisplayOff, TopicAnalogScale, TopicReset} {
		b.Queue.Sub(b.topic(cmd), b.onMessage)
	}
	token := b.Queue.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		return err
	}
	<-ctx.Done()
	b.Queue.Close()
	return ctx.Err()
}

// AddToLoop implements framework.LoopAdder.
func (b *Bridge) AddToLoop(loop *fx.Loop) {
	loop.AddController(fx.PrLvPublish, b)
}
