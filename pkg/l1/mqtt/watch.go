package mqtt

import (
	"strings"

	"github.com/golang/glog"

	"github.com/robotalks/iosamurai/pkg/l0/regs"
)

// StateHandler receives a device state decoded from its state topic.
type StateHandler func(name string, snapshot regs.Snapshot)

// WatchState subscribes to the state published by the bridge of the
// named device, "+" for all of them. As the state is retained, the last
// one arrives right after connecting.
// Payloads which don't decode are dropped.
func (q *Queue) WatchState(name string, handler StateHandler) {
	q.Sub(name+"/"+TopicState, func(topic string, payload []byte) {
		snapshot, err := regs.ParseSnapshotJSON(string(payload))
		if err != nil {
			glog.Warningf("mqtt: %s: %v", topic, err)
			return
		}
		handler(strings.TrimSuffix(topic, "/"+TopicState), snapshot)
	})
}
