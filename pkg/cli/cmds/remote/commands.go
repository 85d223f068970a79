// Package remote provides shell commands for devices served by samuraid.
package remote

import (
	"fmt"
	"time"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/iosamurai/pkg/cli/sh"
	"github.com/robotalks/iosamurai/pkg/l0/regs"
	"github.com/robotalks/iosamurai/pkg/l1/mqtt"
)

// DefaultWatchTime is how long watch prints states by default.
const DefaultWatchTime = 3 * time.Second

type deviceState struct {
	name     string
	snapshot regs.Snapshot
}

func parseWatchArgs(args []string) (name string, wait time.Duration, err error) {
	name, wait = "+", DefaultWatchTime
	if len(args) > 0 && args[0] != "" {
		name = args[0]
	}
	if len(args) > 1 {
		if wait, err = time.ParseDuration(args[1]); err != nil || wait <= 0 {
			return "", 0, fmt.Errorf("Invalid DURATION %q", args[1])
		}
	}
	return
}

func printState(c *ishell.Context, state deviceState) {
	if sh.ShellFrom(c).OutputJSON {
		out, err := state.snapshot.JSON()
		if err != nil {
			c.Err(err)
			return
		}
		c.Println(out)
		return
	}
	c.Printf("[%s]\n%s\n", state.name, sh.FormatSnapshot(state.snapshot))
}

var (
	// WatchCmd prints device states published over MQTT.
	WatchCmd = ishell.Cmd{
		Name: "watch",
		Help: "[NAME|+] [DURATION]",
		Func: func(c *ishell.Context) {
			name, wait, err := parseWatchArgs(c.Args)
			if err != nil {
				c.Err(err)
				return
			}
			queue, err := mqtt.Default().NewQueue("cli")
			if err != nil {
				c.Err(err)
				return
			}
			states := make(chan deviceState, 16)
			queue.WatchState(name, func(dev string, snapshot regs.Snapshot) {
				select {
				case states <- deviceState{name: dev, snapshot: snapshot}:
				default:
				}
			})
			token := queue.Connect()
			token.Wait()
			if err = token.Error(); err != nil {
				c.Err(err)
				return
			}
			defer queue.Close()
			timeout := time.After(wait)
			for {
				select {
				case state := <-states:
					printState(c, state)
				case <-timeout:
					return
				}
			}
		},
	}
)

func init() {
	sh.AddCmds(&WatchCmd)
}
