// Package console provides shell commands for the device serial console.
package console

import (
	"fmt"
	"net"
	"time"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/iosamurai/pkg/cli/sh"
	"github.com/robotalks/iosamurai/pkg/devconsole"
)

func withConsole(fn func(c *ishell.Context, console *devconsole.Console)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		console, err := sh.ShellFrom(c).Console()
		if err != nil {
			c.Err(err)
			return
		}
		fn(c, console)
	}
}

var (
	// IPCmd queries or changes the device address.
	IPCmd = ishell.Cmd{
		Name: "console.ip",
		Help: "[A.B.C.D]",
		Func: withConsole(func(c *ishell.Context, console *devconsole.Console) {
			if len(c.Args) == 0 {
				ip, err := console.IP()
				if err != nil {
					c.Err(err)
					return
				}
				sh.PrintValue(c, ip.String())
				return
			}
			ip := net.ParseIP(c.Args[0])
			if ip == nil {
				c.Err(fmt.Errorf("Invalid address %q", c.Args[0]))
				return
			}
			if err := console.SetIP(ip); err != nil {
				c.Err(err)
				return
			}
			c.Println("OK, device restarting")
		}),
	}

	// TimeoutCmd queries or changes the device network timeout.
	TimeoutCmd = ishell.Cmd{
		Name: "console.timeout",
		Help: "[DURATION (e.g. 100ms)]",
		Func: withConsole(func(c *ishell.Context, console *devconsole.Console) {
			if len(c.Args) == 0 {
				timeout, err := console.Timeout()
				if err != nil {
					c.Err(err)
					return
				}
				sh.PrintValue(c, timeout.String())
				return
			}
			timeout, err := time.ParseDuration(c.Args[0])
			if err != nil {
				c.Err(fmt.Errorf("Invalid DURATION: %v", err))
				return
			}
			if err = console.SetTimeout(timeout); err != nil {
				c.Err(err)
				return
			}
			c.Println("OK, device restarting")
		}),
	}

	// ResetCmd restarts the device.
	ResetCmd = ishell.Cmd{
		Name: "console.reset",
		Help: "",
		Func: withConsole(func(c *ishell.Context, console *devconsole.Console) {
			if err := console.Reset(); err != nil {
				c.Err(err)
				return
			}
			if s := sh.ShellFrom(c); s.Session != nil {
				s.Session.ResetCursors()
			}
			c.Println("OK")
		}),
	}
)

func init() {
	sh.AddCmds(
		&IPCmd,
		&TimeoutCmd,
		&ResetCmd,
	)
}
