// Package io provides shell commands operating the device registers.
package io

import (
	"fmt"
	"strconv"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/iosamurai/pkg/cli/sh"
	"github.com/robotalks/iosamurai/pkg/l0/regs"
)

func parseBit(str string, width int) (int, error) {
	bit, err := strconv.Atoi(str)
	if err != nil || bit < 0 || bit >= width {
		return 0, fmt.Errorf("Invalid BIT %q, expect 0-%d", str, width-1)
	}
	return bit, nil
}

// SetOutput applies "on", "off" or "toggle" to an output bit.
func SetOutput(r *regs.Registers, bit int, action string) error {
	if action == "toggle" {
		_, err := r.ToggleOutput(bit)
		return err
	}
	on, err := sh.ParseSwitch(action)
	if err != nil {
		return err
	}
	return r.SetOutput(bit, on)
}

var (
	// OutputCmd sets an output bit and updates the device.
	OutputCmd = ishell.Cmd{
		Name:    "out",
		Aliases: []string{"o"},
		Help:    "BIT on|off|toggle",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			if len(c.Args) < 2 {
				c.Err(fmt.Errorf("BIT and on|off|toggle required"))
				return
			}
			bit, err := parseBit(c.Args[0], regs.OutputBits)
			if err != nil {
				c.Err(err)
				return
			}
			if err = SetOutput(sh.ShellFrom(c).Session.Registers(), bit, c.Args[1]); err != nil {
				c.Err(err)
				return
			}
			sh.Update(c)
		}),
	}

	// OutputsCmd sets the whole output register.
	OutputsCmd = ishell.Cmd{
		Name:    "outputs",
		Aliases: []string{"os"},
		Help:    "VALUE (e.g. 0x0101)",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			if len(c.Args) < 1 {
				c.Err(fmt.Errorf("VALUE required"))
				return
			}
			val, err := strconv.ParseUint(c.Args[0], 0, 16)
			if err != nil {
				c.Err(fmt.Errorf("Invalid VALUE: %v", err))
				return
			}
			sh.ShellFrom(c).Session.Registers().SetOutputs(uint16(val))
			sh.Update(c)
		}),
	}

	// InputCmd reads an input bit, or all inputs.
	InputCmd = ishell.Cmd{
		Name:    "in",
		Aliases: []string{"i"},
		Help:    "[BIT]",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			if len(c.Args) == 0 {
				sh.Update(c)
				return
			}
			bit, err := parseBit(c.Args[0], regs.InputBits)
			if err != nil {
				c.Err(err)
				return
			}
			s := sh.ShellFrom(c)
			if _, err = s.Session.Update(); err != nil {
				c.Err(err)
				return
			}
			val, err := s.Session.Registers().Input(bit)
			if err != nil {
				c.Err(err)
				return
			}
			sh.PrintValue(c, val)
		}),
	}

	// AnalogCmd reads the scaled analog input.
	AnalogCmd = ishell.Cmd{
		Name:    "analog",
		Aliases: []string{"a"},
		Help:    "[SCALE]",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			r := sh.ShellFrom(c).Session.Registers()
			if len(c.Args) > 0 {
				scale, err := strconv.ParseFloat(c.Args[0], 64)
				if err != nil {
					c.Err(fmt.Errorf("Invalid SCALE: %v", err))
					return
				}
				r.SetAnalogScale(scale)
			}
			if _, err := sh.ShellFrom(c).Session.Update(); err != nil {
				c.Err(err)
				return
			}
			sh.PrintValue(c, r.AnalogInput())
		}),
	}

	// LowPassCmd switches the analog low pass filter.
	LowPassCmd = ishell.Cmd{
		Name: "lpf",
		Help: "on|off",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			r := sh.ShellFrom(c).Session.Registers()
			if len(c.Args) == 0 {
				sh.PrintValue(c, r.LowPassFilter())
				return
			}
			on, err := sh.ParseSwitch(c.Args[0])
			if err != nil {
				c.Err(err)
				return
			}
			if on {
				r.EnableLowPassFilter()
			} else {
				r.DisableLowPassFilter()
			}
			sh.Update(c)
		}),
	}

	// DisplayCmd turns the device display on or off.
	DisplayCmd = ishell.Cmd{
		Name: "display",
		Help: "on|off",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			if len(c.Args) < 1 {
				c.Err(fmt.Errorf("on|off required"))
				return
			}
			on, err := sh.ParseSwitch(c.Args[0])
			if err != nil {
				c.Err(err)
				return
			}
			sh.ShellFrom(c).Session.Registers().SetDisplayOff(!on)
			sh.Update(c)
		}),
	}

	// UpdateCmd runs update cycles.
	UpdateCmd = ishell.Cmd{
		Name:    "update",
		Aliases: []string{"u"},
		Help:    "[COUNT]",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			count := 1
			if len(c.Args) > 0 {
				n, err := strconv.Atoi(c.Args[0])
				if err != nil || n < 1 {
					c.Err(fmt.Errorf("Invalid COUNT %q", c.Args[0]))
					return
				}
				count = n
			}
			session := sh.ShellFrom(c).Session
			for i := 1; i < count; i++ {
				if _, err := session.Update(); err != nil {
					c.Err(fmt.Errorf("cycle %d: %v", i, err))
				}
			}
			sh.Update(c)
		}),
	}

	// StatusCmd shows the session statistics.
	StatusCmd = ishell.Cmd{
		Name:    "status",
		Aliases: []string{"st"},
		Help:    "",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			session := sh.ShellFrom(c).Session
			stats := session.Stats()
			if sh.ShellFrom(c).OutputJSON {
				sh.PrintValue(c, stats)
				return
			}
			out, inp := session.CursorIndices()
			c.Printf("connected: %v, last: %s\n", session.Connected(), session.LastOutcome())
			c.Printf("sent: %d (%d failed), validated: %d\n", stats.Sent, stats.SendErrors, stats.Validated)
			c.Printf("timeouts: %d, malformed: %d, mismatches: %d\n", stats.Timeouts, stats.Malformed, stats.Mismatches)
			c.Printf("cursors: out=%d in=%d\n", out, inp)
			if stats.LastError != "" {
				c.Printf("last error: %s\n", stats.LastError)
			}
		}),
	}

	// ResetCmd resets the checksum cursors.
	ResetCmd = ishell.Cmd{
		Name: "reset",
		Help: "",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			sh.ShellFrom(c).Session.ResetCursors()
			c.Println("OK")
		}),
	}

	// TableCmd shows the checksum table in use.
	TableCmd = ishell.Cmd{
		Name: "table",
		Help: "",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			table := sh.ShellFrom(c).Session.Table()
			if sh.ShellFrom(c).OutputJSON {
				sh.PrintValue(c, map[string]interface{}{
					"fingerprint": fmt.Sprintf("%04x", table.Fingerprint()),
					"entries":     fmt.Sprintf("%x", table.Bytes()),
				})
				return
			}
			c.Println(table)
		}),
	}
)

func init() {
	sh.AddCmds(
		&OutputCmd,
		&OutputsCmd,
		&InputCmd,
		&AnalogCmd,
		&LowPassCmd,
		&DisplayCmd,
		&UpdateCmd,
		&StatusCmd,
		&ResetCmd,
		&TableCmd,
	)
}
