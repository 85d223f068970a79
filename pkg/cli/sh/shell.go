package sh

import (
	"encoding/json"
	"flag"
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/abiosoft/ishell"
	"github.com/golang/glog"

	"github.com/robotalks/iosamurai/pkg/devconsole"
	"github.com/robotalks/iosamurai/pkg/l0/comm"
	"github.com/robotalks/iosamurai/pkg/l0/regs"
)

// Shell provides ishell backed interactive shell.
type Shell struct {
	Interactive bool
	OutputJSON  bool
	AutoConnect bool

	Shell         *ishell.Shell
	Config        *comm.Config
	ConsoleConfig *devconsole.Config
	Session       *comm.Session

	console *devconsole.Console
}

const (
	shellKey          = "$shell"
	unconnectedPrompt = "[none] > "
)

var (
	// flags

	evalOnly   bool
	outputJSON bool

	// commands
	commands = []*ishell.Cmd{
		&ConnectCmd,
		&DisconnectCmd,
	}
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print output in JSON.")
}

// AddCmds is used by other commands providers during init func.
func AddCmds(cmds ...*ishell.Cmd) {
	commands = append(commands, cmds...)
}

// New creates a new shell.
func New(conf *comm.Config) *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		OutputJSON:  outputJSON,

		Shell:         ishell.New(),
		Config:        conf,
		ConsoleConfig: devconsole.Default(),
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(unconnectedPrompt)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// MustBeConnected wraps command func requires a session.
func MustBeConnected(fn func(c *ishell.Context)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		if ShellFrom(c).Session == nil {
			c.Err(fmt.Errorf("not connected"))
			return
		}
		fn(c)
	}
}

// ParseSwitch parses on/off style arguments.
func ParseSwitch(str string) (bool, error) {
	switch strings.ToLower(str) {
	case "on", "1", "true", "yes":
		return true, nil
	case "off", "0", "false", "no":
		return false, nil
	}
	return false, fmt.Errorf("invalid switch %q, expect on or off", str)
}

// FormatSnapshot prints snapshot into friendly string for display.
func FormatSnapshot(s regs.Snapshot) string {
	var w strings.Builder
	fmt.Fprintf(&w, "state:   %s\n", s.State)
	fmt.Fprintf(&w, "outputs: %016b\n", s.Outputs)
	fmt.Fprintf(&w, "inputs:  %016b\n", uint16(s.Inputs))
	fmt.Fprintf(&w, "analog:  %.2f (%d)", s.Analog, regs.AnalogSampleOf(s.Inputs))
	return w.String()
}

// PrintSnapshot prints the session snapshot.
func PrintSnapshot(c *ishell.Context) {
	s := ShellFrom(c)
	snapshot := s.Session.Snapshot()
	if s.OutputJSON {
		out, err := snapshot.JSON()
		if err != nil {
			c.Err(err)
			return
		}
		c.Println(out)
		return
	}
	c.Println(FormatSnapshot(snapshot))
}

// PrintValue prints a single value, either as is or as JSON.
func PrintValue(c *ishell.Context, val interface{}) {
	if !ShellFrom(c).OutputJSON {
		c.Println(val)
		return
	}
	out, err := json.Marshal(val)
	if err != nil {
		c.Err(err)
		return
	}
	c.Println(string(out))
}

// Update runs one cycle and prints the result.
func Update(c *ishell.Context) error {
	s := ShellFrom(c)
	if _, err := s.Session.Update(); err != nil {
		c.Err(err)
		return err
	}
	PrintSnapshot(c)
	return nil
}

// Connect opens a session to the device at addr (HOST or HOST:PORT).
// An empty addr uses the configured one.
func (s *Shell) Connect(addr string) error {
	conf := *s.Config
	if addr != "" {
		host, port, err := net.SplitHostPort(addr)
		if err != nil {
			host = addr
		} else if conf.RemotePort, err = strconv.Atoi(port); err != nil {
			return fmt.Errorf("invalid port %q", port)
		}
		conf.RemoteHost = host
	}
	session, err := conf.NewSession()
	if err != nil {
		return err
	}
	s.Disconnect()
	s.Session = session
	s.Shell.SetPrompt(fmt.Sprintf("%s > ", session.Name()))
	return nil
}

// Disconnect closes current session.
func (s *Shell) Disconnect() {
	if s.Session != nil {
		s.Session.Close()
		s.Session = nil
		s.Shell.SetPrompt(unconnectedPrompt)
	}
}

// Console opens the device console on first use.
func (s *Shell) Console() (*devconsole.Console, error) {
	if s.console == nil {
		console, err := s.ConsoleConfig.Open()
		if err != nil {
			return nil, err
		}
		s.console = console
	}
	return s.console, nil
}

// Close disconnects and closes the device console if it was opened.
func (s *Shell) Close() error {
	s.Disconnect()
	if s.console == nil {
		return nil
	}
	err := s.console.Close()
	s.console = nil
	return err
}

// WithAutoConnect sets AutoConnect.
func (s *Shell) WithAutoConnect(en bool) *Shell {
	s.AutoConnect = en
	return s
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
	defer s.Close()
	if s.AutoConnect {
		if s.Interactive {
			s.Shell.Printf("Connecting %s:%d ...\n", s.Config.RemoteHost, s.Config.RemotePort)
		}
		if err := s.Connect(""); err != nil {
			glog.Exitf("connect %s failed: %v", s.Config.RemoteHost, err)
		}
	}

	if len(args) > 0 {
		if err := s.Shell.Process(args...); err != nil {
			glog.Exit(err)
		}
		return
	}
	if s.Interactive {
		s.Shell.Run()
		return
	}
	glog.Exit("command expected")
}

var (
	// ConnectCmd opens a session.
	ConnectCmd = ishell.Cmd{
		Name:    "connect",
		Aliases: []string{"c"},
		Help:    "[HOST[:PORT]]",
		Func: func(c *ishell.Context) {
			var addr string
			if len(c.Args) > 0 {
				addr = c.Args[0]
			}
			if err := ShellFrom(c).Connect(addr); err != nil {
				c.Err(err)
			}
		},
	}

	// DisconnectCmd closes current session.
	DisconnectCmd = ishell.Cmd{
		Name:    "disconnect",
		Aliases: []string{"d"},
		Help:    "",
		Func: func(c *ishell.Context) {
			ShellFrom(c).Disconnect()
		},
	}
)

// Main is a helper to provide a single call in main.
func Main() {
	flag.Parse()
	New(comm.Default()).WithAutoConnect(true).Run(flag.Args()...)
}
