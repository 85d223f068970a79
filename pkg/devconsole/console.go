// Package devconsole talks to the line based configuration console the
// device exposes on its USB serial port.
package devconsole

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/golang/glog"
	"github.com/tarm/serial"
)

// Console errors.
var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrInvalidFormat  = errors.New("invalid format")
)

// Console response prefixes.
const (
	prefixCommand        = "Command: "
	prefixIP             = "IP: "
	prefixIPChanged      = "IP changed to "
	prefixTimeout        = "Timeout: "
	prefixTimeoutChanged = "Timeout changed to "
	prefixInvalid        = "Invalid "
	prefixUnknown        = "Unknown command"
)

// Console sends commands and parses responses. Commands are serialized.
type Console struct {
	rw     io.ReadWriter
	reader *bufio.Reader
	lock   sync.Mutex
}

// New creates a Console over an established stream.
func New(rw io.ReadWriter) *Console {
	return &Console{rw: rw, reader: bufio.NewReader(rw)}
}

// Open opens the serial port of the console.
func Open(name string, baud int, readTimeout time.Duration) (*Console, error) {
	port, err := serial.OpenPort(&serial.Config{
		Name:        name,
		Baud:        baud,
		ReadTimeout: readTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("open console %s: %w", name, err)
	}
	return New(port), nil
}

// Close closes the underlying stream if it's closable.
func (c *Console) Close() error {
	if closer, ok := c.rw.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// exchange sends command and returns the remainder of the first response
// line starting with one of prefixes.
func (c *Console) exchange(command string, prefixes ...string) (string, error) {
	c.lock.Lock()
	defer c.lock.Unlock()
	glog.V(3).Infof("console: SND %q", command)
	if _, err := io.WriteString(c.rw, command+"\r"); err != nil {
		return "", err
	}
	for {
		line, err := c.reader.ReadString('\n')
		line = strings.Trim(line, "\r\n ")
		if line != "" {
			glog.V(3).Infof("console: RCV %q", line)
			for _, prefix := range prefixes {
				if strings.HasPrefix(line, prefix) {
					return strings.TrimSpace(line[len(prefix):]), nil
				}
			}
			switch {
			case strings.HasPrefix(line, prefixUnknown):
				return "", fmt.Errorf("%q: %w", command, ErrUnknownCommand)
			case strings.HasPrefix(line, prefixInvalid):
				return "", fmt.Errorf("%q: %s: %w", command, line, ErrInvalidFormat)
			}
		}
		if err != nil {
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return "", fmt.Errorf("%q: %w", command, err)
		}
	}
}

func parseIPv4(str string) (net.IP, error) {
	ip := net.ParseIP(str).To4()
	if ip == nil {
		return nil, fmt.Errorf("invalid IPv4 address %q", str)
	}
	return ip, nil
}

// IP queries the configured address of the device.
func (c *Console) IP() (net.IP, error) {
	resp, err := c.exchange("ip", prefixIP)
	if err != nil {
		return nil, err
	}
	return parseIPv4(resp)
}

// SetIP changes the address. The device saves it and restarts.
func (c *Console) SetIP(ip net.IP) error {
	ip4 := ip.To4()
	if ip4 == nil {
		return fmt.Errorf("invalid IPv4 address %v", ip)
	}
	resp, err := c.exchange("ip "+ip4.String(), prefixIPChanged)
	if err != nil {
		return err
	}
	if changed, err := parseIPv4(resp); err != nil || !changed.Equal(ip4) {
		return fmt.Errorf("device reported IP changed to %q", resp)
	}
	return nil
}

// Timeout queries the network timeout of the device.
func (c *Console) Timeout() (time.Duration, error) {
	resp, err := c.exchange("timeout", prefixTimeout)
	if err != nil {
		return 0, err
	}
	us, err := strconv.Atoi(resp)
	if err != nil {
		return 0, fmt.Errorf("invalid timeout %q", resp)
	}
	return time.Duration(us) * time.Microsecond, nil
}

// SetTimeout changes the network timeout, in microsecond resolution.
func (c *Console) SetTimeout(d time.Duration) error {
	us := int(d / time.Microsecond)
	if us <= 0 {
		return fmt.Errorf("invalid timeout %v", d)
	}
	resp, err := c.exchange("timeout "+strconv.Itoa(us), prefixTimeoutChanged)
	if err != nil {
		return err
	}
	if resp != strconv.Itoa(us) {
		return fmt.Errorf("device reported timeout changed to %q", resp)
	}
	return nil
}

// Reset restarts the device once it acknowledged the command.
func (c *Console) Reset() error {
	_, err := c.exchange("reset", prefixCommand+"reset")
	return err
}
