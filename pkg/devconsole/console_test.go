package devconsole

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeFirmware answers the way the device console does.
type fakeFirmware struct {
	ip       net.IP
	timeout  int
	resets   int
	commands []string
	out      bytes.Buffer
}

func newFakeFirmware() *fakeFirmware {
	return &fakeFirmware{ip: net.IPv4(192, 168, 0, 177).To4(), timeout: 100000}
}

func (f *fakeFirmware) Write(b []byte) (int, error) {
	command := strings.TrimSuffix(string(b), "\r")
	f.commands = append(f.commands, command)
	fmt.Fprintf(&f.out, "%s\r\nCommand: %s\n", command, command)
	var a, b1, c, d, n int
	switch {
	case command == "ip":
		fmt.Fprintf(&f.out, "IP: %s\n", f.ip)
	case command == "timeout":
		fmt.Fprintf(&f.out, "Timeout: %d\n", f.timeout)
	case strings.HasPrefix(command, "timeout "):
		if _, err := fmt.Sscanf(command, "timeout %d", &n); err != nil {
			fmt.Fprintln(&f.out, "Invalid timeout format")
			break
		}
		f.timeout = n
		fmt.Fprintf(&f.out, "Timeout changed to %d\nSaving to flash, please reboot after save....\n", n)
		f.resets++
	case strings.HasPrefix(command, "ip "):
		if _, err := fmt.Sscanf(command, "ip %d.%d.%d.%d", &a, &b1, &c, &d); err != nil {
			fmt.Fprintln(&f.out, "Invalid IP format")
			break
		}
		f.ip = net.IPv4(byte(a), byte(b1), byte(c), byte(d)).To4()
		fmt.Fprintf(&f.out, "IP changed to %d.%d.%d.%d\nSaving to flash, please reboot after save....\n", a, b1, c, d)
		f.resets++
	case command == "reset":
		f.resets++
	default:
		fmt.Fprintln(&f.out, "Unknown command")
	}
	return len(b), nil
}

func (f *fakeFirmware) Read(b []byte) (int, error) {
	if f.out.Len() == 0 {
		return 0, io.EOF
	}
	return f.out.Read(b)
}

func TestConsoleQueries(t *testing.T) {
	fw := newFakeFirmware()
	c := New(fw)

	ip, err := c.IP()
	require.NoError(t, err)
	require.Equal(t, "192.168.0.177", ip.String())

	timeout, err := c.Timeout()
	require.NoError(t, err)
	require.Equal(t, 100*time.Millisecond, timeout)
	require.Equal(t, []string{"ip", "timeout"}, fw.commands)
	require.NoError(t, c.Close())
}

func TestConsoleChanges(t *testing.T) {
	fw := newFakeFirmware()
	c := New(fw)

	require.NoError(t, c.SetIP(net.ParseIP("10.0.0.7")))
	require.Equal(t, "10.0.0.7", fw.ip.String())
	require.NoError(t, c.SetTimeout(250*time.Millisecond))
	require.Equal(t, 250000, fw.timeout)
	require.NoError(t, c.Reset())
	require.Equal(t, 3, fw.resets)
	require.Equal(t, []string{"ip 10.0.0.7", "timeout 250000", "reset"}, fw.commands)
}

func TestConsoleInvalidArguments(t *testing.T) {
	c := New(newFakeFirmware())
	require.Error(t, c.SetIP(net.ParseIP("fe80::1")))
	require.Error(t, c.SetIP(nil))
	require.Error(t, c.SetTimeout(0))
	require.Error(t, c.SetTimeout(time.Nanosecond))
}

func TestConsoleErrors(t *testing.T) {
	fw := newFakeFirmware()
	c := New(fw)

	_, err := c.exchange("bogus", prefixIP)
	require.True(t, errors.Is(err, ErrUnknownCommand))

	_, err = c.exchange("ip x.y", prefixIPChanged)
	require.True(t, errors.Is(err, ErrInvalidFormat))

	// nothing more to read
	_, err = New(&bytes.Buffer{}).IP()
	require.True(t, errors.Is(err, io.ErrUnexpectedEOF))
}

func TestConsoleSkipsNoise(t *testing.T) {
	var sent bytes.Buffer
	c := New(&readWriter{
		Reader: strings.NewReader("boot\r\n\r\nip\r\nCommand: ip\r\nIP: 10.1.2.3\r\n"),
		Writer: &sent,
	})
	ip, err := c.IP()
	require.NoError(t, err)
	require.Equal(t, "10.1.2.3", ip.String())
	require.Equal(t, "ip\r", sent.String())
}

type readWriter struct {
	io.Reader
	io.Writer
}

func TestConfigOpenRequiresDevice(t *testing.T) {
	conf := Config{Baud: 115200}
	_, err := conf.Open()
	require.Error(t, err)
}
