// Package sim emulates an io-samurai device for tests and bench setups.
package sim

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/golang/glog"

	fx "github.com/robotalks/iosamurai/pkg/framework"
	"github.com/robotalks/iosamurai/pkg/l0/checksum"
	"github.com/robotalks/iosamurai/pkg/l0/comm"
	"github.com/robotalks/iosamurai/pkg/l0/regs"
)

// Device behaves like the device firmware on the wire.
// It validates requests with its mirror of the host's outbound cursor
// and seals responses with its own outbound cursor. Once a request
// fails validation the device stops checking and keeps its outputs
// cleared until Reset, like the firmware does.
type Device struct {
	reqCursor  *checksum.Cursor
	respCursor *checksum.Cursor

	// rx holds the last request bytes. A short datagram only overwrites
	// its head, the rest is left from earlier requests.
	rx                [comm.RequestSize]byte
	inactivityTimeout time.Duration
	lastRequest       time.Time
	now               func() time.Time

	outputs       uint16
	inputs        uint32
	checksumError bool
	requests      uint64
	dropNext      int

	lock sync.Mutex
}

// NewDevice creates a Device with fresh cursors.
func NewDevice(table *checksum.Table) *Device {
	return &Device{
		reqCursor:  checksum.NewCursor(table),
		respCursor: checksum.NewCursor(table),
		now:        time.Now,
	}
}

// WithInactivityTimeout makes the device reset both cursors when no
// datagram arrived for longer than timeout. The sticky checksum error
// is kept. 0 disables it.
func (d *Device) WithInactivityTimeout(timeout time.Duration) *Device {
	d.lock.Lock()
	d.inactivityTimeout = timeout
	d.lock.Unlock()
	return d
}

// Handle processes one request datagram and returns the response,
// or nil if the response is dropped.
// Every datagram is answered. Any non-empty datagram is checked and
// moves the request cursor, so one of the wrong size desyncs the
// cursors just like on the firmware.
func (d *Device) Handle(packet []byte) []byte {
	d.lock.Lock()
	defer d.lock.Unlock()
	now := d.now()
	if d.inactivityTimeout > 0 && !d.lastRequest.IsZero() && now.Sub(d.lastRequest) > d.inactivityTimeout {
		glog.Warningf("device: idle for %v, checksum cursors reset", now.Sub(d.lastRequest))
		d.reqCursor.Reset()
		d.respCursor.Reset()
	}
	d.requests++
	if len(packet) > 0 {
		d.lastRequest = now
		if len(packet) != comm.RequestSize {
			glog.Warningf("device: %v", &comm.MalformedError{Len: len(packet), Expect: comm.RequestSize})
		}
		copy(d.rx[:], packet)
		if !d.checksumError {
			req, _ := comm.ParseRequest(d.rx[:])
			if err := req.Verify(d.reqCursor); err != nil {
				glog.Errorf("device: %v", err)
				d.checksumError, d.outputs = true, 0
			} else {
				d.outputs = req.Outputs
			}
		}
	}
	resp := (&comm.Response{Inputs: d.inputs}).Seal(d.respCursor)
	if d.dropNext > 0 {
		d.dropNext--
		return nil
	}
	return resp.Bytes()
}

// DropResponses makes the next n responses get lost after being sealed,
// as if the datagrams never arrived.
func (d *Device) DropResponses(n int) {
	d.lock.Lock()
	d.dropNext = n
	d.lock.Unlock()
}

// Outputs returns the last validated outputs.
func (d *Device) Outputs() uint16 {
	d.lock.Lock()
	defer d.lock.Unlock()
	return d.outputs
}

// LowPassFilter tells whether the host asked for analog smoothing.
func (d *Device) LowPassFilter() bool {
	return d.Outputs()&(1<<regs.LowPassFilterBit) != 0
}

// SetInputs replaces the whole input register.
func (d *Device) SetInputs(val uint32) {
	d.lock.Lock()
	d.inputs = val
	d.lock.Unlock()
}

// SetDigitalInputs replaces input bits 0-15.
func (d *Device) SetDigitalInputs(val uint16) {
	d.lock.Lock()
	d.inputs = d.inputs&0xffff0000 | uint32(val)
	d.lock.Unlock()
}

// SetAnalog replaces the analog sample in input bits 16-31.
func (d *Device) SetAnalog(sample uint16) {
	d.lock.Lock()
	d.inputs = d.inputs&0xffff | uint32(sample)<<16
	d.lock.Unlock()
}

// ChecksumError tells whether a request failed validation.
func (d *Device) ChecksumError() bool {
	d.lock.Lock()
	defer d.lock.Unlock()
	return d.checksumError
}

// Requests returns the number of datagrams handled.
func (d *Device) Requests() uint64 {
	d.lock.Lock()
	defer d.lock.Unlock()
	return d.requests
}

// Reset resets cursors and clears the checksum error, like a reboot.
func (d *Device) Reset() {
	d.lock.Lock()
	d.reqCursor.Reset()
	d.respCursor.Reset()
	d.checksumError, d.outputs, d.dropNext = false, 0, 0
	d.rx, d.lastRequest = [comm.RequestSize]byte{}, time.Time{}
	d.lock.Unlock()
}

// Server serves a Device over UDP.
type Server struct {
	Device *Device
	conn   *net.UDPConn
}

// Listen binds addr (e.g. ":8888") for the device.
func Listen(device *Device, addr string) (*Server, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, err
	}
	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return nil, err
	}
	return &Server{Device: device, conn: conn}, nil
}

// Addr returns the bound address.
func (s *Server) Addr() *net.UDPAddr {
	return s.conn.LocalAddr().(*net.UDPAddr)
}

// Name implements framework.Named.
func (s *Server) Name() string {
	return "device@" + s.Addr().String()
}

// Run implements framework.Runnable. It closes the socket when ctx is
// done.
func (s *Server) Run(ctx context.Context) error {
	return fx.RunWithContextCloser(ctx, s.conn, func() error {
		buf := make([]byte, comm.MaxDatagramSize)
		for {
			n, from, err := s.conn.ReadFromUDP(buf)
			if err != nil {
				return err
			}
			resp := s.Device.Handle(buf[:n])
			if resp == nil {
				continue
			}
			if _, err = s.conn.WriteToUDP(resp, from); err != nil {
				glog.Warningf("device: reply to %s: %v", from, err)
			}
		}
	})
}
