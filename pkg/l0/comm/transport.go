package comm

import (
	"net"
	"time"

	"github.com/golang/glog"
	"golang.org/x/net/ipv4"
)

// Transport moves single datagrams to and from one peer.
type Transport interface {
	// Send transmits one datagram to the peer.
	Send([]byte) error
	// Receive waits up to timeout for one datagram and reads it into buf.
	// It fails with ErrTimeout when nothing arrives in time.
	Receive(buf []byte, timeout time.Duration) (int, net.Addr, error)
	// Close releases the underlying socket.
	Close() error
}

// UDPTransport implements Transport over a bound UDP socket.
// Only one UDPTransport can receive on a local port, so sessions for
// different devices need different local ports.
type UDPTransport struct {
	conn   *net.UDPConn
	remote *net.UDPAddr
}

// ListenUDP binds localPort on all interfaces and sends to remote.
// localPort 0 picks an ephemeral port. A non-zero tos sets the IP TOS
// byte of outgoing datagrams.
func ListenUDP(remote *net.UDPAddr, localPort int, tos int) (*UDPTransport, error) {
	conn, err := net.ListenUDP("udp", &net.UDPAddr{Port: localPort})
	if err != nil {
		return nil, &TransportError{Op: "listen", Err: err}
	}
	if tos != 0 {
		if err := ipv4.NewConn(conn).SetTOS(tos); err != nil {
			conn.Close()
			return nil, &TransportError{Op: "set tos", Err: err}
		}
	}
	glog.V(1).Infof("listening on %s, peer %s", conn.LocalAddr(), remote)
	return &UDPTransport{conn: conn, remote: remote}, nil
}

// LocalAddr returns the bound address.
func (t *UDPTransport) LocalAddr() *net.UDPAddr {
	return t.conn.LocalAddr().(*net.UDPAddr)
}

// RemoteAddr returns the peer address.
func (t *UDPTransport) RemoteAddr() *net.UDPAddr {
	return t.remote
}

// Send implements Transport.
func (t *UDPTransport) Send(b []byte) error {
	if _, err := t.conn.WriteToUDP(b, t.remote); err != nil {
		return &TransportError{Op: "send", Err: err}
	}
	return nil
}

// Receive implements Transport.
func (t *UDPTransport) Receive(buf []byte, timeout time.Duration) (int, net.Addr, error) {
	if err := t.conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return 0, nil, &TransportError{Op: "receive", Err: err}
	}
	n, addr, err := t.conn.ReadFromUDP(buf)
	if err != nil {
		if ne, ok := err.(net.Error); ok && ne.Timeout() {
			return 0, nil, ErrTimeout
		}
		return 0, nil, &TransportError{Op: "receive", Err: err}
	}
	return n, addr, nil
}

// Close implements Transport.
func (t *UDPTransport) Close() error {
	return t.conn.Close()
}
