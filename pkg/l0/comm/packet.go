package comm

import (
	"github.com/robotalks/iosamurai/pkg/l0/checksum"
)

// Packet sizes on the wire.
const (
	RequestSize  = 3
	ResponseSize = 5

	// MaxDatagramSize is the receive buffer size. It's larger than any
	// valid packet so oversized datagrams are detected rather than
	// silently truncated.
	MaxDatagramSize = 512
)

// Request is the packet sent from the host to the device.
type Request struct {
	Outputs  uint16
	Checksum byte
}

// Payload returns the bytes covered by the checksum, in wire order.
func (r *Request) Payload() []byte {
	return []byte{byte(r.Outputs), byte(r.Outputs >> 8)}
}

// Seal computes Checksum with the cursor, advancing it.
func (r *Request) Seal(c *checksum.Cursor) *Request {
	r.Checksum = c.NextBytes(r.Payload()...)
	return r
}

// Verify advances the cursor and checks Checksum against it.
func (r *Request) Verify(c *checksum.Cursor) error {
	if expected := c.NextBytes(r.Payload()...); expected != r.Checksum {
		return &ChecksumMismatchError{Expected: expected, Got: r.Checksum, Packet: r.Bytes()}
	}
	return nil
}

// Bytes encodes the packet.
func (r *Request) Bytes() []byte {
	return append(r.Payload(), r.Checksum)
}

// ParseRequest decodes a request packet.
func ParseRequest(b []byte) (*Request, error) {
	if len(b) != RequestSize {
		return nil, &MalformedError{Len: len(b), Expect: RequestSize}
	}
	return &Request{Outputs: uint16(b[0]) | uint16(b[1])<<8, Checksum: b[2]}, nil
}

// Response is the packet sent from the device to the host.
type Response struct {
	Inputs   uint32
	Checksum byte
}

// Payload returns the bytes covered by the checksum, most significant
// first. This is the reverse of the order on the wire.
func (r *Response) Payload() []byte {
	return []byte{byte(r.Inputs >> 24), byte(r.Inputs >> 16), byte(r.Inputs >> 8), byte(r.Inputs)}
}

// Seal computes Checksum with the cursor, advancing it.
func (r *Response) Seal(c *checksum.Cursor) *Response {
	r.Checksum = c.NextBytes(r.Payload()...)
	return r
}

// Verify advances the cursor and checks Checksum against it.
func (r *Response) Verify(c *checksum.Cursor) error {
	if expected := c.NextBytes(r.Payload()...); expected != r.Checksum {
		return &ChecksumMismatchError{Expected: expected, Got: r.Checksum, Packet: r.Bytes()}
	}
	return nil
}

// Bytes encodes the packet.
func (r *Response) Bytes() []byte {
	return []byte{
		byte(r.Inputs),
		byte(r.Inputs >> 8),
		byte(r.Inputs >> 16),
		byte(r.Inputs >> 24),
		r.Checksum,
	}
}

// ParseResponse decodes a response packet.
func ParseResponse(b []byte) (*Response, error) {
	if len(b) != ResponseSize {
		return nil, &MalformedError{Len: len(b), Expect: ResponseSize}
	}
	return &Response{
		Inputs:   uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24,
		Checksum: b[4],
	}, nil
}
