package comm

import (
	"errors"
	"fmt"

	fx "github.com/robotalks/iosamurai/pkg/framework"
)

var (
	// ErrTimeout indicates no response arrived within the receive timeout.
	ErrTimeout = errors.New("no response from device")
	// ErrMalformed is the category of *MalformedError.
	ErrMalformed = errors.New("malformed packet")
	// ErrChecksumMismatch is the category of *ChecksumMismatchError.
	ErrChecksumMismatch = errors.New("checksum mismatch")
)

// MalformedError reports a datagram of the wrong size.
type MalformedError struct {
	Len    int
	Expect int
}

// Error implements error.
func (e *MalformedError) Error() string {
	return fmt.Sprintf("invalid packet size: %d bytes, expect %d", e.Len, e.Expect)
}

// Unwrap returns ErrMalformed.
func (e *MalformedError) Unwrap() error {
	return ErrMalformed
}

// ChecksumMismatchError indicates the checksum cursors of host and device
// went out of sync. It doesn't recover by itself: both ends must reset
// their cursors before packets validate again.
type ChecksumMismatchError struct {
	Expected byte
	Got      byte
	Packet   []byte
}

// Error implements error.
func (e *ChecksumMismatchError) Error() string {
	return fmt.Sprintf("checksum error: expected %02X, got %02X (packet % X)", e.Expected, e.Got, e.Packet)
}

// Unwrap returns ErrChecksumMismatch.
func (e *ChecksumMismatchError) Unwrap() error {
	return ErrChecksumMismatch
}

// TransportError wraps a socket level failure.
type TransportError struct {
	Op  string
	Err error
}

// Error implements error.
func (e *TransportError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

// Unwrap returns the socket error.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsTransient tells whether err is expected during normal operation
// (a missed or truncated datagram) and the next cycle may simply retry.
func IsTransient(err error) bool {
	if agg, ok := err.(*fx.AggregatedError); ok {
		for _, e := range agg.Errors {
			if !IsTransient(e) {
				return false
			}
		}
		return len(agg.Errors) > 0
	}
	return errors.Is(err, ErrTimeout) || errors.Is(err, ErrMalformed)
}
