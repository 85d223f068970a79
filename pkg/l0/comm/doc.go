// Package comm provides the host side of the io-samurai UDP protocol.
package comm

// The protocol is a fixed-size request/response exchange between a host
// and an I/O device over UDP, one datagram each way per cycle.
//
//   host -> device (3 bytes): outputs low, outputs high, checksum
//   device -> host (5 bytes): inputs bits 0-7, 8-15, 16-23, 24-31, checksum
//
// There are no sequence numbers. Instead each direction is protected by a
// checksum drawn from a shared table through a cursor whose index advances
// with every packet (see package checksum). Both ends keep a mirror of the
// other's cursor, so every exchange must be seen exactly once by both
// sides. A lost or duplicated packet shows up as a checksum mismatch on
// every later packet until both cursors are reset.
//
// The response checksum is computed over the input bytes most significant
// first (b3, b2, b1, b0), the reverse of their order on the wire.
//
// Producer: host (Session)
// Consumer: device firmware (mirrored by package sim)
