package checksum

import (
	"errors"
	"fmt"
)

// InitialIndex is the cursor index both ends start from.
const InitialIndex byte = 1

// ErrInvalidInput indicates a payload value out of the byte range.
var ErrInvalidInput = errors.New("invalid input")

// InputRangeError reports a payload value which is not a byte.
type InputRangeError struct {
	Pos   int
	Value int
}

// Error implements error.
func (e *InputRangeError) Error() string {
	return fmt.Sprintf("payload[%d] = %d out of range [0, 255]", e.Pos, e.Value)
}

// Unwrap returns ErrInvalidInput.
func (e *InputRangeError) Unwrap() error {
	return ErrInvalidInput
}

// Cursor is the running index into a Table.
// Every computed checksum advances the index and there's no way back,
// so a cursor stays in lockstep with its mirror on the peer only if
// both sides compute exactly the same sequence of payloads.
type Cursor struct {
	table *Table
	index byte
}

// NewCursor creates a Cursor at InitialIndex.
func NewCursor(table *Table) *Cursor {
	return &Cursor{table: table, index: InitialIndex}
}

// Step returns the amount the index advances for a payload.
func Step(payload ...byte) byte {
	var sum byte
	for _, b := range payload {
		sum += b
	}
	return sum + 1
}

// Index returns the current index.
func (c *Cursor) Index() byte {
	return c.index
}

// Table returns the table in use.
func (c *Cursor) Table() *Table {
	return c.table
}

// Reset moves the cursor back to InitialIndex.
func (c *Cursor) Reset() {
	c.index = InitialIndex
}

// NextBytes advances the cursor with payload and returns the checksum.
func (c *Cursor) NextBytes(payload ...byte) byte {
	c.index += Step(payload...)
	return c.table.At(c.index)
}

// Next is NextBytes for values not known to fit in a byte.
// All values are checked before the cursor is touched, and an
// out-of-range value fails with an *InputRangeError.
func (c *Cursor) Next(values ...int) (byte, error) {
	payload := make([]byte, len(values))
	for n, val := range values {
		if val < 0 || val > 0xff {
			return 0, &InputRangeError{Pos: n, Value: val}
		}
		payload[n] = byte(val)
	}
	return c.NextBytes(payload...), nil
}
