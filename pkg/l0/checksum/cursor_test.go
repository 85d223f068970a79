package checksum

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func testTable() *Table {
	var entries [TableSize]byte
	for i := range entries {
		entries[i] = byte(i*167 + 89)
	}
	return NewTable(entries)
}

func TestCursorAdvance(t *testing.T) {
	table := testTable()
	for a := 0; a < 256; a++ {
		for b := 0; b < 256; b++ {
			c := NewCursor(table)
			c.index = byte(a ^ b)
			before := c.index
			sum, err := c.Next(a, b)
			require.NoError(t, err)
			require.Equalf(t, byte(int(before)+(a+b+1)%256), c.Index(), "index after [%d %d]", a, b)
			require.Equal(t, table.At(c.Index()), sum)
		}
	}
}

func TestCursorStartsAtInitialIndex(t *testing.T) {
	c := NewCursor(testTable())
	require.Equal(t, InitialIndex, c.Index())
	c.NextBytes(0x10, 0x20)
	require.NotEqual(t, InitialIndex, c.Index())
	c.Reset()
	require.Equal(t, InitialIndex, c.Index())
}

func TestCursorDeterministic(t *testing.T) {
	payloads := [][]byte{
		{0, 0},
		{0xff, 0xff},
		{0x12, 0x34, 0x56, 0x78},
		{1},
		{},
		{0x80, 0x7f},
	}
	run := func() []byte {
		c := NewCursor(testTable())
		var sums []byte
		for _, p := range payloads {
			sums = append(sums, c.NextBytes(p...))
		}
		return sums
	}
	require.Equal(t, run(), run())
}

func TestCursorRejectsOutOfRange(t *testing.T) {
	testCases := []struct {
		name   string
		values []int
		pos    int
	}{
		{"negative", []int{-1, 0}, 0},
		{"too large", []int{0, 256}, 1},
		{"inbound form", []int{1, 2, 3, 300}, 3},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := NewCursor(testTable())
			_, err := c.Next(tc.values...)
			require.Error(t, err)
			require.True(t, errors.Is(err, ErrInvalidInput))
			var rangeErr *InputRangeError
			require.True(t, errors.As(err, &rangeErr))
			require.Equal(t, tc.pos, rangeErr.Pos)
			require.Equal(t, InitialIndex, c.Index(), "cursor must not move on invalid input")
		})
	}
}

func TestCursorWrapsAround(t *testing.T) {
	c := NewCursor(testTable())
	// 1 + (0xff+0xff+1)%256 = 1 + 0xff = 0
	c.NextBytes(0xff, 0xff)
	require.Equal(t, byte(0), c.Index())
}

func TestStepIsOrderIndependent(t *testing.T) {
	require.Equal(t, Step(1, 2, 3, 4), Step(4, 3, 2, 1))
	require.Equal(t, byte(11), Step(1, 2, 3, 4))
	require.Equal(t, byte(1), Step())
}
