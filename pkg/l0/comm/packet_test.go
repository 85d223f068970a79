package comm

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/iosamurai/pkg/l0/checksum"
)

func testTable() *checksum.Table {
	var entries [checksum.TableSize]byte
	for i := range entries {
		entries[i] = byte(i*167 + 89)
	}
	return checksum.NewTable(entries)
}

func TestRequestEncoding(t *testing.T) {
	table := testTable()
	req := (&Request{Outputs: 0x0155}).Seal(checksum.NewCursor(table))
	// index 1 + (0x55 + 0x01 + 1)
	require.Equal(t, []byte{0x55, 0x01, table.At(1 + 0x57)}, req.Bytes())

	parsed, err := ParseRequest(req.Bytes())
	require.NoError(t, err)
	require.Equal(t, req, parsed)
	require.NoError(t, parsed.Verify(checksum.NewCursor(table)))
}

func TestResponseChecksumByteOrder(t *testing.T) {
	resp := &Response{Inputs: 0x04030201}
	require.Equal(t, []byte{0x01, 0x02, 0x03, 0x04, 0}, resp.Bytes(), "wire order is least significant first")
	require.Equal(t, []byte{0x04, 0x03, 0x02, 0x01}, resp.Payload(), "checksum order is most significant first")

	table := testTable()
	resp.Seal(checksum.NewCursor(table))
	require.Equal(t, table.At(1+0x04+0x03+0x02+0x01+1), resp.Checksum)
}

func TestParseResponse(t *testing.T) {
	resp, err := ParseResponse([]byte{0x78, 0x56, 0x34, 0x12, 0xaa})
	require.NoError(t, err)
	require.Equal(t, uint32(0x12345678), resp.Inputs)
	require.Equal(t, byte(0xaa), resp.Checksum)

	for _, n := range []int{0, 4, 6} {
		_, err = ParseResponse(make([]byte, n))
		var malformed *MalformedError
		require.True(t, errors.As(err, &malformed))
		require.Equal(t, n, malformed.Len)
		require.True(t, IsTransient(err))
	}
}

func TestVerifyMismatch(t *testing.T) {
	table := testTable()
	resp := (&Response{Inputs: 0x11223344}).Seal(checksum.NewCursor(table))
	resp.Checksum++
	err := resp.Verify(checksum.NewCursor(table))
	var mismatch *ChecksumMismatchError
	require.True(t, errors.As(err, &mismatch))
	require.Equal(t, resp.Checksum-1, mismatch.Expected)
	require.Equal(t, resp.Checksum, mismatch.Got)
	require.True(t, errors.Is(err, ErrChecksumMismatch))
	require.False(t, IsTransient(err))
}
