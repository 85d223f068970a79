package checksum

import (
	"bytes"
	"fmt"
	"io"
	"io/ioutil"
	"regexp"
	"strconv"
	"strings"

	"github.com/howeyc/crc16"
)

// TableSize is the number of entries in a checksum table.
const TableSize = 256

// Table is the lookup table shared by the host and the device.
// Its contents are defined by the device firmware and are carried over
// byte for byte, they can't be derived. A Table is never mutated after
// it's created.
type Table struct {
	entries [TableSize]byte
}

var (
	fingerprintTable = crc16.MakeTable(crc16.CCITTFalse)

	blockComment = regexp.MustCompile(`(?s)/\*.*?\*/`)
	lineComment  = regexp.MustCompile(`//[^\n]*`)
)

// NewTable creates a Table from entries.
func NewTable(entries [TableSize]byte) *Table {
	return &Table{entries: entries}
}

// TableFromBytes creates a Table from exactly TableSize bytes.
func TableFromBytes(b []byte) (*Table, error) {
	if len(b) != TableSize {
		return nil, fmt.Errorf("checksum table requires %d entries, got %d", TableSize, len(b))
	}
	t := &Table{}
	copy(t.entries[:], b)
	return t, nil
}

// ParseTable parses the textual form of a table.
// It accepts the C initializer used by the firmware headers
// (e.g. `const uint8_t jump_table[256] = { 0x12, 0x34, ... };`)
// as well as a plain list of numbers separated by commas or spaces.
// Numbers may be decimal, hex (0x) or octal (leading 0), as in C.
func ParseTable(r io.Reader) (*Table, error) {
	data, err := ioutil.ReadAll(r)
	if err != nil {
		return nil, err
	}
	text := blockComment.ReplaceAllString(string(data), " ")
	text = lineComment.ReplaceAllString(text, " ")
	if start := strings.Index(text, "{"); start >= 0 {
		end := strings.LastIndex(text, "}")
		if end < start {
			return nil, fmt.Errorf("checksum table: unbalanced braces")
		}
		text = text[start+1 : end]
	}
	tokens := strings.FieldsFunc(text, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == ';'
	})
	if len(tokens) != TableSize {
		return nil, fmt.Errorf("checksum table requires %d entries, got %d", TableSize, len(tokens))
	}
	t := &Table{}
	for n, token := range tokens {
		val, err := strconv.ParseUint(strings.TrimRight(token, "uU"), 0, 8)
		if err != nil {
			return nil, fmt.Errorf("checksum table entry %d %q: %v", n, token, err)
		}
		t.entries[n] = byte(val)
	}
	return t, nil
}

// LoadTableFile loads a table from a file.
// A file of exactly TableSize bytes is taken as the raw binary table,
// anything else is parsed with ParseTable.
func LoadTableFile(fn string) (*Table, error) {
	data, err := ioutil.ReadFile(fn)
	if err != nil {
		return nil, err
	}
	if len(data) == TableSize {
		return TableFromBytes(data)
	}
	t, err := ParseTable(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %v", fn, err)
	}
	return t, nil
}

// At returns the entry at index.
func (t *Table) At(index byte) byte {
	return t.entries[index]
}

// Bytes returns a copy of the entries.
func (t *Table) Bytes() []byte {
	b := make([]byte, TableSize)
	copy(b, t.entries[:])
	return b
}

// Fingerprint is a CRC16 (CCITT-FALSE) over the entries, useful to
// confirm both ends were built with the same table.
func (t *Table) Fingerprint() uint16 {
	return crc16.Checksum(t.entries[:], fingerprintTable)
}

// String implements fmt.Stringer.
func (t *Table) String() string {
	return fmt.Sprintf("table[%04x]", t.Fingerprint())
}
