package regs

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOutputBits(t *testing.T) {
	for bit := 0; bit < OutputBits; bit++ {
		r := New()
		r.SetOutputs(0xa5a5)
		before := r.Outputs()

		require.NoError(t, r.SetOutput(bit, true))
		on, err := r.Output(bit)
		require.NoError(t, err)
		require.Truef(t, on, "bit %d", bit)
		require.Equal(t, before|1<<uint(bit), r.Outputs(), "other bits unaffected")

		require.NoError(t, r.SetOutput(bit, false))
		on, err = r.Output(bit)
		require.NoError(t, err)
		require.Falsef(t, on, "bit %d", bit)
		require.Equal(t, before&^(1<<uint(bit)), r.Outputs(), "other bits unaffected")
	}
}

func TestToggleOutput(t *testing.T) {
	r := New()
	on, err := r.ToggleOutput(3)
	require.NoError(t, err)
	require.True(t, on)
	on, err = r.ToggleOutput(3)
	require.NoError(t, err)
	require.False(t, on)
	require.Equal(t, uint16(0), r.Outputs())
}

func TestBitRange(t *testing.T) {
	r := New()
	testCases := []struct {
		name string
		fn   func() error
	}{
		{"set output 16", func() error { return r.SetOutput(16, true) }},
		{"set output -1", func() error { return r.SetOutput(-1, true) }},
		{"get output 16", func() error { _, err := r.Output(16); return err }},
		{"toggle output 99", func() error { _, err := r.ToggleOutput(99); return err }},
		{"get input 32", func() error { _, err := r.Input(32); return err }},
		{"get input -1", func() error { _, err := r.Input(-1); return err }},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.fn()
			require.Error(t, err)
			require.True(t, errors.Is(err, ErrBitRange))
		})
	}
	require.Equal(t, uint16(0), r.Outputs(), "no wraparound")
}

func TestInputBits(t *testing.T) {
	r := New()
	r.SetInputs(0x80000001)
	on, err := r.Input(0)
	require.NoError(t, err)
	require.True(t, on)
	on, err = r.Input(31)
	require.NoError(t, err)
	require.True(t, on)
	on, err = r.Input(15)
	require.NoError(t, err)
	require.False(t, on)
}

func TestAnalogInput(t *testing.T) {
	r := New()
	r.SetInputs(0x12345678)
	require.Equal(t, uint16(0x1234), r.AnalogSample())
	require.Equal(t, 4660.0, r.AnalogInput())

	r.SetAnalogScale(240)
	require.InDelta(t, 4660*240.0/4095, r.AnalogInput(), 1e-9)

	r.SetInputs(0x0fff0000)
	require.InDelta(t, 240, r.AnalogInput(), 1e-9)
}

func TestLowPassFilterFlag(t *testing.T) {
	r := New()
	r.SetOutput(0, true)
	r.EnableLowPassFilter()
	require.True(t, r.LowPassFilter())
	require.Equal(t, uint16(0x0101), r.Outputs())
	r.DisableLowPassFilter()
	require.False(t, r.LowPassFilter())
	require.Equal(t, uint16(0x0001), r.Outputs())

	r.SetDisplayOff(true)
	require.Equal(t, uint16(0x0201), r.Outputs())
}

func TestSnapshotEncoding(t *testing.T) {
	r := New()
	r.SetOutputs(0x0102)
	r.SetInputs(0x0fff00aa)
	s := r.Snapshot()
	s.Connected, s.State = true, "validated"
	require.Equal(t, 4095.0, s.Analog)

	str, err := s.JSON()
	require.NoError(t, err)
	parsed, err := ParseSnapshotJSON(str)
	require.NoError(t, err)
	require.Equal(t, s, parsed)

	_, err = ParseSnapshotJSON(`{"outputs": 70000}`)
	require.Error(t, err)
	_, err = ParseSnapshotJSON(`not json`)
	require.Error(t, err)
}
