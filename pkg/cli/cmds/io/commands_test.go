package io

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/iosamurai/pkg/l0/regs"
)

func TestSetOutput(t *testing.T) {
	r := regs.New()
	require.NoError(t, SetOutput(r, 2, "on"))
	require.Equal(t, uint16(0x4), r.Outputs())
	require.NoError(t, SetOutput(r, 2, "toggle"))
	require.NoError(t, SetOutput(r, 15, "toggle"))
	require.Equal(t, uint16(0x8000), r.Outputs())
	require.NoError(t, SetOutput(r, 15, "off"))
	require.Equal(t, uint16(0), r.Outputs())

	require.Error(t, SetOutput(r, 1, "flip"))
	require.True(t, errors.Is(SetOutput(r, 16, "on"), regs.ErrBitRange))
	require.True(t, errors.Is(SetOutput(r, -1, "toggle"), regs.ErrBitRange))
}

func TestParseBit(t *testing.T) {
	bit, err := parseBit("31", regs.InputBits)
	require.NoError(t, err)
	require.Equal(t, 31, bit)
	for _, str := range []string{"32", "-1", "x", ""} {
		_, err = parseBit(str, regs.InputBits)
		require.Error(t, err, str)
	}
}
