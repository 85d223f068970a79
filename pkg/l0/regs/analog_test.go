package regs

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLinearScale(t *testing.T) {
	testCases := []struct {
		in     float64
		expect float64
	}{
		{14, 0},
		{4089, 4095},
		// midpoint of the input span lands on the midpoint of the output span
		{2051.5, 2047.5},
	}
	for _, tc := range testCases {
		require.InDeltaf(t, tc.expect, ADCCalibration.Apply(tc.in), 1e-9, "scale(%v)", tc.in)
	}
}

func TestConditioner(t *testing.T) {
	testCases := []struct {
		name    string
		setup   func(*Conditioner)
		samples []uint16
		expect  float64
	}{
		{
			name:    "full scale",
			samples: []uint16{4095},
			expect:  100,
		},
		{
			name:    "zero",
			samples: []uint16{0},
			expect:  -100,
		},
		{
			name:    "upper bits masked",
			samples: []uint16{0xf000 | 4095},
			expect:  100,
		},
		{
			name:    "rounding",
			setup:   func(c *Conditioner) { c.Rounding = true },
			samples: []uint16{2048},
			expect:  0,
		},
		{
			name:    "low pass first sample passes through",
			setup:   func(c *Conditioner) { c.LowPass = true },
			samples: []uint16{4095},
			expect:  100,
		},
		{
			name:    "low pass step",
			setup:   func(c *Conditioner) { c.LowPass = true },
			samples: []uint16{0, 4095},
			expect:  -100 + 0.1*200,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := NewConditioner(-100, 100)
			if tc.setup != nil {
				tc.setup(c)
			}
			var val float64
			for _, s := range tc.samples {
				val = c.Condition(s)
			}
			require.InDelta(t, tc.expect, val, 1e-9)
			require.InDelta(t, tc.expect, c.Value(), 1e-9)
		})
	}
}

func TestConditionerReset(t *testing.T) {
	c := NewConditioner(0, 10)
	c.LowPass = true
	c.Condition(0)
	c.Reset()
	require.InDelta(t, 10, c.Condition(4095), 1e-9)
	require.Equal(t, int32(10), c.IntValue())
}
