package regs

import "math"

// DefaultFilterAlpha is the weight of a new sample in the host side
// low-pass filter.
const DefaultFilterAlpha = 0.1

// LinearScale maps [InMin, InMax] onto [OutMin, OutMax] linearly.
// Values outside the input range are extrapolated.
type LinearScale struct {
	InMin, InMax   float64
	OutMin, OutMax float64
}

// ADCCalibration maps the usable span of the device ADC (14-4089)
// onto the full native range.
var ADCCalibration = LinearScale{InMin: 14, InMax: 4089, OutMin: 0, OutMax: AnalogNativeMax}

// Apply maps x.
func (s LinearScale) Apply(x float64) float64 {
	return (x-s.InMin)/(s.InMax-s.InMin)*(s.OutMax-s.OutMin) + s.OutMin
}

// Conditioner turns raw analog samples into engineering values.
// The sample is masked to 12 bits, mapped to [Min, Max],
// optionally smoothed with an exponential moving average and rounded.
type Conditioner struct {
	Min, Max float64
	LowPass  bool
	Alpha    float64
	Rounding bool

	value  float64
	primed bool
}

// NewConditioner creates a Conditioner mapping to [min, max].
func NewConditioner(min, max float64) *Conditioner {
	return &Conditioner{Min: min, Max: max, Alpha: DefaultFilterAlpha}
}

// Condition feeds a raw sample and returns the conditioned value.
func (c *Conditioner) Condition(sample uint16) float64 {
	val := float64(sample&0xfff)/AnalogNativeMax*(c.Max-c.Min) + c.Min
	if c.LowPass {
		if c.primed {
			alpha := c.Alpha
			if alpha <= 0 || alpha > 1 {
				alpha = DefaultFilterAlpha
			}
			val = alpha*val + (1-alpha)*c.value
		}
		c.primed = true
	}
	// the filter keeps running on unrounded values
	c.value = val
	if c.Rounding {
		return math.Round(val)
	}
	return val
}

// Value returns the last conditioned value, rounded if Rounding is set.
func (c *Conditioner) Value() float64 {
	if c.Rounding {
		return math.Round(c.value)
	}
	return c.value
}

// IntValue returns Value truncated to an integer.
func (c *Conditioner) IntValue() int32 {
	return int32(c.Value())
}

// Reset forgets filter history.
func (c *Conditioner) Reset() {
	c.value, c.primed = 0, false
}
