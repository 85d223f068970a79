package regs

import (
	"errors"
	"fmt"
	"sync"
)

// Register widths and reserved bits.
const (
	OutputBits = 16
	InputBits  = 32

	// LowPassFilterBit asks the device to smooth its analog sampling.
	LowPassFilterBit = 8
	// DisplayOffBit turns off the display on the device.
	DisplayOffBit = 9

	// AnalogNativeMax is the full scale of the device ADC.
	AnalogNativeMax = 4095
	// DefaultAnalogScale keeps analog readings in the native range.
	DefaultAnalogScale float64 = AnalogNativeMax
)

// ErrBitRange indicates a bit index beyond the register width.
var ErrBitRange = errors.New("bit out of range")

// BitRangeError reports the offending bit index.
type BitRangeError struct {
	Register string
	Bit      int
	Width    int
}

// Error implements error.
func (e *BitRangeError) Error() string {
	return fmt.Sprintf("%s bit %d out of range [0, %d)", e.Register, e.Bit, e.Width)
}

// Unwrap returns ErrBitRange.
func (e *BitRangeError) Unwrap() error {
	return ErrBitRange
}

// Registers mirrors the device's output and input lines.
// Bits 0-15 of inputs are digital inputs, bits 16-31 carry the analog
// sample with its low byte in bits 16-23.
type Registers struct {
	outputs     uint16
	inputs      uint32
	analogScale float64
	lock        sync.RWMutex
}

// New creates Registers with everything cleared.
func New() *Registers {
	return &Registers{analogScale: DefaultAnalogScale}
}

func checkBit(register string, bit, width int) error {
	if bit < 0 || bit >= width {
		return &BitRangeError{Register: register, Bit: bit, Width: width}
	}
	return nil
}

// SetOutput sets or clears an output bit.
func (r *Registers) SetOutput(bit int, on bool) error {
	if err := checkBit("output", bit, OutputBits); err != nil {
		return err
	}
	r.lock.Lock()
	if on {
		r.outputs |= 1 << uint(bit)
	} else {
		r.outputs &^= 1 << uint(bit)
	}
	r.lock.Unlock()
	return nil
}

// ToggleOutput flips an output bit and returns the new value.
func (r *Registers) ToggleOutput(bit int) (bool, error) {
	if err := checkBit("output", bit, OutputBits); err != nil {
		return false, err
	}
	r.lock.Lock()
	defer r.lock.Unlock()
	r.outputs ^= 1 << uint(bit)
	return r.outputs&(1<<uint(bit)) != 0, nil
}

// Output tests an output bit.
func (r *Registers) Output(bit int) (bool, error) {
	if err := checkBit("output", bit, OutputBits); err != nil {
		return false, err
	}
	return r.Outputs()&(1<<uint(bit)) != 0, nil
}

// Input tests an input bit.
func (r *Registers) Input(bit int) (bool, error) {
	if err := checkBit("input", bit, InputBits); err != nil {
		return false, err
	}
	return r.Inputs()&(1<<uint(bit)) != 0, nil
}

// Outputs returns the whole output register.
func (r *Registers) Outputs() uint16 {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return r.outputs
}

// SetOutputs replaces the whole output register.
func (r *Registers) SetOutputs(val uint16) {
	r.lock.Lock()
	r.outputs = val
	r.lock.Unlock()
}

// Inputs returns the whole input register.
func (r *Registers) Inputs() uint32 {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return r.inputs
}

// SetInputs replaces the whole input register.
// It's called by the session after a validated response.
func (r *Registers) SetInputs(val uint32) {
	r.lock.Lock()
	r.inputs = val
	r.lock.Unlock()
}

// AnalogSample extracts the raw analog sample from inputs.
func (r *Registers) AnalogSample() uint16 {
	return AnalogSampleOf(r.Inputs())
}

// AnalogSampleOf extracts the analog sample from an input register value.
func AnalogSampleOf(inputs uint32) uint16 {
	return uint16(inputs>>24&0xff)<<8 | uint16(inputs>>16&0xff)
}

// AnalogScale returns the full scale for AnalogInput.
func (r *Registers) AnalogScale() float64 {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return r.analogScale
}

// SetAnalogScale sets the value AnalogInput reports at native full scale.
func (r *Registers) SetAnalogScale(scale float64) {
	r.lock.Lock()
	r.analogScale = scale
	r.lock.Unlock()
}

// AnalogInput returns the analog sample rescaled from the native
// 0-4095 range to 0-AnalogScale.
func (r *Registers) AnalogInput() float64 {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return float64(AnalogSampleOf(r.inputs)) * (r.analogScale / AnalogNativeMax)
}

// EnableLowPassFilter sets LowPassFilterBit.
func (r *Registers) EnableLowPassFilter() {
	r.SetOutput(LowPassFilterBit, true)
}

// DisableLowPassFilter clears LowPassFilterBit.
func (r *Registers) DisableLowPassFilter() {
	r.SetOutput(LowPassFilterBit, false)
}

// LowPassFilter reports whether LowPassFilterBit is set.
func (r *Registers) LowPassFilter() bool {
	return r.Outputs()&(1<<LowPassFilterBit) != 0
}

// SetDisplayOff sets or clears DisplayOffBit.
func (r *Registers) SetDisplayOff(off bool) {
	r.SetOutput(DisplayOffBit, off)
}

// Snapshot captures the registers at once.
func (r *Registers) Snapshot() Snapshot {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return Snapshot{
		Outputs: r.outputs,
		Inputs:  r.inputs,
		Analog:  float64(AnalogSampleOf(r.inputs)) * (r.analogScale / AnalogNativeMax),
	}
}
