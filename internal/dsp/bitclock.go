package dsp

// BitClock is a free-running phase accumulator that maps a sample
// stream to a bit stream at a given rate, including a parts-per-million
// clock error. TX and RX each own an independent BitClock: the
// transmitter synthesizes its own timing, the receiver's can be nudged
// through DSP.CorrectSync, which the block receive path does not call.
type BitClock struct {
	sampleRate float64
	bitRate    float64
	ppm        float64

	// phase is in bit units, advanced by 1/bitDuration per sample.
	phase float64
}

// NewBitClock builds a BitClock for the given sample rate, nominal bit
// rate, and clock error in parts per million (can be negative).
func NewBitClock(sampleRate, bitRate, ppm float64) *BitClock {
	return &BitClock{sampleRate: sampleRate, bitRate: bitRate, ppm: ppm}
}

// bitDuration is fsk_bitduration from the spec: samples per bit,
// corrected for the configured ppm offset.
func (c *BitClock) bitDuration() float64 {
	return c.sampleRate / (c.bitRate * (1 + c.ppm/1e6))
}

// AdvanceSample moves the phase accumulator forward by one sample and
// reports whether that sample crossed into a new bit.
func (c *BitClock) AdvanceSample() (newBit bool) {
	c.phase += 1 / c.bitDuration()
	if c.phase >= 1 {
		c.phase -= 1
		return true
	}
	return false
}

// Phase returns the current fractional bit-phase, in [0, 1).
func (c *BitClock) Phase() float64 {
	return c.phase
}

// Nudge shifts the phase accumulator by offsetBits, used by
// DSP.CorrectSync to pull the RX clock toward the handset's reported
// sync phase.
func (c *BitClock) Nudge(offsetBits float64) {
	c.phase += offsetBits
	for c.phase < 0 {
		c.phase++
	}
	for c.phase >= 1 {
		c.phase--
	}
}

// SetPPM replaces the configured clock error, e.g. after a
// ClockMeter measurement.
func (c *BitClock) SetPPM(ppm float64) {
	c.ppm = ppm
}
