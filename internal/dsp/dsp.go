package dsp

import (
	"math/rand"
)

// SampleSource delivers baseband samples from the SDR/soundcard driver.
// The driver itself is out of scope (§1); the core only consumes this
// interface.
type SampleSource interface {
	ReadSamples(dst []float64) (n int, err error)
}

// SampleSink accepts baseband samples bound for the SDR/soundcard
// driver.
type SampleSink interface {
	WriteSamples(src []float64) error
}

// DSP is the per-channel real-time front end: §4.1 in one place. All
// methods run on the sample-pump callback thread; there is no internal
// locking (§5).
type DSP struct {
	ChanNum    int
	SampleRate float64
	Deviation  float64

	TXClock *BitClock
	RXClock *BitClock

	Compander   *Compander
	Scrambler   *Scrambler
	Resampler   *RateConverter
	Jitter      *JitterBuffer
	ClockMeter  *ClockMeter
	PreEmphasis bool

	rng *rand.Rand

	prevTXBit  bool
	havePrevTX bool
}

// Config bundles the construction parameters of a DSP instance.
type Config struct {
	ChanNum    int
	SampleRate float64
	BitRate    float64
	TXPpm      float64
	RXPpm      float64
	Deviation  float64
}

// New builds a DSP front end for one channel.
func New(cfg Config) *DSP {
	return &DSP{
		ChanNum:    cfg.ChanNum,
		SampleRate: cfg.SampleRate,
		Deviation:  cfg.Deviation,
		TXClock:    NewBitClock(cfg.SampleRate, cfg.BitRate, cfg.TXPpm),
		RXClock:    NewBitClock(cfg.SampleRate, cfg.BitRate, cfg.RXPpm),
		Compander:  NewCompander(),
		Scrambler:  NewScrambler(),
		Resampler:  NewRateConverter(11, 10),
		Jitter:     NewJitterBuffer(4000),
		ClockMeter: NewClockMeter(cfg.ChanNum, cfg.SampleRate),
		rng:        rand.New(rand.NewSource(int64(cfg.ChanNum) + 1)),
	}
}

// CorrectSync nudges the RX phase accumulator by offsetBits, per the
// slot-clock correction rule in §4.3.
func (d *DSP) CorrectSync(offsetBits float64) {
	d.RXClock.Nudge(offsetBits)
}

// renderBit appends the samples for one transmitted bit to dst,
// ramping at transitions and holding steady otherwise.
func (d *DSP) renderBit(dst []float64, bit bool) []float64 {
	n := int(d.TXClock.bitDuration() + 0.5)
	if n < 1 {
		n = 1
	}
	transition := d.havePrevTX && bit != d.prevTXBit
	for i := 0; i < n; i++ {
		phi := i * rampPoints / n
		var s float64
		switch {
		case transition && bit:
			s = RampUp(phi, d.Deviation)
		case transition && !bit:
			s = RampDown(phi, d.Deviation)
		default:
			s = Steady(bit, d.Deviation)
		}
		dst = append(dst, s)
	}
	d.prevTXBit = bit
	d.havePrevTX = true
	return dst
}

// RenderPlainBlock renders a plain block (§4.1) to samples: silence
// gap, ramped data bits, silence gap.
func (d *DSP) RenderPlainBlock(b PlainBlockBits) []float64 {
	out := make([]float64, 0, (b.GapBits*2+len(b.DataBits))*8)
	gapSamples := int(d.TXClock.bitDuration()+0.5) * b.GapBits
	out = append(out, make([]float64, gapSamples)...)
	d.havePrevTX = false
	for _, bit := range b.DataBits {
		out = d.renderBit(out, bit)
	}
	out = append(out, make([]float64, gapSamples)...)
	return out
}

// nextVoiceWindow pulls DistVoiceSamples samples of processed voice
// from the jitter buffer, per the transmit voice pipeline of §4.1:
// compress, upsample 11/10, optionally scramble, optionally
// pre-emphasize (skipped while scrambling, by policy).
func (d *DSP) nextVoiceWindow() []float64 {
	raw := make([]float64, DistVoiceSamples)
	d.Jitter.PopN(raw)

	compressed := make([]float64, 0, len(raw))
	for _, s := range raw {
		compressed = append(compressed, d.Compander.Compress(s))
	}

	upsampled := make([]float64, 0, len(compressed)*11/10+2)
	for _, s := range compressed {
		upsampled = d.Resampler.Push(upsampled, s)
	}

	if d.Scrambler.Enabled() {
		for i, s := range upsampled {
			upsampled[i] = d.Scrambler.Process(s)
		}
	} else if d.PreEmphasis {
		applyPreEmphasis(upsampled)
	}
	return upsampled
}

// applyPreEmphasis is a first-order high-pass pre-emphasis filter,
// y[n] = x[n] - 0.95*x[n-1]. It is never applied while scrambling is
// active, per §4.1 ("the combination is audibly poor").
func applyPreEmphasis(samples []float64) {
	const alpha = 0.95
	prev := 0.0
	for i, s := range samples {
		samples[i] = s - alpha*prev
		prev = s
	}
}

// RenderDistributedBlock renders a distributed block: interleaved
// signalling micro-bursts (ramped like plain-block bits) and voice
// windows drawn from the jitter buffer.
func (d *DSP) RenderDistributedBlock(elems []DistBlockElem) []float64 {
	out := make([]float64, 0, len(elems)*DistVoiceSamples)
	d.havePrevTX = false
	for _, e := range elems {
		switch e.Kind {
		case DistSignalling:
			for _, bit := range e.Bits {
				out = d.renderBit(out, bit)
			}
		case DistVoice:
			out = append(out, d.nextVoiceWindow()...)
		}
	}
	return out
}

// RenderSilenceBlock renders 198 bits of silence or scaled noise, each
// value held for the same per-bit sample count renderBit uses.
func (d *DSP) RenderSilenceBlock(noise bool, amplitude float64) []float64 {
	n := int(d.TXClock.bitDuration() + 0.5)
	if n < 1 {
		n = 1
	}
	bits := NewSilenceBlock(noise, amplitude, d.rng)
	out := make([]float64, 0, len(bits)*n)
	for _, s := range bits {
		for i := 0; i < n; i++ {
			out = append(out, s)
		}
	}
	return out
}
