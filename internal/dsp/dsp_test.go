package dsp

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRampTableSymmetry(t *testing.T) {
	for i := 0; i < rampPoints; i++ {
		assert.InDelta(t, 1.0, (rampUpTable[i]+rampDownTable[i]), 1e-9)
	}
	assert.InDelta(t, 0, rampUpTable[0], 1e-9)
	assert.InDelta(t, 1, rampUpTable[rampPoints-1], 1e-9)
}

func TestBitClockBoundedPhaseError(t *testing.T) {
	c := NewBitClock(48000, 5280, 0)
	bits := 0
	for i := 0; i < 48000; i++ {
		if c.AdvanceSample() {
			bits++
		}
	}
	expected := 48000.0 / (48000.0 / 5280.0)
	assert.InDelta(t, expected, float64(bits), 2)
}

func TestBitClockNudgeWraps(t *testing.T) {
	c := NewBitClock(48000, 5280, 0)
	c.Nudge(1.5)
	assert.GreaterOrEqual(t, c.Phase(), 0.0)
	assert.Less(t, c.Phase(), 1.0)
}

func TestJitterBufferUnderflowIsSilence(t *testing.T) {
	j := NewJitterBuffer(4)
	assert.Equal(t, 0.0, j.Pop())
}

func TestJitterBufferOverflowDropsOldest(t *testing.T) {
	j := NewJitterBuffer(2)
	j.Push(1)
	j.Push(2)
	j.Push(3) // drops 1
	assert.Equal(t, 2.0, j.Pop())
	assert.Equal(t, 3.0, j.Pop())
}

func TestResampleRatioApprox(t *testing.T) {
	r := NewRateConverter(11, 10)
	var out []float64
	in := make([]float64, 1000)
	for i := range in {
		in[i] = math.Sin(float64(i))
	}
	for _, x := range in {
		out = r.Push(out, x)
	}
	ratio := float64(len(out)) / float64(len(in))
	assert.InDelta(t, 1.1, ratio, 0.01)
}

func TestComparderRoundTrip(t *testing.T) {
	c := NewCompander()
	for _, x := range []float64{-1, -0.5, -0.1, 0, 0.1, 0.5, 0.9, 1} {
		y := c.Compress(x)
		back := c.Expand(y)
		assert.InDelta(t, x, back, 1e-6)
	}
}

func TestScramblerIsInvolution(t *testing.T) {
	s := NewScrambler()
	s.SetEnabled(true)
	in := []float64{1, 2, 3, 4, 5}
	var scrambled, descrambled []float64
	for _, x := range in {
		scrambled = append(scrambled, s.Process(x))
	}
	s2 := NewScrambler()
	s2.SetEnabled(true)
	for _, x := range scrambled {
		descrambled = append(descrambled, s2.Process(x))
	}
	require.Len(t, descrambled, len(in))
	for i := range in {
		assert.InDelta(t, in[i], descrambled[i], 1e-9)
	}
}

func TestPlainBlockRendersNonEmpty(t *testing.T) {
	d := New(Config{ChanNum: 0, SampleRate: 48000, BitRate: 5280, Deviation: 2000})
	data := make([]bool, PlainDataBits)
	for i := range data {
		data[i] = i%3 == 0
	}
	out := d.RenderPlainBlock(NewPlainBlock(data))
	assert.NotEmpty(t, out)
	for _, s := range out {
		assert.LessOrEqual(t, math.Abs(s), d.Deviation+1e-9)
	}
}

func TestDistributedBlockPullsVoice(t *testing.T) {
	d := New(Config{ChanNum: 0, SampleRate: 48000, BitRate: 5280, Deviation: 2000})
	for i := 0; i < 20000; i++ {
		d.Jitter.Push(0.1)
	}
	signalling := make([]bool, DistMicroBursts*DistMicroBurstBits)
	elems := NewDistributedBlock(signalling)
	out := d.RenderDistributedBlock(elems)
	assert.NotEmpty(t, out)
}

func TestSilenceBlockLength(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	out := NewSilenceBlock(true, 500, rng)
	assert.Len(t, out, SilenceBits)
	for _, s := range out {
		assert.LessOrEqual(t, math.Abs(s), 500.0)
	}
}

func TestNewDistributedBlockPanicsOnWrongLength(t *testing.T) {
	assert.Panics(t, func() {
		NewDistributedBlock(make([]bool, 10))
	})
}

func TestNewPlainBlockPanicsOnWrongLength(t *testing.T) {
	assert.Panics(t, func() {
		NewPlainBlock(make([]bool, 10))
	})
}
