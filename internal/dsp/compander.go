package dsp

import "math"

// Compander implements the per-sample compressor/expander that narrows
// the dynamic range of voice before transmission and restores it on
// receive. No library in the retrieval pack offers audio companding,
// so this is a small hand-rolled mu-law-style implementation; the
// compression law constant (mu) is configurable per system.
type Compander struct {
	Mu float64
}

// NewCompander returns a Compander with the conventional telephony mu
// of 255.
func NewCompander() *Compander {
	return &Compander{Mu: 255}
}

// Compress narrows the dynamic range of a normalized sample in [-1, 1].
func (c *Compander) Compress(x float64) float64 {
	sign := 1.0
	if x < 0 {
		sign = -1
		x = -x
	}
	if x > 1 {
		x = 1
	}
	return sign * math.Log(1+c.Mu*x) / math.Log(1+c.Mu)
}

// Expand is the inverse of Compress, restoring full dynamic range on
// the receive path.
func (c *Compander) Expand(y float64) float64 {
	sign := 1.0
	if y < 0 {
		sign = -1
		y = -y
	}
	if y > 1 {
		y = 1
	}
	return sign * (math.Pow(1+c.Mu, y) - 1) / c.Mu
}
