package dsp

import (
	"time"

	"github.com/oldradio/fskcore/internal/logx"
)

// ClockMeter measures the wall-clock rate of the TX and RX sample
// streams and logs the ppm deviation once per second. Grounded on
// osmocom-analog's cnetz/dsp.c clock-speed measurement mode; it
// influences nothing else, matching §4.1.
type ClockMeter struct {
	chanNum   int
	txSamples int64
	rxSamples int64
	started   time.Time
	lastLog   time.Time
	sampleHz  float64
}

// NewClockMeter builds a meter for the given channel and nominal
// sample rate.
func NewClockMeter(chanNum int, sampleHz float64) *ClockMeter {
	now := time.Now()
	return &ClockMeter{chanNum: chanNum, sampleHz: sampleHz, started: now, lastLog: now}
}

// AddTX records n transmitted samples.
func (m *ClockMeter) AddTX(n int) { m.txSamples += int64(n) }

// AddRX records n received samples.
func (m *ClockMeter) AddRX(n int) { m.rxSamples += int64(n) }

// Tick should be called regularly (e.g. once per block); it logs once
// a second has elapsed since the last report.
func (m *ClockMeter) Tick(now time.Time) {
	elapsed := now.Sub(m.lastLog)
	if elapsed < time.Second {
		return
	}
	secs := elapsed.Seconds()
	txPPM := (float64(m.txSamples)/secs/m.sampleHz - 1) * 1e6
	rxPPM := (float64(m.rxSamples)/secs/m.sampleHz - 1) * 1e6
	logx.For(logx.Debug, m.chanNum).Info("clock speed", "tx_ppm", txPPM, "rx_ppm", rxPPM)
	m.txSamples, m.rxSamples = 0, 0
	m.lastLog = now
}
