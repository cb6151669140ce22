// Package rig adapts internal/freq's computed frequency pairs to a
// hardware transceiver through goHamlib, grounded on the teacher's rig
// control idiom (xylo04/goHamlib is carried in go.mod for exactly this
// purpose: frequency/mode control of the physical radio).
package rig

import (
	"fmt"

	"github.com/xylo04/goHamlib"
)

// driver is the subset of goHamlib.Rig this package drives, kept as an
// interface so Controller can be exercised in tests without a physical
// radio attached.
type driver interface {
	Init(model int) error
	SetConf(name, value string)
	Open() error
	SetFreq(vfo goHamlib.VFO, freq float64) error
	Close() error
}

// Controller tunes a goHamlib-backed rig to a channel's downlink
// frequency and its second VFO to the uplink frequency (it does no PTT
// switching), keeping the
// DSP core itself hardware-agnostic per §1/§5 (the core only knows
// channel numbers and frequencies, never rig models).
type Controller struct {
	rig   driver
	model int
}

// New opens a goHamlib rig handle for the given model and device path.
func New(model int, device string) (*Controller, error) {
	r := &goHamlib.Rig{}
	if err := r.Init(model); err != nil {
		return nil, fmt.Errorf("rig: init model %d: %w", model, err)
	}
	r.SetConf("rig_pathname", device)
	if err := r.Open(); err != nil {
		return nil, fmt.Errorf("rig: open %s: %w", device, err)
	}
	return &Controller{rig: r, model: model}, nil
}

// TuneDownlink sets the rig's receive (or transmit, for a base station
// that transmits on the downlink frequency) VFO to freqMHz.
func (c *Controller) TuneDownlink(freqMHz float64) error {
	if err := c.rig.SetFreq(goHamlib.VFOCurrent, freqMHz*1e6); err != nil {
		return fmt.Errorf("rig: set downlink frequency %.4f MHz: %w", freqMHz, err)
	}
	return nil
}

// TuneUplink sets a second VFO (if the rig supports one) to the uplink
// monitoring frequency; on a rig without a second VFO the driver's
// error is returned.
func (c *Controller) TuneUplink(freqMHz float64) error {
	if err := c.rig.SetFreq(goHamlib.VFOB, freqMHz*1e6); err != nil {
		return fmt.Errorf("rig: set uplink frequency %.4f MHz: %w", freqMHz, err)
	}
	return nil
}

// Close releases the rig handle.
func (c *Controller) Close() error {
	return c.rig.Close()
}
