// Package slotclock implements the organisation-channel super-frame
// scheduler and slot-clock correction of §4.3: a 32 time-slot × 2
// sub-phase (R/M) counter, the distributed-signalling jump-by-8
// policy, and the two-block-lookahead DSP mode switch.
package slotclock

import (
	"math"

	"github.com/oldradio/fskcore/internal/dsp"
)

// SubPhase is the organisation channel's sub-phase within a time slot.
type SubPhase int

const (
	SubPhaseR SubPhase = iota // Rufblock: paging
	SubPhaseM                 // Meldeblock: access
)

func (s SubPhase) String() string {
	if s == SubPhaseM {
		return "M"
	}
	return "R"
}

// TimeSlots is the number of time slots in one super-frame.
const TimeSlots = 32

// BlockBits and SuperFrameBits give the bit-domain geometry used by
// the slot-clock correction formula below; BlockBits is the width of
// one plain block (§4.1's 7+184+7 gap/data/gap layout).
const (
	BlockBits      = 7 + 184 + 7
	SuperFrameBits = TimeSlots * 2 * BlockBits
)

// Clock tracks (time_slot, sub_phase), the scheduled DSP-mode switch
// countdown, and performs sync-phase correction.
type Clock struct {
	TimeSlot int
	SubPhase SubPhase

	mode        dsp.Mode
	scheduled   dsp.Mode
	switchIn    int // sub-slots remaining before `scheduled` takes effect; 0 = none pending
	distributed bool
}

// New returns a Clock starting at (slot 0, sub-phase R) in the given
// initial DSP mode.
func New(initial dsp.Mode) *Clock {
	return &Clock{mode: initial, scheduled: initial}
}

// Mode returns the live DSP mode.
func (c *Clock) Mode() dsp.Mode {
	return c.mode
}

// Advance moves the clock forward by one emitted block, applying the
// organisation-channel policy (sub-phase then time-slot advance) or
// the distributed-signalling policy (jump time-slot by 8), and
// services any pending mode-switch countdown.
func (c *Clock) Advance() {
	if c.distributed {
		c.TimeSlot = (c.TimeSlot + 8) % TimeSlots
	} else {
		if c.SubPhase == SubPhaseR {
			c.SubPhase = SubPhaseM
		} else {
			c.SubPhase = SubPhaseR
			c.TimeSlot = (c.TimeSlot + 1) % TimeSlots
		}
	}
	c.serviceSwitch()
}

// serviceSwitch decrements a pending mode-switch countdown on every
// block boundary that falls on sub-phase R, transferring `scheduled`
// into `mode` when it reaches zero. In distributed mode every block is
// treated as if on sub-phase R, since there is no R/M split once a
// call has moved to the traffic channel.
func (c *Clock) serviceSwitch() {
	if c.switchIn <= 0 {
		return
	}
	if c.distributed || c.SubPhase == SubPhaseR {
		c.switchIn--
		if c.switchIn == 0 {
			c.mode = c.scheduled
		}
	}
}

// ScheduleSwitch requests a DSP mode change to take effect after
// `lookahead` further sub-phase-R block boundaries (0, 1, or 2 per
// §4.3). A lookahead of 0 applies immediately.
func (c *Clock) ScheduleSwitch(mode dsp.Mode, lookahead int) {
	c.scheduled = mode
	c.switchIn = lookahead
	if lookahead <= 0 {
		c.mode = mode
		c.switchIn = 0
	}
}

// SwitchPending reports the scheduled mode, how many block boundaries
// remain, and whether a scheduled switch is still counting down.
func (c *Clock) SwitchPending() (scheduled dsp.Mode, remaining int, pending bool) {
	return c.scheduled, c.switchIn, c.switchIn > 0
}

// EnterDistributed switches the clock into distributed-signalling slot
// advance (jump-by-8) without touching the DSP mode; callers combine
// this with ScheduleSwitch to move the live mode across as well.
func (c *Clock) EnterDistributed() {
	c.distributed = true
}

// EnterOrganisation returns the clock to the organisation-channel
// (sub-phase R/M alternation) slot advance.
func (c *Clock) EnterOrganisation() {
	c.distributed = false
	c.SubPhase = SubPhaseR
}

// PagingSlot reports whether the current (time_slot, sub_phase) is one
// of the paging-carrying slots selected by the system-information
// bitmask (32 bits, one per time slot, sub-phase R only per §4.3).
func PagingSlot(mask uint32, slot int, sub SubPhase) bool {
	if sub != SubPhaseR {
		return false
	}
	return mask&(1<<uint(slot%TimeSlots)) != 0
}

// CorrectSync computes the slot-clock correction offset per §4.3's
// formula. When knownSlot is negative the absolute slot is not known
// and the block-relative form is used instead.
func CorrectSync(syncPhase float64, knownSlot int) (offset float64) {
	if knownSlot < 0 {
		offset = mod(syncPhase, BlockBits)
		if offset > BlockBits/2 {
			offset -= BlockBits
		}
		return offset
	}
	offset = mod(syncPhase-BlockBits*float64(knownSlot)+SuperFrameBits, SuperFrameBits)
	if offset > SuperFrameBits/2 {
		offset -= SuperFrameBits
	}
	return offset
}

// PullFraction returns the fraction of `offset` the DSP's RX phase
// accumulator should actually be nudged by: the full amount once sync
// is lost (|offset| > 0.5 bit), half otherwise so residual error
// relaxes geometrically rather than jumping.
func PullFraction(offset float64) float64 {
	if offset < -0.5 || offset > 0.5 {
		return 1.0
	}
	return 0.5
}

func mod(x, m float64) float64 {
	r := math.Mod(x, m)
	if r < 0 {
		r += m
	}
	return r
}
