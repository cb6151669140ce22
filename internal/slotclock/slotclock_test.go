package slotclock

import (
	"testing"

	"github.com/oldradio/fskcore/internal/dsp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestOrganisationAdvanceAlternatesSubPhase(t *testing.T) {
	c := New(dsp.ModeIdleBroadcast)
	assert.Equal(t, 0, c.TimeSlot)
	assert.Equal(t, SubPhaseR, c.SubPhase)

	c.Advance()
	assert.Equal(t, 0, c.TimeSlot)
	assert.Equal(t, SubPhaseM, c.SubPhase)

	c.Advance()
	assert.Equal(t, 1, c.TimeSlot)
	assert.Equal(t, SubPhaseR, c.SubPhase)
}

func TestOrganisationWrapsAt32Slots(t *testing.T) {
	c := New(dsp.ModeIdleBroadcast)
	for i := 0; i < TimeSlots*2; i++ {
		c.Advance()
	}
	assert.Equal(t, 0, c.TimeSlot)
	assert.Equal(t, SubPhaseR, c.SubPhase)
}

func TestDistributedJumpsBy8(t *testing.T) {
	c := New(dsp.ModeDistributedSignallingVoice)
	c.EnterDistributed()
	c.TimeSlot = 3
	c.Advance()
	assert.Equal(t, 11, c.TimeSlot)
	c.Advance()
	assert.Equal(t, 19, c.TimeSlot)
}

func TestModeSwitchTwoBlockLookahead(t *testing.T) {
	c := New(dsp.ModeIdleBroadcast)
	c.ScheduleSwitch(dsp.ModeConcentratedSignalling, 2)
	_, remaining, pending := c.SwitchPending()
	require.True(t, pending)
	assert.Equal(t, 2, remaining)
	assert.Equal(t, dsp.ModeIdleBroadcast, c.Mode())

	c.Advance() // sub-phase R -> M: countdown does not decrement
	assert.Equal(t, dsp.ModeIdleBroadcast, c.Mode())
	c.Advance() // M -> R, slot++: decrements to 1
	_, remaining, _ = c.SwitchPending()
	assert.Equal(t, 1, remaining)

	c.Advance() // R -> M: no decrement
	c.Advance() // M -> R: decrements to 0, mode switches
	assert.Equal(t, dsp.ModeConcentratedSignalling, c.Mode())
}

func TestModeSwitchImmediateWhenLookaheadZero(t *testing.T) {
	c := New(dsp.ModeIdleBroadcast)
	c.ScheduleSwitch(dsp.ModeFrameMode, 0)
	assert.Equal(t, dsp.ModeFrameMode, c.Mode())
	_, _, pending := c.SwitchPending()
	assert.False(t, pending)
}

func TestPagingSlotOnlyOnSubPhaseR(t *testing.T) {
	mask := uint32(1 << 5)
	assert.True(t, PagingSlot(mask, 5, SubPhaseR))
	assert.False(t, PagingSlot(mask, 5, SubPhaseM))
	assert.False(t, PagingSlot(mask, 4, SubPhaseR))
}

func TestCorrectSyncKnownSlotFoldsToHalfSuperFrame(t *testing.T) {
	offset := CorrectSync(BlockBits*5, 5)
	assert.InDelta(t, 0, offset, 1e-9)

	offset = CorrectSync(BlockBits*5+2, 5)
	assert.InDelta(t, 2, offset, 1e-9)

	offset = CorrectSync(float64(SuperFrameBits)-1, 0)
	assert.InDelta(t, -1, offset, 1e-9)
}

func TestCorrectSyncUnknownSlotFoldsToHalfBlock(t *testing.T) {
	offset := CorrectSync(BlockBits-1, -1)
	assert.InDelta(t, -1, offset, 1e-9)

	offset = CorrectSync(3, -1)
	assert.InDelta(t, 3, offset, 1e-9)
}

func TestPullFractionFullBeyondHalfBit(t *testing.T) {
	assert.Equal(t, 1.0, PullFraction(0.6))
	assert.Equal(t, 1.0, PullFraction(-0.6))
	assert.Equal(t, 0.5, PullFraction(0.3))
	assert.Equal(t, 0.5, PullFraction(-0.5))
}

// TestCorrectSyncStaysWithinHalfDomain is a property test (§8: the
// correction offset never exceeds half the domain it folds into,
// known-slot or not) across arbitrary phases and slot indices.
func TestCorrectSyncStaysWithinHalfDomain(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		syncPhase := rapid.Float64Range(-1e7, 1e7).Draw(rt, "syncPhase")
		knownSlot := rapid.IntRange(-1, TimeSlots-1).Draw(rt, "knownSlot")

		offset := CorrectSync(syncPhase, knownSlot)

		limit := BlockBits / 2.0
		if knownSlot >= 0 {
			limit = SuperFrameBits / 2.0
		}
		assert.True(rt, offset >= -limit-1e-6 && offset <= limit+1e-6,
			"offset %v outside [-%v, %v] for syncPhase=%v knownSlot=%d", offset, limit, limit, syncPhase, knownSlot)
	})
}
