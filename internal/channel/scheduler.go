package channel

import (
	"time"

	"github.com/oldradio/fskcore/internal/codec"
	"github.com/oldradio/fskcore/internal/dsp"
	"github.com/oldradio/fskcore/internal/slotclock"
	"github.com/oldradio/fskcore/internal/txn"
)

// modeSwitchLookahead is the two-block-lookahead the original applies
// whenever it schedules a dsp_mode change ahead of the slot boundary
// it actually takes effect on, per §4.3.
const modeSwitchLookahead = 2

// NextBlock is the scheduler half of "Scheduler & Slot Clock" (§2, §4.3):
// it services the transactions' supervision timers, decides which kind
// of block the channel transmits next from the live DSP mode, drives
// the chosen transaction's Emit* method, encodes the resulting
// telegram, and renders it to samples. One call produces exactly one
// on-air block, after which NextBlock itself advances the slot clock
// and sweeps destroyed transactions. Mirrors the dsp_mode switch inside
// cnetz_txsymbol in the original source, collapsed into one Go method
// per block kind.
func (c *Channel) NextBlock(now time.Time) []float64 {
	c.serviceTimers(now)

	var samples []float64
	switch c.Clock.Mode() {
	case dsp.ModeIdleBroadcast:
		samples = c.nextOrganisationBlock(now)
	case dsp.ModeConcentratedSignalling:
		samples = c.nextConcentratedBlock(now)
	case dsp.ModeDistributedSignallingVoice:
		samples = c.nextDistributedBlock()
	default:
		samples = c.DSP.RenderSilenceBlock(false, 0)
	}

	c.Clock.Advance()
	c.Sweep()
	return samples
}

// serviceTimers expires the WAF dial-prompt timer and the VHQ
// supervision timer against now, for whichever transaction currently
// holds one armed. Both Expire* methods are no-ops unless the owning
// transaction is in the matching state with an expired timer, so
// calling them unconditionally every block is harmless.
func (c *Channel) serviceTimers(now time.Time) {
	for _, t := range c.transactions {
		if t.Destroyed() {
			continue
		}
		switch t.State {
		case txn.StateWAF:
			t.ExpireDialPrompt(now, c.Timing)
		case txn.StateVHQ:
			t.ExpireSupervision(now)
		}
	}
}

// orgPhaseTransaction returns the first live transaction in a state
// serviced by the organisation channel's rufblock/meldeblock cycle,
// i.e. everything before a traffic channel frequency has actually been
// assigned, or nil if there is none.
func orgPhaseTransaction(ts []*txn.Transaction) *txn.Transaction {
	for _, t := range ts {
		if t.Destroyed() {
			continue
		}
		switch t.State {
		case txn.StateEM, txn.StateUM, txn.StateVWG, txn.StateWAF,
			txn.StateWBN, txn.StateWBP, txn.StateVAG, txn.StateVAK:
			return t
		}
	}
	return nil
}

// trafficPhaseTransaction returns the first live transaction in a state
// serviced by the traffic channel's concentrated or distributed
// signalling, i.e. everything from allocation acknowledgement through
// release, or nil if there is none.
func trafficPhaseTransaction(ts []*txn.Transaction) *txn.Transaction {
	for _, t := range ts {
		if t.Destroyed() {
			continue
		}
		switch t.State {
		case txn.StateBQ, txn.StateVHQ, txn.StateDS, txn.StateRTA,
			txn.StateAHQ, txn.StateAF, txn.StateAT:
			return t
		}
	}
	return nil
}

// nextOrganisationBlock drives the organisation-channel rufblock or
// meldeblock cycle, whichever the slot clock's sub-phase selects,
// falling back to the idle broadcast telegram when no transaction
// currently occupies the organisation channel.
func (c *Channel) nextOrganisationBlock(now time.Time) []float64 {
	active := orgPhaseTransaction(c.transactions)

	var tel codec.Telegram
	if c.Clock.SubPhase == slotclock.SubPhaseR {
		if active != nil {
			op := active.EmitRufblock(now, c.Timing)
			tel = c.rufblockTelegram(op, active)
			if active.State == txn.StateBQ {
				c.Clock.ScheduleSwitch(dsp.ModeConcentratedSignalling, modeSwitchLookahead)
			}
		} else {
			tel = c.idleRufblockTelegram()
		}
	} else {
		if active != nil {
			op := active.EmitMeldeblock(now, c.Timing)
			tel = c.meldeblockTelegram(op, active)
		} else {
			tel = c.idleMeldeblockTelegram()
		}
	}

	bits := codec.EncodeBlock(tel)
	return c.DSP.RenderPlainBlock(dsp.NewPlainBlock(bits))
}

func (c *Channel) idleRufblockTelegram() codec.Telegram {
	return codec.Telegram{
		Opcode:   codec.OpcodeLR_R,
		Network:  c.Info.Network,
		MaxPower: c.Info.MaxPower,
		TimeSlot: uint8(c.Clock.TimeSlot),
		AuthBit:  c.Info.AuthBit,
	}
}

func (c *Channel) idleMeldeblockTelegram() codec.Telegram {
	return codec.Telegram{
		Opcode:               codec.OpcodeMLR_M,
		MaxPower:             c.Info.MaxPower,
		OrgChannelSuggestion: c.Info.OrgChannel,
	}
}

// rufblockTelegram fills in the wire fields a given rufblock opcode
// carries; EmitRufblock only returns the opcode and advances state, so
// the scheduler is responsible for the rest of §4.2's per-opcode field
// usage.
func (c *Channel) rufblockTelegram(op codec.Opcode, t *txn.Transaction) codec.Telegram {
	switch op {
	case codec.OpcodeVAG_R, codec.OpcodeVAK_R:
		return codec.Telegram{Opcode: op, Subscriber: t.Subscriber, FrequencyNr: t.FrequencyNr}
	case codec.OpcodeEBQ_R, codec.OpcodeUBQ_R, codec.OpcodeWBN_R, codec.OpcodeWBP_R:
		return codec.Telegram{Opcode: op, Subscriber: t.Subscriber}
	default:
		return c.idleRufblockTelegram()
	}
}

func (c *Channel) meldeblockTelegram(op codec.Opcode, t *txn.Transaction) codec.Telegram {
	if op == codec.OpcodeWAF_M {
		return codec.Telegram{Opcode: op, Subscriber: t.Subscriber}
	}
	return c.idleMeldeblockTelegram()
}

// nextConcentratedBlock drives the traffic channel's concentrated
// signalling transaction, applying any requested DSP mode switch
// (entering distributed mode at the DS/AHQ exit points of §4.4).
func (c *Channel) nextConcentratedBlock(now time.Time) []float64 {
	active := trafficPhaseTransaction(c.transactions)
	if active == nil {
		return c.DSP.RenderSilenceBlock(false, 0)
	}

	subPhase7R := c.Clock.TimeSlot == 7 && c.Clock.SubPhase == slotclock.SubPhaseR
	op, sw := active.EmitConcentrated(now, c.Timing, subPhase7R)
	if sw.Requested {
		c.Clock.EnterDistributed()
		c.Clock.ScheduleSwitch(dsp.Mode(sw.Mode), sw.Lookahead)
	}

	tel := codec.Telegram{Opcode: op, Subscriber: active.Subscriber, FrequencyNr: active.FrequencyNr}
	if op == codec.OpcodeAF_K {
		tel.Cause = uint8(active.Cause)
	}
	bits := codec.EncodeBlock(tel)
	return c.DSP.RenderPlainBlock(dsp.NewPlainBlock(bits))
}

// nextDistributedBlock drives the traffic channel's distributed
// signalling transaction, interleaving the resulting micro-burst with
// voice windows via dsp.NewDistributedBlock.
func (c *Channel) nextDistributedBlock() []float64 {
	active := trafficPhaseTransaction(c.transactions)
	if active == nil {
		return c.DSP.RenderSilenceBlock(false, 0)
	}

	op := active.EmitDistributed(c.Timing, c.Clock.TimeSlot)
	tel := codec.Telegram{Opcode: op, Subscriber: active.Subscriber, FrequencyNr: active.FrequencyNr}
	if op == codec.OpcodeAF_V {
		tel.Cause = uint8(active.Cause)
	}
	bits := codec.EncodeBlock(tel)
	return c.DSP.RenderDistributedBlock(dsp.NewDistributedBlock(bits))
}

// ReceiveBlock decodes one uplink block's data bits and dispatches the
// telegram, either creating a new transaction for an organisation-
// channel attach/roam/call request or routing it to the matching
// existing transaction. Mirrors the three
// cnetz_receive_telegramm_{ogk,spk_k,spk_v} dispatch functions of the
// original source, collapsed here into one opcode switch since
// internal/codec already disambiguates opcodes across all three
// channel kinds.
func (c *Channel) ReceiveBlock(now time.Time, bits []bool) error {
	tel, err := codec.DecodeBlock(bits)
	if err != nil {
		return err
	}

	switch tel.Opcode {
	case codec.OpcodeEM_R:
		_, err := c.CreateUplink(tel.Subscriber, txn.StateEM, true)
		return err
	case codec.OpcodeUM_R:
		_, err := c.CreateUplink(tel.Subscriber, txn.StateUM, true)
		return err
	case codec.OpcodeVWG_R, codec.OpcodeSRG_R:
		_, err := c.CreateUplink(tel.Subscriber, txn.StateVWG, true)
		return err
	case codec.OpcodeWUE_M:
		if t := c.Find(tel.Subscriber); t != nil {
			t.OnUplinkDigits(tel.DialledDigits)
		}
	case codec.OpcodeBEL_K, codec.OpcodeDSQ_K, codec.OpcodeVH_K, codec.OpcodeRTAQ_K, codec.OpcodeAH_K, codec.OpcodeAT_K:
		if t := c.Find(tel.Subscriber); t != nil {
			t.OnUplinkConcentrated(now, tel.Opcode, c.Timing)
		}
	case codec.OpcodeVH_V, codec.OpcodeAT_V:
		if t := c.Find(tel.Subscriber); t != nil {
			t.OnUplinkDistributed(now, tel.Opcode, c.Timing)
		}
	}
	return nil
}
