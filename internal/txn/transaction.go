package txn

import (
	"fmt"
	"time"

	"github.com/oldradio/fskcore/internal/codec"
)

// ModeSwitch is a request the caller applies to its slotclock.Clock;
// Transaction never touches the clock directly (§5: the transaction
// list is channel-owned, the clock is scheduler-owned).
type ModeSwitch struct {
	Requested bool
	Mode      int // caller-defined dsp.Mode value, kept untyped here to avoid an import cycle with dsp
	Lookahead int
}

// modeDistributedSignallingVoice mirrors dsp.ModeDistributedSignallingVoice.
// Every exit from concentrated signalling in EmitConcentrated lands here;
// kept as a local int constant rather than an import for the same reason
// ModeSwitch.Mode is untyped.
const modeDistributedSignallingVoice = 3

// Transaction is one subscriber interaction, per §3's data model.
type Transaction struct {
	Subscriber       codec.Identity
	State            State
	Dialled          string
	Retries          int
	Cause            Cause
	Timer            Timer
	MobileOriginated bool
	FrequencyNr      uint16

	count     int // generic emission counter (BQ×8, AF_K/AF_V repeats)
	destroyed bool
}

// New creates a transaction for an uplink- or network-initiated
// request, per §4.4's creation policy (callers are responsible for
// checking channel idleness and purging siblings before calling this).
func New(subscriber codec.Identity, initial State, mobileOriginated bool) *Transaction {
	return &Transaction{Subscriber: subscriber, State: initial, MobileOriginated: mobileOriginated}
}

// Abort force-destroys the transaction outside its normal state
// progression, used by the channel when purging siblings for a new
// call request (§3) or on shutdown.
func (t *Transaction) Abort() {
	if t.destroyed {
		return
	}
	t.destroy()
}

// Destroyed reports whether this transaction has reached its terminal
// state and should be unlinked from the channel's list.
func (t *Transaction) Destroyed() bool {
	return t.destroyed
}

// destroy marks the transaction terminal and disarms its timer,
// mirroring §3's "destruction always disarms its timer" invariant.
// Calling it twice is a programming error.
func (t *Transaction) destroy() {
	if t.destroyed {
		panic("txn: double destruction of transaction")
	}
	t.destroyed = true
	t.Timer.Disarm()
}

// matches reports whether an uplink telegram's subscriber identity
// belongs to this transaction, per §4.4's identity-matching rule.
func (t *Transaction) matches(id codec.Identity) bool {
	return t.Subscriber == id
}

// EmitRufblock produces the next organisation-channel rufblock opcode
// for this transaction and advances its state, mirroring
// cnetz_transmit_telegramm_rufblock's per-state switch. Called once
// per rufblock opportunity while the transaction is in an
// organisation-channel state.
func (t *Transaction) EmitRufblock(now time.Time, timing Timing) codec.Opcode {
	switch t.State {
	case StateEM:
		t.destroy()
		return codec.OpcodeEBQ_R
	case StateUM:
		t.destroy()
		return codec.OpcodeUBQ_R
	case StateWBN:
		t.destroy()
		return codec.OpcodeWBN_R
	case StateWBP:
		t.State = StateVAG
		return codec.OpcodeWBP_R
	case StateVAG:
		t.State = StateBQ
		t.count = 0
		t.Timer.Arm(now, timing.Allocation)
		return codec.OpcodeVAG_R
	case StateVAK:
		t.State = StateBQ
		t.count = 0
		t.Timer.Arm(now, timing.Allocation)
		return codec.OpcodeVAK_R
	default:
		return codec.OpcodeLR_R
	}
}

// EmitMeldeblock produces the next organisation-channel meldeblock
// opcode, mirroring cnetz_transmit_telegramm_meldeblock.
func (t *Transaction) EmitMeldeblock(now time.Time, timing Timing) codec.Opcode {
	if t.State == StateVWG {
		t.State = StateWAF
		t.Timer.Arm(now, timing.DialPrompt)
		return codec.OpcodeWAF_M
	}
	return codec.OpcodeMLR_M
}

// OnUplinkDigits handles WUE_M, the only uplink the WAF state reacts
// to (§4.4: "WAF | uplink digits | WBP").
func (t *Transaction) OnUplinkDigits(digits string) bool {
	if t.State != StateWAF {
		return false
	}
	t.Dialled = digits
	t.Timer.Disarm()
	t.State = StateWBP
	return true
}

// ExpireDialPrompt services the WAF timer: retry up to
// timing.DialRetries times by returning to VWG, then reject into WBN.
// Reports whether the transaction is still alive.
func (t *Transaction) ExpireDialPrompt(now time.Time, timing Timing) bool {
	if t.State != StateWAF || !t.Timer.Expired(now) {
		return true
	}
	t.Timer.Disarm()
	t.Retries++
	if t.Retries > timing.DialRetries {
		t.State = StateWBN
		return true
	}
	t.State = StateVWG
	return true
}

// EmitConcentrated produces the next concentrated-signalling (traffic
// channel) opcode and advances state, mirroring the TRANS_BQ..TRANS_AT
// switch in the original's speech-channel transmit path. subPhase7R
// indicates the current block is the organisation-channel-equivalent
// sub=7, sub-phase R boundary the distributed scheduler jump aligns
// to, per §4.4's VHQ exit condition.
func (t *Transaction) EmitConcentrated(now time.Time, timing Timing, subPhase7R bool) (op codec.Opcode, sw ModeSwitch) {
	switch t.State {
	case StateBQ:
		op = codec.OpcodeBQ_K
		t.count++
		if t.count >= 8 && !t.Timer.Armed() {
			t.State = StateVHQ
			t.count = 0
			t.Timer.Arm(now, timing.Hold)
		}
	case StateVHQ:
		op = codec.OpcodeVHQ_K
		if subPhase7R && !t.Timer.Armed() {
			if t.MobileOriginated {
				t.State = StateDS
				t.count = 0
				t.Timer.Arm(now, timing.ThroughWait)
			} else {
				t.State = StateRTA
				t.count = 0
				t.Timer.Arm(now, timing.RingWait)
			}
		}
	case StateDS:
		op = codec.OpcodeDSB_K
		if subPhase7R && !t.Timer.Armed() {
			t.State = StateVHQ
			t.count = 0
			sw = ModeSwitch{Requested: true, Mode: modeDistributedSignallingVoice, Lookahead: 1}
		}
	case StateRTA:
		op = codec.OpcodeRTA_K
	case StateAHQ:
		op = codec.OpcodeAHQ_K
		if subPhase7R {
			t.State = StateVHQ
			t.count = 0
			sw = ModeSwitch{Requested: true, Mode: modeDistributedSignallingVoice, Lookahead: 1}
		}
	case StateAF:
		op = codec.OpcodeAF_K
		t.count++
		if t.count == timing.ReleaseCount {
			t.destroy()
		}
	case StateAT:
		op = codec.OpcodeAF_K
		t.count++
		if t.count == 1 {
			t.destroy()
		}
	default:
		op = codec.OpcodeNone
	}
	return op, sw
}

// OnUplinkConcentrated handles BEL_K/DSQ_K/VH_K/RTAQ_K/AH_K/AT_K,
// mirroring the receive-side switch in the original.
func (t *Transaction) OnUplinkConcentrated(now time.Time, op codec.Opcode, timing Timing) {
	switch op {
	case codec.OpcodeBEL_K:
		if t.State == StateBQ {
			t.Timer.Disarm()
		}
	case codec.OpcodeDSQ_K:
		if t.State == StateDS {
			t.Timer.Disarm()
		}
	case codec.OpcodeVH_K:
		if t.State == StateVHQ {
			t.Timer.Arm(now, timing.Hold)
		}
	case codec.OpcodeRTAQ_K:
		if t.State == StateRTA {
			t.Timer.Arm(now, timing.RingWait)
		}
	case codec.OpcodeAH_K:
		if t.State == StateRTA {
			t.State = StateAHQ
			t.Timer.Disarm()
		}
	case codec.OpcodeAT_K:
		t.ReleaseByMobile()
	}
}

// EmitDistributed produces VHQ1_V/VHQ2_V/AF_V for distributed
// signalling, alternating the VHQ opcode on the jump-by-8 sched_ts
// bit per §9's Open Question resolution ("sched_ts & 8" selects one of
// the two VHQ opcodes). The AF/AT branches mirror EmitConcentrated's
// release-counter/destroy pattern, but against
// timing.DistributedReleaseCount (N_AFV) rather than timing.ReleaseCount
// (N_AFKT), since the two modes reach their terminal count independently.
func (t *Transaction) EmitDistributed(timing Timing, schedTS int) codec.Opcode {
	switch t.State {
	case StateVHQ:
		if schedTS&8 != 0 {
			return codec.OpcodeVHQ2_V
		}
		return codec.OpcodeVHQ1_V
	case StateAF:
		t.count++
		if t.count == timing.DistributedReleaseCount {
			t.destroy()
		}
		return codec.OpcodeAF_V
	case StateAT:
		t.count++
		if t.count == 1 {
			t.destroy()
		}
		return codec.OpcodeAF_V
	default:
		return codec.OpcodeNone
	}
}

// OnUplinkDistributed handles VH_V/AT_V.
func (t *Transaction) OnUplinkDistributed(now time.Time, op codec.Opcode, timing Timing) {
	switch op {
	case codec.OpcodeVH_V:
		if t.State == StateVHQ {
			t.Timer.Arm(now, timing.Hold)
		}
	case codec.OpcodeAT_V:
		t.ReleaseByMobile()
	}
}

// ExpireSupervision services the VHQ hold timer in distributed mode
// (scenario 4, §8): no VH_V/VH_K arrived within timing.Hold, so the
// call is released toward the network with a mapped cause and the
// transaction moves to AF to emit the release burst.
func (t *Transaction) ExpireSupervision(now time.Time) (released bool, cause Cause) {
	if t.State != StateVHQ || !t.Timer.Expired(now) {
		return false, CauseNone
	}
	t.Timer.Disarm()
	t.Release(MapNetworkCause(NetworkCauseTempFail))
	return true, t.Cause
}

// Release initiates protocol-defined release toward the mobile by
// entering AF (network-initiated) per §4.4. A transaction already in AF,
// or in AT (mobile-initiated), is left unchanged, its cause included.
func (t *Transaction) Release(cause Cause) {
	if t.State == StateAF || t.State == StateAT {
		return
	}
	t.Cause = cause
	t.count = 0
	t.Timer.Disarm()
	t.State = StateAF
}

// ReleaseByMobile enters AT on receipt of an uplink AT_K/AT_V that was
// not itself routed through Release (kept distinct so callers can
// count whether the release originated on-air or from the network, a
// distinction §4.4's cause mapping does not need but logging does).
func (t *Transaction) ReleaseByMobile() {
	if t.State == StateAF || t.State == StateAT {
		return
	}
	t.count = 0
	t.Timer.Disarm()
	t.State = StateAT
}

func (t *Transaction) String() string {
	return fmt.Sprintf("txn{%v state=%s dialled=%q}", t.Subscriber, t.State, t.Dialled)
}
