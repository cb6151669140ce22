// Package channel implements the per-transceiver data model of §3: the
// DSP mode/scheduled-mode pair, the slot clock, the insertion-ordered
// transaction list, and the busy-flag invariant that gates idle
// broadcast.
package channel

import (
	"github.com/oldradio/fskcore/internal/codec"
	"github.com/oldradio/fskcore/internal/dsp"
	"github.com/oldradio/fskcore/internal/slotclock"
	"github.com/oldradio/fskcore/internal/txn"
)

// SystemInfo carries the per-channel broadcast fields cnetz.c calls
// "si": network identity, power hints, and the handful of threshold
// constants the original reads from a sysinfo table. Held read-only
// for the session per §5.
type SystemInfo struct {
	Network    codec.Identity
	MaxPower   uint8
	OrgChannel uint16 // ogk_vorschlag: the suggested organisation channel
	AuthBit    bool
}

// Channel is one transceiver: a channel number, its DSP front-end, its
// slot clock, its system information, and its transaction list.
type Channel struct {
	Number int
	Info   SystemInfo
	Timing txn.Timing

	DSP   *dsp.DSP
	Clock *slotclock.Clock

	transactions []*txn.Transaction

	log logLogger
}

// logLogger is the minimal surface this package needs from
// internal/logx, kept as an interface so tests don't need a real
// logger.
type logLogger interface {
	Printf(format string, args ...interface{})
}

// New creates an idle channel.
func New(number int, info SystemInfo, timing txn.Timing, d *dsp.DSP) *Channel {
	return &Channel{
		Number: number,
		Info:   info,
		Timing: timing,
		DSP:    d,
		Clock:  slotclock.New(dsp.ModeIdleBroadcast),
	}
}

// Busy reports §3's busy-flag invariant: set iff at least one
// transaction exists in a non-registration (traffic-channel-allocating)
// state.
func (c *Channel) Busy() bool {
	for _, t := range c.transactions {
		if t.State.AllocatesTrafficChannel() {
			return true
		}
	}
	return false
}

// Transactions returns the insertion-ordered transaction list.
func (c *Channel) Transactions() []*txn.Transaction {
	return c.transactions
}

// Find returns the transaction matching a subscriber identity, or nil.
func (c *Channel) Find(id codec.Identity) *txn.Transaction {
	for _, t := range c.transactions {
		if t.Subscriber == id {
			return t
		}
	}
	return nil
}

// CreateUplink implements the uplink-initiated creation policy of
// §4.4: requires the channel to be idle (no busy transaction), and
// destroys any duplicate subscriber identity first with a notice.
func (c *Channel) CreateUplink(id codec.Identity, state txn.State, mobileOriginated bool) (*txn.Transaction, error) {
	if c.Busy() {
		return nil, errChannelBusy
	}
	if existing := c.Find(id); existing != nil {
		c.logNotice("duplicate subscriber identity %v, destroying older transaction", id)
		existing.Abort()
		c.remove(existing)
	}
	t := txn.New(id, state, mobileOriginated)
	c.transactions = append(c.transactions, t)
	return t, nil
}

// CreateNetwork implements network-initiated creation: permitted only
// when idle, purging every sibling transaction first.
func (c *Channel) CreateNetwork(id codec.Identity, state txn.State) (*txn.Transaction, error) {
	if c.Busy() {
		return nil, errChannelBusy
	}
	c.PurgeAllExcept(nil)
	t := txn.New(id, state, false)
	c.transactions = append(c.transactions, t)
	return t, nil
}

// PurgeAllExcept destroys every transaction other than keep, in
// insertion order, per §3's "new call request purges older
// transactions" invariant.
func (c *Channel) PurgeAllExcept(keep *txn.Transaction) {
	var kept []*txn.Transaction
	for _, t := range c.transactions {
		if t == keep {
			kept = append(kept, t)
			continue
		}
		if !t.Destroyed() {
			c.logNotice("purging transaction %v", t)
			t.Abort()
		}
	}
	c.transactions = kept
}

// remove unlinks t from the list without requiring it to already be
// marked destroyed (used for the duplicate-identity replacement path,
// which discards the old transaction rather than letting it finish).
func (c *Channel) remove(t *txn.Transaction) {
	for i, x := range c.transactions {
		if x == t {
			c.transactions = append(c.transactions[:i:i], c.transactions[i+1:]...)
			return
		}
	}
}

// Sweep removes every destroyed transaction from the list and returns
// the channel to idle broadcast if none remain, per §3's channel
// lifecycle.
func (c *Channel) Sweep() {
	kept := c.transactions[:0]
	for _, t := range c.transactions {
		if !t.Destroyed() {
			kept = append(kept, t)
		}
	}
	c.transactions = kept
	if len(c.transactions) == 0 && c.Clock.Mode() != dsp.ModeOff && c.Clock.Mode() != dsp.ModeIdleBroadcast {
		c.Clock.EnterOrganisation()
		c.Clock.ScheduleSwitch(dsp.ModeIdleBroadcast, 0)
	}
}

// Shutdown destroys every transaction, per §3's channel teardown
// lifecycle.
func (c *Channel) Shutdown() {
	for _, t := range c.transactions {
		if !t.Destroyed() {
			c.logNotice("shutdown: discarding in-flight transaction %v", t)
			t.Abort()
		}
	}
	c.transactions = nil
}

func (c *Channel) logNotice(format string, args ...interface{}) {
	if c.log != nil {
		c.log.Printf(format, args...)
	}
}

// SetLogger attaches a logger (normally logx.For(logx.Info, c.Number))
// for notice-level messages this package emits.
func (c *Channel) SetLogger(l logLogger) {
	c.log = l
}

var errChannelBusy = channelBusyError{}

type channelBusyError struct{}

func (channelBusyError) Error() string { return "channel: busy, cannot accept new transaction" }
