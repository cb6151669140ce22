package callcontrol

import (
	"fmt"
	"time"

	"github.com/oldradio/fskcore/internal/channel"
	"github.com/oldradio/fskcore/internal/dsp"
	"github.com/oldradio/fskcore/internal/logx"
	"github.com/oldradio/fskcore/internal/txn"
)

// rxBlockBits is the organisation/concentrated-channel plain-block
// geometry §4.1 carries: a leading silence gap, the 184 data bits
// ReceiveBlock wants, and a trailing silence gap.
const rxBlockBits = dsp.PlainGapBits*2 + dsp.PlainDataBits

// rxFraming accumulates one channel's incoming baseband samples into a
// raw bit stream at the channel's RX bit-clock rate, a sample-domain
// slicer standing in for the matched-filter FSK discriminator §1 treats
// as out of scope ("DSP front end" primitives only, consumed through
// DSP.RXClock here).
type rxFraming struct {
	raw []bool
	sum float64
}

// channelState is the per-channel mutable state the sample-pump driver
// owns beyond what channel.Channel itself tracks: the partially-filled
// outgoing block buffer and the incoming bit-framing accumulator.
type channelState struct {
	txPending []float64
	rx        rxFraming
}

// FillTxSamples is the "fill_tx_samples" synchronous entry point of §5:
// it pulls rendered samples from chanIndex's scheduler one block at a
// time (channel.Channel.NextBlock) until dst is full, driving upward
// verbs for whatever transaction-level progress each block produced.
func (f *Facade) FillTxSamples(chanIndex int, now time.Time, dst []float64) error {
	c, st, err := f.stateFor(chanIndex)
	if err != nil {
		return err
	}

	for len(dst) > 0 {
		if len(st.txPending) == 0 {
			st.txPending = c.NextBlock(now)
			f.notifyChannel(c)
		}
		n := copy(dst, st.txPending)
		dst = dst[n:]
		st.txPending = st.txPending[n:]
	}
	return nil
}

// OnSamplesReceived is the "on_samples_received" synchronous entry
// point of §5: while the channel is on the organisation or concentrated
// traffic channel it slices incoming samples into bits, reassembles the
// plain-block geometry, and decodes+dispatches each completed block
// through channel.Channel.ReceiveBlock. Distributed-mode uplink
// signalling demultiplexing is not implemented (see DESIGN.md); call
// audio received during that mode is forwarded upward unsliced.
func (f *Facade) OnSamplesReceived(chanIndex int, now time.Time, samples []float64) error {
	c, st, err := f.stateFor(chanIndex)
	if err != nil {
		return err
	}

	if c.Clock.Mode() == dsp.ModeDistributedSignallingVoice {
		f.forwardAudio(c, samples)
		return nil
	}

	for _, s := range samples {
		st.rx.sum += s
		if !c.DSP.RXClock.AdvanceSample() {
			continue
		}
		bit := st.rx.sum >= 0
		st.rx.sum = 0
		st.rx.raw = append(st.rx.raw, bit)
		if len(st.rx.raw) < rxBlockBits {
			continue
		}
		data := append([]bool(nil), st.rx.raw[dsp.PlainGapBits:dsp.PlainGapBits+dsp.PlainDataBits]...)
		st.rx.raw = st.rx.raw[:0]
		if err := c.ReceiveBlock(now, data); err != nil {
			logx.For(logx.Info, c.Number).Printf("uplink decode error: %v", err)
			continue
		}
		f.notifyChannel(c)
	}
	return nil
}

// forwardAudio hands raw samples up as call audio for the one call, if
// any, bound to c; used while the channel is in distributed mode, where
// the sample stream interleaves signalling micro-bursts with voice the
// sample-domain slicer above does not attempt to demultiplex.
func (f *Facade) forwardAudio(c *channel.Channel, samples []float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for ref, b := range f.refs {
		if b.channel == c && !b.txn.Destroyed() {
			f.upward.AudioIn(ref, samples)
			return
		}
	}
}

// notifyChannel registers a callref for any mobile-originated
// transaction on c that has just finished dialling, then pumps every
// transaction presently bound to a callref on c, per pump's own
// "once per ... opportunity" contract. It is called once per completed
// outgoing or incoming block.
func (f *Facade) notifyChannel(c *channel.Channel) {
	for _, t := range c.Transactions() {
		if t.MobileOriginated && t.State == txn.StateWBP && !f.hasRef(c, t) {
			f.NotifyMobileOriginated(c, t)
		}
	}
	for _, t := range f.refsOn(c) {
		f.pump(c, t.Subscriber, t.State)
	}
}

func (f *Facade) hasRef(c *channel.Channel, t *txn.Transaction) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, b := range f.refs {
		if b.channel == c && b.txn == t {
			return true
		}
	}
	return false
}

// refsOn returns the transactions presently bound to a callref on c, a
// snapshot safe to range over after the lock is released (NextBlock's
// own Sweep may already have unlinked a destroyed transaction from c's
// list by the time this runs, but the callref binding keeps it alive
// here until pump releases it).
func (f *Facade) refsOn(c *channel.Channel) []*txn.Transaction {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ts []*txn.Transaction
	for _, b := range f.refs {
		if b.channel == c {
			ts = append(ts, b.txn)
		}
	}
	return ts
}

func (f *Facade) stateFor(chanIndex int) (*channel.Channel, *channelState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if chanIndex < 0 || chanIndex >= len(f.channels) {
		return nil, nil, fmt.Errorf("callcontrol: unknown channel index %d", chanIndex)
	}
	c := f.channels[chanIndex]
	st, ok := f.states[c]
	if !ok {
		st = &channelState{}
		f.states[c] = st
	}
	return c, st, nil
}
