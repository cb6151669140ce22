// Package callcontrol implements the call-control facade of §4.5: five
// downward verbs callable by the telephony layer, and five upward verbs
// the facade emits back into it, sitting above a Sender Registry (the
// ordered set of channels of §2) and announcing itself over mDNS the
// way the teacher's dns_sd.go advertises its KISS TCP service.
package callcontrol

import (
	"context"
	"fmt"
	"sync"

	"github.com/brutella/dnssd"

	"github.com/oldradio/fskcore/internal/channel"
	"github.com/oldradio/fskcore/internal/codec"
	"github.com/oldradio/fskcore/internal/logx"
	"github.com/oldradio/fskcore/internal/numbering"
	"github.com/oldradio/fskcore/internal/txn"
)

// CallRef is an opaque call reference. Per §9's design note ("do not
// expose the raw integer as API"), the facade never hands out the
// underlying counter value itself; every downward verb takes and every
// upward verb carries only this type.
type CallRef struct {
	tag uint64
}

func (r CallRef) String() string {
	return fmt.Sprintf("callref(%#x)", r.tag)
}

// refTagOffset is the fixed high-bit offset §9 describes the source
// using to distinguish call-reference values from other small integers
// sharing the same wire fields; kept here purely as a generator detail,
// never interpreted by callers.
const refTagOffset = 1 << 32

// Upward is implemented by the external telephony layer to receive the
// five upward verbs of §4.5.
type Upward interface {
	Setup(ref CallRef, callingNumber, dialedNumber string)
	Alerting(ref CallRef)
	Answer(ref CallRef, connectedNumber string)
	Release(ref CallRef, cause txn.Cause)
	AudioIn(ref CallRef, pcm []float64)
}

type binding struct {
	channel *channel.Channel
	txn     *txn.Transaction
}

// Facade ties the sender registry to the five downward verbs, holding
// the callref -> (channel, transaction) table that is this package's
// only state beyond what the channels themselves own.
type Facade struct {
	mu       sync.Mutex
	channels []*channel.Channel
	upward   Upward
	nextSeq  uint64
	refs     map[CallRef]binding
	states   map[*channel.Channel]*channelState

	service   *dnssd.Service
	responder dnssd.Responder
}

// New creates a facade over a fixed sender registry. The registry is
// read-only after startup per §5 and is not mutated by this package.
func New(channels []*channel.Channel, upward Upward) *Facade {
	return &Facade{
		channels: channels,
		upward:   upward,
		refs:     make(map[CallRef]binding),
		states:   make(map[*channel.Channel]*channelState),
	}
}

func (f *Facade) newRef() CallRef {
	f.nextSeq++
	return CallRef{tag: refTagOffset | f.nextSeq}
}

// Advertise announces the facade's call-control transport over mDNS
// using brutella/dnssd, mirroring the teacher's dns_sd_announce: build
// a dnssd.Config, create a Service, create a Responder, Add the service
// to it, then run Respond in the background.
func (f *Facade) Advertise(ctx context.Context, name string, port int) error {
	cfg := dnssd.Config{
		Name: name,
		Type: "_fskcore-cc._tcp",
		Port: port,
	}
	sv, err := dnssd.NewService(cfg)
	if err != nil {
		return fmt.Errorf("callcontrol: create dnssd service: %w", err)
	}
	rp, err := dnssd.NewResponder()
	if err != nil {
		return fmt.Errorf("callcontrol: create dnssd responder: %w", err)
	}
	if _, err := rp.Add(sv); err != nil {
		return fmt.Errorf("callcontrol: add dnssd service: %w", err)
	}
	f.service = &sv
	f.responder = rp
	go func() {
		if err := rp.Respond(ctx); err != nil {
			logx.For(logx.Err, -1).Printf("callcontrol: dnssd responder stopped: %v", err)
		}
	}()
	return nil
}

// idleChannel returns the first channel in registry order that is not
// busy, per §4.5's "reject ... if no channel is idle".
func (f *Facade) idleChannel() *channel.Channel {
	for _, c := range f.channels {
		if !c.Busy() {
			return c
		}
	}
	return nil
}

// Setup is the "setup-out" downward verb: validate the dialled number,
// reject if unreachable/busy/no idle channel, else allocate a
// network-initiated transaction, flush siblings, and begin paging.
func (f *Facade) Setup(dialedNumber string) (CallRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	id, err := numbering.ParseFirstSystem(dialedNumber)
	if err != nil {
		return CallRef{}, fmt.Errorf("callcontrol: unreachable number: %w", err)
	}
	c := f.idleChannel()
	if c == nil {
		return CallRef{}, errNoIdleChannel
	}
	t, err := c.CreateNetwork(id, txn.StateVAK)
	if err != nil {
		return CallRef{}, fmt.Errorf("callcontrol: %w", err)
	}
	ref := f.newRef()
	f.refs[ref] = binding{channel: c, txn: t}
	return ref, nil
}

// Answer is the "answer" downward verb. It returns errUnknownCallRef
// for an unknown ref and otherwise does nothing: it does not change the
// transaction's state in any state, the mobile-originated waiting state
// included. A call reaches AHQ only through the mobile's on-air answer
// (AH_K/AH_V).
func (f *Facade) Answer(ref CallRef) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.refs[ref]; !ok {
		return errUnknownCallRef
	}
	return nil
}

// Disconnect initiates protocol release: if the transaction is already
// on the traffic channel (BQ onward), begin the AF release burst;
// otherwise (still on the organisation channel, VAG/VAK included)
// destroy it immediately, per §4.5.
func (f *Facade) Disconnect(ref CallRef, cause txn.Cause) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.refs[ref]
	if !ok {
		return nil // already released: idempotent per §8
	}
	switch b.txn.State {
	case txn.StateBQ, txn.StateVHQ, txn.StateDS, txn.StateRTA,
		txn.StateAHQ, txn.StateAF, txn.StateAT:
		b.txn.Release(cause)
	default:
		b.txn.Abort()
	}
	return nil
}

// Release is the unconditional-teardown downward verb. Per §8's
// idempotence property, calling it on an already-released callref is a
// no-op: the facade only forgets a callref once, and a second call
// finds nothing left to release.
func (f *Facade) Release(ref CallRef, cause txn.Cause) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.refs[ref]
	if !ok {
		return nil
	}
	delete(f.refs, ref)
	if !b.txn.Destroyed() {
		b.txn.Release(cause)
	}
	return nil
}

// AudioOut pushes a 20ms PCM frame into the channel's jitter buffer for
// the call bound to ref, one sample at a time per JitterBuffer's API.
func (f *Facade) AudioOut(ref CallRef, pcm []float64) error {
	f.mu.Lock()
	b, ok := f.refs[ref]
	f.mu.Unlock()
	if !ok {
		return errUnknownCallRef
	}
	for _, sample := range pcm {
		b.channel.DSP.Jitter.Push(sample)
	}
	return nil
}

// pump drains one channel's transaction list after a block boundary,
// translating transaction-level state changes into the five upward
// verbs and garbage-collecting destroyed transactions' callrefs. It is
// called by the sample-pump driver once per rufblock/meldeblock/
// concentrated/distributed opportunity, per §5's single-threaded
// cooperative model.
func (f *Facade) pump(c *channel.Channel, id codec.Identity, newState txn.State) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for ref, b := range f.refs {
		if b.channel != c || b.txn.Subscriber != id {
			continue
		}
		switch newState {
		case txn.StateRTA:
			f.upward.Alerting(ref)
		case txn.StateAHQ:
			f.upward.Answer(ref, id.String())
		}
		if b.txn.Destroyed() {
			delete(f.refs, ref)
			f.upward.Release(ref, b.txn.Cause)
		}
	}
}

// NotifyMobileOriginated is called by the uplink dispatcher once a
// mobile-originated transaction completes dialling (WBP reached),
// emitting the upward "setup" verb with the dialled digits as the
// dialed number and the subscriber identity as the calling number.
func (f *Facade) NotifyMobileOriginated(c *channel.Channel, t *txn.Transaction) CallRef {
	f.mu.Lock()
	defer f.mu.Unlock()
	ref := f.newRef()
	f.refs[ref] = binding{channel: c, txn: t}
	f.upward.Setup(ref, t.Subscriber.String(), t.Dialled)
	return ref
}

var errNoIdleChannel = fmt.Errorf("callcontrol: no idle channel available")
var errUnknownCallRef = fmt.Errorf("callcontrol: unknown or already-released callref")
