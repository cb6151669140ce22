package codec

// Message is one outbound page queued for the POCSAG-style paging
// channel.
type Message struct {
	RIC      uint32
	Function Function
	Text     string // only meaningful for FunctionNumeric/FunctionAlpha
	Repeat   int    // additional times to resend after the first send
}

// slotsPerBatch is the number of paired address/message slots in a
// batch (8 slots of 2 codewords each = 16 codewords), per §4.2.
const slotsPerBatch = 8
const codewordsPerBatch = 2 * slotsPerBatch

// Pager assembles outbound batches from a queue of pending messages,
// grounded on osmocom-analog's pocsag/frame.c scheduler.
type Pager struct {
	pending []*Message
	current *Message
	cursorN *NumericCursor
	cursorA *AlphaCursor
	idle    int
}

// NewPager returns an empty pager.
func NewPager() *Pager {
	return &Pager{}
}

// Enqueue schedules a message for transmission. Messages are served
// in FIFO order, one per matching time slot per batch.
func (p *Pager) Enqueue(m *Message) {
	p.pending = append(p.pending, m)
	p.idle = 0
}

// Pending reports whether any message is queued or in progress.
func (p *Pager) Pending() bool {
	return len(p.pending) > 0 || p.current != nil
}

// NextBatch produces the 16 codewords of one batch (sync word is not
// included; callers emit SyncCodeword before the first codeword of a
// batch, or PreambleWord PreambleCount times before the very first
// batch of a transmission burst).
func (p *Pager) NextBatch() []Codeword {
	words := make([]Codeword, 0, codewordsPerBatch)
	for slot := 0; slot < slotsPerBatch; slot++ {
		first := p.nextAddressOrMessage(uint8(slot))
		words = append(words, first)
		if first != IdleCodeword && !first.IsMessage() && p.current == nil {
			// A body-less page fills the slot: no second page starts in
			// it this batch, so a requeued repeat waits for the next one.
			words = append(words, IdleCodeword)
			continue
		}
		words = append(words, p.nextAddressOrMessage(uint8(slot)))
	}
	return words
}

// nextAddressOrMessage produces one codeword for the given slot,
// continuing an in-progress message, starting a new one whose RIC
// matches this slot, or sending idle.
func (p *Pager) nextAddressOrMessage(slot uint8) Codeword {
	if p.current != nil {
		return p.nextMessageWord()
	}
	for i, m := range p.pending {
		if uint8(m.RIC&7) != slot {
			continue
		}
		p.pending = append(p.pending[:i:i], p.pending[i+1:]...)
		word := EncodeAddress(m.RIC, m.Function)
		if (m.Function == FunctionNumeric || m.Function == FunctionAlpha) && m.Text != "" {
			p.current = m
			if m.Function == FunctionNumeric {
				p.cursorN = NewNumericCursor(m.Text)
			} else {
				p.cursorA = NewAlphaCursor(m.Text)
			}
		} else if m.Repeat > 0 {
			m.Repeat--
			p.pending = append(p.pending, m)
		}
		return word
	}
	return IdleCodeword
}

func (p *Pager) nextMessageWord() Codeword {
	m := p.current
	var word Codeword
	var done bool
	switch m.Function {
	case FunctionNumeric:
		word = p.cursorN.NextWord()
		done = p.cursorN.Done()
	case FunctionAlpha:
		word = p.cursorA.NextWord()
		done = p.cursorA.Done()
	default:
		word = IdleCodeword
		done = true
	}
	if done {
		p.current = nil
		p.cursorN = nil
		p.cursorA = nil
		if m.Repeat > 0 {
			m.Repeat--
			p.pending = append(p.pending, m)
		}
	}
	return word
}
