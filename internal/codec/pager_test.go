package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestPagerNumericScenario exercises §8 scenario 5: a numeric message
// "12345" queued for RIC 1234 with FunctionNumeric.
// The address must land in slot 1234&7, its message codeword(s) must
// follow immediately, and every other slot in the batch stays idle.
func TestPagerNumericScenario(t *testing.T) {
	p := NewPager()
	p.Enqueue(&Message{RIC: 1234, Function: FunctionNumeric, Text: "12345"})

	batch := p.NextBatch()
	require.Len(t, batch, codewordsPerBatch)

	wantSlot := uint8(1234 & 7)
	dec := NewBatchDecoder()
	for i, w := range batch {
		slot := uint8((i / 2))
		err := dec.PutCodeword(w, slot)
		if slot != wantSlot {
			assert.NoError(t, err)
			assert.Equal(t, IdleCodeword, w, "slot %d should stay idle", slot)
		}
	}
	pages := dec.Pages()
	require.Len(t, pages, 1)
	assert.Equal(t, uint32(1234), pages[0].RIC)
	assert.Equal(t, FunctionNumeric, pages[0].Function)
	assert.Equal(t, "12345", pages[0].Text)
}

func TestPagerIdleWhenEmpty(t *testing.T) {
	p := NewPager()
	assert.False(t, p.Pending())
	batch := p.NextBatch()
	for _, w := range batch {
		assert.Equal(t, IdleCodeword, w)
	}
}

func TestPagerRepeatRequeues(t *testing.T) {
	p := NewPager()
	p.Enqueue(&Message{RIC: 8, Function: FunctionTone1, Repeat: 1})
	// Tone-only function has no message body, so the address codeword
	// alone consumes the slot and the repeat re-enters the queue.
	batch := p.NextBatch()
	require.Len(t, batch, codewordsPerBatch)
	assert.True(t, p.Pending())

	batch2 := p.NextBatch()
	require.Len(t, batch2, codewordsPerBatch)
	assert.False(t, p.Pending())
	_ = batch2
}
