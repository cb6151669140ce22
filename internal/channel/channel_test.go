package channel

import (
	"testing"

	"github.com/oldradio/fskcore/internal/codec"
	"github.com/oldradio/fskcore/internal/dsp"
	"github.com/oldradio/fskcore/internal/txn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestChannel() *Channel {
	d := dsp.New(dsp.Config{ChanNum: 131, SampleRate: 48000, BitRate: 5280})
	return New(131, SystemInfo{Network: codec.Identity{Nationality: 2, Exchange: 22, Rest: 1}}, txn.DefaultTiming(), d)
}

func TestNewChannelIsIdleAndNotBusy(t *testing.T) {
	c := newTestChannel()
	assert.False(t, c.Busy())
	assert.Empty(t, c.Transactions())
}

func TestCreateUplinkRejectsWhenBusy(t *testing.T) {
	c := newTestChannel()
	id := codec.Identity{Nationality: 0, Exchange: 1, Rest: 1}
	tr, err := c.CreateUplink(id, txn.StateVAG, true)
	require.NoError(t, err)
	require.NotNil(t, tr)
	assert.True(t, c.Busy())

	other := codec.Identity{Nationality: 0, Exchange: 1, Rest: 2}
	_, err = c.CreateUplink(other, txn.StateEM, false)
	assert.Error(t, err)
}

func TestCreateUplinkReplacesDuplicateIdentity(t *testing.T) {
	c := newTestChannel()
	id := codec.Identity{Nationality: 0, Exchange: 1, Rest: 1}
	first, err := c.CreateUplink(id, txn.StateEM, false)
	require.NoError(t, err)

	second, err := c.CreateUplink(id, txn.StateUM, false)
	require.NoError(t, err)
	assert.True(t, first.Destroyed())
	assert.Len(t, c.Transactions(), 1)
	assert.Same(t, second, c.Transactions()[0])
}

func TestCreateNetworkPurgesSiblings(t *testing.T) {
	c := newTestChannel()
	sibling := codec.Identity{Nationality: 0, Exchange: 1, Rest: 1}
	_, err := c.CreateUplink(sibling, txn.StateEM, false)
	require.NoError(t, err)

	id := codec.Identity{Nationality: 0, Exchange: 1, Rest: 2}
	tr, err := c.CreateNetwork(id, txn.StateVAK)
	require.NoError(t, err)
	require.Len(t, c.Transactions(), 1)
	assert.Same(t, tr, c.Transactions()[0])
}

func TestSweepRemovesDestroyedAndReturnsIdle(t *testing.T) {
	c := newTestChannel()
	id := codec.Identity{Nationality: 0, Exchange: 1, Rest: 1}
	tr, err := c.CreateUplink(id, txn.StateEM, false)
	require.NoError(t, err)
	tr.Abort()

	c.Sweep()
	assert.Empty(t, c.Transactions())
	_, _, pending := c.Clock.SwitchPending()
	assert.False(t, pending)
	assert.Equal(t, dsp.ModeIdleBroadcast, c.Clock.Mode())
}

func TestShutdownDestroysEverything(t *testing.T) {
	c := newTestChannel()
	id := codec.Identity{Nationality: 0, Exchange: 1, Rest: 1}
	_, err := c.CreateUplink(id, txn.StateEM, false)
	require.NoError(t, err)
	c.Shutdown()
	assert.Empty(t, c.Transactions())
}
