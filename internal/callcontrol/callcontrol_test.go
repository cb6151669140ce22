package callcontrol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oldradio/fskcore/internal/channel"
	"github.com/oldradio/fskcore/internal/codec"
	"github.com/oldradio/fskcore/internal/dsp"
	"github.com/oldradio/fskcore/internal/txn"
)

type fakeUpward struct {
	setups   []string
	alerted  []CallRef
	answered []CallRef
	released []CallRef
	causes   []txn.Cause
	audioIn  [][]float64
}

func (f *fakeUpward) Setup(ref CallRef, callingNumber, dialedNumber string) {
	f.setups = append(f.setups, dialedNumber)
}
func (f *fakeUpward) Alerting(ref CallRef)                 { f.alerted = append(f.alerted, ref) }
func (f *fakeUpward) Answer(ref CallRef, connected string) { f.answered = append(f.answered, ref) }
func (f *fakeUpward) Release(ref CallRef, cause txn.Cause) {
	f.released = append(f.released, ref)
	f.causes = append(f.causes, cause)
}
func (f *fakeUpward) AudioIn(ref CallRef, pcm []float64) { f.audioIn = append(f.audioIn, pcm) }

func newTestFacade() (*Facade, *channel.Channel, *fakeUpward) {
	d := dsp.New(dsp.Config{ChanNum: 131, SampleRate: 48000, BitRate: 5280})
	c := channel.New(131, channel.SystemInfo{}, txn.DefaultTiming(), d)
	up := &fakeUpward{}
	return New([]*channel.Channel{c}, up), c, up
}

func TestSetupRejectsUnreachableNumber(t *testing.T) {
	f, _, _ := newTestFacade()
	_, err := f.Setup("not-a-number")
	assert.Error(t, err)
}

func TestSetupAllocatesOnIdleChannel(t *testing.T) {
	f, c, _ := newTestFacade()
	ref, err := f.Setup("2222002")
	require.NoError(t, err)
	assert.NotZero(t, ref.tag)
	require.Len(t, c.Transactions(), 1)
	assert.Equal(t, txn.StateVAK, c.Transactions()[0].State)
}

func TestSetupRejectsWhenNoIdleChannel(t *testing.T) {
	f, c, _ := newTestFacade()
	_, err := f.Setup("2222002")
	require.NoError(t, err)
	_ = c
	_, err = f.Setup("2222003")
	assert.Error(t, err)
}

func TestReleaseIsIdempotent(t *testing.T) {
	f, _, up := newTestFacade()
	ref, err := f.Setup("2222002")
	require.NoError(t, err)

	require.NoError(t, f.Release(ref, txn.CauseGassenBesetzt))
	assert.Len(t, up.released, 0, "a downward release is not echoed upward")

	require.NoError(t, f.Release(ref, txn.CauseGassenBesetzt))
	assert.Len(t, up.released, 0, "second release on the same callref must be a no-op")
}

func TestDisconnectDestroysImmediatelyWhenNotOnTrafficChannel(t *testing.T) {
	f, c, _ := newTestFacade()
	ref, err := f.Setup("2222002")
	require.NoError(t, err)

	require.NoError(t, f.Disconnect(ref, txn.CauseNone))
	require.Len(t, c.Transactions(), 1)
	assert.True(t, c.Transactions()[0].Destroyed())
}

func TestAudioOutOnUnknownRefErrors(t *testing.T) {
	f, _, _ := newTestFacade()
	err := f.AudioOut(CallRef{tag: 99}, []float64{0, 0, 0})
	assert.Error(t, err)
}

func TestNotifyMobileOriginatedEmitsUpwardSetup(t *testing.T) {
	f, c, up := newTestFacade()
	tr := txn.New(codec.Identity{}, txn.StateWBP, true)
	tr.Dialled = "0101234567"
	ref := f.NotifyMobileOriginated(c, tr)
	require.Len(t, up.setups, 1)
	assert.Equal(t, "0101234567", up.setups[0])
	assert.NotZero(t, ref.tag)
}

func TestPumpEmitsAlertingOnRTAThenReleaseOnDestroy(t *testing.T) {
	f, c, up := newTestFacade()
	ref, err := f.Setup("2222002")
	require.NoError(t, err)
	id := c.Transactions()[0].Subscriber

	f.pump(c, id, txn.StateRTA)
	require.Len(t, up.alerted, 1)
	assert.Equal(t, ref, up.alerted[0])

	c.Transactions()[0].Abort()
	f.pump(c, id, txn.StateAT)
	require.Len(t, up.released, 1)
	assert.Equal(t, ref, up.released[0])
	_, stillBound := f.refs[ref]
	assert.False(t, stillBound)
}
