package crypto

import (
	"errors"
	"io"
	"testing"

	"filippo.io/edwards25519"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suffix-labs/namada-signer/pkg/store"
	"github.com/suffix-labs/namada-signer/pkg/txn"
)

func newTestManager() (*RandomnessManager, store.ItemList, store.ItemList, store.ItemList) {
	spends := store.NewMemoryList()
	outputs := store.NewMemoryList()
	converts := store.NewMemoryList()
	m := NewRandomnessManager(spends, outputs, converts, &seqReader{})
	return m, spends, outputs, converts
}

func TestMintSpendPersistsCanonicalScalars(t *testing.T) {
	m, spends, _, _ := newTestManager()

	rcv, alpha, index, err := m.MintSpend()
	require.NoError(t, err)
	assert.Equal(t, uint32(0), index)
	assert.NotEqual(t, rcv, alpha)

	item, err := spends.Get(0)
	require.NoError(t, err)
	require.Len(t, item, 64)
	assert.Equal(t, rcv[:], item[:32])
	assert.Equal(t, alpha[:], item[32:])

	// The persisted bytes must decode as canonical scalars.
	_, err = edwards25519.NewScalar().SetCanonicalBytes(item[:32])
	require.NoError(t, err)
	_, err = edwards25519.NewScalar().SetCanonicalBytes(item[32:])
	require.NoError(t, err)
}

func TestMintIndicesAreSequentialPerRole(t *testing.T) {
	m, _, _, _ := newTestManager()

	_, _, i0, err := m.MintSpend()
	require.NoError(t, err)
	_, _, i1, err := m.MintSpend()
	require.NoError(t, err)
	assert.Equal(t, uint32(0), i0)
	assert.Equal(t, uint32(1), i1)

	// Each role counts independently.
	_, oi, err := m.MintOutput()
	require.NoError(t, err)
	assert.Equal(t, uint32(0), oi)

	_, ci, err := m.MintConvert()
	require.NoError(t, err)
	assert.Equal(t, uint32(0), ci)
}

func TestSpendRandomnessRoundTrip(t *testing.T) {
	m, spends, _, _ := newTestManager()

	rcv, alpha, index, err := m.MintSpend()
	require.NoError(t, err)

	rcvS, alphaS, err := spendRandomnessAt(spends, index)
	require.NoError(t, err)
	assert.Equal(t, rcv[:], rcvS.Bytes())
	assert.Equal(t, alpha[:], alphaS.Bytes())
}

func TestSingleRandomnessRoundTrip(t *testing.T) {
	m, _, outputs, converts := newTestManager()

	rcv, index, err := m.MintOutput()
	require.NoError(t, err)
	s, err := singleRandomnessAt(outputs, index)
	require.NoError(t, err)
	assert.Equal(t, rcv[:], s.Bytes())

	crcv, cindex, err := m.MintConvert()
	require.NoError(t, err)
	cs, err := singleRandomnessAt(converts, cindex)
	require.NoError(t, err)
	assert.Equal(t, crcv[:], cs.Bytes())
}

func TestMintSpendRandomnessSourceFailure(t *testing.T) {
	// Enough randomness for rcv but not for alpha.
	spends := store.NewMemoryList()
	m := NewRandomnessManager(spends, store.NewMemoryList(), store.NewMemoryList(), io.LimitReader(&seqReader{}, 64))

	_, _, _, err := m.MintSpend()
	assert.ErrorIs(t, err, txn.ErrUnknown)

	n, err := spends.Len()
	require.NoError(t, err)
	assert.Equal(t, uint32(0), n)
}

var errAppend = errors.New("append failed")

type appendFailList struct {
	store.ItemList
}

func (appendFailList) Append([]byte) (uint32, error) { return 0, errAppend }

func TestMintReportsPersistFailure(t *testing.T) {
	m := NewRandomnessManager(appendFailList{}, appendFailList{}, appendFailList{}, &seqReader{})

	_, _, _, err := m.MintSpend()
	assert.ErrorIs(t, err, errAppend)

	_, _, err = m.MintOutput()
	assert.ErrorIs(t, err, errAppend)

	_, _, err = m.MintConvert()
	assert.ErrorIs(t, err, errAppend)
}

func TestRandomnessRetrievalRejectsBadItems(t *testing.T) {
	spends := store.NewMemoryList()
	_, err := spends.Append([]byte{1, 2, 3})
	require.NoError(t, err)

	_, _, err = spendRandomnessAt(spends, 0)
	assert.ErrorIs(t, err, txn.ErrInvalidSettings)

	_, _, err = spendRandomnessAt(spends, 5)
	assert.ErrorIs(t, err, store.ErrIndexOutOfRange)

	outputs := store.NewMemoryList()
	bad := make([]byte, 32)
	for i := range bad {
		bad[i] = 0xFF // far above the group order, non-canonical
	}
	_, err = outputs.Append(bad)
	require.NoError(t, err)
	_, err = singleRandomnessAt(outputs, 0)
	assert.ErrorIs(t, err, txn.ErrInvalidSettings)
}
